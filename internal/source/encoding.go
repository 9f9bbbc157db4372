package source

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// decodeToUTF8 turns export bytes into valid UTF-8. Exports arrive as
// UTF-8 (with or without BOM), UTF-16, or legacy Greek Windows-1253; the
// last is what produced the mojibake header variants the alias tables carry,
// so new exports in that encoding are decoded properly instead.
func decodeToUTF8(data []byte) ([]byte, error) {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return data[len(bomUTF8):], nil
	case bytes.HasPrefix(data, bomUTF16LE):
		return decodeWith(data, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM))
	case bytes.HasPrefix(data, bomUTF16BE):
		return decodeWith(data, unicode.UTF16(unicode.BigEndian, unicode.UseBOM))
	case utf8.Valid(data):
		return data, nil
	}

	if decoded, err := decodeWith(data, charmap.Windows1253); err == nil {
		return decoded, nil
	}
	// Last resort: Latin-1 never fails, every byte maps to a code point.
	return decodeWith(data, charmap.ISO8859_1)
}

func decodeWith(data []byte, enc encoding.Encoding) ([]byte, error) {
	decoded, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return decoded, nil
}

package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

func TestParseCSVCommaSeparated(t *testing.T) {
	data := []byte("Κωδικός,Περιγραφή,Τιμή Λιανικής\nP-1,Φέτα ΠΟΠ,\"4,90\"\nP-2,Κασέρι,\"7,30\"\n")

	records, err := ParseCSV(data)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "P-1", records[0].Fields["Κωδικός"])
	assert.Equal(t, "Φέτα ΠΟΠ", records[0].Fields["Περιγραφή"])
	assert.Equal(t, "4,90", records[0].Fields["Τιμή Λιανικής"])
	assert.Empty(t, records[0].Sheet)
}

func TestParseCSVSemicolonSeparated(t *testing.T) {
	// Semicolon exports leave decimal commas unquoted.
	data := []byte("Κωδικός;Τιμή Λιανικής\nP-1;4,90\n")

	records, err := ParseCSV(data)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "4,90", records[0].Fields["Τιμή Λιανικής"])
}

func TestParseCSVTrimsHeader(t *testing.T) {
	records, err := ParseCSV([]byte(" Κωδικός , Όνομα \nP-1,Φέτα\n"))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "P-1", records[0].Fields["Κωδικός"])
	assert.Equal(t, "Φέτα", records[0].Fields["Όνομα"])
}

func TestParseCSVShortAndLongRows(t *testing.T) {
	records, err := ParseCSV([]byte("A,B,C\n1,2\n1,2,3,4\n"))
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Short row: missing columns are simply absent.
	assert.Equal(t, "2", records[0].Fields["B"])
	_, ok := records[0].Fields["C"]
	assert.False(t, ok)

	// Long row: extra columns beyond the header are dropped.
	assert.Equal(t, "3", records[1].Fields["C"])
	assert.Len(t, records[1].Fields, 3)
}

func TestParseCSVUTF8BOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Κωδικός\nP-1\n")...)

	records, err := ParseCSV(data)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "P-1", records[0].Fields["Κωδικός"])
}

func TestParseCSVWindows1253(t *testing.T) {
	encoded, _, err := transform.Bytes(charmap.Windows1253.NewEncoder(), []byte("Κωδικός,Περιγραφή\nP-1,Φέτα\n"))
	require.NoError(t, err)

	records, err := ParseCSV(encoded)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Φέτα", records[0].Fields["Περιγραφή"])
}

func TestParseCSVUTF16LE(t *testing.T) {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewEncoder()
	encoded, _, err := transform.Bytes(enc, []byte("Κωδικός\nP-1\n"))
	require.NoError(t, err)

	records, err := ParseCSV(encoded)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "P-1", records[0].Fields["Κωδικός"])
}

func TestSniffDelimiter(t *testing.T) {
	assert.Equal(t, ',', sniffDelimiter([]byte("a,b,c\n1,2,3")))
	assert.Equal(t, ';', sniffDelimiter([]byte("a;b;c\n1;2;3")))
	// Ties and headers with no separator default to comma.
	assert.Equal(t, ',', sniffDelimiter([]byte("a\n1")))
}

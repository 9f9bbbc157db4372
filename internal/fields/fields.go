// Package fields resolves logical fields from raw spreadsheet rows.
//
// The same logical column has arrived under many literal header spellings
// over the years: current Greek headers, transliterations, and mojibake
// produced when legacy Windows-1253 exports were read as Latin-1. Each
// logical field therefore carries an ordered alias list; the first alias
// present in the row wins. There is no fuzzy matching: alias lists are
// exhaustive and explicit so a header can never be silently misassigned.
package fields

import "strings"

// Row is one raw spreadsheet row: header name to cell text. A missing
// header and an empty cell are both treated as absent.
type Row map[string]string

// Pick returns the value of the first alias that is present in the row
// with a non-blank value after trimming.
func Pick(row Row, aliases ...string) (string, bool) {
	for _, alias := range aliases {
		v, ok := row[alias]
		if !ok {
			continue
		}
		if s := strings.TrimSpace(v); s != "" {
			return s, true
		}
	}
	return "", false
}

// Has reports whether any alias is present in the row at all, even with a
// blank value. The legacy product importer needs this to distinguish "no
// active column in this export" from "active column left empty".
func Has(row Row, aliases ...string) bool {
	for _, alias := range aliases {
		if _, ok := row[alias]; ok {
			return true
		}
	}
	return false
}

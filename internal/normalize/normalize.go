// Package normalize holds the pure value normalizers applied to raw cell
// text before it enters a canonical document.
package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// sentinels are literal strings spreadsheet engines emit for broken
// formulas, dead links or exported NULLs. They must never be persisted as
// real data.
var sentinels = map[string]struct{}{
	"#REF!":     {},
	"#ERROR!":   {},
	"#VALUE!":   {},
	"#N/A":      {},
	"N/A":       {},
	"NULL":      {},
	"null":      {},
	"undefined": {},
}

var (
	imageFormulaRe = regexp.MustCompile(`(?i)^=IMAGE\(\s*"([^"]+)"`)
	whitespaceRe   = regexp.MustCompile(`\s+`)

	// Greek uppercase drops accents (ά -> Α) and maps final sigma
	// correctly, which ASCII ToUpper cannot do.
	greekUpper = cases.Upper(language.Greek)
)

// Text trims v and reports whether a real value remains. Empty strings and
// known spreadsheet error sentinels collapse to absent.
func Text(v string) (string, bool) {
	s := strings.TrimSpace(v)
	if s == "" {
		return "", false
	}
	if _, bad := sentinels[s]; bad {
		return "", false
	}
	return s, true
}

// Decimal parses a numeric cell that may use either EU or US separators.
// The rightmost '.' or ',' is taken as the decimal separator; any earlier
// occurrence of either is a thousands separator and is dropped. Returns
// false when no digits remain or the result is not finite.
func Decimal(v string) (float64, bool) {
	s := strings.TrimSpace(v)
	if s == "" {
		return 0, false
	}

	var b strings.Builder
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',':
			b.WriteRune(r)
		case (r == '-' || r == '+') && i == 0:
			b.WriteRune(r)
		}
	}
	cleaned := b.String()

	sep := strings.LastIndexAny(cleaned, ".,")
	if sep >= 0 {
		intPart := strings.Map(dropSeparators, cleaned[:sep])
		cleaned = intPart + "." + cleaned[sep+1:]
	}

	if !strings.ContainsAny(cleaned, "0123456789") {
		return 0, false
	}

	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

func dropSeparators(r rune) rune {
	if r == '.' || r == ',' {
		return -1
	}
	return r
}

// Currency rounds to two decimal places.
func Currency(v float64) float64 {
	return math.Round(v*100) / 100
}

// Bool coerces a cell to a boolean. Only true/yes/1/y (case-insensitive)
// are true; everything else, including the empty cell, is false. Call sites
// that treat a missing cell as true (the legacy product active flag) must
// check presence before calling.
func Bool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "yes", "1", "y":
		return true
	}
	return false
}

// URL accepts either a plain http(s) URL or the URL embedded in a
// spreadsheet =IMAGE("...") formula.
func URL(v string) (string, bool) {
	s, ok := Text(v)
	if !ok {
		return "", false
	}
	if m := imageFormulaRe.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		return "", false
	}
	return s, true
}

// CollapseSpace trims and squashes internal whitespace runs to one space.
func CollapseSpace(v string) string {
	return whitespaceRe.ReplaceAllString(strings.TrimSpace(v), " ")
}

// FoldKey produces the case-folded comparison key used to deduplicate
// names. Uppercasing is locale-aware: Greek names compare equal whether
// they arrive accented, unaccented, or with a final sigma.
func FoldKey(v string) string {
	return greekUpper.String(CollapseSpace(v))
}

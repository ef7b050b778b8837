package parser

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// narrowable lists the full-width runes the converter emits inside numeric
// cells: ％ ＊ － ． ／ and the digits. The full-width comma and the rest of the
// block stay untouched so titles keep their punctuation.
var narrowable = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0xFF05, Hi: 0xFF05, Stride: 1},
		{Lo: 0xFF0A, Hi: 0xFF0A, Stride: 1},
		{Lo: 0xFF0D, Hi: 0xFF0F, Stride: 1},
		{Lo: 0xFF10, Hi: 0xFF19, Stride: 1},
	},
}

// Normalize composes a fragment to NFC, narrows full-width digits and numeric
// punctuation, and trims surrounding whitespace.
func Normalize(s string) string {
	t := transform.Chain(norm.NFC, runes.If(runes.In(narrowable), width.Narrow, nil))
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.TrimSpace(out)
}

// NormalizeAll returns a normalized copy of fragments.
func NormalizeAll(fragments []string) []string {
	out := make([]string, len(fragments))
	for i, f := range fragments {
		out[i] = Normalize(f)
	}
	return out
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

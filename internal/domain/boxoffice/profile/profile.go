// Package profile resolves the column layout and per-file quirks of a bulletin
// from its publication id.
//
// Three template revisions are distinguished by disjoint id ranges; a finite
// table of per-id exceptions is overlaid on top of the revision defaults. The
// table is parsed once and never mutated afterwards.
package profile

import (
	"fmt"
	"sort"
)

// Strategy selects how record starts are recognised on a page.
type Strategy string

const (
	// Indexed bulletins carry an explicit line counter at the start of each record.
	Indexed Strategy = "indexed"
	// CountryAnchored bulletins have no counter; records start at a country name.
	CountryAnchored Strategy = "country-anchored"
)

// TrailingPattern selects the numeric block that closes the last record on a page.
type TrailingPattern string

const (
	// TwoIntTwoGroup matches two integers followed by two comma-grouped numbers.
	TwoIntTwoGroup TrailingPattern = "two-int-two-group"
	// OneIntFourGroup matches one integer followed by four comma-grouped numbers.
	OneIntFourGroup TrailingPattern = "one-int-four-group"
)

// Insertion is a literal fragment imputed before boundary detection.
// Page is the 1-based page position, Index the fragment position on that page
// after earlier insertions on the same page have been applied.
type Insertion struct {
	Page    int
	Index   int
	Literal string
}

// FormatProfile is the fully resolved layout of one bulletin.
type FormatProfile struct {
	DocumentID         int
	Era                string
	Strategy           Strategy
	Trailing           TrailingPattern
	FragmentsPerRecord int
	RecordStartOffset  int
	Missing            ColumnSet
	Insertions         []Insertion

	SuppressTrailingFragmentOnLastPage bool
	HeaderRepeatsOnEveryPage           bool
	SkipEntirely                       bool
}

// LogicalColumnCount is always 13; it is exposed on the profile for callers
// that only hold a profile value.
func (p FormatProfile) LogicalColumnCount() int {
	return LogicalColumnCount
}

// Present reports whether column c appears in the source text.
func (p FormatProfile) Present(c Column) bool {
	return !p.Missing.Has(c)
}

// PresentNumeric returns the numeric block columns that consume a token, in line order.
func (p FormatProfile) PresentNumeric() []Column {
	var cols []Column
	for _, c := range NumericColumns() {
		if p.Present(c) {
			cols = append(cols, c)
		}
	}
	return cols
}

// StartOffset is the number of header fragments to skip on a page.
func (p FormatProfile) StartOffset(firstPage bool) int {
	if !firstPage && !p.HeaderRepeatsOnEveryPage {
		return 0
	}
	return p.RecordStartOffset
}

// InsertionsFor returns the insertions for a 1-based page, ordered by index.
func (p FormatProfile) InsertionsFor(page int) []Insertion {
	var out []Insertion
	for _, ins := range p.Insertions {
		if ins.Page == page {
			out = append(out, ins)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

func (p FormatProfile) String() string {
	return fmt.Sprintf("profile(doc=%d era=%s strategy=%s trailing=%s missing=%s)",
		p.DocumentID, p.Era, p.Strategy, p.Trailing, p.Missing)
}

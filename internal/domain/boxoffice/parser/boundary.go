package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/FACorreiaa/box-office-tracker/internal/domain/boxoffice/profile"
)

// ErrBoundaryNotFound is returned when no record start matched on a page.
var ErrBoundaryNotFound = errors.New("no record boundary found")

// BoundaryError carries the diagnostic state of a failed detection.
type BoundaryError struct {
	Strategy profile.Strategy
	Offset   int
	Starts   []int
	Reason   string
}

func (e *BoundaryError) Error() string {
	return fmt.Sprintf("%s: strategy %s, offset %d, starts %v: %s",
		ErrBoundaryNotFound, e.Strategy, e.Offset, e.Starts, e.Reason)
}

func (e *BoundaryError) Unwrap() error {
	return ErrBoundaryNotFound
}

var (
	bareIndexRe = regexp.MustCompile(`^\d{1,3}$`)
	// a cell of a row's numeric block: count, grouped count, rate or an empty cell
	numericCellRe = regexp.MustCompile(`^(?:-|[+-]?[\d,]+(?:\.\d+)?%?)$`)
	// counter, then a non-numeric name, optionally a date and anything after it
	indexedStartRe = regexp.MustCompile(`^\d{1,3}\s+[^\d\s]\D*?(\d{4}/\d{1,2}/\d{1,2}.*)?$`)

	pageOfRe    = regexp.MustCompile(`(?i)page\s*(\d+)\s*of\s*(\d+)`)
	pageZhRe    = regexp.MustCompile(`第\s*(\d+)\s*頁.*?共\s*(\d+)\s*頁`)
	annotations = []string{"*", "＊"}
)

const (
	intToken   = `(?:\d+|-)`
	groupToken = `(?:\d{1,3}(?:,\d{3})+|\d+|-)`
)

var trailingPatterns = map[profile.TrailingPattern]*regexp.Regexp{
	profile.TwoIntTwoGroup: regexp.MustCompile(
		`(?:^|\s)` + intToken + `\s+` + intToken + `\s+` + groupToken + `\s+` + groupToken + `$`),
	profile.OneIntFourGroup: regexp.MustCompile(
		`(?:^|\s)` + intToken + strings.Repeat(`\s+`+groupToken, 4) + `$`),
}

// DetectBoundaries returns the fragment indices at which records start,
// followed by one exclusive end index for the last record.
func DetectBoundaries(fragments []string, p profile.FormatProfile, firstPage bool) ([]int, error) {
	offset := p.StartOffset(firstPage)
	if offset >= len(fragments) {
		return nil, &BoundaryError{
			Strategy: p.Strategy,
			Offset:   offset,
			Reason:   fmt.Sprintf("page has %d fragments", len(fragments)),
		}
	}

	var starts []int
	switch p.Strategy {
	case profile.Indexed:
		starts = indexedStarts(fragments, offset, p.FragmentsPerRecord)
	case profile.CountryAnchored:
		starts = anchoredStarts(fragments, offset)
	default:
		return nil, fmt.Errorf("unknown strategy %q", p.Strategy)
	}

	if len(starts) == 0 {
		return nil, &BoundaryError{
			Strategy: p.Strategy,
			Offset:   offset,
			Starts:   starts,
			Reason:   "no fragment matched a record start",
		}
	}

	end, err := trailingEnd(fragments, starts[len(starts)-1], p.Trailing)
	if err != nil {
		return nil, err
	}
	return append(starts, end), nil
}

// indexedStarts finds the line counters on a page. A bare counter is a
// fragment of its own, at least span fragments after the previous start and
// followed by the country cell; small counts inside a row are followed by
// another numeric cell, the next counter or the footer.
func indexedStarts(fragments []string, offset, span int) []int {
	var starts []int
	for i := offset; i < len(fragments); i++ {
		f := fragments[i]
		switch {
		case bareIndexRe.MatchString(f):
			if len(starts) > 0 && i-starts[len(starts)-1] < span {
				continue
			}
			if !opensRecord(fragments, i+1) {
				continue
			}
			starts = append(starts, i)
		case indexedStartRe.MatchString(f):
			if rest := strings.TrimLeft(f, "0123456789 "); isAnnotation(rest) || isFooter(rest) {
				continue
			}
			starts = append(starts, i)
		}
	}
	return starts
}

// opensRecord reports whether the first non-empty fragment from i on can be
// the cell after a line counter.
func opensRecord(fragments []string, i int) bool {
	for ; i < len(fragments); i++ {
		f := strings.TrimSpace(fragments[i])
		if f == "" {
			continue
		}
		return !numericCellRe.MatchString(f) && !isFooter(f) && !isAnnotation(f)
	}
	return false
}

func anchoredStarts(fragments []string, offset int) []int {
	var starts []int
	for i := offset; i < len(fragments); i++ {
		if _, ok := defaultAnchors.prefix(fragments[i]); ok {
			starts = append(starts, i)
		}
	}
	return starts
}

// trailingEnd finds where the record opened at last stops. The first j whose
// joined text [last, j] ends with the numeric block gives j+1; otherwise the
// first footer or annotation fragment, otherwise the page length.
func trailingEnd(fragments []string, last int, pattern profile.TrailingPattern) (int, error) {
	re, ok := trailingPatterns[pattern]
	if !ok {
		return 0, fmt.Errorf("unknown trailing pattern %q", pattern)
	}

	var b strings.Builder
	for j := last; j < len(fragments); j++ {
		if j > last {
			b.WriteByte(' ')
		}
		b.WriteString(fragments[j])
		if re.MatchString(b.String()) {
			return j + 1, nil
		}
	}

	for j := last + 1; j < len(fragments); j++ {
		if isFooter(fragments[j]) || isAnnotation(fragments[j]) {
			return j, nil
		}
	}
	return len(fragments), nil
}

func isFooter(s string) bool {
	return pageOfRe.MatchString(s) || pageZhRe.MatchString(s)
}

func isAnnotation(s string) bool {
	for _, a := range annotations {
		if strings.HasPrefix(s, a) {
			return true
		}
	}
	return false
}

// ReconstructLines joins each [start, next) range of fragments into one
// whitespace-collapsed line.
func ReconstructLines(fragments []string, bounds []int) []string {
	if len(bounds) < 2 {
		return nil
	}
	lines := make([]string, 0, len(bounds)-1)
	for i := 0; i+1 < len(bounds); i++ {
		lo, hi := bounds[i], bounds[i+1]
		if hi > len(fragments) {
			hi = len(fragments)
		}
		if lo >= hi {
			lines = append(lines, "")
			continue
		}
		lines = append(lines, collapseSpaces(strings.Join(fragments[lo:hi], " ")))
	}
	return lines
}

package parser

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/FACorreiaa/box-office-tracker/internal/domain/boxoffice/record"
)

// ErrIndexGap is returned when the line indices of a page are not contiguous.
var ErrIndexGap = errors.New("line index gap")

// PageReport is the outcome of validating one page.
type PageReport struct {
	// Number is the printed page number, or the positional one when the
	// footer is missing.
	Number int
	Total  int
	// LastLine is the highest line index on the page; it becomes the cursor
	// of the next page.
	LastLine int
	Issues   []record.Issue
}

// Fatal reports whether the page must abort its document.
func (r PageReport) Fatal() bool {
	return record.HasFatal(r.Issues)
}

// ValidatePage checks the trailing region of a page and the contiguity of its
// line indices. trailing holds the fragments after the end boundary.
func ValidatePage(document, position int, trailing []string, lines []int, cursor int, lenient bool) PageReport {
	report := PageReport{Number: position, LastLine: cursor}

	footer := strings.Join(trailing, " ")
	if n, total, ok := pageNumber(footer); ok {
		report.Number, report.Total = n, total
	} else {
		report.Issues = append(report.Issues, record.Issue{
			Document: document,
			Page:     position,
			Kind:     record.PageNumberMissing,
			Severity: record.SeverityInfo,
			Detail:   fmt.Sprintf("no page footer, using position %d", position),
		})
	}

	for _, f := range trailing {
		if isAnnotation(f) {
			report.Issues = append(report.Issues, record.Issue{
				Document: document,
				Page:     report.Number,
				Kind:     record.AnnotationDetected,
				Severity: record.SeverityWarning,
				Detail:   truncate(f, 80),
			})
		}
	}

	sorted := append([]int(nil), lines...)
	sort.Ints(sorted)
	for i, got := range sorted {
		want := cursor + 1 + i
		if got != want {
			severity := record.SeverityFatal
			if lenient {
				severity = record.SeverityWarning
			}
			report.Issues = append(report.Issues, record.Issue{
				Document: document,
				Page:     report.Number,
				Kind:     record.IndexGap,
				Severity: severity,
				Detail:   fmt.Sprintf("expected line %d, found %d", want, got),
			})
			break
		}
	}
	if n := len(sorted); n > 0 && sorted[n-1] > report.LastLine {
		report.LastLine = sorted[n-1]
	}
	return report
}

func pageNumber(s string) (n, total int, ok bool) {
	m := pageOfRe.FindStringSubmatch(s)
	if m == nil {
		m = pageZhRe.FindStringSubmatch(s)
	}
	if m == nil {
		return 0, 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, false
	}
	total, err = strconv.Atoi(m[2])
	if err != nil {
		return 0, 0, false
	}
	return n, total, true
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "…"
}

package record

import (
	"fmt"
	"sort"
)

// IssueKind classifies a structural-integrity finding.
type IssueKind string

const (
	BoundaryNotFound     IssueKind = "BoundaryNotFound"
	SkippedByProfile     IssueKind = "SkippedByProfile"
	IndexGap             IssueKind = "IndexGap"
	AnnotationDetected   IssueKind = "AnnotationDetected"
	PatchKeyMismatch     IssueKind = "PatchKeyMismatch"
	MalformedLine        IssueKind = "MalformedLine"
	PageNumberMissing    IssueKind = "PageNumberMissing"
	CumulativeRegression IssueKind = "CumulativeRegression"
	TitleVariant         IssueKind = "TitleVariant"
)

// Severity says whether an issue stopped its document.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityFatal   Severity = "fatal"
)

// Issue is one entry of the diagnostic report. Page is 0 for document- or
// batch-level findings.
type Issue struct {
	Document int
	Page     int
	Kind     IssueKind
	Severity Severity
	Detail   string
}

func (i Issue) String() string {
	return fmt.Sprintf("[%s] doc=%d page=%d %s: %s", i.Severity, i.Document, i.Page, i.Kind, i.Detail)
}

// Fatal reports whether the issue aborted its document.
func (i Issue) Fatal() bool {
	return i.Severity == SeverityFatal
}

// HasFatal reports whether any issue is fatal.
func HasFatal(issues []Issue) bool {
	for _, is := range issues {
		if is.Fatal() {
			return true
		}
	}
	return false
}

// CountByKind tallies issues per kind.
func CountByKind(issues []Issue) map[IssueKind]int {
	out := make(map[IssueKind]int)
	for _, is := range issues {
		out[is.Kind]++
	}
	return out
}

// SortIssues orders issues by document, page, kind and detail.
func SortIssues(issues []Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		a, b := issues[i], issues[j]
		if a.Document != b.Document {
			return a.Document < b.Document
		}
		if a.Page != b.Page {
			return a.Page < b.Page
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.Detail < b.Detail
	})
}

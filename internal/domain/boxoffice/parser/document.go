// Package parser recovers bulletin records from the converted fragment
// sequence of each page.
//
// Per page the document parser applies the profile quirks, detects record
// boundaries, reconstructs one line per record, extracts its fields and
// validates the page. A running line-index cursor is carried across the pages
// of one document and reset for the next.
package parser

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/FACorreiaa/box-office-tracker/internal/domain/boxoffice/profile"
	"github.com/FACorreiaa/box-office-tracker/internal/domain/boxoffice/record"
)

// Options configures the document parser.
type Options struct {
	// Lenient records index gaps as warnings instead of aborting the document.
	Lenient bool
	Logger  *slog.Logger
}

// DocumentResult is the outcome of parsing one document. Records is empty when
// the document was skipped or aborted; Issues always holds every finding.
type DocumentResult struct {
	Document record.Document
	Records  []record.RawRecord
	Issues   []record.Issue
	Skipped  bool
	Pages    int
}

// DocumentParser turns the pages of one document into RawRecords.
type DocumentParser struct {
	opts   Options
	logger *slog.Logger
}

// NewDocumentParser creates a parser with the given options.
func NewDocumentParser(opts Options) *DocumentParser {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentParser{opts: opts, logger: logger}
}

// Parse parses every page of doc in order. On a fatal finding the records of
// the document are discarded, the fatal issue is added to the result and the
// returned error wraps ErrBoundaryNotFound, ErrMalformedLine or ErrIndexGap.
func (dp *DocumentParser) Parse(doc record.Document, pages []record.Page) (*DocumentResult, error) {
	p := doc.Profile
	result := &DocumentResult{Document: doc, Pages: len(pages)}

	if p.SkipEntirely {
		result.Skipped = true
		result.Issues = append(result.Issues, record.Issue{
			Document: doc.ID,
			Kind:     record.SkippedByProfile,
			Severity: record.SeverityInfo,
			Detail:   fmt.Sprintf("document %d is marked unrecoverable (%s)", doc.ID, p.Era),
		})
		dp.logger.Info("skipping document marked unrecoverable",
			slog.Int("document", doc.ID),
			slog.String("era", p.Era))
		return result, nil
	}

	cursor := 0
	records := make([]record.RawRecord, 0, len(pages)*40)

	for i, page := range pages {
		position := page.Number
		if position == 0 {
			position = i + 1
		}
		fragments := prepareFragments(page.Fragments, p, position, i == len(pages)-1)

		bounds, err := DetectBoundaries(fragments, p, i == 0)
		if err != nil {
			return dp.abort(result, position, record.BoundaryNotFound, err)
		}

		lines := ReconstructLines(fragments, bounds)
		indices := make([]int, 0, len(lines))
		pageFields := make([]Fields, 0, len(lines))
		for n, line := range lines {
			f, err := ExtractFields(line, p, n+1, cursor)
			if err != nil {
				return dp.abort(result, position, record.MalformedLine,
					fmt.Errorf("line %d of page %d: %w", n+1, position, err))
			}
			indices = append(indices, f.Line)
			pageFields = append(pageFields, f)
		}

		end := bounds[len(bounds)-1]
		report := ValidatePage(doc.ID, position, fragments[end:], indices, cursor, dp.opts.Lenient)
		result.Issues = append(result.Issues, report.Issues...)
		if report.Fatal() {
			result.Records = nil
			dp.logger.Warn("document aborted",
				slog.Int("document", doc.ID),
				slog.Int("page", report.Number),
				slog.String("kind", string(record.IndexGap)))
			return result, fmt.Errorf("document %d page %d: %w", doc.ID, report.Number, ErrIndexGap)
		}

		for _, f := range pageFields {
			records = append(records, f.Record(doc.ID, report.Number))
		}
		cursor = report.LastLine
	}

	result.Records = records
	return result, nil
}

func (dp *DocumentParser) abort(result *DocumentResult, page int, kind record.IssueKind, err error) (*DocumentResult, error) {
	result.Records = nil
	result.Issues = append(result.Issues, record.Issue{
		Document: result.Document.ID,
		Page:     page,
		Kind:     kind,
		Severity: record.SeverityFatal,
		Detail:   err.Error(),
	})
	dp.logger.Warn("document aborted",
		slog.Int("document", result.Document.ID),
		slog.Int("page", page),
		slog.String("kind", string(kind)),
		slog.Any("error", err))
	return result, fmt.Errorf("document %d page %d: %w", result.Document.ID, page, err)
}

// prepareFragments normalizes a page and applies the profile's imputed
// insertions and trailing-fragment suppression.
func prepareFragments(raw []string, p profile.FormatProfile, position int, lastPage bool) []string {
	fragments := NormalizeAll(raw)
	for _, ins := range p.InsertionsFor(position) {
		idx := ins.Index
		if idx > len(fragments) {
			idx = len(fragments)
		}
		fragments = append(fragments, "")
		copy(fragments[idx+1:], fragments[idx:])
		fragments[idx] = ins.Literal
	}
	if lastPage && p.SuppressTrailingFragmentOnLastPage && len(fragments) > 0 {
		fragments = fragments[:len(fragments)-1]
	}
	return fragments
}

// Aborted reports whether err stopped a single document rather than the whole run.
func Aborted(err error) bool {
	return errors.Is(err, ErrBoundaryNotFound) || errors.Is(err, ErrMalformedLine) || errors.Is(err, ErrIndexGap)
}

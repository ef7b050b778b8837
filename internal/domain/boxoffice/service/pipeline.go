// Package service provides the batch orchestration of a recovery run.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/box-office-tracker/internal/domain/boxoffice/parser"
	"github.com/FACorreiaa/box-office-tracker/internal/domain/boxoffice/patch"
	"github.com/FACorreiaa/box-office-tracker/internal/domain/boxoffice/profile"
	"github.com/FACorreiaa/box-office-tracker/internal/domain/boxoffice/reconcile"
	"github.com/FACorreiaa/box-office-tracker/internal/domain/boxoffice/record"
	"github.com/FACorreiaa/box-office-tracker/pkg/metrics"
)

const tracerName = "github.com/FACorreiaa/box-office-tracker/internal/domain/boxoffice/service"

// Source is one bulletin ready for parsing. Document.Profile is filled in by
// the pipeline.
type Source struct {
	Document record.Document
	Pages    []record.Page
}

// Batch is the closed input of a run.
type Batch struct {
	Sources []Source
	Patches record.PatchSet
	Lenient bool
}

// Document outcomes in a report.
const (
	OutcomeParsed  = metrics.OutcomeParsed
	OutcomeSkipped = metrics.OutcomeSkipped
	OutcomeAborted = metrics.OutcomeAborted
)

// DocumentSummary describes what happened to one bulletin.
type DocumentSummary struct {
	ID      int
	Title   string
	Era     string
	Pages   int
	Records int
	Outcome string
}

// Report is the result of a run.
type Report struct {
	RunID       uuid.UUID
	StartedAt   time.Time
	FinishedAt  time.Time
	Records     []record.ReconciledRecord
	Issues      []record.Issue
	Documents   []DocumentSummary
	Groups      int
	MaxDocument int
}

// HasFatal reports whether any document was aborted.
func (r *Report) HasFatal() bool {
	return record.HasFatal(r.Issues)
}

// Resolver maps a publication id to its layout.
type Resolver interface {
	Resolve(id int) (profile.FormatProfile, error)
}

// RecordStore persists the reconciled set of a run.
type RecordStore interface {
	ReplaceAll(ctx context.Context, runID uuid.UUID, records []record.ReconciledRecord) error
}

// TitleIndex makes the reconciled groups searchable.
type TitleIndex interface {
	IndexRecords(ctx context.Context, records []record.ReconciledRecord) error
}

// Pipeline runs one batch end to end.
type Pipeline struct {
	resolver Resolver
	store    RecordStore // Optional: nil if persistence is disabled
	index    TitleIndex  // Optional: nil if no catalog is configured
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	logger   *slog.Logger
	workers  int
}

// NewPipeline creates a pipeline. store, index and m may be nil.
func NewPipeline(resolver Resolver, store RecordStore, index TitleIndex, m *metrics.Metrics, logger *slog.Logger, workers int) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = metrics.New()
	}
	if workers < 1 {
		workers = 1
	}
	return &Pipeline{
		resolver: resolver,
		store:    store,
		index:    index,
		metrics:  m,
		tracer:   otel.Tracer(tracerName),
		logger:   logger,
		workers:  workers,
	}
}

// Run parses every source, applies the patches and reconciles the result.
// A missing profile fails the run; a document-level abort only adds a fatal
// issue to the report.
func (p *Pipeline) Run(ctx context.Context, batch Batch) (*Report, error) {
	report := &Report{RunID: uuid.New(), StartedAt: time.Now()}
	ctx, span := p.tracer.Start(ctx, "boxoffice.run", trace.WithAttributes(
		attribute.String("run_id", report.RunID.String()),
		attribute.Int("documents", len(batch.Sources)),
	))
	defer span.End()

	fail := func(err error) (*Report, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	sources, err := p.resolve(batch.Sources)
	if err != nil {
		return fail(err)
	}

	p.logger.Info("starting run",
		slog.String("run_id", report.RunID.String()),
		slog.Int("documents", len(sources)),
		slog.Bool("lenient", batch.Lenient))

	results, err := p.parseAll(ctx, sources, batch.Lenient)
	if err != nil {
		return fail(err)
	}

	var (
		raw    []record.RawRecord
		issues []record.Issue
		docs   = make(map[int]record.Document, len(results))
	)
	for _, res := range results {
		docs[res.Document.ID] = res.Document
		raw = append(raw, res.Records...)
		issues = append(issues, res.Issues...)
		report.Documents = append(report.Documents, summarize(res))
	}

	patched, patchIssues := patch.Apply(raw, batch.Patches)
	issues = append(issues, patchIssues...)
	if len(patchIssues) > 0 {
		p.logger.Warn("patch rows did not match",
			slog.Int("mismatches", len(patchIssues)))
	}

	patched, orphans := withinBatch(patched, docs)
	if orphans > 0 {
		p.logger.Warn("append rows target documents outside the batch",
			slog.Int("rows", orphans))
	}

	reconciled, err := reconcile.Reconcile(patched, docs)
	if err != nil {
		return fail(fmt.Errorf("failed to reconcile: %w", err))
	}
	issues = append(issues, reconciled.Issues...)
	record.SortIssues(issues)

	report.Records = reconciled.Records
	report.Issues = issues
	report.Groups = reconciled.Groups
	report.MaxDocument = reconciled.MaxDocument

	if p.store != nil {
		if err := p.store.ReplaceAll(ctx, report.RunID, report.Records); err != nil {
			return fail(fmt.Errorf("failed to persist records: %w", err))
		}
	}
	if p.index != nil {
		if err := p.index.IndexRecords(ctx, report.Records); err != nil {
			return fail(fmt.Errorf("failed to index titles: %w", err))
		}
	}

	report.FinishedAt = time.Now()
	p.observe(report)
	span.SetAttributes(
		attribute.Int("records", len(report.Records)),
		attribute.Int("issues", len(report.Issues)),
	)

	p.logger.Info("run completed",
		slog.String("run_id", report.RunID.String()),
		slog.Int("records", len(report.Records)),
		slog.Int("groups", report.Groups),
		slog.Int("issues", len(report.Issues)),
		slog.Int("max_document", report.MaxDocument),
		slog.Duration("took", report.FinishedAt.Sub(report.StartedAt)))

	return report, nil
}

// resolve attaches profiles and orders the sources by document id.
func (p *Pipeline) resolve(in []Source) ([]Source, error) {
	sources := make([]Source, len(in))
	copy(sources, in)
	sort.SliceStable(sources, func(i, j int) bool {
		return sources[i].Document.ID < sources[j].Document.ID
	})

	for i := range sources {
		doc := &sources[i].Document
		if i > 0 && sources[i-1].Document.ID == doc.ID {
			return nil, fmt.Errorf("duplicate document %d in batch", doc.ID)
		}
		prof, err := p.resolver.Resolve(doc.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve profile: %w", err)
		}
		doc.Profile = prof
	}
	return sources, nil
}

// parseAll parses the documents in parallel. Each worker owns its document
// and writes only its own result slot.
func (p *Pipeline) parseAll(ctx context.Context, sources []Source, lenient bool) ([]*parser.DocumentResult, error) {
	results := make([]*parser.DocumentResult, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i := range sources {
		src := sources[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			_, span := p.tracer.Start(gctx, "boxoffice.document", trace.WithAttributes(
				attribute.Int("document", src.Document.ID),
				attribute.String("era", src.Document.Profile.Era),
			))
			defer span.End()

			dp := parser.NewDocumentParser(parser.Options{Lenient: lenient, Logger: p.logger})
			res, err := dp.Parse(src.Document, src.Pages)
			if err != nil {
				if !parser.Aborted(err) {
					return err
				}
				span.SetStatus(codes.Error, err.Error())
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("run cancelled: %w", err)
		}
		return nil, fmt.Errorf("failed to parse documents: %w", err)
	}
	return results, nil
}

// withinBatch drops records of documents that are not part of the batch.
// Only append rows can target such a document, and patch.Apply has already
// reported each of them as a PatchKeyMismatch.
func withinBatch(records []record.RawRecord, docs map[int]record.Document) ([]record.RawRecord, int) {
	kept := records[:0]
	for _, r := range records {
		if _, ok := docs[r.Document]; ok {
			kept = append(kept, r)
		}
	}
	return kept, len(records) - len(kept)
}

func summarize(res *parser.DocumentResult) DocumentSummary {
	s := DocumentSummary{
		ID:      res.Document.ID,
		Title:   res.Document.Title,
		Era:     res.Document.Profile.Era,
		Pages:   res.Pages,
		Records: len(res.Records),
		Outcome: OutcomeParsed,
	}
	switch {
	case res.Skipped:
		s.Outcome = OutcomeSkipped
	case record.HasFatal(res.Issues):
		s.Outcome = OutcomeAborted
	}
	return s
}

func (p *Pipeline) observe(report *Report) {
	for _, d := range report.Documents {
		p.metrics.Documents.WithLabelValues(d.Outcome).Inc()
	}
	p.metrics.Records.Add(float64(len(report.Records)))
	for _, is := range report.Issues {
		p.metrics.Issues.WithLabelValues(string(is.Kind), string(is.Severity)).Inc()
	}
	p.metrics.Duration.Observe(report.FinishedAt.Sub(report.StartedAt).Seconds())
}

package service

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/FACorreiaa/box-office-tracker/internal/domain/boxoffice/record"
	"github.com/FACorreiaa/box-office-tracker/internal/domain/boxoffice/sniffer"
	"github.com/FACorreiaa/box-office-tracker/internal/domain/boxoffice/source"
)

// File is a raw bulletin as read from disk or the artifact store.
type File struct {
	Name string
	Data []byte
}

// SourceLoader converts raw files into pipeline sources.
type SourceLoader struct {
	loader  *source.Loader
	periods map[int]sniffer.Period // Optional: overrides the period probed from the title
	logger  *slog.Logger
}

// NewSourceLoader creates a loader. periods may be nil.
func NewSourceLoader(loader *source.Loader, periods map[int]sniffer.Period, logger *slog.Logger) *SourceLoader {
	if loader == nil {
		loader = source.NewLoader()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SourceLoader{loader: loader, periods: periods, logger: logger}
}

// Build converts one file. The publication id comes from the file name, the
// period from the lookup table or else from the bulletin title.
func (l *SourceLoader) Build(f File) (Source, error) {
	id, err := sniffer.FileID(f.Name)
	if err != nil {
		return Source{}, err
	}

	b, err := l.loader.Load(f.Data)
	if err != nil {
		return Source{}, fmt.Errorf("failed to load %s: %w", f.Name, err)
	}

	headline := b.Headline()
	period, ok := l.periods[id]
	if !ok {
		period, err = sniffer.ProbePeriod(headline)
		if err != nil {
			return Source{}, fmt.Errorf("document %d: %w", id, err)
		}
	}

	return Source{
		Document: record.Document{
			ID:          id,
			Title:       headline,
			Cadence:     period.Cadence,
			PeriodStart: period.Start,
			PeriodEnd:   period.End,
		},
		Pages: b.Pages,
	}, nil
}

// BuildAll converts every file it can. Files that fail are logged and
// returned as errors; they do not stop the others.
func (l *SourceLoader) BuildAll(files []File) ([]Source, []error) {
	var (
		sources []Source
		failed  []error
	)
	for _, f := range files {
		src, err := l.Build(f)
		if err != nil {
			l.logger.Warn("skipping bulletin",
				slog.String("file", filepath.Base(f.Name)),
				slog.Any("error", err))
			failed = append(failed, err)
			continue
		}
		sources = append(sources, src)
	}
	sort.SliceStable(sources, func(i, j int) bool {
		return sources[i].Document.ID < sources[j].Document.ID
	})
	return sources, failed
}

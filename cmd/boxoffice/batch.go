package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/FACorreiaa/box-office-tracker/internal/domain/boxoffice/export"
	"github.com/FACorreiaa/box-office-tracker/internal/domain/boxoffice/patch"
	"github.com/FACorreiaa/box-office-tracker/internal/domain/boxoffice/record"
	"github.com/FACorreiaa/box-office-tracker/internal/domain/boxoffice/service"
	"github.com/FACorreiaa/box-office-tracker/internal/domain/boxoffice/sniffer"
	"github.com/FACorreiaa/box-office-tracker/pkg/storage"
)

// errFatalIssues makes the process exit non-zero once all outputs are written.
var errFatalIssues = errors.New("run finished with fatal issues")

// Export file names inside one run's export directory.
const (
	recordsXLSX = "records.xlsx"
	recordsCSV  = "records.csv"
	issuesTSV   = "issues.tsv"
)

// runBatch executes one recovery run over the source directory and writes its
// exports.
func (d *Dependencies) runBatch(ctx context.Context) (*service.Report, error) {
	cfg := d.Config.Batch

	files, err := readSourceFiles(cfg.SourceDir)
	if err != nil {
		return nil, err
	}

	periods, err := readPeriods(cfg.Periods)
	if err != nil {
		return nil, err
	}

	patches, err := readPatches(cfg.PatchDrop, cfg.PatchAppend)
	if err != nil {
		return nil, err
	}

	loader := service.NewSourceLoader(d.Loader, periods, d.Logger)
	sources, loadErrs := loader.BuildAll(files)
	if len(sources) == 0 {
		return nil, fmt.Errorf("no loadable bulletins in %s (%d files rejected)", cfg.SourceDir, len(loadErrs))
	}

	report, err := d.Pipeline.Run(ctx, service.Batch{
		Sources: sources,
		Patches: patches,
		Lenient: cfg.Lenient,
	})
	if err != nil {
		return nil, err
	}

	written, err := writeExports(ctx, d.Exports, report)
	if err != nil {
		return report, err
	}
	for _, info := range written {
		d.Logger.Info("Export written",
			slog.String("name", info.Name),
			slog.String("path", d.Exports.Location(info)))
	}

	if path := d.Config.Metrics.Textfile; path != "" {
		if err := d.Metrics.WriteTextfile(path); err != nil {
			d.Logger.Warn("failed to write metrics textfile", slog.Any("error", err))
		}
	}

	if report.HasFatal() {
		return report, errFatalIssues
	}
	return report, nil
}

// readSourceFiles loads every regular file under dir, skipping storage
// metadata sidecars.
func readSourceFiles(dir string) ([]service.File, error) {
	var files []service.File
	err := filepath.WalkDir(dir, func(path string, e fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if e.IsDir() {
			if e.Name() == storage.MetaDir {
				return filepath.SkipDir
			}
			return nil
		}
		if !e.Type().IsRegular() {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		files = append(files, service.File{Name: path, Data: data})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk source directory: %w", err)
	}
	return files, nil
}

func readPeriods(path string) (map[int]sniffer.Period, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open periods: %w", err)
	}
	defer f.Close()
	return sniffer.ReadPeriods(f)
}

func readPatches(dropPath, appendPath string) (record.PatchSet, error) {
	var set record.PatchSet

	if dropPath != "" {
		f, err := os.Open(dropPath)
		if err != nil {
			return set, fmt.Errorf("failed to open drop patch: %w", err)
		}
		defer f.Close()
		if set.Drop, err = patch.ReadDrop(f); err != nil {
			return set, fmt.Errorf("failed to read drop patch: %w", err)
		}
	}

	if appendPath != "" {
		f, err := os.Open(appendPath)
		if err != nil {
			return set, fmt.Errorf("failed to open append patch: %w", err)
		}
		defer f.Close()
		if set.Append, err = patch.ReadAppend(f); err != nil {
			return set, fmt.Errorf("failed to read append patch: %w", err)
		}
	}

	return set, nil
}

// writeExports stores the workbook, the flat record table and the
// diagnostics of report.
func writeExports(ctx context.Context, store storage.Storage, report *service.Report) ([]*storage.FileInfo, error) {
	outputs := []struct {
		name        string
		contentType string
		write       func(w io.Writer) error
	}{
		{recordsXLSX, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", func(w io.Writer) error {
			return export.WriteXLSX(w, report)
		}},
		{recordsCSV, "text/csv", func(w io.Writer) error {
			return export.WriteCSV(w, report.Records)
		}},
		{issuesTSV, "text/tab-separated-values", func(w io.Writer) error {
			return export.WriteIssues(w, report.Issues)
		}},
	}

	written := make([]*storage.FileInfo, 0, len(outputs))
	for _, out := range outputs {
		var buf bytes.Buffer
		if err := out.write(&buf); err != nil {
			return written, fmt.Errorf("failed to render %s: %w", out.name, err)
		}
		info, err := store.Put(ctx, storage.KindExport, out.name, out.contentType, &buf)
		if err != nil {
			return written, fmt.Errorf("failed to store %s: %w", out.name, err)
		}
		written = append(written, info)
	}
	return written, nil
}

package sniffer

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/FACorreiaa/box-office-tracker/internal/domain/boxoffice/record"
)

type periodRow struct {
	FileID      int    `csv:"file_id"`
	Cadence     string `csv:"cadence"`
	PeriodStart string `csv:"period_start"`
	PeriodEnd   string `csv:"period_end"`
}

// ReadPeriods loads the tab-delimited period lookup used for bulletins whose
// titles omit the reporting window.
func ReadPeriods(r io.Reader) (map[int]Period, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1

	var rows []periodRow
	if err := gocsv.UnmarshalCSV(cr, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse period table: %w", err)
	}

	out := make(map[int]Period, len(rows))
	for _, row := range rows {
		cadence, err := record.ParseCadence(row.Cadence)
		if err != nil {
			return nil, fmt.Errorf("period row %d: %w", row.FileID, err)
		}
		start, err := time.Parse(record.DateLayout, row.PeriodStart)
		if err != nil {
			return nil, fmt.Errorf("period row %d: invalid period_start: %w", row.FileID, err)
		}
		end, err := time.Parse(record.DateLayout, row.PeriodEnd)
		if err != nil {
			return nil, fmt.Errorf("period row %d: invalid period_end: %w", row.FileID, err)
		}
		if end.Before(start) {
			return nil, fmt.Errorf("period row %d: period ends before it starts", row.FileID)
		}
		if _, dup := out[row.FileID]; dup {
			return nil, fmt.Errorf("period row %d: duplicate file id", row.FileID)
		}
		out[row.FileID] = Period{Cadence: cadence, Start: start, End: end}
	}
	return out, nil
}

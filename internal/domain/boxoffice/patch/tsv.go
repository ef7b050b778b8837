package patch

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/box-office-tracker/internal/domain/boxoffice/parser"
	"github.com/FACorreiaa/box-office-tracker/internal/domain/boxoffice/record"
)

// Row is one line of an append or drop file. Drop files only need the key
// columns; the rest are ignored. An empty cell is NULL.
type Row struct {
	FileID            int    `csv:"file_id"`
	Page              int    `csv:"page"`
	Line              int    `csv:"line"`
	Country           string `csv:"country"`
	Title             string `csv:"title"`
	ReleaseDate       string `csv:"release_date"`
	PeriodDays        string `csv:"period_days"`
	PeriodTheaters    string `csv:"period_theaters"`
	MaxTheaters       string `csv:"max_theaters"`
	PeriodTickets     string `csv:"period_tickets"`
	PeriodSales       string `csv:"period_sales"`
	TicketsChangeRate string `csv:"tickets_change_rate"`
	SalesChangeRate   string `csv:"sales_change_rate"`
	CumulativeTickets string `csv:"cumulative_tickets"`
	CumulativeSales   string `csv:"cumulative_sales"`
}

// Key returns the (document, page, line) key of the row.
func (r Row) Key() record.Key {
	return record.Key{Document: r.FileID, Page: r.Page, Line: r.Line}
}

var releaseLayouts = []string{record.DateLayout, parser.ReleaseDateLayout}

// Record converts an append row into a RawRecord.
func (r Row) Record() (record.RawRecord, error) {
	out := record.RawRecord{
		Document: r.FileID,
		Page:     r.Page,
		Line:     r.Line,
		Country:  strings.TrimSpace(r.Country),
		Title:    strings.TrimSpace(r.Title),
	}
	if out.Title == "" {
		return record.RawRecord{}, fmt.Errorf("patch row %s: empty title", r.Key())
	}

	released, err := parseDate(r.ReleaseDate)
	if err != nil {
		return record.RawRecord{}, fmt.Errorf("patch row %s: %w", r.Key(), err)
	}
	out.ReleaseDate = released

	counts := []struct {
		name string
		raw  string
		dst  *record.Count
	}{
		{"period_days", r.PeriodDays, &out.PeriodDays},
		{"period_theaters", r.PeriodTheaters, &out.PeriodTheaters},
		{"max_theaters", r.MaxTheaters, &out.MaxTheaters},
		{"period_tickets", r.PeriodTickets, &out.PeriodTickets},
		{"period_sales", r.PeriodSales, &out.PeriodSales},
		{"cumulative_tickets", r.CumulativeTickets, &out.CumulativeTickets},
		{"cumulative_sales", r.CumulativeSales, &out.CumulativeSales},
	}
	for _, c := range counts {
		v, err := parser.ParseCount(c.raw)
		if err != nil {
			return record.RawRecord{}, fmt.Errorf("patch row %s column %s: %w", r.Key(), c.name, err)
		}
		*c.dst = v
	}

	if out.TicketsChangeRate, err = parseRate(r.TicketsChangeRate); err != nil {
		return record.RawRecord{}, fmt.Errorf("patch row %s column tickets_change_rate: %w", r.Key(), err)
	}
	if out.SalesChangeRate, err = parseRate(r.SalesChangeRate); err != nil {
		return record.RawRecord{}, fmt.Errorf("patch row %s column sales_change_rate: %w", r.Key(), err)
	}
	return out, nil
}

// FromRecord is the inverse of Record.
func FromRecord(r record.RawRecord) Row {
	rate := func(d decimal.NullDecimal) string {
		if !d.Valid {
			return ""
		}
		return d.Decimal.String()
	}
	return Row{
		FileID:            r.Document,
		Page:              r.Page,
		Line:              r.Line,
		Country:           r.Country,
		Title:             r.Title,
		ReleaseDate:       r.ReleaseDate.Format(record.DateLayout),
		PeriodDays:        r.PeriodDays.String(),
		PeriodTheaters:    r.PeriodTheaters.String(),
		MaxTheaters:       r.MaxTheaters.String(),
		PeriodTickets:     r.PeriodTickets.String(),
		PeriodSales:       r.PeriodSales.String(),
		TicketsChangeRate: rate(r.TicketsChangeRate),
		SalesChangeRate:   rate(r.SalesChangeRate),
		CumulativeTickets: r.CumulativeTickets.String(),
		CumulativeSales:   r.CumulativeSales.String(),
	}
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range releaseLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid release date %q", s)
}

func parseRate(s string) (decimal.NullDecimal, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	if s == "" || s == "-" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

func tsvReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	return cr
}

func readRows(r io.Reader) ([]Row, error) {
	var rows []Row
	if err := gocsv.UnmarshalCSV(tsvReader(r), &rows); err != nil {
		return nil, fmt.Errorf("failed to parse patch file: %w", err)
	}
	return rows, nil
}

// ReadDrop parses a tab-delimited drop file with a header row.
func ReadDrop(r io.Reader) ([]record.Key, error) {
	rows, err := readRows(r)
	if err != nil {
		return nil, err
	}
	keys := make([]record.Key, len(rows))
	for i, row := range rows {
		keys[i] = row.Key()
	}
	return keys, nil
}

// ReadAppend parses a tab-delimited append file with a header row.
func ReadAppend(r io.Reader) ([]record.RawRecord, error) {
	rows, err := readRows(r)
	if err != nil {
		return nil, err
	}
	out := make([]record.RawRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := row.Record()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// WriteAppend writes records in the append-file format.
func WriteAppend(w io.Writer, records []record.RawRecord) error {
	rows := make([]Row, len(records))
	for i, r := range records {
		rows[i] = FromRecord(r)
	}
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(cw)); err != nil {
		return fmt.Errorf("failed to write patch file: %w", err)
	}
	return nil
}

// Package export writes the reconciled records and the diagnostic report of a
// run as xlsx, csv and tab-delimited files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/box-office-tracker/internal/domain/boxoffice/record"
	"github.com/FACorreiaa/box-office-tracker/pkg/money"
)

// Row is the flat export form of a reconciled record. NULL is an empty cell.
type Row struct {
	Document              int    `csv:"file_id"`
	Page                  int    `csv:"page"`
	Line                  int    `csv:"line"`
	Country               string `csv:"country"`
	Title                 string `csv:"title"`
	ReleaseDate           string `csv:"release_date"`
	Cadence               string `csv:"cadence"`
	PeriodStart           string `csv:"period_start"`
	PeriodEnd             string `csv:"period_end"`
	PeriodDays            string `csv:"period_days"`
	PeriodTheaters        string `csv:"period_theaters"`
	MaxTheaters           string `csv:"max_theaters"`
	PeriodTickets         string `csv:"period_tickets"`
	PeriodSales           string `csv:"period_sales"`
	TicketsChangeRate     string `csv:"tickets_change_rate"`
	SalesChangeRate       string `csv:"sales_change_rate"`
	CumulativeTickets     string `csv:"cumulative_tickets"`
	CumulativeSales       string `csv:"cumulative_sales"`
	PeriodTheatersDerived string `csv:"period_theaters_derived"`
	PeriodTicketsDerived  string `csv:"period_tickets_derived"`
	PeriodSalesDerived    string `csv:"period_sales_derived"`
	MaxTheatersRunning    string `csv:"max_theaters_running"`
	WeeksSinceRelease     int    `csv:"weeks_since_release"`
	CurrentlyReported     bool   `csv:"currently_reported"`
	AveragePrice          string `csv:"average_price"`
}

// IssueRow is one line of the diagnostics file.
type IssueRow struct {
	Document int    `csv:"file_id"`
	Page     int    `csv:"page"`
	Kind     string `csv:"kind"`
	Severity string `csv:"severity"`
	Detail   string `csv:"detail"`
}

// FromRecord flattens a reconciled record.
func FromRecord(r record.ReconciledRecord) Row {
	row := Row{
		Document:              r.Document,
		Page:                  r.Page,
		Line:                  r.Line,
		Country:               r.Country,
		Title:                 r.Title,
		ReleaseDate:           date(r.ReleaseDate.IsZero(), r.ReleaseDate.Format(record.DateLayout)),
		Cadence:               string(r.Cadence),
		PeriodStart:           date(r.PeriodStart.IsZero(), r.PeriodStart.Format(record.DateLayout)),
		PeriodEnd:             date(r.PeriodEnd.IsZero(), r.PeriodEnd.Format(record.DateLayout)),
		PeriodDays:            r.PeriodDays.String(),
		PeriodTheaters:        r.PeriodTheaters.String(),
		MaxTheaters:           r.MaxTheaters.String(),
		PeriodTickets:         r.PeriodTickets.String(),
		PeriodSales:           r.PeriodSales.String(),
		TicketsChangeRate:     rate(r.TicketsChangeRate),
		SalesChangeRate:       rate(r.SalesChangeRate),
		CumulativeTickets:     r.CumulativeTickets.String(),
		CumulativeSales:       r.CumulativeSales.String(),
		PeriodTheatersDerived: r.PeriodTheatersDerived.String(),
		PeriodTicketsDerived:  r.PeriodTicketsDerived.String(),
		PeriodSalesDerived:    r.PeriodSalesDerived.String(),
		MaxTheatersRunning:    r.MaxTheatersRunning.String(),
		WeeksSinceRelease:     r.WeeksSinceRelease,
		CurrentlyReported:     r.CurrentlyReported,
	}
	if avg, ok := AveragePrice(r); ok {
		row.AveragePrice = avg.ToDecimal().StringFixed(2)
	}
	return row
}

// AveragePrice is the derived period sales over the derived period tickets.
// It is undefined when either is NULL or no tickets were sold.
func AveragePrice(r record.ReconciledRecord) (*money.Money, bool) {
	if !r.PeriodSalesDerived.Valid || !r.PeriodTicketsDerived.Valid {
		return nil, false
	}
	avg, err := money.AveragePrice(money.FromDollars(r.PeriodSalesDerived.N), r.PeriodTicketsDerived.N)
	if err != nil {
		return nil, false
	}
	return avg, true
}

func date(zero bool, s string) string {
	if zero {
		return ""
	}
	return s
}

func rate(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

// WriteCSV writes the records as comma-separated values with a header row.
func WriteCSV(w io.Writer, records []record.ReconciledRecord) error {
	rows := make([]Row, len(records))
	for i, r := range records {
		rows[i] = FromRecord(r)
	}
	if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(csv.NewWriter(w))); err != nil {
		return fmt.Errorf("failed to write records csv: %w", err)
	}
	return nil
}

// WriteIssues writes the diagnostic report as a tab-delimited file.
func WriteIssues(w io.Writer, issues []record.Issue) error {
	rows := make([]IssueRow, len(issues))
	for i, is := range issues {
		rows[i] = IssueRow{
			Document: is.Document,
			Page:     is.Page,
			Kind:     string(is.Kind),
			Severity: string(is.Severity),
			Detail:   is.Detail,
		}
	}
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(cw)); err != nil {
		return fmt.Errorf("failed to write issues: %w", err)
	}
	return nil
}

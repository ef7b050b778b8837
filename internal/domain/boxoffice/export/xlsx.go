package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/box-office-tracker/internal/domain/boxoffice/record"
	"github.com/FACorreiaa/box-office-tracker/internal/domain/boxoffice/service"
)

// Sheet names of the workbook.
const (
	RecordsSheet = "records"
	IssuesSheet  = "issues"
)

var recordHeader = []interface{}{
	"file_id", "page", "line", "country", "title", "release_date",
	"cadence", "period_start", "period_end",
	"period_days", "period_theaters", "max_theaters", "period_tickets", "period_sales",
	"tickets_change_rate", "sales_change_rate", "cumulative_tickets", "cumulative_sales",
	"period_theaters_derived", "period_tickets_derived", "period_sales_derived",
	"max_theaters_running", "weeks_since_release", "currently_reported", "average_price",
}

var issueHeader = []interface{}{"file_id", "page", "kind", "severity", "detail"}

const priceFormat = `"NT$"#,##0.00`

// WriteXLSX writes the records and issues of a report as one workbook.
func WriteXLSX(w io.Writer, report *service.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", RecordsSheet); err != nil {
		return fmt.Errorf("failed to name records sheet: %w", err)
	}
	if _, err := f.NewSheet(IssuesSheet); err != nil {
		return fmt.Errorf("failed to create issues sheet: %w", err)
	}

	if err := f.SetSheetRow(RecordsSheet, "A1", &recordHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, r := range report.Records {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := recordCells(r)
		if err := f.SetSheetRow(RecordsSheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write record %s: %w", r.Key(), err)
		}
	}

	numFmt := priceFormat
	style, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		return fmt.Errorf("failed to create price style: %w", err)
	}
	priceCol, _ := excelize.ColumnNumberToName(len(recordHeader))
	if err := f.SetColStyle(RecordsSheet, priceCol, style); err != nil {
		return fmt.Errorf("failed to style price column: %w", err)
	}

	if err := f.SetSheetRow(IssuesSheet, "A1", &issueHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, is := range report.Issues {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := []interface{}{is.Document, is.Page, string(is.Kind), string(is.Severity), is.Detail}
		if err := f.SetSheetRow(IssuesSheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write issue: %w", err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func recordCells(r record.ReconciledRecord) []interface{} {
	row := FromRecord(r)
	values := []interface{}{
		r.Document, r.Page, r.Line, r.Country, r.Title, row.ReleaseDate,
		row.Cadence, row.PeriodStart, row.PeriodEnd,
		count(r.PeriodDays), count(r.PeriodTheaters), count(r.MaxTheaters),
		count(r.PeriodTickets), count(r.PeriodSales),
		row.TicketsChangeRate, row.SalesChangeRate,
		count(r.CumulativeTickets), count(r.CumulativeSales),
		count(r.PeriodTheatersDerived), count(r.PeriodTicketsDerived), count(r.PeriodSalesDerived),
		count(r.MaxTheatersRunning), r.WeeksSinceRelease, r.CurrentlyReported,
	}
	if avg, ok := AveragePrice(r); ok {
		values = append(values, avg.ToFloat64())
	} else {
		values = append(values, nil)
	}
	return values
}

// count maps NULL to an empty cell.
func count(c record.Count) interface{} {
	if !c.Valid {
		return nil
	}
	return c.N
}

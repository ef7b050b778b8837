package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/box-office-tracker/internal/domain/boxoffice/record"
	"github.com/FACorreiaa/box-office-tracker/internal/domain/boxoffice/service"
)

func sampleRecords() []record.ReconciledRecord {
	return []record.ReconciledRecord{
		{
			RawRecord: record.RawRecord{
				Document: 150, Page: 1, Line: 1,
				Country: "美國", Title: "星際大戰",
				ReleaseDate:       time.Date(2017, 12, 15, 0, 0, 0, 0, time.UTC),
				PeriodTheaters:    record.Known(123),
				PeriodTickets:     record.Known(1000),
				PeriodSales:       record.Known(250000),
				CumulativeTickets: record.Known(5000),
				CumulativeSales:   record.Known(1250000),
			},
			Cadence:               record.Weekly,
			PeriodStart:           time.Date(2017, 12, 11, 0, 0, 0, 0, time.UTC),
			PeriodEnd:             time.Date(2017, 12, 17, 0, 0, 0, 0, time.UTC),
			PeriodTheatersDerived: record.Known(123),
			PeriodTicketsDerived:  record.Known(1000),
			PeriodSalesDerived:    record.Known(250000),
			MaxTheatersRunning:    record.Known(123),
			WeeksSinceRelease:     1,
			CurrentlyReported:     true,
		},
		{
			RawRecord: record.RawRecord{
				Document: 40, Page: 2, Line: 31,
				Country: "日本", Title: "你的名字",
				ReleaseDate:       time.Date(2016, 10, 21, 0, 0, 0, 0, time.UTC),
				PeriodDays:        record.Known(30),
				MaxTheaters:       record.Known(98),
				CumulativeTickets: record.Known(1234567),
				CumulativeSales:   record.Known(350000000),
			},
			Cadence:               record.Monthly,
			PeriodTheatersDerived: record.Null,
			PeriodTicketsDerived:  record.Null,
			PeriodSalesDerived:    record.Null,
			MaxTheatersRunning:    record.Known(98),
		},
	}
}

func TestFromRecord(t *testing.T) {
	recs := sampleRecords()

	row := FromRecord(recs[0])
	assert.Equal(t, "2017-12-15", row.ReleaseDate)
	assert.Equal(t, "weekly", row.Cadence)
	assert.Equal(t, "250.00", row.AveragePrice)
	assert.Equal(t, "", row.PeriodDays, "absent columns export as empty cells")

	row = FromRecord(recs[1])
	assert.Equal(t, "", row.PeriodStart)
	assert.Equal(t, "", row.AveragePrice)
	assert.Equal(t, "1234567", row.CumulativeTickets)
}

func TestAveragePrice_NoTickets(t *testing.T) {
	r := sampleRecords()[0]
	r.PeriodTicketsDerived = record.Known(0)
	_, ok := AveragePrice(r)
	assert.False(t, ok)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleRecords()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "file_id", rows[0][0])
	assert.Equal(t, "average_price", rows[0][len(rows[0])-1])
	assert.Equal(t, "星際大戰", rows[1][4])
	assert.Equal(t, "true", rows[1][23])
}

func TestWriteIssues(t *testing.T) {
	issues := []record.Issue{
		{Document: 47, Page: 3, Kind: record.PatchKeyMismatch, Severity: record.SeverityWarning, Detail: "drop row 47/3/80 matches no record"},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteIssues(&buf, issues))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "file_id\tpage\tkind\tseverity\tdetail", lines[0])
	assert.Equal(t, "47\t3\tPatchKeyMismatch\twarning\tdrop row 47/3/80 matches no record", lines[1])
}

func TestWriteXLSX_RoundTrip(t *testing.T) {
	report := &service.Report{
		Records: sampleRecords(),
		Issues: []record.Issue{
			{Document: 51, Page: 2, Kind: record.BoundaryNotFound, Severity: record.SeverityFatal, Detail: "no record boundary found"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, report))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{RecordsSheet, IssuesSheet}, f.GetSheetList())

	rows, err := f.GetRows(RecordsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "file_id", rows[0][0])
	assert.Equal(t, "150", rows[1][0])
	assert.Equal(t, "星際大戰", rows[1][4])
	assert.Equal(t, "40", rows[2][0])

	price, err := f.GetCellValue(RecordsSheet, "Y2", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "250", price)

	issues, err := f.GetRows(IssuesSheet)
	require.NoError(t, err)
	require.Len(t, issues, 2)
	assert.Equal(t, []string{"51", "2", "BoundaryNotFound", "fatal", "no record boundary found"}, issues[1])
}

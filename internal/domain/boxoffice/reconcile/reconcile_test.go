package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/box-office-tracker/internal/domain/boxoffice/record"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var released = day(2017, 12, 15)

func docs() map[int]record.Document {
	return map[int]record.Document{
		10: {ID: 10, Cadence: record.Monthly, PeriodStart: day(2017, 12, 1), PeriodEnd: day(2017, 12, 31)},
		11: {ID: 11, Cadence: record.Monthly, PeriodStart: day(2018, 1, 1), PeriodEnd: day(2018, 1, 31)},
		12: {ID: 12, Cadence: record.Monthly, PeriodStart: day(2018, 2, 1), PeriodEnd: day(2018, 2, 28)},
		150: {ID: 150, Cadence: record.Weekly, PeriodStart: day(2018, 3, 5), PeriodEnd: day(2018, 3, 11)},
		151: {ID: 151, Cadence: record.Weekly, PeriodStart: day(2018, 3, 12), PeriodEnd: day(2018, 3, 18)},
	}
}

func monthly(doc int, line int, title string, maxTheaters, cumTickets, cumSales int64) record.RawRecord {
	return record.RawRecord{
		Document:          doc,
		Page:              1,
		Line:              line,
		Country:           "美國",
		Title:             title,
		ReleaseDate:       released,
		PeriodDays:        record.Known(17),
		MaxTheaters:       record.Known(maxTheaters),
		CumulativeTickets: record.Known(cumTickets),
		CumulativeSales:   record.Known(cumSales),
	}
}

func weekly(doc int, line int, title string, theaters, tickets, sales, cumTickets, cumSales int64) record.RawRecord {
	return record.RawRecord{
		Document:          doc,
		Page:              1,
		Line:              line,
		Country:           "美國",
		Title:             title,
		ReleaseDate:       released,
		PeriodTheaters:    record.Known(theaters),
		PeriodTickets:     record.Known(tickets),
		PeriodSales:       record.Known(sales),
		CumulativeTickets: record.Known(cumTickets),
		CumulativeSales:   record.Known(cumSales),
	}
}

func TestReconcile_MonthlyAndWeeklyFold(t *testing.T) {
	in := []record.RawRecord{
		weekly(151, 3, "星際大戰", 20, 500, 125000, 9600, 2400000),
		monthly(11, 1, "星際大戰", 140, 8000, 2000000),
		monthly(10, 4, "星際大戰", 123, 5000, 1250000),
		weekly(150, 2, "星際大戰", 35, 1000, 250000, 9100, 2275000),
		monthly(12, 7, "星際大戰", 80, 8100, 2025000),
	}

	res, err := Reconcile(in, docs())
	require.NoError(t, err)
	require.Len(t, res.Records, 5)
	assert.Empty(t, res.Issues)
	assert.Equal(t, 1, res.Groups)
	assert.Equal(t, 151, res.MaxDocument)

	got := res.Records
	assert.Equal(t, []int{10, 11, 12, 150, 151},
		[]int{got[0].Document, got[1].Document, got[2].Document, got[3].Document, got[4].Document})

	t.Run("first monthly seeds from cumulative", func(t *testing.T) {
		assert.Equal(t, record.Known(5000), got[0].PeriodTicketsDerived)
		assert.Equal(t, record.Known(1250000), got[0].PeriodSalesDerived)
		assert.Equal(t, record.Known(123), got[0].PeriodTheatersDerived)
	})

	t.Run("later monthly is the cumulative delta", func(t *testing.T) {
		assert.Equal(t, record.Known(3000), got[1].PeriodTicketsDerived)
		assert.Equal(t, record.Known(750000), got[1].PeriodSalesDerived)
		assert.Equal(t, record.Null, got[1].PeriodTheatersDerived)
		assert.Equal(t, record.Known(100), got[2].PeriodTicketsDerived)
	})

	t.Run("weekly keeps its own period figures", func(t *testing.T) {
		assert.Equal(t, record.Known(35), got[3].PeriodTheatersDerived)
		assert.Equal(t, record.Known(1000), got[3].PeriodTicketsDerived)
		assert.Equal(t, record.Known(125000), got[4].PeriodSalesDerived)
	})

	t.Run("running max over both theater channels", func(t *testing.T) {
		want := []int64{123, 140, 140, 140, 140}
		for i, r := range got {
			assert.Equal(t, record.Known(want[i]), r.MaxTheatersRunning, "record %d", i)
		}
	})

	t.Run("only the newest membership is current", func(t *testing.T) {
		for _, r := range got[:4] {
			assert.False(t, r.CurrentlyReported)
		}
		assert.True(t, got[4].CurrentlyReported)
	})

	t.Run("raw fields are untouched", func(t *testing.T) {
		assert.Equal(t, record.Known(8000), got[1].CumulativeTickets)
		assert.Equal(t, record.Null, got[1].PeriodTickets)
		assert.Equal(t, record.Monthly, got[1].Cadence)
		assert.Equal(t, day(2018, 1, 31), got[1].PeriodEnd)
	})
}

func TestReconcile_NullCumulativeGivesNullDelta(t *testing.T) {
	second := monthly(11, 1, "露西", 10, 0, 0)
	second.CumulativeTickets = record.Null
	in := []record.RawRecord{monthly(10, 1, "露西", 10, 100, 1000), second}

	res, err := Reconcile(in, docs())
	require.NoError(t, err)
	assert.Equal(t, record.Null, res.Records[1].PeriodTicketsDerived)
	assert.Equal(t, record.Known(-1000), res.Records[1].PeriodSalesDerived)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, record.CumulativeRegression, res.Issues[0].Kind)
}

func TestReconcile_CurrentlyReportedPerGroup(t *testing.T) {
	in := []record.RawRecord{
		monthly(10, 1, "露西", 60, 100, 1000),
		monthly(11, 1, "露西", 60, 200, 2000),
		weekly(151, 1, "星際大戰", 20, 500, 125000, 9600, 2400000),
		weekly(150, 1, "可可夜總會", 20, 500, 125000, 800, 200000),
	}

	res, err := Reconcile(in, docs())
	require.NoError(t, err)

	current := 0
	for _, r := range res.Records {
		if r.CurrentlyReported {
			current++
			assert.Equal(t, "星際大戰", r.Title)
		}
	}
	assert.Equal(t, 1, current)

	titles := make([]string, len(res.Records))
	for i, r := range res.Records {
		titles[i] = r.Title
	}
	assert.Equal(t, []string{"可可夜總會", "星際大戰", "露西", "露西"}, titles)
}

func TestReconcile_WarnsOnRegression(t *testing.T) {
	in := []record.RawRecord{
		monthly(10, 1, "星際大戰", 123, 5000, 1250000),
		monthly(11, 1, "星際大戰", 140, 4000, 1250000),
	}
	res, err := Reconcile(in, docs())
	require.NoError(t, err)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, record.CumulativeRegression, res.Issues[0].Kind)
	assert.Equal(t, 11, res.Issues[0].Document)
	assert.Equal(t, record.SeverityWarning, res.Issues[0].Severity)
}

func TestReconcile_TitleVariants(t *testing.T) {
	in := []record.RawRecord{
		monthly(10, 1, "星際大戰", 123, 5000, 1250000),
		monthly(11, 2, "星際大戰:", 140, 8000, 2000000),
		monthly(11, 3, "可可夜總會", 10, 10, 10),
	}
	res, err := Reconcile(in, docs())
	require.NoError(t, err)
	assert.Equal(t, 3, res.Groups)

	kinds := record.CountByKind(res.Issues)
	assert.Equal(t, 1, kinds[record.TitleVariant])
}

func TestReconcile_UnknownDocument(t *testing.T) {
	_, err := Reconcile([]record.RawRecord{monthly(99, 1, "露西", 1, 1, 1)}, docs())
	assert.Error(t, err)
}

func TestWeeksSinceRelease(t *testing.T) {
	tests := []struct {
		name     string
		released time.Time
		end      time.Time
		want     int
	}{
		{"same week", day(2017, 12, 15), day(2017, 12, 17), 1},
		{"following week", day(2017, 12, 15), day(2017, 12, 24), 2},
		{"across year end", day(2017, 12, 15), day(2018, 1, 7), 52 + 1 - 50 + 1},
		{"unknown period", day(2017, 12, 15), time.Time{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WeeksSinceRelease(tt.released, tt.end))
		})
	}
}

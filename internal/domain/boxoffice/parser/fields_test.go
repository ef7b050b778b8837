package parser

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/box-office-tracker/internal/domain/boxoffice/profile"
	"github.com/FACorreiaa/box-office-tracker/internal/domain/boxoffice/record"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestExtractFields_IndexedLine(t *testing.T) {
	f, err := ExtractFields("1 美國 星際大戰2017/12/15 8 123 450,000 100,000,000", monthlyProfile(0), 1, 0)
	require.NoError(t, err)

	assert.Equal(t, 1, f.Line)
	assert.True(t, f.ExplicitLine)
	assert.Equal(t, "美國", f.Country)
	assert.Equal(t, "星際大戰", f.Title)
	assert.Equal(t, date(2017, 12, 15), f.ReleaseDate)

	r := f.Record(47, 3)
	assert.Equal(t, record.Key{Document: 47, Page: 3, Line: 1}, r.Key())
	assert.Equal(t, record.Known(8), r.PeriodDays)
	assert.Equal(t, record.Known(123), r.MaxTheaters)
	assert.Equal(t, record.Known(450000), r.CumulativeTickets)
	assert.Equal(t, record.Known(100000000), r.CumulativeSales)
	assert.Equal(t, record.Null, r.PeriodTheaters)
	assert.Equal(t, record.Null, r.PeriodTickets)
	assert.Equal(t, record.Null, r.PeriodSales)
	assert.False(t, r.TicketsChangeRate.Valid)
}

func TestExtractFields_CompoundCountry(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		country string
		title   string
	}{
		{"republic of china", "3 中華民 國 大佛 普拉斯 2017/10/27 10 45 110,000 30,000,000", "中華民國", "大佛普拉斯"},
		{"mainland china", "4 中國大 陸 流浪地球 2019/02/05 5 60 20,000 5,000,000", "中國大陸", "流浪地球"},
		{"australia", "5 澳大 利亞 瘋狂麥斯 2015/05/15 7 70 30,000 7,000,000", "澳大利亞", "瘋狂麥斯"},
		{"plain country keeps the rest as title", "6 中華民 大佛 2017/10/27 1 2 3 4", "中華民", "大佛"},
		{"single token country", "7 日本 名偵探 柯南 2018/04/27 3 80 9,000 2,000,000", "日本", "名偵探柯南"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ExtractFields(tt.line, monthlyProfile(0), 1, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.country, f.Country)
			assert.Equal(t, tt.title, f.Title)
		})
	}
}

func TestExtractFields_SynthesizedIndex(t *testing.T) {
	p := weeklyProfile(profile.CountryAnchored, 0)
	f, err := ExtractFields("美國 星際大戰 2017/12/15 123 5,000 1,500,000 45,000 12,000,000", p, 3, 40)
	require.NoError(t, err)

	assert.Equal(t, 43, f.Line)
	assert.False(t, f.ExplicitLine)
	r := f.Record(250, 2)
	assert.Equal(t, record.Known(123), r.PeriodTheaters)
	assert.Equal(t, record.Known(5000), r.PeriodTickets)
	assert.Equal(t, record.Known(1500000), r.PeriodSales)
	assert.Equal(t, record.Null, r.PeriodDays)
	assert.Equal(t, record.Null, r.MaxTheaters)
}

func TestExtractFields_Numerics(t *testing.T) {
	t.Run("zero is kept and dash is null", func(t *testing.T) {
		f, err := ExtractFields("9 法國 露西 2014/8/8 0 - 12,000 3,000,000", monthlyProfile(0), 1, 0)
		require.NoError(t, err)
		r := f.Record(1, 1)
		assert.Equal(t, record.Known(0), r.PeriodDays)
		assert.Equal(t, record.Null, r.MaxTheaters)
		assert.Equal(t, date(2014, 8, 8), r.ReleaseDate)
	})

	t.Run("extra tokens before the block are ignored", func(t *testing.T) {
		f, err := ExtractFields("9 法國 露西 2014/08/08 普遍級 10 60 12,000 3,000,000", monthlyProfile(0), 1, 0)
		require.NoError(t, err)
		assert.Equal(t, record.Known(10), f.Counts[profile.PeriodDays])
	})

	t.Run("rates", func(t *testing.T) {
		p := weeklyProfile(profile.Indexed, 0)
		p.Missing = profile.NewColumnSet(profile.PeriodDays, profile.MaxTheaters)
		f, err := ExtractFields("2 美國 沙丘 2021/09/17 100 5,000 1,500,000 12.5% -3.25% 45,000 12,000,000", p, 1, 0)
		require.NoError(t, err)
		r := f.Record(300, 1)
		require.True(t, r.TicketsChangeRate.Valid)
		assert.True(t, decimal.RequireFromString("12.5").Equal(r.TicketsChangeRate.Decimal))
		assert.True(t, decimal.RequireFromString("-3.25").Equal(r.SalesChangeRate.Decimal))
		assert.Equal(t, record.Known(45000), r.CumulativeTickets)
	})
}

func TestExtractFields_Malformed(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"no counter", "美國 星際大戰 2017/12/15 8 123 450,000 100,000,000"},
		{"no date", "1 美國 星際大戰 8 123 450,000 100,000,000"},
		{"no title", "1 美國 2017/12/15 8 123 450,000 100,000,000"},
		{"impossible date", "1 美國 星際大戰 2017/13/45 8 123 450,000 100,000,000"},
		{"too few values", "1 美國 星際大戰 2017/12/15 450,000 100,000,000"},
		{"non numeric value", "1 美國 星際大戰 2017/12/15 8 多 450,000 100,000,000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractFields(tt.line, monthlyProfile(0), 1, 0)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedLine)
		})
	}
}

func TestParseCount(t *testing.T) {
	c, err := ParseCount("1,234,567")
	require.NoError(t, err)
	assert.Equal(t, record.Known(1234567), c)

	c, err = ParseCount("-")
	require.NoError(t, err)
	assert.Equal(t, record.Null, c)

	_, err = ParseCount("12a")
	assert.Error(t, err)
}

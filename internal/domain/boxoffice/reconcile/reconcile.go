// Package reconcile folds the records of one (title, release date) group
// across bulletins of weekly and monthly cadence into a single time series.
package reconcile

import (
	"fmt"
	"sort"
	"time"

	"github.com/FACorreiaa/box-office-tracker/internal/domain/boxoffice/record"
)

// Result is the reconciled batch.
type Result struct {
	Records     []record.ReconciledRecord
	Issues      []record.Issue
	Groups      int
	MaxDocument int
}

// accumulator is the state carried through one group in document order.
type accumulator struct {
	seenMonthly           bool
	lastMonthlyCumTickets record.Count
	lastMonthlyCumSales   record.Count
	runningMaxTheaters    record.Count
	maxCumTickets         record.Count
	maxCumSales           record.Count
}

// Reconcile groups records by (title, release date), orders each group by
// (document, page, line) and derives period and running figures. docs holds the
// metadata of every processed document; the largest key is the newest
// bulletin. A record whose document is missing from docs is an error.
func Reconcile(records []record.RawRecord, docs map[int]record.Document) (*Result, error) {
	result := &Result{}
	for id := range docs {
		if id > result.MaxDocument {
			result.MaxDocument = id
		}
	}

	groups := make(map[record.GroupKey][]record.RawRecord)
	for _, r := range records {
		if _, ok := docs[r.Document]; !ok {
			return nil, fmt.Errorf("record %s: unknown document %d", r.Key(), r.Document)
		}
		gk := r.GroupKey()
		groups[gk] = append(groups[gk], r)
	}

	keys := make([]record.GroupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Title != keys[j].Title {
			return keys[i].Title < keys[j].Title
		}
		return keys[i].ReleaseDate < keys[j].ReleaseDate
	})

	result.Records = make([]record.ReconciledRecord, 0, len(records))
	for _, k := range keys {
		members := groups[k]
		record.SortByKey(members)
		out, issues := fold(members, docs, result.MaxDocument)
		result.Records = append(result.Records, out...)
		result.Issues = append(result.Issues, issues...)
	}
	result.Groups = len(keys)
	result.Issues = append(result.Issues, TitleVariants(keys, groups)...)
	return result, nil
}

func fold(members []record.RawRecord, docs map[int]record.Document, maxDoc int) ([]record.ReconciledRecord, []record.Issue) {
	var (
		acc    accumulator
		issues []record.Issue
	)
	out := make([]record.ReconciledRecord, len(members))

	for i, r := range members {
		doc := docs[r.Document]
		rr := record.ReconciledRecord{
			RawRecord:   r,
			Cadence:     doc.Cadence,
			PeriodStart: doc.PeriodStart,
			PeriodEnd:   doc.PeriodEnd,
		}

		switch doc.Cadence {
		case record.Monthly:
			if !acc.seenMonthly {
				rr.PeriodTicketsDerived = r.CumulativeTickets
				rr.PeriodSalesDerived = r.CumulativeSales
				rr.PeriodTheatersDerived = r.MaxTheaters
			} else {
				rr.PeriodTicketsDerived = r.CumulativeTickets.Minus(acc.lastMonthlyCumTickets)
				rr.PeriodSalesDerived = r.CumulativeSales.Minus(acc.lastMonthlyCumSales)
				rr.PeriodTheatersDerived = record.Null
			}
			acc.seenMonthly = true
			acc.lastMonthlyCumTickets = r.CumulativeTickets
			acc.lastMonthlyCumSales = r.CumulativeSales
		default:
			rr.PeriodTheatersDerived = r.PeriodTheaters
			rr.PeriodTicketsDerived = r.PeriodTickets
			rr.PeriodSalesDerived = r.PeriodSales
		}

		acc.runningMaxTheaters = acc.runningMaxTheaters.Max(r.PeriodTheaters).Max(r.MaxTheaters)
		rr.MaxTheatersRunning = acc.runningMaxTheaters
		rr.WeeksSinceRelease = WeeksSinceRelease(r.ReleaseDate, doc.PeriodEnd)

		if r.CumulativeTickets.Less(acc.maxCumTickets) || r.CumulativeSales.Less(acc.maxCumSales) {
			issues = append(issues, record.Issue{
				Document: r.Document,
				Page:     r.Page,
				Kind:     record.CumulativeRegression,
				Severity: record.SeverityWarning,
				Detail: fmt.Sprintf("%s (%s) line %d: cumulative %s/%s below earlier %s/%s",
					r.Title, r.ReleaseDate.Format(record.DateLayout), r.Line,
					r.CumulativeTickets, r.CumulativeSales, acc.maxCumTickets, acc.maxCumSales),
			})
		}
		acc.maxCumTickets = acc.maxCumTickets.Max(r.CumulativeTickets)
		acc.maxCumSales = acc.maxCumSales.Max(r.CumulativeSales)

		out[i] = rr
	}

	if n := len(out); n > 0 && out[n-1].Document == maxDoc {
		out[n-1].CurrentlyReported = true
	}
	return out, issues
}

// WeeksSinceRelease is (isoYearEnd-isoYearRelease)*52 + (isoWeekEnd-isoWeekRelease+1).
// A document without a known period end yields 0.
func WeeksSinceRelease(released, periodEnd time.Time) int {
	if periodEnd.IsZero() || released.IsZero() {
		return 0
	}
	ye, we := periodEnd.ISOWeek()
	yr, wr := released.ISOWeek()
	return (ye-yr)*52 + (we - wr + 1)
}

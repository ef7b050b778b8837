// Package record holds the data model shared by the bulletin parser, the patch
// applier and the reconciler.
package record

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/box-office-tracker/internal/domain/boxoffice/profile"
)

// DateLayout is the calendar form used for release dates and periods in exports.
const DateLayout = "2006-01-02"

// Cadence is the reporting period of a bulletin.
type Cadence string

const (
	Weekly  Cadence = "weekly"
	Monthly Cadence = "monthly"
)

// ParseCadence accepts "weekly"/"monthly" and the bulletin words 週/月.
func ParseCadence(s string) (Cadence, error) {
	switch s {
	case "weekly", "week", "w", "週", "周":
		return Weekly, nil
	case "monthly", "month", "m", "月":
		return Monthly, nil
	}
	return "", fmt.Errorf("unknown cadence %q", s)
}

// Document is one published bulletin. Its ID is the publication sequence
// number taken from the source filename.
type Document struct {
	ID          int
	Title       string
	Cadence     Cadence
	PeriodStart time.Time
	PeriodEnd   time.Time
	Profile     profile.FormatProfile
}

// Page is an ordered fragment sequence produced by the conversion step.
// Number is the 1-based position of the page inside its document.
type Page struct {
	Number    int
	Fragments []string
}

// Key identifies a parsed line: (document, page, line).
type Key struct {
	Document int
	Page     int
	Line     int
}

// Less orders keys by document, page and line.
func (k Key) Less(o Key) bool {
	if k.Document != o.Document {
		return k.Document < o.Document
	}
	if k.Page != o.Page {
		return k.Page < o.Page
	}
	return k.Line < o.Line
}

func (k Key) String() string {
	return fmt.Sprintf("%d/%d/%d", k.Document, k.Page, k.Line)
}

// GroupKey identifies a movie across bulletins.
type GroupKey struct {
	Title       string
	ReleaseDate string
}

// RawRecord is one parsed bulletin line before reconciliation.
type RawRecord struct {
	Document    int
	Page        int
	Line        int
	Country     string
	Title       string
	ReleaseDate time.Time

	PeriodDays        Count
	PeriodTheaters    Count
	MaxTheaters       Count
	PeriodTickets     Count
	PeriodSales       Count
	TicketsChangeRate decimal.NullDecimal
	SalesChangeRate   decimal.NullDecimal
	CumulativeTickets Count
	CumulativeSales   Count
}

// Key returns the patch/identity key of the record.
func (r RawRecord) Key() Key {
	return Key{Document: r.Document, Page: r.Page, Line: r.Line}
}

// GroupKey returns the reconciliation grouping key.
func (r RawRecord) GroupKey() GroupKey {
	return GroupKey{Title: r.Title, ReleaseDate: r.ReleaseDate.Format(DateLayout)}
}

// Count returns the value of a numeric count column.
func (r RawRecord) Count(c profile.Column) Count {
	switch c {
	case profile.PeriodDays:
		return r.PeriodDays
	case profile.PeriodTheaters:
		return r.PeriodTheaters
	case profile.MaxTheaters:
		return r.MaxTheaters
	case profile.PeriodTickets:
		return r.PeriodTickets
	case profile.PeriodSales:
		return r.PeriodSales
	case profile.CumulativeTickets:
		return r.CumulativeTickets
	case profile.CumulativeSales:
		return r.CumulativeSales
	}
	return Null
}

// SetCount assigns a numeric count column; rate and text columns are ignored.
func (r *RawRecord) SetCount(c profile.Column, v Count) {
	switch c {
	case profile.PeriodDays:
		r.PeriodDays = v
	case profile.PeriodTheaters:
		r.PeriodTheaters = v
	case profile.MaxTheaters:
		r.MaxTheaters = v
	case profile.PeriodTickets:
		r.PeriodTickets = v
	case profile.PeriodSales:
		r.PeriodSales = v
	case profile.CumulativeTickets:
		r.CumulativeTickets = v
	case profile.CumulativeSales:
		r.CumulativeSales = v
	}
}

// SetRate assigns one of the change-rate columns.
func (r *RawRecord) SetRate(c profile.Column, v decimal.NullDecimal) {
	switch c {
	case profile.TicketsChangeRate:
		r.TicketsChangeRate = v
	case profile.SalesChangeRate:
		r.SalesChangeRate = v
	}
}

// SortByKey orders records by (document, page, line) in place.
func SortByKey(records []RawRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Key().Less(records[j].Key())
	})
}

// ReconciledRecord is a RawRecord enriched with figures derived from its
// (title, release date) group.
type ReconciledRecord struct {
	RawRecord

	Cadence     Cadence
	PeriodStart time.Time
	PeriodEnd   time.Time

	PeriodTheatersDerived Count
	PeriodTicketsDerived  Count
	PeriodSalesDerived    Count
	MaxTheatersRunning    Count
	WeeksSinceRelease     int
	CurrentlyReported     bool
}

// PatchSet holds manual corrections keyed by (document, page, line).
type PatchSet struct {
	Drop   []Key
	Append []RawRecord
}

// Empty reports whether the set carries no rows.
func (p PatchSet) Empty() bool {
	return len(p.Drop) == 0 && len(p.Append) == 0
}

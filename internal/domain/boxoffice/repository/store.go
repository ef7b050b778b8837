// Package repository persists reconciled records in PostgreSQL.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/box-office-tracker/internal/domain/boxoffice/record"
)

// DB is the subset of *pgxpool.Pool the store uses.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

var recordTable = pgx.Identifier{"box_office_records"}

// recordColumns is the CopyFrom column order.
var recordColumns = []string{
	"run_id", "document", "page", "line", "country", "title", "release_date",
	"cadence", "period_start", "period_end",
	"period_days", "period_theaters", "max_theaters", "period_tickets", "period_sales",
	"tickets_change_rate", "sales_change_rate", "cumulative_tickets", "cumulative_sales",
	"period_theaters_derived", "period_tickets_derived", "period_sales_derived",
	"max_theaters_running", "weeks_since_release", "currently_reported",
}

// Store manages box-office records in the database
type Store struct {
	db DB
}

// NewStore creates a new store
func NewStore(db DB) *Store {
	return &Store{db: db}
}

// ReplaceAll swaps the stored record set for the records of one run inside a
// single transaction.
func (s *Store) ReplaceAll(ctx context.Context, runID uuid.UUID, records []record.ReconciledRecord) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `INSERT INTO box_office_runs (id, records) VALUES ($1, $2)`, runID, len(records))
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM box_office_records`); err != nil {
		return fmt.Errorf("failed to clear records: %w", err)
	}

	n, err := tx.CopyFrom(ctx, recordTable, recordColumns, pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
		return recordValues(runID, records[i]), nil
	}))
	if err != nil {
		return fmt.Errorf("failed to copy records: %w", err)
	}
	if int(n) != len(records) {
		return fmt.Errorf("copied %d of %d records", n, len(records))
	}

	return tx.Commit(ctx)
}

func recordValues(runID uuid.UUID, r record.ReconciledRecord) []any {
	return []any{
		runID, r.Document, r.Page, r.Line, r.Country, r.Title, r.ReleaseDate,
		string(r.Cadence), nullDate(r.PeriodStart), nullDate(r.PeriodEnd),
		r.PeriodDays.Ptr(), r.PeriodTheaters.Ptr(), r.MaxTheaters.Ptr(), r.PeriodTickets.Ptr(), r.PeriodSales.Ptr(),
		r.TicketsChangeRate, r.SalesChangeRate, r.CumulativeTickets.Ptr(), r.CumulativeSales.Ptr(),
		r.PeriodTheatersDerived.Ptr(), r.PeriodTicketsDerived.Ptr(), r.PeriodSalesDerived.Ptr(),
		r.MaxTheatersRunning.Ptr(), r.WeeksSinceRelease, r.CurrentlyReported,
	}
}

func nullDate(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// ListGroup returns the series of one (title, release date) group in
// document order.
func (s *Store) ListGroup(ctx context.Context, title string, released time.Time) ([]record.ReconciledRecord, error) {
	query := `
		SELECT document, page, line, country, title, release_date,
			cadence, period_start, period_end,
			period_days, period_theaters, max_theaters, period_tickets, period_sales,
			tickets_change_rate, sales_change_rate, cumulative_tickets, cumulative_sales,
			period_theaters_derived, period_tickets_derived, period_sales_derived,
			max_theaters_running, weeks_since_release, currently_reported
		FROM box_office_records
		WHERE title = $1 AND release_date = $2
		ORDER BY document, page, line`

	rows, err := s.db.Query(ctx, query, title, released)
	if err != nil {
		return nil, fmt.Errorf("failed to list group: %w", err)
	}
	defer rows.Close()

	var out []record.ReconciledRecord
	for rows.Next() {
		var (
			r               record.ReconciledRecord
			cadence         string
			start, end      *time.Time
			days, theaters  *int64
			maxTheaters     *int64
			tickets, sales  *int64
			ticketsRate     decimal.NullDecimal
			salesRate       decimal.NullDecimal
			cumTickets      *int64
			cumSales        *int64
			derivedTheaters *int64
			derivedTickets  *int64
			derivedSales    *int64
			runningTheaters *int64
		)
		err := rows.Scan(
			&r.Document, &r.Page, &r.Line, &r.Country, &r.Title, &r.ReleaseDate,
			&cadence, &start, &end,
			&days, &theaters, &maxTheaters, &tickets, &sales,
			&ticketsRate, &salesRate, &cumTickets, &cumSales,
			&derivedTheaters, &derivedTickets, &derivedSales,
			&runningTheaters, &r.WeeksSinceRelease, &r.CurrentlyReported,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}

		r.Cadence = record.Cadence(cadence)
		if start != nil {
			r.PeriodStart = *start
		}
		if end != nil {
			r.PeriodEnd = *end
		}
		r.PeriodDays = record.FromPtr(days)
		r.PeriodTheaters = record.FromPtr(theaters)
		r.MaxTheaters = record.FromPtr(maxTheaters)
		r.PeriodTickets = record.FromPtr(tickets)
		r.PeriodSales = record.FromPtr(sales)
		r.TicketsChangeRate = ticketsRate
		r.SalesChangeRate = salesRate
		r.CumulativeTickets = record.FromPtr(cumTickets)
		r.CumulativeSales = record.FromPtr(cumSales)
		r.PeriodTheatersDerived = record.FromPtr(derivedTheaters)
		r.PeriodTicketsDerived = record.FromPtr(derivedTickets)
		r.PeriodSalesDerived = record.FromPtr(derivedSales)
		r.MaxTheatersRunning = record.FromPtr(runningTheaters)
		out = append(out, r)
	}
	return out, rows.Err()
}

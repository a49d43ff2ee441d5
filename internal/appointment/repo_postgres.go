package appointment

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresRepo is the production repository backed by database/sql with
// the pgx stdlib driver.
//
// Expected schema:
//
//	CREATE TABLE appointments (
//	    id                TEXT PRIMARY KEY,
//	    session_id        TEXT NOT NULL,
//	    customer_name     TEXT NOT NULL,
//	    customer_phone    TEXT NOT NULL DEFAULT '',
//	    preferred_day     TEXT NOT NULL DEFAULT '',
//	    preferred_time    TEXT NOT NULL DEFAULT '',
//	    service           TEXT NOT NULL DEFAULT '',
//	    confirmation_code TEXT NOT NULL DEFAULT '',
//	    status            TEXT NOT NULL,
//	    booked_at         TIMESTAMPTZ NOT NULL
//	);
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) (*PostgresRepo, error) {
	if db == nil {
		return nil, fmt.Errorf("appointment: db is required")
	}
	return &PostgresRepo{db: db}, nil
}

const insertRecord = `
INSERT INTO appointments
    (id, session_id, customer_name, customer_phone, preferred_day, preferred_time, service, confirmation_code, status, booked_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

func (r *PostgresRepo) Store(ctx context.Context, rec Record) error {
	_, err := r.db.ExecContext(ctx, insertRecord,
		rec.ID, rec.SessionID, rec.CustomerName, rec.CustomerPhone,
		rec.PreferredDay, rec.PreferredTime, rec.Service,
		rec.ConfirmationCode, rec.Status, rec.BookedAt,
	)
	if err != nil {
		return fmt.Errorf("appointment: insert: %w", err)
	}
	return nil
}

const selectRecords = `
SELECT id, session_id, customer_name, customer_phone, preferred_day, preferred_time, service, confirmation_code, status, booked_at
FROM appointments`

func (r *PostgresRepo) List(ctx context.Context) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, selectRecords+` ORDER BY booked_at`)
	if err != nil {
		return nil, fmt.Errorf("appointment: select: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (r *PostgresRepo) ListByDay(ctx context.Context, day string) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, selectRecords+` WHERE preferred_day = $1 ORDER BY booked_at`, day)
	if err != nil {
		return nil, fmt.Errorf("appointment: select by day: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(
			&rec.ID, &rec.SessionID, &rec.CustomerName, &rec.CustomerPhone,
			&rec.PreferredDay, &rec.PreferredTime, &rec.Service,
			&rec.ConfirmationCode, &rec.Status, &rec.BookedAt,
		); err != nil {
			return nil, fmt.Errorf("appointment: scan: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointment: rows: %w", err)
	}
	return out, nil
}

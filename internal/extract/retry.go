package extract

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/cloudflare/backoff"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	// lockNotAvailableCode is Postgres's SQLSTATE for a lock_timeout
	// expiry (55P03), the one transient condition worth retrying a
	// read-only catalog query for.
	lockNotAvailableCode = "55P03"
	maxBackoffDuration   = 30 * time.Second
	backoffInterval      = 250 * time.Millisecond
)

// RDB wraps a *sql.DB and retries a query with exponential backoff when it
// fails on lock_timeout, the one error an otherwise read-only catalog scan
// can plausibly hit against a busy cluster. Grounded on xataio-pgroll's
// pkg/db.RDB, adapted from lib/pq's *pq.Error to pgx's *pgconn.PgError
// since this module's driver is jackc/pgx/v5.
type RDB struct {
	db *sql.DB
}

// NewRDB wraps db for retryable reads.
func NewRDB(db *sql.DB) *RDB {
	return &RDB{db: db}
}

// QueryContext runs query, retrying on lock_timeout until ctx is done.
func (r *RDB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	b := backoff.New(maxBackoffDuration, backoffInterval)

	for {
		rows, err := r.db.QueryContext(ctx, query, args...)
		if err == nil {
			return rows, nil
		}
		if !isLockTimeout(err) {
			return nil, err
		}
		if err := sleepCtx(ctx, b.Duration()); err != nil {
			return nil, err
		}
	}
}

// QueryRowContext runs query expecting a single row, retrying on
// lock_timeout the same way QueryContext does.
func (r *RDB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	b := backoff.New(maxBackoffDuration, backoffInterval)

	for {
		row := r.db.QueryRowContext(ctx, query, args...)
		if err := row.Err(); err != nil && isLockTimeout(err) {
			if err := sleepCtx(ctx, b.Duration()); err != nil {
				return row
			}
			continue
		}
		return row
	}
}

func isLockTimeout(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == lockNotAvailableCode
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

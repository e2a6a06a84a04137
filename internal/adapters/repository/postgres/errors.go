package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ogurasousui/codex-staff-ledger/internal/core/apperr"
)

const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
	checkViolationCode      = "23514"
	lockNotAvailableCode    = "55P03"
)

// asPgError は err に含まれる PostgreSQL のエラーを返します。
func asPgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// persistenceError はドメインエラーに対応しない失敗を apperr.PersistenceError に包みます。
func persistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	if pgErr, ok := asPgError(err); ok && pgErr.Code == lockNotAvailableCode {
		return apperr.Persistence(op, fmt.Errorf("%w: %s", apperr.ErrLockTimeout, pgErr.Message))
	}
	return apperr.Persistence(op, err)
}

func nullableDate(value *time.Time) any {
	if value == nil {
		return nil
	}
	return dateOnly(*value)
}

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func datePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	d := dateOnly(v.Time)
	return &d
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func boolPtr(v sql.NullBool) *bool {
	if !v.Valid {
		return nil
	}
	b := v.Bool
	return &b
}

func intPtr(v sql.NullInt32) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int32)
	return &n
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

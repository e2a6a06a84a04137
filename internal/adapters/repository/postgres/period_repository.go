package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ogurasousui/codex-staff-ledger/internal/core/employee"
	"github.com/ogurasousui/codex-staff-ledger/internal/core/period"
	pgdb "github.com/ogurasousui/codex-staff-ledger/internal/platform/db/postgres"
)

const periodColumns = `id, employee_id, start_date, end_date, separation_type, separation_reason,
               eligible_for_rehire, notice_days, created_at`

const (
	periodOneOpenIndex       = "employment_periods_one_open_idx"
	periodDateRangeCheckName = "employment_periods_date_range_check"
)

// PeriodRepository は在籍期間を PostgreSQL に保存します。
type PeriodRepository struct {
	pool pgdb.Queryer
}

// NewPeriodRepository は PeriodRepository を生成します。
func NewPeriodRepository(pool pgdb.Queryer) *PeriodRepository {
	return &PeriodRepository{pool: pool}
}

// Create は継続中の在籍期間を追加します。
func (r *PeriodRepository) Create(ctx context.Context, p *period.Period) (*period.Period, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO employment_periods (employee_id, start_date, created_at)
        VALUES ($1, $2, $3)
        RETURNING `+periodColumns, p.EmployeeID, dateOnly(p.StartDate), p.CreatedAt)

	created, err := scanPeriod(row)
	if err != nil {
		return nil, translatePeriodPgError("employment_periods.insert", err)
	}
	return created, nil
}

// Close は継続中の在籍期間に終了日と退職情報を記録します。
func (r *PeriodRepository) Close(ctx context.Context, id string, endDate time.Time, closure period.Closure) (*period.Period, error) {
	var sepType any
	if closure.SeparationType != "" {
		sepType = closure.SeparationType
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE employment_periods
           SET end_date = $2,
               separation_type = $3,
               separation_reason = $4,
               eligible_for_rehire = $5,
               notice_days = $6
         WHERE id = $1 AND end_date IS NULL
        RETURNING `+periodColumns,
		id,
		dateOnly(endDate),
		sepType,
		closure.SeparationReason,
		closure.EligibleForRehire,
		closure.NoticeDays,
	)

	closed, err := scanPeriod(row)
	if err != nil {
		return nil, translatePeriodPgError("employment_periods.close", err)
	}
	return closed, nil
}

// FindByID は ID で在籍期間を取得します。
func (r *PeriodRepository) FindByID(ctx context.Context, id string) (*period.Period, error) {
	return r.findOne(ctx, "employment_periods.select", `
        SELECT `+periodColumns+`
          FROM employment_periods
         WHERE id = $1
    `, id)
}

// FindOpenByEmployee は社員の継続中の在籍期間を取得します。
func (r *PeriodRepository) FindOpenByEmployee(ctx context.Context, employeeID string) (*period.Period, error) {
	return r.findOne(ctx, "employment_periods.select_open", `
        SELECT `+periodColumns+`
          FROM employment_periods
         WHERE employee_id = $1 AND end_date IS NULL
         LIMIT 1
    `, employeeID)
}

// FindLatestClosedByEmployee は社員の直近に終了した在籍期間を取得します。
func (r *PeriodRepository) FindLatestClosedByEmployee(ctx context.Context, employeeID string) (*period.Period, error) {
	return r.findOne(ctx, "employment_periods.select_latest_closed", `
        SELECT `+periodColumns+`
          FROM employment_periods
         WHERE employee_id = $1 AND end_date IS NOT NULL
         ORDER BY end_date DESC, created_at DESC
         LIMIT 1
    `, employeeID)
}

// ListByEmployee は社員の在籍期間を新しい順に返します。
func (r *PeriodRepository) ListByEmployee(ctx context.Context, employeeID string) ([]*period.Period, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT `+periodColumns+`
          FROM employment_periods
         WHERE employee_id = $1
         ORDER BY start_date DESC, created_at DESC
    `, employeeID)
	if err != nil {
		return nil, translatePeriodPgError("employment_periods.list", err)
	}
	defer rows.Close()

	periods := make([]*period.Period, 0)
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, translatePeriodPgError("employment_periods.list", err)
		}
		periods = append(periods, p)
	}
	if err := rows.Err(); err != nil {
		return nil, translatePeriodPgError("employment_periods.list", err)
	}
	return periods, nil
}

func (r *PeriodRepository) findOne(ctx context.Context, op, query string, args ...any) (*period.Period, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	found, err := scanPeriod(exec.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, translatePeriodPgError(op, err)
	}
	return found, nil
}

func scanPeriod(row pgx.Row) (*period.Period, error) {
	var (
		p          period.Period
		endDate    sql.NullTime
		sepType    sql.NullString
		sepReason  sql.NullString
		rehire     sql.NullBool
		noticeDays sql.NullInt32
	)

	if err := row.Scan(&p.ID, &p.EmployeeID, &p.StartDate, &endDate, &sepType, &sepReason, &rehire, &noticeDays, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, period.ErrPeriodNotFound
		}
		return nil, err
	}

	p.StartDate = dateOnly(p.StartDate)
	p.EndDate = datePtr(endDate)
	if p.EndDate != nil {
		p.Closure = &period.Closure{
			SeparationType:    sepType.String,
			SeparationReason:  stringPtr(sepReason),
			EligibleForRehire: boolPtr(rehire),
			NoticeDays:        intPtr(noticeDays),
		}
	}
	return &p, nil
}

func translatePeriodPgError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, period.ErrPeriodNotFound) {
		return period.ErrPeriodNotFound
	}

	if pgErr, ok := asPgError(err); ok {
		switch {
		case pgErr.Code == uniqueViolationCode && pgErr.ConstraintName == periodOneOpenIndex:
			return period.ErrPeriodAlreadyOpen
		case pgErr.Code == foreignKeyViolationCode:
			return employee.ErrEmployeeNotFound
		case pgErr.Code == checkViolationCode && pgErr.ConstraintName == periodDateRangeCheckName:
			return period.ErrInvalidDateRange
		}
	}

	return persistenceError(op, err)
}

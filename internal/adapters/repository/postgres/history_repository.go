package postgres

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5"

	"github.com/ogurasousui/codex-staff-ledger/internal/core/employee"
	"github.com/ogurasousui/codex-staff-ledger/internal/core/history"
	pgdb "github.com/ogurasousui/codex-staff-ledger/internal/platform/db/postgres"
)

const historyColumns = `id, employee_id, old_status, new_status, changed_at, changed_by, note,
               separation_date, final_working_day, separation_reason, eligible_for_rehire,
               notice_given, notice_days_served, exit_interview_done, clearance_done,
               clearance_amount::float8, clearance_cheque_number`

// HistoryRepository は状態履歴を追記専用で保存します。
type HistoryRepository struct {
	pool pgdb.Queryer
}

// NewHistoryRepository は HistoryRepository を生成します。
func NewHistoryRepository(pool pgdb.Queryer) *HistoryRepository {
	return &HistoryRepository{pool: pool}
}

// Append は履歴を一件追記します。
func (r *HistoryRepository) Append(ctx context.Context, entry *history.Entry) (*history.Entry, error) {
	var (
		sepDate, finalDay            any
		reason, cheque               *string
		rehire, noticeGiven          *bool
		noticeServed                 *int
		exitInterview, clearanceDone *bool
		clearanceAmount              *float64
	)
	if snap := entry.Separation; snap != nil {
		sepDate = nullableDate(snap.SeparationDate)
		finalDay = nullableDate(snap.FinalWorkingDay)
		reason = snap.Reason
		rehire = snap.EligibleForRehire
		noticeGiven = snap.NoticeGiven
		noticeServed = snap.NoticeDaysServed
		exitInterview = &snap.ExitInterviewDone
		clearanceDone = &snap.ClearanceDone
		clearanceAmount = snap.ClearanceAmount
		cheque = snap.ClearanceChequeNumber
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO employee_status_history (
               employee_id, old_status, new_status, changed_at, changed_by, note,
               separation_date, final_working_day, separation_reason, eligible_for_rehire,
               notice_given, notice_days_served, exit_interview_done, clearance_done,
               clearance_amount, clearance_cheque_number)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
        RETURNING `+historyColumns,
		entry.EmployeeID,
		string(entry.OldStatus),
		string(entry.NewStatus),
		entry.ChangedAt,
		entry.ChangedBy,
		entry.Note,
		sepDate,
		finalDay,
		reason,
		rehire,
		noticeGiven,
		noticeServed,
		exitInterview,
		clearanceDone,
		clearanceAmount,
		cheque,
	)

	appended, err := scanHistoryEntry(row)
	if err != nil {
		return nil, translateHistoryPgError("employee_status_history.insert", err)
	}
	return appended, nil
}

// ListByEmployee は社員の履歴を新しい順に返します。
func (r *HistoryRepository) ListByEmployee(ctx context.Context, employeeID string) ([]*history.Entry, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT `+historyColumns+`
          FROM employee_status_history
         WHERE employee_id = $1
         ORDER BY changed_at DESC, id DESC
    `, employeeID)
	if err != nil {
		return nil, translateHistoryPgError("employee_status_history.list", err)
	}
	defer rows.Close()

	entries := make([]*history.Entry, 0)
	for rows.Next() {
		entry, err := scanHistoryEntry(rows)
		if err != nil {
			return nil, translateHistoryPgError("employee_status_history.list", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, translateHistoryPgError("employee_status_history.list", err)
	}
	return entries, nil
}

func scanHistoryEntry(row pgx.Row) (*history.Entry, error) {
	var (
		e                   history.Entry
		oldStatus           string
		newStatus           string
		changedBy, note     sql.NullString
		sepDate, finalDay   sql.NullTime
		reason, cheque      sql.NullString
		rehire, noticeGiven sql.NullBool
		noticeServed        sql.NullInt32
		exitInterview       sql.NullBool
		clearanceDone       sql.NullBool
		clearanceAmount     sql.NullFloat64
	)

	if err := row.Scan(
		&e.ID,
		&e.EmployeeID,
		&oldStatus,
		&newStatus,
		&e.ChangedAt,
		&changedBy,
		&note,
		&sepDate,
		&finalDay,
		&reason,
		&rehire,
		&noticeGiven,
		&noticeServed,
		&exitInterview,
		&clearanceDone,
		&clearanceAmount,
		&cheque,
	); err != nil {
		return nil, err
	}

	e.OldStatus = employee.Status(oldStatus)
	e.NewStatus = employee.Status(newStatus)
	e.ChangedBy = stringPtr(changedBy)
	e.Note = stringPtr(note)

	if exitInterview.Valid || clearanceDone.Valid {
		e.Separation = &history.Snapshot{
			SeparationDate:        datePtr(sepDate),
			FinalWorkingDay:       datePtr(finalDay),
			Reason:                stringPtr(reason),
			EligibleForRehire:     boolPtr(rehire),
			NoticeGiven:           boolPtr(noticeGiven),
			NoticeDaysServed:      intPtr(noticeServed),
			ExitInterviewDone:     exitInterview.Bool,
			ClearanceDone:         clearanceDone.Bool,
			ClearanceAmount:       floatPtr(clearanceAmount),
			ClearanceChequeNumber: stringPtr(cheque),
		}
	}
	return &e, nil
}

func translateHistoryPgError(op string, err error) error {
	if err == nil {
		return nil
	}
	if pgErr, ok := asPgError(err); ok && pgErr.Code == foreignKeyViolationCode {
		return employee.ErrEmployeeNotFound
	}
	return persistenceError(op, err)
}

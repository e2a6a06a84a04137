package postgres

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ogurasousui/codex-staff-ledger/internal/core/attendance"
	"github.com/ogurasousui/codex-staff-ledger/internal/core/employee"
	pgdb "github.com/ogurasousui/codex-staff-ledger/internal/platform/db/postgres"
)

const attendanceColumns = `employee_id, day, status, to_char(start_time, 'HH24:MI:SS'), updated_at`

// AttendanceRepository は出欠記録を PostgreSQL に保存します。
type AttendanceRepository struct {
	pool pgdb.Queryer
}

// NewAttendanceRepository は AttendanceRepository を生成します。
func NewAttendanceRepository(pool pgdb.Queryer) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

// Upsert は (employee_id, day) の記録を挿入し、既にあれば置き換えます。
func (r *AttendanceRepository) Upsert(ctx context.Context, record *attendance.Record) (*attendance.Record, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO attendance_records (employee_id, day, status, start_time, updated_at)
        VALUES ($1, $2, $3, $4::text::time, $5)
        ON CONFLICT (employee_id, day) DO UPDATE
           SET status = EXCLUDED.status,
               start_time = EXCLUDED.start_time,
               updated_at = EXCLUDED.updated_at
        RETURNING `+attendanceColumns,
		record.EmployeeID,
		dateOnly(record.Day),
		string(record.Status),
		record.StartTime,
		record.UpdatedAt,
	)

	saved, err := scanAttendanceRecord(row)
	if err != nil {
		return nil, translateAttendancePgError("attendance_records.upsert", err)
	}
	return saved, nil
}

// FindRange は [from, to) の記録を返します。employeeIDs が空の場合は全社員が対象です。
func (r *AttendanceRepository) FindRange(ctx context.Context, employeeIDs []string, from, to time.Time) ([]*attendance.Record, error) {
	args := []any{dateOnly(from), dateOnly(to)}
	query := `
        SELECT ` + attendanceColumns + `
          FROM attendance_records
         WHERE day >= $1 AND day < $2`
	if len(employeeIDs) > 0 {
		args = append(args, employeeIDs)
		query += ` AND employee_id = ANY($3::text[]::uuid[])`
	}
	query += `
         ORDER BY employee_id, day`

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, translateAttendancePgError("attendance_records.select_range", err)
	}
	defer rows.Close()

	records := make([]*attendance.Record, 0)
	for rows.Next() {
		rec, err := scanAttendanceRecord(rows)
		if err != nil {
			return nil, translateAttendancePgError("attendance_records.select_range", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, translateAttendancePgError("attendance_records.select_range", err)
	}
	return records, nil
}

func scanAttendanceRecord(row pgx.Row) (*attendance.Record, error) {
	var (
		rec       attendance.Record
		status    string
		startTime sql.NullString
	)
	if err := row.Scan(&rec.EmployeeID, &rec.Day, &status, &startTime, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	rec.Day = dateOnly(rec.Day)
	rec.Status = attendance.Status(status)
	rec.StartTime = stringPtr(startTime)
	return &rec, nil
}

func translateAttendancePgError(op string, err error) error {
	if err == nil {
		return nil
	}
	if pgErr, ok := asPgError(err); ok {
		switch pgErr.Code {
		case foreignKeyViolationCode:
			return employee.ErrEmployeeNotFound
		case checkViolationCode:
			return attendance.ErrInvalidStatus
		}
	}
	return persistenceError(op, err)
}

// RosterRepository は出欠表の対象社員を社員台帳から読み出します。
type RosterRepository struct {
	pool pgdb.Queryer
}

// NewRosterRepository は RosterRepository を生成します。
func NewRosterRepository(pool pgdb.Queryer) *RosterRepository {
	return &RosterRepository{pool: pool}
}

// Roster は条件に一致する社員を社員番号順に返します。
func (r *RosterRepository) Roster(ctx context.Context, filter attendance.RosterFilter) ([]attendance.RosterEntry, error) {
	args := make([]any, 0, 3)
	conditions := make([]string, 0, 3)

	if len(filter.EmployeeIDs) > 0 {
		args = append(args, filter.EmployeeIDs)
		conditions = append(conditions, "id = ANY($"+strconv.Itoa(len(args))+"::text[]::uuid[])")
	}
	if !filter.IncludeSeparated {
		args = append(args, []string{string(employee.StatusResigned), string(employee.StatusTerminated)})
		conditions = append(conditions, "NOT (status = ANY($"+strconv.Itoa(len(args))+"))")
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+escapeLike(search)+"%")
		placeholder := "$" + strconv.Itoa(len(args))
		conditions = append(conditions, "(full_name ILIKE "+placeholder+" OR employee_no ILIKE "+placeholder+")")
	}

	query := `
        SELECT id, employee_no, full_name, status
          FROM employees`
	if len(conditions) > 0 {
		query += "\n         WHERE " + strings.Join(conditions, " AND ")
	}
	query += `
         ORDER BY length(employee_no) ASC, employee_no ASC`

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, persistenceError("employees.roster", err)
	}
	defer rows.Close()

	roster := make([]attendance.RosterEntry, 0)
	for rows.Next() {
		var (
			entry  attendance.RosterEntry
			status string
		)
		if err := rows.Scan(&entry.EmployeeID, &entry.EmployeeNo, &entry.FullName, &status); err != nil {
			return nil, persistenceError("employees.roster", err)
		}
		entry.Status = employee.Status(status)
		roster = append(roster, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceError("employees.roster", err)
	}
	return roster, nil
}

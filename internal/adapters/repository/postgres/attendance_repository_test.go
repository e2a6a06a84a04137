package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"

	"github.com/ogurasousui/codex-staff-ledger/internal/core/attendance"
	"github.com/ogurasousui/codex-staff-ledger/internal/core/employee"
)

var attendanceColumnNames = []string{"employee_id", "day", "status", "start_time", "updated_at"}

func TestAttendanceRepository_Upsert(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	day := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	now := time.Now().UTC()

	mock.ExpectQuery(`ON CONFLICT \(employee_id, day\) DO UPDATE`).
		WithArgs(testEmployeeID, day, "absent", pgxmock.AnyArg(), now).
		WillReturnRows(pgxmock.NewRows(attendanceColumnNames).AddRow(testEmployeeID, day, "absent", nil, now))

	rec, err := NewAttendanceRepository(mock).Upsert(context.Background(), &attendance.Record{
		EmployeeID: testEmployeeID,
		Day:        day,
		Status:     attendance.StatusAbsent,
		UpdatedAt:  now,
	})
	if err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}
	if rec.Status != attendance.StatusAbsent || rec.StartTime != nil {
		t.Fatalf("unexpected record: %+v", rec)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAttendanceRepository_Upsert_UnknownEmployee(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`INSERT INTO attendance_records`).
		WillReturnError(&pgconn.PgError{Code: foreignKeyViolationCode})

	_, err = NewAttendanceRepository(mock).Upsert(context.Background(), &attendance.Record{
		EmployeeID: testEmployeeID,
		Day:        time.Now(),
		Status:     attendance.StatusPresent,
	})
	if !errors.Is(err, employee.ErrEmployeeNotFound) {
		t.Fatalf("expected ErrEmployeeNotFound, got %v", err)
	}
}

func TestAttendanceRepository_FindRange(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	now := time.Now().UTC()

	mock.ExpectQuery(`WHERE day >= \$1 AND day < \$2 AND employee_id = ANY\(\$3::text\[\]::uuid\[\]\)`).
		WithArgs(from, to, []string{testEmployeeID}).
		WillReturnRows(pgxmock.NewRows(attendanceColumnNames).
			AddRow(testEmployeeID, from, "present", "09:00:00", now).
			AddRow(testEmployeeID, from.AddDate(0, 0, 1), "leave", nil, now))

	records, err := NewAttendanceRepository(mock).FindRange(context.Background(), []string{testEmployeeID}, from, to)
	if err != nil {
		t.Fatalf("FindRange returned error: %v", err)
	}
	if len(records) != 2 || records[0].StartTime == nil || *records[0].StartTime != "09:00:00" || records[1].StartTime != nil {
		t.Fatalf("unexpected records: %+v", records)
	}
}

func TestRosterRepository_DefaultExcludesSeparated(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`WHERE NOT \(status = ANY\(\$1\)\) AND \(full_name ILIKE \$2 OR employee_no ILIKE \$2\)`).
		WithArgs([]string{"RESIGNED", "TERMINATED"}, "%amina%").
		WillReturnRows(pgxmock.NewRows([]string{"id", "employee_no", "full_name", "status"}).
			AddRow(testEmployeeID, "MSD-1", "Amina Yusuf", "ACTIVE"))

	roster, err := NewRosterRepository(mock).Roster(context.Background(), attendance.RosterFilter{Search: "amina"})
	if err != nil {
		t.Fatalf("Roster returned error: %v", err)
	}
	if len(roster) != 1 || roster[0].Status != employee.StatusActive {
		t.Fatalf("unexpected roster: %+v", roster)
	}
}

func TestRosterRepository_SelectionIncludesSeparated(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`WHERE id = ANY\(\$1::text\[\]::uuid\[\]\)\s+ORDER BY`).
		WithArgs([]string{testEmployeeID}).
		WillReturnRows(pgxmock.NewRows([]string{"id", "employee_no", "full_name", "status"}).
			AddRow(testEmployeeID, "MSD-7", "Omar Saleh", "TERMINATED"))

	roster, err := NewRosterRepository(mock).Roster(context.Background(), attendance.RosterFilter{
		EmployeeIDs:      []string{testEmployeeID},
		IncludeSeparated: true,
	})
	if err != nil {
		t.Fatalf("Roster returned error: %v", err)
	}
	if len(roster) != 1 || roster[0].Status != employee.StatusTerminated {
		t.Fatalf("unexpected roster: %+v", roster)
	}
}

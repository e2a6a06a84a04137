package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"

	"github.com/ogurasousui/codex-staff-ledger/internal/core/employee"
	"github.com/ogurasousui/codex-staff-ledger/internal/core/period"
)

var periodColumnNames = []string{"id", "employee_id", "start_date", "end_date", "separation_type", "separation_reason", "eligible_for_rehire", "notice_days", "created_at"}

const testPeriodID = "1a2b3c4d-5e6f-4a7b-8c9d-0e1f2a3b4c5d"

func TestPeriodRepository_Create_AlreadyOpen(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	start := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`INSERT INTO employment_periods`).
		WithArgs(testEmployeeID, start, pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: uniqueViolationCode, ConstraintName: periodOneOpenIndex})

	_, err = NewPeriodRepository(mock).Create(context.Background(), &period.Period{EmployeeID: testEmployeeID, StartDate: start, CreatedAt: time.Now()})
	if !errors.Is(err, period.ErrPeriodAlreadyOpen) {
		t.Fatalf("expected ErrPeriodAlreadyOpen, got %v", err)
	}
}

func TestPeriodRepository_Close(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	start := time.Date(2023, 1, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC)
	reason := "misconduct"
	notice := 14
	rehire := false

	mock.ExpectQuery(`UPDATE employment_periods\s+SET end_date = \$2`).
		WithArgs(testPeriodID, end, "TERMINATED", &reason, &rehire, &notice).
		WillReturnRows(pgxmock.NewRows(periodColumnNames).
			AddRow(testPeriodID, testEmployeeID, start, end, "TERMINATED", reason, false, 14, time.Now()))

	closed, err := NewPeriodRepository(mock).Close(context.Background(), testPeriodID, end, period.Closure{
		SeparationType:    "TERMINATED",
		SeparationReason:  &reason,
		EligibleForRehire: &rehire,
		NoticeDays:        &notice,
	})
	if err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if closed.IsOpen() || !closed.EndDate.Equal(end) {
		t.Fatalf("expected closed period ending %s, got %+v", end, closed)
	}
	if closed.Closure == nil || closed.Closure.SeparationType != "TERMINATED" || *closed.Closure.NoticeDays != 14 {
		t.Fatalf("unexpected closure: %+v", closed.Closure)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPeriodRepository_FindOpenByEmployee(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	start := time.Date(2023, 1, 10, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`WHERE employee_id = \$1 AND end_date IS NULL`).
		WithArgs(testEmployeeID).
		WillReturnRows(pgxmock.NewRows(periodColumnNames).
			AddRow(testPeriodID, testEmployeeID, start, nil, nil, nil, nil, nil, time.Now()))
	mock.ExpectQuery(`WHERE employee_id = \$1 AND end_date IS NULL`).
		WithArgs(testEmployeeID).
		WillReturnError(pgx.ErrNoRows)

	repo := NewPeriodRepository(mock)
	open, err := repo.FindOpenByEmployee(context.Background(), testEmployeeID)
	if err != nil {
		t.Fatalf("FindOpenByEmployee returned error: %v", err)
	}
	if !open.IsOpen() || open.Closure != nil {
		t.Fatalf("expected open period without closure, got %+v", open)
	}

	if _, err := repo.FindOpenByEmployee(context.Background(), testEmployeeID); !errors.Is(err, period.ErrPeriodNotFound) {
		t.Fatalf("expected ErrPeriodNotFound, got %v", err)
	}
}

func TestTranslatePeriodPgError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err  error
		want error
	}{
		{&pgconn.PgError{Code: uniqueViolationCode, ConstraintName: periodOneOpenIndex}, period.ErrPeriodAlreadyOpen},
		{&pgconn.PgError{Code: foreignKeyViolationCode}, employee.ErrEmployeeNotFound},
		{&pgconn.PgError{Code: checkViolationCode, ConstraintName: periodDateRangeCheckName}, period.ErrInvalidDateRange},
		{pgx.ErrNoRows, period.ErrPeriodNotFound},
	}
	for _, tc := range cases {
		if got := translatePeriodPgError("op", tc.err); !errors.Is(got, tc.want) {
			t.Errorf("translatePeriodPgError(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"

	"github.com/ogurasousui/codex-staff-ledger/internal/core/access"
	"github.com/ogurasousui/codex-staff-ledger/internal/core/apperr"
)

func TestProfileRepository_FindByID(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(`FROM profiles`).
		WithArgs(testEmployeeID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "is_admin", "can_terminate", "created_at"}).AddRow(testEmployeeID, true, false, now))
	mock.ExpectQuery(`FROM profiles`).
		WithArgs(testEmployeeID).
		WillReturnError(pgx.ErrNoRows)

	repo := NewProfileRepository(mock)
	p, err := repo.FindByID(context.Background(), testEmployeeID)
	if err != nil {
		t.Fatalf("FindByID returned error: %v", err)
	}
	if !p.IsAdmin || p.CanTerminate {
		t.Fatalf("unexpected profile: %+v", p)
	}

	if _, err := repo.FindByID(context.Background(), testEmployeeID); !errors.Is(err, access.ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestProfileRepository_CreateReturnsExistingOnConflict(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(`(?s)INSERT INTO profiles.*ON CONFLICT \(id\) DO UPDATE`).
		WithArgs(testEmployeeID, false, false, now).
		WillReturnRows(pgxmock.NewRows([]string{"id", "is_admin", "can_terminate", "created_at"}).AddRow(testEmployeeID, true, true, now.Add(-time.Hour)))

	p, err := NewProfileRepository(mock).Create(context.Background(), &access.Profile{ID: testEmployeeID, CreatedAt: now})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if !p.IsAdmin || !p.CanTerminate {
		t.Fatalf("expected existing capabilities to be kept, got %+v", p)
	}
}

func TestEmployeeNoSequence_NextEmployeeNo(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT get_next_employee_no\(\)`).
		WillReturnRows(pgxmock.NewRows([]string{"get_next_employee_no"}).AddRow("MSD-42"))
	mock.ExpectQuery(`SELECT get_next_employee_no\(\)`).
		WillReturnRows(pgxmock.NewRows([]string{"get_next_employee_no"}).AddRow("42"))

	seq := NewEmployeeNoSequence(mock)
	next, err := seq.NextEmployeeNo(context.Background())
	if err != nil || next != "MSD-42" {
		t.Fatalf("expected MSD-42, got %q (%v)", next, err)
	}

	if _, err := seq.NextEmployeeNo(context.Background()); !errors.Is(err, apperr.ErrPersistence) {
		t.Fatalf("expected persistence error for malformed value, got %v", err)
	}
}

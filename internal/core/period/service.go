package period

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

// Service は在籍期間台帳のユースケースをまとめます。
type Service struct {
	repo  Repository
	clock Clock
	tx    TransactionManager
}

// NewService は Service を生成します。
func NewService(repo Repository, clock Clock, tx TransactionManager) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{repo: repo, clock: clock, tx: tx}
}

// OpenPeriodInput は期間開始時の入力です。
type OpenPeriodInput struct {
	EmployeeID string
	StartDate  time.Time
}

// ClosePeriodInput は期間終了時の入力です。
type ClosePeriodInput struct {
	PeriodID string
	EndDate  time.Time
	Closure  Closure
}

// OpenPeriod は新しい在籍期間を開始します。継続中の期間があれば ErrPeriodAlreadyOpen を返します。
func (s *Service) OpenPeriod(ctx context.Context, in OpenPeriodInput) (*Period, error) {
	employeeID, err := normalizeID(in.EmployeeID, ErrInvalidEmployeeID)
	if err != nil {
		return nil, err
	}
	if in.StartDate.IsZero() {
		return nil, fmt.Errorf("start_date: %w", ErrInvalidDate)
	}

	var opened *Period
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindOpenByEmployee(txCtx, employeeID)
		switch {
		case err == nil && existing != nil:
			return ErrPeriodAlreadyOpen
		case err != nil && !errors.Is(err, ErrPeriodNotFound):
			return err
		}

		created, err := s.repo.Create(txCtx, &Period{
			EmployeeID: employeeID,
			StartDate:  truncateDate(in.StartDate),
			CreatedAt:  s.clock.Now(),
		})
		if err != nil {
			return err
		}
		opened = created
		return nil
	}); err != nil {
		return nil, err
	}

	return opened, nil
}

// ClosePeriod は継続中の期間を終了します。
func (s *Service) ClosePeriod(ctx context.Context, in ClosePeriodInput) (*Period, error) {
	periodID, err := normalizeID(in.PeriodID, ErrInvalidID)
	if err != nil {
		return nil, err
	}
	if in.EndDate.IsZero() {
		return nil, fmt.Errorf("end_date: %w", ErrInvalidDate)
	}
	end := truncateDate(in.EndDate)

	var closed *Period
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		current, err := s.repo.FindByID(txCtx, periodID)
		if err != nil {
			return err
		}
		if !current.IsOpen() {
			return ErrPeriodNotFound
		}
		if end.Before(current.StartDate) {
			return ErrInvalidDateRange
		}

		result, err := s.repo.Close(txCtx, periodID, end, in.Closure)
		if err != nil {
			return err
		}
		closed = result
		return nil
	}); err != nil {
		return nil, err
	}

	return closed, nil
}

// CurrentOpenPeriod は継続中の期間を返します。存在しない場合は nil を返します。
func (s *Service) CurrentOpenPeriod(ctx context.Context, employeeID string) (*Period, error) {
	return s.findOptional(ctx, employeeID, s.repo.FindOpenByEmployee)
}

// MostRecentClosedPeriod は終了日が最も新しい終了済み期間を返します。存在しない場合は nil を返します。
func (s *Service) MostRecentClosedPeriod(ctx context.Context, employeeID string) (*Period, error) {
	return s.findOptional(ctx, employeeID, s.repo.FindLatestClosedByEmployee)
}

// ListForEmployee は社員の全期間を開始日の新しい順に返します。
func (s *Service) ListForEmployee(ctx context.Context, employeeID string) ([]*Period, error) {
	id, err := normalizeID(employeeID, ErrInvalidEmployeeID)
	if err != nil {
		return nil, err
	}

	var periods []*Period
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, err := s.repo.ListByEmployee(txCtx, id)
		if err != nil {
			return err
		}
		periods = result
		return nil
	}); err != nil {
		return nil, err
	}

	return periods, nil
}

func (s *Service) findOptional(ctx context.Context, employeeID string, find func(context.Context, string) (*Period, error)) (*Period, error) {
	id, err := normalizeID(employeeID, ErrInvalidEmployeeID)
	if err != nil {
		return nil, err
	}

	var found *Period
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, err := find(txCtx, id)
		if errors.Is(err, ErrPeriodNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = result
		return nil
	}); err != nil {
		return nil, err
	}

	return found, nil
}

func normalizeID(raw string, invalid error) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if _, err := uuid.Parse(trimmed); err != nil {
		return "", invalid
	}
	return trimmed, nil
}

func truncateDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

package period

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
)

type stubClock struct {
	now time.Time
}

func (s *stubClock) Now() time.Time {
	return s.now
}

type fakePeriodRepo struct {
	periods map[string]*Period
}

func newFakePeriodRepo() *fakePeriodRepo {
	return &fakePeriodRepo{periods: make(map[string]*Period)}
}

func (r *fakePeriodRepo) Create(_ context.Context, p *Period) (*Period, error) {
	for _, existing := range r.periods {
		if existing.EmployeeID == p.EmployeeID && existing.IsOpen() {
			return nil, ErrPeriodAlreadyOpen
		}
	}
	clone := clonePeriod(p)
	clone.ID = uuid.NewString()
	r.periods[clone.ID] = clone
	return clonePeriod(clone), nil
}

func (r *fakePeriodRepo) Close(_ context.Context, id string, end time.Time, closure Closure) (*Period, error) {
	p, ok := r.periods[id]
	if !ok || !p.IsOpen() {
		return nil, ErrPeriodNotFound
	}
	p.EndDate = &end
	c := closure
	p.Closure = &c
	return clonePeriod(p), nil
}

func (r *fakePeriodRepo) FindByID(_ context.Context, id string) (*Period, error) {
	p, ok := r.periods[id]
	if !ok {
		return nil, ErrPeriodNotFound
	}
	return clonePeriod(p), nil
}

func (r *fakePeriodRepo) FindOpenByEmployee(_ context.Context, employeeID string) (*Period, error) {
	for _, p := range r.periods {
		if p.EmployeeID == employeeID && p.IsOpen() {
			return clonePeriod(p), nil
		}
	}
	return nil, ErrPeriodNotFound
}

func (r *fakePeriodRepo) FindLatestClosedByEmployee(_ context.Context, employeeID string) (*Period, error) {
	var latest *Period
	for _, p := range r.periods {
		if p.EmployeeID != employeeID || p.IsOpen() {
			continue
		}
		if latest == nil || p.EndDate.After(*latest.EndDate) {
			latest = p
		}
	}
	if latest == nil {
		return nil, ErrPeriodNotFound
	}
	return clonePeriod(latest), nil
}

func (r *fakePeriodRepo) ListByEmployee(_ context.Context, employeeID string) ([]*Period, error) {
	var out []*Period
	for _, p := range r.periods {
		if p.EmployeeID == employeeID {
			out = append(out, clonePeriod(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	return out, nil
}

func clonePeriod(p *Period) *Period {
	if p == nil {
		return nil
	}
	copy := *p
	if p.EndDate != nil {
		end := *p.EndDate
		copy.EndDate = &end
	}
	if p.Closure != nil {
		c := *p.Closure
		copy.Closure = &c
	}
	return &copy
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestService_OpenPeriod_Success(t *testing.T) {
	t.Parallel()

	repo := newFakePeriodRepo()
	now := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	svc := NewService(repo, &stubClock{now: now}, nil)
	employeeID := uuid.NewString()

	opened, err := svc.OpenPeriod(context.Background(), OpenPeriodInput{
		EmployeeID: employeeID,
		StartDate:  time.Date(2023, 1, 10, 15, 30, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("OpenPeriod returned error: %v", err)
	}

	if !opened.StartDate.Equal(date(2023, 1, 10)) {
		t.Fatalf("expected start date truncated to day, got %v", opened.StartDate)
	}
	if !opened.IsOpen() {
		t.Fatal("expected period to be open")
	}
	if !opened.CreatedAt.Equal(now) {
		t.Fatalf("expected created_at from clock, got %v", opened.CreatedAt)
	}
}

func TestService_OpenPeriod_AlreadyOpen(t *testing.T) {
	t.Parallel()

	repo := newFakePeriodRepo()
	svc := NewService(repo, &stubClock{now: time.Now().UTC()}, nil)
	employeeID := uuid.NewString()

	if _, err := svc.OpenPeriod(context.Background(), OpenPeriodInput{EmployeeID: employeeID, StartDate: date(2023, 1, 10)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := svc.OpenPeriod(context.Background(), OpenPeriodInput{EmployeeID: employeeID, StartDate: date(2024, 1, 10)})
	if !errors.Is(err, ErrPeriodAlreadyOpen) {
		t.Fatalf("expected ErrPeriodAlreadyOpen, got %v", err)
	}

	periods, _ := repo.ListByEmployee(context.Background(), employeeID)
	if len(periods) != 1 {
		t.Fatalf("expected exactly one period, got %d", len(periods))
	}
}

func TestService_OpenPeriod_InvalidInput(t *testing.T) {
	t.Parallel()

	svc := NewService(newFakePeriodRepo(), nil, nil)

	if _, err := svc.OpenPeriod(context.Background(), OpenPeriodInput{EmployeeID: "not-a-uuid", StartDate: date(2024, 1, 1)}); !errors.Is(err, ErrInvalidEmployeeID) {
		t.Fatalf("expected ErrInvalidEmployeeID, got %v", err)
	}
	if _, err := svc.OpenPeriod(context.Background(), OpenPeriodInput{EmployeeID: uuid.NewString()}); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestService_ClosePeriod(t *testing.T) {
	t.Parallel()

	repo := newFakePeriodRepo()
	svc := NewService(repo, &stubClock{now: time.Now().UTC()}, nil)
	employeeID := uuid.NewString()

	opened, err := svc.OpenPeriod(context.Background(), OpenPeriodInput{EmployeeID: employeeID, StartDate: date(2023, 1, 10)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.ClosePeriod(context.Background(), ClosePeriodInput{PeriodID: opened.ID, EndDate: date(2022, 12, 31)}); !errors.Is(err, ErrInvalidDateRange) {
		t.Fatalf("expected ErrInvalidDateRange, got %v", err)
	}

	reason := "relocation"
	days := 30
	closed, err := svc.ClosePeriod(context.Background(), ClosePeriodInput{
		PeriodID: opened.ID,
		EndDate:  date(2024, 6, 5),
		Closure:  Closure{SeparationType: "RESIGNED", SeparationReason: &reason, NoticeDays: &days},
	})
	if err != nil {
		t.Fatalf("ClosePeriod returned error: %v", err)
	}
	if closed.EndDate == nil || !closed.EndDate.Equal(date(2024, 6, 5)) {
		t.Fatalf("unexpected end date: %v", closed.EndDate)
	}
	if closed.Closure == nil || closed.Closure.SeparationType != "RESIGNED" || *closed.Closure.NoticeDays != 30 {
		t.Fatalf("unexpected closure: %+v", closed.Closure)
	}

	if _, err := svc.ClosePeriod(context.Background(), ClosePeriodInput{PeriodID: opened.ID, EndDate: date(2024, 7, 1)}); !errors.Is(err, ErrPeriodNotFound) {
		t.Fatalf("expected ErrPeriodNotFound for already closed period, got %v", err)
	}
	if _, err := svc.ClosePeriod(context.Background(), ClosePeriodInput{PeriodID: uuid.NewString(), EndDate: date(2024, 7, 1)}); !errors.Is(err, ErrPeriodNotFound) {
		t.Fatalf("expected ErrPeriodNotFound for unknown id, got %v", err)
	}
}

func TestService_CurrentAndMostRecentClosed(t *testing.T) {
	t.Parallel()

	repo := newFakePeriodRepo()
	svc := NewService(repo, &stubClock{now: time.Now().UTC()}, nil)
	employeeID := uuid.NewString()
	ctx := context.Background()

	current, err := svc.CurrentOpenPeriod(ctx, employeeID)
	if err != nil || current != nil {
		t.Fatalf("expected no open period, got %+v err=%v", current, err)
	}
	closedPeriod, err := svc.MostRecentClosedPeriod(ctx, employeeID)
	if err != nil || closedPeriod != nil {
		t.Fatalf("expected no closed period, got %+v err=%v", closedPeriod, err)
	}

	first, _ := svc.OpenPeriod(ctx, OpenPeriodInput{EmployeeID: employeeID, StartDate: date(2020, 1, 1)})
	if _, err := svc.ClosePeriod(ctx, ClosePeriodInput{PeriodID: first.ID, EndDate: date(2021, 1, 1)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, _ := svc.OpenPeriod(ctx, OpenPeriodInput{EmployeeID: employeeID, StartDate: date(2022, 1, 1)})
	if _, err := svc.ClosePeriod(ctx, ClosePeriodInput{PeriodID: second.ID, EndDate: date(2023, 1, 1)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	third, _ := svc.OpenPeriod(ctx, OpenPeriodInput{EmployeeID: employeeID, StartDate: date(2024, 1, 1)})

	current, err = svc.CurrentOpenPeriod(ctx, employeeID)
	if err != nil || current == nil || current.ID != third.ID {
		t.Fatalf("expected third period to be open, got %+v err=%v", current, err)
	}

	latest, err := svc.MostRecentClosedPeriod(ctx, employeeID)
	if err != nil || latest == nil || latest.ID != second.ID {
		t.Fatalf("expected second period as latest closed, got %+v err=%v", latest, err)
	}

	all, err := svc.ListForEmployee(ctx, employeeID)
	if err != nil {
		t.Fatalf("ListForEmployee returned error: %v", err)
	}
	if len(all) != 3 || all[0].ID != third.ID {
		t.Fatalf("unexpected list order: %+v", all)
	}
}

package history

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ogurasousui/codex-staff-ledger/internal/core/employee"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// Service は状態履歴のユースケースをまとめます。
type Service struct {
	repo  Repository
	clock Clock
}

// NewService は Service を生成します。
func NewService(repo Repository, clock Clock) *Service {
	if clock == nil {
		clock = realClock{}
	}
	return &Service{repo: repo, clock: clock}
}

// AppendInput は履歴追記時の入力です。
type AppendInput struct {
	EmployeeID string
	OldStatus  employee.Status
	NewStatus  employee.Status
	ChangedBy  string
	Note       string
	Separation *Snapshot
}

// Append は履歴を一件追記します。changed_at はサーバー時刻です。
func (s *Service) Append(ctx context.Context, in AppendInput) (*Entry, error) {
	employeeID := strings.TrimSpace(in.EmployeeID)
	if _, err := uuid.Parse(employeeID); err != nil {
		return nil, ErrInvalidEmployeeID
	}
	if !in.OldStatus.Valid() || !in.NewStatus.Valid() {
		return nil, ErrInvalidStatus
	}

	entry := &Entry{
		EmployeeID: employeeID,
		OldStatus:  in.OldStatus,
		NewStatus:  in.NewStatus,
		ChangedAt:  s.clock.Now(),
		ChangedBy:  optionalString(in.ChangedBy),
		Note:       optionalString(in.Note),
	}
	if in.Separation != nil {
		snapshot := *in.Separation
		entry.Separation = &snapshot
	}

	return s.repo.Append(ctx, entry)
}

// ListForEmployee は社員の履歴を新しい順に返します。
func (s *Service) ListForEmployee(ctx context.Context, employeeID string) ([]*Entry, error) {
	id := strings.TrimSpace(employeeID)
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrInvalidEmployeeID
	}
	return s.repo.ListByEmployee(ctx, id)
}

// LatestSeparation は新しい順で最初に見つかった退職関連の履歴を返します。存在しない場合は nil です。
func LatestSeparation(entries []*Entry) *Entry {
	for _, e := range entries {
		if e.IsSeparation() {
			return e
		}
	}
	return nil
}

func optionalString(v string) *string {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

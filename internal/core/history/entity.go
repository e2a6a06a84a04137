package history

import (
	"time"

	"github.com/ogurasousui/codex-staff-ledger/internal/core/employee"
)

// Snapshot は退職時の詳細情報の写しです。
type Snapshot struct {
	SeparationDate        *time.Time
	FinalWorkingDay       *time.Time
	Reason                *string
	EligibleForRehire     *bool
	NoticeGiven           *bool
	NoticeDaysServed      *int
	ExitInterviewDone     bool
	ClearanceDone         bool
	ClearanceAmount       *float64
	ClearanceChequeNumber *string
}

// Entry は状態遷移の監査記録です。作成後に変更されることはありません。
type Entry struct {
	ID         string
	EmployeeID string
	OldStatus  employee.Status
	NewStatus  employee.Status
	ChangedAt  time.Time
	ChangedBy  *string
	Note       *string
	Separation *Snapshot
}

// IsSeparation は退職に関わる記録かを返します。
func (e *Entry) IsSeparation() bool {
	if e == nil {
		return false
	}
	if e.NewStatus.IsSeparated() {
		return true
	}
	return e.Separation != nil && e.Separation.ClearanceDone
}

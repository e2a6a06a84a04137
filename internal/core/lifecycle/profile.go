package lifecycle

import (
	"context"
	"time"

	"github.com/ogurasousui/codex-staff-ledger/internal/core/access"
	"github.com/ogurasousui/codex-staff-ledger/internal/core/employee"
	"github.com/ogurasousui/codex-staff-ledger/internal/core/history"
	"github.com/ogurasousui/codex-staff-ledger/internal/core/period"
)

// SeparationSummary は表示用の退職情報です。
// 各値は最新の退職履歴、直近の終了済み期間、社員レコードの順に補完されます。
type SeparationSummary struct {
	Entry             *history.Entry
	Reason            *string
	EligibleForRehire *bool
	NoticeDaysServed  *int
}

// Profile は社員詳細画面向けの読み取りモデルです。
type Profile struct {
	Employee         *employee.Employee
	Age              int
	History          []*history.Entry
	OpenPeriod       *period.Period
	LastClosedPeriod *period.Period
	Separation       SeparationSummary
	EffectiveDate    time.Time
	Actions          []employee.Status
}

// Profile は社員の現況、履歴、在籍期間、退職情報を集約して返します。
func (e *Engine) Profile(ctx context.Context, employeeID string, principal access.Principal) (*Profile, error) {
	id, err := normalizeEmployeeID(employeeID)
	if err != nil {
		return nil, err
	}

	var out *Profile
	if err := e.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		emp, err := e.employees.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		entries, err := e.history.ListForEmployee(txCtx, id)
		if err != nil {
			return err
		}
		open, err := e.periods.CurrentOpenPeriod(txCtx, id)
		if err != nil {
			return err
		}
		closed, err := e.periods.MostRecentClosedPeriod(txCtx, id)
		if err != nil {
			return err
		}

		effective := emp.HireDate
		if open != nil {
			effective = open.StartDate
		}

		out = &Profile{
			Employee:         emp,
			Age:              emp.Age(e.clock.Now()),
			History:          entries,
			OpenPeriod:       open,
			LastClosedPeriod: closed,
			Separation:       summarizeSeparation(emp, history.LatestSeparation(entries), closed),
			EffectiveDate:    effective,
			Actions:          AvailableTransitions(emp.Status, principal),
		}
		return nil
	}); err != nil {
		return nil, err
	}

	return out, nil
}

func summarizeSeparation(emp *employee.Employee, entry *history.Entry, closed *period.Period) SeparationSummary {
	summary := SeparationSummary{Entry: entry}

	if entry != nil && entry.Separation != nil {
		summary.Reason = entry.Separation.Reason
		summary.EligibleForRehire = entry.Separation.EligibleForRehire
		summary.NoticeDaysServed = entry.Separation.NoticeDaysServed
	}
	if closed != nil && closed.Closure != nil {
		if summary.Reason == nil {
			summary.Reason = closed.Closure.SeparationReason
		}
		if summary.EligibleForRehire == nil {
			summary.EligibleForRehire = closed.Closure.EligibleForRehire
		}
		if summary.NoticeDaysServed == nil {
			summary.NoticeDaysServed = closed.Closure.NoticeDays
		}
	}
	if summary.Reason == nil {
		summary.Reason = emp.Separation.Reason
	}
	if summary.EligibleForRehire == nil {
		summary.EligibleForRehire = emp.Separation.EligibleForRehire
	}
	if summary.NoticeDaysServed == nil {
		summary.NoticeDaysServed = emp.Separation.NoticeDaysServed
	}
	return summary
}

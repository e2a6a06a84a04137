package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ogurasousui/codex-staff-ledger/internal/core/access"
	"github.com/ogurasousui/codex-staff-ledger/internal/core/employee"
	"github.com/ogurasousui/codex-staff-ledger/internal/core/history"
	"github.com/ogurasousui/codex-staff-ledger/internal/core/period"
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

// EmployeeStore は状態遷移で利用する社員ストアです。
type EmployeeStore interface {
	FindByID(ctx context.Context, id string) (*employee.Employee, error)
	FindByIDForUpdate(ctx context.Context, id string) (*employee.Employee, error)
	UpdateStatus(ctx context.Context, in employee.StatusUpdate) (*employee.Employee, error)
}

// PeriodLedger は在籍期間台帳です。
type PeriodLedger interface {
	OpenPeriod(ctx context.Context, in period.OpenPeriodInput) (*period.Period, error)
	ClosePeriod(ctx context.Context, in period.ClosePeriodInput) (*period.Period, error)
	CurrentOpenPeriod(ctx context.Context, employeeID string) (*period.Period, error)
	MostRecentClosedPeriod(ctx context.Context, employeeID string) (*period.Period, error)
}

// HistoryLog は状態履歴です。
type HistoryLog interface {
	Append(ctx context.Context, in history.AppendInput) (*history.Entry, error)
	ListForEmployee(ctx context.Context, employeeID string) ([]*history.Entry, error)
}

var transitions = map[employee.Status][]employee.Status{
	employee.StatusActive:     {employee.StatusOnHold, employee.StatusResigned, employee.StatusTerminated},
	employee.StatusOnHold:     {employee.StatusActive, employee.StatusTerminated},
	employee.StatusResigned:   {employee.StatusActive},
	employee.StatusTerminated: {employee.StatusActive},
}

// CanTransition は from から to への遷移が許可されているかを返します。
func CanTransition(from, to employee.Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// AvailableTransitions は principal が from から実行可能な遷移先を返します。
func AvailableTransitions(from employee.Status, principal access.Principal) []employee.Status {
	out := make([]employee.Status, 0, len(transitions[from]))
	for _, next := range transitions[from] {
		if requiresTerminateCapability(next) && !principal.CanTerminate {
			continue
		}
		out = append(out, next)
	}
	return out
}

func requiresTerminateCapability(target employee.Status) bool {
	return target == employee.StatusTerminated
}

// Engine は社員の状態遷移を検証し、社員・在籍期間・履歴を一体として更新します。
type Engine struct {
	employees EmployeeStore
	periods   PeriodLedger
	history   HistoryLog
	clock     Clock
	tx        TransactionManager
	logger    logrus.FieldLogger
	loc       *time.Location
}

// EngineOption は Engine の任意設定です。
type EngineOption func(*Engine)

// WithLocation は新しい在籍期間の開始日など「今日」を判定するタイムゾーンを設定します。
// 既定は UTC です。
func WithLocation(loc *time.Location) EngineOption {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// NewEngine は Engine を生成します。
func NewEngine(employees EmployeeStore, periods PeriodLedger, history HistoryLog, clock Clock, tx TransactionManager, logger logrus.FieldLogger, opts ...EngineOption) *Engine {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	e := &Engine{employees: employees, periods: periods, history: history, clock: clock, tx: tx, logger: logger, loc: time.UTC}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ChangeStatusInput は単純遷移 (ACTIVE と ON_HOLD の往来、再雇用) の入力です。
type ChangeStatusInput struct {
	EmployeeID     string
	Target         string
	ExpectedStatus string
	Note           string
	Principal      access.Principal
}

// TransitionResult は単純遷移の結果です。
type TransitionResult struct {
	Employee     *employee.Employee
	From         employee.Status
	To           employee.Status
	OpenedPeriod *period.Period
	History      *history.Entry
}

// ChangeStatus は退職を伴わない状態遷移を適用します。
// 退職状態への遷移は SeparationWorkflow を経由する必要があります。
func (e *Engine) ChangeStatus(ctx context.Context, in ChangeStatusInput) (*TransitionResult, error) {
	employeeID, err := normalizeEmployeeID(in.EmployeeID)
	if err != nil {
		return nil, err
	}
	target, err := parseStatus(in.Target)
	if err != nil {
		return nil, err
	}
	expected, err := parseExpected(in.ExpectedStatus)
	if err != nil {
		return nil, err
	}
	if requiresTerminateCapability(target) && !in.Principal.CanTerminate {
		return nil, ErrPermissionDenied
	}
	if target.IsSeparated() {
		return nil, fmt.Errorf("%w: %s requires a separation", ErrInvalidTransition, target)
	}

	var result *TransitionResult
	if err := e.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		current, err := e.lockForTransition(txCtx, employeeID, expected, target)
		if err != nil {
			return err
		}

		updated, err := e.employees.UpdateStatus(txCtx, employee.StatusUpdate{
			ID:        employeeID,
			From:      current.Status,
			To:        target,
			UpdatedAt: e.clock.Now(),
		})
		if err != nil {
			return translateUpdateError(err)
		}

		res := &TransitionResult{Employee: updated, From: current.Status, To: target}

		if target == employee.StatusActive {
			open, err := e.periods.CurrentOpenPeriod(txCtx, employeeID)
			if err != nil {
				return err
			}
			if open == nil {
				opened, err := e.periods.OpenPeriod(txCtx, period.OpenPeriodInput{EmployeeID: employeeID, StartDate: e.today()})
				if err != nil {
					return err
				}
				res.OpenedPeriod = opened
			}
		}

		entry, err := e.history.Append(txCtx, history.AppendInput{
			EmployeeID: employeeID,
			OldStatus:  current.Status,
			NewStatus:  target,
			ChangedBy:  in.Principal.UserID,
			Note:       in.Note,
		})
		if err != nil {
			return err
		}
		res.History = entry

		result = res
		return nil
	}); err != nil {
		return nil, err
	}

	fields := logrus.Fields{
		"employee_id": employeeID,
		"from":        result.From,
		"to":          result.To,
	}
	if result.OpenedPeriod != nil {
		fields["opened_period_id"] = result.OpenedPeriod.ID
	}
	e.logger.WithFields(fields).Info("employee status changed")

	return result, nil
}

// ApplySeparationInput は検証済みの退職情報を適用する際の入力です。
type ApplySeparationInput struct {
	EmployeeID     string
	ExpectedStatus employee.Status
	Target         employee.Status
	Payload        Payload
	Note           string
	Principal      access.Principal
}

// SeparationResult は退職処理の結果です。
// NoOpenPeriod は継続中の在籍期間が無く期間の終了が行われなかったことを示します。
type SeparationResult struct {
	Employee     *employee.Employee
	From         employee.Status
	EndDate      time.Time
	ClosedPeriod *period.Period
	NoOpenPeriod bool
	History      *history.Entry
}

// ApplySeparation は社員の更新、継続中期間の終了、詳細履歴の追記を単一のトランザクションで行います。
// 入力は呼び出し側で検証済みであることを前提とします。
func (e *Engine) ApplySeparation(ctx context.Context, in ApplySeparationInput) (*SeparationResult, error) {
	employeeID, err := normalizeEmployeeID(in.EmployeeID)
	if err != nil {
		return nil, err
	}
	if !in.Target.IsSeparated() {
		return nil, ErrInvalidTransition
	}

	sep := in.Payload.employeeSeparation(in.Target)
	snapshot := in.Payload.snapshot()

	var (
		result    *SeparationResult
		requested time.Time
	)
	if err := e.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		current, err := e.lockForTransition(txCtx, employeeID, in.ExpectedStatus, in.Target)
		if err != nil {
			return err
		}

		updated, err := e.employees.UpdateStatus(txCtx, employee.StatusUpdate{
			ID:         employeeID,
			From:       current.Status,
			To:         in.Target,
			Separation: sep,
			UpdatedAt:  e.clock.Now(),
		})
		if err != nil {
			if errors.Is(err, employee.ErrStatusChanged) {
				return translateUpdateError(err)
			}
			return stepError(StepUpdateEmployee, err)
		}

		res := &SeparationResult{Employee: updated, From: current.Status, EndDate: in.Payload.effectiveEndDate(e.today())}

		open, err := e.periods.CurrentOpenPeriod(txCtx, employeeID)
		if err != nil {
			return stepError(StepFindOpenPeriod, err)
		}
		if open == nil {
			res.NoOpenPeriod = true
		} else {
			// 期間は開始日より前に終了できないため、遡った終了日は開始日に揃えます。
			if start := truncateDate(open.StartDate); res.EndDate.Before(start) {
				requested = res.EndDate
				res.EndDate = start
			}
			closed, err := e.periods.ClosePeriod(txCtx, period.ClosePeriodInput{
				PeriodID: open.ID,
				EndDate:  res.EndDate,
				Closure: period.Closure{
					SeparationType:    string(in.Target),
					SeparationReason:  sep.Reason,
					EligibleForRehire: sep.EligibleForRehire,
					NoticeDays:        sep.NoticeDaysServed,
				},
			})
			if err != nil {
				return stepError(StepClosePeriod, err)
			}
			res.ClosedPeriod = closed
		}

		entry, err := e.history.Append(txCtx, history.AppendInput{
			EmployeeID: employeeID,
			OldStatus:  current.Status,
			NewStatus:  in.Target,
			ChangedBy:  in.Principal.UserID,
			Note:       in.Note,
			Separation: &snapshot,
		})
		if err != nil {
			return stepError(StepAppendHistory, err)
		}
		res.History = entry

		result = res
		return nil
	}); err != nil {
		return nil, err
	}

	log := e.logger.WithFields(logrus.Fields{
		"employee_id": employeeID,
		"from":        result.From,
		"to":          in.Target,
		"end_date":    result.EndDate.Format(time.DateOnly),
	})
	if !requested.IsZero() {
		log.WithField("requested_end_date", requested.Format(time.DateOnly)).
			Warn("separation end date precedes the open period start; clamped to start date")
	}
	if result.NoOpenPeriod {
		log.Warn("separation applied without an open employment period")
	} else {
		log.WithField("period_id", result.ClosedPeriod.ID).Info("separation applied")
	}

	return result, nil
}

func (e *Engine) lockForTransition(ctx context.Context, employeeID string, expected, target employee.Status) (*employee.Employee, error) {
	current, err := e.employees.FindByIDForUpdate(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if expected != "" && current.Status != expected {
		return nil, fmt.Errorf("%w: expected %s, found %s", ErrConcurrentModification, expected, current.Status)
	}
	if !CanTransition(current.Status, target) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, current.Status, target)
	}
	return current, nil
}

func (e *Engine) today() time.Time {
	now := e.clock.Now().In(e.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func translateUpdateError(err error) error {
	if errors.Is(err, employee.ErrStatusChanged) {
		return ErrConcurrentModification
	}
	return err
}

func parseStatus(raw string) (employee.Status, error) {
	s, err := employee.ParseStatus(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return s, nil
}

func parseExpected(raw string) (employee.Status, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	return parseStatus(raw)
}

func normalizeEmployeeID(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if _, err := uuid.Parse(trimmed); err != nil {
		return "", fmt.Errorf("id: %w", employee.ErrInvalidID)
	}
	return trimmed, nil
}

package lifecycle

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ogurasousui/codex-staff-ledger/internal/core/access"
	"github.com/ogurasousui/codex-staff-ledger/internal/core/employee"
	"github.com/ogurasousui/codex-staff-ledger/internal/core/history"
)

// Payload は退職時に収集する情報です。
type Payload struct {
	SeparationType        string
	SeparationDate        *time.Time
	SeparationReason      string
	FinalWorkingDay       *time.Time
	EligibleForRehire     *bool
	NoticeGiven           *bool
	NoticeDaysServed      *int
	ExitInterviewDone     bool
	ClearanceDone         bool
	ClearanceAmount       *float64
	ClearanceChequeNumber string
}

// Validate は書き込み前の検証を行います。
// separation_date の欠落、精算情報の不足、通知日数の不正の順に判定します。
func (p Payload) Validate() error {
	if p.SeparationDate == nil || p.SeparationDate.IsZero() {
		return fmt.Errorf("%w: separation_date", ErrMissingField)
	}
	if p.ClearanceDone {
		if err := validateClearance(p.ClearanceAmount, p.ClearanceChequeNumber); err != nil {
			return err
		}
	}
	if p.NoticeDaysServed != nil && *p.NoticeDaysServed < 0 {
		return fmt.Errorf("%w: notice_days_served must not be negative", ErrInvalidField)
	}
	return nil
}

func validateClearance(amount *float64, cheque string) error {
	if amount == nil || math.IsNaN(*amount) || math.IsInf(*amount, 0) {
		return fmt.Errorf("%w: clearance_amount is required", ErrIncompleteClearance)
	}
	if *amount < 0 {
		return fmt.Errorf("%w: clearance_amount must not be negative", ErrIncompleteClearance)
	}
	if strings.TrimSpace(cheque) == "" {
		return fmt.Errorf("%w: clearance_cheque_number is required", ErrIncompleteClearance)
	}
	return nil
}

func (p Payload) effectiveEndDate(today time.Time) time.Time {
	switch {
	case p.FinalWorkingDay != nil && !p.FinalWorkingDay.IsZero():
		return truncateDate(*p.FinalWorkingDay)
	case p.SeparationDate != nil && !p.SeparationDate.IsZero():
		return truncateDate(*p.SeparationDate)
	default:
		return today
	}
}

func (p Payload) employeeSeparation(target employee.Status) employee.Separation {
	sep := employee.Separation{
		Type:              target,
		Date:              datePtr(p.SeparationDate),
		Reason:            optionalString(p.SeparationReason),
		FinalWorkingDay:   datePtr(p.FinalWorkingDay),
		EligibleForRehire: cloneBool(p.EligibleForRehire),
		NoticeGiven:       cloneBool(p.NoticeGiven),
		NoticeDaysServed:  cloneInt(p.NoticeDaysServed),
		ExitInterviewDone: p.ExitInterviewDone,
		ClearanceDone:     p.ClearanceDone,
	}
	if p.ClearanceDone {
		sep.ClearanceAmount = cloneFloat(p.ClearanceAmount)
		sep.ClearanceChequeNumber = optionalString(p.ClearanceChequeNumber)
	}
	return sep
}

func (p Payload) snapshot() history.Snapshot {
	s := history.Snapshot{
		SeparationDate:    datePtr(p.SeparationDate),
		FinalWorkingDay:   datePtr(p.FinalWorkingDay),
		Reason:            optionalString(p.SeparationReason),
		EligibleForRehire: cloneBool(p.EligibleForRehire),
		NoticeGiven:       cloneBool(p.NoticeGiven),
		NoticeDaysServed:  cloneInt(p.NoticeDaysServed),
		ExitInterviewDone: p.ExitInterviewDone,
		ClearanceDone:     p.ClearanceDone,
	}
	if p.ClearanceDone {
		s.ClearanceAmount = cloneFloat(p.ClearanceAmount)
		s.ClearanceChequeNumber = optionalString(p.ClearanceChequeNumber)
	}
	return s
}

// Draft は入力途中の退職情報です。精算の確認は他の入力を保持したまま取り消せます。
type Draft struct {
	payload Payload
}

// NewDraft は target 向けの Draft を生成します。
func NewDraft(target employee.Status) *Draft {
	return &Draft{payload: Payload{SeparationType: string(target)}}
}

// Update は精算以外の入力を差し替えます。精算の状態は維持されます。
func (d *Draft) Update(p Payload) {
	p.SeparationType = d.payload.SeparationType
	p.ClearanceDone = d.payload.ClearanceDone
	p.ClearanceAmount = d.payload.ClearanceAmount
	p.ClearanceChequeNumber = d.payload.ClearanceChequeNumber
	d.payload = p
}

// ConfirmClearance は精算額と小切手番号を確定します。不足があれば Draft は変更されません。
func (d *Draft) ConfirmClearance(amount float64, chequeNumber string) error {
	if err := validateClearance(&amount, chequeNumber); err != nil {
		return err
	}
	d.payload.ClearanceDone = true
	d.payload.ClearanceAmount = &amount
	d.payload.ClearanceChequeNumber = strings.TrimSpace(chequeNumber)
	return nil
}

// CancelClearance は精算の確認を取り消し、clearance_done を false に戻します。
func (d *Draft) CancelClearance() {
	d.payload.ClearanceDone = false
	d.payload.ClearanceAmount = nil
	d.payload.ClearanceChequeNumber = ""
}

// Payload は現在の入力内容を返します。
func (d *Draft) Payload() Payload {
	return d.payload
}

// SeparationWorkflow は退職情報を検証し、StatusTransitionEngine に適用を委ねます。
type SeparationWorkflow struct {
	engine *Engine
}

// NewSeparationWorkflow は SeparationWorkflow を生成します。
func NewSeparationWorkflow(engine *Engine) *SeparationWorkflow {
	return &SeparationWorkflow{engine: engine}
}

// SeparateInput は退職処理の入力です。
type SeparateInput struct {
	EmployeeID     string
	ExpectedStatus string
	Payload        Payload
	Note           string
	Principal      access.Principal
}

// Separate は ACTIVE / ON_HOLD から RESIGNED / TERMINATED への遷移を行います。
// 検証エラーは書き込み前に返却されます。
func (w *SeparationWorkflow) Separate(ctx context.Context, in SeparateInput) (*SeparationResult, error) {
	employeeID, err := normalizeEmployeeID(in.EmployeeID)
	if err != nil {
		return nil, err
	}
	target, err := parseStatus(in.Payload.SeparationType)
	if err != nil {
		return nil, err
	}
	if !target.IsSeparated() {
		return nil, fmt.Errorf("%w: %s is not a separation", ErrInvalidTransition, target)
	}
	expected, err := parseExpected(in.ExpectedStatus)
	if err != nil {
		return nil, err
	}
	if requiresTerminateCapability(target) && !in.Principal.CanTerminate {
		return nil, ErrPermissionDenied
	}
	if err := in.Payload.Validate(); err != nil {
		return nil, err
	}

	return w.engine.ApplySeparation(ctx, ApplySeparationInput{
		EmployeeID:     employeeID,
		ExpectedStatus: expected,
		Target:         target,
		Payload:        in.Payload,
		Note:           in.Note,
		Principal:      in.Principal,
	})
}

func truncateDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func datePtr(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	d := truncateDate(*t)
	return &d
}

func optionalString(v string) *string {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func cloneBool(v *bool) *bool {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

package lifecycle

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidStatus          = errors.New("lifecycle: invalid status")
	ErrInvalidTransition      = errors.New("lifecycle: invalid transition")
	ErrPermissionDenied       = errors.New("lifecycle: permission denied")
	ErrMissingField           = errors.New("lifecycle: missing field")
	ErrIncompleteClearance    = errors.New("lifecycle: incomplete clearance")
	ErrInvalidField           = errors.New("lifecycle: invalid field")
	ErrConcurrentModification = errors.New("lifecycle: concurrent modification")
)

// Step は退職処理の各段階を表します。
type Step string

const (
	StepUpdateEmployee Step = "update_employee"
	StepFindOpenPeriod Step = "find_open_period"
	StepClosePeriod    Step = "close_period"
	StepAppendHistory  Step = "append_history"
)

// StepError は退職処理のどの段階で失敗したかを保持します。
// 退職処理は単一トランザクションで実行されるため、StepError が返った時点で先行段階も取り消されています。
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("lifecycle: separation step %s failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func stepError(step Step, err error) error {
	if err == nil {
		return nil
	}
	return &StepError{Step: step, Err: err}
}

package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrPersistence は永続化層の汎用的な失敗を表します。
	ErrPersistence = errors.New("apperr: persistence failure")
	// ErrLockTimeout は行ロックの待ち時間が上限を超えたことを表します。
	ErrLockTimeout = errors.New("apperr: lock wait timed out")
)

// PersistenceError は永続化層の失敗を操作名とともに保持します。
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("apperr: persistence failure during %s", e.Op)
	}
	return fmt.Sprintf("apperr: persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Is は ErrPersistence との比較を可能にします。
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

// Persistence は err を PersistenceError で包みます。nil の場合は nil を返します。
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

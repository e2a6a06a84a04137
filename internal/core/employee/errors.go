package employee

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidID           = errors.New("employee: invalid id")
	ErrInvalidEmployeeNo   = errors.New("employee: invalid employee number")
	ErrInvalidFullName     = errors.New("employee: invalid full name")
	ErrInvalidDate         = errors.New("employee: invalid date")
	ErrInvalidStatus       = errors.New("employee: invalid status")
	ErrInvalidContractType = errors.New("employee: invalid contract type")
	ErrInvalidNoticePeriod = errors.New("employee: invalid notice period")
	ErrInvalidSort         = errors.New("employee: invalid sort")
	ErrEmployeeNotFound    = errors.New("employee: not found")
	ErrDuplicateIdentifier = errors.New("employee: duplicate identifier")
	ErrStatusChanged       = errors.New("employee: status changed concurrently")
)

// DuplicateIdentifierError は一意制約に違反した識別子を示します。
type DuplicateIdentifierError struct {
	Field IdentifierField
}

func (e *DuplicateIdentifierError) Error() string {
	return fmt.Sprintf("employee: duplicate identifier %s", e.Field)
}

// Is は ErrDuplicateIdentifier との比較を可能にします。
func (e *DuplicateIdentifierError) Is(target error) bool {
	return target == ErrDuplicateIdentifier
}

// NewDuplicateIdentifierError は DuplicateIdentifierError を生成します。
func NewDuplicateIdentifierError(field IdentifierField) error {
	return &DuplicateIdentifierError{Field: field}
}

package history

import "errors"

var (
	ErrInvalidEmployeeID = errors.New("history: invalid employee id")
	ErrInvalidStatus     = errors.New("history: invalid status")
)

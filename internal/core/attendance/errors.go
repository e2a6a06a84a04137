package attendance

import "errors"

var (
	ErrInvalidEmployeeID = errors.New("attendance: invalid employee id")
	ErrInvalidStatus     = errors.New("attendance: invalid status")
	ErrInvalidDay        = errors.New("attendance: invalid day")
	ErrInvalidMonth      = errors.New("attendance: invalid month")
	ErrInvalidTime       = errors.New("attendance: invalid start time")
	ErrInvalidRange      = errors.New("attendance: invalid range")
)

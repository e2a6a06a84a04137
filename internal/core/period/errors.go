package period

import "errors"

var (
	ErrInvalidID         = errors.New("period: invalid id")
	ErrInvalidEmployeeID = errors.New("period: invalid employee id")
	ErrInvalidDate       = errors.New("period: invalid date")
	ErrInvalidDateRange  = errors.New("period: end date precedes start date")
	ErrPeriodAlreadyOpen = errors.New("period: an open period already exists")
	ErrPeriodNotFound    = errors.New("period: not found")
)

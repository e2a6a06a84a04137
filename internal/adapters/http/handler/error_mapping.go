package handler

import (
	"errors"
	"net/http"

	"github.com/ogurasousui/codex-staff-ledger/internal/core/access"
	"github.com/ogurasousui/codex-staff-ledger/internal/core/apperr"
	"github.com/ogurasousui/codex-staff-ledger/internal/core/attendance"
	"github.com/ogurasousui/codex-staff-ledger/internal/core/employee"
	"github.com/ogurasousui/codex-staff-ledger/internal/core/history"
	"github.com/ogurasousui/codex-staff-ledger/internal/core/lifecycle"
	"github.com/ogurasousui/codex-staff-ledger/internal/core/period"
)

func toProblem(err error) Problem {
	switch {
	case errors.Is(err, errInvalidBody),
		errors.Is(err, employee.ErrInvalidID),
		errors.Is(err, employee.ErrInvalidEmployeeNo),
		errors.Is(err, employee.ErrInvalidFullName),
		errors.Is(err, employee.ErrInvalidDate),
		errors.Is(err, employee.ErrInvalidStatus),
		errors.Is(err, employee.ErrInvalidContractType),
		errors.Is(err, employee.ErrInvalidNoticePeriod),
		errors.Is(err, employee.ErrInvalidSort),
		errors.Is(err, lifecycle.ErrInvalidStatus),
		errors.Is(err, period.ErrInvalidID),
		errors.Is(err, period.ErrInvalidEmployeeID),
		errors.Is(err, period.ErrInvalidDate),
		errors.Is(err, period.ErrInvalidDateRange),
		errors.Is(err, history.ErrInvalidEmployeeID),
		errors.Is(err, history.ErrInvalidStatus),
		errors.Is(err, attendance.ErrInvalidEmployeeID),
		errors.Is(err, attendance.ErrInvalidStatus),
		errors.Is(err, attendance.ErrInvalidDay),
		errors.Is(err, attendance.ErrInvalidMonth),
		errors.Is(err, attendance.ErrInvalidTime),
		errors.Is(err, attendance.ErrInvalidRange),
		errors.Is(err, access.ErrInvalidSubject):
		return Problem{Title: "Bad Request", Status: http.StatusBadRequest, Detail: err.Error()}
	case errors.Is(err, lifecycle.ErrMissingField),
		errors.Is(err, lifecycle.ErrIncompleteClearance),
		errors.Is(err, lifecycle.ErrInvalidField):
		return Problem{Title: "Unprocessable Entity", Status: http.StatusUnprocessableEntity, Detail: err.Error()}
	case errors.Is(err, access.ErrUnauthenticated):
		return Problem{Title: "Unauthorized", Status: http.StatusUnauthorized, Detail: err.Error()}
	case errors.Is(err, lifecycle.ErrPermissionDenied), errors.Is(err, access.ErrAdminRequired):
		return Problem{Title: "Forbidden", Status: http.StatusForbidden, Detail: err.Error()}
	case errors.Is(err, employee.ErrEmployeeNotFound),
		errors.Is(err, period.ErrPeriodNotFound),
		errors.Is(err, access.ErrProfileNotFound):
		return Problem{Title: "Not Found", Status: http.StatusNotFound, Detail: err.Error()}
	case errors.Is(err, employee.ErrDuplicateIdentifier):
		p := Problem{Title: "Conflict", Status: http.StatusConflict, Detail: err.Error()}
		var dup *employee.DuplicateIdentifierError
		if errors.As(err, &dup) {
			p.Field = string(dup.Field)
		}
		return p
	case errors.Is(err, lifecycle.ErrInvalidTransition),
		errors.Is(err, lifecycle.ErrConcurrentModification),
		errors.Is(err, period.ErrPeriodAlreadyOpen),
		errors.Is(err, apperr.ErrLockTimeout):
		return withStep(Problem{Title: "Conflict", Status: http.StatusConflict, Detail: err.Error()}, err)
	default:
		return withStep(Problem{Title: "Internal Server Error", Status: http.StatusInternalServerError}, err)
	}
}

func withStep(p Problem, err error) Problem {
	var stepErr *lifecycle.StepError
	if errors.As(err, &stepErr) {
		p.Step = string(stepErr.Step)
	}
	return p
}

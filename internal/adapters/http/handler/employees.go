package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ogurasousui/codex-staff-ledger/internal/core/employee"
	"github.com/ogurasousui/codex-staff-ledger/internal/core/lifecycle"
)

func (h *Handler) createEmployee(w http.ResponseWriter, r *http.Request) {
	var req createEmployeeRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeProblem(w, validationProblem(err))
		return
	}
	docs, err := req.Documents.toDomain()
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	created, err := h.employees.CreateEmployee(r.Context(), employee.CreateEmployeeInput{
		EmployeeNo:       req.EmployeeNo,
		FullName:         req.FullName,
		BirthDate:        req.BirthDate,
		HireDate:         req.HireDate,
		NationalID:       req.NationalID,
		IDNo:             req.IDNo,
		Address:          req.Address,
		PhoneNumber:      req.PhoneNumber,
		Department:       req.Department,
		JobTitle:         req.JobTitle,
		Branch:           req.Branch,
		ManagerName:      req.ManagerName,
		ContractType:     req.ContractType,
		NoticePeriodDays: req.NoticePeriodDays,
		Notes:            req.Notes,
		Documents:        docs,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeResponse(created))
}

func (h *Handler) updateEmployee(w http.ResponseWriter, r *http.Request) {
	var req updateEmployeeRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeProblem(w, validationProblem(err))
		return
	}

	in := employee.UpdateEmployeeInput{
		ID:               chi.URLParam(r, "employeeID"),
		EmployeeNo:       req.EmployeeNo,
		FullName:         req.FullName,
		BirthDate:        req.BirthDate,
		HireDate:         req.HireDate,
		NationalID:       req.NationalID,
		IDNo:             req.IDNo,
		Address:          req.Address,
		PhoneNumber:      req.PhoneNumber,
		Department:       req.Department,
		JobTitle:         req.JobTitle,
		Branch:           req.Branch,
		ManagerName:      req.ManagerName,
		ContractType:     req.ContractType,
		NoticePeriodDays: req.NoticePeriodDays,
		Notes:            req.Notes,
	}
	if req.Documents != nil {
		docs, err := req.Documents.toDomain()
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		in.Documents = &docs
	}

	updated, err := h.employees.UpdateEmployee(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeResponse(updated))
}

func (h *Handler) listEmployees(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	employees, err := h.employees.ListEmployees(r.Context(), employee.ListEmployeesInput{
		Scope:      employee.Scope(q.Get("scope")),
		Status:     q.Get("status"),
		Search:     q.Get("search"),
		Department: q.Get("department"),
		Branch:     q.Get("branch"),
		Sort:       q.Get("sort"),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out := make([]employeeResponse, 0, len(employees))
	for _, e := range employees {
		out = append(out, toEmployeeResponse(e))
	}
	writeJSON(w, http.StatusOK, map[string]any{"employees": out})
}

func (h *Handler) nextEmployeeNo(w http.ResponseWriter, r *http.Request) {
	next, err := h.employees.NextEmployeeNo(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"employee_no": next})
}

func (h *Handler) getEmployeeProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.lifecycle.Profile(r.Context(), chi.URLParam(r, "employeeID"), principalFrom(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(profile))
}

func (h *Handler) changeStatus(w http.ResponseWriter, r *http.Request) {
	var req changeStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeProblem(w, validationProblem(err))
		return
	}

	result, err := h.lifecycle.ChangeStatus(r.Context(), lifecycle.ChangeStatusInput{
		EmployeeID:     chi.URLParam(r, "employeeID"),
		Target:         req.Target,
		ExpectedStatus: req.ExpectedStatus,
		Note:           req.Note,
		Principal:      principalFrom(r),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, transitionResponse{
		Employee:     toEmployeeResponse(result.Employee),
		From:         string(result.From),
		To:           string(result.To),
		OpenedPeriod: toPeriodResponse(result.OpenedPeriod),
		History:      toHistoryResponse(result.History),
	})
}

// separate は入力を Draft に集約してから退職処理を実行します。
// clearance が指定された場合は額と小切手番号の確定を先に行います。
func (h *Handler) separate(w http.ResponseWriter, r *http.Request) {
	var req separationRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeProblem(w, validationProblem(err))
		return
	}

	separationDate, err := parseOptionalDate(&req.SeparationDate)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	finalDay, err := parseOptionalDate(&req.FinalWorkingDay)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	draft := lifecycle.NewDraft(employee.Status(strings.ToUpper(req.SeparationType)))
	draft.Update(lifecycle.Payload{
		SeparationDate:    separationDate,
		SeparationReason:  req.SeparationReason,
		FinalWorkingDay:   finalDay,
		EligibleForRehire: req.EligibleForRehire,
		NoticeGiven:       req.NoticeGiven,
		NoticeDaysServed:  req.NoticeDaysServed,
		ExitInterviewDone: req.ExitInterviewDone,
	})
	payload := draft.Payload()
	// 精算の検証は Separate が日付と権限の確認の後に行います。
	if c := req.Clearance; c != nil {
		payload.ClearanceDone = true
		payload.ClearanceAmount = c.Amount
		payload.ClearanceChequeNumber = strings.TrimSpace(c.ChequeNumber)
	}

	result, err := h.separation.Separate(r.Context(), lifecycle.SeparateInput{
		EmployeeID:     chi.URLParam(r, "employeeID"),
		ExpectedStatus: req.ExpectedStatus,
		Payload:        payload,
		Note:           req.Note,
		Principal:      principalFrom(r),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, separationResultResponse{
		Employee:     toEmployeeResponse(result.Employee),
		From:         string(result.From),
		EndDate:      formatDate(result.EndDate),
		ClosedPeriod: toPeriodResponse(result.ClosedPeriod),
		NoOpenPeriod: result.NoOpenPeriod,
		History:      toHistoryResponse(result.History),
	})
}

func (h *Handler) listHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.history.ListForEmployee(r.Context(), chi.URLParam(r, "employeeID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": toHistoryList(entries)})
}

func (h *Handler) listPeriods(w http.ResponseWriter, r *http.Request) {
	periods, err := h.periods.ListForEmployee(r.Context(), chi.URLParam(r, "employeeID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"periods": toPeriodList(periods)})
}

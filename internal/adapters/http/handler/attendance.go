package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ogurasousui/codex-staff-ledger/internal/core/attendance"
)

func (h *Handler) setAttendance(w http.ResponseWriter, r *http.Request) {
	var req setAttendanceRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeProblem(w, validationProblem(err))
		return
	}

	record, err := h.attendance.SetStatus(r.Context(), attendance.SetStatusInput{
		EmployeeID: chi.URLParam(r, "employeeID"),
		Day:        chi.URLParam(r, "day"),
		Status:     req.Status,
		StartTime:  req.StartTime,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAttendanceResponse(record))
}

// bulkMarkPresent は一部の社員で失敗しても 200 を返し、失敗分を failed に列挙します。
func (h *Handler) bulkMarkPresent(w http.ResponseWriter, r *http.Request) {
	var req bulkPresentRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeProblem(w, validationProblem(err))
		return
	}

	result, err := h.attendance.BulkMarkPresent(r.Context(), attendance.BulkMarkPresentInput{
		EmployeeIDs: req.EmployeeIDs,
		Day:         req.Day,
		StartTime:   req.StartTime,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := bulkResultResponse{
		Day:     formatDate(result.Day),
		Written: result.Written,
		Failed:  make([]bulkFailureResponse, 0, len(result.Failed)),
	}
	if resp.Written == nil {
		resp.Written = []string{}
	}
	for _, f := range result.Failed {
		resp.Failed = append(resp.Failed, bulkFailureResponse{EmployeeID: f.EmployeeID, Error: f.Err.Error()})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) monthlySheet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sheet, err := h.attendance.MonthlySheet(r.Context(), attendance.MonthlySheetInput{
		Month:       q.Get("month"),
		EmployeeIDs: q["employee_id"],
		Search:      q.Get("search"),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMonthlySheetResponse(sheet))
}

func (h *Handler) dailySheet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sheet, err := h.attendance.Daily(r.Context(), attendance.DailyInput{
		Day:    q.Get("day"),
		Search: q.Get("search"),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDailySheetResponse(sheet, h.attendance.DefaultStartTime(), h.now()))
}

func (h *Handler) attendanceSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.attendance.MonthlySummary(r.Context(), chi.URLParam(r, "employeeID"), r.URL.Query().Get("month"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryResponse(summary))
}

package handler

import (
	"time"

	"github.com/ogurasousui/codex-staff-ledger/internal/core/attendance"
	"github.com/ogurasousui/codex-staff-ledger/internal/core/employee"
	"github.com/ogurasousui/codex-staff-ledger/internal/core/history"
	"github.com/ogurasousui/codex-staff-ledger/internal/core/lifecycle"
	"github.com/ogurasousui/codex-staff-ledger/internal/core/period"
)

const dateLayout = "2006-01-02"

type documentFlagBody struct {
	Received bool    `json:"received"`
	Date     *string `json:"date,omitempty"`
}

type documentsBody struct {
	NationalIDCopy documentFlagBody `json:"national_id_copy"`
	ContractSigned documentFlagBody `json:"contract_signed"`
	CVReceived     documentFlagBody `json:"cv_received"`
	MedicalCheck   documentFlagBody `json:"medical_check"`
}

type createEmployeeRequest struct {
	EmployeeNo       string         `json:"employee_no" validate:"omitempty,max=32"`
	FullName         string         `json:"full_name" validate:"required,max=200"`
	BirthDate        string         `json:"birth_date" validate:"required"`
	HireDate         string         `json:"hire_date" validate:"required"`
	NationalID       string         `json:"national_id" validate:"omitempty,max=64"`
	IDNo             string         `json:"id_no" validate:"omitempty,max=64"`
	Address          string         `json:"address"`
	PhoneNumber      string         `json:"phone_number" validate:"omitempty,max=32"`
	Department       string         `json:"department"`
	JobTitle         string         `json:"job_title"`
	Branch           string         `json:"branch"`
	ManagerName      string         `json:"manager_name"`
	ContractType     string         `json:"contract_type"`
	NoticePeriodDays int            `json:"notice_period_days" validate:"gte=0"`
	Notes            string         `json:"notes"`
	Documents        *documentsBody `json:"documents"`
}

type updateEmployeeRequest struct {
	EmployeeNo       *string        `json:"employee_no" validate:"omitempty,max=32"`
	FullName         *string        `json:"full_name" validate:"omitempty,max=200"`
	BirthDate        *string        `json:"birth_date"`
	HireDate         *string        `json:"hire_date"`
	NationalID       *string        `json:"national_id" validate:"omitempty,max=64"`
	IDNo             *string        `json:"id_no" validate:"omitempty,max=64"`
	Address          *string        `json:"address"`
	PhoneNumber      *string        `json:"phone_number" validate:"omitempty,max=32"`
	Department       *string        `json:"department"`
	JobTitle         *string        `json:"job_title"`
	Branch           *string        `json:"branch"`
	ManagerName      *string        `json:"manager_name"`
	ContractType     *string        `json:"contract_type"`
	NoticePeriodDays *int           `json:"notice_period_days" validate:"omitempty,gte=0"`
	Notes            *string        `json:"notes"`
	Documents        *documentsBody `json:"documents"`
}

type changeStatusRequest struct {
	Target         string `json:"target" validate:"required"`
	ExpectedStatus string `json:"expected_status" validate:"required"`
	Note           string `json:"note" validate:"max=2000"`
}

type clearanceBody struct {
	Amount       *float64 `json:"amount"`
	ChequeNumber string   `json:"cheque_number"`
}

type separationRequest struct {
	SeparationType    string         `json:"separation_type" validate:"required,oneof=RESIGNED TERMINATED resigned terminated"`
	ExpectedStatus    string         `json:"expected_status" validate:"required"`
	SeparationDate    string         `json:"separation_date"`
	SeparationReason  string         `json:"separation_reason" validate:"max=2000"`
	FinalWorkingDay   string         `json:"final_working_day"`
	EligibleForRehire *bool          `json:"eligible_for_rehire"`
	NoticeGiven       *bool          `json:"notice_given"`
	NoticeDaysServed  *int           `json:"notice_days_served"`
	ExitInterviewDone bool           `json:"exit_interview_done"`
	Clearance         *clearanceBody `json:"clearance"`
	Note              string         `json:"note" validate:"max=2000"`
}

type setAttendanceRequest struct {
	Status    string `json:"status" validate:"required"`
	StartTime string `json:"start_time"`
}

type bulkPresentRequest struct {
	Day         string   `json:"day" validate:"required"`
	EmployeeIDs []string `json:"employee_ids" validate:"omitempty,dive,uuid"`
	StartTime   string   `json:"start_time"`
}

type documentFlagResponse struct {
	Received bool    `json:"received"`
	Date     *string `json:"date,omitempty"`
}

type separationResponse struct {
	Type                  string   `json:"type,omitempty"`
	Date                  *string  `json:"date,omitempty"`
	Reason                *string  `json:"reason,omitempty"`
	FinalWorkingDay       *string  `json:"final_working_day,omitempty"`
	EligibleForRehire     *bool    `json:"eligible_for_rehire,omitempty"`
	NoticeGiven           *bool    `json:"notice_given,omitempty"`
	NoticeDaysServed      *int     `json:"notice_days_served,omitempty"`
	ExitInterviewDone     bool     `json:"exit_interview_done"`
	ClearanceDone         bool     `json:"clearance_done"`
	ClearanceAmount       *float64 `json:"clearance_amount,omitempty"`
	ClearanceChequeNumber *string  `json:"clearance_cheque_number,omitempty"`
}

type employeeResponse struct {
	ID               string                          `json:"id"`
	EmployeeNo       string                          `json:"employee_no"`
	FullName         string                          `json:"full_name"`
	BirthDate        string                          `json:"birth_date"`
	HireDate         string                          `json:"hire_date"`
	NationalID       *string                         `json:"national_id,omitempty"`
	IDNo             *string                         `json:"id_no,omitempty"`
	Address          *string                         `json:"address,omitempty"`
	PhoneNumber      *string                         `json:"phone_number,omitempty"`
	Department       *string                         `json:"department,omitempty"`
	JobTitle         *string                         `json:"job_title,omitempty"`
	Branch           *string                         `json:"branch,omitempty"`
	ManagerName      *string                         `json:"manager_name,omitempty"`
	ContractType     string                          `json:"contract_type"`
	NoticePeriodDays int                             `json:"notice_period_days"`
	Notes            *string                         `json:"notes,omitempty"`
	Documents        map[string]documentFlagResponse `json:"documents"`
	Status           string                          `json:"status"`
	Separation       *separationResponse             `json:"separation,omitempty"`
	CreatedAt        time.Time                       `json:"created_at"`
	UpdatedAt        time.Time                       `json:"updated_at"`
}

type closureResponse struct {
	SeparationType    string  `json:"separation_type"`
	SeparationReason  *string `json:"separation_reason,omitempty"`
	EligibleForRehire *bool   `json:"eligible_for_rehire,omitempty"`
	NoticeDays        *int    `json:"notice_days,omitempty"`
}

type periodResponse struct {
	ID        string           `json:"id"`
	StartDate string           `json:"start_date"`
	EndDate   *string          `json:"end_date"`
	Closure   *closureResponse `json:"closure,omitempty"`
}

type snapshotResponse struct {
	SeparationDate        *string  `json:"separation_date,omitempty"`
	FinalWorkingDay       *string  `json:"final_working_day,omitempty"`
	Reason                *string  `json:"reason,omitempty"`
	EligibleForRehire     *bool    `json:"eligible_for_rehire,omitempty"`
	NoticeGiven           *bool    `json:"notice_given,omitempty"`
	NoticeDaysServed      *int     `json:"notice_days_served,omitempty"`
	ExitInterviewDone     bool     `json:"exit_interview_done"`
	ClearanceDone         bool     `json:"clearance_done"`
	ClearanceAmount       *float64 `json:"clearance_amount,omitempty"`
	ClearanceChequeNumber *string  `json:"clearance_cheque_number,omitempty"`
}

type historyResponse struct {
	ID         string            `json:"id"`
	OldStatus  string            `json:"old_status"`
	NewStatus  string            `json:"new_status"`
	ChangedAt  time.Time         `json:"changed_at"`
	ChangedBy  *string           `json:"changed_by,omitempty"`
	Note       *string           `json:"note,omitempty"`
	Separation *snapshotResponse `json:"separation,omitempty"`
}

type separationSummaryResponse struct {
	Reason            *string          `json:"reason,omitempty"`
	EligibleForRehire *bool            `json:"eligible_for_rehire,omitempty"`
	NoticeDaysServed  *int             `json:"notice_days_served,omitempty"`
	Entry             *historyResponse `json:"entry,omitempty"`
}

type profileResponse struct {
	Employee         employeeResponse           `json:"employee"`
	Age              int                        `json:"age"`
	EffectiveDate    string                     `json:"effective_date"`
	Actions          []string                   `json:"actions"`
	OpenPeriod       *periodResponse            `json:"open_period,omitempty"`
	LastClosedPeriod *periodResponse            `json:"last_closed_period,omitempty"`
	Separation       *separationSummaryResponse `json:"separation,omitempty"`
	History          []historyResponse          `json:"history"`
}

type transitionResponse struct {
	Employee     employeeResponse `json:"employee"`
	From         string           `json:"from"`
	To           string           `json:"to"`
	OpenedPeriod *periodResponse  `json:"opened_period,omitempty"`
	History      *historyResponse `json:"history,omitempty"`
}

type separationResultResponse struct {
	Employee     employeeResponse `json:"employee"`
	From         string           `json:"from"`
	EndDate      string           `json:"end_date"`
	ClosedPeriod *periodResponse  `json:"closed_period,omitempty"`
	NoOpenPeriod bool             `json:"no_open_period"`
	History      *historyResponse `json:"history,omitempty"`
}

type attendanceResponse struct {
	EmployeeID     string  `json:"employee_id"`
	Day            string  `json:"day"`
	Status         string  `json:"status"`
	StartTime      *string `json:"start_time"`
	StartTimeLabel string  `json:"start_time_label"`
}

type bulkFailureResponse struct {
	EmployeeID string `json:"employee_id"`
	Error      string `json:"error"`
}

type bulkResultResponse struct {
	Day     string                `json:"day"`
	Written []string              `json:"written"`
	Failed  []bulkFailureResponse `json:"failed"`
}

type summaryResponse struct {
	Present int `json:"present"`
	Absent  int `json:"absent"`
	Leave   int `json:"leave"`
}

type rosterResponse struct {
	EmployeeID string `json:"employee_id"`
	EmployeeNo string `json:"employee_no"`
	FullName   string `json:"full_name"`
	Status     string `json:"status"`
}

type sheetRowResponse struct {
	Employee rosterResponse  `json:"employee"`
	Cells    []*string       `json:"cells"`
	Summary  summaryResponse `json:"summary"`
}

type monthlySheetResponse struct {
	Month string             `json:"month"`
	Days  []string           `json:"days"`
	Rows  []sheetRowResponse `json:"rows"`
}

type dailyRowResponse struct {
	Employee       rosterResponse `json:"employee"`
	Status         *string        `json:"status"`
	StartTime      *string        `json:"start_time"`
	StartTimeLabel string         `json:"start_time_label"`
	StartTimeInput string         `json:"start_time_input"`
}

type dailySheetResponse struct {
	Day              string             `json:"day"`
	DefaultStartTime string             `json:"default_start_time"`
	Rows             []dailyRowResponse `json:"rows"`
}

func (b *documentsBody) toDomain() (employee.Documents, error) {
	var (
		d   employee.Documents
		err error
	)
	if b == nil {
		return d, nil
	}
	if d.NationalIDCopy, err = b.NationalIDCopy.toDomain(); err != nil {
		return d, err
	}
	if d.ContractSigned, err = b.ContractSigned.toDomain(); err != nil {
		return d, err
	}
	if d.CVReceived, err = b.CVReceived.toDomain(); err != nil {
		return d, err
	}
	if d.MedicalCheck, err = b.MedicalCheck.toDomain(); err != nil {
		return d, err
	}
	return d, nil
}

func (b documentFlagBody) toDomain() (employee.DocumentFlag, error) {
	flag := employee.DocumentFlag{Received: b.Received}
	date, err := parseOptionalDate(b.Date)
	if err != nil {
		return flag, err
	}
	flag.Date = date
	return flag, nil
}

func parseOptionalDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	t, err := employee.ParseDate(*raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}

func formatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatDate(*t)
	return &s
}

func toDocumentFlagResponse(f employee.DocumentFlag) documentFlagResponse {
	return documentFlagResponse{Received: f.Received, Date: formatDatePtr(f.Date)}
}

func toEmployeeResponse(e *employee.Employee) employeeResponse {
	resp := employeeResponse{
		ID:               e.ID,
		EmployeeNo:       e.EmployeeNo,
		FullName:         e.FullName,
		BirthDate:        formatDate(e.BirthDate),
		HireDate:         formatDate(e.HireDate),
		NationalID:       e.NationalID,
		IDNo:             e.IDNo,
		Address:          e.Address,
		PhoneNumber:      e.PhoneNumber,
		Department:       e.Department,
		JobTitle:         e.JobTitle,
		Branch:           e.Branch,
		ManagerName:      e.ManagerName,
		ContractType:     string(e.ContractType),
		NoticePeriodDays: e.NoticePeriodDays,
		Notes:            e.Notes,
		Documents: map[string]documentFlagResponse{
			"national_id_copy": toDocumentFlagResponse(e.Documents.NationalIDCopy),
			"contract_signed":  toDocumentFlagResponse(e.Documents.ContractSigned),
			"cv_received":      toDocumentFlagResponse(e.Documents.CVReceived),
			"medical_check":    toDocumentFlagResponse(e.Documents.MedicalCheck),
		},
		Status:    string(e.Status),
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
	if s := e.Separation; !s.IsZero() {
		resp.Separation = &separationResponse{
			Type:                  string(s.Type),
			Date:                  formatDatePtr(s.Date),
			Reason:                s.Reason,
			FinalWorkingDay:       formatDatePtr(s.FinalWorkingDay),
			EligibleForRehire:     s.EligibleForRehire,
			NoticeGiven:           s.NoticeGiven,
			NoticeDaysServed:      s.NoticeDaysServed,
			ExitInterviewDone:     s.ExitInterviewDone,
			ClearanceDone:         s.ClearanceDone,
			ClearanceAmount:       s.ClearanceAmount,
			ClearanceChequeNumber: s.ClearanceChequeNumber,
		}
	}
	return resp
}

func toPeriodResponse(p *period.Period) *periodResponse {
	if p == nil {
		return nil
	}
	resp := &periodResponse{
		ID:        p.ID,
		StartDate: formatDate(p.StartDate),
		EndDate:   formatDatePtr(p.EndDate),
	}
	if c := p.Closure; c != nil {
		resp.Closure = &closureResponse{
			SeparationType:    c.SeparationType,
			SeparationReason:  c.SeparationReason,
			EligibleForRehire: c.EligibleForRehire,
			NoticeDays:        c.NoticeDays,
		}
	}
	return resp
}

func toHistoryResponse(e *history.Entry) *historyResponse {
	if e == nil {
		return nil
	}
	resp := &historyResponse{
		ID:        e.ID,
		OldStatus: string(e.OldStatus),
		NewStatus: string(e.NewStatus),
		ChangedAt: e.ChangedAt,
		ChangedBy: e.ChangedBy,
		Note:      e.Note,
	}
	if s := e.Separation; s != nil {
		resp.Separation = &snapshotResponse{
			SeparationDate:        formatDatePtr(s.SeparationDate),
			FinalWorkingDay:       formatDatePtr(s.FinalWorkingDay),
			Reason:                s.Reason,
			EligibleForRehire:     s.EligibleForRehire,
			NoticeGiven:           s.NoticeGiven,
			NoticeDaysServed:      s.NoticeDaysServed,
			ExitInterviewDone:     s.ExitInterviewDone,
			ClearanceDone:         s.ClearanceDone,
			ClearanceAmount:       s.ClearanceAmount,
			ClearanceChequeNumber: s.ClearanceChequeNumber,
		}
	}
	return resp
}

func toHistoryList(entries []*history.Entry) []historyResponse {
	out := make([]historyResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, *toHistoryResponse(e))
	}
	return out
}

func toPeriodList(periods []*period.Period) []periodResponse {
	out := make([]periodResponse, 0, len(periods))
	for _, p := range periods {
		out = append(out, *toPeriodResponse(p))
	}
	return out
}

func toProfileResponse(p *lifecycle.Profile) profileResponse {
	resp := profileResponse{
		Employee:         toEmployeeResponse(p.Employee),
		Age:              p.Age,
		EffectiveDate:    formatDate(p.EffectiveDate),
		Actions:          make([]string, 0, len(p.Actions)),
		OpenPeriod:       toPeriodResponse(p.OpenPeriod),
		LastClosedPeriod: toPeriodResponse(p.LastClosedPeriod),
		History:          toHistoryList(p.History),
	}
	for _, a := range p.Actions {
		resp.Actions = append(resp.Actions, string(a))
	}
	if s := p.Separation; s.Entry != nil || s.Reason != nil || s.EligibleForRehire != nil || s.NoticeDaysServed != nil {
		resp.Separation = &separationSummaryResponse{
			Reason:            s.Reason,
			EligibleForRehire: s.EligibleForRehire,
			NoticeDaysServed:  s.NoticeDaysServed,
			Entry:             toHistoryResponse(s.Entry),
		}
	}
	return resp
}

func toAttendanceResponse(r *attendance.Record) attendanceResponse {
	return attendanceResponse{
		EmployeeID:     r.EmployeeID,
		Day:            r.DayKey(),
		Status:         string(r.Status),
		StartTime:      r.StartTime,
		StartTimeLabel: attendance.FormatAMLabel(r.StartTime),
	}
}

func toSummaryResponse(s attendance.Summary) summaryResponse {
	return summaryResponse{Present: s.Present, Absent: s.Absent, Leave: s.Leave}
}

func toRosterResponse(e attendance.RosterEntry) rosterResponse {
	return rosterResponse{
		EmployeeID: e.EmployeeID,
		EmployeeNo: e.EmployeeNo,
		FullName:   e.FullName,
		Status:     string(e.Status),
	}
}

func toMonthlySheetResponse(s *attendance.MonthlySheet) monthlySheetResponse {
	resp := monthlySheetResponse{
		Month: s.Month.Format("2006-01"),
		Days:  make([]string, 0, len(s.Days)),
		Rows:  make([]sheetRowResponse, 0, len(s.Rows)),
	}
	for _, d := range s.Days {
		resp.Days = append(resp.Days, formatDate(d))
	}
	for _, row := range s.Rows {
		cells := make([]*string, len(row.Cells))
		for i, c := range row.Cells {
			if c != nil {
				status := string(c.Status)
				cells[i] = &status
			}
		}
		resp.Rows = append(resp.Rows, sheetRowResponse{
			Employee: toRosterResponse(row.Employee),
			Cells:    cells,
			Summary:  toSummaryResponse(row.Summary),
		})
	}
	return resp
}

func toDailySheetResponse(s *attendance.DailySheet, defaultStart string, now time.Time) dailySheetResponse {
	resp := dailySheetResponse{
		Day:              formatDate(s.Day),
		DefaultStartTime: defaultStart,
		Rows:             make([]dailyRowResponse, 0, len(s.Rows)),
	}
	for _, row := range s.Rows {
		out := dailyRowResponse{Employee: toRosterResponse(row.Employee)}
		var stored *string
		if row.Record != nil {
			status := string(row.Record.Status)
			out.Status = &status
			stored = row.Record.StartTime
		}
		out.StartTime = stored
		out.StartTimeLabel = attendance.FormatAMLabel(stored)
		out.StartTimeInput = attendance.ToAMInput(stored, now)
		resp.Rows = append(resp.Rows, out)
	}
	return resp
}

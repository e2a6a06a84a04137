package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogurasousui/codex-staff-ledger/internal/core/access"
	"github.com/ogurasousui/codex-staff-ledger/internal/core/attendance"
	"github.com/ogurasousui/codex-staff-ledger/internal/core/employee"
	"github.com/ogurasousui/codex-staff-ledger/internal/core/history"
	"github.com/ogurasousui/codex-staff-ledger/internal/core/lifecycle"
	"github.com/ogurasousui/codex-staff-ledger/internal/core/period"
)

const (
	testSecret     = "test-secret"
	testSubject    = "6f1c2d3e-4b5a-4c7d-8e9f-0a1b2c3d4e5f"
	testEmployeeID = "9a8b7c6d-5e4f-4a3b-9c2d-1e0f9a8b7c6d"
)

type stubEmployeeUseCase struct {
	createInput employee.CreateEmployeeInput
	createOut   *employee.Employee
	createErr   error

	updateInput employee.UpdateEmployeeInput
	updateOut   *employee.Employee
	updateErr   error

	listInput employee.ListEmployeesInput
	listOut   []*employee.Employee

	nextOut string
}

func (s *stubEmployeeUseCase) CreateEmployee(ctx context.Context, in employee.CreateEmployeeInput) (*employee.Employee, error) {
	s.createInput = in
	return s.createOut, s.createErr
}

func (s *stubEmployeeUseCase) UpdateEmployee(ctx context.Context, in employee.UpdateEmployeeInput) (*employee.Employee, error) {
	s.updateInput = in
	return s.updateOut, s.updateErr
}

func (s *stubEmployeeUseCase) GetEmployee(ctx context.Context, id string) (*employee.Employee, error) {
	return nil, employee.ErrEmployeeNotFound
}

func (s *stubEmployeeUseCase) ListEmployees(ctx context.Context, in employee.ListEmployeesInput) ([]*employee.Employee, error) {
	s.listInput = in
	return s.listOut, nil
}

func (s *stubEmployeeUseCase) NextEmployeeNo(ctx context.Context) (string, error) {
	return s.nextOut, nil
}

type stubLifecycle struct {
	changeInput lifecycle.ChangeStatusInput
	changeOut   *lifecycle.TransitionResult
	changeErr   error

	profileOut *lifecycle.Profile
	profileErr error
}

func (s *stubLifecycle) ChangeStatus(ctx context.Context, in lifecycle.ChangeStatusInput) (*lifecycle.TransitionResult, error) {
	s.changeInput = in
	return s.changeOut, s.changeErr
}

func (s *stubLifecycle) Profile(ctx context.Context, employeeID string, principal access.Principal) (*lifecycle.Profile, error) {
	return s.profileOut, s.profileErr
}

type stubSeparation struct {
	called bool
	input  lifecycle.SeparateInput
	out    *lifecycle.SeparationResult
	err    error

	// workflow が設定されている場合は実際の検証順序で評価します。
	workflow *lifecycle.SeparationWorkflow
}

func (s *stubSeparation) Separate(ctx context.Context, in lifecycle.SeparateInput) (*lifecycle.SeparationResult, error) {
	s.called = true
	s.input = in
	if s.workflow != nil {
		return s.workflow.Separate(ctx, in)
	}
	return s.out, s.err
}

// validatingWorkflow は書き込み前の検証だけを通すワークフローを返します。
// ストアを持たないため、検証を通過する入力には使えません。
func validatingWorkflow() *lifecycle.SeparationWorkflow {
	return lifecycle.NewSeparationWorkflow(lifecycle.NewEngine(nil, nil, nil, nil, nil, nil))
}

type stubHistory struct {
	out []*history.Entry
}

func (s *stubHistory) ListForEmployee(ctx context.Context, employeeID string) ([]*history.Entry, error) {
	return s.out, nil
}

type stubPeriods struct {
	out []*period.Period
}

func (s *stubPeriods) ListForEmployee(ctx context.Context, employeeID string) ([]*period.Period, error) {
	return s.out, nil
}

type stubAttendance struct {
	setInput  attendance.SetStatusInput
	setOut    *attendance.Record
	setErr    error
	bulkInput attendance.BulkMarkPresentInput
	bulkOut   *attendance.BulkResult
	sheetIn   attendance.MonthlySheetInput
	sheetOut  *attendance.MonthlySheet
	dailyOut  *attendance.DailySheet
	summary   attendance.Summary
}

func (s *stubAttendance) SetStatus(ctx context.Context, in attendance.SetStatusInput) (*attendance.Record, error) {
	s.setInput = in
	return s.setOut, s.setErr
}

func (s *stubAttendance) BulkMarkPresent(ctx context.Context, in attendance.BulkMarkPresentInput) (*attendance.BulkResult, error) {
	s.bulkInput = in
	return s.bulkOut, nil
}

func (s *stubAttendance) MonthlySheet(ctx context.Context, in attendance.MonthlySheetInput) (*attendance.MonthlySheet, error) {
	s.sheetIn = in
	return s.sheetOut, nil
}

func (s *stubAttendance) Daily(ctx context.Context, in attendance.DailyInput) (*attendance.DailySheet, error) {
	return s.dailyOut, nil
}

func (s *stubAttendance) MonthlySummary(ctx context.Context, employeeID, month string) (attendance.Summary, error) {
	return s.summary, nil
}

func (s *stubAttendance) DefaultStartTime() string {
	return "09:05"
}

type stubPrincipals struct {
	principal   access.Principal
	err         error
	forced      bool
	invalidated string
}

func (s *stubPrincipals) Resolve(ctx context.Context, in access.ResolveInput) (access.Principal, error) {
	s.forced = in.ForceRefresh
	if s.err != nil {
		return access.Principal{}, s.err
	}
	p := s.principal
	p.UserID = in.Subject
	return p, nil
}

func (s *stubPrincipals) Invalidate(ctx context.Context, subject string) error {
	s.invalidated = subject
	return nil
}

type testEnv struct {
	employees  *stubEmployeeUseCase
	lifecycle  *stubLifecycle
	separation *stubSeparation
	attendance *stubAttendance
	principals *stubPrincipals
	router     http.Handler
}

func newTestEnv(t *testing.T, principal access.Principal) *testEnv {
	t.Helper()

	env := &testEnv{
		employees:  &stubEmployeeUseCase{},
		lifecycle:  &stubLifecycle{},
		separation: &stubSeparation{},
		attendance: &stubAttendance{},
		principals: &stubPrincipals{principal: principal},
	}
	h := New(Dependencies{
		Employees:  env.employees,
		Lifecycle:  env.lifecycle,
		Separation: env.separation,
		History:    &stubHistory{},
		Periods:    &stubPeriods{},
		Attendance: env.attendance,
		Principals: env.principals,
		Tokens:     NewTokenVerifier(testSecret, ""),
	})
	h.now = func() time.Time { return time.Date(2024, 3, 1, 8, 12, 0, 0, time.UTC) }
	env.router = h.Routes(Options{RateLimitPerMinute: 1000, RequestTimeout: 5 * time.Second})
	return env
}

func admin() access.Principal {
	return access.Principal{IsAdmin: true, CanTerminate: true}
}

func signToken(t *testing.T, subject string, expiresAt time.Time) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func (env *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSubject, time.Now().Add(time.Hour)))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) Problem {
	t.Helper()

	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	var p Problem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	return p
}

func sampleEmployee() *employee.Employee {
	now := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	return &employee.Employee{
		ID:           testEmployeeID,
		EmployeeNo:   "MSD-12",
		FullName:     "Lina Haddad",
		BirthDate:    time.Date(1990, 5, 4, 0, 0, 0, 0, time.UTC),
		HireDate:     time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		ContractType: employee.ContractFullTime,
		Status:       employee.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, admin())
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestHealthz_Unavailable(t *testing.T) {
	t.Parallel()

	h := New(Dependencies{Health: func(context.Context) error { return errors.New("db down") }})
	rec := httptest.NewRecorder()
	h.Routes(Options{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAuthenticate_RejectsMissingAndExpiredTokens(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, admin())

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/employees", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, http.StatusUnauthorized, decodeProblem(t, rec).Status)

	req := httptest.NewRequest(http.MethodGet, "/v1/employees", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSubject, time.Now().Add(-time.Minute)))
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticate_ForceRefreshHeader(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, admin())
	req := httptest.NewRequest(http.MethodGet, "/v1/employees/next-number", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSubject, time.Now().Add(time.Hour)))
	req.Header.Set(refreshProfileHeader, "true")
	env.employees.nextOut = "MSD-13"

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.principals.forced)
	assert.JSONEq(t, `{"employee_no":"MSD-13"}`, rec.Body.String())
}

func TestRequireAdmin(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, access.Principal{})
	rec := env.do(t, http.MethodGet, "/v1/employees", nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSignOut_InvalidatesWithoutAdmin(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, access.Principal{})
	rec := env.do(t, http.MethodPost, "/v1/session/sign-out", nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, testSubject, env.principals.invalidated)
}

func TestCreateEmployee_Success(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, admin())
	env.employees.createOut = sampleEmployee()

	rec := env.do(t, http.MethodPost, "/v1/employees", map[string]any{
		"full_name":  "Lina Haddad",
		"birth_date": "05/04/1990",
		"hire_date":  "2024-01-10",
		"documents": map[string]any{
			"contract_signed": map[string]any{"received": true, "date": "2024-01-09"},
		},
	})

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "05/04/1990", env.employees.createInput.BirthDate)
	assert.True(t, env.employees.createInput.Documents.ContractSigned.Received)
	require.NotNil(t, env.employees.createInput.Documents.ContractSigned.Date)

	var body employeeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "MSD-12", body.EmployeeNo)
	assert.Equal(t, "1990-05-04", body.BirthDate)
	assert.Nil(t, body.Separation)
}

func TestCreateEmployee_ValidationProblem(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, admin())
	rec := env.do(t, http.MethodPost, "/v1/employees", map[string]any{"hire_date": "2024-01-10"})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	p := decodeProblem(t, rec)
	assert.Equal(t, "required", p.Errors["full_name"])
	assert.Equal(t, "required", p.Errors["birth_date"])
}

func TestCreateEmployee_UnknownFieldRejected(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, admin())
	rec := env.do(t, http.MethodPost, "/v1/employees", map[string]any{"full_name": "x", "status": "TERMINATED"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateEmployee_DuplicateIdentifier(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, admin())
	env.employees.createErr = employee.NewDuplicateIdentifierError(employee.FieldNationalID)

	rec := env.do(t, http.MethodPost, "/v1/employees", map[string]any{
		"full_name":   "Lina Haddad",
		"birth_date":  "1990-05-04",
		"hire_date":   "2024-01-10",
		"national_id": "1234",
	})

	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "national_id", decodeProblem(t, rec).Field)
}

func TestListEmployees_PassesFilters(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, admin())
	env.employees.listOut = []*employee.Employee{sampleEmployee()}

	rec := env.do(t, http.MethodGet, "/v1/employees?scope=separated&search=lina&sort=name", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, employee.ScopeSeparated, env.employees.listInput.Scope)
	assert.Equal(t, "lina", env.employees.listInput.Search)
	assert.Equal(t, "name", env.employees.listInput.Sort)
}

func TestChangeStatus_ConflictOnStaleExpectation(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, admin())
	env.lifecycle.changeErr = lifecycle.ErrConcurrentModification

	rec := env.do(t, http.MethodPost, "/v1/employees/"+testEmployeeID+"/status", map[string]any{
		"target":          "ON_HOLD",
		"expected_status": "ACTIVE",
	})

	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, testEmployeeID, env.lifecycle.changeInput.EmployeeID)
	assert.Equal(t, testSubject, env.lifecycle.changeInput.Principal.UserID)
}

func TestChangeStatus_Success(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, admin())
	emp := sampleEmployee()
	emp.Status = employee.StatusOnHold
	env.lifecycle.changeOut = &lifecycle.TransitionResult{
		Employee: emp,
		From:     employee.StatusActive,
		To:       employee.StatusOnHold,
		History:  &history.Entry{ID: "h-1", OldStatus: employee.StatusActive, NewStatus: employee.StatusOnHold},
	}

	rec := env.do(t, http.MethodPost, "/v1/employees/"+testEmployeeID+"/status", map[string]any{
		"target":          "ON_HOLD",
		"expected_status": "ACTIVE",
		"note":            "medical leave",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var body transitionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ACTIVE", body.From)
	assert.Equal(t, "ON_HOLD", body.To)
	assert.Nil(t, body.OpenedPeriod)
	assert.Equal(t, "medical leave", env.lifecycle.changeInput.Note)
}

func TestSeparate_BuildsPayloadFromDraft(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, admin())
	emp := sampleEmployee()
	emp.Status = employee.StatusTerminated
	env.separation.out = &lifecycle.SeparationResult{
		Employee: emp,
		From:     employee.StatusActive,
		EndDate:  time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
	}

	rec := env.do(t, http.MethodPost, "/v1/employees/"+testEmployeeID+"/separation", map[string]any{
		"separation_type":   "terminated",
		"expected_status":   "ACTIVE",
		"separation_date":   "03/15/2024",
		"final_working_day": "2024-03-14",
		"clearance":         map[string]any{"amount": 1500.5, "cheque_number": "CHQ-1"},
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	payload := env.separation.input.Payload
	assert.Equal(t, "TERMINATED", payload.SeparationType)
	require.NotNil(t, payload.SeparationDate)
	assert.Equal(t, "2024-03-15", payload.SeparationDate.Format(dateLayout))
	assert.True(t, payload.ClearanceDone)
	require.NotNil(t, payload.ClearanceAmount)
	assert.InDelta(t, 1500.5, *payload.ClearanceAmount, 0.001)
	assert.Equal(t, "CHQ-1", payload.ClearanceChequeNumber)

	var body separationResultResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "2024-03-15", body.EndDate)
	assert.False(t, body.NoOpenPeriod)
}

func TestSeparate_IncompleteClearanceIsUnprocessable(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, admin())
	env.separation.workflow = validatingWorkflow()
	rec := env.do(t, http.MethodPost, "/v1/employees/"+testEmployeeID+"/separation", map[string]any{
		"separation_type": "RESIGNED",
		"expected_status": "ACTIVE",
		"separation_date": "2024-03-15",
		"clearance":       map[string]any{"cheque_number": "CHQ-1"},
	})

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decodeProblem(t, rec).Detail, "incomplete clearance")
	payload := env.separation.input.Payload
	assert.True(t, payload.ClearanceDone)
	assert.Nil(t, payload.ClearanceAmount)
}

func TestSeparate_MissingDateReportedBeforeClearance(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, admin())
	env.separation.workflow = validatingWorkflow()
	rec := env.do(t, http.MethodPost, "/v1/employees/"+testEmployeeID+"/separation", map[string]any{
		"separation_type": "RESIGNED",
		"expected_status": "ACTIVE",
		"clearance":       map[string]any{"cheque_number": ""},
	})

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	detail := decodeProblem(t, rec).Detail
	assert.Contains(t, detail, "missing field")
	assert.Contains(t, detail, "separation_date")
	assert.NotContains(t, detail, "clearance")
}

func TestSeparate_PermissionCheckedBeforeClearance(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, access.Principal{IsAdmin: true})
	env.separation.workflow = validatingWorkflow()
	rec := env.do(t, http.MethodPost, "/v1/employees/"+testEmployeeID+"/separation", map[string]any{
		"separation_type": "TERMINATED",
		"expected_status": "ACTIVE",
		"separation_date": "2024-03-15",
		"clearance":       map[string]any{"cheque_number": ""},
	})

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSeparate_ReportsFailedStep(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, admin())
	env.separation.err = &lifecycle.StepError{Step: lifecycle.StepClosePeriod, Err: errors.New("boom")}

	rec := env.do(t, http.MethodPost, "/v1/employees/"+testEmployeeID+"/separation", map[string]any{
		"separation_type": "RESIGNED",
		"expected_status": "ACTIVE",
		"separation_date": "2024-03-15",
	})

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	p := decodeProblem(t, rec)
	assert.Equal(t, "close_period", p.Step)
	assert.Empty(t, p.Detail)
}

func TestSeparate_PermissionDenied(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, access.Principal{IsAdmin: true})
	env.separation.err = lifecycle.ErrPermissionDenied

	rec := env.do(t, http.MethodPost, "/v1/employees/"+testEmployeeID+"/separation", map[string]any{
		"separation_type": "TERMINATED",
		"expected_status": "ACTIVE",
		"separation_date": "2024-03-15",
	})

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, env.separation.input.Principal.CanTerminate)
}

func TestSetAttendance(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, admin())
	start := "14:30:00"
	env.attendance.setOut = &attendance.Record{
		EmployeeID: testEmployeeID,
		Day:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Status:     attendance.StatusPresent,
		StartTime:  &start,
	}

	rec := env.do(t, http.MethodPut, "/v1/attendance/"+testEmployeeID+"/2024-03-01", map[string]any{
		"status":     "present",
		"start_time": "14:30",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2024-03-01", env.attendance.setInput.Day)
	var body attendanceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "2:30 AM", body.StartTimeLabel)
}

func TestSetAttendance_InvalidStatus(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, admin())
	env.attendance.setErr = attendance.ErrInvalidStatus

	rec := env.do(t, http.MethodPut, "/v1/attendance/"+testEmployeeID+"/2024-03-01", map[string]any{"status": "late"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBulkMarkPresent_ReportsPartialFailure(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, admin())
	env.attendance.bulkOut = &attendance.BulkResult{
		Day:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Written: []string{testEmployeeID},
		Failed:  []attendance.BulkFailure{{EmployeeID: testSubject, Err: errors.New("write failed")}},
	}

	rec := env.do(t, http.MethodPost, "/v1/attendance/bulk-present", map[string]any{
		"day":          "2024-03-01",
		"employee_ids": []string{testEmployeeID, testSubject},
		"start_time":   "09:00",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var body bulkResultResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{testEmployeeID}, body.Written)
	require.Len(t, body.Failed, 1)
	assert.Equal(t, testSubject, body.Failed[0].EmployeeID)
	assert.Len(t, env.attendance.bulkInput.EmployeeIDs, 2)
}

func TestBulkMarkPresent_RejectsMalformedIDs(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, admin())
	rec := env.do(t, http.MethodPost, "/v1/attendance/bulk-present", map[string]any{
		"day":          "2024-03-01",
		"employee_ids": []string{"not-a-uuid"},
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMonthlySheet(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, admin())
	day1 := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	env.attendance.sheetOut = &attendance.MonthlySheet{
		Month: day1,
		Days:  []time.Time{day1, day1.AddDate(0, 0, 1)},
		Rows: []attendance.SheetRow{{
			Employee: attendance.RosterEntry{EmployeeID: testEmployeeID, EmployeeNo: "MSD-12", FullName: "Lina Haddad"},
			Cells:    []*attendance.Record{{Status: attendance.StatusAbsent}, nil},
			Summary:  attendance.Summary{Absent: 1},
		}},
	}

	rec := env.do(t, http.MethodGet, "/v1/attendance/sheet?month=2024-02&employee_id="+testEmployeeID+"&employee_id="+testSubject, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{testEmployeeID, testSubject}, env.attendance.sheetIn.EmployeeIDs)

	var body monthlySheetResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "2024-02", body.Month)
	require.Len(t, body.Rows, 1)
	require.Len(t, body.Rows[0].Cells, 2)
	assert.Equal(t, "absent", *body.Rows[0].Cells[0])
	assert.Nil(t, body.Rows[0].Cells[1])
	assert.Equal(t, 1, body.Rows[0].Summary.Absent)
}

func TestDailySheet_Labels(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, admin())
	start := "14:30:00"
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	env.attendance.dailyOut = &attendance.DailySheet{
		Day: day,
		Rows: []attendance.DailyRow{
			{
				Employee: attendance.RosterEntry{EmployeeID: testEmployeeID},
				Record:   &attendance.Record{Day: day, Status: attendance.StatusPresent, StartTime: &start},
			},
			{Employee: attendance.RosterEntry{EmployeeID: testSubject}},
		},
	}

	rec := env.do(t, http.MethodGet, "/v1/attendance/daily?day=2024-03-01", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body dailySheetResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "09:05", body.DefaultStartTime)
	require.Len(t, body.Rows, 2)
	assert.Equal(t, "2:30 AM", body.Rows[0].StartTimeLabel)
	assert.Equal(t, "02:30", body.Rows[0].StartTimeInput)
	assert.Nil(t, body.Rows[1].Status)
	assert.Equal(t, "—", body.Rows[1].StartTimeLabel)
	assert.Equal(t, "08:12", body.Rows[1].StartTimeInput)
}

func TestAttendanceSummary(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, admin())
	env.attendance.summary = attendance.Summary{Present: 18, Absent: 1, Leave: 2}

	rec := env.do(t, http.MethodGet, "/v1/employees/"+testEmployeeID+"/attendance-summary?month=2024-02", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"present":18,"absent":1,"leave":2}`, rec.Body.String())
}

func TestGetEmployeeProfile(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, admin())
	emp := sampleEmployee()
	reason := "relocation"
	env.lifecycle.profileOut = &lifecycle.Profile{
		Employee:      emp,
		Age:           33,
		EffectiveDate: emp.HireDate,
		Actions:       []employee.Status{employee.StatusOnHold, employee.StatusResigned},
		OpenPeriod:    &period.Period{ID: "p-1", StartDate: emp.HireDate},
		Separation:    lifecycle.SeparationSummary{Reason: &reason},
	}

	rec := env.do(t, http.MethodGet, "/v1/employees/"+testEmployeeID, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body profileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 33, body.Age)
	assert.Equal(t, []string{"ON_HOLD", "RESIGNED"}, body.Actions)
	require.NotNil(t, body.OpenPeriod)
	assert.Nil(t, body.OpenPeriod.EndDate)
	require.NotNil(t, body.Separation)
	assert.Equal(t, "relocation", *body.Separation.Reason)
	assert.Empty(t, body.History)
}

func TestGetEmployeeProfile_NotFound(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, admin())
	env.lifecycle.profileErr = employee.ErrEmployeeNotFound

	rec := env.do(t, http.MethodGet, "/v1/employees/"+testEmployeeID, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

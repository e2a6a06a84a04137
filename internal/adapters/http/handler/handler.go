package handler

import (
	"context"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/ogurasousui/codex-staff-ledger/internal/core/access"
	"github.com/ogurasousui/codex-staff-ledger/internal/core/attendance"
	"github.com/ogurasousui/codex-staff-ledger/internal/core/employee"
	"github.com/ogurasousui/codex-staff-ledger/internal/core/history"
	"github.com/ogurasousui/codex-staff-ledger/internal/core/lifecycle"
	"github.com/ogurasousui/codex-staff-ledger/internal/core/period"
)

// LifecycleUseCase は状態遷移と社員詳細のユースケースです。
type LifecycleUseCase interface {
	ChangeStatus(ctx context.Context, in lifecycle.ChangeStatusInput) (*lifecycle.TransitionResult, error)
	Profile(ctx context.Context, employeeID string, principal access.Principal) (*lifecycle.Profile, error)
}

// SeparationUseCase は退職処理のユースケースです。
type SeparationUseCase interface {
	Separate(ctx context.Context, in lifecycle.SeparateInput) (*lifecycle.SeparationResult, error)
}

// HistoryReader は状態履歴を参照します。
type HistoryReader interface {
	ListForEmployee(ctx context.Context, employeeID string) ([]*history.Entry, error)
}

// PeriodReader は在籍期間を参照します。
type PeriodReader interface {
	ListForEmployee(ctx context.Context, employeeID string) ([]*period.Period, error)
}

// AttendanceUseCase は出欠台帳のユースケースです。
type AttendanceUseCase interface {
	SetStatus(ctx context.Context, in attendance.SetStatusInput) (*attendance.Record, error)
	BulkMarkPresent(ctx context.Context, in attendance.BulkMarkPresentInput) (*attendance.BulkResult, error)
	MonthlySheet(ctx context.Context, in attendance.MonthlySheetInput) (*attendance.MonthlySheet, error)
	Daily(ctx context.Context, in attendance.DailyInput) (*attendance.DailySheet, error)
	MonthlySummary(ctx context.Context, employeeID, month string) (attendance.Summary, error)
	DefaultStartTime() string
}

// PrincipalResolver は利用者 ID から Principal を解決します。
type PrincipalResolver interface {
	Resolve(ctx context.Context, in access.ResolveInput) (access.Principal, error)
	Invalidate(ctx context.Context, subject string) error
}

// HealthChecker は依存先の疎通を確認します。
type HealthChecker func(ctx context.Context) error

// Dependencies は Handler が利用するユースケース一式です。
type Dependencies struct {
	Employees  employee.UseCase
	Lifecycle  LifecycleUseCase
	Separation SeparationUseCase
	History    HistoryReader
	Periods    PeriodReader
	Attendance AttendanceUseCase
	Principals PrincipalResolver
	Tokens     *TokenVerifier
	Health     HealthChecker
	Logger     logrus.FieldLogger
}

// Options はルーターのミドルウェア設定です。
type Options struct {
	RateLimitPerMinute int
	RequestTimeout     time.Duration
	Production         bool
}

// Handler は社員台帳の HTTP API を提供します。
type Handler struct {
	employees  employee.UseCase
	lifecycle  LifecycleUseCase
	separation SeparationUseCase
	history    HistoryReader
	periods    PeriodReader
	attendance AttendanceUseCase
	principals PrincipalResolver
	tokens     *TokenVerifier
	health     HealthChecker
	logger     logrus.FieldLogger
	validate   *validator.Validate
	now        func() time.Time
}

// New は Handler を生成します。
func New(deps Dependencies) *Handler {
	logger := deps.Logger
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Handler{
		employees:  deps.Employees,
		lifecycle:  deps.Lifecycle,
		separation: deps.Separation,
		history:    deps.History,
		periods:    deps.Periods,
		attendance: deps.Attendance,
		principals: deps.Principals,
		tokens:     deps.Tokens,
		health:     deps.Health,
		logger:     logger,
		validate:   newValidator(),
		now:        time.Now,
	}
}

// Routes はミドルウェアを含むルーターを返します。
func (h *Handler) Routes(opts Options) http.Handler {
	if opts.RateLimitPerMinute <= 0 {
		opts.RateLimitPerMinute = 120
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		requestLogger(h.logger),
		middleware.Recoverer,
		middleware.Timeout(opts.RequestTimeout),
		secureHeaders(opts.Production, h.logger),
		httprate.LimitByIP(opts.RateLimitPerMinute, time.Minute),
	)

	r.Get("/healthz", h.healthz)

	r.Route("/v1", func(r chi.Router) {
		r.Use(h.authenticate)

		r.Post("/session/sign-out", h.signOut)

		r.Group(func(r chi.Router) {
			r.Use(h.requireAdmin)

			r.Route("/employees", func(r chi.Router) {
				r.Post("/", h.createEmployee)
				r.Get("/", h.listEmployees)
				r.Get("/next-number", h.nextEmployeeNo)
				r.Route("/{employeeID}", func(r chi.Router) {
					r.Get("/", h.getEmployeeProfile)
					r.Patch("/", h.updateEmployee)
					r.Post("/status", h.changeStatus)
					r.Post("/separation", h.separate)
					r.Get("/history", h.listHistory)
					r.Get("/periods", h.listPeriods)
					r.Get("/attendance-summary", h.attendanceSummary)
				})
			})

			r.Route("/attendance", func(r chi.Router) {
				r.Put("/{employeeID}/{day}", h.setAttendance)
				r.Post("/bulk-present", h.bulkMarkPresent)
				r.Get("/sheet", h.monthlySheet)
				r.Get("/daily", h.dailySheet)
			})
		})
	})

	return r
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health(r.Context()); err != nil {
			h.logger.WithError(err).Warn("health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) signOut(w http.ResponseWriter, r *http.Request) {
	if err := h.principals.Invalidate(r.Context(), subjectFromContext(r.Context())); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	p := toProblem(err)
	if p.Status >= http.StatusInternalServerError {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"path":       r.URL.Path,
			"request_id": middleware.GetReqID(r.Context()),
		}).Error("request failed")
	}
	writeProblem(w, p)
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func principalFrom(r *http.Request) access.Principal {
	p, _ := access.PrincipalFromContext(r.Context())
	return p
}

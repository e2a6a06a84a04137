package employee

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ogurasousui/codex-staff-ledger/internal/core/period"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

// PeriodOpener は入社時の在籍期間を開始します。
type PeriodOpener interface {
	OpenPeriod(ctx context.Context, in period.OpenPeriodInput) (*period.Period, error)
}

// Service は社員台帳のユースケースをまとめます。
type Service struct {
	repo    Repository
	seq     NumberSequence
	periods PeriodOpener
	clock   Clock
	tx      TransactionManager
	logger  logrus.FieldLogger
}

// UseCase は社員ユースケースの公開インターフェースです。
type UseCase interface {
	CreateEmployee(ctx context.Context, in CreateEmployeeInput) (*Employee, error)
	UpdateEmployee(ctx context.Context, in UpdateEmployeeInput) (*Employee, error)
	GetEmployee(ctx context.Context, id string) (*Employee, error)
	ListEmployees(ctx context.Context, in ListEmployeesInput) ([]*Employee, error)
	NextEmployeeNo(ctx context.Context) (string, error)
}

// NewService は Service を生成します。
func NewService(repo Repository, seq NumberSequence, periods PeriodOpener, clock Clock, tx TransactionManager, logger logrus.FieldLogger) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Service{repo: repo, seq: seq, periods: periods, clock: clock, tx: tx, logger: logger}
}

// CreateEmployeeInput は社員登録時の入力です。日付は YYYY-MM-DD または MM/DD/YYYY を受け付けます。
type CreateEmployeeInput struct {
	EmployeeNo       string
	FullName         string
	BirthDate        string
	HireDate         string
	NationalID       string
	IDNo             string
	Address          string
	PhoneNumber      string
	Department       string
	JobTitle         string
	Branch           string
	ManagerName      string
	ContractType     string
	NoticePeriodDays int
	Notes            string
	Documents        Documents
}

// UpdateEmployeeInput は社員情報更新時の入力です。状態はここでは変更できません。
type UpdateEmployeeInput struct {
	ID               string
	EmployeeNo       *string
	FullName         *string
	BirthDate        *string
	HireDate         *string
	NationalID       *string
	IDNo             *string
	Address          *string
	PhoneNumber      *string
	Department       *string
	JobTitle         *string
	Branch           *string
	ManagerName      *string
	ContractType     *string
	NoticePeriodDays *int
	Notes            *string
	Documents        *Documents
}

// Scope は一覧の対象範囲です。
type Scope string

const (
	ScopeCurrent   Scope = "current"
	ScopeSeparated Scope = "separated"
	ScopeAll       Scope = "all"
)

// ListEmployeesInput は一覧取得時の入力です。
type ListEmployeesInput struct {
	Scope      Scope
	Status     string
	Search     string
	Department string
	Branch     string
	Sort       string
}

// CreateEmployee は社員を登録し、入社日から始まる在籍期間を開きます。
func (s *Service) CreateEmployee(ctx context.Context, in CreateEmployeeInput) (*Employee, error) {
	fullName := strings.TrimSpace(in.FullName)
	if fullName == "" {
		return nil, ErrInvalidFullName
	}

	birthDate, err := ParseDate(in.BirthDate)
	if err != nil {
		return nil, fmt.Errorf("birth_date: %w", err)
	}
	hireDate, err := ParseDate(in.HireDate)
	if err != nil {
		return nil, fmt.Errorf("hire_date: %w", err)
	}

	contract, err := normalizeContractType(in.ContractType)
	if err != nil {
		return nil, err
	}
	if in.NoticePeriodDays < 0 {
		return nil, ErrInvalidNoticePeriod
	}

	var created *Employee
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		employeeNo := strings.ToUpper(strings.TrimSpace(in.EmployeeNo))
		if employeeNo == "" {
			next, err := s.NextEmployeeNo(txCtx)
			if err != nil {
				return err
			}
			employeeNo = next
		}

		now := s.clock.Now()
		emp := &Employee{
			EmployeeNo:       employeeNo,
			FullName:         fullName,
			BirthDate:        birthDate,
			HireDate:         hireDate,
			NationalID:       optionalString(in.NationalID),
			IDNo:             optionalString(in.IDNo),
			Address:          optionalString(in.Address),
			PhoneNumber:      optionalString(in.PhoneNumber),
			Department:       optionalString(in.Department),
			JobTitle:         optionalString(in.JobTitle),
			Branch:           optionalString(in.Branch),
			ManagerName:      optionalString(in.ManagerName),
			ContractType:     contract,
			NoticePeriodDays: in.NoticePeriodDays,
			Notes:            optionalString(in.Notes),
			Documents:        normalizeDocuments(in.Documents),
			Status:           StatusActive,
			CreatedAt:        now,
			UpdatedAt:        now,
		}

		if err := s.ensureIdentifiersAvailable(txCtx, emp); err != nil {
			return err
		}

		result, err := s.repo.Create(txCtx, emp)
		if err != nil {
			return err
		}

		if s.periods != nil {
			if _, err := s.periods.OpenPeriod(txCtx, period.OpenPeriodInput{EmployeeID: result.ID, StartDate: result.HireDate}); err != nil {
				return err
			}
		}

		created = result
		return nil
	}); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"employee_id": created.ID,
		"employee_no": created.EmployeeNo,
	}).Info("employee created")

	return created, nil
}

// UpdateEmployee は社員の識別情報や属性を更新します。
func (s *Service) UpdateEmployee(ctx context.Context, in UpdateEmployeeInput) (*Employee, error) {
	id, err := normalizeID(in.ID)
	if err != nil {
		return nil, err
	}

	var updated *Employee
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return err
		}

		if in.EmployeeNo != nil {
			no := strings.ToUpper(strings.TrimSpace(*in.EmployeeNo))
			if no == "" {
				return ErrInvalidEmployeeNo
			}
			existing.EmployeeNo = no
		}
		if in.FullName != nil {
			name := strings.TrimSpace(*in.FullName)
			if name == "" {
				return ErrInvalidFullName
			}
			existing.FullName = name
		}
		if in.BirthDate != nil {
			d, err := ParseDate(*in.BirthDate)
			if err != nil {
				return fmt.Errorf("birth_date: %w", err)
			}
			existing.BirthDate = d
		}
		if in.HireDate != nil {
			d, err := ParseDate(*in.HireDate)
			if err != nil {
				return fmt.Errorf("hire_date: %w", err)
			}
			existing.HireDate = d
		}
		if in.ContractType != nil {
			c, err := normalizeContractType(*in.ContractType)
			if err != nil {
				return err
			}
			existing.ContractType = c
		}
		if in.NoticePeriodDays != nil {
			if *in.NoticePeriodDays < 0 {
				return ErrInvalidNoticePeriod
			}
			existing.NoticePeriodDays = *in.NoticePeriodDays
		}
		if in.Documents != nil {
			existing.Documents = normalizeDocuments(*in.Documents)
		}

		applyOptional(&existing.NationalID, in.NationalID)
		applyOptional(&existing.IDNo, in.IDNo)
		applyOptional(&existing.Address, in.Address)
		applyOptional(&existing.PhoneNumber, in.PhoneNumber)
		applyOptional(&existing.Department, in.Department)
		applyOptional(&existing.JobTitle, in.JobTitle)
		applyOptional(&existing.Branch, in.Branch)
		applyOptional(&existing.ManagerName, in.ManagerName)
		applyOptional(&existing.Notes, in.Notes)

		if err := s.ensureIdentifiersAvailable(txCtx, existing); err != nil {
			return err
		}

		existing.UpdatedAt = s.clock.Now()

		result, err := s.repo.Update(txCtx, existing)
		if err != nil {
			return err
		}
		updated = result
		return nil
	}); err != nil {
		return nil, err
	}

	return updated, nil
}

// GetEmployee は社員を取得します。
func (s *Service) GetEmployee(ctx context.Context, id string) (*Employee, error) {
	normalized, err := normalizeID(id)
	if err != nil {
		return nil, err
	}

	var result *Employee
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.repo.FindByID(txCtx, normalized)
		if err != nil {
			return err
		}
		result = found
		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}

// ListEmployees は社員の一覧を取得します。既定では退職者を除外します。
func (s *Service) ListEmployees(ctx context.Context, in ListEmployeesInput) ([]*Employee, error) {
	filter := ListEmployeesFilter{
		Search:     strings.TrimSpace(in.Search),
		Department: strings.TrimSpace(in.Department),
		Branch:     strings.TrimSpace(in.Branch),
		Sort:       SortEmployeeNo,
	}

	if raw := strings.TrimSpace(in.Sort); raw != "" {
		sortOrder := SortOrder(strings.ToLower(raw))
		switch sortOrder {
		case SortEmployeeNo, SortNewest, SortName:
			filter.Sort = sortOrder
		default:
			return nil, ErrInvalidSort
		}
	}

	rawStatus := strings.TrimSpace(in.Status)
	switch {
	case rawStatus != "" && !strings.EqualFold(rawStatus, "ALL"):
		status, err := ParseStatus(rawStatus)
		if err != nil {
			return nil, err
		}
		filter.Statuses = []Status{status}
	case in.Scope == ScopeSeparated:
		filter.Statuses = []Status{StatusResigned, StatusTerminated}
	case in.Scope == ScopeAll:
	default:
		filter.Statuses = []Status{StatusActive, StatusOnHold}
	}

	var employees []*Employee
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, err := s.repo.List(txCtx, filter)
		if err != nil {
			return err
		}
		employees = result
		return nil
	}); err != nil {
		return nil, err
	}

	return employees, nil
}

// NextEmployeeNo は次に払い出される社員番号を返します。
func (s *Service) NextEmployeeNo(ctx context.Context) (string, error) {
	if s.seq == nil {
		return "", errors.New("employee: number sequence is not configured")
	}
	return s.seq.NextEmployeeNo(ctx)
}

func (s *Service) ensureIdentifiersAvailable(ctx context.Context, e *Employee) error {
	candidates := []struct {
		field IdentifierField
		value *string
	}{
		{FieldEmployeeNo, &e.EmployeeNo},
		{FieldNationalID, e.NationalID},
		{FieldIDNo, e.IDNo},
	}

	for _, c := range candidates {
		if c.value == nil || *c.value == "" {
			continue
		}
		found, err := s.repo.FindByIdentifier(ctx, c.field, *c.value)
		if err != nil {
			if errors.Is(err, ErrEmployeeNotFound) {
				continue
			}
			return err
		}
		if found.ID != e.ID {
			return NewDuplicateIdentifierError(c.field)
		}
	}
	return nil
}

var dateLayouts = []string{"2006-01-02", "01/02/2006"}

// ParseDate は YYYY-MM-DD または MM/DD/YYYY 形式の日付を解釈します。
func ParseDate(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, ErrInvalidDate
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrInvalidDate
}

func normalizeID(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if _, err := uuid.Parse(trimmed); err != nil {
		return "", fmt.Errorf("id: %w", ErrInvalidID)
	}
	return trimmed, nil
}

func normalizeContractType(raw string) (ContractType, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ContractFullTime, nil
	}
	c := ContractType(strings.ToUpper(trimmed))
	if !c.valid() {
		return "", ErrInvalidContractType
	}
	return c, nil
}

func normalizeDocuments(d Documents) Documents {
	for _, flag := range []*DocumentFlag{&d.NationalIDCopy, &d.ContractSigned, &d.CVReceived, &d.MedicalCheck} {
		if !flag.Received {
			flag.Date = nil
		}
	}
	return d
}

func optionalString(v string) *string {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func applyOptional(dst **string, src *string) {
	if src == nil {
		return
	}
	*dst = optionalString(*src)
}

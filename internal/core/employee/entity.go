package employee

import (
	"strings"
	"time"
)

// Status は社員の在籍状態を表します。
type Status string

const (
	StatusActive     Status = "ACTIVE"
	StatusOnHold     Status = "ON_HOLD"
	StatusResigned   Status = "RESIGNED"
	StatusTerminated Status = "TERMINATED"
)

// ParseStatus は大文字小文字を区別せずに状態を解釈します。
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", ErrInvalidStatus
	}
	return s, nil
}

// Valid は定義済みの状態かを返します。
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusOnHold, StatusResigned, StatusTerminated:
		return true
	default:
		return false
	}
}

// IsSeparated は退職状態 (RESIGNED / TERMINATED) かを返します。
func (s Status) IsSeparated() bool {
	return s == StatusResigned || s == StatusTerminated
}

// ContractType は雇用契約の種別です。
type ContractType string

const (
	ContractFullTime ContractType = "FULL_TIME"
	ContractPartTime ContractType = "PART_TIME"
	ContractTemp     ContractType = "TEMP"
	ContractIntern   ContractType = "INTERN"
	ContractContract ContractType = "CONTRACT"
)

func (c ContractType) valid() bool {
	switch c {
	case ContractFullTime, ContractPartTime, ContractTemp, ContractIntern, ContractContract:
		return true
	default:
		return false
	}
}

// Separation は退職時に社員レコードへ記録される情報です。
// ACTIVE / ON_HOLD の間はゼロ値です。
type Separation struct {
	Type                  Status
	Date                  *time.Time
	Reason                *string
	FinalWorkingDay       *time.Time
	EligibleForRehire     *bool
	NoticeGiven           *bool
	NoticeDaysServed      *int
	ExitInterviewDone     bool
	ClearanceDone         bool
	ClearanceAmount       *float64
	ClearanceChequeNumber *string
}

// IsZero は退職情報が空かを返します。
func (s Separation) IsZero() bool {
	return s.Type == "" &&
		s.Date == nil &&
		s.Reason == nil &&
		s.FinalWorkingDay == nil &&
		s.EligibleForRehire == nil &&
		s.NoticeGiven == nil &&
		s.NoticeDaysServed == nil &&
		!s.ExitInterviewDone &&
		!s.ClearanceDone &&
		s.ClearanceAmount == nil &&
		s.ClearanceChequeNumber == nil
}

// DocumentFlag は書類の受領状況です。
type DocumentFlag struct {
	Received bool
	Date     *time.Time
}

// Documents は入社書類の受領フラグ一式です。
type Documents struct {
	NationalIDCopy DocumentFlag
	ContractSigned DocumentFlag
	CVReceived     DocumentFlag
	MedicalCheck   DocumentFlag
}

// Employee は社員エンティティです。
type Employee struct {
	ID               string
	EmployeeNo       string
	FullName         string
	BirthDate        time.Time
	HireDate         time.Time
	NationalID       *string
	IDNo             *string
	Address          *string
	PhoneNumber      *string
	Department       *string
	JobTitle         *string
	Branch           *string
	ManagerName      *string
	ContractType     ContractType
	NoticePeriodDays int
	Notes            *string
	Documents        Documents
	Status           Status
	Separation       Separation
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Age は now 時点の満年齢を返します。
func (e *Employee) Age(now time.Time) int {
	if e.BirthDate.IsZero() {
		return 0
	}
	age := now.Year() - e.BirthDate.Year()
	if now.Month() < e.BirthDate.Month() || (now.Month() == e.BirthDate.Month() && now.Day() < e.BirthDate.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}

// StatusUpdate は状態遷移による社員レコードの更新内容です。
// 更新は From と現在の状態が一致する場合のみ適用されます。
type StatusUpdate struct {
	ID         string
	From       Status
	To         Status
	Separation Separation
	UpdatedAt  time.Time
}

// IdentifierField は一意制約を持つ識別子の列名です。
type IdentifierField string

const (
	FieldEmployeeNo IdentifierField = "employee_no"
	FieldNationalID IdentifierField = "national_id"
	FieldIDNo       IdentifierField = "id_no"
)

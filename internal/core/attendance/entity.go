package attendance

import (
	"strings"
	"time"

	"github.com/ogurasousui/codex-staff-ledger/internal/core/employee"
)

// Status は一日の出欠状態です。
type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLeave   Status = "leave"
)

// ParseStatus は大文字小文字を区別せずに出欠状態を解釈します。
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case StatusPresent, StatusAbsent, StatusLeave:
		return s, nil
	default:
		return "", ErrInvalidStatus
	}
}

// DayLayout は日付キーの書式です。
const DayLayout = "2006-01-02"

// Record は社員一人の一日分の出欠です。(EmployeeID, Day) で一意です。
// StartTime は present の場合のみ HH:MM:SS 形式で保持されます。
type Record struct {
	EmployeeID string
	Day        time.Time
	Status     Status
	StartTime  *string
	UpdatedAt  time.Time
}

// DayKey は Day を YYYY-MM-DD 形式で返します。
func (r *Record) DayKey() string {
	return r.Day.Format(DayLayout)
}

// Ledger は社員 ID、日付キーの順に出欠記録を引ける表です。
type Ledger map[string]map[string]*Record

// Get は指定した社員と日の記録を返します。
func (l Ledger) Get(employeeID string, day time.Time) *Record {
	days, ok := l[employeeID]
	if !ok {
		return nil
	}
	return days[day.Format(DayLayout)]
}

// RosterEntry は出欠表に並ぶ社員です。
type RosterEntry struct {
	EmployeeID string
	EmployeeNo string
	FullName   string
	Status     employee.Status
}

// Summary は期間内の出欠の集計です。
type Summary struct {
	Present int
	Absent  int
	Leave   int
}

func (s *Summary) add(status Status) {
	switch status {
	case StatusPresent:
		s.Present++
	case StatusAbsent:
		s.Absent++
	case StatusLeave:
		s.Leave++
	}
}

// SheetRow は月次出欠表の一行です。Cells は月の日付順で、記録が無い日は nil です。
type SheetRow struct {
	Employee RosterEntry
	Cells    []*Record
	Summary  Summary
}

// MonthlySheet は社員 × 日の月次出欠表です。
type MonthlySheet struct {
	Month time.Time
	Days  []time.Time
	Rows  []SheetRow
}

// DailyRow は日次出欠表の一行です。
type DailyRow struct {
	Employee RosterEntry
	Record   *Record
}

// DailySheet は一日分の出欠表です。
type DailySheet struct {
	Day  time.Time
	Rows []DailyRow
}

// BulkFailure は一括登録で失敗した社員とその理由です。
type BulkFailure struct {
	EmployeeID string
	Err        error
}

// BulkResult は一括登録の結果です。成功分は失敗があっても取り消されません。
type BulkResult struct {
	Day     time.Time
	Written []string
	Failed  []BulkFailure
}

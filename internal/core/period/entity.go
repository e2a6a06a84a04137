package period

import "time"

// Closure は在籍期間を閉じる際に記録される退職情報です。
type Closure struct {
	SeparationType    string
	SeparationReason  *string
	EligibleForRehire *bool
	NoticeDays        *int
}

// Period は一つの在籍期間を表します。EndDate が nil の間は継続中です。
type Period struct {
	ID         string
	EmployeeID string
	StartDate  time.Time
	EndDate    *time.Time
	Closure    *Closure
	CreatedAt  time.Time
}

// IsOpen は期間が継続中かを返します。
func (p *Period) IsOpen() bool {
	return p != nil && p.EndDate == nil
}

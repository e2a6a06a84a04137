package attendance

import (
	"context"
	"time"
)

// Repository は出欠記録の永続化の抽象です。
type Repository interface {
	// Upsert は (employee_id, day) が一致する記録を置き換えます。
	Upsert(ctx context.Context, record *Record) (*Record, error)
	// FindRange は [from, to) の記録を返します。employeeIDs が空の場合は全社員が対象です。
	FindRange(ctx context.Context, employeeIDs []string, from, to time.Time) ([]*Record, error)
}

// RosterFilter は出欠表に並べる社員の条件です。
type RosterFilter struct {
	EmployeeIDs      []string
	IncludeSeparated bool
	Search           string
}

// RosterSource は出欠表の対象社員を返します。
type RosterSource interface {
	Roster(ctx context.Context, filter RosterFilter) ([]RosterEntry, error)
}

package postgres

import (
	"context"
	"fmt"
	"strings"

	pgdb "github.com/ogurasousui/codex-staff-ledger/internal/platform/db/postgres"
)

const employeeNoPrefix = "MSD-"

// EmployeeNoSequence はデータベースのシーケンスから社員番号を払い出します。
type EmployeeNoSequence struct {
	pool pgdb.Queryer
}

// NewEmployeeNoSequence は EmployeeNoSequence を生成します。
func NewEmployeeNoSequence(pool pgdb.Queryer) *EmployeeNoSequence {
	return &EmployeeNoSequence{pool: pool}
}

// NextEmployeeNo は次の社員番号 (MSD-<n>) を返します。
func (s *EmployeeNoSequence) NextEmployeeNo(ctx context.Context) (string, error) {
	exec := pgdb.QueryerFromContext(ctx, s.pool)

	var next string
	if err := exec.QueryRow(ctx, `SELECT get_next_employee_no()`).Scan(&next); err != nil {
		return "", persistenceError("employee_no_seq.next", err)
	}
	if !strings.HasPrefix(next, employeeNoPrefix) {
		return "", persistenceError("employee_no_seq.next", fmt.Errorf("unexpected employee number format %q", next))
	}
	return next, nil
}

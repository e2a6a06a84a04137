package employee

import "context"

// Repository は社員永続化の抽象です。
type Repository interface {
	Create(ctx context.Context, employee *Employee) (*Employee, error)
	Update(ctx context.Context, employee *Employee) (*Employee, error)
	UpdateStatus(ctx context.Context, in StatusUpdate) (*Employee, error)
	FindByID(ctx context.Context, id string) (*Employee, error)
	FindByIDForUpdate(ctx context.Context, id string) (*Employee, error)
	FindByIdentifier(ctx context.Context, field IdentifierField, value string) (*Employee, error)
	List(ctx context.Context, filter ListEmployeesFilter) ([]*Employee, error)
}

// NumberSequence は社員番号 (MSD-<n>) を払い出します。
type NumberSequence interface {
	NextEmployeeNo(ctx context.Context) (string, error)
}

// SortOrder は一覧の並び順です。
type SortOrder string

const (
	SortEmployeeNo SortOrder = "employee_no"
	SortNewest     SortOrder = "newest"
	SortName       SortOrder = "name"
)

// ListEmployeesFilter は一覧取得用フィルタです。
type ListEmployeesFilter struct {
	Statuses   []Status
	Search     string
	Department string
	Branch     string
	Sort       SortOrder
}

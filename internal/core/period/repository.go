package period

import (
	"context"
	"time"
)

// Repository は在籍期間の永続化の抽象です。
type Repository interface {
	Create(ctx context.Context, p *Period) (*Period, error)
	Close(ctx context.Context, id string, endDate time.Time, closure Closure) (*Period, error)
	FindByID(ctx context.Context, id string) (*Period, error)
	FindOpenByEmployee(ctx context.Context, employeeID string) (*Period, error)
	FindLatestClosedByEmployee(ctx context.Context, employeeID string) (*Period, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]*Period, error)
}

package history

import "context"

// Repository は状態履歴の永続化の抽象です。追記と参照のみを提供します。
type Repository interface {
	Append(ctx context.Context, entry *Entry) (*Entry, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]*Entry, error)
}

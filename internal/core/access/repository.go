package access

import "context"

// ProfileRepository は権限プロファイルの永続化を行うインターフェースです。
type ProfileRepository interface {
	FindByID(ctx context.Context, id string) (*Profile, error)
	Create(ctx context.Context, profile *Profile) (*Profile, error)
}

// Cache は利用者 ID 単位の権限プロファイルキャッシュです。
type Cache interface {
	Get(ctx context.Context, subject string) (*Profile, error)
	Set(ctx context.Context, profile *Profile) error
	Delete(ctx context.Context, subject string) error
}

package access

import "errors"

var (
	// ErrProfileNotFound はプロファイルが存在しない場合に返却されます。
	ErrProfileNotFound = errors.New("access: profile not found")
	// ErrInvalidSubject は利用者 ID が不正な場合に返却されます。
	ErrInvalidSubject = errors.New("access: invalid subject")
	// ErrCacheMiss はキャッシュに値が存在しない場合に返却されます。
	ErrCacheMiss = errors.New("access: cache miss")
	// ErrUnauthenticated は Principal が解決できない場合に返却されます。
	ErrUnauthenticated = errors.New("access: unauthenticated")
	// ErrAdminRequired は管理者権限が必要な場合に返却されます。
	ErrAdminRequired = errors.New("access: admin capability required")
)

package access

import (
	"context"
	"time"
)

// Profile は ID プロバイダの利用者に紐づく権限プロファイルです。
type Profile struct {
	ID           string
	IsAdmin      bool
	CanTerminate bool
	CreatedAt    time.Time
}

// Principal はリクエストを行っている利用者と権限です。
type Principal struct {
	UserID       string
	IsAdmin      bool
	CanTerminate bool
}

// PrincipalFromProfile は Profile から Principal を組み立てます。
func PrincipalFromProfile(p *Profile) Principal {
	if p == nil {
		return Principal{}
	}
	return Principal{UserID: p.ID, IsAdmin: p.IsAdmin, CanTerminate: p.CanTerminate}
}

type principalContextKey struct{}

// WithPrincipal はコンテキストに Principal を格納します。
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext はコンテキストに格納された Principal を返します。
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}

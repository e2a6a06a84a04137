package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/ogurasousui/codex-staff-ledger/internal/core/access"
)

const profileKeyPrefix = "profile:"

// ProfileCache は権限プロファイルを利用者 ID 単位で Redis に保持します。
type ProfileCache struct {
	client goredis.Cmdable
	ttl    time.Duration
}

// NewProfileCache は ProfileCache を生成します。ttl が 0 以下の場合は期限を設定しません。
func NewProfileCache(client goredis.Cmdable, ttl time.Duration) *ProfileCache {
	if ttl < 0 {
		ttl = 0
	}
	return &ProfileCache{client: client, ttl: ttl}
}

type cachedProfile struct {
	ID           string    `json:"id"`
	IsAdmin      bool      `json:"is_admin"`
	CanTerminate bool      `json:"can_terminate"`
	CreatedAt    time.Time `json:"created_at"`
}

// Get はキャッシュされたプロファイルを返します。存在しない場合は access.ErrCacheMiss です。
func (c *ProfileCache) Get(ctx context.Context, subject string) (*access.Profile, error) {
	raw, err := c.client.Get(ctx, profileKey(subject)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, access.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis: get profile: %w", err)
	}

	var cp cachedProfile
	if err := json.Unmarshal(raw, &cp); err != nil {
		return nil, fmt.Errorf("redis: decode profile: %w", err)
	}
	return &access.Profile{ID: cp.ID, IsAdmin: cp.IsAdmin, CanTerminate: cp.CanTerminate, CreatedAt: cp.CreatedAt}, nil
}

// Set はプロファイルを保存します。
func (c *ProfileCache) Set(ctx context.Context, profile *access.Profile) error {
	if profile == nil {
		return errors.New("redis: profile is required")
	}
	raw, err := json.Marshal(cachedProfile{
		ID:           profile.ID,
		IsAdmin:      profile.IsAdmin,
		CanTerminate: profile.CanTerminate,
		CreatedAt:    profile.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("redis: encode profile: %w", err)
	}
	if err := c.client.Set(ctx, profileKey(profile.ID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set profile: %w", err)
	}
	return nil
}

// Delete はプロファイルを破棄します。
func (c *ProfileCache) Delete(ctx context.Context, subject string) error {
	if err := c.client.Del(ctx, profileKey(subject)).Err(); err != nil {
		return fmt.Errorf("redis: delete profile: %w", err)
	}
	return nil
}

func profileKey(subject string) string {
	return profileKeyPrefix + subject
}

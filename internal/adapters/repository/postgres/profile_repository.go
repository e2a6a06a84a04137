package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/ogurasousui/codex-staff-ledger/internal/core/access"
	pgdb "github.com/ogurasousui/codex-staff-ledger/internal/platform/db/postgres"
)

// ProfileRepository は利用者の権限プロファイルを PostgreSQL に保存します。
type ProfileRepository struct {
	pool pgdb.Queryer
}

// NewProfileRepository は ProfileRepository を生成します。
func NewProfileRepository(pool pgdb.Queryer) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

// FindByID は利用者 ID でプロファイルを取得します。
func (r *ProfileRepository) FindByID(ctx context.Context, id string) (*access.Profile, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT id, is_admin, can_terminate, created_at
          FROM profiles
         WHERE id = $1
    `, id)

	found, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, access.ErrProfileNotFound
		}
		return nil, persistenceError("profiles.select", err)
	}
	return found, nil
}

// Create はプロファイルを作成します。同じ ID が既に存在する場合は既存のものを返します。
func (r *ProfileRepository) Create(ctx context.Context, p *access.Profile) (*access.Profile, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO profiles (id, is_admin, can_terminate, created_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (id) DO UPDATE SET id = EXCLUDED.id
        RETURNING id, is_admin, can_terminate, created_at
    `, p.ID, p.IsAdmin, p.CanTerminate, p.CreatedAt)

	created, err := scanProfile(row)
	if err != nil {
		return nil, persistenceError("profiles.insert", err)
	}
	return created, nil
}

func scanProfile(row pgx.Row) (*access.Profile, error) {
	var p access.Profile
	if err := row.Scan(&p.ID, &p.IsAdmin, &p.CanTerminate, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

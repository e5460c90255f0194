package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"tenant-fanout-pipeline/internal/domain"
	"tenant-fanout-pipeline/internal/domain/model"
	"tenant-fanout-pipeline/internal/domain/ports/repository"
)

var _ repository.TenantRepository = (*tenantRepo)(nil)

type tenantRepo struct {
	pool *pgxpool.Pool
}

func NewTenantRepo(pool *pgxpool.Pool) *tenantRepo {
	return &tenantRepo{pool: pool}
}

func (r *tenantRepo) Save(ctx context.Context, tx repository.Tx, t *model.Tenant) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}

	const q = `
INSERT INTO tenants (id, name, active, created_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE SET
  name   = EXCLUDED.name,
  active = EXCLUDED.active;`

	_, err := execSQL(ctx, r.pool, tx, q, t.ID, t.Name, t.Active, t.CreatedAt)
	return err
}

func (r *tenantRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Tenant, error) {
	const q = `SELECT id, name, active, created_at FROM tenants WHERE id = $1`

	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	var t model.Tenant
	if err := row.Scan(&t.ID, &t.Name, &t.Active, &t.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &t, nil
}

func (r *tenantRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.Tenant, error) {
	const q = `SELECT id, name, active, created_at FROM tenants WHERE active ORDER BY created_at`

	rows, err := pickRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Tenant
	for rows.Next() {
		var t model.Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.Active, &t.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

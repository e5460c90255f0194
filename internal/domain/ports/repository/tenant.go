package repository

import (
	"context"

	"tenant-fanout-pipeline/internal/domain/model"
)

type TenantRepository interface {
	Save(ctx context.Context, tx Tx, t *model.Tenant) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Tenant, error)
	ListActive(ctx context.Context, tx Tx) ([]*model.Tenant, error)
}

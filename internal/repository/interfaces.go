package repository

import (
	"context"
	"time"

	"github.com/medchain/inventory-api/internal/model"
)

type (
	// AuditRepository persists the admin action trail.
	AuditRepository interface {
		Create(ctx context.Context, record *model.AuditRecord) error
		List(ctx context.Context, filters map[string]interface{}) ([]*model.AuditRecord, error)
		DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	}
)

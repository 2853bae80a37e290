package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/medchain/inventory-api/internal/model"
	"github.com/medchain/inventory-api/internal/repository"
)

type auditRepository struct {
	db *sqlx.DB
}

func NewAuditRepository(db *sqlx.DB) repository.AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Create(ctx context.Context, record *model.AuditRecord) error {
	query := `
        INSERT INTO audit_records (
            id, action, resource_type, resource_id, detail, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6)
    `

	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.Action,
		record.ResourceType,
		record.ResourceID,
		record.Detail,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit record: %w", err)
	}
	return nil
}

func (r *auditRepository) List(ctx context.Context, filters map[string]interface{}) ([]*model.AuditRecord, error) {
	query := `SELECT * FROM audit_records WHERE 1=1`
	var args []interface{}

	if v, ok := filters["action"]; ok {
		query += fmt.Sprintf(" AND action = $%d", len(args)+1)
		args = append(args, v)
	}

	if v, ok := filters["resource_id"]; ok {
		query += fmt.Sprintf(" AND resource_id = $%d", len(args)+1)
		args = append(args, v)
	}

	query += " ORDER BY created_at DESC"

	var records []*model.AuditRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list audit records: %w", err)
	}
	return records, nil
}

func (r *auditRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM audit_records WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune audit records: %w", err)
	}
	return res.RowsAffected()
}

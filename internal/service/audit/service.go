package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/medchain/inventory-api/internal/model"
	"github.com/medchain/inventory-api/internal/repository"
)

// Service records admin actions. A nil *Service is a no-op, so callers
// never need to guard their Log calls.
type Service struct {
	repo repository.AuditRepository
}

func NewService(repo repository.AuditRepository) *Service {
	return &Service{repo: repo}
}

// Log writes one audit record. Audit failures are logged and swallowed;
// they never fail the admin operation being audited.
func (s *Service) Log(ctx context.Context, action, resourceType, resourceID, detail string) {
	if s == nil {
		return
	}

	record := &model.AuditRecord{
		ID:           uuid.New(),
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Detail:       detail,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, record); err != nil {
		log.Error().Err(err).
			Str("action", action).
			Str("resource_id", resourceID).
			Msg("failed to write audit record")
	}
}

func (s *Service) List(ctx context.Context, filters map[string]interface{}) ([]*model.AuditRecord, error) {
	return s.repo.List(ctx, filters)
}

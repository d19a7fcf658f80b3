package service

import (
	"context"
	"time"

	"github.com/33hpS/PRISE-WAS-PRO2/internal/dto"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/model"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// AuditService keeps the observational change log. Recording never fails the
// operation that triggered it.
type AuditService interface {
	Record(ctx context.Context, action, entity, entityID, details string)
	List(ctx context.Context, page, limit int) (*dto.AuditListResponse, error)
}

type auditService struct {
	repo repository.AuditRepository
	now  func() time.Time
}

func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo, now: time.Now}
}

func (s *auditService) Record(ctx context.Context, action, entity, entityID, details string) {
	e := model.AuditEvent{
		ID:     uuid.NewString(),
		At:     s.now().UTC(),
		Action: action,
		Entity: entity,
	}
	if entityID != "" {
		e.EntityID = strPtr(entityID)
	}
	if details != "" {
		e.Details = strPtr(details)
	}
	if err := s.repo.Prepend(ctx, e); err != nil {
		log.Warn().Err(err).Str("action", action).Str("entity", entity).Msg("audit: failed to record event")
	}
}

func (s *auditService) List(ctx context.Context, page, limit int) (*dto.AuditListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}
	events, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, err
	}
	return &dto.AuditListResponse{Data: events, Total: total, Page: page, Limit: limit}, nil
}

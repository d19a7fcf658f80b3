package repository

import (
	"context"

	"github.com/33hpS/PRISE-WAS-PRO2/internal/infra"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/model"
)

// MaxAuditEvents caps the stored log; the oldest entries fall off the end.
const MaxAuditEvents = 1000

// AuditRepository stores the newest-first event log.
type AuditRepository interface {
	Prepend(ctx context.Context, e model.AuditEvent) error
	List(ctx context.Context, page, limit int) ([]model.AuditEvent, int64, error)
}

type auditRepo struct{ store infra.Store }

func NewAuditRepository(store infra.Store) AuditRepository {
	return &auditRepo{store: store}
}

func (r *auditRepo) Prepend(ctx context.Context, e model.AuditEvent) error {
	events, err := decodeList[model.AuditEvent](ctx, r.store, KeyAudit, nil)
	if err != nil {
		return err
	}
	events = append([]model.AuditEvent{e}, events...)
	if len(events) > MaxAuditEvents {
		events = events[:MaxAuditEvents]
	}
	return infra.WriteJSON(ctx, r.store, KeyAudit, events)
}

// List returns one page of events, newest first.
func (r *auditRepo) List(ctx context.Context, page, limit int) ([]model.AuditEvent, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}
	events, err := decodeList[model.AuditEvent](ctx, r.store, KeyAudit, nil)
	if err != nil {
		return nil, 0, err
	}
	total := int64(len(events))

	offset := (page - 1) * limit
	if offset >= len(events) {
		return []model.AuditEvent{}, total, nil
	}
	end := offset + limit
	if end > len(events) {
		end = len(events)
	}
	return events[offset:end], total, nil
}

package repository

import (
	"context"

	"github.com/33hpS/PRISE-WAS-PRO2/internal/infra"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/model"
)

// RuleRepository holds the two independent markup tables.
type RuleRepository interface {
	ListProductTypes(ctx context.Context) ([]model.ProductTypeRule, error)
	SaveProductTypes(ctx context.Context, rules []model.ProductTypeRule) error
	ListFinishTypes(ctx context.Context) ([]model.FinishTypeRule, error)
	SaveFinishTypes(ctx context.Context, rules []model.FinishTypeRule) error
}

type ruleRepo struct{ store infra.Store }

func NewRuleRepository(store infra.Store) RuleRepository {
	return &ruleRepo{store: store}
}

func (r *ruleRepo) ListProductTypes(ctx context.Context) ([]model.ProductTypeRule, error) {
	return decodeList(ctx, r.store, KeyProductTypes, func(t *model.ProductTypeRule) bool {
		return t.ID != ""
	})
}

func (r *ruleRepo) SaveProductTypes(ctx context.Context, rules []model.ProductTypeRule) error {
	return infra.WriteJSON(ctx, r.store, KeyProductTypes, rules)
}

func (r *ruleRepo) ListFinishTypes(ctx context.Context) ([]model.FinishTypeRule, error) {
	return decodeList(ctx, r.store, KeyFinishTypes, func(f *model.FinishTypeRule) bool {
		return f.ID != ""
	})
}

func (r *ruleRepo) SaveFinishTypes(ctx context.Context, rules []model.FinishTypeRule) error {
	return infra.WriteJSON(ctx, r.store, KeyFinishTypes, rules)
}

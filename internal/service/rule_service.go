package service

import (
	"context"
	"strings"

	"github.com/33hpS/PRISE-WAS-PRO2/internal/dto"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/model"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RuleService manages the product-type and finish-type markup tables.
// Deleting a rule leaves product references dangling; they price as if no
// rule were set.
type RuleService interface {
	ListProductTypes(ctx context.Context) ([]model.ProductTypeRule, error)
	CreateProductType(ctx context.Context, req dto.ProductTypeRequest) (*model.ProductTypeRule, error)
	UpdateProductType(ctx context.Context, id string, req dto.ProductTypeRequest) (*model.ProductTypeRule, error)
	DeleteProductType(ctx context.Context, id string) error

	ListFinishTypes(ctx context.Context) ([]model.FinishTypeRule, error)
	CreateFinishType(ctx context.Context, req dto.FinishTypeRequest) (*model.FinishTypeRule, error)
	UpdateFinishType(ctx context.Context, id string, req dto.FinishTypeRequest) (*model.FinishTypeRule, error)
	DeleteFinishType(ctx context.Context, id string) error
}

type ruleService struct {
	repo     repository.RuleRepository
	audit    AuditService
	notifier ChangeNotifier
}

func NewRuleService(repo repository.RuleRepository, audit AuditService, notifier ChangeNotifier) RuleService {
	return &ruleService{repo: repo, audit: audit, notifier: notifierOrNop(notifier)}
}

func validateMarkup(name string, markup decimal.Decimal) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", invalid("name is required")
	}
	if markup.IsNegative() || markup.GreaterThan(model.MaxMarkupPercent) {
		return "", invalid("markup must be between 0 and %s percent", model.MaxMarkupPercent)
	}
	return name, nil
}

func (s *ruleService) ListProductTypes(ctx context.Context) ([]model.ProductTypeRule, error) {
	return s.repo.ListProductTypes(ctx)
}

func (s *ruleService) CreateProductType(ctx context.Context, req dto.ProductTypeRequest) (*model.ProductTypeRule, error) {
	name, err := validateMarkup(req.Name, req.MarkupPercent)
	if err != nil {
		return nil, err
	}
	if req.LaborCost.IsNegative() {
		return nil, invalid("labor cost must not be negative")
	}
	rules, err := s.repo.ListProductTypes(ctx)
	if err != nil {
		return nil, err
	}
	r := model.ProductTypeRule{ID: uuid.NewString(), Name: name, MarkupPercent: req.MarkupPercent, LaborCost: req.LaborCost}
	if err := s.repo.SaveProductTypes(ctx, append(rules, r)); err != nil {
		return nil, err
	}
	s.committed(ctx, "create", "product_type", r.ID, r.Name)
	return &r, nil
}

func (s *ruleService) UpdateProductType(ctx context.Context, id string, req dto.ProductTypeRequest) (*model.ProductTypeRule, error) {
	name, err := validateMarkup(req.Name, req.MarkupPercent)
	if err != nil {
		return nil, err
	}
	if req.LaborCost.IsNegative() {
		return nil, invalid("labor cost must not be negative")
	}
	rules, err := s.repo.ListProductTypes(ctx)
	if err != nil {
		return nil, err
	}
	for i := range rules {
		if rules[i].ID != id {
			continue
		}
		rules[i].Name = name
		rules[i].MarkupPercent = req.MarkupPercent
		rules[i].LaborCost = req.LaborCost
		if err := s.repo.SaveProductTypes(ctx, rules); err != nil {
			return nil, err
		}
		s.committed(ctx, "update", "product_type", id, name)
		return &rules[i], nil
	}
	return nil, notFound("product type", id)
}

func (s *ruleService) DeleteProductType(ctx context.Context, id string) error {
	rules, err := s.repo.ListProductTypes(ctx)
	if err != nil {
		return err
	}
	for i := range rules {
		if rules[i].ID == id {
			name := rules[i].Name
			if err := s.repo.SaveProductTypes(ctx, append(rules[:i], rules[i+1:]...)); err != nil {
				return err
			}
			s.committed(ctx, "delete", "product_type", id, name)
			return nil
		}
	}
	return notFound("product type", id)
}

func (s *ruleService) ListFinishTypes(ctx context.Context) ([]model.FinishTypeRule, error) {
	return s.repo.ListFinishTypes(ctx)
}

func (s *ruleService) CreateFinishType(ctx context.Context, req dto.FinishTypeRequest) (*model.FinishTypeRule, error) {
	name, err := validateMarkup(req.Name, req.MarkupPercent)
	if err != nil {
		return nil, err
	}
	if req.LaborCost != nil && req.LaborCost.IsNegative() {
		return nil, invalid("labor cost must not be negative")
	}
	rules, err := s.repo.ListFinishTypes(ctx)
	if err != nil {
		return nil, err
	}
	r := model.FinishTypeRule{ID: uuid.NewString(), Name: name, MarkupPercent: req.MarkupPercent, LaborCost: req.LaborCost}
	if err := s.repo.SaveFinishTypes(ctx, append(rules, r)); err != nil {
		return nil, err
	}
	s.committed(ctx, "create", "finish_type", r.ID, r.Name)
	return &r, nil
}

func (s *ruleService) UpdateFinishType(ctx context.Context, id string, req dto.FinishTypeRequest) (*model.FinishTypeRule, error) {
	name, err := validateMarkup(req.Name, req.MarkupPercent)
	if err != nil {
		return nil, err
	}
	if req.LaborCost != nil && req.LaborCost.IsNegative() {
		return nil, invalid("labor cost must not be negative")
	}
	rules, err := s.repo.ListFinishTypes(ctx)
	if err != nil {
		return nil, err
	}
	for i := range rules {
		if rules[i].ID != id {
			continue
		}
		rules[i].Name = name
		rules[i].MarkupPercent = req.MarkupPercent
		rules[i].LaborCost = req.LaborCost
		if err := s.repo.SaveFinishTypes(ctx, rules); err != nil {
			return nil, err
		}
		s.committed(ctx, "update", "finish_type", id, name)
		return &rules[i], nil
	}
	return nil, notFound("finish type", id)
}

func (s *ruleService) DeleteFinishType(ctx context.Context, id string) error {
	rules, err := s.repo.ListFinishTypes(ctx)
	if err != nil {
		return err
	}
	for i := range rules {
		if rules[i].ID == id {
			name := rules[i].Name
			if err := s.repo.SaveFinishTypes(ctx, append(rules[:i], rules[i+1:]...)); err != nil {
				return err
			}
			s.committed(ctx, "delete", "finish_type", id, name)
			return nil
		}
	}
	return notFound("finish type", id)
}

func (s *ruleService) committed(ctx context.Context, action, entity, id, name string) {
	s.audit.Record(ctx, action, entity, id, name)
	s.notifier.Notify(eventType(action), entity, id)
}

package service

import (
	"context"

	"github.com/33hpS/PRISE-WAS-PRO2/internal/dto"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/model"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/pricing"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/repository"
)

// catalogReader loads the reference tables needed to present products.
type catalogReader struct {
	materials   repository.MaterialRepository
	rules       repository.RuleRepository
	collections repository.CollectionRepository
}

// snapshot is one consistent read of materials, rules and collections.
type snapshot struct {
	resolver    *pricing.Resolver
	collections map[string]model.Collection
}

func (c catalogReader) load(ctx context.Context) (*snapshot, error) {
	materials, err := c.materials.List(ctx)
	if err != nil {
		return nil, err
	}
	types, err := c.rules.ListProductTypes(ctx)
	if err != nil {
		return nil, err
	}
	finishes, err := c.rules.ListFinishTypes(ctx)
	if err != nil {
		return nil, err
	}
	collections, err := c.collections.List(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]model.Collection, len(collections))
	for _, col := range collections {
		byID[col.ID] = col
	}
	return &snapshot{
		resolver:    pricing.NewResolver(materials, pricing.Rules{ProductTypes: types, FinishTypes: finishes}),
		collections: byID,
	}, nil
}

// collectionName resolves the weak collection reference, or "" when unset or
// dangling.
func (s *snapshot) collectionName(id *string) string {
	if id == nil {
		return ""
	}
	if col, ok := s.collections[*id]; ok {
		return col.Name
	}
	return ""
}

// view prices p and resolves every reference it holds.
func (s *snapshot) view(p model.Product) dto.ProductResponse {
	if p.BillOfMaterials == nil {
		p.BillOfMaterials = []model.BOMItem{}
	}
	lines := make([]dto.BOMLineView, 0, len(p.BillOfMaterials))
	for _, item := range p.BillOfMaterials {
		line := dto.BOMLineView{
			LineID:     item.LineID,
			MaterialID: item.MaterialID,
			Quantity:   item.Quantity,
		}
		if m, ok := s.resolver.Material(item.MaterialID); ok {
			line.Name = m.Name
			line.Article = m.Article
			line.Unit = m.Unit
			line.UnitPrice = m.Price
			line.LineCost = item.Quantity.Mul(m.Price)
		} else {
			line.Name = pricing.NoneLabel
			line.Unresolved = true
		}
		lines = append(lines, line)
	}
	return dto.ProductResponse{
		Product:        p,
		TypeName:       s.resolver.ProductTypeName(p.ProductTypeID),
		FinishName:     s.resolver.FinishTypeName(p.FinishTypeID),
		CollectionName: s.collectionName(p.CollectionID),
		Lines:          lines,
		Price:          s.resolver.Price(p),
	}
}

package repository

import (
	"context"

	"github.com/33hpS/PRISE-WAS-PRO2/internal/infra"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/model"
)

// ProductRepository reads and replaces all products with their tech cards.
type ProductRepository interface {
	List(ctx context.Context) ([]model.Product, error)
	SaveAll(ctx context.Context, products []model.Product) error
}

type productRepo struct{ store infra.Store }

func NewProductRepository(store infra.Store) ProductRepository {
	return &productRepo{store: store}
}

func (r *productRepo) List(ctx context.Context) ([]model.Product, error) {
	return decodeList(ctx, r.store, KeyProducts, func(p *model.Product) bool {
		if p.ID == "" {
			return false
		}
		if p.BillOfMaterials == nil {
			p.BillOfMaterials = []model.BOMItem{}
		}
		return true
	})
}

func (r *productRepo) SaveAll(ctx context.Context, products []model.Product) error {
	return infra.WriteJSON(ctx, r.store, KeyProducts, products)
}

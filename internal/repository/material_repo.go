package repository

import (
	"context"
	"strings"

	"github.com/33hpS/PRISE-WAS-PRO2/internal/infra"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/model"
)

// MaterialRepository reads and replaces the whole material catalog.
type MaterialRepository interface {
	List(ctx context.Context) ([]model.Material, error)
	SaveAll(ctx context.Context, materials []model.Material) error
}

type materialRepo struct{ store infra.Store }

func NewMaterialRepository(store infra.Store) MaterialRepository {
	return &materialRepo{store: store}
}

func (r *materialRepo) List(ctx context.Context) ([]model.Material, error) {
	return decodeList(ctx, r.store, KeyMaterials, func(m *model.Material) bool {
		m.Article = strings.TrimSpace(m.Article)
		return m.ID != "" && m.Article != ""
	})
}

func (r *materialRepo) SaveAll(ctx context.Context, materials []model.Material) error {
	return infra.WriteJSON(ctx, r.store, KeyMaterials, materials)
}

package repository

import (
	"context"

	"github.com/33hpS/PRISE-WAS-PRO2/internal/infra"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/model"
)

type CollectionRepository interface {
	List(ctx context.Context) ([]model.Collection, error)
	SaveAll(ctx context.Context, collections []model.Collection) error
}

type collectionRepo struct{ store infra.Store }

func NewCollectionRepository(store infra.Store) CollectionRepository {
	return &collectionRepo{store: store}
}

func (r *collectionRepo) List(ctx context.Context) ([]model.Collection, error) {
	return decodeList(ctx, r.store, KeyCollections, func(c *model.Collection) bool {
		if c.ID == "" {
			return false
		}
		if c.ProductOrder == nil {
			c.ProductOrder = []string{}
		}
		return true
	})
}

func (r *collectionRepo) SaveAll(ctx context.Context, collections []model.Collection) error {
	return infra.WriteJSON(ctx, r.store, KeyCollections, collections)
}

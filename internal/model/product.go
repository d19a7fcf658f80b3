package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BOMItem is one tech-card line. A product holds at most one line per material.
// MaterialID may point at a deleted material; such lines are priced at zero and
// reported as unresolved.
type BOMItem struct {
	LineID     string          `json:"lineId"`
	MaterialID string          `json:"materialId"`
	Quantity   decimal.Decimal `json:"quantity"`
}

// Product owns its bill of materials. Collection, type and finish are weak
// references resolved at read time.
type Product struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Article         string    `json:"article"`
	BillOfMaterials []BOMItem `json:"billOfMaterials"`
	CollectionID    *string   `json:"collectionId,omitempty"`
	ProductTypeID   *string   `json:"productTypeId,omitempty"`
	FinishTypeID    *string   `json:"finishTypeId,omitempty"`
	ImageURL        *string   `json:"imageUrl,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// LineFor returns the index of the BOM line referencing materialID, or -1.
func (p *Product) LineFor(materialID string) int {
	for i, l := range p.BillOfMaterials {
		if l.MaterialID == materialID {
			return i
		}
	}
	return -1
}

// Clone returns a copy whose BOM slice can be patched without touching p.
func (p Product) Clone() Product {
	c := p
	c.BillOfMaterials = append([]BOMItem(nil), p.BillOfMaterials...)
	return c
}

package dto

import (
	"github.com/33hpS/PRISE-WAS-PRO2/internal/model"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/pricing"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type BOMLineRequest struct {
	MaterialID string          `json:"materialId" validate:"required"`
	Quantity   decimal.Decimal `json:"quantity"   validate:"min=0"`
}

type CreateProductRequest struct {
	Name            string           `json:"name"    validate:"required,max=200"`
	Article         string           `json:"article" validate:"required,max=100"`
	CollectionID    *string          `json:"collectionId"`
	ProductTypeID   *string          `json:"productTypeId"`
	FinishTypeID    *string          `json:"finishTypeId"`
	ImageURL        *string          `json:"imageUrl" validate:"omitempty,max=2048"`
	BillOfMaterials []BOMLineRequest `json:"billOfMaterials" validate:"dive"`
}

// UpdateProductRequest patches scalar fields. An empty string clears a
// reference.
type UpdateProductRequest struct {
	Name          *string `json:"name"    validate:"omitempty,min=1,max=200"`
	Article       *string `json:"article" validate:"omitempty,min=1,max=100"`
	CollectionID  *string `json:"collectionId"`
	ProductTypeID *string `json:"productTypeId"`
	FinishTypeID  *string `json:"finishTypeId"`
	ImageURL      *string `json:"imageUrl" validate:"omitempty,max=2048"`
}

// SetQuantityRequest carries the raw editor text; unparsable or negative
// values become 0.
type SetQuantityRequest struct {
	Quantity string `json:"quantity"`
}

type SuggestRequest struct {
	Brief string `json:"brief" validate:"max=2000"`
}

type ApplySuggestionRequest struct {
	Items []SuggestionItem `json:"items" validate:"required,min=1,dive"`
}

type SuggestionItem struct {
	Name     string          `json:"name"     validate:"required"`
	Article  string          `json:"article"`
	Quantity decimal.Decimal `json:"quantity" validate:"gt=0"`
	Unit     string          `json:"unit"`
}

type ProductFilter struct {
	Query        string `form:"q"`
	CollectionID string `form:"collectionId"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// BOMLineView is a tech-card line with its material resolved. Unresolved is
// true when the material no longer exists.
type BOMLineView struct {
	LineID     string          `json:"lineId"`
	MaterialID string          `json:"materialId"`
	Quantity   decimal.Decimal `json:"quantity"`
	Name       string          `json:"name"`
	Article    string          `json:"article"`
	Unit       string          `json:"unit"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	LineCost   decimal.Decimal `json:"lineCost"`
	Unresolved bool            `json:"unresolved,omitempty"`
}

type ProductResponse struct {
	model.Product
	TypeName       string            `json:"typeName"`
	FinishName     string            `json:"finishName"`
	CollectionName string            `json:"collectionName"`
	Lines          []BOMLineView     `json:"lines"`
	Price          pricing.Breakdown `json:"price"`
}

type SuggestResponse struct {
	Items    []SuggestionItem `json:"items"`
	Source   string           `json:"source"`
	Fallback bool             `json:"fallback"`
}

// ApplySuggestionResult reports which suggested items became BOM lines.
type ApplySuggestionResult struct {
	Product   ProductResponse `json:"product"`
	Matched   int             `json:"matched"`
	Unmatched []string        `json:"unmatched,omitempty"`
}

// PricedCatalogResponse is every product priced with the current rules.
type PricedCatalogResponse struct {
	Products        []ProductResponse `json:"products"`
	Total           decimal.Decimal   `json:"total"`
	UnresolvedLines int               `json:"unresolvedLines"`
}

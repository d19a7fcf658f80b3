package dto

import "github.com/33hpS/PRISE-WAS-PRO2/internal/model"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateCollectionRequest struct {
	Name        string  `json:"name"        validate:"required,max=200"`
	Description *string `json:"description" validate:"omitempty,max=4000"`
	Group       *string `json:"group"       validate:"omitempty,max=100"`
	CoverURL    *string `json:"coverUrl"    validate:"omitempty,max=2048"`
}

type UpdateCollectionRequest struct {
	Name        *string `json:"name"        validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=4000"`
	Group       *string `json:"group"       validate:"omitempty,max=100"`
	CoverURL    *string `json:"coverUrl"    validate:"omitempty,max=2048"`
	IsArchived  *bool   `json:"isArchived"`
	Pinned      *bool   `json:"pinned"`
}

type ReorderRequest struct {
	ProductOrder []string `json:"productOrder" validate:"required"`
}

type CollectionProductRequest struct {
	ProductID string `json:"productId" validate:"required"`
}

type DescribeRequest struct {
	Apply bool `json:"apply"`
}

type CollectionFilter struct {
	IncludeArchived bool `form:"includeArchived"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// CollectionResponse lists member products in display order. Ids of deleted
// products are left out of Products but kept in ProductOrder.
type CollectionResponse struct {
	model.Collection
	Products []ProductResponse `json:"products"`
}

type DescribeResponse struct {
	Description string `json:"description"`
	Source      string `json:"source"`
	Fallback    bool   `json:"fallback"`
	Applied     bool   `json:"applied"`
}

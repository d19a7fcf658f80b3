package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateMaterialRequest struct {
	Name    string          `json:"name"    validate:"required,max=200"`
	Article string          `json:"article" validate:"required,max=100"`
	Unit    string          `json:"unit"    validate:"max=20"`
	Price   decimal.Decimal `json:"price"   validate:"min=0"`
}

type UpdateMaterialRequest struct {
	Name    *string          `json:"name"    validate:"omitempty,min=1,max=200"`
	Article *string          `json:"article" validate:"omitempty,min=1,max=100"`
	Unit    *string          `json:"unit"    validate:"omitempty,max=20"`
	Price   *decimal.Decimal `json:"price"`
}

type MaterialFilter struct {
	Query string `form:"q"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ImportResult struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

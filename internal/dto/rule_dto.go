package dto

import "github.com/shopspring/decimal"

type ProductTypeRequest struct {
	Name          string          `json:"name"          validate:"required,max=100"`
	MarkupPercent decimal.Decimal `json:"markupPercent" validate:"min=0,max=500"`
	LaborCost     decimal.Decimal `json:"laborCost"     validate:"min=0"`
}

type FinishTypeRequest struct {
	Name          string           `json:"name"          validate:"required,max=100"`
	MarkupPercent decimal.Decimal  `json:"markupPercent" validate:"min=0,max=500"`
	LaborCost     *decimal.Decimal `json:"laborCost"`
}

package model

import "github.com/shopspring/decimal"

// ProductTypeRule carries the labor cost and first markup applied to every
// product of that type.
type ProductTypeRule struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	MarkupPercent decimal.Decimal `json:"markupPercent"`
	LaborCost     decimal.Decimal `json:"laborCost"`
}

// FinishTypeRule carries the second markup. LaborCost is informational only.
type FinishTypeRule struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	MarkupPercent decimal.Decimal  `json:"markupPercent"`
	LaborCost     *decimal.Decimal `json:"laborCost,omitempty"`
}

// MaxMarkupPercent bounds both rule tables.
var MaxMarkupPercent = decimal.NewFromInt(500)

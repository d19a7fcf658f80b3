// Package pricing computes product costs and prices from tech cards, the
// material price list and the product-type / finish-type rule tables.
//
// Every function here is pure. Missing references (a BOM line pointing at a
// deleted material, a product without a type) contribute zero instead of
// failing, so a partially configured catalog still prices.
package pricing

import (
	"github.com/33hpS/PRISE-WAS-PRO2/internal/model"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Rules bundles both markup tables as they are at calculation time.
type Rules struct {
	ProductTypes []model.ProductTypeRule
	FinishTypes  []model.FinishTypeRule
}

// Breakdown is the full price computation for one product.
type Breakdown struct {
	MaterialCost           decimal.Decimal `json:"materialCost"`
	LaborCost              decimal.Decimal `json:"laborCost"`
	BasePrice              decimal.Decimal `json:"basePrice"`
	PriceAfterType         decimal.Decimal `json:"priceAfterType"`
	FinalPrice             decimal.Decimal `json:"finalPrice"`
	MarkupPercentEffective decimal.Decimal `json:"markupPercentEffective"`
	TypeMarkup             decimal.Decimal `json:"typeMarkup"`
	FinishMarkup           decimal.Decimal `json:"finishMarkup"`
	// UnresolvedLines lists BOM line ids whose material no longer exists.
	UnresolvedLines []string `json:"unresolvedLines,omitempty"`
}

// Compute prices a single product. Callers pricing many products should build
// a Resolver once and call Price for each.
func Compute(p model.Product, materials []model.Material, rules Rules) Breakdown {
	return NewResolver(materials, rules).Price(p)
}

// Price runs the chained formula:
//
//	base  = Σ(qty × material price) + type labor
//	final = base × (1 + type markup/100) × (1 + finish markup/100)
//
// Negative quantities are not rejected here and propagate arithmetically.
func (r *Resolver) Price(p model.Product) Breakdown {
	var b Breakdown
	b.MaterialCost = decimal.Zero
	for _, line := range p.BillOfMaterials {
		m, ok := r.Material(line.MaterialID)
		if !ok {
			b.UnresolvedLines = append(b.UnresolvedLines, line.LineID)
			continue
		}
		b.MaterialCost = b.MaterialCost.Add(line.Quantity.Mul(m.Price))
	}

	b.LaborCost = decimal.Zero
	b.TypeMarkup = decimal.Zero
	if t, ok := r.ProductType(p.ProductTypeID); ok {
		b.LaborCost = t.LaborCost
		b.TypeMarkup = t.MarkupPercent
	}

	b.BasePrice = b.MaterialCost.Add(b.LaborCost)
	b.PriceAfterType = applyMarkup(b.BasePrice, b.TypeMarkup)

	b.FinishMarkup = decimal.Zero
	if f, ok := r.FinishType(p.FinishTypeID); ok {
		b.FinishMarkup = f.MarkupPercent
	}
	b.FinalPrice = applyMarkup(b.PriceAfterType, b.FinishMarkup)

	b.MarkupPercentEffective = decimal.Zero
	if b.BasePrice.IsPositive() {
		b.MarkupPercentEffective = b.FinalPrice.Sub(b.BasePrice).Div(b.BasePrice).Mul(hundred)
	}
	return b
}

func applyMarkup(amount, percent decimal.Decimal) decimal.Decimal {
	return amount.Mul(decimal.NewFromInt(1).Add(percent.Div(hundred)))
}

package pricing

import (
	"testing"

	"github.com/33hpS/PRISE-WAS-PRO2/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func strPtr(s string) *string { return &s }

func catalogFixture() ([]model.Material, Rules) {
	materials := []model.Material{
		{ID: "m-board", Name: "Chipboard 16mm", Article: "LDSP-16", Unit: "m2", Price: d("500")},
		{ID: "m-edge", Name: "Edge band 2mm", Article: "EDGE-2", Unit: "m", Price: d("35")},
		{ID: "m-hinge", Name: "Hinge", Article: "HNG-01", Unit: "pcs", Price: d("50")},
	}
	rules := Rules{
		ProductTypes: []model.ProductTypeRule{
			{ID: "t-cabinet", Name: "Cabinet", MarkupPercent: d("10"), LaborCost: d("1000")},
		},
		FinishTypes: []model.FinishTypeRule{
			{ID: "f-lacquer", Name: "Lacquer", MarkupPercent: d("50")},
		},
	}
	return materials, rules
}

func TestCompute_MarkupChaining(t *testing.T) {
	materials, rules := catalogFixture()
	p := model.Product{
		ID: "p1",
		BillOfMaterials: []model.BOMItem{
			{LineID: "l1", MaterialID: "m-board", Quantity: d("1.5")}, // 750
			{LineID: "l2", MaterialID: "m-hinge", Quantity: d("2")},   // 100
		},
		ProductTypeID: strPtr("t-cabinet"),
		FinishTypeID:  strPtr("f-lacquer"),
	}

	b := Compute(p, materials, rules)

	assert.True(t, b.MaterialCost.Equal(d("850")), b.MaterialCost.String())
	assert.True(t, b.LaborCost.Equal(d("1000")))
	assert.True(t, b.BasePrice.Equal(d("1850")))
	assert.True(t, b.PriceAfterType.Equal(d("2035")), b.PriceAfterType.String())
	assert.True(t, b.FinalPrice.Equal(d("3052.5")), b.FinalPrice.String())
	// (3052.5 - 1850) / 1850 * 100 = 65%
	assert.Equal(t, "65.00", b.MarkupPercentEffective.StringFixed(2))
	assert.Empty(t, b.UnresolvedLines)
}

func TestCompute_EmptyBOMWithoutRulesIsZero(t *testing.T) {
	materials, rules := catalogFixture()
	b := Compute(model.Product{ID: "p-empty"}, materials, rules)

	assert.True(t, b.MaterialCost.IsZero())
	assert.True(t, b.LaborCost.IsZero())
	assert.True(t, b.BasePrice.IsZero())
	assert.True(t, b.FinalPrice.IsZero())
	assert.True(t, b.MarkupPercentEffective.IsZero())
}

func TestCompute_DanglingMaterialContributesZero(t *testing.T) {
	materials, rules := catalogFixture()
	p := model.Product{
		BillOfMaterials: []model.BOMItem{
			{LineID: "l1", MaterialID: "m-edge", Quantity: d("2")},
			{LineID: "l-ghost", MaterialID: "deleted-material", Quantity: d("100")},
		},
	}

	var b Breakdown
	require.NotPanics(t, func() { b = Compute(p, materials, rules) })
	assert.True(t, b.MaterialCost.Equal(d("70")))
	assert.Equal(t, []string{"l-ghost"}, b.UnresolvedLines)
}

func TestCompute_UnknownRuleIdsDegradeToNoMarkup(t *testing.T) {
	materials, rules := catalogFixture()
	p := model.Product{
		BillOfMaterials: []model.BOMItem{{LineID: "l1", MaterialID: "m-board", Quantity: d("1")}},
		ProductTypeID:   strPtr("missing-type"),
		FinishTypeID:    strPtr("missing-finish"),
	}

	b := Compute(p, materials, rules)
	assert.True(t, b.FinalPrice.Equal(d("500")))
	assert.True(t, b.LaborCost.IsZero())
	assert.True(t, b.MarkupPercentEffective.IsZero())
}

func TestCompute_QuantityIncreaseNeverLowersPrice(t *testing.T) {
	materials, rules := catalogFixture()
	base := model.Product{
		BillOfMaterials: []model.BOMItem{
			{LineID: "l1", MaterialID: "m-board", Quantity: d("0.25")},
			{LineID: "l2", MaterialID: "m-edge", Quantity: d("3")},
		},
		ProductTypeID: strPtr("t-cabinet"),
		FinishTypeID:  strPtr("f-lacquer"),
	}
	r := NewResolver(materials, rules)
	prev := r.Price(base).FinalPrice

	for _, step := range []string{"0", "0.1", "1", "7.75", "120"} {
		for i := range base.BillOfMaterials {
			next := base.Clone()
			next.BillOfMaterials[i].Quantity = next.BillOfMaterials[i].Quantity.Add(d(step))
			got := r.Price(next).FinalPrice
			assert.True(t, got.GreaterThanOrEqual(prev), "line %d +%s: %s < %s", i, step, got, prev)
		}
	}
}

func TestCompute_NegativeQuantityPropagates(t *testing.T) {
	materials, rules := catalogFixture()
	p := model.Product{
		BillOfMaterials: []model.BOMItem{{LineID: "l1", MaterialID: "m-hinge", Quantity: d("-2")}},
	}
	b := Compute(p, materials, rules)
	assert.True(t, b.MaterialCost.Equal(d("-100")))
	assert.True(t, b.MarkupPercentEffective.IsZero())
}

func TestResolver_NamesFallBackToNone(t *testing.T) {
	_, rules := catalogFixture()
	r := NewResolver(nil, rules)
	assert.Equal(t, "Cabinet", r.ProductTypeName(strPtr("t-cabinet")))
	assert.Equal(t, NoneLabel, r.ProductTypeName(nil))
	assert.Equal(t, NoneLabel, r.FinishTypeName(strPtr("gone")))
}

func TestConvert(t *testing.T) {
	cfg := model.CurrencyConfig{
		Base:  "RUB",
		Rates: map[string]decimal.Decimal{"USD": d("0.011"), "EUR": d("0")},
	}

	got, ok := Convert(d("1000"), cfg, "usd")
	require.True(t, ok)
	assert.True(t, got.Equal(d("11")))

	got, ok = Convert(d("1000"), cfg, "RUB")
	require.True(t, ok)
	assert.True(t, got.Equal(d("1000")))

	_, ok = Convert(d("1000"), cfg, "EUR")
	assert.False(t, ok, "zero rate is unusable")
	_, ok = Convert(d("1000"), cfg, "JPY")
	assert.False(t, ok)
}

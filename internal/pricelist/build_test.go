package pricelist

import (
	"testing"

	"github.com/33hpS/PRISE-WAS-PRO2/internal/pricing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(id, typ, collection string, final string) PricedRow {
	return PricedRow{
		ProductID:      id,
		Article:        "A-" + id,
		Name:           "Product " + id,
		TypeName:       typ,
		CollectionName: collection,
		Price:          pricing.Breakdown{FinalPrice: decimal.RequireFromString(final)},
	}
}

func sampleRows() []PricedRow {
	return []PricedRow{
		row("1", "Wardrobe", "Loft", "1000.10"),
		row("2", "", "Nordic", "250"),
		row("3", "Table", "", "3052.5"),
		row("4", "Wardrobe", "Nordic", "99.99"),
		row("5", "", "", "0"),
	}
}

func TestBuild_GroupsInFirstSeenOrder(t *testing.T) {
	doc := Build(sampleRows(), Options{GroupBy: GroupType})

	names := make([]string, 0, len(doc.Groups))
	for _, g := range doc.Groups {
		names = append(names, g.Name)
	}
	assert.Equal(t, []string{"Wardrobe", Uncategorized, "Table"}, names)
	assert.Len(t, doc.Groups[0].Rows, 2)
	assert.Equal(t, "4", doc.Groups[0].Rows[1].ProductID)
}

func TestBuild_CollectionGroupingFallsBackToUncategorized(t *testing.T) {
	doc := Build(sampleRows(), Options{GroupBy: GroupCollection})

	require.Len(t, doc.Groups, 3)
	assert.Equal(t, "Loft", doc.Groups[0].Name)
	assert.Equal(t, "Nordic", doc.Groups[1].Name)
	assert.Equal(t, Uncategorized, doc.Groups[2].Name)
	assert.Len(t, doc.Groups[2].Rows, 2)
}

func TestBuild_GrandTotalMatchesSubtotalsForEveryGrouping(t *testing.T) {
	rows := sampleRows()
	want := decimal.Zero
	for _, r := range rows {
		want = want.Add(r.Price.FinalPrice)
	}

	for _, by := range []GroupBy{GroupNone, GroupType, GroupCollection} {
		t.Run(string(by), func(t *testing.T) {
			doc := Build(rows, Options{GroupBy: by, Subtotals: true, GrandTotal: true})

			sum := decimal.Zero
			for _, g := range doc.Groups {
				sum = sum.Add(g.Subtotal)
			}
			assert.True(t, sum.Equal(doc.Total), "subtotals %s != total %s", sum, doc.Total)
			assert.True(t, want.Equal(doc.Total), "rows %s != total %s", want, doc.Total)
			assert.Equal(t, len(rows), doc.RowCount())
		})
	}
}

func TestBuild_EmptyInput(t *testing.T) {
	doc := Build(nil, Options{GroupBy: GroupType, GrandTotal: true})
	assert.Empty(t, doc.Groups)
	assert.True(t, doc.Total.IsZero())
	assert.Equal(t, DefaultTheme().Name, doc.Theme.Name)
}

func TestNormalizeColumns_CanonicalOrder(t *testing.T) {
	got := NormalizeColumns([]Column{ColFinalPrice, "bogus", ColName, ColImage, ColName})
	assert.Equal(t, []Column{ColImage, ColName, ColFinalPrice}, got)

	assert.Equal(t, CanonicalColumns, NormalizeColumns(nil))
	assert.Equal(t, CanonicalColumns, NormalizeColumns([]Column{"bogus"}))
}

func TestTotalPlacement(t *testing.T) {
	doc := Build(nil, Options{Columns: []Column{ColArticle, ColName, ColFinalPrice, ColMarkup}})
	pl := doc.TotalPlacement()
	assert.Equal(t, 2, pl.LabelSpan)
	assert.Equal(t, 2, pl.ValueIndex)
	assert.Equal(t, []string{"Total", "", "10", ""}, doc.TotalCells("Total", "10"))

	onlyPrice := Build(nil, Options{Columns: []Column{ColFinalPrice}})
	assert.Equal(t, []string{"Total 10"}, onlyPrice.TotalCells("Total", "10"))

	noPrice := Build(nil, Options{Columns: []Column{ColArticle, ColName}})
	assert.Equal(t, 1, noPrice.TotalPlacement().ValueIndex)
}

func TestTheme_AccentOverrideKeepsStyle(t *testing.T) {
	base, ok := ThemeByName("Minimal")
	require.True(t, ok)

	custom, err := base.WithAccent("#f60")
	require.NoError(t, err)
	assert.Equal(t, Color{255, 102, 0}, custom.PrimaryColor)
	assert.Equal(t, base.HeaderStyle, custom.HeaderStyle)
	assert.Equal(t, base.TableStyle, custom.TableStyle)
	assert.Equal(t, base.Font, custom.Font)

	_, err = base.WithAccent("nope")
	assert.Error(t, err)
	assert.Equal(t, []string{"grid", "minimal", "modern"}, ThemeNames())
}

func TestFormatter(t *testing.T) {
	f := NewFormatter("ru", "rub")
	assert.Equal(t, "RUB", f.CurrencyCode())
	assert.Contains(t, f.Money(decimal.RequireFromString("12.345")), "RUB")

	unknown := NewFormatter("", "???")
	assert.Equal(t, "XXX", unknown.CurrencyCode())
}

func TestCellText_UnresolvedReferencesShowNone(t *testing.T) {
	r := row("1", "", "", "1")
	f := NewFormatter("en", "USD")
	assert.Equal(t, pricing.NoneLabel, CellText(r, ColType, f))
	assert.Equal(t, pricing.NoneLabel, CellText(r, ColFinish, f))
	assert.Equal(t, "", CellText(r, ColImage, f))
}

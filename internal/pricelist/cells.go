package pricelist

import "github.com/33hpS/PRISE-WAS-PRO2/internal/pricing"

// CellText is the text every renderer shows for row r in column c. The image
// column has no text.
func CellText(r PricedRow, c Column, f *Formatter) string {
	switch c {
	case ColArticle:
		return r.Article
	case ColName:
		return r.Name
	case ColType:
		return orNone(r.TypeName)
	case ColFinish:
		return orNone(r.FinishName)
	case ColMaterialCost:
		return f.Money(r.Price.MaterialCost)
	case ColLaborCost:
		return f.Money(r.Price.LaborCost)
	case ColFinalPrice:
		return f.Money(r.Price.FinalPrice)
	case ColMarkup:
		return f.Percent(r.Price.MarkupPercentEffective)
	}
	return ""
}

func orNone(s string) string {
	if s == "" {
		return pricing.NoneLabel
	}
	return s
}

// TotalPlacement says where a subtotal or grand total row puts its label and
// value. The label spans the first LabelSpan columns; the value sits in the
// final-price column, or the last column when price is not selected. A zero
// LabelSpan means the label is prefixed to the value.
type TotalPlacement struct {
	LabelSpan  int
	ValueIndex int
}

func (d *Document) TotalPlacement() TotalPlacement {
	idx := len(d.Columns) - 1
	for i, c := range d.Columns {
		if c == ColFinalPrice {
			idx = i
		}
	}
	return TotalPlacement{LabelSpan: idx, ValueIndex: idx}
}

// TotalCells expands a total row into one string per column.
func (d *Document) TotalCells(label, value string) []string {
	pl := d.TotalPlacement()
	cells := make([]string, len(d.Columns))
	if pl.LabelSpan == 0 {
		cells[pl.ValueIndex] = label + " " + value
		return cells
	}
	cells[0] = label
	cells[pl.ValueIndex] = value
	return cells
}

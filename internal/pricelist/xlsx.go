package pricelist

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Price list"

var xlsxColWidths = map[Column]float64{
	ColImage:        12,
	ColArticle:      14,
	ColName:         40,
	ColType:         18,
	ColFinish:       18,
	ColMaterialCost: 16,
	ColLaborCost:    16,
	ColFinalPrice:   16,
	ColMarkup:       10,
}

// sheetWriter keeps the first excelize error so the render can fail as a
// whole instead of producing a partly written workbook.
type sheetWriter struct {
	f   *excelize.File
	err error
}

func (w *sheetWriter) check(err error) {
	if w.err == nil && err != nil {
		w.err = err
	}
}

func (w *sheetWriter) cell(col, row int) string {
	name, err := excelize.CoordinatesToCellName(col, row)
	w.check(err)
	return name
}

func (w *sheetWriter) style(s *excelize.Style) int {
	id, err := w.f.NewStyle(s)
	w.check(err)
	return id
}

func (w *sheetWriter) set(ref string, v any) {
	if w.err == nil {
		w.check(w.f.SetCellValue(sheetName, ref, v))
	}
}

func (w *sheetWriter) styleRange(from, to string, id int) {
	if w.err == nil {
		w.check(w.f.SetCellStyle(sheetName, from, to, id))
	}
}

func (w *sheetWriter) merge(from, to string) {
	if w.err == nil {
		w.check(w.f.MergeCell(sheetName, from, to))
	}
}

// RenderXLSX writes the same groups, columns and totals as a workbook.
// Amounts are stored as numbers so the sheet stays editable. Thumbnails are
// best effort; any other write error fails the render.
func RenderXLSX(doc *Document, assets Assets) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("pricelist: render xlsx: %w", err)
	}
	w := &sheetWriter{f: f}
	fm := NewFormatter(doc.Locale, doc.Currency)
	p := doc.Theme.PrimaryColor

	titleStyle := w.style(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14, Color: p.Hex()},
	})
	headingStyle := w.style(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 12, Color: p.Hex()},
	})
	header := &excelize.Style{Font: &excelize.Font{Bold: true}}
	if doc.Theme.HeaderStyle == HeaderBanded {
		header.Font.Color = "#FFFFFF"
		header.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{p.Hex()}}
	} else {
		header.Font.Color = p.Hex()
		header.Border = []excelize.Border{{Type: "bottom", Color: p.Hex(), Style: 2}}
	}
	headerStyle := w.style(header)
	moneyFmt := "#,##0.00"
	moneyStyle := w.style(&excelize.Style{CustomNumFmt: &moneyFmt})
	pctFmt := "0.0\"%\""
	pctStyle := w.style(&excelize.Style{CustomNumFmt: &pctFmt})
	totalStyle := w.style(&excelize.Style{
		Font:         &excelize.Font{Bold: true},
		CustomNumFmt: &moneyFmt,
		Border:       []excelize.Border{{Type: "top", Color: "000000", Style: 1}},
	})

	for i, c := range doc.Columns {
		colName, err := excelize.ColumnNumberToName(i + 1)
		w.check(err)
		if w.err == nil {
			w.check(f.SetColWidth(sheetName, colName, colName, xlsxColWidths[c]))
		}
	}

	row := 1
	w.set(w.cell(1, row), doc.Title)
	w.styleRange(w.cell(1, row), w.cell(1, row), titleStyle)
	row++
	w.set(w.cell(1, row), fmt.Sprintf("%s · %s · %s", doc.Brand, fm.Date(doc.Date), fm.CurrencyCode()))
	row += 2

	writeTotal := func(label string, total decimal.Decimal) {
		pl := doc.TotalPlacement()
		if pl.LabelSpan == 0 {
			// No room left of the value: label and amount share one cell.
			cells := doc.TotalCells(label, fm.Money(total))
			w.set(w.cell(pl.ValueIndex+1, row), cells[pl.ValueIndex])
		} else {
			w.set(w.cell(1, row), label)
			if pl.LabelSpan > 1 {
				w.merge(w.cell(1, row), w.cell(pl.LabelSpan, row))
			}
			v, _ := total.Round(2).Float64()
			w.set(w.cell(pl.ValueIndex+1, row), v)
		}
		w.styleRange(w.cell(1, row), w.cell(len(doc.Columns), row), totalStyle)
		row++
	}

	for _, g := range doc.Groups {
		if g.Name != "" {
			w.set(w.cell(1, row), g.Name)
			w.styleRange(w.cell(1, row), w.cell(1, row), headingStyle)
			row++
		}
		for i, c := range doc.Columns {
			w.set(w.cell(i+1, row), c.Title())
		}
		w.styleRange(w.cell(1, row), w.cell(len(doc.Columns), row), headerStyle)
		row++

		for _, r := range g.Rows {
			for i, c := range doc.Columns {
				ref := w.cell(i+1, row)
				switch c {
				case ColImage:
					if img := assets.Thumb(r.ImageURL); img != nil && w.err == nil {
						_ = f.SetRowHeight(sheetName, row, 48)
						_ = f.AddPictureFromBytes(sheetName, ref, &excelize.Picture{
							Extension: ".png",
							File:      img.PNG,
							Format:    &excelize.GraphicOptions{AutoFit: true, LockAspectRatio: true},
						})
					}
				case ColMaterialCost, ColLaborCost, ColFinalPrice:
					w.set(ref, amount(r, c))
					w.styleRange(ref, ref, moneyStyle)
				case ColMarkup:
					w.set(ref, amount(r, c))
					w.styleRange(ref, ref, pctStyle)
				default:
					w.set(ref, CellText(r, c, fm))
				}
			}
			row++
		}
		if doc.ShowSubtotals {
			writeTotal("Subtotal", g.Subtotal)
		}
		row++
	}
	if doc.ShowGrandTotal {
		writeTotal("Grand total", doc.Total)
	}
	if w.err != nil {
		return nil, fmt.Errorf("pricelist: render xlsx: %w", w.err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("pricelist: render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func amount(r PricedRow, c Column) float64 {
	var v float64
	switch c {
	case ColMaterialCost:
		v, _ = r.Price.MaterialCost.Round(2).Float64()
	case ColLaborCost:
		v, _ = r.Price.LaborCost.Round(2).Float64()
	case ColFinalPrice:
		v, _ = r.Price.FinalPrice.Round(2).Float64()
	case ColMarkup:
		v, _ = r.Price.MarkupPercentEffective.Round(1).Float64()
	}
	return v
}

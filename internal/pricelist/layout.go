package pricelist

import (
	"fmt"

	"github.com/go-pdf/fpdf"
)

const (
	rowHeight      = 7.0
	imageRowHeight = 16.0
	imageColWidth  = 20.0
)

var columnWeights = map[Column]float64{
	ColArticle:      1.2,
	ColName:         3,
	ColType:         1.4,
	ColFinish:       1.4,
	ColMaterialCost: 1.5,
	ColLaborCost:    1.5,
	ColFinalPrice:   1.6,
	ColMarkup:       1,
}

type tableLayout struct{}

// NewTableLayout returns the themed table layout used for every group.
func NewTableLayout() TableLayout { return tableLayout{} }

func columnWidths(pdf *fpdf.Fpdf, cols []Column) []float64 {
	pageW, _ := pdf.GetPageSize()
	avail := pageW - 2*marginSide
	total := 0.0
	for _, c := range cols {
		if c == ColImage {
			avail -= imageColWidth
			continue
		}
		total += columnWeights[c]
	}
	widths := make([]float64, len(cols))
	for i, c := range cols {
		if c == ColImage {
			widths[i] = imageColWidth
			continue
		}
		widths[i] = avail * columnWeights[c] / total
	}
	return widths
}

func (tableLayout) DrawTable(c *Canvas, g Group) {
	pdf := c.PDF
	doc := c.Doc
	_, pageH := pdf.GetPageSize()
	widths := columnWidths(pdf, doc.Columns)
	rh := rowHeight
	if doc.HasColumn(ColImage) {
		rh = imageRowHeight
	}

	drawHeaderRow(c, widths)
	for i, row := range g.Rows {
		if pdf.GetY()+rh > pageH-marginBottom {
			pdf.AddPage()
			drawHeaderRow(c, widths)
		}
		fill := doc.Theme.TableStyle == TableStriped && i%2 == 1
		if fill {
			t := doc.Theme.PrimaryColor.Tint(0.9)
			pdf.SetFillColor(t.R, t.G, t.B)
		}
		border := cellBorder(doc.Theme.TableStyle)
		pdf.SetFont(c.Family, "", 8)
		for j, col := range doc.Columns {
			x, y := pdf.GetXY()
			if col == ColImage {
				pdf.CellFormat(widths[j], rh, "", border, 0, "C", fill, 0, "")
				if img := c.Assets.Thumb(row.ImageURL); img != nil {
					placeImage(pdf, fmt.Sprintf("thumb-%s", row.ImageURL), img, x+1, y+1, widths[j]-2, rh-2)
				}
				continue
			}
			align := "L"
			if col.Numeric() {
				align = "R"
			}
			text := fitText(c, CellText(row, col, c.Fmt), widths[j]-2)
			pdf.CellFormat(widths[j], rh, text, border, 0, align, fill, 0, "")
		}
		pdf.Ln(-1)
	}
}

func (tableLayout) DrawTotal(c *Canvas, label, value string) {
	pdf := c.PDF
	doc := c.Doc
	_, pageH := pdf.GetPageSize()
	if pdf.GetY()+rowHeight > pageH-marginBottom {
		pdf.AddPage()
	}
	widths := columnWidths(pdf, doc.Columns)
	pl := doc.TotalPlacement()
	cells := doc.TotalCells(label, value)
	border := "T"
	if doc.Theme.TableStyle == TableGrid {
		border = "1"
	}

	pdf.SetFont(c.Family, "B", 9)
	if pl.LabelSpan > 0 {
		span := 0.0
		for _, w := range widths[:pl.LabelSpan] {
			span += w
		}
		pdf.CellFormat(span, rowHeight, c.Text(cells[0]), border, 0, "L", false, 0, "")
	}
	for j := pl.LabelSpan; j < len(widths); j++ {
		pdf.CellFormat(widths[j], rowHeight, c.Text(cells[j]), border, 0, "R", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.Ln(2)
}

func drawHeaderRow(c *Canvas, widths []float64) {
	pdf := c.PDF
	theme := c.Doc.Theme
	p := theme.PrimaryColor

	pdf.SetFont(c.Family, "B", 8)
	fill := theme.HeaderStyle == HeaderBanded
	border := "B"
	if fill {
		pdf.SetFillColor(p.R, p.G, p.B)
		pdf.SetTextColor(255, 255, 255)
		border = ""
	} else {
		pdf.SetTextColor(p.R, p.G, p.B)
		pdf.SetDrawColor(p.R, p.G, p.B)
	}
	if theme.TableStyle == TableGrid {
		border = "1"
	}
	for j, col := range c.Doc.Columns {
		align := "L"
		if col.Numeric() {
			align = "R"
		}
		pdf.CellFormat(widths[j], rowHeight, c.Text(col.Title()), border, 0, align, fill, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetDrawColor(180, 180, 180)
}

func cellBorder(style TableStyle) string {
	if style == TableGrid {
		return "1"
	}
	return ""
}

// fitText trims s with an ellipsis until it fits in w and returns it in the
// font encoding.
func fitText(c *Canvas, s string, w float64) string {
	pdf := c.PDF
	if pdf.GetStringWidth(c.Text(s)) <= w {
		return c.Text(s)
	}
	r := []rune(s)
	for len(r) > 1 {
		r = r[:len(r)-1]
		if t := c.Text(string(r) + "..."); pdf.GetStringWidth(t) <= w {
			return t
		}
	}
	return c.Text(string(r))
}

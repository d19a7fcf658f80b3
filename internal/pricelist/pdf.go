package pricelist

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/go-pdf/fpdf"
)

var (
	// ErrEngineUnavailable means no PDF engine could be created.
	ErrEngineUnavailable = errors.New("pricelist: rendering engine unavailable")
	// ErrLayoutUnavailable means the table layout is missing.
	ErrLayoutUnavailable = errors.New("pricelist: table layout unavailable")
)

const (
	customFontFamily = "PriceListFont"
	marginSide       = 12.0
	marginTop        = 20.0
	marginBottom     = 16.0
)

// EngineFactory creates a blank document.
type EngineFactory func() (*fpdf.Fpdf, error)

// DefaultEngine is A4 landscape in millimetres.
func DefaultEngine() (*fpdf.Fpdf, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	return pdf, pdf.Error()
}

// Canvas is the drawing state handed to a TableLayout.
type Canvas struct {
	PDF    *fpdf.Fpdf
	Doc    *Document
	Fmt    *Formatter
	Assets Assets
	Family string
	tr     func(string) string
}

// Text converts s for the active font encoding.
func (c *Canvas) Text(s string) string { return c.tr(s) }

// TableLayout draws group tables and total rows at the current position.
type TableLayout interface {
	DrawTable(c *Canvas, g Group)
	DrawTotal(c *Canvas, label string, value string)
}

// PDFRenderer turns a Document into a paginated PDF.
type PDFRenderer struct {
	NewEngine EngineFactory
	Layout    TableLayout
}

func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{NewEngine: DefaultEngine, Layout: NewTableLayout()}
}

// check reports a missing engine or layout before any work is done.
func (r *PDFRenderer) check() error {
	if r == nil || r.NewEngine == nil {
		return ErrEngineUnavailable
	}
	if r.Layout == nil {
		return ErrLayoutUnavailable
	}
	return nil
}

// Render produces the whole file or an error; there is no partial output. A
// font that cannot be registered is reported as a warning and Helvetica is
// used instead.
func (r *PDFRenderer) Render(doc *Document, assets Assets, font []byte) ([]byte, []string, error) {
	if err := r.check(); err != nil {
		return nil, nil, err
	}
	pdf, err := r.NewEngine()
	if err != nil || pdf == nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}

	var warnings []string
	c := &Canvas{
		PDF:    pdf,
		Doc:    doc,
		Fmt:    NewFormatter(doc.Locale, doc.Currency),
		Assets: assets,
		Family: "Helvetica",
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
	}
	if len(font) > 0 {
		pdf.AddUTF8FontFromBytes(customFontFamily, "", font)
		pdf.AddUTF8FontFromBytes(customFontFamily, "B", font)
		if err := pdf.Error(); err != nil {
			warnings = append(warnings, fmt.Sprintf("font unavailable, using Helvetica: %v", err))
			pdf.ClearError()
		} else {
			c.Family = customFontFamily
			c.tr = func(s string) string { return s }
		}
	}

	pdf.SetMargins(marginSide, marginTop, marginSide)
	pdf.SetAutoPageBreak(false, marginBottom)
	pdf.AliasNbPages("")
	pdf.SetHeaderFuncMode(func() { drawRunningHeader(c) }, true)
	pdf.SetFooterFunc(func() { drawRunningFooter(c) })

	if doc.Cover {
		drawCover(c)
	}

	if doc.RowCount() == 0 {
		pdf.AddPage()
		pdf.SetFont(c.Family, "", 11)
		pdf.CellFormat(0, 10, c.Text("No products"), "", 1, "C", false, 0, "")
	} else {
		for i, g := range doc.Groups {
			if i == 0 || doc.PageBreaks {
				pdf.AddPage()
			}
			if g.Name != "" {
				drawGroupHeading(c, g.Name)
			}
			r.Layout.DrawTable(c, g)
			if doc.ShowSubtotals {
				r.Layout.DrawTotal(c, "Subtotal", c.Fmt.Money(g.Subtotal))
			}
		}
		if doc.ShowGrandTotal {
			r.Layout.DrawTotal(c, "Grand total", c.Fmt.Money(doc.Total))
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, warnings, fmt.Errorf("pricelist: render pdf: %w", err)
	}
	return buf.Bytes(), warnings, nil
}

func drawRunningHeader(c *Canvas) {
	pdf := c.PDF
	pageW, _ := pdf.GetPageSize()
	p := c.Doc.Theme.PrimaryColor

	pdf.SetY(8)
	pdf.SetFont(c.Family, "B", 9)
	pdf.SetTextColor(p.R, p.G, p.B)
	pdf.CellFormat((pageW-2*marginSide)/2, 5, c.Text(c.Doc.Brand), "", 0, "L", false, 0, "")
	pdf.SetFont(c.Family, "", 8)
	pdf.SetTextColor(100, 100, 100)
	pdf.CellFormat((pageW-2*marginSide)/2, 5, c.Text(c.Doc.Title), "", 1, "R", false, 0, "")
	pdf.SetDrawColor(p.R, p.G, p.B)
	pdf.Line(marginSide, 14, pageW-marginSide, 14)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetY(marginTop)
}

func drawRunningFooter(c *Canvas) {
	pdf := c.PDF
	pageW, _ := pdf.GetPageSize()
	w := (pageW - 2*marginSide) / 2

	pdf.SetY(-12)
	pdf.SetFont(c.Family, "", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(w, 5, c.Text(c.Fmt.Date(c.Doc.Date)), "", 0, "L", false, 0, "")
	pdf.CellFormat(w, 5, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "R", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

func drawGroupHeading(c *Canvas, name string) {
	pdf := c.PDF
	p := c.Doc.Theme.PrimaryColor
	_, pageH := pdf.GetPageSize()
	if pdf.GetY()+20 > pageH-marginBottom {
		pdf.AddPage()
	}
	pdf.Ln(2)
	pdf.SetFont(c.Family, "B", 12)
	pdf.SetTextColor(p.R, p.G, p.B)
	pdf.CellFormat(0, 8, c.Text(name), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

func drawCover(c *Canvas) {
	pdf := c.PDF
	doc := c.Doc
	pageW, _ := pdf.GetPageSize()
	p := doc.Theme.PrimaryColor

	pdf.AddPage()
	badge := 40.0
	x := (pageW - badge) / 2
	y := 40.0

	if logo := coverLogo(doc, c.Assets.Logo); logo != nil {
		placeImage(pdf, "cover-logo", logo, x, y, badge, badge)
	}

	pdf.SetY(y + badge + 10)
	pdf.SetFont(c.Family, "B", 24)
	pdf.SetTextColor(p.R, p.G, p.B)
	pdf.CellFormat(0, 12, c.Text(doc.Company.Name), "", 1, "C", false, 0, "")
	pdf.SetFont(c.Family, "", 16)
	pdf.SetTextColor(60, 60, 60)
	pdf.CellFormat(0, 10, c.Text(doc.Title), "", 1, "C", false, 0, "")
	pdf.SetFont(c.Family, "", 11)
	pdf.CellFormat(0, 8, c.Text(c.Fmt.Date(doc.Date)), "", 1, "C", false, 0, "")

	if doc.Company.CatalogURL != "" {
		if png, err := QRCodePNG(doc.Company.CatalogURL, 256); err == nil {
			qr := &Image{PNG: png, Width: 256, Height: 256}
			placeImage(pdf, "cover-qr", qr, (pageW-30)/2, pdf.GetY()+8, 30, 30)
		}
	}
	pdf.SetTextColor(0, 0, 0)
}

// placeImage fits img inside the w×h box at (x, y), keeping aspect ratio.
func placeImage(pdf *fpdf.Fpdf, name string, img *Image, x, y, w, h float64) {
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img.PNG))
	if pdf.Error() != nil {
		pdf.ClearError()
		return
	}
	iw, ih := float64(img.Width), float64(img.Height)
	scale := w / iw
	if ih*scale > h {
		scale = h / ih
	}
	dw, dh := iw*scale, ih*scale
	pdf.ImageOptions(name, x+(w-dw)/2, y+(h-dh)/2, dw, dh, false, opts, 0, "")
}

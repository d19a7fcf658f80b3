package pricelist

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
)

type htmlCell struct {
	Text    string
	Image   template.URL
	Numeric bool
	Span    int
}

type htmlGroup struct {
	Name        string
	BreakBefore bool
	Rows        [][]htmlCell
	Subtotal    []htmlCell
}

type htmlView struct {
	Doc        *Document
	Date       string
	Primary    string
	Tint       string
	Banded     bool
	Striped    bool
	Grid       bool
	Headers    []htmlCell
	Groups     []htmlGroup
	GrandTotal []htmlCell
	Logo       template.URL
	QRCode     template.URL
	AutoPrint  bool
}

var printView = template.Must(template.New("pricelist").Parse(`<!DOCTYPE html>
<html lang="{{.Doc.Locale}}">
<head>
<meta charset="utf-8">
<title>{{.Doc.Title}}</title>
<style>
body { font-family: system-ui, sans-serif; font-size: 11px; color: #111; margin: 16px; }
header.running { display: flex; justify-content: space-between; border-bottom: 1px solid {{.Primary}}; color: {{.Primary}}; padding-bottom: 4px; }
section.cover { text-align: center; padding-top: 80px; page-break-after: always; }
section.cover img.logo { width: 120px; height: 120px; object-fit: contain; }
h2 { color: {{.Primary}}; font-size: 15px; margin: 16px 0 6px; }
table { width: 100%; border-collapse: collapse; }
th { text-align: left; padding: 4px; {{if .Banded}}background: {{.Primary}}; color: #fff;{{else}}color: {{.Primary}}; border-bottom: 2px solid {{.Primary}};{{end}} }
td { padding: 4px; }
{{if .Grid}}th, td { border: 1px solid #bbb; }{{end}}
{{if .Striped}}tbody tr:nth-child(even) { background: {{.Tint}}; }{{end}}
.num { text-align: right; white-space: nowrap; }
tr.total td { font-weight: bold; border-top: 1px solid #333; }
td img { max-width: 56px; max-height: 56px; }
.break { page-break-before: always; }
footer { margin-top: 16px; color: #777; display: flex; justify-content: space-between; }
@media print { body { margin: 0; } }
</style>
</head>
<body{{if .AutoPrint}} onload="window.print()"{{end}}>
{{- if .Doc.Cover}}
<section class="cover">
{{- if .Logo}}<img class="logo" src="{{.Logo}}" alt="">{{end}}
<h1>{{.Doc.Company.Name}}</h1>
<p>{{.Doc.Title}}</p>
<p>{{.Date}}</p>
{{- if .QRCode}}<img class="qr" src="{{.QRCode}}" alt="" width="110" height="110">{{end}}
</section>
{{- end}}
<header class="running"><span>{{.Doc.Brand}}</span><span>{{.Doc.Title}}</span></header>
{{- range .Groups}}
<div class="group{{if .BreakBefore}} break{{end}}">
{{- if .Name}}<h2>{{.Name}}</h2>{{end}}
<table>
<thead><tr>{{range $.Headers}}<th{{if .Numeric}} class="num"{{end}}>{{.Text}}</th>{{end}}</tr></thead>
<tbody>
{{- range .Rows}}
<tr>{{range .}}<td{{if .Numeric}} class="num"{{end}}>{{if .Image}}<img src="{{.Image}}" alt="">{{else}}{{.Text}}{{end}}</td>{{end}}</tr>
{{- end}}
</tbody>
{{- if .Subtotal}}
<tfoot><tr class="total">{{range .Subtotal}}<td{{if gt .Span 1}} colspan="{{.Span}}"{{end}}{{if .Numeric}} class="num"{{end}}>{{.Text}}</td>{{end}}</tr></tfoot>
{{- end}}
</table>
</div>
{{- end}}
{{- if .GrandTotal}}
<table class="grand"><tr class="total">{{range .GrandTotal}}<td{{if gt .Span 1}} colspan="{{.Span}}"{{end}}{{if .Numeric}} class="num"{{end}}>{{.Text}}</td>{{end}}</tr></table>
{{- end}}
<footer><span>{{.Date}}</span><span>{{.Doc.Company.Name}}</span></footer>
</body>
</html>
`))

// RenderHTML produces the print view. Grouping, columns and totals are the
// same as in the PDF for the same Document.
func RenderHTML(doc *Document, assets Assets, autoPrint bool) ([]byte, error) {
	f := NewFormatter(doc.Locale, doc.Currency)
	v := htmlView{
		Doc:       doc,
		Date:      f.Date(doc.Date),
		Primary:   doc.Theme.PrimaryColor.Hex(),
		Tint:      doc.Theme.PrimaryColor.Tint(0.9).Hex(),
		Banded:    doc.Theme.HeaderStyle == HeaderBanded,
		Striped:   doc.Theme.TableStyle == TableStriped,
		Grid:      doc.Theme.TableStyle == TableGrid,
		AutoPrint: autoPrint,
	}
	if doc.Cover {
		if logo := coverLogo(doc, assets.Logo); logo != nil {
			v.Logo = pngDataURL(logo.PNG)
		}
	}
	if doc.Cover && doc.Company.CatalogURL != "" {
		if png, err := QRCodePNG(doc.Company.CatalogURL, 256); err == nil {
			v.QRCode = pngDataURL(png)
		}
	}

	for _, c := range doc.Columns {
		v.Headers = append(v.Headers, htmlCell{Text: c.Title(), Numeric: c.Numeric()})
	}
	for i, g := range doc.Groups {
		hg := htmlGroup{Name: g.Name, BreakBefore: i > 0 && doc.PageBreaks}
		for _, r := range g.Rows {
			cells := make([]htmlCell, 0, len(doc.Columns))
			for _, c := range doc.Columns {
				cell := htmlCell{Text: CellText(r, c, f), Numeric: c.Numeric()}
				if c == ColImage {
					if img := assets.Thumb(r.ImageURL); img != nil {
						cell.Image = pngDataURL(img.PNG)
					}
				}
				cells = append(cells, cell)
			}
			hg.Rows = append(hg.Rows, cells)
		}
		if doc.ShowSubtotals {
			hg.Subtotal = htmlTotalRow(doc, "Subtotal", f.Money(g.Subtotal))
		}
		v.Groups = append(v.Groups, hg)
	}
	if doc.ShowGrandTotal {
		v.GrandTotal = htmlTotalRow(doc, "Grand total", f.Money(doc.Total))
	}

	var buf bytes.Buffer
	if err := printView.Execute(&buf, v); err != nil {
		return nil, fmt.Errorf("pricelist: render html: %w", err)
	}
	return buf.Bytes(), nil
}

// htmlTotalRow merges the label columns into one colspan cell, mirroring the
// PDF total row.
func htmlTotalRow(doc *Document, label, value string) []htmlCell {
	pl := doc.TotalPlacement()
	cells := doc.TotalCells(label, value)
	var out []htmlCell
	if pl.LabelSpan > 0 {
		out = append(out, htmlCell{Text: cells[0], Span: pl.LabelSpan})
	}
	for j := pl.LabelSpan; j < len(cells); j++ {
		out = append(out, htmlCell{Text: cells[j], Numeric: true, Span: 1})
	}
	return out
}

func pngDataURL(png []byte) template.URL {
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png))
}

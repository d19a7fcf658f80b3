package pricelist

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Format is an output medium.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatHTML Format = "html"
	FormatXLSX Format = "xlsx"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatPDF, FormatHTML, FormatXLSX:
		return f, nil
	case "":
		return FormatPDF, nil
	}
	return "", fmt.Errorf("pricelist: unknown format %q", s)
}

func (f Format) ContentType() string {
	switch f {
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/pdf"
}

// Filename is PriceList_<YYYY-MM-DD>.<ext>.
func Filename(date time.Time, f Format) string {
	return fmt.Sprintf("PriceList_%s.%s", date.Format("2006-01-02"), f)
}

// Output is a rendered document. Warnings carry non-fatal problems such as a
// font that could not be loaded.
type Output struct {
	Filename    string
	ContentType string
	Data        []byte
	Warnings    []string
}

// Renderer fetches assets for a Document and dispatches to the format
// renderers.
type Renderer struct {
	Assets    *AssetFetcher
	PDF       *PDFRenderer
	FontURL   string
	AutoPrint bool
}

func NewRenderer(assets *AssetFetcher, fontURL string) *Renderer {
	if assets == nil {
		assets = NewAssetFetcher(nil)
	}
	return &Renderer{Assets: assets, PDF: NewPDFRenderer(), FontURL: fontURL, AutoPrint: true}
}

func (r *Renderer) Render(ctx context.Context, doc Document, format Format) (*Output, error) {
	if doc.Date.IsZero() {
		doc.Date = time.Now()
	}
	if format == FormatPDF {
		if err := r.PDF.check(); err != nil {
			return nil, err
		}
	}

	assets := r.fetchAssets(ctx, &doc)
	out := &Output{Filename: Filename(doc.Date, format), ContentType: format.ContentType()}

	var err error
	switch format {
	case FormatPDF:
		var font []byte
		if r.FontURL != "" {
			font, err = r.Assets.FetchFont(ctx, r.FontURL)
			if err != nil {
				out.Warnings = append(out.Warnings, fmt.Sprintf("font unavailable, using Helvetica: %v", err))
				font = nil
			}
		}
		var warnings []string
		out.Data, warnings, err = r.PDF.Render(&doc, assets, font)
		out.Warnings = append(out.Warnings, warnings...)
	case FormatHTML:
		out.Data, err = RenderHTML(&doc, assets, r.AutoPrint)
	case FormatXLSX:
		out.Data, err = RenderXLSX(&doc, assets)
	default:
		err = fmt.Errorf("pricelist: unknown format %q", format)
	}
	if err != nil {
		return nil, err
	}

	for _, w := range out.Warnings {
		log.Warn().Str("file", out.Filename).Msg("pricelist: " + w)
	}
	return out, nil
}

// fetchAssets loads the logo and thumbnails in one concurrent pass.
func (r *Renderer) fetchAssets(ctx context.Context, doc *Document) Assets {
	var urls []string
	logoURL := ""
	if doc.Cover && doc.Company.LogoURL != "" {
		logoURL = doc.Company.LogoURL
		urls = append(urls, logoURL)
	}
	if doc.HasColumn(ColImage) {
		for _, g := range doc.Groups {
			for _, row := range g.Rows {
				urls = append(urls, row.ImageURL)
			}
		}
	}
	if len(urls) == 0 {
		return Assets{}
	}
	images := r.Assets.FetchImages(ctx, urls)
	return Assets{Logo: images[logoURL], Thumbs: images}
}

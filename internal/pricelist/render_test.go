package pricelist

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/33hpS/PRISE-WAS-PRO2/internal/model"

	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// assetServer serves /ok.png, /big.png and fails everything else.
func assetServer(t *testing.T) *httptest.Server {
	small := testPNG(t, 8, 8)
	big := testPNG(t, 1200, 600)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.png":
			_, _ = w.Write(small)
		case "/big.png":
			_, _ = w.Write(big)
		case "/font.ttf":
			_, _ = w.Write([]byte("definitely not a font"))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func uncompressedRenderer(assets *AssetFetcher) *Renderer {
	r := NewRenderer(assets, "")
	r.PDF.NewEngine = func() (*fpdf.Fpdf, error) {
		pdf := fpdf.New("L", "mm", "A4", "")
		pdf.SetCompression(false)
		return pdf, nil
	}
	return r
}

func testDoc(srvURL string, opts Options) Document {
	rows := sampleRows()
	rows[0].ImageURL = srvURL + "/ok.png"
	rows[1].ImageURL = srvURL + "/missing.png"
	rows[2].ImageURL = srvURL + "/big.png"
	opts.Date = time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	opts.Locale = "en"
	opts.Currency = "USD"
	opts.Company = model.CompanyProfile{Name: "Acme Furniture", Brand: "ACME", CatalogURL: "https://example.com/catalog"}
	return Build(rows, opts)
}

func TestRender_PDFWithFailedImages(t *testing.T) {
	srv := assetServer(t)
	r := uncompressedRenderer(NewAssetFetcher(srv.Client()))
	doc := testDoc(srv.URL, Options{GroupBy: GroupType, Cover: true, Subtotals: true, GrandTotal: true})

	out, err := r.Render(context.Background(), doc, FormatPDF)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out.Data, []byte("%PDF")))
	assert.Equal(t, "PriceList_2026-03-14.pdf", out.Filename)
	assert.Equal(t, "application/pdf", out.ContentType)
	assert.Empty(t, out.Warnings)
	assert.Contains(t, string(out.Data), "Grand total")
	assert.Contains(t, string(out.Data), "Wardrobe")
}

func TestRender_HTMLMatchesPDFStructure(t *testing.T) {
	srv := assetServer(t)
	r := uncompressedRenderer(NewAssetFetcher(srv.Client()))
	cols := []Column{ColFinalPrice, ColName, ColArticle, ColType}
	doc := testDoc(srv.URL, Options{GroupBy: GroupCollection, Columns: cols, Subtotals: true, GrandTotal: true})

	htmlOut, err := r.Render(context.Background(), doc, FormatHTML)
	require.NoError(t, err)
	pdfOut, err := r.Render(context.Background(), doc, FormatPDF)
	require.NoError(t, err)

	page := string(htmlOut.Data)
	assert.Equal(t, len(doc.Groups)*len(doc.Columns), strings.Count(page, "</th>"))
	assert.Equal(t, len(doc.Groups), strings.Count(page, "<h2>"))
	assert.Equal(t, len(doc.Groups), strings.Count(page, ">Subtotal<"))
	assert.Equal(t, 1, strings.Count(page, ">Grand total<"))

	// Header order is canonical in both outputs.
	pdfText := string(pdfOut.Data)
	lastHTML, lastPDF := -1, -1
	for _, c := range doc.Columns {
		hi := strings.Index(page, ">"+c.Title()+"</th>")
		pi := strings.Index(pdfText, "("+c.Title()+")")
		require.Greater(t, hi, lastHTML, c)
		require.Greater(t, pi, lastPDF, c)
		lastHTML, lastPDF = hi, pi
	}
	for _, g := range doc.Groups {
		assert.Contains(t, page, "<h2>"+g.Name+"</h2>")
		assert.Contains(t, pdfText, "("+g.Name+")")
	}
}

func TestRender_XLSX(t *testing.T) {
	srv := assetServer(t)
	r := NewRenderer(NewAssetFetcher(srv.Client()), "")
	doc := testDoc(srv.URL, Options{GroupBy: GroupNone, Columns: []Column{ColImage, ColArticle, ColFinalPrice}, GrandTotal: true})

	out, err := r.Render(context.Background(), doc, FormatXLSX)
	require.NoError(t, err)
	assert.Equal(t, "PriceList_2026-03-14.xlsx", out.Filename)

	f, err := excelize.OpenReader(bytes.NewReader(out.Data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	// title, subtitle, blank, header, 5 rows, blank, grand total
	require.Len(t, rows, 11)
	assert.Equal(t, []string{"Image", "Article", "Price"}, rows[3])
	assert.Equal(t, "A-1", rows[4][1])
	assert.Equal(t, "Grand total", rows[10][0])
}

func TestRender_HTMLCoverFallsBackToMonogram(t *testing.T) {
	doc := Build(sampleRows(), Options{Cover: true, Company: model.CompanyProfile{Name: "Acme", LogoURL: "http://127.0.0.1:1/logo.png"}})

	page, err := RenderHTML(&doc, Assets{}, false)
	require.NoError(t, err)
	assert.Contains(t, string(page), `<img class="logo" src="data:image/png;base64,`)

	doc.Cover = false
	page, err = RenderHTML(&doc, Assets{}, false)
	require.NoError(t, err)
	assert.NotContains(t, string(page), `class="logo"`)
}

func TestRender_XLSXPriceOnlyTotalKeepsLabel(t *testing.T) {
	doc := Build(sampleRows(), Options{Columns: []Column{ColFinalPrice}, GrandTotal: true, Locale: "en", Currency: "USD"})

	data, err := RenderXLSX(&doc, Assets{})
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	last := rows[len(rows)-1]
	require.Len(t, last, 1)
	assert.True(t, strings.HasPrefix(last[0], "Grand total "), last[0])
}

func TestSheetWriter_KeepsFirstError(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	w := &sheetWriter{f: f}

	w.style(&excelize.Style{Font: &excelize.Font{Size: 500}})
	require.Error(t, w.err)
	first := w.err

	w.set(w.cell(0, 1), "x")
	assert.Equal(t, first, w.err)
}

func TestRender_FontFailureIsWarning(t *testing.T) {
	srv := assetServer(t)
	r := NewRenderer(NewAssetFetcher(srv.Client()), srv.URL+"/font.ttf")
	doc := testDoc(srv.URL, Options{})

	out, err := r.Render(context.Background(), doc, FormatPDF)
	require.NoError(t, err)
	require.Len(t, out.Warnings, 1)
	assert.Contains(t, out.Warnings[0], "font unavailable")
	assert.True(t, bytes.HasPrefix(out.Data, []byte("%PDF")))
}

func TestRender_EngineAndLayoutErrors(t *testing.T) {
	doc := Build(sampleRows(), Options{})
	ctx := context.Background()

	noEngine := NewRenderer(nil, "")
	noEngine.PDF.NewEngine = nil
	_, err := noEngine.Render(ctx, doc, FormatPDF)
	assert.ErrorIs(t, err, ErrEngineUnavailable)

	brokenEngine := NewRenderer(nil, "")
	brokenEngine.PDF.NewEngine = func() (*fpdf.Fpdf, error) { return nil, errors.New("boom") }
	_, err = brokenEngine.Render(ctx, doc, FormatPDF)
	assert.ErrorIs(t, err, ErrEngineUnavailable)

	noLayout := NewRenderer(nil, "")
	noLayout.PDF.Layout = nil
	_, err = noLayout.Render(ctx, doc, FormatPDF)
	assert.ErrorIs(t, err, ErrLayoutUnavailable)
	assert.NotErrorIs(t, err, ErrEngineUnavailable)

	// HTML does not depend on the PDF engine.
	out, err := noLayout.Render(ctx, doc, FormatHTML)
	require.NoError(t, err)
	assert.NotEmpty(t, out.Data)
}

func TestRender_EmptyDocument(t *testing.T) {
	r := NewRenderer(nil, "")
	out, err := r.Render(context.Background(), Build(nil, Options{GroupBy: GroupType}), FormatPDF)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out.Data, []byte("%PDF")))
}

func TestAssetFetcher_DownscalesAndSkipsFailures(t *testing.T) {
	srv := assetServer(t)
	f := NewAssetFetcher(srv.Client())

	imgs := f.FetchImages(context.Background(), []string{
		srv.URL + "/ok.png", srv.URL + "/big.png", srv.URL + "/broken.png", "", "ftp://nope",
	})
	require.Len(t, imgs, 2)
	big := imgs[srv.URL+"/big.png"]
	assert.Equal(t, defaultMaxPixels, big.Width)
	assert.Equal(t, defaultMaxPixels/2, big.Height)
}

func TestAssetFetcher_DataURL(t *testing.T) {
	f := NewAssetFetcher(nil)
	img, err := f.FetchImage(context.Background(), string(pngDataURL(testPNG(t, 3, 2))))
	require.NoError(t, err)
	assert.Equal(t, 3, img.Width)

	_, err = f.FetchBytes(context.Background(), "data:text/plain")
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("XLSX")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)

	_, err = ParseFormat("docx")
	assert.Error(t, err)
}

func TestCoverArtwork(t *testing.T) {
	badge, err := MonogramPNG("Acme furniture", Color{10, 20, 30}, 64)
	require.NoError(t, err)
	cfg, err := png.DecodeConfig(bytes.NewReader(badge))
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Width)

	qr, err := QRCodePNG("https://example.com", 128)
	require.NoError(t, err)
	assert.NotEmpty(t, qr)

	assert.Equal(t, "AF", initials("acme  furniture co"))
	assert.Equal(t, "P", initials("  "))
}

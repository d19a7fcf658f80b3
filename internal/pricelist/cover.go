package pricelist

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/skip2/go-qrcode"
	"golang.org/x/image/font/gofont/gobold"
)

// QRCodePNG encodes content (the online catalog link) as a PNG.
func QRCodePNG(content string, size int) ([]byte, error) {
	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("pricelist: qr code: %w", err)
	}
	return png, nil
}

// MonogramPNG draws a round badge with the initials of name, used on the
// cover when no logo is available.
func MonogramPNG(name string, c Color, size int) ([]byte, error) {
	f, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("pricelist: monogram font: %w", err)
	}
	face := truetype.NewFace(f, &truetype.Options{Size: float64(size) * 0.4})

	dc := gg.NewContext(size, size)
	dc.DrawCircle(float64(size)/2, float64(size)/2, float64(size)/2)
	dc.SetRGB255(c.R, c.G, c.B)
	dc.Fill()

	dc.SetFontFace(face)
	dc.SetRGB(1, 1, 1)
	dc.DrawStringAnchored(initials(name), float64(size)/2, float64(size)/2, 0.5, 0.35)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("pricelist: encode monogram: %w", err)
	}
	return buf.Bytes(), nil
}

// initials takes the first letter of up to two words.
// coverLogo is the company logo, or a monogram badge when no logo loaded.
func coverLogo(doc *Document, logo *Image) *Image {
	if logo != nil {
		return logo
	}
	name := doc.Company.Name
	if name == "" {
		name = doc.Brand
	}
	png, err := MonogramPNG(name, doc.Theme.PrimaryColor, 256)
	if err != nil {
		return nil
	}
	return &Image{PNG: png, Width: 256, Height: 256}
}

func initials(name string) string {
	var out []rune
	for _, w := range strings.Fields(name) {
		for _, r := range w {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				out = append(out, unicode.ToUpper(r))
				break
			}
		}
		if len(out) == 2 {
			break
		}
	}
	if len(out) == 0 {
		return "P"
	}
	return string(out)
}

package pricelist

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	_ "image/gif"
	_ "image/jpeg"

	"github.com/golang/freetype/truetype"
	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
)

const (
	maxAssetBytes     = 8 << 20
	defaultMaxPixels  = 320
	assetFetchWorkers = 8
)

// Image is a decoded asset re-encoded as PNG, ready for any renderer.
type Image struct {
	PNG    []byte
	Width  int
	Height int
}

// Assets are the images available to one render. Missing entries render as
// empty cells.
type Assets struct {
	Logo   *Image
	Thumbs map[string]*Image
}

func (a Assets) Thumb(url string) *Image {
	if url == "" || a.Thumbs == nil {
		return nil
	}
	return a.Thumbs[url]
}

// AssetFetcher loads logos, thumbnails and fonts from http(s) or data: URLs.
type AssetFetcher struct {
	Client    *http.Client
	MaxPixels int
}

func NewAssetFetcher(client *http.Client) *AssetFetcher {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &AssetFetcher{Client: client, MaxPixels: defaultMaxPixels}
}

// FetchBytes returns the raw payload behind rawURL.
func (f *AssetFetcher) FetchBytes(ctx context.Context, rawURL string) ([]byte, error) {
	rawURL = strings.TrimSpace(rawURL)
	if strings.HasPrefix(rawURL, "data:") {
		return decodeDataURL(rawURL)
	}
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("pricelist: unsupported asset url %q", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("pricelist: build asset request: %w", err)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pricelist: fetch asset: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("pricelist: fetch asset: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetBytes+1))
	if err != nil {
		return nil, fmt.Errorf("pricelist: read asset: %w", err)
	}
	if len(data) > maxAssetBytes {
		return nil, errors.New("pricelist: asset too large")
	}
	return data, nil
}

// FetchImage loads, decodes and downscales one image.
func (f *AssetFetcher) FetchImage(ctx context.Context, rawURL string) (*Image, error) {
	data, err := f.FetchBytes(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return prepareImage(data, f.MaxPixels)
}

// FetchImages loads every distinct url concurrently. Failures are logged and
// left out of the result.
func (f *AssetFetcher) FetchImages(ctx context.Context, urls []string) map[string]*Image {
	out := make(map[string]*Image)
	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(assetFetchWorkers)

	seen := make(map[string]bool)
	for _, u := range urls {
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		u := u
		g.Go(func() error {
			img, err := f.FetchImage(ctx, u)
			if err != nil {
				log.Warn().Err(err).Str("url", truncateURL(u)).Msg("pricelist: image skipped")
				return nil
			}
			mu.Lock()
			out[u] = img
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// FetchFont loads a TrueType font and checks that it parses.
func (f *AssetFetcher) FetchFont(ctx context.Context, rawURL string) ([]byte, error) {
	data, err := f.FetchBytes(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if _, err := truetype.Parse(data); err != nil {
		return nil, fmt.Errorf("pricelist: parse font: %w", err)
	}
	return data, nil
}

func prepareImage(data []byte, maxPixels int) (*Image, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("pricelist: decode image: %w", err)
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, errors.New("pricelist: empty image")
	}

	dst := image.Image(src)
	if maxPixels > 0 && (w > maxPixels || h > maxPixels) {
		scale := float64(maxPixels) / float64(w)
		if h > w {
			scale = float64(maxPixels) / float64(h)
		}
		nw, nh := max(1, int(math.Round(float64(w)*scale))), max(1, int(math.Round(float64(h)*scale)))
		rgba := image.NewRGBA(image.Rect(0, 0, nw, nh))
		draw.CatmullRom.Scale(rgba, rgba.Bounds(), src, b, draw.Over, nil)
		dst = rgba
		w, h = nw, nh
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("pricelist: encode image: %w", err)
	}
	return &Image{PNG: buf.Bytes(), Width: w, Height: h}, nil
}

// decodeDataURL handles data:[<mediatype>][;base64],<payload>.
func decodeDataURL(raw string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(raw, "data:"), ",")
	if !ok {
		return nil, errors.New("pricelist: malformed data url")
	}
	if strings.HasSuffix(meta, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("pricelist: data url: %w", err)
		}
		return data, nil
	}
	s, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("pricelist: data url: %w", err)
	}
	return []byte(s), nil
}

func truncateURL(u string) string {
	if len(u) > 80 {
		return u[:80] + "..."
	}
	return u
}

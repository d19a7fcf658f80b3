package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/33hpS/PRISE-WAS-PRO2/internal/dto"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/model"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/pricelist"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/pricing"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/repository"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// PriceListQueue hands an email job to the background workers.
type PriceListQueue interface {
	EnqueuePriceListEmail(ctx context.Context, req dto.PriceListEmailRequest) error
}

// Mailer sends a rendered file. infra.Mailer implements it.
type Mailer interface {
	Enabled() bool
	SendPriceList(to, subject, body, filePath string) error
}

// PriceListService prices the catalog and renders it as a document.
type PriceListService interface {
	Render(ctx context.Context, req dto.PriceListRequest) (*pricelist.Output, error)
	EnqueueEmail(ctx context.Context, req dto.PriceListEmailRequest) (*dto.EnqueueResponse, error)
	// Deliver renders, stores and mails a price list. Workers call it.
	Deliver(ctx context.Context, req dto.PriceListEmailRequest) error
}

type PriceListConfig struct {
	DefaultLocale string
	StoragePath   string
}

type priceListService struct {
	products repository.ProductRepository
	settings repository.SettingsRepository
	catalog  catalogReader
	renderer *pricelist.Renderer
	queue    PriceListQueue
	mailer   Mailer
	audit    AuditService
	cfg      PriceListConfig
	now      func() time.Time
}

func NewPriceListService(
	products repository.ProductRepository,
	materials repository.MaterialRepository,
	rules repository.RuleRepository,
	collections repository.CollectionRepository,
	settings repository.SettingsRepository,
	renderer *pricelist.Renderer,
	queue PriceListQueue,
	mailer Mailer,
	audit AuditService,
	cfg PriceListConfig,
) PriceListService {
	if renderer == nil {
		renderer = pricelist.NewRenderer(nil, "")
	}
	return &priceListService{
		products: products,
		settings: settings,
		catalog:  catalogReader{materials: materials, rules: rules, collections: collections},
		renderer: renderer,
		queue:    queue,
		mailer:   mailer,
		audit:    audit,
		cfg:      cfg,
		now:      time.Now,
	}
}

func (s *priceListService) Render(ctx context.Context, req dto.PriceListRequest) (*pricelist.Output, error) {
	format, err := pricelist.ParseFormat(req.Format)
	if err != nil {
		return nil, invalid("%v", err)
	}
	opts, err := s.options(ctx, req)
	if err != nil {
		return nil, err
	}
	rows, warnings, err := s.rows(ctx, req.CollectionID, &opts)
	if err != nil {
		return nil, err
	}

	out, err := s.renderer.Render(ctx, pricelist.Build(rows, opts), format)
	if err != nil {
		return nil, err
	}
	out.Warnings = append(warnings, out.Warnings...)
	s.audit.Record(ctx, "export", "pricelist", "", fmt.Sprintf("%s rows=%d", out.Filename, len(rows)))
	return out, nil
}

// EnqueueEmail queues the job when workers are running and delivers inline
// otherwise.
func (s *priceListService) EnqueueEmail(ctx context.Context, req dto.PriceListEmailRequest) (*dto.EnqueueResponse, error) {
	if s.mailer == nil || !s.mailer.Enabled() {
		return nil, invalid("email delivery is not configured")
	}
	format, err := pricelist.ParseFormat(req.Format)
	if err != nil {
		return nil, invalid("%v", err)
	}
	if _, err := s.options(ctx, req.PriceListRequest); err != nil {
		return nil, err
	}
	resp := &dto.EnqueueResponse{Filename: pricelist.Filename(s.now(), format)}
	if s.queue != nil {
		if err := s.queue.EnqueuePriceListEmail(ctx, req); err != nil {
			return nil, err
		}
		resp.Queued = true
		return resp, nil
	}
	if err := s.Deliver(ctx, req); err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *priceListService) Deliver(ctx context.Context, req dto.PriceListEmailRequest) error {
	out, err := s.Render(ctx, req.PriceListRequest)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.cfg.StoragePath, 0o755); err != nil {
		return fmt.Errorf("pricelist: create storage dir: %w", err)
	}
	path := filepath.Join(s.cfg.StoragePath, out.Filename)
	if err := os.WriteFile(path, out.Data, 0o644); err != nil {
		return fmt.Errorf("pricelist: write file: %w", err)
	}

	subject := req.Subject
	if subject == "" {
		subject = strings.TrimSuffix(out.Filename, filepath.Ext(out.Filename))
	}
	body := "The current price list is attached."
	if len(out.Warnings) > 0 {
		body += "\n\nNotes:\n- " + strings.Join(out.Warnings, "\n- ")
	}
	if err := s.mailer.SendPriceList(req.To, subject, body, path); err != nil {
		return err
	}
	log.Info().Str("to", req.To).Str("file", out.Filename).Msg("pricelist: emailed")
	return nil
}

// options translates the request into explicit build options. Unknown
// columns are ignored; an unknown grouping, theme or accent is rejected.
func (s *priceListService) options(ctx context.Context, req dto.PriceListRequest) (pricelist.Options, error) {
	groupBy, err := pricelist.ParseGroupBy(req.GroupBy)
	if err != nil {
		return pricelist.Options{}, invalid("%v", err)
	}
	opts := pricelist.Options{
		GroupBy:    groupBy,
		Cover:      req.Cover,
		Subtotals:  req.Subtotals,
		PageBreaks: req.PageBreaks,
		GrandTotal: req.GrandTotal,
		Locale:     req.Locale,
		Currency:   req.Currency,
		Company:    s.settings.Company(ctx),
		Title:      req.Title,
		Date:       s.now(),
	}
	if opts.Locale == "" {
		opts.Locale = s.cfg.DefaultLocale
	}

	theme := pricelist.DefaultTheme()
	if req.Theme != "" {
		t, ok := pricelist.ThemeByName(req.Theme)
		if !ok {
			return opts, invalid("unknown theme %q", req.Theme)
		}
		theme = t
	}
	if req.Accent != "" {
		t, err := theme.WithAccent(req.Accent)
		if err != nil {
			return opts, invalid("%v", err)
		}
		theme = t
	}
	opts.Theme = theme

	for _, raw := range req.Columns {
		for _, c := range strings.Split(raw, ",") {
			if c = strings.TrimSpace(c); c != "" {
				opts.Columns = append(opts.Columns, pricelist.Column(c))
			}
		}
	}
	return opts, nil
}

// rows prices every product, or the live members of one collection in
// display order, and converts amounts into the requested currency.
func (s *priceListService) rows(ctx context.Context, collectionID string, opts *pricelist.Options) ([]pricelist.PricedRow, []string, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	snap, err := s.catalog.load(ctx)
	if err != nil {
		return nil, nil, err
	}
	if collectionID != "" {
		c, ok := snap.collections[collectionID]
		if !ok {
			return nil, nil, notFound("collection", collectionID)
		}
		products = membersInOrder(c, products)
	}

	var warnings []string
	cfg := s.settings.Currency(ctx)
	code := strings.ToUpper(opts.Currency)
	if code == "" {
		code = cfg.Base
	}
	rate, ok := cfg.Rate(code)
	if !ok {
		warnings = append(warnings, fmt.Sprintf("no rate for %s, prices shown in %s", code, cfg.Base))
		code, rate = cfg.Base, decimal.NewFromInt(1)
	}
	opts.Currency = code

	rows := make([]pricelist.PricedRow, 0, len(products))
	for _, p := range products {
		row := pricelist.PricedRow{
			ProductID:      p.ID,
			Article:        p.Article,
			Name:           p.Name,
			TypeName:       snap.resolver.ProductTypeName(p.ProductTypeID),
			FinishName:     snap.resolver.FinishTypeName(p.FinishTypeID),
			CollectionName: snap.collectionName(p.CollectionID),
			Price:          convertBreakdown(snap.resolver.Price(p), rate),
		}
		if p.ImageURL != nil {
			row.ImageURL = *p.ImageURL
		}
		if row.TypeName == pricing.NoneLabel {
			row.TypeName = ""
		}
		if row.FinishName == pricing.NoneLabel {
			row.FinishName = ""
		}
		rows = append(rows, row)
	}
	return rows, warnings, nil
}

func membersInOrder(c model.Collection, products []model.Product) []model.Product {
	byID := make(map[string]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	out := make([]model.Product, 0, len(c.ProductOrder))
	for _, id := range c.ProductOrder {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

// convertBreakdown scales the money fields; percentages are unchanged.
func convertBreakdown(b pricing.Breakdown, rate decimal.Decimal) pricing.Breakdown {
	if rate.Equal(decimal.NewFromInt(1)) {
		return b
	}
	b.MaterialCost = b.MaterialCost.Mul(rate)
	b.LaborCost = b.LaborCost.Mul(rate)
	b.BasePrice = b.BasePrice.Mul(rate)
	b.PriceAfterType = b.PriceAfterType.Mul(rate)
	b.FinalPrice = b.FinalPrice.Mul(rate)
	return b
}

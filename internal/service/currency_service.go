package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/33hpS/PRISE-WAS-PRO2/internal/dto"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/model"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/pricing"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// RateCacheTTL is how long a fetched rate is reused before the endpoint is
// asked again.
const RateCacheTTL = 4 * time.Hour

// RateSource fetches one conversion rate. infra.FXClient implements it.
type RateSource interface {
	Enabled() bool
	Rate(ctx context.Context, base, symbol string) (decimal.Decimal, error)
}

// CurrencyService manages the conversion table used for price-list output.
type CurrencyService interface {
	Get(ctx context.Context) model.CurrencyConfig
	Put(ctx context.Context, req dto.CurrencyRequest) (model.CurrencyConfig, error)
	Convert(ctx context.Context, amount decimal.Decimal, code string) dto.ConvertResponse
	RefreshRates(ctx context.Context) (*dto.RefreshRatesResponse, error)
}

type currencyService struct {
	settings repository.SettingsRepository
	rates    RateSource
	rdb      *redis.Client
	audit    AuditService
	notifier ChangeNotifier
}

// NewCurrencyService wires the rate source and cache. Both may be nil; the
// table is then maintained by hand only.
func NewCurrencyService(settings repository.SettingsRepository, rates RateSource, rdb *redis.Client, audit AuditService, notifier ChangeNotifier) CurrencyService {
	return &currencyService{settings: settings, rates: rates, rdb: rdb, audit: audit, notifier: notifierOrNop(notifier)}
}

func (s *currencyService) Get(ctx context.Context) model.CurrencyConfig {
	return s.settings.Currency(ctx)
}

func (s *currencyService) Put(ctx context.Context, req dto.CurrencyRequest) (model.CurrencyConfig, error) {
	base := strings.ToUpper(strings.TrimSpace(req.Base))
	if len(base) != 3 {
		return model.CurrencyConfig{}, invalid("base must be a 3-letter code")
	}
	for code, r := range req.Rates {
		if r.IsNegative() {
			return model.CurrencyConfig{}, invalid("rate for %s must not be negative", code)
		}
	}
	cfg := model.CurrencyConfig{Base: base, Extras: req.Extras, Rates: req.Rates}
	if err := s.settings.SaveCurrency(ctx, cfg); err != nil {
		return model.CurrencyConfig{}, err
	}
	s.audit.Record(ctx, "update", "currency", "", base)
	s.notifier.Notify("updated", "currency", "")
	return s.settings.Currency(ctx), nil
}

// Convert expresses a base-currency amount in code. Without a usable rate
// the amount is returned in the base currency and Converted is false.
func (s *currencyService) Convert(ctx context.Context, amount decimal.Decimal, code string) dto.ConvertResponse {
	cfg := s.settings.Currency(ctx)
	converted, ok := pricing.Convert(amount, cfg, code)
	if !ok {
		return dto.ConvertResponse{Amount: amount, Currency: cfg.Base}
	}
	return dto.ConvertResponse{Amount: converted, Currency: strings.ToUpper(code), Converted: true}
}

// RefreshRates fetches every extra currency concurrently. A symbol that
// cannot be fetched keeps its stored rate; one failure never aborts the rest.
func (s *currencyService) RefreshRates(ctx context.Context) (*dto.RefreshRatesResponse, error) {
	cfg, err := s.settings.CurrencyForUpdate(ctx)
	if err != nil {
		return nil, err
	}
	resp := &dto.RefreshRatesResponse{Updated: []string{}, Kept: []string{}}
	if s.rates == nil || !s.rates.Enabled() {
		resp.Config = cfg
		resp.Kept = append(resp.Kept, cfg.Extras...)
		return resp, nil
	}

	var (
		mu    sync.Mutex
		fresh = make(map[string]decimal.Decimal, len(cfg.Extras))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, symbol := range cfg.Extras {
		g.Go(func() error {
			rate, err := s.rate(gctx, cfg.Base, symbol)
			if err != nil {
				log.Warn().Err(err).Str("symbol", symbol).Msg("currency: keeping stored rate")
				return nil
			}
			mu.Lock()
			fresh[symbol] = rate
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if cfg.Rates == nil {
		cfg.Rates = map[string]decimal.Decimal{}
	}
	for _, symbol := range cfg.Extras {
		if rate, ok := fresh[symbol]; ok {
			cfg.Rates[symbol] = rate
			resp.Updated = append(resp.Updated, symbol)
		} else {
			resp.Kept = append(resp.Kept, symbol)
		}
	}
	sort.Strings(resp.Updated)
	sort.Strings(resp.Kept)

	if len(resp.Updated) > 0 {
		if err := s.settings.SaveCurrency(ctx, cfg); err != nil {
			return nil, err
		}
		s.audit.Record(ctx, "update", "currency", "", fmt.Sprintf("rates refreshed: %s", strings.Join(resp.Updated, ",")))
		s.notifier.Notify("updated", "currency", "")
	}
	resp.Config = s.settings.Currency(ctx)
	return resp, nil
}

// rate consults the Redis cache before the endpoint.
func (s *currencyService) rate(ctx context.Context, base, symbol string) (decimal.Decimal, error) {
	key := fmt.Sprintf("fx:%s:%s", base, symbol)
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, key).Result(); err == nil {
			if d, err := decimal.NewFromString(cached); err == nil && d.IsPositive() {
				return d, nil
			}
		}
	}
	rate, err := s.rates.Rate(ctx, base, symbol)
	if err != nil {
		return decimal.Zero, err
	}
	if s.rdb != nil {
		if err := s.rdb.Set(ctx, key, rate.String(), RateCacheTTL).Err(); err != nil {
			log.Debug().Err(err).Str("key", key).Msg("currency: cache write failed")
		}
	}
	return rate, nil
}

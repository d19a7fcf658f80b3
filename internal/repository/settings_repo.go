package repository

import (
	"context"
	"strings"

	"github.com/33hpS/PRISE-WAS-PRO2/internal/infra"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/model"

	"github.com/shopspring/decimal"
)

// SettingsRepository holds singleton documents: currency table, sync
// connection and company identity.
//
// The ForUpdate readers fail on store read errors instead of falling back,
// for callers that write the document back.
type SettingsRepository interface {
	Currency(ctx context.Context) model.CurrencyConfig
	CurrencyForUpdate(ctx context.Context) (model.CurrencyConfig, error)
	SaveCurrency(ctx context.Context, cfg model.CurrencyConfig) error
	Sync(ctx context.Context) model.SyncSettings
	SyncForUpdate(ctx context.Context) (model.SyncSettings, error)
	SaveSync(ctx context.Context, s model.SyncSettings) error
	Company(ctx context.Context) model.CompanyProfile
	SaveCompany(ctx context.Context, c model.CompanyProfile) error
}

type settingsRepo struct{ store infra.Store }

func NewSettingsRepository(store infra.Store) SettingsRepository {
	return &settingsRepo{store: store}
}

func (r *settingsRepo) Currency(ctx context.Context) model.CurrencyConfig {
	cfg := infra.ReadJSON(ctx, r.store, KeyCurrency, model.DefaultCurrencyConfig())
	return normalizeCurrency(cfg)
}

func (r *settingsRepo) CurrencyForUpdate(ctx context.Context) (model.CurrencyConfig, error) {
	cfg, err := infra.LoadJSON(ctx, r.store, KeyCurrency, model.DefaultCurrencyConfig())
	if err != nil {
		return model.CurrencyConfig{}, err
	}
	return normalizeCurrency(cfg), nil
}

func (r *settingsRepo) SaveCurrency(ctx context.Context, cfg model.CurrencyConfig) error {
	return infra.WriteJSON(ctx, r.store, KeyCurrency, normalizeCurrency(cfg))
}

func (r *settingsRepo) Sync(ctx context.Context) model.SyncSettings {
	return infra.ReadJSON(ctx, r.store, KeySync, model.SyncSettings{})
}

func (r *settingsRepo) SyncForUpdate(ctx context.Context) (model.SyncSettings, error) {
	return infra.LoadJSON(ctx, r.store, KeySync, model.SyncSettings{})
}

func (r *settingsRepo) SaveSync(ctx context.Context, s model.SyncSettings) error {
	return infra.WriteJSON(ctx, r.store, KeySync, s)
}

func (r *settingsRepo) Company(ctx context.Context) model.CompanyProfile {
	return infra.ReadJSON(ctx, r.store, KeyCompany, model.CompanyProfile{})
}

func (r *settingsRepo) SaveCompany(ctx context.Context, c model.CompanyProfile) error {
	return infra.WriteJSON(ctx, r.store, KeyCompany, c)
}

// normalizeCurrency upper-cases codes, dedupes extras and drops unusable rates.
func normalizeCurrency(cfg model.CurrencyConfig) model.CurrencyConfig {
	def := model.DefaultCurrencyConfig()
	cfg.Base = strings.ToUpper(strings.TrimSpace(cfg.Base))
	if cfg.Base == "" {
		cfg.Base = def.Base
	}
	seen := map[string]bool{cfg.Base: true}
	extras := make([]string, 0, len(cfg.Extras))
	for _, code := range cfg.Extras {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		extras = append(extras, code)
	}
	cfg.Extras = extras

	rates := make(map[string]decimal.Decimal, len(cfg.Rates))
	for code, rate := range cfg.Rates {
		if rate.IsPositive() {
			rates[strings.ToUpper(code)] = rate
		}
	}
	cfg.Rates = rates
	return cfg
}

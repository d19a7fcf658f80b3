package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CurrencyConfig is a manually maintained conversion table. Rates are the
// amount of the keyed currency per one unit of Base.
type CurrencyConfig struct {
	Base   string                     `json:"base"`
	Extras []string                   `json:"extras"`
	Rates  map[string]decimal.Decimal `json:"rates"`
}

// DefaultCurrencyConfig is used when nothing valid is stored.
func DefaultCurrencyConfig() CurrencyConfig {
	return CurrencyConfig{
		Base:   "RUB",
		Extras: []string{"USD", "EUR", "KZT", "BYN", "CNY"},
		Rates:  map[string]decimal.Decimal{},
	}
}

// Rate returns the stored rate for code. The base currency always has rate 1.
func (c CurrencyConfig) Rate(code string) (decimal.Decimal, bool) {
	code = strings.ToUpper(code)
	if code == strings.ToUpper(c.Base) {
		return decimal.NewFromInt(1), true
	}
	r, ok := c.Rates[code]
	if !ok || !r.IsPositive() {
		return decimal.Zero, false
	}
	return r, true
}

// SyncSettings holds the optional remote record-store connection. A disabled
// or incomplete configuration turns every sync operation into a no-op.
type SyncSettings struct {
	Enabled    bool   `json:"enabled"`
	URL        string `json:"url"`
	Credential string `json:"credential,omitempty"`
}

// Configured reports whether sync should actually talk to the remote store.
func (s SyncSettings) Configured() bool {
	return s.Enabled && strings.TrimSpace(s.URL) != ""
}

// CompanyProfile is the identity printed on price-list covers and headers.
type CompanyProfile struct {
	Name       string `json:"name"`
	Brand      string `json:"brand"`
	LogoURL    string `json:"logoUrl,omitempty"`
	CatalogURL string `json:"catalogUrl,omitempty"`
}

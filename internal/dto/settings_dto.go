package dto

import (
	"github.com/33hpS/PRISE-WAS-PRO2/internal/model"

	"github.com/shopspring/decimal"
)

type CurrencyRequest struct {
	Base   string                     `json:"base"   validate:"required,len=3"`
	Extras []string                   `json:"extras" validate:"dive,len=3"`
	Rates  map[string]decimal.Decimal `json:"rates"`
}

type ConvertRequest struct {
	Amount   decimal.Decimal `form:"amount"   json:"amount"`
	Currency string          `form:"currency" json:"currency" validate:"required,len=3"`
}

type ConvertResponse struct {
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Converted bool            `json:"converted"`
}

// RefreshRatesResponse lists which symbols got a fresh rate and which kept
// the stored one.
type RefreshRatesResponse struct {
	Config  model.CurrencyConfig `json:"config"`
	Updated []string             `json:"updated"`
	Kept    []string             `json:"kept"`
}

type SyncSettingsRequest struct {
	Enabled    bool    `json:"enabled"`
	URL        string  `json:"url"        validate:"omitempty,url"`
	Credential *string `json:"credential"`
}

// SyncSettingsResponse never includes the credential itself.
type SyncSettingsResponse struct {
	Enabled       bool   `json:"enabled"`
	URL           string `json:"url"`
	HasCredential bool   `json:"hasCredential"`
	Active        bool   `json:"active"`
}

type SyncResult struct {
	Pushed int `json:"pushed"`
	Pulled int `json:"pulled"`
}

type CompanyRequest struct {
	Name       string `json:"name"       validate:"max=200"`
	Brand      string `json:"brand"      validate:"max=100"`
	LogoURL    string `json:"logoUrl"    validate:"omitempty,max=2048"`
	CatalogURL string `json:"catalogUrl" validate:"omitempty,url"`
}

type AuditListResponse struct {
	Data  []model.AuditEvent `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

type AuditFilter struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

package handler

import (
	"net/http"

	"github.com/33hpS/PRISE-WAS-PRO2/internal/dto"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/service"

	"github.com/gin-gonic/gin"
)

// SettingsHandler serves currency, sync, company and audit endpoints.
type SettingsHandler struct {
	currency service.CurrencyService
	sync     service.SyncService
	company  service.CompanyService
	audit    service.AuditService
}

func NewSettingsHandler(currency service.CurrencyService, sync service.SyncService, company service.CompanyService, audit service.AuditService) *SettingsHandler {
	return &SettingsHandler{currency: currency, sync: sync, company: company, audit: audit}
}

// GetCurrency GET /v1/currency
func (h *SettingsHandler) GetCurrency(c *gin.Context) {
	c.JSON(http.StatusOK, h.currency.Get(c.Request.Context()))
}

// PutCurrency PUT /v1/currency
func (h *SettingsHandler) PutCurrency(c *gin.Context) {
	var req dto.CurrencyRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.currency.Put(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Convert GET /v1/currency/convert?amount=&currency=
func (h *SettingsHandler) Convert(c *gin.Context) {
	var req dto.ConvertRequest
	if !bindQuery(c, &req) {
		return
	}
	c.JSON(http.StatusOK, h.currency.Convert(c.Request.Context(), req.Amount, req.Currency))
}

// RefreshRates POST /v1/currency/refresh
func (h *SettingsHandler) RefreshRates(c *gin.Context) {
	resp, err := h.currency.RefreshRates(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetSync GET /v1/sync
func (h *SettingsHandler) GetSync(c *gin.Context) {
	c.JSON(http.StatusOK, h.sync.Settings(c.Request.Context()))
}

// PutSync PUT /v1/sync
func (h *SettingsHandler) PutSync(c *gin.Context) {
	var req dto.SyncSettingsRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.sync.SaveSettings(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Push POST /v1/sync/push
func (h *SettingsHandler) Push(c *gin.Context) {
	resp, err := h.sync.Push(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Pull POST /v1/sync/pull
func (h *SettingsHandler) Pull(c *gin.Context) {
	resp, err := h.sync.Pull(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetCompany GET /v1/company
func (h *SettingsHandler) GetCompany(c *gin.Context) {
	c.JSON(http.StatusOK, h.company.Get(c.Request.Context()))
}

// PutCompany PUT /v1/company
func (h *SettingsHandler) PutCompany(c *gin.Context) {
	var req dto.CompanyRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.company.Save(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Audit GET /v1/audit?page=&limit=
func (h *SettingsHandler) Audit(c *gin.Context) {
	var filter dto.AuditFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.audit.List(c.Request.Context(), filter.Page, filter.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

package handler

import (
	"net/http"

	"github.com/33hpS/PRISE-WAS-PRO2/internal/dto"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/service"

	"github.com/gin-gonic/gin"
)

type RulesHandler struct{ svc service.RuleService }

func NewRulesHandler(svc service.RuleService) *RulesHandler {
	return &RulesHandler{svc: svc}
}

// ListProductTypes GET /v1/product-types
func (h *RulesHandler) ListProductTypes(c *gin.Context) {
	resp, err := h.svc.ListProductTypes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CreateProductType POST /v1/product-types
func (h *RulesHandler) CreateProductType(c *gin.Context) {
	var req dto.ProductTypeRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateProductType(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// UpdateProductType PUT /v1/product-types/:id
func (h *RulesHandler) UpdateProductType(c *gin.Context) {
	var req dto.ProductTypeRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateProductType(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DeleteProductType DELETE /v1/product-types/:id
func (h *RulesHandler) DeleteProductType(c *gin.Context) {
	if err := h.svc.DeleteProductType(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListFinishTypes GET /v1/finish-types
func (h *RulesHandler) ListFinishTypes(c *gin.Context) {
	resp, err := h.svc.ListFinishTypes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CreateFinishType POST /v1/finish-types
func (h *RulesHandler) CreateFinishType(c *gin.Context) {
	var req dto.FinishTypeRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateFinishType(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// UpdateFinishType PUT /v1/finish-types/:id
func (h *RulesHandler) UpdateFinishType(c *gin.Context) {
	var req dto.FinishTypeRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateFinishType(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DeleteFinishType DELETE /v1/finish-types/:id
func (h *RulesHandler) DeleteFinishType(c *gin.Context) {
	if err := h.svc.DeleteFinishType(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

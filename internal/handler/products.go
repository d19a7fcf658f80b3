package handler

import (
	"net/http"

	"github.com/33hpS/PRISE-WAS-PRO2/internal/dto"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/service"

	"github.com/gin-gonic/gin"
)

type ProductsHandler struct{ svc service.ProductService }

func NewProductsHandler(svc service.ProductService) *ProductsHandler {
	return &ProductsHandler{svc: svc}
}

// List GET /v1/products?q=&collectionId=
func (h *ProductsHandler) List(c *gin.Context) {
	var filter dto.ProductFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Priced GET /v1/products/priced
func (h *ProductsHandler) Priced(c *gin.Context) {
	resp, err := h.svc.Priced(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get GET /v1/products/:id
func (h *ProductsHandler) Get(c *gin.Context) {
	resp, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Create POST /v1/products
func (h *ProductsHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Update PUT /v1/products/:id
func (h *ProductsHandler) Update(c *gin.Context) {
	var req dto.UpdateProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Delete DELETE /v1/products/:id
func (h *ProductsHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddLine POST /v1/products/:id/bom
func (h *ProductsHandler) AddLine(c *gin.Context) {
	var req dto.BOMLineRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AddBOMLine(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SetQuantity PATCH /v1/products/:id/bom/:lineId
func (h *ProductsHandler) SetQuantity(c *gin.Context) {
	var req dto.SetQuantityRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.SetBOMQuantity(c.Request.Context(), c.Param("id"), c.Param("lineId"), req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RemoveLine DELETE /v1/products/:id/bom/:lineId
func (h *ProductsHandler) RemoveLine(c *gin.Context) {
	resp, err := h.svc.RemoveBOMLine(c.Request.Context(), c.Param("id"), c.Param("lineId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Suggest POST /v1/products/:id/suggest
func (h *ProductsHandler) Suggest(c *gin.Context) {
	var req dto.SuggestRequest
	if c.Request.ContentLength != 0 && !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Suggest(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ApplySuggestion POST /v1/products/:id/suggest/apply
func (h *ProductsHandler) ApplySuggestion(c *gin.Context) {
	var req dto.ApplySuggestionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ApplySuggestion(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

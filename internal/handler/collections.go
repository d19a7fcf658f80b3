package handler

import (
	"net/http"

	"github.com/33hpS/PRISE-WAS-PRO2/internal/dto"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/service"

	"github.com/gin-gonic/gin"
)

type CollectionsHandler struct{ svc service.CollectionService }

func NewCollectionsHandler(svc service.CollectionService) *CollectionsHandler {
	return &CollectionsHandler{svc: svc}
}

// List GET /v1/collections?includeArchived=
func (h *CollectionsHandler) List(c *gin.Context) {
	var filter dto.CollectionFilter
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

// Get GET /v1/collections/:id
func (h *CollectionsHandler) Get(c *gin.Context) {
	resp, err := h.svc.Resolve(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Create POST /v1/collections
func (h *CollectionsHandler) Create(c *gin.Context) {
	var req dto.CreateCollectionRequest
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

// Update PUT /v1/collections/:id
func (h *CollectionsHandler) Update(c *gin.Context) {
	var req dto.UpdateCollectionRequest
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

// Delete DELETE /v1/collections/:id
func (h *CollectionsHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Archive PATCH /v1/collections/:id/archive and /unarchive
func (h *CollectionsHandler) Archive(archived bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp, err := h.svc.Update(c.Request.Context(), c.Param("id"), dto.UpdateCollectionRequest{IsArchived: &archived})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// Pin PATCH /v1/collections/:id/pin and /unpin
func (h *CollectionsHandler) Pin(pinned bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp, err := h.svc.Update(c.Request.Context(), c.Param("id"), dto.UpdateCollectionRequest{Pinned: &pinned})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// AddProduct POST /v1/collections/:id/products
func (h *CollectionsHandler) AddProduct(c *gin.Context) {
	var req dto.CollectionProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AddProduct(c.Request.Context(), c.Param("id"), req.ProductID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RemoveProduct DELETE /v1/collections/:id/products/:productId
func (h *CollectionsHandler) RemoveProduct(c *gin.Context) {
	resp, err := h.svc.RemoveProduct(c.Request.Context(), c.Param("id"), c.Param("productId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Reorder PUT /v1/collections/:id/order
func (h *CollectionsHandler) Reorder(c *gin.Context) {
	var req dto.ReorderRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Reorder(c.Request.Context(), c.Param("id"), req.ProductOrder)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Describe POST /v1/collections/:id/describe
func (h *CollectionsHandler) Describe(c *gin.Context) {
	var req dto.DescribeRequest
	if c.Request.ContentLength != 0 && !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.GenerateDescription(c.Request.Context(), c.Param("id"), req.Apply)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

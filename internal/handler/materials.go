package handler

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/33hpS/PRISE-WAS-PRO2/internal/apierror"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/dto"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/service"

	"github.com/gin-gonic/gin"
)

// maxCSVBytes bounds an uploaded material file.
const maxCSVBytes = 10 << 20

type MaterialsHandler struct{ svc service.MaterialService }

func NewMaterialsHandler(svc service.MaterialService) *MaterialsHandler {
	return &MaterialsHandler{svc: svc}
}

// List GET /v1/materials?q=
func (h *MaterialsHandler) List(c *gin.Context) {
	var filter dto.MaterialFilter
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

// Get GET /v1/materials/:id
func (h *MaterialsHandler) Get(c *gin.Context) {
	resp, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Create POST /v1/materials
func (h *MaterialsHandler) Create(c *gin.Context) {
	var req dto.CreateMaterialRequest
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

// Update PUT /v1/materials/:id
func (h *MaterialsHandler) Update(c *gin.Context) {
	var req dto.UpdateMaterialRequest
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

// Delete DELETE /v1/materials/:id
func (h *MaterialsHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ImportCSV POST /v1/materials/import
// Accepts a multipart "file" field or a raw text/csv body.
func (h *MaterialsHandler) ImportCSV(c *gin.Context) {
	var src io.Reader
	if fh, err := c.FormFile("file"); err == nil {
		if fh.Size > maxCSVBytes {
			c.JSON(http.StatusRequestEntityTooLarge, apierror.New("file too large"))
			return
		}
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("cannot read uploaded file"))
			return
		}
		defer f.Close()
		src = f
	} else {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxCSVBytes+1))
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("cannot read request body"))
			return
		}
		if len(body) > maxCSVBytes {
			c.JSON(http.StatusRequestEntityTooLarge, apierror.New("file too large"))
			return
		}
		src = bytes.NewReader(body)
	}

	resp, err := h.svc.ImportCSV(c.Request.Context(), src)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ExportCSV GET /v1/materials/export
func (h *MaterialsHandler) ExportCSV(c *gin.Context) {
	var buf bytes.Buffer
	if _, err := h.svc.ExportCSV(c.Request.Context(), &buf); err != nil {
		respondError(c, err)
		return
	}
	name := fmt.Sprintf("materials_%s.csv", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/33hpS/PRISE-WAS-PRO2/internal/dto"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/pricelist"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/service"

	"github.com/gin-gonic/gin"
)

// WarningsHeader carries non-fatal render problems, joined with "; ".
const WarningsHeader = "X-Pricelist-Warnings"

type PriceListHandler struct{ svc service.PriceListService }

func NewPriceListHandler(svc service.PriceListService) *PriceListHandler {
	return &PriceListHandler{svc: svc}
}

// Render GET /v1/pricelist?format=&groupBy=&theme=&columns=...
// HTML is shown inline; PDF and XLSX download as attachments.
func (h *PriceListHandler) Render(c *gin.Context) {
	var req dto.PriceListRequest
	if !bindQuery(c, &req) {
		return
	}
	out, err := h.svc.Render(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	disposition := "attachment"
	if out.ContentType == pricelist.FormatHTML.ContentType() {
		disposition = "inline"
	}
	c.Header("Content-Disposition", fmt.Sprintf(`%s; filename="%s"`, disposition, out.Filename))
	if len(out.Warnings) > 0 {
		c.Header(WarningsHeader, sanitizeHeader(strings.Join(out.Warnings, "; ")))
	}
	c.Data(http.StatusOK, out.ContentType, out.Data)
}

// Options GET /v1/pricelist/options
func (h *PriceListHandler) Options(c *gin.Context) {
	resp := dto.PriceListOptionsResponse{
		Formats: []string{string(pricelist.FormatPDF), string(pricelist.FormatHTML), string(pricelist.FormatXLSX)},
		GroupBy: []string{string(pricelist.GroupNone), string(pricelist.GroupType), string(pricelist.GroupCollection)},
		Themes:  pricelist.ThemeNames(),
	}
	for _, col := range pricelist.CanonicalColumns {
		resp.Columns = append(resp.Columns, string(col))
	}
	c.JSON(http.StatusOK, resp)
}

// Email POST /v1/pricelist/email
func (h *PriceListHandler) Email(c *gin.Context) {
	var req dto.PriceListEmailRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.EnqueueEmail(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusOK
	if resp.Queued {
		status = http.StatusAccepted
	}
	c.JSON(status, resp)
}

// sanitizeHeader keeps header values on one printable line.
func sanitizeHeader(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return ' '
		}
		return r
	}, s)
	if len(s) > 512 {
		s = s[:512]
	}
	return s
}

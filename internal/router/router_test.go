package router_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/33hpS/PRISE-WAS-PRO2/internal/config"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/dto"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/infra"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/realtime"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/router"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

const testPassword = "catalog-secret"

type api struct {
	t      *testing.T
	engine *gin.Engine
	token  string
}

func newAPI(t *testing.T) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	cfg := &config.Config{
		Env:                  "test",
		JWTSecret:            "test-secret-key",
		JWTExpirationHours:   1,
		JWTRefreshHours:      2,
		OperatorUsername:     "admin",
		OperatorPasswordHash: string(hash),
		ExportStoragePath:    t.TempDir(),
		DefaultLocale:        "en",
	}
	deps := router.Deps{Store: infra.NewMemoryStore(), Hub: realtime.NewHub()}
	a := &api{t: t, engine: router.New(cfg, deps, router.NewServices(cfg, deps))}

	w := a.do(http.MethodPost, "/v1/auth/login", dto.LoginRequest{Username: "admin", Password: testPassword})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var login dto.LoginResponse
	a.decode(w, &login)
	require.NotEmpty(t, login.AccessToken)
	a.token = login.AccessToken
	return a
}

func (a *api) do(method, path string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return a.send(req)
}

func (a *api) send(req *http.Request) *httptest.ResponseRecorder {
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func (a *api) decode(w *httptest.ResponseRecorder, dest any) {
	a.t.Helper()
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), dest), w.Body.String())
}

func (a *api) createMaterial(name, article, price string) string {
	a.t.Helper()
	w := a.do(http.MethodPost, "/v1/materials", map[string]any{
		"name": name, "article": article, "unit": "pcs", "price": price,
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	var m struct {
		ID string `json:"id"`
	}
	a.decode(w, &m)
	return m.ID
}

// ── Auth ─────────────────────────────────────────────────────────────────────

func TestAuth_ProtectedRoutesNeedToken(t *testing.T) {
	a := newAPI(t)
	a.token = ""
	w := a.do(http.MethodGet, "/v1/materials", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_WrongPassword(t *testing.T) {
	a := newAPI(t)
	a.token = ""
	w := a.do(http.MethodPost, "/v1/auth/login", dto.LoginRequest{Username: "admin", Password: "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHealth_InMemoryStore(t *testing.T) {
	a := newAPI(t)
	w := a.do(http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	a.decode(w, &body)
	assert.Equal(t, "connected", body["store"])
	assert.Equal(t, "disabled", body["redis"])
	assert.Equal(t, "disabled", body["sync"])
}

// ── Materials ────────────────────────────────────────────────────────────────

func TestMaterials_StatusMapping(t *testing.T) {
	a := newAPI(t)
	a.createMaterial("Board", "B-1", "12.50")

	w := a.do(http.MethodPost, "/v1/materials", map[string]any{"name": "Other", "article": "b-1", "price": "1"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = a.do(http.MethodPost, "/v1/materials", map[string]any{"article": "X-1", "price": "1"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = a.do(http.MethodGet, "/v1/materials/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMaterials_ImportMultipartAndExport(t *testing.T) {
	a := newAPI(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "materials.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("name;article;unit;price\nBoard;B-1;m2;12,40\nHinge;H-1;pcs;3.20\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/materials/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := a.send(req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res dto.ImportResult
	a.decode(w, &res)
	assert.Equal(t, 2, res.Created)
	assert.Empty(t, res.Errors)

	w = a.do(http.MethodGet, "/v1/materials/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "materials_")
	assert.Contains(t, w.Body.String(), "B-1")
	assert.Contains(t, w.Body.String(), "H-1")
}

// ── Products & pricing ───────────────────────────────────────────────────────

func TestProducts_PricedThroughRules(t *testing.T) {
	a := newAPI(t)
	board := a.createMaterial("Board", "B-1", "100")

	w := a.do(http.MethodPost, "/v1/product-types", map[string]any{"name": "Cabinets", "markupPercent": "50", "laborCost": "20"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var rule struct {
		ID string `json:"id"`
	}
	a.decode(w, &rule)

	w = a.do(http.MethodPost, "/v1/products", map[string]any{
		"name": "Wall cabinet", "article": "WC-1", "productTypeId": rule.ID,
		"billOfMaterials": []map[string]any{{"materialId": board, "quantity": "2"}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var p dto.ProductResponse
	a.decode(w, &p)
	// (2*100 + 20) * 1.5
	assert.Equal(t, "330.00", p.Price.FinalPrice.StringFixed(2))
	assert.Equal(t, "Cabinets", p.TypeName)

	w = a.do(http.MethodPatch, "/v1/products/"+p.ID+"/bom/"+p.BillOfMaterials[0].LineID, map[string]any{"quantity": "3,5"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	a.decode(w, &p)
	assert.Equal(t, "555.00", p.Price.FinalPrice.StringFixed(2))

	w = a.do(http.MethodGet, "/v1/products/priced", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var priced dto.PricedCatalogResponse
	a.decode(w, &priced)
	assert.Len(t, priced.Products, 1)
}

func TestProducts_DuplicateArticleConflicts(t *testing.T) {
	a := newAPI(t)
	w := a.do(http.MethodPost, "/v1/products", map[string]any{"name": "Wall cabinet", "article": "WC-1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = a.do(http.MethodPost, "/v1/products", map[string]any{"name": "Other cabinet", "article": "wc-1"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestProducts_SuggestAndApply(t *testing.T) {
	a := newAPI(t)
	a.createMaterial("Particle board 16mm", "LDSP-16", "12")
	a.createMaterial("Hinge soft-close", "HNG-SC", "3")

	w := a.do(http.MethodPost, "/v1/products", map[string]any{"name": "Wall cabinet", "article": "WC-1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var p dto.ProductResponse
	a.decode(w, &p)

	w = a.do(http.MethodPost, "/v1/products/"+p.ID+"/suggest", map[string]any{"brief": "cabinet with doors"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var sug dto.SuggestResponse
	a.decode(w, &sug)
	assert.Equal(t, "local", sug.Source)
	require.NotEmpty(t, sug.Items)

	w = a.do(http.MethodPost, "/v1/products/"+p.ID+"/suggest/apply", dto.ApplySuggestionRequest{Items: sug.Items})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var applied dto.ApplySuggestionResult
	a.decode(w, &applied)
	assert.Equal(t, len(sug.Items), applied.Matched+len(applied.Unmatched))
}

// ── Collections ──────────────────────────────────────────────────────────────

func TestCollections_ReorderRejectsNonPermutation(t *testing.T) {
	a := newAPI(t)
	w := a.do(http.MethodPost, "/v1/collections", map[string]any{"name": "Kitchen"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var col struct {
		ID string `json:"id"`
	}
	a.decode(w, &col)

	w = a.do(http.MethodPut, "/v1/collections/"+col.ID+"/order", map[string]any{"productOrder": []string{"ghost"}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = a.do(http.MethodPatch, "/v1/collections/"+col.ID+"/pin", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = a.do(http.MethodPost, "/v1/collections/"+col.ID+"/describe", map[string]any{"apply": false})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var desc dto.DescribeResponse
	a.decode(w, &desc)
	assert.Equal(t, "local", desc.Source)
	assert.NotEmpty(t, desc.Description)
}

// ── Price list ───────────────────────────────────────────────────────────────

func TestPriceList_Formats(t *testing.T) {
	a := newAPI(t)
	board := a.createMaterial("Board", "B-1", "10")
	w := a.do(http.MethodPost, "/v1/products", map[string]any{
		"name": "Shelf", "article": "SH-1",
		"billOfMaterials": []map[string]any{{"materialId": board, "quantity": "1"}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = a.do(http.MethodGet, "/v1/pricelist?format=html&groupBy=type&columns=article,name,final_price", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Disposition"), "inline"))
	assert.Contains(t, w.Body.String(), "SH-1")

	w = a.do(http.MethodGet, "/v1/pricelist?format=xlsx", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Disposition"), "attachment"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")

	w = a.do(http.MethodGet, "/v1/pricelist?format=docx", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = a.do(http.MethodGet, "/v1/pricelist?format=html&currency=USD", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("X-Pricelist-Warnings"), "USD")
}

func TestPriceList_Options(t *testing.T) {
	a := newAPI(t)
	w := a.do(http.MethodGet, "/v1/pricelist/options", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var opts dto.PriceListOptionsResponse
	a.decode(w, &opts)
	assert.Equal(t, []string{"grid", "minimal", "modern"}, opts.Themes)
	assert.Equal(t, []string{"none", "type", "collection"}, opts.GroupBy)
	assert.Contains(t, opts.Formats, "xlsx")
	assert.Equal(t, "image", opts.Columns[0])
}

func TestPriceList_EmailWithoutMailer(t *testing.T) {
	a := newAPI(t)
	w := a.do(http.MethodPost, "/v1/pricelist/email", map[string]any{"to": "buyer@example.com"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

// ── Settings & audit ─────────────────────────────────────────────────────────

func TestSettings_CurrencyAndAudit(t *testing.T) {
	a := newAPI(t)
	w := a.do(http.MethodPut, "/v1/currency", map[string]any{
		"base": "RUB", "extras": []string{"USD"}, "rates": map[string]string{"USD": "0.011"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = a.do(http.MethodGet, "/v1/currency/convert?amount=1000&currency=USD", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var conv dto.ConvertResponse
	a.decode(w, &conv)
	assert.True(t, conv.Converted)
	assert.Equal(t, "11.00", conv.Amount.StringFixed(2))

	w = a.do(http.MethodGet, "/v1/audit?page=1&limit=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var audit dto.AuditListResponse
	a.decode(w, &audit)
	assert.GreaterOrEqual(t, audit.Total, int64(1))
}

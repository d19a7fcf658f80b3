//go:build integration

package router_test

// End-to-end run against real Postgres and Redis via testcontainers.
// Run with: go test -tags integration ./internal/router/...

import (
	"context"
	"net/http"
	"testing"

	"github.com/33hpS/PRISE-WAS-PRO2/internal/config"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/dto"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/infra"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/realtime"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/router"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"golang.org/x/crypto/bcrypt"
)

type backing struct {
	cfg  *config.Config
	deps router.Deps
}

func startBacking(t *testing.T) *backing {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.Run(ctx, "postgres:16-alpine",
		tcPostgres.WithDatabase("catalog_test"),
		tcPostgres.WithUsername("catalog"),
		tcPostgres.WithPassword("catalog"),
		testcontainers.WithWaitStrategy(tcPostgres.BasicWaitStrategies()...),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })
	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })
	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	cfg := &config.Config{
		Env:                  "test",
		StoreDSN:             pgURL,
		RedisURL:             rdURL,
		JWTSecret:            "test-secret-key",
		JWTExpirationHours:   1,
		JWTRefreshHours:      2,
		OperatorUsername:     "admin",
		OperatorPasswordHash: string(hash),
		ExportStoragePath:    t.TempDir(),
	}

	db, err := infra.NewDatabase(cfg.StoreDSN)
	require.NoError(t, err)
	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)

	return &backing{cfg: cfg, deps: router.Deps{
		Store:      infra.NewGormStore(db),
		DB:         db,
		Redis:      rdb,
		Hub:        realtime.NewHub(),
		Dispatcher: worker.NewDispatcher(rdb),
	}}
}

func (b *backing) api(t *testing.T) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)
	a := &api{t: t, engine: router.New(b.cfg, b.deps, router.NewServices(b.cfg, b.deps))}
	w := a.do(http.MethodPost, "/v1/auth/login", dto.LoginRequest{Username: "admin", Password: testPassword})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var login dto.LoginResponse
	a.decode(w, &login)
	a.token = login.AccessToken
	return a
}

func TestE2E_CatalogSurvivesRestart(t *testing.T) {
	b := startBacking(t)

	first := b.api(t)
	board := first.createMaterial("Board", "B-1", "100")
	w := first.do(http.MethodPost, "/v1/products", map[string]any{
		"name": "Shelf", "article": "SH-1",
		"billOfMaterials": []map[string]any{{"materialId": board, "quantity": "1.5"}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// A fresh service graph over the same store sees the same catalog.
	second := b.api(t)
	w = second.do(http.MethodGet, "/v1/products/priced", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var priced dto.PricedCatalogResponse
	second.decode(w, &priced)
	require.Len(t, priced.Products, 1)
	assert.Equal(t, "150.00", priced.Products[0].Price.FinalPrice.StringFixed(2))
}

func TestE2E_HealthReportsBackingServices(t *testing.T) {
	a := startBacking(t).api(t)
	w := a.do(http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	a.decode(w, &body)
	assert.Equal(t, "connected", body["store"])
	assert.Equal(t, "connected", body["redis"])
}

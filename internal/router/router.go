package router

import (
	"time"

	"github.com/33hpS/PRISE-WAS-PRO2/internal/assist"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/config"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/handler"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/infra"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/middleware"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/pricelist"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/realtime"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/remotesync"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/repository"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/service"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the infrastructure handles built by the composition root.
// Everything except Store may be nil.
type Deps struct {
	Store      infra.Store
	DB         *gorm.DB
	Redis      *redis.Client
	Hub        *realtime.Hub
	Syncer     *remotesync.Syncer
	Chain      *assist.Chain
	Dispatcher *worker.Dispatcher
	Mailer     *infra.Mailer
	FX         *infra.FXClient
	Breakers   *infra.BreakerSet
}

// Services is the wired service layer, shared by the router, the worker pool
// and the rate cron.
type Services struct {
	Auth        service.AuthService
	Audit       service.AuditService
	Materials   service.MaterialService
	Products    service.ProductService
	Rules       service.RuleService
	Collections service.CollectionService
	Currency    service.CurrencyService
	Sync        service.SyncService
	Company     service.CompanyService
	PriceList   service.PriceListService
}

// NewServices builds the service layer.
// Dependency graph: Service ← Repository ← Store
func NewServices(cfg *config.Config, deps Deps) *Services {
	// ── Repositories ─────────────────────────────────────────────────────────
	materialRepo := repository.NewMaterialRepository(deps.Store)
	productRepo := repository.NewProductRepository(deps.Store)
	ruleRepo := repository.NewRuleRepository(deps.Store)
	collectionRepo := repository.NewCollectionRepository(deps.Store)
	auditRepo := repository.NewAuditRepository(deps.Store)
	settingsRepo := repository.NewSettingsRepository(deps.Store)

	// Interface values stay nil when the concrete handle is nil.
	var notifier service.ChangeNotifier
	if deps.Hub != nil {
		notifier = deps.Hub
	}
	var mirror service.MaterialMirror
	var catalogSync service.CatalogSync
	if deps.Syncer != nil {
		mirror = deps.Syncer
		catalogSync = deps.Syncer
	}
	var queue service.PriceListQueue
	if deps.Dispatcher != nil {
		queue = deps.Dispatcher
	}
	var mailer service.Mailer
	if deps.Mailer != nil {
		mailer = deps.Mailer
	}
	var rates service.RateSource
	if deps.FX != nil {
		rates = deps.FX
	}

	// ── Services ─────────────────────────────────────────────────────────────
	auditSvc := service.NewAuditService(auditRepo)
	renderer := pricelist.NewRenderer(nil, cfg.PriceListFontURL)

	return &Services{
		Auth:        service.NewAuthService(cfg),
		Audit:       auditSvc,
		Materials:   service.NewMaterialService(materialRepo, auditSvc, notifier, mirror),
		Products:    service.NewProductService(productRepo, materialRepo, ruleRepo, collectionRepo, deps.Chain, auditSvc, notifier),
		Rules:       service.NewRuleService(ruleRepo, auditSvc, notifier),
		Collections: service.NewCollectionService(collectionRepo, productRepo, materialRepo, ruleRepo, deps.Chain, auditSvc, notifier),
		Currency:    service.NewCurrencyService(settingsRepo, rates, deps.Redis, auditSvc, notifier),
		Sync:        service.NewSyncService(settingsRepo, catalogSync, auditSvc, notifier),
		Company:     service.NewCompanyService(settingsRepo, auditSvc),
		PriceList: service.NewPriceListService(productRepo, materialRepo, ruleRepo, collectionRepo, settingsRepo,
			renderer, queue, mailer, auditSvc, service.PriceListConfig{
				DefaultLocale: cfg.DefaultLocale,
				StoragePath:   cfg.ExportStoragePath,
			}),
	}
}

// New returns a configured Gin engine serving svcs.
func New(cfg *config.Config, deps Deps, svcs *Services) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.AllowedOrigins()))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(svcs.Auth)
	materialsH := handler.NewMaterialsHandler(svcs.Materials)
	productsH := handler.NewProductsHandler(svcs.Products)
	rulesH := handler.NewRulesHandler(svcs.Rules)
	collectionsH := handler.NewCollectionsHandler(svcs.Collections)
	settingsH := handler.NewSettingsHandler(svcs.Currency, svcs.Sync, svcs.Company, svcs.Audit)
	priceListH := handler.NewPriceListHandler(svcs.PriceList)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	var syncStatus handler.SyncStatus
	if deps.Syncer != nil {
		syncStatus = deps.Syncer
	}
	r.GET("/health", handler.Health(deps.DB, deps.Redis, syncStatus, deps.Breakers))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes: a single operator role
	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret), middleware.RequireRole("operator"))
	{
		mats := v1.Group("/materials")
		{
			mats.GET("", materialsH.List)
			mats.POST("", materialsH.Create)
			mats.POST("/import", materialsH.ImportCSV)
			mats.GET("/export", materialsH.ExportCSV)
			mats.GET("/:id", materialsH.Get)
			mats.PUT("/:id", materialsH.Update)
			mats.DELETE("/:id", materialsH.Delete)
		}

		prods := v1.Group("/products")
		{
			prods.GET("", productsH.List)
			prods.POST("", productsH.Create)
			prods.GET("/priced", productsH.Priced)
			prods.GET("/:id", productsH.Get)
			prods.PUT("/:id", productsH.Update)
			prods.DELETE("/:id", productsH.Delete)
			prods.POST("/:id/bom", productsH.AddLine)
			prods.PATCH("/:id/bom/:lineId", productsH.SetQuantity)
			prods.DELETE("/:id/bom/:lineId", productsH.RemoveLine)
			prods.POST("/:id/suggest", productsH.Suggest)
			prods.POST("/:id/suggest/apply", productsH.ApplySuggestion)
		}

		types := v1.Group("/product-types")
		{
			types.GET("", rulesH.ListProductTypes)
			types.POST("", rulesH.CreateProductType)
			types.PUT("/:id", rulesH.UpdateProductType)
			types.DELETE("/:id", rulesH.DeleteProductType)
		}

		finishes := v1.Group("/finish-types")
		{
			finishes.GET("", rulesH.ListFinishTypes)
			finishes.POST("", rulesH.CreateFinishType)
			finishes.PUT("/:id", rulesH.UpdateFinishType)
			finishes.DELETE("/:id", rulesH.DeleteFinishType)
		}

		cols := v1.Group("/collections")
		{
			cols.GET("", collectionsH.List)
			cols.POST("", collectionsH.Create)
			cols.GET("/:id", collectionsH.Get)
			cols.PUT("/:id", collectionsH.Update)
			cols.DELETE("/:id", collectionsH.Delete)
			cols.PATCH("/:id/archive", collectionsH.Archive(true))
			cols.PATCH("/:id/unarchive", collectionsH.Archive(false))
			cols.PATCH("/:id/pin", collectionsH.Pin(true))
			cols.PATCH("/:id/unpin", collectionsH.Pin(false))
			cols.POST("/:id/products", collectionsH.AddProduct)
			cols.DELETE("/:id/products/:productId", collectionsH.RemoveProduct)
			cols.PUT("/:id/order", collectionsH.Reorder)
			cols.POST("/:id/describe", collectionsH.Describe)
		}

		v1.GET("/audit", settingsH.Audit)

		cur := v1.Group("/currency")
		{
			cur.GET("", settingsH.GetCurrency)
			cur.PUT("", settingsH.PutCurrency)
			cur.GET("/convert", settingsH.Convert)
			cur.POST("/refresh", settingsH.RefreshRates)
		}

		sync := v1.Group("/sync")
		{
			sync.GET("", settingsH.GetSync)
			sync.PUT("", settingsH.PutSync)
			sync.POST("/push", settingsH.Push)
			sync.POST("/pull", settingsH.Pull)
		}

		v1.GET("/company", settingsH.GetCompany)
		v1.PUT("/company", settingsH.PutCompany)

		v1.GET("/pricelist", priceListH.Render)
		v1.GET("/pricelist/options", priceListH.Options)
		v1.POST("/pricelist/email", priceListH.Email)

		if deps.Hub != nil {
			v1.GET("/ws", handler.Events(deps.Hub))
		}
	}

	return r
}

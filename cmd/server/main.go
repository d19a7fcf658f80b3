package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/33hpS/PRISE-WAS-PRO2/internal/assist"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/config"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/infra"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/realtime"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/remotesync"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/repository"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/router"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Structured logger: pretty in development, JSON in production
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	db, err := infra.NewDatabase(cfg.StoreDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	store := infra.NewGormStore(db)

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := realtime.NewHub()
	go hub.Run(ctx)

	breakers := infra.NewBreakerSet()
	chain, closeChain, err := assist.NewChainFromConfig(ctx, cfg, breakers)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up text generation")
	}
	defer closeChain()

	syncer := remotesync.NewSyncer(
		repository.NewSettingsRepository(store),
		repository.NewMaterialRepository(store),
		remotesync.PostgresOpener,
	)
	defer syncer.Close()
	go func() {
		err := syncer.Watch(ctx, func(changed int) {
			if changed > 0 {
				hub.Notify("synced", "material", "")
			}
		})
		if err != nil && ctx.Err() == nil {
			log.Warn().Err(err).Msg("remotesync: watch stopped")
		}
	}()

	deps := router.Deps{
		Store:    store,
		DB:       db,
		Redis:    rdb,
		Hub:      hub,
		Syncer:   syncer,
		Chain:    chain,
		Mailer:   infra.NewMailer(cfg),
		FX:       infra.NewFXClient(cfg.FXRatesURL),
		Breakers: breakers,
	}
	// Without Redis, price-list mail is sent inline.
	if rdb != nil {
		deps.Dispatcher = worker.NewDispatcher(rdb)
	}
	svcs := router.NewServices(cfg, deps)

	if rdb != nil {
		emailWorker := worker.NewPriceListEmailWorker(svcs.PriceList)
		pool := worker.NewPool(rdb, map[string]worker.Handler{
			worker.JobPriceListEmail: func(ctx context.Context, payload json.RawMessage) error {
				return emailWorker.Process(ctx, payload)
			},
		})
		pool.Start(ctx, cfg.WorkerPoolSize)
	}

	if deps.FX.Enabled() {
		fxBreaker := breakers.New(infra.CircuitBreakerConfig{
			Name:             "fx-rates",
			FailureThreshold: 3,
			OpenTimeout:      time.Hour,
		})
		worker.StartRateCron(ctx, worker.RateCronConfig{
			Currency: svcs.Currency,
			CB:       fxBreaker,
			Interval: time.Duration(cfg.FXRefreshMinutes) * time.Minute,
		})
	}

	r := router.New(cfg, deps, svcs)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("catalog backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}

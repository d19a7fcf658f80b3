package worker

// Background goroutine that periodically refreshes currency rates.
// Uses the Circuit Breaker to avoid hammering a downed rates endpoint.

import (
	"context"
	"errors"
	"time"

	"github.com/33hpS/PRISE-WAS-PRO2/internal/dto"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/infra"

	"github.com/rs/zerolog/log"
)

var errNoRates = errors.New("no rate could be refreshed")

// RateRefresher is satisfied by service.CurrencyService.
type RateRefresher interface {
	RefreshRates(ctx context.Context) (*dto.RefreshRatesResponse, error)
}

// RateCronConfig holds all dependencies for the refresh goroutine.
type RateCronConfig struct {
	Currency RateRefresher
	CB       *infra.CircuitBreaker
	Interval time.Duration
}

// StartRateCron launches a goroutine that refreshes rates on every tick.
// It respects the context for graceful shutdown.
func StartRateCron(ctx context.Context, cfg RateCronConfig) {
	if cfg.Interval <= 0 {
		cfg.Interval = 4 * time.Hour
	}
	go func() {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		log.Info().Dur("interval", cfg.Interval).Msg("rate_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("rate_cron: shutting down")
				return
			case <-ticker.C:
				refreshOnce(ctx, cfg)
			}
		}
	}()
}

// refreshOnce runs one refresh through the breaker. A tick where every
// symbol kept its stored rate counts as a failure.
func refreshOnce(ctx context.Context, cfg RateCronConfig) {
	if cfg.CB != nil && cfg.CB.State() == infra.CBOpen {
		log.Debug().Msg("rate_cron: circuit breaker is open, skipping tick")
		return
	}
	run := func() error {
		res, err := cfg.Currency.RefreshRates(ctx)
		if err != nil {
			return err
		}
		if len(res.Updated) == 0 && len(res.Kept) > 0 {
			return errNoRates
		}
		log.Info().Strs("updated", res.Updated).Strs("kept", res.Kept).Msg("rate_cron: rates refreshed")
		return nil
	}
	var err error
	if cfg.CB != nil {
		err = cfg.CB.Execute(run)
	} else {
		err = run()
	}
	if err != nil {
		log.Warn().Err(err).Msg("rate_cron: refresh failed")
	}
}

package assist

import (
	"context"
	"net/http"

	"github.com/33hpS/PRISE-WAS-PRO2/internal/config"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/infra"

	"github.com/rs/zerolog/log"
)

// NewChainFromConfig wires the configured remotes, each behind its own
// breaker registered in breakers. The returned func releases the Gemini client.
func NewChainFromConfig(ctx context.Context, cfg *config.Config, breakers *infra.BreakerSet) (*Chain, func(), error) {
	var strategies []Strategy
	breaker := func(name string) *infra.CircuitBreaker {
		return breakers.New(infra.CircuitBreakerConfig{
			Name:             name,
			FailureThreshold: cfg.AIFailureThreshold,
		})
	}

	if h := NewHTTPStrategy(cfg.AIGatewayURL, cfg.AIGatewayToken, &http.Client{}); h != nil {
		strategies = append(strategies, Guard(h, breaker("ai-gateway")))
	}
	gemini, err := NewGeminiStrategy(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return nil, func() {}, err
	}
	if gemini != nil {
		strategies = append(strategies, Guard(gemini, breaker("gemini")))
	}

	chain := NewChain(cfg.AITimeout(), strategies...)
	log.Info().Strs("strategies", chain.Strategies()).Msg("assist: text generation chain ready")
	return chain, gemini.Close, nil
}

package assist

import (
	"context"
	"encoding/json"

	"github.com/33hpS/PRISE-WAS-PRO2/internal/infra"
)

type guarded struct {
	Strategy
	cb *infra.CircuitBreaker
}

// Guard runs s through a circuit breaker so a failing remote is skipped
// quickly until it recovers.
func Guard(s Strategy, cb *infra.CircuitBreaker) Strategy {
	if s == nil || cb == nil {
		return s
	}
	return &guarded{Strategy: s, cb: cb}
}

func (g *guarded) Generate(ctx context.Context, task Task, payload any) (json.RawMessage, error) {
	var out json.RawMessage
	err := g.cb.Execute(func() error {
		raw, err := g.Strategy.Generate(ctx, task, payload)
		out = raw
		return err
	})
	return out, err
}

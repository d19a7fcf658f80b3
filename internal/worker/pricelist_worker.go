package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/33hpS/PRISE-WAS-PRO2/internal/dto"

	"github.com/rs/zerolog/log"
)

// Deliverer renders a price list and mails it. service.PriceListService
// implements it.
type Deliverer interface {
	Deliver(ctx context.Context, req dto.PriceListEmailRequest) error
}

// PriceListEmailWorker processes jobs from QueuePriceListEmail.
type PriceListEmailWorker struct {
	svc Deliverer
}

func NewPriceListEmailWorker(svc Deliverer) *PriceListEmailWorker {
	return &PriceListEmailWorker{svc: svc}
}

// Process renders and sends one price list. A payload without a recipient
// is dropped without retry.
func (w *PriceListEmailWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var req dto.PriceListEmailRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return fmt.Errorf("pricelist_worker: invalid payload: %w", err)
	}
	if req.To == "" {
		log.Warn().Msg("pricelist_worker: empty recipient, skipping")
		return nil
	}
	if err := w.svc.Deliver(ctx, req); err != nil {
		return fmt.Errorf("pricelist_worker: deliver to %s: %w", req.To, err)
	}
	return nil
}

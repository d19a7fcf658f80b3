package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/33hpS/PRISE-WAS-PRO2/internal/dto"
	"github.com/33hpS/PRISE-WAS-PRO2/internal/infra"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── Stubs ────────────────────────────────────────────────────────────────────

type stubDeliverer struct {
	got []dto.PriceListEmailRequest
	err error
}

func (s *stubDeliverer) Deliver(_ context.Context, req dto.PriceListEmailRequest) error {
	s.got = append(s.got, req)
	return s.err
}

type stubRefresher struct {
	calls int
	resp  *dto.RefreshRatesResponse
	err   error
}

func (s *stubRefresher) RefreshRates(context.Context) (*dto.RefreshRatesResponse, error) {
	s.calls++
	return s.resp, s.err
}

// ── Price list email ─────────────────────────────────────────────────────────

func TestPriceListEmailWorker_Delivers(t *testing.T) {
	d := &stubDeliverer{}
	w := NewPriceListEmailWorker(d)

	payload, err := json.Marshal(dto.PriceListEmailRequest{
		PriceListRequest: dto.PriceListRequest{Format: "xlsx"},
		To:               "buyer@example.com",
	})
	require.NoError(t, err)
	require.NoError(t, w.Process(context.Background(), payload))
	require.Len(t, d.got, 1)
	assert.Equal(t, "xlsx", d.got[0].Format)
}

func TestPriceListEmailWorker_EmptyRecipientIsDropped(t *testing.T) {
	d := &stubDeliverer{}
	w := NewPriceListEmailWorker(d)
	require.NoError(t, w.Process(context.Background(), json.RawMessage(`{"format":"pdf"}`)))
	assert.Empty(t, d.got)
}

func TestPriceListEmailWorker_PropagatesFailures(t *testing.T) {
	w := NewPriceListEmailWorker(&stubDeliverer{err: errors.New("smtp down")})
	err := w.Process(context.Background(), json.RawMessage(`{"to":"a@b.co"}`))
	assert.ErrorContains(t, err, "smtp down")

	assert.Error(t, w.Process(context.Background(), json.RawMessage(`not json`)))
}

// ── Rate cron ────────────────────────────────────────────────────────────────

func TestRefreshOnce_TripsBreakerWhenNothingUpdates(t *testing.T) {
	r := &stubRefresher{resp: &dto.RefreshRatesResponse{Kept: []string{"USD"}}}
	cb := infra.NewCircuitBreaker(infra.CircuitBreakerConfig{
		Name: "fx-test", FailureThreshold: 2, OpenTimeout: time.Hour,
	})
	cfg := RateCronConfig{Currency: r, CB: cb}

	refreshOnce(context.Background(), cfg)
	refreshOnce(context.Background(), cfg)
	assert.Equal(t, infra.CBOpen, cb.State())

	refreshOnce(context.Background(), cfg)
	assert.Equal(t, 2, r.calls, "open breaker skips the tick")
}

func TestRefreshOnce_SuccessKeepsBreakerClosed(t *testing.T) {
	r := &stubRefresher{resp: &dto.RefreshRatesResponse{Updated: []string{"USD"}, Kept: []string{"EUR"}}}
	cb := infra.NewCircuitBreaker(infra.CircuitBreakerConfig{Name: "fx-test", FailureThreshold: 1})

	refreshOnce(context.Background(), RateCronConfig{Currency: r, CB: cb})
	assert.Equal(t, infra.CBClosed, cb.State())
	assert.Equal(t, 1, r.calls)
}

func TestRefreshOnce_NoExtrasIsNotAFailure(t *testing.T) {
	r := &stubRefresher{resp: &dto.RefreshRatesResponse{}}
	cb := infra.NewCircuitBreaker(infra.CircuitBreakerConfig{Name: "fx-test", FailureThreshold: 1})

	refreshOnce(context.Background(), RateCronConfig{Currency: r, CB: cb})
	assert.Equal(t, infra.CBClosed, cb.State())
}

// ── Dead letters ─────────────────────────────────────────────────────────────

func TestDeadEntry_LiftsPriceListFields(t *testing.T) {
	payload, err := json.Marshal(dto.PriceListEmailRequest{
		PriceListRequest: dto.PriceListRequest{Format: "xlsx"},
		To:               "buyer@example.com",
	})
	require.NoError(t, err)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.FixedZone("MSK", 3*3600))

	e := deadEntry(QueuePriceListEmail, Job{Type: JobPriceListEmail, Payload: payload, Attempts: 3}, "smtp down", now)
	assert.Equal(t, "buyer@example.com", e.Recipient)
	assert.Equal(t, "xlsx", e.Format)
	assert.Equal(t, 3, e.Attempts)
	assert.Equal(t, time.UTC, e.FailedAt.Location())

	other := deadEntry(QueuePriceListEmail, Job{Type: "unknown", Payload: json.RawMessage(`"garbage"`)}, "malformed job", now)
	assert.Empty(t, other.Recipient)
	assert.Empty(t, other.Format)
}

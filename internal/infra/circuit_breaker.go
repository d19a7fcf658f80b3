package infra

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Breakers guard the remote collaborators: the text generation gateway,
// Gemini and the FX rates endpoint. While a breaker is open its caller skips
// straight to the next strategy or the stored fallback.

type CBState int

const (
	CBClosed CBState = iota
	CBOpen
	CBHalfOpen
)

func (s CBState) String() string {
	switch s {
	case CBClosed:
		return "closed"
	case CBOpen:
		return "open"
	case CBHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned by Execute without calling fn.
var ErrCircuitOpen = errors.New("circuit breaker is open")

type CircuitBreakerConfig struct {
	Name             string
	FailureThreshold int           // consecutive failures to open (default 3)
	SuccessThreshold int           // half-open successes to close (default 1)
	OpenTimeout      time.Duration // open period before a probe (default 60s)
	// Counts decides whether an error trips the breaker. The default ignores
	// context.Canceled: a caller that went away says nothing about the remote.
	Counts func(error) bool
}

type CircuitBreaker struct {
	mu               sync.Mutex
	name             string
	state            CBState
	failures         int
	successes        int
	openedAt         time.Time
	failureThreshold int
	successThreshold int
	openTimeout      time.Duration
	counts           func(error) bool
	now              func() time.Time
}

func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 1
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 60 * time.Second
	}
	if cfg.Counts == nil {
		cfg.Counts = func(err error) bool { return !errors.Is(err, context.Canceled) }
	}
	return &CircuitBreaker{
		name:             cfg.Name,
		failureThreshold: cfg.FailureThreshold,
		successThreshold: cfg.SuccessThreshold,
		openTimeout:      cfg.OpenTimeout,
		counts:           cfg.Counts,
		now:              time.Now,
	}
}

func (cb *CircuitBreaker) Name() string { return cb.name }

func (cb *CircuitBreaker) State() CBState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.stateLocked()
}

// stateLocked moves an expired open breaker to half-open.
func (cb *CircuitBreaker) stateLocked() CBState {
	if cb.state == CBOpen && cb.now().Sub(cb.openedAt) >= cb.openTimeout {
		cb.state = CBHalfOpen
		cb.successes = 0
	}
	return cb.state
}

// Execute runs fn unless the breaker is open.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if cb.State() == CBOpen {
		return ErrCircuitOpen
	}

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	switch {
	case err == nil:
		cb.recordSuccess()
	case cb.counts(err):
		cb.recordFailure()
	}
	return err
}

func (cb *CircuitBreaker) recordFailure() {
	cb.failures++
	switch cb.stateLocked() {
	case CBClosed:
		if cb.failures >= cb.failureThreshold {
			cb.trip()
			log.Warn().Str("breaker", cb.name).Int("failures", cb.failures).Msg("circuit breaker opened")
		}
	case CBHalfOpen:
		cb.trip()
		log.Warn().Str("breaker", cb.name).Msg("circuit breaker probe failed")
	}
}

func (cb *CircuitBreaker) trip() {
	cb.state = CBOpen
	cb.openedAt = cb.now()
	cb.failures = 0
	cb.successes = 0
}

func (cb *CircuitBreaker) recordSuccess() {
	switch cb.stateLocked() {
	case CBClosed:
		cb.failures = 0
	case CBHalfOpen:
		cb.successes++
		if cb.successes >= cb.successThreshold {
			cb.state = CBClosed
			cb.failures = 0
			cb.successes = 0
			log.Info().Str("breaker", cb.name).Msg("circuit breaker closed")
		}
	}
}

// BreakerSet keeps the process's breakers so /health can report them.
// A nil set still builds breakers, it just does not track them.
type BreakerSet struct {
	mu       sync.Mutex
	breakers []*CircuitBreaker
}

func NewBreakerSet() *BreakerSet { return &BreakerSet{} }

func (s *BreakerSet) New(cfg CircuitBreakerConfig) *CircuitBreaker {
	cb := NewCircuitBreaker(cfg)
	if s != nil {
		s.mu.Lock()
		s.breakers = append(s.breakers, cb)
		s.mu.Unlock()
	}
	return cb
}

// States maps breaker name to state.
func (s *BreakerSet) States() map[string]string {
	out := map[string]string{}
	if s == nil {
		return out
	}
	s.mu.Lock()
	list := append([]*CircuitBreaker(nil), s.breakers...)
	s.mu.Unlock()
	sort.Slice(list, func(i, j int) bool { return list[i].name < list[j].name })
	for _, cb := range list {
		out[cb.name] = cb.State().String()
	}
	return out
}

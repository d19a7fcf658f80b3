// Package assist generates collection descriptions and tech-card suggestions.
//
// A Chain tries its strategies in order (remote gateway, Gemini, then the
// local heuristic) and returns the first output that decodes and validates.
// The heuristic is always last and never fails, so callers always get a
// usable value.
package assist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Task names the generation job on the wire.
type Task string

const (
	TaskCollectionDescription Task = "collection_description"
	TaskTechcardSuggest       Task = "techcard_suggest"
)

// Request and Response are the gateway envelope.
type Request struct {
	Task    Task `json:"task"`
	Payload any  `json:"payload"`
}

type Response struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

type DescriptionInput struct {
	Name         string   `json:"name"`
	Group        string   `json:"group,omitempty"`
	ProductNames []string `json:"productNames"`
}

type Description struct {
	Description string `json:"description"`
}

type CatalogMaterial struct {
	Name    string `json:"name"`
	Article string `json:"article,omitempty"`
	Unit    string `json:"unit,omitempty"`
}

type TechcardInput struct {
	ProductName      string            `json:"productName"`
	Brief            string            `json:"brief,omitempty"`
	TypeName         string            `json:"typeName,omitempty"`
	FinishName       string            `json:"finishName,omitempty"`
	MaterialsCatalog []CatalogMaterial `json:"materialsCatalog"`
}

type SuggestedItem struct {
	Name     string          `json:"name"`
	Article  string          `json:"article,omitempty"`
	Quantity decimal.Decimal `json:"quantity"`
	Unit     string          `json:"unit,omitempty"`
}

type Suggestion struct {
	Items []SuggestedItem `json:"items"`
}

// Strategy produces the raw data object for a task.
type Strategy interface {
	Name() string
	Generate(ctx context.Context, task Task, payload any) (json.RawMessage, error)
}

// Attempt records one strategy that did not produce a usable value.
type Attempt struct {
	Strategy string
	Err      error
}

// Result is what every chain call returns: the value, the strategy that
// produced it and the failed attempts before it.
type Result[T any] struct {
	Value    T
	Source   string
	Attempts []Attempt
}

// FellBack reports whether a strategy before Source failed.
func (r Result[T]) FellBack() bool { return len(r.Attempts) > 0 }

var ErrInvalidOutput = errors.New("assist: invalid output")

// Chain runs strategies in order. Remote calls get timeout each.
type Chain struct {
	strategies []Strategy
	timeout    time.Duration
	local      *Heuristic
}

// NewChain builds a chain ending in the local heuristic. Nil interface values
// are skipped.
func NewChain(timeout time.Duration, strategies ...Strategy) *Chain {
	if timeout < 5*time.Second {
		timeout = 5 * time.Second
	}
	c := &Chain{timeout: timeout, local: NewHeuristic()}
	for _, s := range strategies {
		if s != nil {
			c.strategies = append(c.strategies, s)
		}
	}
	return c
}

// Strategies lists strategy names in the order they are tried.
func (c *Chain) Strategies() []string {
	names := make([]string, 0, len(c.strategies)+1)
	for _, s := range c.strategies {
		names = append(names, s.Name())
	}
	return append(names, c.local.Name())
}

func (c *Chain) DescribeCollection(ctx context.Context, in DescriptionInput) Result[Description] {
	return run(ctx, c, TaskCollectionDescription, in, validateDescription, func() Description {
		return c.local.Describe(in)
	})
}

func (c *Chain) SuggestTechcard(ctx context.Context, in TechcardInput) Result[Suggestion] {
	return run(ctx, c, TaskTechcardSuggest, in, validateSuggestion, func() Suggestion {
		return c.local.Suggest(in)
	})
}

func run[T any](ctx context.Context, c *Chain, task Task, payload any, validate func(*T) error, local func() T) Result[T] {
	var res Result[T]
	for _, s := range c.strategies {
		v, err := attempt(ctx, c.timeout, s, task, payload, validate)
		if err == nil {
			res.Value, res.Source = v, s.Name()
			return res
		}
		log.Warn().Err(err).Str("strategy", s.Name()).Str("task", string(task)).Msg("assist: strategy failed, trying next")
		res.Attempts = append(res.Attempts, Attempt{Strategy: s.Name(), Err: err})
	}
	res.Value, res.Source = local(), c.local.Name()
	return res
}

func attempt[T any](ctx context.Context, timeout time.Duration, s Strategy, task Task, payload any, validate func(*T) error) (T, error) {
	var v T
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	raw, err := s.Generate(ctx, task, payload)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}
	if err := validate(&v); err != nil {
		return v, err
	}
	return v, nil
}

func validateDescription(d *Description) error {
	d.Description = strings.TrimSpace(d.Description)
	if d.Description == "" {
		return fmt.Errorf("%w: empty description", ErrInvalidOutput)
	}
	return nil
}

// validateSuggestion drops unusable items and fails only when none remain.
func validateSuggestion(s *Suggestion) error {
	items := s.Items[:0]
	for _, it := range s.Items {
		it.Name = strings.TrimSpace(it.Name)
		if it.Name == "" || !it.Quantity.IsPositive() {
			continue
		}
		items = append(items, it)
	}
	s.Items = items
	if len(items) == 0 {
		return fmt.Errorf("%w: no usable items", ErrInvalidOutput)
	}
	return nil
}

// Package generation puts one or more text-generation providers behind a
// single Generate call that tries candidate models in a fixed order.
package generation

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// Provider issues a single completion request against one model. Adapters
// own all provider-specific request and response shapes.
type Provider interface {
	Complete(ctx context.Context, model, prompt string) (string, error)
}

// Candidate is one provider/model pair.
type Candidate struct {
	Provider string
	Model    string
	client   Provider
}

func NewCandidate(provider, model string, client Provider) Candidate {
	return Candidate{Provider: provider, Model: model, client: client}
}

func (c Candidate) String() string {
	return c.Provider + "/" + c.Model
}

// Gateway is immutable after construction and safe for concurrent use.
type Gateway struct {
	candidates []Candidate
	timeout    time.Duration
	log        *slog.Logger
}

// NewGateway builds a gateway over candidates in priority order. timeout
// bounds each attempt; zero leaves it to the provider transport.
func NewGateway(candidates []Candidate, timeout time.Duration, log *slog.Logger) *Gateway {
	if log == nil {
		log = slog.Default()
	}
	return &Gateway{
		candidates: append([]Candidate(nil), candidates...),
		timeout:    timeout,
		log:        log,
	}
}

// Candidates returns the candidate names in the order they are tried.
func (g *Gateway) Candidates() []string {
	names := make([]string, len(g.candidates))
	for i, c := range g.candidates {
		names[i] = c.String()
	}
	return names
}

// Generate tries each candidate once, in order, and returns the first
// successful completion. When all fail it returns a *GenerationError.
func (g *Gateway) Generate(ctx context.Context, prompt string) (string, error) {
	attempts := make([]Attempt, 0, len(g.candidates))

	for i, c := range g.candidates {
		start := time.Now()
		text, err := g.try(ctx, c, prompt)
		if err == nil {
			g.log.Info("generation succeeded",
				"candidate", c.String(),
				"position", i,
				"latency_ms", time.Since(start).Milliseconds(),
			)
			return text, nil
		}

		class := Classify(err)
		attempts = append(attempts, Attempt{Candidate: c.String(), Class: class, Err: err})
		g.log.Warn("generation candidate failed, trying next",
			"candidate", c.String(),
			"class", string(class),
			"error", err,
		)
	}

	return "", &GenerationError{Attempts: attempts}
}

func (g *Gateway) try(ctx context.Context, c Candidate, prompt string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	text, err := c.client.Complete(ctx, c.Model, prompt)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}

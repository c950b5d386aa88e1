package generate

import (
	"context"
	"log/slog"
	"time"

	"github.com/usemaya/maya/plugin/ai/provider"
)

// FallbackMessage is returned when every provider in the chain is exhausted.
const FallbackMessage = "I'm sorry, all of my AI services are currently unavailable. Please try again later."

// defaultAttemptTimeout bounds a single completion attempt. A timed-out
// attempt counts as a rotatable failure.
const defaultAttemptTimeout = 30 * time.Second

// Provider is one entry in the fallback chain: a named provider backed by a
// credential rotator and a factory producing a client per credential.
type Provider struct {
	Name    string
	Rotator *KeyRotator
	Factory provider.Factory
}

// Generator tries providers in fixed priority order, cycling each provider's
// credentials at most once per call, and returns the first successful
// completion. It never fails: on total exhaustion it returns FallbackMessage.
type Generator struct {
	providers []*Provider
	timeout   time.Duration
	logger    *slog.Logger
}

// NewGenerator creates a generator over an ordered provider chain.
func NewGenerator(providers []*Provider, opts ...Option) *Generator {
	g := &Generator{
		providers: providers,
		timeout:   defaultAttemptTimeout,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Option customizes a Generator.
type Option func(*Generator)

// WithAttemptTimeout overrides the per-attempt completion timeout.
func WithAttemptTimeout(d time.Duration) Option {
	return func(g *Generator) { g.timeout = d }
}

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) { g.logger = logger }
}

// Generate returns the first successful completion text, unmodified.
// Providers are tried in priority order; within a provider, credentials are
// rotated on rotatable failure for at most one full cycle. Fatal errors skip
// the rest of the provider's credentials and move on to the next provider.
func (g *Generator) Generate(ctx context.Context, prompt string) string {
	for _, p := range g.providers {
		text, err := g.tryProvider(ctx, p, prompt)
		if err == nil {
			return text
		}
		g.logger.Warn("provider failed, falling through",
			"provider", p.Name,
			"error", err)
	}
	return FallbackMessage
}

// tryProvider attempts the prompt against one provider, cycling its
// credentials at most once. The cycle boundary is the rotation position
// captured at entry: once the advancing index wraps back to it, every
// credential has been tried for this call.
func (g *Generator) tryProvider(ctx context.Context, p *Provider, prompt string) (string, error) {
	if p.Rotator.Len() == 0 {
		return "", ErrExhausted
	}

	start := p.Rotator.Index()
	for attempt := 0; attempt < p.Rotator.Len(); attempt++ {
		key, idx := p.Rotator.Next()
		client := p.Factory(key)

		attemptCtx, cancel := context.WithTimeout(ctx, g.timeout)
		text, err := client.Complete(attemptCtx, prompt)
		cancel()

		if err == nil {
			p.Rotator.ReportSuccess(idx)
			return text, nil
		}
		if !provider.IsRotatable(err) {
			return "", err
		}

		g.logger.Warn("credential failed, rotating",
			"provider", p.Name,
			"key_index", idx,
			"error", err)
		p.Rotator.ReportFailure(idx)

		if p.Rotator.Index() == start {
			break
		}
	}
	return "", ErrExhausted
}

// Package aiflow holds the generative model flows used to read and inspect
// identity documents: each flow is a prompt plus a JSON schema sent through a
// single Generator port.
package aiflow

import (
	"context"
	"errors"

	id "docverify/pkg/domain"
	"docverify/pkg/platform/circuit"
)

// Request is one structured-output call. Schema constrains the response and
// is also used to validate it locally.
type Request struct {
	Flow   string
	Prompt string
	Images []id.Image
	Schema map[string]any
}

// Generator returns the raw JSON document produced for a request. Failures
// are reported as *Error.
type Generator interface {
	Generate(ctx context.Context, req Request) ([]byte, error)
}

// BreakerGenerator fails fast with a provider_outage error while the breaker
// is open. Only transient failures count against the breaker; a malformed
// answer says nothing about provider health.
type BreakerGenerator struct {
	next    Generator
	breaker *circuit.Breaker
}

func NewBreakerGenerator(next Generator, breaker *circuit.Breaker) *BreakerGenerator {
	if next == nil {
		panic("generator is required")
	}
	if breaker == nil {
		breaker = circuit.New("genai")
	}
	return &BreakerGenerator{next: next, breaker: breaker}
}

func (g *BreakerGenerator) Generate(ctx context.Context, req Request) ([]byte, error) {
	if !g.breaker.Allow() {
		return nil, NewError(CategoryProviderOutage, req.Flow, "model provider temporarily unavailable", ErrCircuitOpen)
	}
	out, err := g.next.Generate(ctx, req)
	switch {
	case err == nil:
		g.breaker.RecordSuccess()
	case IsRetryable(err):
		g.breaker.RecordFailure()
	case errors.Is(err, context.Canceled):
		// caller went away; neither outcome
	default:
		g.breaker.RecordSuccess()
	}
	return out, err
}

// State exposes the breaker state for health reporting.
func (g *BreakerGenerator) State() circuit.State {
	return g.breaker.State()
}

// ErrGeneratorDisabled is the underlying error of every DisabledGenerator call.
var ErrGeneratorDisabled = errors.New("generative model disabled")

// DisabledGenerator rejects every call as a provider outage. It stands in for
// the model in development when no API key is configured.
type DisabledGenerator struct{}

func (DisabledGenerator) Generate(_ context.Context, req Request) ([]byte, error) {
	return nil, NewError(CategoryProviderOutage, req.Flow, "generative model is disabled", ErrGeneratorDisabled)
}

package codec

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Generator is the call every backend implements.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Limited throttles calls to an upstream generator.
type Limited struct {
	next    Generator
	limiter *rate.Limiter
}

// NewLimited allows rps calls per second with the given burst. A
// non-positive rps disables limiting.
func NewLimited(next Generator, rps float64, burst int) *Limited {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	if burst < 1 {
		burst = 1
	}
	return &Limited{next: next, limiter: rate.NewLimiter(limit, burst)}
}

// Generate waits for a token, then calls the upstream generator.
func (l *Limited) Generate(ctx context.Context, prompt string) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}
	return l.next.Generate(ctx, prompt)
}

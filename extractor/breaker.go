package extractor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
)

const (
	breakerTrips   = 5
	breakerTimeout = 30 * time.Second
)

// Breaker fails fast once the wrapped model has failed repeatedly. It never retries.
type Breaker struct {
	next Model
	cb   *gobreaker.CircuitBreaker
}

// NewBreaker wraps next. The circuit opens after five consecutive failures and
// half-opens after thirty seconds.
func NewBreaker(name string, next Model) *Breaker {
	return &Breaker{
		next: next,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Timeout:     breakerTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= breakerTrips
			},
			// A missing credential is a configuration problem, not an outage.
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, ErrMissingCredential)
			},
		}),
	}
}

// Generate calls the wrapped model unless the circuit is open.
func (b *Breaker) Generate(ctx context.Context, prompt string) (string, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Generate(ctx, prompt)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("model %s unavailable: %w", b.cb.Name(), err)
		}
		return "", err
	}
	return out.(string), nil
}

// State reports the circuit state.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

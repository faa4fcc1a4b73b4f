package llm

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	pkgerrors "ideamap/pkg/errors"
)

// BreakerSettings configures the circuit breaker around a provider
type BreakerSettings struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
	Logger           *zap.Logger
}

// DefaultBreakerSettings returns a default configuration for the circuit breaker
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// BreakerProvider fails fast while the wrapped provider keeps failing. It
// never retries a request.
type BreakerProvider struct {
	next Provider
	cb   *gobreaker.CircuitBreaker
}

// NewBreakerProvider wraps a provider; zero settings fall back to the defaults
func NewBreakerProvider(next Provider, settings BreakerSettings) *BreakerProvider {
	defaults := DefaultBreakerSettings()
	if settings.MaxRequests == 0 {
		settings.MaxRequests = defaults.MaxRequests
	}
	if settings.Interval <= 0 {
		settings.Interval = defaults.Interval
	}
	if settings.Timeout <= 0 {
		settings.Timeout = defaults.Timeout
	}
	if settings.FailureThreshold <= 0 {
		settings.FailureThreshold = defaults.FailureThreshold
	}
	if settings.MinRequests == 0 {
		settings.MinRequests = defaults.MinRequests
	}
	logger := settings.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "model-" + next.Name(),
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < settings.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= settings.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		// Cancellation by the caller says nothing about the provider's health
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return &BreakerProvider{next: next, cb: cb}
}

func (b *BreakerProvider) Name() string { return b.next.Name() }

// IsAvailable is false while the breaker is open
func (b *BreakerProvider) IsAvailable() bool {
	return b.cb.State() != gobreaker.StateOpen && b.next.IsAvailable()
}

// State exposes the breaker state for health reporting
func (b *BreakerProvider) State() gobreaker.State {
	return b.cb.State()
}

func (b *BreakerProvider) Complete(ctx context.Context, prompt string, options CompletionOptions) (string, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Complete(ctx, prompt, options)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", pkgerrors.NewUnavailableError(b.next.Name()).WithCause(err)
		}
		return "", err
	}
	return result.(string), nil
}

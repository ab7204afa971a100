package model

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/conclave-ai/conclave/logging"
)

// Default circuit breaker settings.
const (
	defaultBreakerMaxFailures uint32        = 5
	defaultBreakerTimeout     time.Duration = 30 * time.Second
	defaultBreakerInterval    time.Duration = 60 * time.Second
)

// BreakerOptions configure the circuit breaker behavior.
type BreakerOptions struct {
	// MaxFailures is the number of consecutive failures before the circuit opens.
	MaxFailures uint32
	// Timeout is how long the circuit stays open before transitioning to half-open.
	Timeout time.Duration
	// Interval is the cyclic period of the closed state for clearing failure counts.
	Interval time.Duration
	// Logger records state changes.
	Logger logging.Logger
}

// BreakerModel wraps a Model with circuit breaker protection. When the
// completion service fails repeatedly, the circuit opens and subsequent calls
// fail fast without reaching the provider, preventing retry storms.
type BreakerModel struct {
	inner   Model
	breaker *gobreaker.CircuitBreaker[*Response]
	logger  logging.Logger
}

// NewBreakerModel wraps inner with a circuit breaker using sensible defaults
// for any unset option.
func NewBreakerModel(inner Model, optFns ...func(o *BreakerOptions)) *BreakerModel {
	opts := BreakerOptions{
		MaxFailures: defaultBreakerMaxFailures,
		Timeout:     defaultBreakerTimeout,
		Interval:    defaultBreakerInterval,
		Logger:      logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	name := inner.Info().Provider + ":" + inner.Info().Name
	cb := gobreaker.NewCircuitBreaker[*Response](gobreaker.Settings{
		Name:        "model:" + name,
		MaxRequests: 1, // allow 1 probe in half-open state
		Interval:    opts.Interval,
		Timeout:     opts.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			opts.Logger.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
		IsSuccessful: func(err error) bool {
			return err == nil
		},
	})

	return &BreakerModel{
		inner:   inner,
		breaker: cb,
		logger:  opts.Logger,
	}
}

// Complete implements Model. Calls are routed through the circuit breaker.
func (m *BreakerModel) Complete(ctx context.Context, req Request) (*Response, error) {
	resp, err := m.breaker.Execute(func() (*Response, error) {
		return m.inner.Complete(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("completion service %q circuit open: %w", m.inner.Info().Name, err)
		}
		return nil, err
	}
	return resp, nil
}

// Info implements Model by delegating to the wrapped implementation.
func (m *BreakerModel) Info() Info { return m.inner.Info() }

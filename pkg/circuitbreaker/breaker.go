package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

type Config struct {
	// FailureThreshold consecutive failures trip the breaker.
	FailureThreshold uint32
	// SuccessThreshold consecutive successes in half-open close it again.
	SuccessThreshold uint32
	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration
	Logger      *zap.Logger
}

// CircuitBreaker guards an outbound dependency. It fails fast once the
// dependency has errored FailureThreshold times in a row.
type CircuitBreaker struct {
	name             string
	failureThreshold uint32
	successThreshold uint32
	openTimeout      time.Duration
	logger           *zap.Logger

	mu        sync.Mutex
	state     State
	failures  uint32
	successes uint32
	openedAt  time.Time
}

func New(name string, cfg Config) *CircuitBreaker {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold == 0 {
		cfg.SuccessThreshold = 2
	}
	if cfg.OpenTimeout == 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	return &CircuitBreaker{
		name:             name,
		failureThreshold: cfg.FailureThreshold,
		successThreshold: cfg.SuccessThreshold,
		openTimeout:      cfg.OpenTimeout,
		logger:           cfg.Logger,
	}
}

func (cb *CircuitBreaker) Execute(ctx context.Context, fn func() error) error {
	if err := cb.allow(); err != nil {
		return err
	}

	err := fn()
	cb.record(err == nil)
	return err
}

func (cb *CircuitBreaker) allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen {
		if time.Since(cb.openedAt) < cb.openTimeout {
			return ErrCircuitOpen
		}
		cb.transition(StateHalfOpen)
	}

	return nil
}

func (cb *CircuitBreaker) record(success bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if success {
		cb.failures = 0
		if cb.state == StateHalfOpen {
			cb.successes++
			if cb.successes >= cb.successThreshold {
				cb.transition(StateClosed)
			}
		}
		return
	}

	cb.successes = 0
	cb.failures++

	if cb.state == StateHalfOpen || cb.failures >= cb.failureThreshold {
		cb.openedAt = time.Now()
		cb.transition(StateOpen)
	}
}

func (cb *CircuitBreaker) transition(to State) {
	if cb.state == to {
		return
	}

	from := cb.state
	cb.state = to
	cb.failures = 0
	cb.successes = 0

	if cb.logger != nil {
		cb.logger.Info("Circuit breaker state changed",
			zap.String("name", cb.name),
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
	}
}

func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen && time.Since(cb.openedAt) >= cb.openTimeout {
		return StateHalfOpen
	}
	return cb.state
}

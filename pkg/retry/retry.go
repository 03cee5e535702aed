package retry

import (
	"context"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// Policy controls exponential backoff between attempts. The zero value is
// usable: Do fills in defaults.
type Policy struct {
	MaxAttempts    int
	InitialDelay   time.Duration
	MaxDelay       time.Duration
	Multiplier     float64
	JitterFraction float64
	Logger         *zap.Logger
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    3,
		InitialDelay:   500 * time.Millisecond,
		MaxDelay:       5 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
		Logger:         zap.NewNop(),
	}
}

func Do(ctx context.Context, p Policy, operation func() error) error {
	if p.MaxAttempts == 0 {
		p.MaxAttempts = 3
	}
	if p.InitialDelay == 0 {
		p.InitialDelay = 100 * time.Millisecond
	}
	if p.MaxDelay == 0 {
		p.MaxDelay = 10 * time.Second
	}
	if p.Multiplier == 0 {
		p.Multiplier = 2.0
	}

	var lastErr error
	delay := p.InitialDelay

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := operation()
		if err == nil {
			if attempt > 1 && p.Logger != nil {
				p.Logger.Info("Operation succeeded after retry",
					zap.Int("attempt", attempt),
				)
			}
			return nil
		}

		lastErr = err

		if attempt == p.MaxAttempts {
			break
		}

		if p.Logger != nil {
			p.Logger.Warn("Operation failed, retrying",
				zap.Error(err),
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", p.MaxAttempts),
				zap.Duration("delay", delay),
			)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(withJitter(delay, p.JitterFraction)):
		}

		delay = time.Duration(math.Min(float64(p.MaxDelay), float64(delay)*p.Multiplier))
	}

	return lastErr
}

func withJitter(d time.Duration, fraction float64) time.Duration {
	if fraction <= 0 {
		return d
	}

	jitter := time.Duration(rand.Float64() * float64(d) * fraction)
	if rand.Intn(2) == 0 {
		return d - jitter
	}
	return d + jitter
}

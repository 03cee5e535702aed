package ratelimit

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type bucket struct {
	mu         sync.Mutex
	tokens     int
	lastRefill time.Time
}

// Limiter is a per-client token bucket keyed by IP. The chat widget is
// anonymous, so IP is the only identity available.
type Limiter struct {
	mu         sync.RWMutex
	buckets    map[string]*bucket
	maxTokens  int
	refillRate time.Duration
	logger     *zap.Logger
	done       chan struct{}
}

type Config struct {
	RequestsPerMinute int
	Logger            *zap.Logger
}

func New(cfg Config) *Limiter {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 60
	}

	l := &Limiter{
		buckets:    make(map[string]*bucket),
		maxTokens:  cfg.RequestsPerMinute,
		refillRate: time.Minute / time.Duration(cfg.RequestsPerMinute),
		logger:     cfg.Logger,
		done:       make(chan struct{}),
	}

	go l.cleanupLoop()

	return l
}

func (l *Limiter) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !l.allow(c.IP()) {
			if l.logger != nil {
				l.logger.Warn("Rate limit exceeded",
					zap.String("ip", c.IP()),
					zap.String("path", c.Path()),
				)
			}
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests. Please slow down and try again.",
			})
		}
		return c.Next()
	}
}

func (l *Limiter) allow(key string) bool {
	l.mu.RLock()
	b, ok := l.buckets[key]
	l.mu.RUnlock()

	if !ok {
		l.mu.Lock()
		b, ok = l.buckets[key]
		if !ok {
			b = &bucket{tokens: l.maxTokens, lastRefill: time.Now()}
			l.buckets[key] = b
		}
		l.mu.Unlock()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	refill := int(time.Since(b.lastRefill) / l.refillRate)
	if refill > 0 {
		b.tokens += refill
		if b.tokens > l.maxTokens {
			b.tokens = l.maxTokens
		}
		b.lastRefill = time.Now()
	}

	if b.tokens == 0 {
		return false
	}
	b.tokens--
	return true
}

func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			l.mu.Lock()
			for key, b := range l.buckets {
				b.mu.Lock()
				stale := time.Since(b.lastRefill) > 10*time.Minute
				b.mu.Unlock()
				if stale {
					delete(l.buckets, key)
				}
			}
			l.mu.Unlock()
		}
	}
}

func (l *Limiter) Stop() {
	close(l.done)
}

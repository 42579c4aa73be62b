// Package executor provides the shared rate-limited request executor that
// every outbound marketplace call goes through. It owns pacing, retry with
// exponential backoff on rate-limit responses, an optional circuit breaker,
// and a process-lifetime response cache keyed by request signature.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/kickcheck/reconciler/internal/domain"
)

// RequestFunc performs one outbound request and returns the raw response
// body. It must return domain.ErrRateLimited (wrapped) on an HTTP 429 so
// the executor can retry it.
type RequestFunc func(ctx context.Context) ([]byte, error)

// RetryPolicy is the retry configuration as explicit data: how many times a
// rate-limited request is retried and the base backoff delay.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// Delay returns the backoff before retry n (0-based): BaseDelay * 2^n,
// so the defaults give 2s, 4s, 8s.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	return p.BaseDelay * time.Duration(1<<attempt)
}

// Stats counts executor activity for the end-of-run summary
type Stats struct {
	Requests      int `json:"requests"`
	CacheHits     int `json:"cacheHits"`
	RateLimitHits int `json:"rateLimitHits"`
	Retries       int `json:"retries"`
	Failures      int `json:"failures"`
}

// Config holds the executor settings
type Config struct {
	// Interval is the minimum gap between outbound requests, enforced
	// globally across all callers. Zero disables pacing (tests).
	Interval time.Duration
	Retry    RetryPolicy
	Breaker  BreakerConfig
	Debug    bool
}

// Executor serializes pacing decisions for all outbound requests. It is the
// only shared mutable resource between concurrent workers.
type Executor struct {
	limiter *rate.Limiter
	retry   RetryPolicy
	cache   domain.CacheRepository
	breaker *circuitBreaker
	debug   bool

	statsMu sync.Mutex
	stats   Stats
}

// New creates an executor backed by the given response cache
func New(cfg Config, cache domain.CacheRepository) *Executor {
	limit := rate.Inf
	if cfg.Interval > 0 {
		limit = rate.Every(cfg.Interval)
	}

	retry := cfg.Retry
	if retry.MaxRetries <= 0 {
		retry.MaxRetries = 3
	}
	if retry.BaseDelay <= 0 {
		retry.BaseDelay = 2 * time.Second
	}

	e := &Executor{
		limiter: rate.NewLimiter(limit, 1),
		retry:   retry,
		cache:   cache,
		debug:   cfg.Debug,
	}
	if cfg.Breaker.Enabled {
		e.breaker = newCircuitBreaker(cfg.Breaker)
	}
	return e
}

// Do executes fn under pacing and retry policy. key is the exact request
// signature (endpoint + normalized query/id); cached responses bypass
// pacing entirely and return instantly.
func (e *Executor) Do(ctx context.Context, key string, fn RequestFunc) ([]byte, error) {
	if v, err := e.cache.Get(ctx, key); err == nil {
		if body, ok := v.(string); ok {
			e.record(func(s *Stats) { s.CacheHits++ })
			if e.debug {
				log.Printf("[EXEC] Cache hit for %s", key)
			}
			return []byte(body), nil
		}
	}

	if e.breaker != nil && !e.breaker.allow() {
		e.record(func(s *Stats) { s.Failures++ })
		return nil, fmt.Errorf("%w: circuit breaker open", domain.ErrSourceUnavailable)
	}

	var lastErr error
	for attempt := 0; attempt <= e.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := e.retry.Delay(attempt - 1)
			log.Printf("[EXEC] Rate limited, retry %d/%d after %s: %s", attempt, e.retry.MaxRetries, delay, key)
			e.record(func(s *Stats) { s.Retries++ })
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		if err := e.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait: %w", err)
		}

		e.record(func(s *Stats) { s.Requests++ })
		body, err := fn(ctx)
		if err == nil {
			if e.breaker != nil {
				e.breaker.recordSuccess()
			}
			if cerr := e.cache.Set(ctx, key, string(body), 0); cerr != nil {
				log.Printf("[EXEC] Failed to cache response for %s: %v", key, cerr)
			}
			return body, nil
		}

		if errors.Is(err, domain.ErrRateLimited) {
			e.record(func(s *Stats) { s.RateLimitHits++ })
			lastErr = err
			continue
		}

		// Non-429 failures are not retried here; the engine owns per-item policy
		e.record(func(s *Stats) { s.Failures++ })
		if e.breaker != nil {
			if errors.Is(err, domain.ErrSourceUnavailable) {
				e.breaker.recordFailure()
			} else {
				// The service answered, just not with what we wanted
				e.breaker.recordSuccess()
			}
		}
		return nil, err
	}

	e.record(func(s *Stats) { s.Failures++ })
	if e.breaker != nil {
		e.breaker.recordFailure()
	}
	log.Printf("[EXEC] Rate limit retries exhausted for %s", key)
	return nil, fmt.Errorf("%w: %v", domain.ErrRateLimitExceeded, lastErr)
}

// Stats returns a snapshot of the executor counters
func (e *Executor) Stats() Stats {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	return e.stats
}

// CacheKey builds a request signature from its parts, lowercasing and
// collapsing whitespace so that equivalent queries hit the same entry
func CacheKey(parts ...string) string {
	normalized := make([]string, len(parts))
	for i, p := range parts {
		normalized[i] = strings.Join(strings.Fields(strings.ToLower(p)), " ")
	}
	return strings.Join(normalized, ":")
}

func (e *Executor) record(update func(*Stats)) {
	e.statsMu.Lock()
	update(&e.stats)
	e.statsMu.Unlock()
}

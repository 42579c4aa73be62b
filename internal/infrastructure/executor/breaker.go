package executor

import (
	"log"
	"sync"
	"time"
)

// BreakerConfig holds the circuit breaker settings
type BreakerConfig struct {
	Enabled          bool
	FailureThreshold int
	RecoveryTimeout  time.Duration
}

type breakerState int

const (
	stateClosed breakerState = iota
	stateOpen
	stateHalfOpen
)

// circuitBreaker rejects outbound requests after repeated transport
// failures so a dead marketplace does not burn the whole batch's time on
// retries. After RecoveryTimeout one probe request is admitted; its outcome
// decides whether the circuit closes again.
type circuitBreaker struct {
	mu       sync.Mutex
	cfg      BreakerConfig
	state    breakerState
	failures int
	openedAt time.Time
	now      func() time.Time
}

func newCircuitBreaker(cfg BreakerConfig) *circuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.RecoveryTimeout <= 0 {
		cfg.RecoveryTimeout = 60 * time.Second
	}
	return &circuitBreaker{cfg: cfg, now: time.Now}
}

// allow reports whether a request may proceed, transitioning open→half-open
// once the recovery timeout has elapsed. While half-open only the probe that
// caused the transition is in flight; everything else is rejected.
func (b *circuitBreaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case stateOpen:
		if b.now().Sub(b.openedAt) >= b.cfg.RecoveryTimeout {
			b.state = stateHalfOpen
			log.Printf("[EXEC] Circuit breaker half-open, admitting probe request")
			return true
		}
		return false
	case stateHalfOpen:
		return false
	}
	return true
}

func (b *circuitBreaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != stateClosed {
		log.Printf("[EXEC] Circuit breaker closed")
	}
	b.state = stateClosed
	b.failures = 0
}

func (b *circuitBreaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	if b.state == stateHalfOpen || b.failures >= b.cfg.FailureThreshold {
		if b.state != stateOpen {
			log.Printf("[EXEC] Circuit breaker open after %d consecutive failures", b.failures)
		}
		b.state = stateOpen
		b.openedAt = b.now()
	}
}

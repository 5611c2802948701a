// Package throttle limits request rates overall and per client.
package throttle

import (
	"sync"
	"time"

	"github.com/Laisky/errors/v2"
	"golang.org/x/time/rate"
)

// idleTTL is how long an unused client bucket is kept
const idleTTL = 10 * time.Minute

// Config of Throttle, a zero rate disables that limit
type Config struct {
	TotalPerSec, TotalBurst   float64
	ClientPerSec, ClientBurst float64
}

// Throttle token buckets shared by all requests and kept per client key
type Throttle struct {
	mu      sync.Mutex
	cfg     Config
	total   *rate.Limiter
	clients map[string]*client
	swept   time.Time
	now     func() time.Time
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// New create new Throttle
func New(cfg Config) (*Throttle, error) {
	if cfg.TotalPerSec < 0 || cfg.ClientPerSec < 0 {
		return nil, errors.New("rate must not be negative")
	}
	if cfg.TotalPerSec > 0 && cfg.TotalBurst < 1 {
		return nil, errors.New("total burst must be at least 1")
	}
	if cfg.ClientPerSec > 0 && cfg.ClientBurst < 1 {
		return nil, errors.New("client burst must be at least 1")
	}

	t := &Throttle{
		cfg:     cfg,
		clients: make(map[string]*client),
		now:     time.Now,
	}
	if cfg.TotalPerSec > 0 {
		t.total = rate.NewLimiter(rate.Limit(cfg.TotalPerSec), int(cfg.TotalBurst))
	}

	return t, nil
}

// Allow reports whether a request from key may proceed.
// The client bucket is consumed first so one noisy client can not drain the total.
func (t *Throttle) Allow(key string) bool {
	if t.cfg.ClientPerSec > 0 && !t.clientLimiter(key).Allow() {
		return false
	}
	if t.total != nil && !t.total.Allow() {
		return false
	}

	return true
}

func (t *Throttle) clientLimiter(key string) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	c, ok := t.clients[key]
	if !ok {
		c = &client{
			limiter:  rate.NewLimiter(rate.Limit(t.cfg.ClientPerSec), int(t.cfg.ClientBurst)),
			lastSeen: now,
		}
		t.clients[key] = c
		t.evictLocked(now)
	}
	c.lastSeen = now

	return c.limiter
}

func (t *Throttle) evictLocked(now time.Time) {
	if now.Sub(t.swept) < time.Minute {
		return
	}
	t.swept = now

	for key, c := range t.clients {
		if now.Sub(c.lastSeen) > idleTTL {
			delete(t.clients, key)
		}
	}
}

package auth

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const loginGuardSize = 10_000

// LoginGuard locks an email out of password login after repeated failures.
// The counter for an email expires one window after its latest failure. A nil
// guard never locks.
type LoginGuard struct {
	mu          sync.Mutex
	failures    *expirable.LRU[string, int]
	maxFailures int
}

// NewLoginGuard returns nil when maxFailures or window is not positive.
func NewLoginGuard(maxFailures int, window time.Duration) *LoginGuard {
	if maxFailures <= 0 || window <= 0 {
		return nil
	}
	return &LoginGuard{
		failures:    expirable.NewLRU[string, int](loginGuardSize, nil, window),
		maxFailures: maxFailures,
	}
}

func (g *LoginGuard) Locked(email string) bool {
	if g == nil {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	n, _ := g.failures.Get(email)
	return n >= g.maxFailures
}

func (g *LoginGuard) Fail(email string) {
	if g == nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	n, _ := g.failures.Get(email)
	g.failures.Add(email, n+1)
}

func (g *LoginGuard) Reset(email string) {
	if g == nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failures.Remove(email)
}

package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mrlokans/bookcatalog/internal/apperr"
	"github.com/mrlokans/bookcatalog/internal/config"
)

// ErrTooManyAttempts is wrapped by every LockedOutError.
var ErrTooManyAttempts = apperr.TooManyRequests("too many login attempts")

// LockedOutError is returned for a login refused before the password is checked.
type LockedOutError struct {
	RetryAfter time.Duration
}

func (e *LockedOutError) Error() string { return ErrTooManyAttempts.Error() }

func (e *LockedOutError) Unwrap() error { return ErrTooManyAttempts }

// LockoutPolicy says how many wrong passwords a client address may try
// against one username, and for how long it is then refused.
type LockoutPolicy struct {
	MaxFailures int
	Window      time.Duration // failures older than this are forgotten
	Lockout     time.Duration
	SweepEvery  time.Duration
}

// DefaultLockoutPolicy allows 5 failures in 15 minutes, then refuses for 30.
func DefaultLockoutPolicy() LockoutPolicy {
	return LockoutPolicy{
		MaxFailures: 5,
		Window:      15 * time.Minute,
		Lockout:     30 * time.Minute,
		SweepEvery:  5 * time.Minute,
	}
}

// LockoutPolicyFrom reads the AUTH_* lockout settings. Unset values keep their defaults.
func LockoutPolicyFrom(cfg config.Auth) LockoutPolicy {
	p := DefaultLockoutPolicy()
	if cfg.MaxLoginAttempts > 0 {
		p.MaxFailures = cfg.MaxLoginAttempts
	}
	if cfg.RateLimitWindow > 0 {
		p.Window = cfg.RateLimitWindow
	}
	if cfg.LockoutDuration > 0 {
		p.Lockout = cfg.LockoutDuration
	}
	return p
}

type loginKey struct {
	ip       string
	username string
}

type failureTally struct {
	failures    int
	since       time.Time
	lockedUntil time.Time
}

// LoginGuard wraps Service.Login with a per address+username lockout.
// A nil *LoginGuard logs in without any lockout.
type LoginGuard struct {
	policy LockoutPolicy
	now    func() time.Time

	mu      sync.Mutex
	tallies map[loginKey]*failureTally

	done     chan struct{}
	doneOnce sync.Once
}

// NewLoginGuard starts a guard with a background sweep of stale tallies.
// Call Stop when done.
func NewLoginGuard(policy LockoutPolicy) *LoginGuard {
	defaults := DefaultLockoutPolicy()
	if policy.MaxFailures <= 0 {
		policy.MaxFailures = defaults.MaxFailures
	}
	if policy.Window <= 0 {
		policy.Window = defaults.Window
	}
	if policy.Lockout <= 0 {
		policy.Lockout = defaults.Lockout
	}
	if policy.SweepEvery <= 0 {
		policy.SweepEvery = defaults.SweepEvery
	}

	g := &LoginGuard{
		policy:  policy,
		now:     time.Now,
		tallies: make(map[loginKey]*failureTally),
		done:    make(chan struct{}),
	}
	go g.sweepLoop()
	return g
}

// WithClock replaces the time source. Used in tests.
func (g *LoginGuard) WithClock(now func() time.Time) *LoginGuard {
	g.now = now
	return g
}

// Stop ends the sweep goroutine. Safe to call more than once.
func (g *LoginGuard) Stop() {
	g.doneOnce.Do(func() { close(g.done) })
}

// Login refuses a locked out pair with *LockedOutError, otherwise delegates to
// svc.Login. Wrong credentials count towards the lockout, and the failure that
// reaches the limit is still reported as ErrInvalidCredentials. A successful
// login clears the pair's tally.
func (g *LoginGuard) Login(ctx context.Context, svc *Service, ip, username, password string) (*Token, error) {
	if g == nil {
		return svc.Login(ctx, username, password)
	}

	key := loginKey{ip: ip, username: username}
	if wait := g.lockedFor(key); wait > 0 {
		return nil, &LockedOutError{RetryAfter: wait}
	}

	token, err := svc.Login(ctx, username, password)
	switch {
	case err == nil:
		g.forget(key)
	case errors.Is(err, ErrInvalidCredentials):
		g.countFailure(key)
	}
	return token, err
}

func (g *LoginGuard) lockedFor(key loginKey) time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()

	tally, ok := g.tallies[key]
	if !ok {
		return 0
	}
	if wait := tally.lockedUntil.Sub(g.now()); wait > 0 {
		return wait
	}
	return 0
}

func (g *LoginGuard) countFailure(key loginKey) {
	now := g.now()

	g.mu.Lock()
	defer g.mu.Unlock()

	tally, ok := g.tallies[key]
	if !ok || g.stale(tally, now) {
		tally = &failureTally{since: now}
		g.tallies[key] = tally
	}

	tally.failures++
	if tally.failures >= g.policy.MaxFailures {
		tally.lockedUntil = now.Add(g.policy.Lockout)
	}
}

func (g *LoginGuard) forget(key loginKey) {
	g.mu.Lock()
	delete(g.tallies, key)
	g.mu.Unlock()
}

// stale reports whether a tally no longer affects the next attempt: its
// lockout has ended, or it never locked and its window has passed.
func (g *LoginGuard) stale(tally *failureTally, now time.Time) bool {
	if !tally.lockedUntil.IsZero() {
		return !now.Before(tally.lockedUntil)
	}
	return now.Sub(tally.since) > g.policy.Window
}

func (g *LoginGuard) sweepLoop() {
	ticker := time.NewTicker(g.policy.SweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.sweep()
		case <-g.done:
			return
		}
	}
}

func (g *LoginGuard) sweep() {
	now := g.now()

	g.mu.Lock()
	defer g.mu.Unlock()

	for key, tally := range g.tallies {
		if g.stale(tally, now) {
			delete(g.tallies, key)
		}
	}
}

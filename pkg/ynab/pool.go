package ynab

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// credState is the health state of one credential.
type credState int

const (
	credActive credState = iota
	credCooling
	credDisabled
)

func (s credState) String() string {
	switch s {
	case credActive:
		return "active"
	case credCooling:
		return "cooling_down"
	default:
		return "disabled"
	}
}

// Credential is one bearer token plus its health state. Credentials are
// created at pool construction and only ever transition between states.
type Credential struct {
	token     string
	index     int
	state     credState
	coolUntil time.Time
	reason    string
}

// Token returns the bearer secret.
func (c *Credential) Token() string {
	return c.token
}

// PoolConfig configures credential pool behavior.
type PoolConfig struct {
	// DefaultCooldown is applied after a rate limit when the server does
	// not send Retry-After. Default: 60s.
	DefaultCooldown time.Duration

	// WaitForCooldown makes Acquire block until the earliest cooldown
	// deadline instead of failing with ErrPoolExhausted when no
	// credential is active.
	WaitForCooldown bool
}

// Pool owns a set of credentials and selects one per call, round-robin
// over those currently usable. Safe for concurrent use.
type Pool struct {
	mu     sync.Mutex
	creds  []*Credential
	next   int
	cfg    PoolConfig
	logger *slog.Logger

	now func() time.Time // replaced in tests
}

// NewPool creates a credential pool from an ordered, non-empty token list.
func NewPool(tokens []string, cfg PoolConfig, logger *slog.Logger) (*Pool, error) {
	if len(tokens) == 0 {
		return nil, fmt.Errorf("credential pool requires at least one access token")
	}
	if cfg.DefaultCooldown <= 0 {
		cfg.DefaultCooldown = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	creds := make([]*Credential, len(tokens))
	for i, token := range tokens {
		creds[i] = &Credential{token: token, index: i}
	}

	return &Pool{
		creds:  creds,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Size returns the number of credentials in the pool, in any state.
func (p *Pool) Size() int {
	return len(p.creds)
}

// Acquire selects the next usable credential. A credential whose cooldown
// deadline has passed is usable; its stored state is corrected on the next
// Report. With WaitForCooldown set, Acquire blocks until the earliest
// cooldown deadline when nothing is usable; otherwise it fails with
// ErrPoolExhausted.
func (p *Pool) Acquire(ctx context.Context) (*Credential, error) {
	for {
		p.mu.Lock()
		if cred := p.selectLocked(); cred != nil {
			p.mu.Unlock()
			return cred, nil
		}
		deadline, ok := p.earliestCooldownLocked()
		wait := deadline.Sub(p.now())
		p.mu.Unlock()

		if !ok || !p.cfg.WaitForCooldown {
			return nil, fmt.Errorf("%w: all credentials disabled or cooling down", ErrPoolExhausted)
		}

		p.logger.Debug("waiting for credential cooldown", "until", deadline)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// selectLocked returns the next usable credential in round-robin order, or
// nil when none is usable. Caller holds the lock.
func (p *Pool) selectLocked() *Credential {
	n := len(p.creds)
	for i := 0; i < n; i++ {
		idx := (p.next + i) % n
		cred := p.creds[idx]
		if p.usableLocked(cred) {
			p.next = (idx + 1) % n
			return cred
		}
	}
	return nil
}

func (p *Pool) usableLocked(cred *Credential) bool {
	switch cred.state {
	case credActive:
		return true
	case credCooling:
		return !p.now().Before(cred.coolUntil)
	default:
		return false
	}
}

// earliestCooldownLocked returns the soonest cooldown deadline among
// cooling credentials. ok is false when every credential is disabled, in
// which case waiting would never help.
func (p *Pool) earliestCooldownLocked() (time.Time, bool) {
	var earliest time.Time
	found := false
	for _, cred := range p.creds {
		if cred.state != credCooling {
			continue
		}
		if !found || cred.coolUntil.Before(earliest) {
			earliest = cred.coolUntil
			found = true
		}
	}
	return earliest, found
}

// Report applies the health transition for an observed call outcome.
// Disabling is terminal for the life of the pool; cooldowns expire on
// their own.
func (p *Pool) Report(cred *Credential, outcome Outcome, retryAfter time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if cred.state == credDisabled {
		return
	}

	switch outcome {
	case OutcomeAuthFailure:
		cred.state = credDisabled
		cred.reason = "auth failure"
		p.logger.Warn("credential disabled",
			"action", "disable",
			"credential", cred.index,
			"reason", cred.reason,
		)
	case OutcomeRateLimited:
		cooldown := retryAfter
		if cooldown <= 0 {
			cooldown = p.cfg.DefaultCooldown
		}
		cred.state = credCooling
		cred.coolUntil = p.now().Add(cooldown)
		p.logger.Warn("credential cooling down",
			"action", "cooldown",
			"credential", cred.index,
			"reason", "rate limited",
			"until", cred.coolUntil,
		)
	default:
		// No health penalty. Fold an expired cooldown back to active.
		if cred.state == credCooling && !p.now().Before(cred.coolUntil) {
			cred.state = credActive
			cred.coolUntil = time.Time{}
		}
	}
}

// States returns the current state name of each credential, in pool order.
func (p *Pool) States() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	states := make([]string, len(p.creds))
	for i, cred := range p.creds {
		states[i] = cred.state.String()
	}
	return states
}

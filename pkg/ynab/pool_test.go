package ynab

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingHandler collects slog records so tests can count trace events.
type recordingHandler struct {
	mu      sync.Mutex
	records []map[string]string
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := map[string]string{"msg": r.Message}
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.String()
		return true
	})
	h.mu.Lock()
	h.records = append(h.records, attrs)
	h.mu.Unlock()
	return nil
}

func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordingHandler) WithGroup(string) slog.Handler      { return h }

func (h *recordingHandler) count(action string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, r := range h.records {
		if r["action"] == action {
			n++
		}
	}
	return n
}

func newTestPool(t *testing.T, tokens []string, cfg PoolConfig) (*Pool, *recordingHandler) {
	t.Helper()
	handler := &recordingHandler{}
	pool, err := NewPool(tokens, cfg, slog.New(handler))
	require.NoError(t, err)
	return pool, handler
}

func TestNewPoolRequiresTokens(t *testing.T) {
	_, err := NewPool(nil, PoolConfig{}, nil)
	assert.Error(t, err)
}

func TestPoolRoundRobin(t *testing.T) {
	pool, _ := newTestPool(t, []string{"a", "b", "c"}, PoolConfig{})
	assert.Equal(t, 3, pool.Size())

	var got []string
	for i := 0; i < 6; i++ {
		cred, err := pool.Acquire(context.Background())
		require.NoError(t, err)
		got = append(got, cred.Token())
	}

	assert.Equal(t, []string{"a", "b", "c", "a", "b", "c"}, got)
}

func TestPoolDisableIsTerminal(t *testing.T) {
	pool, handler := newTestPool(t, []string{"a", "b"}, PoolConfig{})

	credA, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	pool.Report(credA, OutcomeAuthFailure, 0)

	// Only "b" is ever selected afterwards.
	for i := 0; i < 4; i++ {
		cred, err := pool.Acquire(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "b", cred.Token())
	}

	// A later success on the disabled credential does not resurrect it.
	pool.Report(credA, OutcomeSuccess, 0)
	assert.Equal(t, []string{"disabled", "active"}, pool.States())

	assert.Equal(t, 1, handler.count("disable"))
}

func TestPoolCooldownExpires(t *testing.T) {
	pool, handler := newTestPool(t, []string{"a", "b"}, PoolConfig{DefaultCooldown: time.Minute})

	now := time.Unix(1700000000, 0)
	pool.now = func() time.Time { return now }

	credA, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	pool.Report(credA, OutcomeRateLimited, 0)
	assert.Equal(t, 1, handler.count("cooldown"))

	// While cooling, only "b" is selected.
	cred, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "b", cred.Token())
	assert.Equal(t, []string{"cooling_down", "active"}, pool.States())

	// After the deadline the credential is usable again with no explicit
	// re-enable; its stored state folds back to active on the next report.
	now = now.Add(61 * time.Second)
	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		cred, err := pool.Acquire(context.Background())
		require.NoError(t, err)
		seen[cred.Token()] = true
		pool.Report(cred, OutcomeSuccess, 0)
	}
	assert.True(t, seen["a"], "expired cooldown should make the credential eligible")
	assert.Equal(t, []string{"active", "active"}, pool.States())
}

func TestPoolRetryAfterOverridesDefault(t *testing.T) {
	pool, _ := newTestPool(t, []string{"a"}, PoolConfig{DefaultCooldown: time.Minute})

	now := time.Unix(1700000000, 0)
	pool.now = func() time.Time { return now }

	cred, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	pool.Report(cred, OutcomeRateLimited, 5*time.Second)

	now = now.Add(6 * time.Second)
	_, err = pool.Acquire(context.Background())
	assert.NoError(t, err, "server-supplied Retry-After should expire before the default")
}

func TestPoolExhaustedFailFast(t *testing.T) {
	pool, _ := newTestPool(t, []string{"a", "b"}, PoolConfig{})

	for _, token := range []string{"a", "b"} {
		cred, err := pool.Acquire(context.Background())
		require.NoError(t, err)
		require.Equal(t, token, cred.Token())
		pool.Report(cred, OutcomeAuthFailure, 0)
	}

	_, err := pool.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrPoolExhausted)
}

func TestPoolExhaustedAllDisabledNeverBlocks(t *testing.T) {
	// Waiting can never help when every credential is disabled rather
	// than cooling, so even WaitForCooldown fails fast.
	pool, _ := newTestPool(t, []string{"a"}, PoolConfig{WaitForCooldown: true})

	cred, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	pool.Report(cred, OutcomeAuthFailure, 0)

	_, err = pool.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrPoolExhausted)
}

func TestPoolWaitForCooldownBlocks(t *testing.T) {
	pool, _ := newTestPool(t, []string{"a"}, PoolConfig{WaitForCooldown: true})

	cred, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	pool.Report(cred, OutcomeRateLimited, 20*time.Millisecond)

	start := time.Now()
	cred, err = pool.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a", cred.Token())
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestPoolWaitForCooldownHonorsContext(t *testing.T) {
	pool, _ := newTestPool(t, []string{"a"}, PoolConfig{WaitForCooldown: true})

	cred, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	pool.Report(cred, OutcomeRateLimited, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err = pool.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPoolConcurrentAcquire(t *testing.T) {
	pool, _ := newTestPool(t, []string{"a", "b", "c"}, PoolConfig{})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				cred, err := pool.Acquire(context.Background())
				if err != nil {
					t.Error(err)
					return
				}
				pool.Report(cred, OutcomeSuccess, 0)
			}
		}()
	}
	wg.Wait()
}

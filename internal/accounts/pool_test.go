package accounts

import (
	"errors"
	"testing"
	"time"

	"github.com/fedcrawl/fedcrawl/internal/model"
)

func newTestPool(t *testing.T, ids ...model.AccountID) (*Pool, *time.Time) {
	t.Helper()

	p, err := NewPool(ids)
	if err != nil {
		t.Fatalf("NewPool() error = %v", err)
	}

	clock := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return clock }
	return p, &clock
}

func TestNewPool(t *testing.T) {
	t.Parallel()

	t.Run("rejects empty account list", func(t *testing.T) {
		t.Parallel()

		if _, err := NewPool(nil); !errors.Is(err, ErrNoAccounts) {
			t.Errorf("NewPool(nil) error = %v, want %v", err, ErrNoAccounts)
		}
	})
}

func TestPoolAcquire(t *testing.T) {
	t.Parallel()

	t.Run("leased account is unavailable until released", func(t *testing.T) {
		t.Parallel()

		p, _ := newTestPool(t, "acct-1")

		id, ok := p.Acquire()
		if !ok || id != "acct-1" {
			t.Fatalf("Acquire() = %q, %v, want acct-1, true", id, ok)
		}
		if _, ok := p.Acquire(); ok {
			t.Error("Acquire() succeeded while the only account is leased")
		}

		p.Release("acct-1")
		if _, ok := p.Acquire(); !ok {
			t.Error("Acquire() failed after release")
		}
	})

	t.Run("rotates to the longest idle account", func(t *testing.T) {
		t.Parallel()

		p, _ := newTestPool(t, "acct-1", "acct-2")

		first, _ := p.Acquire()
		p.Release(first)

		second, ok := p.Acquire()
		if !ok {
			t.Fatal("Acquire() failed with an idle account available")
		}
		if second == first {
			t.Errorf("Acquire() = %q twice in a row, want rotation", second)
		}
	})

	t.Run("skips cooling account until deadline passes", func(t *testing.T) {
		t.Parallel()

		p, clock := newTestPool(t, "acct-1")
		p.Cooldown("acct-1", clock.Add(time.Minute))

		if _, ok := p.Acquire(); ok {
			t.Error("Acquire() succeeded during cooldown")
		}

		*clock = clock.Add(2 * time.Minute)
		if _, ok := p.Acquire(); !ok {
			t.Error("Acquire() failed after cooldown expired")
		}
	})

	t.Run("never hands out a suspended account", func(t *testing.T) {
		t.Parallel()

		p, _ := newTestPool(t, "acct-1")
		p.Suspend("acct-1")

		if _, ok := p.Acquire(); ok {
			t.Error("Acquire() returned a suspended account")
		}
	})
}

func TestPoolCooldown(t *testing.T) {
	t.Parallel()

	t.Run("releases the lease", func(t *testing.T) {
		t.Parallel()

		p, clock := newTestPool(t, "acct-1", "acct-2")
		id, _ := p.Acquire()
		p.Cooldown(id, clock.Add(time.Minute))

		*clock = clock.Add(2 * time.Minute)
		if _, ok := p.Acquire(); !ok {
			t.Fatal("Acquire() failed after cooldown released the lease")
		}
	})

	t.Run("never shortens an existing cooldown", func(t *testing.T) {
		t.Parallel()

		p, clock := newTestPool(t, "acct-1")
		p.Cooldown("acct-1", clock.Add(10*time.Minute))
		p.Cooldown("acct-1", clock.Add(time.Minute))

		wake, ok := p.NextWake()
		if !ok {
			t.Fatal("NextWake() = false, want cooldown deadline")
		}
		if want := clock.Add(10 * time.Minute); !wake.Equal(want) {
			t.Errorf("NextWake() = %v, want %v", wake, want)
		}
	})
}

func TestPoolFailureTracking(t *testing.T) {
	t.Parallel()

	p, _ := newTestPool(t, "acct-1")

	if got := p.RecordFailure("acct-1"); got != 1 {
		t.Errorf("RecordFailure() = %d, want 1", got)
	}
	if got := p.RecordFailure("acct-1"); got != 2 {
		t.Errorf("RecordFailure() = %d, want 2", got)
	}

	p.ResetFailures("acct-1")
	if got := p.RecordFailure("acct-1"); got != 1 {
		t.Errorf("RecordFailure() after reset = %d, want 1", got)
	}
}

func TestPoolExhausted(t *testing.T) {
	t.Parallel()

	p, _ := newTestPool(t, "acct-1", "acct-2")

	if p.Exhausted() {
		t.Error("Exhausted() = true with healthy accounts")
	}

	p.Suspend("acct-1")
	if p.Exhausted() {
		t.Error("Exhausted() = true with one healthy account left")
	}

	p.Suspend("acct-2")
	if !p.Exhausted() {
		t.Error("Exhausted() = false with every account suspended")
	}
	if got := p.SuspendedCount(); got != 2 {
		t.Errorf("SuspendedCount() = %d, want 2", got)
	}
}

func TestPoolNextWake(t *testing.T) {
	t.Parallel()

	t.Run("returns earliest cooldown deadline", func(t *testing.T) {
		t.Parallel()

		p, clock := newTestPool(t, "acct-1", "acct-2")
		p.Cooldown("acct-1", clock.Add(5*time.Minute))
		p.Cooldown("acct-2", clock.Add(time.Minute))

		wake, ok := p.NextWake()
		if !ok {
			t.Fatal("NextWake() = false, want deadline")
		}
		if want := clock.Add(time.Minute); !wake.Equal(want) {
			t.Errorf("NextWake() = %v, want %v", wake, want)
		}
	})

	t.Run("false when nothing is cooling", func(t *testing.T) {
		t.Parallel()

		p, _ := newTestPool(t, "acct-1")
		if _, ok := p.NextWake(); ok {
			t.Error("NextWake() = true with no cooldowns")
		}
	})
}

func TestPoolRestore(t *testing.T) {
	t.Parallel()

	p, _ := newTestPool(t, "acct-1", "acct-2")

	p.Restore(State{ID: "acct-1", Suspended: true, ConsecutiveFailures: 3})
	p.Restore(State{ID: "unknown", Suspended: true})

	if _, ok := p.Acquire(); !ok {
		t.Error("Acquire() failed, want the non-restored account")
	}
	if got := p.SuspendedCount(); got != 1 {
		t.Errorf("SuspendedCount() = %d, want 1", got)
	}

	states := p.States()
	if len(states) != 2 {
		t.Fatalf("States() returned %d entries, want 2", len(states))
	}
}

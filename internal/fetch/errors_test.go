package fetch

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestAsRateLimited(t *testing.T) {
	t.Parallel()

	t.Run("direct", func(t *testing.T) {
		t.Parallel()

		err := &RateLimitedError{RetryAfter: 30 * time.Second}
		rl, ok := AsRateLimited(err)
		if !ok {
			t.Fatal("AsRateLimited() = false, want true")
		}
		if rl.RetryAfter != 30*time.Second {
			t.Errorf("RetryAfter = %s, want 30s", rl.RetryAfter)
		}
	})

	t.Run("wrapped", func(t *testing.T) {
		t.Parallel()

		err := fmt.Errorf("fetch page 3: %w", &RateLimitedError{RetryAfter: time.Minute})
		if _, ok := AsRateLimited(err); !ok {
			t.Error("AsRateLimited() = false for wrapped error, want true")
		}
	})

	t.Run("unrelated error", func(t *testing.T) {
		t.Parallel()

		if _, ok := AsRateLimited(errors.New("connection reset")); ok {
			t.Error("AsRateLimited() = true for plain error, want false")
		}
	})
}

func TestAsPermanent(t *testing.T) {
	t.Parallel()

	t.Run("wrapped account fault", func(t *testing.T) {
		t.Parallel()

		err := fmt.Errorf("task failed: %w", &PermanentError{
			Scope:  ScopeAccount,
			Reason: "account banned",
		})
		pe, ok := AsPermanent(err)
		if !ok {
			t.Fatal("AsPermanent() = false, want true")
		}
		if pe.Scope != ScopeAccount {
			t.Errorf("Scope = %s, want account", pe.Scope)
		}
	})

	t.Run("unrelated error", func(t *testing.T) {
		t.Parallel()

		if _, ok := AsPermanent(errors.New("timeout")); ok {
			t.Error("AsPermanent() = true for plain error, want false")
		}
	})
}

func TestErrorMessages(t *testing.T) {
	t.Parallel()

	rl := &RateLimitedError{RetryAfter: 5 * time.Second}
	if got := rl.Error(); !strings.Contains(got, "5s") {
		t.Errorf("RateLimitedError.Error() = %q, want the wait duration", got)
	}

	pe := &PermanentError{Scope: ScopeEntity, Reason: "channel deleted"}
	got := pe.Error()
	if !strings.Contains(got, "entity") || !strings.Contains(got, "channel deleted") {
		t.Errorf("PermanentError.Error() = %q, want scope and reason", got)
	}
}

func TestFaultScopeString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		scope FaultScope
		want  string
	}{
		{ScopeEntity, "entity"},
		{ScopeAccount, "account"},
		{FaultScope(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.scope.String(); got != tt.want {
			t.Errorf("FaultScope(%d).String() = %q, want %q", tt.scope, got, tt.want)
		}
	}
}

package session

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/danmuck/vostok/internal/protocol/frame"
	"github.com/danmuck/vostok/internal/testutil/testlog"
)

func TestBackoffDelayDeterministicNoJitter(t *testing.T) {
	testlog.Start(t)
	cfg := BackoffConfig{
		InitialDelay: 250 * time.Millisecond,
		Multiplier:   2.0,
		MaxDelay:     5 * time.Second,
		Jitter:       false,
	}
	if got := cfg.Delay(1, nil); got != 250*time.Millisecond {
		t.Fatalf("attempt1 got=%v", got)
	}
	if got := cfg.Delay(2, nil); got != 500*time.Millisecond {
		t.Fatalf("attempt2 got=%v", got)
	}
	if got := cfg.Delay(3, nil); got != time.Second {
		t.Fatalf("attempt3 got=%v", got)
	}
	if got := cfg.Delay(6, nil); got != 5*time.Second {
		t.Fatalf("attempt6 got=%v", got)
	}
}

func TestBackoffDelayJitterStaysInRange(t *testing.T) {
	testlog.Start(t)
	cfg := BackoffConfig{InitialDelay: 100 * time.Millisecond, Multiplier: 2.0, Jitter: true}
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		got := cfg.Delay(2, rng)
		if got < 100*time.Millisecond || got > 300*time.Millisecond {
			t.Fatalf("jittered delay out of range: %v", got)
		}
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	testlog.Start(t)
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Prompt != frame.DefaultPrompt {
		t.Fatalf("unexpected default prompt: %q", cfg.Prompt)
	}
	if !cfg.AwaitGreeting {
		t.Fatalf("expected greeting wait enabled by default")
	}
}

func TestWithDefaultsFillsZeroValues(t *testing.T) {
	testlog.Start(t)
	cfg := Config{Prompt: "Ivan@Мир:", ResponseTimeout: time.Second}.WithDefaults()
	if cfg.Prompt != "Ivan@Мир:" {
		t.Fatalf("prompt overwritten: %q", cfg.Prompt)
	}
	if cfg.ResponseTimeout != time.Second {
		t.Fatalf("response timeout overwritten: %v", cfg.ResponseTimeout)
	}
	if cfg.ConnectTimeout != DefaultConfig().ConnectTimeout {
		t.Fatalf("connect timeout not defaulted: %v", cfg.ConnectTimeout)
	}
	if cfg.Limits.MaxReplyBytes != frame.DefaultLimits().MaxReplyBytes {
		t.Fatalf("reply limit not defaulted: %d", cfg.Limits.MaxReplyBytes)
	}
	if cfg.MaxConnectAttempts != 1 {
		t.Fatalf("connect attempts not defaulted: %d", cfg.MaxConnectAttempts)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	testlog.Start(t)
	cfg := DefaultConfig()
	cfg.Prompt = "  "
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidPrompt) {
		t.Fatalf("expected ErrInvalidPrompt, got %v", err)
	}

	cfg = DefaultConfig()
	cfg.ResponseTimeout = 0
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidTimeout) {
		t.Fatalf("expected ErrInvalidTimeout, got %v", err)
	}

	cfg = DefaultConfig()
	cfg.Limits.MaxReplyBytes = 0
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidLimit) {
		t.Fatalf("expected ErrInvalidLimit, got %v", err)
	}
}

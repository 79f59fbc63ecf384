package session

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/danmuck/vostok/internal/protocol/frame"
)

var (
	ErrInvalidPrompt  = errors.New("session: invalid prompt")
	ErrInvalidTimeout = errors.New("session: invalid timeout")
	ErrInvalidLimit   = errors.New("session: invalid limit")
)

// BackoffConfig defines connect retry backoff behavior.
type BackoffConfig struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	Jitter       bool
}

// Delay returns the wait before retry attempt N (1-based).
func (b BackoffConfig) Delay(attempt int, rng *rand.Rand) time.Duration {
	if attempt <= 1 || b.InitialDelay <= 0 {
		return max(b.InitialDelay, 0)
	}
	mult := b.Multiplier
	if mult < 1.0 {
		mult = 1.0
	}
	delay := float64(b.InitialDelay) * math.Pow(mult, float64(attempt-1))
	if b.MaxDelay > 0 && delay > float64(b.MaxDelay) {
		delay = float64(b.MaxDelay)
	}
	if b.Jitter {
		f := 0.5
		if rng != nil {
			f = 0.5 + rng.Float64()
		}
		delay *= f
	}
	return time.Duration(delay)
}

// Config defines transport/session defaults for one console client.
type Config struct {
	// Prompt terminates every server reply. Identity-dependent, so it can
	// also be overridden per connect.
	Prompt string

	ConnectTimeout   time.Duration
	HandshakeTimeout time.Duration
	ResponseTimeout  time.Duration
	WriteTimeout     time.Duration

	// AwaitGreeting makes connect consume the prompt primed by the
	// handshake newline before any command is sent.
	AwaitGreeting bool

	// MaxConnectAttempts <= 1 disables retries.
	MaxConnectAttempts int

	Limits  frame.Limits
	Backoff BackoffConfig
}

func DefaultConfig() Config {
	return Config{
		Prompt:             frame.DefaultPrompt,
		ConnectTimeout:     5 * time.Second,
		HandshakeTimeout:   3 * time.Second,
		ResponseTimeout:    10 * time.Second,
		WriteTimeout:       5 * time.Second,
		AwaitGreeting:      true,
		MaxConnectAttempts: 1,
		Limits:             frame.DefaultLimits(),
		Backoff: BackoffConfig{
			InitialDelay: 250 * time.Millisecond,
			Multiplier:   2.0,
			MaxDelay:     5 * time.Second,
			Jitter:       true,
		},
	}
}

// WithDefaults fills zero values from DefaultConfig. AwaitGreeting is left
// as given.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if c.Prompt == "" {
		c.Prompt = def.Prompt
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = def.ConnectTimeout
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = def.HandshakeTimeout
	}
	if c.ResponseTimeout <= 0 {
		c.ResponseTimeout = def.ResponseTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	if c.MaxConnectAttempts <= 0 {
		c.MaxConnectAttempts = def.MaxConnectAttempts
	}
	if c.Limits.MaxReplyBytes <= 0 {
		c.Limits.MaxReplyBytes = def.Limits.MaxReplyBytes
	}
	if c.Limits.MaxLineBytes <= 0 {
		c.Limits.MaxLineBytes = def.Limits.MaxLineBytes
	}
	if c.Backoff == (BackoffConfig{}) {
		c.Backoff = def.Backoff
	}
	return c
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Prompt) == "" {
		return fmt.Errorf("%w: prompt is empty", ErrInvalidPrompt)
	}
	for name, d := range map[string]time.Duration{
		"connect_timeout":   c.ConnectTimeout,
		"handshake_timeout": c.HandshakeTimeout,
		"response_timeout":  c.ResponseTimeout,
		"write_timeout":     c.WriteTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%w: %s must be positive", ErrInvalidTimeout, name)
		}
	}
	if c.Limits.MaxReplyBytes <= 0 {
		return fmt.Errorf("%w: max_reply_bytes must be positive", ErrInvalidLimit)
	}
	if c.MaxConnectAttempts < 0 {
		return fmt.Errorf("%w: connect_attempts must not be negative", ErrInvalidLimit)
	}
	return nil
}

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/vostok/internal/protocol/session"
)

type fileConfig struct {
	Prompt            string   `toml:"prompt"`
	ConnectTimeout    string   `toml:"connect_timeout"`
	HandshakeTimeout  string   `toml:"handshake_timeout"`
	ResponseTimeout   string   `toml:"response_timeout"`
	WriteTimeout      string   `toml:"write_timeout"`
	AwaitGreeting     bool     `toml:"await_greeting"`
	ConnectAttempts   int      `toml:"connect_attempts"`
	MaxReplyBytes     int      `toml:"max_reply_bytes"`
	TargetsFile       string   `toml:"targets_file"`
	HistoryFile       string   `toml:"history_file"`
	StatusAddr        string   `toml:"status_addr"`
	StatusCorsOrigins []string `toml:"status_cors_origins"`
	StatusToken       string   `toml:"status_token"`
	LogFile           string   `toml:"log_file"`
}

// runtimeConfig is everything vostokctl needs after flags and file are merged.
type runtimeConfig struct {
	Session           session.Config
	TargetsFile       string
	HistoryFile       string
	StatusAddr        string
	StatusCorsOrigins []string
	StatusToken       string
	LogFile           string
}

func defaultRuntimeConfig() runtimeConfig {
	return runtimeConfig{
		Session:     session.DefaultConfig(),
		TargetsFile: "cmd/vostokctl/targets.toml",
	}
}

func loadRuntimeConfig(path string) (runtimeConfig, error) {
	cfg := defaultRuntimeConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return runtimeConfig{}, fmt.Errorf("load vostokctl config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return runtimeConfig{}, fmt.Errorf("load vostokctl config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("prompt") {
		cfg.Session.Prompt = raw.Prompt
	}

	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"connect_timeout", raw.ConnectTimeout, &cfg.Session.ConnectTimeout},
		{"handshake_timeout", raw.HandshakeTimeout, &cfg.Session.HandshakeTimeout},
		{"response_timeout", raw.ResponseTimeout, &cfg.Session.ResponseTimeout},
		{"write_timeout", raw.WriteTimeout, &cfg.Session.WriteTimeout},
	}
	for _, d := range durations {
		if !meta.IsDefined(d.key) {
			continue
		}
		v, err := time.ParseDuration(strings.TrimSpace(d.raw))
		if err != nil {
			return runtimeConfig{}, fmt.Errorf("parse %s: %w", d.key, err)
		}
		*d.dst = v
	}

	if meta.IsDefined("await_greeting") {
		cfg.Session.AwaitGreeting = raw.AwaitGreeting
	}
	if meta.IsDefined("connect_attempts") {
		cfg.Session.MaxConnectAttempts = raw.ConnectAttempts
	}
	if meta.IsDefined("max_reply_bytes") {
		cfg.Session.Limits.MaxReplyBytes = raw.MaxReplyBytes
	}
	if meta.IsDefined("targets_file") {
		cfg.TargetsFile = strings.TrimSpace(raw.TargetsFile)
	}
	if meta.IsDefined("history_file") {
		cfg.HistoryFile = strings.TrimSpace(raw.HistoryFile)
	}
	if meta.IsDefined("status_addr") {
		cfg.StatusAddr = strings.TrimSpace(raw.StatusAddr)
	}
	if meta.IsDefined("status_cors_origins") {
		cfg.StatusCorsOrigins = normalizeOrigins(raw.StatusCorsOrigins)
	}
	if meta.IsDefined("status_token") {
		cfg.StatusToken = strings.TrimSpace(raw.StatusToken)
	}
	if meta.IsDefined("log_file") {
		cfg.LogFile = strings.TrimSpace(raw.LogFile)
	}

	if err := cfg.Session.Validate(); err != nil {
		return runtimeConfig{}, fmt.Errorf("validate vostokctl config: %w", err)
	}
	return cfg, nil
}

func normalizeOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, origin := range in {
		v := strings.TrimSpace(origin)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}

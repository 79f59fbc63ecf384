package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danmuck/vostok/internal/protocol/session"
	"github.com/danmuck/vostok/internal/testutil/testlog"
)

func TestLoadRuntimeConfigDefaultsAndOverrides(t *testing.T) {
	testlog.Start(t)
	cfg, err := loadRuntimeConfig("ex.config.toml")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	def := session.DefaultConfig()
	if cfg.Session.Prompt != "Valentina@Чайка:" {
		t.Fatalf("unexpected prompt: %q", cfg.Session.Prompt)
	}
	if cfg.Session.ResponseTimeout != 2500*time.Millisecond {
		t.Fatalf("unexpected response timeout: %v", cfg.Session.ResponseTimeout)
	}
	if cfg.Session.ConnectTimeout != def.ConnectTimeout {
		t.Fatalf("connect timeout should keep default, got %v", cfg.Session.ConnectTimeout)
	}
	if cfg.Session.AwaitGreeting {
		t.Fatalf("expected greeting wait disabled")
	}
	if cfg.Session.MaxConnectAttempts != 3 {
		t.Fatalf("unexpected connect attempts: %d", cfg.Session.MaxConnectAttempts)
	}
	if cfg.Session.Limits.MaxReplyBytes != 65536 {
		t.Fatalf("unexpected reply limit: %d", cfg.Session.Limits.MaxReplyBytes)
	}
	if cfg.Session.Limits.MaxLineBytes != def.Limits.MaxLineBytes {
		t.Fatalf("line limit should keep default, got %d", cfg.Session.Limits.MaxLineBytes)
	}
	if cfg.TargetsFile != "targets.toml" || cfg.HistoryFile != "/tmp/vostokctl.history" {
		t.Fatalf("unexpected file paths: %+v", cfg)
	}
	if cfg.StatusAddr != "127.0.0.1:7061" {
		t.Fatalf("unexpected status addr: %q", cfg.StatusAddr)
	}
	if len(cfg.StatusCorsOrigins) != 1 || cfg.StatusCorsOrigins[0] != "http://localhost:3000" {
		t.Fatalf("unexpected cors origins: %+v", cfg.StatusCorsOrigins)
	}
	if cfg.LogFile != "vostokctl.log" {
		t.Fatalf("unexpected log file: %q", cfg.LogFile)
	}
}

func TestShippedConfigMatchesDefaults(t *testing.T) {
	testlog.Start(t)
	cfg, err := loadRuntimeConfig("config.toml")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	def := defaultRuntimeConfig()
	if cfg.Session.Prompt != def.Session.Prompt ||
		cfg.Session.ResponseTimeout != def.Session.ResponseTimeout ||
		cfg.Session.HandshakeTimeout != def.Session.HandshakeTimeout ||
		cfg.Session.AwaitGreeting != def.Session.AwaitGreeting ||
		cfg.TargetsFile != def.TargetsFile {
		t.Fatalf("shipped config drifted from defaults: %+v", cfg)
	}
}

func TestLoadRuntimeConfigRejectsBadValues(t *testing.T) {
	testlog.Start(t)
	cases := map[string]string{
		"bad duration": "response_timeout = \"soon\"\n",
		"zero timeout": "write_timeout = \"0s\"\n",
		"empty prompt": "prompt = \"\"\n",
		"unknown key":  "respone_timeout = \"1s\"\n",
	}
	for name, body := range cases {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatalf("write config: %v", err)
		}
		if _, err := loadRuntimeConfig(path); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestResolveConfigMissingDefaultFile(t *testing.T) {
	testlog.Start(t)
	missing := filepath.Join(t.TempDir(), "absent.toml")
	cfg, err := resolveConfig(missing, false)
	if err != nil {
		t.Fatalf("implicit missing config should fall back to defaults: %v", err)
	}
	if cfg.Session.Prompt != session.DefaultConfig().Prompt {
		t.Fatalf("unexpected prompt: %q", cfg.Session.Prompt)
	}
	if _, err := resolveConfig(missing, true); err == nil {
		t.Fatalf("explicit missing config must fail")
	}
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/vostok/internal/testutil/testlog"
)

func TestTargetsTemplateParsesAndResolves(t *testing.T) {
	testlog.Start(t)
	tpl, err := Template(KindTargets)
	if err != nil {
		t.Fatalf("template: %v", err)
	}
	cfg, err := ParseTargets([]byte(tpl))
	if err != nil {
		t.Fatalf("parse template: %v", err)
	}
	addr, prompt, ok := cfg.Resolve("vostok")
	if !ok || addr != "localhost:1961" || prompt != "Yuri@Восток:" {
		t.Fatalf("unexpected resolve: addr=%q prompt=%q ok=%t", addr, prompt, ok)
	}
	addr, prompt, ok = cfg.Resolve("voskhod")
	if !ok || addr != "127.0.0.1:1962" || prompt != "" {
		t.Fatalf("unexpected resolve: addr=%q prompt=%q ok=%t", addr, prompt, ok)
	}
	if _, _, ok := cfg.Resolve("localhost:1961"); ok {
		t.Fatalf("plain address must not resolve as a target")
	}
	if names := cfg.Names(); len(names) != 2 || names[0] != "voskhod" {
		t.Fatalf("unexpected names: %v", names)
	}
}

func TestValidateTargetsRejectsBadEntries(t *testing.T) {
	testlog.Start(t)
	cases := map[string]string{
		"missing name": "[[targets]]\naddr = \"a:1\"\n",
		"bad addr":     "[[targets]]\nname = \"a\"\naddr = \"nohost\"\n",
		"port only":    "[[targets]]\nname = \"a\"\naddr = \":1961\"\n",
		"duplicate":    "[[targets]]\nname = \"a\"\naddr = \"h:1\"\n[[targets]]\nname = \"a\"\naddr = \"h:2\"\n",
		"blank prompt": "[[targets]]\nname = \"a\"\naddr = \"h:1\"\nprompt = \"  \"\n",
	}
	for name, data := range cases {
		if _, err := ParseTargets([]byte(data)); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestLoadTargetsIfExistsMissingFile(t *testing.T) {
	testlog.Start(t)
	cfg, err := LoadTargetsIfExists(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil || len(cfg.Targets) != 0 {
		t.Fatalf("expected empty book, got %+v err=%v", cfg, err)
	}
}

func TestWriteTemplateRespectsOverwrite(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "targets.toml")
	if err := WriteTemplate(path, KindTargets, false); err != nil {
		t.Fatalf("write template: %v", err)
	}
	if err := WriteTemplate(path, KindTargets, false); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected already exists error, got %v", err)
	}
	if err := WriteTemplate(path, KindClient, true); err != nil {
		t.Fatalf("overwrite template: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || !strings.Contains(string(data), "response_timeout") {
		t.Fatalf("unexpected overwritten file: %q err=%v", data, err)
	}
	if _, err := Template("mirage"); err == nil {
		t.Fatalf("expected unknown kind error")
	}
}

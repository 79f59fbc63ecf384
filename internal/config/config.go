package config

import (
	"fmt"
	"net"
	"os"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Target is one named server in the address book.
type Target struct {
	Name        string `toml:"name"`
	Addr        string `toml:"addr"`
	Prompt      string `toml:"prompt"`
	Description string `toml:"description"`
}

// TargetsConfig is the address book consulted by `connect <name>`.
type TargetsConfig struct {
	Targets []Target `toml:"targets"`
}

func LoadTargets(path string) (TargetsConfig, error) {
	var cfg TargetsConfig
	if err := loadToml(path, &cfg); err != nil {
		return TargetsConfig{}, err
	}
	if err := ValidateTargets(cfg); err != nil {
		return TargetsConfig{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return cfg, nil
}

// LoadTargetsIfExists returns an empty book when path does not exist.
func LoadTargetsIfExists(path string) (TargetsConfig, error) {
	if strings.TrimSpace(path) == "" {
		return TargetsConfig{}, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return TargetsConfig{}, nil
	}
	return LoadTargets(path)
}

func ParseTargets(data []byte) (TargetsConfig, error) {
	var cfg TargetsConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return TargetsConfig{}, fmt.Errorf("config parse failed: %w", err)
	}
	if err := ValidateTargets(cfg); err != nil {
		return TargetsConfig{}, err
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidateTargets(cfg TargetsConfig) error {
	seen := make(map[string]struct{}, len(cfg.Targets))
	for i, t := range cfg.Targets {
		if err := ValidateTarget(t); err != nil {
			return fmt.Errorf("target[%d] invalid: %w", i, err)
		}
		if _, dup := seen[t.Name]; dup {
			return fmt.Errorf("target[%d] invalid: duplicate name %q", i, t.Name)
		}
		seen[t.Name] = struct{}{}
	}
	return nil
}

func ValidateTarget(t Target) error {
	name := strings.TrimSpace(t.Name)
	if name == "" {
		return fmt.Errorf("name is required")
	}
	if strings.ContainsAny(name, " \t") {
		return fmt.Errorf("name %q must be a single word", name)
	}
	addr := strings.TrimSpace(t.Addr)
	if addr == "" {
		return fmt.Errorf("addr is required")
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("addr %q: %w", addr, err)
	}
	if host == "" || port == "" {
		return fmt.Errorf("addr %q must be host:port", addr)
	}
	if t.Prompt != "" && strings.TrimSpace(t.Prompt) == "" {
		return fmt.Errorf("prompt must not be blank")
	}
	return nil
}

// Resolve returns the address and prompt of the named target. An empty
// prompt means the client default applies.
func (c TargetsConfig) Resolve(name string) (string, string, bool) {
	for _, t := range c.Targets {
		if t.Name == name {
			return strings.TrimSpace(t.Addr), t.Prompt, true
		}
	}
	return "", "", false
}

func (c TargetsConfig) Names() []string {
	names := make([]string, 0, len(c.Targets))
	for _, t := range c.Targets {
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return names
}

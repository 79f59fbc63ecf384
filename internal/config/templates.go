package config

import (
	"fmt"
	"os"
	"strings"
)

const (
	KindClient  = "client"
	KindTargets = "targets"
)

// DefaultPath is where each config kind lives in a checkout.
func DefaultPath(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case KindClient:
		return "cmd/vostokctl/config.toml", nil
	case KindTargets:
		return "cmd/vostokctl/targets.toml", nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case KindClient:
		return clientTemplate, nil
	case KindTargets:
		return targetsTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const clientTemplate = `prompt = "Yuri@Восток:"
connect_timeout = "5s"
handshake_timeout = "3s"
response_timeout = "10s"
write_timeout = "5s"
await_greeting = true
connect_attempts = 1
max_reply_bytes = 1048576
targets_file = "cmd/vostokctl/targets.toml"
history_file = ""
status_addr = ""
status_cors_origins = ["http://localhost:3000"]
status_token = ""
log_file = ""
`

const targetsTemplate = `[[targets]]
name = "vostok"
addr = "localhost:1961"
prompt = "Yuri@Восток:"
description = "local simulation server"

[[targets]]
name = "voskhod"
addr = "127.0.0.1:1962"
description = "second bridge, default prompt"
`

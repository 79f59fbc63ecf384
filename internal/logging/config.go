package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	EnvLogLevel     = "VOSTOK_LOG_LEVEL"
	EnvLogTimestamp = "VOSTOK_LOG_TIMESTAMP"
	EnvLogNoColor   = "VOSTOK_LOG_NOCOLOR"
	EnvLogFile      = "VOSTOK_LOG_FILE"
)

type Profile int

const (
	ProfileRuntime Profile = iota
	ProfileTest
)

// FileConfig enables a rotated JSON log file next to the console writer.
type FileConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Config is the resolved logger setup.
type Config struct {
	Level     zerolog.Level
	Timestamp bool
	NoColor   bool
	// Console receives human-readable output. Nil disables console logging.
	Console io.Writer
	File    FileConfig
}

var configureOnce sync.Once

func ConfigureRuntime(file FileConfig) {
	configureOnce.Do(func() {
		cfg := DefaultConfig(ProfileRuntime)
		cfg.File = mergeFile(cfg.File, file)
		applyEnvOverrides(&cfg)
		log.Logger = New(cfg)
		zerolog.SetGlobalLevel(cfg.Level)
	})
}

func ConfigureTests() {
	configureOnce.Do(func() {
		cfg := DefaultConfig(ProfileTest)
		applyEnvOverrides(&cfg)
		log.Logger = New(cfg)
		zerolog.SetGlobalLevel(cfg.Level)
	})
}

func DefaultConfig(profile Profile) Config {
	switch profile {
	case ProfileTest:
		return Config{
			Level:     zerolog.DebugLevel,
			Timestamp: false,
			Console:   os.Stderr,
		}
	default:
		// The console owns stdout, so runtime logs stay on stderr and
		// default to warnings only.
		return Config{
			Level:     zerolog.WarnLevel,
			Timestamp: true,
			Console:   os.Stderr,
			File: FileConfig{
				MaxSizeMB:  10,
				MaxBackups: 5,
				MaxAgeDays: 30,
			},
		}
	}
}

// mergeFile keeps default rotation settings for zero fields of override.
func mergeFile(def, override FileConfig) FileConfig {
	def.Path = override.Path
	def.Compress = override.Compress
	if override.MaxSizeMB > 0 {
		def.MaxSizeMB = override.MaxSizeMB
	}
	if override.MaxBackups > 0 {
		def.MaxBackups = override.MaxBackups
	}
	if override.MaxAgeDays > 0 {
		def.MaxAgeDays = override.MaxAgeDays
	}
	return def
}

// New builds a logger from cfg without touching global state.
func New(cfg Config) zerolog.Logger {
	writers := make([]io.Writer, 0, 2)
	if cfg.Console != nil {
		cw := zerolog.ConsoleWriter{
			Out:     cfg.Console,
			NoColor: cfg.NoColor,
		}
		if cfg.Timestamp {
			cw.TimeFormat = time.RFC3339
		} else {
			cw.PartsExclude = []string{zerolog.TimestampFieldName}
		}
		writers = append(writers, cw)
	}
	if path := strings.TrimSpace(cfg.File.Path); path != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   path,
			MaxSize:    cfg.File.MaxSizeMB,
			MaxBackups: cfg.File.MaxBackups,
			MaxAge:     cfg.File.MaxAgeDays,
			Compress:   cfg.File.Compress,
		})
	}

	var out io.Writer
	switch len(writers) {
	case 0:
		out = io.Discard
	case 1:
		out = writers[0]
	default:
		out = zerolog.MultiLevelWriter(writers...)
	}

	ctx := zerolog.New(out).Level(cfg.Level).With()
	if cfg.Timestamp {
		ctx = ctx.Timestamp()
	}
	return ctx.Str("app", "vostok").Logger()
}

func applyEnvOverrides(cfg *Config) {
	if lvl, ok := parseLevel(os.Getenv(EnvLogLevel)); ok {
		cfg.Level = lvl
	}
	if v, ok := parseBool(os.Getenv(EnvLogTimestamp)); ok {
		cfg.Timestamp = v
	}
	if v, ok := parseBool(os.Getenv(EnvLogNoColor)); ok {
		cfg.NoColor = v
	}
	if path := strings.TrimSpace(os.Getenv(EnvLogFile)); path != "" {
		cfg.File.Path = path
	}
}

func parseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace", "diagnostics":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "disable", "off", "none", "inactive":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}

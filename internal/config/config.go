// Package config loads ocppskema service settings from defaults, an optional
// JSON file and OCPPSKEMA_* environment variables, in that order.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/reoring/ocppskema"
)

// EnvPrefix prefixes every environment override. The first underscore after
// the prefix separates the section from the key: OCPPSKEMA_HTTP_ADDR sets
// http.addr and OCPPSKEMA_PARSE_MAX_DEPTH sets parse.max_depth.
const EnvPrefix = "OCPPSKEMA_"

// Config is the full service configuration.
type Config struct {
	Log     Log      `koanf:"log"`
	Parse   Parse    `koanf:"parse"`
	HTTP    HTTP     `koanf:"http"`
	NATS    NATS     `koanf:"nats"`
	Catalog []string `koanf:"catalog"` // extra YAML type files
}

// Log configures the zerolog output.
type Log struct {
	Level string `koanf:"level" validate:"oneof=trace debug info warn error"`
	JSON  bool   `koanf:"json"`
}

// Parse holds the default decode and validation settings.
type Parse struct {
	Duplicates string `koanf:"duplicates" validate:"oneof=ignore warn error"`
	MaxDepth   int    `koanf:"max_depth" validate:"min=1,max=1024"`
	MaxBytes   int64  `koanf:"max_bytes" validate:"min=0"`
	Mode       string `koanf:"mode" validate:"oneof=shallow deep"`
}

// HTTP configures the validation endpoint.
type HTTP struct {
	Addr            string        `koanf:"addr" validate:"required"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"min=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"min=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"min=0"`
	MaxBodyBytes    int64         `koanf:"max_body_bytes" validate:"min=1"`
}

// NATS configures the request/reply validator. With Embedded set an
// in-process server is started on Port instead of dialing URL.
type NATS struct {
	URL      string `koanf:"url" validate:"required_without=Embedded"`
	Subject  string `koanf:"subject" validate:"required"`
	Queue    string `koanf:"queue"`
	Embedded bool   `koanf:"embedded"`
	Port     int    `koanf:"port" validate:"min=-1,max=65535"`
}

// Defaults returns the built-in settings as flat koanf keys.
func Defaults() map[string]any {
	return map[string]any{
		"log.level":             "info",
		"log.json":              false,
		"parse.duplicates":      "error",
		"parse.max_depth":       ocppskema.DefaultMaxDepth,
		"parse.max_bytes":       int64(0),
		"parse.mode":            "deep",
		"http.addr":             ":8080",
		"http.read_timeout":     10 * time.Second,
		"http.write_timeout":    10 * time.Second,
		"http.shutdown_timeout": 5 * time.Second,
		"http.max_body_bytes":   int64(1 << 20),
		"nats.url":              "nats://127.0.0.1:4222",
		"nats.subject":          "ocpp.validate.>",
		"nats.queue":            "ocppskema",
		"nats.embedded":         false,
		"nats.port":             -1,
		"catalog":               []string{},
	}
}

// Load merges defaults, the JSON file at path (skipped when path is empty or
// missing) and the environment, then validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	for key, value := range Defaults() {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("config: default %s: %w", key, err)
		}
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), json.Parser()); err != nil {
				return nil, fmt.Errorf("config: load %s: %w", path, err)
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("config: environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return &cfg, nil
}

// envTransform maps OCPPSKEMA_HTTP_READ_TIMEOUT to http.read_timeout.
func envTransform(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.Replace(key, "_", ".", 1)
}

// ParseOpt converts the parse section into decode options.
func (p Parse) ParseOpt() ocppskema.ParseOpt {
	sev, ok := ocppskema.ParseSeverity(p.Duplicates)
	if !ok {
		sev = ocppskema.Error
	}
	return ocppskema.ParseOpt{
		Strictness: ocppskema.Strictness{OnDuplicateKey: sev},
		MaxDepth:   p.MaxDepth,
		MaxBytes:   p.MaxBytes,
	}
}

// ValidationMode converts the configured mode name.
func (p Parse) ValidationMode() ocppskema.Mode {
	m, ok := ocppskema.ParseMode(p.Mode)
	if !ok {
		return ocppskema.Deep
	}
	return m
}

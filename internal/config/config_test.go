package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/ocppskema"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 10*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, "ocpp.validate.>", cfg.NATS.Subject)
	assert.Equal(t, ocppskema.DefaultMaxDepth, cfg.Parse.MaxDepth)
	assert.Equal(t, ocppskema.Deep, cfg.Parse.ValidationMode())
	assert.Empty(t, cfg.Catalog)
}

func TestLoad_MissingFileIsSkipped(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Parse.Duplicates)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ocppskema.json")
	content := `{
		"log": {"level": "debug", "json": true},
		"parse": {"duplicates": "warn", "mode": "shallow", "max_depth": 16},
		"http": {"addr": "127.0.0.1:9000", "read_timeout": "2s"},
		"catalog": ["vendor.yaml"]
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.JSON)
	assert.Equal(t, "127.0.0.1:9000", cfg.HTTP.Addr)
	assert.Equal(t, 2*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.HTTP.WriteTimeout)
	assert.Equal(t, []string{"vendor.yaml"}, cfg.Catalog)

	opt := cfg.Parse.ParseOpt()
	assert.Equal(t, ocppskema.Warn, opt.Strictness.OnDuplicateKey)
	assert.Equal(t, 16, opt.MaxDepth)
	assert.Equal(t, ocppskema.Shallow, cfg.Parse.ValidationMode())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ocppskema.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"http": {"addr": ":9000"}}`), 0o644))
	t.Setenv("OCPPSKEMA_HTTP_ADDR", ":9100")
	t.Setenv("OCPPSKEMA_HTTP_SHUTDOWN_TIMEOUT", "1s")
	t.Setenv("OCPPSKEMA_LOG_LEVEL", "warn")
	t.Setenv("OCPPSKEMA_NATS_EMBEDDED", "true")
	t.Setenv("OCPPSKEMA_PARSE_MAX_BYTES", "4096")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9100", cfg.HTTP.Addr)
	assert.Equal(t, time.Second, cfg.HTTP.ShutdownTimeout)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.True(t, cfg.NATS.Embedded)
	assert.Equal(t, int64(4096), cfg.Parse.MaxBytes)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"level":      `{"log": {"level": "loud"}}`,
		"duplicates": `{"parse": {"duplicates": "sometimes"}}`,
		"mode":       `{"parse": {"mode": "medium"}}`,
		"depth":      `{"parse": {"max_depth": 0}}`,
		"subject":    `{"nats": {"subject": ""}}`,
		"body":       `{"http": {"max_body_bytes": 0}}`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.json")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "validation failed")
		})
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"log":`), 0o644))
	_, err := Load(path)
	require.Error(t, err)
}

func TestEnvTransform(t *testing.T) {
	assert.Equal(t, "http.read_timeout", envTransform("OCPPSKEMA_HTTP_READ_TIMEOUT"))
	assert.Equal(t, "log.level", envTransform("OCPPSKEMA_LOG_LEVEL"))
	assert.Equal(t, "catalog", envTransform("OCPPSKEMA_CATALOG"))
}

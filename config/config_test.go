package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	// GIVEN: no config file and no HRS_ variables
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "erp-engine", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "./data/erp.db", cfg.Database.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 15*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, time.Hour, cfg.Scheduler.CheckInterval)
	assert.False(t, cfg.Scheduler.Enabled)
	assert.Equal(t, "en", cfg.Report.Language)
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestLoad_EnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HRS_APP_PORT", "9090")
	t.Setenv("HRS_APP_ENV", "production")
	t.Setenv("HRS_APP_DEFAULT_COMPANY", "Acme")
	t.Setenv("HRS_DATABASE_PATH", ":memory:")
	t.Setenv("HRS_SCHEDULER_ENABLED", "true")
	t.Setenv("HRS_SCHEDULER_CHECK_INTERVAL", "5m")
	t.Setenv("HRS_HTTP_CORS_ALLOW_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.App.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "json", cfg.Log.Format, "production defaults to json logs")
	assert.Equal(t, "Acme", cfg.App.DefaultCompany)
	assert.Equal(t, ":memory:", cfg.Database.Path)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, 5*time.Minute, cfg.Scheduler.CheckInterval)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.CORSAllowOrigins)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, t.TempDir())

	content := `
[app]
port = "7070"
default_company = "Globex"

[report]
language = "de"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.App.Port)
	assert.Equal(t, "Globex", cfg.App.DefaultCompany)
	assert.Equal(t, "de", cfg.Report.Language)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad port", map[string]string{"HRS_APP_PORT": "not-a-port"}},
		{"bad env", map[string]string{"HRS_APP_ENV": "staging"}},
		{"bad log level", map[string]string{"HRS_LOG_LEVEL": "chatty"}},
		{"bad log format", map[string]string{"HRS_LOG_FORMAT": "xml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdir(t, t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

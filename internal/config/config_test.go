package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inTempDir runs the test from an empty directory so no stray pathway.yaml
// or .env is picked up.
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	inTempDir(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "pathway.db", cfg.Database.Path)
	assert.Equal(t, "./catalog", cfg.Catalog.Dir)
	assert.Equal(t, "UTC", cfg.Calendar.DefaultTimezone)
	assert.Equal(t, "manual", cfg.Reveal.Policy)
	assert.Equal(t, 3.5, cfg.Reveal.WordsPerSecond)
	assert.Equal(t, 5.0, cfg.RateLimit.RPS)
	assert.Equal(t, 30, cfg.RateLimit.Burst)
	assert.Equal(t, "dev", cfg.Log.Mode)
	assert.False(t, cfg.OTel.Enabled)
	assert.Equal(t, 0.1, cfg.OTel.SampleRatio)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := inTempDir(t)
	yaml := `
server:
  address: ":9090"
calendar:
  default_timezone: "America/New_York"
reveal:
  policy: timed
  words_per_second: 2.5
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pathway.yaml"), []byte(yaml), 0o644))
	t.Setenv("PATHWAY_SERVER_ADDRESS", ":7070")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Address, "env beats file")
	assert.Equal(t, "America/New_York", cfg.Calendar.DefaultTimezone)
	assert.Equal(t, "timed", cfg.Reveal.Policy)
	assert.Equal(t, 2.5, cfg.Reveal.WordsPerSecond)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", loc.String())
}

func TestLoad_DotEnv(t *testing.T) {
	dir := inTempDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PATHWAY_LOG_MODE=prod\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("PATHWAY_LOG_MODE") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "prod", cfg.Log.Mode)
}

func TestLoad_ExplicitPathMustExist(t *testing.T) {
	dir := inTempDir(t)
	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }},
		{"postgres without url", func(c *Config) { c.Database.Driver = "postgres" }},
		{"sqlite without path", func(c *Config) { c.Database.Path = "" }},
		{"bad zone", func(c *Config) { c.Calendar.DefaultTimezone = "Mars/Olympus" }},
		{"bad policy", func(c *Config) { c.Reveal.Policy = "scroll" }},
		{"zero speed", func(c *Config) { c.Reveal.WordsPerSecond = 0 }},
		{"zero rps", func(c *Config) { c.RateLimit.RPS = 0 }},
		{"zero burst", func(c *Config) { c.RateLimit.Burst = 0 }},
		{"ratio above one", func(c *Config) { c.OTel.SampleRatio = 1.5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			require.NoError(t, cfg.Validate())
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

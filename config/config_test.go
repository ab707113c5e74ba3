package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/apex/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/seizures/dataset"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, "", cfg.Data)
	assert.Equal(t, dataset.DefaultTable, cfg.Table)
	assert.Equal(t, "out", cfg.Out)
	assert.Equal(t, []string{"csv", "xlsx", "html"}, cfg.Formats)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "cli", cfg.LogFormat)
	assert.False(t, cfg.Parallel)
	assert.Empty(t, cfg.File)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, dir, "seizures.yaml", `
data: data/seizures.csv
formats: [json, png]
parallel: true
sections: [weight_by_drug]
log_level: warn
`)
	t.Setenv("SEIZURES_LOG_LEVEL", "debug")
	t.Setenv("SEIZURES_OUT", "reports")

	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, "data/seizures.csv", cfg.Data)
	assert.Equal(t, []string{"json", "png"}, cfg.Formats)
	assert.True(t, cfg.Parallel)
	assert.Equal(t, []string{"weight_by_drug"}, cfg.Sections)
	assert.Equal(t, "debug", cfg.LogLevel, "environment beats file")
	assert.Equal(t, "reports", cfg.Out)
	assert.Equal(t, "seizures.yaml", filepath.Base(cfg.File))
}

func TestLoadExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "custom.yml", "table: events\nsheet: Data\n")

	cfg, err := Load(New(), path)
	require.NoError(t, err)
	assert.Equal(t, dataset.Options{Table: "events", Sheet: "Data"}, cfg.DataOptions())

	_, err = Load(New(), filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "read config")
}

func TestValidate(t *testing.T) {
	tests := map[string]struct {
		cfg     Config
		wantErr string
	}{
		"ok":          {cfg: Config{Formats: []string{"CSV,text"}, LogLevel: "warn", LogFormat: "JSON"}},
		"bad format":  {cfg: Config{Formats: []string{"pdf"}, LogLevel: "info", LogFormat: "cli"}, wantErr: "unknown format"},
		"bad level":   {cfg: Config{LogLevel: "loud", LogFormat: "cli"}, wantErr: "log level"},
		"bad logging": {cfg: Config{LogLevel: "info", LogFormat: "xml"}, wantErr: "unknown log format"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []string{"csv", "text"}, tt.cfg.Formats)
			assert.Equal(t, "json", tt.cfg.LogFormat)
		})
	}
}

func TestSetupLogging(t *testing.T) {
	logger := log.Log.(*log.Logger)
	prev, level := logger.Handler, logger.Level
	t.Cleanup(func() {
		log.SetHandler(prev)
		log.SetLevel(level)
	})

	var buf bytes.Buffer
	cfg := Config{LogLevel: "warn", LogFormat: "json"}
	require.NoError(t, cfg.SetupLogging(&buf))

	log.Info("hidden")
	log.WithField("rows", 3).Warn("skipping row")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"message":"skipping row"`)
	assert.Contains(t, out, `"rows":3`)
}

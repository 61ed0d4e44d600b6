package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("should apply defaults", func(t *testing.T) {
		cfg, err := New()

		require.NoError(t, err)
		assert.Equal(t, "8080", cfg.APIPort)
		assert.Equal(t, ';', cfg.CSVDelimiter)
		assert.Equal(t, 15, cfg.HeaderScanRows)
		assert.Equal(t, 4, cfg.NumImportWorkers)
		assert.Equal(t, "default", cfg.Schema)
		assert.Equal(t, "SIDE 0", cfg.DefaultSide)
		assert.Len(t, cfg.SideLabels, 10)
		assert.Equal(t, "SIDE 9", cfg.SideLabels[9])
	})

	t.Run("should read the environment", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/dock")
		t.Setenv("CSV_DELIMITER", ",")
		t.Setenv("HEADER_SCAN_ROWS", "10")
		t.Setenv("SIDE_LABELS", "NORTH, SOUTH ,")
		t.Setenv("DEFAULT_SIDE", "NORTH")
		t.Setenv("SCHEMA", "es")

		cfg, err := New()

		require.NoError(t, err)
		assert.Equal(t, "postgres://localhost/dock", cfg.DatabaseURL)
		assert.Equal(t, ',', cfg.CSVDelimiter)
		assert.Equal(t, 10, cfg.HeaderScanRows)
		assert.Equal(t, []string{"NORTH", "SOUTH"}, cfg.SideLabels)
		assert.Equal(t, "NORTH", cfg.DefaultSide)
		assert.Equal(t, "es", cfg.Schema)
	})

	t.Run("should accept an escaped tab delimiter", func(t *testing.T) {
		t.Setenv("CSV_DELIMITER", `\t`)

		cfg, err := New()

		require.NoError(t, err)
		assert.Equal(t, '\t', cfg.CSVDelimiter)
	})

	t.Run("should reject a bad integer", func(t *testing.T) {
		t.Setenv("NUM_IMPORT_WORKERS", "many")

		_, err := New()

		assert.EqualError(t, err, "invalid value for NUM_IMPORT_WORKERS: expected an integer, got 'many'")
	})

	t.Run("should reject a long delimiter", func(t *testing.T) {
		t.Setenv("CSV_DELIMITER", ";;")

		_, err := New()

		assert.Error(t, err)
	})

	t.Run("should read a config file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "dock.yaml")
		require.NoError(t, os.WriteFile(path, []byte("API_PORT: \"9090\"\nNUM_IMPORT_WORKERS: 2\n"), 0o644))
		t.Setenv("CONFIG_FILE", path)

		cfg, err := New()

		require.NoError(t, err)
		assert.Equal(t, "9090", cfg.APIPort)
		assert.Equal(t, 2, cfg.NumImportWorkers)
	})
}

func TestConfig_RequireDatabase(t *testing.T) {
	assert.Error(t, (&Config{}).RequireDatabase())
	assert.NoError(t, (&Config{DatabaseURL: "postgres://"}).RequireDatabase())
}

func TestConfig_SideLabel(t *testing.T) {
	cfg := &Config{SideLabels: defaultSideLabels()}

	label, ok := cfg.SideLabel(" side 3 ")
	assert.True(t, ok)
	assert.Equal(t, "SIDE 3", label)

	_, ok = cfg.SideLabel("SIDE 10")
	assert.False(t, ok)
	_, ok = cfg.SideLabel("")
	assert.False(t, ok)

	t.Run("Expect: the configured spelling is kept", func(t *testing.T) {
		cfg := &Config{SideLabels: []string{"North", "South"}}

		label, ok := cfg.SideLabel("NORTH")
		assert.True(t, ok)
		assert.Equal(t, "North", label)
	})
}

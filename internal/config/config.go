package config

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/spf13/viper"
)

type Config struct {
	DatabaseURL      string
	APIPort          string
	LogLevel         string
	LogFormat        string
	CSVDelimiter     rune
	HeaderScanRows   int
	Schema           string
	SynonymsFile     string
	SideLabels       []string
	DefaultSide      string
	NumImportWorkers int
}

func defaultSideLabels() []string {
	labels := make([]string, 10)
	for i := range labels {
		labels[i] = fmt.Sprintf("SIDE %d", i)
	}
	return labels
}

// New reads the configuration from the environment. CONFIG_FILE may point at a
// json, yaml or toml file holding the same keys; the environment wins over it.
func New() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("API_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("CSV_DELIMITER", ";")
	v.SetDefault("SCHEMA", "default")
	v.SetDefault("SIDE_LABELS", strings.Join(defaultSideLabels(), ","))
	v.SetDefault("DEFAULT_SIDE", "SIDE 0")

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	cfg := &Config{
		DatabaseURL:      v.GetString("DATABASE_URL"),
		APIPort:          v.GetString("API_PORT"),
		LogLevel:         v.GetString("LOG_LEVEL"),
		LogFormat:        v.GetString("LOG_FORMAT"),
		CSVDelimiter:     ';',
		HeaderScanRows:   15,
		Schema:           v.GetString("SCHEMA"),
		SynonymsFile:     v.GetString("SYNONYMS_FILE"),
		DefaultSide:      strings.TrimSpace(v.GetString("DEFAULT_SIDE")),
		NumImportWorkers: 4,
	}

	var err error
	cfg.HeaderScanRows, err = getAsInt(v, "HEADER_SCAN_ROWS", cfg.HeaderScanRows)
	if err != nil {
		return nil, err
	}

	cfg.NumImportWorkers, err = getAsInt(v, "NUM_IMPORT_WORKERS", cfg.NumImportWorkers)
	if err != nil {
		return nil, err
	}

	delimiter := v.GetString("CSV_DELIMITER")
	if delimiter == `\t` {
		delimiter = "\t"
	}
	if utf8.RuneCountInString(delimiter) != 1 {
		return nil, fmt.Errorf("invalid value for CSV_DELIMITER: expected a single character, got '%s'", delimiter)
	}
	cfg.CSVDelimiter, _ = utf8.DecodeRuneInString(delimiter)

	cfg.SideLabels = splitList(v.GetString("SIDE_LABELS"))
	if len(cfg.SideLabels) == 0 {
		cfg.SideLabels = defaultSideLabels()
	}
	if cfg.DefaultSide == "" {
		return nil, fmt.Errorf("DEFAULT_SIDE must not be blank")
	}

	return cfg, nil
}

// RequireDatabase is called by binaries that cannot run without Postgres.
func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is not set")
	}
	return nil
}

// SideLabel finds side among the configured labels, ignoring case, and returns
// the label as configured.
func (c *Config) SideLabel(side string) (string, bool) {
	side = strings.TrimSpace(side)
	for _, label := range c.SideLabels {
		if strings.EqualFold(label, side) {
			return label, true
		}
	}
	return "", false
}

func getAsInt(v *viper.Viper, key string, defaultValue int) (int, error) {
	valueStr := strings.TrimSpace(v.GetString(key))
	if valueStr == "" {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: expected an integer, got '%s'", key, valueStr)
	}

	return value, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ThiagoRGoveia/dock-operations/internal/config"
	"github.com/ThiagoRGoveia/dock-operations/internal/database"
	"github.com/ThiagoRGoveia/dock-operations/internal/headers"
	"github.com/ThiagoRGoveia/dock-operations/internal/ingestion"
	"github.com/ThiagoRGoveia/dock-operations/internal/logging"
	"github.com/ThiagoRGoveia/dock-operations/internal/models"
	"github.com/ThiagoRGoveia/dock-operations/internal/normalize"
)

// app holds what every subcommand shares.
type app struct {
	cfg      *config.Config
	logger   *logrus.Logger
	importer *ingestion.ImportService
}

func (a *app) load() error {
	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	a.cfg = cfg
	a.logger = logging.New(cfg.LogLevel, cfg.LogFormat)

	schema, err := headers.LoadSchema(cfg.Schema, cfg.SynonymsFile)
	if err != nil {
		return fmt.Errorf("failed to load header schema: %w", err)
	}
	a.importer = ingestion.NewImportService(
		headers.NewResolver(schema),
		ingestion.ImportOptions{Delimiter: cfg.CSVDelimiter, HeaderScanRows: cfg.HeaderScanRows},
		a.logger,
	)
	return nil
}

// connect opens the store. The returned func closes the pool.
func (a *app) connect(ctx context.Context) (database.DBManager, func(), error) {
	if err := a.cfg.RequireDatabase(); err != nil {
		return nil, nil, err
	}
	dbpool, err := database.ConnectDB(a.cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := dbpool.Ping(ctx); err != nil {
		dbpool.Close()
		return nil, nil, fmt.Errorf("unable to reach database: %w", err)
	}
	return database.NewPostgresDBManager(dbpool, a.logger), dbpool.Close, nil
}

// day parses a --date flag. Blank means today.
func (a *app) day(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return normalize.Day(time.Now()), nil
	}
	parsed, err := time.Parse(models.DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q: use YYYY-MM-DD", value)
	}
	return parsed, nil
}

// side checks a --side flag against the configured labels. Blank means the default.
func (a *app) side(value string) (string, error) {
	value = normalize.Display(value)
	if value == "" {
		return a.cfg.DefaultSide, nil
	}
	if label, ok := a.cfg.SideLabel(value); ok {
		return label, nil
	}
	return "", fmt.Errorf("unknown --side %q: expected one of %s", value, strings.Join(a.cfg.SideLabels, ", "))
}

package ingestion

import (
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ThiagoRGoveia/dock-operations/internal/headers"
	"github.com/ThiagoRGoveia/dock-operations/internal/logging"
	"github.com/ThiagoRGoveia/dock-operations/internal/models"
	"github.com/ThiagoRGoveia/dock-operations/internal/normalize"
	"github.com/ThiagoRGoveia/dock-operations/internal/parser"
)

const (
	FormatDelimited = "csv"
	FormatWorkbook  = "xlsx"
)

// ErrUnsupportedFormat is returned by ReadTable for extensions no adapter handles.
// Import and ImportFile treat it as "nothing to import".
var ErrUnsupportedFormat = errors.New("unsupported file format")

var timeNow = time.Now

// FormatOf maps a file extension to an adapter format, or "" when none applies.
func FormatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return FormatDelimited
	case ".xlsx", ".xlsm":
		return FormatWorkbook
	}
	return ""
}

type ImportOptions struct {
	Delimiter      rune
	HeaderScanRows int
}

// ImportService is the single entry point for turning a file into operations.
// It keeps no per-call state and can import different files concurrently.
type ImportService struct {
	resolver *headers.Resolver
	options  ImportOptions
	logger   logrus.FieldLogger
}

func NewImportService(resolver *headers.Resolver, options ImportOptions, logger logrus.FieldLogger) *ImportService {
	if options.Delimiter == 0 {
		options.Delimiter = parser.DefaultDelimiter
	}
	if options.HeaderScanRows <= 0 {
		options.HeaderScanRows = parser.DefaultHeaderScanRows
	}
	return &ImportService{
		resolver: resolver,
		options:  options,
		logger:   logging.OrDiscard(logger),
	}
}

// ReadTable runs the adapter matching the file extension.
func (s *ImportService) ReadTable(path string) (*models.RawTable, string, error) {
	format := FormatOf(path)
	switch format {
	case FormatDelimited:
		table, err := parser.ReadDelimited(path, s.options.Delimiter)
		return table, format, err
	case FormatWorkbook:
		table, err := parser.ReadWorkbook(path, s.options.HeaderScanRows)
		return table, format, err
	}
	return nil, "", ErrUnsupportedFormat
}

// Import returns the non-empty operations of the file at path, in file order.
// Rows without a date or side get defaultDate and defaultSide. Unknown extensions
// give an empty result; only file access failures are errors.
func (s *ImportService) Import(path string, defaultDate time.Time, defaultSide string) ([]models.Operation, error) {
	result, err := s.ImportFile(path, defaultDate, defaultSide)
	if err != nil {
		return nil, err
	}
	return result.Operations, nil
}

// ImportFile is Import plus the details of how the file was read.
func (s *ImportService) ImportFile(path string, defaultDate time.Time, defaultSide string) (*models.ImportResult, error) {
	if defaultDate.IsZero() {
		defaultDate = defaultDay()
	}

	result := &models.ImportResult{
		BatchID:    uuid.NewString(),
		Path:       path,
		Operations: []models.Operation{},
	}
	log := s.logger.WithFields(logrus.Fields{"file": path, "batch_id": result.BatchID})

	table, format, err := s.ReadTable(path)
	if errors.Is(err, ErrUnsupportedFormat) {
		log.Info("No adapter for file extension, nothing to import")
		return result, nil
	}
	if err != nil {
		return nil, err
	}
	result.Format = format
	result.Sheet = table.Sheet
	result.HeaderRow = table.HeaderRow

	header := table.Header()
	mapping, err := s.resolver.Resolve(header)
	if err != nil {
		log.WithField("headers", strings.Join(header, "|")).Warn("Headers not recognized, using positional columns")
		mapping = headers.Positional()
		result.Positional = true
	}

	builder := NewRowBuilder(mapping, defaultDate, defaultSide)
	dataRows := table.DataRows()
	result.RowsRead = len(dataRows)
	for i, row := range dataRows {
		op, ok := builder.Build(row)
		if !ok {
			result.RowsSkipped++
			log.WithField("row", table.HeaderRow+i+2).Debug("Skipping empty row")
			continue
		}
		result.Operations = append(result.Operations, op)
	}

	log.WithFields(logrus.Fields{
		"format":     format,
		"header_row": table.HeaderRow + 1,
		"positional": result.Positional,
		"imported":   len(result.Operations),
		"skipped":    result.RowsSkipped,
		"schema":     s.resolver.Version(),
	}).Info("File imported")

	return result, nil
}

// defaultDay is the calendar day used when a caller passes no date.
func defaultDay() time.Time {
	return normalize.Day(timeNow())
}

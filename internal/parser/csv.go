package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/ThiagoRGoveia/dock-operations/internal/models"
)

const DefaultDelimiter = ';'

// ReadDelimited reads a delimited text file into a RawTable. Row 0 is always the
// header row. Quoted fields may contain the delimiter and doubled quotes. A UTF-8
// byte order mark is dropped, and UTF-16 files with a BOM are decoded.
func ReadDelimited(filePath string, delimiter rune) (*models.RawTable, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", filePath, err)
	}
	defer file.Close()

	table, err := decodeDelimited(file, delimiter)
	if err != nil {
		return nil, fmt.Errorf("failed to read delimited file %s: %w", filePath, err)
	}
	table.Source = filePath
	return table, nil
}

func decodeDelimited(r io.Reader, delimiter rune) (*models.RawTable, error) {
	if delimiter == 0 {
		delimiter = DefaultDelimiter
	}

	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	reader := csv.NewReader(decoded)
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	table := &models.RawTable{HeaderRow: 0}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) && record != nil {
				// keep what was read; short or odd rows read as empty cells downstream
				table.Rows = append(table.Rows, toCells(record))
				continue
			}
			return nil, err
		}
		table.Rows = append(table.Rows, toCells(record))
	}

	return table, nil
}

func toCells(record []string) []models.Cell {
	cells := make([]models.Cell, len(record))
	for i, v := range record {
		cells[i] = models.TextCell(v)
	}
	return cells
}

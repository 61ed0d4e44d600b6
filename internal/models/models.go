package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// Cell is one spreadsheet or delimited-text cell. Serial is set when the
// workbook stored a native number (times and dates are day serials there).
type Cell struct {
	Text    string
	Serial  float64
	Numeric bool
}

func TextCell(s string) Cell {
	return Cell{Text: s}
}

func (c Cell) IsBlank() bool {
	return strings.TrimSpace(c.Text) == "" && !c.Numeric
}

// RawTable is the uniform output of every format adapter.
type RawTable struct {
	Source    string
	Sheet     string
	HeaderRow int
	Rows      [][]Cell
}

// Header returns the header row as text, or nil when the table has no rows.
func (t *RawTable) Header() []string {
	if t == nil || t.HeaderRow < 0 || t.HeaderRow >= len(t.Rows) {
		return nil
	}
	row := t.Rows[t.HeaderRow]
	out := make([]string, len(row))
	for i, c := range row {
		out[i] = c.Text
	}
	return out
}

// DataRows returns the rows after the header row.
func (t *RawTable) DataRows() [][]Cell {
	if t == nil || t.HeaderRow+1 >= len(t.Rows) {
		return nil
	}
	return t.Rows[t.HeaderRow+1:]
}

// ImportResult describes one file import. FileID is set only for batch imports
// recorded in the import ledger.
type ImportResult struct {
	FileID      int         `json:"file_id,omitempty"`
	BatchID     string      `json:"batch_id"`
	Path        string      `json:"path"`
	Format      string      `json:"format"`
	Sheet       string      `json:"sheet,omitempty"`
	HeaderRow   int         `json:"header_row"`
	Positional  bool        `json:"positional"`
	RowsRead    int         `json:"rows_read"`
	RowsSkipped int         `json:"rows_skipped"`
	Checksum    string      `json:"checksum,omitempty"`
	Operations  []Operation `json:"operations"`
}

type AppError struct {
	FileID    int
	Path      string
	Message   string
	Err       error
	Operation *Operation
}

func (e *AppError) Error() string {
	var opDetails string
	if e.Operation != nil {
		opJSON, err := json.Marshal(e.Operation)
		if err != nil {
			opDetails = "failed to marshal operation to JSON"
		} else {
			opDetails = string(opJSON)
		}
	}

	if e.Err != nil {
		if opDetails != "" {
			return fmt.Sprintf("FileID %d (%s): %s - %v - Operation: %s", e.FileID, e.Path, e.Message, e.Err, opDetails)
		}
		return fmt.Sprintf("FileID %d (%s): %s - %v", e.FileID, e.Path, e.Message, e.Err)
	}

	if opDetails != "" {
		return fmt.Sprintf("FileID %d (%s): %s - Operation: %s", e.FileID, e.Path, e.Message, opDetails)
	}

	return fmt.Sprintf("FileID %d (%s): %s", e.FileID, e.Path, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// MarshalJSON keeps the wrapped error's text, which encoding/json would drop.
func (e AppError) MarshalJSON() ([]byte, error) {
	var errText string
	if e.Err != nil {
		errText = e.Err.Error()
	}
	return json.Marshal(struct {
		FileID    int        `json:"file_id"`
		Path      string     `json:"path,omitempty"`
		Message   string     `json:"message"`
		Error     string     `json:"error,omitempty"`
		Operation *Operation `json:"operation,omitempty"`
	}{e.FileID, e.Path, e.Message, errText, e.Operation})
}

type FileInfo struct {
	Path     string
	Checksum string
}

type FileImportJob struct {
	FilePath string
	FileID   int
	Checksum string
}

type FileErrorMap struct {
	Errors map[int][]AppError
	Mu     sync.Mutex
}

type ImportChannels struct {
	Jobs    chan FileImportJob
	Results chan ImportResult
	Errors  chan AppError
}

type ImportWaitGroups struct {
	ImportWg *sync.WaitGroup
	StoreWg  *sync.WaitGroup
	MainWg   *sync.WaitGroup
}

type FileMap = map[int]string

// FileResultMap holds the stored row count of every file of a batch, by FileID.
type FileResultMap struct {
	Rows map[int]int
	Mu   sync.Mutex
}

func (m *FileResultMap) Add(fileID, rows int) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Rows[fileID] += rows
}

func (m *FileResultMap) Get(fileID int) int {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return m.Rows[fileID]
}

type SetupReturn struct {
	Channels      *ImportChannels
	WaitGroups    *ImportWaitGroups
	FileMap       *FileMap
	FileErrorsMap *FileErrorMap
	FileResults   *FileResultMap
}

func (s *SetupReturn) GetValues() (*ImportChannels, *ImportWaitGroups, *FileMap, *FileErrorMap, *FileResultMap) {
	return s.Channels, s.WaitGroups, s.FileMap, s.FileErrorsMap, s.FileResults
}

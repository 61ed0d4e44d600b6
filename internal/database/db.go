package database

import (
	"context"
	"time"

	"github.com/ThiagoRGoveia/dock-operations/internal/models"
)

const (
	FILE_STATUS_PROCESSING       = "PROCESSING"
	FILE_STATUS_DONE             = "DONE"
	FILE_STATUS_DONE_WITH_ERRORS = "DONE_WITH_ERRORS"
	FILE_STATUS_FATAL            = "FATAL"
)

// DBManager is the storage collaborator: operations keyed by day and side, plus
// a ledger of imported files keyed by content checksum.
type DBManager interface {
	CreateImportFilesTable(ctx context.Context) error
	CreateOperationsTable(ctx context.Context) error
	InsertImportFile(ctx context.Context, path, checksum, batchID, status string) (int, error)
	UpdateImportStatus(ctx context.Context, fileID int, status string, rows int, errors any) error
	IsFileAlreadyImported(ctx context.Context, checksum string) (bool, error)
	InsertOperations(ctx context.Context, ops []models.Operation) (int64, error)
	ReplaceDay(ctx context.Context, date time.Time, side string, ops []models.Operation) error
	GetByDate(ctx context.Context, date time.Time, side string) ([]models.Operation, error)
	Upsert(ctx context.Context, op *models.Operation) error
}

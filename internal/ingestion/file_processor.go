package ingestion

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/ThiagoRGoveia/dock-operations/internal/database"
	"github.com/ThiagoRGoveia/dock-operations/internal/logging"
	"github.com/ThiagoRGoveia/dock-operations/internal/models"
	"github.com/ThiagoRGoveia/dock-operations/pkg/checksum"
)

// Processor defines the interface for the file stages around a batch import.
type Processor interface {
	ScanForFiles(rootPath string) ([]models.FileInfo, error)
	UpdateImportStatus(ctx context.Context, fileErrorsMap *models.FileErrorMap, fileResults *models.FileResultMap, fileMap *models.FileMap) error
}

// FileProcessor discovers importable files and records the outcome of each one.
type FileProcessor struct {
	dbManager database.DBManager
	logger    logrus.FieldLogger
}

func NewFileProcessor(dbManager database.DBManager, logger logrus.FieldLogger) *FileProcessor {
	return &FileProcessor{
		dbManager: dbManager,
		logger:    logging.OrDiscard(logger),
	}
}

// ScanForFiles walks rootPath and returns every file an adapter can read, with its
// content checksum. Files of other kinds and unreadable files are skipped.
func (fp *FileProcessor) ScanForFiles(rootPath string) ([]models.FileInfo, error) {
	var fileInfos []models.FileInfo
	fp.logger.WithField("root", rootPath).Info("Scanning for files")

	err := filepath.Walk(rootPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if FormatOf(path) == "" {
			fp.logger.WithField("file", path).Debug("Not an importable file, skipping")
			return nil
		}

		sum, err := checksum.GetFileChecksum(path)
		if err != nil {
			fp.logger.WithError(err).WithField("file", path).Warn("Could not checksum file, skipping")
			return nil
		}

		fileInfos = append(fileInfos, models.FileInfo{Path: path, Checksum: sum})
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("error walking directory %s: %w", rootPath, err)
	}

	fp.logger.WithField("files", len(fileInfos)).Info("Scan finished")
	return fileInfos, nil
}

// UpdateImportStatus closes the ledger entry of every dispatched file: DONE when clean,
// DONE_WITH_ERRORS when some errors were collected, FATAL when nothing was stored.
func (fp *FileProcessor) UpdateImportStatus(ctx context.Context, fileErrorsMap *models.FileErrorMap, fileResults *models.FileResultMap, fileMap *models.FileMap) error {
	for fileID := range *fileMap {
		fileErrorsMap.Mu.Lock()
		appErrors := fileErrorsMap.Errors[fileID]
		fileErrorsMap.Mu.Unlock()
		rows := fileResults.Get(fileID)

		status := fileStatus(len(appErrors), rows)
		var stored any
		if len(appErrors) > 0 {
			stored = appErrors
		}

		if err := fp.dbManager.UpdateImportStatus(ctx, fileID, status, rows, stored); err != nil {
			fp.logger.WithError(err).WithField("file_id", fileID).Error("Failed to update import status")
		}
	}
	return nil
}

func fileStatus(errorCount, rows int) string {
	switch {
	case errorCount == 0:
		return database.FILE_STATUS_DONE
	case rows == 0:
		return database.FILE_STATUS_FATAL
	default:
		return database.FILE_STATUS_DONE_WITH_ERRORS
	}
}

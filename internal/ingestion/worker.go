package ingestion

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ThiagoRGoveia/dock-operations/internal/database"
	"github.com/ThiagoRGoveia/dock-operations/internal/logging"
	"github.com/ThiagoRGoveia/dock-operations/internal/models"
	"github.com/ThiagoRGoveia/dock-operations/pkg/checksum"
)

// maxErrorsPerFile caps what is kept per file; past it the file is malformed anyway.
const maxErrorsPerFile = 100

type Runner[T any] struct {
	Run T
}

// Importer is the part of ImportService the batch workers need.
type Importer interface {
	ImportFile(path string, defaultDate time.Time, defaultSide string) (*models.ImportResult, error)
}

type AsyncWorkerConfig struct {
	DefaultDate time.Time
	DefaultSide string
}

// Worker defines the interface for the asynchronous batch import stages.
type Worker interface {
	WithChannels(channels *models.ImportChannels) Worker
	WithWaitGroups(waitGroups *models.ImportWaitGroups) Worker
	SetupErrorWorker() (Runner[func(*models.FileErrorMap)], *sync.WaitGroup, error)
	SetupImportWorkers(numberOfWorkers int) (Runner[func()], *sync.WaitGroup, error)
	SetupStoreWorker(ctx context.Context) (Runner[func(*models.FileResultMap)], *sync.WaitGroup, error)
	SetupJobDispatcherWorker(ctx context.Context, fileInfos []models.FileInfo, fileMap models.FileMap, batchID string) (Runner[func()], *sync.WaitGroup, error)
}

// AsyncWorker runs a batch import as a pipeline: a dispatcher registers files in the
// ledger and queues them, import workers each run one synchronous import per file,
// a store worker saves the operations, and an error worker collects failures per file.
type AsyncWorker struct {
	config     AsyncWorkerConfig
	dbManager  database.DBManager
	importer   Importer
	logger     logrus.FieldLogger
	channels   *models.ImportChannels
	waitGroups *models.ImportWaitGroups
}

func NewAsyncWorker(dbManager database.DBManager, importer Importer, cfg AsyncWorkerConfig, logger logrus.FieldLogger) *AsyncWorker {
	return &AsyncWorker{
		dbManager: dbManager,
		importer:  importer,
		config:    cfg,
		logger:    logging.OrDiscard(logger),
	}
}

func (w *AsyncWorker) WithChannels(channels *models.ImportChannels) Worker {
	w.channels = channels
	return w
}

func (w *AsyncWorker) WithWaitGroups(waitGroups *models.ImportWaitGroups) Worker {
	w.waitGroups = waitGroups
	return w
}

func (w *AsyncWorker) ImportWorker(workerID int) {
	defer w.waitGroups.ImportWg.Done()
	for job := range w.channels.Jobs {
		log := w.logger.WithFields(logrus.Fields{"worker": workerID, "file": job.FilePath, "file_id": job.FileID})
		log.Debug("Import worker started job")

		result, err := w.importer.ImportFile(job.FilePath, w.config.DefaultDate, w.config.DefaultSide)
		if err != nil {
			w.channels.Errors <- models.AppError{FileID: job.FileID, Path: job.FilePath, Message: "Failed to import file", Err: err}
			continue
		}
		result.FileID = job.FileID
		result.Checksum = job.Checksum

		w.channels.Results <- *result
		log.WithField("operations", len(result.Operations)).Debug("Import worker finished job")
	}
}

func (w *AsyncWorker) SetupImportWorkers(numberOfWorkers int) (Runner[func()], *sync.WaitGroup, error) {
	if numberOfWorkers < 1 {
		numberOfWorkers = 1
	}
	return Runner[func()]{
		Run: func() {
			for i := 1; i <= numberOfWorkers; i++ {
				w.waitGroups.ImportWg.Add(1)
				go w.ImportWorker(i)
			}
		},
	}, w.waitGroups.ImportWg, nil
}

func (w *AsyncWorker) StoreWorker(ctx context.Context, fileResults *models.FileResultMap) {
	defer w.waitGroups.StoreWg.Done()
	for result := range w.channels.Results {
		inserted, err := w.dbManager.InsertOperations(ctx, result.Operations)
		if err != nil {
			w.channels.Errors <- models.AppError{FileID: result.FileID, Path: result.Path, Message: "Failed to store operations", Err: err}
			continue
		}
		fileResults.Add(result.FileID, len(result.Operations))

		w.logger.WithFields(logrus.Fields{
			"file":       result.Path,
			"file_id":    result.FileID,
			"operations": len(result.Operations),
			"inserted":   inserted,
			"skipped":    result.RowsSkipped,
			"positional": result.Positional,
		}).Info("Stored operations")
	}
}

func (w *AsyncWorker) SetupStoreWorker(ctx context.Context) (Runner[func(*models.FileResultMap)], *sync.WaitGroup, error) {
	return Runner[func(*models.FileResultMap)]{
		Run: func(fileResults *models.FileResultMap) {
			w.waitGroups.StoreWg.Add(1)
			go w.StoreWorker(ctx, fileResults)
		},
	}, w.waitGroups.StoreWg, nil
}

func (w *AsyncWorker) ErrorWorker(fileErrorsMap *models.FileErrorMap) {
	defer w.waitGroups.MainWg.Done()
	for appErr := range w.channels.Errors {
		w.logger.WithError(&appErr).Warn("Caught error")
		if appErr.FileID == -1 {
			continue
		}

		fileErrorsMap.Mu.Lock()
		if len(fileErrorsMap.Errors[appErr.FileID]) < maxErrorsPerFile {
			fileErrorsMap.Errors[appErr.FileID] = append(fileErrorsMap.Errors[appErr.FileID], appErr)
		} else {
			w.logger.WithField("file_id", appErr.FileID).Warn("File has too many errors, dropping the rest")
		}
		fileErrorsMap.Mu.Unlock()
	}
}

func (w *AsyncWorker) SetupErrorWorker() (Runner[func(*models.FileErrorMap)], *sync.WaitGroup, error) {
	return Runner[func(*models.FileErrorMap)]{
		Run: func(fileErrorsMap *models.FileErrorMap) {
			w.waitGroups.MainWg.Add(1)
			go w.ErrorWorker(fileErrorsMap)
		},
	}, w.waitGroups.MainWg, nil
}

// PreprocessAndDispatchJobs skips files whose content was already imported, records
// the rest in the ledger and queues them. It closes the jobs channel when done.
func (w *AsyncWorker) PreprocessAndDispatchJobs(ctx context.Context, fileInfos []models.FileInfo, fileMap models.FileMap, batchID string) {
	defer close(w.channels.Jobs)
	defer w.waitGroups.MainWg.Done()

	for _, fileInfo := range fileInfos {
		log := w.logger.WithField("file", fileInfo.Path)

		sum := fileInfo.Checksum
		if sum == "" {
			var err error
			sum, err = checksum.GetFileChecksum(fileInfo.Path)
			if err != nil {
				log.WithError(err).Error("Failed to calculate checksum, skipping file")
				continue
			}
		}

		isImported, err := w.dbManager.IsFileAlreadyImported(ctx, sum)
		if err != nil {
			log.WithError(err).Error("Failed to check if file was already imported, skipping file")
			continue
		}
		if isImported {
			log.WithField("checksum", sum).Info("File has already been imported, skipping")
			continue
		}

		fileID, err := w.dbManager.InsertImportFile(ctx, fileInfo.Path, sum, batchID, database.FILE_STATUS_PROCESSING)
		if err != nil {
			log.WithError(err).Error("Failed to insert import file record, skipping file")
			continue
		}

		fileMap[fileID] = fileInfo.Path

		log.WithField("file_id", fileID).Info("Dispatching import job")
		w.channels.Jobs <- models.FileImportJob{FilePath: fileInfo.Path, FileID: fileID, Checksum: sum}
	}
}

func (w *AsyncWorker) SetupJobDispatcherWorker(ctx context.Context, fileInfos []models.FileInfo, fileMap models.FileMap, batchID string) (Runner[func()], *sync.WaitGroup, error) {
	return Runner[func()]{
		Run: func() {
			w.waitGroups.MainWg.Add(1)
			go w.PreprocessAndDispatchJobs(ctx, fileInfos, fileMap, batchID)
		},
	}, w.waitGroups.MainWg, nil
}

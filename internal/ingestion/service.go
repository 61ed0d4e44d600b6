package ingestion

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ThiagoRGoveia/dock-operations/internal/database"
	"github.com/ThiagoRGoveia/dock-operations/internal/logging"
)

type IngestionConfig struct {
	NumImportWorkers int
}

// BatchReport summarizes one directory import.
type BatchReport struct {
	BatchID    string `json:"batch_id"`
	Dispatched int    `json:"dispatched"`
	Failed     int    `json:"failed"`
	Operations int    `json:"operations"`
}

// IngestionService imports every file under a directory into the store.
type IngestionService struct {
	dbManager     database.DBManager
	setupService  ISetup
	asyncWorker   Worker
	fileProcessor Processor
	config        IngestionConfig
	logger        logrus.FieldLogger
}

func NewIngestionService(dbManager database.DBManager, setupService ISetup, worker Worker, processor Processor, cfg IngestionConfig, logger logrus.FieldLogger) *IngestionService {
	return &IngestionService{
		dbManager:     dbManager,
		setupService:  setupService,
		asyncWorker:   worker,
		fileProcessor: processor,
		config:        cfg,
		logger:        logging.OrDiscard(logger),
	}
}

// Execute orchestrates the batch: scan, dispatch, import, store, then close the ledger.
func (h *IngestionService) Execute(ctx context.Context, filesPath string) (*BatchReport, error) {
	environment, err := h.setupService.build()
	if err != nil {
		return nil, err
	}
	channels, waitGroups, fileMap, fileErrorsMap, fileResults := environment.GetValues()

	report := &BatchReport{BatchID: uuid.NewString()}
	log := h.logger.WithField("batch_id", report.BatchID)

	fileInfos, err := h.fileProcessor.ScanForFiles(filesPath)
	if err != nil {
		log.WithError(err).Error("Failed to scan files")
		return nil, err
	}

	if err := h.dbManager.CreateImportFilesTable(ctx); err != nil {
		return nil, err
	}
	if err := h.dbManager.CreateOperationsTable(ctx); err != nil {
		return nil, err
	}

	// channels and wait groups must be set before any runner starts
	h.asyncWorker.WithChannels(channels).WithWaitGroups(waitGroups)

	// the dispatcher and the error worker share MainWg
	dispatcherRunner, _, err := h.asyncWorker.SetupJobDispatcherWorker(ctx, fileInfos, *fileMap, report.BatchID)
	if err != nil {
		return nil, err
	}
	dispatcherRunner.Run()

	errorWorkerRunner, mainWaitGroup, err := h.asyncWorker.SetupErrorWorker()
	if err != nil {
		return nil, err
	}
	errorWorkerRunner.Run(fileErrorsMap)

	storeWorkerRunner, storeWaitGroup, err := h.asyncWorker.SetupStoreWorker(ctx)
	if err != nil {
		return nil, err
	}
	storeWorkerRunner.Run(fileResults)

	importWorkersRunner, importWaitGroup, err := h.asyncWorker.SetupImportWorkers(h.config.NumImportWorkers)
	if err != nil {
		return nil, err
	}
	importWorkersRunner.Run()

	log.Debug("Waiting for import workers to finish")
	importWaitGroup.Wait()
	close(channels.Results)

	log.Debug("Waiting for store worker to finish")
	storeWaitGroup.Wait()
	close(channels.Errors)

	log.Debug("Waiting for error worker to finish")
	mainWaitGroup.Wait()

	if err := h.fileProcessor.UpdateImportStatus(ctx, fileErrorsMap, fileResults, fileMap); err != nil {
		return nil, err
	}

	report.Dispatched = len(*fileMap)
	for fileID := range *fileMap {
		if len(fileErrorsMap.Errors[fileID]) > 0 {
			report.Failed++
		}
		report.Operations += fileResults.Get(fileID)
	}

	log.WithFields(logrus.Fields{
		"dispatched": report.Dispatched,
		"failed":     report.Failed,
		"operations": report.Operations,
	}).Info("Batch import finished")
	return report, nil
}

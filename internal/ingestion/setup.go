package ingestion

import (
	"sync"

	"github.com/ThiagoRGoveia/dock-operations/internal/models"
)

type ISetup interface {
	build() (models.SetupReturn, error)
}

type Setup struct {
	ChannelSize int
}

// build instantiates the channels and shared maps of one batch run. It sits
// behind ISetup so tests can hand the service prepared channels.
func (h Setup) build() (models.SetupReturn, error) {
	size := h.ChannelSize
	if size <= 0 {
		size = 100
	}

	channels := models.ImportChannels{
		Jobs:    make(chan models.FileImportJob, size),
		Results: make(chan models.ImportResult, size),
		Errors:  make(chan models.AppError, size),
	}

	var importWg, storeWg, mainWg sync.WaitGroup
	fileMap := make(models.FileMap)
	return models.SetupReturn{
		Channels:      &channels,
		WaitGroups:    &models.ImportWaitGroups{ImportWg: &importWg, StoreWg: &storeWg, MainWg: &mainWg},
		FileMap:       &fileMap,
		FileErrorsMap: &models.FileErrorMap{Errors: make(map[int][]models.AppError)},
		FileResults:   &models.FileResultMap{Rows: make(map[int]int)},
	}, nil
}

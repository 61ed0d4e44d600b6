package ingestion

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ThiagoRGoveia/dock-operations/internal/database"
	"github.com/ThiagoRGoveia/dock-operations/internal/models"
	"github.com/ThiagoRGoveia/dock-operations/pkg/checksum"
)

// MockDBManager is a mock implementation of the DBManager interface.
type MockDBManager struct {
	mock.Mock
}

func (m *MockDBManager) CreateImportFilesTable(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockDBManager) CreateOperationsTable(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockDBManager) InsertImportFile(ctx context.Context, path, checksum, batchID, status string) (int, error) {
	args := m.Called(ctx, path, checksum, batchID, status)
	return args.Int(0), args.Error(1)
}

func (m *MockDBManager) UpdateImportStatus(ctx context.Context, fileID int, status string, rows int, errors any) error {
	args := m.Called(ctx, fileID, status, rows, errors)
	return args.Error(0)
}

func (m *MockDBManager) IsFileAlreadyImported(ctx context.Context, checksum string) (bool, error) {
	args := m.Called(ctx, checksum)
	return args.Bool(0), args.Error(1)
}

func (m *MockDBManager) InsertOperations(ctx context.Context, ops []models.Operation) (int64, error) {
	args := m.Called(ctx, ops)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDBManager) ReplaceDay(ctx context.Context, date time.Time, side string, ops []models.Operation) error {
	args := m.Called(ctx, date, side, ops)
	return args.Error(0)
}

func (m *MockDBManager) GetByDate(ctx context.Context, date time.Time, side string) ([]models.Operation, error) {
	args := m.Called(ctx, date, side)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Operation), args.Error(1)
}

func (m *MockDBManager) Upsert(ctx context.Context, op *models.Operation) error {
	args := m.Called(ctx, op)
	return args.Error(0)
}

// MockImporter is a mock implementation of the Importer interface.
type MockImporter struct {
	mock.Mock
}

func (m *MockImporter) ImportFile(path string, defaultDate time.Time, defaultSide string) (*models.ImportResult, error) {
	args := m.Called(path, defaultDate, defaultSide)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ImportResult), args.Error(1)
}

// MockProcessor is a mock implementation of the Processor interface.
type MockProcessor struct {
	mock.Mock
}

func (m *MockProcessor) ScanForFiles(path string) ([]models.FileInfo, error) {
	args := m.Called(path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.FileInfo), args.Error(1)
}

func (m *MockProcessor) UpdateImportStatus(ctx context.Context, fileErrorsMap *models.FileErrorMap, fileResults *models.FileResultMap, fileMap *models.FileMap) error {
	args := m.Called(ctx, fileErrorsMap, fileResults, fileMap)
	return args.Error(0)
}

// MockSetup is a mock implementation of the ISetup interface.
type MockSetup struct {
	mock.Mock
}

func (m *MockSetup) build() (models.SetupReturn, error) {
	args := m.Called()
	return args.Get(0).(models.SetupReturn), args.Error(1)
}

func TestIngestionService_Execute(t *testing.T) {
	ctx := context.Background()

	t.Run("Expect: every new file is imported, stored and closed in the ledger", func(t *testing.T) {
		dir := t.TempDir()
		first := writeFileIn(t, dir, "north.csv", "Carrier;Plate;Destination\nACME;1;Madrid\nBETA;2;Bilbao\n")
		second := writeFileIn(t, dir, "south.csv", "Carrier;Plate\nGAMMA;3\n")
		seen := writeFileIn(t, dir, "seen.csv", "Carrier;Plate\nOLD;9\n")
		writeFileIn(t, dir, "notes.md", "ignored")

		dbManager := new(MockDBManager)
		dbManager.On("CreateImportFilesTable", ctx).Return(nil)
		dbManager.On("CreateOperationsTable", ctx).Return(nil)
		dbManager.On("IsFileAlreadyImported", ctx, fileChecksum(t, seen)).Return(true, nil)
		dbManager.On("IsFileAlreadyImported", ctx, mock.Anything).Return(false, nil)
		dbManager.On("InsertImportFile", ctx, first, mock.Anything, mock.Anything, database.FILE_STATUS_PROCESSING).Return(1, nil)
		dbManager.On("InsertImportFile", ctx, second, mock.Anything, mock.Anything, database.FILE_STATUS_PROCESSING).Return(2, nil)
		dbManager.On("InsertOperations", ctx, mock.Anything).Return(int64(1), nil)
		dbManager.On("UpdateImportStatus", ctx, 1, database.FILE_STATUS_DONE, 2, nil).Return(nil)
		dbManager.On("UpdateImportStatus", ctx, 2, database.FILE_STATUS_DONE, 1, nil).Return(nil)

		importer := newTestImportService(t)
		worker := NewAsyncWorker(dbManager, importer, AsyncWorkerConfig{DefaultDate: testDay, DefaultSide: "SIDE 1"}, nil)
		service := NewIngestionService(dbManager, Setup{}, worker, NewFileProcessor(dbManager, nil), IngestionConfig{NumImportWorkers: 2}, nil)

		report, err := service.Execute(ctx, dir)

		require.NoError(t, err)
		assert.NotEmpty(t, report.BatchID)
		assert.Equal(t, 2, report.Dispatched)
		assert.Equal(t, 0, report.Failed)
		assert.Equal(t, 3, report.Operations)
		dbManager.AssertNumberOfCalls(t, "InsertOperations", 2)
		dbManager.AssertExpectations(t)
	})

	t.Run("Expect: a file that fails to import is marked fatal", func(t *testing.T) {
		dir := t.TempDir()
		broken := writeFileIn(t, dir, "broken.xlsx", "not a workbook")

		dbManager := new(MockDBManager)
		dbManager.On("CreateImportFilesTable", ctx).Return(nil)
		dbManager.On("CreateOperationsTable", ctx).Return(nil)
		dbManager.On("IsFileAlreadyImported", ctx, mock.Anything).Return(false, nil)
		dbManager.On("InsertImportFile", ctx, broken, mock.Anything, mock.Anything, database.FILE_STATUS_PROCESSING).Return(7, nil)
		dbManager.On("UpdateImportStatus", ctx, 7, database.FILE_STATUS_FATAL, 0, mock.AnythingOfType("[]models.AppError")).Return(nil)

		worker := NewAsyncWorker(dbManager, newTestImportService(t), AsyncWorkerConfig{DefaultDate: testDay}, nil)
		service := NewIngestionService(dbManager, Setup{}, worker, NewFileProcessor(dbManager, nil), IngestionConfig{NumImportWorkers: 1}, nil)

		report, err := service.Execute(ctx, dir)

		require.NoError(t, err)
		assert.Equal(t, 1, report.Dispatched)
		assert.Equal(t, 1, report.Failed)
		dbManager.AssertNotCalled(t, "InsertOperations", mock.Anything, mock.Anything)
		dbManager.AssertExpectations(t)
	})

	t.Run("Expect: scan failure stops the batch", func(t *testing.T) {
		dbManager := new(MockDBManager)
		processor := new(MockProcessor)
		setup := new(MockSetup)
		setup.On("build").Return(buildEnvironment(t), nil)
		processor.On("ScanForFiles", "some/path").Return(nil, errors.New("walk failed"))

		service := NewIngestionService(dbManager, setup, NewAsyncWorker(dbManager, new(MockImporter), AsyncWorkerConfig{}, nil), processor, IngestionConfig{}, nil)

		report, err := service.Execute(ctx, "some/path")

		assert.Nil(t, report)
		assert.EqualError(t, err, "walk failed")
		dbManager.AssertNotCalled(t, "CreateImportFilesTable", mock.Anything)
	})

	t.Run("Expect: table creation failure stops the batch", func(t *testing.T) {
		dbManager := new(MockDBManager)
		processor := new(MockProcessor)
		processor.On("ScanForFiles", "some/path").Return([]models.FileInfo{}, nil)
		dbManager.On("CreateImportFilesTable", ctx).Return(errors.New("db down"))

		service := NewIngestionService(dbManager, Setup{}, NewAsyncWorker(dbManager, new(MockImporter), AsyncWorkerConfig{}, nil), processor, IngestionConfig{}, nil)

		_, err := service.Execute(ctx, "some/path")

		assert.EqualError(t, err, "db down")
		processor.AssertNotCalled(t, "UpdateImportStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func buildEnvironment(t *testing.T) models.SetupReturn {
	t.Helper()
	env, err := Setup{}.build()
	require.NoError(t, err)
	return env
}

func TestSetup_build(t *testing.T) {
	env, err := Setup{ChannelSize: 3}.build()

	require.NoError(t, err)
	channels, waitGroups, fileMap, fileErrorsMap, fileResults := env.GetValues()
	assert.Equal(t, 3, cap(channels.Jobs))
	assert.Equal(t, 3, cap(channels.Results))
	assert.Equal(t, 3, cap(channels.Errors))
	assert.NotNil(t, waitGroups.ImportWg)
	assert.NotNil(t, waitGroups.StoreWg)
	assert.NotNil(t, waitGroups.MainWg)
	assert.NotNil(t, *fileMap)
	assert.NotNil(t, fileErrorsMap.Errors)
	assert.NotNil(t, fileResults.Rows)

	env, _ = Setup{}.build()
	assert.Equal(t, 100, cap(env.Channels.Jobs))
}

func TestFileResultMap(t *testing.T) {
	results := &models.FileResultMap{Rows: make(map[int]int)}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results.Add(1, 2)
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, results.Get(1))
	assert.Equal(t, 0, results.Get(2))
}

func writeFileIn(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func fileChecksum(t *testing.T, path string) string {
	t.Helper()
	sum, err := checksum.GetFileChecksum(path)
	require.NoError(t, err)
	return sum
}

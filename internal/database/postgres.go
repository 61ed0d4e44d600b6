package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/ThiagoRGoveia/dock-operations/internal/logging"
	"github.com/ThiagoRGoveia/dock-operations/internal/models"
	"github.com/ThiagoRGoveia/dock-operations/internal/normalize"
	"github.com/ThiagoRGoveia/dock-operations/pkg/checksum"
)

var ErrOperationNotFound = errors.New("operation not found")

// operationColumns is the column order used by COPY and every SELECT.
var operationColumns = []string{
	"op_date", "side_label", "carrier", "plate", "dock", "status", "destination",
	"scheduled_arrival", "actual_arrival", "actual_departure", "departure_deadline",
	"notes", "incidents", "seal_code", "customs_flag", "checksum",
}

const selectOperations = `
	SELECT id, op_date, side_label, carrier, plate, dock, status, destination,
		scheduled_arrival, actual_arrival, actual_departure, departure_deadline,
		notes, incidents, seal_code, customs_flag
	FROM operations`

func ConnectDB(connStr string) (*pgxpool.Pool, error) {
	dbpool, err := pgxpool.New(context.Background(), connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	return dbpool, nil
}

type PostgresDBManager struct {
	dbpool *pgxpool.Pool
	logger logrus.FieldLogger
}

func NewPostgresDBManager(pool *pgxpool.Pool, logger logrus.FieldLogger) *PostgresDBManager {
	return &PostgresDBManager{dbpool: pool, logger: logging.OrDiscard(logger)}
}

func (m *PostgresDBManager) CreateImportFilesTable(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS import_files (
		id SERIAL PRIMARY KEY,
		path TEXT NOT NULL,
		imported_at TIMESTAMP NOT NULL,
		batch_id UUID,
		status VARCHAR(50) NOT NULL CHECK (status IN ('DONE', 'DONE_WITH_ERRORS', 'PROCESSING', 'FATAL')),
		checksum VARCHAR(64) NOT NULL,
		row_count INTEGER NOT NULL DEFAULT 0,
		errors jsonb
	);`

	_, err := m.dbpool.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("error creating import_files table: %w", err)
	}

	_, err = m.dbpool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_import_files_checksum ON import_files (checksum);`)
	if err != nil {
		return fmt.Errorf("error creating import_files index: %w", err)
	}

	return nil
}

// CreateOperationsTable creates the operations table. A row is identified inside its
// day and side by the checksum of its values, which makes re-importing a file a no-op.
func (m *PostgresDBManager) CreateOperationsTable(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS operations (
		id SERIAL PRIMARY KEY,
		op_date DATE NOT NULL,
		side_label VARCHAR(50) NOT NULL,
		carrier TEXT NOT NULL DEFAULT '',
		plate TEXT NOT NULL DEFAULT '',
		dock TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT '',
		destination TEXT NOT NULL DEFAULT '',
		scheduled_arrival VARCHAR(16) NOT NULL DEFAULT '',
		actual_arrival VARCHAR(16) NOT NULL DEFAULT '',
		actual_departure VARCHAR(16) NOT NULL DEFAULT '',
		departure_deadline VARCHAR(16) NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		incidents TEXT NOT NULL DEFAULT '',
		seal_code TEXT NOT NULL DEFAULT '',
		customs_flag BOOLEAN NOT NULL DEFAULT FALSE,
		checksum VARCHAR(64) NOT NULL,
		UNIQUE (op_date, side_label, checksum)
	);`

	_, err := m.dbpool.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("error creating operations table: %w", err)
	}

	return nil
}

func (m *PostgresDBManager) InsertImportFile(ctx context.Context, path, fileChecksum, batchID, status string) (int, error) {
	query := `
	INSERT INTO import_files (path, imported_at, batch_id, status, checksum)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id;`

	var fileID int
	err := m.dbpool.QueryRow(ctx, query, path, time.Now(), batchID, status, fileChecksum).Scan(&fileID)
	if err != nil {
		return 0, fmt.Errorf("error inserting import file record: %w", err)
	}

	return fileID, nil
}

func (m *PostgresDBManager) UpdateImportStatus(ctx context.Context, fileID int, status string, rows int, errors any) error {
	query := `
	UPDATE import_files
	SET status = $1,
		row_count = $2,
		errors = $3
	WHERE id = $4;`

	_, err := m.dbpool.Exec(ctx, query, status, rows, errors, fileID)
	if err != nil {
		return fmt.Errorf("error updating import status: %w", err)
	}

	return nil
}

func (m *PostgresDBManager) IsFileAlreadyImported(ctx context.Context, fileChecksum string) (bool, error) {
	query := `
	SELECT id
	FROM import_files
	WHERE checksum = $1 AND status = 'DONE'
	LIMIT 1;`

	var id int
	err := m.dbpool.QueryRow(ctx, query, fileChecksum).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("error finding import file by checksum: %w", err)
	}

	return true, nil
}

// InsertOperations bulk loads ops through a staging table and keeps only rows not
// already stored for their day and side. It returns the number of new rows.
func (m *PostgresDBManager) InsertOperations(ctx context.Context, ops []models.Operation) (int64, error) {
	if len(ops) == 0 {
		return 0, nil
	}

	tx, err := m.dbpool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("error beginning transaction: %w", err)
	}
	defer m.rollback(ctx, tx)

	_, err = tx.Exec(ctx, `CREATE TEMP TABLE operations_staging (LIKE operations INCLUDING DEFAULTS) ON COMMIT DROP;`)
	if err != nil {
		return 0, fmt.Errorf("error creating staging table: %w", err)
	}

	m.logger.WithField("rows", len(ops)).Debug("Bulk loading operations into staging table")
	if err := m.copyOperations(ctx, tx, "operations_staging", ops); err != nil {
		return 0, fmt.Errorf("unable to copy operations to staging table: %w", err)
	}

	tag, err := tx.Exec(ctx, `
	INSERT INTO operations (op_date, side_label, carrier, plate, dock, status, destination,
		scheduled_arrival, actual_arrival, actual_departure, departure_deadline,
		notes, incidents, seal_code, customs_flag, checksum)
	SELECT DISTINCT ON (op_date, side_label, checksum)
		op_date, side_label, carrier, plate, dock, status, destination,
		scheduled_arrival, actual_arrival, actual_departure, departure_deadline,
		notes, incidents, seal_code, customs_flag, checksum
	FROM operations_staging
	ON CONFLICT (op_date, side_label, checksum) DO NOTHING;`)
	if err != nil {
		return 0, fmt.Errorf("error inserting operations from staging table: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("error committing transaction: %w", err)
	}

	return tag.RowsAffected(), nil
}

// ReplaceDay makes ops the whole content of one day and side. Every op is stored
// under date and side regardless of its own values; duplicate rows are kept once.
func (m *PostgresDBManager) ReplaceDay(ctx context.Context, date time.Time, side string, ops []models.Operation) error {
	day := normalize.Day(date)

	stamped := make([]models.Operation, 0, len(ops))
	seen := make(map[string]bool, len(ops))
	for _, op := range ops {
		op.Date = day
		op.SideLabel = side
		sum := rowChecksum(&op)
		if seen[sum] {
			continue
		}
		seen[sum] = true
		stamped = append(stamped, op)
	}

	tx, err := m.dbpool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("error beginning transaction: %w", err)
	}
	defer m.rollback(ctx, tx)

	tag, err := tx.Exec(ctx, `DELETE FROM operations WHERE op_date = $1 AND side_label = $2;`, day, side)
	if err != nil {
		return fmt.Errorf("error clearing operations for %s %s: %w", day.Format(models.DateLayout), side, err)
	}
	m.logger.WithFields(logrus.Fields{
		"date":    day.Format(models.DateLayout),
		"side":    side,
		"deleted": tag.RowsAffected(),
		"rows":    len(stamped),
	}).Info("Replacing day")

	if err := m.copyOperations(ctx, tx, "operations", stamped); err != nil {
		return fmt.Errorf("unable to copy operations: %w", err)
	}

	return tx.Commit(ctx)
}

func (m *PostgresDBManager) GetByDate(ctx context.Context, date time.Time, side string) ([]models.Operation, error) {
	rows, err := m.dbpool.Query(ctx, selectOperations+` WHERE op_date = $1 AND side_label = $2 ORDER BY id;`, normalize.Day(date), side)
	if err != nil {
		return nil, fmt.Errorf("error querying operations: %w", err)
	}
	defer rows.Close()

	ops := []models.Operation{}
	for rows.Next() {
		var op models.Operation
		if err := rows.Scan(
			&op.ID, &op.Date, &op.SideLabel, &op.Carrier, &op.Plate, &op.Dock, &op.Status, &op.Destination,
			&op.ScheduledArrival, &op.ActualArrival, &op.ActualDeparture, &op.DepartureDeadline,
			&op.Notes, &op.Incidents, &op.SealCode, &op.CustomsFlag,
		); err != nil {
			return nil, fmt.Errorf("error scanning operation: %w", err)
		}
		op.Date = normalize.Day(op.Date)
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over operations: %w", err)
	}

	return ops, nil
}

// Upsert inserts op when it has no id and sets op.ID, otherwise updates the stored row.
func (m *PostgresDBManager) Upsert(ctx context.Context, op *models.Operation) error {
	op.Date = normalize.Day(op.Date)
	values := []any{
		op.Date, op.SideLabel, op.Carrier, op.Plate, op.Dock, op.Status, op.Destination,
		op.ScheduledArrival, op.ActualArrival, op.ActualDeparture, op.DepartureDeadline,
		op.Notes, op.Incidents, op.SealCode, op.CustomsFlag, rowChecksum(op),
	}

	if op.ID == 0 {
		query := `
		INSERT INTO operations (op_date, side_label, carrier, plate, dock, status, destination,
			scheduled_arrival, actual_arrival, actual_departure, departure_deadline,
			notes, incidents, seal_code, customs_flag, checksum)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (op_date, side_label, checksum) DO UPDATE SET checksum = EXCLUDED.checksum
		RETURNING id;`
		if err := m.dbpool.QueryRow(ctx, query, values...).Scan(&op.ID); err != nil {
			return fmt.Errorf("error inserting operation: %w", err)
		}
		return nil
	}

	query := `
	UPDATE operations
	SET op_date = $1, side_label = $2, carrier = $3, plate = $4, dock = $5, status = $6, destination = $7,
		scheduled_arrival = $8, actual_arrival = $9, actual_departure = $10, departure_deadline = $11,
		notes = $12, incidents = $13, seal_code = $14, customs_flag = $15, checksum = $16
	WHERE id = $17;`
	tag, err := m.dbpool.Exec(ctx, query, append(values, op.ID)...)
	if err != nil {
		return fmt.Errorf("error updating operation %d: %w", op.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: id %d", ErrOperationNotFound, op.ID)
	}
	return nil
}

func (m *PostgresDBManager) copyOperations(ctx context.Context, tx pgx.Tx, table string, ops []models.Operation) error {
	source := pgx.CopyFromSlice(len(ops), func(i int) ([]any, error) {
		op := &ops[i]
		return []any{
			normalize.Day(op.Date), op.SideLabel, op.Carrier, op.Plate, op.Dock, op.Status, op.Destination,
			op.ScheduledArrival, op.ActualArrival, op.ActualDeparture, op.DepartureDeadline,
			op.Notes, op.Incidents, op.SealCode, op.CustomsFlag, rowChecksum(op),
		}, nil
	})

	_, err := tx.CopyFrom(ctx, pgx.Identifier{table}, operationColumns, source)
	return err
}

func (m *PostgresDBManager) rollback(ctx context.Context, tx pgx.Tx) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		m.logger.WithError(err).Error("Error rolling back transaction")
	}
}

// rowChecksum identifies an operation by its values. The id is left out so an
// exported and re-imported row matches the stored one.
func rowChecksum(op *models.Operation) string {
	return checksum.CalculateHash(op.Values()[1:])
}

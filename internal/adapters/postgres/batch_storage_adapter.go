package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"import-claim-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreateBatch записывает батч в предварительном состоянии (счетчики нулевые).
func (a *PostgresStorageAdapter) CreateBatch(ctx context.Context, batch *domain.ImportBatch) error {
	_, err := a.pool.Exec(ctx, `
		INSERT INTO import_batches (
			id, source_kind, source_name, total_records, imported_count,
			failed_count, claimed_count, row_errors, expires_at, notes,
			created_by, created_at
		) VALUES ($1, $2, $3, 0, 0, 0, 0, '[]'::jsonb, $4, $5, $6, $7)`,
		batch.ID, batch.SourceKind, batch.SourceName,
		batch.ExpiresAt, batch.Notes, batch.CreatedBy, batch.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("PostgresStorageAdapter: failed to insert import batch: %w", err)
	}
	return nil
}

// FinalizeBatch один раз дописывает финальные счетчики и список построчных ошибок.
func (a *PostgresStorageAdapter) FinalizeBatch(ctx context.Context, batchID uuid.UUID, total, imported, failed int, rowErrors []domain.RowError) error {
	if rowErrors == nil {
		rowErrors = []domain.RowError{}
	}
	errorsJSON, err := json.Marshal(rowErrors)
	if err != nil {
		return fmt.Errorf("PostgresStorageAdapter: failed to marshal row errors: %w", err)
	}

	tag, err := a.pool.Exec(ctx, `
		UPDATE import_batches
		SET total_records = $2, imported_count = $3, failed_count = $4, row_errors = $5
		WHERE id = $1`,
		batchID, total, imported, failed, errorsJSON,
	)
	if err != nil {
		return fmt.Errorf("PostgresStorageAdapter: failed to finalize batch %s: %w", batchID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBatchNotFound
	}
	return nil
}

func (a *PostgresStorageAdapter) GetBatch(ctx context.Context, batchID uuid.UUID) (*domain.ImportBatch, error) {
	query := `SELECT id, source_kind, source_name, total_records, imported_count,
	                 failed_count, claimed_count, row_errors, expires_at, notes,
	                 created_by, created_at
	          FROM import_batches WHERE id = $1`

	return a.scanBatch(a.pool.QueryRow(ctx, query, batchID))
}

// ExtendExpiration сдвигает дедлайн батча на days вперед и в той же
// транзакции - дедлайны всех еще не забранных объектов батча.
func (a *PostgresStorageAdapter) ExtendExpiration(ctx context.Context, batchID uuid.UUID, days int) (*domain.ImportBatch, error) {
	tx, err := a.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("PostgresStorageAdapter: failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		UPDATE import_batches
		SET expires_at = expires_at + make_interval(days => $2)
		WHERE id = $1
		RETURNING id, source_kind, source_name, total_records, imported_count,
		          failed_count, claimed_count, row_errors, expires_at, notes,
		          created_by, created_at`,
		batchID, days,
	)
	batch, err := a.scanBatch(row)
	if err != nil {
		return nil, err
	}

	// Забранные объекты не трогаются: их жизненный цикл уже завершен
	_, err = tx.Exec(ctx, `
		UPDATE imported_properties
		SET claim_expires_at = claim_expires_at + make_interval(days => $2)
		WHERE import_batch_id = $1 AND claimed_at IS NULL`,
		batchID, days,
	)
	if err != nil {
		return nil, fmt.Errorf("PostgresStorageAdapter: failed to extend property deadlines for batch %s: %w", batchID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("PostgresStorageAdapter: failed to commit extension of batch %s: %w", batchID, err)
	}
	return batch, nil
}

// DeleteBatch удаляет батч и его незабранные объекты. Забранные объекты
// остаются в инвентаре, ссылка на батч у них сохраняется для аудита.
func (a *PostgresStorageAdapter) DeleteBatch(ctx context.Context, batchID uuid.UUID) (int, error) {
	tx, err := a.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("PostgresStorageAdapter: failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	propsTag, err := tx.Exec(ctx, `
		DELETE FROM imported_properties
		WHERE import_batch_id = $1 AND claimed_at IS NULL`,
		batchID,
	)
	if err != nil {
		return 0, fmt.Errorf("PostgresStorageAdapter: failed to delete unclaimed properties of batch %s: %w", batchID, err)
	}

	batchTag, err := tx.Exec(ctx, `DELETE FROM import_batches WHERE id = $1`, batchID)
	if err != nil {
		return 0, fmt.Errorf("PostgresStorageAdapter: failed to delete batch %s: %w", batchID, err)
	}
	if batchTag.RowsAffected() == 0 {
		return 0, domain.ErrBatchNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("PostgresStorageAdapter: failed to commit deletion of batch %s: %w", batchID, err)
	}
	return int(propsTag.RowsAffected()), nil
}

func (a *PostgresStorageAdapter) scanBatch(row pgx.Row) (*domain.ImportBatch, error) {
	var batch domain.ImportBatch
	var errorsJSON []byte

	err := row.Scan(
		&batch.ID, &batch.SourceKind, &batch.SourceName, &batch.TotalRecords,
		&batch.ImportedCount, &batch.FailedCount, &batch.ClaimedCount,
		&errorsJSON, &batch.ExpiresAt, &batch.Notes, &batch.CreatedBy, &batch.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrBatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("PostgresStorageAdapter: failed to scan import batch: %w", err)
	}

	if err := json.Unmarshal(errorsJSON, &batch.RowErrors); err != nil {
		return nil, fmt.Errorf("PostgresStorageAdapter: failed to unmarshal row errors: %w", err)
	}
	return &batch, nil
}

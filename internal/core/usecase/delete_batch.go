package usecase

import (
	"context"
	"errors"
	"fmt"

	"import-claim-service/internal/contextkeys"
	"import-claim-service/internal/core/domain"
	"import-claim-service/internal/core/port"

	"github.com/google/uuid"
)

// DeleteBatchUseCase удаляет батч. Каскад затрагивает только незабранные
// объекты: забранные уже принадлежат заявителям и остаются, с прежним
// import_batch_id для аудита.
type DeleteBatchUseCase struct {
	batches port.BatchStoragePort
}

func NewDeleteBatchUseCase(batches port.BatchStoragePort) *DeleteBatchUseCase {
	return &DeleteBatchUseCase{batches: batches}
}

func (uc *DeleteBatchUseCase) Execute(ctx context.Context, batchID uuid.UUID) (int, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case": "DeleteBatch",
		"batch_id": batchID.String(),
	})

	removed, err := uc.batches.DeleteBatch(ctx, batchID)
	if err != nil {
		if errors.Is(err, domain.ErrBatchNotFound) {
			return 0, domain.ErrBatchNotFound
		}
		ucLogger.Error("Failed to delete batch", err, nil)
		return 0, fmt.Errorf("failed to delete batch: %w", err)
	}

	ucLogger.Info("Batch deleted", port.Fields{"removed_unclaimed": removed})
	return removed, nil
}

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

type GetBatchUseCase struct {
	batches port.BatchStoragePort
}

func NewGetBatchUseCase(batches port.BatchStoragePort) *GetBatchUseCase {
	return &GetBatchUseCase{batches: batches}
}

func (uc *GetBatchUseCase) Execute(ctx context.Context, batchID uuid.UUID) (*domain.ImportBatch, error) {
	logger := contextkeys.LoggerFromContext(ctx)

	batch, err := uc.batches.GetBatch(ctx, batchID)
	if err != nil {
		if errors.Is(err, domain.ErrBatchNotFound) {
			return nil, domain.ErrBatchNotFound
		}
		logger.Error("Failed to load batch", err, port.Fields{"batch_id": batchID.String()})
		return nil, fmt.Errorf("failed to load batch: %w", err)
	}
	return batch, nil
}

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

// ExtendExpirationUseCase продлевает дедлайн claim'а на уровне батча.
// Продление - чистый сдвиг таймстемпов: отдельного флага состояния нет,
// поэтому переход Expired -> Unclaimed-Active происходит сам собой.
type ExtendExpirationUseCase struct {
	batches port.BatchStoragePort
}

func NewExtendExpirationUseCase(batches port.BatchStoragePort) *ExtendExpirationUseCase {
	return &ExtendExpirationUseCase{batches: batches}
}

func (uc *ExtendExpirationUseCase) Execute(ctx context.Context, batchID uuid.UUID, days int) (*domain.ImportBatch, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case": "ExtendExpiration",
		"batch_id": batchID.String(),
		"days":     days,
	})

	if days <= 0 {
		return nil, fmt.Errorf("extension days must be positive, got %d", days)
	}

	batch, err := uc.batches.ExtendExpiration(ctx, batchID, days)
	if err != nil {
		if errors.Is(err, domain.ErrBatchNotFound) {
			return nil, domain.ErrBatchNotFound
		}
		ucLogger.Error("Failed to extend batch expiration", err, nil)
		return nil, fmt.Errorf("failed to extend batch expiration: %w", err)
	}

	ucLogger.Info("Batch expiration extended", port.Fields{
		"new_expires_at": batch.ExpiresAt,
	})
	return batch, nil
}

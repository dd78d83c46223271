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

// ListBatchPropertiesUseCase возвращает объекты батча вместе с их
// производными claim-состояниями. Существование батча проверяется явно,
// чтобы пустой батч и несуществующий батч не выглядели одинаково.
type ListBatchPropertiesUseCase struct {
	batches    port.BatchStoragePort
	properties port.PropertyStoragePort
}

func NewListBatchPropertiesUseCase(batches port.BatchStoragePort, properties port.PropertyStoragePort) *ListBatchPropertiesUseCase {
	return &ListBatchPropertiesUseCase{batches: batches, properties: properties}
}

func (uc *ListBatchPropertiesUseCase) Execute(ctx context.Context, batchID uuid.UUID) ([]domain.ImportedProperty, error) {
	logger := contextkeys.LoggerFromContext(ctx)

	if _, err := uc.batches.GetBatch(ctx, batchID); err != nil {
		if errors.Is(err, domain.ErrBatchNotFound) {
			return nil, domain.ErrBatchNotFound
		}
		logger.Error("Failed to load batch before listing properties", err, port.Fields{"batch_id": batchID.String()})
		return nil, fmt.Errorf("failed to load batch: %w", err)
	}

	properties, err := uc.properties.ListByBatch(ctx, batchID)
	if err != nil {
		logger.Error("Failed to list batch properties", err, port.Fields{"batch_id": batchID.String()})
		return nil, fmt.Errorf("failed to list batch properties: %w", err)
	}
	return properties, nil
}

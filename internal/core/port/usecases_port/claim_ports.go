package usecases_port

import (
	"context"

	"import-claim-service/internal/core/domain"

	"github.com/google/uuid"
)

// LookupClaimPort - просмотр объекта по claim-токену (страница claim-ссылки).
type LookupClaimPort interface {
	Execute(ctx context.Context, token string) (*domain.ImportedProperty, error)
}

// ClaimPropertyPort - передача объекта владельцу, ровно один раз.
type ClaimPropertyPort interface {
	Execute(ctx context.Context, token string, claimantID string) (*domain.ImportedProperty, error)
}

// ExtendExpirationPort - продление дедлайна батча и его незабранных объектов.
type ExtendExpirationPort interface {
	Execute(ctx context.Context, batchID uuid.UUID, days int) (*domain.ImportBatch, error)
}

// GetBatchPort - выдача батча со списком ошибок.
type GetBatchPort interface {
	Execute(ctx context.Context, batchID uuid.UUID) (*domain.ImportBatch, error)
}

// DeleteBatchPort - удаление батча с каскадом на незабранные объекты.
type DeleteBatchPort interface {
	Execute(ctx context.Context, batchID uuid.UUID) (int, error)
}

// ListBatchPropertiesPort - выдача объектов батча (для экрана аудита).
type ListBatchPropertiesPort interface {
	Execute(ctx context.Context, batchID uuid.UUID) ([]domain.ImportedProperty, error)
}

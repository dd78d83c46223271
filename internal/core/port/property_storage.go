package port

import (
	"context"
	"time"

	"import-claim-service/internal/core/domain"

	"github.com/google/uuid"
)

// PropertyStoragePort - хранилище импортированных объектов.
type PropertyStoragePort interface {
	// ExternalIDExists проверяет, есть ли в инвентаре объект с таким
	// внешним идентификатором. Используется для дедупликации ДО любых
	// внешних запросов за фотографиями.
	ExternalIDExists(ctx context.Context, importSource, externalID string) (bool, error)

	SaveProperty(ctx context.Context, property *domain.ImportedProperty) error

	FindByClaimToken(ctx context.Context, token string) (*domain.ImportedProperty, error)

	// ClaimProperty выполняет атомарный условный UPDATE:
	// claimed_at проставляется только если он еще NULL. Ноль затронутых
	// строк означает, что объект уже забрали (гонка двух запросов), и
	// адаптер обязан вернуть domain.ErrAlreadyClaimed, а не молча выйти.
	// Инкремент claimed_count родительского батча идет в той же транзакции.
	ClaimProperty(ctx context.Context, token string, claimantID string, now time.Time) (*domain.ImportedProperty, error)

	// ListByBatch возвращает объекты батча (для выдачи батча наружу).
	ListByBatch(ctx context.Context, batchID uuid.UUID) ([]domain.ImportedProperty, error)
}

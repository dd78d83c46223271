package port

import (
	"context"

	"import-claim-service/internal/core/domain"

	"github.com/google/uuid"
)

// BatchStoragePort - хранилище батчей импорта.
type BatchStoragePort interface {
	// CreateBatch записывает батч в предварительном состоянии.
	// Единственная фатальная ошибка импорта - невозможность записать батч.
	CreateBatch(ctx context.Context, batch *domain.ImportBatch) error

	// FinalizeBatch один раз дописывает финальные счетчики и список ошибок.
	FinalizeBatch(ctx context.Context, batchID uuid.UUID, total, imported, failed int, rowErrors []domain.RowError) error

	GetBatch(ctx context.Context, batchID uuid.UUID) (*domain.ImportBatch, error)

	// ExtendExpiration сдвигает дедлайн батча на days вперед и СИНХРОННО
	// сдвигает индивидуальные дедлайны только незабранных объектов батча.
	// Забранные объекты не трогаются.
	ExtendExpiration(ctx context.Context, batchID uuid.UUID, days int) (*domain.ImportBatch, error)

	// DeleteBatch удаляет батч и каскадно - его незабранные объекты.
	// Забранные объекты сохраняются: владение уже перешло к заявителю,
	// батч для них лишь история. Возвращает число удаленных объектов.
	DeleteBatch(ctx context.Context, batchID uuid.UUID) (int, error)
}

package port

import (
	"context"

	"import-claim-service/internal/core/domain"
)

// EventReporterPort публикует доменные события для остальной части
// маркетплейса. Ошибка публикации логируется, но никогда не роняет
// основную операцию.
type EventReporterPort interface {
	ReportBatchCompleted(ctx context.Context, batch *domain.ImportBatch) error

	ReportPropertyClaimed(ctx context.Context, property *domain.ImportedProperty) error
}

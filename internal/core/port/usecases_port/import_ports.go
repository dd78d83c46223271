package usecases_port

import (
	"context"

	"import-claim-service/internal/core/domain"
	"import-claim-service/internal/core/port"
)

// RunImportPort - запуск одного прогона импорта поверх адаптера источника.
type RunImportPort interface {
	Execute(ctx context.Context, source port.RecordSourcePort, meta domain.BatchMetadata) (*domain.ImportBatch, error)
}

// ResolvePhotosPort - разрешение фотографий через цепочку фолбэков.
// Пустой результат - не ошибка: рендер подставит заглушку.
type ResolvePhotosPort interface {
	Resolve(ctx context.Context, record *domain.ListingRecord) []string
}

// SearchExternalPort - поиск кандидатов во внешнем маркетплейсе
// с пометкой уже импортированных.
type SearchExternalPort interface {
	Execute(ctx context.Context, criteria domain.SearchCriteria) (*domain.SearchResult, error)
}

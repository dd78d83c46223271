package port

import (
	"context"

	"import-claim-service/internal/core/domain"
)

// SourceMetadata - метаданные адаптера источника для записи в батч.
type SourceMetadata struct {
	Kind string // spreadsheet | external_api
	Name string // имя файла или поисковый запрос
}

// RecordSourcePort - общий контракт адаптеров источников записей.
//
// StreamRecords отдает записи лениво и в порядке источника через yield.
// Испорченная запись (битая строка таблицы) приходит с ненулевым RowError
// и пустым RawListing - поток при этом НЕ останавливается; это определяющая
// политика частичных сбоев всего конвейера. Возврат false из yield
// прекращает поток досрочно.
type RecordSourcePort interface {
	Metadata() SourceMetadata

	StreamRecords(ctx context.Context, yield func(rec domain.RawListing, rowErr *domain.RowError) bool) error
}

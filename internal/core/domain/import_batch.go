package domain

import (
	"time"

	"github.com/google/uuid"
)

// RowError - ошибка обработки одной записи источника. Накапливается в батче,
// не прерывает импорт.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// BatchMetadata - параметры запуска импорта, задаваемые оператором.
type BatchMetadata struct {
	Notes     string
	CreatedBy string
	// Дедлайн для claim-токенов всех объектов этого батча
	ExpiresAt time.Time
}

// ImportBatch - персистентная запись одного прогона импорта.
// Создается в предварительном состоянии, один раз финализируется счетчиками,
// после этого меняется только продлением дедлайна или удалением.
type ImportBatch struct {
	ID         uuid.UUID
	SourceKind string // spreadsheet | external_api
	SourceName string // имя файла или поисковый запрос

	TotalRecords  int
	ImportedCount int
	FailedCount   int
	ClaimedCount  int

	RowErrors []RowError

	ExpiresAt time.Time
	Notes     string
	CreatedBy string
	CreatedAt time.Time
}

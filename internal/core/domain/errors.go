package domain

import (
	"errors"
	"fmt"
)

// Определяем переменные-ошибки, которые могут быть возвращены из Use Cases.
// Ошибки claim'а - ожидаемые, частые исходы с собственной страницей в UI,
// поэтому они типизированы, а не заворачиваются в общий 500.
var (
	ErrClaimNotFound  = errors.New("claim token not found")
	ErrAlreadyClaimed = errors.New("property already claimed")
	ErrClaimExpired   = errors.New("claim token expired")

	ErrBatchNotFound   = errors.New("import batch not found")
	ErrAlreadyImported = errors.New("listing already imported")
)

// ValidationError - ошибка нормализации на уровне одного поля.
// Превращается в RowError батча, импорт продолжается.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid field %q: %s", e.Field, e.Reason)
}

// NewValidationError - конструктор для удобства
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

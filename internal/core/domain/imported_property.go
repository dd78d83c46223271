package domain

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// Статусы модерации. Импортированные объекты создаются сразу одобренными,
// так как батч запускает администратор.
const (
	ApprovalStatusApproved = "approved"
	ApprovalStatusPending  = "pending"
)

// Производное состояние жизненного цикла claim'а. В хранилище состояние
// не дублируется отдельным флагом - оно выводится из claimed_at/claim_expires_at.
const (
	ClaimStateUnclaimedActive = "unclaimed_active"
	ClaimStateClaimed         = "claimed"
	ClaimStateExpired         = "expired"
)

// ImportedProperty - объявление после сохранения в инвентарь.
// До момента claim'а объект неактивен и не показывается в листингах.
type ImportedProperty struct {
	ID uuid.UUID

	ListingRecord

	Images  []string
	Geohash string

	ImportSource string
	// Батч-владелец. Назначается при создании и больше не меняется.
	// Колонка без внешнего ключа: при удалении батча claimed-объекты
	// сохраняются, а идентификатор остается для аудита.
	ImportBatchID uuid.UUID

	ClaimToken     string
	ClaimExpiresAt time.Time
	ClaimedAt      *time.Time
	ClaimedBy      *string

	IsActive       bool
	ForSale        bool
	ApprovalStatus string

	CreatedAt time.Time
}

// NewClaimToken генерирует одноразовый claim-токен: 32 случайных байта
// в hex. Токен непредсказуем и глобально уникален, сам по себе ничего
// не кодирует - все проверки идут по состоянию в БД.
func NewClaimToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// IsExpired - производный предикат: объект не забран и дедлайн прошел.
func (p *ImportedProperty) IsExpired(now time.Time) bool {
	return p.ClaimedAt == nil && now.After(p.ClaimExpiresAt)
}

// ClaimState возвращает производное состояние объекта.
// Вызывающий код не должен читать сырые таймстемпы напрямую.
func (p *ImportedProperty) ClaimState(now time.Time) string {
	switch {
	case p.ClaimedAt != nil:
		return ClaimStateClaimed
	case now.After(p.ClaimExpiresAt):
		return ClaimStateExpired
	default:
		return ClaimStateUnclaimedActive
	}
}

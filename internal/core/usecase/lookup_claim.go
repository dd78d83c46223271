package usecase

import (
	"context"
	"errors"
	"fmt"

	"import-claim-service/internal/contextkeys"
	"import-claim-service/internal/core/domain"
	"import-claim-service/internal/core/port"
)

// LookupClaimUseCase - просмотр объекта по claim-ссылке без изменения
// состояния. Токен - единственный credential ссылки.
type LookupClaimUseCase struct {
	properties port.PropertyStoragePort
}

func NewLookupClaimUseCase(properties port.PropertyStoragePort) *LookupClaimUseCase {
	return &LookupClaimUseCase{properties: properties}
}

func (uc *LookupClaimUseCase) Execute(ctx context.Context, token string) (*domain.ImportedProperty, error) {
	logger := contextkeys.LoggerFromContext(ctx)

	property, err := uc.properties.FindByClaimToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrClaimNotFound) {
			return nil, domain.ErrClaimNotFound
		}
		logger.Error("Claim lookup failed", err, port.Fields{"use_case": "LookupClaim"})
		return nil, fmt.Errorf("failed to look up claim token: %w", err)
	}

	return property, nil
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"import-claim-service/internal/contextkeys"
	"import-claim-service/internal/core/domain"
	"import-claim-service/internal/core/port"
)

// ClaimPropertyUseCase передает импортированный объект его владельцу.
//
// Гонка двух одновременных запросов (две вкладки, двойной сабмит)
// разрешается не здесь, а атомарным условным UPDATE в хранилище:
// проверка "прочитал - потом записал" уязвима к TOCTOU, поэтому ровно
// один запрос получает объект, второй - ErrAlreadyClaimed.
type ClaimPropertyUseCase struct {
	properties port.PropertyStoragePort
	reporter   port.EventReporterPort

	// подменяется в тестах
	now func() time.Time
}

func NewClaimPropertyUseCase(properties port.PropertyStoragePort, reporter port.EventReporterPort) *ClaimPropertyUseCase {
	return &ClaimPropertyUseCase{
		properties: properties,
		reporter:   reporter,
		now:        time.Now,
	}
}

func (uc *ClaimPropertyUseCase) Execute(ctx context.Context, token string, claimantID string) (*domain.ImportedProperty, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{"use_case": "ClaimProperty"})

	if claimantID == "" {
		return nil, fmt.Errorf("claimant id is required")
	}

	now := uc.now()

	// Просроченный, но еще не подчищенный токен обязан падать с Expired,
	// даже если фонового свипера нет. Поэтому срок проверяется до
	// попытки условного UPDATE.
	existing, err := uc.properties.FindByClaimToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrClaimNotFound) {
			ucLogger.Warn("Claim attempt with unknown token", nil)
			return nil, domain.ErrClaimNotFound
		}
		ucLogger.Error("Failed to look up claim token", err, nil)
		return nil, fmt.Errorf("failed to look up claim token: %w", err)
	}

	if existing.ClaimedAt != nil {
		return nil, domain.ErrAlreadyClaimed
	}
	if existing.IsExpired(now) {
		ucLogger.Warn("Claim attempt on expired token", port.Fields{
			"property_id": existing.ID.String(),
		})
		return nil, domain.ErrClaimExpired
	}

	claimed, err := uc.properties.ClaimProperty(ctx, token, claimantID, now)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyClaimed) {
			// Гонку выиграл другой запрос
			ucLogger.Info("Concurrent claim lost the race", port.Fields{
				"property_id": existing.ID.String(),
			})
			return nil, domain.ErrAlreadyClaimed
		}
		ucLogger.Error("Conditional claim update failed", err, nil)
		return nil, fmt.Errorf("failed to claim property: %w", err)
	}

	ucLogger.Info("Property claimed", port.Fields{
		"property_id": claimed.ID.String(),
		"batch_id":    claimed.ImportBatchID.String(),
	})

	if uc.reporter != nil {
		if repErr := uc.reporter.ReportPropertyClaimed(ctx, claimed); repErr != nil {
			ucLogger.Error("Failed to report claim event", repErr, nil)
		}
	}

	return claimed, nil
}

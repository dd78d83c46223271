package usecase

import (
	"context"
	"fmt"

	"import-claim-service/internal/contextkeys"
	"import-claim-service/internal/core/domain"
	"import-claim-service/internal/core/port"
)

// SearchExternalUseCase гоняет постраничный поиск по внешнему маркетплейсу
// и помечает кандидатов, уже существующих в локальном инвентаре. Пометка
// отдается оператору - исключение дубликатов происходит при выборе, а не
// молчаливым пропуском во время импорта.
//
// Ошибка поиска здесь - это провал всей операции (импорт еще не начался,
// батча нет), поэтому она возвращается напрямую, а не как RowError.
type SearchExternalUseCase struct {
	source     port.ListingSearchPort
	properties port.PropertyStoragePort
}

func NewSearchExternalUseCase(source port.ListingSearchPort, properties port.PropertyStoragePort) *SearchExternalUseCase {
	return &SearchExternalUseCase{
		source:     source,
		properties: properties,
	}
}

func (uc *SearchExternalUseCase) Execute(ctx context.Context, criteria domain.SearchCriteria) (*domain.SearchResult, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case": "SearchExternal",
		"location": criteria.Location,
		"page":     criteria.Page,
	})

	result, err := uc.source.Search(ctx, criteria)
	if err != nil {
		ucLogger.Error("External search failed", err, nil)
		return nil, fmt.Errorf("external search failed: %w", err)
	}

	for i := range result.Candidates {
		exists, checkErr := uc.properties.ExternalIDExists(ctx, domain.SourceExternalAPI, result.Candidates[i].ExternalID)
		if checkErr != nil {
			ucLogger.Warn("Inventory check failed for candidate", port.Fields{
				"external_id": result.Candidates[i].ExternalID,
				"error":       checkErr.Error(),
			})
			continue
		}
		result.Candidates[i].AlreadyImported = exists
	}

	ucLogger.Info("External search finished", port.Fields{
		"candidates": len(result.Candidates),
		"total":      result.Total,
	})
	return result, nil
}

package mtsource

import (
	"context"
	"fmt"
	"strings"

	"import-claim-service/internal/contextkeys"
	"import-claim-service/internal/core/domain"
	"import-claim-service/internal/core/port"
)

// ImportSource адаптирует внешний маркетплейс под общий контракт
// источника записей. Поток: поисковый запрос по критериям, затем для
// каждого выбранного кандидата - детальная запись (контакты, фотографии).
//
// Неудачный детальный фетч НЕ выбрасывает кандидата: запись идет дальше
// с данными из поисковой выдачи, без контактов. Неудачный сам поиск -
// это ошибка потока (импорт по сути не начался).
type ImportSource struct {
	fetcher  *MTSourceAdapter
	criteria domain.SearchCriteria

	// Внешние идентификаторы, выбранные оператором из выдачи.
	// Пустой набор означает "вся страница".
	selected map[string]bool
}

func NewImportSource(fetcher *MTSourceAdapter, criteria domain.SearchCriteria, selectedIDs []string) *ImportSource {
	selected := make(map[string]bool, len(selectedIDs))
	for _, id := range selectedIDs {
		if id != "" {
			selected[id] = true
		}
	}
	return &ImportSource{
		fetcher:  fetcher,
		criteria: criteria,
		selected: selected,
	}
}

func (s *ImportSource) Metadata() port.SourceMetadata {
	name := s.criteria.Location
	if s.criteria.ListingType != "" {
		name = fmt.Sprintf("%s (%s)", name, s.criteria.ListingType)
	}
	return port.SourceMetadata{
		Kind: domain.SourceExternalAPI,
		Name: strings.TrimSpace(name),
	}
}

func (s *ImportSource) StreamRecords(ctx context.Context, yield func(rec domain.RawListing, rowErr *domain.RowError) bool) error {
	logger := contextkeys.LoggerFromContext(ctx)
	srcLogger := logger.WithFields(port.Fields{"component": "MTSourceImportSource"})

	result, err := s.fetcher.Search(ctx, s.criteria)
	if err != nil {
		return fmt.Errorf("external import source: search failed: %w", err)
	}

	row := 0
	for _, candidate := range result.Candidates {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if len(s.selected) > 0 && !s.selected[candidate.ExternalID] {
			continue
		}
		row++

		detail, detailErr := s.fetcher.FetchListingDetail(ctx, candidate.ExternalID)
		if detailErr != nil {
			srcLogger.Warn("Detail fetch failed, importing candidate without contact info", port.Fields{
				"external_id": candidate.ExternalID,
				"error":       detailErr.Error(),
			})
			detail = nil
		}

		if !yield(toRawListing(row, candidate, detail), nil) {
			return nil
		}
	}

	srcLogger.Info("External source stream finished", port.Fields{"records": row})
	return nil
}

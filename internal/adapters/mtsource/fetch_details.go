package mtsource

import (
	"context"
	"fmt"

	"import-claim-service/internal/contextkeys"
	"import-claim-service/internal/contracts"
	"import-claim-service/internal/core/domain"
	"import-claim-service/internal/core/port"

	"github.com/gocolly/colly/v2"
)

// FetchListingDetail извлекает детальную запись объявления: контакты
// владельца и полный список фотографий. Тело ответа проверяется по
// JSON-схеме до маппинга - на этом держится допущение конвейера,
// что записи внешнего API приходят полными.
func (a *MTSourceAdapter) FetchListingDetail(ctx context.Context, externalID string) (*domain.ListingDetail, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	detailLogger := logger.WithFields(port.Fields{
		"component":   "MTSourceAdapter(FetchDetail)",
		"external_id": externalID,
	})

	collector := a.collector.Clone()

	var detail *domain.ListingDetail
	var criticalError error

	collector.OnRequest(func(r *colly.Request) {
		detailLogger.Debug("Making request to fetch listing detail", port.Fields{"url": r.URL.String()})
	})

	collector.OnResponse(func(r *colly.Response) {
		if criticalError != nil || detail != nil {
			return
		}

		if err := contracts.ValidatePayload(contracts.PayloadListingDetail, r.Body); err != nil {
			detailLogger.Error("Detail payload failed schema validation", err, nil)
			criticalError = fmt.Errorf("FetchListingDetail: payload for %s failed schema validation: %w", externalID, err)
			return
		}

		mapped, err := toListingDetail(r.Body)
		if err != nil {
			detailLogger.Error("Failed to map detail response", err, nil)
			criticalError = fmt.Errorf("FetchListingDetail: failed to map response for %s: %w", externalID, err)
			return
		}
		detail = mapped
	})

	collector.OnError(func(r *colly.Response, err error) {
		detailLogger.Error("Failed to fetch listing detail", err, port.Fields{
			"url":    r.Request.URL.String(),
			"status": r.StatusCode,
		})
		criticalError = fmt.Errorf("FetchListingDetail: request for %s failed with status %d: %w", externalID, r.StatusCode, err)
	})

	apiURL := fmt.Sprintf("%s/api/listings/%s", a.baseURL, externalID)
	_ = collector.Visit(apiURL)
	collector.Wait()

	return detail, criticalError
}

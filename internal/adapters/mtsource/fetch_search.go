package mtsource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"import-claim-service/internal/contextkeys"
	"import-claim-service/internal/core/domain"
	"import-claim-service/internal/core/port"

	"github.com/gocolly/colly/v2"
)

// Структуры ответа поискового API внешнего источника
type searchResponse struct {
	Listings []searchListingItem `json:"listings"`
	Total    int                 `json:"total"`
	Page     int                 `json:"page"`
}

type searchListingItem struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Price        string `json:"price"`
	Address      string `json:"address"`
	City         string `json:"city"`
	DetailURL    string `json:"detail_url"`
	ThumbnailURL string `json:"thumbnail_url"`
}

func (a *MTSourceAdapter) buildSearchURL(criteria domain.SearchCriteria) (string, error) {
	u, err := url.Parse(a.baseURL + "/api/search")
	if err != nil {
		return "", err
	}

	q := u.Query()
	if criteria.Location != "" {
		q.Set("location", criteria.Location)
	}
	if criteria.ListingType != "" {
		q.Set("type", criteria.ListingType)
	}
	if criteria.Page > 0 {
		q.Set("page", strconv.Itoa(criteria.Page))
	}
	if criteria.MinPrice != nil {
		q.Set("min_price", strconv.FormatFloat(*criteria.MinPrice, 'f', -1, 64))
	}
	if criteria.MaxPrice != nil {
		q.Set("max_price", strconv.FormatFloat(*criteria.MaxPrice, 'f', -1, 64))
	}

	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Search выполняет один постраничный поисковый запрос.
func (a *MTSourceAdapter) Search(ctx context.Context, criteria domain.SearchCriteria) (*domain.SearchResult, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	searchLogger := logger.WithFields(port.Fields{"component": "MTSourceAdapter(Search)"})

	// "Одноразовый" клон для этого запроса: наследует лимиты,
	// но имеет свои собственные обработчики
	collector := a.collector.Clone()

	var result *domain.SearchResult
	var responseErr error

	targetURL, err := a.buildSearchURL(criteria)
	if err != nil {
		return nil, fmt.Errorf("mtsource adapter: failed to build search URL: %w", err)
	}

	collector.OnRequest(func(r *colly.Request) {
		searchLogger.Debug("Making search request", port.Fields{"url": r.URL.String()})
	})

	collector.OnResponse(func(r *colly.Response) {
		var data searchResponse
		if jsonErr := json.Unmarshal(r.Body, &data); jsonErr != nil {
			responseErr = fmt.Errorf("mtsource adapter: failed to parse search response from %s: %w", r.Request.URL, jsonErr)
			return
		}

		candidates := make([]domain.ListingCandidate, 0, len(data.Listings))
		for _, item := range data.Listings {
			candidates = append(candidates, domain.ListingCandidate{
				ExternalID:   item.ID,
				Title:        item.Title,
				Price:        item.Price,
				Address:      item.Address,
				City:         item.City,
				DetailURL:    item.DetailURL,
				ThumbnailURL: item.ThumbnailURL,
			})
		}

		result = &domain.SearchResult{
			Candidates: candidates,
			Total:      data.Total,
			Page:       data.Page,
		}
	})

	collector.OnError(func(r *colly.Response, err error) {
		searchLogger.Error("Search request failed", err, port.Fields{
			"url":    r.Request.URL.String(),
			"status": r.StatusCode,
		})
		responseErr = fmt.Errorf("mtsource adapter: search request to %s failed with status %d: %w", r.Request.URL, r.StatusCode, err)
	})

	visitErr := collector.Visit(targetURL)
	if visitErr != nil {
		searchLogger.Error("Failed to initiate search visit", visitErr, port.Fields{"url": targetURL})
		return nil, fmt.Errorf("mtsource adapter: failed to visit %s: %w", targetURL, visitErr)
	}
	collector.Wait()

	if responseErr != nil {
		return nil, responseErr
	}
	if result == nil {
		return nil, fmt.Errorf("mtsource adapter: no response received for %s", targetURL)
	}

	searchLogger.Info("Search page fetched", port.Fields{
		"url":        targetURL,
		"candidates": len(result.Candidates),
		"total":      result.Total,
	})
	return result, nil
}

package mtsource

import (
	"context"
	"fmt"
	"strings"

	"import-claim-service/internal/contextkeys"
	"import-claim-service/internal/core/port"

	"github.com/gocolly/colly/v2"
)

// ScrapeListingImages собирает все изображения со страницы объявления.
// Пустой результат - не ошибка: вызывающий резолвер деградирует к
// следующему шагу своей цепочки.
func (a *MTSourceAdapter) ScrapeListingImages(ctx context.Context, detailURL string) ([]string, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	scrapeLogger := logger.WithFields(port.Fields{
		"component": "MTSourceAdapter(ScrapeImages)",
		"url":       detailURL,
	})

	collector := a.collector.Clone()

	var images []string
	seen := make(map[string]bool)
	var criticalError error

	appendImage := func(src string) {
		src = strings.TrimSpace(src)
		if src == "" || seen[src] {
			return
		}
		seen[src] = true
		images = append(images, src)
	}

	// Галерея объявления
	collector.OnHTML(".listing-gallery img[src], .property-photos img[src]", func(e *colly.HTMLElement) {
		appendImage(e.Request.AbsoluteURL(e.Attr("src")))
	})

	// og:image как запасной вариант, если галереи на странице нет
	collector.OnHTML(`meta[property="og:image"]`, func(e *colly.HTMLElement) {
		appendImage(e.Attr("content"))
	})

	collector.OnError(func(r *colly.Response, err error) {
		scrapeLogger.Warn("Failed to scrape listing page", port.Fields{
			"status": r.StatusCode,
			"error":  err.Error(),
		})
		criticalError = fmt.Errorf("ScrapeListingImages: request to %s failed with status %d: %w", detailURL, r.StatusCode, err)
	})

	visitErr := collector.Visit(detailURL)
	if visitErr != nil {
		return nil, fmt.Errorf("ScrapeListingImages: failed to visit %s: %w", detailURL, visitErr)
	}
	collector.Wait()

	if criticalError != nil {
		return nil, criticalError
	}

	scrapeLogger.Debug("Page scrape finished", port.Fields{"images_found": len(images)})
	return images, nil
}

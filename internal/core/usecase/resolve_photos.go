package usecase

import (
	"context"
	"strings"

	"import-claim-service/internal/contextkeys"
	"import-claim-service/internal/core/domain"
	"import-claim-service/internal/core/port"
)

// ResolvePhotosUseCase подбирает фотографии для записи через цепочку
// фолбэков. Каждый следующий шаг пробуется только если предыдущий
// ничего не дал:
//
//  1. скрейп всех изображений со страницы объявления (если есть detail URL);
//  2. структурные URL из детального API: сперва фотографии, уже
//     полученные источником вместе с записью, иначе фетч по внешнему
//     идентификатору;
//  3. апгрейд thumbnail-подсказки до крупного варианта по паттерну URL,
//     при несовпадении паттерна - сама подсказка как есть;
//  4. пустой список (не ошибка - рендер подставит заглушку).
//
// Сбой любого шага (таймаут, сеть, пустая страница) деградирует к
// следующему шагу, а не роняет запись. Троттлинг внешних запросов живет
// в адаптере-фетчере, резолвер о нем не знает.
type ResolvePhotosUseCase struct {
	fetcher port.PhotoFetcherPort
}

func NewResolvePhotosUseCase(fetcher port.PhotoFetcherPort) *ResolvePhotosUseCase {
	return &ResolvePhotosUseCase{fetcher: fetcher}
}

func (uc *ResolvePhotosUseCase) Resolve(ctx context.Context, record *domain.ListingRecord) []string {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{"use_case": "ResolvePhotos"})

	// Шаг 1: страница объявления
	if record.DetailURL != "" {
		images, err := uc.fetcher.ScrapeListingImages(ctx, record.DetailURL)
		if err != nil {
			ucLogger.Warn("Page scrape failed, falling back", port.Fields{
				"detail_url": record.DetailURL,
				"error":      err.Error(),
			})
		} else if len(images) > 0 {
			ucLogger.Debug("Photos resolved from listing page", port.Fields{"count": len(images)})
			return images
		}
	}

	// Шаг 2: данные детального API. Если источник уже притащил фотографии
	// вместе с записью, повторный rate-limited запрос не нужен.
	if len(record.SourceImages) > 0 {
		ucLogger.Debug("Photos resolved from prefetched source images", port.Fields{"count": len(record.SourceImages)})
		return record.SourceImages
	}
	if record.ExternalID != nil {
		detail, err := uc.fetcher.FetchListingDetail(ctx, *record.ExternalID)
		if err != nil {
			ucLogger.Warn("Detail fetch failed, falling back", port.Fields{
				"external_id": *record.ExternalID,
				"error":       err.Error(),
			})
		} else if detail != nil && len(detail.Images) > 0 {
			ucLogger.Debug("Photos resolved from detail API", port.Fields{"count": len(detail.Images)})
			return detail.Images
		}
	}

	// Шаг 3: апгрейд thumbnail-подсказки
	if record.ThumbnailURL != "" {
		return []string{UpgradeThumbnailURL(record.ThumbnailURL)}
	}

	ucLogger.Debug("Photo chain exhausted, record gets no images", nil)
	return nil
}

// UpgradeThumbnailURL пытается переписать URL миниатюры на крупный вариант.
// Паттерны подобраны под галерею внешнего источника; если ни один не
// совпал, возвращается исходная подсказка без изменений.
func UpgradeThumbnailURL(thumbURL string) string {
	upgraded := thumbURL

	replacements := [][2]string{
		{"/thumbs/", "/gallery/"},
		{"_small.", "_large."},
		{"_thumb.", "_full."},
	}

	matched := false
	for _, r := range replacements {
		if strings.Contains(upgraded, r[0]) {
			upgraded = strings.Replace(upgraded, r[0], r[1], 1)
			matched = true
		}
	}

	if !matched {
		return thumbURL
	}
	return upgraded
}

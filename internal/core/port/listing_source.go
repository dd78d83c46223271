package port

import (
	"context"

	"import-claim-service/internal/core/domain"
)

// ListingSearchPort объединяет операции поиска по внешнему маркетплейсу.
type ListingSearchPort interface {
	// Search выполняет постраничный поиск по внешнему источнику.
	Search(ctx context.Context, criteria domain.SearchCriteria) (*domain.SearchResult, error)

	// FetchListingDetail извлекает детальную запись (контакты, фотографии)
	// по внешнему идентификатору.
	FetchListingDetail(ctx context.Context, externalID string) (*domain.ListingDetail, error)
}

// PhotoFetcherPort - узкие операции, нужные резолверу фотографий.
// Резолвер зависит только от этого интерфейса, не от HTTP-клиентов.
type PhotoFetcherPort interface {
	// ScrapeListingImages собирает все изображения со страницы объявления.
	ScrapeListingImages(ctx context.Context, detailURL string) ([]string, error)

	FetchListingDetail(ctx context.Context, externalID string) (*domain.ListingDetail, error)
}

package mtsource

import (
	"encoding/json"
	"fmt"

	"import-claim-service/internal/constants"
	"import-claim-service/internal/core/domain"
)

// detailResponse - структура для разбора детального ответа API.
type detailResponse struct {
	ContactName  string   `json:"contact_name"`
	ContactPhone string   `json:"contact_phone"`
	ContactEmail string   `json:"contact_email"`
	Images       []string `json:"images"`
}

func toListingDetail(body []byte) (*domain.ListingDetail, error) {
	var resp detailResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal detail response: %w", err)
	}

	return &domain.ListingDetail{
		ContactName:  resp.ContactName,
		ContactPhone: resp.ContactPhone,
		ContactEmail: resp.ContactEmail,
		Images:       resp.Images,
	}, nil
}

// toRawListing собирает RawListing из кандидата поиска и (опционально)
// детальной записи. Дальше запись идет через общий нормализатор -
// нетипизированная карта не выходит за его границу.
func toRawListing(row int, candidate domain.ListingCandidate, detail *domain.ListingDetail) domain.RawListing {
	fields := map[string]string{
		constants.FieldAddress:      candidate.Address,
		constants.FieldCity:         candidate.City,
		constants.FieldPrice:        candidate.Price,
		constants.FieldDescription:  candidate.Title,
		constants.FieldExternalID:   candidate.ExternalID,
		constants.FieldDetailURL:    candidate.DetailURL,
		constants.FieldThumbnailURL: candidate.ThumbnailURL,
	}

	raw := domain.RawListing{
		SourceKind: domain.SourceExternalAPI,
		Row:        row,
		Fields:     fields,
	}

	if detail != nil {
		fields[constants.FieldOwnerName] = detail.ContactName
		fields[constants.FieldOwnerPhone] = detail.ContactPhone
		fields[constants.FieldOwnerEmail] = detail.ContactEmail
		// Фотографии детального ответа едут вместе с записью, чтобы
		// резолвер не ходил за ними повторно.
		raw.Images = detail.Images
	}

	return raw
}

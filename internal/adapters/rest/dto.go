package rest

import (
	"time"

	"import-claim-service/internal/core/domain"
)

// ExternalImportRequest - тело запроса на импорт из внешнего маркетплейса.
// Пустой selected_ids означает "вся найденная страница".
type ExternalImportRequest struct {
	Location    string   `json:"location"`
	ListingType string   `json:"listing_type,omitempty"`
	Page        int      `json:"page,omitempty"`
	MinPrice    *float64 `json:"min_price,omitempty"`
	MaxPrice    *float64 `json:"max_price,omitempty"`
	SelectedIDs []string `json:"selected_ids,omitempty"`

	Notes         string `json:"notes,omitempty"`
	CreatedBy     string `json:"created_by,omitempty"`
	ExpiresInDays int    `json:"expires_in_days,omitempty"`
}

// ExtendBatchRequest - тело запроса на продление дедлайна батча.
type ExtendBatchRequest struct {
	Days int `json:"days"`
}

// ClaimRequest - тело запроса на передачу объекта заявителю.
type ClaimRequest struct {
	ClaimantID string `json:"claimant_id"`
}

// BatchResponse - представление батча импорта в ответах API.
type BatchResponse struct {
	ID            string            `json:"id"`
	SourceKind    string            `json:"source_kind"`
	SourceName    string            `json:"source_name"`
	TotalRecords  int               `json:"total_records"`
	ImportedCount int               `json:"imported_count"`
	FailedCount   int               `json:"failed_count"`
	ClaimedCount  int               `json:"claimed_count"`
	RowErrors     []domain.RowError `json:"row_errors"`
	ExpiresAt     time.Time         `json:"expires_at"`
	Notes         string            `json:"notes,omitempty"`
	CreatedBy     string            `json:"created_by,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

func toBatchResponse(batch *domain.ImportBatch) BatchResponse {
	rowErrors := batch.RowErrors
	if rowErrors == nil {
		rowErrors = []domain.RowError{}
	}
	return BatchResponse{
		ID:            batch.ID.String(),
		SourceKind:    batch.SourceKind,
		SourceName:    batch.SourceName,
		TotalRecords:  batch.TotalRecords,
		ImportedCount: batch.ImportedCount,
		FailedCount:   batch.FailedCount,
		ClaimedCount:  batch.ClaimedCount,
		RowErrors:     rowErrors,
		ExpiresAt:     batch.ExpiresAt,
		Notes:         batch.Notes,
		CreatedBy:     batch.CreatedBy,
		CreatedAt:     batch.CreatedAt,
	}
}

// DeleteBatchResponse сообщает, сколько незабранных объектов удалено вместе с батчом.
type DeleteBatchResponse struct {
	RemovedUnclaimed int `json:"removed_unclaimed"`
}

// SearchCandidateResponse - один кандидат из внешнего поиска.
type SearchCandidateResponse struct {
	ExternalID      string `json:"external_id"`
	Title           string `json:"title"`
	Price           string `json:"price"`
	Address         string `json:"address"`
	City            string `json:"city"`
	DetailURL       string `json:"detail_url"`
	ThumbnailURL    string `json:"thumbnail_url"`
	AlreadyImported bool   `json:"already_imported"`
}

// SearchResponse - страница результатов внешнего поиска.
type SearchResponse struct {
	Data  []SearchCandidateResponse `json:"data"`
	Total int                       `json:"total"`
	Page  int                       `json:"page"`
}

func toSearchResponse(result *domain.SearchResult) SearchResponse {
	response := SearchResponse{
		Data:  make([]SearchCandidateResponse, len(result.Candidates)),
		Total: result.Total,
		Page:  result.Page,
	}
	for i, c := range result.Candidates {
		response.Data[i] = SearchCandidateResponse{
			ExternalID:      c.ExternalID,
			Title:           c.Title,
			Price:           c.Price,
			Address:         c.Address,
			City:            c.City,
			DetailURL:       c.DetailURL,
			ThumbnailURL:    c.ThumbnailURL,
			AlreadyImported: c.AlreadyImported,
		}
	}
	return response
}

// PropertyResponse - представление импортированного объекта в ответах API.
// claim_state - производное поле, сырые таймстемпы наружу не отдаются
// в качестве источника истины.
type PropertyResponse struct {
	ID            string   `json:"id"`
	Address       string   `json:"address"`
	City          string   `json:"city"`
	State         string   `json:"state"`
	ZipCode       string   `json:"zip_code"`
	Price         float64  `json:"price"`
	Bedrooms      int      `json:"bedrooms"`
	BathroomsFull int      `json:"bathrooms_full"`
	BathroomsHalf int      `json:"bathrooms_half"`
	Sqft          int      `json:"sqft"`
	LotSize       *float64 `json:"lot_size,omitempty"`
	PropertyType  string   `json:"property_type"`
	YearBuilt     *int     `json:"year_built,omitempty"`
	Description   string   `json:"description,omitempty"`

	Images  []string `json:"images"`
	Geohash string   `json:"geohash,omitempty"`

	ImportSource  string `json:"import_source"`
	ImportBatchID string `json:"import_batch_id"`

	ClaimState     string     `json:"claim_state"`
	ClaimExpiresAt time.Time  `json:"claim_expires_at"`
	ClaimedAt      *time.Time `json:"claimed_at,omitempty"`
	ClaimedBy      *string    `json:"claimed_by,omitempty"`

	IsActive       bool      `json:"is_active"`
	ForSale        bool      `json:"for_sale"`
	ApprovalStatus string    `json:"approval_status"`
	CreatedAt      time.Time `json:"created_at"`
}

func toPropertyResponse(p *domain.ImportedProperty, now time.Time) PropertyResponse {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return PropertyResponse{
		ID:            p.ID.String(),
		Address:       p.Address,
		City:          p.City,
		State:         p.State,
		ZipCode:       p.ZipCode,
		Price:         p.Price,
		Bedrooms:      p.Bedrooms,
		BathroomsFull: p.BathroomsFull,
		BathroomsHalf: p.BathroomsHalf,
		Sqft:          p.Sqft,
		LotSize:       p.LotSize,
		PropertyType:  p.PropertyType,
		YearBuilt:     p.YearBuilt,
		Description:   p.Description,

		Images:  images,
		Geohash: p.Geohash,

		ImportSource:  p.ImportSource,
		ImportBatchID: p.ImportBatchID.String(),

		ClaimState:     p.ClaimState(now),
		ClaimExpiresAt: p.ClaimExpiresAt,
		ClaimedAt:      p.ClaimedAt,
		ClaimedBy:      p.ClaimedBy,

		IsActive:       p.IsActive,
		ForSale:        p.ForSale,
		ApprovalStatus: p.ApprovalStatus,
		CreatedAt:      p.CreatedAt,
	}
}

// ErrorResponse - стандартная структура для ответа с ошибкой.
type ErrorResponse struct {
	Error string `json:"error"`
}

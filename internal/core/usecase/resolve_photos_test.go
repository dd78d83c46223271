package usecase

import (
	"context"
	"errors"
	"testing"

	"import-claim-service/internal/core/domain"
)

func strPtr(s string) *string { return &s }

func TestResolvePhotosPrefersListingPage(t *testing.T) {
	fetcher := &fakePhotoFetcher{
		scrapeImages: []string{"https://img.example.com/a.jpg", "https://img.example.com/b.jpg"},
		detail:       &domain.ListingDetail{Images: []string{"https://img.example.com/api.jpg"}},
	}
	uc := NewResolvePhotosUseCase(fetcher)

	record := &domain.ListingRecord{
		DetailURL:    "https://listings.example.com/42",
		ExternalID:   strPtr("42"),
		ThumbnailURL: "https://img.example.com/thumbs/42.jpg",
	}

	images := uc.Resolve(context.Background(), record)
	if len(images) != 2 || images[0] != "https://img.example.com/a.jpg" {
		t.Errorf("page scrape must win: %v", images)
	}
	if fetcher.detailCalls != 0 {
		t.Errorf("detail API must not be called when the page yields images, got %d calls", fetcher.detailCalls)
	}
}

func TestResolvePhotosUsesPrefetchedImagesWithoutRefetch(t *testing.T) {
	fetcher := &fakePhotoFetcher{
		scrapeErr: errors.New("timeout"),
		detail:    &domain.ListingDetail{Images: []string{"https://img.example.com/refetched.jpg"}},
	}
	uc := NewResolvePhotosUseCase(fetcher)

	// Источник уже забрал детальную запись во время стриминга
	record := &domain.ListingRecord{
		DetailURL:    "https://listings.example.com/42",
		ExternalID:   strPtr("42"),
		SourceImages: []string{"https://img.example.com/prefetched.jpg"},
	}

	images := uc.Resolve(context.Background(), record)
	if len(images) != 1 || images[0] != "https://img.example.com/prefetched.jpg" {
		t.Errorf("prefetched images must be used: %v", images)
	}
	if fetcher.detailCalls != 0 {
		t.Errorf("detail API must not be called again when images were prefetched, got %d calls", fetcher.detailCalls)
	}
}

func TestResolvePhotosFallsBackToDetailAPI(t *testing.T) {
	fetcher := &fakePhotoFetcher{
		scrapeErr: errors.New("timeout"),
		detail:    &domain.ListingDetail{Images: []string{"https://img.example.com/api.jpg"}},
	}
	uc := NewResolvePhotosUseCase(fetcher)

	record := &domain.ListingRecord{
		DetailURL:  "https://listings.example.com/42",
		ExternalID: strPtr("42"),
	}

	images := uc.Resolve(context.Background(), record)
	if len(images) != 1 || images[0] != "https://img.example.com/api.jpg" {
		t.Errorf("detail API must fill the gap after a failed scrape: %v", images)
	}
}

func TestResolvePhotosFallsBackToThumbnail(t *testing.T) {
	fetcher := &fakePhotoFetcher{
		scrapeErr: errors.New("timeout"),
		detailErr: errors.New("404"),
	}
	uc := NewResolvePhotosUseCase(fetcher)

	record := &domain.ListingRecord{
		DetailURL:    "https://listings.example.com/42",
		ExternalID:   strPtr("42"),
		ThumbnailURL: "https://img.example.com/thumbs/42_small.jpg",
	}

	images := uc.Resolve(context.Background(), record)
	if len(images) != 1 || images[0] != "https://img.example.com/gallery/42_large.jpg" {
		t.Errorf("thumbnail must be upgraded: %v", images)
	}
}

func TestResolvePhotosEmptyChainIsNotAnError(t *testing.T) {
	uc := NewResolvePhotosUseCase(&fakePhotoFetcher{})

	images := uc.Resolve(context.Background(), &domain.ListingRecord{})
	if len(images) != 0 {
		t.Errorf("record without hints must get no images, got %v", images)
	}
}

func TestResolvePhotosSkipsStepsWithoutInputs(t *testing.T) {
	fetcher := &fakePhotoFetcher{
		detail: &domain.ListingDetail{Images: []string{"https://img.example.com/api.jpg"}},
	}
	uc := NewResolvePhotosUseCase(fetcher)

	// Нет detail URL - скрейп не пробуется вовсе.
	record := &domain.ListingRecord{ExternalID: strPtr("42")}
	images := uc.Resolve(context.Background(), record)

	if fetcher.scrapeCalls != 0 {
		t.Errorf("scrape must be skipped without a detail URL, got %d calls", fetcher.scrapeCalls)
	}
	if len(images) != 1 {
		t.Errorf("detail API images expected, got %v", images)
	}
}

func TestUpgradeThumbnailURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://img.example.com/thumbs/42.jpg", "https://img.example.com/gallery/42.jpg"},
		{"https://img.example.com/42_small.jpg", "https://img.example.com/42_large.jpg"},
		{"https://img.example.com/42_thumb.png", "https://img.example.com/42_full.png"},
		{"https://img.example.com/thumbs/42_small.jpg", "https://img.example.com/gallery/42_large.jpg"},
		{"https://img.example.com/photos/42.jpg", "https://img.example.com/photos/42.jpg"},
	}

	for _, tt := range tests {
		if got := UpgradeThumbnailURL(tt.in); got != tt.want {
			t.Errorf("UpgradeThumbnailURL(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}

func TestSearchExternalMarksAlreadyImported(t *testing.T) {
	properties := newFakePropertyStorage()
	properties.byExternal[domain.SourceExternalAPI+"/ext-1"] = true

	source := &fakeSearchSource{
		result: &domain.SearchResult{
			Candidates: []domain.ListingCandidate{
				{ExternalID: "ext-1", Title: "Imported before"},
				{ExternalID: "ext-2", Title: "New listing"},
			},
			Total: 2,
			Page:  1,
		},
	}

	uc := NewSearchExternalUseCase(source, properties)
	result, err := uc.Execute(context.Background(), domain.SearchCriteria{Location: "Springfield", Page: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Candidates[0].AlreadyImported {
		t.Error("ext-1 must be marked as already imported")
	}
	if result.Candidates[1].AlreadyImported {
		t.Error("ext-2 must not be marked")
	}
}

func TestSearchExternalFailureIsFatal(t *testing.T) {
	source := &fakeSearchSource{err: errors.New("upstream 503")}
	uc := NewSearchExternalUseCase(source, newFakePropertyStorage())

	if _, err := uc.Execute(context.Background(), domain.SearchCriteria{Location: "Springfield"}); err == nil {
		t.Fatal("search failure must fail the operation")
	}
}

type fakeSearchSource struct {
	result *domain.SearchResult
	err    error
}

func (f *fakeSearchSource) Search(ctx context.Context, criteria domain.SearchCriteria) (*domain.SearchResult, error) {
	return f.result, f.err
}

func (f *fakeSearchSource) FetchListingDetail(ctx context.Context, externalID string) (*domain.ListingDetail, error) {
	return nil, nil
}

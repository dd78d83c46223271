package usecase

import (
	"context"
	"sync"
	"time"

	"import-claim-service/internal/core/domain"
	"import-claim-service/internal/core/port"

	"github.com/google/uuid"
)

// fakeBatchStorage - потокобезопасное хранилище батчей в памяти.
// Если привязано хранилище объектов, продление и удаление батча
// затрагивают его объекты так же, как SQL-адаптер: только незабранные.
type fakeBatchStorage struct {
	mu      sync.Mutex
	batches map[uuid.UUID]*domain.ImportBatch

	properties *fakePropertyStorage

	createErr   error
	finalizeErr error
}

func newFakeBatchStorage() *fakeBatchStorage {
	return &fakeBatchStorage{batches: make(map[uuid.UUID]*domain.ImportBatch)}
}

func (f *fakeBatchStorage) CreateBatch(ctx context.Context, batch *domain.ImportBatch) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *batch
	f.batches[batch.ID] = &copied
	return nil
}

func (f *fakeBatchStorage) FinalizeBatch(ctx context.Context, batchID uuid.UUID, total, imported, failed int, rowErrors []domain.RowError) error {
	if f.finalizeErr != nil {
		return f.finalizeErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	batch, ok := f.batches[batchID]
	if !ok {
		return domain.ErrBatchNotFound
	}
	batch.TotalRecords = total
	batch.ImportedCount = imported
	batch.FailedCount = failed
	batch.RowErrors = rowErrors
	return nil
}

func (f *fakeBatchStorage) GetBatch(ctx context.Context, batchID uuid.UUID) (*domain.ImportBatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	batch, ok := f.batches[batchID]
	if !ok {
		return nil, domain.ErrBatchNotFound
	}
	copied := *batch
	return &copied, nil
}

func (f *fakeBatchStorage) ExtendExpiration(ctx context.Context, batchID uuid.UUID, days int) (*domain.ImportBatch, error) {
	f.mu.Lock()
	batch, ok := f.batches[batchID]
	if !ok {
		f.mu.Unlock()
		return nil, domain.ErrBatchNotFound
	}
	batch.ExpiresAt = batch.ExpiresAt.AddDate(0, 0, days)
	copied := *batch
	f.mu.Unlock()

	if f.properties != nil {
		f.properties.extendUnclaimed(batchID, days)
	}
	return &copied, nil
}

func (f *fakeBatchStorage) DeleteBatch(ctx context.Context, batchID uuid.UUID) (int, error) {
	f.mu.Lock()
	if _, ok := f.batches[batchID]; !ok {
		f.mu.Unlock()
		return 0, domain.ErrBatchNotFound
	}
	delete(f.batches, batchID)
	f.mu.Unlock()

	removed := 0
	if f.properties != nil {
		removed = f.properties.deleteUnclaimed(batchID)
	}
	return removed, nil
}

// fakePropertyStorage имитирует условный UPDATE claim'а: проверка
// claimed_at и его запись идут под одним мьютексом, как в БД.
type fakePropertyStorage struct {
	mu         sync.Mutex
	properties map[uuid.UUID]*domain.ImportedProperty
	byToken    map[string]uuid.UUID
	byExternal map[string]bool

	saveErr error
}

func newFakePropertyStorage() *fakePropertyStorage {
	return &fakePropertyStorage{
		properties: make(map[uuid.UUID]*domain.ImportedProperty),
		byToken:    make(map[string]uuid.UUID),
		byExternal: make(map[string]bool),
	}
}

func (f *fakePropertyStorage) put(p *domain.ImportedProperty) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *p
	f.properties[p.ID] = &copied
	f.byToken[p.ClaimToken] = p.ID
	if p.ExternalID != nil {
		f.byExternal[p.ImportSource+"/"+*p.ExternalID] = true
	}
}

func (f *fakePropertyStorage) ExternalIDExists(ctx context.Context, importSource, externalID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byExternal[importSource+"/"+externalID], nil
}

func (f *fakePropertyStorage) SaveProperty(ctx context.Context, property *domain.ImportedProperty) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.put(property)
	return nil
}

func (f *fakePropertyStorage) FindByClaimToken(ctx context.Context, token string) (*domain.ImportedProperty, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.byToken[token]
	if !ok {
		return nil, domain.ErrClaimNotFound
	}
	copied := *f.properties[id]
	return &copied, nil
}

func (f *fakePropertyStorage) ClaimProperty(ctx context.Context, token string, claimantID string, now time.Time) (*domain.ImportedProperty, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.byToken[token]
	if !ok {
		return nil, domain.ErrClaimNotFound
	}
	property := f.properties[id]
	if property.ClaimedAt != nil {
		return nil, domain.ErrAlreadyClaimed
	}
	claimedAt := now
	property.ClaimedAt = &claimedAt
	property.ClaimedBy = &claimantID
	property.IsActive = true
	property.ForSale = true
	copied := *property
	return &copied, nil
}

// extendUnclaimed сдвигает индивидуальные дедлайны только незабранных
// объектов батча, как SQL с предикатом claimed_at IS NULL.
func (f *fakePropertyStorage) extendUnclaimed(batchID uuid.UUID, days int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.properties {
		if p.ImportBatchID == batchID && p.ClaimedAt == nil {
			p.ClaimExpiresAt = p.ClaimExpiresAt.AddDate(0, 0, days)
		}
	}
}

// deleteUnclaimed удаляет незабранные объекты батча и возвращает их число.
// Забранные объекты переживают удаление батча.
func (f *fakePropertyStorage) deleteUnclaimed(batchID uuid.UUID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	removed := 0
	for id, p := range f.properties {
		if p.ImportBatchID == batchID && p.ClaimedAt == nil {
			delete(f.byToken, p.ClaimToken)
			delete(f.properties, id)
			removed++
		}
	}
	return removed
}

func (f *fakePropertyStorage) ListByBatch(ctx context.Context, batchID uuid.UUID) ([]domain.ImportedProperty, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.ImportedProperty
	for _, p := range f.properties {
		if p.ImportBatchID == batchID {
			out = append(out, *p)
		}
	}
	return out, nil
}

// fakePhotoFetcher - скрипт ответов для цепочки фолбэков резолвера.
type fakePhotoFetcher struct {
	scrapeImages []string
	scrapeErr    error
	scrapeCalls  int

	detail      *domain.ListingDetail
	detailErr   error
	detailCalls int
}

func (f *fakePhotoFetcher) ScrapeListingImages(ctx context.Context, detailURL string) ([]string, error) {
	f.scrapeCalls++
	return f.scrapeImages, f.scrapeErr
}

func (f *fakePhotoFetcher) FetchListingDetail(ctx context.Context, externalID string) (*domain.ListingDetail, error) {
	f.detailCalls++
	return f.detail, f.detailErr
}

// stubPhotos - фиксированный ответ резолвера для тестов импорта.
type stubPhotos struct {
	images []string
}

func (s *stubPhotos) Resolve(ctx context.Context, record *domain.ListingRecord) []string {
	return s.images
}

type fakeGeocoder struct {
	point *domain.GeoPoint
	err   error
	calls int
}

func (f *fakeGeocoder) Geocode(ctx context.Context, address, city, state, zip string) (*domain.GeoPoint, error) {
	f.calls++
	return f.point, f.err
}

// fakeReporter копит опубликованные события.
type fakeReporter struct {
	mu        sync.Mutex
	completed []*domain.ImportBatch
	claimed   []*domain.ImportedProperty
	err       error
}

func (f *fakeReporter) ReportBatchCompleted(ctx context.Context, batch *domain.ImportBatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.completed = append(f.completed, batch)
	return nil
}

func (f *fakeReporter) ReportPropertyClaimed(ctx context.Context, property *domain.ImportedProperty) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.claimed = append(f.claimed, property)
	return nil
}

// sliceSource отдает заранее подготовленные записи, имитируя адаптер источника.
type sliceSource struct {
	meta    port.SourceMetadata
	records []domain.RawListing
	rowErrs map[int]*domain.RowError
}

func (s *sliceSource) Metadata() port.SourceMetadata {
	return s.meta
}

func (s *sliceSource) StreamRecords(ctx context.Context, yield func(rec domain.RawListing, rowErr *domain.RowError) bool) error {
	for _, rec := range s.records {
		if rowErr, ok := s.rowErrs[rec.Row]; ok {
			if !yield(domain.RawListing{}, rowErr) {
				return nil
			}
			continue
		}
		if !yield(rec, nil) {
			return nil
		}
	}
	return nil
}

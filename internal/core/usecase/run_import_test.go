package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"import-claim-service/internal/adapters/spreadsheet"
	"import-claim-service/internal/constants"
	"import-claim-service/internal/core/domain"
	"import-claim-service/internal/core/normalizer"
	"import-claim-service/internal/core/port"
)

func spreadsheetRecord(row int, overrides map[string]string) domain.RawListing {
	fields := map[string]string{
		constants.FieldAddress: "123 Main St",
		constants.FieldCity:    "Springfield",
		constants.FieldPrice:   "250000",
	}
	for k, v := range overrides {
		fields[k] = v
	}
	return domain.RawListing{
		SourceKind: domain.SourceSpreadsheet,
		Row:        row,
		Fields:     fields,
	}
}

func newImportUC(batches *fakeBatchStorage, properties *fakePropertyStorage, geocoder port.GeocoderPort, reporter *fakeReporter) *RunImportUseCase {
	var reporterPort port.EventReporterPort
	if reporter != nil {
		reporterPort = reporter
	}
	return NewRunImportUseCase(batches, properties, &stubPhotos{}, geocoder, reporterPort, normalizer.Options{})
}

func testMeta() domain.BatchMetadata {
	return domain.BatchMetadata{
		CreatedBy: "admin",
		ExpiresAt: time.Now().AddDate(0, 0, 30),
	}
}

func TestRunImportCountersInvariant(t *testing.T) {
	batches := newFakeBatchStorage()
	properties := newFakePropertyStorage()
	reporter := &fakeReporter{}
	uc := newImportUC(batches, properties, nil, reporter)

	source := &sliceSource{
		meta: port.SourceMetadata{Kind: domain.SourceSpreadsheet, Name: "listings.csv"},
		records: []domain.RawListing{
			spreadsheetRecord(1, nil),
			spreadsheetRecord(2, map[string]string{constants.FieldPrice: "not-a-price"}),
			spreadsheetRecord(3, map[string]string{constants.FieldAddress: "456 Oak Ave"}),
		},
	}

	batch, err := uc.Execute(context.Background(), source, testMeta())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if batch.TotalRecords != 3 || batch.ImportedCount != 2 || batch.FailedCount != 1 {
		t.Errorf("counters: total=%d imported=%d failed=%d, want 3/2/1",
			batch.TotalRecords, batch.ImportedCount, batch.FailedCount)
	}
	if batch.ImportedCount+batch.FailedCount != batch.TotalRecords {
		t.Errorf("imported + failed must equal total: %d + %d != %d",
			batch.ImportedCount, batch.FailedCount, batch.TotalRecords)
	}
	if len(batch.RowErrors) != 1 || batch.RowErrors[0].Row != 2 {
		t.Errorf("row errors: got %+v, want one error for row 2", batch.RowErrors)
	}

	saved, err := properties.ListByBatch(context.Background(), batch.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(saved) != 2 {
		t.Fatalf("persisted properties: got %d, want 2", len(saved))
	}
	for _, p := range saved {
		if p.ClaimToken == "" {
			t.Error("saved property must carry a claim token")
		}
		if p.IsActive || p.ForSale {
			t.Error("imported property must stay inactive until claimed")
		}
		if !p.ClaimExpiresAt.Equal(batch.ExpiresAt) {
			t.Errorf("claim deadline %v must match batch deadline %v", p.ClaimExpiresAt, batch.ExpiresAt)
		}
	}

	stored, err := batches.GetBatch(context.Background(), batch.ID)
	if err != nil {
		t.Fatalf("finalized batch must be readable: %v", err)
	}
	if stored.ImportedCount != 2 {
		t.Errorf("finalized imported count: got %d, want 2", stored.ImportedCount)
	}

	if len(reporter.completed) != 1 {
		t.Errorf("batch completion events: got %d, want 1", len(reporter.completed))
	}
}

func TestRunImportSourceRowErrorsPassThrough(t *testing.T) {
	batches := newFakeBatchStorage()
	properties := newFakePropertyStorage()
	uc := newImportUC(batches, properties, nil, nil)

	source := &sliceSource{
		meta: port.SourceMetadata{Kind: domain.SourceSpreadsheet, Name: "listings.csv"},
		records: []domain.RawListing{
			spreadsheetRecord(1, nil),
			{Row: 2},
			spreadsheetRecord(3, nil),
		},
		rowErrs: map[int]*domain.RowError{
			2: {Row: 2, Message: "expected 16 columns, got 3"},
		},
	}

	batch, err := uc.Execute(context.Background(), source, testMeta())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if batch.TotalRecords != 3 || batch.ImportedCount != 2 || batch.FailedCount != 1 {
		t.Errorf("counters: total=%d imported=%d failed=%d, want 3/2/1",
			batch.TotalRecords, batch.ImportedCount, batch.FailedCount)
	}
}

func TestRunImportDeduplicatesBeforeSaving(t *testing.T) {
	batches := newFakeBatchStorage()
	properties := newFakePropertyStorage()
	uc := newImportUC(batches, properties, nil, nil)

	first := &sliceSource{
		meta: port.SourceMetadata{Kind: domain.SourceSpreadsheet, Name: "first.csv"},
		records: []domain.RawListing{
			spreadsheetRecord(1, map[string]string{constants.FieldExternalID: "ext-1"}),
		},
	}
	if _, err := uc.Execute(context.Background(), first, testMeta()); err != nil {
		t.Fatalf("first import: %v", err)
	}

	second := &sliceSource{
		meta: port.SourceMetadata{Kind: domain.SourceSpreadsheet, Name: "second.csv"},
		records: []domain.RawListing{
			spreadsheetRecord(1, map[string]string{constants.FieldExternalID: "ext-1"}),
			spreadsheetRecord(2, map[string]string{constants.FieldExternalID: "ext-2"}),
		},
	}
	batch, err := uc.Execute(context.Background(), second, testMeta())
	if err != nil {
		t.Fatalf("second import: %v", err)
	}

	if batch.ImportedCount != 1 || batch.FailedCount != 1 {
		t.Errorf("duplicate must become a row error: imported=%d failed=%d, want 1/1",
			batch.ImportedCount, batch.FailedCount)
	}
	if len(batch.RowErrors) != 1 || !strings.Contains(batch.RowErrors[0].Message, domain.ErrAlreadyImported.Error()) {
		t.Errorf("row error must mention the duplicate: %+v", batch.RowErrors)
	}
}

func TestRunImportGeocodeFailureIsNotFatal(t *testing.T) {
	batches := newFakeBatchStorage()
	properties := newFakePropertyStorage()
	geocoder := &fakeGeocoder{err: errors.New("timeout")}
	uc := newImportUC(batches, properties, geocoder, nil)

	source := &sliceSource{
		meta:    port.SourceMetadata{Kind: domain.SourceSpreadsheet, Name: "listings.csv"},
		records: []domain.RawListing{spreadsheetRecord(1, nil)},
	}

	batch, err := uc.Execute(context.Background(), source, testMeta())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if batch.ImportedCount != 1 {
		t.Fatalf("record must be imported despite geocoding failure, got imported=%d", batch.ImportedCount)
	}
	if geocoder.calls != 1 {
		t.Errorf("geocoder calls: got %d, want 1", geocoder.calls)
	}

	saved, _ := properties.ListByBatch(context.Background(), batch.ID)
	if len(saved) != 1 || saved[0].Coordinates != nil {
		t.Errorf("property must be saved without coordinates, got %+v", saved)
	}
}

func TestRunImportSkipsGeocodingWhenSourceHasCoordinates(t *testing.T) {
	batches := newFakeBatchStorage()
	properties := newFakePropertyStorage()
	geocoder := &fakeGeocoder{point: &domain.GeoPoint{Latitude: 1, Longitude: 1}}
	uc := newImportUC(batches, properties, geocoder, nil)

	source := &sliceSource{
		meta: port.SourceMetadata{Kind: domain.SourceSpreadsheet, Name: "listings.csv"},
		records: []domain.RawListing{
			spreadsheetRecord(1, map[string]string{
				constants.FieldLatitude:  "42.96",
				constants.FieldLongitude: "-85.66",
			}),
		},
	}

	if _, err := uc.Execute(context.Background(), source, testMeta()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if geocoder.calls != 0 {
		t.Errorf("geocoder must not be called when source has coordinates, got %d calls", geocoder.calls)
	}
}

func TestRunImportSaveFailureBecomesRowError(t *testing.T) {
	batches := newFakeBatchStorage()
	properties := newFakePropertyStorage()
	properties.saveErr = errors.New("connection reset")
	uc := newImportUC(batches, properties, nil, nil)

	source := &sliceSource{
		meta:    port.SourceMetadata{Kind: domain.SourceSpreadsheet, Name: "listings.csv"},
		records: []domain.RawListing{spreadsheetRecord(1, nil)},
	}

	batch, err := uc.Execute(context.Background(), source, testMeta())
	if err != nil {
		t.Fatalf("persistence failure of one row must not fail the batch: %v", err)
	}
	if batch.FailedCount != 1 || batch.ImportedCount != 0 {
		t.Errorf("counters: imported=%d failed=%d, want 0/1", batch.ImportedCount, batch.FailedCount)
	}
}

func TestRunImportCreateBatchFailureIsFatal(t *testing.T) {
	batches := newFakeBatchStorage()
	batches.createErr = errors.New("database down")
	uc := newImportUC(batches, newFakePropertyStorage(), nil, nil)

	source := &sliceSource{
		meta:    port.SourceMetadata{Kind: domain.SourceSpreadsheet, Name: "listings.csv"},
		records: []domain.RawListing{spreadsheetRecord(1, nil)},
	}

	if _, err := uc.Execute(context.Background(), source, testMeta()); err == nil {
		t.Fatal("expected error when the provisional batch cannot be created")
	}
}

func TestRunImportBadHeaderLeavesNoBatchBehind(t *testing.T) {
	csv := "address,bedrooms\n123 Main St,3\n"

	batches := newFakeBatchStorage()
	properties := newFakePropertyStorage()
	uc := newImportUC(batches, properties, nil, nil)

	source := spreadsheet.NewSpreadsheetAdapter(strings.NewReader(csv), "listings.csv")
	batch, err := uc.Execute(context.Background(), source, testMeta())
	if err == nil {
		t.Fatal("expected error for a spreadsheet without required columns")
	}
	if batch != nil {
		t.Errorf("no batch must be returned when the stream never started, got %+v", batch)
	}

	// Ошибка заголовка - ошибка оператора, тип сохраняется через обертки
	var vErr *domain.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, col := range []string{constants.FieldCity, constants.FieldPrice} {
		if !strings.Contains(vErr.Error(), col) {
			t.Errorf("error must name the missing column %q: %v", col, vErr)
		}
	}

	// Предварительная запись батча подчищена
	if len(batches.batches) != 0 {
		t.Errorf("provisional batch must be cleaned up, %d left", len(batches.batches))
	}
}

func TestRunImportEndToEndFromSpreadsheet(t *testing.T) {
	csv := "address,city,price,bedrooms\n" +
		"123 Main St,Springfield,250000,3\n" +
		"456 Oak Ave,Springfield,bad-price,2\n" +
		"789 Pine Rd,Lansing,\"180,000\",4\n"

	batches := newFakeBatchStorage()
	properties := newFakePropertyStorage()
	uc := newImportUC(batches, properties, nil, nil)

	source := spreadsheet.NewSpreadsheetAdapter(strings.NewReader(csv), "listings.csv")
	batch, err := uc.Execute(context.Background(), source, testMeta())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if batch.SourceKind != domain.SourceSpreadsheet || batch.SourceName != "listings.csv" {
		t.Errorf("batch source: %q/%q", batch.SourceKind, batch.SourceName)
	}
	if batch.TotalRecords != 3 || batch.ImportedCount != 2 || batch.FailedCount != 1 {
		t.Errorf("counters: total=%d imported=%d failed=%d, want 3/2/1",
			batch.TotalRecords, batch.ImportedCount, batch.FailedCount)
	}

	saved, _ := properties.ListByBatch(context.Background(), batch.ID)
	prices := map[float64]bool{}
	for _, p := range saved {
		prices[p.Price] = true
	}
	if !prices[250000] || !prices[180000] {
		t.Errorf("expected prices 250000 and 180000 to be imported, got %v", prices)
	}
}

package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"import-claim-service/internal/core/domain"
	"import-claim-service/internal/core/port"

	"github.com/google/uuid"
)

type stubRunImport struct {
	batch *domain.ImportBatch
	err   error
}

func (s *stubRunImport) Execute(ctx context.Context, source port.RecordSourcePort, meta domain.BatchMetadata) (*domain.ImportBatch, error) {
	return s.batch, s.err
}

type stubSearch struct{}

func (s *stubSearch) Execute(ctx context.Context, criteria domain.SearchCriteria) (*domain.SearchResult, error) {
	return &domain.SearchResult{}, nil
}

type noopSource struct{}

func (noopSource) Metadata() port.SourceMetadata { return port.SourceMetadata{} }
func (noopSource) StreamRecords(ctx context.Context, yield func(domain.RawListing, *domain.RowError) bool) error {
	return nil
}

func importHandlerWith(runImport *stubRunImport) *ImportHandler {
	return NewImportHandler(
		runImport,
		&stubSearch{},
		func(reader io.Reader, filename string) port.RecordSourcePort { return noopSource{} },
		func(criteria domain.SearchCriteria, selectedIDs []string) port.RecordSourcePort { return noopSource{} },
		"address,city,price\n",
		30,
	)
}

func multipartUpload(t *testing.T, content string) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "listings.csv")
	if err != nil {
		t.Fatalf("failed to build multipart body: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("failed to write file part: %v", err)
	}
	writer.Close()
	return &body, writer.FormDataContentType()
}

func TestImportSpreadsheetSuccess(t *testing.T) {
	batch := &domain.ImportBatch{
		ID:            uuid.New(),
		SourceKind:    domain.SourceSpreadsheet,
		SourceName:    "listings.csv",
		TotalRecords:  2,
		ImportedCount: 2,
		ExpiresAt:     time.Now().AddDate(0, 0, 30),
		CreatedAt:     time.Now(),
	}
	handler := importHandlerWith(&stubRunImport{batch: batch})

	body, contentType := multipartUpload(t, "address,city,price\n123 Main St,Springfield,250000\n")
	req := httptest.NewRequest(http.MethodPost, "/imports/spreadsheet", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ImportSpreadsheet(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d, want 201", rec.Code)
	}

	var resp BatchResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if resp.ImportedCount != 2 {
		t.Errorf("imported_count: got %d, want 2", resp.ImportedCount)
	}
}

func TestImportSpreadsheetBadHeaderIsBadRequest(t *testing.T) {
	// Ошибка заголовка приходит из юзкейса обернутой, тип сохраняется
	headerErr := fmt.Errorf("import aborted before any records: %w",
		fmt.Errorf("spreadsheet adapter: %w",
			domain.NewValidationError("header", "missing required columns: city, price")))
	handler := importHandlerWith(&stubRunImport{err: headerErr})

	body, contentType := multipartUpload(t, "address,bedrooms\n123 Main St,3\n")
	req := httptest.NewRequest(http.MethodPost, "/imports/spreadsheet", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ImportSpreadsheet(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}

	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	for _, col := range []string{"city", "price"} {
		if !bytes.Contains([]byte(resp.Error), []byte(col)) {
			t.Errorf("error must name the missing column %q: %q", col, resp.Error)
		}
	}
}

func TestImportSpreadsheetRequiresFilePart(t *testing.T) {
	handler := importHandlerWith(&stubRunImport{})

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	writer.WriteField("notes", "no file here")
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/imports/spreadsheet", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	handler.ImportSpreadsheet(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}

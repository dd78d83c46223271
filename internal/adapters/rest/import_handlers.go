package rest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"import-claim-service/internal/contextkeys"
	"import-claim-service/internal/core/domain"
	"import-claim-service/internal/core/port"
	"import-claim-service/internal/core/port/usecases_port"
)

const maxUploadSize = 32 << 20 // 32 MB

// Фабрики источников. REST-слой не знает, какие адаптеры стоят за ними,
// он лишь собирает источник из данных запроса.
type SpreadsheetSourceFactory func(reader io.Reader, filename string) port.RecordSourcePort
type ExternalSourceFactory func(criteria domain.SearchCriteria, selectedIDs []string) port.RecordSourcePort

// ImportHandler обрабатывает запуск импортов и внешний поиск.
type ImportHandler struct {
	runImportUC usecases_port.RunImportPort
	searchUC    usecases_port.SearchExternalPort

	newSpreadsheetSource SpreadsheetSourceFactory
	newExternalSource    ExternalSourceFactory

	csvTemplate       string
	defaultExpiryDays int
}

func NewImportHandler(
	runImportUC usecases_port.RunImportPort,
	searchUC usecases_port.SearchExternalPort,
	newSpreadsheetSource SpreadsheetSourceFactory,
	newExternalSource ExternalSourceFactory,
	csvTemplate string,
	defaultExpiryDays int,
) *ImportHandler {
	return &ImportHandler{
		runImportUC:          runImportUC,
		searchUC:             searchUC,
		newSpreadsheetSource: newSpreadsheetSource,
		newExternalSource:    newExternalSource,
		csvTemplate:          csvTemplate,
		defaultExpiryDays:    defaultExpiryDays,
	}
}

// ImportSpreadsheet обрабатывает POST /api/v1/imports/spreadsheet
func (h *ImportHandler) ImportSpreadsheet(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "ImportSpreadsheet"})

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		logger.Warn("Failed to parse multipart form", port.Fields{"error": err.Error()})
		WriteJSONError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		logger.Warn("Upload is missing the file part", port.Fields{"error": err.Error()})
		WriteJSONError(w, http.StatusBadRequest, "Missing 'file' part in upload")
		return
	}
	defer file.Close()

	meta := h.batchMetadata(r.FormValue("notes"), r.FormValue("created_by"), r.FormValue("expires_in_days"))

	handlerLogger := logger.WithFields(port.Fields{"filename": header.Filename})
	handlerLogger.Info("Processing spreadsheet import", nil)

	source := h.newSpreadsheetSource(file, header.Filename)
	batch, err := h.runImportUC.Execute(r.Context(), source, meta)
	if err != nil {
		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) {
			WriteJSONError(w, http.StatusBadRequest, validationErr.Error())
			return
		}
		handlerLogger.Error("Spreadsheet import failed", err, nil)
		WriteJSONError(w, http.StatusInternalServerError, "Import failed")
		return
	}

	handlerLogger.Info("Spreadsheet import finished", port.Fields{
		"batch_id": batch.ID.String(),
		"imported": batch.ImportedCount,
		"failed":   batch.FailedCount,
	})
	RespondWithJSON(w, http.StatusCreated, toBatchResponse(batch))
}

// DownloadTemplate обрабатывает GET /api/v1/imports/template
func (h *ImportHandler) DownloadTemplate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="listing_import_template.csv"`)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(h.csvTemplate))
}

// SearchExternal обрабатывает GET /api/v1/external/search
func (h *ImportHandler) SearchExternal(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "SearchExternal"})

	criteria, err := searchCriteriaFromQuery(r)
	if err != nil {
		logger.Warn("Invalid search query", port.Fields{"error": err.Error()})
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	handlerLogger := logger.WithFields(port.Fields{
		"location": criteria.Location,
		"page":     criteria.Page,
	})
	handlerLogger.Info("Processing external search", nil)

	result, err := h.searchUC.Execute(r.Context(), criteria)
	if err != nil {
		handlerLogger.Error("External search failed", err, nil)
		WriteJSONError(w, http.StatusBadGateway, "External marketplace search failed")
		return
	}

	handlerLogger.Info("External search finished", port.Fields{"candidates": len(result.Candidates)})
	RespondWithJSON(w, http.StatusOK, toSearchResponse(result))
}

// ImportExternal обрабатывает POST /api/v1/imports/external
func (h *ImportHandler) ImportExternal(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "ImportExternal"})

	var req ExternalImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("Failed to decode external import request", port.Fields{"error": err.Error()})
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Location == "" {
		WriteJSONError(w, http.StatusBadRequest, "Field 'location' is required")
		return
	}

	criteria := domain.SearchCriteria{
		Location:    req.Location,
		ListingType: req.ListingType,
		Page:        req.Page,
		MinPrice:    req.MinPrice,
		MaxPrice:    req.MaxPrice,
	}
	if criteria.Page <= 0 {
		criteria.Page = 1
	}

	expiresInDays := ""
	if req.ExpiresInDays > 0 {
		expiresInDays = strconv.Itoa(req.ExpiresInDays)
	}
	meta := h.batchMetadata(req.Notes, req.CreatedBy, expiresInDays)

	handlerLogger := logger.WithFields(port.Fields{
		"location":     req.Location,
		"selected_ids": len(req.SelectedIDs),
	})
	handlerLogger.Info("Processing external import", nil)

	source := h.newExternalSource(criteria, req.SelectedIDs)
	batch, err := h.runImportUC.Execute(r.Context(), source, meta)
	if err != nil {
		handlerLogger.Error("External import failed", err, nil)
		WriteJSONError(w, http.StatusInternalServerError, "Import failed")
		return
	}

	handlerLogger.Info("External import finished", port.Fields{
		"batch_id": batch.ID.String(),
		"imported": batch.ImportedCount,
		"failed":   batch.FailedCount,
	})
	RespondWithJSON(w, http.StatusCreated, toBatchResponse(batch))
}

// batchMetadata собирает параметры батча из запроса, подставляя
// дефолтный срок жизни claim-токенов, если оператор его не указал.
func (h *ImportHandler) batchMetadata(notes, createdBy, expiresInDays string) domain.BatchMetadata {
	days, err := strconv.Atoi(expiresInDays)
	if err != nil || days <= 0 {
		days = h.defaultExpiryDays
	}
	return domain.BatchMetadata{
		Notes:     notes,
		CreatedBy: createdBy,
		ExpiresAt: time.Now().AddDate(0, 0, days),
	}
}

func searchCriteriaFromQuery(r *http.Request) (domain.SearchCriteria, error) {
	query := r.URL.Query()

	criteria := domain.SearchCriteria{
		Location:    query.Get("location"),
		ListingType: query.Get("listing_type"),
	}
	if criteria.Location == "" {
		return criteria, errors.New("query parameter 'location' is required")
	}

	criteria.Page, _ = strconv.Atoi(query.Get("page"))
	if criteria.Page <= 0 {
		criteria.Page = 1
	}

	if raw := query.Get("min_price"); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return criteria, errors.New("query parameter 'min_price' must be a number")
		}
		criteria.MinPrice = &value
	}
	if raw := query.Get("max_price"); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return criteria, errors.New("query parameter 'max_price' must be a number")
		}
		criteria.MaxPrice = &value
	}

	return criteria, nil
}

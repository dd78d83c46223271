package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"import-claim-service/internal/contextkeys"
	"import-claim-service/internal/core/domain"
	"import-claim-service/internal/core/port"
	"import-claim-service/internal/core/port/usecases_port"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// BatchHandler обрабатывает операции над батчами импорта.
type BatchHandler struct {
	getUC    usecases_port.GetBatchPort
	listUC   usecases_port.ListBatchPropertiesPort
	extendUC usecases_port.ExtendExpirationPort
	deleteUC usecases_port.DeleteBatchPort
}

func NewBatchHandler(
	getUC usecases_port.GetBatchPort,
	listUC usecases_port.ListBatchPropertiesPort,
	extendUC usecases_port.ExtendExpirationPort,
	deleteUC usecases_port.DeleteBatchPort,
) *BatchHandler {
	return &BatchHandler{
		getUC:    getUC,
		listUC:   listUC,
		extendUC: extendUC,
		deleteUC: deleteUC,
	}
}

// GetBatch обрабатывает GET /api/v1/batches/{batchID}
func (h *BatchHandler) GetBatch(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "GetBatch"})

	batchID, ok := batchIDFromURL(w, r, logger)
	if !ok {
		return
	}

	batch, err := h.getUC.Execute(r.Context(), batchID)
	if err != nil {
		if errors.Is(err, domain.ErrBatchNotFound) {
			WriteJSONError(w, http.StatusNotFound, "Import batch not found")
			return
		}
		logger.Error("Get batch use case failed", err, nil)
		WriteJSONError(w, http.StatusInternalServerError, "Failed to retrieve batch")
		return
	}

	RespondWithJSON(w, http.StatusOK, toBatchResponse(batch))
}

// ListBatchProperties обрабатывает GET /api/v1/batches/{batchID}/properties
func (h *BatchHandler) ListBatchProperties(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "ListBatchProperties"})

	batchID, ok := batchIDFromURL(w, r, logger)
	if !ok {
		return
	}

	properties, err := h.listUC.Execute(r.Context(), batchID)
	if err != nil {
		if errors.Is(err, domain.ErrBatchNotFound) {
			WriteJSONError(w, http.StatusNotFound, "Import batch not found")
			return
		}
		logger.Error("List batch properties use case failed", err, nil)
		WriteJSONError(w, http.StatusInternalServerError, "Failed to retrieve batch properties")
		return
	}

	now := time.Now()
	response := make([]PropertyResponse, len(properties))
	for i := range properties {
		response[i] = toPropertyResponse(&properties[i], now)
	}
	RespondWithJSON(w, http.StatusOK, response)
}

// ExtendBatch обрабатывает POST /api/v1/batches/{batchID}/extend
func (h *BatchHandler) ExtendBatch(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "ExtendBatch"})

	batchID, ok := batchIDFromURL(w, r, logger)
	if !ok {
		return
	}

	var req ExtendBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("Failed to decode extend request", port.Fields{"error": err.Error()})
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Days <= 0 {
		WriteJSONError(w, http.StatusBadRequest, "Field 'days' must be a positive number")
		return
	}

	handlerLogger := logger.WithFields(port.Fields{"batch_id": batchID.String(), "days": req.Days})
	handlerLogger.Info("Processing batch extension", nil)

	batch, err := h.extendUC.Execute(r.Context(), batchID, req.Days)
	if err != nil {
		if errors.Is(err, domain.ErrBatchNotFound) {
			WriteJSONError(w, http.StatusNotFound, "Import batch not found")
			return
		}
		handlerLogger.Error("Extend batch use case failed", err, nil)
		WriteJSONError(w, http.StatusInternalServerError, "Failed to extend batch")
		return
	}

	handlerLogger.Info("Batch extended", port.Fields{"new_expires_at": batch.ExpiresAt})
	RespondWithJSON(w, http.StatusOK, toBatchResponse(batch))
}

// DeleteBatch обрабатывает DELETE /api/v1/batches/{batchID}
func (h *BatchHandler) DeleteBatch(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "DeleteBatch"})

	batchID, ok := batchIDFromURL(w, r, logger)
	if !ok {
		return
	}

	handlerLogger := logger.WithFields(port.Fields{"batch_id": batchID.String()})
	handlerLogger.Info("Processing batch deletion", nil)

	removed, err := h.deleteUC.Execute(r.Context(), batchID)
	if err != nil {
		if errors.Is(err, domain.ErrBatchNotFound) {
			WriteJSONError(w, http.StatusNotFound, "Import batch not found")
			return
		}
		handlerLogger.Error("Delete batch use case failed", err, nil)
		WriteJSONError(w, http.StatusInternalServerError, "Failed to delete batch")
		return
	}

	handlerLogger.Info("Batch deleted", port.Fields{"removed_unclaimed": removed})
	RespondWithJSON(w, http.StatusOK, DeleteBatchResponse{RemovedUnclaimed: removed})
}

func batchIDFromURL(w http.ResponseWriter, r *http.Request, logger port.LoggerPort) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "batchID")
	batchID, err := uuid.Parse(raw)
	if err != nil {
		logger.Warn("Invalid batchID in URL", port.Fields{"provided_id": raw})
		WriteJSONError(w, http.StatusBadRequest, "Invalid batchID in URL")
		return uuid.Nil, false
	}
	return batchID, true
}

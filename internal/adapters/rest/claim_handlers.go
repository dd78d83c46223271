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
)

// ClaimHandler обрабатывает жизненный цикл claim-ссылок.
type ClaimHandler struct {
	lookupUC usecases_port.LookupClaimPort
	claimUC  usecases_port.ClaimPropertyPort
}

func NewClaimHandler(lookupUC usecases_port.LookupClaimPort, claimUC usecases_port.ClaimPropertyPort) *ClaimHandler {
	return &ClaimHandler{
		lookupUC: lookupUC,
		claimUC:  claimUC,
	}
}

// LookupClaim обрабатывает GET /api/v1/claim/{token}.
// Просмотр не меняет состояние: страница claim-ссылки показывает объект
// и его текущее состояние, включая expired и already claimed.
func (h *ClaimHandler) LookupClaim(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "LookupClaim"})

	token := chi.URLParam(r, "token")

	property, err := h.lookupUC.Execute(r.Context(), token)
	if err != nil {
		if errors.Is(err, domain.ErrClaimNotFound) {
			WriteJSONError(w, http.StatusNotFound, "Claim token not found")
			return
		}
		logger.Error("Claim lookup failed", err, nil)
		WriteJSONError(w, http.StatusInternalServerError, "Failed to look up claim")
		return
	}

	RespondWithJSON(w, http.StatusOK, toPropertyResponse(property, time.Now()))
}

// ClaimProperty обрабатывает POST /api/v1/claim/{token}.
// Успех возможен ровно один раз на токен; проигравший гонку запрос
// получает 409 независимо от того, на миллисекунду или на день он опоздал.
func (h *ClaimHandler) ClaimProperty(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "ClaimProperty"})

	token := chi.URLParam(r, "token")

	var req ClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("Failed to decode claim request", port.Fields{"error": err.Error()})
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ClaimantID == "" {
		WriteJSONError(w, http.StatusBadRequest, "Field 'claimant_id' is required")
		return
	}

	handlerLogger := logger.WithFields(port.Fields{"claimant_id": req.ClaimantID})
	handlerLogger.Info("Processing claim request", nil)

	property, err := h.claimUC.Execute(r.Context(), token, req.ClaimantID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrClaimNotFound):
			WriteJSONError(w, http.StatusNotFound, "Claim token not found")
		case errors.Is(err, domain.ErrClaimExpired):
			WriteJSONError(w, http.StatusGone, "Claim token expired")
		case errors.Is(err, domain.ErrAlreadyClaimed):
			WriteJSONError(w, http.StatusConflict, "Property already claimed")
		default:
			handlerLogger.Error("Claim use case failed", err, nil)
			WriteJSONError(w, http.StatusInternalServerError, "Failed to claim property")
		}
		return
	}

	handlerLogger.Info("Property claimed", port.Fields{"property_id": property.ID.String()})
	RespondWithJSON(w, http.StatusOK, toPropertyResponse(property, time.Now()))
}

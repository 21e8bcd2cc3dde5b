package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dayli-app/api/internal/common"
)

func decodeJSON(r *http.Request, dest any) error {
	if r.Body == nil {
		return errors.New("request body required")
	}
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dest)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]any{"error": msg})
}

// respondServiceError maps service-layer sentinels onto HTTP statuses.
// Messages are fixed strings; the underlying error never reaches the client.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrorUnauthorized):
		respondError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, common.ErrorValidation):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrorConflict):
		respondError(w, http.StatusConflict, "already exists")
	case errors.Is(err, common.ErrorNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, common.ErrorSignatureInvalid):
		respondError(w, http.StatusBadRequest, "invalid signature")
	case errors.Is(err, common.ErrorUnhandledEventType):
		respondError(w, http.StatusBadRequest, "unhandled event type")
	case errors.Is(err, common.ErrorSubscriptionNeeded):
		respondError(w, http.StatusPaymentRequired, "subscription required")
	case errors.Is(err, common.ErrorPaymentProviderCall):
		respondError(w, http.StatusBadGateway, "payment provider unavailable")
	default:
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/zatekoja/carefinder/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/carefinder/pkg/errors"
)

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// respondWithAppError maps an error onto a status code. Only validation and
// rate limit messages are shown to callers as is.
func respondWithAppError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperrors.As(err)
	if !ok {
		observability.LoggerFromContext(r.Context()).Error().Err(err).Msg("unhandled error")
		respondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	switch appErr.Type {
	case apperrors.ErrorTypeRateLimited:
		w.Header().Set("Retry-After", strconv.Itoa(apperrors.WaitSeconds(appErr.RetryAfter)))
		respondWithError(w, http.StatusTooManyRequests, appErr.Message)
	case apperrors.ErrorTypeValidation:
		respondWithError(w, http.StatusBadRequest, appErr.Message)
	case apperrors.ErrorTypeNotFound:
		respondWithError(w, http.StatusNotFound, appErr.Message)
	case apperrors.ErrorTypeExternal:
		observability.LoggerFromContext(r.Context()).Error().Err(err).Msg("upstream failure")
		respondWithError(w, http.StatusBadGateway, "place search is temporarily unavailable")
	case apperrors.ErrorTypeConfiguration:
		observability.LoggerFromContext(r.Context()).Error().Err(err).Msg("service misconfigured")
		respondWithError(w, http.StatusInternalServerError, "service is not configured")
	default:
		observability.LoggerFromContext(r.Context()).Error().Err(err).Msg("internal error")
		respondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/vaultlabs-io/defi-vault-engine/internal/types"
)

type errorResponse struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

// writeError maps engine errors onto HTTP responses, preserving the
// taxonomy code so callers can branch without parsing messages.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var engineErr *types.Error
	if errors.As(err, &engineErr) {
		if engineErr.ErrorCode == types.InvariantViolation {
			// Invariant violations indicate a bug; keep the full chain in
			// the logs, not in the response body.
			log.Ctx(r.Context()).Error().Err(err).Msg("invariant violation surfaced to API")
			writeJSON(w, engineErr.StatusCode, errorResponse{
				ErrorCode: engineErr.ErrorCode.String(),
				Message:   "internal accounting inconsistency",
			})
			return
		}
		writeJSON(w, engineErr.StatusCode, errorResponse{
			ErrorCode: engineErr.ErrorCode.String(),
			Message:   engineErr.Error(),
		})
		return
	}

	log.Ctx(r.Context()).Error().Err(err).Msg("unhandled error in API handler")
	writeJSON(w, http.StatusInternalServerError, errorResponse{
		ErrorCode: types.InternalServiceError.String(),
		Message:   "internal server error",
	})
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"familyconnect/internal/validation"
)

type messageResponse struct {
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		LoggerFromContext(r.Context()).Error("writing response body", zap.Error(err))
	}
}

func respondWithMessage(w http.ResponseWriter, r *http.Request, status int, msg string) {
	respondJSON(w, r, status, messageResponse{Message: msg})
}

// respondWithError writes {"message": userMsg}. When err is set it is logged
// with the request id under logMsg, or userMsg if logMsg is empty.
func respondWithError(w http.ResponseWriter, r *http.Request, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		logger := LoggerFromContext(r.Context())
		if status >= http.StatusInternalServerError {
			logger.Error(logMsg, zap.Int("status", status), zap.Error(err))
		} else {
			logger.Info(logMsg, zap.Int("status", status), zap.Error(err))
		}
	}

	respondWithMessage(w, r, status, userMsg)
}

// respondWithValidationError reports the first validation violation as a 400
func respondWithValidationError(w http.ResponseWriter, r *http.Request, err error) {
	var verr validation.ValidationError
	if errors.As(err, &verr) {
		respondWithMessage(w, r, http.StatusBadRequest, verr.Message)
		return
	}
	respondWithError(w, r, http.StatusInternalServerError, ErrInternalServerError, "validating request", err)
}

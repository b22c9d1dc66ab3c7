package httpapi

import (
	"errors"
	"net/http"

	"github.com/francesco74/sonde/internal/service"

	"go.uber.org/zap"
)

// Client-facing messages. Internal identifiers and stack traces never
// reach a response.
const (
	msgMissingCredentials = "Username and password are required."
	msgInvalidCredentials = "Invalid credentials."
	msgAuthRequired       = "Authorization required."
	msgServerError        = "Server error."
	msgMissingPracticeID  = "Missing 'practice_id' parameter."
	msgMissingParameters  = "Missing parameters."
	msgPracticeNotFound   = "Practice not found."
	msgPermissionDenied   = "Permission denied for this practice."
	msgInvalidDateFormat  = "Invalid date format. Use YYYY-MM-DD."
	msgUsernameTaken      = "This username already exists."
)

// writeServiceError maps a service error to its status code and message.
// Anything unrecognized is a store/server failure: logged in full,
// reported generically.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, fail(msgInvalidCredentials))
	case errors.Is(err, service.ErrPracticeNotFound):
		writeJSON(w, http.StatusNotFound, fail(msgPracticeNotFound))
	case errors.Is(err, service.ErrPermissionDenied):
		writeJSON(w, http.StatusForbidden, fail(msgPermissionDenied))
	case errors.Is(err, service.ErrInvalidDate):
		writeJSON(w, http.StatusBadRequest, fail(msgInvalidDateFormat))
	case errors.Is(err, service.ErrUsernameTaken):
		writeJSON(w, http.StatusConflict, fail(msgUsernameTaken))
	default:
		logger.Error("Request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, fail(msgServerError))
	}
}

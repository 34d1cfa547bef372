package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/markdave123-py/docchat/internal/core"
	"github.com/markdave123-py/docchat/internal/core/encoder"
	"github.com/markdave123-py/docchat/internal/core/session"
	"github.com/markdave123-py/docchat/internal/services"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type apiError struct {
	target error
	status int
	text   string
}

// apiErrors maps domain errors to what the client sees. Entries with an
// empty text reuse the error's own message.
var apiErrors = []apiError{
	{services.ErrUnauthenticated, http.StatusUnauthorized, session.NotAuthenticatedText},
	{services.ErrNoActiveChat, http.StatusBadRequest, session.NoActiveChatText},
	{services.ErrLoadFailed, http.StatusInternalServerError, session.LoadFailedText},
	{services.ErrNoDocument, http.StatusBadRequest, "Please upload a document first."},
	{services.ErrInvalidEmail, http.StatusBadRequest, "Please enter a valid email address."},
	{services.ErrWeakPassword, http.StatusBadRequest, "Password must be at least 6 characters long."},
	{services.ErrRegistrationFailed, http.StatusConflict, "Failed to register. Please try again."},
	{services.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid email or password"},
	{core.ErrNotFound, http.StatusNotFound, "Chat not found."},
	{session.ErrEmptyMessage, http.StatusBadRequest, ""},
	{session.ErrBusy, http.StatusConflict, ""},
	{encoder.ErrEmptyFile, http.StatusBadRequest, ""},
	{encoder.ErrUnsupportedType, http.StatusBadRequest, "Only PDF, JPG, JPEG and PNG files are supported."},
	{encoder.ErrTooLarge, http.StatusRequestEntityTooLarge, ""},
	{encoder.ErrReadFailed, http.StatusBadRequest, "Error reading file."},
}

func errorStatus(err error) (int, string) {
	for _, e := range apiErrors {
		if errors.Is(err, e.target) {
			if e.text == "" {
				return e.status, e.target.Error()
			}
			return e.status, e.text
		}
	}
	return http.StatusInternalServerError, "Something went wrong, please try again later."
}

func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status, text := errorStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: text})
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errInvalidBody
	}
	return nil
}

var errInvalidBody = errors.New("invalid request body")

func badRequest(w http.ResponseWriter, text string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: text})
}

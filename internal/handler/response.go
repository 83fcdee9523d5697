package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/exercise-tracker/internal/apperror"
)

// writeJSON sends a JSON response with the given status code. Headers must
// be set before the first body write, hence the fixed order here.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// messageResponse is the success-shaped {"message": ...} payload used for
// the duplicate-username, over-long-username and invalid-identifier cases.
// These ship with a 200 status on purpose; clients of the original API
// depend on that shape.
type messageResponse struct {
	Message string `json:"message"`
}

func writeMessage(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, messageResponse{Message: message})
}

// writeError is the single translation point from domain errors to HTTP.
//
// The error contract is plain text, not JSON: a validation failure is a 400
// whose body is the first violated field's message, a missing record is a
// 404, and anything unexpected is a generic 500. Handlers never format
// error bodies themselves; everything that is a real error funnels through
// here.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		switch {
		case errors.Is(err, apperror.ErrValidation):
			writeText(w, http.StatusBadRequest, appErr.Message)
			return
		case errors.Is(err, apperror.ErrNotFound):
			writeText(w, http.StatusNotFound, appErr.Message)
			return
		}
	}

	// Unknown failure. The raw error may carry SQL or file paths, so the
	// client gets a generic line and the detail stays in the server log.
	writeText(w, http.StatusInternalServerError, "Internal Server Error")
}

func writeText(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(message))
}

// NotFoundHandler serves unmatched routes: plain text, 404, "not found".
func NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusNotFound, "not found")
}

// Package handler contains the HTTP handlers for the exercise tracker API.
// Each handler orchestrates the same pipeline: validate input, call the
// service, shape the response. Anything that is a real error is passed to
// the shared translator in response.go.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/sakif/exercise-tracker/internal/apperror"
	"github.com/sakif/exercise-tracker/internal/model"
	"github.com/sakif/exercise-tracker/internal/service"
)

// Client-facing message strings. These are part of the published API
// contract (frontends match on them), so they are kept verbatim.
const (
	msgUsernameTaken   = "Username already exists. Please try again ..."
	msgUsernameTooLong = "Username length exceeds maximum limit"
	msgInvalidID       = "Not a valid Id..."
	msgInvalidAddID    = "Please insert a valid ID ..."
)

// UserHandler serves the user and exercise routes.
type UserHandler struct {
	svc    *service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(svc *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{svc: svc, logger: logger}
}

// createUserResponse matches the published shape, including the key with a
// space in it.
type createUserResponse struct {
	Username string `json:"username"`
	UserID   string `json:"user ID"`
}

// addExerciseResponse returns the full, updated exercise list, not just the
// new entry.
type addExerciseResponse struct {
	Username  string           `json:"username"`
	Exercises []model.Exercise `json:"exercises"`
}

// logResponse uses the singular "exercise" key and omits range metadata
// that was absent or unparseable, never echoing it as null.
type logResponse struct {
	ID       string           `json:"id"`
	Username string           `json:"username"`
	Exercise []model.Exercise `json:"exercise"`
	From     string           `json:"from,omitempty"`
	To       string           `json:"to,omitempty"`
	Count    *int             `json:"count,omitempty"`
}

// HandleListUsers returns every stored user as {username, ID} pairs.
//
// HTTP: GET /api/exercise/users
func (h *UserHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.svc.ListUsers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

// HandleCreateUser registers a new user.
//
// HTTP: POST /api/exercise/new-user, body field: username
//
// Two outcomes are success-shaped messages rather than errors, preserved
// from the original API: a duplicate username and an over-long username
// both answer 200 with a {"message": ...} body.
func (h *UserHandler) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	body, err := parseBody(r)
	if err != nil {
		h.logger.Warn("invalid new-user body", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	prov := service.Provenance{
		IP:       clientIP(r),
		Language: r.Header.Get("Accept-Language"),
		Software: r.Header.Get("User-Agent"),
	}

	user, err := h.svc.CreateUser(r.Context(), body("username"), prov)
	switch {
	case errors.Is(err, service.ErrUsernameTaken):
		writeMessage(w, msgUsernameTaken)
		return
	case errors.Is(err, service.ErrUsernameTooLong):
		writeMessage(w, msgUsernameTooLong)
		return
	case err != nil:
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, createUserResponse{
		Username: user.Username,
		UserID:   user.PublicID,
	})
}

// HandleAddExercise appends an exercise to a user's log.
//
// HTTP: POST /api/exercise/add, body fields: userId, description, duration,
// date (optional)
//
// A missing required field or a malformed identifier answers 200 with the
// invalid-ID message, matching the original contract. A well-formed ID with
// no matching user is a proper 404.
func (h *UserHandler) HandleAddExercise(w http.ResponseWriter, r *http.Request) {
	body, err := parseBody(r)
	if err != nil {
		h.logger.Warn("invalid add-exercise body", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	user, err := h.svc.AddExercise(r.Context(),
		body("userId"),
		body("description"),
		body("duration"),
		body("date"),
	)
	switch {
	case errors.Is(err, service.ErrInvalidID):
		writeMessage(w, msgInvalidAddID)
		return
	case err != nil:
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, addExerciseResponse{
		Username:  user.Username,
		Exercises: user.Exercises,
	})
}

// HandleGetLog returns a user's exercise log with optional date-range
// filtering and head-limit truncation.
//
// HTTP: GET /api/exercise/log?userId=...&from=...&to=...&limit=...
//
// An identifier that fails the format gate answers 200 with the invalid-ID
// message and never reaches the store. Unparseable from/to values are
// silently ignored by the filter.
func (h *UserHandler) HandleGetLog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	user, err := h.svc.GetLog(r.Context(), q.Get("userId"))
	switch {
	case errors.Is(err, service.ErrInvalidID):
		writeMessage(w, msgInvalidID)
		return
	case err != nil:
		writeError(w, err)
		return
	}

	view := service.FilterLog(user.Exercises, q.Get("from"), q.Get("to"), q.Get("limit"))

	writeJSON(w, http.StatusOK, logResponse{
		ID:       user.PublicID,
		Username: user.Username,
		Exercise: view.Exercises,
		From:     view.From,
		To:       view.To,
		Count:    view.Count,
	})
}

// parseBody accepts either a JSON object or a urlencoded form (the original
// API took both) and returns a field accessor. JSON numbers are rendered
// back to their shortest decimal form so "duration": 30 and duration=30
// arrive identically at the service.
func parseBody(r *http.Request) (func(string) string, error) {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/json") {
		fields := map[string]interface{}{}
		if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
			return nil, apperror.ValidationFailed("body", "invalid request body")
		}
		return func(key string) string {
			switch v := fields[key].(type) {
			case string:
				return v
			case float64:
				return strconv.FormatFloat(v, 'f', -1, 64)
			case bool:
				return strconv.FormatBool(v)
			default:
				return ""
			}
		}, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, apperror.ValidationFailed("body", "invalid request body")
	}
	return r.PostFormValue, nil
}

// clientIP extracts the first hop of X-Forwarded-For, falling back to the
// transport-level remote address. Stored verbatim as provenance; never
// trusted for anything.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	return r.RemoteAddr
}

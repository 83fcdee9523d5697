// Package service contains the business logic: input validation, username
// normalization, the identifier gate in front of every store lookup, and the
// pure exercise-log filter.
//
// The service speaks in primitives and domain errors. It knows nothing about
// HTTP; handlers translate its errors into responses. It depends on the
// repository.UserRepository interface, so tests inject an in-memory fake.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/sakif/exercise-tracker/internal/apperror"
	"github.com/sakif/exercise-tracker/internal/model"
	"github.com/sakif/exercise-tracker/internal/repository"
	"github.com/sakif/exercise-tracker/internal/shortid"
)

const (
	// MaxUsernameLength bounds a username after whitespace stripping.
	MaxUsernameLength = 31

	// maxQueryIDLength is the conservative cap applied to identifiers
	// arriving in queries and bodies. Generated IDs are 8 characters, so
	// anything of 12 or more is certainly not one of ours and is rejected
	// before the store is consulted.
	maxQueryIDLength = 12
)

// Sentinel conditions the handlers map to success-shaped message payloads
// rather than HTTP errors, preserving the published API's behaviour.
var (
	// ErrUsernameTaken: creating a user whose username already exists.
	ErrUsernameTaken = errors.New("username already exists")

	// ErrUsernameTooLong: username exceeds MaxUsernameLength after
	// normalization.
	ErrUsernameTooLong = errors.New("username too long")

	// ErrInvalidID: a supplied identifier failed the format gate, or a
	// required field was missing on the add-exercise operation.
	ErrInvalidID = errors.New("invalid id")
)

// Provenance is the optional request metadata captured when a user is
// created. All fields are opaque, untrusted strings.
type Provenance struct {
	IP       string
	Language string
	Software string
}

// UserService orchestrates validation, store access and log filtering.
type UserService struct {
	repo   repository.UserRepository
	logger *slog.Logger
}

// NewUserService creates a UserService. The repository is injected so
// callers decide the backend (SQLite in production, a fake in tests).
func NewUserService(repo repository.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{
		repo:   repo,
		logger: logger,
	}
}

// NormalizeUsername trims the input and strips all internal whitespace.
// "  ann a  " becomes "anna".
func NormalizeUsername(s string) string {
	return strings.Join(strings.Fields(s), "")
}

// validQueryID is the gate applied before any store lookup by public
// identifier. Malformed or over-long input never reaches the store.
func validQueryID(id string) bool {
	return shortid.IsValid(id) && len(id) < maxQueryIDLength
}

// CreateUser normalizes and validates the username, then creates the user
// unless one with that exact username already exists.
//
// A duplicate username is NOT a validation failure here: it returns
// ErrUsernameTaken, which the handler reports as a success-shaped message.
// Likewise ErrUsernameTooLong. An empty username after normalization is a
// plain validation error.
func (s *UserService) CreateUser(ctx context.Context, username string, prov Provenance) (*model.User, error) {
	username = NormalizeUsername(username)

	if username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}
	if len(username) > MaxUsernameLength {
		return nil, ErrUsernameTooLong
	}

	_, err := s.repo.FindByUsername(ctx, username)
	switch {
	case err == nil:
		return nil, ErrUsernameTaken
	case !errors.Is(err, apperror.ErrNotFound):
		s.logger.Error("failed to check username",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("checking username: %w", err)
	}

	user := &model.User{
		Username:       username,
		ClientIP:       prov.IP,
		ClientLanguage: prov.Language,
		ClientSoftware: prov.Software,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		s.logger.Error("failed to create user",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.logger.Info("user created",
		slog.String("id", user.PublicID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// ListUsers returns the {username, ID} projection of every stored user.
func (s *UserService) ListUsers(ctx context.Context) ([]model.UserSummary, error) {
	summaries, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list users", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return summaries, nil
}

// AddExercise appends one exercise to the identified user's log and returns
// the user with the full, updated exercise list.
//
// The identifier, description and duration must all be present and the
// identifier must pass the format gate; otherwise ErrInvalidID is returned
// without touching the store. Duration and date arrive as strings and are
// coerced here: a non-numeric duration or unparseable date is a validation
// error, and an absent date takes the store default.
//
// The load-append-reload sequence is not transactionally isolated. Two
// concurrent appends to the same user can interleave; last-write-wins is
// the accepted consistency level.
func (s *UserService) AddExercise(ctx context.Context, publicID, description, duration, date string) (*model.User, error) {
	if publicID == "" || strings.TrimSpace(description) == "" || duration == "" {
		return nil, ErrInvalidID
	}
	if !validQueryID(publicID) {
		return nil, ErrInvalidID
	}

	minutes, err := strconv.ParseFloat(duration, 64)
	if err != nil {
		return nil, apperror.ValidationFailed("duration", "duration must be a number")
	}

	ex := model.Exercise{
		Description: strings.TrimSpace(description),
		Duration:    minutes,
	}
	if date != "" {
		when, ok := ParseDate(date)
		if !ok {
			return nil, apperror.ValidationFailed("date", fmt.Sprintf("%q is not a valid date", date))
		}
		ex.Date = when
	}

	user, err := s.repo.FindByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.AppendExercise(ctx, user.ID, ex); err != nil {
		s.logger.Error("failed to append exercise",
			slog.String("id", publicID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("appending exercise: %w", err)
	}

	// Reload so the response carries store-assigned values (the defaulted
	// date in particular), not what we guessed client-side.
	updated, err := s.repo.FindByPublicID(ctx, publicID)
	if err != nil {
		return nil, fmt.Errorf("reloading user after append: %w", err)
	}

	s.logger.Info("exercise added",
		slog.String("id", publicID),
		slog.String("description", ex.Description),
		slog.Float64("duration", ex.Duration),
	)

	return updated, nil
}

// GetLog loads the identified user for the log endpoint. The identifier
// gate applies first: a malformed or over-long ID returns ErrInvalidID and
// never reaches the store. A well-formed ID with no matching user is an
// explicit not-found condition.
func (s *UserService) GetLog(ctx context.Context, publicID string) (*model.User, error) {
	if !validQueryID(publicID) {
		return nil, ErrInvalidID
	}

	user, err := s.repo.FindByPublicID(ctx, publicID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.logger.Info("log requested for missing user", slog.String("id", publicID))
		}
		return nil, err
	}

	return user, nil
}

// dateLayouts are the accepted input formats for exercise dates and log
// range bounds, most common first.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseDate parses a date-like input string. The second return value
// reports whether any accepted layout matched.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

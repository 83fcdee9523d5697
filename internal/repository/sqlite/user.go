package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/exercise-tracker/internal/apperror"
	"github.com/sakif/exercise-tracker/internal/model"
	"github.com/sakif/exercise-tracker/internal/repository"
	"github.com/sakif/exercise-tracker/internal/shortid"
)

// Compile-time check that *DB implements repository.UserRepository.
var _ repository.UserRepository = (*DB)(nil)

// Create inserts a new user, generating the internal ID (xid) and the short
// public ID. The caller's struct is updated in place with the generated
// values, matching the pointer-receiver convention used across the repo.
//
// Uniqueness of username and public_id is enforced by the schema. A username
// collision here means the service's pre-check raced another create; it is
// reported as a validation error so the client sees a 400, which is the
// documented behaviour for store-level constraint violations.
func (db *DB) Create(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()
	user.PublicID = shortid.Generate()
	user.CreatedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, public_id, username, client_ip, client_language, client_software, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.PublicID,
		user.Username,
		user.ClientIP,
		user.ClientLanguage,
		user.ClientSoftware,
		user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.ValidationFailed("username",
				fmt.Sprintf("username %q already exists", user.Username))
		}
		return fmt.Errorf("sqlite: inserting user %q: %w", user.Username, err)
	}

	if user.Exercises == nil {
		user.Exercises = []model.Exercise{}
	}
	return nil
}

// FindByUsername returns the user with the exact username, exercises loaded.
func (db *DB) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return db.findUser(ctx, `username = ?`, username)
}

// FindByPublicID returns the user with the given public identifier,
// exercises loaded in insertion order.
func (db *DB) FindByPublicID(ctx context.Context, publicID string) (*model.User, error) {
	return db.findUser(ctx, `public_id = ?`, publicID)
}

func (db *DB) findUser(ctx context.Context, where string, arg string) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, public_id, username, client_ip, client_language, client_software, created_at
		 FROM users WHERE `+where,
		arg,
	).Scan(
		&u.ID,
		&u.PublicID,
		&u.Username,
		&u.ClientIP,
		&u.ClientLanguage,
		&u.ClientSoftware,
		&u.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", arg)
		}
		return nil, fmt.Errorf("sqlite: finding user %q: %w", arg, err)
	}

	exercises, err := db.loadExercises(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	u.Exercises = exercises

	return &u, nil
}

func (db *DB) loadExercises(ctx context.Context, userID string) ([]model.Exercise, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT description, duration, date, done
		 FROM exercises WHERE user_id = ? ORDER BY seq`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: loading exercises for user %s: %w", userID, err)
	}
	defer rows.Close()

	// Empty slice, not nil: the log endpoint serialises this directly and
	// an absent user history must encode as [] rather than null.
	exercises := []model.Exercise{}
	for rows.Next() {
		var ex model.Exercise
		if err := rows.Scan(&ex.Description, &ex.Duration, &ex.Date, &ex.Done); err != nil {
			return nil, fmt.Errorf("sqlite: scanning exercise row: %w", err)
		}
		exercises = append(exercises, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating exercise rows: %w", err)
	}

	return exercises, nil
}

// List returns the {username, ID} projection of all users in store order.
func (db *DB) List(ctx context.Context) ([]model.UserSummary, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT username, public_id FROM users`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	summaries := []model.UserSummary{}
	for rows.Next() {
		var s model.UserSummary
		if err := rows.Scan(&s.Username, &s.PublicID); err != nil {
			return nil, fmt.Errorf("sqlite: scanning user summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating user rows: %w", err)
	}

	return summaries, nil
}

// AppendExercise adds one entry to the end of the user's exercise sequence.
// A zero Date takes the store default, the current time.
func (db *DB) AppendExercise(ctx context.Context, userID string, ex model.Exercise) error {
	if ex.Date.IsZero() {
		ex.Date = time.Now().UTC()
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO exercises (user_id, description, duration, date, done)
		 VALUES (?, ?, ?, ?, ?)`,
		userID,
		ex.Description,
		ex.Duration,
		ex.Date,
		ex.Done,
	)
	if err != nil {
		// The foreign key on user_id is the only constraint an insert with
		// well-formed values can trip, so it doubles as the existence check.
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return apperror.NotFound("user", userID)
		}
		return fmt.Errorf("sqlite: appending exercise for user %s: %w", userID, err)
	}

	return nil
}

// isUniqueViolation detects SQLite UNIQUE constraint failures. The modernc
// driver does not export a typed error for this, so we match the stable
// message prefix the SQLite core produces.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

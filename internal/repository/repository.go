// Package repository declares the storage interfaces the service layer
// depends on. The service is written against these interfaces, not against
// a concrete backend, so tests inject in-memory fakes and the SQLite
// implementation stays swappable.
package repository

import (
	"context"

	"github.com/sakif/exercise-tracker/internal/model"
)

// UserRepository is the persistence contract for users and their embedded
// exercise entries.
//
// Append semantics: exercises are append-only and ordered by insertion.
// FindByPublicID always returns the exercises in that order. The
// load-then-append sequence the service performs around AppendExercise is
// not transactionally isolated; two concurrent appends to the same user can
// interleave, and last-write-wins is the accepted consistency level.
type UserRepository interface {
	// Create persists a new user, assigning ID, PublicID and CreatedAt on
	// the passed struct. A username or public ID collision surfaces as a
	// validation error.
	Create(ctx context.Context, user *model.User) error

	// FindByUsername returns the user with the exact username, exercises
	// included, or apperror.ErrNotFound.
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// FindByPublicID returns the user with the given public identifier,
	// exercises included, or apperror.ErrNotFound.
	FindByPublicID(ctx context.Context, publicID string) (*model.User, error)

	// List returns the {username, ID} projection of every stored user in
	// store-native order. Callers must not assume any particular ordering.
	List(ctx context.Context) ([]model.UserSummary, error)

	// AppendExercise adds one entry to the end of the user's exercise
	// sequence. A zero Date is replaced by the store's default, the current
	// time. The userID is the internal ID, not the public one.
	AppendExercise(ctx context.Context, userID string, ex model.Exercise) error
}

// Package repository translates domain intents into store calls. Every
// operation is total: storage failures are logged here and converted into
// nil or false results, never returned as errors.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/usergate/user_service/internal/domain/user"
	"github.com/usergate/user_service/internal/logging"
	"github.com/usergate/user_service/internal/storage"
)

// UserRepository provides user persistence with boolean/nil failure results.
type UserRepository struct {
	store storage.UserStore
	log   *logging.Logger
}

// NewUserRepository constructs a repository over the given store.
func NewUserRepository(store storage.UserStore, log *logging.Logger) *UserRepository {
	if log == nil {
		log = logging.NewDefault("repository")
	}
	return &UserRepository{store: store, log: log}
}

// FindByID returns the user or nil when absent. A miss is expected and not
// logged as an error; store failures are.
func (r *UserRepository) FindByID(ctx context.Context, id string) *user.User {
	u, err := r.store.GetUser(ctx, id)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			r.log.WithContext(ctx).WithError(err).WithField("user_id", id).Error("user lookup failed")
		}
		return nil
	}
	return &u
}

// FindByEmail returns the user or nil when absent.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) *user.User {
	u, err := r.store.GetUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			r.log.WithContext(ctx).WithError(err).Error("user lookup by email failed")
		}
		return nil
	}
	return &u
}

// CreateUser persists the record, returning the created user or nil on
// failure.
func (r *UserRepository) CreateUser(ctx context.Context, u user.User) *user.User {
	created, err := r.store.CreateUser(ctx, u)
	if err != nil {
		r.log.WithContext(ctx).WithError(err).WithField("email", u.Email).Error("user creation failed")
		return nil
	}
	return &created
}

// UpdateUser persists changes, reporting success as a boolean.
func (r *UserRepository) UpdateUser(ctx context.Context, u user.User) bool {
	if _, err := r.store.UpdateUser(ctx, u); err != nil {
		r.log.WithContext(ctx).WithError(err).WithField("user_id", u.ID).Error("user update failed")
		return false
	}
	r.log.WithContext(ctx).WithField("user_id", u.ID).Info("user updated")
	return true
}

// DeleteUser removes the record, reporting success as a boolean.
func (r *UserRepository) DeleteUser(ctx context.Context, id string) bool {
	if err := r.store.DeleteUser(ctx, id); err != nil {
		r.log.WithContext(ctx).WithError(err).WithField("user_id", id).Error("user deletion failed")
		return false
	}
	r.log.WithContext(ctx).WithField("user_id", id).Info("user deleted")
	return true
}

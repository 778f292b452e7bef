// Package storage declares the persistence interfaces consumed by the
// repository layer.
package storage

import (
	"context"

	"github.com/usergate/user_service/internal/domain/user"
)

// UserStore persists user records. Implementations signal a missing record
// with sql.ErrNoRows so callers can tell absence from failure.
type UserStore interface {
	CreateUser(ctx context.Context, u user.User) (user.User, error)
	GetUser(ctx context.Context, id string) (user.User, error)
	GetUserByEmail(ctx context.Context, email string) (user.User, error)
	UpdateUser(ctx context.Context, u user.User) (user.User, error)
	DeleteUser(ctx context.Context, id string) error
}

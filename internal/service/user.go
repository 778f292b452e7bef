// Package service implements the user business layer: validation, wire and
// storage translation, and the not-found / creation-failure policy.
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/usergate/user_service/internal/domain/user"
	"github.com/usergate/user_service/internal/errors"
	"github.com/usergate/user_service/internal/logging"
	"github.com/usergate/user_service/internal/repository"
)

// UserService orchestrates repository calls. Absence and creation failure
// surface as typed faults; the sentinel user.Request zero value accompanies
// every error return.
type UserService struct {
	repo *repository.UserRepository
	log  *logging.Logger
}

// NewUserService constructs the service.
func NewUserService(repo *repository.UserRepository, log *logging.Logger) *UserService {
	if log == nil {
		log = logging.NewDefault("service")
	}
	return &UserService{repo: repo, log: log}
}

// FindUserByID looks up a user, returning a NotFound fault on a miss.
func (s *UserService) FindUserByID(ctx context.Context, id string) (user.Request, error) {
	found := s.repo.FindByID(ctx, id)
	if found == nil {
		s.log.WithContext(ctx).WithField("user_id", id).Info("user not found")
		return user.Empty(), errors.NotFound(fmt.Sprintf("User with id %s not found", id))
	}

	s.log.WithContext(ctx).WithField("user_id", id).Info("user found")
	return user.FromUser(*found), nil
}

// CreateUser validates and persists a new user from its wire representation.
func (s *UserService) CreateUser(ctx context.Context, req user.Request) (user.Request, error) {
	if strings.TrimSpace(req.Email) == "" {
		return user.Empty(), errors.Validation("email is required")
	}
	if s.repo.FindByEmail(ctx, req.Email) != nil {
		return user.Empty(), errors.Validation("email already in use")
	}

	created := s.repo.CreateUser(ctx, req.ToUser())
	if created == nil {
		s.log.WithContext(ctx).WithField("email", req.Email).Error("user creation failed")
		return user.Empty(), errors.Internal("user creation failed", nil)
	}

	s.log.WithContext(ctx).WithField("user_id", created.ID).Info("user created")
	return user.FromUser(*created), nil
}

// UpdateUser persists changes to an existing user.
func (s *UserService) UpdateUser(ctx context.Context, req user.Request) (user.Request, error) {
	if strings.TrimSpace(req.ID) == "" {
		return user.Empty(), errors.Validation("id is required")
	}
	if strings.TrimSpace(req.Email) == "" {
		return user.Empty(), errors.Validation("email is required")
	}

	if s.repo.FindByID(ctx, req.ID) == nil {
		return user.Empty(), errors.NotFound(fmt.Sprintf("User with id %s not found", req.ID))
	}
	if !s.repo.UpdateUser(ctx, req.ToUser()) {
		return user.Empty(), errors.Internal("user update failed", nil)
	}

	return s.FindUserByID(ctx, req.ID)
}

// DeleteUser removes a user by id.
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	if s.repo.FindByID(ctx, id) == nil {
		return errors.NotFound(fmt.Sprintf("User with id %s not found", id))
	}
	if !s.repo.DeleteUser(ctx, id) {
		return errors.Internal("user deletion failed", nil)
	}
	return nil
}

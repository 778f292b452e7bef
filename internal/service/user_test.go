package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/usergate/user_service/internal/domain/user"
	"github.com/usergate/user_service/internal/errors"
	"github.com/usergate/user_service/internal/logging"
	"github.com/usergate/user_service/internal/repository"
	"github.com/usergate/user_service/internal/storage/memory"
)

func newService() *UserService {
	repo := repository.NewUserRepository(memory.New(), logging.NewNop())
	return NewUserService(repo, logging.NewNop())
}

func TestCreateThenFindRoundTrip(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, user.Request{Email: "a@b.com", Name: "A"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected generated id")
	}
	if created.Email != "a@b.com" || created.Name != "A" {
		t.Fatalf("created fields differ from payload: %+v", created)
	}

	found, err := svc.FindUserByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found != created {
		t.Fatalf("write-then-read mismatch: %+v vs %+v", found, created)
	}
}

func TestFindMissRaisesNotFound(t *testing.T) {
	svc := newService()

	// Repeated misses must produce the same fault shape with no side effects.
	for i := 0; i < 3; i++ {
		got, err := svc.FindUserByID(context.Background(), "doesnotexist")
		if err == nil {
			t.Fatal("expected not-found fault")
		}
		if !got.IsEmpty() {
			t.Fatalf("expected sentinel alongside error, got %+v", got)
		}

		serviceErr := errors.GetServiceError(err)
		if serviceErr == nil {
			t.Fatal("expected typed service error")
		}
		if serviceErr.HTTPStatus != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", serviceErr.HTTPStatus)
		}
		if serviceErr.Message != "User with id doesnotexist not found" {
			t.Fatalf("message = %q", serviceErr.Message)
		}
	}
}

func TestCreateRequiresEmail(t *testing.T) {
	svc := newService()

	_, err := svc.CreateUser(context.Background(), user.Request{Name: "A"})
	serviceErr := errors.GetServiceError(err)
	if serviceErr == nil || serviceErr.HTTPStatus != http.StatusBadRequest {
		t.Fatalf("expected validation fault, got %v", err)
	}
}

func TestCreateRejectsDuplicateEmail(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	if _, err := svc.CreateUser(ctx, user.Request{Email: "a@b.com", Name: "A"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err := svc.CreateUser(ctx, user.Request{Email: "a@b.com", Name: "B"})
	serviceErr := errors.GetServiceError(err)
	if serviceErr == nil || serviceErr.HTTPStatus != http.StatusBadRequest {
		t.Fatalf("expected validation fault for duplicate email, got %v", err)
	}
}

func TestUpdateMissingUser(t *testing.T) {
	svc := newService()

	_, err := svc.UpdateUser(context.Background(), user.Request{ID: "nope", Email: "a@b.com"})
	serviceErr := errors.GetServiceError(err)
	if serviceErr == nil || serviceErr.HTTPStatus != http.StatusNotFound {
		t.Fatalf("expected not-found fault, got %v", err)
	}
}

func TestDeleteMissingUser(t *testing.T) {
	svc := newService()

	err := svc.DeleteUser(context.Background(), "nope")
	serviceErr := errors.GetServiceError(err)
	if serviceErr == nil || serviceErr.HTTPStatus != http.StatusNotFound {
		t.Fatalf("expected not-found fault, got %v", err)
	}
}

func TestUpdateThenFind(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, user.Request{Email: "a@b.com", Name: "A"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.UpdateUser(ctx, user.Request{ID: created.ID, Email: "a@b.com", Name: "B"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "B" {
		t.Fatalf("name = %q, want B", updated.Name)
	}
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/usergate/user_service/internal/domain/user"
)

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	return New(db), mock, func() { db.Close() }
}

func TestCreateUserGeneratesID(t *testing.T) {
	store, mock, done := newMock(t)
	defer done()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs(sqlmock.AnyArg(), "a@b.com", "A", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	created, err := store.CreateUser(context.Background(), user.User{Email: "a@b.com", Name: "A"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected id to be generated")
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to be set")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetUserMissReturnsNoRows(t *testing.T) {
	store, mock, done := newMock(t)
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, email, name, created_at, updated_at")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := store.GetUser(context.Background(), "missing")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestGetUserScansRow(t *testing.T) {
	store, mock, done := newMock(t)
	defer done()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "email", "name", "created_at", "updated_at"}).
		AddRow("u1", "a@b.com", "A", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, email, name, created_at, updated_at")).
		WithArgs("u1").
		WillReturnRows(rows)

	got, err := store.GetUser(context.Background(), "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Email != "a@b.com" || got.Name != "A" {
		t.Fatalf("unexpected record: %+v", got)
	}
}

func TestUpdateUserNoRowsAffected(t *testing.T) {
	store, mock, done := newMock(t)
	defer done()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users")).
		WithArgs("u1", "a@b.com", "A", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := store.UpdateUser(context.Background(), user.User{ID: "u1", Email: "a@b.com", Name: "A"})
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows for absent row, got %v", err)
	}
}

func TestDeleteUserNoRowsAffected(t *testing.T) {
	store, mock, done := newMock(t)
	defer done()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.DeleteUser(context.Background(), "missing"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

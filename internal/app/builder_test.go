package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usergate/user_service/internal/auth"
	"github.com/usergate/user_service/internal/config"
	"github.com/usergate/user_service/internal/database"
	"github.com/usergate/user_service/internal/domain/user"
	"github.com/usergate/user_service/internal/httputil"
	"github.com/usergate/user_service/internal/logging"
	"github.com/usergate/user_service/internal/storage/memory"
)

// stubVerifier resolves one fixed token.
type stubVerifier struct {
	token    string
	identity auth.Identity
}

func (v stubVerifier) Verify(ctx context.Context, token string) (auth.Identity, error) {
	if token != v.token {
		return auth.Identity{}, errors.New("unknown token")
	}
	return v.identity, nil
}

func newTestApp(t *testing.T) *Application {
	t.Helper()

	application, err := NewBuilder().
		WithLogger(logging.NewNop()).
		WithConfig(config.Default()).
		WithMiddleware().
		WithStore(memory.New()).
		WithVerifier(stubVerifier{token: "valid", identity: auth.Identity{ID: "tester", Email: "t@example.com", EmailVerified: true}}).
		WithRepository().
		WithService().
		WithController().
		Build(context.Background())
	require.NoError(t, err)
	return application
}

func authedRequest(method, path, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	req.Header.Set("Authorization", "Bearer valid")
	return req
}

func TestCreateThenGetScenario(t *testing.T) {
	handler := newTestApp(t).Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest("POST", "/users", `{"email":"a@b.com","name":"A"}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created user.Request
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "a@b.com", created.Email)
	assert.Equal(t, "A", created.Name)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest("GET", "/users/"+created.ID, ""))
	require.Equal(t, http.StatusOK, rec.Code)

	var fetched user.Request
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
	assert.Equal(t, created, fetched)
}

func TestGetMissingUserScenario(t *testing.T) {
	handler := newTestApp(t).Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest("GET", "/users/doesnotexist", ""))
	require.Equal(t, http.StatusNotFound, rec.Code)

	var env httputil.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.False(t, env.Success)
	assert.Equal(t, http.StatusNotFound, env.Status)
	assert.Equal(t, "User with id doesnotexist not found", env.Message)
}

func TestUnauthenticatedRequestRejected(t *testing.T) {
	handler := newTestApp(t).Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/users/u1", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var env httputil.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "Authentication required", env.Message)
}

func TestEveryResponseCarriesRequestID(t *testing.T) {
	handler := newTestApp(t).Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/users/u1", nil))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest("GET", "/health", ""))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestHealthAndMetricsBypassAuth(t *testing.T) {
	handler := newTestApp(t).Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdateAndDelete(t *testing.T) {
	handler := newTestApp(t).Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest("POST", "/users", `{"email":"a@b.com","name":"A"}`))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created user.Request
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest("PUT", "/users/"+created.ID, `{"email":"a@b.com","name":"B"}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated user.Request
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "B", updated.Name)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest("DELETE", "/users/"+created.ID, ""))
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest("GET", "/users/"+created.ID, ""))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInvalidCreatePayload(t *testing.T) {
	handler := newTestApp(t).Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest("POST", "/users", `{not json`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest("POST", "/users", `{"name":"no email"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBuildAbortsWhenConnectivityProbeFails(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	_, err = NewBuilder().
		WithLogger(logging.NewNop()).
		WithConfig(config.Default()).
		WithMiddleware().
		WithGateway(database.New(db, logging.NewNop())).
		WithVerifier(stubVerifier{token: "valid"}).
		WithRepository().
		WithService().
		WithController().
		Build(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connectivity probe failed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuilderStepOrderEnforced(t *testing.T) {
	// Database step before logger.
	_, err := NewBuilder().
		WithConfig(config.Default()).
		Build(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without a logger")

	// Service before repository.
	_, err = NewBuilder().
		WithLogger(logging.NewNop()).
		WithConfig(config.Default()).
		WithService().
		Build(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without a repository")

	// Controller before middleware.
	_, err = NewBuilder().
		WithLogger(logging.NewNop()).
		WithConfig(config.Default()).
		WithStore(memory.New()).
		WithVerifier(stubVerifier{token: "t"}).
		WithRepository().
		WithService().
		WithController().
		Build(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without middleware")

	// Build before any controller.
	_, err = NewBuilder().
		WithLogger(logging.NewNop()).
		WithConfig(config.Default()).
		Build(context.Background())
	require.Error(t, err)
}

func TestBuilderFirstErrorWins(t *testing.T) {
	_, err := NewBuilder().
		WithConfig(config.Default()). // fails: no logger yet
		WithLogger(logging.NewNop()). // ignored after first error
		WithMiddleware().
		Build(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without a logger")
}

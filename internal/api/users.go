// Package api binds HTTP routes to the user service.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/usergate/user_service/internal/domain/user"
	"github.com/usergate/user_service/internal/errors"
	"github.com/usergate/user_service/internal/httputil"
	"github.com/usergate/user_service/internal/logging"
	"github.com/usergate/user_service/internal/metrics"
	"github.com/usergate/user_service/internal/service"
)

// UserController exposes the user CRUD endpoints.
type UserController struct {
	users *service.UserService
	log   *logging.Logger
}

// NewUserController constructs the controller.
func NewUserController(users *service.UserService, log *logging.Logger) *UserController {
	if log == nil {
		log = logging.NewDefault("api")
	}
	return &UserController{users: users, log: log}
}

// RegisterRoutes attaches the user endpoints to the router.
func (c *UserController) RegisterRoutes(router *mux.Router) {
	router.Handle("/users/{id}", httputil.Wrap(c.log, c.getUser)).Methods(http.MethodGet)
	router.Handle("/users", httputil.Wrap(c.log, c.createUser)).Methods(http.MethodPost)
	router.Handle("/users/{id}", httputil.Wrap(c.log, c.updateUser)).Methods(http.MethodPut)
	router.Handle("/users/{id}", httputil.Wrap(c.log, c.deleteUser)).Methods(http.MethodDelete)
}

func (c *UserController) getUser(w http.ResponseWriter, r *http.Request) error {
	id := mux.Vars(r)["id"]
	c.log.WithContext(r.Context()).Infof("looking up user %s", id)

	found, err := c.users.FindUserByID(r.Context(), id)
	if err != nil {
		metrics.RecordUserOperation("get", "failure")
		c.log.WithContext(r.Context()).WithError(err).Error(fmt.Sprintf("User with id %s not found", id))
		return err
	}

	metrics.RecordUserOperation("get", "success")
	httputil.WriteJSON(w, http.StatusOK, found)
	return nil
}

func (c *UserController) createUser(w http.ResponseWriter, r *http.Request) error {
	c.log.WithContext(r.Context()).Info("creating user")

	var req user.Request
	if err := decodeJSON(r, &req); err != nil {
		metrics.RecordUserOperation("create", "failure")
		return err
	}

	created, err := c.users.CreateUser(r.Context(), req)
	if err != nil {
		// Service faults propagate unchanged; the adapter formats them.
		metrics.RecordUserOperation("create", "failure")
		c.log.WithContext(r.Context()).WithError(err).Error(err.Error())
		return err
	}

	metrics.RecordUserOperation("create", "success")
	httputil.WriteJSON(w, http.StatusCreated, created)
	return nil
}

func (c *UserController) updateUser(w http.ResponseWriter, r *http.Request) error {
	id := mux.Vars(r)["id"]
	c.log.WithContext(r.Context()).Infof("updating user %s", id)

	var req user.Request
	if err := decodeJSON(r, &req); err != nil {
		metrics.RecordUserOperation("update", "failure")
		return err
	}
	req.ID = id

	updated, err := c.users.UpdateUser(r.Context(), req)
	if err != nil {
		metrics.RecordUserOperation("update", "failure")
		c.log.WithContext(r.Context()).WithError(err).Error(err.Error())
		return err
	}

	metrics.RecordUserOperation("update", "success")
	httputil.WriteJSON(w, http.StatusOK, updated)
	return nil
}

func (c *UserController) deleteUser(w http.ResponseWriter, r *http.Request) error {
	id := mux.Vars(r)["id"]
	c.log.WithContext(r.Context()).Infof("deleting user %s", id)

	if err := c.users.DeleteUser(r.Context(), id); err != nil {
		metrics.RecordUserOperation("delete", "failure")
		c.log.WithContext(r.Context()).WithError(err).Error(err.Error())
		return err
	}

	metrics.RecordUserOperation("delete", "success")
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Validation("invalid request body").WithDetails("reason", err.Error())
	}
	return nil
}

// Package httputil provides JSON response helpers and the handler adapter
// that converts returned errors into the uniform error envelope.
package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/usergate/user_service/internal/errors"
	"github.com/usergate/user_service/internal/logging"
)

// ErrorEnvelope is the body returned for every failed request.
type ErrorEnvelope struct {
	Success bool   `json:"success"`
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// WriteError writes the error envelope with the given status and message.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorEnvelope{Success: false, Status: status, Message: message})
}

// HandlerFunc is an HTTP handler that reports failure by returning an error.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// Wrap adapts a HandlerFunc into an http.Handler. A returned *ServiceError
// determines the response status and message; any other error becomes a
// generic 500. One error line is logged per failure, carrying the request id
// from context; causes and details never reach the client.
func Wrap(log *logging.Logger, h HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := h(w, r)
		if err == nil {
			return
		}

		status := http.StatusInternalServerError
		message := "Internal Server Error"
		if serviceErr := errors.GetServiceError(err); serviceErr != nil {
			status = serviceErr.HTTPStatus
			message = serviceErr.Message
		}

		log.WithContext(r.Context()).WithError(err).WithFields(map[string]interface{}{
			"method": r.Method,
			"path":   r.URL.Path,
			"status": status,
		}).Error("request failed")

		WriteError(w, status, message)
	})
}

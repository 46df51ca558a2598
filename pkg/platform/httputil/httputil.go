// Package httputil writes the uniform response envelope. Every endpoint,
// success or failure, returns {code, message, success, data, error}; the
// HTTP status always equals the envelope code so callers can rely on either.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "roster/pkg/domain-errors"
)

// Envelope is the wire shape shared by all endpoints.
type Envelope[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func write(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteSuccess emits a success envelope with the given payload.
func WriteSuccess[T any](w http.ResponseWriter, status int, message string, data T) {
	write(w, status, Envelope[T]{
		Code:    status,
		Message: message,
		Success: true,
		Data:    data,
	})
}

// WriteError translates a domain error into an error envelope. Internal
// errors get a generic message so implementation detail never leaks; every
// other code passes its message and detail through.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := dErrors.HTTPStatus(code)

	message := "internal server error"
	detail := ""
	var de *dErrors.Error
	if code != dErrors.CodeInternal && errors.As(err, &de) {
		message = de.Message
		detail = de.Detail
	}

	write(w, status, Envelope[any]{
		Code:    status,
		Message: message,
		Success: false,
		Error:   detail,
	})
}

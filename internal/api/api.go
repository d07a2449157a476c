// Package api contains helpers to write HTTP handlers.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
)

// Error is a body of erroneous response.
// swagger:model
type Error struct {
	Error string `json:"error"`
}

// WriteOK writes v as json body with status code.
func WriteOK(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		logrus.WithError(err).Error("failed to marshal response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	// nolint:errcheck
	w.Write(data)
}

// WriteError writes error message with status code.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteOK(w, status, Error{Error: message})
}

// WriteInternalErrorf logs error with request's logger and writes 500 without details.
func WriteInternalErrorf(ctx context.Context, w http.ResponseWriter, format string, args ...interface{}) {
	GetLogger(ctx).Error(fmt.Sprintf(format, args...))

	WriteError(w, http.StatusInternalServerError, "internal error")
}

// Package response writes the uniform JSON envelope returned by every endpoint.
package response

import (
	"context"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/videotube/backend/internal/errs"
	"github.com/videotube/backend/internal/logging"
)

// Envelope wraps every API reply.
type Envelope struct {
	Status  int    `json:"status"`
	Data    any    `json:"data"`
	Message string `json:"message"`
	Success bool   `json:"success"`
}

// JSON writes payload inside the envelope with the provided status.
func JSON(ctx context.Context, w http.ResponseWriter, status int, data any, message string) {
	write(ctx, w, Envelope{
		Status:  status,
		Data:    data,
		Message: message,
		Success: status < http.StatusBadRequest,
	})
}

// OK writes a 200 envelope.
func OK(w http.ResponseWriter, r *http.Request, data any, message string) {
	JSON(r.Context(), w, http.StatusOK, data, message)
}

// Created writes a 201 envelope.
func Created(w http.ResponseWriter, r *http.Request, data any, message string) {
	JSON(r.Context(), w, http.StatusCreated, data, message)
}

// Error maps err onto its status code and writes the error envelope. Errors outside
// the errs taxonomy are reported as internal failures without leaking their text.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	status := errs.HTTPStatus(err)
	message := errs.Message(err)

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "error", err)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "error", err)
	}

	write(ctx, w, Envelope{Status: status, Data: nil, Message: message, Success: false})
}

func write(ctx context.Context, w http.ResponseWriter, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(env.Status)

	if err := json.NewEncoder(w).Encode(env); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", env.Status, "error", err)
	}
}

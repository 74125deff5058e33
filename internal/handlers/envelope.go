package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/repositories"
)

// envelope is the uniform success wrapper returned by every endpoint.
type envelope struct {
	Status  int    `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message"`
}

// errorEnvelope is the uniform failure wrapper; the status code is mirrored
// in the HTTP status line.
type errorEnvelope struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func respond(ctx context.Context, w http.ResponseWriter, status int, data any, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(envelope{Status: status, Data: data, Message: message}); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
	}
}

func respondError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "message", message)
	default:
		logger.Warn("request returned client error", "status", status, "message", message)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(errorEnvelope{Status: status, Message: message}); err != nil {
		logger.Error("encode error body", "status", status, "error", err)
	}
}

// storeStatus maps repository sentinel errors onto the error taxonomy.
func storeStatus(err error) int {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repositories.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// identity returns the caller placed on the context by the session
// middleware, rejecting the request when it is absent.
func identity(ctx context.Context, w http.ResponseWriter) (string, bool) {
	user, ok := auth.IdentityFromContext(ctx)
	if !ok || user.ID == "" {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return "", false
	}
	return user.ID, true
}

// pathID reads a path parameter that must be a syntactically valid identifier.
func pathID(ctx context.Context, w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	value := chi.URLParam(r, name)
	if _, err := uuid.Parse(value); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid "+name)
		return "", false
	}
	return value, true
}

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// pagination reads page/limit query parameters with defaults and an upper
// bound on page size.
func pagination(r *http.Request) (page, limit int) {
	page, limit = defaultPage, defaultLimit

	if raw := strings.TrimSpace(r.URL.Query().Get("page")); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			page = v
		}
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	return page, limit
}

func totalPages(total int64, limit int) int64 {
	if limit <= 0 {
		return 0
	}
	return (total + int64(limit) - 1) / int64(limit)
}

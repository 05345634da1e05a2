package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/engagement"
	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/repositories"
)

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "response", payload)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "response", payload)
	}
}

// respondDomainError translates a domain error into an HTTP response, logging
// it at a severity matching the status class.
func respondDomainError(ctx context.Context, w http.ResponseWriter, logMsg string, err error) {
	status, body := errorStatus(err)
	logger := logging.FromContext(ctx)
	if status >= http.StatusInternalServerError {
		logger.Error(logMsg, "status", status, "error", err)
	} else {
		logger.Warn(logMsg, "status", status, "error", err)
	}
	respondJSON(ctx, w, status, map[string]string{"error": body})
}

// errorStatus maps domain errors onto HTTP statuses.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, repositories.ErrNotFound), errors.Is(err, engagement.ErrUnknownTarget):
		return http.StatusNotFound, "not found"
	case errors.Is(err, repositories.ErrConflict):
		return http.StatusConflict, "already exists"
	case errors.Is(err, engagement.ErrContended):
		return http.StatusConflict, "conflicting update, retry"
	case errors.Is(err, engagement.ErrSelfSubscription):
		return http.StatusBadRequest, "cannot subscribe to own channel"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, "invalid or expired token"
	case errors.Is(err, repositories.ErrUnavailable):
		return http.StatusServiceUnavailable, "temporarily unavailable"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

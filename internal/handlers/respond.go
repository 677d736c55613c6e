package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/videohub/backend/internal/apperrors"
	"github.com/videohub/backend/internal/logging"
)

const msgInternal = "internal server error"

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

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

// respondError maps err onto its HTTP status. Internal errors wrapping a
// cause are answered with a generic message; the cause is only echoed when
// debug is set.
func respondError(ctx context.Context, w http.ResponseWriter, err error, debug bool) {
	kind := apperrors.KindOf(err)
	body := errorResponse{Error: apperrors.Message(err, msgInternal)}
	if kind == apperrors.KindInternal {
		logging.FromContext(ctx).Error("internal error", "error", err)
		var appErr *apperrors.Error
		if !errors.As(err, &appErr) || appErr.Err != nil {
			body.Error = msgInternal
			if debug {
				body.Details = err.Error()
			}
		}
	}
	respondJSON(ctx, w, kind.HTTPStatus(), body)
}

func respondMessage(ctx context.Context, w http.ResponseWriter, status int, message string) {
	respondJSON(ctx, w, status, errorResponse{Error: message})
}

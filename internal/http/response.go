// Package http exposes the till over a JSON API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/fjod/go_cart/pos-service/internal/catalog"
	"github.com/fjod/go_cart/pos-service/internal/domain"
	"github.com/fjod/go_cart/pos-service/internal/logger"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// InsufficientPaymentDetails is attached to 402 responses.
type InsufficientPaymentDetails struct {
	Due         int64 `json:"due"`
	Paid        int64 `json:"paid"`
	Outstanding int64 `json:"outstanding"`
}

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.FromContext(ctx).Error("failed to encode response", zap.Error(err))
	}
}

func respondText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func respondError(ctx context.Context, w http.ResponseWriter, status int, code, message string) {
	respondJSON(ctx, w, status, ErrorResponse{Error: message, Code: code})
}

// handleError maps domain errors onto HTTP status codes.
func handleError(ctx context.Context, w http.ResponseWriter, err error) {
	var insufficient *domain.InsufficientPaymentError
	switch {
	case errors.As(err, &insufficient):
		respondJSON(ctx, w, http.StatusPaymentRequired, ErrorResponse{
			Error: err.Error(),
			Code:  "insufficient_payment",
			Details: InsufficientPaymentDetails{
				Due:         insufficient.Due,
				Paid:        insufficient.Paid,
				Outstanding: insufficient.Outstanding(),
			},
		})
	case errors.Is(err, domain.ErrValidation):
		respondError(ctx, w, http.StatusBadRequest, "invalid_argument", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		respondError(ctx, w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, catalog.ErrProductExists):
		respondError(ctx, w, http.StatusConflict, "already_exists", err.Error())
	case errors.Is(err, domain.ErrInvalidState):
		respondError(ctx, w, http.StatusConflict, "invalid_state", err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		respondError(ctx, w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		respondError(ctx, w, http.StatusGatewayTimeout, "timeout", "request timed out")
	default:
		logger.FromContext(ctx).Error("request failed", zap.Error(err))
		respondError(ctx, w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", domain.ErrValidation, err)
	}
	return nil
}

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/service"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// decodeAndValidate reads a JSON body into dst and runs its validate tags.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	if err := v.StructCtx(r.Context(), dst); err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation failed",
			Code:    "validation_failed",
			Details: describeValidation(err),
		})
		return false
	}
	return true
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}

// handleServiceError maps container errors to HTTP statuses.
func handleServiceError(w http.ResponseWriter, err error) {
	var (
		httpStatus int
		code       string
	)

	switch {
	case errors.Is(err, service.ErrEmptyCart), errors.Is(err, service.ErrEmptyOrder):
		httpStatus, code = http.StatusUnprocessableEntity, "empty_cart"
	case errors.Is(err, service.ErrInvalidShippingMethod),
		errors.Is(err, service.ErrInvalidPaymentMethod),
		errors.Is(err, service.ErrInvalidAddress):
		httpStatus, code = http.StatusBadRequest, "invalid_argument"
	case errors.Is(err, service.ErrOrderNotFound), errors.Is(err, catalog.ErrProductNotFound):
		httpStatus, code = http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrNoPendingCheckout):
		httpStatus, code = http.StatusNotFound, "no_pending_checkout"
	case errors.Is(err, service.ErrDuplicateOrder), errors.Is(err, service.ErrDuplicateEmail):
		httpStatus, code = http.StatusConflict, "already_exists"
	case errors.Is(err, service.ErrIllegalTransition):
		httpStatus, code = http.StatusConflict, "illegal_transition"
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrNotAuthenticated):
		httpStatus, code = http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, service.ErrUnknownRole):
		httpStatus, code = http.StatusBadRequest, "unknown_role"
	case errors.Is(err, service.ErrPaymentDeclined):
		httpStatus, code = http.StatusPaymentRequired, "payment_declined"
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	respondError(w, httpStatus, code, err.Error())
}

package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/service"
	"github.com/go-playground/validator/v10"
)

type AuthHandler struct {
	auth     *service.AuthService
	validate *validator.Validate
	timeout  time.Duration
}

func NewAuthHandler(auth *service.AuthService, validate *validator.Validate, timeout time.Duration) *AuthHandler {
	return &AuthHandler{auth: auth, validate: validate, timeout: timeout}
}

type LoginRequestDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=20"`
}

type RegisterRequestDTO struct {
	FullName string `json:"fullName" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=20,containsany=ABCDEFGHIJKLMNOPQRSTUVWXYZ,containsany=0123456789"`
}

type QuickLoginRequestDTO struct {
	Role domain.Role `json:"role" validate:"required,oneof=admin user"`
}

// POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req LoginRequestDTO
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	res, err := h.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req RegisterRequestDTO
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	res, err := h.auth.Register(ctx, req.FullName, req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, res)
}

// POST /api/v1/auth/quick-login
func (h *AuthHandler) QuickLogin(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req QuickLoginRequestDTO
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	res, err := h.auth.QuickLogin(ctx, req.Role)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.auth.Logout(ctx); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, _ *http.Request) {
	user, ok := h.auth.CurrentUser()
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}
	respondJSON(w, http.StatusOK, service.AuthResult{User: user, Role: user.Role})
}

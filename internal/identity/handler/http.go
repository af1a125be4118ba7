// Package handler exposes tenant user authentication over HTTP.
package handler

import (
	"errors"
	"net/http"
	"time"

	"society-shield/backend/internal/httpx"
	"society-shield/backend/internal/identity/service"
)

// AuthHandler serves /api/v1/auth.
type AuthHandler struct {
	svc *service.AuthService
}

// NewAuthHandler returns an AuthHandler backed by svc.
func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=256"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required,max=4096"`
}

type changePasswordRequest struct {
	CurrentPassword    string `json:"currentPassword" validate:"required"`
	NewPassword        string `json:"newPassword" validate:"required"`
	ConfirmNewPassword string `json:"confirmNewPassword" validate:"required"`
}

// Login handles POST /login. A malformed body is still a 400; everything the service
// rejects is the uniform invalid-credentials 401.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	res, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tokenResponse(res))
}

// Refresh handles POST /refresh.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	res, err := h.svc.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tokenResponse(res))
}

// ChangePassword handles POST /change-password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	err := h.svc.ChangePassword(r.Context(), service.ChangePasswordRequest{
		CurrentPassword:    req.CurrentPassword,
		NewPassword:        req.NewPassword,
		ConfirmNewPassword: req.ConfirmNewPassword,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.InvalidCredentials(w)
	case errors.Is(err, service.ErrInvalidRefreshToken):
		httpx.Unauthorized(w, "unauthorized")
	case errors.Is(err, service.ErrPasswordMismatch), errors.Is(err, service.ErrCurrentPasswordIncorrect),
		errors.Is(err, service.ErrPasswordReused):
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeBadRequest, err.Error(), nil)
	default:
		httpx.Error(w, r, err)
	}
}

func tokenResponse(res *service.AuthResult) httpx.TokenResponse {
	return httpx.NewTokenResponse(res.AccessToken, res.RefreshToken, time.Duration(res.ExpiresIn)*time.Second)
}

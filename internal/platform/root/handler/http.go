// Package handler exposes the root account operations over HTTP.
package handler

import (
	"errors"
	"net/http"
	"time"

	"society-shield/backend/internal/httpx"
	"society-shield/backend/internal/platform/root"
)

// Handler serves /api/v1/root.
type Handler struct {
	svc *root.Service
}

// NewHandler returns a Handler backed by svc.
func NewHandler(svc *root.Service) *Handler {
	return &Handler{svc: svc}
}

type loginRequest struct {
	LoginID  string `json:"loginId" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=256"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required,max=4096"`
}

type changePasswordRequest struct {
	NewPassword        string `json:"newPassword" validate:"required"`
	ConfirmNewPassword string `json:"confirmNewPassword" validate:"required"`
	Email              string `json:"email" validate:"required,email,max=254"`
	Mobile             string `json:"mobile" validate:"required,max=32"`
}

type onboardRequest struct {
	SocietyName    string `json:"societyName" validate:"required,max=200"`
	SocietyAddress string `json:"societyAddress" validate:"max=500"`
	AdminName      string `json:"adminName" validate:"required,max=200"`
	AdminEmail     string `json:"adminEmail" validate:"required,email,max=254"`
	AdminPhone     string `json:"adminPhone" validate:"max=32"`
	AdminPassword  string `json:"adminPassword" validate:"required"`
}

type onboardResponse struct {
	TenantID    string `json:"tenantId"`
	AdminUserID string `json:"adminUserId"`
	AdminEmail  string `json:"adminEmail"`
}

// Login handles POST /login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	res, err := h.svc.Login(r.Context(), req.LoginID, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tokenResponse(res))
}

// Refresh handles POST /refresh.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	res, err := h.svc.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tokenResponse(res))
}

// ChangePassword handles POST /change-password. All root tokens issued before the
// change stop working.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	err := h.svc.ChangePassword(r.Context(), root.ChangePasswordRequest{
		NewPassword:        req.NewPassword,
		ConfirmNewPassword: req.ConfirmNewPassword,
		Email:              req.Email,
		Mobile:             req.Mobile,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// OnboardSociety handles POST /societies.
func (h *Handler) OnboardSociety(w http.ResponseWriter, r *http.Request) {
	var req onboardRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	res, err := h.svc.OnboardSociety(r.Context(), root.OnboardRequest{
		SocietyName:    req.SocietyName,
		SocietyAddress: req.SocietyAddress,
		AdminName:      req.AdminName,
		AdminEmail:     req.AdminEmail,
		AdminPhone:     req.AdminPhone,
		AdminPassword:  req.AdminPassword,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, onboardResponse{
		TenantID:    res.TenantID,
		AdminUserID: res.AdminUserID,
		AdminEmail:  res.AdminEmail,
	})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, root.ErrInvalidCredentials):
		httpx.InvalidCredentials(w)
	case errors.Is(err, root.ErrUnauthorized):
		httpx.Unauthorized(w, "unauthorized")
	case errors.Is(err, root.ErrPasswordMismatch),
		errors.Is(err, root.ErrPasswordReused),
		errors.Is(err, root.ErrContactVerification),
		errors.Is(err, root.ErrPasswordChangeRequired):
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeBadRequest, err.Error(), nil)
	default:
		httpx.Error(w, r, err)
	}
}

func tokenResponse(res *root.AuthResult) httpx.TokenResponse {
	out := httpx.NewTokenResponse(res.AccessToken, res.RefreshToken, time.Duration(res.ExpiresIn)*time.Second)
	changeRequired := res.PasswordChangeRequired
	out.PasswordChangeRequired = &changeRequired
	return out
}

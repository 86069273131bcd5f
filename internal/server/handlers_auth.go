package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/common"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// handleAuthRegister handles POST /api/auth/register.
func (s *Server) handleAuthRegister(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req credentialsRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	user, err := s.identity.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrLedgerUnavailable) {
			writeDomainError(w, err)
			return
		}
		status := http.StatusBadRequest
		if strings.Contains(err.Error(), "already taken") {
			status = http.StatusConflict
		}
		WriteError(w, status, err.Error())
		return
	}

	token, err := s.identity.IssueToken(user)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]string{
		"username": user.Username,
		"tier":     user.Tier,
		"token":    token,
	})
}

// handleAuthLogin handles POST /api/auth/login.
func (s *Server) handleAuthLogin(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req credentialsRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	user, err := s.identity.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	token, err := s.identity.IssueToken(user)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	quotaStatus, _ := s.quota.Status(r.Context(), user.Username)

	WriteJSON(w, http.StatusOK, map[string]string{
		"username":     user.Username,
		"tier":         user.Tier,
		"token":        token,
		"quota_status": quotaStatus,
	})
}

// handleAuthUpgrade handles POST /api/auth/upgrade — moves the caller to the
// pro tier. Effective immediately: the next quota check sees the new tier.
func (s *Server) handleAuthUpgrade(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	id := requireIdentity(w, r)
	if id == nil {
		return
	}

	if err := s.quota.UpgradeTier(r.Context(), id.Username); err != nil {
		writeDomainError(w, err)
		return
	}

	quotaStatus, _ := s.quota.Status(r.Context(), id.Username)

	WriteJSON(w, http.StatusOK, map[string]string{
		"username":     id.Username,
		"tier":         "pro",
		"quota_status": quotaStatus,
	})
}

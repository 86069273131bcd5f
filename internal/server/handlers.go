package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/common"
)

// writeDomainError maps service error sentinels to HTTP responses. This is
// the single place where engine failures become user-facing JSON.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrAccessDenied):
		WriteError(w, http.StatusUnauthorized, "access denied")
	case errors.Is(err, common.ErrQuotaExceeded):
		WriteError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, common.ErrProviderUnavailable):
		WriteError(w, http.StatusBadGateway, "The assistant is temporarily unavailable. Please try again.")
	case errors.Is(err, common.ErrUnknownTool):
		WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrLedgerUnavailable):
		WriteError(w, http.StatusServiceUnavailable, "Account service is temporarily unavailable. Please try again.")
	case errors.Is(err, context.DeadlineExceeded):
		WriteError(w, http.StatusGatewayTimeout, "The request timed out. Please try again.")
	default:
		WriteError(w, http.StatusInternalServerError, err.Error())
	}
}

// requireIdentity returns the authenticated identity or writes a 401.
func requireIdentity(w http.ResponseWriter, r *http.Request) *common.Identity {
	id := common.IdentityFromContext(r.Context())
	if id == nil {
		WriteError(w, http.StatusUnauthorized, "authentication required")
		return nil
	}
	return id
}

// handleHealth handles GET /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}

	market := "unconfigured"
	if s.market != nil {
		market = s.market.Status(r.Context())
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "ok",
		"market":     market,
		"uptime_sec": int(time.Since(s.startup).Seconds()),
	})
}

// handleVersion handles GET /api/version.
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}

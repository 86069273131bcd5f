package server

import (
	"net/http"
	"strings"

	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/models"
)

type chatTurnRequest struct {
	Message string `json:"message"`
}

type chartResponse struct {
	Ticker  string `json:"ticker"`
	Caption string `json:"caption"`
	PNG     []byte `json:"png"` // base64 in JSON
}

type chatTurnResponse struct {
	Text        string         `json:"text"`
	Chart       *chartResponse `json:"chart,omitempty"`
	QuotaStatus string         `json:"quota_status"`
}

// handleChatTurn handles POST /api/chat/turn — one full conversation turn.
//
// Order matters: the quota gate runs before any provider work, and usage is
// incremented exactly once, only after the turn fully succeeds. A failed
// provider round trip therefore never burns quota.
func (s *Server) handleChatTurn(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	id := requireIdentity(w, r)
	if id == nil {
		return
	}

	var req chatTurnRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		WriteError(w, http.StatusBadRequest, "message is required")
		return
	}

	allowed, quotaStatus, err := s.quota.CheckAvailable(r.Context(), id.Username)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !allowed {
		WriteJSON(w, http.StatusTooManyRequests, ErrorResponse{
			Error:       quotaStatus,
			QuotaStatus: quotaStatus,
		})
		return
	}

	result, err := s.chat.SendTurn(r.Context(), id.Username, message)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	// The turn succeeded; this is the single increment for it. A failure
	// here means the user got a free answer, which beats charging for a
	// failure.
	if err := s.quota.IncrementUsage(r.Context(), id.Username); err != nil {
		s.logger.Warn().Str("username", id.Username).Err(err).Msg("Failed to record quota usage")
	}

	quotaStatus, _ = s.quota.Status(r.Context(), id.Username)

	WriteJSON(w, http.StatusOK, chatTurnResponse{
		Text:        result.Text,
		Chart:       toChartResponse(result.Chart),
		QuotaStatus: quotaStatus,
	})
}

func toChartResponse(chart *models.Chart) *chartResponse {
	if chart == nil {
		return nil
	}
	return &chartResponse{Ticker: chart.Ticker, Caption: chart.Caption, PNG: chart.PNG}
}

// handleChatHistory handles GET /api/chat/history. Reading history is free:
// it works even when the daily quota is exhausted.
func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	id := requireIdentity(w, r)
	if id == nil {
		return
	}

	history, err := s.chat.History(r.Context(), id.Username)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"username": id.Username,
		"messages": history,
	})
}

// handleChatReset handles POST /api/chat/reset.
func (s *Server) handleChatReset(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	id := requireIdentity(w, r)
	if id == nil {
		return
	}

	if err := s.chat.Reset(r.Context(), id.Username); err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// handleQuota handles GET /api/quota.
func (s *Server) handleQuota(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	id := requireIdentity(w, r)
	if id == nil {
		return
	}

	status, err := s.quota.Status(r.Context(), id.Username)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"username":     id.Username,
		"tier":         id.Tier,
		"quota_status": status,
	})
}

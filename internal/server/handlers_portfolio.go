package server

import (
	"net/http"
	"strings"

	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/models"
)

type addHoldingRequest struct {
	Symbol   string  `json:"symbol"`
	Quantity float64 `json:"quantity"`
	BuyPrice float64 `json:"buy_price"`
	Currency string  `json:"currency"`
}

type removeHoldingRequest struct {
	Symbol string `json:"symbol"`
}

// handlePortfolioHoldings handles /api/portfolio/holdings:
// GET lists holdings, POST adds one, DELETE removes one by symbol.
func (s *Server) handlePortfolioHoldings(w http.ResponseWriter, r *http.Request) {
	id := requireIdentity(w, r)
	if id == nil {
		return
	}

	switch r.Method {
	case http.MethodGet:
		data, err := s.portfolio.Holdings(r.Context(), id.Username)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, data)

	case http.MethodPost:
		var req addHoldingRequest
		if !DecodeJSON(w, r, &req) {
			return
		}

		symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
		if symbol == "" {
			WriteError(w, http.StatusBadRequest, "symbol is required")
			return
		}
		if req.Quantity <= 0 || req.BuyPrice <= 0 {
			WriteError(w, http.StatusBadRequest, "quantity and buy_price must be positive")
			return
		}
		currency := strings.ToUpper(strings.TrimSpace(req.Currency))
		if currency != models.CurrencyIDR && currency != models.CurrencyUSD {
			// Jakarta-listed symbols default to IDR, everything else to USD.
			currency = models.CurrencyUSD
			if strings.HasSuffix(symbol, ".JK") {
				currency = models.CurrencyIDR
			}
		}

		data, err := s.portfolio.Holdings(r.Context(), id.Username)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		data.Portfolio = append(data.Portfolio, models.Holding{
			Symbol:   symbol,
			Quantity: req.Quantity,
			BuyPrice: req.BuyPrice,
			Currency: currency,
		})
		if err := s.portfolio.SaveHoldings(r.Context(), id.Username, data); err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusCreated, data)

	case http.MethodDelete:
		var req removeHoldingRequest
		if !DecodeJSON(w, r, &req) {
			return
		}

		symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
		if symbol == "" {
			WriteError(w, http.StatusBadRequest, "symbol is required")
			return
		}

		data, err := s.portfolio.Holdings(r.Context(), id.Username)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		kept := data.Portfolio[:0]
		removed := false
		for _, h := range data.Portfolio {
			if strings.EqualFold(h.Symbol, symbol) {
				removed = true
				continue
			}
			kept = append(kept, h)
		}
		if !removed {
			WriteError(w, http.StatusNotFound, "holding not found: "+symbol)
			return
		}
		data.Portfolio = kept

		if err := s.portfolio.SaveHoldings(r.Context(), id.Username, data); err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, data)

	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost, http.MethodDelete)
	}
}

// handlePortfolioValue handles GET /api/portfolio/value.
func (s *Server) handlePortfolioValue(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	id := requireIdentity(w, r)
	if id == nil {
		return
	}

	valuation, err := s.portfolio.Valuation(r.Context(), id.Username)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, valuation)
}

// handlePortfolioChart handles GET /api/portfolio/chart and responds with a
// rendered PNG rather than JSON.
func (s *Server) handlePortfolioChart(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	id := requireIdentity(w, r)
	if id == nil {
		return
	}

	chart, err := s.portfolio.GrowthChart(r.Context(), id.Username)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(chart.PNG)
}

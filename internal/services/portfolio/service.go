// Package portfolio values user holdings and renders portfolio views.
package portfolio

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/common"
	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/interfaces"
	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/models"
)

// Service implements interfaces.PortfolioService.
type Service struct {
	store  interfaces.PortfolioStore
	market interfaces.MarketDataClient
	logger *common.Logger
}

// NewService creates a portfolio service.
func NewService(store interfaces.PortfolioStore, market interfaces.MarketDataClient, logger *common.Logger) *Service {
	return &Service{store: store, market: market, logger: logger}
}

// Holdings returns the stored watchlist and holdings for a user.
func (s *Service) Holdings(ctx context.Context, username string) (*models.UserData, error) {
	return s.store.Load(username)
}

// SaveHoldings replaces the stored data for a user.
func (s *Service) SaveHoldings(ctx context.Context, username string, data *models.UserData) error {
	return s.store.Save(username, data)
}

// Valuation prices every holding at its last close and derives per-holding
// and per-currency totals. Derived values are never stored. Holdings whose
// symbol fails to price are marked rather than dropped so totals stay honest.
func (s *Service) Valuation(ctx context.Context, username string) (*models.PortfolioValuation, error) {
	data, err := s.store.Load(username)
	if err != nil {
		return nil, err
	}

	valuation := &models.PortfolioValuation{
		Items:  make([]models.HoldingValuation, 0, len(data.Portfolio)),
		Totals: make(map[string]models.CurrencyTotal),
	}
	if len(data.Portfolio) == 0 {
		return valuation, nil
	}

	symbols := make([]string, 0, len(data.Portfolio))
	seen := make(map[string]bool)
	for _, h := range data.Portfolio {
		if !seen[h.Symbol] {
			seen[h.Symbol] = true
			symbols = append(symbols, h.Symbol)
		}
	}

	prices, err := s.market.BatchLastClose(ctx, symbols)
	if err != nil {
		return nil, fmt.Errorf("failed to price portfolio: %w", err)
	}

	for _, h := range data.Portfolio {
		item := models.HoldingValuation{
			Symbol:   h.Symbol,
			Quantity: h.Quantity,
			BuyPrice: h.BuyPrice,
			Currency: h.Currency,
			Invested: h.Quantity * h.BuyPrice,
		}

		price, ok := prices[h.Symbol]
		if !ok || price == 0 {
			item.PriceError = true
			valuation.Items = append(valuation.Items, item)
			continue
		}

		item.CurrentPrice = price
		item.CurrentValue = h.Quantity * price
		item.GainLoss = item.CurrentValue - item.Invested
		if item.Invested != 0 {
			item.GainPct = item.GainLoss / item.Invested * 100
		}
		valuation.Items = append(valuation.Items, item)

		total := valuation.Totals[h.Currency]
		total.Invested += item.Invested
		total.Value += item.CurrentValue
		valuation.Totals[h.Currency] = total
	}

	return valuation, nil
}

// ContextString renders the valuation as plain text for prompt injection.
// Failures degrade to an empty string so a pricing outage never blocks a
// conversation turn.
func (s *Service) ContextString(ctx context.Context, username string) string {
	valuation, err := s.Valuation(ctx, username)
	if err != nil {
		s.logger.Warn().Str("username", username).Err(err).Msg("Portfolio context unavailable")
		return ""
	}
	if len(valuation.Items) == 0 {
		return "The user's portfolio is currently empty."
	}

	var sb strings.Builder
	sb.WriteString("The user's current portfolio:\n")
	for _, item := range valuation.Items {
		if item.PriceError {
			fmt.Fprintf(&sb, "- %s: %.2f shares at buy price %.2f %s (current price unavailable)\n",
				item.Symbol, item.Quantity, item.BuyPrice, item.Currency)
			continue
		}
		fmt.Fprintf(&sb, "- %s: %.2f shares, invested %.2f %s, current value %.2f %s (%+.2f%%)\n",
			item.Symbol, item.Quantity, item.Invested, item.Currency,
			item.CurrentValue, item.Currency, item.GainPct)
	}
	for currency, total := range valuation.Totals {
		fmt.Fprintf(&sb, "Total %s: invested %.2f, current %.2f\n", currency, total.Invested, total.Value)
	}
	return sb.String()
}

// GrowthChart renders portfolio value against total cost over the last six
// months as a PNG.
func (s *Service) GrowthChart(ctx context.Context, username string) (*models.Chart, error) {
	data, err := s.store.Load(username)
	if err != nil {
		return nil, err
	}
	if len(data.Portfolio) == 0 {
		return nil, fmt.Errorf("portfolio is empty")
	}

	points, err := s.growthSeries(ctx, data.Portfolio)
	if err != nil {
		return nil, err
	}

	png, err := RenderGrowthChart(points)
	if err != nil {
		return nil, err
	}
	return &models.Chart{
		Caption: "Portfolio value vs. total cost, last 6 months",
		PNG:     png,
	}, nil
}

// growthSeries derives daily portfolio value points over six months. Symbols
// whose history cannot be fetched are skipped; dates missing a bar carry the
// previous known price forward.
func (s *Service) growthSeries(ctx context.Context, holdings []models.Holding) ([]GrowthPoint, error) {
	totalCost := 0.0
	type priced struct {
		quantity float64
		bars     []models.EODBar
	}

	var series []priced
	for _, h := range holdings {
		totalCost += h.Quantity * h.BuyPrice
		bars, err := s.market.Bars(ctx, h.Symbol, "6mo")
		if err != nil {
			s.logger.Warn().Str("symbol", h.Symbol).Err(err).Msg("Skipping symbol in growth chart")
			continue
		}
		series = append(series, priced{quantity: h.Quantity, bars: bars})
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("no price history available for any holding")
	}

	// Anchor the timeline on the longest history, oldest-first.
	longest := series[0].bars
	for _, p := range series[1:] {
		if len(p.bars) > len(longest) {
			longest = p.bars
		}
	}

	points := make([]GrowthPoint, 0, len(longest))
	for i := len(longest) - 1; i >= 0; i-- {
		date := longest[i].Date
		total := 0.0
		for _, p := range series {
			total += p.quantity * closeOn(p.bars, date)
		}
		points = append(points, GrowthPoint{Date: date, TotalValue: total, TotalCost: totalCost})
	}
	return points, nil
}

// closeOn returns the close on the given date, or the most recent close
// before it (bars are newest-first).
func closeOn(bars []models.EODBar, date time.Time) float64 {
	for _, bar := range bars {
		if !bar.Date.After(date) {
			return bar.Close
		}
	}
	// Date precedes all history: use the oldest close available.
	if len(bars) > 0 {
		return bars[len(bars)-1].Close
	}
	return 0
}

// Ensure Service implements PortfolioService
var _ interfaces.PortfolioService = (*Service)(nil)

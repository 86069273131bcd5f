package models

// Currencies a holding can be denominated in.
const (
	CurrencyIDR = "IDR"
	CurrencyUSD = "USD"
)

// Holding is one position in a user's portfolio. Valuation fields are derived
// on demand and never stored.
type Holding struct {
	Symbol   string  `json:"symbol"`
	Quantity float64 `json:"quantity"`
	BuyPrice float64 `json:"buy_price"`
	Currency string  `json:"currency"`
}

// UserData is the per-user portfolio file schema.
type UserData struct {
	Watchlist []string  `json:"watchlist"`
	Portfolio []Holding `json:"portfolio"`
}

// HoldingValuation is a priced holding with derived metrics.
type HoldingValuation struct {
	Symbol       string  `json:"symbol"`
	Quantity     float64 `json:"quantity"`
	BuyPrice     float64 `json:"buy_price"`
	CurrentPrice float64 `json:"current_price"`
	Invested     float64 `json:"invested"`
	CurrentValue float64 `json:"current_value"`
	GainLoss     float64 `json:"gain_loss"`
	GainPct      float64 `json:"gain_pct"`
	Currency     string  `json:"currency"`
	PriceError   bool    `json:"price_error"`
}

// CurrencyTotal aggregates invested and current value for one currency.
type CurrencyTotal struct {
	Invested float64 `json:"invested"`
	Value    float64 `json:"value"`
}

// PortfolioValuation is the full derived view over a user's holdings.
type PortfolioValuation struct {
	Items  []HoldingValuation       `json:"items"`
	Totals map[string]CurrencyTotal `json:"totals"` // keyed by currency
}

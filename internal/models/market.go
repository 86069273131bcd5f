package models

import "time"

// EODBar is one daily price bar. Bars are ordered newest-first, matching how
// indicator calculations walk them.
type EODBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Fundamentals holds the key valuation metrics surfaced by the fundamentals tool.
type Fundamentals struct {
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	MarketCap float64 `json:"market_cap"`
	PE        float64 `json:"pe"`
	EPS       float64 `json:"eps"`
	PBV       float64 `json:"pbv"`
}

// TapeEntry is one ticker-tape quote on the dashboard.
type TapeEntry struct {
	Name      string  `json:"name"`
	Symbol    string  `json:"symbol"`
	Value     float64 `json:"value"`
	ChangePct float64 `json:"change"`
}

// Mover is one weekly top mover on the dashboard.
type Mover struct {
	Symbol    string  `json:"symbol"`
	ChangePct float64 `json:"change_pct"`
}

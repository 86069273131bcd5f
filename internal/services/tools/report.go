package tools

import (
	"fmt"
	"strings"

	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/models"
	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/signals"
)

// BuildRecommendationReport assembles the swing-trade analysis text for a
// ticker from its price history and optional recent headlines.
func BuildRecommendationReport(ticker string, bars []models.EODBar, articles []models.Article) string {
	price := bars[0].Close
	ma20 := signals.SMA(bars, 20)
	ma50 := signals.SMA(bars, 50)
	cross := signals.DetectCrossover(bars, 20, 50)
	rsi := signals.RSI(bars, 14)
	volumeRatio := signals.VolumeRatio(bars, 20)
	atr := signals.ATR(bars, 14)
	fib382, fib500, fib618 := signals.FibRetracements(bars, 90)
	high20 := signals.HighestClose(bars[1:], 20)
	breakout := signals.IsBreakout(bars, 20)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Swing-trade analysis for %s (last close %.2f)\n\n", ticker, price)

	// Trend
	trend := "sideways"
	if ma20 > ma50 && price > ma20 {
		trend = "uptrend"
	} else if ma20 < ma50 && price < ma20 {
		trend = "downtrend"
	}
	fmt.Fprintf(&sb, "Trend: %s (MA20 %.2f vs MA50 %.2f)", trend, ma20, ma50)
	switch cross {
	case "golden_cross":
		sb.WriteString(" — fresh golden cross, bullish momentum signal")
	case "death_cross":
		sb.WriteString(" — fresh death cross, bearish momentum signal")
	}
	sb.WriteString("\n")

	// Breakout / pullback
	if breakout {
		fmt.Fprintf(&sb, "Breakout: price cleared the 20-day high of %.2f\n", high20)
	} else {
		fmt.Fprintf(&sb, "No breakout: 20-day high sits at %.2f (%.1f%% above close)\n",
			high20, (high20/price-1)*100)
	}

	// Momentum
	fmt.Fprintf(&sb, "Momentum: RSI(14) %.1f (%s), volume %.1fx the 20-day average (%s)\n",
		rsi, signals.ClassifyRSI(rsi), volumeRatio, signals.ClassifyVolume(volumeRatio))

	// Levels
	fmt.Fprintf(&sb, "Fibonacci retracements (90-day range): 38.2%% %.2f, 50%% %.2f, 61.8%% %.2f\n",
		fib382, fib500, fib618)
	fmt.Fprintf(&sb, "Suggested stop loss: %.2f (last close minus 2x ATR(14) %.2f)\n",
		price-2*atr, atr)

	// News
	if len(articles) > 0 {
		sb.WriteString("\nRecent headlines:\n")
		for i, a := range articles {
			fmt.Fprintf(&sb, "%d. %s (%s)\n", i+1, a.Title, a.Source)
		}
	}

	sb.WriteString("\nInterpret the indicators above as a swing-trade analyst: weigh trend, " +
		"momentum and breakout together, flag conflicting signals, and state clearly that " +
		"this is analysis, not financial advice.")

	return sb.String()
}

// FormatValuationReport renders a portfolio valuation as display text with
// per-currency totals.
func FormatValuationReport(v *models.PortfolioValuation) string {
	var sb strings.Builder
	sb.WriteString("Portfolio valuation at current prices:\n")

	for _, item := range v.Items {
		if item.PriceError {
			fmt.Fprintf(&sb, "- %s: %.2f shares, price unavailable\n", item.Symbol, item.Quantity)
			continue
		}
		fmt.Fprintf(&sb, "- %s: %.2f shares, invested %.2f %s, now %.2f %s (%+.2f, %+.2f%%)\n",
			item.Symbol, item.Quantity,
			item.Invested, item.Currency,
			item.CurrentValue, item.Currency,
			item.GainLoss, item.GainPct)
	}

	for _, currency := range []string{models.CurrencyIDR, models.CurrencyUSD} {
		total, ok := v.Totals[currency]
		if !ok {
			continue
		}
		gain := total.Value - total.Invested
		pct := 0.0
		if total.Invested != 0 {
			pct = gain / total.Invested * 100
		}
		fmt.Fprintf(&sb, "Total (%s): invested %.2f, current %.2f (%+.2f, %+.2f%%)\n",
			currency, total.Invested, total.Value, gain, pct)
	}

	return sb.String()
}

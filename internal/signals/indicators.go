// Package signals provides technical indicator calculations.
// All functions take daily bars ordered newest-first.
package signals

import (
	"math"

	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/models"
)

// SMA calculates Simple Moving Average over the most recent period bars.
func SMA(bars []models.EODBar, period int) float64 {
	if period <= 0 || len(bars) < period {
		return 0
	}

	sum := 0.0
	for i := 0; i < period; i++ {
		sum += bars[i].Close
	}
	return sum / float64(period)
}

// EMA calculates Exponential Moving Average, seeded with the SMA of the
// oldest period bars and smoothed forward to the newest bar.
func EMA(bars []models.EODBar, period int) float64 {
	if period <= 0 || len(bars) < period {
		return 0
	}

	multiplier := 2.0 / float64(period+1)
	ema := SMA(bars[len(bars)-period:], period)

	for i := len(bars) - period - 1; i >= 0; i-- {
		ema = (bars[i].Close-ema)*multiplier + ema
	}
	return ema
}

// emaSeries returns the EMA at each bar offset, newest-first, covering every
// offset where at least period bars of history exist.
func emaSeries(bars []models.EODBar, period int) []float64 {
	if period <= 0 || len(bars) < period {
		return nil
	}

	n := len(bars) - period + 1
	series := make([]float64, n)
	for offset := n - 1; offset >= 0; offset-- {
		series[offset] = EMA(bars[offset:], period)
	}
	return series
}

// RSI calculates Relative Strength Index over the given period.
func RSI(bars []models.EODBar, period int) float64 {
	if period <= 0 || len(bars) < period+1 {
		return 50 // neutral default
	}

	var gains, losses float64
	for i := 0; i < period; i++ {
		change := bars[i].Close - bars[i+1].Close
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	if avgLoss == 0 {
		return 100
	}

	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// MACD calculates Moving Average Convergence Divergence.
// Returns the MACD line, the signal line (EMA of the MACD line over
// signalPeriod), and the histogram.
func MACD(bars []models.EODBar, fastPeriod, slowPeriod, signalPeriod int) (float64, float64, float64) {
	if len(bars) < slowPeriod+signalPeriod {
		return 0, 0, 0
	}

	fastSeries := emaSeries(bars, fastPeriod)
	slowSeries := emaSeries(bars, slowPeriod)
	if len(slowSeries) < signalPeriod {
		return 0, 0, 0
	}

	// MACD line at each offset where the slow EMA exists, newest-first.
	macdSeries := make([]float64, len(slowSeries))
	shift := len(fastSeries) - len(slowSeries)
	for i := range slowSeries {
		macdSeries[i] = fastSeries[i+shift] - slowSeries[i]
	}

	macdLine := macdSeries[0]

	// Signal line: EMA of the MACD series, seeded with the SMA of its oldest
	// signalPeriod values.
	seed := 0.0
	for i := len(macdSeries) - signalPeriod; i < len(macdSeries); i++ {
		seed += macdSeries[i]
	}
	signalLine := seed / float64(signalPeriod)

	multiplier := 2.0 / float64(signalPeriod+1)
	for i := len(macdSeries) - signalPeriod - 1; i >= 0; i-- {
		signalLine = (macdSeries[i]-signalLine)*multiplier + signalLine
	}

	histogram := macdLine - signalLine
	return macdLine, signalLine, histogram
}

// ATR calculates Average True Range over the given period.
func ATR(bars []models.EODBar, period int) float64 {
	if period <= 0 || len(bars) < period+1 {
		return 0
	}

	trSum := 0.0
	for i := 0; i < period; i++ {
		high := bars[i].High
		low := bars[i].Low
		prevClose := bars[i+1].Close

		tr1 := high - low
		tr2 := math.Abs(high - prevClose)
		tr3 := math.Abs(low - prevClose)

		trSum += math.Max(tr1, math.Max(tr2, tr3))
	}
	return trSum / float64(period)
}

// AverageVolume calculates average volume over the most recent period bars.
func AverageVolume(bars []models.EODBar, period int) int64 {
	if period <= 0 || len(bars) < period {
		return 0
	}

	var sum int64
	for i := 0; i < period; i++ {
		sum += bars[i].Volume
	}
	return sum / int64(period)
}

// VolumeRatio calculates the latest volume as a ratio of the period average.
func VolumeRatio(bars []models.EODBar, period int) float64 {
	if len(bars) == 0 {
		return 1.0
	}

	avg := AverageVolume(bars, period)
	if avg == 0 {
		return 1.0
	}
	return float64(bars[0].Volume) / float64(avg)
}

// HighestClose returns the highest close over the most recent period bars.
func HighestClose(bars []models.EODBar, period int) float64 {
	if len(bars) < period {
		period = len(bars)
	}

	high := 0.0
	for i := 0; i < period; i++ {
		if bars[i].Close > high {
			high = bars[i].Close
		}
	}
	return high
}

// LowestClose returns the lowest close over the most recent period bars.
func LowestClose(bars []models.EODBar, period int) float64 {
	if len(bars) < period {
		period = len(bars)
	}
	if period == 0 {
		return 0
	}

	low := math.MaxFloat64
	for i := 0; i < period; i++ {
		if bars[i].Close < low {
			low = bars[i].Close
		}
	}
	return low
}

// FibRetracements returns the 38.2%, 50% and 61.8% retracement levels between
// the low and high of the most recent period bars.
func FibRetracements(bars []models.EODBar, period int) (fib382, fib500, fib618 float64) {
	high := HighestClose(bars, period)
	low := LowestClose(bars, period)
	span := high - low

	fib382 = high - span*0.382
	fib500 = high - span*0.5
	fib618 = high - span*0.618
	return fib382, fib500, fib618
}

// DetectCrossover detects SMA crossovers between short and long periods.
// Returns "golden_cross", "death_cross", or "none".
func DetectCrossover(bars []models.EODBar, shortPeriod, longPeriod int) string {
	if len(bars) < longPeriod+1 {
		return "none"
	}

	shortSMA := SMA(bars, shortPeriod)
	longSMA := SMA(bars, longPeriod)

	prevShortSMA := SMA(bars[1:], shortPeriod)
	prevLongSMA := SMA(bars[1:], longPeriod)

	if prevShortSMA <= prevLongSMA && shortSMA > longSMA {
		return "golden_cross"
	}
	if prevShortSMA >= prevLongSMA && shortSMA < longSMA {
		return "death_cross"
	}
	return "none"
}

// IsBreakout reports whether the latest close exceeds the highest close of
// the preceding period bars.
func IsBreakout(bars []models.EODBar, period int) bool {
	if len(bars) < period+1 {
		return false
	}
	return bars[0].Close > HighestClose(bars[1:], period)
}

// ClassifyRSI classifies an RSI value.
func ClassifyRSI(rsi float64) string {
	if rsi >= 70 {
		return "overbought"
	}
	if rsi <= 30 {
		return "oversold"
	}
	return "neutral"
}

// ClassifyVolume classifies the latest volume based on its ratio to average.
func ClassifyVolume(ratio float64) string {
	if ratio >= 2.0 {
		return "spike"
	}
	if ratio <= 0.5 {
		return "low"
	}
	return "normal"
}

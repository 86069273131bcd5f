package signals

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/models"
)

func TestSMA(t *testing.T) {
	tests := []struct {
		name     string
		bars     []models.EODBar
		period   int
		expected float64
	}{
		{
			name:     "simple 3-day SMA",
			bars:     generateBars([]float64{10, 20, 30}),
			period:   3,
			expected: 20.0,
		},
		{
			name:     "5-day SMA",
			bars:     generateBars([]float64{10, 20, 30, 40, 50}),
			period:   5,
			expected: 30.0,
		},
		{
			name:     "insufficient data",
			bars:     generateBars([]float64{10, 20}),
			period:   5,
			expected: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SMA(tt.bars, tt.period)
			assert.InDelta(t, tt.expected, result, 0.01)
		})
	}
}

func TestEMAConstantSeries(t *testing.T) {
	// EMA of a constant series equals the constant.
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 42
	}
	result := EMA(generateBars(closes), 10)
	assert.InDelta(t, 42.0, result, 0.001)
}

func TestRSI(t *testing.T) {
	tests := []struct {
		name   string
		bars   []models.EODBar
		period int
		minRSI float64
		maxRSI float64
	}{
		{
			name:   "uptrend should have high RSI",
			bars:   generateTrendBars(50, 1.0, 20),
			period: 14,
			minRSI: 60,
			maxRSI: 100,
		},
		{
			name:   "downtrend should have low RSI",
			bars:   generateTrendBars(50, -1.0, 20),
			period: 14,
			minRSI: 0,
			maxRSI: 40,
		},
		{
			name:   "insufficient data defaults to neutral",
			bars:   generateBars([]float64{10, 11}),
			period: 14,
			minRSI: 50,
			maxRSI: 50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := RSI(tt.bars, tt.period)
			assert.GreaterOrEqual(t, result, tt.minRSI)
			assert.LessOrEqual(t, result, tt.maxRSI)
		})
	}
}

func TestMACDSignalLine(t *testing.T) {
	// A constant series collapses every EMA to the constant, so the MACD
	// line, the signal line and the histogram are all zero.
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100
	}
	macd, signal, hist := MACD(generateBars(closes), 12, 26, 9)
	assert.InDelta(t, 0.0, macd, 0.001)
	assert.InDelta(t, 0.0, signal, 0.001)
	assert.InDelta(t, 0.0, hist, 0.001)
}

func TestMACDUptrendPositive(t *testing.T) {
	// In a steady uptrend the fast EMA sits above the slow EMA.
	macd, _, _ := MACD(generateTrendBars(200, 1.0, 60), 12, 26, 9)
	assert.Greater(t, macd, 0.0)
}

func TestMACDInsufficientData(t *testing.T) {
	macd, signal, hist := MACD(generateBars([]float64{10, 11, 12}), 12, 26, 9)
	assert.Equal(t, 0.0, macd)
	assert.Equal(t, 0.0, signal)
	assert.Equal(t, 0.0, hist)
}

func TestATR(t *testing.T) {
	// Identical bars with a fixed high-low span give ATR equal to the span.
	bars := make([]models.EODBar, 20)
	for i := range bars {
		bars[i] = models.EODBar{High: 105, Low: 100, Close: 102, Volume: 1000}
	}
	assert.InDelta(t, 5.0, ATR(bars, 14), 0.01)
}

func TestVolumeRatio(t *testing.T) {
	bars := make([]models.EODBar, 25)
	for i := 0; i < 25; i++ {
		bars[i] = models.EODBar{Close: 50, Volume: 1000000}
	}
	bars[0].Volume = 2000000

	ratio := VolumeRatio(bars, 20)
	assert.InDelta(t, 2.0, ratio, 0.1)
}

func TestFibRetracements(t *testing.T) {
	// Closes spanning 100..200 give well-known retracement levels.
	closes := make([]float64, 90)
	for i := range closes {
		closes[i] = 100 + float64(i)*(100.0/89.0)
	}
	fib382, fib500, fib618 := FibRetracements(generateBars(closes), 90)
	assert.InDelta(t, 161.8, fib382, 0.1)
	assert.InDelta(t, 150.0, fib500, 0.1)
	assert.InDelta(t, 138.2, fib618, 0.1)
}

func TestIsBreakout(t *testing.T) {
	tests := []struct {
		name     string
		closes   []float64
		period   int
		expected bool
	}{
		{
			name:     "new high over prior window",
			closes:   []float64{120, 110, 108, 109, 107, 105},
			period:   5,
			expected: true,
		},
		{
			name:     "below prior high",
			closes:   []float64{100, 110, 108, 109, 107, 105},
			period:   5,
			expected: false,
		},
		{
			name:     "insufficient data",
			closes:   []float64{100, 110},
			period:   5,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsBreakout(generateBars(tt.closes), tt.period))
		})
	}
}

func TestDetectCrossover(t *testing.T) {
	tests := []struct {
		name     string
		bars     []models.EODBar
		short    int
		long     int
		expected string
	}{
		{
			name:     "no crossover in flat market",
			bars:     generateBars([]float64{50, 50, 50, 50, 50, 50, 50, 50, 50, 50}),
			short:    3,
			long:     5,
			expected: "none",
		},
		{
			name: "golden cross on sharp rally",
			// Newest bar jumps after a long flat stretch, lifting the short
			// SMA above the long SMA this bar only.
			bars:     generateBars([]float64{80, 50, 50, 50, 50, 50, 50, 50, 50, 50}),
			short:    3,
			long:     5,
			expected: "golden_cross",
		},
		{
			name:     "death cross on sharp drop",
			bars:     generateBars([]float64{20, 50, 50, 50, 50, 50, 50, 50, 50, 50}),
			short:    3,
			long:     5,
			expected: "death_cross",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DetectCrossover(tt.bars, tt.short, tt.long)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestClassifyRSI(t *testing.T) {
	tests := []struct {
		rsi      float64
		expected string
	}{
		{75, "overbought"},
		{70, "overbought"},
		{50, "neutral"},
		{30, "oversold"},
		{25, "oversold"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyRSI(tt.rsi))
		})
	}
}

func TestClassifyVolume(t *testing.T) {
	tests := []struct {
		ratio    float64
		expected string
	}{
		{2.5, "spike"},
		{2.0, "spike"},
		{1.0, "normal"},
		{0.5, "low"},
		{0.3, "low"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyVolume(tt.ratio))
		})
	}
}

// Helper functions

func generateBars(closes []float64) []models.EODBar {
	bars := make([]models.EODBar, len(closes))
	for i, close := range closes {
		bars[i] = models.EODBar{
			Date:   time.Now().AddDate(0, 0, -i),
			Open:   close - 0.5,
			High:   close + 0.5,
			Low:    close - 0.5,
			Close:  close,
			Volume: 1000000,
		}
	}
	return bars
}

func generateTrendBars(startPrice, dailyChange float64, days int) []models.EODBar {
	bars := make([]models.EODBar, days)
	price := startPrice
	for i := 0; i < days; i++ {
		bars[i] = models.EODBar{
			Date:   time.Now().AddDate(0, 0, -i),
			Close:  price,
			Volume: 1000000,
		}
		price -= dailyChange // going back in time
	}
	return bars
}

package tools

import (
	"bytes"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/models"
	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/signals"
)

// RenderPriceChart renders a PNG close-price chart with SMA 20/50 overlays.
// Bars arrive newest-first; series are plotted oldest-first.
func RenderPriceChart(ticker string, bars []models.EODBar) ([]byte, error) {
	if len(bars) < 2 {
		return nil, fmt.Errorf("need at least 2 bars to plot, got %d", len(bars))
	}

	n := len(bars)
	xValues := make([]time.Time, n)
	closeY := make([]float64, n)
	for i, bar := range bars {
		// Reverse into chronological order.
		xValues[n-1-i] = bar.Date
		closeY[n-1-i] = bar.Close
	}

	series := []chart.Series{
		chart.TimeSeries{
			Name: "Close",
			Style: chart.Style{
				StrokeColor: drawing.ColorFromHex("2563eb"), // blue-600
				StrokeWidth: 2.0,
			},
			XValues: xValues,
			YValues: closeY,
		},
	}

	if sma20 := smaSeries(bars, 20); sma20 != nil {
		series = append(series, chart.TimeSeries{
			Name: "SMA 20",
			Style: chart.Style{
				StrokeColor: drawing.ColorFromHex("f59e0b"), // amber-500
				StrokeWidth: 1.5,
			},
			XValues: xValues[n-len(sma20):],
			YValues: sma20,
		})
	}
	if sma50 := smaSeries(bars, 50); sma50 != nil {
		series = append(series, chart.TimeSeries{
			Name: "SMA 50",
			Style: chart.Style{
				StrokeColor:     drawing.ColorFromHex("9ca3af"), // gray-400
				StrokeWidth:     1.5,
				StrokeDashArray: []float64{5.0, 3.0},
			},
			XValues: xValues[n-len(sma50):],
			YValues: sma50,
		})
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("%s Price", ticker),
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("Jan 06")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.2f", f)
				}
				return ""
			},
		},
		Series: series,
	}

	graph.Elements = []chart.Renderable{
		chart.LegendLeft(&graph),
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}

// smaSeries computes the rolling SMA at each chronological point where a full
// window exists, returned oldest-first to align with plotted x values.
func smaSeries(bars []models.EODBar, period int) []float64 {
	if len(bars) < period {
		return nil
	}

	n := len(bars) - period + 1
	series := make([]float64, n)
	for offset := 0; offset < n; offset++ {
		// offset counts back from the newest bar; chronological index is
		// mirrored.
		series[n-1-offset] = signals.SMA(bars[offset:], period)
	}
	return series
}

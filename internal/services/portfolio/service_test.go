package portfolio

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/common"
	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/models"
)

type memPortfolioStore struct {
	data map[string]*models.UserData
}

func (m *memPortfolioStore) Load(username string) (*models.UserData, error) {
	if d, ok := m.data[username]; ok {
		return d, nil
	}
	return &models.UserData{}, nil
}

func (m *memPortfolioStore) Save(username string, data *models.UserData) error {
	m.data[username] = data
	return nil
}

type fakeMarket struct {
	prices map[string]float64
	bars   map[string][]models.EODBar
}

func (f *fakeMarket) Bars(ctx context.Context, ticker, rangeSpec string) ([]models.EODBar, error) {
	if b, ok := f.bars[ticker]; ok {
		return b, nil
	}
	return nil, fmt.Errorf("no data for '%s'", ticker)
}

func (f *fakeMarket) LastClose(ctx context.Context, ticker string) (float64, error) {
	if p, ok := f.prices[ticker]; ok {
		return p, nil
	}
	return 0, fmt.Errorf("no price for '%s'", ticker)
}

func (f *fakeMarket) BatchLastClose(ctx context.Context, tickers []string) (map[string]float64, error) {
	result := make(map[string]float64)
	for _, t := range tickers {
		if p, ok := f.prices[t]; ok {
			result[t] = p
		}
	}
	return result, nil
}

func (f *fakeMarket) Fundamentals(ctx context.Context, ticker string) (*models.Fundamentals, error) {
	return nil, fmt.Errorf("not implemented")
}

func (f *fakeMarket) Status(ctx context.Context) string { return "ok" }

func barsFor(closes []float64) []models.EODBar {
	bars := make([]models.EODBar, len(closes))
	for i, c := range closes {
		bars[i] = models.EODBar{
			Date:  time.Now().AddDate(0, 0, -i),
			Close: c,
		}
	}
	return bars
}

func newTestService(data map[string]*models.UserData, market *fakeMarket) *Service {
	return NewService(&memPortfolioStore{data: data}, market, common.NewSilentLogger())
}

func TestValuationMixedCurrencies(t *testing.T) {
	svc := newTestService(map[string]*models.UserData{
		"alice": {
			Portfolio: []models.Holding{
				{Symbol: "BBCA.JK", Quantity: 100, BuyPrice: 9000, Currency: models.CurrencyIDR},
				{Symbol: "AAPL", Quantity: 10, BuyPrice: 150, Currency: models.CurrencyUSD},
			},
		},
	}, &fakeMarket{prices: map[string]float64{"BBCA.JK": 10000, "AAPL": 180}})

	v, err := svc.Valuation(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, v.Items, 2)

	bbca := v.Items[0]
	assert.Equal(t, 900000.0, bbca.Invested)
	assert.Equal(t, 1000000.0, bbca.CurrentValue)
	assert.InDelta(t, 11.11, bbca.GainPct, 0.01)

	idr := v.Totals[models.CurrencyIDR]
	assert.Equal(t, 900000.0, idr.Invested)
	assert.Equal(t, 1000000.0, idr.Value)

	usd := v.Totals[models.CurrencyUSD]
	assert.Equal(t, 1500.0, usd.Invested)
	assert.Equal(t, 1800.0, usd.Value)
}

func TestValuationMarksUnpriceableHoldings(t *testing.T) {
	svc := newTestService(map[string]*models.UserData{
		"alice": {
			Portfolio: []models.Holding{
				{Symbol: "GONE.JK", Quantity: 100, BuyPrice: 500, Currency: models.CurrencyIDR},
			},
		},
	}, &fakeMarket{prices: map[string]float64{}})

	v, err := svc.Valuation(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, v.Items, 1)
	assert.True(t, v.Items[0].PriceError)

	// Unpriceable holdings stay out of the totals.
	_, ok := v.Totals[models.CurrencyIDR]
	assert.False(t, ok)
}

func TestValuationEmptyPortfolio(t *testing.T) {
	svc := newTestService(map[string]*models.UserData{}, &fakeMarket{})

	v, err := svc.Valuation(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, v.Items)
	assert.Empty(t, v.Totals)
}

func TestContextStringDegradesGracefully(t *testing.T) {
	svc := newTestService(map[string]*models.UserData{}, &fakeMarket{})

	text := svc.ContextString(context.Background(), "nobody")
	assert.Equal(t, "The user's portfolio is currently empty.", text)
}

func TestContextStringRendersHoldings(t *testing.T) {
	svc := newTestService(map[string]*models.UserData{
		"alice": {
			Portfolio: []models.Holding{
				{Symbol: "BBCA.JK", Quantity: 100, BuyPrice: 9000, Currency: models.CurrencyIDR},
			},
		},
	}, &fakeMarket{prices: map[string]float64{"BBCA.JK": 10000}})

	text := svc.ContextString(context.Background(), "alice")
	assert.Contains(t, text, "BBCA.JK")
	assert.Contains(t, text, "Total IDR")
}

func TestGrowthChartRendersPNG(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(30-i)
	}
	svc := newTestService(map[string]*models.UserData{
		"alice": {
			Portfolio: []models.Holding{
				{Symbol: "AAPL", Quantity: 10, BuyPrice: 90, Currency: models.CurrencyUSD},
			},
		},
	}, &fakeMarket{bars: map[string][]models.EODBar{"AAPL": barsFor(closes)}})

	chart, err := svc.GrowthChart(context.Background(), "alice")
	require.NoError(t, err)
	require.NotNil(t, chart)
	assert.NotEmpty(t, chart.PNG)
}

func TestGrowthChartEmptyPortfolio(t *testing.T) {
	svc := newTestService(map[string]*models.UserData{}, &fakeMarket{})

	_, err := svc.GrowthChart(context.Background(), "nobody")
	assert.Error(t, err)
}

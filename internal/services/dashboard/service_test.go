package dashboard

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

type fakeMarket struct {
	bars map[string][]models.EODBar
}

func (f *fakeMarket) Bars(ctx context.Context, ticker, rangeSpec string) ([]models.EODBar, error) {
	if b, ok := f.bars[ticker]; ok {
		return b, nil
	}
	return nil, fmt.Errorf("no data for '%s'", ticker)
}

func (f *fakeMarket) LastClose(ctx context.Context, ticker string) (float64, error) {
	return 0, fmt.Errorf("not implemented")
}

func (f *fakeMarket) BatchLastClose(ctx context.Context, tickers []string) (map[string]float64, error) {
	return nil, fmt.Errorf("not implemented")
}

func (f *fakeMarket) Fundamentals(ctx context.Context, ticker string) (*models.Fundamentals, error) {
	return nil, fmt.Errorf("not implemented")
}

func (f *fakeMarket) Status(ctx context.Context) string { return "ok" }

type fakeNews struct {
	articles []models.Article
	fail     bool
}

func (f *fakeNews) TopBusinessHeadlines(ctx context.Context, limit int) ([]models.Article, error) {
	if f.fail {
		return nil, fmt.Errorf("news down")
	}
	return f.articles, nil
}

func (f *fakeNews) Everything(ctx context.Context, query string, limit int) ([]models.Article, error) {
	return f.articles, nil
}

func barsFromCloses(closes ...float64) []models.EODBar {
	bars := make([]models.EODBar, len(closes))
	for i, c := range closes {
		bars[i] = models.EODBar{Date: time.Now().AddDate(0, 0, -i), Close: c}
	}
	return bars
}

func TestTapeSkipsFailingSymbols(t *testing.T) {
	market := &fakeMarket{bars: map[string][]models.EODBar{
		"AAPL": barsFromCloses(110, 100),
		"NVDA": barsFromCloses(90, 100),
	}}
	svc := NewService(market, nil, common.NewSilentLogger())

	entries := svc.Tape(context.Background())
	require.Len(t, entries, 2)

	assert.Equal(t, "Apple", entries[0].Name)
	assert.InDelta(t, 10.0, entries[0].ChangePct, 0.01)
	assert.InDelta(t, -10.0, entries[1].ChangePct, 0.01)
}

func TestWeeklyMoversRanksTopGainers(t *testing.T) {
	market := &fakeMarket{bars: map[string][]models.EODBar{
		"AAA": barsFromCloses(120, 1, 1, 1, 1, 1, 100), // +20%
		"BBB": barsFromCloses(150, 1, 1, 1, 1, 1, 100), // +50%
		"CCC": barsFromCloses(90, 1, 1, 1, 1, 1, 100),  // -10%
		"DDD": barsFromCloses(105, 1, 1, 1, 1, 1, 100), // +5%
		"EEE": barsFromCloses(101, 1, 1, 1, 1, 1, 100), // +1%
		"FFF": barsFromCloses(100, 100),                // too short, skipped
	}}
	svc := NewService(market, nil, common.NewSilentLogger())

	movers := svc.WeeklyMovers(context.Background(), []string{"AAA", "BBB", "CCC", "DDD", "EEE", "FFF"})
	require.Len(t, movers, 4)
	assert.Equal(t, "BBB", movers[0].Symbol)
	assert.Equal(t, "AAA", movers[1].Symbol)
	assert.Equal(t, "DDD", movers[2].Symbol)
	assert.Equal(t, "EEE", movers[3].Symbol)
}

func TestHeadlinesCleansURLs(t *testing.T) {
	news := &fakeNews{articles: []models.Article{
		{Title: "one", URL: `https://example.com/a?id\u003d1\u0026x=2`},
		{Title: "two", URL: "https://example.com/b?q=1&ved=tracking&usg=junk"},
		{Title: "three", URL: "example.com/c"},
	}}
	svc := NewService(&fakeMarket{}, news, common.NewSilentLogger())

	articles, err := svc.Headlines(context.Background(), 4)
	require.NoError(t, err)
	require.Len(t, articles, 3)
	assert.Equal(t, "https://example.com/a?id=1&x=2", articles[0].URL)
	assert.Equal(t, "https://example.com/b?q=1", articles[1].URL)
	assert.Equal(t, "https://example.com/c", articles[2].URL)
}

func TestHeadlinesWithoutNewsClient(t *testing.T) {
	svc := NewService(&fakeMarket{}, nil, common.NewSilentLogger())

	articles, err := svc.Headlines(context.Background(), 4)
	require.NoError(t, err)
	assert.Empty(t, articles)
}

func TestCleanNewsURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: "#"},
		{name: "unicode escapes", in: `https://x.io/a\u003d1`, want: "https://x.io/a=1"},
		{name: "backslash equals", in: `https://x.io/a\=1`, want: "https://x.io/a=1"},
		{name: "ved tracking", in: "https://x.io/a?b=1&ved=xyz", want: "https://x.io/a?b=1"},
		{name: "missing protocol", in: "x.io/a", want: "https://x.io/a"},
		{name: "already clean", in: "https://x.io/a", want: "https://x.io/a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanNewsURL(tt.in))
		})
	}
}

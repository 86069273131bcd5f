// Package dashboard produces the market overview widgets: ticker tape,
// weekly movers and cleaned news headlines.
package dashboard

import (
	"context"
	"sort"
	"strings"

	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/common"
	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/interfaces"
	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/models"
)

// tapeSymbols maps the fixed ticker-tape symbols to display names.
var tapeSymbols = []struct {
	Symbol string
	Name   string
}{
	{"AAPL", "Apple"},
	{"NVDA", "NVIDIA"},
	{"MSFT", "Microsoft"},
	{"TSLA", "Tesla"},
	{"AMZN", "Amazon"},
	{"BBCA.JK", "BCA"},
	{"BBRI.JK", "BRI"},
	{"BMRI.JK", "Mandiri"},
	{"TLKM.JK", "Telkom"},
	{"ASII.JK", "Astra"},
}

// DefaultMoverCandidates is the pool scanned for weekly movers when the
// caller does not supply one.
var DefaultMoverCandidates = []string{
	"NVDA", "TSLA", "AAPL", "MSFT", "COIN",
	"BBCA.JK", "BBRI.JK", "BMRI.JK", "BBNI.JK", "BRIS.JK",
	"ADRO.JK", "UNTR.JK", "PTBA.JK", "PGAS.JK", "AKRA.JK",
	"ANTM.JK", "MDKA.JK", "INCO.JK", "TINS.JK",
	"GOTO.JK", "TLKM.JK", "ISAT.JK", "EXCL.JK",
	"ASII.JK", "ICBP.JK", "UNVR.JK", "AMRT.JK",
}

const topMovers = 4

// Service implements interfaces.DashboardService.
type Service struct {
	market interfaces.MarketDataClient
	news   interfaces.NewsClient // nil when no NewsAPI key is configured
	logger *common.Logger
}

// NewService creates a dashboard service.
func NewService(market interfaces.MarketDataClient, news interfaces.NewsClient, logger *common.Logger) *Service {
	return &Service{market: market, news: news, logger: logger}
}

// Tape returns day-over-day quotes for the fixed tape symbols. Symbols that
// fail to quote are skipped.
func (s *Service) Tape(ctx context.Context) []models.TapeEntry {
	entries := make([]models.TapeEntry, 0, len(tapeSymbols))
	for _, t := range tapeSymbols {
		bars, err := s.market.Bars(ctx, t.Symbol, "5d")
		if err != nil || len(bars) < 2 {
			continue
		}
		latest := bars[0].Close
		prev := bars[1].Close
		if prev == 0 {
			continue
		}
		entries = append(entries, models.TapeEntry{
			Name:      t.Name,
			Symbol:    t.Symbol,
			Value:     latest,
			ChangePct: (latest - prev) / prev * 100,
		})
	}
	return entries
}

// WeeklyMovers ranks candidates by their change over the last seven trading
// days and returns the top gainers. A nil symbol list scans the default pool.
func (s *Service) WeeklyMovers(ctx context.Context, symbols []string) []models.Mover {
	if len(symbols) == 0 {
		symbols = DefaultMoverCandidates
	}

	movers := make([]models.Mover, 0, len(symbols))
	for _, symbol := range symbols {
		bars, err := s.market.Bars(ctx, symbol, "1mo")
		if err != nil || len(bars) < 7 {
			continue
		}
		latest := bars[0].Close
		weekAgo := bars[6].Close
		if weekAgo == 0 {
			continue
		}
		movers = append(movers, models.Mover{
			Symbol:    symbol,
			ChangePct: (latest - weekAgo) / weekAgo * 100,
		})
	}

	sort.Slice(movers, func(i, j int) bool {
		return movers[i].ChangePct > movers[j].ChangePct
	})
	if len(movers) > topMovers {
		movers = movers[:topMovers]
	}
	return movers
}

// Headlines returns cleaned business headlines.
func (s *Service) Headlines(ctx context.Context, limit int) ([]models.Article, error) {
	if s.news == nil {
		return []models.Article{}, nil
	}

	articles, err := s.news.TopBusinessHeadlines(ctx, limit)
	if err != nil {
		return nil, err
	}
	for i := range articles {
		articles[i].URL = CleanNewsURL(articles[i].URL)
	}
	return articles, nil
}

// CleanNewsURL strips tracking parameters and broken escape sequences that
// aggregators leave in article links.
func CleanNewsURL(url string) string {
	if url == "" {
		return "#"
	}

	// Escape sequences surviving double encoding.
	url = strings.ReplaceAll(url, `\u003d`, "=")
	url = strings.ReplaceAll(url, `\u0026`, "&")
	url = strings.ReplaceAll(url, `\=`, "=")

	// Aggregator tracking params.
	if i := strings.Index(url, "&ved"); i >= 0 {
		url = url[:i]
	}
	if i := strings.Index(url, "&usg"); i >= 0 {
		url = url[:i]
	}

	if !strings.HasPrefix(url, "http") {
		url = "https://" + url
	}
	return url
}

// Ensure Service implements DashboardService
var _ interfaces.DashboardService = (*Service)(nil)

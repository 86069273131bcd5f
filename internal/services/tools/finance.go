package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/common"
	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/interfaces"
	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/models"
	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/signals"
)

// Deps carries the collaborators the financial tools call into.
type Deps struct {
	Market    interfaces.MarketDataClient
	News      interfaces.NewsClient // nil when no NewsAPI key is configured
	Provider  interfaces.ChatProvider
	Portfolio interfaces.PortfolioService
	Logger    *common.Logger
}

// NewFinanceRegistry builds the full analysis tool registry.
func NewFinanceRegistry(deps Deps) *Registry {
	descriptors := []ToolDescriptor{
		stockPriceTool(deps),
		smaTool(deps),
		emaTool(deps),
		rsiTool(deps),
		macdTool(deps),
		fundamentalsTool(deps),
		plotChartTool(deps),
		newsRelevanceTool(deps),
		myPortfolioTool(deps),
		recommendationTool(deps),
		portfolioAnalysisTool(deps),
	}
	return NewRegistry(deps.Logger, descriptors)
}

func tickerArg() models.ToolArg {
	return models.ToolArg{
		Name:        "ticker",
		Type:        models.ArgTypeString,
		Required:    true,
		Description: "Stock ticker symbol, e.g. AAPL or BBCA.JK",
	}
}

func windowArg() models.ToolArg {
	return models.ToolArg{
		Name:        "window",
		Type:        models.ArgTypeInteger,
		Required:    true,
		Description: "Lookback window in trading days",
	}
}

func requireTicker(args map[string]any) (string, error) {
	ticker := strings.ToUpper(strings.TrimSpace(argString(args, "ticker")))
	if ticker == "" {
		return "", fmt.Errorf("ticker is required")
	}
	return ticker, nil
}

func stockPriceTool(deps Deps) ToolDescriptor {
	return ToolDescriptor{
		Schema: models.ToolSchema{
			Name:        "get_stock_price",
			Description: "Get the latest closing price for a stock ticker.",
			Args:        []models.ToolArg{tickerArg()},
		},
		Invoke: func(ctx context.Context, args map[string]any) (string, error) {
			ticker, err := requireTicker(args)
			if err != nil {
				return "", err
			}
			price, err := deps.Market.LastClose(ctx, ticker)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("The latest closing price of %s is %.2f", ticker, price), nil
		},
	}
}

func smaTool(deps Deps) ToolDescriptor {
	return ToolDescriptor{
		Schema: models.ToolSchema{
			Name:        "calculate_sma",
			Description: "Calculate the simple moving average of a stock over a window of trading days.",
			Args:        []models.ToolArg{tickerArg(), windowArg()},
		},
		Invoke: func(ctx context.Context, args map[string]any) (string, error) {
			ticker, err := requireTicker(args)
			if err != nil {
				return "", err
			}
			window := argInt(args, "window", 20)
			bars, err := deps.Market.Bars(ctx, ticker, "1y")
			if err != nil {
				return "", err
			}
			sma := signals.SMA(bars, window)
			if sma == 0 {
				return "", fmt.Errorf("not enough history for a %d-day SMA of %s", window, ticker)
			}
			return fmt.Sprintf("The %d-day SMA of %s is %.2f", window, ticker, sma), nil
		},
	}
}

func emaTool(deps Deps) ToolDescriptor {
	return ToolDescriptor{
		Schema: models.ToolSchema{
			Name:        "calculate_ema",
			Description: "Calculate the exponential moving average of a stock over a window of trading days.",
			Args:        []models.ToolArg{tickerArg(), windowArg()},
		},
		Invoke: func(ctx context.Context, args map[string]any) (string, error) {
			ticker, err := requireTicker(args)
			if err != nil {
				return "", err
			}
			window := argInt(args, "window", 20)
			bars, err := deps.Market.Bars(ctx, ticker, "1y")
			if err != nil {
				return "", err
			}
			ema := signals.EMA(bars, window)
			if ema == 0 {
				return "", fmt.Errorf("not enough history for a %d-day EMA of %s", window, ticker)
			}
			return fmt.Sprintf("The %d-day EMA of %s is %.2f", window, ticker, ema), nil
		},
	}
}

func rsiTool(deps Deps) ToolDescriptor {
	return ToolDescriptor{
		Schema: models.ToolSchema{
			Name:        "calculate_rsi",
			Description: "Calculate the 14-day relative strength index of a stock.",
			Args:        []models.ToolArg{tickerArg()},
		},
		Invoke: func(ctx context.Context, args map[string]any) (string, error) {
			ticker, err := requireTicker(args)
			if err != nil {
				return "", err
			}
			bars, err := deps.Market.Bars(ctx, ticker, "6mo")
			if err != nil {
				return "", err
			}
			rsi := signals.RSI(bars, 14)
			return fmt.Sprintf("The RSI (14) of %s is %.2f (%s)", ticker, rsi, signals.ClassifyRSI(rsi)), nil
		},
	}
}

func macdTool(deps Deps) ToolDescriptor {
	return ToolDescriptor{
		Schema: models.ToolSchema{
			Name:        "calculate_macd",
			Description: "Calculate the MACD (12/26/9) of a stock: MACD line, signal line and histogram.",
			Args:        []models.ToolArg{tickerArg()},
		},
		Invoke: func(ctx context.Context, args map[string]any) (string, error) {
			ticker, err := requireTicker(args)
			if err != nil {
				return "", err
			}
			bars, err := deps.Market.Bars(ctx, ticker, "1y")
			if err != nil {
				return "", err
			}
			macd, signal, hist := signals.MACD(bars, 12, 26, 9)
			return fmt.Sprintf("MACD of %s: line %.4f, signal %.4f, histogram %.4f", ticker, macd, signal, hist), nil
		},
	}
}

func fundamentalsTool(deps Deps) ToolDescriptor {
	return ToolDescriptor{
		Schema: models.ToolSchema{
			Name:        "get_fundamental_data",
			Description: "Get fundamental data for a stock: company name, market cap, P/E, EPS and P/BV.",
			Args:        []models.ToolArg{tickerArg()},
		},
		Invoke: func(ctx context.Context, args map[string]any) (string, error) {
			ticker, err := requireTicker(args)
			if err != nil {
				return "", err
			}
			f, err := deps.Market.Fundamentals(ctx, ticker)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf(
				"Fundamental data for %s (%s):\n- Market Cap: %.0f\n- P/E Ratio: %.2f\n- EPS: %.2f\n- P/BV: %.2f",
				f.Name, f.Symbol, f.MarketCap, f.PE, f.EPS, f.PBV,
			), nil
		},
	}
}

func plotChartTool(deps Deps) ToolDescriptor {
	return ToolDescriptor{
		Schema: models.ToolSchema{
			Name:        "plot_stock_chart",
			Description: "Plot a 6-month price chart for a stock with 20-day and 50-day moving average overlays.",
			Args:        []models.ToolArg{tickerArg()},
		},
		Invoke: func(ctx context.Context, args map[string]any) (string, error) {
			ticker, err := requireTicker(args)
			if err != nil {
				return "", err
			}
			bars, err := deps.Market.Bars(ctx, ticker, "6mo")
			if err != nil {
				return "", err
			}

			png, err := RenderPriceChart(ticker, bars)
			if err != nil {
				return "", err
			}

			chart := &models.Chart{
				Ticker:  ticker,
				Caption: fmt.Sprintf("%s — 6 month price with SMA 20/50", ticker),
				PNG:     png,
			}
			if slot := common.ChartSlotFromContext(ctx); slot != nil {
				slot.Put(chart)
			} else {
				deps.Logger.Warn().Str("ticker", ticker).Msg("No chart slot in context, chart discarded")
			}
			return fmt.Sprintf("Chart for %s has been generated and displayed to the user.", ticker), nil
		},
	}
}

func newsRelevanceTool(deps Deps) ToolDescriptor {
	return ToolDescriptor{
		Schema: models.ToolSchema{
			Name:        "analyze_news_relevance",
			Description: "Search recent news about a stock and summarize sentiment relevant to an optional topic.",
			Args: []models.ToolArg{
				tickerArg(),
				{
					Name:        "topic",
					Type:        models.ArgTypeString,
					Required:    false,
					Description: "Optional topic to focus the relevance analysis on",
				},
			},
		},
		Invoke: func(ctx context.Context, args map[string]any) (string, error) {
			ticker, err := requireTicker(args)
			if err != nil {
				return "", err
			}
			if deps.News == nil {
				return "", fmt.Errorf("news analysis is unavailable: no news API key configured")
			}

			// Search by company name when we can resolve it; tickers make
			// poor news queries.
			query := ticker
			if f, err := deps.Market.Fundamentals(ctx, ticker); err == nil && f.Name != "" {
				query = f.Name
			}

			articles, err := deps.News.Everything(ctx, query, 10)
			if err != nil {
				return "", err
			}
			if len(articles) == 0 {
				return fmt.Sprintf("No recent news found for %s.", ticker), nil
			}

			var sb strings.Builder
			for i, a := range articles {
				fmt.Fprintf(&sb, "%d. %s — %s\n", i+1, a.Title, a.Description)
			}

			topic := argString(args, "topic")
			prompt := fmt.Sprintf(
				"You are a financial news analyst. Given these recent headlines about %s:\n\n%s\n"+
					"Summarize the overall sentiment (positive/negative/neutral) and the key drivers in at most 5 sentences.",
				query, sb.String(),
			)
			if topic != "" {
				prompt += fmt.Sprintf(" Focus on relevance to: %s.", topic)
			}

			summary, err := deps.Provider.GenerateContent(ctx, prompt)
			if err != nil {
				return "", err
			}
			return summary, nil
		},
	}
}

func myPortfolioTool(deps Deps) ToolDescriptor {
	return ToolDescriptor{
		Schema: models.ToolSchema{
			Name:        "get_my_portfolio",
			Description: "Get the calling user's portfolio holdings and watchlist.",
			Args:        nil,
		},
		Invoke: func(ctx context.Context, args map[string]any) (string, error) {
			identity := common.IdentityFromContext(ctx)
			if identity == nil {
				return "", fmt.Errorf("no user identity available")
			}
			data, err := deps.Portfolio.Holdings(ctx, identity.Username)
			if err != nil {
				return "", err
			}
			if len(data.Portfolio) == 0 {
				return "Your portfolio is empty.", nil
			}

			var sb strings.Builder
			sb.WriteString("Your portfolio holdings:\n")
			for _, h := range data.Portfolio {
				fmt.Fprintf(&sb, "- %s: %.2f shares bought at %.2f %s\n", h.Symbol, h.Quantity, h.BuyPrice, h.Currency)
			}
			if len(data.Watchlist) > 0 {
				fmt.Fprintf(&sb, "Watchlist: %s\n", strings.Join(data.Watchlist, ", "))
			}
			return sb.String(), nil
		},
	}
}

func recommendationTool(deps Deps) ToolDescriptor {
	return ToolDescriptor{
		Schema: models.ToolSchema{
			Name:        "analyze_stock_recommendation",
			Description: "Build a swing-trade analysis report for a stock: trend, momentum, breakout, Fibonacci levels, stop loss and recent news.",
			Args:        []models.ToolArg{tickerArg()},
		},
		Invoke: func(ctx context.Context, args map[string]any) (string, error) {
			ticker, err := requireTicker(args)
			if err != nil {
				return "", err
			}
			bars, err := deps.Market.Bars(ctx, ticker, "1y")
			if err != nil {
				return "", err
			}
			if len(bars) < 51 {
				return "", fmt.Errorf("not enough price history for %s to build a recommendation", ticker)
			}

			var articles []models.Article
			if deps.News != nil {
				query := ticker
				if f, err := deps.Market.Fundamentals(ctx, ticker); err == nil && f.Name != "" {
					query = f.Name
				}
				if found, err := deps.News.Everything(ctx, query, 5); err == nil {
					articles = found
				}
			}

			return BuildRecommendationReport(ticker, bars, articles), nil
		},
	}
}

func portfolioAnalysisTool(deps Deps) ToolDescriptor {
	return ToolDescriptor{
		Schema: models.ToolSchema{
			Name:        "analyze_portfolio_holdings",
			Description: "Value the calling user's portfolio holdings at current prices with gains and totals per currency.",
			Args:        nil,
		},
		Invoke: func(ctx context.Context, args map[string]any) (string, error) {
			identity := common.IdentityFromContext(ctx)
			if identity == nil {
				return "", fmt.Errorf("no user identity available")
			}
			valuation, err := deps.Portfolio.Valuation(ctx, identity.Username)
			if err != nil {
				return "", err
			}
			if len(valuation.Items) == 0 {
				return "Your portfolio is empty.", nil
			}
			return FormatValuationReport(valuation), nil
		},
	}
}

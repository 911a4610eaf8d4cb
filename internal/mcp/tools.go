package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerTools(server *mcp.Server, quotes QuoteReader, forecasts ForecastGenerator, regional RegionalReader) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "quotes_list_supported",
		Description: "Get current quotes for all supported coins",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, _ quotesListInput) (*mcp.CallToolResult, quotesListOutput, error) {
		if quotes == nil {
			return nil, quotesListOutput{}, fmt.Errorf("quote service unavailable")
		}
		result, err := quotes.ListQuotes(ctx)
		if err != nil {
			return nil, quotesListOutput{}, err
		}
		return nil, quotesListOutput{Quotes: result}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "quotes_get_by_coin",
		Description: "Get the current quote for one coin",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in quotesGetByCoinInput) (*mcp.CallToolResult, quotesGetByCoinOutput, error) {
		if quotes == nil {
			return nil, quotesGetByCoinOutput{}, fmt.Errorf("quote service unavailable")
		}
		coin, err := normalizeCoin(in.Coin)
		if err != nil {
			return nil, quotesGetByCoinOutput{}, err
		}
		result, err := quotes.GetQuote(ctx, coin)
		if err != nil {
			return nil, quotesGetByCoinOutput{}, err
		}
		return nil, quotesGetByCoinOutput{Quote: result}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "quotes_list_popular",
		Description: "Get the top coins by market cap",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in quotesPopularInput) (*mcp.CallToolResult, quotesPopularOutput, error) {
		if quotes == nil {
			return nil, quotesPopularOutput{}, fmt.Errorf("quote service unavailable")
		}
		result, err := quotes.Popular(ctx, normalizePopularLimit(in.Limit))
		if err != nil {
			return nil, quotesPopularOutput{}, err
		}
		return nil, quotesPopularOutput{Quotes: result}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "history_list",
		Description: "Get a daily price series for a coin, oldest first",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in historyListInput) (*mcp.CallToolResult, historyListOutput, error) {
		if quotes == nil {
			return nil, historyListOutput{}, fmt.Errorf("quote service unavailable")
		}
		coin, err := normalizeCoin(in.Coin)
		if err != nil {
			return nil, historyListOutput{}, err
		}
		points, err := quotes.History(ctx, coin, normalizeHistoryDays(in.Days))
		if err != nil {
			return nil, historyListOutput{}, err
		}
		return nil, historyListOutput{Coin: coin, Points: points}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "forecast_generate",
		Description: "Generate a weather-style 5-day price forecast for a coin",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in forecastGenerateInput) (*mcp.CallToolResult, forecastGenerateOutput, error) {
		if forecasts == nil {
			return nil, forecastGenerateOutput{}, fmt.Errorf("forecast service unavailable")
		}
		coin, err := normalizeCoin(in.Coin)
		if err != nil {
			return nil, forecastGenerateOutput{}, err
		}
		level, err := normalizeConfidence(in.Confidence)
		if err != nil {
			return nil, forecastGenerateOutput{}, err
		}
		result, err := forecasts.Generate(ctx, coin, level)
		if err != nil {
			return nil, forecastGenerateOutput{}, err
		}
		return nil, forecastGenerateOutput{Forecast: result}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "regional_overview",
		Description: "Get the regional crypto-climate overview",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in regionalOverviewInput) (*mcp.CallToolResult, regionalOverviewOutput, error) {
		if regional == nil {
			return nil, regionalOverviewOutput{}, fmt.Errorf("regional service unavailable")
		}
		overview, err := regional.Overview(ctx, in.Analysis)
		if err != nil {
			return nil, regionalOverviewOutput{}, err
		}
		return nil, regionalOverviewOutput{Overview: overview}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "regional_ask",
		Description: "Ask the regional advisor a free-form question",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in regionalAskInput) (*mcp.CallToolResult, regionalAskOutput, error) {
		if regional == nil {
			return nil, regionalAskOutput{}, fmt.Errorf("regional service unavailable")
		}
		answer, err := regional.Ask(ctx, in.Query, in.Region)
		if err != nil {
			return nil, regionalAskOutput{}, err
		}
		return nil, regionalAskOutput{Answer: answer}, nil
	})
}

package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"crypto-weather/internal/domain"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerResources(server *mcp.Server, quotes QuoteReader, forecasts ForecastGenerator) {
	server.AddResource(&mcp.Resource{
		URI:         "market://supported-coins",
		Name:        "supported-coins",
		Description: "CoinGecko IDs of the coins supported by the service",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		_ = ctx
		return jsonResource(req.Params.URI, domain.SupportedIDs)
	})

	server.AddResource(&mcp.Resource{
		URI:         "quotes://latest",
		Name:        "quotes-latest",
		Description: "Current quotes for all supported coins",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if quotes == nil {
			return nil, fmt.Errorf("quote service unavailable")
		}
		list, err := quotes.ListQuotes(ctx)
		if err != nil {
			return nil, err
		}
		return jsonResource(req.Params.URI, quotesListOutput{Quotes: list})
	})

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "quotes://coin/{coin}",
		Name:        "quote-by-coin",
		Description: "Current quote for a specific coin",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if quotes == nil {
			return nil, fmt.Errorf("quote service unavailable")
		}

		parsed, err := url.Parse(req.Params.URI)
		if err != nil {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		if parsed.Scheme != "quotes" || parsed.Host != "coin" {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}

		coin, err := normalizeCoin(strings.Trim(strings.TrimSpace(parsed.Path), "/"))
		if err != nil {
			return nil, err
		}

		quote, err := quotes.GetQuote(ctx, coin)
		if err != nil {
			return nil, err
		}
		return jsonResource(req.Params.URI, quotesGetByCoinOutput{Quote: quote})
	})

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "history://{coin}{?days}",
		Name:        "history-by-coin",
		Description: "Daily price series for a coin; optional days query param",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if quotes == nil {
			return nil, fmt.Errorf("quote service unavailable")
		}

		parsed, err := url.Parse(req.Params.URI)
		if err != nil {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		if parsed.Scheme != "history" {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}

		coin, err := normalizeCoin(parsed.Host)
		if err != nil {
			return nil, err
		}

		days := defaultHistoryDays
		if rawDays := strings.TrimSpace(parsed.Query().Get("days")); rawDays != "" {
			n, err := strconv.Atoi(rawDays)
			if err != nil {
				return nil, fmt.Errorf("invalid days: %s", rawDays)
			}
			days = normalizeHistoryDays(n)
		}

		points, err := quotes.History(ctx, coin, days)
		if err != nil {
			return nil, err
		}
		return jsonResource(req.Params.URI, historyListOutput{Coin: coin, Points: points})
	})

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "forecast://{coin}{?confidence}",
		Name:        "forecast-by-coin",
		Description: "5-day forecast for a coin; optional confidence query param",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if forecasts == nil {
			return nil, fmt.Errorf("forecast service unavailable")
		}

		parsed, err := url.Parse(req.Params.URI)
		if err != nil {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		if parsed.Scheme != "forecast" {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}

		coin, err := normalizeCoin(parsed.Host)
		if err != nil {
			return nil, err
		}
		level, err := normalizeConfidence(parsed.Query().Get("confidence"))
		if err != nil {
			return nil, err
		}

		result, err := forecasts.Generate(ctx, coin, level)
		if err != nil {
			return nil, err
		}
		return jsonResource(req.Params.URI, forecastGenerateOutput{Forecast: result})
	})
}

func jsonResource(uri string, payload any) (*mcp.ReadResourceResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(body),
		}},
	}, nil
}

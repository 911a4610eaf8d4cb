// Package provider fetches market data from CoinGecko, over plain REST or
// through their hosted MCP server.
package provider

import (
	"context"

	"crypto-weather/internal/domain"
)

// GlobalMarket is the slice of CoinGecko's global endpoint the sentiment
// estimator cares about.
type GlobalMarket struct {
	MarketCapChange24h float64
	BTCDominance       float64
}

// MarketData is the read side every consumer programs against.
type MarketData interface {
	// Quotes returns current quotes for the given CoinGecko IDs.
	Quotes(ctx context.Context, geckoIDs []string) ([]domain.CoinQuote, error)
	// Popular returns the top coins by market cap.
	Popular(ctx context.Context, limit int) ([]domain.CoinQuote, error)
	// MarketChart returns up to days daily samples for a coin, oldest first.
	MarketChart(ctx context.Context, geckoID string, days int) ([]domain.PricePoint, error)
	// Global returns market-wide aggregates.
	Global(ctx context.Context) (GlobalMarket, error)
	// Trending returns the CoinGecko IDs currently trending.
	Trending(ctx context.Context) ([]string, error)
}

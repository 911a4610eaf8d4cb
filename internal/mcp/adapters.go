package mcp

import (
	"context"

	"crypto-weather/internal/domain"
	"crypto-weather/internal/service"
)

// QuoteReader exposes read operations for quotes and price history.
type QuoteReader interface {
	ListQuotes(ctx context.Context) ([]domain.CoinQuote, error)
	GetQuote(ctx context.Context, idOrSymbol string) (domain.CoinQuote, error)
	Popular(ctx context.Context, limit int) ([]domain.CoinQuote, error)
	History(ctx context.Context, idOrSymbol string, days int) ([]domain.PricePoint, error)
}

// ForecastGenerator exposes forecast generation.
type ForecastGenerator interface {
	Generate(ctx context.Context, idOrSymbol string, level domain.ConfidenceLevel) (domain.ForecastResult, error)
}

// RegionalReader exposes the regional overview and advisor.
type RegionalReader interface {
	Overview(ctx context.Context, includeAnalysis bool) (service.RegionalOverview, error)
	Ask(ctx context.Context, query, region string) (service.AdvisorAnswer, error)
}

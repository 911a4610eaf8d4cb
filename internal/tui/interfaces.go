package tui

import (
	"context"

	"crypto-weather/internal/domain"
)

// QuoteQuerier provides quote data to the TUI.
type QuoteQuerier interface {
	ListQuotes(ctx context.Context) ([]domain.CoinQuote, error)
}

// ForecastQuerier provides forecast generation to the TUI.
type ForecastQuerier interface {
	Generate(ctx context.Context, idOrSymbol string, level domain.ConfidenceLevel) (domain.ForecastResult, error)
}

// AdvisorQuerier provides LLM advisor access to the TUI.
type AdvisorQuerier interface {
	Ask(ctx context.Context, question string) (string, error)
}

// Services bundles all service dependencies injected into the TUI.
type Services struct {
	Quotes    QuoteQuerier
	Forecasts ForecastQuerier
	Advisor   AdvisorQuerier
	Username  string
}

package mcp

import (
	"fmt"
	"strings"

	"crypto-weather/internal/domain"
	"crypto-weather/internal/service"
)

const (
	defaultHistoryDays  = 30
	maxHistoryDays      = 365
	defaultPopularLimit = 10
	maxPopularLimit     = 50
)

type quotesListInput struct{}

type quotesListOutput struct {
	Quotes []domain.CoinQuote `json:"quotes"`
}

type quotesGetByCoinInput struct {
	Coin string `json:"coin" jsonschema:"CoinGecko ID or ticker symbol (e.g. bitcoin, BTC)"`
}

type quotesGetByCoinOutput struct {
	Quote domain.CoinQuote `json:"quote"`
}

type quotesPopularInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"number of coins to return, max 50"`
}

type quotesPopularOutput struct {
	Quotes []domain.CoinQuote `json:"quotes"`
}

type historyListInput struct {
	Coin string `json:"coin" jsonschema:"CoinGecko ID or ticker symbol (e.g. bitcoin, BTC)"`
	Days int    `json:"days,omitempty" jsonschema:"number of daily samples, max 365"`
}

type historyListOutput struct {
	Coin   string              `json:"coin"`
	Points []domain.PricePoint `json:"points"`
}

type forecastGenerateInput struct {
	Coin       string `json:"coin" jsonschema:"CoinGecko ID or ticker symbol (e.g. bitcoin, BTC)"`
	Confidence string `json:"confidence,omitempty" jsonschema:"confidence level: conservative, moderate, aggressive"`
}

type forecastGenerateOutput struct {
	Forecast domain.ForecastResult `json:"forecast"`
}

type regionalOverviewInput struct {
	Analysis bool `json:"analysis,omitempty" jsonschema:"include per-region analysis"`
}

type regionalOverviewOutput struct {
	Overview service.RegionalOverview `json:"overview"`
}

type regionalAskInput struct {
	Query  string `json:"query" jsonschema:"free-form question about regional crypto-weather conditions"`
	Region string `json:"region,omitempty" jsonschema:"optional region: asia-pacific, europe, americas, middle-east"`
}

type regionalAskOutput struct {
	Answer service.AdvisorAnswer `json:"answer"`
}

func normalizeCoin(coin string) (string, error) {
	coin = strings.TrimSpace(coin)
	if coin == "" {
		return "", fmt.Errorf("coin is required")
	}
	if c, ok := domain.CoinByID[strings.ToLower(coin)]; ok {
		return c.GeckoID, nil
	}
	if c, ok := domain.CoinBySymbol[strings.ToUpper(coin)]; ok {
		return c.GeckoID, nil
	}
	return "", fmt.Errorf("unsupported coin: %s", coin)
}

func normalizeConfidence(level string) (domain.ConfidenceLevel, error) {
	normalized := domain.ConfidenceLevel(strings.ToLower(strings.TrimSpace(level)))
	if _, err := normalized.Multiplier(); err != nil {
		return "", err
	}
	return normalized, nil
}

func normalizeHistoryDays(days int) int {
	if days <= 0 {
		return defaultHistoryDays
	}
	if days > maxHistoryDays {
		return maxHistoryDays
	}
	return days
}

func normalizePopularLimit(limit int) int {
	if limit <= 0 {
		return defaultPopularLimit
	}
	if limit > maxPopularLimit {
		return maxPopularLimit
	}
	return limit
}

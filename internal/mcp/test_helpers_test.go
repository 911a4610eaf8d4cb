package mcp

import (
	"context"
	"encoding/json"
	"time"

	"crypto-weather/internal/domain"
	"crypto-weather/internal/service"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type stubQuoteService struct {
	quotes  []domain.CoinQuote
	byCoin  map[string]domain.CoinQuote
	history map[string][]domain.PricePoint

	lastHistoryCoin string
	lastHistoryDays int
}

func (s *stubQuoteService) ListQuotes(ctx context.Context) ([]domain.CoinQuote, error) {
	return append([]domain.CoinQuote(nil), s.quotes...), nil
}

func (s *stubQuoteService) GetQuote(ctx context.Context, idOrSymbol string) (domain.CoinQuote, error) {
	return s.byCoin[idOrSymbol], nil
}

func (s *stubQuoteService) Popular(ctx context.Context, limit int) ([]domain.CoinQuote, error) {
	if limit < len(s.quotes) {
		return append([]domain.CoinQuote(nil), s.quotes[:limit]...), nil
	}
	return append([]domain.CoinQuote(nil), s.quotes...), nil
}

func (s *stubQuoteService) History(ctx context.Context, idOrSymbol string, days int) ([]domain.PricePoint, error) {
	s.lastHistoryCoin = idOrSymbol
	s.lastHistoryDays = days
	return append([]domain.PricePoint(nil), s.history[idOrSymbol]...), nil
}

type stubForecastService struct {
	result       domain.ForecastResult
	lastCoin     string
	lastLevel    domain.ConfidenceLevel
	generateRuns int
}

func (s *stubForecastService) Generate(ctx context.Context, idOrSymbol string, level domain.ConfidenceLevel) (domain.ForecastResult, error) {
	s.generateRuns++
	s.lastCoin = idOrSymbol
	s.lastLevel = level
	return s.result, nil
}

type stubRegionalService struct {
	overview service.RegionalOverview
	answer   service.AdvisorAnswer
}

func (s *stubRegionalService) Overview(ctx context.Context, includeAnalysis bool) (service.RegionalOverview, error) {
	return s.overview, nil
}

func (s *stubRegionalService) Ask(ctx context.Context, query, region string) (service.AdvisorAnswer, error) {
	return s.answer, nil
}

func testServer() (*sdkmcp.Server, *stubQuoteService, *stubForecastService) {
	now := time.Date(2025, 8, 30, 10, 0, 0, 0, time.UTC)
	btc := domain.CoinQuote{ID: "bitcoin", Symbol: "BTC", Name: "Bitcoin", PriceUSD: 64000, Change24h: 2.1, LastUpdated: now}
	quotes := &stubQuoteService{
		quotes: []domain.CoinQuote{btc},
		byCoin: map[string]domain.CoinQuote{"bitcoin": btc},
		history: map[string][]domain.PricePoint{
			"bitcoin": {{Timestamp: now.AddDate(0, 0, -1), Price: 63000}, {Timestamp: now, Price: 64000}},
		},
	}
	forecasts := &stubForecastService{
		result: domain.ForecastResult{
			Coin: "Bitcoin", Symbol: "BTC", CurrentPrice: 64000,
			Summary:    "Neutral bullish outlook with low volatility expected.",
			Disclaimer: domain.Disclaimer,
		},
	}
	regional := &stubRegionalService{
		overview: service.RegionalOverview{},
		answer:   service.AdvisorAnswer{Response: "clear skies"},
	}

	srv := NewServer(nil, quotes, forecasts, regional, ServerConfig{RequestTimeout: time.Second})
	return srv, quotes, forecasts
}

func connectInMemory(ctx context.Context, srv *sdkmcp.Server) (*sdkmcp.ClientSession, context.CancelFunc, error) {
	clientTransport, serverTransport := sdkmcp.NewInMemoryTransports()
	runCtx, cancel := context.WithCancel(ctx)
	go func() { _ = srv.Run(runCtx, serverTransport) }()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "mcp-test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	return session, cancel, nil
}

func decodeResourceJSON(result *sdkmcp.ReadResourceResult, out any) error {
	if len(result.Contents) == 0 {
		return nil
	}
	return json.Unmarshal([]byte(result.Contents[0].Text), out)
}

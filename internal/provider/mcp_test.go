package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type stubSession struct {
	responses map[string]string
	errors    map[string]error
	calls     []string
	closed    bool
}

func (s *stubSession) CallTool(ctx context.Context, params *sdkmcp.CallToolParams) (*sdkmcp.CallToolResult, error) {
	s.calls = append(s.calls, params.Name)
	if err, ok := s.errors[params.Name]; ok {
		return nil, err
	}
	text, ok := s.responses[params.Name]
	if !ok {
		return nil, errors.New("unknown tool")
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: text}},
	}, nil
}

func (s *stubSession) Close() error {
	s.closed = true
	return nil
}

func newTestMCP(session *stubSession) (*MCP, *int) {
	m := NewMCP("", nil)
	dials := 0
	m.dial = func(ctx context.Context) (mcpSession, error) {
		dials++
		return session, nil
	}
	m.now = func() time.Time { return time.Date(2025, 8, 30, 10, 0, 0, 0, time.UTC) }
	return m, &dials
}

func TestMCPQuotes(t *testing.T) {
	session := &stubSession{responses: map[string]string{
		"get_cryptocurrencies": `[{"id":"ethereum","symbol":"eth","name":"Ethereum","current_price":3100,"price_change_percentage_24h":-0.8}]`,
	}}
	m, dials := newTestMCP(session)

	quotes, err := m.Quotes(context.Background(), []string{"ethereum"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(quotes) != 1 || quotes[0].Symbol != "ETH" || quotes[0].PriceUSD != 3100 {
		t.Fatalf("unexpected quotes: %+v", quotes)
	}
	if *dials != 1 {
		t.Fatalf("expected 1 dial, got %d", *dials)
	}
}

func TestMCPSessionReusedAcrossCalls(t *testing.T) {
	session := &stubSession{responses: map[string]string{
		"get_trending":           `{"coins":[{"item":{"id":"solana"}}]}`,
		"get_global_market_data": `{"data":{"market_cap_change_percentage_24h_usd":1.5,"market_cap_percentage":{"btc":50}}}`,
	}}
	m, dials := newTestMCP(session)
	ctx := context.Background()

	if _, err := m.Trending(ctx); err != nil {
		t.Fatalf("trending: %v", err)
	}
	if _, err := m.Global(ctx); err != nil {
		t.Fatalf("global: %v", err)
	}
	if *dials != 1 {
		t.Fatalf("expected session reuse, got %d dials", *dials)
	}
}

func TestMCPResetsSessionOnError(t *testing.T) {
	session := &stubSession{
		responses: map[string]string{},
		errors:    map[string]error{"get_trending": errors.New("boom")},
	}
	m, dials := newTestMCP(session)
	ctx := context.Background()

	if _, err := m.Trending(ctx); err == nil {
		t.Fatal("expected error")
	}
	if !session.closed {
		t.Fatal("session should be closed after a tool failure")
	}

	session.errors = nil
	session.responses["get_trending"] = `{"coins":[]}`
	if _, err := m.Trending(ctx); err != nil {
		t.Fatalf("expected reconnect to succeed: %v", err)
	}
	if *dials != 2 {
		t.Fatalf("expected redial after reset, got %d dials", *dials)
	}
}

func TestMCPMarketChartSkipsZeroPrices(t *testing.T) {
	session := &stubSession{responses: map[string]string{
		"get_cryptocurrency_history": `{"market_data":{"current_price":{"usd":64000},"market_cap":{"usd":1.2e12},"total_volume":{"usd":3e10}}}`,
	}}
	m, _ := newTestMCP(session)

	points, err := m.MarketChart(context.Background(), "bitcoin", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}
	if len(session.calls) != 3 {
		t.Fatalf("expected one call per day, got %d", len(session.calls))
	}
	for i := 1; i < len(points); i++ {
		if !points[i-1].Timestamp.Before(points[i].Timestamp) {
			t.Fatal("points must be oldest first")
		}
	}
}

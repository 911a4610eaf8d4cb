package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"crypto-weather/internal/domain"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const DefaultMCPEndpoint = "https://mcp.api.coingecko.com/sse"

// mcpSession is the slice of *sdkmcp.ClientSession the provider needs.
type mcpSession interface {
	CallTool(ctx context.Context, params *sdkmcp.CallToolParams) (*sdkmcp.CallToolResult, error)
	Close() error
}

// MCP serves the same market data as the REST provider but through
// CoinGecko's hosted MCP server. The session is dialed lazily and dropped on
// any tool failure so the next call reconnects.
type MCP struct {
	endpoint string
	tracer   trace.Tracer

	mu      sync.Mutex
	session mcpSession

	// dial is swapped out in tests.
	dial func(ctx context.Context) (mcpSession, error)

	now func() time.Time
}

func NewMCP(endpoint string, tracer trace.Tracer) *MCP {
	if endpoint == "" {
		endpoint = DefaultMCPEndpoint
	}
	if tracer == nil {
		tracer = trace.NewNoopTracerProvider().Tracer("coingecko-mcp")
	}
	m := &MCP{endpoint: endpoint, tracer: tracer, now: time.Now}
	m.dial = m.dialSSE
	return m
}

func (m *MCP) dialSSE(ctx context.Context) (mcpSession, error) {
	client := sdkmcp.NewClient(&sdkmcp.Implementation{
		Name:    "crypto-weather",
		Version: "1.0.0",
	}, nil)
	return client.Connect(ctx, &sdkmcp.SSEClientTransport{Endpoint: m.endpoint}, nil)
}

func (m *MCP) connect(ctx context.Context) (mcpSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session != nil {
		return m.session, nil
	}
	session, err := m.dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect coingecko mcp: %w", err)
	}
	m.session = session
	return session, nil
}

func (m *MCP) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session != nil {
		_ = m.session.Close()
		m.session = nil
	}
}

func (m *MCP) Close() {
	m.reset()
}

// callTool invokes a tool and decodes its first text content as JSON.
func (m *MCP) callTool(ctx context.Context, name string, args map[string]any, out any) error {
	ctx, span := m.tracer.Start(ctx, "coingecko-mcp.call-tool")
	span.SetAttributes(attribute.String("mcp.tool", name))
	defer span.End()

	session, err := m.connect(ctx)
	if err != nil {
		return err
	}

	result, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		span.RecordError(err)
		m.reset()
		return fmt.Errorf("call %s: %w", name, err)
	}
	if result.IsError {
		m.reset()
		return fmt.Errorf("call %s: tool reported an error", name)
	}

	for _, content := range result.Content {
		text, ok := content.(*sdkmcp.TextContent)
		if !ok {
			continue
		}
		if err := json.Unmarshal([]byte(text.Text), out); err != nil {
			return fmt.Errorf("decode %s payload: %w", name, err)
		}
		return nil
	}
	return fmt.Errorf("call %s: no text content in response", name)
}

func (m *MCP) Quotes(ctx context.Context, geckoIDs []string) ([]domain.CoinQuote, error) {
	if len(geckoIDs) == 0 {
		return nil, nil
	}
	var rows []marketRow
	err := m.callTool(ctx, "get_cryptocurrencies", map[string]any{
		"vs_currency": "usd",
		"ids":         strings.Join(geckoIDs, ","),
		"per_page":    len(geckoIDs),
		"page":        1,
	}, &rows)
	if err != nil {
		return nil, err
	}
	quotes := make([]domain.CoinQuote, 0, len(rows))
	for _, row := range rows {
		quotes = append(quotes, row.toQuote())
	}
	return quotes, nil
}

func (m *MCP) Popular(ctx context.Context, limit int) ([]domain.CoinQuote, error) {
	if limit <= 0 {
		limit = 10
	}
	var rows []marketRow
	err := m.callTool(ctx, "get_cryptocurrencies", map[string]any{
		"vs_currency": "usd",
		"order":       "market_cap_desc",
		"per_page":    limit,
		"page":        1,
	}, &rows)
	if err != nil {
		return nil, err
	}
	quotes := make([]domain.CoinQuote, 0, len(rows))
	for _, row := range rows {
		quotes = append(quotes, row.toQuote())
	}
	return quotes, nil
}

type historySnapshot struct {
	MarketData struct {
		CurrentPrice struct {
			USD float64 `json:"usd"`
		} `json:"current_price"`
		MarketCap struct {
			USD float64 `json:"usd"`
		} `json:"market_cap"`
		TotalVolume struct {
			USD float64 `json:"usd"`
		} `json:"total_volume"`
	} `json:"market_data"`
}

// MarketChart reconstructs a daily series from per-date history snapshots,
// one tool call per day. Days with no price are skipped.
func (m *MCP) MarketChart(ctx context.Context, geckoID string, days int) ([]domain.PricePoint, error) {
	if days <= 0 {
		days = 30
	}
	points := make([]domain.PricePoint, 0, days)
	today := m.now().UTC().Truncate(24 * time.Hour)
	for i := days; i >= 1; i-- {
		day := today.AddDate(0, 0, -i)
		var snap historySnapshot
		err := m.callTool(ctx, "get_cryptocurrency_history", map[string]any{
			"id":   geckoID,
			"date": day.Format("02-01-2006"),
		}, &snap)
		if err != nil {
			return nil, err
		}
		if snap.MarketData.CurrentPrice.USD <= 0 {
			continue
		}
		points = append(points, domain.PricePoint{
			Timestamp: day,
			Price:     snap.MarketData.CurrentPrice.USD,
			MarketCap: snap.MarketData.MarketCap.USD,
			Volume:    snap.MarketData.TotalVolume.USD,
		})
	}
	return points, nil
}

func (m *MCP) Global(ctx context.Context) (GlobalMarket, error) {
	var payload struct {
		Data struct {
			MarketCapChange24h float64            `json:"market_cap_change_percentage_24h_usd"`
			MarketCapPct       map[string]float64 `json:"market_cap_percentage"`
		} `json:"data"`
	}
	if err := m.callTool(ctx, "get_global_market_data", map[string]any{}, &payload); err != nil {
		return GlobalMarket{}, err
	}
	return GlobalMarket{
		MarketCapChange24h: payload.Data.MarketCapChange24h,
		BTCDominance:       payload.Data.MarketCapPct["btc"],
	}, nil
}

func (m *MCP) Trending(ctx context.Context) ([]string, error) {
	var payload struct {
		Coins []struct {
			Item struct {
				ID string `json:"id"`
			} `json:"item"`
		} `json:"coins"`
	}
	if err := m.callTool(ctx, "get_trending", map[string]any{}, &payload); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(payload.Coins))
	for _, c := range payload.Coins {
		ids = append(ids, c.Item.ID)
	}
	return ids, nil
}

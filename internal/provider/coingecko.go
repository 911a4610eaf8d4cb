package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"crypto-weather/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const DefaultBaseURL = "https://api.coingecko.com/api/v3"

// CoinGecko talks to the public CoinGecko REST API.
type CoinGecko struct {
	baseURL string
	apiKey  string
	client  *http.Client
	tracer  trace.Tracer
}

func NewCoinGecko(baseURL, apiKey string, client *http.Client, tracer trace.Tracer) *CoinGecko {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if tracer == nil {
		tracer = trace.NewNoopTracerProvider().Tracer("coingecko")
	}
	return &CoinGecko{baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, client: client, tracer: tracer}
}

type marketRow struct {
	ID           string    `json:"id"`
	Symbol       string    `json:"symbol"`
	Name         string    `json:"name"`
	CurrentPrice float64   `json:"current_price"`
	Change24h    float64   `json:"price_change_percentage_24h"`
	MarketCap    float64   `json:"market_cap"`
	MarketRank   int       `json:"market_cap_rank"`
	TotalVolume  float64   `json:"total_volume"`
	LastUpdated  time.Time `json:"last_updated"`
}

func (row marketRow) toQuote() domain.CoinQuote {
	return domain.CoinQuote{
		ID:          row.ID,
		Symbol:      strings.ToUpper(row.Symbol),
		Name:        row.Name,
		PriceUSD:    row.CurrentPrice,
		Change24h:   row.Change24h,
		MarketCap:   row.MarketCap,
		MarketRank:  row.MarketRank,
		Volume24h:   row.TotalVolume,
		LastUpdated: row.LastUpdated,
	}
}

func (g *CoinGecko) Quotes(ctx context.Context, geckoIDs []string) ([]domain.CoinQuote, error) {
	if len(geckoIDs) == 0 {
		return nil, nil
	}
	ctx, span := g.tracer.Start(ctx, "coingecko.quotes")
	span.SetAttributes(attribute.Int("coingecko.ids", len(geckoIDs)))
	defer span.End()

	q := url.Values{}
	q.Set("vs_currency", "usd")
	q.Set("ids", strings.Join(geckoIDs, ","))
	q.Set("order", "market_cap_desc")
	q.Set("per_page", fmt.Sprint(len(geckoIDs)))
	q.Set("page", "1")
	q.Set("sparkline", "false")
	q.Set("price_change_percentage", "24h")

	var rows []marketRow
	if err := g.getJSON(ctx, "/coins/markets", q, &rows); err != nil {
		return nil, err
	}
	quotes := make([]domain.CoinQuote, 0, len(rows))
	for _, row := range rows {
		quotes = append(quotes, row.toQuote())
	}
	return quotes, nil
}

func (g *CoinGecko) Popular(ctx context.Context, limit int) ([]domain.CoinQuote, error) {
	if limit <= 0 {
		limit = 10
	}
	ctx, span := g.tracer.Start(ctx, "coingecko.popular")
	defer span.End()

	q := url.Values{}
	q.Set("vs_currency", "usd")
	q.Set("order", "market_cap_desc")
	q.Set("per_page", fmt.Sprint(limit))
	q.Set("page", "1")
	q.Set("sparkline", "false")
	q.Set("price_change_percentage", "24h")

	var rows []marketRow
	if err := g.getJSON(ctx, "/coins/markets", q, &rows); err != nil {
		return nil, err
	}
	quotes := make([]domain.CoinQuote, 0, len(rows))
	for _, row := range rows {
		quotes = append(quotes, row.toQuote())
	}
	return quotes, nil
}

func (g *CoinGecko) MarketChart(ctx context.Context, geckoID string, days int) ([]domain.PricePoint, error) {
	if days <= 0 {
		days = 30
	}
	ctx, span := g.tracer.Start(ctx, "coingecko.market-chart")
	span.SetAttributes(attribute.String("coingecko.id", geckoID))
	defer span.End()

	q := url.Values{}
	q.Set("vs_currency", "usd")
	q.Set("days", fmt.Sprint(days))
	q.Set("interval", "daily")

	var chart struct {
		Prices       [][2]float64 `json:"prices"`
		MarketCaps   [][2]float64 `json:"market_caps"`
		TotalVolumes [][2]float64 `json:"total_volumes"`
	}
	if err := g.getJSON(ctx, "/coins/"+url.PathEscape(geckoID)+"/market_chart", q, &chart); err != nil {
		return nil, err
	}

	points := make([]domain.PricePoint, 0, len(chart.Prices))
	for i, pair := range chart.Prices {
		p := domain.PricePoint{
			Timestamp: time.UnixMilli(int64(pair[0])).UTC(),
			Price:     pair[1],
		}
		if i < len(chart.MarketCaps) {
			p.MarketCap = chart.MarketCaps[i][1]
		}
		if i < len(chart.TotalVolumes) {
			p.Volume = chart.TotalVolumes[i][1]
		}
		points = append(points, p)
	}
	return points, nil
}

func (g *CoinGecko) Global(ctx context.Context) (GlobalMarket, error) {
	ctx, span := g.tracer.Start(ctx, "coingecko.global")
	defer span.End()

	var payload struct {
		Data struct {
			MarketCapChange24h float64            `json:"market_cap_change_percentage_24h_usd"`
			MarketCapPct       map[string]float64 `json:"market_cap_percentage"`
		} `json:"data"`
	}
	if err := g.getJSON(ctx, "/global", nil, &payload); err != nil {
		return GlobalMarket{}, err
	}
	return GlobalMarket{
		MarketCapChange24h: payload.Data.MarketCapChange24h,
		BTCDominance:       payload.Data.MarketCapPct["btc"],
	}, nil
}

func (g *CoinGecko) Trending(ctx context.Context) ([]string, error) {
	ctx, span := g.tracer.Start(ctx, "coingecko.trending")
	defer span.End()

	var payload struct {
		Coins []struct {
			Item struct {
				ID string `json:"id"`
			} `json:"item"`
		} `json:"coins"`
	}
	if err := g.getJSON(ctx, "/search/trending", nil, &payload); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(payload.Coins))
	for _, c := range payload.Coins {
		ids = append(ids, c.Item.ID)
	}
	return ids, nil
}

func (g *CoinGecko) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := g.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if g.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("coingecko %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("coingecko %s: rate limited", path)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("coingecko %s: unexpected status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"crypto-weather/internal/domain"
	"crypto-weather/internal/provider"

	"go.opentelemetry.io/otel/trace"
)

type stubMarket struct {
	quotes      []domain.CoinQuote
	quotesErr   error
	quoteCalls  int
	lastIDs     []string
	popular     []domain.CoinQuote
	popularErr  error
	chart       []domain.PricePoint
	chartErr    error
	chartCalls  int
	global      provider.GlobalMarket
	globalErr   error
	trending    []string
	trendingErr error
}

func (m *stubMarket) Quotes(ctx context.Context, ids []string) ([]domain.CoinQuote, error) {
	m.quoteCalls++
	m.lastIDs = append([]string(nil), ids...)
	return m.quotes, m.quotesErr
}

func (m *stubMarket) Popular(ctx context.Context, limit int) ([]domain.CoinQuote, error) {
	return m.popular, m.popularErr
}

func (m *stubMarket) MarketChart(ctx context.Context, id string, days int) ([]domain.PricePoint, error) {
	m.chartCalls++
	return m.chart, m.chartErr
}

func (m *stubMarket) Global(ctx context.Context) (provider.GlobalMarket, error) {
	return m.global, m.globalErr
}

func (m *stubMarket) Trending(ctx context.Context) ([]string, error) {
	return m.trending, m.trendingErr
}

type memQuoteCache struct {
	entries map[string]domain.CoinQuote
}

func newMemQuoteCache() *memQuoteCache {
	return &memQuoteCache{entries: map[string]domain.CoinQuote{}}
}

func (c *memQuoteCache) Get(ctx context.Context, id string) (domain.CoinQuote, bool) {
	q, ok := c.entries[id]
	return q, ok
}

func (c *memQuoteCache) Put(ctx context.Context, q domain.CoinQuote) error {
	c.entries[q.ID] = q
	return nil
}

func (c *memQuoteCache) PutAll(ctx context.Context, quotes []domain.CoinQuote) error {
	for _, q := range quotes {
		c.entries[q.ID] = q
	}
	return nil
}

type memHistory struct {
	points    map[string][]domain.PricePoint
	upserts   int
	latestErr error
}

func newMemHistory() *memHistory {
	return &memHistory{points: map[string][]domain.PricePoint{}}
}

func (h *memHistory) UpsertPoints(ctx context.Context, id string, points []domain.PricePoint) error {
	h.upserts++
	h.points[id] = append([]domain.PricePoint(nil), points...)
	return nil
}

func (h *memHistory) GetPoints(ctx context.Context, id string, limit int) ([]domain.PricePoint, error) {
	points := h.points[id]
	if len(points) > limit {
		points = points[len(points)-limit:]
	}
	return append([]domain.PricePoint(nil), points...), nil
}

func (h *memHistory) LatestTimestamp(ctx context.Context, id string) (time.Time, error) {
	if h.latestErr != nil {
		return time.Time{}, h.latestErr
	}
	points := h.points[id]
	if len(points) == 0 {
		return time.Time{}, nil
	}
	return points[len(points)-1].Timestamp, nil
}

func testTracer() trace.Tracer {
	return trace.NewNoopTracerProvider().Tracer("test")
}

func dailySeries(n int, endPrice float64) []domain.PricePoint {
	points := make([]domain.PricePoint, n)
	now := time.Now().UTC().Truncate(24 * time.Hour)
	for i := 0; i < n; i++ {
		points[i] = domain.PricePoint{
			Timestamp: now.AddDate(0, 0, i-n+1),
			Price:     endPrice - float64(n-1-i)*10,
			Volume:    1e6,
		}
	}
	return points
}

func TestResolveCoin(t *testing.T) {
	tests := []struct {
		in     string
		wantID string
		ok     bool
	}{
		{"bitcoin", "bitcoin", true},
		{"BTC", "bitcoin", true},
		{"btc", "bitcoin", true},
		{" Ethereum ", "ethereum", true},
		{"dogecoin", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		coin, err := ResolveCoin(tt.in)
		if tt.ok && (err != nil || coin.GeckoID != tt.wantID) {
			t.Errorf("ResolveCoin(%q) = %v, %v; want %s", tt.in, coin, err, tt.wantID)
		}
		if !tt.ok && err == nil {
			t.Errorf("ResolveCoin(%q) expected error", tt.in)
		}
	}
}

func TestGetQuoteCacheFirst(t *testing.T) {
	market := &stubMarket{}
	cache := newMemQuoteCache()
	cache.entries["bitcoin"] = domain.CoinQuote{ID: "bitcoin", PriceUSD: 64000}
	svc := NewQuoteService(testTracer(), market, cache, nil)

	q, err := svc.GetQuote(context.Background(), "BTC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.PriceUSD != 64000 {
		t.Fatalf("unexpected quote: %+v", q)
	}
	if market.quoteCalls != 0 {
		t.Fatal("cached quote should not hit the provider")
	}
}

func TestGetQuoteMissFetchesAndCaches(t *testing.T) {
	market := &stubMarket{quotes: []domain.CoinQuote{{ID: "bitcoin", PriceUSD: 64000}}}
	cache := newMemQuoteCache()
	svc := NewQuoteService(testTracer(), market, cache, nil)

	if _, err := svc.GetQuote(context.Background(), "bitcoin"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if market.quoteCalls != 1 {
		t.Fatalf("expected 1 provider call, got %d", market.quoteCalls)
	}
	if _, ok := cache.entries["bitcoin"]; !ok {
		t.Fatal("quote should be cached after fetch")
	}
}

func TestRefreshQuoteSkipsCache(t *testing.T) {
	market := &stubMarket{quotes: []domain.CoinQuote{{ID: "bitcoin", PriceUSD: 65000}}}
	cache := newMemQuoteCache()
	cache.entries["bitcoin"] = domain.CoinQuote{ID: "bitcoin", PriceUSD: 64000}
	svc := NewQuoteService(testTracer(), market, cache, nil)

	q, err := svc.RefreshQuote(context.Background(), "BTC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.PriceUSD != 65000 {
		t.Fatalf("expected upstream quote, got %+v", q)
	}
	if market.quoteCalls != 1 {
		t.Fatalf("expected 1 provider call, got %d", market.quoteCalls)
	}
	if cached := cache.entries["bitcoin"]; cached.PriceUSD != 65000 {
		t.Fatalf("cache should hold the refreshed quote, got %+v", cached)
	}
}

func TestGetQuoteUnsupportedCoin(t *testing.T) {
	svc := NewQuoteService(testTracer(), &stubMarket{}, nil, nil)

	_, err := svc.GetQuote(context.Background(), "dogecoin")
	var invalid domain.InvalidInputError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidInputError, got %v", err)
	}
}

func TestListQuotesFetchesOnlyMisses(t *testing.T) {
	market := &stubMarket{quotes: []domain.CoinQuote{
		{ID: "ethereum", PriceUSD: 3100},
	}}
	cache := newMemQuoteCache()
	cache.entries["bitcoin"] = domain.CoinQuote{ID: "bitcoin", PriceUSD: 64000}
	svc := NewQuoteService(testTracer(), market, cache, nil)

	quotes, err := svc.ListQuotes(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if market.quoteCalls != 1 {
		t.Fatalf("expected one batch fetch, got %d", market.quoteCalls)
	}
	for _, id := range market.lastIDs {
		if id == "bitcoin" {
			t.Fatal("cached id must not be refetched")
		}
	}
	if len(quotes) != 2 {
		t.Fatalf("expected 2 quotes, got %d", len(quotes))
	}
	// Supported order has bitcoin before ethereum.
	if quotes[0].ID != "bitcoin" || quotes[1].ID != "ethereum" {
		t.Fatalf("unexpected order: %+v", quotes)
	}
}

func TestHistoryServedFromStoreWhenFresh(t *testing.T) {
	market := &stubMarket{}
	history := newMemHistory()
	history.points["bitcoin"] = dailySeries(30, 64000)
	svc := NewQuoteService(testTracer(), market, nil, history)

	points, err := svc.History(context.Background(), "bitcoin", 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 30 {
		t.Fatalf("expected 30 points, got %d", len(points))
	}
	if market.chartCalls != 0 {
		t.Fatal("fresh store should not hit the provider")
	}
}

func TestHistoryShortStoreFallsThrough(t *testing.T) {
	market := &stubMarket{chart: dailySeries(30, 64000)}
	history := newMemHistory()
	history.points["bitcoin"] = dailySeries(5, 64000)
	svc := NewQuoteService(testTracer(), market, nil, history)

	points, err := svc.History(context.Background(), "bitcoin", 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if market.chartCalls != 1 {
		t.Fatal("short store read should fetch upstream")
	}
	if history.upserts != 1 {
		t.Fatal("fetched chart should be persisted")
	}
	if len(points) != 30 {
		t.Fatalf("expected 30 points, got %d", len(points))
	}
}

func TestHistoryStaleStoreRefreshes(t *testing.T) {
	market := &stubMarket{chart: dailySeries(30, 64000)}
	history := newMemHistory()
	stale := dailySeries(30, 64000)
	for i := range stale {
		stale[i].Timestamp = stale[i].Timestamp.AddDate(0, 0, -10)
	}
	history.points["bitcoin"] = stale
	svc := NewQuoteService(testTracer(), market, nil, history)

	if _, err := svc.History(context.Background(), "bitcoin", 30); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if market.chartCalls != 1 {
		t.Fatal("stale store should refresh from upstream")
	}
}

func TestPopularCachesResults(t *testing.T) {
	market := &stubMarket{popular: []domain.CoinQuote{
		{ID: "bitcoin", PriceUSD: 64000},
		{ID: "dogecoin", PriceUSD: 0.1},
	}}
	cache := newMemQuoteCache()
	svc := NewQuoteService(testTracer(), market, cache, nil)

	quotes, err := svc.Popular(context.Background(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(quotes) != 2 {
		t.Fatalf("expected 2 quotes, got %d", len(quotes))
	}
	if len(cache.entries) != 2 {
		t.Fatal("popular quotes should be cached")
	}
}

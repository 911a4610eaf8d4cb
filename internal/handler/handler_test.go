package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"crypto-weather/internal/domain"
	"crypto-weather/internal/forecast"
	"crypto-weather/internal/provider"
	"crypto-weather/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/trace"
)

type stubMarket struct {
	quotes   []domain.CoinQuote
	popular  []domain.CoinQuote
	chart    []domain.PricePoint
	err      error
	trending []string
}

func (m *stubMarket) Quotes(ctx context.Context, ids []string) ([]domain.CoinQuote, error) {
	return m.quotes, m.err
}

func (m *stubMarket) Popular(ctx context.Context, limit int) ([]domain.CoinQuote, error) {
	if m.err != nil {
		return nil, m.err
	}
	if limit < len(m.popular) {
		return m.popular[:limit], nil
	}
	return m.popular, nil
}

func (m *stubMarket) MarketChart(ctx context.Context, id string, days int) ([]domain.PricePoint, error) {
	return m.chart, m.err
}

func (m *stubMarket) Global(ctx context.Context) (provider.GlobalMarket, error) {
	return provider.GlobalMarket{MarketCapChange24h: 1.2, BTCDominance: 52}, nil
}

func (m *stubMarket) Trending(ctx context.Context) ([]string, error) {
	return m.trending, nil
}

func chartSeries(n int, end float64) []domain.PricePoint {
	points := make([]domain.PricePoint, n)
	now := time.Now().UTC().Truncate(24 * time.Hour)
	for i := range points {
		points[i] = domain.PricePoint{
			Timestamp: now.AddDate(0, 0, i-n+1),
			Price:     end - float64(n-1-i)*10,
			Volume:    1e6,
		}
	}
	return points
}

func newTestRouter(market *stubMarket) *gin.Engine {
	gin.SetMode(gin.TestMode)
	tracer := trace.NewNoopTracerProvider().Tracer("test")

	quotes := service.NewQuoteService(tracer, market, nil, nil)
	gen := forecast.NewGenerator(nil, nil)
	forecasts := service.NewForecastService(tracer, quotes, market, gen, nil, nil)
	regional := service.NewRegionalService(tracer, quotes, nil)

	h := New(tracer, quotes, forecasts, regional)
	h.streamInterval = 10 * time.Millisecond

	r := gin.New()
	h.RegisterRoutes(r)
	return r
}

func marketFixture() *stubMarket {
	return &stubMarket{
		quotes: []domain.CoinQuote{
			{ID: "bitcoin", Symbol: "BTC", Name: "Bitcoin", PriceUSD: 64000, Change24h: 2.1, MarketCap: 1.2e12, Volume24h: 3e10},
		},
		popular: []domain.CoinQuote{
			{ID: "bitcoin", PriceUSD: 64000},
			{ID: "ethereum", PriceUSD: 3100},
			{ID: "tether", PriceUSD: 1},
			{ID: "solana", PriceUSD: 145},
			{ID: "ripple", PriceUSD: 0.6},
		},
		chart:    chartSeries(30, 64000),
		trending: []string{"bitcoin"},
	}
}

func doRequest(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r := newTestRouter(marketFixture())
	w := doRequest(t, r, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestGetCryptoSingle(t *testing.T) {
	r := newTestRouter(marketFixture())
	w := doRequest(t, r, http.MethodGet, "/api/crypto?coin=BTC", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Data domain.CoinQuote `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.ID != "bitcoin" || resp.Data.PriceUSD != 64000 {
		t.Fatalf("unexpected quote: %+v", resp.Data)
	}
}

func TestGetCryptoRefreshBypassesCache(t *testing.T) {
	r := newTestRouter(marketFixture())
	w := doRequest(t, r, http.MethodGet, "/api/crypto?coin=BTC&refresh=true", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestGetCryptoUnsupported(t *testing.T) {
	r := newTestRouter(marketFixture())
	w := doRequest(t, r, http.MethodGet, "/api/crypto?coin=dogecoin", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "supported_coins") {
		t.Fatal("error body should list supported coins")
	}
}

func TestGetCryptoUpstreamFailure(t *testing.T) {
	market := marketFixture()
	market.quotes = nil
	market.err = errors.New("upstream down")
	r := newTestRouter(market)

	w := doRequest(t, r, http.MethodGet, "/api/crypto?coin=bitcoin", "")
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
}

func TestGetPopularLimitValidation(t *testing.T) {
	r := newTestRouter(marketFixture())
	w := doRequest(t, r, http.MethodGet, "/api/crypto/popular?limit=999", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestGetHistoryRequiresCoin(t *testing.T) {
	r := newTestRouter(marketFixture())
	w := doRequest(t, r, http.MethodGet, "/api/crypto/history", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestGetHistoryReturnsSeries(t *testing.T) {
	r := newTestRouter(marketFixture())
	w := doRequest(t, r, http.MethodGet, "/api/crypto/history?coin=bitcoin&days=30", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Data []domain.PricePoint `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Data) != 30 {
		t.Fatalf("expected 30 points, got %d", len(resp.Data))
	}
}

func TestGetChartReturnsPNG(t *testing.T) {
	r := newTestRouter(marketFixture())
	w := doRequest(t, r, http.MethodGet, "/api/crypto/chart?coin=bitcoin&days=30&overlay=rsi", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("expected image/png, got %s", ct)
	}
	if w.Body.Len() == 0 {
		t.Fatal("expected image bytes")
	}
}

func TestGetChartValidation(t *testing.T) {
	r := newTestRouter(marketFixture())

	w := doRequest(t, r, http.MethodGet, "/api/crypto/chart", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without coin, got %d", w.Code)
	}

	w = doRequest(t, r, http.MethodGet, "/api/crypto/chart?coin=bitcoin&overlay=candles", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown overlay, got %d", w.Code)
	}
}

func TestGetForecast(t *testing.T) {
	r := newTestRouter(marketFixture())
	w := doRequest(t, r, http.MethodGet, "/api/forecast?coin=bitcoin&confidence=conservative", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Data domain.ForecastResult `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Data.Days) != 5 {
		t.Fatalf("expected 5 forecast days, got %d", len(resp.Data.Days))
	}
	if resp.Data.Disclaimer != domain.Disclaimer {
		t.Fatal("forecast must carry the disclaimer")
	}
}

func TestGetForecastMock(t *testing.T) {
	r := newTestRouter(marketFixture())
	w := doRequest(t, r, http.MethodGet, "/api/forecast?coin=bitcoin&mock=1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Data domain.ForecastResult `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Data.Fallback {
		t.Fatal("mock forecast must be labeled as fallback")
	}
}

func TestGetForecastInvalidConfidence(t *testing.T) {
	r := newTestRouter(marketFixture())
	w := doRequest(t, r, http.MethodGet, "/api/forecast?coin=bitcoin&confidence=yolo", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestGetRegional(t *testing.T) {
	r := newTestRouter(marketFixture())
	w := doRequest(t, r, http.MethodGet, "/api/regional?analysis=true", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Data service.RegionalOverview `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Data.Regions) != 4 {
		t.Fatalf("expected 4 regions, got %d", len(resp.Data.Regions))
	}
	if resp.Data.Regions[0].Analysis == nil {
		t.Fatal("analysis requested but missing")
	}
}

func TestAskRegionalValidation(t *testing.T) {
	r := newTestRouter(marketFixture())

	w := doRequest(t, r, http.MethodPost, "/api/regional", `{"query":""}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty query, got %d", w.Code)
	}

	w = doRequest(t, r, http.MethodPost, "/api/regional", `{"query":"how is the weather for crypto?"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestStreamPricesPushesQuotes(t *testing.T) {
	r := newTestRouter(marketFixture())
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/prices"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var payload struct {
		Type string             `json:"type"`
		Data []domain.CoinQuote `json:"data"`
	}
	if err := json.Unmarshal(msg, &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Type != "prices" || len(payload.Data) == 0 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

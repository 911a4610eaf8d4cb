package mcp

import (
	"context"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

func readResource(t *testing.T, session *sdkmcp.ClientSession, uri string) *sdkmcp.ReadResourceResult {
	t.Helper()
	res, err := session.ReadResource(context.Background(), &sdkmcp.ReadResourceParams{URI: uri})
	if err != nil {
		t.Fatalf("ReadResource(%s): %v", uri, err)
	}
	return res
}

func TestSupportedCoinsResource(t *testing.T) {
	srv, _, _ := testServer()
	session, cancel, err := connectInMemory(context.Background(), srv)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer cancel()
	defer session.Close()

	res := readResource(t, session, "market://supported-coins")
	var ids []string
	if err := decodeResourceJSON(res, &ids); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(ids) == 0 {
		t.Fatal("expected at least one supported coin")
	}
	found := false
	for _, id := range ids {
		if id == "bitcoin" {
			found = true
		}
	}
	if !found {
		t.Fatalf("bitcoin missing from supported coins: %v", ids)
	}
}

func TestQuoteByCoinResource(t *testing.T) {
	srv, _, _ := testServer()
	session, cancel, err := connectInMemory(context.Background(), srv)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer cancel()
	defer session.Close()

	res := readResource(t, session, "quotes://coin/btc")
	var out quotesGetByCoinOutput
	if err := decodeResourceJSON(res, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Quote.ID != "bitcoin" {
		t.Fatalf("quote ID = %q, want bitcoin", out.Quote.ID)
	}
}

func TestHistoryResourceDaysParam(t *testing.T) {
	srv, quotes, _ := testServer()
	session, cancel, err := connectInMemory(context.Background(), srv)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer cancel()
	defer session.Close()

	res := readResource(t, session, "history://bitcoin?days=7")
	var out historyListOutput
	if err := decodeResourceJSON(res, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Coin != "bitcoin" {
		t.Fatalf("coin = %q, want bitcoin", out.Coin)
	}
	if quotes.lastHistoryDays != 7 {
		t.Fatalf("history days = %d, want 7", quotes.lastHistoryDays)
	}
}

func TestForecastResourceConfidenceParam(t *testing.T) {
	srv, _, forecasts := testServer()
	session, cancel, err := connectInMemory(context.Background(), srv)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer cancel()
	defer session.Close()

	res := readResource(t, session, "forecast://eth?confidence=conservative")
	var out forecastGenerateOutput
	if err := decodeResourceJSON(res, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Forecast.Symbol != "BTC" {
		t.Fatalf("forecast symbol = %q", out.Forecast.Symbol)
	}
	if forecasts.lastCoin != "ethereum" {
		t.Fatalf("resolved coin = %q, want ethereum", forecasts.lastCoin)
	}
	if forecasts.lastLevel != "conservative" {
		t.Fatalf("confidence = %q, want conservative", forecasts.lastLevel)
	}
}

func TestUnknownResourceSchemeRejected(t *testing.T) {
	srv, _, _ := testServer()
	session, cancel, err := connectInMemory(context.Background(), srv)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer cancel()
	defer session.Close()

	if _, err := session.ReadResource(context.Background(), &sdkmcp.ReadResourceParams{URI: "quotes://nope/btc"}); err == nil {
		t.Fatal("expected error for unknown resource URI")
	}
}

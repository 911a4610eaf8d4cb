package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("DATA_PROVIDER", "")
	t.Setenv("COINGECKO_API_KEY", "")
	t.Setenv("COINGECKO_MCP_ENDPOINT", "")
	t.Setenv("QUOTE_POLL_SECS", "")
	t.Setenv("HISTORY_REFRESH_MINS", "")
	t.Setenv("STREAM_INTERVAL_SECS", "")
	t.Setenv("MCP_TRANSPORT", "")
	t.Setenv("MCP_HTTP_ENABLED", "")
	t.Setenv("MCP_HTTP_BIND", "")
	t.Setenv("MCP_HTTP_PORT", "")
	t.Setenv("MCP_AUTH_TOKEN", "")
	t.Setenv("MCP_REQUEST_TIMEOUT_SECS", "")
	t.Setenv("MCP_RATE_LIMIT_PER_MIN", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("OPENAI_MODEL", "")
	t.Setenv("SSH_ENABLED", "")
	t.Setenv("SSH_BIND", "")
	t.Setenv("SSH_PORT", "")
	t.Setenv("SSH_HOST_KEY_PATH", "")
	t.Setenv("ANOMALY_ENABLED", "")
	t.Setenv("ANOMALY_THRESHOLD", "")

	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.RedisURL != "localhost:6379" {
		t.Fatalf("expected default redis url, got %s", cfg.RedisURL)
	}
	if cfg.DataProvider != "rest" {
		t.Fatalf("expected default data provider rest, got %s", cfg.DataProvider)
	}
	if cfg.QuotePollSecs != 300 || cfg.HistoryRefreshMins != 360 || cfg.StreamIntervalSecs != 15 {
		t.Fatalf("unexpected poll defaults: %+v", cfg)
	}
	if cfg.MCPTransport != "stdio" {
		t.Fatalf("expected default MCP transport stdio, got %s", cfg.MCPTransport)
	}
	if cfg.MCPHTTPBind != "127.0.0.1" || cfg.MCPHTTPPort != 8090 {
		t.Fatalf("unexpected MCP http defaults: %s:%d", cfg.MCPHTTPBind, cfg.MCPHTTPPort)
	}
	if cfg.MCPRequestTimeoutSecs != 15 || cfg.MCPRateLimitPerMin != 60 {
		t.Fatalf("unexpected MCP defaults: timeout=%d rate=%d", cfg.MCPRequestTimeoutSecs, cfg.MCPRateLimitPerMin)
	}
	if cfg.OpenAIModel != "gpt-4o-mini" {
		t.Fatalf("expected default OpenAI model, got %s", cfg.OpenAIModel)
	}
	if cfg.SSHEnabled || cfg.SSHBind != "0.0.0.0" || cfg.SSHPort != 2222 {
		t.Fatalf("unexpected SSH defaults: %+v", cfg)
	}
	if !cfg.AnomalyEnabled || cfg.AnomalyThreshold != 0.62 {
		t.Fatalf("unexpected anomaly defaults: %+v", cfg)
	}
}

func TestLoadWithEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis:6379")
	t.Setenv("DATA_PROVIDER", "mcp")
	t.Setenv("COINGECKO_API_KEY", "demo-key")
	t.Setenv("COINGECKO_MCP_ENDPOINT", "https://mcp.example/sse")
	t.Setenv("QUOTE_POLL_SECS", "120")
	t.Setenv("HISTORY_REFRESH_MINS", "60")
	t.Setenv("STREAM_INTERVAL_SECS", "5")
	t.Setenv("MCP_TRANSPORT", "http")
	t.Setenv("MCP_HTTP_ENABLED", "true")
	t.Setenv("MCP_HTTP_BIND", "0.0.0.0")
	t.Setenv("MCP_HTTP_PORT", "9191")
	t.Setenv("MCP_AUTH_TOKEN", "secret")
	t.Setenv("MCP_REQUEST_TIMEOUT_SECS", "9")
	t.Setenv("MCP_RATE_LIMIT_PER_MIN", "75")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_MODEL", "gpt-4o")
	t.Setenv("SSH_ENABLED", "true")
	t.Setenv("SSH_BIND", "127.0.0.1")
	t.Setenv("SSH_PORT", "2223")
	t.Setenv("SSH_HOST_KEY_PATH", "/tmp/hostkey")
	t.Setenv("ANOMALY_ENABLED", "false")
	t.Setenv("ANOMALY_THRESHOLD", "0.70")

	cfg := Load()
	if cfg.Port != "9090" || cfg.TelegramBotToken != "token" || cfg.DatabaseURL != "postgres://example" || cfg.RedisURL != "redis:6379" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.DataProvider != "mcp" || cfg.CoinGeckoAPIKey != "demo-key" || cfg.CoinGeckoMCPURL != "https://mcp.example/sse" {
		t.Fatalf("unexpected provider config: %+v", cfg)
	}
	if cfg.QuotePollSecs != 120 || cfg.HistoryRefreshMins != 60 || cfg.StreamIntervalSecs != 5 {
		t.Fatalf("unexpected poll config: %+v", cfg)
	}
	if cfg.MCPTransport != "http" || !cfg.MCPHTTPEnabled || cfg.MCPHTTPBind != "0.0.0.0" || cfg.MCPHTTPPort != 9191 || cfg.MCPAuthToken != "secret" {
		t.Fatalf("unexpected MCP config: %+v", cfg)
	}
	if cfg.MCPRequestTimeoutSecs != 9 || cfg.MCPRateLimitPerMin != 75 {
		t.Fatalf("unexpected MCP timeout/rate: %+v", cfg)
	}
	if cfg.OpenAIAPIKey != "sk-test" || cfg.OpenAIModel != "gpt-4o" {
		t.Fatalf("unexpected OpenAI config: %+v", cfg)
	}
	if !cfg.SSHEnabled || cfg.SSHBind != "127.0.0.1" || cfg.SSHPort != 2223 || cfg.SSHHostKeyPath != "/tmp/hostkey" {
		t.Fatalf("unexpected SSH config: %+v", cfg)
	}
	if cfg.AnomalyEnabled || cfg.AnomalyThreshold != 0.70 {
		t.Fatalf("unexpected anomaly config: %+v", cfg)
	}

	t.Setenv("QUOTE_POLL_SECS", "bad")
	t.Setenv("HISTORY_REFRESH_MINS", "bad")
	t.Setenv("STREAM_INTERVAL_SECS", "bad")
	t.Setenv("MCP_HTTP_PORT", "bad")
	t.Setenv("MCP_REQUEST_TIMEOUT_SECS", "bad")
	t.Setenv("MCP_RATE_LIMIT_PER_MIN", "bad")
	t.Setenv("SSH_PORT", "bad")
	t.Setenv("DATA_PROVIDER", "carrier-pigeon")
	t.Setenv("ANOMALY_ENABLED", "bad")
	t.Setenv("ANOMALY_THRESHOLD", "bad")
	cfg = Load()
	if cfg.QuotePollSecs != 300 || cfg.HistoryRefreshMins != 360 || cfg.StreamIntervalSecs != 15 {
		t.Fatalf("invalid poll values should fall back to defaults: %+v", cfg)
	}
	if cfg.MCPHTTPPort != 8090 || cfg.MCPRequestTimeoutSecs != 15 || cfg.MCPRateLimitPerMin != 60 {
		t.Fatalf("invalid MCP numeric values should fall back to defaults: %+v", cfg)
	}
	if cfg.SSHPort != 2222 {
		t.Fatalf("invalid SSH port should fall back to default, got %d", cfg.SSHPort)
	}
	if cfg.DataProvider != "rest" {
		t.Fatalf("invalid data provider should fall back to rest, got %s", cfg.DataProvider)
	}
	if !cfg.AnomalyEnabled || cfg.AnomalyThreshold != 0.62 {
		t.Fatalf("invalid anomaly values should fall back to defaults: %+v", cfg)
	}
}

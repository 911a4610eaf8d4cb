package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	ossignal "os/signal"
	"strings"
	"syscall"
	"time"

	"crypto-weather/internal/anomaly"
	"crypto-weather/internal/cache"
	"crypto-weather/internal/config"
	"crypto-weather/internal/db"
	"crypto-weather/internal/forecast"
	mcpserver "crypto-weather/internal/mcp"
	"crypto-weather/internal/provider"
	"crypto-weather/internal/repository"
	"crypto-weather/internal/service"
	"crypto-weather/pkg/tracing"

	"github.com/joho/godotenv"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.opentelemetry.io/otel/trace"
)

const defaultMCPHTTPMaxBodyBytes int64 = 1 << 20 // 1MiB

var (
	loadEnvFunc      = godotenv.Load
	loadConfigFunc   = config.Load
	initPostgresFunc = db.InitPostgres
	initRedisFunc    = cache.InitRedis
	initTracerFunc   = tracing.InitTracer
	newProviderFunc  = func(cfg *config.Config, tracer trace.Tracer) provider.MarketData {
		if cfg.DataProvider == "mcp" {
			endpoint := cfg.CoinGeckoMCPURL
			if endpoint == "" {
				endpoint = provider.DefaultMCPEndpoint
			}
			return provider.NewMCP(endpoint, tracer)
		}
		return provider.NewCoinGecko(provider.DefaultBaseURL, cfg.CoinGeckoAPIKey, nil, tracer)
	}
	newQuoteServiceFunc    = service.NewQuoteService
	newForecastServiceFunc = service.NewForecastService
	newRegionalServiceFunc = service.NewRegionalService
	newMCPServerFunc       = mcpserver.NewServer
	newMCPHandlerFunc      = mcpserver.NewHTTPTransportHandler
	runStdioFunc           = func(ctx context.Context, server *sdkmcp.Server) error {
		return server.Run(ctx, &sdkmcp.StdioTransport{})
	}
	startHTTPServerFunc  = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFn = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
	setupSignalNotify    = ossignal.Notify
	waitForSignalFunc    = func(quit <-chan os.Signal) { <-quit }
)

func main() {
	loadEnvFunc()
	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	os.Setenv("DATABASE_URL", cfg.DatabaseURL)
	os.Setenv("REDIS_URL", cfg.RedisURL)
	initPostgresFunc(ctx)
	initRedisFunc(ctx)

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	var quoteCache service.QuoteCache
	var forecastCache service.ForecastCache
	if cache.Client != nil {
		quoteCache = cache.NewQuoteStore(cache.Client, cache.QuoteTTL)
		forecastCache = cache.NewForecastStore(cache.Client, cache.QuoteTTL)
	}

	var historyStore service.HistoryStore
	if db.Pool != nil {
		historyStore = repository.NewHistoryRepository(db.Pool, tracer)
	}

	market := newProviderFunc(cfg, tracer)
	quoteService := newQuoteServiceFunc(tracer, market, quoteCache, historyStore)

	var detector service.TurbulenceDetector
	if cfg.AnomalyEnabled {
		detector = anomaly.NewDetector(cfg.AnomalyThreshold)
	}
	forecastService := newForecastServiceFunc(tracer, quoteService, market, forecast.NewGenerator(nil, nil), forecastCache, detector)

	var chat service.ChatCompleter
	if cfg.OpenAIAPIKey != "" {
		client := openai.NewClient(option.WithAPIKey(cfg.OpenAIAPIKey))
		chat = service.NewOpenAIChat(client, cfg.OpenAIModel)
	}
	regionalService := newRegionalServiceFunc(tracer, quoteService, chat)

	mcpSrv := newMCPServerFunc(tracer, quoteService, forecastService, regionalService, mcpserver.ServerConfig{
		RequestTimeout: time.Duration(cfg.MCPRequestTimeoutSecs) * time.Second,
	})

	transport := strings.ToLower(strings.TrimSpace(cfg.MCPTransport))
	switch transport {
	case "", "stdio":
		if err := runStdioFunc(ctx, mcpSrv); err != nil {
			log.Fatalf("mcp stdio server failed: %v", err)
		}
	case "http":
		if err := runHTTPMode(ctx, cancel, cfg, mcpSrv); err != nil {
			log.Fatalf("mcp http server failed: %v", err)
		}
	default:
		log.Fatalf("unsupported MCP_TRANSPORT: %s", cfg.MCPTransport)
	}
}

func runHTTPMode(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, mcpSrv *sdkmcp.Server) error {
	if !cfg.MCPHTTPEnabled {
		return fmt.Errorf("MCP_HTTP_ENABLED must be true when MCP_TRANSPORT=http")
	}
	if strings.TrimSpace(cfg.MCPAuthToken) == "" {
		return fmt.Errorf("MCP_AUTH_TOKEN is required when MCP_TRANSPORT=http")
	}

	handler := newMCPHandlerFunc(mcpSrv, mcpserver.HTTPHandlerConfig{
		AuthToken:       cfg.MCPAuthToken,
		RateLimitPerMin: cfg.MCPRateLimitPerMin,
		MaxBodyBytes:    defaultMCPHTTPMaxBodyBytes,
	})

	addr := net.JoinHostPort(cfg.MCPHTTPBind, fmt.Sprintf("%d", cfg.MCPHTTPPort))
	srv := &http.Server{Addr: addr, Handler: handler}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Printf("mcp http server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFn(srv, shutdownCtx); err != nil {
		return fmt.Errorf("mcp server forced to shutdown: %w", err)
	}
	return nil
}

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"crypto-weather/internal/anomaly"
	"crypto-weather/internal/bot"
	"crypto-weather/internal/cache"
	"crypto-weather/internal/config"
	"crypto-weather/internal/db"
	"crypto-weather/internal/forecast"
	"crypto-weather/internal/handler"
	"crypto-weather/internal/job"
	"crypto-weather/internal/provider"
	"crypto-weather/internal/repository"
	"crypto-weather/internal/service"
	"crypto-weather/pkg/tracing"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	_ "crypto-weather/docs"
)

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
	newQuotePollerFunc     = job.NewQuotePoller
	startPollerFunc        = func(p *job.QuotePoller, ctx context.Context) { go p.Start(ctx) }
	startTelegramBotFunc   = bot.StartTelegramBot
	newHandlerFunc         = handler.New
	newRouterFunc          = gin.Default
	setupSignalNotify      = ossignal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// regionalAdvisor narrows the regional service to the bot's advisor interface.
type regionalAdvisor struct {
	svc *service.RegionalService
}

func (a regionalAdvisor) Ask(ctx context.Context, question string) (string, error) {
	answer, err := a.svc.Ask(ctx, question, "")
	if err != nil {
		return "", err
	}
	return answer.Response, nil
}

// @title           Crypto Weather API
// @version         1.0
// @description     Weather-themed cryptocurrency dashboard with 5-day forecasts.

// @host      localhost:8080
// @BasePath  /
func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init Postgres and Redis
	os.Setenv("DATABASE_URL", cfg.DatabaseURL)
	os.Setenv("REDIS_URL", cfg.RedisURL)
	initPostgresFunc(ctx)
	initRedisFunc(ctx)

	// Init tracing
	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	// Storage layers are optional: without them the service degrades to
	// upstream-only fetching.
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

	// Create providers and services
	market := newProviderFunc(cfg, tracer)
	quoteService := newQuoteServiceFunc(tracer, market, quoteCache, historyStore)

	var detector service.TurbulenceDetector
	if cfg.AnomalyEnabled {
		detector = anomaly.NewDetector(cfg.AnomalyThreshold)
	}
	generator := forecast.NewGenerator(nil, nil)
	forecastService := newForecastServiceFunc(tracer, quoteService, market, generator, forecastCache, detector)

	var chat service.ChatCompleter
	if cfg.OpenAIAPIKey != "" {
		client := openai.NewClient(option.WithAPIKey(cfg.OpenAIAPIKey))
		chat = service.NewOpenAIChat(client, cfg.OpenAIModel)
	}
	regionalService := newRegionalServiceFunc(tracer, quoteService, chat)

	// Start background poller (stopped by ctx cancel)
	poller := newQuotePollerFunc(tracer, quoteService)
	poller.SetIntervals(
		time.Duration(cfg.QuotePollSecs)*time.Second,
		time.Duration(cfg.HistoryRefreshMins)*time.Minute,
	)
	startPollerFunc(poller, ctx)

	// Start Telegram bot
	os.Setenv("TELEGRAM_BOT_TOKEN", cfg.TelegramBotToken)
	startTelegramBotFunc(quoteService, forecastService, regionalAdvisor{svc: regionalService})

	// Create handlers and routes
	h := newHandlerFunc(tracer, quoteService, forecastService, regionalService)
	h.SetStreamInterval(time.Duration(cfg.StreamIntervalSecs) * time.Second)

	r := newRouterFunc()
	r.Use(otelgin.Middleware("crypto-weather"))
	r.Use(cors.Default())

	h.RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}

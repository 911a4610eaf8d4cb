package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"crypto-weather/internal/anomaly"
	"crypto-weather/internal/cache"
	"crypto-weather/internal/config"
	"crypto-weather/internal/db"
	"crypto-weather/internal/forecast"
	"crypto-weather/internal/provider"
	"crypto-weather/internal/repository"
	"crypto-weather/internal/service"
	"crypto-weather/internal/tui"
	"crypto-weather/pkg/tracing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	bm "github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel/trace"
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
	newWishServerFunc    = wish.NewServer
	startSSHServerFunc   = func(srv *ssh.Server) error { return srv.ListenAndServe() }
	shutdownSSHServerFn  = func(srv *ssh.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
	setupSignalNotify    = ossignal.Notify
	waitForSignalFunc    = func(quit <-chan os.Signal) { <-quit }
)

// regionalAdvisor narrows the regional service to the TUI advisor interface.
type regionalAdvisor struct {
	regional *service.RegionalService
}

func (a regionalAdvisor) Ask(ctx context.Context, question string) (string, error) {
	answer, err := a.regional.Ask(ctx, question, "")
	if err != nil {
		return "", err
	}
	return answer.Response, nil
}

func main() {
	loadEnvFunc()
	cfg := loadConfigFunc()

	if !cfg.SSHEnabled {
		log.Println("SSH_ENABLED is false, terminal dashboard will not start")
		return
	}

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
	quoteService := service.NewQuoteService(tracer, market, quoteCache, historyStore)

	var detector service.TurbulenceDetector
	if cfg.AnomalyEnabled {
		detector = anomaly.NewDetector(cfg.AnomalyThreshold)
	}
	forecastService := service.NewForecastService(tracer, quoteService, market, forecast.NewGenerator(nil, nil), forecastCache, detector)
	regionalService := service.NewRegionalService(tracer, quoteService, nil)

	handler := sessionHandler(quoteService, forecastService, regionalAdvisor{regional: regionalService})

	addr := net.JoinHostPort(cfg.SSHBind, fmt.Sprintf("%d", cfg.SSHPort))
	srv, err := newWishServerFunc(
		wish.WithAddress(addr),
		wish.WithHostKeyPath(cfg.SSHHostKeyPath),
		wish.WithMiddleware(
			bm.Middleware(handler),
			activeterm.Middleware(),
			logging.Middleware(),
		),
	)
	if err != nil {
		log.Fatalf("failed to create ssh server: %v", err)
	}

	log.Printf("Terminal dashboard listening on ssh://%s", addr)
	go func() {
		if err := startSSHServerFunc(srv); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			log.Printf("ssh server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down ssh server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := shutdownSSHServerFn(srv, shutdownCtx); err != nil {
		log.Printf("ssh server forced to shutdown: %v", err)
	}
}

// sessionHandler builds a per-session program backed by the shared services.
func sessionHandler(quotes tui.QuoteQuerier, forecasts tui.ForecastQuerier, advisor tui.AdvisorQuerier) bm.Handler {
	return func(s ssh.Session) (tea.Model, []tea.ProgramOption) {
		pty, _, _ := s.Pty()

		model := tui.NewAppModel(tui.Services{
			Quotes:    quotes,
			Forecasts: forecasts,
			Advisor:   advisor,
			Username:  s.User(),
		})
		model.SetSize(pty.Window.Width, pty.Window.Height)

		return model, []tea.ProgramOption{tea.WithAltScreen()}
	}
}

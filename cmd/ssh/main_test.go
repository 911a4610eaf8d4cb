package main

import (
	"context"
	"os"
	"testing"
	"time"

	"crypto-weather/internal/config"
	"crypto-weather/internal/domain"
	"crypto-weather/internal/provider"

	"github.com/charmbracelet/ssh"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestMainSSHDisabled(t *testing.T) {
	restore := stubSSHDeps(t, false)
	defer restore()

	done := make(chan struct{})
	go func() {
		main()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("main did not exit with SSH disabled")
	}
}

func TestMainSSHBootstrap(t *testing.T) {
	restore := stubSSHDeps(t, true)
	defer restore()

	done := make(chan struct{})
	go func() {
		main()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("main did not exit")
	}
}

func stubSSHDeps(t *testing.T, enabled bool) func() {
	t.Helper()

	origLoadEnv := loadEnvFunc
	origLoadConfig := loadConfigFunc
	origInitPostgres := initPostgresFunc
	origInitRedis := initRedisFunc
	origInitTracer := initTracerFunc
	origNewProvider := newProviderFunc
	origNewWish := newWishServerFunc
	origStart := startSSHServerFunc
	origShutdown := shutdownSSHServerFn
	origNotify := setupSignalNotify
	origWait := waitForSignalFunc

	loadEnvFunc = func(...string) error { return nil }
	loadConfigFunc = func() *config.Config {
		return &config.Config{
			DataProvider:   "rest",
			SSHEnabled:     enabled,
			SSHBind:        "127.0.0.1",
			SSHPort:        2222,
			SSHHostKeyPath: t.TempDir() + "/test_ed25519",
		}
	}
	initPostgresFunc = func(context.Context) {}
	initRedisFunc = func(context.Context) {}
	initTracerFunc = func(ctx context.Context) (*sdktrace.TracerProvider, trace.Tracer, error) {
		tp := sdktrace.NewTracerProvider()
		return tp, tp.Tracer("test"), nil
	}
	newProviderFunc = func(*config.Config, trace.Tracer) provider.MarketData { return stubMarketData{} }
	newWishServerFunc = func(...ssh.Option) (*ssh.Server, error) { return &ssh.Server{}, nil }
	startSSHServerFunc = func(*ssh.Server) error { return ssh.ErrServerClosed }
	shutdownSSHServerFn = func(*ssh.Server, context.Context) error { return nil }
	setupSignalNotify = func(c chan<- os.Signal, sig ...os.Signal) {}
	waitForSignalFunc = func(<-chan os.Signal) {}

	return func() {
		loadEnvFunc = origLoadEnv
		loadConfigFunc = origLoadConfig
		initPostgresFunc = origInitPostgres
		initRedisFunc = origInitRedis
		initTracerFunc = origInitTracer
		newProviderFunc = origNewProvider
		newWishServerFunc = origNewWish
		startSSHServerFunc = origStart
		shutdownSSHServerFn = origShutdown
		setupSignalNotify = origNotify
		waitForSignalFunc = origWait
	}
}

type stubMarketData struct{}

func (stubMarketData) Quotes(ctx context.Context, geckoIDs []string) ([]domain.CoinQuote, error) {
	return []domain.CoinQuote{{ID: "bitcoin", Symbol: "BTC", PriceUSD: 1}}, nil
}

func (stubMarketData) Popular(ctx context.Context, limit int) ([]domain.CoinQuote, error) {
	return nil, nil
}

func (stubMarketData) MarketChart(ctx context.Context, geckoID string, days int) ([]domain.PricePoint, error) {
	return nil, nil
}

func (stubMarketData) Global(ctx context.Context) (provider.GlobalMarket, error) {
	return provider.GlobalMarket{}, nil
}

func (stubMarketData) Trending(ctx context.Context) ([]string, error) {
	return nil, nil
}

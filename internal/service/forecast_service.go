package service

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log"
	"math/rand"
	"time"

	"crypto-weather/internal/domain"
	"crypto-weather/internal/forecast"
	"crypto-weather/internal/provider"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type ForecastCache interface {
	Get(ctx context.Context, geckoID string, level domain.ConfidenceLevel) (domain.ForecastResult, bool)
	Put(ctx context.Context, geckoID string, level domain.ConfidenceLevel, result domain.ForecastResult) error
}

type TurbulenceDetector interface {
	Turbulent(points []domain.PricePoint) bool
}

type Forecaster interface {
	Generate(in forecast.Input) (domain.ForecastResult, error)
}

// ForecastService orchestrates data collection and forecast generation for a
// coin. When history or market data cannot be assembled it degrades to a
// deterministic fallback forecast rather than failing the request.
type ForecastService struct {
	tracer    trace.Tracer
	quotes    *QuoteService
	market    provider.MarketData
	generator Forecaster
	cache     ForecastCache
	detector  TurbulenceDetector
}

func NewForecastService(
	tracer trace.Tracer,
	quotes *QuoteService,
	market provider.MarketData,
	generator Forecaster,
	cache ForecastCache,
	detector TurbulenceDetector,
) *ForecastService {
	return &ForecastService{
		tracer:    tracer,
		quotes:    quotes,
		market:    market,
		generator: generator,
		cache:     cache,
		detector:  detector,
	}
}

func (s *ForecastService) Generate(ctx context.Context, idOrSymbol string, level domain.ConfidenceLevel) (domain.ForecastResult, error) {
	ctx, span := s.tracer.Start(ctx, "forecast-service.generate")
	defer span.End()

	coin, err := ResolveCoin(idOrSymbol)
	if err != nil {
		return domain.ForecastResult{}, err
	}
	if _, err := level.Multiplier(); err != nil {
		return domain.ForecastResult{}, err
	}
	span.SetAttributes(
		attribute.String("forecast.coin", coin.GeckoID),
		attribute.String("forecast.confidence", string(level)),
	)

	if s.cache != nil {
		if result, ok := s.cache.Get(ctx, coin.GeckoID, level); ok {
			return result, nil
		}
	}

	quote, err := s.quotes.GetQuote(ctx, coin.GeckoID)
	if err != nil {
		return domain.ForecastResult{}, fmt.Errorf("quote for forecast: %w", err)
	}

	result, err := s.generateReal(ctx, coin, quote, level)
	if err != nil {
		var insufficient domain.InsufficientDataError
		if !errors.As(err, &insufficient) {
			log.Printf("forecast for %s degraded to fallback: %v", coin.GeckoID, err)
		}
		result = s.fallback(coin, quote, level)
	}

	if s.cache != nil {
		if err := s.cache.Put(ctx, coin.GeckoID, level, result); err != nil {
			log.Printf("cache forecast %s: %v", coin.GeckoID, err)
		}
	}
	return result, nil
}

// Mock returns the deterministic fallback forecast regardless of history
// availability. It still requires a live quote to anchor the projection.
func (s *ForecastService) Mock(ctx context.Context, idOrSymbol string, level domain.ConfidenceLevel) (domain.ForecastResult, error) {
	ctx, span := s.tracer.Start(ctx, "forecast-service.mock")
	defer span.End()

	coin, err := ResolveCoin(idOrSymbol)
	if err != nil {
		return domain.ForecastResult{}, err
	}
	if _, err := level.Multiplier(); err != nil {
		return domain.ForecastResult{}, err
	}

	quote, err := s.quotes.GetQuote(ctx, coin.GeckoID)
	if err != nil {
		return domain.ForecastResult{}, fmt.Errorf("quote for forecast: %w", err)
	}
	return s.fallback(coin, quote, level), nil
}

func (s *ForecastService) generateReal(ctx context.Context, coin domain.Coin, quote domain.CoinQuote, level domain.ConfidenceLevel) (domain.ForecastResult, error) {
	points, err := s.quotes.History(ctx, coin.GeckoID, defaultHistoryDays)
	if err != nil {
		return domain.ForecastResult{}, err
	}

	aux := s.collectAux(ctx, coin, quote)

	result, err := s.generator.Generate(forecast.Input{
		Coin:       coin,
		Prices:     points,
		Price:      quote.PriceUSD,
		Change24h:  quote.Change24h,
		Aux:        aux,
		Confidence: level,
	})
	if err != nil {
		return domain.ForecastResult{}, err
	}

	turbulent := s.detector != nil && s.detector.Turbulent(points)
	result.Alerts = forecast.BuildAlerts(result, turbulent)
	return result, nil
}

// collectAux gathers market-wide signals on a best-effort basis. A failed
// global or trending read just leaves that component neutral.
func (s *ForecastService) collectAux(ctx context.Context, coin domain.Coin, quote domain.CoinQuote) domain.AuxSignals {
	aux := domain.AuxSignals{
		MarketCap: quote.MarketCap,
		Volume24h: quote.Volume24h,
	}

	if global, err := s.market.Global(ctx); err == nil {
		aux.HasGlobal = true
		aux.MarketCapChange24h = global.MarketCapChange24h
		aux.BTCDominance = global.BTCDominance
	} else {
		log.Printf("global market data unavailable: %v", err)
	}

	if trending, err := s.market.Trending(ctx); err == nil {
		aux.HasTrending = true
		aux.TrendingIDs = trending
	} else {
		log.Printf("trending data unavailable: %v", err)
	}

	return aux
}

// fallback builds a clearly labeled forecast from the quote alone. The seed
// is derived from the coin and spot price so repeated requests agree until
// the quote changes.
func (s *ForecastService) fallback(coin domain.Coin, quote domain.CoinQuote, level domain.ConfidenceLevel) domain.ForecastResult {
	seed := fnv.New64a()
	fmt.Fprintf(seed, "%s:%.2f", coin.GeckoID, quote.PriceUSD)
	rng := rand.New(rand.NewSource(int64(seed.Sum64())))

	points := syntheticHistory(rng, quote.PriceUSD, quote.Change24h)

	gen := forecast.NewGenerator(nil, rng)
	result, err := gen.Generate(forecast.Input{
		Coin:       coin,
		Prices:     points,
		Price:      quote.PriceUSD,
		Change24h:  quote.Change24h,
		Confidence: level,
	})
	if err != nil {
		// Synthetic history always satisfies the generator's input rules;
		// reaching this means the quote itself is unusable.
		log.Printf("fallback forecast for %s: %v", coin.GeckoID, err)
		return domain.ForecastResult{
			Coin:       coin.Name,
			Symbol:     coin.Symbol,
			Fallback:   true,
			Summary:    "Forecast unavailable.",
			Disclaimer: domain.Disclaimer,
		}
	}

	result.Fallback = true
	result.Alerts = forecast.BuildAlerts(result, false)
	return result
}

// syntheticHistory walks the spot price backwards with the 24h momentum plus
// seeded noise, producing just enough samples for the indicator window.
func syntheticHistory(rng *rand.Rand, price, change24h float64) []domain.PricePoint {
	const days = domain.MinHistoryPoints
	if price <= 0 {
		return nil
	}
	dailyDrift := change24h / 100 * 0.3
	points := make([]domain.PricePoint, days)
	today := time.Now().UTC().Truncate(24 * time.Hour)
	p := price
	for i := days - 1; i >= 0; i-- {
		points[i] = domain.PricePoint{
			Timestamp: today.AddDate(0, 0, i-days),
			Price:     p,
		}
		step := dailyDrift + (rng.Float64()-0.5)*0.02
		p /= 1 + step
		if p <= 0 {
			p = price * 0.1
		}
	}
	return points
}

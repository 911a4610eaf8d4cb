package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"crypto-weather/internal/domain"
	"crypto-weather/internal/provider"

	"go.opentelemetry.io/otel/trace"
)

const (
	defaultHistoryDays  = 30
	defaultPopularLimit = 10
)

type QuoteCache interface {
	Get(ctx context.Context, geckoID string) (domain.CoinQuote, bool)
	Put(ctx context.Context, q domain.CoinQuote) error
	PutAll(ctx context.Context, quotes []domain.CoinQuote) error
}

type HistoryStore interface {
	UpsertPoints(ctx context.Context, geckoID string, points []domain.PricePoint) error
	GetPoints(ctx context.Context, geckoID string, limit int) ([]domain.PricePoint, error)
	LatestTimestamp(ctx context.Context, geckoID string) (time.Time, error)
}

// QuoteService serves coin quotes cache-first and keeps the price history
// store warm as a side effect of chart reads.
type QuoteService struct {
	tracer  trace.Tracer
	market  provider.MarketData
	cache   QuoteCache
	history HistoryStore
}

func NewQuoteService(tracer trace.Tracer, market provider.MarketData, cache QuoteCache, history HistoryStore) *QuoteService {
	return &QuoteService{tracer: tracer, market: market, cache: cache, history: history}
}

// ResolveCoin accepts a CoinGecko ID or a ticker symbol in any case.
func ResolveCoin(idOrSymbol string) (domain.Coin, error) {
	s := strings.TrimSpace(idOrSymbol)
	if s == "" {
		return domain.Coin{}, domain.InvalidInputError{Field: "coin", Reason: "empty"}
	}
	if coin, ok := domain.CoinByID[strings.ToLower(s)]; ok {
		return coin, nil
	}
	if coin, ok := domain.CoinBySymbol[strings.ToUpper(s)]; ok {
		return coin, nil
	}
	return domain.Coin{}, domain.InvalidInputError{Field: "coin", Reason: fmt.Sprintf("unsupported coin %q", s)}
}

func (s *QuoteService) GetQuote(ctx context.Context, idOrSymbol string) (domain.CoinQuote, error) {
	ctx, span := s.tracer.Start(ctx, "quote-service.get-quote")
	defer span.End()

	coin, err := ResolveCoin(idOrSymbol)
	if err != nil {
		return domain.CoinQuote{}, err
	}

	if s.cache != nil {
		if q, ok := s.cache.Get(ctx, coin.GeckoID); ok {
			return q, nil
		}
	}
	return s.fetchQuote(ctx, coin)
}

// RefreshQuote fetches upstream unconditionally, replacing any cached entry.
func (s *QuoteService) RefreshQuote(ctx context.Context, idOrSymbol string) (domain.CoinQuote, error) {
	ctx, span := s.tracer.Start(ctx, "quote-service.refresh-quote")
	defer span.End()

	coin, err := ResolveCoin(idOrSymbol)
	if err != nil {
		return domain.CoinQuote{}, err
	}
	return s.fetchQuote(ctx, coin)
}

func (s *QuoteService) fetchQuote(ctx context.Context, coin domain.Coin) (domain.CoinQuote, error) {
	quotes, err := s.market.Quotes(ctx, []string{coin.GeckoID})
	if err != nil {
		return domain.CoinQuote{}, fmt.Errorf("fetch quote for %s: %w", coin.GeckoID, err)
	}
	if len(quotes) == 0 {
		return domain.CoinQuote{}, fmt.Errorf("no quote returned for %s", coin.GeckoID)
	}

	quote := quotes[0]
	s.cacheQuote(ctx, quote)
	return quote, nil
}

// ListQuotes returns quotes for every supported coin, serving cached entries
// and fetching only the misses in one batch.
func (s *QuoteService) ListQuotes(ctx context.Context) ([]domain.CoinQuote, error) {
	ctx, span := s.tracer.Start(ctx, "quote-service.list-quotes")
	defer span.End()

	byID := make(map[string]domain.CoinQuote, len(domain.SupportedIDs))
	var misses []string
	for _, id := range domain.SupportedIDs {
		if s.cache != nil {
			if q, ok := s.cache.Get(ctx, id); ok {
				byID[id] = q
				continue
			}
		}
		misses = append(misses, id)
	}

	if len(misses) > 0 {
		fetched, err := s.market.Quotes(ctx, misses)
		if err != nil {
			return nil, fmt.Errorf("fetch quotes: %w", err)
		}
		for _, q := range fetched {
			byID[q.ID] = q
		}
		if s.cache != nil {
			if err := s.cache.PutAll(ctx, fetched); err != nil {
				log.Printf("cache quotes: %v", err)
			}
		}
	}

	quotes := make([]domain.CoinQuote, 0, len(byID))
	for _, id := range domain.SupportedIDs {
		if q, ok := byID[id]; ok {
			quotes = append(quotes, q)
		}
	}
	return quotes, nil
}

func (s *QuoteService) Popular(ctx context.Context, limit int) ([]domain.CoinQuote, error) {
	ctx, span := s.tracer.Start(ctx, "quote-service.popular")
	defer span.End()

	if limit <= 0 {
		limit = defaultPopularLimit
	}
	quotes, err := s.market.Popular(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch popular: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.PutAll(ctx, quotes); err != nil {
			log.Printf("cache popular quotes: %v", err)
		}
	}
	return quotes, nil
}

// History returns a daily price series, oldest first. The store is consulted
// first; on a short or empty read the upstream chart is fetched and persisted.
func (s *QuoteService) History(ctx context.Context, idOrSymbol string, days int) ([]domain.PricePoint, error) {
	ctx, span := s.tracer.Start(ctx, "quote-service.history")
	defer span.End()

	coin, err := ResolveCoin(idOrSymbol)
	if err != nil {
		return nil, err
	}
	if days <= 0 {
		days = defaultHistoryDays
	}

	if s.history != nil {
		points, err := s.history.GetPoints(ctx, coin.GeckoID, days)
		if err != nil {
			log.Printf("history read for %s: %v", coin.GeckoID, err)
		} else if len(points) >= days && s.fresh(ctx, coin.GeckoID) {
			return points, nil
		}
	}

	points, err := s.market.MarketChart(ctx, coin.GeckoID, days)
	if err != nil {
		return nil, fmt.Errorf("fetch market chart for %s: %w", coin.GeckoID, err)
	}
	if s.history != nil {
		if err := s.history.UpsertPoints(ctx, coin.GeckoID, points); err != nil {
			log.Printf("history upsert for %s: %v", coin.GeckoID, err)
		}
	}
	return points, nil
}

func (s *QuoteService) cacheQuote(ctx context.Context, q domain.CoinQuote) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Put(ctx, q); err != nil {
		log.Printf("cache quote %s: %v", q.ID, err)
	}
}

// fresh reports whether the newest stored sample is recent enough to skip an
// upstream refresh.
func (s *QuoteService) fresh(ctx context.Context, geckoID string) bool {
	latest, err := s.history.LatestTimestamp(ctx, geckoID)
	if err != nil || latest.IsZero() {
		return false
	}
	return time.Since(latest) < 24*time.Hour
}

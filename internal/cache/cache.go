package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"crypto-weather/internal/domain"

	"github.com/redis/go-redis/v9"
)

// QuoteTTL bounds how stale a served quote may be.
const QuoteTTL = 15 * time.Minute

var Client *redis.Client

func InitRedis(ctx context.Context) {
	addr := os.Getenv("REDIS_URL")
	if addr == "" {
		addr = "localhost:6379"
	}
	Client = redis.NewClient(&redis.Options{
		Addr: addr,
	})
	if err := Client.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect to Redis: %v", err)
	}
	log.Println("Connected to Redis")
}

// QuoteStore is a TTL cache for coin quotes keyed by CoinGecko ID.
type QuoteStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewQuoteStore(rdb *redis.Client, ttl time.Duration) *QuoteStore {
	if ttl <= 0 {
		ttl = QuoteTTL
	}
	return &QuoteStore{rdb: rdb, ttl: ttl}
}

func quoteKey(geckoID string) string {
	return fmt.Sprintf("quote:%s", geckoID)
}

// Get returns the cached quote and true, or a zero quote and false on a
// miss. Decode failures are treated as misses so a bad entry self-heals on
// the next Put.
func (s *QuoteStore) Get(ctx context.Context, geckoID string) (domain.CoinQuote, bool) {
	raw, err := s.rdb.Get(ctx, quoteKey(geckoID)).Bytes()
	if err != nil {
		return domain.CoinQuote{}, false
	}
	var q domain.CoinQuote
	if err := json.Unmarshal(raw, &q); err != nil {
		return domain.CoinQuote{}, false
	}
	return q, true
}

func (s *QuoteStore) Put(ctx context.Context, q domain.CoinQuote) error {
	raw, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("marshal quote: %w", err)
	}
	return s.rdb.Set(ctx, quoteKey(q.ID), raw, s.ttl).Err()
}

// PutAll caches a batch of quotes, stopping at the first error.
func (s *QuoteStore) PutAll(ctx context.Context, quotes []domain.CoinQuote) error {
	for _, q := range quotes {
		if err := s.Put(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

type forecastEntry struct {
	Result domain.ForecastResult `json:"result"`
}

// ForecastStore caches generated forecasts per coin and confidence level.
type ForecastStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewForecastStore(rdb *redis.Client, ttl time.Duration) *ForecastStore {
	if ttl <= 0 {
		ttl = QuoteTTL
	}
	return &ForecastStore{rdb: rdb, ttl: ttl}
}

func forecastKey(geckoID string, level domain.ConfidenceLevel) string {
	if level == "" {
		level = domain.Moderate
	}
	return fmt.Sprintf("forecast:%s:%s", geckoID, level)
}

func (s *ForecastStore) Get(ctx context.Context, geckoID string, level domain.ConfidenceLevel) (domain.ForecastResult, bool) {
	raw, err := s.rdb.Get(ctx, forecastKey(geckoID, level)).Bytes()
	if err != nil {
		return domain.ForecastResult{}, false
	}
	var entry forecastEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return domain.ForecastResult{}, false
	}
	return entry.Result, true
}

func (s *ForecastStore) Put(ctx context.Context, geckoID string, level domain.ConfidenceLevel, result domain.ForecastResult) error {
	raw, err := json.Marshal(forecastEntry{Result: result})
	if err != nil {
		return fmt.Errorf("marshal forecast: %w", err)
	}
	return s.rdb.Set(ctx, forecastKey(geckoID, level), raw, s.ttl).Err()
}

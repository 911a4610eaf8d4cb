package job

import (
	"context"
	"log"
	"time"

	"crypto-weather/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const (
	defaultQuoteInterval   = 5 * time.Minute
	defaultHistoryInterval = 6 * time.Hour
	historyDays            = 30
)

type QuoteFetcher interface {
	ListQuotes(ctx context.Context) ([]domain.CoinQuote, error)
	History(ctx context.Context, idOrSymbol string, days int) ([]domain.PricePoint, error)
}

// QuotePoller keeps the quote cache and price history warm so requests rarely
// pay the upstream latency.
type QuotePoller struct {
	tracer          trace.Tracer
	quotes          QuoteFetcher
	quoteInterval   time.Duration
	historyInterval time.Duration
}

func NewQuotePoller(tracer trace.Tracer, quotes QuoteFetcher) *QuotePoller {
	return &QuotePoller{
		tracer:          tracer,
		quotes:          quotes,
		quoteInterval:   defaultQuoteInterval,
		historyInterval: defaultHistoryInterval,
	}
}

// SetIntervals overrides the refresh cadence. Non-positive values keep the
// defaults.
func (p *QuotePoller) SetIntervals(quote, history time.Duration) {
	if quote > 0 {
		p.quoteInterval = quote
	}
	if history > 0 {
		p.historyInterval = history
	}
}

// Start launches the polling goroutines. Blocks until ctx is cancelled.
func (p *QuotePoller) Start(ctx context.Context) {
	if p.quotes == nil {
		log.Println("Quote poller disabled: no quote service")
		<-ctx.Done()
		return
	}

	log.Println("Quote poller starting...")
	go p.pollQuotes(ctx)
	go p.pollHistory(ctx)

	<-ctx.Done()
	log.Println("Quote poller stopped")
}

func (p *QuotePoller) pollQuotes(ctx context.Context) {
	p.refreshQuotes(ctx)

	ticker := time.NewTicker(p.quoteInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.refreshQuotes(ctx)
		}
	}
}

func (p *QuotePoller) refreshQuotes(ctx context.Context) {
	ctx, span := p.tracer.Start(ctx, "quote-poller.refresh-quotes")
	defer span.End()

	if _, err := p.quotes.ListQuotes(ctx); err != nil {
		log.Printf("quote refresh error: %v", err)
	}
}

// pollHistory walks the supported coins one per tick to stay friendly to
// upstream rate limits.
func (p *QuotePoller) pollHistory(ctx context.Context) {
	coinIndex := 0
	p.refreshHistory(ctx, &coinIndex)

	ticker := time.NewTicker(p.historyInterval / time.Duration(len(domain.SupportedIDs)))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.refreshHistory(ctx, &coinIndex)
		}
	}
}

func (p *QuotePoller) refreshHistory(ctx context.Context, coinIndex *int) {
	ctx, span := p.tracer.Start(ctx, "quote-poller.refresh-history")
	defer span.End()

	ids := domain.SupportedIDs
	id := ids[*coinIndex%len(ids)]
	*coinIndex++

	if _, err := p.quotes.History(ctx, id, historyDays); err != nil {
		log.Printf("history refresh error for %s: %v", id, err)
	}
}

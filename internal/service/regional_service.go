package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"crypto-weather/internal/domain"

	"github.com/openai/openai-go"
	"go.opentelemetry.io/otel/trace"
)

// RegionWeather is the fictional weather report attached to a market region.
type RegionWeather struct {
	Location    string  `json:"location"`
	Temperature int     `json:"temperature"`
	Humidity    int     `json:"humidity"`
	Pressure    int     `json:"pressure"`
	WindSpeed   float64 `json:"windSpeed"`
	Condition   string  `json:"condition"`
	Description string  `json:"description"`
}

type RegionAnalysis struct {
	WeatherSentiment string `json:"weatherSentiment"`
	MarketSentiment  string `json:"marketSentiment"`
	ConfidenceScore  int    `json:"confidenceScore"`
	Correlation      string `json:"correlation"`
	Prediction       string `json:"prediction"`
	VolumeIndicator  string `json:"volumeIndicator"`
}

type Region struct {
	Region      string             `json:"region"`
	Name        string             `json:"name"`
	Icon        string             `json:"icon"`
	Condition   string             `json:"condition"`
	Correlation string             `json:"cryptoCorrelation"`
	Weather     RegionWeather      `json:"weather"`
	CryptoData  []domain.CoinQuote `json:"cryptoData"`
	Analysis    *RegionAnalysis    `json:"analysis,omitempty"`
}

type GlobalCondition struct {
	Overall    string    `json:"overall"`
	Confidence int       `json:"confidence"`
	Trend      string    `json:"trend"`
	Timestamp  time.Time `json:"timestamp"`
}

type RegionalOverview struct {
	Regions         []Region        `json:"regions"`
	GlobalCondition GlobalCondition `json:"globalCondition"`
}

type AdvisorAnswer struct {
	Query     string    `json:"query"`
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatCompleter is the narrow slice of the OpenAI client the advisor needs.
type ChatCompleter interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// OpenAIChat adapts the official client to ChatCompleter.
type OpenAIChat struct {
	client openai.Client
	model  string
}

func NewOpenAIChat(client openai.Client, model string) *OpenAIChat {
	if model == "" {
		model = openai.ChatModelGPT4oMini
	}
	return &OpenAIChat{client: client, model: model}
}

func (c *OpenAIChat) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no completion choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// RegionalService builds the regional climate overview and answers free-form
// queries about it. The chat backend is optional; without one (or when it
// fails) answers come from a canned analyzer.
type RegionalService struct {
	tracer trace.Tracer
	quotes *QuoteService
	chat   ChatCompleter
	now    func() time.Time
}

func NewRegionalService(tracer trace.Tracer, quotes *QuoteService, chat ChatCompleter) *RegionalService {
	return &RegionalService{tracer: tracer, quotes: quotes, chat: chat, now: time.Now}
}

// Overview returns the four market regions with their current crypto slices.
func (s *RegionalService) Overview(ctx context.Context, includeAnalysis bool) (RegionalOverview, error) {
	ctx, span := s.tracer.Start(ctx, "regional-service.overview")
	defer span.End()

	popular, err := s.quotes.Popular(ctx, 10)
	if err != nil {
		log.Printf("regional overview without live quotes: %v", err)
		popular = nil
	}

	regions := buildRegions(popular, includeAnalysis)

	bullish := 0
	confidenceSum := 0
	for _, r := range regions {
		if r.Analysis != nil {
			confidenceSum += r.Analysis.ConfidenceScore
			if r.Analysis.MarketSentiment == "Bullish" {
				bullish++
			}
		}
	}
	confidence := 75
	if includeAnalysis && len(regions) > 0 {
		confidence = confidenceSum / len(regions)
	}
	if !includeAnalysis {
		bullish = 2
	}

	trend := "Bearish"
	switch {
	case bullish >= 3:
		trend = "Strong Bullish"
	case bullish >= 2:
		trend = "Moderately Bullish"
	case bullish >= 1:
		trend = "Mixed Signals"
	}

	return RegionalOverview{
		Regions: regions,
		GlobalCondition: GlobalCondition{
			Overall:    fmt.Sprintf("Global crypto climate shows %s conditions across %d major regions", strings.ToLower(trend), len(regions)),
			Confidence: confidence,
			Trend:      trend,
			Timestamp:  s.now().UTC(),
		},
	}, nil
}

// Ask answers a free-form question about regional conditions.
func (s *RegionalService) Ask(ctx context.Context, query, region string) (AdvisorAnswer, error) {
	ctx, span := s.tracer.Start(ctx, "regional-service.ask")
	defer span.End()

	query = strings.TrimSpace(query)
	if query == "" {
		return AdvisorAnswer{}, domain.InvalidInputError{Field: "query", Reason: "empty"}
	}

	response := ""
	if s.chat != nil {
		answer, err := s.chat.Complete(ctx, advisorSystemPrompt, advisorUserPrompt(query, region))
		if err != nil {
			log.Printf("advisor completion failed, using canned analysis: %v", err)
		} else {
			response = answer
		}
	}
	if response == "" {
		response = s.cannedAnswer(ctx, query, region)
	}

	return AdvisorAnswer{
		Query:     query,
		Response:  response,
		Timestamp: s.now().UTC(),
	}, nil
}

const advisorSystemPrompt = "You are a playful crypto market analyst who explains market conditions " +
	"through weather metaphors across four regions: Asia-Pacific, Europe, Americas, and Middle East. " +
	"Keep answers short, structured, and always note that nothing is financial advice."

func advisorUserPrompt(query, region string) string {
	if region == "" {
		return query
	}
	return fmt.Sprintf("Region: %s\n\n%s", region, query)
}

func (s *RegionalService) cannedAnswer(ctx context.Context, query, region string) string {
	q := strings.ToLower(query)

	switch {
	case strings.Contains(q, "weather") && strings.Contains(q, "crypto"):
		return "🌤️ Weather-crypto correlation analysis:\n\n" +
			"Based on current market conditions, there's a moderate positive correlation between favorable " +
			"weather patterns and crypto trading activity. Regions with stable, clear conditions tend to show " +
			"more institutional activity, while areas with extreme weather often see increased retail speculation."
	case strings.Contains(q, "price") || strings.Contains(q, "bitcoin") || strings.Contains(q, "ethereum"):
		return s.priceAnswer(ctx)
	case strings.Contains(q, "region") || strings.Contains(q, "asia") || strings.Contains(q, "europe") || strings.Contains(q, "america"):
		return regionAnswer(region, q)
	case strings.Contains(q, "trend") || strings.Contains(q, "forecast"):
		return "📈 Trend Forecast Analysis:\n\n" +
			"Short-term weather patterns suggest continued moderate volatility. Regional rotation from Asia to " +
			"Europe to the Americas is showing healthy flow, and stable conditions point to a continued growth trajectory."
	default:
		return fmt.Sprintf("🤖 AI Analysis:\n\nI've analyzed your query %q in the context of current crypto-weather "+
			"correlations. Global sentiment is moderately bullish with Asia-Pacific leading and Europe stable. "+
			"Try asking about price movements, regional conditions, or trend forecasts.\n\n"+
			"Remember: this analysis is for educational purposes only and should not be considered financial advice.", query)
	}
}

func (s *RegionalService) priceAnswer(ctx context.Context) string {
	btcLine, ethLine := "Bitcoin: unavailable", "Ethereum: unavailable"
	if q, err := s.quotes.GetQuote(ctx, "bitcoin"); err == nil {
		btcLine = fmt.Sprintf("Bitcoin: $%.2f (%+.2f%%)", q.PriceUSD, q.Change24h)
	}
	if q, err := s.quotes.GetQuote(ctx, "ethereum"); err == nil {
		ethLine = fmt.Sprintf("Ethereum: $%.2f (%+.2f%%)", q.PriceUSD, q.Change24h)
	}
	return fmt.Sprintf("💰 Current Price Analysis:\n\n%s\n%s\n\nRegional impact: Asia-Pacific leads morning "+
		"momentum, Europe carries institutional backing, the Americas consolidate overnight, and the Middle East "+
		"shows emerging market growth.", btcLine, ethLine)
}

func regionAnswer(region, q string) string {
	switch {
	case region == "asia-pacific" || strings.Contains(q, "asia"):
		return "🌅 Asia-Pacific Overview:\n\nCurrently leading global sentiment with an early morning rally. Warm, " +
			"humid conditions support sustained trading activity and the outlook stays bullish."
	case region == "europe" || strings.Contains(q, "europe"):
		return "☀️ Europe Overview:\n\nSunny market conditions with strong regulatory clarity. Clear weather patterns " +
			"align with institutional confidence, so stable growth is expected."
	case region == "americas" || strings.Contains(q, "america"):
		return "🌙 Americas Overview:\n\nOvernight consolidation with strategic positioning. Cool, clear conditions " +
			"suggest cautious optimism and a potential morning breakout."
	default:
		return "🌍 Regional Analysis:\n\nGlobal sentiment shows mixed but generally positive conditions. Two of four " +
			"regions lean bullish, institutional interest remains strong in developed markets, and the Middle East " +
			"shows growth potential."
	}
}

// sliceQuotes mirrors the dashboard's per-region windows over the popular list.
func sliceQuotes(popular []domain.CoinQuote, from, to int) []domain.CoinQuote {
	if from >= len(popular) {
		return nil
	}
	if to > len(popular) {
		to = len(popular)
	}
	return popular[from:to]
}

func buildRegions(popular []domain.CoinQuote, includeAnalysis bool) []Region {
	regions := []Region{
		{
			Region:      "asia-pacific",
			Name:        "Asia-Pacific",
			Icon:        "🌅",
			Condition:   "Early morning rally conditions",
			Correlation: "High positive correlation with tech sentiment",
			Weather: RegionWeather{
				Location: "Singapore", Temperature: 28, Humidity: 75, Pressure: 1013, WindSpeed: 12,
				Condition: "Partly Cloudy", Description: "Warm and humid with light winds",
			},
			CryptoData: sliceQuotes(popular, 0, 5),
		},
		{
			Region:      "europe",
			Name:        "Europe",
			Icon:        "☀️",
			Condition:   "Sunny market outlook with strong fundamentals",
			Correlation: "Moderate correlation with regulatory sentiment",
			Weather: RegionWeather{
				Location: "London", Temperature: 22, Humidity: 60, Pressure: 1018, WindSpeed: 8,
				Condition: "Sunny", Description: "Clear skies with comfortable conditions",
			},
			CryptoData: sliceQuotes(popular, 1, 6),
		},
		{
			Region:      "americas",
			Name:        "Americas",
			Icon:        "🌙",
			Condition:   "Overnight consolidation with potential breakout",
			Correlation: "Strong correlation with US market sentiment",
			Weather: RegionWeather{
				Location: "New York", Temperature: 18, Humidity: 55, Pressure: 1015, WindSpeed: 15,
				Condition: "Clear Night", Description: "Cool and clear with moderate winds",
			},
			CryptoData: sliceQuotes(popular, 2, 7),
		},
		{
			Region:      "middle-east",
			Name:        "Middle East",
			Icon:        "🌵",
			Condition:   "Desert conditions with emerging opportunities",
			Correlation: "Growing correlation with energy markets",
			Weather: RegionWeather{
				Location: "Dubai", Temperature: 35, Humidity: 30, Pressure: 1008, WindSpeed: 20,
				Condition: "Hot and Dry", Description: "Hot desert conditions with strong winds",
			},
			CryptoData: sliceQuotes(popular, 3, 8),
		},
	}

	if includeAnalysis {
		regions[0].Analysis = &RegionAnalysis{
			WeatherSentiment: "Optimistic", MarketSentiment: "Bullish", ConfidenceScore: 78,
			Correlation:     "Warm weather patterns correlate with increased trading activity in the region. High humidity suggests sustained momentum.",
			Prediction:      "Expect continued upward pressure as Asian markets lead global sentiment.",
			VolumeIndicator: "High",
		}
		regions[1].Analysis = &RegionAnalysis{
			WeatherSentiment: "Positive", MarketSentiment: "Bullish", ConfidenceScore: 85,
			Correlation:     "Clear weather conditions align with regulatory clarity, boosting institutional confidence.",
			Prediction:      "Stable growth expected with institutional backing.",
			VolumeIndicator: "Moderate",
		}
		regions[2].Analysis = &RegionAnalysis{
			WeatherSentiment: "Neutral", MarketSentiment: "Neutral", ConfidenceScore: 65,
			Correlation:     "Cool temperatures suggest cautious sentiment. Clear conditions favor strategic positioning.",
			Prediction:      "Sideways movement expected with potential for morning breakout.",
			VolumeIndicator: "Low",
		}
		regions[3].Analysis = &RegionAnalysis{
			WeatherSentiment: "Aggressive", MarketSentiment: "Bullish", ConfidenceScore: 72,
			Correlation:     "Hot conditions drive energy demand, positively impacting blockchain and crypto mining sentiment.",
			Prediction:      "Emerging market strength with energy sector backing.",
			VolumeIndicator: "Moderate",
		}
	}

	return regions
}

package domain

import "time"

// Coin identifies one supported asset. Symbol is the display ticker,
// GeckoID the CoinGecko api identifier.
type Coin struct {
	GeckoID string
	Symbol  string
	Name    string
}

var SupportedCoins = []Coin{
	{GeckoID: "bitcoin", Symbol: "BTC", Name: "Bitcoin"},
	{GeckoID: "ethereum", Symbol: "ETH", Name: "Ethereum"},
	{GeckoID: "binancecoin", Symbol: "BNB", Name: "BNB"},
	{GeckoID: "cardano", Symbol: "ADA", Name: "Cardano"},
	{GeckoID: "solana", Symbol: "SOL", Name: "Solana"},
	{GeckoID: "polkadot", Symbol: "DOT", Name: "Polkadot"},
	{GeckoID: "chainlink", Symbol: "LINK", Name: "Chainlink"},
	{GeckoID: "avalanche-2", Symbol: "AVAX", Name: "Avalanche"},
	{GeckoID: "matic-network", Symbol: "MATIC", Name: "Polygon"},
}

var (
	CoinByID     = make(map[string]Coin, len(SupportedCoins))
	CoinBySymbol = make(map[string]Coin, len(SupportedCoins))
	SupportedIDs = make([]string, 0, len(SupportedCoins))
)

func init() {
	for _, c := range SupportedCoins {
		CoinByID[c.GeckoID] = c
		CoinBySymbol[c.Symbol] = c
		SupportedIDs = append(SupportedIDs, c.GeckoID)
	}
}

// CoinQuote is the latest market snapshot for one coin.
type CoinQuote struct {
	ID          string    `json:"id"`
	Symbol      string    `json:"symbol"`
	Name        string    `json:"name"`
	PriceUSD    float64   `json:"price"`
	Change24h   float64   `json:"change24h"`
	MarketCap   float64   `json:"market_cap"`
	MarketRank  int       `json:"market_cap_rank"`
	Volume24h   float64   `json:"volume24h"`
	LastUpdated time.Time `json:"last_updated"`
}

// PricePoint is one historical sample in a chronologically ordered series,
// oldest first. Immutable once produced.
type PricePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
	MarketCap float64   `json:"market_cap,omitempty"`
	Volume    float64   `json:"volume,omitempty"`
}

type BollingerPosition string

const (
	BollingerAbove  BollingerPosition = "above"
	BollingerMiddle BollingerPosition = "middle"
	BollingerBelow  BollingerPosition = "below"
)

type MACD struct {
	MACD      float64 `json:"macd"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

type BollingerBands struct {
	Upper    float64           `json:"upper"`
	Middle   float64           `json:"middle"`
	Lower    float64           `json:"lower"`
	Position BollingerPosition `json:"position"`
}

// IndicatorSet is derived deterministically from a price series of length >= 30.
// Invariants: RSI in [0,100], Lower <= Middle <= Upper, Support <= Resistance,
// Volatility >= 0.
type IndicatorSet struct {
	MA7        float64        `json:"ma7"`
	MA14       float64        `json:"ma14"`
	MA30       float64        `json:"ma30"`
	RSI        float64        `json:"rsi"`
	MACD       MACD           `json:"macd"`
	Bollinger  BollingerBands `json:"bollinger_bands"`
	Support    float64        `json:"support"`
	Resistance float64        `json:"resistance"`
	Volatility float64        `json:"volatility"`
}

// SentimentSet holds the four component scores and their weighted composite,
// each clamped to [0,100].
type SentimentSet struct {
	Global         float64 `json:"global_sentiment"`
	Trending       float64 `json:"trending_sentiment"`
	Volume         float64 `json:"volume_sentiment"`
	CoinSpecific   float64 `json:"coin_specific_sentiment"`
	FearGreedIndex float64 `json:"fear_greed_index"`
}

// AuxSignals carries the optional market-wide inputs to sentiment estimation.
// Components whose Has flag is unset stay at their neutral baseline.
type AuxSignals struct {
	HasGlobal          bool
	MarketCapChange24h float64
	BTCDominance       float64

	HasTrending bool
	TrendingIDs []string

	MarketCap float64
	Volume24h float64
}

type ConfidenceLevel string

const (
	Conservative ConfidenceLevel = "conservative"
	Moderate     ConfidenceLevel = "moderate"
	Aggressive   ConfidenceLevel = "aggressive"
)

// Multiplier returns the trend scaling factor for the level.
func (c ConfidenceLevel) Multiplier() (float64, error) {
	switch c {
	case Conservative:
		return 0.5, nil
	case Moderate, "":
		return 1.0, nil
	case Aggressive:
		return 1.5, nil
	default:
		return 0, InvalidInputError{Field: "confidence", Reason: "must be conservative, moderate, or aggressive"}
	}
}

type WeatherKind string

const (
	WeatherRocket       WeatherKind = "rocket"
	WeatherSunny        WeatherKind = "sunny"
	WeatherPartlyCloudy WeatherKind = "partly_cloudy"
	WeatherCloudy       WeatherKind = "cloudy"
	WeatherRainy        WeatherKind = "rainy"
	WeatherStormy       WeatherKind = "stormy"
)

// Icon returns the emoji the dashboard uses for this weather kind.
func (w WeatherKind) Icon() string {
	switch w {
	case WeatherRocket:
		return "🚀"
	case WeatherSunny:
		return "☀️"
	case WeatherPartlyCloudy:
		return "🌤️"
	case WeatherCloudy:
		return "☁️"
	case WeatherRainy:
		return "🌧️"
	case WeatherStormy:
		return "⛈️"
	}
	return "🌤️"
}

type VolatilityTier string

const (
	VolatilityLow    VolatilityTier = "Low"
	VolatilityMedium VolatilityTier = "Medium"
	VolatilityHigh   VolatilityTier = "High"
)

type PriceRange struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// ForecastDay is one projected day. Invariants: Range.Low <= Price <= Range.High,
// Price > 0, Confidence in [20,80].
type ForecastDay struct {
	Date       time.Time      `json:"date"`
	Price      float64        `json:"price"`
	Range      PriceRange     `json:"priceRange"`
	Confidence int            `json:"confidence"`
	Weather    WeatherKind    `json:"weather"`
	Icon       string         `json:"icon"`
	Volatility VolatilityTier `json:"volatility"`
}

// Disclaimer is attached verbatim to every forecast.
const Disclaimer = "This forecast is for entertainment purposes only and should not be used for investment decisions. Cryptocurrency markets are highly volatile and unpredictable."

// ForecastResult is a complete 5-day forecast for one coin.
type ForecastResult struct {
	Coin         string        `json:"coin"`
	Symbol       string        `json:"symbol"`
	CurrentPrice float64       `json:"currentPrice"`
	Days         []ForecastDay `json:"forecast"`
	Technicals   IndicatorSet  `json:"technicals"`
	Sentiment    SentimentSet  `json:"sentiment"`
	Summary      string        `json:"summary"`
	Alerts       []Alert       `json:"alerts,omitempty"`
	Disclaimer   string        `json:"disclaimer"`
	Fallback     bool          `json:"fallback,omitempty"`
}

type AlertSeverity string

const (
	SeverityLow    AlertSeverity = "low"
	SeverityMedium AlertSeverity = "medium"
	SeverityHigh   AlertSeverity = "high"
)

type Alert struct {
	Type     string        `json:"type"`
	Message  string        `json:"message"`
	Severity AlertSeverity `json:"severity"`
	Icon     string        `json:"icon"`
}

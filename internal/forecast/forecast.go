package forecast

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"crypto-weather/internal/domain"
	"crypto-weather/internal/indicator"
	"crypto-weather/internal/sentiment"
)

const (
	forecastDays = 5

	trendDecayBase    = 0.9
	trendScale        = 0.01
	noiseSpan         = 0.02 // uniform noise in +-1% before confidence scaling
	dailyRangeFactor  = 0.3  // fraction of annualized volatility used for the daily band
	priceFloorFrac    = 0.1  // projected price never drops below this fraction of spot
	materialChangePct = 5.0

	confidenceStart = 80
	confidenceStep  = 10
	confidenceFloor = 20

	volatilityLowMax  = 20.0
	volatilityHighMin = 50.0
)

// Input bundles everything one forecast computation needs. Prices are
// chronologically ordered, oldest first.
type Input struct {
	Coin       domain.Coin
	Prices     []domain.PricePoint
	Price      float64
	Change24h  float64
	Aux        domain.AuxSignals
	Confidence domain.ConfidenceLevel
}

// Generator turns market inputs into 5-day forecasts. The clock and RNG are
// injected so test runs are reproducible; the computation has no other state.
type Generator struct {
	now func() time.Time
	rng *rand.Rand
}

func NewGenerator(now func() time.Time, rng *rand.Rand) *Generator {
	if now == nil {
		now = time.Now
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{now: now, rng: rng}
}

// Generate computes indicators and sentiment from the input series and
// projects the 5-day path. It never fabricates a result: short or invalid
// history surfaces as an error for the caller to handle.
func (g *Generator) Generate(in Input) (domain.ForecastResult, error) {
	mult, err := in.Confidence.Multiplier()
	if err != nil {
		return domain.ForecastResult{}, err
	}
	if in.Price <= 0 {
		return domain.ForecastResult{}, domain.InvalidInputError{Field: "price", Reason: "must be positive"}
	}

	closes := make([]float64, len(in.Prices))
	for i, p := range in.Prices {
		closes[i] = p.Price
	}

	technicals, err := indicator.Compute(closes, in.Price)
	if err != nil {
		return domain.ForecastResult{}, err
	}

	mood := sentiment.Estimate(in.Coin.GeckoID, technicals, in.Price, in.Change24h, in.Aux)
	days := g.project(in.Price, technicals, mood, in.Change24h, mult)

	return domain.ForecastResult{
		Coin:         in.Coin.Name,
		Symbol:       in.Coin.Symbol,
		CurrentPrice: in.Price,
		Days:         days,
		Technicals:   technicals,
		Sentiment:    mood,
		Summary:      Summary(in.Price, days, mood, technicals),
		Disclaimer:   domain.Disclaimer,
	}, nil
}

// baseTrend mixes moving-average ordering, sentiment deviation, RSI extremes,
// MACD sign, and material 24h moves into one scalar drift signal.
func baseTrend(price float64, t domain.IndicatorSet, s domain.SentimentSet, change24h float64) float64 {
	var trend float64

	if price > t.MA7 {
		trend += 0.5
	}
	if t.MA7 > t.MA14 {
		trend += 0.5
	}
	if t.MA14 > t.MA30 {
		trend += 0.3
	}

	trend += (s.FearGreedIndex - 50) / 100

	if t.RSI > 70 {
		trend -= 0.2
	}
	if t.RSI < 30 {
		trend += 0.2
	}
	if t.MACD.MACD > t.MACD.Signal {
		trend += 0.1
	}

	if math.Abs(change24h) > materialChangePct {
		if change24h > 0 {
			trend += 0.3
		} else {
			trend -= 0.3
		}
	}
	return trend
}

func (g *Generator) project(price float64, t domain.IndicatorSet, s domain.SentimentSet, change24h, mult float64) []domain.ForecastDay {
	trend := baseTrend(price, t, s, change24h)
	tier := volatilityTier(t.Volatility)
	dailyRange := (t.Volatility / 100) * dailyRangeFactor
	floor := price * priceFloorFrac

	days := make([]domain.ForecastDay, 0, forecastDays)
	previous := price
	today := g.now().UTC()

	for day := 1; day <= forecastDays; day++ {
		decay := math.Pow(trendDecayBase, float64(day-1))
		noise := (g.rng.Float64() - 0.5) * noiseSpan

		// The confidence multiplier scales the whole delta so a conservative
		// projection always stays closer to spot than an aggressive one
		// under the same seed.
		delta := mult * (trend*trendScale + noise) * decay
		projected := previous * (1 + delta)
		if projected < floor {
			projected = floor
		}

		low := projected * (1 - dailyRange)
		if low < floor {
			low = floor
		}
		high := projected * (1 + dailyRange)

		confidence := confidenceStart - (day-1)*confidenceStep
		if confidence < confidenceFloor {
			confidence = confidenceFloor
		}

		changePct := (projected - previous) / previous * 100
		kind := weatherFor(changePct)

		days = append(days, domain.ForecastDay{
			Date:       today.AddDate(0, 0, day),
			Price:      projected,
			Range:      domain.PriceRange{Low: low, High: high},
			Confidence: confidence,
			Weather:    kind,
			Icon:       kind.Icon(),
			Volatility: tier,
		})
		previous = projected
	}
	return days
}

// weatherFor maps a daily percent change to the six ordered weather tiers.
func weatherFor(changePct float64) domain.WeatherKind {
	switch {
	case changePct > 5:
		return domain.WeatherRocket
	case changePct > 2:
		return domain.WeatherSunny
	case changePct > 0:
		return domain.WeatherPartlyCloudy
	case changePct > -2:
		return domain.WeatherCloudy
	case changePct > -5:
		return domain.WeatherRainy
	default:
		return domain.WeatherStormy
	}
}

func volatilityTier(annualizedPct float64) domain.VolatilityTier {
	switch {
	case annualizedPct < volatilityLowMax:
		return domain.VolatilityLow
	case annualizedPct > volatilityHighMin:
		return domain.VolatilityHigh
	default:
		return domain.VolatilityMedium
	}
}

// Summary builds the one-line human readable outlook.
func Summary(currentPrice float64, days []domain.ForecastDay, s domain.SentimentSet, t domain.IndicatorSet) string {
	if len(days) == 0 {
		return ""
	}

	direction := "bearish"
	if days[0].Price > currentPrice {
		direction = "bullish"
	}

	mood := "neutral"
	if s.FearGreedIndex > 70 {
		mood = "optimistic"
	} else if s.FearGreedIndex < 30 {
		mood = "cautious"
	}

	vol := "low"
	if t.Volatility > 50 {
		vol = "high"
	} else if t.Volatility > 20 {
		vol = "moderate"
	}

	return fmt.Sprintf("%s %s outlook with %s volatility expected.",
		strings.ToUpper(mood[:1])+mood[1:], direction, vol)
}

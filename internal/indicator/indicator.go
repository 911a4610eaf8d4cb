package indicator

import (
	"math"
	"sort"

	"crypto-weather/internal/domain"
)

const (
	rsiPeriod       = 14
	macdFastPeriod  = 12
	macdSlowPeriod  = 26
	bollingerPeriod = 20
	bollingerStdDev = 2.0
	rangePeriod     = 20

	supportPercentile    = 20
	resistancePercentile = 80

	// The signal line approximates a 9-period EMA of MACD without keeping
	// MACD history.
	macdSignalRatio = 0.9

	tradingDaysPerYear = 365
)

// Compute derives the full indicator set from a chronologically ordered
// (oldest-first) price series. Non-positive samples are discarded; at least
// domain.MinHistoryPoints usable samples must remain.
func Compute(prices []float64, currentPrice float64) (domain.IndicatorSet, error) {
	if currentPrice <= 0 {
		return domain.IndicatorSet{}, domain.InvalidInputError{Field: "currentPrice", Reason: "must be positive"}
	}

	usable := make([]float64, 0, len(prices))
	for _, p := range prices {
		if p > 0 {
			usable = append(usable, p)
		}
	}
	if len(usable) < domain.MinHistoryPoints {
		return domain.IndicatorSet{}, domain.InsufficientDataError{Have: len(usable), Need: domain.MinHistoryPoints}
	}

	macdLine := EMA(usable, macdFastPeriod) - EMA(usable, macdSlowPeriod)
	signalLine := macdLine * macdSignalRatio

	set := domain.IndicatorSet{
		MA7:  SMA(usable, 7),
		MA14: SMA(usable, 14),
		MA30: SMA(usable, 30),
		RSI:  RSI(usable, rsiPeriod),
		MACD: domain.MACD{
			MACD:      macdLine,
			Signal:    signalLine,
			Histogram: macdLine - signalLine,
		},
		Bollinger:  bollinger(usable, currentPrice),
		Support:    Percentile(lastN(usable, rangePeriod), supportPercentile),
		Resistance: Percentile(lastN(usable, rangePeriod), resistancePercentile),
		Volatility: AnnualizedVolatility(usable),
	}
	return set, nil
}

// SMA is the arithmetic mean of the last period prices. Falls back to the
// most recent price when the series is shorter than the period.
func SMA(prices []float64, period int) float64 {
	if len(prices) == 0 {
		return 0
	}
	if len(prices) < period {
		return prices[len(prices)-1]
	}
	var sum float64
	for _, p := range lastN(prices, period) {
		sum += p
	}
	return sum / float64(period)
}

// EMA applies exponential smoothing with multiplier 2/(period+1), seeded
// with the first price and walked in chronological order.
func EMA(prices []float64, period int) float64 {
	if len(prices) == 0 {
		return 0
	}
	if len(prices) < period {
		return prices[len(prices)-1]
	}
	alpha := 2.0 / (float64(period) + 1.0)
	ema := prices[0]
	for _, p := range prices[1:] {
		ema = p*alpha + ema*(1-alpha)
	}
	return ema
}

// RSI computes a Wilder-style simple-average RSI over the last period price
// changes. Returns 50 when the series is too short or perfectly flat, and
// 100 when the window holds no losses.
func RSI(prices []float64, period int) float64 {
	if len(prices) < period+1 {
		return 50
	}

	var gainSum, lossSum float64
	window := lastN(prices, period+1)
	for i := 1; i < len(window); i++ {
		delta := window[i] - window[i-1]
		if delta > 0 {
			gainSum += delta
		} else {
			lossSum -= delta
		}
	}
	avgGain := gainSum / float64(period)
	avgLoss := lossSum / float64(period)

	if avgGain == 0 && avgLoss == 0 {
		return 50
	}
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// Percentile interpolates linearly between order statistics, percentile in [0,100].
func Percentile(values []float64, percentile float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	idx := (percentile / 100) * float64(len(sorted)-1)
	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(idx-float64(lo))
}

// AnnualizedVolatility is the standard deviation of day-over-day simple
// returns across the full series, scaled by sqrt(365), as a percentage.
func AnnualizedVolatility(prices []float64) float64 {
	if len(prices) < 2 {
		return 0
	}
	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		returns = append(returns, (prices[i]-prices[i-1])/prices[i-1])
	}
	_, std := meanStd(returns)
	return std * math.Sqrt(tradingDaysPerYear) * 100
}

func bollinger(prices []float64, currentPrice float64) domain.BollingerBands {
	middle := SMA(prices, bollingerPeriod)
	_, std := meanStdAround(lastN(prices, bollingerPeriod), middle)

	// Position uses the one-sigma band, not the two-sigma envelope.
	position := domain.BollingerMiddle
	switch {
	case currentPrice > middle+std:
		position = domain.BollingerAbove
	case currentPrice < middle-std:
		position = domain.BollingerBelow
	}

	return domain.BollingerBands{
		Upper:    middle + bollingerStdDev*std,
		Middle:   middle,
		Lower:    middle - bollingerStdDev*std,
		Position: position,
	}
}

func lastN(values []float64, n int) []float64 {
	if len(values) <= n {
		return values
	}
	return values[len(values)-n:]
}

func meanStd(values []float64) (mean, std float64) {
	if len(values) == 0 {
		return 0, 0
	}
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	return mean, stdAround(values, mean)
}

func meanStdAround(values []float64, center float64) (mean, std float64) {
	return center, stdAround(values, center)
}

func stdAround(values []float64, center float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sum float64
	for _, v := range values {
		d := v - center
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

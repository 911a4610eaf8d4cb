package sentiment

import "crypto-weather/internal/domain"

// Composite weights for the fear-greed index. Fixed convex combination:
// global 0.25, trending 0.20, volume 0.25, coin-specific 0.30.
const (
	weightGlobal       = 0.25
	weightTrending     = 0.20
	weightVolume       = 0.25
	weightCoinSpecific = 0.30
)

const neutralBaseline = 50.0

// Estimate maps indicator output plus auxiliary market signals into the four
// component sentiment scores and their fear-greed composite. Pure function:
// identical inputs always produce identical output.
func Estimate(geckoID string, ind domain.IndicatorSet, currentPrice, change24h float64, aux domain.AuxSignals) domain.SentimentSet {
	global := globalScore(aux)
	trending := trendingScore(geckoID, aux)
	volume := volumeScore(change24h, aux)
	coin := coinScore(ind, currentPrice, change24h)

	composite := clamp(global*weightGlobal +
		trending*weightTrending +
		volume*weightVolume +
		coin*weightCoinSpecific)

	return domain.SentimentSet{
		Global:         global,
		Trending:       trending,
		Volume:         volume,
		CoinSpecific:   coin,
		FearGreedIndex: composite,
	}
}

func globalScore(aux domain.AuxSignals) float64 {
	score := neutralBaseline
	if !aux.HasGlobal {
		return score
	}

	score += clampTo(aux.MarketCapChange24h*2, -25, 25)

	// High BTC dominance reads as risk aversion, low dominance as alt season.
	if aux.BTCDominance > 45 {
		score -= 5
	}
	if aux.BTCDominance < 40 {
		score += 5
	}
	return clamp(score)
}

func trendingScore(geckoID string, aux domain.AuxSignals) float64 {
	score := neutralBaseline
	if !aux.HasTrending {
		return score
	}

	bonus := float64(len(aux.TrendingIDs)) * 2
	if bonus > 20 {
		bonus = 20
	}
	score += bonus

	for _, id := range aux.TrendingIDs {
		if id == geckoID {
			score += 10
			break
		}
	}
	return clamp(score)
}

func volumeScore(change24h float64, aux domain.AuxSignals) float64 {
	score := neutralBaseline
	if aux.Volume24h <= 0 || aux.MarketCap <= 0 {
		return score
	}

	ratio := aux.Volume24h / aux.MarketCap
	if ratio > 0.1 {
		score += 15
	}
	if ratio < 0.02 {
		score -= 10
	}
	if change24h > 0 {
		score += 10
	}
	return clamp(score)
}

func coinScore(ind domain.IndicatorSet, currentPrice, change24h float64) float64 {
	score := neutralBaseline + clampTo(change24h, -20, 20)

	if ind.RSI > 70 {
		score -= 10
	}
	if ind.RSI < 30 {
		score += 10
	}
	if ind.MACD.MACD > ind.MACD.Signal {
		score += 5
	}
	if currentPrice > ind.MA7 {
		score += 5
	}
	if ind.MA7 > ind.MA14 {
		score += 5
	}
	if ind.MA14 > ind.MA30 {
		score += 5
	}
	return clamp(score)
}

func clamp(v float64) float64 {
	return clampTo(v, 0, 100)
}

func clampTo(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

package forecast

import (
	"fmt"
	"strings"

	"crypto-weather/internal/domain"
)

const (
	strongMovePct  = 10.0
	greedThreshold = 75.0
	fearThreshold  = 25.0
)

// BuildAlerts derives the dashboard alert list from a finished forecast.
// The crystal-ball summary always leads; the rest are appended in severity
// order of discovery.
func BuildAlerts(result domain.ForecastResult, turbulent bool) []domain.Alert {
	alerts := []domain.Alert{{
		Type:     "Crystal Ball Analysis",
		Message:  fmt.Sprintf("%s (Fear & Greed: %.0f)", result.Summary, result.Sentiment.FearGreedIndex),
		Severity: domain.SeverityLow,
		Icon:     "🔮",
	}}

	if stormy := highVolatilityDays(result.Days); len(stormy) > 0 {
		alerts = append(alerts, domain.Alert{
			Type:     "Storm Warning",
			Message:  "High volatility expected on " + strings.Join(stormy, ", "),
			Severity: domain.SeverityHigh,
			Icon:     "⚠️",
		})
	}

	if len(result.Days) > 1 {
		first := result.Days[0].Price
		last := result.Days[len(result.Days)-1].Price
		changePct := (last - first) / first * 100

		if changePct > strongMovePct {
			alerts = append(alerts, domain.Alert{
				Type:     "Bullish Forecast",
				Message:  fmt.Sprintf("Strong upward trend predicted (+%.1f%%)", changePct),
				Severity: domain.SeverityLow,
				Icon:     "🚀",
			})
		} else if changePct < -strongMovePct {
			alerts = append(alerts, domain.Alert{
				Type:     "Bearish Warning",
				Message:  fmt.Sprintf("Downward pressure expected (%.1f%%)", changePct),
				Severity: domain.SeverityHigh,
				Icon:     "📉",
			})
		}
	}

	if result.Sentiment.FearGreedIndex > greedThreshold {
		alerts = append(alerts, domain.Alert{
			Type:     "Greed Zone",
			Message:  "Market sentiment extremely bullish - caution advised",
			Severity: domain.SeverityMedium,
			Icon:     "🔥",
		})
	} else if result.Sentiment.FearGreedIndex < fearThreshold {
		alerts = append(alerts, domain.Alert{
			Type:     "Fear Zone",
			Message:  "Market sentiment very bearish - potential opportunity",
			Severity: domain.SeverityMedium,
			Icon:     "❄️",
		})
	}

	if turbulent {
		alerts = append(alerts, domain.Alert{
			Type:     "Turbulence Detected",
			Message:  "Recent price action looks anomalous versus its own history",
			Severity: domain.SeverityMedium,
			Icon:     "🌪️",
		})
	}

	return alerts
}

func highVolatilityDays(days []domain.ForecastDay) []string {
	var names []string
	for _, d := range days {
		if d.Volatility == domain.VolatilityHigh {
			names = append(names, d.Date.Weekday().String()[:3])
		}
	}
	return names
}

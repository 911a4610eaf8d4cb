package tui

import (
	"fmt"
	"strings"

	"crypto-weather/internal/domain"

	"github.com/charmbracelet/lipgloss"
)

// FormatQuote renders a coin quote as a single line.
func FormatQuote(q domain.CoinQuote) string {
	changeStyle := PriceZeroStyle
	if q.Change24h > 0 {
		changeStyle = PriceUpStyle
	} else if q.Change24h < 0 {
		changeStyle = PriceDownStyle
	}

	sign := ""
	if q.Change24h > 0 {
		sign = "+"
	}

	return fmt.Sprintf("%-6s %10s  %s  Vol: %s",
		q.Symbol,
		formatUSD(q.PriceUSD),
		changeStyle.Render(fmt.Sprintf("%s%.1f%%", sign, q.Change24h)),
		formatVolume(q.Volume24h),
	)
}

// FormatForecastDay renders one forecast day as a single line.
func FormatForecastDay(d domain.ForecastDay) string {
	volStyle := SeverityLowStyle
	switch d.Volatility {
	case domain.VolatilityMedium:
		volStyle = SeverityMedStyle
	case domain.VolatilityHigh:
		volStyle = SeverityHighStyle
	}

	return fmt.Sprintf("%s  %s %-14s %10s  (%s to %s)  %s",
		d.Date.Format("Mon Jan 02"),
		d.Icon,
		string(d.Weather),
		formatUSD(d.Price),
		formatUSD(d.Range.Low),
		formatUSD(d.Range.High),
		volStyle.Render(fmt.Sprintf("%s vol, %d%% conf", d.Volatility, d.Confidence)),
	)
}

// FormatAlertLine renders a forecast alert as a single line.
func FormatAlertLine(a domain.Alert) string {
	style := SeverityLowStyle
	switch a.Severity {
	case domain.SeverityMedium:
		style = SeverityMedStyle
	case domain.SeverityHigh:
		style = SeverityHighStyle
	}
	return fmt.Sprintf("%s %s %s", a.Icon, style.Render(strings.ToUpper(string(a.Severity))), a.Message)
}

// RenderHeatMap renders a colored grid showing 24h change for each coin.
func RenderHeatMap(quotes []domain.CoinQuote, width int) string {
	if len(quotes) == 0 {
		return SubtextStyle.Render("No price data")
	}

	cellWidth := 8
	cols := width / cellWidth
	if cols < 1 {
		cols = 1
	}

	var rows []string
	var row []string
	for i, q := range quotes {
		bg := HeatNeutral
		if q.Change24h > 0 {
			bg = heatColorScale(q.Change24h, 10, HeatGreen)
		} else if q.Change24h < 0 {
			bg = heatColorScale(-q.Change24h, 10, HeatRed)
		}

		cell := lipgloss.NewStyle().
			Background(bg).
			Foreground(lipgloss.Color("#000000")).
			Bold(true).
			Width(cellWidth - 1).
			Align(lipgloss.Center).
			Render(q.Symbol)

		row = append(row, cell)
		if (i+1)%cols == 0 || i == len(quotes)-1 {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row = nil
		}
	}

	return strings.Join(rows, "\n")
}

// heatColorScale produces a color scaled by magnitude.
func heatColorScale(magnitude, maxMagnitude float64, baseColor lipgloss.Color) lipgloss.Color {
	intensity := magnitude / maxMagnitude
	if intensity > 1 {
		intensity = 1
	}
	if intensity < 0.1 {
		return HeatNeutral
	}
	return baseColor
}

func formatUSD(v float64) string {
	if v >= 1000 {
		return "$" + addCommas(fmt.Sprintf("%.0f", v))
	}
	if v >= 1 {
		return fmt.Sprintf("$%.2f", v)
	}
	return fmt.Sprintf("$%.4f", v)
}

func addCommas(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	var result strings.Builder
	for i, ch := range s {
		if i > 0 && (n-i)%3 == 0 {
			result.WriteByte(',')
		}
		result.WriteRune(ch)
	}
	return result.String()
}

func formatVolume(v float64) string {
	switch {
	case v >= 1e12:
		return fmt.Sprintf("$%.1fT", v/1e12)
	case v >= 1e9:
		return fmt.Sprintf("$%.1fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("$%.1fM", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("$%.1fK", v/1e3)
	default:
		return fmt.Sprintf("$%.0f", v)
	}
}

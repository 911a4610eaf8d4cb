package tui

import (
	"context"
	"fmt"
	"strings"

	"crypto-weather/internal/domain"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Forecast message types.
type forecastMsg domain.ForecastResult
type forecastErrMsg struct{ err error }

var confidenceLevels = []domain.ConfidenceLevel{
	domain.Conservative,
	domain.Moderate,
	domain.Aggressive,
}

// ForecastModel is the Bubble Tea model for the forecast screen.
type ForecastModel struct {
	services  Services
	coinIndex int
	confIndex int
	result    domain.ForecastResult
	haveData  bool
	loading   bool
	err       error
	width     int
	height    int
}

// NewForecastModel creates a new forecast model starting on the first
// supported coin at moderate confidence.
func NewForecastModel(svc Services) ForecastModel {
	return ForecastModel{
		services:  svc,
		confIndex: 1,
		loading:   true,
	}
}

// Init fires the initial forecast fetch.
func (m ForecastModel) Init() tea.Cmd {
	return m.fetchForecastCmd()
}

// Update handles incoming messages.
func (m ForecastModel) Update(msg tea.Msg) (ForecastModel, tea.Cmd) {
	switch msg := msg.(type) {
	case forecastMsg:
		m.result = domain.ForecastResult(msg)
		m.haveData = true
		m.loading = false
		m.err = nil
		return m, nil

	case forecastErrMsg:
		m.err = msg.err
		m.loading = false
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, DefaultKeyMap.NextCoin):
			m.coinIndex = (m.coinIndex + 1) % len(domain.SupportedIDs)
			m.loading = true
			return m, m.fetchForecastCmd()

		case key.Matches(msg, DefaultKeyMap.PrevCoin):
			m.coinIndex--
			if m.coinIndex < 0 {
				m.coinIndex = len(domain.SupportedIDs) - 1
			}
			m.loading = true
			return m, m.fetchForecastCmd()

		case key.Matches(msg, DefaultKeyMap.CycleConfidence):
			m.confIndex = (m.confIndex + 1) % len(confidenceLevels)
			m.loading = true
			return m, m.fetchForecastCmd()

		case key.Matches(msg, DefaultKeyMap.Refresh):
			m.loading = true
			return m, m.fetchForecastCmd()
		}
	}

	return m, nil
}

// View renders the forecast screen.
func (m ForecastModel) View() string {
	coin := domain.CoinByID[m.coin()]
	header := HeaderStyle.Render(fmt.Sprintf("  5-Day Forecast: %s (%s)", coin.Name, coin.Symbol))
	controls := SubtextStyle.Render(fmt.Sprintf("  j/k: coin  c: confidence (%s)  R: refresh", m.confidence()))

	var body string
	switch {
	case m.loading && !m.haveData:
		body = SubtextStyle.Render("  Reading the skies...")
	case m.err != nil && !m.haveData:
		body = ErrorStyle.Render(fmt.Sprintf("  Error: %v", m.err))
	default:
		body = m.renderForecast()
	}

	box := BorderStyle.Width(m.contentWidth()).Render(body)
	return lipgloss.JoinVertical(lipgloss.Left, header, controls, box)
}

// SetSize updates the model dimensions.
func (m *ForecastModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// Coin returns the currently selected gecko ID (for testing).
func (m ForecastModel) Coin() string { return m.coin() }

// Confidence returns the currently selected level (for testing).
func (m ForecastModel) Confidence() domain.ConfidenceLevel { return m.confidence() }

// Result returns the last forecast (for testing).
func (m ForecastModel) Result() domain.ForecastResult { return m.result }

func (m ForecastModel) renderForecast() string {
	var lines []string

	lines = append(lines, fmt.Sprintf("  Current price: %s", formatUSD(m.result.CurrentPrice)))
	lines = append(lines, "  "+m.result.Summary)
	lines = append(lines, "")

	for _, day := range m.result.Days {
		lines = append(lines, "  "+FormatForecastDay(day))
	}

	if len(m.result.Alerts) > 0 {
		lines = append(lines, "")
		for _, a := range m.result.Alerts {
			lines = append(lines, "  "+FormatAlertLine(a))
		}
	}

	if m.result.Fallback {
		lines = append(lines, "")
		lines = append(lines, SubtextStyle.Render("  (estimated from current quote; history unavailable)"))
	}

	lines = append(lines, "")
	lines = append(lines, SubtextStyle.Render("  "+m.result.Disclaimer))

	return strings.Join(lines, "\n")
}

func (m ForecastModel) fetchForecastCmd() tea.Cmd {
	coin := m.coin()
	level := m.confidence()
	return func() tea.Msg {
		if m.services.Forecasts == nil {
			return forecastErrMsg{err: fmt.Errorf("forecast service not available")}
		}
		result, err := m.services.Forecasts.Generate(context.Background(), coin, level)
		if err != nil {
			return forecastErrMsg{err: err}
		}
		return forecastMsg(result)
	}
}

func (m ForecastModel) coin() string {
	return domain.SupportedIDs[m.coinIndex%len(domain.SupportedIDs)]
}

func (m ForecastModel) confidence() domain.ConfidenceLevel {
	return confidenceLevels[m.confIndex%len(confidenceLevels)]
}

func (m ForecastModel) contentWidth() int {
	w := m.width - 2
	if w < 60 {
		w = 60
	}
	return w
}

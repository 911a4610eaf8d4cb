package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"crypto-weather/internal/domain"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Dashboard message types.
type quotesMsg []domain.CoinQuote
type quotesErrMsg struct{ err error }
type dashTickMsg time.Time

// DashboardModel is the Bubble Tea model for the live dashboard screen.
type DashboardModel struct {
	services Services
	quotes   []domain.CoinQuote
	loading  bool
	err      error
	width    int
	height   int
}

// NewDashboardModel creates a new dashboard model.
func NewDashboardModel(svc Services) DashboardModel {
	return DashboardModel{
		services: svc,
		loading:  true,
	}
}

// Init fires initial data fetch commands.
func (m DashboardModel) Init() tea.Cmd {
	return tea.Batch(
		m.fetchQuotesCmd(),
		m.tickCmd(),
	)
}

// Update handles incoming messages.
func (m DashboardModel) Update(msg tea.Msg) (DashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case quotesMsg:
		m.quotes = []domain.CoinQuote(msg)
		m.loading = false
		m.err = nil
		return m, nil

	case quotesErrMsg:
		m.err = msg.err
		m.loading = false
		return m, nil

	case dashTickMsg:
		return m, tea.Batch(
			m.fetchQuotesCmd(),
			m.tickCmd(),
		)

	case tea.KeyMsg:
		if msg.String() == "R" {
			return m, m.fetchQuotesCmd()
		}
	}

	return m, nil
}

// View renders the dashboard.
func (m DashboardModel) View() string {
	if m.loading && len(m.quotes) == 0 {
		return SubtextStyle.Render("Loading quotes...")
	}
	if m.err != nil && len(m.quotes) == 0 {
		return ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err))
	}

	quoteTable := m.renderQuoteTable()
	heatMap := m.renderHeatMapSection()

	quoteWidth := m.width*2/3 - 2
	if quoteWidth < 40 {
		quoteWidth = 40
	}
	heatWidth := m.width - quoteWidth - 4
	if heatWidth < 15 {
		heatWidth = 15
	}

	quoteBox := BorderStyle.Width(quoteWidth).Render(quoteTable)
	heatBox := BorderStyle.Width(heatWidth).Render(heatMap)

	return lipgloss.JoinHorizontal(lipgloss.Top, quoteBox, heatBox)
}

// SetSize updates the model dimensions.
func (m *DashboardModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// Quotes returns the current quotes (for testing).
func (m DashboardModel) Quotes() []domain.CoinQuote { return m.quotes }

func (m DashboardModel) renderQuoteTable() string {
	header := HeaderStyle.Render("  Market Conditions")
	var lines []string
	lines = append(lines, header)
	lines = append(lines, SubtextStyle.Render("  Symbol       Price      24h       Volume"))
	lines = append(lines, SubtextStyle.Render(strings.Repeat("─", 55)))

	for _, q := range m.quotes {
		lines = append(lines, "  "+FormatQuote(q))
	}

	if len(m.quotes) == 0 {
		lines = append(lines, SubtextStyle.Render("  No quote data available"))
	}

	return strings.Join(lines, "\n")
}

func (m DashboardModel) renderHeatMapSection() string {
	header := HeaderStyle.Render("  Heat Map")
	heatWidth := m.width/3 - 4
	if heatWidth < 15 {
		heatWidth = 15
	}
	heatMap := RenderHeatMap(m.quotes, heatWidth)
	return header + "\n" + heatMap
}

func (m DashboardModel) fetchQuotesCmd() tea.Cmd {
	return func() tea.Msg {
		if m.services.Quotes == nil {
			return quotesErrMsg{err: fmt.Errorf("quote service not available")}
		}
		quotes, err := m.services.Quotes.ListQuotes(context.Background())
		if err != nil {
			return quotesErrMsg{err: err}
		}
		return quotesMsg(quotes)
	}
}

func (m DashboardModel) tickCmd() tea.Cmd {
	return tea.Tick(10*time.Second, func(t time.Time) tea.Msg {
		return dashTickMsg(t)
	})
}

package tui

import (
	"context"
	"testing"

	"crypto-weather/internal/domain"

	tea "github.com/charmbracelet/bubbletea"
)

// --- stub services ---

type stubQuoteQuerier struct {
	quotes []domain.CoinQuote
	err    error
}

func (s *stubQuoteQuerier) ListQuotes(ctx context.Context) ([]domain.CoinQuote, error) {
	return s.quotes, s.err
}

type stubForecastQuerier struct {
	result    domain.ForecastResult
	err       error
	lastCoin  string
	lastLevel domain.ConfidenceLevel
}

func (s *stubForecastQuerier) Generate(ctx context.Context, idOrSymbol string, level domain.ConfidenceLevel) (domain.ForecastResult, error) {
	s.lastCoin = idOrSymbol
	s.lastLevel = level
	return s.result, s.err
}

type stubAdvisorQuerier struct {
	reply string
	err   error
}

func (s *stubAdvisorQuerier) Ask(ctx context.Context, question string) (string, error) {
	return s.reply, s.err
}

func testServices() Services {
	return Services{
		Quotes:    &stubQuoteQuerier{},
		Forecasts: &stubForecastQuerier{},
		Advisor:   &stubAdvisorQuerier{reply: "test reply"},
		Username:  "testuser",
	}
}

func TestAppModelInitialTab(t *testing.T) {
	m := NewAppModel(testServices())
	if m.ActiveTab() != TabDashboard {
		t.Fatalf("expected TabDashboard, got %d", m.ActiveTab())
	}
}

func TestAppModelTabSwitchByNumber(t *testing.T) {
	m := NewAppModel(testServices())
	m.SetSize(120, 40)

	// Press '2' to switch to forecast
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'2'}})
	app := updated.(AppModel)
	if app.ActiveTab() != TabForecast {
		t.Fatalf("expected TabForecast after pressing 2, got %d", app.ActiveTab())
	}

	// Press '3' to switch to chat
	updated, _ = app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'3'}})
	app = updated.(AppModel)
	if app.ActiveTab() != TabChat {
		t.Fatalf("expected TabChat after pressing 3, got %d", app.ActiveTab())
	}

	// Press '1' to switch back to dashboard
	updated, _ = app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'1'}})
	app = updated.(AppModel)
	if app.ActiveTab() != TabDashboard {
		t.Fatalf("expected TabDashboard after pressing 1, got %d", app.ActiveTab())
	}
}

func TestAppModelTabSwitchByTab(t *testing.T) {
	m := NewAppModel(testServices())
	m.SetSize(120, 40)

	// Press Tab to go to next
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	app := updated.(AppModel)
	if app.ActiveTab() != TabForecast {
		t.Fatalf("expected TabForecast after Tab, got %d", app.ActiveTab())
	}

	// Press Shift+Tab to go back
	updated, _ = app.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	app = updated.(AppModel)
	if app.ActiveTab() != TabDashboard {
		t.Fatalf("expected TabDashboard after Shift+Tab, got %d", app.ActiveTab())
	}

	// Shift+Tab wraps around to the last tab
	updated, _ = app.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	app = updated.(AppModel)
	if app.ActiveTab() != TabChat {
		t.Fatalf("expected TabChat after wrap-around, got %d", app.ActiveTab())
	}
}

func TestAppModelQuit(t *testing.T) {
	m := NewAppModel(testServices())
	m.SetSize(120, 40)

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	app := updated.(AppModel)
	if !app.quitting {
		t.Fatal("expected quitting after q")
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}
}

func TestAppModelViewRendersTabBar(t *testing.T) {
	m := NewAppModel(testServices())
	m.SetSize(120, 40)

	view := m.View()
	if view == "" {
		t.Fatal("expected non-empty view")
	}
}

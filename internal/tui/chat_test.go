package tui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestChatSendMessage(t *testing.T) {
	m := NewChatModel(testServices())
	m.SetSize(120, 40)
	m.Focus()

	m.input.SetValue("is it stormy for BTC?")
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !updated.IsWaiting() {
		t.Fatal("expected waiting state after send")
	}
	if updated.MessageCount() != 1 {
		t.Fatalf("expected 1 message, got %d", updated.MessageCount())
	}
	if cmd == nil {
		t.Fatal("expected advisor command")
	}
}

func TestChatReceiveReply(t *testing.T) {
	m := NewChatModel(testServices())
	m.SetSize(120, 40)
	m.waiting = true

	updated, _ := m.Update(advisorReplyMsg("mostly sunny"))
	if updated.IsWaiting() {
		t.Fatal("expected waiting cleared after reply")
	}
	if updated.MessageCount() != 1 {
		t.Fatalf("expected 1 message, got %d", updated.MessageCount())
	}
}

func TestChatAdvisorError(t *testing.T) {
	m := NewChatModel(testServices())
	m.SetSize(120, 40)
	m.waiting = true

	updated, _ := m.Update(advisorErrMsg{err: errors.New("boom")})
	if updated.IsWaiting() {
		t.Fatal("expected waiting cleared after error")
	}
	if updated.err == nil {
		t.Fatal("expected error recorded")
	}
}

func TestChatEmptyInputIgnored(t *testing.T) {
	m := NewChatModel(testServices())
	m.SetSize(120, 40)
	m.Focus()

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if updated.IsWaiting() {
		t.Fatal("expected no send for empty input")
	}
	if updated.MessageCount() != 0 {
		t.Fatalf("expected 0 messages, got %d", updated.MessageCount())
	}
}

func TestChatViewWithoutAdvisor(t *testing.T) {
	svc := testServices()
	svc.Advisor = nil
	m := NewChatModel(svc)
	m.SetSize(120, 40)

	view := m.View()
	if view == "" {
		t.Fatal("expected non-empty view")
	}
}

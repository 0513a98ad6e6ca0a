package tui

import (
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.dalton.dog/bubbleup"
	"golang.design/x/clipboard"

	"github.com/tejastrax/tejax/internal/configuration"
)

// Messages flowing back into Update from the engine and its goroutines.
type (
	// cacheUpdatedMsg signals that the cache committed a new revision.
	cacheUpdatedMsg struct{}
	// feedStateMsg signals a feed state transition.
	feedStateMsg struct{}
	// engineDoneMsg reports completion of an async engine call. Errors are
	// already surfaced through the notification sink; Update only clears
	// busy flags.
	engineDoneMsg struct{ err error }
	// alertMsg carries a notification into the bubbleup overlay.
	alertMsg struct {
		key  string
		text string
	}
	// composerClearMsg empties the composer.
	composerClearMsg struct{}
	// composerRestoreMsg rolls failed input back into the composer.
	composerRestoreMsg struct{ text string }
)

// alertSink adapts the model's tea program to the engine's notification
// sink. Engine goroutines call it; delivery goes through program.Send.
type alertSink Model

func (s *alertSink) Success(message string) { s.send(bubbleup.InfoKey, message) }
func (s *alertSink) Error(message string)   { s.send(bubbleup.ErrorKey, message) }

func (s *alertSink) send(key, message string) {
	if p := (*Model)(s).getProgram(); p != nil {
		p.Send(alertMsg{key: key, text: message})
	}
}

// composerBuffer adapts the composer textarea to the send pipeline's input
// buffer: cleared optimistically on send, restored on failure.
type composerBuffer Model

func (b *composerBuffer) Clear() {
	if p := (*Model)(b).getProgram(); p != nil {
		p.Send(composerClearMsg{})
	}
}

func (b *composerBuffer) Restore(text string) {
	if p := (*Model)(b).getProgram(); p != nil {
		p.Send(composerRestoreMsg{text: text})
	}
}

// watchCache blocks on the cache's change signal and converts it into a
// tea message. Update re-issues it after every delivery.
func (m *Model) watchCache() tea.Cmd {
	ch := m.cacheCh
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return cacheUpdatedMsg{}
	}
}

func (m *Model) refreshChats() tea.Cmd {
	return func() tea.Msg {
		return engineDoneMsg{err: m.engine.Registry.Refresh(m.ctx)}
	}
}

// createChat creates a chat with the default timestamped title and selects
// it.
func (m *Model) createChat() tea.Cmd {
	return func() tea.Msg {
		title := "New Chat - " + time.Now().Local().Format("15:04:05")
		chat, err := m.engine.Registry.Create(m.ctx, title)
		if err != nil {
			return engineDoneMsg{err: err}
		}
		m.engine.Selector.Select(chat.ID)
		return engineDoneMsg{}
	}
}

func (m *Model) renameChat(id, title string) tea.Cmd {
	return func() tea.Msg {
		return engineDoneMsg{err: m.engine.Registry.Rename(m.ctx, id, title)}
	}
}

func (m *Model) deleteChat(id string) tea.Cmd {
	return func() tea.Msg {
		return engineDoneMsg{err: m.engine.Registry.Delete(m.ctx, id)}
	}
}

func (m *Model) sendMessage(chatID, text string) tea.Cmd {
	m.history.Record(text)
	m.historyNavigating = false
	m.sending = true
	return func() tea.Msg {
		return engineDoneMsg{err: m.engine.Pipeline.SendMessage(m.ctx, chatID, text)}
	}
}

// startFromPrompt launches the quick-start pipeline for a hero prompt.
func (m *Model) startFromPrompt(prompt string) tea.Cmd {
	m.sending = true
	return func() tea.Msg {
		return engineDoneMsg{err: m.engine.Pipeline.StartFromPrompt(m.ctx, prompt+" ")}
	}
}

func (m *Model) editMessage(messageID, content string) tea.Cmd {
	return func() tea.Msg {
		return engineDoneMsg{err: m.engine.Pipeline.EditMessage(m.ctx, messageID, content)}
	}
}

func (m *Model) deleteMessage(messageID string) tea.Cmd {
	m.renderer.Forget(messageID)
	return func() tea.Msg {
		return engineDoneMsg{err: m.engine.Pipeline.DeleteMessage(m.ctx, messageID)}
	}
}

// copyToClipboard writes content out and raises a confirmation alert.
func (m *Model) copyToClipboard(content string) tea.Cmd {
	clipboard.Write(clipboard.FmtText, []byte(content))
	return m.alert.NewAlertCmd(bubbleup.InfoKey, "Copied to clipboard!")
}

// persistTheme saves the toggled theme back to the config file.
func (m *Model) persistTheme(value string) tea.Cmd {
	return func() tea.Msg {
		m.config.Theme = value
		if err := m.config.Save(m.configPath); err != nil {
			log.Error("persisting theme", "error", err)
		}
		return nil
	}
}

func configDir(configPath string) string {
	expanded, err := configuration.ExpandPath(configPath)
	if err != nil {
		expanded = configPath
	}
	return filepath.Dir(expanded)
}

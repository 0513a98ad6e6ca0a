package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/tejastrax/tejax/cli/tui/styles"
	"github.com/tejastrax/tejax/internal/api"
	"github.com/tejastrax/tejax/internal/feed"
	"github.com/tejastrax/tejax/internal/theme"
)

// View renders the model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	sidebar := m.renderSidebar()
	main := m.renderMain()
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, sidebar, main))

	return m.alert.Render(b.String())
}

func (m *Model) renderHeader() string {
	chatTitle := "no chat"
	if chat := m.activeChat(); chat != nil {
		chatTitle = chat.Title
	}
	title := fmt.Sprintf(" ⚡ TejastraX │ 👤 %s │ 💬 %s │ 🎨 %s ",
		m.identity.DisplayName, styles.Truncate(chatTitle, 40), theme.Current())
	return styles.TitleStyle.Width(m.width).Render(title)
}

func (m *Model) renderSidebar() string {
	height := m.viewport.Height + m.textarea.Height() + styles.TextAreaStyle.GetVerticalFrameSize()

	var b strings.Builder
	b.WriteString(styles.SidebarTitleStyle.Render("Chats"))
	b.WriteString("\n")

	if len(m.chatList) == 0 {
		b.WriteString(styles.HelpStyle.Render(" No chats yet. Press n to start one."))
		b.WriteString("\n")
	}

	active := m.engine.Selector.Active()
	for i, chat := range m.chatList {
		if m.renaming && chat.ID == m.renameTargetID {
			b.WriteString(styles.RenameInputStyle.Render(m.renameInput.View()))
			b.WriteString("\n")
			continue
		}

		title := styles.Truncate(chat.Title, styles.TruncateLength)
		marker := "  "
		if chat.ID == active {
			marker = "● "
		}
		row := marker + title
		switch {
		case m.focused == FocusSidebar && i == m.sidebarIndex:
			b.WriteString(styles.ChatRowSelectedStyle.Width(styles.SidebarWidth).Render(row))
		default:
			b.WriteString(styles.ChatRowStyle.Width(styles.SidebarWidth).Render(row))
		}
		b.WriteString("\n")
		created := time.UnixMicro(chat.CreationTimestamp).Local().Format("Jan 2 15:04")
		b.WriteString(styles.ChatRowTimestampStyle.Render("  " + created))
		b.WriteString("\n")
	}

	if m.confirmDeleteID != "" {
		b.WriteString("\n")
		b.WriteString(styles.ConfirmBoxStyle.Render(
			styles.ConfirmTitleStyle.Render("Delete chat?") + "\n" +
				styles.HelpStyle.Render("y to confirm, n to cancel")))
		b.WriteString("\n")
	}

	if m.focused == FocusSidebar {
		b.WriteString("\n")
		b.WriteString(styles.HelpStyle.Render(" n new · r rename · d delete"))
	}

	return styles.SidebarStyle.
		Width(styles.SidebarWidth).
		Height(height).
		Render(b.String())
}

func (m *Model) renderMain() string {
	if m.engine.Selector.Active() == "" {
		return m.renderHero()
	}

	var b strings.Builder
	b.WriteString(styles.ViewportStyle.Render(m.viewport.View()))
	b.WriteString("\n")

	if m.confirmMessageID != "" {
		b.WriteString(styles.ConfirmBoxStyle.Render(
			styles.ConfirmTitleStyle.Render("Delete message?") + "  " +
				styles.HelpStyle.Render("y to confirm, n to cancel")))
		b.WriteString("\n")
		return b.String()
	}

	// The pipeline's single-flight state is authoritative for the spinner;
	// completion of an unrelated engine call must not hide it.
	if m.engine.Pipeline.Sending(m.engine.Selector.Active()) {
		b.WriteString(fmt.Sprintf("%s Waiting for reply...\n", m.spinner.View()))
		return b.String()
	}

	if m.editingMessageID != "" {
		b.WriteString(styles.HelpStyle.Render(" Editing message (Ctrl+J to save, Esc to cancel)"))
		b.WriteString("\n")
	}
	b.WriteString(styles.TextAreaStyle.Render(m.textarea.View()))
	return b.String()
}

// renderMessages builds the viewport content and records per-message line
// offsets for navigation scrolling.
func (m *Model) renderMessages() string {
	var b strings.Builder
	m.messageOffsets = m.messageOffsets[:0]
	lines := 0

	if m.engine.Feed.State() == feed.StateLoading {
		return m.spinner.View() + " Loading messages..."
	}
	if m.engine.Feed.State() == feed.StateError {
		return styles.ErrorStyle.Render(fmt.Sprintf("Error: %v", m.engine.Feed.Err()))
	}

	for i, message := range m.messageList {
		if i > 0 {
			b.WriteString("\n\n")
			lines += 2
		}
		m.messageOffsets = append(m.messageOffsets, lines)

		rendered := m.renderMessage(i, message)
		b.WriteString(rendered)
		lines += lipgloss.Height(rendered)
	}
	return b.String()
}

func (m *Model) renderMessage(index int, message *api.Message) string {
	navigated := m.focused == FocusMain && index == m.navIndex

	var label, body string
	switch message.Role {
	case api.RoleUser:
		label = styles.UserLabelStyle.Render(m.identity.DisplayName)
		body = styles.UserMessageStyle.Render(message.Content)
	default:
		label = styles.AILabelStyle.Render("assistant")
		body = styles.AIMessageStyle.Render(m.renderer.Render(message.ID, message.Content))
	}

	if navigated {
		hints := " ▶ alt+w copy"
		if message.ID == m.latestUserMessageID() {
			hints += " · e edit"
		}
		hints += " · d delete"
		label += styles.HelpStyle.Render(hints)
	}
	return label + "\n" + body
}

func (m *Model) renderHero() string {
	var b strings.Builder
	b.WriteString(styles.HeroTitleStyle.Render("Meet TejastraX"))
	b.WriteString("\n")
	b.WriteString(styles.HeroTaglineStyle.Render("Your versatile AI assistant for research, writing, and code."))
	b.WriteString("\n\n")

	for i, prompt := range quickPrompts {
		style := styles.QuickPromptStyle
		if m.focused == FocusMain && i == m.promptIndex {
			style = styles.QuickPromptActive
		}
		b.WriteString(style.Render(prompt))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.focused == FocusMain {
		b.WriteString(styles.HelpStyle.Render("Enter to start a chat from the highlighted prompt"))
	} else {
		b.WriteString(styles.HelpStyle.Render("Tab to the prompt gallery, or just start typing below"))
	}
	b.WriteString("\n\n")
	b.WriteString(styles.TextAreaStyle.Render(m.textarea.View()))

	height := m.viewport.Height + m.textarea.Height() + styles.TextAreaStyle.GetVerticalFrameSize()
	return lipgloss.Place(m.mainWidth(), height, lipgloss.Center, lipgloss.Center, b.String())
}

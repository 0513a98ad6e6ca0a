package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.dalton.dog/bubbleup"

	"github.com/tejastrax/tejax/cli/tui/styles"
	"github.com/tejastrax/tejax/internal/markdown"
	"github.com/tejastrax/tejax/internal/theme"
)

type KeyMapGlobal struct {
	CycleFocus  key.Binding
	ToggleTheme key.Binding
	Quit        key.Binding
}

type KeyMapSidebar struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	New    key.Binding
	Rename key.Binding
	Delete key.Binding
}

type KeyMapMain struct {
	Up     key.Binding
	Down   key.Binding
	Copy   key.Binding
	Edit   key.Binding
	Delete key.Binding
	Top    key.Binding
	Bottom key.Binding
	Pick   key.Binding
}

type KeyMapComposer struct {
	Send                 key.Binding
	PreviousHistoryEntry key.Binding
	NextHistoryEntry     key.Binding
	CancelEdit           key.Binding
}

var keyMapGlobal = KeyMapGlobal{
	CycleFocus: key.NewBinding(
		key.WithKeys("tab"),
	),
	ToggleTheme: key.NewBinding(
		key.WithKeys("alt+t"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c"),
	),
}

var keyMapSidebar = KeyMapSidebar{
	Up:     key.NewBinding(key.WithKeys("up", "k")),
	Down:   key.NewBinding(key.WithKeys("down", "j")),
	Select: key.NewBinding(key.WithKeys("enter")),
	New:    key.NewBinding(key.WithKeys("n")),
	Rename: key.NewBinding(key.WithKeys("r")),
	Delete: key.NewBinding(key.WithKeys("d")),
}

var keyMapMain = KeyMapMain{
	Up:     key.NewBinding(key.WithKeys("up", "k")),
	Down:   key.NewBinding(key.WithKeys("down", "j")),
	Copy:   key.NewBinding(key.WithKeys("alt+w", "y")),
	Edit:   key.NewBinding(key.WithKeys("e")),
	Delete: key.NewBinding(key.WithKeys("d")),
	Top:    key.NewBinding(key.WithKeys("g")),
	Bottom: key.NewBinding(key.WithKeys("G")),
	Pick:   key.NewBinding(key.WithKeys("enter")),
}

var keyMapComposer = KeyMapComposer{
	Send:                 key.NewBinding(key.WithKeys("ctrl+j")),
	PreviousHistoryEntry: key.NewBinding(key.WithKeys("alt+p")),
	NextHistoryEntry:     key.NewBinding(key.WithKeys("alt+n")),
	CancelEdit:           key.NewBinding(key.WithKeys("esc")),
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// Always update the alert overlay with every message.
	outAlert, alertCmd := m.alert.Update(msg)
	m.alert = outAlert.(bubbleup.AlertModel)
	if alertCmd != nil {
		cmds = append(cmds, alertCmd)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			return m, tea.Batch(append(cmds, cmd)...)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalculateLayout()

	case cacheUpdatedMsg:
		wasAtBottom := m.viewport.AtBottom()
		m.rebuildFromCache()
		m.viewport.SetContent(m.renderMessages())
		if wasAtBottom {
			m.viewport.GotoBottom()
		}
		cmds = append(cmds, m.watchCache())
		return m, tea.Batch(cmds...)

	case feedStateMsg:
		m.rebuildFromCache()
		m.viewport.SetContent(m.renderMessages())
		m.viewport.GotoBottom()
		return m, tea.Batch(cmds...)

	case engineDoneMsg:
		m.sending = false
		if msg.err != nil {
			log.Error("engine call failed", "error", msg.err)
		}
		return m, tea.Batch(cmds...)

	case alertMsg:
		cmds = append(cmds, m.alert.NewAlertCmd(msg.key, msg.text))
		return m, tea.Batch(cmds...)

	case composerClearMsg:
		m.textarea.Reset()
		m.adjustTextareaHeight()
		return m, tea.Batch(cmds...)

	case composerRestoreMsg:
		m.textarea.SetValue(msg.text)
		m.adjustTextareaHeight()
		return m, tea.Batch(cmds...)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	if m.focused == FocusComposer && !m.renaming {
		var cmd tea.Cmd
		m.textarea, cmd = m.textarea.Update(msg)
		cmds = append(cmds, cmd)
		m.adjustTextareaHeight()
	}
	if m.renaming {
		var cmd tea.Cmd
		m.renameInput, cmd = m.renameInput.Update(msg)
		cmds = append(cmds, cmd)
	}
	if m.focused == FocusMain {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// handleKey routes a key press. It returns handled=false when the key
// should fall through to the focused component's own Update.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if key.Matches(msg, keyMapGlobal.Quit) {
		m.quitting = true
		m.unsubscribe()
		return tea.Quit, true
	}

	// Modal states take precedence over pane focus.
	if m.renaming {
		return m.handleRenameKey(msg)
	}
	if m.confirmDeleteID != "" || m.confirmMessageID != "" {
		return m.handleConfirmKey(msg)
	}

	switch {
	case key.Matches(msg, keyMapGlobal.CycleFocus):
		m.cycleFocus()
		return nil, true

	case key.Matches(msg, keyMapGlobal.ToggleTheme):
		return m.toggleTheme(), true
	}

	switch m.focused {
	case FocusSidebar:
		return m.handleSidebarKey(msg)
	case FocusMain:
		return m.handleMainKey(msg)
	case FocusComposer:
		return m.handleComposerKey(msg)
	}
	return nil, false
}

func (m *Model) cycleFocus() {
	switch m.focused {
	case FocusComposer:
		m.focused = FocusSidebar
		m.textarea.Blur()
	case FocusSidebar:
		m.focused = FocusMain
		m.navIndex = -1
	case FocusMain:
		m.focused = FocusComposer
		m.navIndex = -1
		m.viewport.SetContent(m.renderMessages())
		m.textarea.Focus()
	}
}

func (m *Model) toggleTheme() tea.Cmd {
	value := theme.Toggle()
	styles.Reload()
	m.spinner.Style = styles.SpinnerStyle
	if renderer, err := markdown.NewRenderer(m.rendererWidth()); err == nil {
		m.renderer = renderer
	}
	m.viewport.SetContent(m.renderMessages())
	return m.persistTheme(value)
}

func (m *Model) handleRenameKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.Type {
	case tea.KeyEnter:
		title := strings.TrimSpace(m.renameInput.Value())
		id := m.renameTargetID
		m.renaming = false
		m.renameTargetID = ""
		m.renameInput.Blur()
		return m.renameChat(id, title), true
	case tea.KeyEsc:
		m.renaming = false
		m.renameTargetID = ""
		m.renameInput.Blur()
		return nil, true
	}
	return nil, false
}

func (m *Model) handleConfirmKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "y", "Y", "enter":
		if id := m.confirmDeleteID; id != "" {
			m.confirmDeleteID = ""
			return m.deleteChat(id), true
		}
		if id := m.confirmMessageID; id != "" {
			m.confirmMessageID = ""
			m.navIndex = -1
			return m.deleteMessage(id), true
		}
	case "n", "N", "esc":
		m.confirmDeleteID = ""
		m.confirmMessageID = ""
		return nil, true
	}
	return nil, true
}

func (m *Model) handleSidebarKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, keyMapSidebar.Up):
		if m.sidebarIndex > 0 {
			m.sidebarIndex--
		}
		return nil, true

	case key.Matches(msg, keyMapSidebar.Down):
		if m.sidebarIndex < len(m.chatList)-1 {
			m.sidebarIndex++
		}
		return nil, true

	case key.Matches(msg, keyMapSidebar.Select):
		if m.sidebarIndex >= 0 && m.sidebarIndex < len(m.chatList) {
			m.engine.Selector.Select(m.chatList[m.sidebarIndex].ID)
			m.rebuildFromCache()
			m.viewport.SetContent(m.renderMessages())
			m.viewport.GotoBottom()
			m.focused = FocusComposer
			m.textarea.Focus()
		}
		return nil, true

	case key.Matches(msg, keyMapSidebar.New):
		return m.createChat(), true

	case key.Matches(msg, keyMapSidebar.Rename):
		if m.sidebarIndex >= 0 && m.sidebarIndex < len(m.chatList) {
			chat := m.chatList[m.sidebarIndex]
			m.renaming = true
			m.renameTargetID = chat.ID
			m.renameInput.SetValue(chat.Title)
			m.renameInput.CursorEnd()
			m.renameInput.Focus()
		}
		return nil, true

	case key.Matches(msg, keyMapSidebar.Delete):
		if m.sidebarIndex >= 0 && m.sidebarIndex < len(m.chatList) {
			m.confirmDeleteID = m.chatList[m.sidebarIndex].ID
		}
		return nil, true
	}
	return nil, false
}

func (m *Model) handleMainKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	// With no chat selected the main pane is the quick-prompt gallery.
	if m.engine.Selector.Active() == "" {
		switch {
		case key.Matches(msg, keyMapMain.Up):
			if m.promptIndex > 0 {
				m.promptIndex--
			}
			return nil, true
		case key.Matches(msg, keyMapMain.Down):
			if m.promptIndex < len(quickPrompts)-1 {
				m.promptIndex++
			}
			return nil, true
		case key.Matches(msg, keyMapMain.Pick):
			return m.startFromPrompt(quickPrompts[m.promptIndex]), true
		}
		return nil, false
	}

	switch {
	case key.Matches(msg, keyMapMain.Up):
		if len(m.messageList) == 0 {
			return nil, true
		}
		if m.navIndex == -1 {
			m.navIndex = len(m.messageList) - 1
		} else if m.navIndex > 0 {
			m.navIndex--
		}
		m.viewport.SetContent(m.renderMessages())
		m.scrollToNavigatedMessage()
		return nil, true

	case key.Matches(msg, keyMapMain.Down):
		if len(m.messageList) == 0 || m.navIndex == -1 {
			return nil, true
		}
		if m.navIndex < len(m.messageList)-1 {
			m.navIndex++
		}
		m.viewport.SetContent(m.renderMessages())
		m.scrollToNavigatedMessage()
		return nil, true

	case key.Matches(msg, keyMapMain.Top):
		m.viewport.GotoTop()
		return nil, true

	case key.Matches(msg, keyMapMain.Bottom):
		m.navIndex = -1
		m.viewport.SetContent(m.renderMessages())
		m.viewport.GotoBottom()
		return nil, true

	case key.Matches(msg, keyMapMain.Copy):
		if message := m.navigatedMessage(); message != nil {
			return m.copyToClipboard(message.Content), true
		}
		return nil, true

	case key.Matches(msg, keyMapMain.Edit):
		message := m.navigatedMessage()
		if message == nil || message.ID != m.latestUserMessageID() {
			return nil, true
		}
		m.editingMessageID = message.ID
		m.textarea.SetValue(message.Content)
		m.adjustTextareaHeight()
		m.focused = FocusComposer
		m.textarea.Focus()
		return nil, true

	case key.Matches(msg, keyMapMain.Delete):
		if message := m.navigatedMessage(); message != nil {
			m.confirmMessageID = message.ID
		}
		return nil, true
	}
	return nil, false
}

func (m *Model) handleComposerKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, keyMapComposer.Send):
		text := m.textarea.Value()
		if strings.TrimSpace(text) == "" {
			return nil, true
		}
		if id := m.editingMessageID; id != "" {
			m.editingMessageID = ""
			m.textarea.Reset()
			m.adjustTextareaHeight()
			m.renderer.Forget(id)
			return m.editMessage(id, text), true
		}
		active := m.engine.Selector.Active()
		if active == "" {
			// No chat yet: run the quick-start pipeline off the typed text.
			m.textarea.Reset()
			m.adjustTextareaHeight()
			return m.startFromPrompt(strings.TrimRight(text, " ")), true
		}
		if m.sending || m.engine.Pipeline.Sending(active) {
			return nil, true
		}
		return m.sendMessage(active, text), true

	case key.Matches(msg, keyMapComposer.CancelEdit):
		if m.editingMessageID != "" {
			m.editingMessageID = ""
			m.textarea.Reset()
			m.adjustTextareaHeight()
			return nil, true
		}
		return nil, false

	case key.Matches(msg, keyMapComposer.PreviousHistoryEntry):
		if entry, ok := m.history.Back(m.textarea.Value()); ok {
			m.textarea.SetValue(entry)
			m.historyNavigating = true
			m.adjustTextareaHeight()
		}
		return nil, true

	case key.Matches(msg, keyMapComposer.NextHistoryEntry):
		if entry, ok := m.history.Forward(); ok {
			m.textarea.SetValue(entry)
			m.historyNavigating = true
			m.adjustTextareaHeight()
		}
		return nil, true
	}

	if m.historyNavigating {
		switch msg.Type {
		case tea.KeyRunes, tea.KeyBackspace, tea.KeyDelete:
			m.history.Reset()
			m.historyNavigating = false
		}
	}
	return nil, false
}

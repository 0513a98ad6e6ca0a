// Package tui implements the interactive chat terminal. It renders the
// cache's derived views and drives every mutation through the engine, so
// the screen is always a function of committed cache state.
package tui

import (
	"context"
	"log/slog"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.dalton.dog/bubbleup"

	"github.com/tejastrax/tejax/cli/tui/styles"
	"github.com/tejastrax/tejax/internal/api"
	"github.com/tejastrax/tejax/internal/client"
	"github.com/tejastrax/tejax/internal/configuration"
	"github.com/tejastrax/tejax/internal/debug"
	"github.com/tejastrax/tejax/internal/history"
	"github.com/tejastrax/tejax/internal/markdown"
	"github.com/tejastrax/tejax/internal/session"
)

const (
	FocusComposer FocusedComponent = iota
	FocusSidebar
	FocusMain
)

var log *slog.Logger

// quickPrompts seed the hero screen. Picking one starts a fresh chat.
var quickPrompts = []string{
	"Summarize this article:",
	"Write a concise email about:",
	"Explain this code:",
	"Create a study plan for:",
	"Brainstorm 5 ideas for:",
	"Draft a LinkedIn post about:",
	"Outline a blog post about:",
	"Translate to English:",
	"Debug this error:",
	"Refactor this function:",
	"Suggest test cases for:",
	"Generate a regex for:",
	"Write SQL to:",
	"Create a product description for:",
}

type FocusedComponent int

// Model is the Bubble Tea model for the chat terminal.
type Model struct {
	// Core dependencies
	ctx        context.Context
	config     *configuration.Config
	configPath string
	engine     *client.Client
	identity   session.Identity

	// Derived view state, rebuilt from the cache on every change signal.
	chatList         []*api.Chat
	messageList      []*api.Message
	renderedRevision uint64

	// Sidebar state
	sidebarIndex int

	// Main pane navigation (-1 means none selected).
	navIndex       int
	messageOffsets []int

	// Hero quick-prompt gallery
	promptIndex int

	// Modal state
	renaming         bool
	renameTargetID   string
	confirmDeleteID  string // chat id pending confirmation
	confirmMessageID string // message id pending confirmation
	editingMessageID string // composer repurposed as the edit box

	// UI components
	textarea    textarea.Model
	renameInput textinput.Model
	viewport    viewport.Model
	spinner     spinner.Model
	renderer    *markdown.Renderer
	alert       bubbleup.AlertModel

	// UI state
	width    int
	height   int
	ready    bool
	sending  bool
	quitting bool
	focused  FocusedComponent

	// Cache change signal
	cacheCh     <-chan struct{}
	unsubscribe func()

	// Input history
	history           *history.History
	historyNavigating bool

	// Program reference for sending messages from goroutines
	program   *tea.Program
	programMu sync.Mutex
}

// New builds the chat terminal around a protocol binding. The engine is
// assembled here so its input buffer and notification sink can feed back
// into the model.
func New(ctx context.Context, config *configuration.Config, configPath string, apiClient api.Client) (*Model, error) {
	log = debug.GetLogger()

	ta := textarea.New()
	ta.Placeholder = "Type your message... (Ctrl+J to send, Tab to switch panes, Ctrl+C to quit)"
	ta.Focus()
	ta.CharLimit = 0
	ta.SetHeight(styles.MinTextareaHeight)
	ta.ShowLineNumbers = false
	ta.KeyMap.InsertNewline.SetEnabled(true)
	ta.Prompt = ""

	ri := textinput.New()
	ri.CharLimit = 0
	ri.Prompt = "↳ "

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.SpinnerStyle

	renderer, err := markdown.NewRenderer(80)
	if err != nil {
		return nil, err
	}

	m := &Model{
		ctx:         ctx,
		config:      config,
		configPath:  configPath,
		identity:    session.NewIdentity(config.DisplayName),
		textarea:    ta,
		renameInput: ri,
		spinner:     sp,
		renderer:    renderer,
		alert:       *bubbleup.NewAlertModel(40, true, 1),
		history:     history.NewInDir(configDir(configPath)),
		navIndex:    -1,
		focused:     FocusComposer,
	}
	m.engine = client.New(apiClient, (*composerBuffer)(m), (*alertSink)(m))
	m.cacheCh, m.unsubscribe = m.engine.Cache.Subscribe()
	m.engine.Feed.OnState(func() {
		if p := m.getProgram(); p != nil {
			p.Send(feedStateMsg{})
		}
	})
	return m, nil
}

// SetProgram sets the tea.Program reference for async message sending.
func (m *Model) SetProgram(p *tea.Program) {
	m.programMu.Lock()
	defer m.programMu.Unlock()
	m.program = p
}

func (m *Model) getProgram() *tea.Program {
	m.programMu.Lock()
	defer m.programMu.Unlock()
	return m.program
}

// Init kicks off the initial chat list load and the cache watch loop.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		m.alert.Init(),
		m.refreshChats(),
		m.watchCache(),
	)
}

// activeChat returns the cached record of the selected chat, or nil.
func (m *Model) activeChat() *api.Chat {
	active := m.engine.Selector.Active()
	if active == "" {
		return nil
	}
	return m.engine.Cache.GetChat(active)
}

// rebuildFromCache re-derives the chat and message lists. The sidebar
// cursor follows the active chat when possible.
func (m *Model) rebuildFromCache() {
	m.renderedRevision = m.engine.Cache.Revision()
	m.chatList = m.engine.Cache.ListChatsOrdered()

	active := m.engine.Selector.Active()
	m.messageList = nil
	if active != "" {
		m.messageList = m.engine.Cache.ListMessagesOrdered(active)
	}
	if m.navIndex >= len(m.messageList) {
		m.navIndex = -1
	}

	found := false
	for i, chat := range m.chatList {
		if chat.ID == active {
			m.sidebarIndex = i
			found = true
			break
		}
	}
	if !found && m.sidebarIndex >= len(m.chatList) {
		m.sidebarIndex = len(m.chatList) - 1
	}
	if m.sidebarIndex < 0 {
		m.sidebarIndex = 0
	}
}

// latestUserMessageID returns the id of the newest user message in the
// active chat, the only message the edit pipeline accepts.
func (m *Model) latestUserMessageID() string {
	active := m.engine.Selector.Active()
	if active == "" {
		return ""
	}
	if latest := m.engine.Cache.LatestUserMessage(active); latest != nil {
		return latest.ID
	}
	return ""
}

// navigatedMessage returns the message under the navigation cursor, or nil.
func (m *Model) navigatedMessage() *api.Message {
	if m.navIndex < 0 || m.navIndex >= len(m.messageList) {
		return nil
	}
	return m.messageList[m.navIndex]
}

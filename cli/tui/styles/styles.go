// Package styles holds the lipgloss styles and layout constants of the
// chat TUI. Styles are rebuilt on theme changes through Reload.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/tejastrax/tejax/internal/theme"
)

// Layout constants
const (
	// Sidebar
	SidebarWidth       = 32
	SidebarTitleHeight = 1

	// Textarea
	MinTextareaHeight   = 1
	MaxTextareaHeight   = 8
	TextAreaPaddingLeft = 1

	// Viewport
	MinViewportHeight = 1

	// Layout
	HeaderHeight       = 1
	MessagePaddingLeft = 1

	// Truncation
	TruncateLength       = 28
	TruncateSuffix       = "..."
	TruncateSuffixLength = 3
)

type palette struct {
	Primary      lipgloss.Color
	Secondary    lipgloss.Color
	Accent       lipgloss.Color
	Success      lipgloss.Color
	Error        lipgloss.Color
	Muted        lipgloss.Color
	Text         lipgloss.Color
	DimText      lipgloss.Color
	Border       lipgloss.Color
	SelectedBg   lipgloss.Color
	SelectedText lipgloss.Color
}

var darkPalette = palette{
	Primary:      lipgloss.Color("#06B6D4"), // Cyan
	Secondary:    lipgloss.Color("#6366F1"), // Indigo
	Accent:       lipgloss.Color("#F59E0B"), // Amber
	Success:      lipgloss.Color("#10B981"), // Green
	Error:        lipgloss.Color("#EF4444"), // Red
	Muted:        lipgloss.Color("#6B7280"), // Gray
	Text:         lipgloss.Color("#F9FAFB"),
	DimText:      lipgloss.Color("#9CA3AF"),
	Border:       lipgloss.Color("#4B5563"),
	SelectedBg:   lipgloss.Color("#164E63"),
	SelectedText: lipgloss.Color("#E0F2FE"),
}

var lightPalette = palette{
	Primary:      lipgloss.Color("#0891B2"),
	Secondary:    lipgloss.Color("#4F46E5"),
	Accent:       lipgloss.Color("#D97706"),
	Success:      lipgloss.Color("#059669"),
	Error:        lipgloss.Color("#DC2626"),
	Muted:        lipgloss.Color("#9CA3AF"),
	Text:         lipgloss.Color("#111827"),
	DimText:      lipgloss.Color("#6B7280"),
	Border:       lipgloss.Color("#D1D5DB"),
	SelectedBg:   lipgloss.Color("#CFFAFE"),
	SelectedText: lipgloss.Color("#155E75"),
}

// Styles, rebuilt by Reload.
var (
	TitleStyle            lipgloss.Style
	SidebarStyle          lipgloss.Style
	SidebarTitleStyle     lipgloss.Style
	ChatRowStyle          lipgloss.Style
	ChatRowSelectedStyle  lipgloss.Style
	ChatRowTimestampStyle lipgloss.Style

	UserMessageStyle lipgloss.Style
	AIMessageStyle   lipgloss.Style
	UserLabelStyle   lipgloss.Style
	AILabelStyle     lipgloss.Style

	HeroTitleStyle    lipgloss.Style
	HeroTaglineStyle  lipgloss.Style
	QuickPromptStyle  lipgloss.Style
	QuickPromptActive lipgloss.Style

	TextAreaStyle     lipgloss.Style
	SpinnerStyle      lipgloss.Style
	HelpStyle         lipgloss.Style
	ErrorStyle        lipgloss.Style
	ConfirmBoxStyle   lipgloss.Style
	ConfirmTitleStyle lipgloss.Style
	RenameInputStyle  lipgloss.Style
	ViewportStyle     lipgloss.Style
)

func init() {
	Reload()
}

// Reload rebuilds every style for the current theme.
func Reload() {
	p := darkPalette
	if theme.Current() == theme.Light {
		p = lightPalette
	}

	TitleStyle = lipgloss.NewStyle().
		Background(p.Primary).
		Foreground(p.Text).
		Bold(true)

	SidebarStyle = lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, true, false, false).
		BorderForeground(p.Border)

	SidebarTitleStyle = lipgloss.NewStyle().
		Foreground(p.Primary).
		Bold(true).
		PaddingLeft(1)

	ChatRowStyle = lipgloss.NewStyle().
		Foreground(p.Text).
		PaddingLeft(1)

	ChatRowSelectedStyle = lipgloss.NewStyle().
		Foreground(p.SelectedText).
		Background(p.SelectedBg).
		Bold(true).
		PaddingLeft(1)

	ChatRowTimestampStyle = lipgloss.NewStyle().
		Foreground(p.DimText).
		PaddingLeft(1)

	messageStyle := lipgloss.NewStyle().
		Foreground(p.Text).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder())

	// Inherit does not carry padding; set it on each side explicitly.
	UserMessageStyle = messageStyle.
		BorderForeground(p.Secondary).
		MarginLeft(8)

	AIMessageStyle = messageStyle.
		BorderForeground(p.Primary).
		MarginRight(8)

	UserLabelStyle = lipgloss.NewStyle().
		Foreground(p.Secondary).
		Bold(true).
		MarginLeft(8)

	AILabelStyle = lipgloss.NewStyle().
		Foreground(p.Primary).
		Bold(true)

	HeroTitleStyle = lipgloss.NewStyle().
		Foreground(p.Primary).
		Bold(true)

	HeroTaglineStyle = lipgloss.NewStyle().
		Foreground(p.DimText)

	QuickPromptStyle = lipgloss.NewStyle().
		Foreground(p.Text).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Border).
		Padding(0, 1)

	QuickPromptActive = QuickPromptStyle.
		Foreground(p.SelectedText).
		BorderForeground(p.Primary).
		Bold(true)

	TextAreaStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Primary).
		PaddingLeft(TextAreaPaddingLeft)

	SpinnerStyle = lipgloss.NewStyle().
		Foreground(p.Primary)

	HelpStyle = lipgloss.NewStyle().
		Foreground(p.Muted).
		Italic(true)

	ErrorStyle = lipgloss.NewStyle().
		Foreground(p.Error).
		Bold(true)

	ConfirmBoxStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Accent).
		Padding(0, 2)

	ConfirmTitleStyle = lipgloss.NewStyle().
		Foreground(p.Accent).
		Bold(true)

	RenameInputStyle = lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(p.Accent)

	ViewportStyle = lipgloss.NewStyle().Margin(0).Padding(0)
}

// MessageHorizontalFrameSize returns the horizontal frame size of assistant
// messages.
func MessageHorizontalFrameSize() int {
	return AIMessageStyle.GetHorizontalFrameSize()
}

// Truncate truncates a string to the specified length with a suffix.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-TruncateSuffixLength] + TruncateSuffix
}

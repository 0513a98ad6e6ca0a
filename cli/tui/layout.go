package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"

	"github.com/tejastrax/tejax/cli/tui/styles"
)

// mainWidth returns the width of the message pane.
func (m *Model) mainWidth() int {
	width := m.width - styles.SidebarWidth - styles.SidebarStyle.GetHorizontalBorderSize()
	if width < 1 {
		width = 1
	}
	return width
}

// rendererWidth returns the markdown wrap width inside message frames.
func (m *Model) rendererWidth() int {
	width := m.mainWidth() - styles.MessageHorizontalFrameSize()
	if width < 10 {
		width = 10
	}
	return width
}

// adjustTextareaHeight resizes the composer based on content line count.
func (m *Model) adjustTextareaHeight() {
	content := m.textarea.Value()
	lineCount := strings.Count(content, "\n") + 1

	newHeight := lineCount
	if newHeight < styles.MinTextareaHeight {
		newHeight = styles.MinTextareaHeight
	}
	if newHeight > styles.MaxTextareaHeight {
		newHeight = styles.MaxTextareaHeight
	}

	oldHeight := m.textarea.Height()
	if oldHeight != newHeight {
		m.textarea.SetHeight(newHeight)
		m.recalculateLayout()
	}
}

// scrollToNavigatedMessage scrolls the viewport to show the navigated
// message, but only if it's not already fully visible.
func (m *Model) scrollToNavigatedMessage() {
	if m.navIndex < 0 || m.navIndex >= len(m.messageOffsets) {
		return
	}

	startLine := m.messageOffsets[m.navIndex]
	var endLine int
	if m.navIndex+1 < len(m.messageOffsets) {
		endLine = m.messageOffsets[m.navIndex+1] - 1
	} else {
		endLine = m.viewport.TotalLineCount()
	}

	viewportTop := m.viewport.YOffset
	viewportBottom := viewportTop + m.viewport.Height
	if startLine >= viewportTop && endLine < viewportBottom {
		return // Already fully visible
	}
	m.viewport.SetYOffset(startLine)
}

// recalculateLayout adjusts viewport and composer dimensions.
func (m *Model) recalculateLayout() {
	if m.width == 0 || m.height == 0 {
		return
	}

	viewportHeight := m.height - styles.HeaderHeight
	viewportHeight -= m.textarea.Height() + styles.TextAreaStyle.GetVerticalFrameSize()
	if viewportHeight < styles.MinViewportHeight {
		viewportHeight = styles.MinViewportHeight
	}

	viewportWidth := m.mainWidth()
	m.renderer.SetWidth(m.rendererWidth())

	if !m.ready {
		m.viewport = viewport.New(viewportWidth, viewportHeight)
		m.ready = true
		m.viewport.SetContent(m.renderMessages())
		m.viewport.GotoBottom()
	} else {
		m.viewport.Width = viewportWidth
		m.viewport.Height = viewportHeight
		m.viewport.SetContent(m.renderMessages())
	}

	m.textarea.SetWidth(viewportWidth - styles.TextAreaStyle.GetHorizontalPadding() - styles.TextAreaStyle.GetHorizontalBorderSize())
	m.renameInput.Width = styles.SidebarWidth - 4
}

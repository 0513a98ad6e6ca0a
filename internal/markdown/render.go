// Package markdown renders assistant messages as styled terminal markdown.
package markdown

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
	"github.com/pkg/errors"

	"github.com/tejastrax/tejax/internal/theme"
)

// Renderer wraps glamour with a per-message cache. Messages arrive as
// complete snapshots, so a rendering is valid until the content or the
// wrap width changes.
type Renderer struct {
	glamour *glamour.TermRenderer
	width   int
	cache   map[string]rendered
}

type rendered struct {
	content string
	output  string
}

// NewRenderer creates a renderer wrapping at width columns.
func NewRenderer(width int) (*Renderer, error) {
	gr, err := glamour.NewTermRenderer(
		glamour.WithStyles(styleForTheme()),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, errors.Wrap(err, "creating term renderer")
	}
	return &Renderer{
		glamour: gr,
		width:   width,
		cache:   map[string]rendered{},
	}, nil
}

// Render returns content styled for the terminal. messageID keys the
// cache; pass "" to bypass caching. Rendering errors fall back to the
// raw content so a bad message never blanks the view.
func (r *Renderer) Render(messageID, content string) string {
	if messageID != "" {
		if entry, ok := r.cache[messageID]; ok && entry.content == content {
			return entry.output
		}
	}

	output, err := r.glamour.Render(content)
	if err != nil {
		return content
	}
	output = strings.Trim(output, "\n")

	if messageID != "" {
		r.cache[messageID] = rendered{content: content, output: output}
	}
	return output
}

// Forget drops the cached rendering for a message, used when a message
// is deleted or its edit is rolled back.
func (r *Renderer) Forget(messageID string) {
	delete(r.cache, messageID)
}

// SetWidth rebuilds the renderer at a new wrap width and invalidates the
// cache. No-op if the width is unchanged.
func (r *Renderer) SetWidth(width int) error {
	if r.width == width {
		return nil
	}
	next, err := NewRenderer(width)
	if err != nil {
		return err
	}
	*r = *next
	return nil
}

// styleForTheme adapts a stock glamour style to sit flush inside the
// message pane: no document margins, no code block chrome.
func styleForTheme() ansi.StyleConfig {
	var style ansi.StyleConfig
	if theme.Current() == theme.Light {
		style = styles.LightStyleConfig
	} else {
		style = styles.DraculaStyleConfig
	}

	zero := uint(0)
	style.Document.Margin = &zero
	style.CodeBlock.Margin = &zero
	style.CodeBlock.Indent = &zero
	style.CodeBlock.Prefix = ""
	style.CodeBlock.BlockPrefix = ""

	style.Code.Margin = &zero
	style.Code.Indent = &zero
	style.Code.Prefix = ""
	style.Code.Suffix = ""

	style.Paragraph.BlockPrefix = ""
	style.Paragraph.BlockSuffix = ""

	return style
}

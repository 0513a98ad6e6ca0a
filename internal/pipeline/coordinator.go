// Package pipeline orchestrates the multi-step mutation flows: the send
// pipeline, the quick-start pipeline, message edits and message deletes.
// It is the only writer of message content, and it enforces single-flight:
// at most one outstanding send per chat at a time.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/tejastrax/tejax/internal/api"
	"github.com/tejastrax/tejax/internal/cache"
	"github.com/tejastrax/tejax/internal/chats"
	"github.com/tejastrax/tejax/internal/selection"
	"github.com/tejastrax/tejax/internal/toast"
)

// Buffer is the input buffer the send pipeline clears optimistically and
// restores when a send fails.
type Buffer interface {
	Clear()
	Restore(text string)
}

// DiscardBuffer is a Buffer that does nothing.
var DiscardBuffer Buffer = discardBuffer{}

type discardBuffer struct{}

func (discardBuffer) Clear()         {}
func (discardBuffer) Restore(string) {}

// Coordinator runs the mutation pipelines.
type Coordinator struct {
	client   api.Client
	cache    *cache.Cache
	registry *chats.Registry
	selector *selection.Selector
	buffer   Buffer
	notify   toast.Sink

	mu       sync.Mutex
	inflight map[string]bool
}

// New coordinator.
func New(client api.Client, c *cache.Cache, registry *chats.Registry, selector *selection.Selector, buffer Buffer, notify toast.Sink) *Coordinator {
	if buffer == nil {
		buffer = DiscardBuffer
	}
	if notify == nil {
		notify = toast.Discard
	}
	return &Coordinator{
		client:   client,
		cache:    c,
		registry: registry,
		selector: selector,
		buffer:   buffer,
		notify:   notify,
		inflight: map[string]bool{},
	}
}

// Sending reports whether a send is in flight for the given chat.
func (c *Coordinator) Sending(chatID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inflight[chatID]
}

// beginSend acquires the per-chat send slot. Returns false if a send is
// already in flight for this chat.
func (c *Coordinator) beginSend(chatID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight[chatID] {
		return false
	}
	c.inflight[chatID] = true
	return true
}

func (c *Coordinator) endSend(chatID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inflight, chatID)
}

// SendMessage runs the two-phase send pipeline: persist the user message,
// then invoke the responder. The insert must complete before the responder
// call is issued. Empty input, a missing chat id, or an in-flight send for
// the same chat are silent no-ops. On failure the input buffer is restored
// to the original text; a responder failure after a successful insert
// leaves the user message persisted.
func (c *Coordinator) SendMessage(ctx context.Context, chatID, text string) error {
	if strings.TrimSpace(text) == "" || chatID == "" {
		return nil
	}
	if !c.beginSend(chatID) {
		return nil
	}
	defer c.endSend(chatID)

	c.buffer.Clear()

	message, err := c.client.InsertUserMessage(ctx, &api.InsertUserMessageRequest{
		ChatID:  chatID,
		Content: text,
	})
	if err != nil {
		c.buffer.Restore(text)
		c.notify.Error(fmt.Sprintf("Failed to send message: %v", err))
		return errors.Wrap(err, "inserting user message")
	}
	c.cache.UpsertMessage(message)

	// The reply is persisted remotely and observed through the feed; no
	// assistant message is fabricated locally.
	if _, err := c.client.InvokeResponder(ctx, &api.InvokeResponderRequest{
		ChatID:  chatID,
		Message: text,
	}); err != nil {
		c.buffer.Restore(text)
		c.notify.Error(fmt.Sprintf("Chatbot error: %v", err))
		return errors.Wrap(err, "invoking responder")
	}
	return nil
}

// StartFromPrompt creates a fresh chat for a quick-start prompt, selects
// it, and runs the send pipeline with the prompt text. If chat creation
// fails, the pipeline aborts before any message insert and the prompt is
// restored into the input buffer.
func (c *Coordinator) StartFromPrompt(ctx context.Context, promptText string) error {
	if strings.TrimSpace(promptText) == "" {
		return nil
	}

	title := strings.TrimRight(promptText, ": \t\n")
	if title == "" {
		title = "New Chat"
	}

	chat, err := c.registry.Create(ctx, title)
	if err != nil {
		c.buffer.Restore(promptText)
		return errors.Wrap(err, "starting chat from prompt")
	}
	// The confirmed chat is already in the cache; its creation timestamp
	// puts it at the top of the ordered list before the next full refresh.
	c.selector.Select(chat.ID)

	return c.SendMessage(ctx, chat.ID, promptText)
}

// EditMessage replaces the content of a message. Only the most recently
// inserted user message of a chat may be edited; anything else, and
// unchanged content, is a silent no-op. The new content is echoed into the
// cache after confirmation; the feed delivers the authoritative state.
func (c *Coordinator) EditMessage(ctx context.Context, messageID, newContent string) error {
	if strings.TrimSpace(newContent) == "" {
		return nil
	}
	message := c.cache.GetMessage(messageID)
	if message == nil {
		return nil
	}
	latest := c.cache.LatestUserMessage(message.ChatID)
	if latest == nil || latest.ID != messageID {
		return nil
	}
	if latest.Content == newContent {
		return nil
	}

	updated, err := c.client.UpdateMessage(ctx, &api.UpdateMessageRequest{
		ID:      messageID,
		Content: newContent,
	})
	if err != nil {
		c.notify.Error(fmt.Sprintf("Error updating message: %v", err))
		return errors.Wrap(err, "updating message")
	}
	c.cache.UpsertMessage(updated)
	return nil
}

// DeleteMessage removes a message. On success the message is evicted from
// the cache immediately; the feed eventually reflects the removal too, but
// waiting for it would flash deleted content.
func (c *Coordinator) DeleteMessage(ctx context.Context, messageID string) error {
	if err := c.client.DeleteMessage(ctx, messageID); err != nil {
		c.notify.Error(fmt.Sprintf("Error deleting message: %v", err))
		return errors.Wrap(err, "deleting message")
	}
	c.cache.EvictMessage(messageID)
	return nil
}

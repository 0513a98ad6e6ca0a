// Package api defines the typed protocol between the client and the
// authoritative chat store: queries, mutations and the per-chat message
// subscription. Concrete bindings live under internal/backend.
package api

import (
	"context"

	"github.com/pkg/errors"
)

// ErrNotFound is returned when an operation references an id the store
// does not hold.
var ErrNotFound = errors.New("not found")

// Role of a message author.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Chat is a titled conversation container.
type Chat struct {
	// ID of this chat, assigned by the store.
	ID string
	// Title of this chat.
	Title string
	// Time at which the chat was created, in microseconds. Immutable.
	CreationTimestamp int64
}

// Message is a single turn in a chat.
type Message struct {
	// ID of this message, assigned by the store.
	ID string
	// ID of the chat this message belongs to. Immutable.
	ChatID string
	// Author role. Immutable.
	Role Role
	// Content of this message.
	Content string
	// Time at which the message was created, in microseconds. Immutable.
	CreationTimestamp int64
}

// CreateChatRequest creates a new chat.
type CreateChatRequest struct {
	Title string
}

// RenameChatRequest updates a chat's title.
type RenameChatRequest struct {
	ID    string
	Title string
}

// InsertUserMessageRequest persists a user-authored message.
type InsertUserMessageRequest struct {
	ChatID  string
	Content string
}

// InvokeResponderRequest asks the responder to reply to a message.
type InvokeResponderRequest struct {
	ChatID  string
	Message string
}

// InvokeResponderResponse carries the responder's reply. The reply is also
// persisted as an assistant message and observed through the subscription.
type InvokeResponderResponse struct {
	Reply string
}

// UpdateMessageRequest replaces a message's content.
type UpdateMessageRequest struct {
	ID      string
	Content string
}

// Subscription is a live push feed of the full ordered message set of one
// chat. A fresh snapshot is delivered after every committed message write.
type Subscription interface {
	// Updates delivers ordered message snapshots. The channel is closed
	// when the subscription terminates.
	Updates() <-chan []*Message
	// Err reports why the subscription terminated, nil on Close.
	Err() error
	// Close cancels the subscription.
	Close()
}

// Client is the typed binding of the chat protocol.
type Client interface {
	// ListChats returns all chats, ordered by creation time descending.
	ListChats(ctx context.Context) ([]*Chat, error)
	// CreateChat creates a chat and returns it with its assigned id.
	CreateChat(ctx context.Context, request *CreateChatRequest) (*Chat, error)
	// RenameChat updates a chat's title.
	RenameChat(ctx context.Context, request *RenameChatRequest) (*Chat, error)
	// DeleteChat deletes a chat and all of its messages.
	DeleteChat(ctx context.Context, id string) error
	// ListenMessages subscribes to the message feed of a chat.
	ListenMessages(ctx context.Context, chatID string) (Subscription, error)
	// InsertUserMessage persists a user message and returns it.
	InsertUserMessage(ctx context.Context, request *InsertUserMessageRequest) (*Message, error)
	// InvokeResponder generates and persists the assistant's reply.
	InvokeResponder(ctx context.Context, request *InvokeResponderRequest) (*InvokeResponderResponse, error)
	// UpdateMessage replaces a message's content.
	UpdateMessage(ctx context.Context, request *UpdateMessageRequest) (*Message, error)
	// DeleteMessage deletes a single message.
	DeleteMessage(ctx context.Context, id string) error
}

// Less orders chats for display: creation time descending, ties broken by id.
func (c *Chat) Less(other *Chat) bool {
	if c.CreationTimestamp != other.CreationTimestamp {
		return c.CreationTimestamp > other.CreationTimestamp
	}
	return c.ID < other.ID
}

// Less orders messages for display: creation time ascending, ties broken by id.
func (m *Message) Less(other *Message) bool {
	if m.CreationTimestamp != other.CreationTimestamp {
		return m.CreationTimestamp < other.CreationTimestamp
	}
	return m.ID < other.ID
}

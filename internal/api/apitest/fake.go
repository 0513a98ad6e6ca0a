// Package apitest provides an in-memory protocol binding for engine tests.
// Every operation can be failed on demand, call order is recorded, and
// subscriptions are driven manually through Push.
package apitest

import (
	"context"
	"fmt"
	"sync"

	"github.com/tejastrax/tejax/internal/api"
)

// Fake is an in-memory api.Client.
type Fake struct {
	mu       sync.Mutex
	chats    map[string]*api.Chat
	messages map[string][]*api.Message
	failures map[string]error
	subs     map[string][]*Subscription
	clock    int64
	sequence int

	// Calls records operation names in invocation order.
	Calls []string
}

// New fake binding.
func New() *Fake {
	return &Fake{
		chats:    map[string]*api.Chat{},
		messages: map[string][]*api.Message{},
		failures: map[string]error{},
		subs:     map[string][]*Subscription{},
	}
}

// Fail makes every subsequent invocation of op return err. Pass nil to
// clear.
func (f *Fake) Fail(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.failures, op)
		return
	}
	f.failures[op] = err
}

// SeedChat inserts a chat directly, bypassing call recording.
func (f *Fake) SeedChat(chat *api.Chat) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chats[chat.ID] = chat
}

// SeedMessage inserts a message directly, bypassing call recording.
func (f *Fake) SeedMessage(message *api.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages[message.ChatID] = append(f.messages[message.ChatID], message)
}

// Messages returns the stored messages of a chat.
func (f *Fake) Messages(chatID string) []*api.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*api.Message{}, f.messages[chatID]...)
}

// Push delivers a snapshot to every live subscription of a chat.
func (f *Fake) Push(chatID string, snapshot []*api.Message) {
	f.mu.Lock()
	subs := append([]*Subscription{}, f.subs[chatID]...)
	f.mu.Unlock()
	for _, sub := range subs {
		sub.Push(snapshot)
	}
}

// Subscriptions returns every subscription ever opened for a chat.
func (f *Fake) Subscriptions(chatID string) []*Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Subscription{}, f.subs[chatID]...)
}

// OpenSubscriptions returns the number of live subscriptions for a chat.
func (f *Fake) OpenSubscriptions(chatID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, sub := range f.subs[chatID] {
		if !sub.closed {
			n++
		}
	}
	return n
}

func (f *Fake) begin(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, op)
	return f.failures[op]
}

func (f *Fake) nextID(prefix string) (string, int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sequence++
	f.clock++
	return fmt.Sprintf("%s-%d", prefix, f.sequence), f.clock
}

// ListChats implements api.Client.
func (f *Fake) ListChats(ctx context.Context) ([]*api.Chat, error) {
	if err := f.begin("ListChats"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	chats := make([]*api.Chat, 0, len(f.chats))
	for _, chat := range f.chats {
		chats = append(chats, chat)
	}
	return chats, nil
}

// CreateChat implements api.Client.
func (f *Fake) CreateChat(ctx context.Context, request *api.CreateChatRequest) (*api.Chat, error) {
	if err := f.begin("CreateChat"); err != nil {
		return nil, err
	}
	id, now := f.nextID("chat")
	chat := &api.Chat{ID: id, Title: request.Title, CreationTimestamp: now}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chats[chat.ID] = chat
	return chat, nil
}

// RenameChat implements api.Client.
func (f *Fake) RenameChat(ctx context.Context, request *api.RenameChatRequest) (*api.Chat, error) {
	if err := f.begin("RenameChat"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	chat, ok := f.chats[request.ID]
	if !ok {
		return nil, api.ErrNotFound
	}
	chat.Title = request.Title
	return chat, nil
}

// DeleteChat implements api.Client.
func (f *Fake) DeleteChat(ctx context.Context, id string) error {
	if err := f.begin("DeleteChat"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.chats[id]; !ok {
		return api.ErrNotFound
	}
	delete(f.chats, id)
	delete(f.messages, id)
	return nil
}

// ListenMessages implements api.Client.
func (f *Fake) ListenMessages(ctx context.Context, chatID string) (api.Subscription, error) {
	if err := f.begin("ListenMessages"); err != nil {
		return nil, err
	}
	sub := &Subscription{fake: f, chatID: chatID, updates: make(chan []*api.Message, 16)}
	f.mu.Lock()
	f.subs[chatID] = append(f.subs[chatID], sub)
	f.mu.Unlock()
	return sub, nil
}

// InsertUserMessage implements api.Client.
func (f *Fake) InsertUserMessage(ctx context.Context, request *api.InsertUserMessageRequest) (*api.Message, error) {
	if err := f.begin("InsertUserMessage"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	if _, ok := f.chats[request.ChatID]; !ok {
		f.mu.Unlock()
		return nil, api.ErrNotFound
	}
	f.mu.Unlock()
	id, now := f.nextID("msg")
	message := &api.Message{
		ID:                id,
		ChatID:            request.ChatID,
		Role:              api.RoleUser,
		Content:           request.Content,
		CreationTimestamp: now,
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages[request.ChatID] = append(f.messages[request.ChatID], message)
	return message, nil
}

// InvokeResponder implements api.Client. The fake replies with a canned
// assistant message.
func (f *Fake) InvokeResponder(ctx context.Context, request *api.InvokeResponderRequest) (*api.InvokeResponderResponse, error) {
	if err := f.begin("InvokeResponder"); err != nil {
		return nil, err
	}
	id, now := f.nextID("msg")
	reply := "re: " + request.Message
	message := &api.Message{
		ID:                id,
		ChatID:            request.ChatID,
		Role:              api.RoleAssistant,
		Content:           reply,
		CreationTimestamp: now,
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages[request.ChatID] = append(f.messages[request.ChatID], message)
	return &api.InvokeResponderResponse{Reply: reply}, nil
}

// UpdateMessage implements api.Client.
func (f *Fake) UpdateMessage(ctx context.Context, request *api.UpdateMessageRequest) (*api.Message, error) {
	if err := f.begin("UpdateMessage"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, messages := range f.messages {
		for _, message := range messages {
			if message.ID == request.ID {
				message.Content = request.Content
				return message, nil
			}
		}
	}
	return nil, api.ErrNotFound
}

// DeleteMessage implements api.Client.
func (f *Fake) DeleteMessage(ctx context.Context, id string) error {
	if err := f.begin("DeleteMessage"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for chatID, messages := range f.messages {
		for i, message := range messages {
			if message.ID == id {
				f.messages[chatID] = append(messages[:i:i], messages[i+1:]...)
				return nil
			}
		}
	}
	return api.ErrNotFound
}

var _ api.Client = (*Fake)(nil)

// Subscription is a manually driven api.Subscription.
type Subscription struct {
	fake    *Fake
	chatID  string
	updates chan []*api.Message
	mu      sync.Mutex
	closed  bool
	err     error
}

// Push delivers a snapshot. No-op after Close.
func (s *Subscription) Push(snapshot []*api.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.updates <- snapshot
}

// Terminate closes the subscription with an error.
func (s *Subscription) Terminate(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.err = err
	close(s.updates)
}

// Updates implements api.Subscription.
func (s *Subscription) Updates() <-chan []*api.Message { return s.updates }

// Err implements api.Subscription.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close implements api.Subscription.
func (s *Subscription) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.updates)
}

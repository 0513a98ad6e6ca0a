// Package cache implements the normalized entity store the client reads
// through: chats and messages keyed by id, with ordered views derived on
// demand and a revision counter downstream views poll after each commit.
package cache

import (
	"sort"
	"sync"

	"github.com/scylladb/go-set/strset"

	"github.com/tejastrax/tejax/internal/api"
)

// Cache is the single source of truth for entity data on the client.
// All writes are serialized; readers always observe a committed state.
type Cache struct {
	mu           sync.RWMutex
	chats        map[string]*api.Chat
	messages     map[string]*api.Message
	chatMessages map[string]*strset.Set

	revision    uint64
	subscribers map[int]chan struct{}
	nextSubID   int
}

// New cache.
func New() *Cache {
	return &Cache{
		chats:        map[string]*api.Chat{},
		messages:     map[string]*api.Message{},
		chatMessages: map[string]*strset.Set{},
		subscribers:  map[int]chan struct{}{},
	}
}

// UpsertChat inserts a chat or merges its mutable fields into the existing
// record. ID and creation timestamp are immutable once set.
func (c *Cache) UpsertChat(chat *api.Chat) {
	c.mu.Lock()
	defer c.mu.Unlock()

	existing, ok := c.chats[chat.ID]
	if !ok {
		copied := *chat
		c.chats[chat.ID] = &copied
		c.commit()
		return
	}
	existing.Title = chat.Title
	c.commit()
}

// UpsertMessage inserts a message or merges its mutable fields into the
// existing record. ID, chat id, role and creation timestamp are immutable.
func (c *Cache) UpsertMessage(message *api.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.upsertMessageLocked(message)
	c.commit()
}

func (c *Cache) upsertMessageLocked(message *api.Message) {
	existing, ok := c.messages[message.ID]
	if ok {
		existing.Content = message.Content
		return
	}
	copied := *message
	c.messages[message.ID] = &copied
	index, ok := c.chatMessages[message.ChatID]
	if !ok {
		index = strset.New()
		c.chatMessages[message.ChatID] = index
	}
	index.Add(message.ID)
}

// ReplaceChatMessages replaces a chat's message set with a feed snapshot.
// Messages absent from the snapshot are evicted in the same step so no
// stale index entry survives.
func (c *Cache) ReplaceChatMessages(chatID string, messages []*api.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	incoming := strset.New()
	for _, message := range messages {
		incoming.Add(message.ID)
	}
	if index, ok := c.chatMessages[chatID]; ok {
		for _, id := range index.List() {
			if !incoming.Has(id) {
				delete(c.messages, id)
				index.Remove(id)
			}
		}
	}
	for _, message := range messages {
		c.upsertMessageLocked(message)
	}
	c.commit()
}

// EvictChat removes a chat, all of its messages, and every derived index
// entry in one step. Unknown ids are a benign no-op reported as NotFound.
func (c *Cache) EvictChat(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.chats[id]; !ok {
		return api.ErrNotFound
	}
	delete(c.chats, id)
	if index, ok := c.chatMessages[id]; ok {
		for _, messageID := range index.List() {
			delete(c.messages, messageID)
		}
		delete(c.chatMessages, id)
	}
	c.commit()
	return nil
}

// EvictMessage removes a message and its index entry. Unknown ids are a
// benign no-op reported as NotFound.
func (c *Cache) EvictMessage(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	message, ok := c.messages[id]
	if !ok {
		return api.ErrNotFound
	}
	delete(c.messages, id)
	if index, ok := c.chatMessages[message.ChatID]; ok {
		index.Remove(id)
	}
	c.commit()
	return nil
}

// GetChat returns the chat with the given id, or nil.
func (c *Cache) GetChat(id string) *api.Chat {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.chats[id]
}

// GetMessage returns the message with the given id, or nil.
func (c *Cache) GetMessage(id string) *api.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.messages[id]
}

// ListChatsOrdered returns all chats ordered by creation time descending,
// ties broken by id.
func (c *Cache) ListChatsOrdered() []*api.Chat {
	c.mu.RLock()
	defer c.mu.RUnlock()

	chats := make([]*api.Chat, 0, len(c.chats))
	for _, chat := range c.chats {
		chats = append(chats, chat)
	}
	sort.Slice(chats, func(i, j int) bool { return chats[i].Less(chats[j]) })
	return chats
}

// ListMessagesOrdered returns a chat's messages ordered by creation time
// ascending, ties broken by id.
func (c *Cache) ListMessagesOrdered(chatID string) []*api.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()

	index, ok := c.chatMessages[chatID]
	if !ok {
		return nil
	}
	messages := make([]*api.Message, 0, index.Size())
	for _, id := range index.List() {
		messages = append(messages, c.messages[id])
	}
	sort.Slice(messages, func(i, j int) bool { return messages[i].Less(messages[j]) })
	return messages
}

// LatestUserMessage returns the most recently inserted user-role message of
// a chat, or nil.
func (c *Cache) LatestUserMessage(chatID string) *api.Message {
	messages := c.ListMessagesOrdered(chatID)
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == api.RoleUser {
			return messages[i]
		}
	}
	return nil
}

// Revision returns the current commit counter.
func (c *Cache) Revision() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.revision
}

// Subscribe registers for change notifications. The channel coalesces:
// it holds at most one pending signal. The returned function unsubscribes.
func (c *Cache) Subscribe() (<-chan struct{}, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSubID
	c.nextSubID++
	ch := make(chan struct{}, 1)
	c.subscribers[id] = ch

	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subscribers, id)
	}
}

// commit bumps the revision and notifies subscribers. Callers hold the lock.
func (c *Cache) commit() {
	c.revision++
	for _, ch := range c.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

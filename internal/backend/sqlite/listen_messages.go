package sqlite

import (
	"context"
	"sync"

	"github.com/tejastrax/tejax/internal/api"
)

// hub fans message snapshots out to per-chat subscribers. Delivery
// coalesces: a subscriber that has not drained the previous snapshot only
// sees the latest one.
type hub struct {
	mu          sync.Mutex
	subscribers map[string]map[int]*subscription
	nextID      int
}

func newHub() *hub {
	return &hub{subscribers: map[string]map[int]*subscription{}}
}

func (h *hub) subscribe(chatID string) *subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	sub := &subscription{
		updates: make(chan []*api.Message, 1),
	}
	sub.close = func(err error) {
		h.mu.Lock()
		if subs, ok := h.subscribers[chatID]; ok {
			delete(subs, id)
			if len(subs) == 0 {
				delete(h.subscribers, chatID)
			}
		}
		h.mu.Unlock()
		sub.once.Do(func() {
			sub.err = err
			close(sub.updates)
		})
	}

	subs, ok := h.subscribers[chatID]
	if !ok {
		subs = map[int]*subscription{}
		h.subscribers[chatID] = subs
	}
	subs[id] = sub
	return sub
}

func (h *hub) publish(chatID string, messages []*api.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range h.subscribers[chatID] {
		sub.push(messages)
	}
}

type subscription struct {
	updates chan []*api.Message
	once    sync.Once
	err     error
	close   func(err error)
}

// push replaces any undrained snapshot with the latest one.
func (s *subscription) push(messages []*api.Message) {
	for {
		select {
		case s.updates <- messages:
			return
		default:
			select {
			case <-s.updates:
			default:
			}
		}
	}
}

func (s *subscription) Updates() <-chan []*api.Message { return s.updates }
func (s *subscription) Err() error                     { return s.err }
func (s *subscription) Close()                         { s.close(nil) }

// ListenMessages subscribes to the message feed of a chat. The current
// ordered message set is delivered immediately, then a fresh snapshot
// after every committed message write.
func (s *Store) ListenMessages(ctx context.Context, chatID string) (api.Subscription, error) {
	messages, err := s.listMessages(ctx, chatID)
	if err != nil {
		return nil, err
	}

	sub := s.hub.subscribe(chatID)
	sub.push(messages)

	go func() {
		<-ctx.Done()
		sub.close(nil)
	}()
	return sub, nil
}

// Package feed manages the live message subscription of the active chat.
// At most one subscription is live at a time; switching chats tears the
// old one down before the new one starts, and deliveries from a torn-down
// subscription are discarded before they touch the cache.
package feed

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/tejastrax/tejax/internal/api"
	"github.com/tejastrax/tejax/internal/cache"
)

// State of the feed.
type State int

const (
	// StateIdle means no chat is attached.
	StateIdle State = iota
	// StateLoading means a chat is attached but no snapshot arrived yet.
	StateLoading
	// StateReady means at least one snapshot has been applied.
	StateReady
	// StateError means the subscription failed. The feed does not retry.
	StateError
)

// Feed owns the message subscription of one chat. Snapshots flow into the
// cache; consumers re-derive the ordered message list from there.
type Feed struct {
	client api.Client
	cache  *cache.Cache

	// attachMu serializes attach/detach so "detach old" strictly precedes
	// "attach new" with no overlap window.
	attachMu sync.Mutex

	// applyMu makes the epoch re-check and the cache write in run one
	// atomic step with respect to epoch bumps in Attach. Without it a
	// delivery could pass the epoch check, lose the CPU, and commit after
	// a detach already invalidated it.
	applyMu sync.Mutex

	mu      sync.Mutex
	epoch   uint64
	chatID  string
	state   State
	err     error
	sub     api.Subscription
	cancel  context.CancelFunc
	onState func()
}

// New feed.
func New(client api.Client, c *cache.Cache) *Feed {
	return &Feed{client: client, cache: c}
}

// OnState registers a callback invoked after every state transition,
// outside the feed's locks.
func (f *Feed) OnState(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onState = fn
}

// State returns the current feed state.
func (f *Feed) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Err returns the terminal subscription error, if the feed is in StateError.
func (f *Feed) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// ChatID returns the attached chat id, or empty when detached.
func (f *Feed) ChatID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.chatID
}

// Attach replaces the live subscription with one for chatID. An empty
// chatID detaches entirely. Attaching the already-attached chat is a
// no-op unless the feed is in StateError, in which case it resubscribes.
func (f *Feed) Attach(ctx context.Context, chatID string) error {
	f.attachMu.Lock()
	defer f.attachMu.Unlock()

	// Taking applyMu waits out any in-flight snapshot apply; once the
	// epoch is bumped under it, no stale delivery can commit.
	f.applyMu.Lock()
	f.mu.Lock()
	if f.chatID == chatID && f.state != StateError {
		f.mu.Unlock()
		f.applyMu.Unlock()
		return nil
	}

	// Invalidate the old subscription before anything else: any delivery
	// carrying a previous epoch is dropped from here on.
	f.epoch++
	epoch := f.epoch
	oldSub, oldCancel := f.sub, f.cancel
	f.sub, f.cancel = nil, nil
	f.chatID = chatID
	f.err = nil
	if chatID == "" {
		f.state = StateIdle
	} else {
		f.state = StateLoading
	}
	notify := f.onState
	f.mu.Unlock()
	f.applyMu.Unlock()

	if oldCancel != nil {
		oldCancel()
	}
	if oldSub != nil {
		oldSub.Close()
	}
	if notify != nil {
		notify()
	}
	if chatID == "" {
		return nil
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub, err := f.client.ListenMessages(subCtx, chatID)
	if err != nil {
		cancel()
		f.fail(epoch, err)
		return errors.Wrap(err, "listening to messages")
	}

	f.mu.Lock()
	if f.epoch != epoch {
		// A newer attach won the race; this subscription is already stale.
		f.mu.Unlock()
		cancel()
		sub.Close()
		return nil
	}
	f.sub = sub
	f.cancel = cancel
	f.mu.Unlock()

	go f.run(epoch, chatID, sub)
	return nil
}

// Detach drops the live subscription. Idempotent.
func (f *Feed) Detach() {
	f.Attach(context.Background(), "")
}

func (f *Feed) run(epoch uint64, chatID string, sub api.Subscription) {
	for snapshot := range sub.Updates() {
		f.applyMu.Lock()
		f.mu.Lock()
		if f.epoch != epoch {
			f.mu.Unlock()
			f.applyMu.Unlock()
			return
		}
		first := f.state != StateReady
		f.state = StateReady
		notify := f.onState
		f.mu.Unlock()

		f.cache.ReplaceChatMessages(chatID, snapshot)
		f.applyMu.Unlock()
		if first && notify != nil {
			notify()
		}
	}

	if err := sub.Err(); err != nil {
		f.fail(epoch, err)
	}
}

// fail transitions to StateError if epoch is still current.
func (f *Feed) fail(epoch uint64, err error) {
	f.mu.Lock()
	if f.epoch != epoch {
		f.mu.Unlock()
		return
	}
	f.state = StateError
	f.err = err
	notify := f.onState
	f.mu.Unlock()

	if notify != nil {
		notify()
	}
}

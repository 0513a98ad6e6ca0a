// Package chats manages the chat collection: listing, creation, renaming
// and deletion, with the cache as the local view and the store as the
// authority. Chats are the only entities this package writes.
package chats

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/scylladb/go-set/strset"

	"github.com/tejastrax/tejax/internal/api"
	"github.com/tejastrax/tejax/internal/cache"
	"github.com/tejastrax/tejax/internal/selection"
	"github.com/tejastrax/tejax/internal/toast"
)

// Registry coordinates chat mutations against the store.
type Registry struct {
	client   api.Client
	cache    *cache.Cache
	selector *selection.Selector
	notify   toast.Sink
}

// New registry.
func New(client api.Client, c *cache.Cache, selector *selection.Selector, notify toast.Sink) *Registry {
	if notify == nil {
		notify = toast.Discard
	}
	return &Registry{
		client:   client,
		cache:    c,
		selector: selector,
		notify:   notify,
	}
}

// Refresh reconciles the cached chat list with the store: fetched chats are
// upserted and cached chats the store no longer holds are evicted.
func (r *Registry) Refresh(ctx context.Context) error {
	fetched, err := r.client.ListChats(ctx)
	if err != nil {
		r.notify.Error(fmt.Sprintf("Error loading chats: %v", err))
		return errors.Wrap(err, "listing chats")
	}

	present := strset.New()
	for _, chat := range fetched {
		present.Add(chat.ID)
		r.cache.UpsertChat(chat)
	}
	for _, chat := range r.cache.ListChatsOrdered() {
		if !present.Has(chat.ID) {
			r.selector.ClearIf(chat.ID)
			r.cache.EvictChat(chat.ID)
		}
	}
	return nil
}

// Create issues a create round-trip and upserts the confirmed chat. No
// optimistic id is fabricated: message inserts need the real chat id. The
// caller is expected to select the returned chat.
func (r *Registry) Create(ctx context.Context, title string) (*api.Chat, error) {
	chat, err := r.client.CreateChat(ctx, &api.CreateChatRequest{Title: title})
	if err != nil {
		r.notify.Error(fmt.Sprintf("Error creating chat: %v", err))
		return nil, errors.Wrap(err, "creating chat")
	}
	r.cache.UpsertChat(chat)
	r.notify.Success("New chat created!")
	return chat, nil
}

// Rename updates a chat's title. An empty title after trimming is a silent
// no-op: no call is issued.
func (r *Registry) Rename(ctx context.Context, id, title string) error {
	if strings.TrimSpace(title) == "" {
		return nil
	}

	chat, err := r.client.RenameChat(ctx, &api.RenameChatRequest{ID: id, Title: title})
	if err != nil {
		r.notify.Error(fmt.Sprintf("Error renaming chat: %v", err))
		return errors.Wrap(err, "renaming chat")
	}
	r.cache.UpsertChat(chat)
	return nil
}

// Delete removes a chat from the store, then evicts it and all of its
// messages from the cache. If the deleted chat was active, the selection
// resets to none. Confirmation is the caller's gate, not enforced here.
// The selection resets before the eviction: clearing it detaches the feed
// synchronously, so no in-flight snapshot can re-insert the chat's
// messages after they are evicted.
func (r *Registry) Delete(ctx context.Context, id string) error {
	if err := r.client.DeleteChat(ctx, id); err != nil {
		r.notify.Error(fmt.Sprintf("Error deleting chat: %v", err))
		return errors.Wrap(err, "deleting chat")
	}
	r.selector.ClearIf(id)
	r.cache.EvictChat(id)
	r.notify.Success("Chat deleted!")
	return nil
}

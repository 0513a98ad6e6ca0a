// Package client wires the synchronization engine together: the cache, the
// chat registry, the message feed, the mutation coordinator and the
// selection. Selecting a chat re-attaches the feed; deleting the active
// chat clears the selection, which detaches it.
package client

import (
	"context"

	"github.com/tejastrax/tejax/internal/api"
	"github.com/tejastrax/tejax/internal/cache"
	"github.com/tejastrax/tejax/internal/chats"
	"github.com/tejastrax/tejax/internal/feed"
	"github.com/tejastrax/tejax/internal/pipeline"
	"github.com/tejastrax/tejax/internal/selection"
	"github.com/tejastrax/tejax/internal/toast"
)

// Client is the assembled synchronization engine.
type Client struct {
	API      api.Client
	Cache    *cache.Cache
	Selector *selection.Selector
	Registry *chats.Registry
	Feed     *feed.Feed
	Pipeline *pipeline.Coordinator
}

// New assembles an engine around the given protocol binding. The buffer and
// sink may be nil; discarding implementations are substituted.
func New(apiClient api.Client, buffer pipeline.Buffer, notify toast.Sink) *Client {
	if notify == nil {
		notify = toast.Discard
	}
	c := cache.New()
	selector := selection.New()
	registry := chats.New(apiClient, c, selector, notify)
	f := feed.New(apiClient, c)
	coordinator := pipeline.New(apiClient, c, registry, selector, buffer, notify)

	// Selection drives the feed: detach strictly precedes attach inside
	// Feed.Attach, so switching chats never leaves two live subscriptions.
	selector.OnChange(func(chatID string) {
		f.Attach(context.Background(), chatID)
	})

	return &Client{
		API:      apiClient,
		Cache:    c,
		Selector: selector,
		Registry: registry,
		Feed:     f,
		Pipeline: coordinator,
	}
}

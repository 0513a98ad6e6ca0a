// Package backend holds the concrete bindings of the chat protocol: a
// SQLite store for local-first use and a Postgres store for a shared
// server. Both delegate reply generation to a Responder.
package backend

import (
	"context"

	"github.com/tejastrax/tejax/internal/api"
)

// Responder generates the assistant's reply to a chat transcript. The
// transcript is ordered oldest first and ends with the message being
// replied to.
type Responder interface {
	Reply(ctx context.Context, transcript []*api.Message) (string, error)
}

package feed

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejastrax/tejax/internal/api"
	"github.com/tejastrax/tejax/internal/api/apitest"
	"github.com/tejastrax/tejax/internal/cache"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

func snapshot(chatID string, contents ...string) []*api.Message {
	messages := make([]*api.Message, 0, len(contents))
	for i, content := range contents {
		messages = append(messages, &api.Message{
			ID:                content,
			ChatID:            chatID,
			Role:              api.RoleUser,
			Content:           content,
			CreationTimestamp: int64(i + 1),
		})
	}
	return messages
}

func TestAttach(t *testing.T) {
	t.Run("applies snapshots to the cache", func(t *testing.T) {
		fake := apitest.New()
		c := cache.New()
		f := New(fake, c)

		require.NoError(t, f.Attach(context.Background(), "c1"))
		assert.Equal(t, StateLoading, f.State())

		fake.Push("c1", snapshot("c1", "m1", "m2"))
		require.Eventually(t, func() bool {
			return len(c.ListMessagesOrdered("c1")) == 2
		}, waitFor, tick)
		assert.Equal(t, StateReady, f.State())

		// The next snapshot drops a message; the cache follows.
		fake.Push("c1", snapshot("c1", "m1"))
		require.Eventually(t, func() bool {
			return len(c.ListMessagesOrdered("c1")) == 1
		}, waitFor, tick)
	})

	t.Run("re-attaching the same chat is a no-op", func(t *testing.T) {
		fake := apitest.New()
		f := New(fake, cache.New())

		require.NoError(t, f.Attach(context.Background(), "c1"))
		require.NoError(t, f.Attach(context.Background(), "c1"))
		assert.Equal(t, 1, fake.OpenSubscriptions("c1"))
	})

	t.Run("switching chats closes the old subscription", func(t *testing.T) {
		fake := apitest.New()
		f := New(fake, cache.New())

		require.NoError(t, f.Attach(context.Background(), "c1"))
		require.NoError(t, f.Attach(context.Background(), "c2"))

		assert.Equal(t, 0, fake.OpenSubscriptions("c1"))
		assert.Equal(t, 1, fake.OpenSubscriptions("c2"))
		assert.Equal(t, "c2", f.ChatID())
	})

	t.Run("stale termination does not disturb the new chat", func(t *testing.T) {
		fake := apitest.New()
		f := New(fake, cache.New())

		require.NoError(t, f.Attach(context.Background(), "c1"))
		oldSub := fake.Subscriptions("c1")[0]
		require.NoError(t, f.Attach(context.Background(), "c2"))

		oldSub.Terminate(errors.New("connection reset"))
		fake.Push("c2", snapshot("c2", "m1"))
		require.Eventually(t, func() bool {
			return f.State() == StateReady
		}, waitFor, tick)
		assert.NoError(t, f.Err())
	})

	t.Run("subscription failure moves to error state", func(t *testing.T) {
		fake := apitest.New()
		fake.Fail("ListenMessages", errors.New("no stream"))
		f := New(fake, cache.New())

		assert.Error(t, f.Attach(context.Background(), "c1"))
		assert.Equal(t, StateError, f.State())
		assert.Error(t, f.Err())
	})

	t.Run("re-attach after error resubscribes", func(t *testing.T) {
		fake := apitest.New()
		fake.Fail("ListenMessages", errors.New("no stream"))
		f := New(fake, cache.New())
		require.Error(t, f.Attach(context.Background(), "c1"))

		fake.Fail("ListenMessages", nil)
		require.NoError(t, f.Attach(context.Background(), "c1"))
		assert.Equal(t, StateLoading, f.State())
		assert.Equal(t, 1, fake.OpenSubscriptions("c1"))
	})

	t.Run("mid-stream termination surfaces the error", func(t *testing.T) {
		fake := apitest.New()
		f := New(fake, cache.New())
		require.NoError(t, f.Attach(context.Background(), "c1"))

		fake.Subscriptions("c1")[0].Terminate(errors.New("connection reset"))
		require.Eventually(t, func() bool {
			return f.State() == StateError
		}, waitFor, tick)
		assert.Error(t, f.Err())
	})
}

func TestDetach(t *testing.T) {
	t.Run("closes the subscription and idles", func(t *testing.T) {
		fake := apitest.New()
		f := New(fake, cache.New())
		require.NoError(t, f.Attach(context.Background(), "c1"))

		f.Detach()
		assert.Equal(t, StateIdle, f.State())
		assert.Equal(t, 0, fake.OpenSubscriptions("c1"))
	})

	t.Run("idempotent", func(t *testing.T) {
		fake := apitest.New()
		f := New(fake, cache.New())
		require.NoError(t, f.Attach(context.Background(), "c1"))

		f.Detach()
		f.Detach()
		assert.Equal(t, StateIdle, f.State())
		assert.Empty(t, f.ChatID())
	})

	t.Run("detached feed has no subscription calls", func(t *testing.T) {
		fake := apitest.New()
		f := New(fake, cache.New())
		f.Detach()
		assert.Empty(t, fake.Calls)
	})
}

func TestOnState(t *testing.T) {
	fake := apitest.New()
	f := New(fake, cache.New())

	transitions := make(chan State, 16)
	f.OnState(func() { transitions <- f.State() })

	require.NoError(t, f.Attach(context.Background(), "c1"))
	assert.Equal(t, StateLoading, <-transitions)

	fake.Push("c1", snapshot("c1", "m1"))
	assert.Equal(t, StateReady, <-transitions)
}

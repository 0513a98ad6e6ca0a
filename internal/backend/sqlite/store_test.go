package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejastrax/tejax/internal/api"
)

// scriptedResponder replies with a fixed string.
type scriptedResponder struct {
	reply string
	err   error
}

func (r *scriptedResponder) Reply(ctx context.Context, transcript []*api.Message) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return r.reply, nil
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "chats.db"), &scriptedResponder{reply: "canned reply"})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func nextSnapshot(t *testing.T, sub api.Subscription) []*api.Message {
	t.Helper()
	select {
	case snapshot, ok := <-sub.Updates():
		require.True(t, ok, "subscription closed unexpectedly")
		return snapshot
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}

func TestChatLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	chat, err := store.CreateChat(ctx, &api.CreateChatRequest{Title: "my chat"})
	require.NoError(t, err)
	assert.NotEmpty(t, chat.ID)
	assert.Equal(t, "my chat", chat.Title)
	assert.NotZero(t, chat.CreationTimestamp)

	chats, err := store.ListChats(ctx)
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.Equal(t, chat.ID, chats[0].ID)

	renamed, err := store.RenameChat(ctx, &api.RenameChatRequest{ID: chat.ID, Title: "renamed"})
	require.NoError(t, err)
	assert.Equal(t, "renamed", renamed.Title)
	assert.Equal(t, chat.CreationTimestamp, renamed.CreationTimestamp)

	require.NoError(t, store.DeleteChat(ctx, chat.ID))
	chats, err = store.ListChats(ctx)
	require.NoError(t, err)
	assert.Empty(t, chats)
}

func TestNotFound(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.RenameChat(ctx, &api.RenameChatRequest{ID: "ghost", Title: "x"})
	assert.ErrorIs(t, err, api.ErrNotFound)

	assert.ErrorIs(t, store.DeleteChat(ctx, "ghost"), api.ErrNotFound)

	_, err = store.InsertUserMessage(ctx, &api.InsertUserMessageRequest{ChatID: "ghost", Content: "x"})
	assert.ErrorIs(t, err, api.ErrNotFound)

	_, err = store.UpdateMessage(ctx, &api.UpdateMessageRequest{ID: "ghost", Content: "x"})
	assert.ErrorIs(t, err, api.ErrNotFound)

	assert.ErrorIs(t, store.DeleteMessage(ctx, "ghost"), api.ErrNotFound)
}

func TestMessageFeed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := newTestStore(t)

	chat, err := store.CreateChat(ctx, &api.CreateChatRequest{Title: "feed"})
	require.NoError(t, err)

	sub, err := store.ListenMessages(ctx, chat.ID)
	require.NoError(t, err)
	defer sub.Close()

	// The initial snapshot arrives before any write.
	assert.Empty(t, nextSnapshot(t, sub))

	inserted, err := store.InsertUserMessage(ctx, &api.InsertUserMessageRequest{ChatID: chat.ID, Content: "hello"})
	require.NoError(t, err)
	snapshot := nextSnapshot(t, sub)
	require.Len(t, snapshot, 1)
	assert.Equal(t, inserted.ID, snapshot[0].ID)
	assert.Equal(t, api.RoleUser, snapshot[0].Role)

	response, err := store.InvokeResponder(ctx, &api.InvokeResponderRequest{ChatID: chat.ID, Message: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "canned reply", response.Reply)
	snapshot = nextSnapshot(t, sub)
	require.Len(t, snapshot, 2)
	assert.Equal(t, api.RoleAssistant, snapshot[1].Role)
	assert.Equal(t, "canned reply", snapshot[1].Content)

	updated, err := store.UpdateMessage(ctx, &api.UpdateMessageRequest{ID: inserted.ID, Content: "hello, edited"})
	require.NoError(t, err)
	assert.Equal(t, "hello, edited", updated.Content)
	assert.Equal(t, inserted.CreationTimestamp, updated.CreationTimestamp)
	snapshot = nextSnapshot(t, sub)
	require.Len(t, snapshot, 2)
	assert.Equal(t, "hello, edited", snapshot[0].Content)

	require.NoError(t, store.DeleteMessage(ctx, inserted.ID))
	snapshot = nextSnapshot(t, sub)
	require.Len(t, snapshot, 1)
	assert.Equal(t, api.RoleAssistant, snapshot[0].Role)
}

func TestMessageOrdering(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	chat, err := store.CreateChat(ctx, &api.CreateChatRequest{Title: "ordering"})
	require.NoError(t, err)

	for _, content := range []string{"first", "second", "third"} {
		_, err := store.InsertUserMessage(ctx, &api.InsertUserMessageRequest{ChatID: chat.ID, Content: content})
		require.NoError(t, err)
		time.Sleep(time.Millisecond) // distinct creation timestamps
	}

	messages, err := store.listMessages(ctx, chat.ID)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, "first", messages[0].Content)
	assert.Equal(t, "second", messages[1].Content)
	assert.Equal(t, "third", messages[2].Content)
	for i := 1; i < len(messages); i++ {
		assert.False(t, messages[i].Less(messages[i-1]))
	}
}

func TestResponderFailure(t *testing.T) {
	ctx := context.Background()
	store, err := New(filepath.Join(t.TempDir(), "chats.db"), &scriptedResponder{err: errors.New("model down")})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	chat, err := store.CreateChat(ctx, &api.CreateChatRequest{Title: "failing"})
	require.NoError(t, err)
	_, err = store.InsertUserMessage(ctx, &api.InsertUserMessageRequest{ChatID: chat.ID, Content: "hello"})
	require.NoError(t, err)

	_, err = store.InvokeResponder(ctx, &api.InvokeResponderRequest{ChatID: chat.ID, Message: "hello"})
	assert.Error(t, err)

	// The user message survives; no assistant message was persisted.
	messages, err := store.listMessages(ctx, chat.ID)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, api.RoleUser, messages[0].Role)
}

func TestDeleteChatCascades(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	chat, err := store.CreateChat(ctx, &api.CreateChatRequest{Title: "doomed"})
	require.NoError(t, err)
	_, err = store.InsertUserMessage(ctx, &api.InsertUserMessageRequest{ChatID: chat.ID, Content: "x"})
	require.NoError(t, err)

	sub, err := store.ListenMessages(ctx, chat.ID)
	require.NoError(t, err)
	defer sub.Close()
	require.Len(t, nextSnapshot(t, sub), 1)

	require.NoError(t, store.DeleteChat(ctx, chat.ID))

	assert.Empty(t, nextSnapshot(t, sub))
	messages, err := store.listMessages(ctx, chat.ID)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestSubscriptionClosesWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store := newTestStore(t)

	chat, err := store.CreateChat(ctx, &api.CreateChatRequest{Title: "ctx"})
	require.NoError(t, err)

	sub, err := store.ListenMessages(ctx, chat.ID)
	require.NoError(t, err)
	nextSnapshot(t, sub)

	cancel()
	select {
	case _, ok := <-sub.Updates():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("subscription did not close on context cancellation")
	}
	assert.NoError(t, sub.Err())
}

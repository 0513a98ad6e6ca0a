package pipeline

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejastrax/tejax/internal/api"
	"github.com/tejastrax/tejax/internal/api/apitest"
	"github.com/tejastrax/tejax/internal/cache"
	"github.com/tejastrax/tejax/internal/chats"
	"github.com/tejastrax/tejax/internal/selection"
)

type recordingBuffer struct {
	mu       sync.Mutex
	cleared  int
	restored []string
}

func (b *recordingBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cleared++
}

func (b *recordingBuffer) Restore(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.restored = append(b.restored, text)
}

type recordingSink struct {
	mu        sync.Mutex
	successes []string
	failures  []string
}

func (s *recordingSink) Success(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.successes = append(s.successes, message)
}

func (s *recordingSink) Error(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, message)
}

type harness struct {
	fake     *apitest.Fake
	cache    *cache.Cache
	selector *selection.Selector
	buffer   *recordingBuffer
	sink     *recordingSink
}

func newCoordinator(t *testing.T, client api.Client) (*Coordinator, *harness) {
	t.Helper()
	h := &harness{
		fake:     nil,
		cache:    cache.New(),
		selector: selection.New(),
		buffer:   &recordingBuffer{},
		sink:     &recordingSink{},
	}
	if fake, ok := client.(*apitest.Fake); ok {
		h.fake = fake
	}
	registry := chats.New(client, h.cache, h.selector, h.sink)
	return New(client, h.cache, registry, h.selector, h.buffer, h.sink), h
}

func TestSendMessage(t *testing.T) {
	t.Run("two-phase send persists then invokes", func(t *testing.T) {
		fake := apitest.New()
		fake.SeedChat(&api.Chat{ID: "c1", Title: "chat", CreationTimestamp: 100})
		coordinator, h := newCoordinator(t, fake)

		require.NoError(t, coordinator.SendMessage(context.Background(), "c1", "hello"))

		assert.Equal(t, []string{"InsertUserMessage", "InvokeResponder"}, fake.Calls)
		stored := fake.Messages("c1")
		require.Len(t, stored, 2)
		assert.Equal(t, api.RoleUser, stored[0].Role)
		assert.Equal(t, "hello", stored[0].Content)
		assert.Equal(t, api.RoleAssistant, stored[1].Role)

		// The confirmed user message is echoed into the cache.
		assert.NotNil(t, h.cache.GetMessage(stored[0].ID))
		assert.Equal(t, 1, h.buffer.cleared)
		assert.Empty(t, h.buffer.restored)
	})

	t.Run("blank input is a silent no-op", func(t *testing.T) {
		fake := apitest.New()
		coordinator, h := newCoordinator(t, fake)

		require.NoError(t, coordinator.SendMessage(context.Background(), "c1", "  \n\t"))
		require.NoError(t, coordinator.SendMessage(context.Background(), "", "hello"))
		assert.Empty(t, fake.Calls)
		assert.Zero(t, h.buffer.cleared)
		assert.Empty(t, h.sink.failures)
	})

	t.Run("insert failure rolls the input back", func(t *testing.T) {
		fake := apitest.New()
		fake.SeedChat(&api.Chat{ID: "c1", Title: "chat", CreationTimestamp: 100})
		fake.Fail("InsertUserMessage", errors.New("store down"))
		coordinator, h := newCoordinator(t, fake)

		assert.Error(t, coordinator.SendMessage(context.Background(), "c1", "hello"))

		assert.Equal(t, []string{"InsertUserMessage"}, fake.Calls)
		assert.Equal(t, []string{"hello"}, h.buffer.restored)
		require.Len(t, h.sink.failures, 1)
		assert.True(t, strings.HasPrefix(h.sink.failures[0], "Failed to send message:"))
		assert.Empty(t, fake.Messages("c1"))
	})

	t.Run("responder failure leaves the user message persisted", func(t *testing.T) {
		fake := apitest.New()
		fake.SeedChat(&api.Chat{ID: "c1", Title: "chat", CreationTimestamp: 100})
		fake.Fail("InvokeResponder", errors.New("model down"))
		coordinator, h := newCoordinator(t, fake)

		assert.Error(t, coordinator.SendMessage(context.Background(), "c1", "hello"))

		stored := fake.Messages("c1")
		require.Len(t, stored, 1)
		assert.Equal(t, api.RoleUser, stored[0].Role)
		assert.NotNil(t, h.cache.GetMessage(stored[0].ID))
		assert.Equal(t, []string{"hello"}, h.buffer.restored)
		require.Len(t, h.sink.failures, 1)
		assert.True(t, strings.HasPrefix(h.sink.failures[0], "Chatbot error:"))
	})

	t.Run("single flight per chat", func(t *testing.T) {
		fake := apitest.New()
		fake.SeedChat(&api.Chat{ID: "c1", Title: "chat", CreationTimestamp: 100})
		blocking := &blockingClient{
			Fake:    fake,
			entered: make(chan struct{}),
			release: make(chan struct{}),
		}
		coordinator, _ := newCoordinator(t, blocking)

		done := make(chan error, 1)
		go func() {
			done <- coordinator.SendMessage(context.Background(), "c1", "first")
		}()
		<-blocking.entered
		assert.True(t, coordinator.Sending("c1"))

		// A concurrent send for the same chat is dropped before any call.
		require.NoError(t, coordinator.SendMessage(context.Background(), "c1", "second"))
		assert.Equal(t, []string{"InsertUserMessage"}, fake.Calls)

		close(blocking.release)
		require.NoError(t, <-done)
		assert.False(t, coordinator.Sending("c1"))
		require.Len(t, fake.Messages("c1"), 2)
		assert.Equal(t, "first", fake.Messages("c1")[0].Content)
	})
}

// blockingClient parks InvokeResponder until released, exposing the
// single-flight window.
type blockingClient struct {
	*apitest.Fake
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingClient) InvokeResponder(ctx context.Context, request *api.InvokeResponderRequest) (*api.InvokeResponderResponse, error) {
	b.once.Do(func() {
		b.entered <- struct{}{}
		<-b.release
	})
	return b.Fake.InvokeResponder(ctx, request)
}

func TestStartFromPrompt(t *testing.T) {
	t.Run("creates, selects and sends", func(t *testing.T) {
		fake := apitest.New()
		coordinator, h := newCoordinator(t, fake)

		require.NoError(t, coordinator.StartFromPrompt(context.Background(), "Summarize this article: "))

		chats := h.cache.ListChatsOrdered()
		require.Len(t, chats, 1)
		assert.Equal(t, "Summarize this article", chats[0].Title)
		assert.Equal(t, chats[0].ID, h.selector.Active())

		stored := fake.Messages(chats[0].ID)
		require.Len(t, stored, 2)
		assert.Equal(t, "Summarize this article: ", stored[0].Content)
	})

	t.Run("all-separator prompt falls back to default title", func(t *testing.T) {
		fake := apitest.New()
		coordinator, h := newCoordinator(t, fake)

		require.NoError(t, coordinator.StartFromPrompt(context.Background(), ":"))
		chats := h.cache.ListChatsOrdered()
		require.Len(t, chats, 1)
		assert.Equal(t, "New Chat", chats[0].Title)
	})

	t.Run("create failure aborts before any message", func(t *testing.T) {
		fake := apitest.New()
		fake.Fail("CreateChat", errors.New("store down"))
		coordinator, h := newCoordinator(t, fake)

		assert.Error(t, coordinator.StartFromPrompt(context.Background(), "Debug this error: "))

		assert.Equal(t, []string{"CreateChat"}, fake.Calls)
		assert.Equal(t, []string{"Debug this error: "}, h.buffer.restored)
		assert.Equal(t, selection.None, h.selector.Active())
	})

	t.Run("blank prompt is a silent no-op", func(t *testing.T) {
		fake := apitest.New()
		coordinator, _ := newCoordinator(t, fake)
		require.NoError(t, coordinator.StartFromPrompt(context.Background(), "   "))
		assert.Empty(t, fake.Calls)
	})

	t.Run("new chat sorts to the top of the list", func(t *testing.T) {
		fake := apitest.New()
		coordinator, h := newCoordinator(t, fake)
		h.cache.UpsertChat(&api.Chat{ID: "c-old", Title: "old", CreationTimestamp: 0})

		require.NoError(t, coordinator.StartFromPrompt(context.Background(), "Explain this code: "))
		chats := h.cache.ListChatsOrdered()
		require.Len(t, chats, 2)
		assert.Equal(t, "Explain this code", chats[0].Title)
	})
}

func TestEditMessage(t *testing.T) {
	seed := func(t *testing.T) (*Coordinator, *harness, *apitest.Fake) {
		t.Helper()
		fake := apitest.New()
		fake.SeedChat(&api.Chat{ID: "c1", Title: "chat", CreationTimestamp: 100})
		fake.SeedMessage(&api.Message{ID: "m1", ChatID: "c1", Role: api.RoleUser, Content: "first", CreationTimestamp: 110})
		fake.SeedMessage(&api.Message{ID: "m2", ChatID: "c1", Role: api.RoleAssistant, Content: "reply", CreationTimestamp: 120})
		fake.SeedMessage(&api.Message{ID: "m3", ChatID: "c1", Role: api.RoleUser, Content: "latest", CreationTimestamp: 130})
		coordinator, h := newCoordinator(t, fake)
		for _, message := range fake.Messages("c1") {
			h.cache.UpsertMessage(message)
		}
		return coordinator, h, fake
	}

	t.Run("edits the latest user message", func(t *testing.T) {
		coordinator, h, fake := seed(t)

		require.NoError(t, coordinator.EditMessage(context.Background(), "m3", "latest, edited"))
		assert.Equal(t, []string{"UpdateMessage"}, fake.Calls)
		assert.Equal(t, "latest, edited", h.cache.GetMessage("m3").Content)
	})

	t.Run("earlier user message is a silent no-op", func(t *testing.T) {
		coordinator, h, fake := seed(t)

		require.NoError(t, coordinator.EditMessage(context.Background(), "m1", "rewritten"))
		assert.Empty(t, fake.Calls)
		assert.Equal(t, "first", h.cache.GetMessage("m1").Content)
	})

	t.Run("assistant message is a silent no-op", func(t *testing.T) {
		coordinator, _, fake := seed(t)
		require.NoError(t, coordinator.EditMessage(context.Background(), "m2", "rewritten"))
		assert.Empty(t, fake.Calls)
	})

	t.Run("unchanged content issues no call", func(t *testing.T) {
		coordinator, _, fake := seed(t)
		require.NoError(t, coordinator.EditMessage(context.Background(), "m3", "latest"))
		assert.Empty(t, fake.Calls)
	})

	t.Run("unknown message is a silent no-op", func(t *testing.T) {
		coordinator, _, fake := seed(t)
		require.NoError(t, coordinator.EditMessage(context.Background(), "ghost", "anything"))
		assert.Empty(t, fake.Calls)
	})

	t.Run("update failure keeps the cached content", func(t *testing.T) {
		coordinator, h, fake := seed(t)
		fake.Fail("UpdateMessage", errors.New("store down"))

		assert.Error(t, coordinator.EditMessage(context.Background(), "m3", "latest, edited"))
		assert.Equal(t, "latest", h.cache.GetMessage("m3").Content)
		assert.NotEmpty(t, h.sink.failures)
	})
}

func TestDeleteMessage(t *testing.T) {
	t.Run("evicts immediately on success", func(t *testing.T) {
		fake := apitest.New()
		fake.SeedChat(&api.Chat{ID: "c1", Title: "chat", CreationTimestamp: 100})
		fake.SeedMessage(&api.Message{ID: "m1", ChatID: "c1", Role: api.RoleUser, Content: "doomed", CreationTimestamp: 110})
		coordinator, h := newCoordinator(t, fake)
		h.cache.UpsertMessage(&api.Message{ID: "m1", ChatID: "c1", Role: api.RoleUser, Content: "doomed", CreationTimestamp: 110})

		require.NoError(t, coordinator.DeleteMessage(context.Background(), "m1"))
		assert.Nil(t, h.cache.GetMessage("m1"))
		assert.Empty(t, fake.Messages("c1"))
	})

	t.Run("failure keeps the message cached", func(t *testing.T) {
		fake := apitest.New()
		fake.Fail("DeleteMessage", errors.New("store down"))
		coordinator, h := newCoordinator(t, fake)
		h.cache.UpsertMessage(&api.Message{ID: "m1", ChatID: "c1", Role: api.RoleUser, Content: "kept", CreationTimestamp: 110})

		assert.Error(t, coordinator.DeleteMessage(context.Background(), "m1"))
		assert.NotNil(t, h.cache.GetMessage("m1"))
		assert.NotEmpty(t, h.sink.failures)
	})
}

func TestSending(t *testing.T) {
	fake := apitest.New()
	coordinator, _ := newCoordinator(t, fake)
	assert.False(t, coordinator.Sending("c1"))
}

package tui

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejastrax/tejax/internal/api"
	"github.com/tejastrax/tejax/internal/api/apitest"
	"github.com/tejastrax/tejax/internal/configuration"
)

// blockingResponderClient parks the first InvokeResponder call until
// released, holding a send in flight.
type blockingResponderClient struct {
	*apitest.Fake
	entered chan struct{}
	release chan struct{}
}

func (c *blockingResponderClient) InvokeResponder(ctx context.Context, request *api.InvokeResponderRequest) (*api.InvokeResponderResponse, error) {
	close(c.entered)
	<-c.release
	return c.Fake.InvokeResponder(ctx, request)
}

func TestSpinnerFollowsSendPipeline(t *testing.T) {
	fake := apitest.New()
	fake.SeedChat(&api.Chat{ID: "c1", Title: "chat", CreationTimestamp: 100})
	client := &blockingResponderClient{
		Fake:    fake,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}

	config := &configuration.Config{DisplayName: "you", Theme: "dark"}
	m, err := New(context.Background(), config, filepath.Join(t.TempDir(), "config.json"), client)
	require.NoError(t, err)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	require.NoError(t, m.engine.Registry.Refresh(context.Background()))
	m.engine.Selector.Select("c1")
	assert.NotContains(t, m.View(), "Waiting for reply...")

	done := make(chan struct{})
	go func() {
		defer close(done)
		m.engine.Pipeline.SendMessage(context.Background(), "c1", "hello")
	}()
	select {
	case <-client.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("send never reached the responder")
	}
	assert.Contains(t, m.View(), "Waiting for reply...")

	// An unrelated engine call completing clears the busy flag; the
	// spinner must stay up while the send is still in flight.
	m.Update(engineDoneMsg{})
	assert.Contains(t, m.View(), "Waiting for reply...")

	close(client.release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("send never finished")
	}
	assert.NotContains(t, m.View(), "Waiting for reply...")
}

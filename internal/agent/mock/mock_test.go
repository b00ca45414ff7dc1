package mock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/devpane/workbench/internal/agent/client"
)

func TestClient_NewSession_Resumable(t *testing.T) {
	c := NewClient()
	ctx := context.Background()

	require.NoError(t, c.Start(ctx))
	require.True(t, c.Started())

	sess, err := c.NewSession(ctx, client.SessionConfig{})
	require.NoError(t, err)
	require.NotEmpty(t, sess.ID())
	require.Equal(t, 1, c.CreateCount())

	loaded, err := c.LoadSession(ctx, sess.ID())
	require.NoError(t, err)
	require.Equal(t, sess.ID(), loaded.ID())
	require.Equal(t, 1, c.ResumeCount())
}

func TestClient_LoadSession_NotFound(t *testing.T) {
	c := NewClient()

	_, err := c.LoadSession(context.Background(), "missing")
	require.ErrorIs(t, err, client.ErrSessionNotFound)
}

func TestClient_Seed_DifferentLookupID(t *testing.T) {
	c := NewClient()
	sess := NewSession("external-own-id")
	c.Seed("caller-chosen-id", sess)

	loaded, err := c.LoadSession(context.Background(), "caller-chosen-id")
	require.NoError(t, err)
	require.Equal(t, "external-own-id", loaded.ID())
}

func TestSession_EmitRecordsHistory(t *testing.T) {
	s := NewSession("s-1")

	s.Emit(client.StreamEvent{Type: client.EventMessage, Data: client.EventData{Content: "hi"}})

	event := <-s.Events()
	require.Equal(t, client.EventMessage, event.Type)
	require.Equal(t, "s-1", event.SessionID)
	require.False(t, event.Timestamp.IsZero())

	history, err := s.History(context.Background())
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, "hi", history[0].Data.Content)
}

func TestSession_CloseAndReopen(t *testing.T) {
	c := NewClient()
	ctx := context.Background()

	created, err := c.NewSession(ctx, client.SessionConfig{SessionID: "s-2"})
	require.NoError(t, err)

	sess := created.(*Session)
	sess.Record(client.StreamEvent{Type: client.EventMessage, Data: client.EventData{Content: "old"}})
	require.NoError(t, sess.Close())
	require.True(t, sess.Closed())

	// Emit after close only lands in history.
	sess.Emit(client.StreamEvent{Type: client.EventIdle})

	reopened, err := c.LoadSession(ctx, "s-2")
	require.NoError(t, err)
	require.False(t, reopened.(*Session).Closed())

	history, err := reopened.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 2)
}

func TestClient_Registered(t *testing.T) {
	require.True(t, client.IsRegistered(client.ClientMock))

	c, err := client.New(client.ClientMock)
	require.NoError(t, err)
	require.Equal(t, client.ClientMock, c.Type())
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/devpane/workbench/internal/agent/client"
	"github.com/devpane/workbench/internal/agent/mock"
	"github.com/devpane/workbench/internal/pubsub"
)

// newTestService registers a dedicated client type backed by a shared mock
// client instance so tests can observe what the service does to it.
func newTestService(t *testing.T, opts ...Option) (*Service, *mock.Client) {
	t.Helper()
	mc := mock.NewClient()
	ct := client.ClientType("test-" + t.Name())
	client.Register(ct, func() client.Client { return mc })
	return NewService(ct, opts...), mc
}

func recvEvent(t *testing.T, ch <-chan pubsub.Event[ProgressEvent]) ProgressEvent {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "progress stream closed unexpectedly")
		return ev.Payload
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for progress event")
	}
	return ProgressEvent{}
}

func toolStartEvent(toolCallID, toolName string, args string) client.StreamEvent {
	return client.StreamEvent{
		Type: client.EventToolStart,
		Data: client.EventData{
			ToolCallID: toolCallID,
			ToolName:   toolName,
			Arguments:  json.RawMessage(args),
		},
	}
}

func toolCompleteEvent(toolCallID string, success bool, output string) client.StreamEvent {
	return client.StreamEvent{
		Type: client.EventToolComplete,
		Data: client.EventData{
			ToolCallID: toolCallID,
			Success:    success,
			Output:     output,
		},
	}
}

func TestService_CreateSession_GeneratesID(t *testing.T) {
	svc, mc := newTestService(t)

	id, err := svc.CreateSession(context.Background(), SessionConfig{Model: "fast"})
	require.NoError(t, err)
	require.NotEmpty(t, id)
	require.True(t, mc.Started())
	require.Equal(t, 1, mc.StartCount())
	require.Contains(t, svc.BoundSessions(), id)
}

func TestService_CreateSession_UsesCallerID(t *testing.T) {
	svc, _ := newTestService(t)

	id, err := svc.CreateSession(context.Background(), SessionConfig{SessionID: "work-1"})
	require.NoError(t, err)
	require.Equal(t, "work-1", id)
}

func TestService_CreateSession_SameIDIsNoOp(t *testing.T) {
	svc, mc := newTestService(t)

	_, err := svc.CreateSession(context.Background(), SessionConfig{SessionID: "work-1"})
	require.NoError(t, err)
	id, err := svc.CreateSession(context.Background(), SessionConfig{SessionID: "work-1"})
	require.NoError(t, err)
	require.Equal(t, "work-1", id)
	require.Equal(t, 1, mc.CreateCount())
}

func TestService_CreateSession_ClientStartFailureRetries(t *testing.T) {
	svc, mc := newTestService(t)
	mc.StartErr = errors.New("unauthorized")

	_, err := svc.CreateSession(context.Background(), SessionConfig{})
	require.Error(t, err)
	require.False(t, mc.Started())

	// The client stays unset after a start failure, so the next call
	// retries from scratch.
	mc.StartErr = nil
	_, err = svc.CreateSession(context.Background(), SessionConfig{})
	require.NoError(t, err)
	require.True(t, mc.Started())
	require.Equal(t, 2, mc.StartCount())
}

func TestService_ToolCallLifecycle(t *testing.T) {
	svc, mc := newTestService(t)
	ctx := context.Background()

	id, err := svc.CreateSession(ctx, SessionConfig{SessionID: "s1"})
	require.NoError(t, err)
	sess, ok := mc.Session(id)
	require.True(t, ok)

	ch, err := svc.Subscribe(ctx, id)
	require.NoError(t, err)

	sess.Emit(toolStartEvent("tc-1", "bash", `{"command":"ls -la"}`))
	sess.Emit(toolCompleteEvent("tc-1", true, "total 8"))

	start := recvEvent(t, ch)
	require.Equal(t, KindToolStart, start.Kind)
	require.Equal(t, id, start.SessionID)
	require.Equal(t, "tc-1", start.ToolCallID)
	require.Equal(t, "Terminal", start.DisplayName)
	require.Equal(t, InputTerminal, start.InputKind)
	require.Equal(t, "Running `ls -la`", start.InvocationMessage)

	complete := recvEvent(t, ch)
	require.Equal(t, KindToolComplete, complete.Kind)
	require.Equal(t, "tc-1", complete.ToolCallID)
	require.True(t, complete.Success)
	require.Equal(t, "total 8", complete.Output)
	require.Equal(t, "Ran `ls -la`", complete.CompletionMessage)
}

func TestService_StrayToolCompleteDropped(t *testing.T) {
	svc, mc := newTestService(t)
	ctx := context.Background()

	id, err := svc.CreateSession(ctx, SessionConfig{SessionID: "s1"})
	require.NoError(t, err)
	sess, _ := mc.Session(id)

	ch, err := svc.Subscribe(ctx, id)
	require.NoError(t, err)

	sess.Emit(toolCompleteEvent("tc-orphan", true, "ignored"))
	// Idle sentinel: the listener processes in order, so if the stray
	// completion produced output it would arrive first.
	sess.Emit(client.StreamEvent{Type: client.EventIdle})

	got := recvEvent(t, ch)
	require.Equal(t, KindIdle, got.Kind)
}

func TestService_DuplicateToolCompleteDropped(t *testing.T) {
	svc, mc := newTestService(t)
	ctx := context.Background()

	id, err := svc.CreateSession(ctx, SessionConfig{SessionID: "s1"})
	require.NoError(t, err)
	sess, _ := mc.Session(id)

	ch, err := svc.Subscribe(ctx, id)
	require.NoError(t, err)

	sess.Emit(toolStartEvent("tc-1", "grep", `{}`))
	sess.Emit(toolCompleteEvent("tc-1", true, "match"))
	sess.Emit(toolCompleteEvent("tc-1", true, "match"))
	sess.Emit(client.StreamEvent{Type: client.EventIdle})

	require.Equal(t, KindToolStart, recvEvent(t, ch).Kind)
	require.Equal(t, KindToolComplete, recvEvent(t, ch).Kind)
	require.Equal(t, KindIdle, recvEvent(t, ch).Kind)
}

func TestService_HiddenToolSuppressed(t *testing.T) {
	svc, mc := newTestService(t)
	ctx := context.Background()

	id, err := svc.CreateSession(ctx, SessionConfig{SessionID: "s1"})
	require.NoError(t, err)
	sess, _ := mc.Session(id)

	ch, err := svc.Subscribe(ctx, id)
	require.NoError(t, err)

	sess.Emit(toolStartEvent("tc-think", "think", `{"thought":"hmm"}`))
	// The completion finds no active entry because the start was never
	// tracked, so it drops too.
	sess.Emit(toolCompleteEvent("tc-think", true, "done thinking"))
	sess.Emit(client.StreamEvent{Type: client.EventIdle})

	require.Equal(t, KindIdle, recvEvent(t, ch).Kind)
}

func TestService_SessionIsolation(t *testing.T) {
	svc, mc := newTestService(t)
	ctx := context.Background()

	s1, err := svc.CreateSession(ctx, SessionConfig{SessionID: "s1"})
	require.NoError(t, err)
	s2, err := svc.CreateSession(ctx, SessionConfig{SessionID: "s2"})
	require.NoError(t, err)

	ch1, err := svc.Subscribe(ctx, s1)
	require.NoError(t, err)

	sess2, _ := mc.Session(s2)
	sess2.Emit(toolStartEvent("tc-1", "bash", `{"command":"rm -rf /tmp/x"}`))
	sess2.Emit(client.StreamEvent{Type: client.EventIdle})

	sess1, _ := mc.Session(s1)
	sess1.Emit(client.StreamEvent{Type: client.EventIdle})

	got := recvEvent(t, ch1)
	require.Equal(t, KindIdle, got.Kind)
	require.Equal(t, s1, got.SessionID)
	select {
	case ev := <-ch1:
		t.Fatalf("unexpected event on s1 stream: %+v", ev.Payload)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestService_CrossSessionEventsFiltered(t *testing.T) {
	svc, mc := newTestService(t)
	ctx := context.Background()

	id, err := svc.CreateSession(ctx, SessionConfig{SessionID: "s1"})
	require.NoError(t, err)
	sess, _ := mc.Session(id)

	ch, err := svc.Subscribe(ctx, id)
	require.NoError(t, err)

	// An event tagged for some other session must not leak through this
	// session's listener even though it arrived on its stream.
	sess.Emit(client.StreamEvent{
		Type:      client.EventMessage,
		SessionID: "someone-else",
		Data:      client.EventData{Content: "leaked"},
	})
	sess.Emit(client.StreamEvent{Type: client.EventIdle})

	require.Equal(t, KindIdle, recvEvent(t, ch).Kind)
}

func TestService_UnknownEventTypesIgnored(t *testing.T) {
	svc, mc := newTestService(t)
	ctx := context.Background()

	id, err := svc.CreateSession(ctx, SessionConfig{SessionID: "s1"})
	require.NoError(t, err)
	sess, _ := mc.Session(id)

	ch, err := svc.Subscribe(ctx, id)
	require.NoError(t, err)

	sess.Emit(client.StreamEvent{Type: client.EventType("future.event"), Data: client.EventData{Content: "x"}})
	sess.Emit(client.StreamEvent{Type: client.EventSessionResumed})
	sess.Emit(client.StreamEvent{Type: client.EventIdle})

	require.Equal(t, KindIdle, recvEvent(t, ch).Kind)
}

func TestService_SendMessage_Bound(t *testing.T) {
	svc, mc := newTestService(t)
	ctx := context.Background()

	id, err := svc.CreateSession(ctx, SessionConfig{SessionID: "s1"})
	require.NoError(t, err)

	require.NoError(t, svc.SendMessage(ctx, id, "hello"))

	sess, _ := mc.Session(id)
	require.Equal(t, []string{"hello"}, sess.Prompts())
}

func TestService_SendMessage_ResumesUnderCallerID(t *testing.T) {
	svc, mc := newTestService(t)
	ctx := context.Background()

	// The external system knows this session under its own id, but the
	// caller addresses it by a different one.
	ext := mock.NewSession("external-9")
	mc.Seed("caller-1", ext)

	require.NoError(t, svc.SendMessage(ctx, "caller-1", "resume me"))
	require.Equal(t, []string{"resume me"}, ext.Prompts())
	require.Contains(t, svc.BoundSessions(), "caller-1")

	// Future events are re-tagged with the caller's id.
	ch, err := svc.Subscribe(ctx, "caller-1")
	require.NoError(t, err)
	ext.Emit(client.StreamEvent{Type: client.EventIdle})

	got := recvEvent(t, ch)
	require.Equal(t, KindIdle, got.Kind)
	require.Equal(t, "caller-1", got.SessionID)
}

func TestService_SendMessage_ResumeFailure(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.SendMessage(context.Background(), "no-such-session", "hello")
	require.ErrorIs(t, err, ErrResumeFailed)
}

func TestService_GetSessionMessages_ReplaysHistory(t *testing.T) {
	svc, mc := newTestService(t)
	ctx := context.Background()

	id, err := svc.CreateSession(ctx, SessionConfig{SessionID: "s1"})
	require.NoError(t, err)
	sess, _ := mc.Session(id)

	sess.Record(client.StreamEvent{Type: client.EventMessage, Data: client.EventData{MessageID: "m1", Content: "hi"}})
	sess.Record(toolStartEvent("tc-1", "read_file", `{"file_path":"/src/main.go"}`))
	sess.Record(toolCompleteEvent("tc-1", true, "package main"))
	sess.Record(toolCompleteEvent("tc-stray", true, "ignored"))
	sess.Record(toolStartEvent("tc-2", "update_plan", `{}`))
	sess.Record(toolCompleteEvent("tc-2", true, "ignored"))
	sess.Record(client.StreamEvent{Type: client.EventIdle})

	events, outcome, err := svc.GetSessionMessages(ctx, id)
	require.NoError(t, err)
	require.Equal(t, ResumeNotNeeded, outcome)
	require.Len(t, events, 4)

	require.Equal(t, KindMessage, events[0].Kind)
	require.Equal(t, "hi", events[0].Content)

	require.Equal(t, KindToolStart, events[1].Kind)
	require.Equal(t, "Read file", events[1].DisplayName)
	require.Equal(t, InputFile, events[1].InputKind)
	require.Equal(t, "Read file main.go", events[1].InvocationMessage)

	require.Equal(t, KindToolComplete, events[2].Kind)
	require.True(t, events[2].Success)
	require.Equal(t, "Finished read file main.go", events[2].CompletionMessage)

	require.Equal(t, KindIdle, events[3].Kind)
	for _, ev := range events {
		require.Equal(t, id, ev.SessionID)
	}
}

func TestService_GetSessionMessages_ReplayDoesNotLeakIntoLiveState(t *testing.T) {
	svc, mc := newTestService(t)
	ctx := context.Background()

	id, err := svc.CreateSession(ctx, SessionConfig{SessionID: "s1"})
	require.NoError(t, err)
	sess, _ := mc.Session(id)

	ch, err := svc.Subscribe(ctx, id)
	require.NoError(t, err)

	// A live tool call is in flight while history is read.
	sess.Emit(toolStartEvent("tc-live", "bash", `{"command":"sleep 1"}`))
	require.Equal(t, KindToolStart, recvEvent(t, ch).Kind)

	_, _, err = svc.GetSessionMessages(ctx, id)
	require.NoError(t, err)

	// Replay happened over a throwaway table, so the live entry is still
	// active and its completion still pairs up.
	sess.Emit(toolCompleteEvent("tc-live", true, "done"))
	require.Equal(t, KindToolComplete, recvEvent(t, ch).Kind)
}

func TestService_GetSessionMessages_UnknownSessionReturnsEmpty(t *testing.T) {
	svc, _ := newTestService(t)

	events, outcome, err := svc.GetSessionMessages(context.Background(), "no-such-session")
	require.NoError(t, err)
	require.Equal(t, ResumeFailed, outcome)
	require.Empty(t, events)
}

func TestService_GetSessionMessages_DisposeThenReadUnknown(t *testing.T) {
	svc, mc := newTestService(t)
	ctx := context.Background()

	// Force the handle to live outside the client's resumable store so
	// disposal makes the id unknown to the external system.
	mc.NewSessionFunc = func(ctx context.Context, cfg client.SessionConfig) (client.Session, error) {
		return mock.NewSession(cfg.SessionID), nil
	}

	id, err := svc.CreateSession(ctx, SessionConfig{SessionID: "ephemeral"})
	require.NoError(t, err)
	svc.DisposeSession(ctx, id)

	events, outcome, err := svc.GetSessionMessages(ctx, id)
	require.NoError(t, err)
	require.Equal(t, ResumeFailed, outcome)
	require.Empty(t, events)
}

func TestService_GetSessionMessages_ResumesDisposedSession(t *testing.T) {
	svc, mc := newTestService(t)
	ctx := context.Background()

	id, err := svc.CreateSession(ctx, SessionConfig{SessionID: "s1"})
	require.NoError(t, err)
	sess, _ := mc.Session(id)
	sess.Record(client.StreamEvent{Type: client.EventMessage, Data: client.EventData{Content: "kept"}})

	svc.DisposeSession(ctx, id)

	events, outcome, err := svc.GetSessionMessages(ctx, id)
	require.NoError(t, err)
	require.Equal(t, Resumed, outcome)
	require.Len(t, events, 1)
	require.Equal(t, "kept", events[0].Content)
}

func TestService_GetSessionMessages_ClientStartFailure(t *testing.T) {
	svc, mc := newTestService(t)
	mc.StartErr = errors.New("unreachable")

	_, _, err := svc.GetSessionMessages(context.Background(), "s1")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrResumeFailed)
}

func TestService_GetSessionMessages_HistoryError(t *testing.T) {
	svc, mc := newTestService(t)
	ctx := context.Background()

	id, err := svc.CreateSession(ctx, SessionConfig{SessionID: "s1"})
	require.NoError(t, err)
	sess, _ := mc.Session(id)
	sess.HistoryErr = errors.New("history unavailable")

	_, _, err = svc.GetSessionMessages(ctx, id)
	require.Error(t, err)
}

func TestService_HistoryCacheInvalidatedOnSend(t *testing.T) {
	svc, mc := newTestService(t, WithHistoryCache(time.Minute))
	ctx := context.Background()

	id, err := svc.CreateSession(ctx, SessionConfig{SessionID: "s1"})
	require.NoError(t, err)
	sess, _ := mc.Session(id)
	sess.Record(client.StreamEvent{Type: client.EventMessage, Data: client.EventData{Content: "one"}})

	events, _, err := svc.GetSessionMessages(ctx, id)
	require.NoError(t, err)
	require.Len(t, events, 1)

	// Cached: a new history entry is not visible yet.
	sess.Record(client.StreamEvent{Type: client.EventMessage, Data: client.EventData{Content: "two"}})
	events, _, err = svc.GetSessionMessages(ctx, id)
	require.NoError(t, err)
	require.Len(t, events, 1)

	// Sending invalidates, so the next read sees fresh history.
	require.NoError(t, svc.SendMessage(ctx, id, "go on"))
	events, _, err = svc.GetSessionMessages(ctx, id)
	require.NoError(t, err)
	require.Len(t, events, 2)
}

func TestService_DisposeSession_PurgesToolCalls(t *testing.T) {
	svc, mc := newTestService(t)
	ctx := context.Background()

	id, err := svc.CreateSession(ctx, SessionConfig{SessionID: "s1"})
	require.NoError(t, err)
	sess, _ := mc.Session(id)

	ch, err := svc.Subscribe(ctx, id)
	require.NoError(t, err)
	sess.Emit(toolStartEvent("tc-1", "bash", `{"command":"ls"}`))
	require.Equal(t, KindToolStart, recvEvent(t, ch).Kind)

	svc.DisposeSession(ctx, id)
	require.True(t, sess.Closed())
	require.NotContains(t, svc.BoundSessions(), id)

	// Re-bind and complete the pre-dispose call: the entry was purged, so
	// the completion is a stray and drops.
	require.NoError(t, svc.SendMessage(ctx, id, "again"))
	ch2, err := svc.Subscribe(ctx, id)
	require.NoError(t, err)
	sess.Emit(toolCompleteEvent("tc-1", true, "late"))
	sess.Emit(client.StreamEvent{Type: client.EventIdle})
	require.Equal(t, KindIdle, recvEvent(t, ch2).Kind)
}

func TestService_DisposeSession_Idempotent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	id, err := svc.CreateSession(ctx, SessionConfig{SessionID: "s1"})
	require.NoError(t, err)

	svc.DisposeSession(ctx, id)
	svc.DisposeSession(ctx, id)
	svc.DisposeSession(ctx, "never-existed")
}

func TestService_Shutdown(t *testing.T) {
	svc, mc := newTestService(t)
	ctx := context.Background()

	s1, err := svc.CreateSession(ctx, SessionConfig{SessionID: "s1"})
	require.NoError(t, err)
	_, err = svc.CreateSession(ctx, SessionConfig{SessionID: "s2"})
	require.NoError(t, err)

	require.NoError(t, svc.Shutdown(ctx))
	require.Empty(t, svc.BoundSessions())
	require.False(t, mc.Started())

	sess1, _ := mc.Session(s1)
	require.True(t, sess1.Closed())

	// The client comes back lazily on next use.
	_, err = svc.CreateSession(ctx, SessionConfig{SessionID: "s3"})
	require.NoError(t, err)
	require.True(t, mc.Started())
	require.Equal(t, 2, mc.StartCount())
}

func TestService_SetAuthToken_RestartsWhenIdle(t *testing.T) {
	svc, mc := newTestService(t)
	ctx := context.Background()

	id, err := svc.CreateSession(ctx, SessionConfig{SessionID: "s1"})
	require.NoError(t, err)
	svc.DisposeSession(ctx, id)

	svc.SetAuthToken(ctx, "fresh-token")
	require.False(t, mc.Started())
	require.Equal(t, 1, mc.StopCount())

	_, err = svc.CreateSession(ctx, SessionConfig{SessionID: "s2"})
	require.NoError(t, err)
	require.Equal(t, "fresh-token", mc.AuthToken())
}

func TestService_SetAuthToken_DeferredWhileSessionsBound(t *testing.T) {
	svc, mc := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateSession(ctx, SessionConfig{SessionID: "s1"})
	require.NoError(t, err)

	svc.SetAuthToken(ctx, "fresh-token")
	require.True(t, mc.Started())
	require.Zero(t, mc.StopCount())
}

func TestService_SetAuthToken_UnchangedIsNoOp(t *testing.T) {
	svc, mc := newTestService(t)
	ctx := context.Background()

	svc.SetAuthToken(ctx, "token-a")
	id, err := svc.CreateSession(ctx, SessionConfig{SessionID: "s1"})
	require.NoError(t, err)
	svc.DisposeSession(ctx, id)

	svc.SetAuthToken(ctx, "token-a")
	require.True(t, mc.Started())
	require.Zero(t, mc.StopCount())
}

func TestService_Subscribe_NotBound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Subscribe(context.Background(), "nobody")
	require.ErrorIs(t, err, ErrSessionNotBound)
}

// TestToolCallPairing_Property drives random start/complete sequences
// through the translation layer and checks that completions pair with
// exactly one prior start.
func TestToolCallPairing_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		table := newToolCallTable()
		active := make(map[string]bool)

		numOps := rapid.IntRange(1, 60).Draw(rt, "numOps")
		for i := 0; i < numOps; i++ {
			id := rapid.StringMatching(`tc-[0-9]`).Draw(rt, "id")
			switch rapid.IntRange(0, 2).Draw(rt, "op") {
			case 0: // start (a restart over an unconsumed entry replaces it)
				ev := toolStartEvent(id, "bash", `{"command":"true"}`)
				if _, emitted := translateEvent(table, "s1", ev); !emitted {
					rt.Fatalf("tool start for %q produced no output", id)
				}
				active[id] = true
			case 1: // complete pairs with exactly one prior start
				ev := toolCompleteEvent(id, true, "ok")
				out, emitted := translateEvent(table, "s1", ev)
				if emitted != active[id] {
					rt.Fatalf("completion for %q emitted=%v, active=%v", id, emitted, active[id])
				}
				if emitted {
					if out.Kind != KindToolComplete || out.ToolCallID != id {
						rt.Fatalf("unexpected completion output: %+v", out)
					}
					delete(active, id)
				}
			case 2: // hidden start never creates an entry
				ev := toolStartEvent(id+"-hidden", "think", `{}`)
				if _, emitted := translateEvent(table, "s1", ev); emitted {
					rt.Fatalf("hidden tool start produced output")
				}
			}
		}
		if table.len() != len(active) {
			rt.Fatalf("table has %d entries, model has %d", table.len(), len(active))
		}
	})
}

func TestTranslateEvent_MessageKinds(t *testing.T) {
	table := newToolCallTable()

	delta, ok := translateEvent(table, "s1", client.StreamEvent{
		Type: client.EventMessageDelta,
		Data: client.EventData{MessageID: "m1", Content: "par"},
	})
	require.True(t, ok)
	require.Equal(t, KindDelta, delta.Kind)
	require.Equal(t, "par", delta.Content)

	msg, ok := translateEvent(table, "s1", client.StreamEvent{
		Type: client.EventMessage,
		Data: client.EventData{MessageID: "m1", Content: "partial done"},
	})
	require.True(t, ok)
	require.Equal(t, KindMessage, msg.Kind)
	require.Equal(t, "s1", msg.SessionID)
}

func TestTranslateEvent_ErrorPreferredOverOutput(t *testing.T) {
	table := newToolCallTable()

	_, ok := translateEvent(table, "s1", toolStartEvent("tc-1", "bash", `{"command":"false"}`))
	require.True(t, ok)

	complete, ok := translateEvent(table, "s1", client.StreamEvent{
		Type: client.EventToolComplete,
		Data: client.EventData{
			ToolCallID: "tc-1",
			Success:    false,
			Output:     "partial output",
			Error:      "exit status 1",
		},
	})
	require.True(t, ok)
	require.False(t, complete.Success)
	require.Equal(t, "exit status 1", complete.Output)
	require.Equal(t, "Command `false` failed", complete.CompletionMessage)
}

func ExampleService() {
	mc := mock.NewClient()
	client.Register("example", func() client.Client { return mc })

	svc := NewService("example")
	ctx := context.Background()

	id, _ := svc.CreateSession(ctx, SessionConfig{SessionID: "demo"})
	_ = svc.SendMessage(ctx, id, "hello")

	sess, _ := mc.Session(id)
	fmt.Println(sess.Prompts()[0])
	// Output: hello
}

package client

import (
	"encoding/json"
	"time"
)

// EventType identifies the kind of stream event delivered by the SDK.
// The schema is owned by the external collaborator and is append-only:
// consumers must ignore unknown types rather than error.
type EventType string

// Functional event types. These drive session and tool-call state.
const (
	// EventMessageDelta is a streaming chunk of assistant output.
	EventMessageDelta EventType = "message.delta"
	// EventMessage is a completed assistant message.
	EventMessage EventType = "message.completed"
	// EventToolStart announces a tool invocation.
	EventToolStart EventType = "tool.execution_start"
	// EventToolComplete reports a finished tool invocation.
	EventToolComplete EventType = "tool.execution_complete"
	// EventIdle signals the session has gone idle (turn complete).
	EventIdle EventType = "session.idle"
)

// Logging-only event types. These are forwarded to the log sink for
// observability and never affect session or tool-call state.
const (
	EventSessionStarted EventType = "session.started"
	EventSessionResumed EventType = "session.resumed"
	EventSessionError   EventType = "session.error"
	EventModelChanged   EventType = "model.changed"
	EventHandoff        EventType = "handoff"
	EventTruncation     EventType = "truncation"
	EventSnapshotRewind EventType = "snapshot.rewound"
	EventUsageInfo      EventType = "usage.info"
	EventCompaction     EventType = "compaction"
	EventReasoning      EventType = "reasoning"
	EventHookExecuted   EventType = "hook.executed"
	EventSubagent       EventType = "subagent"
)

// StreamEvent is one event on a session's stream, tagged with the session
// id the SDK attributes it to. Listeners must filter on SessionID: the
// shared bus can interleave events for many sessions.
type StreamEvent struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
	Timestamp time.Time `json:"-"`
	Data      EventData `json:"data"`
}

// EventData is the payload union. Which fields are populated depends on
// the event type; unknown fields are passthrough.
type EventData struct {
	// Message fields (message.delta, message.completed)
	MessageID string `json:"message_id,omitempty"`
	Content   string `json:"content,omitempty"`

	// Tool fields (tool.execution_start, tool.execution_complete)
	ToolCallID string          `json:"tool_call_id,omitempty"`
	ToolName   string          `json:"tool_name,omitempty"`
	Arguments  json.RawMessage `json:"arguments,omitempty"`
	Success    bool            `json:"success,omitempty"`
	Output     string          `json:"output,omitempty"`
	Error      string          `json:"error,omitempty"`

	// Lifecycle fields (logging-only events)
	Model  string `json:"model,omitempty"`
	Reason string `json:"reason,omitempty"`
	Tokens int    `json:"tokens,omitempty"`
}

// IsFunctional reports whether the event type participates in the
// functional output contract (as opposed to logging-only notices).
func (e EventType) IsFunctional() bool {
	switch e {
	case EventMessageDelta, EventMessage, EventToolStart, EventToolComplete, EventIdle:
		return true
	default:
		return false
	}
}

// IsLifecycleNotice reports whether the event type is a known
// logging-only lifecycle notice.
func (e EventType) IsLifecycleNotice() bool {
	switch e {
	case EventSessionStarted, EventSessionResumed, EventSessionError,
		EventModelChanged, EventHandoff, EventTruncation, EventSnapshotRewind,
		EventUsageInfo, EventCompaction, EventReasoning, EventHookExecuted,
		EventSubagent:
		return true
	default:
		return false
	}
}

// OutputText returns the completion payload for a tool-complete event,
// preferring the error message over the result output when present.
func (d *EventData) OutputText() string {
	if d.Error != "" {
		return d.Error
	}
	return d.Output
}

package service

// ProgressKind identifies the kind of progress event emitted to consumers.
type ProgressKind string

const (
	// KindDelta is a streaming chunk of assistant output.
	KindDelta ProgressKind = "delta"
	// KindMessage is a completed assistant message.
	KindMessage ProgressKind = "message"
	// KindToolStart announces a tracked tool invocation.
	KindToolStart ProgressKind = "tool_start"
	// KindToolComplete reports a tracked tool invocation finishing.
	KindToolComplete ProgressKind = "tool_complete"
	// KindIdle signals the session finished its turn.
	KindIdle ProgressKind = "idle"
)

// ProgressEvent is the output union the multiplexer emits to the consumer
// layer. Every event is tagged with the owning logical session id.
type ProgressEvent struct {
	Kind      ProgressKind `json:"kind"`
	SessionID string       `json:"session_id"`

	// Message fields (delta, message)
	MessageID string `json:"message_id,omitempty"`
	Content   string `json:"content,omitempty"`

	// Tool fields (tool_start, tool_complete)
	ToolCallID        string    `json:"tool_call_id,omitempty"`
	ToolName          string    `json:"tool_name,omitempty"`
	DisplayName       string    `json:"display_name,omitempty"`
	InvocationMessage string    `json:"invocation_message,omitempty"`
	CompletionMessage string    `json:"completion_message,omitempty"`
	InputKind         InputKind `json:"input_kind,omitempty"`
	Success           bool      `json:"success,omitempty"`
	Output            string    `json:"output,omitempty"`
}

package tracing

// Span attribute keys for session-core tracing.
const (
	// Session attributes
	AttrSessionID     = "session.id"
	AttrSessionModel  = "session.model"
	AttrClientType    = "client.type"
	AttrResumeOutcome = "session.resume_outcome"

	// Tool-call attributes
	AttrToolCallID  = "tool.call_id"
	AttrToolName    = "tool.name"
	AttrToolKind    = "tool.input_kind"
	AttrToolSuccess = "tool.success"

	// CDP attributes
	AttrTargetID      = "cdp.target_id"
	AttrPageSessionID = "cdp.page_session_id"

	// Error attributes
	AttrErrorMessage = "error.message"
	AttrErrorType    = "error.type"
)

// Span names for session operations.
const (
	SpanSessionCreate  = "session.create"
	SpanSessionSend    = "session.send"
	SpanSessionHistory = "session.history"
	SpanSessionDispose = "session.dispose"
	SpanClientStart    = "client.start"
)

// Event names for span events.
const (
	EventSessionResumed  = "session.resumed"
	EventToolCallStarted = "tool_call.started"
	EventToolCallEnded   = "tool_call.ended"
	EventClientRestarted = "client.restarted"
)

package service

import (
	"encoding/json"
	"fmt"
	"strings"
)

// InputKind classifies a tool invocation for display purposes.
type InputKind string

const (
	// InputTerminal marks shell/terminal commands.
	InputTerminal InputKind = "terminal"
	// InputFile marks file read/write/edit operations.
	InputFile InputKind = "file"
	// InputGeneric marks everything else.
	InputGeneric InputKind = "generic"
)

// hiddenTools are internal tool names excluded from all tracking and
// output. A completion for a hidden tool's call id is dropped too, since
// no active entry is ever created.
var hiddenTools = map[string]struct{}{
	"think":              {},
	"update_plan":        {},
	"report_environment": {},
}

// isHiddenTool reports whether a tool name is on the hidden list.
func isHiddenTool(name string) bool {
	_, ok := hiddenTools[strings.ToLower(name)]
	return ok
}

// activeToolCall is the ephemeral record kept between a tool-start and its
// matching tool-complete, keyed by (sessionID, toolCallID).
type activeToolCall struct {
	sessionID   string
	toolCallID  string
	toolName    string
	displayName string
	inputKind   InputKind
	// parameters is nil when the raw arguments failed to parse.
	parameters map[string]any
}

// toolCallKey identifies an active tool call.
type toolCallKey struct {
	sessionID  string
	toolCallID string
}

// toolCallTable tracks active tool calls. The service holds one for the
// live path; history replay builds a throwaway one per read so replayed
// pairing never leaks into live state. Not goroutine-safe; callers hold
// the service lock on the live path.
type toolCallTable struct {
	calls map[toolCallKey]*activeToolCall
}

func newToolCallTable() *toolCallTable {
	return &toolCallTable{calls: make(map[toolCallKey]*activeToolCall)}
}

// track stores an active call.
func (t *toolCallTable) track(call *activeToolCall) {
	t.calls[toolCallKey{call.sessionID, call.toolCallID}] = call
}

// take removes and returns the call for (sessionID, toolCallID).
// Single-consumption: a second take for the same key returns false.
func (t *toolCallTable) take(sessionID, toolCallID string) (*activeToolCall, bool) {
	key := toolCallKey{sessionID, toolCallID}
	call, ok := t.calls[key]
	if ok {
		delete(t.calls, key)
	}
	return call, ok
}

// purgeSession drops every active call belonging to a session.
func (t *toolCallTable) purgeSession(sessionID string) {
	for key := range t.calls {
		if key.sessionID == sessionID {
			delete(t.calls, key)
		}
	}
}

// len returns the number of active calls.
func (t *toolCallTable) len() int {
	return len(t.calls)
}

// newActiveToolCall builds the tracked record for a tool-start event.
// Argument parsing is best-effort: malformed JSON leaves parameters nil
// rather than failing the event.
func newActiveToolCall(sessionID, toolCallID, toolName string, rawArgs json.RawMessage) *activeToolCall {
	var params map[string]any
	if len(rawArgs) > 0 {
		if err := json.Unmarshal(rawArgs, &params); err != nil {
			params = nil
		}
	}
	return &activeToolCall{
		sessionID:   sessionID,
		toolCallID:  toolCallID,
		toolName:    toolName,
		displayName: toolDisplayName(toolName),
		inputKind:   classifyToolInput(toolName),
		parameters:  params,
	}
}

// classifyToolInput maps a tool name onto a display classification.
func classifyToolInput(toolName string) InputKind {
	switch strings.ToLower(toolName) {
	case "bash", "shell", "terminal", "run_command", "execute_command":
		return InputTerminal
	case "read_file", "write_file", "edit_file", "create_file", "view":
		return InputFile
	default:
		return InputGeneric
	}
}

// toolDisplayName derives a human-readable name from a raw tool name.
// Known tools get a curated name; everything else is title-cased from
// snake_case.
func toolDisplayName(toolName string) string {
	switch strings.ToLower(toolName) {
	case "bash", "shell", "terminal":
		return "Terminal"
	case "read_file", "view":
		return "Read file"
	case "write_file", "create_file":
		return "Write file"
	case "edit_file":
		return "Edit file"
	case "fetch", "web_fetch":
		return "Fetch URL"
	case "search", "grep", "code_search":
		return "Search"
	}

	words := strings.Split(strings.ToLower(toolName), "_")
	for i, w := range words {
		if i == 0 && w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// stringParam returns a string-typed parameter, or empty when absent or
// the arguments never parsed.
func (c *activeToolCall) stringParam(key string) string {
	if c.parameters == nil {
		return ""
	}
	if v, ok := c.parameters[key].(string); ok {
		return v
	}
	return ""
}

// invocationMessage renders the present-tense description emitted with a
// tool-start event.
func (c *activeToolCall) invocationMessage() string {
	switch c.inputKind {
	case InputTerminal:
		if desc := c.stringParam("description"); desc != "" {
			return desc
		}
		if cmd := c.stringParam("command"); cmd != "" {
			return fmt.Sprintf("Running `%s`", truncate(cmd, 80))
		}
		return "Running a terminal command"
	case InputFile:
		if path := c.stringParam("file_path"); path != "" {
			return fmt.Sprintf("%s %s", c.displayName, baseName(path))
		}
	}
	return fmt.Sprintf("Using %s", c.displayName)
}

// completionMessage renders the past-tense description emitted with a
// tool-complete event.
func (c *activeToolCall) completionMessage(success bool) string {
	if !success {
		switch c.inputKind {
		case InputTerminal:
			if cmd := c.stringParam("command"); cmd != "" {
				return fmt.Sprintf("Command `%s` failed", truncate(cmd, 80))
			}
			return "Terminal command failed"
		default:
			return fmt.Sprintf("%s failed", c.displayName)
		}
	}

	switch c.inputKind {
	case InputTerminal:
		if cmd := c.stringParam("command"); cmd != "" {
			return fmt.Sprintf("Ran `%s`", truncate(cmd, 80))
		}
		return "Ran a terminal command"
	case InputFile:
		if path := c.stringParam("file_path"); path != "" {
			return fmt.Sprintf("Finished %s %s", strings.ToLower(c.displayName), baseName(path))
		}
	}
	return fmt.Sprintf("Finished %s", c.displayName)
}

// truncate limits a string to max runes with an ellipsis.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

// baseName returns the final path segment for brevity in messages.
func baseName(path string) string {
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		return path[idx+1:]
	}
	return path
}

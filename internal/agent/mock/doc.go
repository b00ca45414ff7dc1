// Package mock provides in-memory implementations of the agent client
// interfaces for testing and the playground command.
//
// The mock Client keeps every session it creates in a resumable store, so
// LoadSession behaves like the external system's session lookup. Tests
// drive conversations by calling Emit on a mock Session; emitted events
// are recorded in the session history, which keeps the live-stream path
// and the history-replay path consistent.
package mock

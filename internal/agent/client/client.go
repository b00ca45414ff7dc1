// Package client defines the contract with the external agent SDK: a
// shared streaming client that owns many conversational sessions. The
// multiplexer in internal/agent/service consumes these interfaces; concrete
// transports register themselves through the factory registry.
package client

import (
	"context"
	"errors"
	"fmt"
)

// ClientType identifies a registered client provider.
type ClientType string

const (
	// ClientMock is the in-memory client used by tests and the playground.
	ClientMock ClientType = "mock"
)

// ErrSessionNotFound is returned by LoadSession when the external system
// has no session with the requested id.
var ErrSessionNotFound = errors.New("session not found")

// ErrUnknownClientType is returned when an unknown client type is requested.
var ErrUnknownClientType = errors.New("unknown client type")

// Client is the shared external streaming client. One instance serves all
// logical sessions; Start must succeed before sessions can be created.
type Client interface {
	// Type returns the client type identifier.
	Type() ClientType

	// Start connects/authenticates the client. Calling Start on a started
	// client is a no-op.
	Start(ctx context.Context) error

	// Stop tears the client down. Sessions obtained from it stop
	// delivering events.
	Stop(ctx context.Context) error

	// SetAuthToken installs the credential used by Start.
	SetAuthToken(token string)

	// NewSession creates a fresh external session.
	NewSession(ctx context.Context, cfg SessionConfig) (Session, error)

	// LoadSession looks up an existing external session by id for resume.
	// Returns ErrSessionNotFound when no such session exists.
	LoadSession(ctx context.Context, id string) (Session, error)
}

// Session is one live external conversation handle.
type Session interface {
	// ID returns the external system's own session id.
	ID() string

	// Send forwards a user prompt to the session.
	Send(ctx context.Context, prompt string) error

	// Events returns the session's event stream. The channel is closed
	// when the session is closed or the client stops.
	Events() <-chan StreamEvent

	// History returns the full recorded event history for the session.
	History(ctx context.Context) ([]StreamEvent, error)

	// Close releases the handle. The external session may remain
	// resumable afterwards; Close only drops the live binding.
	Close() error
}

// SessionConfig holds provider-agnostic session creation options.
type SessionConfig struct {
	// Model selects the model for the session. Empty means provider default.
	Model string

	// SessionID requests a specific external id, where the provider
	// supports it. Providers may ignore it and assign their own.
	SessionID string

	// WorkDir is the working directory context for the session.
	WorkDir string
}

// clientRegistry holds registered client factories.
var clientRegistry = make(map[ClientType]func() Client)

// Register adds a client factory for the given type. Called from init()
// functions of provider packages.
func Register(clientType ClientType, factory func() Client) {
	clientRegistry[clientType] = factory
}

// New creates a Client for the given type.
// Returns ErrUnknownClientType if the type is not registered.
func New(clientType ClientType) (Client, error) {
	factory, ok := clientRegistry[clientType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownClientType, clientType)
	}
	return factory(), nil
}

// Registered returns all registered client types.
func Registered() []ClientType {
	types := make([]ClientType, 0, len(clientRegistry))
	for t := range clientRegistry {
		types = append(types, t)
	}
	return types
}

// IsRegistered reports whether the given client type has been registered.
func IsRegistered(clientType ClientType) bool {
	_, ok := clientRegistry[clientType]
	return ok
}

package mock

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/devpane/workbench/internal/agent/client"
)

// Client is a mock implementation of client.Client for testing.
// Sessions it creates are kept in an in-memory store so they can be
// looked up again through LoadSession, mimicking the external system's
// resumable session space.
type Client struct {
	// NewSessionFunc overrides session creation when set.
	NewSessionFunc func(ctx context.Context, cfg client.SessionConfig) (client.Session, error)

	// StartErr is returned by Start when set, simulating an
	// unreachable/unauthenticated transport.
	StartErr error

	mu          sync.Mutex
	started     bool
	authToken   string
	store       map[string]*Session
	startCount  int
	stopCount   int
	createCount int
	resumeCount int
}

// NewClient creates a mock client with an empty session store.
func NewClient() *Client {
	return &Client{store: make(map[string]*Session)}
}

// Type returns the client type identifier.
func (c *Client) Type() client.ClientType {
	return client.ClientMock
}

// Start marks the client started. Returns StartErr when configured.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startCount++
	if c.StartErr != nil {
		return c.StartErr
	}
	c.started = true
	return nil
}

// Stop marks the client stopped.
func (c *Client) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopCount++
	c.started = false
	return nil
}

// SetAuthToken records the credential.
func (c *Client) SetAuthToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authToken = token
}

// NewSession creates a session and registers it in the resumable store.
func (c *Client) NewSession(ctx context.Context, cfg client.SessionConfig) (client.Session, error) {
	c.mu.Lock()
	c.createCount++
	c.mu.Unlock()

	if c.NewSessionFunc != nil {
		return c.NewSessionFunc(ctx, cfg)
	}

	id := cfg.SessionID
	if id == "" {
		id = uuid.NewString()
	}
	sess := NewSession(id)

	c.mu.Lock()
	c.store[id] = sess
	c.mu.Unlock()
	return sess, nil
}

// LoadSession looks up a resumable session by id.
func (c *Client) LoadSession(ctx context.Context, id string) (client.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resumeCount++

	sess, ok := c.store[id]
	if !ok {
		return nil, client.ErrSessionNotFound
	}
	sess.reopen()
	return sess, nil
}

// Session returns the stored session for a lookup id, if any.
func (c *Client) Session(id string) (*Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sess, ok := c.store[id]
	return sess, ok
}

// Seed registers a session under a lookup id without going through
// NewSession. The session's own id may differ from the lookup id, which
// exercises resume-under-caller-chosen-id.
func (c *Client) Seed(lookupID string, sess *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[lookupID] = sess
}

// Started reports whether the client is currently started.
func (c *Client) Started() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started
}

// AuthToken returns the recorded credential.
func (c *Client) AuthToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authToken
}

// StartCount returns how many times Start was called.
func (c *Client) StartCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.startCount
}

// StopCount returns how many times Stop was called.
func (c *Client) StopCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopCount
}

// CreateCount returns how many times NewSession was called.
func (c *Client) CreateCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.createCount
}

// ResumeCount returns how many times LoadSession was called.
func (c *Client) ResumeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resumeCount
}

// init registers the mock client with the client registry.
func init() {
	client.Register(client.ClientMock, func() client.Client {
		return NewClient()
	})
}

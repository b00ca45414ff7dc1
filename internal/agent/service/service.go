// Package service multiplexes many logical conversation sessions over one
// shared external agent client. It owns the session registry, the active
// tool-call table, and the per-session progress streams consumers subscribe
// to. The external SDK surface it drives is defined in internal/agent/client.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/devpane/workbench/internal/agent/client"
	"github.com/devpane/workbench/internal/cachemanager"
	"github.com/devpane/workbench/internal/log"
	"github.com/devpane/workbench/internal/pubsub"
	"github.com/devpane/workbench/internal/store"
	"github.com/devpane/workbench/internal/tracing"
)

// ErrResumeFailed is returned by SendMessage when the external system has no
// session for the requested id.
var ErrResumeFailed = errors.New("session resume failed")

// ErrSessionNotBound is returned by Subscribe for an id with no live binding.
var ErrSessionNotBound = errors.New("session not bound")

// ResumeOutcome reports which path a history read took, so callers and tests
// can tell a clean read from a degraded one.
type ResumeOutcome string

const (
	// ResumeNotNeeded means the session was already bound.
	ResumeNotNeeded ResumeOutcome = "not_needed"
	// Resumed means an unbound session was re-bound from the external system.
	Resumed ResumeOutcome = "resumed"
	// ResumeFailed means the external system had no such session; history
	// reads degrade to an empty list on this path.
	ResumeFailed ResumeOutcome = "resume_failed"
)

const defaultHistoryTTL = 30 * time.Second

// SessionConfig holds options for CreateSession.
type SessionConfig struct {
	// Model selects the model for the session. Empty means provider default.
	Model string

	// SessionID is the caller-chosen logical id. Empty means generate one.
	SessionID string
}

// boundSession is one logical session with a live external handle. Each
// binding carries its own broker so one session's consumers never see
// another session's events, plus an explicit cleanup list invoked in full
// on disposal.
type boundSession struct {
	logicalID  string
	externalID string
	model      string
	handle     client.Session
	broker     *pubsub.Broker[ProgressEvent]
	cleanup    []func()
}

// Service multiplexes logical sessions over a single lazily-started external
// client. Methods are safe for concurrent use.
type Service struct {
	mu         sync.Mutex
	clientType client.ClientType
	cl         client.Client
	authToken  string
	workDir    string
	sessions   map[string]*boundSession
	toolCalls  *toolCallTable

	index   *store.Index
	tracer  trace.Tracer
	history *cachemanager.ReadThroughCache[string, []ProgressEvent, *boundSession]

	cacheHistory bool
	historyTTL   time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithIndex attaches a persistent session index. Bindings are recorded
// best-effort; index failures are logged, never surfaced.
func WithIndex(idx *store.Index) Option {
	return func(s *Service) { s.index = idx }
}

// WithTracer sets the tracer used for operation spans.
func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) { s.tracer = tr }
}

// WithWorkDir sets the working directory passed to new external sessions.
func WithWorkDir(dir string) Option {
	return func(s *Service) { s.workDir = dir }
}

// WithHistoryCache memoizes history replay results for the given TTL so
// repeated reads don't re-hit the external SDK. Zero means the default TTL.
func WithHistoryCache(ttl time.Duration) Option {
	return func(s *Service) {
		s.cacheHistory = true
		if ttl > 0 {
			s.historyTTL = ttl
		}
	}
}

// NewService creates a multiplexer for the given client type. The client
// itself is created and started lazily on first use.
func NewService(clientType client.ClientType, opts ...Option) *Service {
	s := &Service{
		clientType: clientType,
		sessions:   make(map[string]*boundSession),
		toolCalls:  newToolCallTable(),
		tracer:     noop.NewTracerProvider().Tracer("workbench"),
		historyTTL: defaultHistoryTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.history = cachemanager.NewReadThroughCache[string, []ProgressEvent, *boundSession](
		cachemanager.NewInMemoryCacheManager[string, []ProgressEvent](
			"session-history", cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval),
		s.replayHistory,
		!s.cacheHistory,
	)
	return s
}

// ensureClient lazily creates and starts the shared client. On start failure
// the client stays unset so the next call retries from scratch.
// Caller holds s.mu.
func (s *Service) ensureClient(ctx context.Context) (client.Client, error) {
	if s.cl != nil {
		return s.cl, nil
	}
	cl, err := client.New(s.clientType)
	if err != nil {
		return nil, err
	}
	cl.SetAuthToken(s.authToken)
	if err := cl.Start(ctx); err != nil {
		return nil, fmt.Errorf("start %s client: %w", s.clientType, err)
	}
	s.cl = cl
	log.Info(log.CatAgent, "client started", "type", s.clientType)
	return cl, nil
}

// CreateSession creates a fresh external session and binds it under a
// logical id. SessionID in cfg picks the id; empty generates one. Returns
// the logical id to use for all subsequent calls.
func (s *Service) CreateSession(ctx context.Context, cfg SessionConfig) (string, error) {
	ctx, span := s.tracer.Start(ctx, tracing.SpanSessionCreate, trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	logicalID := cfg.SessionID
	if logicalID == "" {
		logicalID = uuid.NewString()
	}
	span.SetAttributes(
		attribute.String(tracing.AttrSessionID, logicalID),
		attribute.String(tracing.AttrSessionModel, cfg.Model),
	)

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.sessions[logicalID]; ok {
		// Already bound; creating again under the same id is a no-op.
		span.SetStatus(codes.Ok, "")
		return existing.logicalID, nil
	}

	cl, err := s.ensureClient(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	handle, err := cl.NewSession(ctx, client.SessionConfig{
		Model:     cfg.Model,
		SessionID: logicalID,
		WorkDir:   s.workDir,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("create session: %w", err)
	}

	s.bind(logicalID, cfg.Model, handle)
	s.recordBinding(ctx, logicalID, handle.ID(), cfg.Model)
	span.SetStatus(codes.Ok, "")
	return logicalID, nil
}

// SendMessage forwards a prompt to a session, resuming the binding first
// when the id is not currently tracked. Resume failure is a hard error here.
func (s *Service) SendMessage(ctx context.Context, sessionID, prompt string) error {
	ctx, span := s.tracer.Start(ctx, tracing.SpanSessionSend, trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()
	span.SetAttributes(attribute.String(tracing.AttrSessionID, sessionID))

	s.mu.Lock()
	bound, ok := s.sessions[sessionID]
	if !ok {
		var err error
		bound, err = s.resume(ctx, sessionID)
		if err != nil {
			s.mu.Unlock()
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
	}
	s.mu.Unlock()

	if err := bound.handle.Send(ctx, prompt); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("send message: %w", err)
	}

	s.touchBinding(ctx, sessionID)
	if err := s.history.Invalidate(ctx, sessionID); err != nil {
		log.ErrorErr(log.CatCache, "invalidate history cache", err, "session_id", sessionID)
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

// GetSessionMessages replays the session's full external history into the
// output union, using the same tool-call pairing rules as the live path but
// over a throwaway table. Unbound sessions are resumed best-effort: a
// missing external session degrades to an empty list with ResumeFailed
// rather than an error. Client-start failures still propagate.
func (s *Service) GetSessionMessages(ctx context.Context, sessionID string) ([]ProgressEvent, ResumeOutcome, error) {
	ctx, span := s.tracer.Start(ctx, tracing.SpanSessionHistory, trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()
	span.SetAttributes(attribute.String(tracing.AttrSessionID, sessionID))

	outcome := ResumeNotNeeded
	s.mu.Lock()
	bound, ok := s.sessions[sessionID]
	if !ok {
		var err error
		bound, err = s.resume(ctx, sessionID)
		if err != nil {
			s.mu.Unlock()
			if errors.Is(err, ErrResumeFailed) {
				log.Debug(log.CatSession, "history read for unknown session", "session_id", sessionID)
				span.SetStatus(codes.Ok, "")
				return []ProgressEvent{}, ResumeFailed, nil
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, ResumeFailed, err
		}
		outcome = Resumed
	}
	s.mu.Unlock()

	events, err := s.history.Get(ctx, sessionID, bound, s.historyTTL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, outcome, err
	}
	span.SetAttributes(
		attribute.Int("session.history_events", len(events)),
		attribute.String(tracing.AttrResumeOutcome, string(outcome)),
	)
	span.SetStatus(codes.Ok, "")
	return events, outcome, nil
}

// replayHistory reads the external history and maps it through the tool-call
// pairing logic. The table is fresh per call so replayed pairing never leaks
// into live tracking.
func (s *Service) replayHistory(ctx context.Context, bound *boundSession) ([]ProgressEvent, error) {
	history, err := bound.handle.History(ctx)
	if err != nil {
		return nil, fmt.Errorf("read session history: %w", err)
	}

	table := newToolCallTable()
	out := make([]ProgressEvent, 0, len(history))
	for _, ev := range history {
		if ev.SessionID != bound.handle.ID() {
			continue
		}
		if progress, ok := translateEvent(table, bound.logicalID, ev); ok {
			out = append(out, progress)
		}
	}
	return out, nil
}

// DisposeSession releases a session's binding and purges its tool-call
// entries. Purging happens whether or not a binding existed; disposing an
// unknown id is a no-op.
func (s *Service) DisposeSession(ctx context.Context, sessionID string) {
	s.mu.Lock()
	bound := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.toolCalls.purgeSession(sessionID)
	s.mu.Unlock()

	if bound != nil {
		for _, fn := range bound.cleanup {
			fn()
		}
		log.Info(log.CatSession, "session disposed", "session_id", sessionID)
	}
	if err := s.history.Invalidate(ctx, sessionID); err != nil {
		log.ErrorErr(log.CatCache, "invalidate history cache", err, "session_id", sessionID)
	}
}

// Shutdown disposes every tracked session and stops the shared client. The
// client is recreated lazily on next use.
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		s.DisposeSession(ctx, id)
	}

	s.mu.Lock()
	cl := s.cl
	s.cl = nil
	s.mu.Unlock()

	if cl == nil {
		return nil
	}
	if err := cl.Stop(ctx); err != nil {
		return fmt.Errorf("stop client: %w", err)
	}
	log.Info(log.CatAgent, "client stopped")
	return nil
}

// SetAuthToken records the credential. The shared client is only restarted
// when the token actually changed and zero sessions are bound; restarting
// under live sessions would orphan them, so the change waits for the next
// natural restart instead.
func (s *Service) SetAuthToken(ctx context.Context, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := token != s.authToken
	s.authToken = token
	if !changed || s.cl == nil || len(s.sessions) > 0 {
		if changed && len(s.sessions) > 0 {
			log.Info(log.CatAgent, "auth token changed, restart deferred", "bound_sessions", len(s.sessions))
		}
		return
	}

	if err := s.cl.Stop(ctx); err != nil {
		log.ErrorErr(log.CatAgent, "stop client for credential change", err)
	}
	s.cl = nil
	log.Info(log.CatAgent, "client stopped for credential change")
}

// Subscribe returns the progress stream for a bound session. The
// subscription closes when ctx is cancelled or the session is disposed.
func (s *Service) Subscribe(ctx context.Context, sessionID string) (<-chan pubsub.Event[ProgressEvent], error) {
	s.mu.Lock()
	bound, ok := s.sessions[sessionID]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotBound, sessionID)
	}
	return bound.broker.Subscribe(ctx), nil
}

// BoundSessions returns the ids of every currently bound session.
func (s *Service) BoundSessions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	return ids
}

// resume re-binds an unbound logical id from the external system. The
// binding always lives under the caller's id, even when the external
// system's own id differs. Caller holds s.mu.
func (s *Service) resume(ctx context.Context, logicalID string) (*boundSession, error) {
	cl, err := s.ensureClient(ctx)
	if err != nil {
		return nil, err
	}

	handle, err := cl.LoadSession(ctx, logicalID)
	if err != nil {
		if errors.Is(err, client.ErrSessionNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrResumeFailed, logicalID)
		}
		return nil, fmt.Errorf("load session %s: %w", logicalID, err)
	}

	bound := s.bind(logicalID, "", handle)
	s.touchBinding(ctx, logicalID)
	log.Info(log.CatSession, "session resumed", "session_id", logicalID, "external_id", handle.ID())
	return bound, nil
}

// bind registers a handle under a logical id and starts its event listener.
// Caller holds s.mu.
func (s *Service) bind(logicalID, model string, handle client.Session) *boundSession {
	bound := &boundSession{
		logicalID:  logicalID,
		externalID: handle.ID(),
		model:      model,
		handle:     handle,
		broker:     pubsub.NewBroker[ProgressEvent](),
	}
	bound.cleanup = append(bound.cleanup,
		func() { _ = handle.Close() },
		func() { bound.broker.Close() },
	)
	s.sessions[logicalID] = bound

	go s.listen(bound)

	log.Debug(log.CatSession, "session bound", "session_id", logicalID, "external_id", handle.ID())
	return bound
}

// listen drains a bound session's event stream until the handle closes it.
// Events tagged for a different external session are dropped; everything
// emitted downstream carries the logical id.
func (s *Service) listen(bound *boundSession) {
	for ev := range bound.handle.Events() {
		if ev.SessionID != bound.handle.ID() {
			continue
		}
		s.dispatch(bound, ev)
	}
}

// dispatch routes one live inbound event. Functional events go through the
// shared tool-call table and out on the session's broker; lifecycle notices
// go to the log sink only; unknown types are ignored.
func (s *Service) dispatch(bound *boundSession, ev client.StreamEvent) {
	if ev.Type.IsLifecycleNotice() {
		logLifecycleNotice(bound.logicalID, ev)
		return
	}
	if !ev.Type.IsFunctional() {
		return
	}

	s.mu.Lock()
	progress, ok := translateEvent(s.toolCalls, bound.logicalID, ev)
	s.mu.Unlock()
	if !ok {
		return
	}
	bound.broker.Publish(pubsub.SessionProgress, progress)
}

// translateEvent maps one inbound event into the output union, applying the
// tool-call lifecycle rules against the given table. Returns false when the
// event produces no output (hidden tool, stray complete, non-functional or
// unknown type).
func translateEvent(table *toolCallTable, logicalID string, ev client.StreamEvent) (ProgressEvent, bool) {
	switch ev.Type {
	case client.EventMessageDelta:
		return ProgressEvent{
			Kind:      KindDelta,
			SessionID: logicalID,
			MessageID: ev.Data.MessageID,
			Content:   ev.Data.Content,
		}, true

	case client.EventMessage:
		return ProgressEvent{
			Kind:      KindMessage,
			SessionID: logicalID,
			MessageID: ev.Data.MessageID,
			Content:   ev.Data.Content,
		}, true

	case client.EventToolStart:
		if isHiddenTool(ev.Data.ToolName) {
			log.Debug(log.CatSession, "hidden tool suppressed", "session_id", logicalID, "tool", ev.Data.ToolName)
			return ProgressEvent{}, false
		}
		call := newActiveToolCall(logicalID, ev.Data.ToolCallID, ev.Data.ToolName, ev.Data.Arguments)
		table.track(call)
		return ProgressEvent{
			Kind:              KindToolStart,
			SessionID:         logicalID,
			ToolCallID:        call.toolCallID,
			ToolName:          call.toolName,
			DisplayName:       call.displayName,
			InvocationMessage: call.invocationMessage(),
			InputKind:         call.inputKind,
		}, true

	case client.EventToolComplete:
		call, ok := table.take(logicalID, ev.Data.ToolCallID)
		if !ok {
			// Hidden, stray, or already consumed. Drop.
			log.Debug(log.CatSession, "unmatched tool completion dropped", "session_id", logicalID, "tool_call_id", ev.Data.ToolCallID)
			return ProgressEvent{}, false
		}
		return ProgressEvent{
			Kind:              KindToolComplete,
			SessionID:         logicalID,
			ToolCallID:        call.toolCallID,
			ToolName:          call.toolName,
			DisplayName:       call.displayName,
			CompletionMessage: call.completionMessage(ev.Data.Success),
			InputKind:         call.inputKind,
			Success:           ev.Data.Success,
			Output:            ev.Data.OutputText(),
		}, true

	case client.EventIdle:
		return ProgressEvent{Kind: KindIdle, SessionID: logicalID}, true
	}

	return ProgressEvent{}, false
}

// logLifecycleNotice forwards a logging-only event to the log sink. These
// never touch session or tool-call state.
func logLifecycleNotice(logicalID string, ev client.StreamEvent) {
	fields := []any{"session_id", logicalID, "event", string(ev.Type)}
	if ev.Data.Model != "" {
		fields = append(fields, "model", ev.Data.Model)
	}
	if ev.Data.Reason != "" {
		fields = append(fields, "reason", ev.Data.Reason)
	}
	if ev.Data.Tokens > 0 {
		fields = append(fields, "tokens", ev.Data.Tokens)
	}
	if ev.Type == client.EventSessionError {
		log.Error(log.CatSession, "session error notice", append(fields, "error", ev.Data.Error)...)
		return
	}
	log.Debug(log.CatSession, "session lifecycle notice", fields...)
}

// recordBinding persists a logical/external id pair best-effort.
func (s *Service) recordBinding(ctx context.Context, logicalID, externalID, model string) {
	if s.index == nil {
		return
	}
	if err := s.index.RecordBinding(ctx, logicalID, externalID, model); err != nil {
		log.ErrorErr(log.CatStore, "record session binding", err, "session_id", logicalID)
	}
}

// touchBinding bumps the last-used timestamp best-effort.
func (s *Service) touchBinding(ctx context.Context, logicalID string) {
	if s.index == nil {
		return
	}
	if err := s.index.Touch(ctx, logicalID); err != nil && !errors.Is(err, store.ErrNotFound) {
		log.ErrorErr(log.CatStore, "touch session binding", err, "session_id", logicalID)
	}
}

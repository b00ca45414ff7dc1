// Package cdp tracks Chrome DevTools Protocol attachment state for a
// debuggable browser view. One Session exists per client connection; it
// mirrors the attach/detach/discovery bookkeeping a CDP front-end must
// maintain against the transport's target events.
package cdp

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/devpane/workbench/internal/log"
)

// pageSessionPrefix derives a page session id from a target id. The
// derivation is reversible so a page session id can be recognized as
// belonging to its target later.
const pageSessionPrefix = "page-session-"

// PageSessionForTarget returns the page session id derived from a target id.
func PageSessionForTarget(targetID string) string {
	return pageSessionPrefix + targetID
}

// TargetForPageSession reverses PageSessionForTarget. Returns false if the
// id was not derived from a target.
func TargetForPageSession(pageSessionID string) (string, bool) {
	if !strings.HasPrefix(pageSessionID, pageSessionPrefix) {
		return "", false
	}
	return strings.TrimPrefix(pageSessionID, pageSessionPrefix), true
}

// Session is the per-connection attachment tracker. All operations are
// total: no method errors, detaching an untracked target is a no-op.
// Mutations are serialized internally so transport callbacks may arrive
// from any goroutine.
type Session struct {
	mu sync.RWMutex

	browserSessionID string // immutable, assigned at construction
	pageSessionID    string
	browserAttached  bool
	pageAttached     bool

	autoAttach             bool
	waitForDebuggerOnStart bool
	autoAttachFlatten      bool

	targetID        string
	discoverTargets bool

	attachedTargets   map[string]struct{}
	discoveredTargets map[string]TargetInfo
}

// NewSession creates a tracker with a fresh browser session id.
func NewSession() *Session {
	s := &Session{
		browserSessionID:  uuid.NewString(),
		attachedTargets:   make(map[string]struct{}),
		discoveredTargets: make(map[string]TargetInfo),
	}
	log.Debug(log.CatCDP, "session created", "browser_session_id", s.browserSessionID)
	return s
}

// BrowserSessionID returns the immutable per-connection session id.
func (s *Session) BrowserSessionID() string {
	return s.browserSessionID
}

// AttachBrowser marks the browser target attached. Idempotent.
func (s *Session) AttachBrowser() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.browserAttached = true
	log.Debug(log.CatCDP, "browser attached", "browser_session_id", s.browserSessionID)
}

// DetachBrowser marks the browser target detached. Idempotent.
func (s *Session) DetachBrowser() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.browserAttached = false
	log.Debug(log.CatCDP, "browser detached", "browser_session_id", s.browserSessionID)
}

// BrowserAttached reports whether the browser target is attached.
func (s *Session) BrowserAttached() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.browserAttached
}

// AttachPage attaches a page target and makes it the current page session.
// The target is added to the attached set; attaching a second target moves
// the page pointer without detaching the first (multi-target tracking is
// additive). Returns the derived page session id.
func (s *Session) AttachPage(targetID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pageSessionID = PageSessionForTarget(targetID)
	s.pageAttached = true
	s.attachedTargets[targetID] = struct{}{}

	log.Debug(log.CatCDP, "page attached",
		"target_id", targetID,
		"page_session_id", s.pageSessionID,
		"attached_count", len(s.attachedTargets))
	return s.pageSessionID
}

// DetachPage removes a target from the attached set. No-op for untracked
// targets. The page session pointer is cleared only when the detached
// target is the current page target.
func (s *Session) DetachPage(targetID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.attachedTargets[targetID]; !ok {
		log.Debug(log.CatCDP, "detach ignored for untracked target", "target_id", targetID)
		return
	}
	delete(s.attachedTargets, targetID)

	if s.pageSessionID == PageSessionForTarget(targetID) {
		s.pageSessionID = ""
		s.pageAttached = false
	}

	log.Debug(log.CatCDP, "page detached",
		"target_id", targetID,
		"page_attached", s.pageAttached,
		"attached_count", len(s.attachedTargets))
}

// PageAttached reports whether a page target is currently attached.
func (s *Session) PageAttached() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pageAttached
}

// PageSessionID returns the current page session id, or empty when no page
// is attached.
func (s *Session) PageSessionID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pageSessionID
}

// IsAttachedToTarget reports whether the target is in the attached set.
func (s *Session) IsAttachedToTarget(targetID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.attachedTargets[targetID]
	return ok
}

// AttachedTargetIDs returns a snapshot of the attached target set.
// Order is not guaranteed.
func (s *Session) AttachedTargetIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.attachedTargets))
	for id := range s.attachedTargets {
		ids = append(ids, id)
	}
	return ids
}

// SetTargetID records the last/primary attached target. The value is not
// validated against the attached set.
func (s *Session) SetTargetID(targetID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targetID = targetID
}

// TargetID returns the last/primary attached target id.
func (s *Session) TargetID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.targetID
}

// EnableAutoAttach sets the auto-attach preference group as a unit.
func (s *Session) EnableAutoAttach(waitForDebuggerOnStart, flatten bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autoAttach = true
	s.waitForDebuggerOnStart = waitForDebuggerOnStart
	s.autoAttachFlatten = flatten
	log.Debug(log.CatCDP, "auto-attach enabled",
		"wait_for_debugger", waitForDebuggerOnStart,
		"flatten", flatten)
}

// DisableAutoAttach clears the whole auto-attach preference group.
func (s *Session) DisableAutoAttach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autoAttach = false
	s.waitForDebuggerOnStart = false
	s.autoAttachFlatten = false
	log.Debug(log.CatCDP, "auto-attach disabled")
}

// AutoAttach reports the stored auto-attach flag.
func (s *Session) AutoAttach() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.autoAttach
}

// WaitForDebuggerOnStart reports the stored wait-for-debugger flag.
func (s *Session) WaitForDebuggerOnStart() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.waitForDebuggerOnStart
}

// AutoAttachFlatten reports the stored flatten flag.
func (s *Session) AutoAttachFlatten() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.autoAttachFlatten
}

// AutoAttachEnabled reports whether flattened auto-attach is in effect.
// Computed on read, never stored.
func (s *Session) AutoAttachEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.autoAttach && s.autoAttachFlatten
}

// EnableTargetDiscovery turns on target discovery.
func (s *Session) EnableTargetDiscovery() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discoverTargets = true
	log.Debug(log.CatCDP, "target discovery enabled")
}

// DisableTargetDiscovery turns off target discovery.
func (s *Session) DisableTargetDiscovery() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discoverTargets = false
	log.Debug(log.CatCDP, "target discovery disabled")
}

// DiscoverTargets reports whether target discovery is on.
func (s *Session) DiscoverTargets() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.discoverTargets
}

// AddDiscoveredTarget records target metadata keyed by its own target id.
func (s *Session) AddDiscoveredTarget(info TargetInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discoveredTargets[info.TargetID] = info
	log.Debug(log.CatCDP, "target discovered", "target_id", info.TargetID, "url", info.URL)
}

// RemoveDiscoveredTarget forgets a discovered target. No-op if unknown.
func (s *Session) RemoveDiscoveredTarget(targetID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.discoveredTargets, targetID)
	log.Debug(log.CatCDP, "target removed from discovery", "target_id", targetID)
}

// DiscoveredTargets returns a snapshot of the discovered-target map.
func (s *Session) DiscoveredTargets() []TargetInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	infos := make([]TargetInfo, 0, len(s.discoveredTargets))
	for _, info := range s.discoveredTargets {
		infos = append(infos, info)
	}
	return infos
}

// ClearDiscoveredTargets empties the discovered-target map.
func (s *Session) ClearDiscoveredTargets() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discoveredTargets = make(map[string]TargetInfo)
	log.Debug(log.CatCDP, "discovered targets cleared")
}

// Reset restores construction-time defaults for every mutable field while
// preserving the browser session id. Used when the client connection
// reconnects: identity persists, state does not.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pageSessionID = ""
	s.browserAttached = false
	s.pageAttached = false
	s.autoAttach = false
	s.waitForDebuggerOnStart = false
	s.autoAttachFlatten = false
	s.targetID = ""
	s.discoverTargets = false
	s.attachedTargets = make(map[string]struct{})
	s.discoveredTargets = make(map[string]TargetInfo)

	log.Debug(log.CatCDP, "session reset", "browser_session_id", s.browserSessionID)
}

package internal

import (
	"fmt"
	"time"
)

// ActiveSession names the session to resume and when it was last used
type ActiveSession struct {
	SessionID      string `yaml:"active_session_id"`
	LastActiveTime int64  `yaml:"active_session_last_active_time"`
}

// LastActive returns the last-active time
func (a ActiveSession) LastActive() time.Time {
	return time.Unix(a.LastActiveTime, 0)
}

// PointerStore persists the active-session record. Save writes both fields
// as one unit. Load returns ok=false when nothing was ever stored.
type PointerStore interface {
	Load() (ActiveSession, bool, error)
	Save(ActiveSession) error
	Close() error
}

// ActivePointer tracks the active session on top of a PointerStore
type ActivePointer struct {
	store PointerStore
	logs  *LogStore
	now   func() time.Time
}

// NewActivePointer creates an ActivePointer
func NewActivePointer(store PointerStore, logs *LogStore) *ActivePointer {
	return &ActivePointer{store: store, logs: logs, now: time.Now}
}

// Set records sessionID as active as of now
func (p *ActivePointer) Set(sessionID string) error {
	if err := p.store.Save(ActiveSession{SessionID: sessionID, LastActiveTime: p.now().Unix()}); err != nil {
		return fmt.Errorf("failed to set active session: %w", err)
	}
	return nil
}

// Clear records that there is no active session
func (p *ActivePointer) Clear() error {
	if err := p.store.Save(ActiveSession{SessionID: "", LastActiveTime: p.now().Unix()}); err != nil {
		return fmt.Errorf("failed to clear active session: %w", err)
	}
	return nil
}

// Get returns the active session, or nil when unset or when the named
// session log no longer exists.
func (p *ActivePointer) Get() (*ActiveSession, error) {
	active, ok, err := p.store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to read active session: %w", err)
	}
	if !ok || active.SessionID == "" {
		return nil, nil
	}
	if !p.logs.Exists(active.SessionID) {
		LogDebug("Active session %s has no log, ignoring pointer", active.SessionID)
		return nil, nil
	}
	return &active, nil
}

// ActiveID returns the active session id or ""
func (p *ActivePointer) ActiveID() string {
	active, err := p.Get()
	if err != nil || active == nil {
		return ""
	}
	return active.SessionID
}

// Close releases the underlying store
func (p *ActivePointer) Close() error {
	return p.store.Close()
}

// ResumePolicy decides whether startup resumes the active session
type ResumePolicy struct {
	AlwaysContinue   bool
	InactivityCutoff time.Duration
}

// ShouldResume applies the policy to the current pointer
func (rp ResumePolicy) ShouldResume(active *ActiveSession, now time.Time) bool {
	if active == nil {
		return false
	}
	if rp.AlwaysContinue {
		return true
	}
	return now.Sub(active.LastActive()) <= rp.InactivityCutoff
}

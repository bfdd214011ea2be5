package internal

import (
	"fmt"
	"sort"
)

// RetentionManager deletes old sessions beyond a configured count
type RetentionManager struct {
	logs    *LogStore
	pointer *ActivePointer

	// ProtectActiveOnPurge keeps the active session even when the limit is
	// zero. Off by default: a zero limit purges everything.
	ProtectActiveOnPurge bool
}

// RetentionReport lists what a retention pass did
type RetentionReport struct {
	Deleted []string
	Kept    int
	Skipped []string // protected active session
	Failed  map[string]error
}

type sessionAge struct {
	id   string
	last int64
}

// NewRetentionManager creates a RetentionManager
func NewRetentionManager(logs *LogStore, pointer *ActivePointer) *RetentionManager {
	return &RetentionManager{logs: logs, pointer: pointer}
}

// EnforceLimit keeps the newest maxSessions sessions and deletes the rest,
// never deleting the active session. maxSessions == 0 deletes every session
// without reading any of them. Individual delete failures are recorded and do
// not stop the pass. When the active-session pointer cannot be read nothing
// is deleted and the error is returned.
func (m *RetentionManager) EnforceLimit(maxSessions int) (*RetentionReport, error) {
	if maxSessions < 0 {
		return nil, fmt.Errorf("invalid session limit: %d", maxSessions)
	}

	ids, err := m.logs.List()
	if err != nil {
		return nil, err
	}

	activeID, err := m.activeID()
	if err != nil {
		return nil, fmt.Errorf("cannot determine active session, skipping cleanup: %w", err)
	}

	report := &RetentionReport{Failed: make(map[string]error)}

	if maxSessions == 0 {
		for _, id := range ids {
			if m.ProtectActiveOnPurge && id == activeID {
				report.Skipped = append(report.Skipped, id)
				continue
			}
			m.delete(id, report)
		}
		report.Kept = len(ids) - len(report.Deleted)
		LogInfo("Purged %d session(s), kept %d", len(report.Deleted), report.Kept)
		return report, nil
	}

	if len(ids) <= maxSessions {
		report.Kept = len(ids)
		return report, nil
	}

	ages := make([]sessionAge, 0, len(ids))
	for _, id := range ids {
		ages = append(ages, sessionAge{id: id, last: m.lastActivity(id)})
	}
	sort.SliceStable(ages, func(i, j int) bool {
		if ages[i].last != ages[j].last {
			return ages[i].last < ages[j].last
		}
		return ages[i].id < ages[j].id
	})

	evict := ages[:len(ages)-maxSessions]
	for _, age := range evict {
		if age.id == activeID {
			report.Skipped = append(report.Skipped, age.id)
			continue
		}
		m.delete(age.id, report)
	}
	report.Kept = len(ids) - len(report.Deleted)

	if len(report.Deleted) > 0 {
		LogInfo("Removed %d old session(s), kept %d", len(report.Deleted), report.Kept)
	}
	return report, nil
}

// lastActivity returns the created_time of a session's last record. Logs
// that cannot be tail-read sort as oldest.
func (m *RetentionManager) lastActivity(id string) int64 {
	line, err := m.logs.ReadLastLine(id)
	if err != nil {
		LogWarn("Failed to read last record of session %s: %v", id, err)
		return 0
	}
	ts, err := recordTime(line)
	if err != nil {
		LogWarn("Failed to parse last record of session %s: %v", id, err)
		return 0
	}
	return ts
}

func (m *RetentionManager) delete(id string, report *RetentionReport) {
	if err := m.logs.Delete(id); err != nil {
		LogWarn("Failed to delete session %s: %v", id, err)
		report.Failed[id] = err
		return
	}
	LogDebug("Deleted session %s", id)
	report.Deleted = append(report.Deleted, id)
}

// activeID returns the active session id. A pointer that cannot be read is
// an error so that cleanup never runs without knowing what to protect.
func (m *RetentionManager) activeID() (string, error) {
	if m.pointer == nil {
		return "", nil
	}
	active, err := m.pointer.Get()
	if err != nil {
		return "", err
	}
	if active == nil {
		return "", nil
	}
	return active.SessionID, nil
}

package internal

import "errors"

// Reconstructor replays session logs into in-memory sessions
type Reconstructor struct {
	logs         *LogStore
	deduplicator *Deduplicator
}

// ReplayStats describes what a replay saw in the raw log
type ReplayStats struct {
	Lines       int
	TurnRecords int
	Turns       int
	Unanswered  int
	Duplicates  map[string]int
}

// NewReconstructor creates a new Reconstructor
func NewReconstructor(logs *LogStore) *Reconstructor {
	return &Reconstructor{
		logs:         logs,
		deduplicator: NewDeduplicator(),
	}
}

// Load reads a session log and rebuilds the session
func (r *Reconstructor) Load(sessionID string) (*Session, error) {
	session, _, err := r.LoadWithStats(sessionID)
	return session, err
}

// LoadWithStats is Load plus counters for diagnostics
func (r *Reconstructor) LoadWithStats(sessionID string) (*Session, *ReplayStats, error) {
	lines, err := r.logs.ReadAll(sessionID)
	if err != nil {
		return nil, nil, err
	}

	session, raw, err := r.Reconstruct(sessionID, lines)
	if err != nil {
		return nil, nil, err
	}

	stats := &ReplayStats{
		Lines:       len(lines),
		TurnRecords: len(raw),
		Turns:       len(session.Turns),
		Duplicates:  r.deduplicator.Duplicates(raw),
	}
	for _, turn := range session.Turns {
		if turn.Response == nil {
			stats.Unanswered++
		}
	}
	return session, stats, nil
}

// Reconstruct decodes log lines: line 0 is metadata, line 1 the system
// message, the rest are turn records. Any undecodable line fails the whole
// replay. It returns the session and the raw, undeduplicated turn records.
func (r *Reconstructor) Reconstruct(sessionID string, lines []string) (*Session, []ChatTurn, error) {
	if len(lines) == 0 {
		return nil, nil, &EmptyFileError{SessionID: sessionID}
	}

	metadata, err := DecodeSessionMetadata(lines[0])
	if err != nil {
		return nil, nil, &CorruptRecordError{SessionID: sessionID, Line: 0, Kind: "metadata", Err: err}
	}

	if len(lines) < 2 {
		return nil, nil, &CorruptRecordError{SessionID: sessionID, Line: 1, Kind: "system", Err: errors.New("missing system message")}
	}
	system, err := DecodeSystemMessage(lines[1])
	if err != nil {
		return nil, nil, &CorruptRecordError{SessionID: sessionID, Line: 1, Kind: "system", Err: err}
	}

	raw := make([]ChatTurn, 0, len(lines)-2)
	for i := 2; i < len(lines); i++ {
		turn, err := DecodeChatTurn(lines[i])
		if err != nil {
			return nil, nil, &CorruptRecordError{SessionID: sessionID, Line: i, Kind: "turn", Err: err}
		}
		raw = append(raw, turn)
	}

	session := &Session{
		ID:       sessionID,
		Metadata: metadata,
		System:   system,
		Turns:    r.deduplicator.Deduplicate(raw),
	}
	LogDebug("Replayed session %s: %d record(s), %d turn(s)", sessionID, len(raw), len(session.Turns))
	return session, raw, nil
}

// MostRecentTurn tail-reads the last record of a session as a turn
func (r *Reconstructor) MostRecentTurn(sessionID string) (ChatTurn, error) {
	line, err := r.logs.ReadLastLine(sessionID)
	if err != nil {
		return ChatTurn{}, err
	}
	turn, err := DecodeChatTurn(line)
	if err != nil {
		return ChatTurn{}, &CorruptRecordError{SessionID: sessionID, Line: -1, Kind: "turn", Err: err}
	}
	return turn, nil
}

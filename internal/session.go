package internal

import (
	"fmt"
	"time"
)

// PreviewTimeFormat is the timestamp layout used in session previews
const PreviewTimeFormat = "2006-01-02 15:04:05"

// Session is a replayed or in-progress conversation.
// ID is empty until the first prompt is persisted.
type Session struct {
	ID       string          `json:"id" yaml:"id"`
	Metadata SessionMetadata `json:"metadata" yaml:"metadata"`
	System   SystemMessage   `json:"system" yaml:"system"`
	Turns    []ChatTurn      `json:"turns" yaml:"turns"`
}

// SessionPreview is a one-line summary of a stored session for selection lists
type SessionPreview struct {
	DisplayText string
	SessionID   string
	LastActive  time.Time
	Active      bool
}

// NewSession creates an unsaved session
func NewSession(systemMessage string, now time.Time) *Session {
	return &Session{
		Metadata: NewSessionMetadata(now),
		System:   NewSystemMessage(systemMessage, now),
		Turns:    make([]ChatTurn, 0),
	}
}

// Persisted reports whether the session has a log on disk
func (s *Session) Persisted() bool {
	return s.ID != ""
}

// LastTurn returns the most recent turn
func (s *Session) LastTurn() (ChatTurn, bool) {
	if len(s.Turns) == 0 {
		return ChatTurn{}, false
	}
	return s.Turns[len(s.Turns)-1], true
}

// ReplaceTurn swaps the turn with the same id in place
func (s *Session) ReplaceTurn(turn ChatTurn) bool {
	for i := len(s.Turns) - 1; i >= 0; i-- {
		if s.Turns[i].ID == turn.ID {
			s.Turns[i] = turn
			return true
		}
	}
	return false
}

// RequestMessages builds the request: the system message followed by the
// last window turns, each as a user message plus its assistant reply when
// one exists. window <= 0 sends every turn.
func (s *Session) RequestMessages(window int) []ChatMessage {
	turns := s.Turns
	if window > 0 && len(turns) > window {
		turns = turns[len(turns)-window:]
	}

	messages := make([]ChatMessage, 0, 1+2*len(turns))
	messages = append(messages, s.System.RequestMessage())
	for _, turn := range turns {
		messages = append(messages, turn.PromptMessage())
		if reply, ok := turn.ResponseMessage(); ok {
			messages = append(messages, reply)
		}
	}
	return messages
}

// NewSessionPreview builds the display line for a session's latest turn
func NewSessionPreview(sessionID string, turn ChatTurn, active bool) SessionPreview {
	marker := ""
	if active {
		marker = " [Current Session]"
	}
	created := turn.GetCreatedAt()
	return SessionPreview{
		DisplayText: fmt.Sprintf("[%s]%s %s", created.Format(PreviewTimeFormat), marker, turn.UserPrompt),
		SessionID:   sessionID,
		LastActive:  created,
		Active:      active,
	}
}

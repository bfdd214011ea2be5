package internal

import (
	"fmt"
	"time"
)

// Transcript is a flat, role-tagged view of a session used for export
type Transcript struct {
	SessionID string              `json:"session_id" yaml:"session_id"`
	CreatedAt string              `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	Model     string              `json:"model,omitempty" yaml:"model,omitempty"`
	Messages  []TranscriptMessage `json:"messages" yaml:"messages"`
}

// TranscriptMessage is one message of a transcript
type TranscriptMessage struct {
	Timestamp string `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	Actor     string `json:"actor" yaml:"actor"`
	Content   string `json:"content" yaml:"content"`
}

// Normalizer converts replayed sessions to transcripts
type Normalizer struct {
	// IncludeSystem adds the system message as the first transcript entry
	IncludeSystem bool
}

// NewNormalizer creates a new Normalizer
func NewNormalizer() *Normalizer {
	return &Normalizer{IncludeSystem: true}
}

// Normalize converts a session to a transcript. Unanswered turns contribute
// only their prompt.
func (n *Normalizer) Normalize(session *Session) (*Transcript, error) {
	if session == nil {
		return nil, fmt.Errorf("session is nil")
	}

	messages := make([]TranscriptMessage, 0, 1+2*len(session.Turns))
	if n.IncludeSystem && session.System.Content != "" {
		messages = append(messages, TranscriptMessage{
			Timestamp: formatTimestamp(session.System.CreatedTime),
			Actor:     string(RoleSystem),
			Content:   session.System.Content,
		})
	}

	model := ""
	for _, turn := range session.Turns {
		messages = append(messages, TranscriptMessage{
			Timestamp: formatTimestamp(turn.CreatedTime),
			Actor:     string(RoleUser),
			Content:   turn.UserPrompt,
		})
		reply, ok := turn.ResponseMessage()
		if !ok {
			continue
		}
		timestamp := formatTimestamp(turn.Response.Created)
		if timestamp == "" {
			timestamp = formatTimestamp(turn.CreatedTime)
		}
		messages = append(messages, TranscriptMessage{
			Timestamp: timestamp,
			Actor:     string(RoleAssistant),
			Content:   reply.Content,
		})
		if turn.Response.Model != "" {
			model = turn.Response.Model
		}
	}

	return &Transcript{
		SessionID: session.ID,
		CreatedAt: formatTimestamp(session.Metadata.CreatedTime),
		Model:     model,
		Messages:  messages,
	}, nil
}

// formatTimestamp formats a Unix timestamp (seconds) to RFC3339
func formatTimestamp(ts int64) string {
	if ts <= 0 {
		return ""
	}
	return time.Unix(ts, 0).UTC().Format(time.RFC3339)
}

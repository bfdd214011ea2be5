package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role tags a message sent to the completion API
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// DefaultSystemMessage is the persona used for new sessions
const DefaultSystemMessage = "You are a helpful assistant"

// ChatMessage is one role-tagged message of a completion request or choice
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// SessionMetadata is the first record of every session log
type SessionMetadata struct {
	CreatedTime int64 `json:"created_time"`
}

// SystemMessage is the second record of every session log
type SystemMessage struct {
	ID          string `json:"id"`
	CreatedTime int64  `json:"created_time"`
	Content     string `json:"content"`
}

// ChatTurn is a user prompt and its (possibly absent) response.
// A nil Response means the prompt was sent but never answered.
type ChatTurn struct {
	ID          string              `json:"id"`
	CreatedTime int64               `json:"created_time"`
	UserPrompt  string              `json:"user_prompt"`
	Response    *CompletionResponse `json:"response,omitempty"`
}

// CompletionResponse is the structured payload returned by the completion API
type CompletionResponse struct {
	ID      string   `json:"id,omitempty"`
	Object  string   `json:"object,omitempty"`
	Created int64    `json:"created,omitempty"`
	Model   string   `json:"model,omitempty"`
	Choices []Choice `json:"choices"`
	Usage   *Usage   `json:"usage,omitempty"`
}

// Choice is one candidate completion
type Choice struct {
	Index        int         `json:"index"`
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason,omitempty"`
}

// Usage reports token accounting for a completion
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// NewSessionMetadata stamps metadata with the given time
func NewSessionMetadata(now time.Time) SessionMetadata {
	return SessionMetadata{CreatedTime: now.Unix()}
}

// NewSystemMessage creates a system message with a fresh id
func NewSystemMessage(content string, now time.Time) SystemMessage {
	if content == "" {
		content = DefaultSystemMessage
	}
	return SystemMessage{
		ID:          uuid.NewString(),
		CreatedTime: now.Unix(),
		Content:     content,
	}
}

// NewChatTurn creates an unanswered turn for a user prompt
func NewChatTurn(prompt string, now time.Time) ChatTurn {
	return ChatTurn{
		ID:          uuid.NewString(),
		CreatedTime: now.Unix(),
		UserPrompt:  prompt,
	}
}

// RequestMessage returns the system message in request form
func (m SystemMessage) RequestMessage() ChatMessage {
	return ChatMessage{Role: RoleSystem, Content: m.Content}
}

// GetCreatedAt returns the creation time of the turn
func (t ChatTurn) GetCreatedAt() time.Time {
	return time.Unix(t.CreatedTime, 0)
}

// Answered reports whether the turn holds a response with content
func (t ChatTurn) Answered() bool {
	_, ok := t.Response.AssistantContent()
	return ok
}

// PromptMessage returns the user prompt in request form
func (t ChatTurn) PromptMessage() ChatMessage {
	return ChatMessage{Role: RoleUser, Content: t.UserPrompt}
}

// ResponseMessage returns the assistant reply in request form, if any
func (t ChatTurn) ResponseMessage() (ChatMessage, bool) {
	content, ok := t.Response.AssistantContent()
	if !ok {
		return ChatMessage{}, false
	}
	return ChatMessage{Role: RoleAssistant, Content: content}, true
}

// FirstChoice returns the first choice or ErrNoChoices.
// A nil response is treated the same as an empty choice list.
func (r *CompletionResponse) FirstChoice() (Choice, error) {
	if r == nil || len(r.Choices) == 0 {
		return Choice{}, ErrNoChoices
	}
	return r.Choices[0], nil
}

// AssistantContent returns the first choice's content
func (r *CompletionResponse) AssistantContent() (string, bool) {
	choice, err := r.FirstChoice()
	if err != nil || choice.Message.Content == "" {
		return "", false
	}
	return choice.Message.Content, true
}

// DecodeSessionMetadata parses the first log line
func DecodeSessionMetadata(line string) (SessionMetadata, error) {
	var m SessionMetadata
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		return SessionMetadata{}, fmt.Errorf("failed to parse metadata JSON: %w", err)
	}
	return m, nil
}

// DecodeSystemMessage parses the second log line
func DecodeSystemMessage(line string) (SystemMessage, error) {
	var m SystemMessage
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		return SystemMessage{}, fmt.Errorf("failed to parse system message JSON: %w", err)
	}
	return m, nil
}

// DecodeChatTurn parses a turn line. Turns without an id cannot be
// deduplicated and are rejected.
func DecodeChatTurn(line string) (ChatTurn, error) {
	var t ChatTurn
	if err := json.Unmarshal([]byte(line), &t); err != nil {
		return ChatTurn{}, fmt.Errorf("failed to parse turn JSON: %w", err)
	}
	if t.ID == "" {
		return ChatTurn{}, errors.New("turn record has no id")
	}
	return t, nil
}

// recordTime extracts created_time from any record line
func recordTime(line string) (int64, error) {
	var r struct {
		CreatedTime int64 `json:"created_time"`
	}
	if err := json.Unmarshal([]byte(line), &r); err != nil {
		return 0, err
	}
	return r.CreatedTime, nil
}

package internal

import (
	"time"
)

// TestTime is the fixed clock used by test helpers
var TestTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// CreateTestResponse creates a completion response with one assistant choice
func CreateTestResponse(content string) *CompletionResponse {
	return &CompletionResponse{
		ID:      "chatcmpl-test",
		Object:  "chat.completion",
		Created: TestTime.Unix(),
		Model:   "gpt-3.5-turbo",
		Choices: []Choice{
			{
				Index:        0,
				Message:      ChatMessage{Role: RoleAssistant, Content: content},
				FinishReason: "stop",
			},
		},
	}
}

// CreateTestTurn creates a turn, answered when response is not empty
func CreateTestTurn(id, prompt, response string, created time.Time) ChatTurn {
	turn := ChatTurn{ID: id, CreatedTime: created.Unix(), UserPrompt: prompt}
	if response != "" {
		turn.Response = CreateTestResponse(response)
	}
	return turn
}

// CreateTestSession creates a test session with one answered turn
func CreateTestSession(id string) *Session {
	return CreateTestSessionWithTurns(id, []ChatTurn{
		CreateTestTurn("turn-1", "Hello, how are you?", "I'm doing well, thank you!", TestTime),
	})
}

// CreateTestSessionWithTurns creates a test session with custom turns
func CreateTestSessionWithTurns(id string, turns []ChatTurn) *Session {
	return &Session{
		ID:       id,
		Metadata: SessionMetadata{CreatedTime: TestTime.Unix()},
		System:   SystemMessage{ID: "system-" + id, CreatedTime: TestTime.Unix(), Content: DefaultSystemMessage},
		Turns:    turns,
	}
}

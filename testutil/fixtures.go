package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// MetadataLine returns a session metadata record
func MetadataLine(created int64) string {
	return fmt.Sprintf(`{"created_time":%d}`, created)
}

// SystemLine returns a system message record
func SystemLine(id string, created int64, content string) string {
	return fmt.Sprintf(`{"id":%q,"created_time":%d,"content":%q}`, id, created, content)
}

// PromptLine returns an unanswered turn record
func PromptLine(id string, created int64, prompt string) string {
	return fmt.Sprintf(`{"id":%q,"created_time":%d,"user_prompt":%q}`, id, created, prompt)
}

// AnsweredLine returns a turn record with a single assistant choice
func AnsweredLine(id string, created int64, prompt, answer string) string {
	return fmt.Sprintf(`{"id":%q,"created_time":%d,"user_prompt":%q,"response":{"id":"chatcmpl-%s","object":"chat.completion","created":%d,"model":"gpt-3.5-turbo","choices":[{"index":0,"message":{"role":"assistant","content":%q},"finish_reason":"stop"}]}}`,
		id, created, prompt, id, created, answer)
}

// WriteSessionLog writes raw record lines as <dir>/<id>.jsonl and returns the path
func WriteSessionLog(t *testing.T, dir, id string, lines ...string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create session directory: %v", err)
	}
	path := filepath.Join(dir, id+".jsonl")
	data := ""
	if len(lines) > 0 {
		data = strings.Join(lines, "\n") + "\n"
	}
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("Failed to write session log %s: %v", path, err)
	}
	return path
}

// WriteSession writes a complete session log: header records followed by
// one answered turn per prompt, each one second after the previous.
func WriteSession(t *testing.T, dir, id string, created int64, prompts ...string) string {
	t.Helper()
	lines := []string{
		MetadataLine(created),
		SystemLine("system-"+id, created, "You are a helpful assistant"),
	}
	for i, prompt := range prompts {
		ts := created + int64(i+1)
		lines = append(lines, AnsweredLine(fmt.Sprintf("%s-turn-%d", id, i+1), ts, prompt, "answer to "+prompt))
	}
	return WriteSessionLog(t, dir, id, lines...)
}

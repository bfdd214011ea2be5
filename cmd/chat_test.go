package cmd

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iksnae/duckchat/internal"
	"github.com/iksnae/duckchat/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCompleter struct {
	prompts []string
	content string
	err     error
}

func (s *stubCompleter) Complete(ctx context.Context, messages []internal.ChatMessage) (*internal.CompletionResponse, error) {
	s.prompts = append(s.prompts, messages[len(messages)-1].Content)
	if s.err != nil {
		return nil, s.err
	}
	return &internal.CompletionResponse{
		Choices: []internal.Choice{{Message: internal.ChatMessage{Role: internal.RoleAssistant, Content: s.content}}},
	}, nil
}

type stubClipboard struct{ text string }

func (s *stubClipboard) WriteAll(text string) error {
	s.text = text
	return nil
}

type replFixture struct {
	repl      *repl
	out       *bytes.Buffer
	completer *stubCompleter
	clipboard *stubClipboard
	sessions  string
}

func newREPLFixture(t *testing.T, input string) *replFixture {
	t.Helper()
	root := testutil.CreateTempDir(t)
	sessions := filepath.Join(root, "sessions")
	logs := internal.NewLogStore(sessions)
	pointer := internal.NewActivePointer(internal.NewYAMLPointerStore(filepath.Join(root, "state.yaml")), logs)

	f := &replFixture{
		out:       &bytes.Buffer{},
		completer: &stubCompleter{content: "Run:\n```sh\nmake test\n```"},
		clipboard: &stubClipboard{},
		sessions:  sessions,
	}
	chat := internal.NewChat(internal.ChatDeps{
		Logs:      logs,
		Pointer:   pointer,
		Completer: f.completer,
		Renderer:  internal.NewTerminalRenderer(f.out),
		Clipboard: f.clipboard,
	}, internal.ChatOptions{MaxMessagesPerRequest: 10})

	f.repl = newREPL(chat, strings.NewReader(input), f.out)
	f.repl.interruptible = func(ctx context.Context) (context.Context, context.CancelFunc) {
		return context.WithCancel(ctx)
	}
	return f
}

func TestREPL_Run(t *testing.T) {
	f := newREPLFixture(t, "how do I test?\n1\n.help\n.exit\nnever sent\n")

	require.NoError(t, f.repl.Run(context.Background()))

	assert.Equal(t, []string{"how do I test?"}, f.completer.prompts)
	assert.Equal(t, "make test\n", f.clipboard.text)
	assert.Contains(t, f.out.String(), "Snippet copied to clipboard")
	assert.Contains(t, f.out.String(), "Commands:")
}

func TestREPL_EndOfInput(t *testing.T) {
	f := newREPLFixture(t, "\n   \n")
	require.NoError(t, f.repl.Run(context.Background()))
	assert.Empty(t, f.completer.prompts)
}

func TestREPL_NumberWithoutSnippetIsPrompt(t *testing.T) {
	f := newREPLFixture(t, "")
	f.completer.content = "no code"

	_, err := f.repl.handle(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, []string{"42"}, f.completer.prompts)
}

func TestREPL_CompletionError(t *testing.T) {
	f := newREPLFixture(t, "")
	f.completer.err = errors.New("quota exceeded")

	exit, err := f.repl.handle(context.Background(), "hello")
	assert.False(t, exit)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request failed")
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestREPL_Sessions(t *testing.T) {
	f := newREPLFixture(t, "")
	ctx := context.Background()

	_, err := f.repl.handle(ctx, ".s")
	require.NoError(t, err)
	assert.Contains(t, f.out.String(), "No saved sessions")

	testutil.WriteSession(t, f.sessions, "older", 1700000000, "old topic")
	testutil.WriteSession(t, f.sessions, "newer", 1700009000, "new topic")

	f.out.Reset()
	_, err = f.repl.handle(ctx, ".sessions")
	require.NoError(t, err)
	out := f.out.String()
	assert.Contains(t, out, "new topic")
	assert.Contains(t, out, "old topic")
	assert.Less(t, strings.Index(out, "new topic"), strings.Index(out, "old topic"))

	_, err = f.repl.handle(ctx, ".s 2")
	require.NoError(t, err)
	assert.Equal(t, "older", f.repl.chat.Session().ID)

	_, err = f.repl.handle(ctx, ".s 9")
	assert.Error(t, err)
	_, err = f.repl.handle(ctx, ".s two")
	assert.Error(t, err)

	_, err = f.repl.handle(ctx, ".n")
	require.NoError(t, err)
	assert.False(t, f.repl.chat.Session().Persisted())
}

func TestREPL_Print(t *testing.T) {
	f := newREPLFixture(t, "")
	ctx := context.Background()

	_, err := f.repl.handle(ctx, "first prompt")
	require.NoError(t, err)

	f.out.Reset()
	_, err = f.repl.handle(ctx, ".p")
	require.NoError(t, err)
	assert.Contains(t, f.out.String(), "first prompt")
	assert.Len(t, f.completer.prompts, 1)
}

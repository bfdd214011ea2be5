package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/duckchat/internal"
	"github.com/iksnae/duckchat/internal/completion"
	"github.com/spf13/cobra"
)

const chatHelp = `Commands:
  .help, .h             Show this help
  .sessions, .s         List saved sessions
  .sessions <n>, .s <n> Switch to session n of the last listing
  .print, .p            Print the current session
  .new, .n              Start a new session
  .exit, .e             Quit
  <n>                   Copy snippet n of the last answer
Anything else is sent as a prompt. Ctrl+C cancels a pending answer.`

var (
	inputPromptStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true)

	previewIndexStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("62")).
				Bold(true)
)

func runChat(cmd *cobra.Command, args []string) error {
	if !verbose {
		internal.SetLogLevel(internal.LogLevelWarn)
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.retention().EnforceLimit(a.cfg.MaxSavedSessionCount); err != nil {
		internal.LogWarn("Session cleanup failed: %v", err)
	}

	key := apiKey
	if key == "" {
		key = os.Getenv("OPENAI_API_KEY")
	}
	client, err := completion.NewOpenAIClient(key, a.cfg.APIBaseURL, a.cfg.Model)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	chat := internal.NewChat(internal.ChatDeps{
		Logs:      a.logs,
		Pointer:   a.pointer,
		Completer: client,
		Renderer:  internal.NewTerminalRenderer(out),
		Clipboard: internal.SystemClipboard{},
		Busy:      internal.ShowProgress,
	}, internal.ChatOptions{
		SystemMessage:         a.cfg.SystemMessage,
		MaxMessagesPerRequest: a.cfg.MaxMessagesPerRequest,
		Resume:                a.cfg.ResumePolicy(),
	})
	if err := chat.Start(); err != nil {
		return err
	}

	return newREPL(chat, cmd.InOrStdin(), out).Run(cmd.Context())
}

// repl reads user input line by line and dispatches it to a Chat
type repl struct {
	chat     *internal.Chat
	in       *bufio.Scanner
	out      io.Writer
	previews []internal.SessionPreview

	// interruptible derives the context used for one completion call
	interruptible func(ctx context.Context) (context.Context, context.CancelFunc)
}

func newREPL(chat *internal.Chat, in io.Reader, out io.Writer) *repl {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	return &repl{
		chat: chat,
		in:   scanner,
		out:  out,
		interruptible: func(ctx context.Context) (context.Context, context.CancelFunc) {
			return signal.NotifyContext(ctx, os.Interrupt)
		},
	}
}

// Run processes input until .exit or end of input
func (r *repl) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	r.showPrompt()
	for r.in.Scan() {
		exit, err := r.handle(ctx, r.in.Text())
		if err != nil {
			internal.PrintError(err.Error())
		}
		if exit {
			return nil
		}
		r.showPrompt()
	}
	return r.in.Err()
}

func (r *repl) showPrompt() {
	fmt.Fprint(r.out, inputPromptStyle.Render(">>>")+" ")
}

// handle runs one input line. It reports whether the loop should stop.
func (r *repl) handle(ctx context.Context, line string) (bool, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false, nil
	}

	fields := strings.Fields(trimmed)
	switch fields[0] {
	case ".exit", ".e":
		return true, nil
	case ".help", ".h":
		fmt.Fprintln(r.out, chatHelp)
		return false, nil
	case ".sessions", ".s":
		if len(fields) > 1 {
			return false, r.switchSession(fields[1])
		}
		return false, r.listSessions()
	case ".print", ".p":
		r.chat.PrintSession(true)
		return false, nil
	case ".new", ".n":
		return false, r.chat.NewSession()
	}

	if n, err := strconv.Atoi(trimmed); err == nil && r.chat.HasSnippet(n) {
		return false, r.chat.CopySnippet(n)
	}

	callCtx, stop := r.interruptible(ctx)
	defer stop()
	err := r.chat.ProcessPrompt(callCtx, line)
	var ce *internal.CompletionError
	if errors.As(err, &ce) {
		return false, fmt.Errorf("request failed: %w", ce.Err)
	}
	return false, err
}

func (r *repl) listSessions() error {
	previews, err := r.chat.Previews()
	if err != nil {
		return err
	}
	r.previews = previews
	if len(previews) == 0 {
		fmt.Fprintln(r.out, "No saved sessions")
		return nil
	}
	for i, p := range previews {
		fmt.Fprintf(r.out, "%s %s\n", previewIndexStyle.Render(fmt.Sprintf("%3d", i+1)), p.DisplayText)
	}
	fmt.Fprintln(r.out, `Use ".sessions <n>" to switch`)
	return nil
}

func (r *repl) switchSession(arg string) error {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return fmt.Errorf("invalid session number %q", arg)
	}
	if r.previews == nil {
		previews, err := r.chat.Previews()
		if err != nil {
			return err
		}
		r.previews = previews
	}
	if n < 1 || n > len(r.previews) {
		return fmt.Errorf("no session %d (have %d)", n, len(r.previews))
	}
	return r.chat.SwitchSession(r.previews[n-1].SessionID)
}

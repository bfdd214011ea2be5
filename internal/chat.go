package internal

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Completer sends a request to the completion API
type Completer interface {
	Complete(ctx context.Context, messages []ChatMessage) (*CompletionResponse, error)
}

// ChatOptions configures a Chat
type ChatOptions struct {
	SystemMessage         string
	MaxMessagesPerRequest int
	Resume                ResumePolicy
}

// ChatDeps are the collaborators of a Chat
type ChatDeps struct {
	Logs      *LogStore
	Pointer   *ActivePointer
	Completer Completer
	Renderer  Renderer
	Clipboard Clipboard
	Busy      BusyFunc
}

// Chat drives one interactive conversation: it persists prompts and
// responses, keeps the active pointer current and tracks the snippets of
// the latest rendered response.
type Chat struct {
	logs          *LogStore
	reconstructor *Reconstructor
	pointer       *ActivePointer
	completer     Completer
	renderer      Renderer
	clipboard     Clipboard
	busy          BusyFunc
	opts          ChatOptions
	now           func() time.Time

	session  *Session
	snippets []Snippet
}

// NewChat creates a Chat with an empty unsaved session
func NewChat(deps ChatDeps, opts ChatOptions) *Chat {
	busy := deps.Busy
	if busy == nil {
		busy = NoProgress
	}
	clip := deps.Clipboard
	if clip == nil {
		clip = SystemClipboard{}
	}
	c := &Chat{
		logs:          deps.Logs,
		reconstructor: NewReconstructor(deps.Logs),
		pointer:       deps.Pointer,
		completer:     deps.Completer,
		renderer:      deps.Renderer,
		clipboard:     clip,
		busy:          busy,
		opts:          opts,
		now:           time.Now,
	}
	c.session = NewSession(opts.SystemMessage, c.now())
	return c
}

// Session returns the current session
func (c *Chat) Session() *Session {
	return c.session
}

// Snippets returns the snippet index of the latest rendered response
func (c *Chat) Snippets() []Snippet {
	return c.snippets
}

// Start resumes the active session when the resume policy allows it and
// otherwise starts a new one. A session that fails to load is reported and
// replaced by a new session.
func (c *Chat) Start() error {
	active, err := c.pointer.Get()
	if err != nil {
		LogWarn("Ignoring active session pointer: %v", err)
		active = nil
	}

	if c.opts.Resume.ShouldResume(active, c.now()) {
		session, err := c.reconstructor.Load(active.SessionID)
		if err == nil {
			c.useSession(session)
			if err := c.pointer.Set(session.ID); err != nil {
				LogWarn("Failed to refresh active session: %v", err)
			}
			if turn, ok := session.LastTurn(); ok {
				preview := NewSessionPreview(session.ID, turn, true)
				c.renderer.Notice("Continuing from session: " + preview.DisplayText)
			} else {
				c.renderer.Notice("Continuing from session " + session.ID)
			}
			return nil
		}
		LogWarn("Failed to resume session %s: %v", active.SessionID, err)
		c.renderer.Notice(fmt.Sprintf("Could not load session %s, starting a new one", active.SessionID))
	}

	return c.NewSession()
}

// NewSession discards the in-memory session and clears the active pointer
func (c *Chat) NewSession() error {
	c.useSession(NewSession(c.opts.SystemMessage, c.now()))
	if err := c.pointer.Clear(); err != nil {
		return err
	}
	c.renderer.Notice("Started new session")
	return nil
}

// SwitchSession loads a stored session, prints it and makes it active
func (c *Chat) SwitchSession(sessionID string) error {
	session, err := c.reconstructor.Load(sessionID)
	if err != nil {
		return err
	}
	c.useSession(session)
	c.PrintSession(true)
	if err := c.pointer.Set(session.ID); err != nil {
		return err
	}
	if turn, ok := session.LastTurn(); ok {
		c.renderer.Notice("Loaded session: " + NewSessionPreview(session.ID, turn, true).DisplayText)
	}
	return nil
}

// PrintSession renders every turn of the current session
func (c *Chat) PrintSession(withDate bool) {
	for _, turn := range c.session.Turns {
		c.renderer.Prompt(turn, withDate)
		if content, ok := turn.Response.AssistantContent(); ok {
			c.snippets = RenderResponse(c.renderer, content)
		}
	}
}

// Previews lists stored sessions, marking the current one
func (c *Chat) Previews() ([]SessionPreview, error) {
	return ListPreviews(c.logs, c.reconstructor, c.pointer.ActiveID())
}

// ProcessPrompt stores the prompt, asks the completion API and stores and
// renders the answer. Storage failures are returned. API failures leave the
// turn unanswered and are returned as *CompletionError. An empty choice list
// and a cancelled request are reported to the renderer only.
func (c *Chat) ProcessPrompt(ctx context.Context, prompt string) error {
	turn := NewChatTurn(prompt, c.now())
	if err := c.persistPrompt(turn); err != nil {
		return err
	}
	c.session.Turns = append(c.session.Turns, turn)

	if err := c.pointer.Set(c.session.ID); err != nil {
		LogWarn("Failed to update active session: %v", err)
	}

	messages := c.session.RequestMessages(c.opts.MaxMessagesPerRequest)
	var response *CompletionResponse
	err := c.busy(ctx, "Fetching", func(ctx context.Context) error {
		var err error
		response, err = c.completer.Complete(ctx, messages)
		return err
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			c.renderer.Notice("Request cancelled")
			return nil
		}
		var ce *CompletionError
		if errors.As(err, &ce) {
			return err
		}
		return &CompletionError{Err: err}
	}

	content, ok := response.AssistantContent()
	if !ok {
		c.renderer.Notice("No results found")
		return nil
	}

	turn.Response = response
	c.session.ReplaceTurn(turn)
	appendErr := c.logs.Append(c.session.ID, turn)

	c.snippets = RenderResponse(c.renderer, content)
	return appendErr
}

// HasSnippet reports whether index names a snippet of the latest response
func (c *Chat) HasSnippet(index int) bool {
	return index >= 1 && index <= len(c.snippets)
}

// CopySnippet copies a snippet of the latest response to the clipboard
func (c *Chat) CopySnippet(index int) error {
	if !c.HasSnippet(index) {
		c.renderer.Notice("No snippet to copy")
		return fmt.Errorf("no snippet %d", index)
	}
	if err := c.clipboard.WriteAll(c.snippets[index-1].Body); err != nil {
		return fmt.Errorf("failed to copy snippet: %w", err)
	}
	c.renderer.Notice("Snippet copied to clipboard")
	return nil
}

func (c *Chat) useSession(session *Session) {
	c.session = session
	c.snippets = nil
}

// persistPrompt writes the turn; the first prompt of a session also writes
// the metadata and system message and assigns the session id.
func (c *Chat) persistPrompt(turn ChatTurn) error {
	if c.session.Persisted() {
		return c.logs.Append(c.session.ID, turn)
	}

	id := NewSessionID()
	if err := c.logs.Append(id, c.session.Metadata, c.session.System, turn); err != nil {
		return err
	}
	c.session.ID = id
	return nil
}

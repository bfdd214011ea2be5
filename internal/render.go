package internal

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
)

var inlineCodePattern = regexp.MustCompile("`([^`]*)`")

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	inlineCodeStyle = lipgloss.NewStyle().Bold(true)

	snippetHeaderStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("#808080")).
				Foreground(lipgloss.Color("255"))

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Italic(true)
)

// Renderer displays chat output. Implementations decide styling.
type Renderer interface {
	Prompt(turn ChatTurn, withDate bool)
	Prose(text string)
	Blank()
	Snippet(snippet Snippet)
	Notice(message string)
}

// TerminalRenderer writes styled output for an interactive terminal
type TerminalRenderer struct {
	out   io.Writer
	Theme string
}

// NewTerminalRenderer creates a renderer writing to out
func NewTerminalRenderer(out io.Writer) *TerminalRenderer {
	return &TerminalRenderer{out: out, Theme: "monokai"}
}

// Prompt echoes a stored user prompt
func (r *TerminalRenderer) Prompt(turn ChatTurn, withDate bool) {
	date := ""
	if withDate {
		date = " " + dateStyle.Render("["+turn.GetCreatedAt().Format(PreviewTimeFormat)+"]") + " "
	}
	fmt.Fprintf(r.out, "%s%s%s\n", promptStyle.Render(">>>"), date, turn.UserPrompt)
}

// Prose prints a text line with inline code spans emphasized
func (r *TerminalRenderer) Prose(text string) {
	fmt.Fprintln(r.out, HighlightInlineCode(text))
}

// Blank prints an empty line
func (r *TerminalRenderer) Blank() {
	fmt.Fprintln(r.out)
}

// Snippet prints a header with the copy hint followed by the highlighted code
func (r *TerminalRenderer) Snippet(snippet Snippet) {
	fmt.Fprintln(r.out, snippetHeaderStyle.Render(SnippetHeader(snippet)))

	language := snippet.Language
	if language == "" {
		language = "text"
	}
	if err := quick.Highlight(r.out, snippet.Body, language, "terminal256", r.Theme); err != nil {
		LogDebug("Highlighting failed for %q: %v", language, err)
		fmt.Fprint(r.out, snippet.Body)
	}
}

// Notice prints a status line
func (r *TerminalRenderer) Notice(message string) {
	fmt.Fprintln(r.out, noticeStyle.Render(message))
}

// SnippetHeader returns the header line shown above a snippet
func SnippetHeader(snippet Snippet) string {
	hint := fmt.Sprintf("Press \"%d\" to copy snippet", snippet.Index)
	if snippet.Language == "" {
		return " " + hint
	}
	return fmt.Sprintf(" %s | %s", strings.ToUpper(snippet.Language), hint)
}

// HighlightInlineCode emphasizes `code` spans inside a prose line
func HighlightInlineCode(text string) string {
	return inlineCodePattern.ReplaceAllStringFunc(text, func(span string) string {
		inner := span[1 : len(span)-1]
		return "`" + inlineCodeStyle.Render(inner) + "`"
	})
}

// RenderResponse scans a response and feeds its events to r.
// It returns the snippets completed in this response.
func RenderResponse(r Renderer, text string) []Snippet {
	events, snippets := ScanResponse(text)
	for _, event := range events {
		switch event.Kind {
		case EventProse:
			r.Prose(event.Text)
		case EventBlank:
			r.Blank()
		case EventSnippet:
			r.Snippet(*event.Snippet)
		}
	}
	r.Blank()
	return snippets
}

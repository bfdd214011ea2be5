package internal

import (
	"regexp"
	"strings"
)

var (
	fenceOpenPattern  = regexp.MustCompile("^\\s*```([^\\s`]*)")
	fenceClosePattern = regexp.MustCompile("^\\s*```")
)

// EventKind identifies a scanner event
type EventKind int

const (
	EventProse EventKind = iota
	EventBlank
	EventSnippet
)

// Snippet is a completed fenced code block
type Snippet struct {
	Index    int    `json:"index"`
	Language string `json:"language,omitempty"`
	Body     string `json:"body"`
}

// ScanEvent is one unit of scanner output
type ScanEvent struct {
	Kind    EventKind
	Text    string   // EventProse
	Snippet *Snippet // EventSnippet
}

// ResponseScanner splits response text into prose lines and code snippets.
// Snippet indices start at 1 for every scanner.
type ResponseScanner struct {
	inSnippet bool
	language  string
	buffer    strings.Builder
	count     int
	snippets  []Snippet
}

// NewResponseScanner creates a scanner for one response
func NewResponseScanner() *ResponseScanner {
	return &ResponseScanner{}
}

// ScanLine consumes one line and returns the event it completes, if any.
// Fence-open lines and lines inside a snippet produce no event.
func (s *ResponseScanner) ScanLine(line string) (ScanEvent, bool) {
	if s.inSnippet {
		if fenceClosePattern.MatchString(line) {
			snippet := Snippet{
				Index:    s.count,
				Language: s.language,
				Body:     normalizeSnippetBody(s.buffer.String()),
			}
			s.snippets = append(s.snippets, snippet)
			s.reset()
			return ScanEvent{Kind: EventSnippet, Snippet: &snippet}, true
		}
		s.buffer.WriteString(line)
		s.buffer.WriteByte('\n')
		return ScanEvent{}, false
	}

	if m := fenceOpenPattern.FindStringSubmatch(line); m != nil {
		s.inSnippet = true
		s.language = m[1]
		s.buffer.Reset()
		s.count++
		return ScanEvent{}, false
	}

	if strings.TrimSpace(line) == "" {
		return ScanEvent{Kind: EventBlank}, true
	}
	return ScanEvent{Kind: EventProse, Text: line}, true
}

// Close ends the response. An unterminated snippet is dropped.
func (s *ResponseScanner) Close() []Snippet {
	if s.inSnippet {
		LogDebug("Discarding unterminated snippet %d", s.count)
		s.reset()
	}
	return s.snippets
}

// Snippets returns the snippets completed so far
func (s *ResponseScanner) Snippets() []Snippet {
	return s.snippets
}

func (s *ResponseScanner) reset() {
	s.inSnippet = false
	s.language = ""
	s.buffer.Reset()
}

// ScanResponse runs a fresh scanner over a whole response. A single trailing
// newline terminates the last line rather than starting an empty one.
func ScanResponse(text string) ([]ScanEvent, []Snippet) {
	scanner := NewResponseScanner()
	var events []ScanEvent
	for _, line := range strings.Split(strings.TrimSuffix(text, "\n"), "\n") {
		if event, ok := scanner.ScanLine(strings.TrimSuffix(line, "\r")); ok {
			events = append(events, event)
		}
	}
	return events, scanner.Close()
}

// normalizeSnippetBody leaves exactly one trailing newline on a non-empty body
func normalizeSnippetBody(body string) string {
	body = strings.TrimRight(body, "\n")
	if body == "" {
		return ""
	}
	return body + "\n"
}

package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/iksnae/duckchat/internal"
	"github.com/iksnae/duckchat/testutil"
)

func TestDisplayPreviews(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.Local)
	long := strings.Repeat("word ", 20)

	tests := []struct {
		name     string
		previews []internal.SessionPreview
		want     []string
		notWant  []string
	}{
		{
			name: "empty",
			want: []string{"No sessions found"},
		},
		{
			name: "active and truncated",
			previews: []internal.SessionPreview{
				internal.NewSessionPreview("s-new", internal.ChatTurn{CreatedTime: now.Add(-time.Hour).Unix(), UserPrompt: "short one"}, true),
				internal.NewSessionPreview("s-old", internal.ChatTurn{CreatedTime: now.Add(-48 * time.Hour).Unix(), UserPrompt: long}, false),
			},
			want:    []string{"Found 2 session(s)", "s-new", "s-old", "[Current] short one", "..."},
			notWant: []string{long},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			displayPreviews(&buf, tt.previews, now)
			out := buf.String()
			for _, s := range tt.want {
				if !strings.Contains(out, s) {
					t.Errorf("output missing %q:\n%s", s, out)
				}
			}
			for _, s := range tt.notWant {
				if strings.Contains(out, s) {
					t.Errorf("output should not contain %q", s)
				}
			}
		})
	}
}

func TestLastPrompt(t *testing.T) {
	turn := internal.ChatTurn{CreatedTime: 1700000000, UserPrompt: "how do I [x] this?"}
	for _, active := range []bool{false, true} {
		p := internal.NewSessionPreview("s", turn, active)
		if got := lastPrompt(p); got != "how do I [x] this?" {
			t.Errorf("lastPrompt(active=%v) = %q", active, got)
		}
	}
}

func TestFormatRelative(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.Local)
	tests := []struct {
		ago    time.Duration
		layout string
	}{
		{time.Hour, "Today 15:04"},
		{3 * 24 * time.Hour, "Mon 15:04"},
		{60 * 24 * time.Hour, "Jan 02 15:04"},
		{400 * 24 * time.Hour, "2006-01-02"},
	}
	for _, tt := range tests {
		ts := now.Add(-tt.ago)
		if got, want := formatRelative(ts, now), ts.Format(tt.layout); got != want {
			t.Errorf("formatRelative(-%v) = %q, want %q", tt.ago, got, want)
		}
	}
}

func TestListCommand(t *testing.T) {
	root, sessions := newDataDir(t)
	testutil.WriteSession(t, sessions, "first-session", 1700000000, "hello there")
	testutil.WriteSession(t, sessions, "second-session", 1700005000, "what is go")

	out, err := executeCommand(t, "list", "--storage", root)
	if err != nil {
		t.Fatalf("list error = %v", err)
	}
	for _, want := range []string{"Found 2 session(s)", "first-session", "second-session", "what is go"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "second-session") > strings.Index(out, "first-session") {
		t.Error("newest session should be listed first")
	}
}

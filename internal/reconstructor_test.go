package internal

import (
	"errors"
	"fmt"
	"testing"

	"github.com/iksnae/duckchat/testutil"
)

func TestReconstructor_ReplayRoundTrip(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	store := NewLogStore(dir)
	id := NewSessionID()

	session := NewSession("", TestTime)
	var turns []ChatTurn
	for i := 0; i < 5; i++ {
		turn := NewChatTurn(fmt.Sprintf("prompt %d", i), TestTime)
		records := []interface{}{turn}
		if i == 0 {
			records = []interface{}{session.Metadata, session.System, turn}
		}
		if err := store.Append(id, records...); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
		if i != 3 {
			turn.Response = CreateTestResponse(fmt.Sprintf("answer %d", i))
			if err := store.Append(id, turn); err != nil {
				t.Fatalf("Append() error = %v", err)
			}
		}
		turns = append(turns, turn)
	}

	got, stats, err := NewReconstructor(store).LoadWithStats(id)
	if err != nil {
		t.Fatalf("LoadWithStats() error = %v", err)
	}
	if got.ID != id || got.System.Content != DefaultSystemMessage {
		t.Errorf("session header = %q/%q", got.ID, got.System.Content)
	}
	if len(got.Turns) != len(turns) {
		t.Fatalf("got %d turns, want %d", len(got.Turns), len(turns))
	}
	for i, turn := range got.Turns {
		if turn.ID != turns[i].ID {
			t.Errorf("turn %d id = %s, want %s", i, turn.ID, turns[i].ID)
		}
		if turn.Answered() != (i != 3) {
			t.Errorf("turn %d answered = %v", i, turn.Answered())
		}
	}
	if stats.TurnRecords != 9 || stats.Turns != 5 || stats.Unanswered != 1 || len(stats.Duplicates) != 4 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestReconstructor_Errors(t *testing.T) {
	meta := testutil.MetadataLine(100)
	system := testutil.SystemLine("sys", 100, "be nice")

	tests := []struct {
		name     string
		lines    []string
		write    bool
		wantKind string
		check    func(error) bool
	}{
		{
			name:  "missing file",
			write: false,
			check: IsNotFound,
		},
		{
			name:  "empty file",
			write: true,
			check: func(err error) bool {
				var ee *EmptyFileError
				return errors.As(err, &ee)
			},
		},
		{
			name:     "bad metadata",
			lines:    []string{"not json", system},
			write:    true,
			wantKind: "metadata",
		},
		{
			name:     "missing system line",
			lines:    []string{meta},
			write:    true,
			wantKind: "system",
		},
		{
			name:     "bad system line",
			lines:    []string{meta, "{"},
			write:    true,
			wantKind: "system",
		},
		{
			name:     "bad turn line",
			lines:    []string{meta, system, testutil.PromptLine("t1", 101, "ok"), `{"user_prompt":"no id"}`},
			write:    true,
			wantKind: "turn",
		},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := testutil.CreateTempDir(t)
			id := fmt.Sprintf("s%d", i)
			if tt.write {
				testutil.WriteSessionLog(t, dir, id, tt.lines...)
			}

			_, err := NewReconstructor(NewLogStore(dir)).Load(id)
			if err == nil {
				t.Fatal("Load() should fail")
			}
			if tt.check != nil {
				if !tt.check(err) {
					t.Errorf("Load() error = %v (%T)", err, err)
				}
				return
			}
			var ce *CorruptRecordError
			if !errors.As(err, &ce) {
				t.Fatalf("Load() error = %v, want CorruptRecordError", err)
			}
			if ce.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", ce.Kind, tt.wantKind)
			}
		})
	}
}

func TestReconstructor_HeaderOnlySession(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	testutil.WriteSessionLog(t, dir, "h", testutil.MetadataLine(1), testutil.SystemLine("sys", 1, "x"))

	session, err := NewReconstructor(NewLogStore(dir)).Load("h")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(session.Turns) != 0 {
		t.Errorf("got %d turns, want 0", len(session.Turns))
	}
}

func TestReconstructor_MostRecentTurn(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	testutil.WriteSession(t, dir, "s", 100, "first", "second")
	testutil.WriteSessionLog(t, dir, "h", testutil.MetadataLine(1), testutil.SystemLine("sys", 1, "x"))

	r := NewReconstructor(NewLogStore(dir))
	turn, err := r.MostRecentTurn("s")
	if err != nil {
		t.Fatalf("MostRecentTurn() error = %v", err)
	}
	if turn.UserPrompt != "second" || turn.CreatedTime != 102 {
		t.Errorf("MostRecentTurn() = %+v", turn)
	}

	// the system record decodes but carries no prompt
	header, err := r.MostRecentTurn("h")
	if err != nil || header.UserPrompt != "" {
		t.Errorf("header-only MostRecentTurn() = (%+v, %v)", header, err)
	}

	testutil.WriteSessionLog(t, dir, "m", testutil.MetadataLine(1))
	if _, err := r.MostRecentTurn("m"); !IsCorrupt(err) {
		t.Errorf("metadata-only MostRecentTurn() error = %v, want corrupt", err)
	}
}

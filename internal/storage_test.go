package internal

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/iksnae/duckchat/testutil"
)

func TestLogStore_AppendAndReadAll(t *testing.T) {
	store := NewLogStore(filepath.Join(testutil.CreateTempDir(t), "sessions"))
	id := NewSessionID()

	meta := NewSessionMetadata(TestTime)
	system := NewSystemMessage("", TestTime)
	turn := NewChatTurn("hello", TestTime)

	if err := store.Append(id, meta, system, turn); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	turn.Response = CreateTestResponse("hi")
	if err := store.Append(id, turn); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	lines, err := store.ReadAll(id)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4", len(lines))
	}
	for i, line := range lines {
		if strings.Contains(line, "\n") {
			t.Errorf("line %d contains a newline", i)
		}
	}
	if !strings.Contains(lines[3], `"response"`) {
		t.Errorf("last line should carry the response, got %s", lines[3])
	}
}

func TestLogStore_ReadAllMissing(t *testing.T) {
	store := NewLogStore(testutil.CreateTempDir(t))
	_, err := store.ReadAll("nope")
	if !IsNotFound(err) {
		t.Errorf("ReadAll() error = %v, want NotFoundError", err)
	}
}

func TestLogStore_ReadLastLine(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	store := NewLogStore(dir)
	long := strings.Repeat("x", 3*tailChunkSize)

	tests := []struct {
		name    string
		content string
		want    string
		wantErr bool
	}{
		{"single line", "only\n", "only", false},
		{"no trailing newline", "a\nb", "b", false},
		{"trailing blank lines", "a\nb\n\n\n", "b", false},
		{"crlf", "a\r\nb\r\n", "b", false},
		{"line longer than chunk", "first\n" + long + "\n", long, false},
		{"boundary inside last line", strings.Repeat("y", tailChunkSize-3) + "\nlast\n", "last", false},
		{"record exactly one chunk", "head\n" + strings.Repeat("z", tailChunkSize) + "\n", strings.Repeat("z", tailChunkSize), false},
		{"newline on chunk boundary", strings.Repeat("w", tailChunkSize-1) + "\n" + "tail", "tail", false},
		{"trailing newlines span chunks", "a\nrecord" + strings.Repeat("\n", tailChunkSize+5), "record", false},
		{"multi-megabyte record", "a\n" + strings.Repeat("m", 2<<20) + "\n", strings.Repeat("m", 2<<20), false},
		{"empty file", "", "", true},
		{"only newlines", "\n\n", "", true},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := "tail-" + string(rune('a'+i))
			if err := os.WriteFile(store.SessionPath(id), []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			got, err := store.ReadLastLine(id)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ReadLastLine() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !IsCorrupt(err) {
					t.Errorf("ReadLastLine() error = %T, want EmptyFileError", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("ReadLastLine() = %q (len %d), want len %d", truncate(got), len(got), len(tt.want))
			}
		})
	}
}

// countingReaderAt records how many bytes were requested
type countingReaderAt struct {
	r    *strings.Reader
	read int64
}

func (c *countingReaderAt) ReadAt(p []byte, off int64) (int, error) {
	c.read += int64(len(p))
	return c.r.ReadAt(p, off)
}

func TestScanBackward_ReadsEachByteOnce(t *testing.T) {
	content := "a\n" + strings.Repeat("m", 1<<20)
	r := &countingReaderAt{r: strings.NewReader(content)}

	got, err := scanBackward(r, int64(len(content)), func(b byte) bool { return b == '\n' })
	if err != nil {
		t.Fatal(err)
	}
	if got != 1 {
		t.Errorf("scanBackward() = %d, want 1", got)
	}
	if r.read > int64(len(content)) {
		t.Errorf("read %d bytes for a %d byte file", r.read, len(content))
	}

	if got, _ := scanBackward(r, 0, func(byte) bool { return true }); got != -1 {
		t.Errorf("scanBackward() with no bytes = %d, want -1", got)
	}
}

func TestLogStore_ListAndDelete(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	store := NewLogStore(dir)

	testutil.WriteSession(t, dir, "b", 100, "one")
	testutil.WriteSession(t, dir, "a", 200, "two")
	if err := os.WriteFile(filepath.Join(dir, ".hidden.jsonl"), []byte("{}\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "dir.jsonl"), 0755); err != nil {
		t.Fatal(err)
	}

	ids, err := store.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	sort.Strings(ids)
	if strings.Join(ids, ",") != "a,b" {
		t.Errorf("List() = %v, want [a b]", ids)
	}

	if err := store.Delete("a"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if store.Exists("a") {
		t.Error("session a should be gone")
	}
	if err := store.Delete("a"); !IsNotFound(err) {
		t.Errorf("second Delete() error = %v, want NotFoundError", err)
	}
}

func TestLogStore_ListMissingDir(t *testing.T) {
	store := NewLogStore(filepath.Join(testutil.CreateTempDir(t), "absent"))
	ids, err := store.List()
	if err != nil || len(ids) != 0 {
		t.Errorf("List() = (%v, %v), want empty", ids, err)
	}
}

func TestLogStore_RejectsPathIDs(t *testing.T) {
	store := NewLogStore(testutil.CreateTempDir(t))
	for _, id := range []string{"", ".", "..", "../x", `a\b`} {
		if err := store.Append(id, NewSessionMetadata(TestTime)); err == nil {
			t.Errorf("Append(%q) should fail", id)
		}
		if store.Exists(id) {
			t.Errorf("Exists(%q) should be false", id)
		}
	}
}

func TestLogStore_AppendUnwritable(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	store := NewLogStore(filepath.Join(blocker, "sessions"))

	err := store.Append("s", NewSessionMetadata(TestTime))
	var se *StorageError
	if !errors.As(err, &se) {
		t.Errorf("Append() error = %v, want StorageError", err)
	}
}

func truncate(s string) string {
	if len(s) > 20 {
		return s[:20] + "..."
	}
	return s
}

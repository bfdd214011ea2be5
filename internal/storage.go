package internal

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	sessionFileExt = ".jsonl"
	tailChunkSize  = 4096
	maxRecordSize  = 32 * 1024 * 1024
)

// LogStore reads and appends session logs under a directory.
// It holds no session state between calls.
type LogStore struct {
	dir    string
	remove func(name string) error
}

// NewLogStore creates a LogStore rooted at dir
func NewLogStore(dir string) *LogStore {
	return &LogStore{dir: dir, remove: os.Remove}
}

// NewSessionID generates a fresh session id
func NewSessionID() string {
	return uuid.NewString()
}

// Dir returns the sessions directory
func (s *LogStore) Dir() string {
	return s.dir
}

// EnsureDir ensures the sessions directory exists
func (s *LogStore) EnsureDir() error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return &StorageError{Path: s.dir, Op: "mkdir", Err: err}
	}
	return nil
}

// SessionPath returns the log path for a session id
func (s *LogStore) SessionPath(sessionID string) string {
	return filepath.Join(s.dir, sessionID+sessionFileExt)
}

// Exists reports whether a session has a log file
func (s *LogStore) Exists(sessionID string) bool {
	if !validSessionID(sessionID) {
		return false
	}
	info, err := os.Stat(s.SessionPath(sessionID))
	return err == nil && info.Mode().IsRegular()
}

// Append serializes records as one JSON line each and appends them in a
// single write, then flushes to disk.
func (s *LogStore) Append(sessionID string, records ...interface{}) error {
	if !validSessionID(sessionID) {
		return &StorageError{Path: sessionID, Op: "append", Err: errors.New("invalid session id")}
	}
	if err := s.EnsureDir(); err != nil {
		return err
	}

	var buf bytes.Buffer
	for _, record := range records {
		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("failed to marshal record: %w", err)
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}

	path := s.SessionPath(sessionID)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return &StorageError{Path: path, Op: "append", Err: err}
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		_ = f.Close()
		return &StorageError{Path: path, Op: "append", Err: err}
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return &StorageError{Path: path, Op: "append", Err: err}
	}
	if err := f.Close(); err != nil {
		return &StorageError{Path: path, Op: "append", Err: err}
	}
	return nil
}

// ReadAll returns every line of a session log in file order
func (s *LogStore) ReadAll(sessionID string) ([]string, error) {
	f, err := s.open(sessionID)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRecordSize)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, strings.TrimSuffix(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, &StorageError{Path: f.Name(), Op: "read", Err: err}
	}
	return lines, nil
}

// ReadLastLine returns the final record line. It scans backwards from the
// end for the record's boundaries and then reads the record once, so cost is
// proportional to the last record only.
func (s *LogStore) ReadLastLine(sessionID string) (string, error) {
	f, err := s.open(sessionID)
	if err != nil {
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", &StorageError{Path: f.Name(), Op: "tail", Err: err}
	}

	// last byte of the record, skipping trailing line breaks
	last, err := scanBackward(f, info.Size(), func(b byte) bool { return b != '\n' && b != '\r' })
	if err != nil {
		return "", &StorageError{Path: f.Name(), Op: "tail", Err: err}
	}
	if last < 0 {
		return "", &EmptyFileError{SessionID: sessionID}
	}

	// line break before the record, or -1 when it is the first line
	prev, err := scanBackward(f, last, func(b byte) bool { return b == '\n' })
	if err != nil {
		return "", &StorageError{Path: f.Name(), Op: "tail", Err: err}
	}

	record := make([]byte, last-prev)
	if _, err := f.ReadAt(record, prev+1); err != nil && !errors.Is(err, io.EOF) {
		return "", &StorageError{Path: f.Name(), Op: "tail", Err: err}
	}
	return string(record), nil
}

// scanBackward returns the offset of the last byte before limit for which
// match is true, or -1. It reads tailChunkSize bytes at a time into a single
// reused buffer.
func scanBackward(r io.ReaderAt, limit int64, match func(byte) bool) (int64, error) {
	buf := make([]byte, tailChunkSize)
	offset := limit
	for offset > 0 {
		n := int64(tailChunkSize)
		if n > offset {
			n = offset
		}
		offset -= n

		chunk := buf[:n]
		read, err := r.ReadAt(chunk, offset)
		if err != nil && !(errors.Is(err, io.EOF) && int64(read) == n) {
			return -1, err
		}
		for i := n - 1; i >= 0; i-- {
			if match(chunk[i]) {
				return offset + i, nil
			}
		}
	}
	return -1, nil
}

// List returns the ids of all stored sessions
func (s *LogStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, &StorageError{Path: s.dir, Op: "list", Err: err}
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, sessionFileExt) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, sessionFileExt))
	}
	return ids, nil
}

// Delete removes a session log
func (s *LogStore) Delete(sessionID string) error {
	if !validSessionID(sessionID) {
		return &NotFoundError{SessionID: sessionID}
	}
	path := s.SessionPath(sessionID)
	if err := s.remove(path); err != nil {
		if os.IsNotExist(err) {
			return &NotFoundError{SessionID: sessionID}
		}
		return &StorageError{Path: path, Op: "delete", Err: err}
	}
	return nil
}

func (s *LogStore) open(sessionID string) (*os.File, error) {
	if !validSessionID(sessionID) {
		return nil, &NotFoundError{SessionID: sessionID}
	}
	path := s.SessionPath(sessionID)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{SessionID: sessionID}
		}
		return nil, &StorageError{Path: path, Op: "open", Err: err}
	}
	return f, nil
}

// validSessionID rejects ids that would escape the sessions directory
func validSessionID(id string) bool {
	return id != "" && !strings.ContainsAny(id, `/\`) && id != "." && id != ".."
}

package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/iksnae/duckchat/internal"
)

// JSONLExporter exports sessions in JSONL format (one message per line)
type JSONLExporter struct{}

// Export exports a session to JSONL format
func (e *JSONLExporter) Export(session *internal.Session, w io.Writer) error {
	t, err := transcript(session)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	for _, msg := range t.Messages {
		if err := enc.Encode(msg); err != nil {
			return fmt.Errorf("failed to encode message: %w", err)
		}
	}
	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}

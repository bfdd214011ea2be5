package export

import (
	"encoding/json"
	"io"

	"github.com/iksnae/duckchat/internal"
)

// JSONExporter exports sessions in JSON format (pretty-printed)
type JSONExporter struct{}

// Export exports a session transcript to JSON format
func (e *JSONExporter) Export(session *internal.Session, w io.Writer) error {
	t, err := transcript(session)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(t)
}

// Extension returns the file extension for this format
func (e *JSONExporter) Extension() string {
	return "json"
}

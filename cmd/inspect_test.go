package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/iksnae/duckchat/testutil"
	"gopkg.in/yaml.v3"
)

func writeRewrittenSession(t *testing.T, sessions string) {
	t.Helper()
	testutil.WriteSessionLog(t, sessions, "s1",
		testutil.MetadataLine(1700000000),
		testutil.SystemLine("sys", 1700000000, "You are a helpful assistant"),
		testutil.PromptLine("t1", 1700000001, "hello"),
		testutil.AnsweredLine("t1", 1700000001, "hello", "hi"),
		testutil.PromptLine("t2", 1700000002, "unanswered"),
	)
}

func TestInspectCommand(t *testing.T) {
	root, sessions := newDataDir(t)
	writeRewrittenSession(t, sessions)

	out, err := executeCommand(t, "inspect", "s1", "--storage", root, "--format", "json")
	if err != nil {
		t.Fatalf("inspect error = %v", err)
	}

	var report inspectReport
	testutil.JSONUnmarshal(t, []byte(out), &report)
	if report.Lines != 5 || report.TurnRecords != 3 || report.Turns != 2 || report.Unanswered != 1 {
		t.Errorf("report = %+v", report)
	}
	if report.Duplicates["t1"] != 2 {
		t.Errorf("Duplicates = %v", report.Duplicates)
	}
	if !strings.Contains(report.LastRecord, `"t2"`) {
		t.Errorf("LastRecord = %q", report.LastRecord)
	}
	if report.Active {
		t.Error("session should not be active")
	}
}

func TestInspectCommand_Errors(t *testing.T) {
	root, sessions := newDataDir(t)
	writeRewrittenSession(t, sessions)

	if _, err := executeCommand(t, "inspect", "missing", "--storage", root, "--format", "text"); err == nil {
		t.Error("inspect should fail for a missing session")
	}
	if _, err := executeCommand(t, "inspect", "s1", "--storage", root, "--format", "xml"); err == nil {
		t.Error("inspect should reject an unknown format")
	}
}

func TestWriteInspectReport(t *testing.T) {
	report := &inspectReport{
		SessionID:   "s1",
		Path:        "/tmp/s1.jsonl",
		Lines:       4,
		TurnRecords: 2,
		Turns:       1,
		Duplicates:  map[string]int{"t1": 2},
	}

	var text bytes.Buffer
	if err := writeInspectReport(&text, report, "text"); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Session:      s1", "Turn records: 2", "Rewritten turns:", "t1 x2"} {
		if !strings.Contains(text.String(), want) {
			t.Errorf("text output missing %q:\n%s", want, text.String())
		}
	}

	var out bytes.Buffer
	if err := writeInspectReport(&out, report, "yaml"); err != nil {
		t.Fatal(err)
	}
	var decoded inspectReport
	if err := yaml.Unmarshal(out.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid YAML output: %v", err)
	}
	if decoded.SessionID != "s1" || decoded.Duplicates["t1"] != 2 {
		t.Errorf("decoded = %+v", decoded)
	}
}

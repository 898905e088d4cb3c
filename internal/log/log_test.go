package log

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestInit_FileLogging(t *testing.T) {
	tmpDir := t.TempDir()

	if err := Init(Options{DebugDir: tmpDir, Stderr: &bytes.Buffer{}}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	path := DebugFile()
	if path == "" {
		t.Fatal("DebugFile() is empty with DebugDir set")
	}

	Debug("operation sent", "code", 22)
	Close()

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(content), `"msg":"operation sent"`) {
		t.Errorf("debug file should hold the record as JSON, got: %s", content)
	}
	if DebugFile() != "" {
		t.Error("DebugFile() should be empty after Close")
	}
}

func TestInit_StderrLevels(t *testing.T) {
	tests := []struct {
		name        string
		verbose     bool
		interactive bool
		wantDebug   bool
	}{
		{"quiet", false, false, false},
		{"verbose", true, false, true},
		{"verbose interactive", true, true, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var stderr bytes.Buffer
			if err := Init(Options{
				Verbose:     tc.verbose,
				Interactive: tc.interactive,
				Stderr:      &stderr,
			}); err != nil {
				t.Fatalf("Init failed: %v", err)
			}
			defer Close()

			Debug("debug message")
			Info("info message")
			Warn("warn message")
			Error("error message")

			out := stderr.String()
			if got := strings.Contains(out, "debug message"); got != tc.wantDebug {
				t.Errorf("debug on stderr = %v, want %v", got, tc.wantDebug)
			}
			if got := strings.Contains(out, "info message"); got != tc.wantDebug {
				t.Errorf("info on stderr = %v, want %v", got, tc.wantDebug)
			}
			if !strings.Contains(out, "warn message") || !strings.Contains(out, "error message") {
				t.Errorf("warn and error should always reach stderr, got: %s", out)
			}
		})
	}
}

func TestInit_JSONFormat(t *testing.T) {
	var stderr bytes.Buffer
	if err := Init(Options{JSONFormat: true, Stderr: &stderr}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer Close()

	Warn("connection lost", "addr", "10.0.0.5:7070")
	if !strings.Contains(stderr.String(), `"addr":"10.0.0.5:7070"`) {
		t.Errorf("expected JSON output, got: %s", stderr.String())
	}
}

func TestSession(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)

	SetSession("sess_0123abcd")
	Info("selected")
	ClearSession()
	Info("after")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "session=sess_0123abcd") {
		t.Errorf("first record should carry the session, got: %s", lines[0])
	}
	if strings.Contains(lines[1], "session=") {
		t.Errorf("session should be cleared, got: %s", lines[1])
	}
}

package log

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFileWriter_Write(t *testing.T) {
	tmpDir := t.TempDir()

	fw, err := NewFileWriter(tmpDir)
	if err != nil {
		t.Fatalf("NewFileWriter failed: %v", err)
	}
	defer fw.Close()

	if _, err := fw.Write([]byte(`{"msg":"test"}` + "\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	want := filepath.Join(tmpDir, "hostprobe-"+time.Now().Format("2006-01-02")+".jsonl")
	if fw.Path() != want {
		t.Errorf("Path() = %s, want %s", fw.Path(), want)
	}
	content, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(content), `{"msg":"test"}`) {
		t.Errorf("unexpected content: %s", content)
	}
}

func TestFileWriter_LatestSymlink(t *testing.T) {
	tmpDir := t.TempDir()

	fw, err := NewFileWriter(tmpDir)
	if err != nil {
		t.Fatalf("NewFileWriter failed: %v", err)
	}
	defer fw.Close()

	target, err := os.Readlink(filepath.Join(tmpDir, "latest"))
	if err != nil {
		t.Fatalf("reading symlink: %v", err)
	}
	if want := filepath.Base(fw.Path()); target != want {
		t.Errorf("latest -> %s, want %s", target, want)
	}
}

func TestFileWriter_WriteAfterClose(t *testing.T) {
	fw, err := NewFileWriter(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileWriter failed: %v", err)
	}
	fw.Close()

	if _, err := fw.Write([]byte("x")); err == nil {
		t.Error("expected error writing to a closed FileWriter")
	}
	if err := fw.Close(); err != nil {
		t.Errorf("second Close returned %v", err)
	}
}

func TestCleanup(t *testing.T) {
	tmpDir := t.TempDir()

	day := func(offset int) string {
		return time.Now().AddDate(0, 0, offset).Format("2006-01-02")
	}
	files := map[string]bool{ // name -> should survive
		"hostprobe-" + day(-30) + ".jsonl": false,
		"hostprobe-" + day(-15) + ".jsonl": false,
		"hostprobe-" + day(-2) + ".jsonl":  true,
		"hostprobe-" + day(0) + ".jsonl":   true,
		day(-30) + ".jsonl":                true, // not ours
		"notes.txt":                        true,
	}
	for name := range files {
		if err := os.WriteFile(filepath.Join(tmpDir, name), []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	if removed := Cleanup(tmpDir, 7); removed != 2 {
		t.Errorf("Cleanup removed %d files, want 2", removed)
	}

	for name, survive := range files {
		_, err := os.Stat(filepath.Join(tmpDir, name))
		if exists := err == nil; exists != survive {
			t.Errorf("%s exists = %v, want %v", name, exists, survive)
		}
	}
}

func TestCleanup_MissingDir(t *testing.T) {
	if removed := Cleanup(filepath.Join(t.TempDir(), "nope"), 7); removed != 0 {
		t.Errorf("Cleanup on missing dir removed %d", removed)
	}
}

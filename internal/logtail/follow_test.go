package logtail

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func appendLine(t *testing.T, path, line string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if _, err := f.WriteString(line + "\n"); err != nil {
		t.Fatalf("WriteString: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestFollow_EmitsNewRecordsAtLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pxbrowse.log")
	appendLine(t, path, `time=t level=ERROR msg="before follow"`)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan string, 16)
	done := make(chan error, 1)
	go func() {
		done <- Follow(ctx, path, slog.LevelWarn, func(line string) { got <- line })
	}()

	// the watcher may not be registered yet; keep writing until a record arrives
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	var first string
	for first == "" {
		select {
		case <-tick.C:
			appendLine(t, path, `time=t level=DEBUG msg=noise`)
			appendLine(t, path, `time=t level=WARN msg="load failed" source=A`)
		case first = <-got:
		case <-deadline:
			t.Fatal("no record followed")
		}
	}

	if first != `time=t level=WARN msg="load failed" source=A` {
		t.Fatalf("first record = %q", first)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Follow returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Follow did not stop after cancel")
	}
}

func TestFollow_MissingDirFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "pxbrowse.log")
	if err := Follow(context.Background(), path, slog.LevelInfo, func(string) {}); err == nil {
		t.Fatal("Follow on a missing directory succeeded")
	}
}

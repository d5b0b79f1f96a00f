package logtail

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Follow calls emit for every record at or above minLevel appended to the
// log at path after Follow starts. It blocks until ctx is done. The parent
// directory is watched, so a log that does not exist yet or is recreated is
// picked up from its first line.
func Follow(ctx context.Context, path string, minLevel slog.Level, emit func(string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch log: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch log dir: %w", err)
	}

	t := &tailer{path: filepath.Clean(path), minLevel: minLevel, emit: emit}
	defer t.close()
	t.open(true)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != t.path {
				continue
			}
			switch {
			case event.Has(fsnotify.Create):
				t.close()
				t.open(false)
				t.drain()
			case event.Has(fsnotify.Write):
				t.drain()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch log: %w", err)
		}
	}
}

type tailer struct {
	path     string
	minLevel slog.Level
	emit     func(string)

	file    *os.File
	reader  *bufio.Reader
	partial string
}

func (t *tailer) open(atEnd bool) {
	file, err := os.Open(t.path)
	if err != nil {
		return
	}
	if atEnd {
		if _, err := file.Seek(0, io.SeekEnd); err != nil {
			_ = file.Close()
			return
		}
	}
	t.file = file
	t.reader = bufio.NewReader(file)
	t.partial = ""
}

// drain emits every complete line written since the last drain.
func (t *tailer) drain() {
	if t.file == nil {
		t.open(false)
		if t.file == nil {
			return
		}
	}
	for {
		chunk, err := t.reader.ReadString('\n')
		if err != nil {
			// incomplete line, finish it on the next write
			t.partial += chunk
			return
		}
		line := strings.TrimRight(t.partial+chunk, "\r\n")
		t.partial = ""
		if strings.TrimSpace(line) == "" || Level(line) < t.minLevel {
			continue
		}
		t.emit(line)
	}
}

func (t *tailer) close() {
	if t.file != nil {
		_ = t.file.Close()
		t.file = nil
	}
}

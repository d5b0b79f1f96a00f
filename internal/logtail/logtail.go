package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Read returns at most maxLines records from the end of the log at path,
// skipping records below minLevel. A missing file yields no lines.
func Read(path string, maxLines int, minLevel slog.Level) ([]string, error) {
	if maxLines <= 0 {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	ring := make([]string, maxLines)
	next, count := 0, 0
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" || Level(line) < minLevel {
			continue
		}
		ring[next] = line
		next = (next + 1) % maxLines
		count = min(count+1, maxLines)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	// oldest record sits at next once the ring has wrapped
	start := 0
	if count == maxLines {
		start = next
	}
	lines := make([]string, count)
	for i := range lines {
		lines[i] = ring[(start+i)%maxLines]
	}
	return lines, nil
}

// Level extracts the level of an slog text record. Lines without a
// recognizable level=... attribute count as info.
func Level(line string) slog.Level {
	for _, field := range strings.Fields(line) {
		value, ok := strings.CutPrefix(field, "level=")
		if !ok {
			continue
		}
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(value)); err == nil {
			return lvl
		}
		break
	}
	return slog.LevelInfo
}

package logging

import (
	"strings"
	"sync"
)

const defaultJournalCapacity = 200

// Journal keeps the most recent log lines in memory for the status board.
// It implements zapcore.WriteSyncer.
type Journal struct {
	mu       sync.Mutex
	lines    []string
	capacity int
	total    int
}

// NewJournal creates a journal retaining up to capacity lines.
func NewJournal(capacity int) *Journal {
	if capacity <= 0 {
		capacity = defaultJournalCapacity
	}
	return &Journal{capacity: capacity}
}

// Write appends each newline-terminated entry, evicting the oldest lines.
func (j *Journal) Write(p []byte) (int, error) {
	if j == nil {
		return len(p), nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		j.lines = append(j.lines, line)
		j.total++
	}
	if over := len(j.lines) - j.capacity; over > 0 {
		j.lines = append([]string(nil), j.lines[over:]...)
	}
	return len(p), nil
}

// Sync is a no-op; the journal is memory only.
func (j *Journal) Sync() error { return nil }

// Tail returns up to maxLines recent entries and the number of entries ever written.
func (j *Journal) Tail(maxLines int) ([]string, int) {
	if j == nil || maxLines <= 0 {
		return nil, 0
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	lines := j.lines
	if len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	return append([]string(nil), lines...), j.total
}

package log

import (
	"fmt"
	"io"
	"sync"
)

const defaultBacklogSize = 256

// Backlog is an [io.Writer] that holds the most recent log entries in
// memory until they are flushed with [Backlog.WriteTo].
//
// Each call to [Backlog.Write] is stored as one entry; [log/slog] handlers
// write exactly one record per call. When the backlog is full the oldest
// entry is dropped so Write never blocks and memory stays bounded. This lets
// a program keep logging while a full-screen renderer owns the terminal.
// Safe for concurrent use.
//
// Create instances with [NewBacklog].
type Backlog struct {
	entries [][]byte
	size    int
	start   int
	dropped int
	mu      sync.Mutex
}

// BacklogOption configures a [Backlog].
type BacklogOption func(*Backlog)

// WithCapacity sets how many entries the backlog keeps.
// Values less than 1 are clamped to 1.
func WithCapacity(n int) BacklogOption {
	return func(b *Backlog) {
		if n < 1 {
			n = 1
		}

		b.size = n
	}
}

// NewBacklog creates a [Backlog] with the given options.
// The default capacity is 256 entries.
func NewBacklog(opts ...BacklogOption) *Backlog {
	b := &Backlog{
		size: defaultBacklogSize,
	}
	for _, opt := range opts {
		opt(b)
	}

	b.entries = make([][]byte, 0, b.size)

	return b
}

// Write stores a copy of p as one entry. It always returns len(p), nil.
func (b *Backlog) Write(p []byte) (int, error) {
	entry := make([]byte, len(p))
	copy(entry, p)

	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.entries) < b.size {
		b.entries = append(b.entries, entry)

		return len(p), nil
	}

	// Ring-buffer: overwrite oldest.
	b.entries[b.start] = entry
	b.start = (b.start + 1) % b.size
	b.dropped++

	return len(p), nil
}

// Len returns the number of entries currently held.
func (b *Backlog) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.entries)
}

// Dropped returns how many entries were discarded since the last flush.
func (b *Backlog) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.dropped
}

// Entries returns copies of the held entries, oldest first.
func (b *Backlog) Entries() [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([][]byte, 0, len(b.entries))
	for _, e := range b.ordered() {
		out = append(out, append([]byte(nil), e...))
	}

	return out
}

// WriteTo writes a note about dropped entries, if any, followed by every
// held entry oldest first, and then empties the backlog. It implements
// [io.WriterTo].
func (b *Backlog) WriteTo(w io.Writer) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var total int64

	if b.dropped > 0 {
		n, err := fmt.Fprintf(w, "(%d earlier log entries dropped)\n", b.dropped)
		total += int64(n)

		if err != nil {
			return total, fmt.Errorf("flushing backlog: %w", err)
		}
	}

	for _, e := range b.ordered() {
		n, err := w.Write(e)
		total += int64(n)

		if err != nil {
			return total, fmt.Errorf("flushing backlog: %w", err)
		}
	}

	b.entries = b.entries[:0]
	b.start = 0
	b.dropped = 0

	return total, nil
}

// ordered returns the entries oldest first. The caller must hold mu.
func (b *Backlog) ordered() [][]byte {
	if b.start == 0 {
		return b.entries
	}

	out := make([][]byte, 0, len(b.entries))
	out = append(out, b.entries[b.start:]...)
	out = append(out, b.entries[:b.start]...)

	return out
}

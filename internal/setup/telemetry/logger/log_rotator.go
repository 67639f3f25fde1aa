// Package logger provides the file writer behind the session log files.
package logger

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// LogRotator is an io.WriteCloser over a log file that keeps the file at
// roughly maxLines lines. Once twice that many lines have been written since
// the last rotation, the file is rewritten with only the newest maxLines.
type LogRotator struct {
	file     *os.File
	path     string
	lines    *lineRing
	sinceCut int
	mu       sync.Mutex
}

// Open opens or creates the log file at path.
func Open(path string, maxLines int) (*LogRotator, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("cannot open log file %s: %w", path, err)
	}

	return &LogRotator{
		file:  file,
		path:  path,
		lines: newLineRing(max(1, maxLines)),
	}, nil
}

// Write implements io.Writer.
func (w *LogRotator) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n, err := w.file.Write(p)
	if err != nil {
		return n, err
	}

	for line := range bytes.SplitSeq(bytes.TrimRight(p, "\n"), []byte("\n")) {
		if len(line) == 0 {
			continue
		}

		w.lines.add(string(line))
		w.sinceCut++

		if w.sinceCut >= 2*w.lines.capacity() {
			if err := w.rotate(); err != nil {
				return n, fmt.Errorf("failed to rotate log file: %w", err)
			}
			w.sinceCut = w.lines.len()
		}
	}

	return n, nil
}

// Sync flushes the file.
func (w *LogRotator) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.file.Sync()
}

// Close closes the file.
func (w *LogRotator) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.file.Close()
}

// rotate replaces the file with the buffered lines through a temp file.
func (w *LogRotator) rotate() error {
	temp, err := os.CreateTemp(filepath.Dir(w.path), ".rotate-")
	if err != nil {
		return err
	}

	if err := w.lines.writeTo(temp); err != nil {
		temp.Close()
		os.Remove(temp.Name())
		return err
	}

	if err := temp.Close(); err != nil {
		os.Remove(temp.Name())
		return err
	}

	w.file.Close()

	if err := os.Rename(temp.Name(), w.path); err != nil {
		return err
	}

	file, err := os.OpenFile(w.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	w.file = file

	return nil
}

// lineRing keeps the newest lines written.
type lineRing struct {
	lines []string
	head  int
	size  int
}

func newLineRing(capacity int) *lineRing {
	return &lineRing{lines: make([]string, capacity)}
}

func (r *lineRing) capacity() int { return len(r.lines) }

func (r *lineRing) len() int { return r.size }

func (r *lineRing) add(line string) {
	r.lines[r.head] = line
	r.head = (r.head + 1) % len(r.lines)
	r.size = min(r.size+1, len(r.lines))
}

// writeTo writes the lines oldest first.
func (r *lineRing) writeTo(w io.Writer) error {
	start := (r.head - r.size + len(r.lines)) % len(r.lines)

	var buf bytes.Buffer
	for i := range r.size {
		buf.WriteString(r.lines[(start+i)%len(r.lines)])
		buf.WriteByte('\n')
	}

	_, err := w.Write(buf.Bytes())
	return err
}

// Package logging provides the size-capped file the server tees its log
// output into alongside stdout.
package logging

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

const (
	// DefaultMaxBytes is how large the live file may grow before it is
	// rotated aside.
	DefaultMaxBytes = 10 << 20
	// DefaultBackups is how many rotated files are kept. Older ones are
	// dropped.
	DefaultBackups = 3
)

// LogFile is an io.WriteCloser that rotates itself aside when it grows past
// its size cap. Rotated files carry numeric suffixes, newest first:
// server.log.1, server.log.2, and so on.
type LogFile struct {
	mu       sync.Mutex
	path     string
	maxBytes int64
	backups  int
	f        *os.File
	written  int64
}

// Open appends to the file at path with the default cap and backup count,
// creating parent directories as needed.
func Open(path string) (*LogFile, error) {
	return OpenLimit(path, DefaultMaxBytes, DefaultBackups)
}

// OpenLimit is Open with an explicit size cap and backup count.
func OpenLimit(path string, maxBytes int64, backups int) (*LogFile, error) {
	if path == "" {
		return nil, errors.New("log path is required")
	}
	if maxBytes <= 0 {
		return nil, fmt.Errorf("log size cap must be positive, got %d", maxBytes)
	}
	if backups < 0 {
		backups = 0
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}

	w := &LogFile{path: path, maxBytes: maxBytes, backups: backups, f: f}
	if stat, err := f.Stat(); err == nil {
		w.written = stat.Size()
	}
	return w, nil
}

func (w *LogFile) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.f == nil {
		return 0, os.ErrClosed
	}

	// A single entry larger than the cap still gets written into an empty
	// file rather than rotating forever.
	if w.written > 0 && w.written+int64(len(p)) > w.maxBytes {
		if err := w.rotate(); err != nil {
			return 0, err
		}
	}

	n, err := w.f.Write(p)
	w.written += int64(n)
	return n, err
}

func (w *LogFile) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.f == nil {
		return nil
	}
	err := w.f.Close()
	w.f = nil
	return err
}

func (w *LogFile) rotate() error {
	if err := w.f.Close(); err != nil {
		return err
	}
	w.f = nil

	if w.backups == 0 {
		if err := os.Remove(w.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	} else if err := w.shiftAside(); err != nil {
		return err
	}

	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	w.f = f
	w.written = 0
	return nil
}

// shiftAside renames every kept file one suffix up, dropping whatever falls
// off the end, and ends with the live file parked at .1.
func (w *LogFile) shiftAside() error {
	for idx := w.backups; idx >= 1; idx-- {
		src := w.path
		if idx > 1 {
			src = fmt.Sprintf("%s.%d", w.path, idx-1)
		}
		if _, err := os.Stat(src); errors.Is(err, fs.ErrNotExist) {
			continue
		} else if err != nil {
			return err
		}

		dst := fmt.Sprintf("%s.%d", w.path, idx)
		if err := os.Remove(dst); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		if err := os.Rename(src, dst); err != nil {
			return err
		}
	}
	return nil
}

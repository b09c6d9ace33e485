package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
)

// FileSink appends each write to a file while holding an exclusive advisory
// lock, so concurrent processes never interleave partial lines. The file and
// its directory are created on first write.
type FileSink struct {
	path string
	lock *flock.Flock

	mu      sync.Mutex
	written bool
}

// NewFileSink returns a sink appending to path. The lock lives next to it.
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path, lock: flock.New(path + ".lock")}
}

// Path is the file being appended to.
func (s *FileSink) Path() string { return s.path }

// Written reports whether anything has been appended through this sink.
func (s *FileSink) Written() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.written
}

func (s *FileSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return 0, fmt.Errorf("create log directory: %w", err)
	}
	if err := s.lock.Lock(); err != nil {
		return 0, fmt.Errorf("lock log file: %w", err)
	}
	defer func() { _ = s.lock.Unlock() }()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return 0, err
	}
	n, err := f.Write(p)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if n > 0 {
		s.written = true
	}
	return n, err
}

// Sync is a no-op; every Write closes the file.
func (s *FileSink) Sync() error { return nil }

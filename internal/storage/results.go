package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
)

// ResultFile is an append-only results file. An advisory lock on
// "<path>.lock" is held from Open until Close, so concurrent benchmark
// processes never interleave their rows or both write a header.
type ResultFile struct {
	path  string
	file  *os.File
	lock  *flock.Flock
	fresh bool
	mu    sync.Mutex
}

func OpenResultFile(path string) (*ResultFile, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return nil, fmt.Errorf("locking %s: %w", path, err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		lock.Unlock()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	return &ResultFile{
		path:  path,
		file:  f,
		lock:  lock,
		fresh: info.Size() == 0,
	}, nil
}

func (rf *ResultFile) Path() string { return rf.path }

// Fresh reports whether the file was empty or missing when it was opened.
func (rf *ResultFile) Fresh() bool { return rf.fresh }

func (rf *ResultFile) Write(p []byte) (int, error) {
	rf.mu.Lock()
	defer rf.mu.Unlock()
	return rf.file.Write(p)
}

func (rf *ResultFile) Close() error {
	rf.mu.Lock()
	defer rf.mu.Unlock()

	syncErr := rf.file.Sync()
	closeErr := rf.file.Close()
	unlockErr := rf.lock.Unlock()

	switch {
	case syncErr != nil:
		return fmt.Errorf("syncing %s: %w", rf.path, syncErr)
	case closeErr != nil:
		return fmt.Errorf("closing %s: %w", rf.path, closeErr)
	case unlockErr != nil:
		return fmt.Errorf("unlocking %s: %w", rf.path, unlockErr)
	}
	return nil
}

package util

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another process holds the job lock.
var ErrLocked = errors.New("another gameshelf batch job is running")

// JobLock is an exclusive, non-blocking file lock.
type JobLock struct {
	lock *flock.Flock
}

// AcquireLock takes the lock at path, creating its directory. It fails fast
// with ErrLocked rather than waiting.
func AcquireLock(path string) (*JobLock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	l := flock.New(path)
	ok, err := l.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (lock %s)", ErrLocked, path)
	}
	return &JobLock{lock: l}, nil
}

// Release drops the lock.
func (j *JobLock) Release() error {
	if j == nil {
		return nil
	}
	return j.lock.Unlock()
}

package runstore

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

const lockFileName = ".run.lock"

// ErrLocked reports that another process holds the run directory.
var ErrLocked = errors.New("run directory is locked")

// RunLock is an exclusive advisory lock on one run directory.
type RunLock struct {
	lock *flock.Flock
}

// AcquireRunLock takes the lock without blocking.
func AcquireRunLock(runDir string) (*RunLock, error) {
	target := strings.TrimSpace(runDir)
	if target == "" {
		return nil, fmt.Errorf("run directory is required")
	}
	if err := Mkdir(target); err != nil {
		return nil, err
	}
	lock := flock.New(filepath.Join(target, lockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock for %s: %w", target, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, target)
	}
	return &RunLock{lock: lock}, nil
}

// Release drops the lock. Safe on nil.
func (l *RunLock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("release run lock %s: %w", l.lock.Path(), err)
	}
	return nil
}

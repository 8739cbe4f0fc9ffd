package system

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// Locker acquires an exclusive lock identified by a path. The returned
// function releases it.
type Locker interface {
	Lock(path string) (func() error, error)
}

// FileLock takes an flock(2) exclusive lock, blocking until any other holder
// releases it.
type FileLock struct{}

// Lock opens (creating if needed) path and locks it exclusively
func (FileLock) Lock(path string) (func() error, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file %s: %w", path, err)
	}

	for {
		err = unix.Flock(int(f.Fd()), unix.LOCK_EX)
		if err != unix.EINTR {
			break
		}
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}

	return func() error {
		unlockErr := unix.Flock(int(f.Fd()), unix.LOCK_UN)
		closeErr := f.Close()
		if unlockErr != nil {
			return fmt.Errorf("failed to unlock %s: %w", path, unlockErr)
		}
		return closeErr
	}, nil
}

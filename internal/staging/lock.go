package staging

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrBuildInProgress is returned by Lock while another build holds the staging directory.
var ErrBuildInProgress = errors.New("another build is using the staging directory")

// Lock guards the staging directory against overlapping builds, including
// builds from other processes.
type Lock struct {
	fl *flock.Flock
}

// LockPath is the lock file used for the staging directory. It sits next to
// the buffer so clearing never removes it.
func (m *Manager) LockPath() string { return m.buffer + ".lock" }

// Lock acquires the staging lock without blocking.
func (m *Manager) Lock() (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(m.buffer), 0o750); err != nil {
		return nil, fmt.Errorf("create staging parent: %w", err)
	}
	fl := flock.New(m.LockPath())
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire staging lock %s: %w", m.LockPath(), err)
	}
	if !ok {
		return nil, ErrBuildInProgress
	}
	return &Lock{fl: fl}, nil
}

// Unlock releases the lock. Safe to call on a nil Lock.
func (l *Lock) Unlock() error {
	if l == nil || l.fl == nil {
		return nil
	}
	return l.fl.Unlock()
}

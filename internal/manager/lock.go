package manager

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/Justype/simmaker/internal/simulation"
	"github.com/Justype/simmaker/internal/utils"
)

// LockFile guards a simulations folder, relative to its configuration directory
const LockFile = "lock"

// ErrFolderLocked indicates a simulations folder in use by another process
var ErrFolderLocked = errors.New("simulations folder is in use")

// Lock is a flock on a simulations folder.
// It must be closed to release the lock.
type Lock struct {
	file *os.File
}

// AcquireLock locks the folder without blocking: exclusively to add
// simulations (write), shared to only read the repository.
func AcquireLock(folder *simulation.Folder, write bool) (*Lock, error) {
	path := folder.ConfPath(LockFile)
	if err := os.MkdirAll(folder.ConfPath(), utils.PermDir); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, utils.PermFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock %s: %w", path, err)
	}

	how := syscall.LOCK_SH
	if write {
		how = syscall.LOCK_EX
	}
	if err := syscall.Flock(int(f.Fd()), how|syscall.LOCK_NB); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %s", ErrFolderLocked, utils.StylePath(folder.Path))
	}
	return &Lock{file: f}, nil
}

// Close releases the lock.
func (l *Lock) Close() error {
	if l.file == nil {
		return nil
	}
	// Closing the file releases the flock
	err := l.file.Close()
	l.file = nil
	return err
}

// IsFolderLocked checks if an error comes from a folder already locked
func IsFolderLocked(err error) bool {
	return errors.Is(err, ErrFolderLocked)
}

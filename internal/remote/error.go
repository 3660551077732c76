package remote

import (
	"errors"
	"fmt"
)

var (
	// ErrRemotePathNotFound indicates a remote file or directory that does not exist
	ErrRemotePathNotFound = errors.New("remote path not found")

	// ErrNotOpen indicates an operation on a remote folder that was not opened
	ErrNotOpen = errors.New("remote folder is not open")
)

// RemotePathNotFoundError carries the missing remote path
type RemotePathNotFoundError struct {
	Path string
}

func (e *RemotePathNotFoundError) Error() string {
	return fmt.Sprintf("remote path not found: %s", e.Path)
}

func (e *RemotePathNotFoundError) Is(target error) bool {
	return target == ErrRemotePathNotFound
}

// ExecutionError is returned when a remote script exits with an error
type ExecutionError struct {
	Path   string
	Stderr string
	Err    error
}

func (e *ExecutionError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("failed to execute %s: %v\n%s", e.Path, e.Err, e.Stderr)
	}
	return fmt.Sprintf("failed to execute %s: %v", e.Path, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// NewRemotePathNotFoundError creates a new RemotePathNotFoundError
func NewRemotePathNotFoundError(path string) *RemotePathNotFoundError {
	return &RemotePathNotFoundError{Path: path}
}

// IsRemotePathNotFound checks if an error is a RemotePathNotFoundError
func IsRemotePathNotFound(err error) bool {
	return errors.Is(err, ErrRemotePathNotFound)
}

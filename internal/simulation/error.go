package simulation

import (
	"errors"
	"fmt"
)

var (
	// ErrSettingNotFound indicates a global setting name that the folder does not declare
	ErrSettingNotFound = errors.New("setting not found")

	// ErrFolderNotFound indicates a path without a simulations configuration
	ErrFolderNotFound = errors.New("simulations folder not found")

	// ErrIncompatibleFolder indicates a folder requiring a newer simmaker
	ErrIncompatibleFolder = errors.New("incompatible simulations folder")
)

// SettingNotFoundError carries the unknown global setting name
type SettingNotFoundError struct {
	Key string
}

func (e *SettingNotFoundError) Error() string {
	return fmt.Sprintf("the key %q does not exist in the global settings", e.Key)
}

func (e *SettingNotFoundError) Is(target error) bool {
	return target == ErrSettingNotFound
}

// FolderNotFoundError is returned when the settings file of a folder is missing
type FolderNotFoundError struct {
	Path string
}

func (e *FolderNotFoundError) Error() string {
	return fmt.Sprintf("no simulations folder at %s (missing %s)", e.Path, SettingsFile)
}

func (e *FolderNotFoundError) Is(target error) bool {
	return target == ErrFolderNotFound
}

// IncompatibleFolderError is returned when a folder declares a min_version above ours
type IncompatibleFolderError struct {
	Path       string
	MinVersion string
	Version    string
}

func (e *IncompatibleFolderError) Error() string {
	return fmt.Sprintf("folder %s requires simmaker %s or later (running %s)", e.Path, e.MinVersion, e.Version)
}

func (e *IncompatibleFolderError) Is(target error) bool {
	return target == ErrIncompatibleFolder
}

// NewSettingNotFoundError creates a new SettingNotFoundError
func NewSettingNotFoundError(key string) *SettingNotFoundError {
	return &SettingNotFoundError{Key: key}
}

// IsSettingNotFound checks if an error is a SettingNotFoundError
func IsSettingNotFound(err error) bool {
	return errors.Is(err, ErrSettingNotFound)
}

// IsFolderNotFound checks if an error is a FolderNotFoundError
func IsFolderNotFound(err error) bool {
	return errors.Is(err, ErrFolderNotFound)
}

// IsIncompatibleFolder checks if an error is an IncompatibleFolderError
func IsIncompatibleFolder(err error) bool {
	return errors.Is(err, ErrIncompatibleFolder)
}

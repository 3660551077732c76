package maker

import (
	"errors"
	"fmt"
)

// ErrScriptNotFound indicates launch coordinates matching no generated script
var ErrScriptNotFound = errors.New("script to launch not found")

// ScriptNotFoundError carries the coordinates that could not be resolved
type ScriptNotFoundError struct {
	Coords ScriptCoords
}

func (e *ScriptNotFoundError) Error() string {
	return fmt.Sprintf("script to launch not found: %s (skeleton %d, script %d)", e.Coords.Name, e.Coords.Skeleton, e.Coords.Script)
}

func (e *ScriptNotFoundError) Is(target error) bool {
	return target == ErrScriptNotFound
}

// NewScriptNotFoundError creates a new ScriptNotFoundError
func NewScriptNotFoundError(coords ScriptCoords) *ScriptNotFoundError {
	return &ScriptNotFoundError{Coords: coords}
}

// IsScriptNotFound checks if an error is a ScriptNotFoundError
func IsScriptNotFound(err error) bool {
	return errors.Is(err, ErrScriptNotFound)
}

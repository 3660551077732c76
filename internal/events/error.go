package events

import (
	"errors"
	"fmt"
)

// ErrUnknownEvent indicates an event name outside the catalogue
var ErrUnknownEvent = errors.New("unknown event")

// UnknownEventError carries the rejected event name
type UnknownEventError struct {
	Name string
}

func (e *UnknownEventError) Error() string {
	return fmt.Sprintf("unknown event %q", e.Name)
}

func (e *UnknownEventError) Is(target error) bool {
	return target == ErrUnknownEvent
}

// IsUnknownEvent checks if an error is an UnknownEventError
func IsUnknownEvent(err error) bool {
	return errors.Is(err, ErrUnknownEvent)
}

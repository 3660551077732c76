package scheduler

import (
	"errors"
	"fmt"
)

// ErrUnknownScheduler indicates a scheduler name simmaker does not support
var ErrUnknownScheduler = errors.New("unknown scheduler")

// UnknownSchedulerError carries the rejected scheduler name
type UnknownSchedulerError struct {
	Name string
}

func (e *UnknownSchedulerError) Error() string {
	return fmt.Sprintf("unknown scheduler %q (supported: SLURM, PBS, LSF, HTCondor)", e.Name)
}

func (e *UnknownSchedulerError) Is(target error) bool {
	return target == ErrUnknownScheduler
}

// IsUnknownScheduler checks if an error is an UnknownSchedulerError
func IsUnknownScheduler(err error) bool {
	return errors.Is(err, ErrUnknownScheduler)
}

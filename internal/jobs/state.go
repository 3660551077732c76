// Package jobs tracks the state of the jobs submitted for a round.
package jobs

import (
	"fmt"
	"strings"
)

// State is the scheduler-independent state of a job
type State int

const (
	Waiting State = iota
	Running
	Succeed
	Failed
)

var stateNames = map[State]string{
	Waiting: "waiting",
	Running: "running",
	Succeed: "succeed",
	Failed:  "failed",
}

// Aliases accepted in state messages, on top of the canonical names
var stateAliases = map[string]State{
	"waiting":   Waiting,
	"pending":   Waiting,
	"queued":    Waiting,
	"running":   Running,
	"succeed":   Succeed,
	"succeeded": Succeed,
	"success":   Succeed,
	"completed": Succeed,
	"failed":    Failed,
	"fail":      Failed,
	"error":     Failed,
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// IsTerminal reports whether a job in this state will not change anymore.
func (s State) IsTerminal() bool {
	return s == Succeed || s == Failed
}

// States lists every state in lifecycle order.
func States() []State {
	return []State{Waiting, Running, Succeed, Failed}
}

// ParseState converts a case-insensitive state name.
func ParseState(raw string) (State, error) {
	if s, ok := stateAliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return s, nil
	}
	return Waiting, fmt.Errorf("invalid job state %q", raw)
}

package jobs

import (
	"context"
	"fmt"
	"strings"
)

// Update reports the state of one job
type Update struct {
	ID    string
	State State
}

// StateChannel delivers job state updates.
// Poll returns the updates received since the previous call; a channel
// re-reading a whole file may return the same updates again.
type StateChannel interface {
	Poll(ctx context.Context) ([]Update, error)
}

// ParseUpdate parses a "<job id>: <state>" message.
func ParseUpdate(line string) (Update, error) {
	i := strings.LastIndex(line, ":")
	if i < 0 {
		return Update{}, fmt.Errorf("invalid job state message %q (expected \"<id>: <state>\")", line)
	}
	id := strings.TrimSpace(line[:i])
	if id == "" {
		return Update{}, fmt.Errorf("invalid job state message %q (empty job id)", line)
	}
	state, err := ParseState(line[i+1:])
	if err != nil {
		return Update{}, err
	}
	return Update{ID: id, State: state}, nil
}

// FormatUpdate is the inverse of ParseUpdate.
func FormatUpdate(u Update) string {
	return fmt.Sprintf("%s: %s", u.ID, u.State)
}

package jobs

import (
	"context"
	"fmt"
)

// Manager follows the states of a set of jobs through a state channel.
type Manager struct {
	ids     []string
	states  map[string]State
	channel StateChannel
}

// NewManager creates an empty jobs manager.
func NewManager() *Manager {
	return &Manager{states: make(map[string]State)}
}

// Add registers jobs in the Waiting state; known ids are ignored.
func (m *Manager) Add(ids ...string) {
	for _, id := range ids {
		if _, ok := m.states[id]; ok {
			continue
		}
		m.ids = append(m.ids, id)
		m.states[id] = Waiting
	}
}

// Bind sets the channel Refresh reads updates from.
func (m *Manager) Bind(ch StateChannel) {
	m.channel = ch
}

// Refresh applies the pending updates; updates for unknown jobs are ignored.
func (m *Manager) Refresh(ctx context.Context) error {
	if m.channel == nil {
		return fmt.Errorf("no job state channel bound")
	}
	updates, err := m.channel.Poll(ctx)
	if err != nil {
		return err
	}
	for _, u := range updates {
		if _, ok := m.states[u.ID]; ok {
			m.states[u.ID] = u.State
		}
	}
	return nil
}

// ByState partitions the job ids by state, in registration order.
// Every state is present, possibly with no id.
func (m *Manager) ByState() map[State][]string {
	out := make(map[State][]string, len(stateNames))
	for _, s := range States() {
		out[s] = []string{}
	}
	for _, id := range m.ids {
		s := m.states[id]
		out[s] = append(out[s], id)
	}
	return out
}

// Jobs returns the registered ids, in registration order.
func (m *Manager) Jobs() []string {
	out := make([]string, len(m.ids))
	copy(out, m.ids)
	return out
}

// Clear forgets every job and unbinds the channel.
func (m *Manager) Clear() {
	m.ids = nil
	m.states = make(map[string]State)
	m.channel = nil
}

// Package manager is the local repository of generated simulations.
package manager

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/Justype/simmaker/internal/simulation"
	"github.com/Justype/simmaker/internal/utils"
	"gopkg.in/yaml.v3"
)

// IndexFile lists the simulations of a folder, relative to its configuration directory
const IndexFile = "simulations.yaml"

// Entry describes one stored simulation
type Entry struct {
	Settings []map[string]any `yaml:"settings"`
	Added    time.Time        `yaml:"added"`
}

// Manager stores accepted simulations under <folder>/<identity>
type Manager struct {
	folder   *simulation.Folder
	index    map[string]Entry
	checkers []Checker
	dirty    bool
}

// Open loads the index of a simulations folder.
func Open(folder *simulation.Folder, checkers ...Checker) (*Manager, error) {
	if len(checkers) == 0 {
		checkers = DefaultCheckers()
	}
	m := &Manager{folder: folder, index: make(map[string]Entry), checkers: checkers}

	data, err := os.ReadFile(m.indexPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return m, nil
		}
		return nil, fmt.Errorf("failed to read simulations index: %w", err)
	}
	if err := yaml.Unmarshal(data, &m.index); err != nil {
		return nil, fmt.Errorf("failed to parse simulations index %s: %w", m.indexPath(), err)
	}
	if m.index == nil {
		m.index = make(map[string]Entry)
	}
	return m, nil
}

func (m *Manager) indexPath() string {
	return m.folder.ConfPath(IndexFile)
}

// Count returns the number of stored simulations.
func (m *Manager) Count() int {
	return len(m.index)
}

// Identities returns the stored identities, sorted.
func (m *Manager) Identities() []string {
	ids := make([]string, 0, len(m.index))
	for id := range m.index {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Path returns where the simulation is stored (whether or not it exists).
func (m *Manager) Path(sim *simulation.Simulation) (string, error) {
	id, err := Identity(sim)
	if err != nil {
		return "", err
	}
	return filepath.Join(m.folder.Path, id), nil
}

// Exists reports whether the simulation is in the repository.
func (m *Manager) Exists(sim *simulation.Simulation) (bool, error) {
	id, err := Identity(sim)
	if err != nil {
		return false, err
	}
	_, ok := m.index[id]
	return ok, nil
}

// BatchExists returns the simulations absent from the repository, in input order.
// onProgress, if set, is called once per simulation.
func (m *Manager) BatchExists(sims []*simulation.Simulation, onProgress func()) ([]*simulation.Simulation, error) {
	var unknown []*simulation.Simulation
	for _, sim := range sims {
		ok, err := m.Exists(sim)
		if err != nil {
			return nil, err
		}
		if !ok {
			unknown = append(unknown, sim)
		}
		if onProgress != nil {
			onProgress()
		}
	}
	return unknown, nil
}

// BatchIntegrate checks each downloaded simulation, moves accepted ones into
// the repository and returns how many were rejected.
func (m *Manager) BatchIntegrate(sims []*simulation.Simulation, onProgress func()) (int, error) {
	rejected := 0
	for _, sim := range sims {
		ok, err := m.integrate(sim)
		if err != nil {
			return rejected, err
		}
		if !ok {
			rejected++
		}
		if onProgress != nil {
			onProgress()
		}
	}

	if m.dirty {
		if err := m.save(); err != nil {
			return rejected, err
		}
	}
	return rejected, nil
}

func (m *Manager) integrate(sim *simulation.Simulation) (bool, error) {
	for _, check := range m.checkers {
		if err := check(sim); err != nil {
			utils.PrintDebug("Rejected simulation %s: %v", utils.StyleCommand(sim.CommandLine()), err)
			return false, nil
		}
	}

	id, err := Identity(sim)
	if err != nil {
		return false, err
	}
	if _, ok := m.index[id]; ok {
		return true, nil
	}

	dest := filepath.Join(m.folder.Path, id)
	if err := os.RemoveAll(dest); err != nil {
		return false, err
	}
	if err := utils.MoveDir(sim.Folder(), dest); err != nil {
		return false, fmt.Errorf("failed to store simulation %s: %w", id, err)
	}

	m.index[id] = Entry{Settings: sim.Settings(), Added: time.Now().UTC()}
	m.dirty = true
	sim.SetFolder(dest)
	return true, nil
}

func (m *Manager) save() error {
	data, err := yaml.Marshal(m.index)
	if err != nil {
		return fmt.Errorf("failed to encode simulations index: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(m.indexPath()), utils.PermDir); err != nil {
		return err
	}
	tmp := m.indexPath() + ".tmp"
	if err := os.WriteFile(tmp, data, utils.PermFile); err != nil {
		return fmt.Errorf("failed to write simulations index: %w", err)
	}
	if err := os.Rename(tmp, m.indexPath()); err != nil {
		return err
	}
	m.dirty = false
	return nil
}

// Close saves the index if it changed.
func (m *Manager) Close() error {
	if !m.dirty {
		return nil
	}
	return m.save()
}

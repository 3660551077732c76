// Package simulation resolves the settings of a simulation from its folder
// declarations and the user's values, and renders its command line.
package simulation

import (
	"fmt"
	"strings"

	"github.com/tiendc/go-deepcopy"
)

// OutputSetting is the global setting holding where a job writes a simulation's outputs
const OutputSetting = "folder"

// Setting is one resolved member of a settings set instance
type Setting struct {
	Name    string
	Value   any
	Exclude bool   // Left out of Settings() and so of the simulation identity
	Pattern string // Rendering of the setting on the command line
	Set     string
	Namer   NamerDeclaration
}

// GlobalSetting is a resolved simulation-wide value
type GlobalSetting struct {
	Name  string
	Value any
}

// Simulation is identified by its resolved settings.
// Resolution happens once, in New.
type Simulation struct {
	conf *Folder
	user UserSettings

	globals   []GlobalSetting
	instances [][]Setting

	folder string // Local directory holding the generated outputs
}

// New resolves a simulation from the folder declarations and user values.
func New(conf *Folder, user UserSettings) (*Simulation, error) {
	s := &Simulation{conf: conf, user: user}

	s.buildGlobalSettings()
	if err := s.buildInstances(); err != nil {
		return nil, err
	}

	for i := range s.instances {
		for j := range s.instances[i] {
			s.instances[i][j].Value = ParseString(s.instances[i][j].Value, s.ReducedSettings(), s.ReducedGlobalSettings())
		}
	}
	for i := range s.globals {
		s.globals[i].Value = ParseString(s.globals[i].Value, s.ReducedSettings(), s.ReducedGlobalSettings())
	}

	return s, nil
}

// NewBatch resolves one simulation per user settings document.
func NewBatch(conf *Folder, users []UserSettings) ([]*Simulation, error) {
	sims := make([]*Simulation, 0, len(users))
	for i, u := range users {
		sim, err := New(conf, u)
		if err != nil {
			return nil, fmt.Errorf("simulation %d: %w", i, err)
		}
		sims = append(sims, sim)
	}
	return sims, nil
}

func (s *Simulation) buildGlobalSettings() {
	s.globals = make([]GlobalSetting, 0, len(s.conf.Settings.GlobalSettings))
	for _, d := range s.conf.Settings.GlobalSettings {
		value := d.Default
		if v, ok := s.user.Globals[d.Name]; ok {
			value = v
		}
		s.globals = append(s.globals, GlobalSetting{Name: d.Name, Value: cloneValue(value)})
	}
}

func (s *Simulation) buildInstances() error {
	s.instances = nil
	for _, set := range s.conf.Settings.Settings {
		defaults := make([]Setting, 0, len(set.Settings))
		for _, d := range set.Settings {
			pattern := d.Pattern
			if pattern == "" {
				pattern = s.conf.Settings.SettingPattern
			}
			defaults = append(defaults, Setting{
				Name:    d.Name,
				Value:   cloneValue(d.Default),
				Exclude: d.Exclude,
				Pattern: pattern,
				Set:     set.Set,
				Namer:   d.Namer,
			})
		}

		var valueSets []map[string]any
		for _, vs := range s.user.Sets {
			if vs.Set == set.Set {
				valueSets = append(valueSets, vs.Settings)
			}
		}

		if len(valueSets) == 0 {
			if set.Required {
				s.instances = append(s.instances, defaults)
			}
			continue
		}

		for _, values := range valueSets {
			var instance []Setting
			if err := deepcopy.Copy(&instance, defaults); err != nil {
				return fmt.Errorf("failed to copy defaults of set %q: %w", set.Set, err)
			}
			for i := range instance {
				if v, ok := values[instance[i].Name]; ok {
					instance[i].Value = cloneValue(v)
				}
			}
			s.instances = append(s.instances, instance)
		}
	}
	return nil
}

// Conf returns the folder declarations the simulation was resolved from.
func (s *Simulation) Conf() *Folder {
	return s.conf
}

// User returns the user settings the simulation was resolved from.
func (s *Simulation) User() UserSettings {
	return s.user
}

// GlobalSettings returns a copy of the resolved global settings, in declaration order.
func (s *Simulation) GlobalSettings() []GlobalSetting {
	out := make([]GlobalSetting, len(s.globals))
	copy(out, s.globals)
	return out
}

// Instances returns a copy of the resolved settings set instances.
func (s *Simulation) Instances() [][]Setting {
	out := make([][]Setting, len(s.instances))
	for i, inst := range s.instances {
		out[i] = make([]Setting, len(inst))
		copy(out[i], inst)
	}
	return out
}

// ReducedGlobalSettings maps each global setting name to its value.
func (s *Simulation) ReducedGlobalSettings() map[string]any {
	out := make(map[string]any, len(s.globals))
	for _, g := range s.globals {
		out[g.Name] = g.Value
	}
	return out
}

// Settings returns one name -> value map per instance, without excluded settings.
func (s *Simulation) Settings() []map[string]any {
	out := make([]map[string]any, 0, len(s.instances))
	for _, inst := range s.instances {
		m := make(map[string]any, len(inst))
		for _, setting := range inst {
			if !setting.Exclude {
				m[setting.Name] = setting.Value
			}
		}
		out = append(out, m)
	}
	return out
}

// ReducedSettings merges Settings() into one map; later instances win.
func (s *Simulation) ReducedSettings() map[string]any {
	out := make(map[string]any)
	for _, m := range s.Settings() {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

// SettingsAsStrings renders every setting, excluded ones included, through its
// pattern. Settings declaring a namer are rendered under their display name.
func (s *Simulation) SettingsAsStrings() [][]string {
	setTotals := make(map[string]int)
	nameTotals := make(map[string]int)
	for _, inst := range s.instances {
		if len(inst) > 0 {
			setTotals[inst[0].Set]++
		}
		for _, setting := range inst {
			nameTotals[setting.Name]++
		}
	}

	setIndexes := make(map[string]int)
	nameIndexes := make(map[string]int)
	out := make([][]string, 0, len(s.instances))
	for _, inst := range s.instances {
		var local int
		if len(inst) > 0 {
			local = setIndexes[inst[0].Set]
			setIndexes[inst[0].Set]++
		}
		strs := make([]string, 0, len(inst))
		for _, setting := range inst {
			name := setting.Namer.displayName(setting.Name,
				position{index: local, total: setTotals[setting.Set]},
				position{index: nameIndexes[setting.Name], total: nameTotals[setting.Name]},
			)
			nameIndexes[setting.Name]++
			strs = append(strs, renderPattern(setting.Pattern, name, setting.Value))
		}
		out = append(out, strs)
	}
	return out
}

// CommandLine is the folder executable followed by every rendered setting.
func (s *Simulation) CommandLine() string {
	parts := []string{s.conf.Settings.Exec}
	for _, strs := range s.SettingsAsStrings() {
		parts = append(parts, strs...)
	}
	return strings.Join(parts, " ")
}

// Get returns the value of a global setting.
func (s *Simulation) Get(name string) (any, error) {
	for _, g := range s.globals {
		if g.Name == name {
			return g.Value, nil
		}
	}
	return nil, NewSettingNotFoundError(name)
}

// Set overwrites the value of a global setting.
// Tags in the new value are not resolved and dependent settings are not updated.
func (s *Simulation) Set(name string, value any) error {
	for i := range s.globals {
		if s.globals[i].Name == name {
			s.globals[i].Value = value
			return nil
		}
	}
	return NewSettingNotFoundError(name)
}

// OutputPath returns the text of the "folder" global setting, or "" when
// undeclared or null.
func (s *Simulation) OutputPath() string {
	v, err := s.Get(OutputSetting)
	if err != nil || v == nil {
		return ""
	}
	return valueText(v)
}

// Folder returns the local directory holding the simulation outputs ("" until downloaded).
func (s *Simulation) Folder() string {
	return s.folder
}

// SetFolder binds the simulation to a local output directory.
func (s *Simulation) SetFolder(path string) {
	s.folder = path
}

// Clone returns an independent copy sharing only the folder declarations.
func (s *Simulation) Clone() *Simulation {
	c := &Simulation{conf: s.conf, user: s.user, folder: s.folder}
	c.globals = make([]GlobalSetting, len(s.globals))
	for i, g := range s.globals {
		c.globals[i] = GlobalSetting{Name: g.Name, Value: cloneValue(g.Value)}
	}
	c.instances = make([][]Setting, len(s.instances))
	for i, inst := range s.instances {
		c.instances[i] = make([]Setting, len(inst))
		for j, setting := range inst {
			setting.Value = cloneValue(setting.Value)
			c.instances[i][j] = setting
		}
	}
	return c
}

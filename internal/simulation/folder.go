package simulation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

const (
	// ConfDir is the configuration directory inside a simulations folder
	ConfDir = ".simulations.conf"

	// SettingsFile is the folder settings file, relative to the folder root
	SettingsFile = ConfDir + "/settings.yaml"

	// DefaultSettingPattern renders a setting as a long command-line option
	DefaultSettingPattern = "--{name}={value}"
)

// GlobalSettingDeclaration declares a simulation-wide value and its default
type GlobalSettingDeclaration struct {
	Name    string `yaml:"name"`
	Default any    `yaml:"default"`
}

// SettingDeclaration declares one member of a settings set
type SettingDeclaration struct {
	Name    string           `yaml:"name"`
	Default any              `yaml:"default"`
	Exclude bool             `yaml:"exclude"`
	Pattern string           `yaml:"pattern"`
	Namer   NamerDeclaration `yaml:"namer"`
}

// SetDeclaration declares a named, possibly repeated, group of settings
type SetDeclaration struct {
	Set      string               `yaml:"set"`
	Required bool                 `yaml:"required"`
	Settings []SettingDeclaration `yaml:"settings"`
}

// OutputDeclaration names a file every generated simulation must contain
type OutputDeclaration struct {
	File string `yaml:"file"`
}

// FolderSettings is the content of a folder's settings file
type FolderSettings struct {
	Exec           string                     `yaml:"exec"`
	SettingPattern string                     `yaml:"setting_pattern"`
	GlobalSettings []GlobalSettingDeclaration `yaml:"globalsettings"`
	Settings       []SetDeclaration           `yaml:"settings"`
	Output         []OutputDeclaration        `yaml:"output"`
	MinVersion     string                     `yaml:"min_version"`
}

// Folder is a local simulations folder and its declarations
type Folder struct {
	Path     string
	Settings FolderSettings
}

// ConfPath returns a path inside the folder's configuration directory.
func (f *Folder) ConfPath(elem ...string) string {
	return filepath.Join(append([]string{f.Path, ConfDir}, elem...)...)
}

// HasGlobalSetting reports whether name is a declared global setting.
func (f *Folder) HasGlobalSetting(name string) bool {
	for _, d := range f.Settings.GlobalSettings {
		if d.Name == name {
			return true
		}
	}
	return false
}

// NewFolder builds a folder from already parsed settings, filling defaults.
func NewFolder(path string, settings FolderSettings) *Folder {
	if settings.SettingPattern == "" {
		settings.SettingPattern = DefaultSettingPattern
	}
	return &Folder{Path: path, Settings: settings}
}

// LoadFolder reads <path>/.simulations.conf/settings.yaml.
// JSON settings files are accepted as well.
// version is the running simmaker version, checked against min_version.
func LoadFolder(path, version string) (*Folder, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(abs, SettingsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &FolderNotFoundError{Path: abs}
		}
		return nil, fmt.Errorf("failed to read folder settings: %w", err)
	}

	var settings FolderSettings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Join(abs, SettingsFile), err)
	}

	if settings.MinVersion != "" && !versionSatisfies(version, settings.MinVersion) {
		return nil, &IncompatibleFolderError{Path: abs, MinVersion: settings.MinVersion, Version: version}
	}

	seen := make(map[string]bool)
	for _, d := range settings.GlobalSettings {
		if seen[d.Name] {
			return nil, fmt.Errorf("global setting %q declared twice in %s", d.Name, SettingsFile)
		}
		seen[d.Name] = true
	}
	for _, set := range settings.Settings {
		for _, d := range set.Settings {
			if err := d.Namer.validate(); err != nil {
				return nil, fmt.Errorf("setting %q of set %q in %s: %w", d.Name, set.Set, SettingsFile, err)
			}
		}
	}

	return NewFolder(abs, settings), nil
}

// versionSatisfies compares versions with or without the leading "v".
// Invalid versions never satisfy a requirement.
func versionSatisfies(version, minVersion string) bool {
	v := canonicalVersion(version)
	m := canonicalVersion(minVersion)
	if !semver.IsValid(v) || !semver.IsValid(m) {
		return false
	}
	return semver.Compare(v, m) >= 0
}

func canonicalVersion(v string) string {
	v = strings.TrimSpace(v)
	if v != "" && !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

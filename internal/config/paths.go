package config

import (
	"os"
	"path/filepath"
)

// ConfigSearchPath describes one location viper looks at for the config file
type ConfigSearchPath struct {
	Type   string // user, home, system, cwd
	Path   string // Full path to config.yaml
	Exists bool
	InUse  bool
}

// GetUserStateDir returns the user's state directory following XDG spec.
// Returns $XDG_STATE_HOME/simmaker or ~/.local/state/simmaker
func GetUserStateDir() string {
	if stateHome := os.Getenv("XDG_STATE_HOME"); stateHome != "" {
		return filepath.Join(stateHome, "simmaker")
	}

	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "state", "simmaker")
	}

	return filepath.Join(os.TempDir(), "simmaker")
}

// configDirs lists the directories searched for the config file, highest priority first.
func configDirs() []ConfigSearchPath {
	var dirs []ConfigSearchPath

	if userConfigDir, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, ConfigSearchPath{Type: "user", Path: filepath.Join(userConfigDir, "simmaker")})
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, ConfigSearchPath{Type: "home", Path: filepath.Join(home, ".simmaker")})
	}
	dirs = append(dirs, ConfigSearchPath{Type: "system", Path: "/etc/simmaker"})
	dirs = append(dirs, ConfigSearchPath{Type: "cwd", Path: "."})

	return dirs
}

// GetConfigSearchPaths returns the config file candidates and marks the one viper loaded.
func GetConfigSearchPaths(inUse string) []ConfigSearchPath {
	paths := configDirs()
	for i := range paths {
		file := filepath.Join(paths[i].Path, ConfigFilename+"."+ConfigType)
		paths[i].Path = file
		if _, err := os.Stat(file); err == nil {
			paths[i].Exists = true
		}
		if inUse != "" {
			if abs, err := filepath.Abs(file); err == nil && abs == inUse {
				paths[i].InUse = true
			}
		}
	}
	return paths
}

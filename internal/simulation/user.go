package simulation

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// UserValueSet overrides the defaults of one settings set instance
type UserValueSet struct {
	Set      string         `yaml:"set"`
	Settings map[string]any `yaml:"settings"`
}

// UserSettings is the user's description of one simulation.
// Every top-level key but "settings" is a global setting value.
type UserSettings struct {
	Globals map[string]any
	Sets    []UserValueSet
}

// UnmarshalYAML splits the document into global values and value-sets.
func (u *UserSettings) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]yaml.Node
	if err := node.Decode(&raw); err != nil {
		return err
	}

	u.Globals = make(map[string]any)
	u.Sets = nil
	for key, value := range raw {
		if key == "settings" {
			if err := value.Decode(&u.Sets); err != nil {
				return fmt.Errorf("invalid settings list: %w", err)
			}
			continue
		}
		var v any
		if err := value.Decode(&v); err != nil {
			return fmt.Errorf("invalid value for %q: %w", key, err)
		}
		u.Globals[key] = v
	}
	return nil
}

// MarshalYAML writes the document back in its flat form.
func (u UserSettings) MarshalYAML() (any, error) {
	out := make(map[string]any, len(u.Globals)+1)
	for k, v := range u.Globals {
		out[k] = v
	}
	if len(u.Sets) > 0 {
		out["settings"] = u.Sets
	}
	return out, nil
}

// LoadTargets reads a YAML (or JSON) list of user settings documents.
func LoadTargets(path string) ([]UserSettings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read targets: %w", err)
	}

	var targets []UserSettings
	if err := yaml.Unmarshal(data, &targets); err != nil {
		return nil, fmt.Errorf("failed to parse targets %s: %w", path, err)
	}
	return targets, nil
}

package generator

import (
	"fmt"
	"os"
	"path"

	"gopkg.in/yaml.v3"
)

// DefaultJobsStatesFilename is where jobs report their states, relative to the basedir
const DefaultJobsStatesFilename = "jobs.txt"

// Recipe describes the scripts generated for a batch of simulations
type Recipe struct {
	Launch              string   `yaml:"launch"`               // Script to execute, "name[:skeleton[:script]]"
	Basedir             string   `yaml:"-"`                    // Remote scripts directory, assigned each round
	SubgroupsSkeletons  []string `yaml:"subgroups_skeletons"`  // Rendered once per subgroup
	WholegroupSkeletons []string `yaml:"wholegroup_skeletons"` // Rendered once for the batch
	JobsStatesFilename  string   `yaml:"jobs_states_filename"`
	MaxSimulations      int      `yaml:"max_simulations"` // Subgroup size, 0 = one subgroup
	Scheduler           string   `yaml:"scheduler"`       // Used by the walltime and submit helpers
}

// LoadRecipe reads a YAML (or JSON) recipe file.
func LoadRecipe(file string) (*Recipe, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read recipe: %w", err)
	}

	var r Recipe
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse recipe %s: %w", file, err)
	}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("invalid recipe %s: %w", file, err)
	}
	return &r, nil
}

// Validate checks the recipe and fills defaults.
func (r *Recipe) Validate() error {
	if r.Launch == "" {
		return fmt.Errorf("launch is required")
	}
	if len(r.SubgroupsSkeletons)+len(r.WholegroupSkeletons) == 0 {
		return fmt.Errorf("at least one skeleton is required")
	}
	if r.MaxSimulations < 0 {
		return fmt.Errorf("max_simulations must be >= 0, got %d", r.MaxSimulations)
	}
	if r.JobsStatesFilename == "" {
		r.JobsStatesFilename = DefaultJobsStatesFilename
	}
	if r.Scheduler == "" {
		r.Scheduler = "SLURM"
	}
	return nil
}

// Skeletons returns the subgroup skeletons followed by the whole-group ones,
// the order of the generated script groups.
func (r *Recipe) Skeletons() []string {
	out := make([]string, 0, len(r.SubgroupsSkeletons)+len(r.WholegroupSkeletons))
	out = append(out, r.SubgroupsSkeletons...)
	return append(out, r.WholegroupSkeletons...)
}

// JobsStatesPath is the remote jobs states file; relative names are below the basedir.
func (r *Recipe) JobsStatesPath() string {
	if path.IsAbs(r.JobsStatesFilename) {
		return r.JobsStatesFilename
	}
	return path.Join(r.Basedir, r.JobsStatesFilename)
}

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Justype/simmaker/internal/config"
	"github.com/Justype/simmaker/internal/simulation"
	"github.com/Justype/simmaker/internal/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Exit codes used by various commands
const (
	// Generic error code
	ExitCodeError = 1
	// Returned by run when some simulations could not be generated
	ExitCodeUnknownSimulations = 1
)

// ExitWithError prints an error and exits with ExitCodeError
func ExitWithError(format string, a ...interface{}) {
	utils.PrintError(format, a...)
	os.Exit(ExitCodeError)
}

// loadSimulations reads the simulations folder and builds one simulation per target.
func loadSimulations(folderPath, targetsPath string) (*simulation.Folder, []*simulation.Simulation, error) {
	folder, err := simulation.LoadFolder(folderPath, config.VERSION)
	if err != nil {
		return nil, nil, err
	}
	targets, err := simulation.LoadTargets(targetsPath)
	if err != nil {
		return nil, nil, err
	}
	sims, err := simulation.NewBatch(folder, targets)
	if err != nil {
		return nil, nil, err
	}
	return folder, sims, nil
}

// completeFolderThenYaml completes a simulations folder first, then YAML/JSON files.
func completeFolderThenYaml(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return nil, cobra.ShellCompDirectiveFilterDirs
	}
	return findLocalFilesWithFilter(toComplete, 1, isSettingsFile), cobra.ShellCompDirectiveNoFileComp
}

func isSettingsFile(name string) bool {
	return utils.IsYaml(name) || strings.HasSuffix(name, ".json")
}

// findLocalFilesWithFilter finds local files recursively up to maxDepth
func findLocalFilesWithFilter(toComplete string, maxDepth int, fileFilter func(name string) bool) []string {
	pathDir, _ := filepath.Split(toComplete)
	dirForRead := pathDir
	if dirForRead == "" {
		dirForRead = "."
	}

	suggestions := []string{}

	var findFiles func(dir string, prefix string, currentDepth int)
	findFiles = func(dir string, prefix string, currentDepth int) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return
		}

		for _, entry := range entries {
			name := entry.Name()

			// Skip hidden files, including the .simulations.conf directory
			if strings.HasPrefix(name, ".") {
				continue
			}

			candidate := prefix + name
			if entry.IsDir() {
				if currentDepth < maxDepth {
					findFiles(filepath.Join(dir, name), candidate+"/", currentDepth+1)
				}
			} else if fileFilter(name) {
				if toComplete == "" || strings.HasPrefix(candidate, toComplete) {
					suggestions = append(suggestions, candidate)
				}
			}
		}
	}

	findFiles(dirForRead, pathDir, 0)
	return suggestions
}

// durationFlag accepts Go durations (2s, 1m30s) and HPC times (00:00:05)
type durationFlag struct {
	value time.Duration
	set   bool
}

var _ pflag.Value = (*durationFlag)(nil)

func (d *durationFlag) String() string {
	if !d.set {
		return ""
	}
	return d.value.String()
}

func (d *durationFlag) Set(s string) error {
	v, err := utils.ParseDuration(s)
	if err != nil {
		return err
	}
	if v <= 0 {
		return fmt.Errorf("duration must be positive, got %s", s)
	}
	d.value = v
	d.set = true
	return nil
}

func (d *durationFlag) Type() string {
	return "duration"
}

package manager

import (
	"fmt"
	"path/filepath"

	"github.com/Justype/simmaker/internal/simulation"
	"github.com/Justype/simmaker/internal/utils"
)

// Checker validates a downloaded simulation before it enters the repository
type Checker func(sim *simulation.Simulation) error

// DefaultCheckers returns the integrity checks run by BatchIntegrate.
func DefaultCheckers() []Checker {
	return []Checker{CheckFolderExists, CheckOutputs}
}

// CheckFolderExists rejects simulations without a local output directory.
func CheckFolderExists(sim *simulation.Simulation) error {
	if sim.Folder() == "" || !utils.DirExists(sim.Folder()) {
		return fmt.Errorf("output folder %q does not exist", sim.Folder())
	}
	return nil
}

// CheckOutputs rejects simulations missing a file declared in the folder output list.
func CheckOutputs(sim *simulation.Simulation) error {
	for _, out := range sim.Conf().Settings.Output {
		if !utils.FileExists(filepath.Join(sim.Folder(), out.File)) {
			return fmt.Errorf("missing output file %s", out.File)
		}
	}
	return nil
}

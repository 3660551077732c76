package cmd

import (
	"fmt"

	"github.com/Justype/simmaker/internal/manager"
	"github.com/Justype/simmaker/internal/utils"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	settingsShowAll  bool
	settingsMissing  bool
	settingsIdentity bool
)

var settingsCmd = &cobra.Command{
	Use:   "settings [flags] <folder> <targets.yaml>",
	Short: "Print the resolved command line of each target simulation",
	Long: `Resolve the settings of each target simulation against the folder
declarations and print the resulting command lines.

With --all, the resolved global settings and settings sets are printed as YAML.
With --missing, only the simulations absent from the folder are printed.`,
	Example: `  simmaker settings ./sims targets.yaml
  simmaker settings --missing --identity ./sims targets.yaml`,
	Args:              cobra.ExactArgs(2),
	SilenceUsage:      true,
	ValidArgsFunction: completeFolderThenYaml,
	RunE: func(cmd *cobra.Command, args []string) error {
		folder, sims, err := loadSimulations(args[0], args[1])
		if err != nil {
			return err
		}

		if settingsMissing {
			lock, err := manager.AcquireLock(folder, false)
			if err != nil {
				return err
			}
			defer lock.Close()

			repo, err := manager.Open(folder)
			if err != nil {
				return err
			}
			sims, err = repo.BatchExists(sims, nil)
			if err != nil {
				return err
			}
			utils.PrintNote("%s missing, %s stored", utils.Plural(len(sims), "simulation", "simulations"), utils.StyleNumber(len(repo.Identities())))
		}

		for _, sim := range sims {
			line := sim.CommandLine()
			if settingsIdentity {
				id, err := manager.Identity(sim)
				if err != nil {
					return err
				}
				line = id + "  " + line
			}
			fmt.Println(line)

			if settingsShowAll {
				out, err := yaml.Marshal(map[string]any{
					"globalsettings": sim.ReducedGlobalSettings(),
					"settings":       sim.Settings(),
				})
				if err != nil {
					return err
				}
				fmt.Println(string(out))
			}
		}
		return nil
	},
}

func init() {
	settingsCmd.Flags().BoolVarP(&settingsShowAll, "all", "a", false, "Also print the resolved settings as YAML")
	settingsCmd.Flags().BoolVarP(&settingsMissing, "missing", "m", false, "Only print simulations missing from the folder")
	settingsCmd.Flags().BoolVar(&settingsIdentity, "identity", false, "Prefix each line with the simulation identity")
	rootCmd.AddCommand(settingsCmd)
}

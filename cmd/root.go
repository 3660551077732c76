package cmd

import (
	"errors"
	"os"

	"github.com/Justype/simmaker/internal/config"
	"github.com/Justype/simmaker/internal/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	debugMode bool
	quietMode bool
)

var rootCmd = &cobra.Command{
	Use:           "simmaker",
	Short:         "SimMaker: generate simulations on a cluster until every requested one is stored locally.",
	Version:       config.VERSION,
	SilenceErrors: true,

	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Step 1: Load defaults (paths, thresholds, remote)
		config.LoadDefaults()

		// Step 2: Initialize Viper (read config file, env vars)
		if err := config.InitViper(); err != nil {
			utils.PrintWarning("Error reading config file: %v", err)
		}

		// Step 3: Load values from Viper into Global config
		if err := config.LoadFromViper(); err != nil {
			utils.PrintError("Invalid configuration: %v", err)
			utils.PrintHint("Check it with %s", utils.StyleCommand("simmaker config show"))
			os.Exit(ExitCodeError)
		}

		// Step 4: Apply command-line flags (highest priority)
		if quietMode {
			utils.QuietMode = true
			config.Global.Quiet = true
		}
		if debugMode {
			utils.DebugMode = true
			config.Global.Debug = true
			utils.PrintDebug("Debug mode enabled")
			utils.PrintDebug("SimMaker Version: %s", utils.StyleInfo(config.VERSION))
			if used := viper.ConfigFileUsed(); used != "" {
				utils.PrintDebug("Config file: %s", utils.StylePath(used))
			}
			utils.PrintDebug("Logs Directory: %s", config.Global.LogsDir)
			utils.PrintDebug("Remote: %s %s", config.Global.Remote.Type, config.Global.Remote.Root)
			utils.PrintDebug("Jobs Channel: %s", config.Global.Jobs.Channel)
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errSimulationsLeft) {
			os.Exit(ExitCodeUnknownSimulations)
		}
		utils.PrintError("%v", err)
		os.Exit(ExitCodeError)
	}
}

func init() {
	// Subcommands are attached to rootCmd in their respective init() functions
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug mode with verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quietMode, "quiet", "q", false, "Only print warnings and errors")
}

package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/Justype/simmaker/internal/config"
	"github.com/Justype/simmaker/internal/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var showPath bool

// configKeysCompletion returns config keys for shell completion
func configKeysCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.Keys(), cobra.ShellCompDirectiveNoFileComp
	}
	if len(args) == 1 {
		return configValueCompletion(args[0]), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

// configValueCompletion returns suggested values for a config key
func configValueCompletion(key string) []string {
	switch key {
	case "remote.type":
		return []string{config.RemoteLocal, config.RemoteSSH}
	case "jobs.channel":
		return []string{config.ChannelFile, config.ChannelMailbox}
	case "max_failures", "max_corrupted":
		return []string{"-1", "0", "1", "3"}
	case "poll_interval":
		return []string{"500ms", "1s", "5s", "30s"}
	case "remote.timeout":
		return []string{"10s", "30s", "1m"}
	default:
		return nil
	}
}

// envVarName is the environment variable overriding a config key
func envVarName(key string) string {
	return "SIMMAKER_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// getConfigEnvVars lists the environment variables of every config key, sorted.
func getConfigEnvVars() []string {
	vars := make([]string, 0, len(config.Keys()))
	for _, key := range config.Keys() {
		vars = append(vars, envVarName(key))
	}
	sort.Strings(vars)
	return vars
}

// validateConfigValue checks a value before it is saved
func validateConfigValue(key, value string) error {
	switch key {
	case "remote.type":
		if value != config.RemoteLocal && value != config.RemoteSSH {
			return fmt.Errorf("expected %s or %s", config.RemoteLocal, config.RemoteSSH)
		}
	case "jobs.channel":
		if value != config.ChannelFile && value != config.ChannelMailbox {
			return fmt.Errorf("expected %s or %s", config.ChannelFile, config.ChannelMailbox)
		}
	case "poll_interval", "remote.timeout":
		d, err := utils.ParseDuration(value)
		if err != nil {
			return err
		}
		if d <= 0 {
			return fmt.Errorf("duration must be positive")
		}
	case "max_failures", "max_corrupted", "remote.port", "jobs.redis_db":
		var n int
		if _, err := fmt.Sscanf(value, "%d", &n); err != nil || fmt.Sprint(n) != value {
			return fmt.Errorf("expected an integer")
		}
	}
	return nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage simmaker configuration",
	Long: `Manage simmaker configuration settings.

Configuration priority (highest to lowest):
  1. Command-line flags
  2. Environment variables (SIMMAKER_*, e.g. SIMMAKER_REMOTE_HOST)
  3. User config file (~/.config/simmaker/config.yaml)
  4. Home config file (~/.simmaker/config.yaml)
  5. System config file (/etc/simmaker/config.yaml)
  6. config.yaml in the current directory
  7. Defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Display current configuration values and their sources.

Shows:
  - Config file search paths and which one is in use
  - All configuration settings
  - Environment variable overrides`,
	Run: func(cmd *cobra.Command, args []string) {
		if showPath {
			configPath, err := config.GetUserConfigPath()
			if err != nil {
				ExitWithError("Failed to get config path: %v", err)
			}
			fmt.Println(configPath)
			return
		}

		fmt.Println(utils.StyleTitle("Config File Search Paths:"))
		foundActive := false
		for i, sp := range config.GetConfigSearchPaths(viper.ConfigFileUsed()) {
			status := ""
			if sp.InUse {
				status = " " + utils.StyleSuccess("← in use")
				foundActive = true
			} else if sp.Exists {
				status = " " + utils.StyleInfo("(exists)")
			}
			fmt.Printf("  %d. [%s] %s%s\n", i+1, sp.Type, sp.Path, status)
		}
		if !foundActive {
			fmt.Printf("  %s (use 'simmaker config init' to create)\n", utils.StyleWarning("No config file found"))
		}
		fmt.Println()

		fmt.Println(utils.StyleTitle("Run:"))
		fmt.Printf("  logs_dir:       %s\n", config.Global.LogsDir)
		fmt.Printf("  max_failures:   %d\n", config.Global.MaxFailures)
		fmt.Printf("  max_corrupted:  %d\n", config.Global.MaxCorrupted)
		fmt.Printf("  poll_interval:  %s\n", config.Global.PollInterval)
		metrics := config.Global.MetricsFile
		if metrics == "" {
			metrics = utils.StyleInfo("disabled")
		}
		fmt.Printf("  metrics_file:   %s\n", metrics)
		fmt.Println()

		r := config.Global.Remote
		fmt.Println(utils.StyleTitle("Remote:"))
		fmt.Printf("  type:           %s\n", r.Type)
		fmt.Printf("  root:           %s\n", r.Root)
		if r.Type == config.RemoteSSH {
			fmt.Printf("  host:           %s:%d\n", r.Host, r.Port)
			fmt.Printf("  user:           %s\n", r.User)
			fmt.Printf("  key_file:       %s\n", r.KeyFile)
			knownHosts := r.KnownHosts
			if knownHosts == "" {
				knownHosts = utils.StyleWarning("not set (host key not verified)")
			}
			fmt.Printf("  known_hosts:    %s\n", knownHosts)
			fmt.Printf("  timeout:        %s\n", r.Timeout)
		}
		fmt.Println()

		j := config.Global.Jobs
		fmt.Println(utils.StyleTitle("Job States:"))
		fmt.Printf("  channel:        %s\n", j.Channel)
		if j.Channel == config.ChannelMailbox {
			fmt.Printf("  redis_addr:     %s\n", j.RedisAddr)
			fmt.Printf("  redis_db:       %d\n", j.RedisDB)
			fmt.Printf("  redis_key:      %s\n", j.RedisKey)
		}
		fmt.Println()

		fmt.Println(utils.StyleTitle("Environment Variable Overrides:"))
		hasEnvOverrides := false
		for _, envVar := range getConfigEnvVars() {
			if val := os.Getenv(envVar); val != "" {
				fmt.Printf("  %s=%s\n", envVar, val)
				hasEnvOverrides = true
			}
		}
		if !hasEnvOverrides {
			fmt.Printf("  %s\n", utils.StyleInfo("none"))
		}
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Long: `Get a specific configuration value.

Examples:
  simmaker config get remote.type
  simmaker config get max_failures`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: configKeysCompletion,
	Run: func(cmd *cobra.Command, args []string) {
		key := args[0]
		value := viper.Get(key)
		if value == nil {
			ExitWithError("Unknown config key: %s", key)
		}
		fmt.Println(value)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value and save to the user config file.

Examples:
  simmaker config set remote.type ssh
  simmaker config set remote.host login.cluster.org
  simmaker config set max_failures -1
  simmaker config set poll_interval 2s`,
	Args:              cobra.ExactArgs(2),
	ValidArgsFunction: configKeysCompletion,
	Run: func(cmd *cobra.Command, args []string) {
		key, value := args[0], args[1]

		if !config.IsKnownKey(key) {
			utils.PrintWarning("Warning: '%s' is not a standard config key", key)
		}
		if err := validateConfigValue(key, value); err != nil {
			ExitWithError("Invalid value for %s: %v", key, err)
		}

		viper.Set(key, value)
		if err := config.SaveConfig(); err != nil {
			ExitWithError("Failed to save config: %v", err)
		}

		configPath, _ := config.GetUserConfigPath()
		utils.PrintSuccess("Set %s = %s", utils.StyleInfo(key), utils.StyleInfo(value))
		utils.PrintNote("Config saved to: %s", configPath)
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a user config file with defaults",
	Run: func(cmd *cobra.Command, args []string) {
		configPath, err := config.GetUserConfigPath()
		if err != nil {
			ExitWithError("Failed to get config path: %v", err)
		}

		if _, err := os.Stat(configPath); err == nil {
			utils.PrintWarning("Config file already exists: %s", configPath)
			fmt.Print("Overwrite? [y/N]: ")
			var response string
			fmt.Scanln(&response)
			response = strings.ToLower(strings.TrimSpace(response))
			if response != "y" && response != "yes" {
				utils.PrintNote("Cancelled")
				return
			}
		}

		if err := config.SaveConfig(); err != nil {
			ExitWithError("Failed to save config: %v", err)
		}
		utils.PrintSuccess("Config file created")
		fmt.Printf("  Location: %s\n", utils.StylePath(configPath))
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit config file in default editor",
	Long:  "Open the configuration file in your default text editor ($EDITOR)",
	Run: func(cmd *cobra.Command, args []string) {
		configPath, err := config.GetUserConfigPath()
		if err != nil {
			ExitWithError("Failed to get config path: %v", err)
		}

		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			utils.PrintNote("Config file doesn't exist, creating it first...")
			if err := config.SaveConfig(); err != nil {
				ExitWithError("Failed to create config: %v", err)
			}
		}

		editor := os.Getenv("EDITOR")
		if editor == "" {
			editor = "vi"
		}

		editorCmd := exec.Command(editor, configPath)
		editorCmd.Stdin = os.Stdin
		editorCmd.Stdout = os.Stdout
		editorCmd.Stderr = os.Stderr

		if err := editorCmd.Run(); err != nil {
			ExitWithError("Failed to open editor: %v", err)
		}
	},
}

func init() {
	configShowCmd.Flags().BoolVar(&showPath, "path", false, "Show only the config file path")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configEditCmd)

	rootCmd.AddCommand(configCmd)
}

package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// detectShell guesses the current shell from $SHELL, defaulting to bash
func detectShell() string {
	switch name := strings.ToLower(filepath.Base(os.Getenv("SHELL"))); {
	case strings.Contains(name, "fish"):
		return "fish"
	case strings.Contains(name, "zsh"):
		return "zsh"
	case strings.Contains(name, "pwsh"), strings.Contains(name, "powershell"):
		return "powershell"
	}
	return "bash"
}

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate the shell completion script for simmaker.

If no shell is given, it is detected from $SHELL.

Bash:
  $ source <(simmaker completion bash)

Zsh:
  $ simmaker completion zsh > "${fpath[1]}/_simmaker"

Fish:
  $ simmaker completion fish > ~/.config/fish/completions/simmaker.fish

PowerShell:
  PS> simmaker completion powershell | Out-String | Invoke-Expression`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		shell := detectShell()
		if len(args) > 0 {
			shell = args[0]
		}

		root := cmd.Root()
		switch shell {
		case "zsh":
			return root.GenZshCompletion(os.Stdout)
		case "fish":
			return root.GenFishCompletion(os.Stdout, true)
		case "powershell":
			return root.GenPowerShellCompletionWithDesc(os.Stdout)
		}
		return root.GenBashCompletionV2(os.Stdout, true)
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
}

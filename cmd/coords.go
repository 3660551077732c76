package cmd

import (
	"fmt"

	"github.com/Justype/simmaker/internal/maker"
	"github.com/Justype/simmaker/internal/utils"
	"github.com/spf13/cobra"
)

var coordsCmd = &cobra.Command{
	Use:   "coords <launch>",
	Short: "Decode the launch option of a recipe",
	Long: `Decode a launch option, "name[:skeleton[:script]]", into the script coordinates
used to pick the script to execute among the generated ones.

Indices may be negative (-1 = last). Missing indices default to -1.`,
	Example: `  simmaker coords build:2:-1
  simmaker coords launch.sh`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c := maker.ParseScriptCoords(args[0])
		fmt.Printf("name:     %s\n", utils.StyleName(c.Name))
		fmt.Printf("skeleton: %s\n", utils.StyleNumber(c.Skeleton))
		fmt.Printf("script:   %s\n", utils.StyleNumber(c.Script))
	},
}

func init() {
	rootCmd.AddCommand(coordsCmd)
}

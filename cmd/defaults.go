package cmd

import (
	"github.com/spf13/cobra"

	"github.com/slurmkit/slaunch/internal/config"
	"github.com/slurmkit/slaunch/internal/launcher"
	"github.com/slurmkit/slaunch/internal/utils"
)

var defaultsCmd = &cobra.Command{
	Use:   "defaults",
	Short: "Print the current launch defaults (built-ins, config file, environment)",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		utils.PrintMessage("%s", utils.StyleTitle("Current launcher defaults:"))
		for _, line := range launcher.FormatMap(config.Defaults()) {
			utils.PrintMessage("  %s", line)
		}
	},
}

func init() {
	rootCmd.AddCommand(defaultsCmd)
}

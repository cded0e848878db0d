package cmd

import (
	"github.com/spf13/cobra"

	"github.com/happy-forks/wine/internal/logger"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		logger.Infof("x11drv %s", Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/happy-forks/wine/internal/config"
	"github.com/happy-forks/wine/internal/logger"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage driver configuration",
	Long:  `Inspect and persist the driver configuration.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Init(); err != nil {
			return err
		}
		cfg := config.Get()

		logger.Info("Current Configuration:")
		logger.Infof("Config file: %s", config.GetConfigPath())

		logger.Infof("  Display: %s", orUnset(cfg.Display))
		logger.Infof("  Managed: %s", orUnset(cfg.Managed))
		logger.Infof("  Desktop: %s", orUnset(cfg.Desktop))
		if cfg.ScreenDepth != 0 {
			logger.Infof("  Screen Depth: %d", cfg.ScreenDepth)
		} else {
			logger.Info("  Screen Depth: (screen default)")
		}
		logger.Infof("  Synchronous: %v", cfg.Synchronous)
		logger.Infof("  Desktop Double Buffered: %v", cfg.DesktopDoubleBuffered)
		logger.Infof("  Reentrant X11: %v", cfg.ReentrantX11)

		return nil
	},
}

var configSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save current configuration to file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Init(); err != nil {
			return err
		}
		if err := config.Save(); err != nil {
			return err
		}
		logger.Infof("Configuration saved to %s", config.GetConfigPath())
		return nil
	},
}

func orUnset(s string) string {
	if s == "" {
		return "(unset)"
	}
	return s
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSaveCmd)
	rootCmd.AddCommand(configCmd)
}

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/happy-forks/wine/internal/config"
)

var (
	// Version is set during build
	Version = "0.1.0-dev"

	configFlag string

	rootCmd = &cobra.Command{
		Use:   "x11drv",
		Short: "x11drv - X11 display driver host",
		Long: `x11drv bootstraps a display-driver session against an X server:
it negotiates a connection, visual and depth once at attach, optionally
encloses the session in a virtual desktop window, and serializes all
client-library calls so arbitrary goroutines can use the session safely.`,
		SilenceUsage: true,
	}
)

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s\n" .Version}}`)

	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "config file path")
	cobra.OnInitialize(func() {
		if configFlag != "" {
			config.SetConfigPath(configFlag)
		}
	})

	rootCmd.AddCommand(runCmd)
}

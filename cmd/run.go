package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/happy-forks/wine/internal/config"
	"github.com/happy-forks/wine/internal/driver"
	"github.com/happy-forks/wine/internal/gdi"
	"github.com/happy-forks/wine/internal/logger"
	"github.com/happy-forks/wine/internal/xevents"
	"github.com/happy-forks/wine/internal/xvidmode"
)

var (
	displayFlag string
	desktopFlag string
	managedFlag bool
	depthFlag   int
	syncFlag    bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Attach the display driver and service the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Init(); err != nil {
			return err
		}
		cfg := config.Get()
		if depthFlag != 0 {
			cfg.ScreenDepth = depthFlag
		}
		if syncFlag {
			cfg.Synchronous = true
		}
		if cfg.Logging.LogLevel != "" {
			logger.SetLevel(cfg.Logging.LogLevel)
		}

		events := xevents.New()
		drv := driver.New(cfg, config.Options{
			Display: displayFlag,
			Managed: managedFlag,
			Desktop: desktopFlag,
		}, driver.Backends{
			Graphics:  gdi.New(),
			Events:    events,
			VideoMode: xvidmode.New(),
		})

		drv.Handle(driver.ReasonAttach)

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		select {
		case <-sig:
			logger.Info("shutting down")
		case <-events.Done():
		}

		drv.Handle(driver.ReasonDetach)
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&displayFlag, "display", "", "X server to connect to (a persisted display wins over this)")
	runCmd.Flags().StringVar(&desktopFlag, "desktop", "", "enclose the session in a desktop window of the given geometry, e.g. 800x600")
	runCmd.Flags().BoolVar(&managedFlag, "managed", false, "let the external window manager frame top-level windows")
	runCmd.Flags().IntVar(&depthFlag, "depth", 0, "color depth to use (default: screen default)")
	runCmd.Flags().BoolVar(&syncFlag, "sync", false, "trap X protocol errors at the offending call site")
}

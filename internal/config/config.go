// Package config handles configuration management using Viper
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// ErrNoDisplay is returned by Resolve when no target display can be found
// in persisted configuration, caller options or the environment.
var ErrNoDisplay = errors.New("no display specified")

// Config represents the driver configuration as persisted on disk.
//
// The display, managed and desktop entries are string-valued: managed is
// "y" or absent, desktop holds a geometry specification or is absent.
type Config struct {
	// Connection configuration
	Display string `mapstructure:"display"`
	Managed string `mapstructure:"managed"`
	Desktop string `mapstructure:"desktop"`

	// Negotiation configuration
	ScreenDepth           int  `mapstructure:"screen_depth"`
	Synchronous           bool `mapstructure:"synchronous"`
	DesktopDoubleBuffered bool `mapstructure:"desktop_double_buffered"`

	// ReentrantX11 selects the serializer policy: when false, the error
	// slots of the region holder are redirected to process-wide statics,
	// matching a client library built without thread support.
	ReentrantX11 bool `mapstructure:"reentrant_x11"`

	// Logging configuration
	Logging LoggingConfig `mapstructure:"logging"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	LogLevel string `mapstructure:"log_level"` // Override LOG_LEVEL env var
}

// Options are the caller-supplied settings (command line), before merging
// with persisted configuration and the environment.
type Options struct {
	Display string
	Managed bool
	Desktop string
}

var (
	// DefaultConfig provides sensible defaults
	DefaultConfig = Config{
		Display:               "",
		Managed:               "",
		Desktop:               "",
		ScreenDepth:           0, // 0 means take the screen default
		Synchronous:           false,
		DesktopDoubleBuffered: false,
		ReentrantX11:          true,
		Logging: LoggingConfig{
			LogLevel: "",
		},
	}

	// Global config instance
	cfg *Config

	// Override config path if set
	configPathOverride string
)

// SetConfigPath allows overriding the config path
func SetConfigPath(path string) {
	configPathOverride = path
}

// Init initializes the configuration system
func Init() error {
	viper.SetConfigName("x11drv")
	viper.SetConfigType("toml")

	// If a specific path is set, use only that
	if configPathOverride != "" {
		viper.SetConfigFile(configPathOverride)
	} else {
		viper.AddConfigPath("/etc/x11drv")
		if home := os.Getenv("HOME"); home != "" {
			viper.AddConfigPath(filepath.Join(home, ".config", "x11drv"))
		}
		viper.AddConfigPath(".")
	}

	viper.SetDefault("display", DefaultConfig.Display)
	viper.SetDefault("managed", DefaultConfig.Managed)
	viper.SetDefault("desktop", DefaultConfig.Desktop)
	viper.SetDefault("screen_depth", DefaultConfig.ScreenDepth)
	viper.SetDefault("synchronous", DefaultConfig.Synchronous)
	viper.SetDefault("desktop_double_buffered", DefaultConfig.DesktopDoubleBuffered)
	viper.SetDefault("reentrant_x11", DefaultConfig.ReentrantX11)
	viper.SetDefault("logging.log_level", DefaultConfig.Logging.LogLevel)

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, use defaults
	}

	cfg = &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	return nil
}

// Get returns the current configuration
func Get() *Config {
	if cfg == nil {
		// Return defaults if not initialized
		return &DefaultConfig
	}
	return cfg
}

// Set sets the current configuration (for testing)
func Set(c *Config) {
	cfg = c
}

// Resolve merges the caller-supplied options with persisted configuration
// and the environment.
//
// The display is taken from, in priority order: the persisted entry, the
// caller-supplied value, the DISPLAY environment variable. A persisted
// entry that conflicts with the caller or environment value wins; the
// conflict is reported as a warning and execution continues. When no
// display can be resolved at all, ErrNoDisplay is returned.
//
// Persisted managed/desktop entries are adopted only when the caller
// supplied neither, and caller-supplied values are written back through
// viper (Save persists them). A caller-supplied display is written back
// only when no persisted entry existed yet.
func Resolve(opts Options) (Options, []string, error) {
	var warnings []string
	res := opts

	if persisted := viper.GetString("display"); persisted != "" {
		if res.Display != "" {
			if res.Display != persisted {
				warnings = append(warnings,
					fmt.Sprintf("--display option ignored, using %q", persisted))
			}
		} else if env := os.Getenv("DISPLAY"); env != "" && env != persisted {
			warnings = append(warnings,
				fmt.Sprintf("$DISPLAY variable ignored, using %q", persisted))
		}
		res.Display = persisted
	} else {
		if res.Display == "" {
			res.Display = os.Getenv("DISPLAY")
		}
		if res.Display == "" {
			return Options{}, warnings, ErrNoDisplay
		}
		viper.Set("display", res.Display)
	}

	// Adopt persisted managed/desktop entries only when the caller
	// supplied neither on the command line.
	if !res.Managed && res.Desktop == "" {
		if v := viper.GetString("managed"); v != "" {
			res.Managed = optionTrue(v)
		}
		// A desktop entry that spells a falsy value disables desktop
		// mode; anything else is taken as a geometry string.
		if v := viper.GetString("desktop"); v != "" && !optionFalse(v) {
			res.Desktop = v
		}
	}

	// The desktop window encloses all top-level windows itself, so it
	// cannot coexist with an external window manager framing them.
	if res.Desktop != "" {
		res.Managed = false
	}

	if res.Managed {
		viper.Set("managed", "y")
	}
	if res.Desktop != "" {
		viper.Set("desktop", res.Desktop)
	}

	return res, warnings, nil
}

func optionTrue(s string) bool {
	return strings.IndexByte("yYtT1", s[0]) >= 0
}

func optionFalse(s string) bool {
	return strings.IndexByte("nNfF0", s[0]) >= 0
}

// Save saves the current configuration to file
func Save() error {
	configPath := GetConfigPath()

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		if os.IsPermission(err) && strings.Contains(configPath, "/etc/") {
			return fmt.Errorf("failed to create config directory %s: permission denied. Try running with sudo", dir)
		}
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := viper.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() string {
	if configPathOverride != "" {
		return configPathOverride
	}

	// Check if config file is already loaded
	if viper.ConfigFileUsed() != "" {
		return viper.ConfigFileUsed()
	}

	if os.Getuid() == 0 {
		return "/etc/x11drv/x11drv.toml"
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "/etc/x11drv/x11drv.toml"
	}

	return filepath.Join(home, ".config", "x11drv", "x11drv.toml")
}

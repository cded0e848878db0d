package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	t.Run("initializes with defaults when no config exists", func(t *testing.T) {
		viper.Reset()

		err := Init()
		require.NoError(t, err)

		cfg := Get()
		require.NotNil(t, cfg)
		assert.Equal(t, "", cfg.Display)
		assert.Equal(t, 0, cfg.ScreenDepth)
		assert.True(t, cfg.ReentrantX11)
	})

	t.Run("reads a config file", func(t *testing.T) {
		tmpDir := t.TempDir()
		content := `display = ":1"
managed = "y"
screen_depth = 16
`
		path := filepath.Join(tmpDir, "x11drv.toml")
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		viper.Reset()
		SetConfigPath(path)
		defer SetConfigPath("")

		require.NoError(t, Init())
		cfg := Get()
		assert.Equal(t, ":1", cfg.Display)
		assert.Equal(t, "y", cfg.Managed)
		assert.Equal(t, 16, cfg.ScreenDepth)
	})
}

func TestResolveDisplayPrecedence(t *testing.T) {
	t.Run("persisted display wins over caller with one warning", func(t *testing.T) {
		viper.Reset()
		t.Setenv("DISPLAY", "")
		viper.Set("display", ":0")

		res, warnings, err := Resolve(Options{Display: ":1"})
		require.NoError(t, err)
		assert.Equal(t, ":0", res.Display)
		assert.Len(t, warnings, 1)
		assert.Equal(t, ":0", viper.GetString("display"), "persisted value must remain")
	})

	t.Run("matching caller value produces no warning", func(t *testing.T) {
		viper.Reset()
		t.Setenv("DISPLAY", "")
		viper.Set("display", ":0")

		res, warnings, err := Resolve(Options{Display: ":0"})
		require.NoError(t, err)
		assert.Equal(t, ":0", res.Display)
		assert.Empty(t, warnings)
	})

	t.Run("persisted display wins over environment with one warning", func(t *testing.T) {
		viper.Reset()
		t.Setenv("DISPLAY", ":9")
		viper.Set("display", ":0")

		res, warnings, err := Resolve(Options{})
		require.NoError(t, err)
		assert.Equal(t, ":0", res.Display)
		assert.Len(t, warnings, 1)
	})

	t.Run("caller value is persisted only when nothing was persisted", func(t *testing.T) {
		viper.Reset()
		t.Setenv("DISPLAY", "")

		res, warnings, err := Resolve(Options{Display: ":2"})
		require.NoError(t, err)
		assert.Equal(t, ":2", res.Display)
		assert.Empty(t, warnings)
		assert.Equal(t, ":2", viper.GetString("display"))
	})

	t.Run("environment used when nothing else is available", func(t *testing.T) {
		viper.Reset()
		t.Setenv("DISPLAY", ":3")

		res, _, err := Resolve(Options{})
		require.NoError(t, err)
		assert.Equal(t, ":3", res.Display)
		assert.Equal(t, ":3", viper.GetString("display"))
	})

	t.Run("no display anywhere is an error", func(t *testing.T) {
		viper.Reset()
		t.Setenv("DISPLAY", "")

		_, _, err := Resolve(Options{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNoDisplay))
	})
}

func TestResolveManagedDesktop(t *testing.T) {
	t.Run("persisted entries adopted when caller supplied neither", func(t *testing.T) {
		viper.Reset()
		t.Setenv("DISPLAY", ":0")
		viper.Set("managed", "y")

		res, _, err := Resolve(Options{})
		require.NoError(t, err)
		assert.True(t, res.Managed)
	})

	t.Run("falsy persisted desktop entry is ignored", func(t *testing.T) {
		viper.Reset()
		t.Setenv("DISPLAY", ":0")
		viper.Set("desktop", "no")

		res, _, err := Resolve(Options{})
		require.NoError(t, err)
		assert.Equal(t, "", res.Desktop)
	})

	t.Run("persisted desktop geometry adopted", func(t *testing.T) {
		viper.Reset()
		t.Setenv("DISPLAY", ":0")
		viper.Set("desktop", "800x600")

		res, _, err := Resolve(Options{})
		require.NoError(t, err)
		assert.Equal(t, "800x600", res.Desktop)
	})

	t.Run("desktop forces managed off for every prior combination", func(t *testing.T) {
		for _, persisted := range []string{"", "y", "n"} {
			for _, callerManaged := range []bool{false, true} {
				viper.Reset()
				t.Setenv("DISPLAY", ":0")
				if persisted != "" {
					viper.Set("managed", persisted)
				}

				res, _, err := Resolve(Options{Managed: callerManaged, Desktop: "640x480"})
				require.NoError(t, err)
				assert.False(t, res.Managed,
					"persisted=%q callerManaged=%v", persisted, callerManaged)
				assert.Equal(t, "640x480", res.Desktop)
			}
		}
	})

	t.Run("caller managed flag is written back", func(t *testing.T) {
		viper.Reset()
		t.Setenv("DISPLAY", ":0")

		res, _, err := Resolve(Options{Managed: true})
		require.NoError(t, err)
		assert.True(t, res.Managed)
		assert.Equal(t, "y", viper.GetString("managed"))
	})

	t.Run("caller desktop geometry is written back", func(t *testing.T) {
		viper.Reset()
		t.Setenv("DISPLAY", ":0")

		_, _, err := Resolve(Options{Desktop: "1024x768"})
		require.NoError(t, err)
		assert.Equal(t, "1024x768", viper.GetString("desktop"))
	})
}

func TestSaveWritesFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "x11drv.toml")

	viper.Reset()
	SetConfigPath(path)
	defer SetConfigPath("")

	require.NoError(t, Init())
	viper.Set("display", ":5")
	require.NoError(t, Save())

	viper.Reset()
	SetConfigPath(path)
	require.NoError(t, Init())
	assert.Equal(t, ":5", Get().Display)
}

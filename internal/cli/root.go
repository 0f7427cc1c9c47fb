// Package cli provides the cobra commands of the surfshell binary.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ayusman/surfshell/internal/config"
	"github.com/ayusman/surfshell/internal/logging"
)

// SettingsFile is the settings file name inside the data directory.
const SettingsFile = "settings.toml"

var (
	settingsPath string
	settings     *config.Settings
	logger       zerolog.Logger

	rootCmd = &cobra.Command{
		Use:   "surfshell",
		Short: "A gesture-driven browser shell with extensions",
		Long: `surfshell - a small browser shell driven by mouse gestures.

Hold the gesture button and drag to go back (left), forward (right),
reload (up) or close the tab (down). Extensions add actions to the menu;
the built-ins provide dark mode, reader mode and a page inspector.

Without a subcommand surfshell behaves like 'surfshell run' and starts the
shell with its tray menu and control server.`,
		SilenceUsage: true,
		RunE:         runShell,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			switch cmd.Name() {
			case "help", "completion", "schema":
				return nil
			}
			return loadSettings()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&settingsPath, "config", "", "settings file (default ~/"+config.AppDirName+"/"+SettingsFile+")")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadSettings() error {
	path := settingsPath
	if path == "" {
		dir, err := config.DefaultDir()
		if err != nil {
			return err
		}
		path = filepath.Join(dir, SettingsFile)
	}

	settings = config.New(path)
	if err := settings.Load(); err != nil {
		return err
	}

	cfg := logging.DefaultConfig()
	cfg.Level = logging.ParseLevel(settings.LogLevel())
	cfg.Format = settings.LogFormat()
	logger = logging.New(cfg)
	return nil
}

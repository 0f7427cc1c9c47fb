package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ayusman/surfshell/internal/app"
	"github.com/ayusman/surfshell/internal/extension"
)

var extensionsCmd = &cobra.Command{
	Use:     "extensions",
	Aliases: []string{"ext"},
	Short:   "Manage extensions",
}

var extensionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List loaded extensions and load failures",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withExtensions(cmd.Context(), func(m *extension.Manager) error {
			fmt.Println(RenderExtensions(DefaultTheme(), m.Dir(), m.List(), m.Failures()))
			return nil
		})
	},
}

var extensionsToggleCmd = &cobra.Command{
	Use:   "toggle <id>",
	Short: "Enable or disable an extension",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		return withExtensions(cmd.Context(), func(m *extension.Manager) error {
			if _, ok := m.Info(id); !ok {
				return fmt.Errorf("extension %q is not loaded", id)
			}
			err := m.Toggle(cmd.Context(), id)
			info, _ := m.Info(id)
			fmt.Println(RenderToggle(DefaultTheme(), info))
			return err
		})
	},
}

var extensionsSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of manifest.json",
	RunE: func(_ *cobra.Command, _ []string) error {
		data, err := json.MarshalIndent(extension.Schema(), "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}

func init() {
	extensionsCmd.AddCommand(extensionsListCmd, extensionsToggleCmd, extensionsSchemaCmd)
	rootCmd.AddCommand(extensionsCmd)
}

// withExtensions loads the extensions headless and runs fn against the manager.
func withExtensions(ctx context.Context, fn func(*extension.Manager) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := app.New(app.Config{Settings: settings, Logger: logger})
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	if err := a.LoadExtensions(ctx); err != nil {
		return err
	}
	return fn(a.Extensions())
}

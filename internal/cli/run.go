package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ayusman/surfshell/internal/app"
)

var (
	staticDir string
	noTray    bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the shell, tray menu and control server",
	Long: `Start surfshell. The control server listens on server.addr and
serves the JSON API, the live event stream on /api/events and, with
--static, a web front end.`,
	RunE: runShell,
}

func init() {
	runCmd.Flags().StringVar(&staticDir, "static", "", "directory of static files to serve at /")
	runCmd.Flags().BoolVar(&noTray, "no-tray", false, "run without the system tray menu")
	rootCmd.AddCommand(runCmd)
}

func runShell(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(app.Config{
		Settings:  settings,
		Logger:    logger,
		StaticDir: staticDir,
		Tray:      !noTray,
	})
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	if err := a.Start(ctx); err != nil {
		return err
	}
	return a.Run(ctx)
}

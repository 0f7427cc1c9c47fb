package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ayusman/surfshell/internal/backup"
	"github.com/ayusman/surfshell/internal/store"
)

var backupDir string

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Export bookmarks, history and settings to a zip archive",
	Long: `Export bookmarks, history and settings as JSON files into backup.dir,
record their SHA-256 hashes and archive them under backups/. Only the five
newest archives are kept.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withBackup(func(m *backup.Manager) error {
			res, err := m.Export(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Println(RenderExport(DefaultTheme(), res))
			return nil
		})
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List backup archives",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withBackup(func(m *backup.Manager) error {
			names, err := m.Backups()
			if err != nil {
				return err
			}
			fmt.Println(RenderBackups(DefaultTheme(), m.Dir(), names))
			return nil
		})
	},
}

var backupVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the exported files against their saved hashes",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withBackup(func(m *backup.Manager) error {
			if err := m.Verify(); err != nil {
				return err
			}
			fmt.Println(DefaultTheme().Enabled.Render("✓ exported files are intact"))
			return nil
		})
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore [date]",
	Short: "Restore the newest backup, or the newest one matching date (YYYYMMDD)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		date := ""
		if len(args) == 1 {
			date = args[0]
		}
		return withBackup(func(m *backup.Manager) error {
			res, err := m.Restore(cmd.Context(), date)
			if errors.Is(err, backup.ErrNoBackups) {
				return fmt.Errorf("%w in %s", err, m.Dir())
			}
			if err != nil {
				return err
			}
			fmt.Println(RenderRestore(DefaultTheme(), res))
			return nil
		})
	},
}

func init() {
	backupCmd.PersistentFlags().StringVar(&backupDir, "dir", "", "backup directory (default backup.dir)")
	backupCmd.AddCommand(backupListCmd, backupVerifyCmd, backupRestoreCmd)
	rootCmd.AddCommand(backupCmd)
}

func withBackup(fn func(*backup.Manager) error) error {
	s, err := store.New(settings.StorePath())
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer s.Close()

	dir := backupDir
	if dir == "" {
		dir = settings.BackupDir()
	}
	return fn(backup.New(backup.Config{
		Dir:       dir,
		Bookmarks: s.Bookmarks(),
		History:   s.History(),
		Settings:  settings,
		Logger:    logger,
	}))
}

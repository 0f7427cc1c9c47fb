package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ayusman/surfshell/internal/backup"
	"github.com/ayusman/surfshell/internal/extension"
)

// Theme holds the lipgloss styles of the CLI output.
type Theme struct {
	Title    lipgloss.Style
	Name     lipgloss.Style
	Subtle   lipgloss.Style
	Enabled  lipgloss.Style
	Disabled lipgloss.Style
	Error    lipgloss.Style
	Box      lipgloss.Style
}

// DefaultTheme returns the dark palette.
func DefaultTheme() *Theme {
	accent := lipgloss.Color("#4ade80")
	muted := lipgloss.Color("#909090")
	return &Theme{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(accent),
		Name:     lipgloss.NewStyle().Bold(true),
		Subtle:   lipgloss.NewStyle().Foreground(muted),
		Enabled:  lipgloss.NewStyle().Foreground(accent),
		Disabled: lipgloss.NewStyle().Foreground(muted),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("#f87171")),
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#333333")).
			Padding(0, 1),
	}
}

func (t *Theme) state(enabled bool) string {
	if enabled {
		return t.Enabled.Render("● enabled")
	}
	return t.Disabled.Render("○ disabled")
}

// RenderExtensions renders the extension listing.
func RenderExtensions(t *Theme, dir string, infos []extension.Info, failures []*extension.LoadError) string {
	var b strings.Builder
	b.WriteString(t.Title.Render(fmt.Sprintf("Extensions (%d)", len(infos))))
	b.WriteString("  " + t.Subtle.Render(dir) + "\n")

	if len(infos) == 0 {
		b.WriteString(t.Subtle.Render("  none loaded") + "\n")
	}
	for _, info := range infos {
		fmt.Fprintf(&b, "\n%s %s  %s\n", t.Name.Render(info.Name), t.Subtle.Render(info.Version), t.state(info.Enabled))
		fmt.Fprintf(&b, "  %s\n", t.Subtle.Render(info.ID))
		if info.Description != "" {
			fmt.Fprintf(&b, "  %s\n", info.Description)
		}
		for _, a := range info.Actions {
			line := "  - " + a.Label
			if a.Shortcut != "" {
				line += " " + t.Subtle.Render("("+a.Shortcut+")")
			}
			b.WriteString(line + "\n")
		}
	}

	if len(failures) > 0 {
		var fb strings.Builder
		fb.WriteString(t.Error.Render(fmt.Sprintf("Failed to load (%d)", len(failures))))
		for _, f := range failures {
			fmt.Fprintf(&fb, "\n%s: %s", t.Name.Render(f.ID), f.Reason())
		}
		b.WriteString("\n" + t.Box.Render(fb.String()))
	}

	return strings.TrimRight(b.String(), "\n")
}

// RenderToggle renders the result of a toggle.
func RenderToggle(t *Theme, info extension.Info) string {
	return fmt.Sprintf("%s %s", t.Name.Render(info.Name), t.state(info.Enabled))
}

// RenderExport renders the result of an export.
func RenderExport(t *Theme, res *backup.Result) string {
	var b strings.Builder
	b.WriteString(t.Title.Render("Backup created") + "  " + t.Subtle.Render(res.Archive) + "\n")
	fmt.Fprintf(&b, "  %d bookmarks, %d history entries, settings", res.Bookmarks, res.History)
	return b.String()
}

// RenderBackups renders the archive listing, newest first.
func RenderBackups(t *Theme, dir string, names []string) string {
	var b strings.Builder
	b.WriteString(t.Title.Render(fmt.Sprintf("Backups (%d)", len(names))))
	b.WriteString("  " + t.Subtle.Render(filepath.Join(dir, "backups")) + "\n")
	if len(names) == 0 {
		b.WriteString(t.Subtle.Render("  none"))
	}
	for i := len(names) - 1; i >= 0; i-- {
		b.WriteString("  " + names[i])
		if i > 0 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// RenderRestore renders the result of a restore.
func RenderRestore(t *Theme, res *backup.RestoreResult) string {
	settings := "unchanged"
	if res.Settings {
		settings = "merged"
	}
	return fmt.Sprintf("%s  %s\n  %d bookmarks, %d history entries added, settings %s",
		t.Title.Render("Restored"), t.Subtle.Render(filepath.Base(res.Archive)),
		res.Bookmarks, res.History, settings)
}

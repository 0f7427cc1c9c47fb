package config

import (
	"os"
	"path/filepath"
)

// setDefaults registers the default value of every known key.
// dataDir is the directory holding the settings file; store and extensions live next to it.
func (s *Settings) setDefaults(dataDir string) {
	downloads := "Downloads"
	if home, err := os.UserHomeDir(); err == nil {
		downloads = filepath.Join(home, "Downloads")
	}

	defaults := map[string]any{
		"general.home_page":     "https://www.google.com",
		"general.search_engine": "https://www.google.com/search?q={}",
		"general.download_path": downloads,
		"general.save_session":  true,

		"privacy.clear_on_exit": false,
		"privacy.do_not_track":  true,
		"privacy.block_ads":     false,

		"appearance.theme":              "light",
		"appearance.font_size":          14,
		"appearance.show_bookmarks_bar": true,
		"appearance.show_status_bar":    true,

		"advanced.hardware_acceleration": true,
		"advanced.proxy_enabled":         false,
		"advanced.proxy_address":         "",
		"advanced.proxy_port":            "",
		"advanced.user_agent":            "",

		"gestures.threshold":  50.0,
		"gestures.fade_delay": "500ms",
		"gestures.button":     "right",

		"zen.auto_hide_delay":    "3s",
		"zen.leave_hide_delay":   "1s",
		"zen.animation_duration": "300ms",

		"extensions.dir": filepath.Join(dataDir, "extensions"),
		"server.addr":    "127.0.0.1:8080",
		"store.path":     filepath.Join(dataDir, "surfshell.db"),
		"backup.dir":     filepath.Join(dataDir, "sync"),

		"logging.level":  "info",
		"logging.format": "console",
	}

	for key, value := range defaults {
		s.v.SetDefault(key, value)
	}
}

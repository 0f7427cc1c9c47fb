// Package config provides the explicitly constructed settings object for surfshell.
// Settings are backed by a TOML file and can be overridden with SURFSHELL_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// AppDirName is the name of the per-user data directory under $HOME.
const AppDirName = ".surfshell"

// Settings holds the application configuration.
// It is created once at startup and passed by pointer to the components that need it.
type Settings struct {
	v    *viper.Viper
	path string

	mu        sync.RWMutex
	callbacks []func(*Settings)
}

// DefaultDir returns ~/.surfshell.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, AppDirName), nil
}

// New creates Settings bound to the given TOML file with defaults applied.
// Nothing is read from disk until Load is called.
func New(path string) *Settings {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	v.SetEnvPrefix("SURFSHELL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	s := &Settings{v: v, path: path}
	s.setDefaults(filepath.Dir(path))
	return s
}

// Path returns the settings file path.
func (s *Settings) Path() string {
	return s.path
}

// Load reads the settings file, creating it from defaults if it does not exist.
func (s *Settings) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		if err := s.writeLocked(); err != nil {
			return fmt.Errorf("failed to create default settings at %s: %w", s.path, err)
		}
	}

	if err := s.v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	}

	if err := s.validateLocked(); err != nil {
		return fmt.Errorf("settings validation failed: %w", err)
	}

	return nil
}

// Save writes the current settings to disk.
func (s *Settings) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked()
}

// Set updates a single key ("section.key") and persists the change.
func (s *Settings) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.v.Set(key, value)
	return s.writeLocked()
}

// Get returns the raw value of a key ("section.key").
func (s *Settings) Get(key string) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.v.Get(key)
}

// OnChange registers fn to be called after the settings file changes on disk.
// Watch must be called for notifications to be delivered.
func (s *Settings) OnChange(fn func(*Settings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callbacks = append(s.callbacks, fn)
}

// Watch starts watching the settings file for changes.
func (s *Settings) Watch() {
	s.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}

		s.mu.RLock()
		callbacks := append([]func(*Settings){}, s.callbacks...)
		s.mu.RUnlock()

		for _, fn := range callbacks {
			fn(s)
		}
	})
	s.v.WatchConfig()
}

func (s *Settings) writeLocked() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	return s.v.WriteConfigAs(s.path)
}

func (s *Settings) validateLocked() error {
	return validate(s.v)
}

func validate(v *viper.Viper) error {
	if v.GetFloat64("gestures.threshold") <= 0 {
		return errors.New("gestures.threshold must be positive")
	}
	if v.GetDuration("gestures.fade_delay") < 0 {
		return errors.New("gestures.fade_delay must not be negative")
	}
	switch v.GetString("gestures.button") {
	case "left", "middle", "right":
	default:
		return fmt.Errorf("gestures.button %q must be left, middle or right", v.GetString("gestures.button"))
	}
	switch v.GetString("appearance.theme") {
	case "light", "dark", "sepia":
	default:
		return fmt.Errorf("appearance.theme %q is not supported", v.GetString("appearance.theme"))
	}
	return nil
}

// All returns every setting as nested section maps.
func (s *Settings) All() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.v.AllSettings()
}

// Merge applies nested section maps, as returned by All, and persists them.
// Nothing is changed if the merged settings fail validation.
func (s *Settings) Merge(values map[string]any) error {
	flat := make(map[string]any)
	flatten("", values, flat)

	s.mu.Lock()
	defer s.mu.Unlock()

	scratch := viper.New()
	if err := scratch.MergeConfigMap(s.v.AllSettings()); err != nil {
		return err
	}
	for k, v := range flat {
		scratch.Set(k, v)
	}
	if err := validate(scratch); err != nil {
		return fmt.Errorf("settings validation failed: %w", err)
	}

	for k, v := range flat {
		s.v.Set(k, v)
	}
	return s.writeLocked()
}

func flatten(prefix string, values map[string]any, out map[string]any) {
	for k, v := range values {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			flatten(key, nested, out)
			continue
		}
		out[key] = v
	}
}

// General settings.

func (s *Settings) HomePage() string { return s.getString("general.home_page") }
func (s *Settings) SearchEngine() string { return s.getString("general.search_engine") }
func (s *Settings) DownloadPath() string { return s.getString("general.download_path") }
func (s *Settings) SaveSession() bool { return s.getBool("general.save_session") }

// Privacy settings.

func (s *Settings) ClearOnExit() bool { return s.getBool("privacy.clear_on_exit") }
func (s *Settings) DoNotTrack() bool { return s.getBool("privacy.do_not_track") }
func (s *Settings) BlockAds() bool { return s.getBool("privacy.block_ads") }

// Appearance settings.

func (s *Settings) Theme() string { return s.getString("appearance.theme") }
func (s *Settings) FontSize() int { return s.getInt("appearance.font_size") }

// UserAgent returns the configured user agent, empty for the engine default.
func (s *Settings) UserAgent() string { return s.getString("advanced.user_agent") }

// Proxy returns the proxy URL, or "" when no proxy is enabled.
func (s *Settings) Proxy() string {
	if !s.getBool("advanced.proxy_enabled") {
		return ""
	}
	addr := s.getString("advanced.proxy_address")
	if addr == "" {
		return ""
	}
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	if port := s.getString("advanced.proxy_port"); port != "" {
		addr += ":" + port
	}
	return addr
}

// Gesture settings.

func (s *Settings) GestureThreshold() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.v.GetFloat64("gestures.threshold")
}

func (s *Settings) GestureFadeDelay() time.Duration { return s.getDuration("gestures.fade_delay") }
func (s *Settings) GestureButton() string { return s.getString("gestures.button") }

// Zen mode timings.

func (s *Settings) ZenAutoHideDelay() time.Duration { return s.getDuration("zen.auto_hide_delay") }
func (s *Settings) ZenLeaveHideDelay() time.Duration { return s.getDuration("zen.leave_hide_delay") }
func (s *Settings) ZenAnimationDuration() time.Duration { return s.getDuration("zen.animation_duration") }

// Component locations.

func (s *Settings) ExtensionsDir() string { return s.getString("extensions.dir") }
func (s *Settings) ServerAddr() string { return s.getString("server.addr") }
func (s *Settings) StorePath() string { return s.getString("store.path") }
func (s *Settings) BackupDir() string { return s.getString("backup.dir") }
func (s *Settings) LogLevel() string { return s.getString("logging.level") }
func (s *Settings) LogFormat() string { return s.getString("logging.format") }

func (s *Settings) getString(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.v.GetString(key)
}

func (s *Settings) getBool(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.v.GetBool(key)
}

func (s *Settings) getInt(key string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.v.GetInt(key)
}

func (s *Settings) getDuration(key string) time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.v.GetDuration(key)
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// AppName names the per-user config and cache directories.
const AppName = "reproto"

// Platform holds the per-user directories. It is detected once at startup and passed
// to everything that needs it.
type Platform struct {
	ConfigDir string
	CacheDir  string
}

// DetectPlatform applies the conventions of the running OS: %APPDATA% and
// %LOCALAPPDATA% on Windows, ~/Library on macOS and the XDG base directories elsewhere.
func DetectPlatform() (Platform, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Platform{}, fmt.Errorf("failed to get home directory: %w", err)
	}
	return PlatformFor(runtime.GOOS, home, os.Getenv), nil
}

// PlatformFor computes the directories for goos without consulting the process.
func PlatformFor(goos, home string, getenv func(string) string) Platform {
	var configDir, cacheDir string
	switch goos {
	case "windows":
		configDir = getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(home, "AppData", "Roaming")
		}
		cacheDir = getenv("LOCALAPPDATA")
		if cacheDir == "" {
			cacheDir = filepath.Join(home, "AppData", "Local")
		}
	case "darwin":
		configDir = filepath.Join(home, "Library", "Application Support")
		cacheDir = filepath.Join(home, "Library", "Caches")
	default:
		configDir = getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			configDir = filepath.Join(home, ".config")
		}
		cacheDir = getenv("XDG_CACHE_HOME")
		if cacheDir == "" {
			cacheDir = filepath.Join(home, ".cache")
		}
	}
	return Platform{
		ConfigDir: filepath.Join(configDir, AppName),
		CacheDir:  filepath.Join(cacheDir, AppName),
	}
}

// ConfigFile is the default location of the local config file.
func (p Platform) ConfigFile() string {
	return filepath.Join(p.ConfigDir, FileName)
}

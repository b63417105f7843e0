// Package config loads the local repository configuration and builds a Repository
// from it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/thepwagner/schemarepo/pkg/core"
)

// FileName is the local config file inside Platform.ConfigDir.
const FileName = "schemarepo.toml"

type Config struct {
	Repository RepositoryConfig `toml:"repository"`
}

type RepositoryConfig struct {
	// Index is the index URL.
	Index string `toml:"index"`
	// Objects is the objects URL. Defaults to the location advertised by the index.
	Objects string `toml:"objects"`
	// CacheHome overrides Platform.CacheDir.
	CacheHome string `toml:"cache_home"`
	// RepoDir holds git checkouts of remote indexes. Defaults to <cache home>/git.
	RepoDir string `toml:"repo_dir"`
	// MissingCacheTime is a duration string such as "30m". Unset uses
	// objects.DefaultMissingCacheTime; "0s" disables negative caching.
	MissingCacheTime string `toml:"missing_cache_time"`
}

// Load reads the TOML config at path. A missing file yields an empty config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Config{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(path, data)
}

// Parse decodes TOML config data. path is only used in errors.
func Parse(path string, data []byte) (*Config, error) {
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		malformed := &core.MalformedError{Path: path, Reason: err.Error()}
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			malformed.Line, _ = decodeErr.Position()
		}
		return nil, malformed
	}
	if _, err := cfg.Repository.missingCacheTime(); err != nil {
		return nil, &core.MalformedError{Path: path, Reason: err.Error()}
	}
	return &cfg, nil
}

// missingCacheTime is nil when unset. "0s" disables negative caching.
func (r RepositoryConfig) missingCacheTime() (*time.Duration, error) {
	if r.MissingCacheTime == "" {
		return nil, nil
	}
	d, err := time.ParseDuration(r.MissingCacheTime)
	if err != nil {
		return nil, fmt.Errorf("invalid missing_cache_time %q: %w", r.MissingCacheTime, err)
	}
	if d < 0 {
		return nil, fmt.Errorf("invalid missing_cache_time %q: negative", r.MissingCacheTime)
	}
	return &d, nil
}

package server

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/thepwagner/schemarepo/pkg/objects"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is read when no config path is given.
const DefaultConfigFile = "schemarepo.yml"

type Config struct {
	Addr string `yaml:"addr"`

	// Objects is the backing store URL. Empty keeps objects in memory.
	Objects string               `yaml:"objects"`
	Memory  objects.MemoryConfig `yaml:"memory"`

	// Cache, when Path is set, mirrors the backing store into a local directory.
	Cache objects.CacheConfig `yaml:"cache"`

	// MaxObjectSize limits PUT bodies, in bytes.
	MaxObjectSize int64 `yaml:"maxObjectSize"`
}

// LoadConfig reads a YAML config. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	f, err := os.Open(path)
	if err == nil {
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("error decoding config: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error opening config: %w", err)
	} else {
		slog.Info("no config file found, using defaults", slog.String("path", path))
	}

	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.MaxObjectSize <= 0 {
		cfg.MaxObjectSize = DefaultMaxObjectSize
	}
	return &cfg, nil
}

// BuildObjects opens the store described by cfg.
func BuildObjects(cfg *Config) (objects.Objects, error) {
	var base objects.Objects
	if cfg.Objects == "" {
		slog.Debug("using in-memory objects", slog.Int("size", cfg.Memory.Size))
		base = objects.NewMemoryObjects(cfg.Memory)
	} else {
		var err error
		base, err = objects.FromURL(cfg.Objects)
		if err != nil {
			return nil, fmt.Errorf("error building objects: %w", err)
		}
	}

	if cfg.Cache.Path == "" {
		return base, nil
	}
	slog.Debug("caching objects", slog.String("path", cfg.Cache.Path))
	return objects.NewCachedObjects(base, cfg.Cache), nil
}

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/meigma/jagcache"
)

// config is the YAML form of the dump settings. Every field can also be set
// by flag; flags win.
//
//	cache: /home/me/jagexcache/oldschool/LIVE
//	out: /tmp/dump
//	workers: 8
//	wav: true
//	dumps: [title, varbits, sfx]
//	keys:
//	  5:
//	    12850: [1, 2, 3, 4]
type config struct {
	Cache    string   `yaml:"cache,omitempty"`
	Out      string   `yaml:"out,omitempty"`
	Workers  int      `yaml:"workers,omitempty"`
	WAV      bool     `yaml:"wav"`
	Dumps    []string `yaml:"dumps,omitempty"`
	LogLevel string   `yaml:"log_level,omitempty"`

	// Keys maps index id to archive id to XTEA key.
	Keys map[int]map[int][4]int32 `yaml:"keys,omitempty"`
}

func defaultConfig() *config {
	return &config{WAV: true}
}

// loadConfig reads a YAML config. Fields it leaves out keep their defaults.
func loadConfig(path string) (*config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-specified config path
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// resolve fills in default locations and validates the dump list.
func (c *config) resolve() error {
	if c.Cache == "" {
		dir, err := defaultCacheDir()
		if err != nil {
			return err
		}
		c.Cache = dir
		if c.Out == "" {
			c.Out = filepath.Join(dir, "..", "..", "dump")
		}
	}
	if c.Out == "" {
		c.Out = filepath.Join(c.Cache, "dump")
	}
	c.Out = filepath.Clean(c.Out)

	if len(c.Dumps) == 0 {
		c.Dumps = dumpNames()
	}
	var errs []error
	for _, name := range c.Dumps {
		if _, ok := dumps[name]; !ok {
			errs = append(errs, fmt.Errorf("unknown dump %q", name))
		}
	}
	return errors.Join(errs...)
}

func (c *config) wants(name string) bool {
	return slices.Contains(c.Dumps, name)
}

// storeOptions turns the key table into store options.
func (c *config) storeOptions() []jagcache.Option {
	var opts []jagcache.Option
	for index, archives := range c.Keys {
		keys := make(map[int]jagcache.Keys, len(archives))
		for archive, k := range archives {
			keys[archive] = jagcache.Keys(k)
		}
		opts = append(opts, jagcache.WithKeyMap(index, keys))
	}
	return opts
}

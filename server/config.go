package server

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/janelia-flyem/seisvds/storage"
	"github.com/janelia-flyem/seisvds/vds"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultWebAddress is the default address of the HTTP server.
	DefaultWebAddress = "localhost:8000"

	// WebAPIPath is the path prefix of every API endpoint.
	WebAPIPath = "/api/"
)

// Config is the parsed service configuration.
type Config struct {
	Server  serverConfig        `toml:"server" yaml:"server"`
	Store   map[string]any      `toml:"store" yaml:"store"`
	Cache   storage.CacheConfig `toml:"cache" yaml:"cache"`
	Fetch   fetchConfig         `toml:"fetch" yaml:"fetch"`
	Logging vds.LogConfig       `toml:"logging" yaml:"logging"`

	location string
}

type serverConfig struct {
	HTTPAddress string   `toml:"http_address" yaml:"http_address"`
	CorsDomains []string `toml:"cors_domains" yaml:"cors_domains"`
	Note        string   `toml:"note" yaml:"note"`
}

type fetchConfig struct {
	Concurrency      int `toml:"concurrency" yaml:"concurrency"`
	Retries          int `toml:"retries" yaml:"retries"`
	BackoffInitialMs int `toml:"backoff_initial_ms" yaml:"backoff_initial_ms"`
	BackoffMaxMs     int `toml:"backoff_max_ms" yaml:"backoff_max_ms"`
}

// DefaultConfig returns the configuration used for unset settings.
func DefaultConfig() *Config {
	opts := storage.DefaultOptions()
	return &Config{
		Server: serverConfig{HTTPAddress: DefaultWebAddress},
		Store:  map[string]any{},
		Cache:  opts.Cache,
		Fetch: fetchConfig{
			Concurrency:      opts.Concurrency,
			Retries:          opts.Retries,
			BackoffInitialMs: int(opts.BackoffInitial / time.Millisecond),
			BackoffMaxMs:     int(opts.BackoffMax / time.Millisecond),
		},
	}
}

// LoadConfig reads a TOML or, for .yaml and .yml files, a YAML configuration.
// Settings missing from the file keep their defaults.
func LoadConfig(filename string) (*Config, error) {
	if filename == "" {
		return nil, fmt.Errorf("no configuration file provided")
	}
	c := DefaultConfig()
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(filename)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("could not decode YAML config: %v", err)
		}
	default:
		if _, err := toml.DecodeFile(filename, c); err != nil {
			return nil, fmt.Errorf("could not decode TOML config: %v", err)
		}
	}
	c.location = filename
	if err := c.convertPathsToAbsolute(filename); err != nil {
		return nil, fmt.Errorf("could not convert relative paths to absolute paths in config: %v", err)
	}
	return c, nil
}

// Some settings can be given as paths relative to the config file's own directory.
func (c *Config) convertPathsToAbsolute(configPath string) error {
	configDir := filepath.Dir(configPath)

	// [logging].logfile
	if c.Logging.Logfile != "" {
		c.Logging.Logfile = convertToAbsolute(c.Logging.Logfile, configDir)
	}

	// [store].path
	if p, found := c.Store["path"]; found {
		path, ok := p.(string)
		if !ok {
			return fmt.Errorf("don't understand store path setting %v", p)
		}
		c.Store["path"] = convertToAbsolute(path, configDir)
	}
	return nil
}

func convertToAbsolute(path, dir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// Location returns the file the configuration was loaded from.
func (c *Config) Location() string {
	return c.location
}

// HTTPAddress returns the address the HTTP server listens on.
func (c *Config) HTTPAddress() string {
	if c.Server.HTTPAddress == "" {
		return DefaultWebAddress
	}
	return c.Server.HTTPAddress
}

// StoreConfig returns the [store] section as the engine name and its settings.
func (c *Config) StoreConfig() (vds.StoreConfig, error) {
	sc := vds.StoreConfig{Config: vds.NewConfig()}
	for k, v := range c.Store {
		sc.Set(k, v)
	}
	engine, found, err := sc.GetString("engine")
	if err != nil {
		return sc, err
	}
	if !found || engine == "" {
		return sc, fmt.Errorf("store has no engine, available engines:\n%s", storage.EnginesAvailable())
	}
	sc.Engine = engine
	return sc, nil
}

// Options returns the [fetch] and [cache] sections as grid store options.
func (c *Config) Options() storage.Options {
	return storage.Options{
		Concurrency:    c.Fetch.Concurrency,
		Retries:        c.Fetch.Retries,
		BackoffInitial: time.Duration(c.Fetch.BackoffInitialMs) * time.Millisecond,
		BackoffMax:     time.Duration(c.Fetch.BackoffMaxMs) * time.Millisecond,
		Cache:          c.Cache,
	}
}

func (c *Config) String() string {
	sc, _ := c.StoreConfig()
	return fmt.Sprintf("store %s, cache %s, fetch %+v, http %s", sc, c.Cache.Kind, c.Fetch, c.HTTPAddress())
}

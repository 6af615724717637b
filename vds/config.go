package vds

import (
	"fmt"
	"strconv"
	"strings"
)

// Config is a map of keyword to arbitrary data to specify configurations via keyword.
// Keywords are case-insensitive.
type Config map[string]interface{}

// NewConfig returns an empty Config.
func NewConfig() Config {
	return make(Config)
}

// Set stores a value under the lowercased key.
func (c Config) Set(key string, v interface{}) {
	c[strings.ToLower(key)] = v
}

// Get returns the raw value for a key.  Keys set without Set, e.g., by a config
// decoder, are matched case-insensitively.
func (c Config) Get(key string) (v interface{}, found bool) {
	if v, found = c[strings.ToLower(key)]; found {
		return
	}
	for k, v := range c {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

// GetString returns a string value for the given key.  A non-string value is an error.
func (c Config) GetString(key string) (s string, found bool, err error) {
	v, found := c.Get(key)
	if !found {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", true, fmt.Errorf("setting for %q was not a string: %v", key, v)
	}
	return s, true, nil
}

// GetInt returns an int value for the given key.  Strings holding integers and
// the numeric types produced by the TOML and YAML decoders are accepted.
func (c Config) GetInt(key string) (i int, found bool, err error) {
	v, found := c.Get(key)
	if !found {
		return 0, false, nil
	}
	switch t := v.(type) {
	case int:
		i = t
	case int32:
		i = int(t)
	case int64:
		i = int(t)
	case uint64:
		i = int(t)
	case float64:
		i = int(t)
	case string:
		if i, err = strconv.Atoi(t); err != nil {
			return 0, true, fmt.Errorf("setting for %q was not an int: %v", key, v)
		}
	default:
		return 0, true, fmt.Errorf("setting for %q was not an int: %v", key, v)
	}
	return i, true, nil
}

// GetBool returns a bool value for the given key.  Strings "true" and "false" are accepted.
func (c Config) GetBool(key string) (b bool, found bool, err error) {
	v, found := c.Get(key)
	if !found {
		return false, false, nil
	}
	switch t := v.(type) {
	case bool:
		return t, true, nil
	case string:
		if b, err = strconv.ParseBool(t); err != nil {
			return false, true, fmt.Errorf("setting for %q was not a bool: %v", key, v)
		}
		return b, true, nil
	default:
		return false, true, fmt.Errorf("setting for %q was not a bool: %v", key, v)
	}
}

// StoreConfig is a store-specific configuration where each store engine
// defines the types of parameters it accepts.
type StoreConfig struct {
	Config

	// Engine is a simple name describing the engine, e.g., "blob" or "badger".
	Engine string
}

func (sc StoreConfig) String() string {
	if path, found, _ := sc.GetString("path"); found {
		return fmt.Sprintf("%s:%s", sc.Engine, path)
	}
	if url, found, _ := sc.GetString("url"); found {
		return fmt.Sprintf("%s:%s", sc.Engine, url)
	}
	return sc.Engine
}

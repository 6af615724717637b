package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/janelia-flyem/seisvds/storage"
)

const testTOML = `
[server]
http_address = "localhost:9000"
cors_domains = ["http://localhost:3000"]
note = "small survey"

[store]
engine = "badger"
path = "data/small"
valuethreshold = 1024

[cache]
kind = "freecache"
mb = 128

[fetch]
concurrency = 4
backoff_max_ms = 500

[logging]
logfile = "logs/vdsserve.log"
max_log_size = 100
`

const testYAML = `
server:
  http_address: ":8080"
store:
  engine: blob
  url: "s3://bucket?region=us-east-1"
  prefix: surveys/small
cache:
  kind: none
fetch:
  retries: 5
`

func writeConfig(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTOMLConfig(t *testing.T) {
	path := writeConfig(t, "config.toml", testTOML)
	c, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.HTTPAddress() != "localhost:9000" || len(c.Server.CorsDomains) != 1 || c.Server.Note != "small survey" {
		t.Errorf("bad server section: %+v", c.Server)
	}
	dir := filepath.Dir(path)
	if c.Logging.Logfile != filepath.Join(dir, "logs/vdsserve.log") || c.Logging.MaxSize != 100 {
		t.Errorf("bad logging section: %+v", c.Logging)
	}
	sc, err := c.StoreConfig()
	if err != nil {
		t.Fatal(err)
	}
	if sc.Engine != "badger" {
		t.Errorf("expected badger engine, got %q", sc.Engine)
	}
	if p, _, _ := sc.GetString("path"); p != filepath.Join(dir, "data/small") {
		t.Errorf("store path not made absolute: %q", p)
	}
	if v, found, err := sc.GetInt("valuethreshold"); err != nil || !found || v != 1024 {
		t.Errorf("bad value threshold %d (%t): %v", v, found, err)
	}

	opts := c.Options()
	want := storage.Options{
		Concurrency:    4,
		Retries:        3,
		BackoffInitial: 50 * time.Millisecond,
		BackoffMax:     500 * time.Millisecond,
		Cache:          storage.CacheConfig{Kind: "freecache", Entries: 512, MB: 128},
	}
	if opts != want {
		t.Errorf("expected options %+v, got %+v", want, opts)
	}
	if c.Location() != path {
		t.Errorf("bad location %q", c.Location())
	}
}

func TestYAMLConfig(t *testing.T) {
	c, err := LoadConfig(writeConfig(t, "config.yaml", testYAML))
	if err != nil {
		t.Fatal(err)
	}
	if c.HTTPAddress() != ":8080" {
		t.Errorf("bad http address %q", c.HTTPAddress())
	}
	sc, err := c.StoreConfig()
	if err != nil {
		t.Fatal(err)
	}
	if url, _, _ := sc.GetString("url"); sc.Engine != "blob" || url != "s3://bucket?region=us-east-1" {
		t.Errorf("bad store config %s", sc)
	}
	opts := c.Options()
	if opts.Retries != 5 || opts.Concurrency != 8 || opts.Cache.Kind != "none" {
		t.Errorf("bad options %+v", opts)
	}
}

func TestBadConfig(t *testing.T) {
	if _, err := LoadConfig(""); err == nil {
		t.Errorf("expected missing file name to fail")
	}
	if _, err := LoadConfig(writeConfig(t, "bad.toml", "[store\nengine=")); err == nil {
		t.Errorf("expected bad TOML to fail")
	}
	c, err := LoadConfig(writeConfig(t, "empty.toml", "[server]\n"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.StoreConfig(); err == nil {
		t.Errorf("expected store without engine to fail")
	}
	if c.HTTPAddress() != DefaultWebAddress {
		t.Errorf("expected default address, got %q", c.HTTPAddress())
	}
}

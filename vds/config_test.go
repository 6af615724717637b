package vds

import (
	. "github.com/janelia-flyem/go/gocheck"
)

func (s *DataSuite) TestConfig(c *C) {
	cfg := NewConfig()
	cfg.Set("URL", "mem://")
	cfg.Set("entries", int64(12))
	cfg.Set("ratio", "7")
	cfg.Set("inmemory", true)
	cfg.Set("sync", "false")

	url, found, err := cfg.GetString("url")
	c.Assert(err, IsNil)
	c.Assert(found, Equals, true)
	c.Assert(url, Equals, "mem://")

	n, found, err := cfg.GetInt("entries")
	c.Assert(err, IsNil)
	c.Assert(found, Equals, true)
	c.Assert(n, Equals, 12)
	n, _, err = cfg.GetInt("ratio")
	c.Assert(err, IsNil)
	c.Assert(n, Equals, 7)
	_, _, err = cfg.GetInt("url")
	c.Assert(err, NotNil)

	b, _, err := cfg.GetBool("inmemory")
	c.Assert(err, IsNil)
	c.Assert(b, Equals, true)
	b, _, err = cfg.GetBool("sync")
	c.Assert(err, IsNil)
	c.Assert(b, Equals, false)

	_, found, err = cfg.GetString("missing")
	c.Assert(err, IsNil)
	c.Assert(found, Equals, false)

	sc := StoreConfig{Config: cfg, Engine: "blob"}
	c.Assert(sc.String(), Equals, "blob:mem://")
}

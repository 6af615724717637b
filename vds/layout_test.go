package vds

import (
	. "github.com/janelia-flyem/go/gocheck"
)

func testAxes() [NumAxes]AxisDescriptor {
	return [NumAxes]AxisDescriptor{
		{Name: "Inline", Min: 1, Max: 5, Step: 1},
		{Name: "Crossline", Min: 20, Max: 24, Step: 1},
		{Name: "Sample", Unit: "ms", Min: 0, Max: 196, Step: 4},
	}
}

func (s *DataSuite) TestLayout(c *C) {
	l := NewLayout(testAxes(), Point3d{16, 2, 2}, 2, Zstd)
	c.Assert(l.Validate(), IsNil)
	c.Assert(l.Shape(), Equals, [NumAxes]int{5, 5, 50})
	c.Assert(l.TraceCount(), Equals, 25)
	c.Assert(l.Extent(), Equals, Point3d{50, 5, 5})

	amp, found := l.Channel(AmplitudeChannel)
	c.Assert(found, Equals, true)
	c.Assert(l.ChannelExtent(amp, 0), Equals, Point3d{50, 5, 5})
	c.Assert(l.ChannelExtent(amp, 1), Equals, Point3d{25, 3, 3})
	c.Assert(l.ChannelBrick(amp), Equals, Point3d{16, 2, 2})
	c.Assert(l.NumLODs(amp), Equals, 2)

	hdr, found := l.Channel(TraceHeaderChannel)
	c.Assert(found, Equals, true)
	c.Assert(l.ChannelExtent(hdr, 0), Equals, Point3d{240, 5, 5})
	c.Assert(l.ChannelBrick(hdr), Equals, Point3d{240, 2, 2})
	c.Assert(l.NumLODs(hdr), Equals, 1)

	_, found = l.Channel("Velocity")
	c.Assert(found, Equals, false)
}

func (s *DataSuite) TestLayoutValidate(c *C) {
	l := NewLayout(testAxes(), Point3d{16, 2, 2}, 1, Snappy)
	l.Version = "2.0.0"
	c.Assert(l.Validate(), ErrorMatches, "unsupported layout version.*")

	l.Version = "1.3.0"
	c.Assert(l.Validate(), IsNil)

	l.Version = "latest"
	c.Assert(l.Validate(), ErrorMatches, "bad layout version.*")

	l = NewLayout(testAxes(), Point3d{16, 0, 2}, 1, Snappy)
	c.Assert(l.Validate(), NotNil)

	l = NewLayout(testAxes(), Point3d{16, 2, 2}, 1, Snappy)
	l.Channels[0].Dim0 = 49
	c.Assert(l.Validate(), NotNil)

	l = NewLayout(testAxes(), Point3d{16, 2, 2}, 1, Snappy)
	l.Channels = l.Channels[1:]
	c.Assert(l.Validate(), NotNil)
}

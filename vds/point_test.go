package vds

import (
	. "github.com/janelia-flyem/go/gocheck"
)

func (s *DataSuite) TestPoint3d(c *C) {
	a := Point3d{10, 21, 837821}
	b := Point3d{78312, 200, 40123}
	result := a.Add(b)
	c.Assert(result.Value(0), Equals, a[0]+b[0])
	c.Assert(result.Value(1), Equals, a[1]+b[1])
	c.Assert(result.Value(2), Equals, a[2]+b[2])

	result = b.Sub(a)
	c.Assert(result.Value(0), Equals, b[0]-a[0])
	c.Assert(result.Value(1), Equals, b[1]-a[1])
	c.Assert(result.Value(2), Equals, b[2]-a[2])

	c.Assert(Point3d{2, 3, 4}.Prod(), Equals, int64(24))

	min := Point3d{5, 5, 5}
	min.SetMinimum(Point3d{1, 9, 5})
	c.Assert(min, Equals, Point3d{1, 5, 5})
	max := Point3d{5, 5, 5}
	max.SetMaximum(Point3d{1, 9, 5})
	c.Assert(max, Equals, Point3d{5, 9, 5})

	c.Assert(Point3d{5, 4, 1}.Halve(), Equals, Point3d{3, 2, 1})
}

func (s *DataSuite) TestChunkPoint(c *C) {
	size := Point3d{32, 16, 8}
	p := Point3d{70, 15, 8}
	chunk := p.Chunk(size)
	c.Assert(chunk, Equals, ChunkPoint3d{2, 0, 1})
	c.Assert(p.PointInChunk(size), Equals, Point3d{6, 15, 0})
	c.Assert(chunk.MinPoint(size), Equals, Point3d{64, 0, 8})
	c.Assert(chunk.MaxPoint(size), Equals, Point3d{95, 15, 15})

	decoded, err := ChunkPointFromBytes(chunk.Bytes())
	c.Assert(err, IsNil)
	c.Assert(decoded, Equals, chunk)
	_, err = ChunkPointFromBytes([]byte{1, 2})
	c.Assert(err, NotNil)

	c.Assert(NumChunks(Point3d{50, 5, 5}, Point3d{16, 2, 4}), Equals, Point3d{4, 3, 2})
}

func (s *DataSuite) TestOrdinalBox(c *C) {
	extent := [NumAxes]int{5, 5, 50}
	b := Box(1, 3, 0, 5, 10, 20)
	c.Assert(b.Shape(), Equals, [NumAxes]int{2, 5, 10})
	c.Assert(b.NumSamples(), Equals, 100)
	c.Assert(b.Validate(extent), IsNil)

	min, max := b.StoreOrder()
	c.Assert(min, Equals, Point3d{10, 0, 1})
	c.Assert(max, Equals, Point3d{20, 5, 3})

	c.Assert(FullBox(extent).Validate(extent), IsNil)
	c.Assert(Box(2, 2, 0, 5, 0, 50).Empty(), Equals, true)

	bad := []OrdinalBox{
		Box(-1, 2, 0, 5, 0, 50),
		Box(0, 6, 0, 5, 0, 50),
		Box(3, 2, 0, 5, 0, 50),
		Box(0, 5, 0, 5, 0, 51),
	}
	for _, box := range bad {
		err := box.Validate(extent)
		c.Assert(err, NotNil, Commentf("box %s", box))
		_, ok := err.(*RangeError)
		c.Assert(ok, Equals, true)
	}

	pieces := FullBox(extent).Split(Sample, 16)
	c.Assert(pieces, HasLen, 4)
	c.Assert(pieces[3].Min[Sample], Equals, 48)
	c.Assert(pieces[3].Max[Sample], Equals, 50)
}

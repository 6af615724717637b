package vds

import (
	"errors"
	"testing"

	. "github.com/janelia-flyem/go/gocheck"
)

// Hook up gocheck into the "go test" runner.
func Test(t *testing.T) { TestingT(t) }

type DataSuite struct{}

var _ = Suite(&DataSuite{})

func (s *DataSuite) TestAxisDescriptor(c *C) {
	ad, err := NewAxisDescriptor("Sample", "ms", 0, 196, 4)
	c.Assert(err, IsNil)
	c.Assert(ad.Len(), Equals, 50)
	coords := ad.Coordinates()
	c.Assert(coords, HasLen, 50)
	c.Assert(coords[0], Equals, 0.0)
	c.Assert(coords[49], Equals, 196.0)
	for i := 1; i < len(coords); i++ {
		c.Assert(coords[i]-coords[i-1], Equals, 4.0)
	}
	c.Assert(ad.Last(), Equals, 196.0)

	_, err = NewAxisDescriptor("Inline", "", 1, 5, 0)
	c.Assert(err, NotNil)
	_, err = NewAxisDescriptor("Inline", "", 1, 5, 3)
	c.Assert(err, NotNil)
	_, err = NewAxisDescriptor("Inline", "", 5, 1, 1)
	c.Assert(err, NotNil)

	desc, err := NewAxisDescriptor("Inline", "", 10, 2, -2)
	c.Assert(err, IsNil)
	c.Assert(desc.Coordinates(), DeepEquals, []float64{10, 8, 6, 4, 2})

	single, err := AxisFromCount("Crossline", "", 7, 1, 1)
	c.Assert(err, IsNil)
	c.Assert(single.Len(), Equals, 1)
	c.Assert(single.Max, Equals, 7.0)
}

func (s *DataSuite) TestOrdinalRoundTrip(c *C) {
	axes := []AxisDescriptor{
		{Name: "Inline", Min: 1, Max: 5, Step: 1},
		{Name: "Crossline", Min: 20, Max: 24, Step: 1},
		{Name: "Sample", Min: 0, Max: 196, Step: 4},
		{Name: "Sample", Min: 0, Max: 1.996, Step: 0.004},
		{Name: "Inline", Min: 100, Max: 10, Step: -10},
	}
	for _, ad := range axes {
		for i, coord := range ad.Coordinates() {
			ord, err := ad.Ordinal(coord, false)
			c.Assert(err, IsNil)
			c.Assert(ord, Equals, i)
			c.Assert(ad.Coordinate(ord), Equals, coord)
			c.Assert(ad.Contains(coord), Equals, true)
		}
	}
}

func (s *DataSuite) TestOrdinalIncludeStop(c *C) {
	ad := AxisDescriptor{Name: "Inline", Min: 1, Max: 5, Step: 1}

	n, err := ad.Ordinal(6, true)
	c.Assert(err, IsNil)
	c.Assert(n, Equals, 5)

	_, err = ad.Ordinal(6, false)
	c.Assert(errors.Is(err, ErrCoordinateNotFound), Equals, true)
	var cerr *CoordinateError
	c.Assert(errors.As(err, &cerr), Equals, true)
	c.Assert(cerr.Axis, Equals, "Inline")
	c.Assert(cerr.Coordinate, Equals, 6.0)
	c.Assert(ad.Contains(6), Equals, false)

	for _, bad := range []float64{0, 7, 2.5, -1} {
		_, err = ad.Ordinal(bad, true)
		c.Assert(errors.Is(err, ErrCoordinateNotFound), Equals, true, Commentf("coordinate %g", bad))
	}

	z := AxisDescriptor{Name: "Sample", Min: 0, Max: 196, Step: 4}
	n, err = z.Ordinal(200, true)
	c.Assert(err, IsNil)
	c.Assert(n, Equals, 50)
	_, err = z.Ordinal(2, false)
	c.Assert(err, ErrorMatches, "Sample coordinate 2 not found")
}

func (s *DataSuite) TestAxisStoreDim(c *C) {
	c.Assert(Inline.StoreDim(), Equals, 2)
	c.Assert(Crossline.StoreDim(), Equals, 1)
	c.Assert(Sample.StoreDim(), Equals, 0)
	c.Assert(Crossline.String(), Equals, "crossline")
}

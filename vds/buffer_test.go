package vds

import (
	"math"

	. "github.com/janelia-flyem/go/gocheck"
)

func (s *DataSuite) TestSampleBuffer(c *C) {
	b := NewSampleBuffer(2, 3, 4)
	c.Assert(b.Len(), Equals, 24)
	c.Assert(b.NumDims(), Equals, 3)
	for i := range b.Data {
		b.Data[i] = float32(i)
	}
	c.Assert(b.At(1, 2, 3), Equals, float32(23))
	c.Assert(b.At(0, 1, 0), Equals, float32(4))
	c.Assert(b.Offset(1, 0, 1), Equals, 13)
	c.Assert(func() { b.At(2, 0, 0) }, Panics, "index [2 0 0] out of bounds for shape [2 3 4]")

	r, err := b.Reshape(6, 4)
	c.Assert(err, IsNil)
	c.Assert(r.At(5, 3), Equals, float32(23))
	_, err = b.Reshape(5, 5)
	c.Assert(err, NotNil)

	clone := b.Clone()
	c.Assert(clone.Equal(b), Equals, true)
	clone.Data[0] = 100
	c.Assert(clone.Equal(b), Equals, false)
	c.Assert(b.Data[0], Equals, float32(0))

	c.Assert(Float32sFromBytes(b.Bytes()), DeepEquals, b.Data)
}

func (s *DataSuite) TestConcat(c *C) {
	a := &SampleBuffer{Shape: []int{1, 2}, Data: []float32{1, 2}}
	b := &SampleBuffer{Shape: []int{2, 2}, Data: []float32{3, 4, 5, 6}}
	out, err := Concat(a, b)
	c.Assert(err, IsNil)
	c.Assert(out.Shape, DeepEquals, []int{3, 2})
	c.Assert(out.Data, DeepEquals, []float32{1, 2, 3, 4, 5, 6})

	_, err = Concat(a, &SampleBuffer{Shape: []int{1, 3}, Data: []float32{1, 2, 3}})
	c.Assert(err, NotNil)
	_, err = Concat()
	c.Assert(err, NotNil)
}

func (s *DataSuite) TestStats(c *C) {
	b := &SampleBuffer{Shape: []int{4}, Data: []float32{-1, 1, -1, 1}}
	st := b.Stats()
	c.Assert(st.Count, Equals, 4)
	c.Assert(st.Min, Equals, -1.0)
	c.Assert(st.Max, Equals, 1.0)
	c.Assert(st.Mean, Equals, 0.0)
	c.Assert(st.RMS, Equals, 1.0)
	c.Assert(math.Abs(st.StdDev-math.Sqrt(4.0/3.0)) < 1e-12, Equals, true)

	c.Assert(NewSampleBuffer(0).Stats(), Equals, SampleStats{})
	one := &SampleBuffer{Shape: []int{1}, Data: []float32{3}}
	c.Assert(one.Stats().StdDev, Equals, 0.0)
}

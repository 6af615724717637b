package vds

import (
	"bytes"

	. "github.com/janelia-flyem/go/gocheck"
)

func testBrick() []byte {
	f := make([]float32, 16*16*16)
	for i := range f {
		f[i] = float32(i%37) * 0.5
	}
	return Float32sToBytes(f)
}

func (s *DataSuite) TestSerialization(c *C) {
	data := testBrick()
	for _, compress := range []Compression{Uncompressed, Snappy, LZ4, Zstd, Gzip} {
		for _, checksum := range []Checksum{NoChecksum, CRC32} {
			s, err := SerializeData(data, compress, checksum)
			c.Assert(err, IsNil, Commentf("%s", compress))
			got, gotCompress, err := DeserializeData(s)
			c.Assert(err, IsNil, Commentf("%s / %s", compress, checksum))
			c.Assert(gotCompress, Equals, compress)
			c.Assert(bytes.Equal(got, data), Equals, true)
		}
	}
}

func (s *DataSuite) TestSerializationCorrupt(c *C) {
	ser, err := SerializeData(testBrick(), Zstd, CRC32)
	c.Assert(err, IsNil)
	ser[len(ser)-1] ^= 0xff
	_, _, err = DeserializeData(ser)
	c.Assert(err, ErrorMatches, "bad checksum.*")

	_, _, err = DeserializeData(nil)
	c.Assert(err, NotNil)
}

func (s *DataSuite) TestSerializationFormat(c *C) {
	f := EncodeSerializationFormat(Zstd, CRC32)
	compress, checksum := DecodeSerializationFormat(f)
	c.Assert(compress, Equals, Zstd)
	c.Assert(checksum, Equals, CRC32)

	for _, name := range []string{"none", "snappy", "lz4", "zstd", "gzip"} {
		compress, err := ParseCompression(name)
		c.Assert(err, IsNil)
		c.Assert(compress.String(), Equals, name)
	}
	_, err := ParseCompression("wavelet")
	c.Assert(err, NotNil)
}

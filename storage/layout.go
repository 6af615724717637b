package storage

import (
	"fmt"

	"github.com/janelia-flyem/seisvds/vds"
	"github.com/tinylib/msgp/msgp"
)

// EncodeLayout serializes a layout as a MessagePack map.
func EncodeLayout(l *vds.Layout) ([]byte, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}
	b := msgp.AppendMapHeader(nil, 7)
	b = msgp.AppendString(b, "version")
	b = msgp.AppendString(b, l.Version)

	b = msgp.AppendString(b, "axes")
	b = msgp.AppendArrayHeader(b, vds.NumAxes)
	for _, ad := range l.Axes {
		b = appendAxis(b, ad)
	}

	b = msgp.AppendString(b, "brick")
	b = msgp.AppendArrayHeader(b, 3)
	for _, v := range l.BrickSize {
		b = msgp.AppendInt32(b, v)
	}

	b = msgp.AppendString(b, "lods")
	b = msgp.AppendInt(b, l.LODLevels)

	b = msgp.AppendString(b, "compression")
	b = msgp.AppendUint8(b, uint8(l.Compression))

	b = msgp.AppendString(b, "channels")
	b = msgp.AppendArrayHeader(b, uint32(len(l.Channels)))
	for _, ch := range l.Channels {
		b = appendChannel(b, ch)
	}

	b = msgp.AppendString(b, "metadata")
	b = msgp.AppendMapHeader(b, uint32(len(l.Metadata)))
	for name, blob := range l.Metadata {
		b = msgp.AppendString(b, name)
		b = msgp.AppendBytes(b, blob)
	}
	return b, nil
}

func appendAxis(b []byte, ad vds.AxisDescriptor) []byte {
	b = msgp.AppendMapHeader(b, 5)
	b = msgp.AppendString(b, "name")
	b = msgp.AppendString(b, ad.Name)
	b = msgp.AppendString(b, "unit")
	b = msgp.AppendString(b, ad.Unit)
	b = msgp.AppendString(b, "min")
	b = msgp.AppendFloat64(b, ad.Min)
	b = msgp.AppendString(b, "max")
	b = msgp.AppendFloat64(b, ad.Max)
	b = msgp.AppendString(b, "step")
	return msgp.AppendFloat64(b, ad.Step)
}

func appendChannel(b []byte, ch vds.Channel) []byte {
	b = msgp.AppendMapHeader(b, 5)
	b = msgp.AppendString(b, "name")
	b = msgp.AppendString(b, ch.Name)
	b = msgp.AppendString(b, "format")
	b = msgp.AppendUint8(b, uint8(ch.Format))
	b = msgp.AppendString(b, "dim0")
	b = msgp.AppendInt32(b, ch.Dim0)
	b = msgp.AppendString(b, "brick_dim0")
	b = msgp.AppendInt32(b, ch.BrickDim0)
	b = msgp.AppendString(b, "multi_lod")
	return msgp.AppendBool(b, ch.MultiLOD)
}

// DecodeLayout deserializes and validates a layout written by EncodeLayout.
// Unknown fields are skipped.
func DecodeLayout(bts []byte) (*vds.Layout, error) {
	l := &vds.Layout{Metadata: make(map[string][]byte)}
	sz, bts, err := msgp.ReadMapHeaderBytes(bts)
	if err != nil {
		return nil, err
	}
	for ; sz > 0; sz-- {
		var field string
		if field, bts, err = msgp.ReadStringBytes(bts); err != nil {
			return nil, err
		}
		switch field {
		case "version":
			l.Version, bts, err = msgp.ReadStringBytes(bts)
		case "axes":
			var n uint32
			if n, bts, err = msgp.ReadArrayHeaderBytes(bts); err != nil {
				return nil, err
			}
			if n != vds.NumAxes {
				return nil, fmt.Errorf("layout has %d axes, expected %d", n, vds.NumAxes)
			}
			for i := range l.Axes {
				if l.Axes[i], bts, err = readAxis(bts); err != nil {
					return nil, err
				}
			}
		case "brick":
			var n uint32
			if n, bts, err = msgp.ReadArrayHeaderBytes(bts); err != nil {
				return nil, err
			}
			if n != 3 {
				return nil, fmt.Errorf("layout brick size has %d dims", n)
			}
			for i := range l.BrickSize {
				if l.BrickSize[i], bts, err = msgp.ReadInt32Bytes(bts); err != nil {
					return nil, err
				}
			}
		case "lods":
			l.LODLevels, bts, err = msgp.ReadIntBytes(bts)
		case "compression":
			var c uint8
			c, bts, err = msgp.ReadUint8Bytes(bts)
			l.Compression = vds.Compression(c)
		case "channels":
			var n uint32
			if n, bts, err = msgp.ReadArrayHeaderBytes(bts); err != nil {
				return nil, err
			}
			l.Channels = make([]vds.Channel, n)
			for i := range l.Channels {
				if l.Channels[i], bts, err = readChannel(bts); err != nil {
					return nil, err
				}
			}
		case "metadata":
			var n uint32
			if n, bts, err = msgp.ReadMapHeaderBytes(bts); err != nil {
				return nil, err
			}
			for ; n > 0; n-- {
				var name string
				var blob []byte
				if name, bts, err = msgp.ReadStringBytes(bts); err != nil {
					return nil, err
				}
				if blob, bts, err = msgp.ReadBytesBytes(bts, nil); err != nil {
					return nil, err
				}
				l.Metadata[name] = blob
			}
		default:
			bts, err = msgp.Skip(bts)
		}
		if err != nil {
			return nil, fmt.Errorf("layout field %q: %w", field, err)
		}
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

func readAxis(bts []byte) (ad vds.AxisDescriptor, o []byte, err error) {
	var sz uint32
	if sz, bts, err = msgp.ReadMapHeaderBytes(bts); err != nil {
		return
	}
	for ; sz > 0; sz-- {
		var field string
		if field, bts, err = msgp.ReadStringBytes(bts); err != nil {
			return
		}
		switch field {
		case "name":
			ad.Name, bts, err = msgp.ReadStringBytes(bts)
		case "unit":
			ad.Unit, bts, err = msgp.ReadStringBytes(bts)
		case "min":
			ad.Min, bts, err = msgp.ReadFloat64Bytes(bts)
		case "max":
			ad.Max, bts, err = msgp.ReadFloat64Bytes(bts)
		case "step":
			ad.Step, bts, err = msgp.ReadFloat64Bytes(bts)
		default:
			bts, err = msgp.Skip(bts)
		}
		if err != nil {
			return
		}
	}
	return ad, bts, nil
}

func readChannel(bts []byte) (ch vds.Channel, o []byte, err error) {
	var sz uint32
	if sz, bts, err = msgp.ReadMapHeaderBytes(bts); err != nil {
		return
	}
	for ; sz > 0; sz-- {
		var field string
		if field, bts, err = msgp.ReadStringBytes(bts); err != nil {
			return
		}
		switch field {
		case "name":
			ch.Name, bts, err = msgp.ReadStringBytes(bts)
		case "format":
			var f uint8
			f, bts, err = msgp.ReadUint8Bytes(bts)
			ch.Format = vds.ChannelFormat(f)
		case "dim0":
			ch.Dim0, bts, err = msgp.ReadInt32Bytes(bts)
		case "brick_dim0":
			ch.BrickDim0, bts, err = msgp.ReadInt32Bytes(bts)
		case "multi_lod":
			ch.MultiLOD, bts, err = msgp.ReadBoolBytes(bts)
		default:
			bts, err = msgp.Skip(bts)
		}
		if err != nil {
			return
		}
	}
	return ch, bts, nil
}

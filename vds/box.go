package vds

import "fmt"

// OrdinalBox is a half-open box [Min, Max) of zero-based ordinals in user-facing
// axis order (inline, crossline, sample).
type OrdinalBox struct {
	Min [NumAxes]int
	Max [NumAxes]int
}

// Box returns the box [min, max) with bounds given in (inline, crossline, sample) order.
func Box(ilMin, ilMax, xlMin, xlMax, zMin, zMax int) OrdinalBox {
	return OrdinalBox{
		Min: [NumAxes]int{ilMin, xlMin, zMin},
		Max: [NumAxes]int{ilMax, xlMax, zMax},
	}
}

// FullBox returns the box covering a volume of the given user-order shape.
func FullBox(shape [NumAxes]int) OrdinalBox {
	return OrdinalBox{Max: shape}
}

// Shape returns the extent of the box on each axis in user order.
func (b OrdinalBox) Shape() [NumAxes]int {
	var s [NumAxes]int
	for i := range s {
		s[i] = b.Max[i] - b.Min[i]
	}
	return s
}

// NumSamples returns the number of samples the box covers.
func (b OrdinalBox) NumSamples() int {
	s := b.Shape()
	return s[0] * s[1] * s[2]
}

// Empty is true if the box has zero extent on some axis.
func (b OrdinalBox) Empty() bool {
	return b.NumSamples() == 0
}

// Validate checks 0 <= min <= max <= extent on every axis.
func (b OrdinalBox) Validate(extent [NumAxes]int) error {
	for i := 0; i < NumAxes; i++ {
		a := Axis(i)
		if b.Min[i] < 0 || b.Min[i] > extent[i] {
			return &RangeError{What: a.String() + " min", Value: b.Min[i], Min: 0, Max: extent[i] + 1}
		}
		if b.Max[i] < b.Min[i] || b.Max[i] > extent[i] {
			return &RangeError{What: a.String() + " max", Value: b.Max[i], Min: b.Min[i], Max: extent[i] + 1}
		}
	}
	return nil
}

// StoreOrder returns the box in store order (sample, crossline, inline) with an
// exclusive max.
func (b OrdinalBox) StoreOrder() (min, max Point3d) {
	for i := 0; i < NumAxes; i++ {
		d := Axis(i).StoreDim()
		min[d] = int32(b.Min[i])
		max[d] = int32(b.Max[i])
	}
	return
}

// Split partitions the box along one axis into pieces of at most n ordinals.
func (b OrdinalBox) Split(axis Axis, n int) []OrdinalBox {
	if n < 1 {
		n = 1
	}
	var boxes []OrdinalBox
	for lo := b.Min[axis]; lo < b.Max[axis]; lo += n {
		piece := b
		piece.Min[axis] = lo
		piece.Max[axis] = lo + n
		if piece.Max[axis] > b.Max[axis] {
			piece.Max[axis] = b.Max[axis]
		}
		boxes = append(boxes, piece)
	}
	return boxes
}

func (b OrdinalBox) String() string {
	return fmt.Sprintf("il [%d,%d) xl [%d,%d) z [%d,%d)",
		b.Min[0], b.Max[0], b.Min[1], b.Max[1], b.Min[2], b.Max[2])
}

package volume

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

// Key is the type of an accessor key: a line number, sample coordinate or ordinal.
type Key interface {
	constraints.Integer | constraints.Float
}

// Slice selects a range of accessor keys like a Python slice.  Unset bounds take
// defaults that depend on the accessor and on the direction of the step.
type Slice[K Key] struct {
	Start *K
	Stop  *K
	Step  *K
}

// All returns a slice with every bound unset.
func All[K Key]() Slice[K] {
	return Slice[K]{}
}

// Range returns the slice [start, stop) with the default step.
func Range[K Key](start, stop K) Slice[K] {
	return Slice[K]{Start: &start, Stop: &stop}
}

// RangeStep returns the slice [start, stop) by step.
func RangeStep[K Key](start, stop, step K) Slice[K] {
	return Slice[K]{Start: &start, Stop: &stop, Step: &step}
}

// Step returns a slice over the default bounds by step.
func Step[K Key](step K) Slice[K] {
	return Slice[K]{Step: &step}
}

// From returns a copy of s starting at k.
func (s Slice[K]) From(k K) Slice[K] {
	s.Start = &k
	return s
}

// To returns a copy of s stopping before k.
func (s Slice[K]) To(k K) Slice[K] {
	s.Stop = &k
	return s
}

// By returns a copy of s with step k.
func (s Slice[K]) By(k K) Slice[K] {
	s.Step = &k
	return s
}

func (s Slice[K]) String() string {
	str := func(k *K) string {
		if k == nil {
			return ""
		}
		return fmt.Sprint(*k)
	}
	return fmt.Sprintf("[%s:%s:%s]", str(s.Start), str(s.Stop), str(s.Step))
}

// indices resolves s against a sequence of n ordinals the way Python's
// slice.indices does: negative bounds count from the end and bounds are clamped.
func (s Slice[K]) indices(n int) (start, stop, step int) {
	step = 1
	if s.Step != nil {
		step = int(*s.Step)
	}
	lower, upper := 0, n
	if step < 0 {
		lower, upper = -1, n-1
	}
	clamp := func(k *K, def int) int {
		if k == nil {
			return def
		}
		v := int(*k)
		if v < 0 {
			v += n
			if v < lower {
				v = lower
			}
		} else if v > upper {
			v = upper
		}
		return v
	}
	if step > 0 {
		return clamp(s.Start, lower), clamp(s.Stop, upper), step
	}
	return clamp(s.Start, upper), clamp(s.Stop, lower), step
}

package vds

import (
	"fmt"
	"math"
)

// Axis identifies one of the three survey axes in user-facing order.
type Axis uint8

const (
	Inline Axis = iota
	Crossline
	Sample
)

// NumAxes is the dimensionality of a survey volume.
const NumAxes = 3

func (a Axis) String() string {
	switch a {
	case Inline:
		return "inline"
	case Crossline:
		return "crossline"
	case Sample:
		return "sample"
	default:
		return fmt.Sprintf("axis(%d)", uint8(a))
	}
}

// StoreDim returns the dimension of the axis in store order, where samples vary
// fastest (dim 0) and inlines slowest (dim 2).
func (a Axis) StoreDim() int {
	return NumAxes - 1 - int(a)
}

// coordinateTolerance is the fraction of a step within which two coordinates are
// treated as the same grid point.  Integer axes always resolve exactly.
const coordinateTolerance = 1e-9

// AxisDescriptor describes a physical coordinate axis as an arithmetic progression
// [Min, Min+Step, ..., Max], inclusive of Max.
type AxisDescriptor struct {
	Name string  `json:"name"`
	Unit string  `json:"unit"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Step float64 `json:"step"`
}

// NewAxisDescriptor returns a validated descriptor.
func NewAxisDescriptor(name, unit string, min, max, step float64) (AxisDescriptor, error) {
	ad := AxisDescriptor{Name: name, Unit: unit, Min: min, Max: max, Step: step}
	if err := ad.Validate(); err != nil {
		return AxisDescriptor{}, err
	}
	return ad, nil
}

// AxisFromCount returns a descriptor of n coordinates starting at min.
func AxisFromCount(name, unit string, min, step float64, n int) (AxisDescriptor, error) {
	if n < 1 {
		return AxisDescriptor{}, fmt.Errorf("axis %s must have at least one sample, got %d", name, n)
	}
	return NewAxisDescriptor(name, unit, min, min+float64(n-1)*step, step)
}

// Validate checks that the step is nonzero and that Max is reached from Min by a
// whole number of steps.
func (ad AxisDescriptor) Validate() error {
	if ad.Step == 0 || math.IsNaN(ad.Step) || math.IsInf(ad.Step, 0) {
		return fmt.Errorf("axis %s has invalid step %g", ad.Name, ad.Step)
	}
	if math.IsNaN(ad.Min) || math.IsNaN(ad.Max) {
		return fmt.Errorf("axis %s has NaN bounds", ad.Name)
	}
	steps := (ad.Max - ad.Min) / ad.Step
	if steps < -coordinateTolerance {
		return fmt.Errorf("axis %s: max %g not reachable from min %g with step %g", ad.Name, ad.Max, ad.Min, ad.Step)
	}
	if math.Abs(steps-math.Round(steps)) > 1e-6 {
		return fmt.Errorf("axis %s: range [%g, %g] is not a whole number of %g steps", ad.Name, ad.Min, ad.Max, ad.Step)
	}
	return nil
}

// Len returns the number of coordinates on the axis.
func (ad AxisDescriptor) Len() int {
	if ad.Step == 0 {
		return 0
	}
	return int(math.Round((ad.Max-ad.Min)/ad.Step)) + 1
}

// Coordinate returns the physical coordinate of the given ordinal.  It does not check
// bounds; Coordinate(Len()) is the one-past-the-end value.
func (ad AxisDescriptor) Coordinate(ordinal int) float64 {
	return ad.Min + float64(ordinal)*ad.Step
}

// Coordinates returns the derived coordinate sequence.
func (ad AxisDescriptor) Coordinates() []float64 {
	n := ad.Len()
	coords := make([]float64, n)
	for i := range coords {
		coords[i] = ad.Coordinate(i)
	}
	return coords
}

// First returns the first coordinate of the progression.
func (ad AxisDescriptor) First() float64 {
	return ad.Min
}

// Last returns the last coordinate of the progression.
func (ad AxisDescriptor) Last() float64 {
	return ad.Coordinate(ad.Len() - 1)
}

// Ordinal converts a physical coordinate to its zero-based position.  If
// includeStop is true, the coordinate one step past the last resolves to Len(),
// allowing exclusive slice bounds.  Any other coordinate off the grid returns a
// *CoordinateError.
func (ad AxisDescriptor) Ordinal(coord float64, includeStop bool) (int, error) {
	n := ad.Len()
	if i, ok := ad.nearest(coord); ok {
		if i >= 0 && i < n {
			return i, nil
		}
		if includeStop && i == n {
			return n, nil
		}
	}
	return 0, &CoordinateError{Axis: ad.Name, Coordinate: coord}
}

// Contains returns true if the coordinate lies on the axis grid.
func (ad AxisDescriptor) Contains(coord float64) bool {
	i, ok := ad.nearest(coord)
	return ok && i >= 0 && i < ad.Len()
}

func (ad AxisDescriptor) nearest(coord float64) (int, bool) {
	if ad.Step == 0 || math.IsNaN(coord) || math.IsInf(coord, 0) {
		return 0, false
	}
	f := math.Round((coord - ad.Min) / ad.Step)
	if f < math.MinInt32 || f > math.MaxInt32 {
		return 0, false
	}
	i := int(f)
	c := ad.Coordinate(i)
	if c == coord {
		return i, true
	}
	return i, math.Abs(c-coord) <= math.Abs(ad.Step)*coordinateTolerance
}

func (ad AxisDescriptor) String() string {
	return fmt.Sprintf("%s [%g, %g] step %g (%d)", ad.Name, ad.Min, ad.Max, ad.Step, ad.Len())
}

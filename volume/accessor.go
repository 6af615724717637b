package volume

import (
	"context"
	"math"

	"github.com/janelia-flyem/seisvds/vds"
)

// AccessorConfig describes one axis of a volume to NewAccessor.
type AccessorConfig[K Key, V any] struct {
	// Name is used in error messages, e.g., "inline".
	Name string

	// Keys are the valid keys in ordinal order.
	Keys []K

	// Ordinal accessors are keyed by position 0..len-1 and slice like a sequence.
	// Otherwise keys are coordinates and slices step through coordinate space
	// from the first key, one native step past the last key by default.
	Ordinal bool

	// Step is the native spacing of coordinate keys.  If zero it is taken from
	// the first two keys.
	Step K

	// Resolve maps a key to its ordinal or fails with a CoordinateError or
	// RangeError.
	Resolve func(k K) (int, error)

	// Read returns the value at an ordinal.
	Read func(ctx context.Context, ordinal int) (V, error)
}

// Accessor is a read-only mapping from the keys of one axis to values read from a
// session.  It holds no state beyond its configuration and fails with ErrClosed
// once the session is closed.
type Accessor[K Key, V any] struct {
	cfg  AccessorConfig[K, V]
	step K
}

// Item pairs a key with its value.
type Item[K Key, V any] struct {
	Key   K
	Value V
}

// NewAccessor returns an accessor for the configuration.
func NewAccessor[K Key, V any](cfg AccessorConfig[K, V]) *Accessor[K, V] {
	a := &Accessor[K, V]{cfg: cfg, step: 1}
	switch {
	case cfg.Ordinal:
	case cfg.Step != 0:
		a.step = cfg.Step
	case len(cfg.Keys) > 1:
		a.step = cfg.Keys[1] - cfg.Keys[0]
	}
	return a
}

// Name returns the accessor name.
func (a *Accessor[K, V]) Name() string {
	return a.cfg.Name
}

// Len returns the number of keys.
func (a *Accessor[K, V]) Len() int {
	return len(a.cfg.Keys)
}

// Contains returns true if k is a key of the accessor.
func (a *Accessor[K, V]) Contains(k K) bool {
	_, err := a.cfg.Resolve(k)
	return err == nil
}

// Keys returns a copy of the keys in ordinal order.
func (a *Accessor[K, V]) Keys() []K {
	return append([]K(nil), a.cfg.Keys...)
}

// Ordinal returns the ordinal of a key.
func (a *Accessor[K, V]) Ordinal(k K) (int, error) {
	return a.cfg.Resolve(k)
}

// Get returns the value for one key.
func (a *Accessor[K, V]) Get(ctx context.Context, k K) (V, error) {
	i, err := a.cfg.Resolve(k)
	if err != nil {
		var zero V
		return zero, err
	}
	return a.cfg.Read(ctx, i)
}

// RangeKeys returns the keys selected by a slice without reading anything.  Every
// key of a coordinate accessor is checked, so an off-grid start or step fails
// with ErrCoordinateNotFound before any I/O.
func (a *Accessor[K, V]) RangeKeys(s Slice[K]) ([]K, error) {
	if s.Step != nil && *s.Step == 0 {
		return nil, vds.SliceError("%s slice %s has zero step", a.cfg.Name, s)
	}
	if a.cfg.Ordinal {
		start, stop, step := s.indices(len(a.cfg.Keys))
		var keys []K
		for i := start; (step > 0 && i < stop) || (step < 0 && i > stop); i += step {
			keys = append(keys, a.cfg.Keys[i])
		}
		return keys, nil
	}
	nkeys := len(a.cfg.Keys)
	if nkeys == 0 {
		return nil, nil
	}
	step := a.step
	if s.Step != nil {
		step = *s.Step
	}

	// Keys are picked by ordinal so rounding in the coordinates never
	// accumulates along the range.
	ratio := float64(step) / float64(a.step)
	stride := int(math.Round(ratio))
	onGrid := stride != 0 && math.Abs(ratio-float64(stride)) <= math.Abs(ratio)*1e-9

	// Going against the axis direction the defaults swap ends.
	first, stopOrd := 0, nkeys
	if ratio < 0 {
		first, stopOrd = nkeys-1, -1
	}
	start := a.cfg.Keys[first]
	if s.Start != nil {
		start = *s.Start
	}
	fromOrdinal := s.Start == nil
	if s.Start != nil && s.Stop == nil && onGrid {
		if ord, err := a.cfg.Resolve(start); err == nil {
			first, fromOrdinal = ord, true
		}
	}
	var n int
	switch {
	case s.Stop != nil:
		n = int(math.Ceil((float64(*s.Stop)-float64(start))/float64(step) - 1e-9))
	case onGrid && fromOrdinal:
		n = (abs(stopOrd-first) + abs(stride) - 1) / abs(stride)
	case s.Start != nil:
		// Default stop is one native step past the far end.
		far := a.cfg.Keys[stopOrd-sign(ratio)] + K(sign(ratio))*a.step
		n = int(math.Ceil((float64(far)-float64(start))/float64(step) - 1e-9))
	case math.Abs(ratio) >= float64(nkeys):
		n = 1
	default:
		// Off the grid; the second key fails below.
		n = 2
	}
	if n <= 0 {
		return nil, nil
	}
	ord := first
	if s.Start != nil {
		var err error
		if ord, err = a.cfg.Resolve(start); err != nil {
			return nil, err
		}
	}
	if !onGrid && n > 1 {
		return nil, a.notFound(start + step)
	}
	keys := make([]K, n)
	for i := range keys {
		o := ord + i*stride
		if o < 0 || o >= nkeys {
			return nil, a.notFound(start + K(i)*step)
		}
		keys[i] = a.cfg.Keys[o]
	}
	return keys, nil
}

func (a *Accessor[K, V]) notFound(k K) error {
	if _, err := a.cfg.Resolve(k); err != nil {
		return err
	}
	return &vds.CoordinateError{Axis: a.cfg.Name, Coordinate: float64(k)}
}

func sign(f float64) int {
	if f < 0 {
		return -1
	}
	return 1
}

func abs(i int) int {
	if i < 0 {
		return -i
	}
	return i
}

// GetRange returns the values for the keys selected by a slice, in slice order.
// The result equals calling Get for each key returned by RangeKeys.
func (a *Accessor[K, V]) GetRange(ctx context.Context, s Slice[K]) ([]V, error) {
	keys, err := a.RangeKeys(s)
	if err != nil {
		return nil, err
	}
	values := make([]V, len(keys))
	for i, k := range keys {
		if values[i], err = a.Get(ctx, k); err != nil {
			return nil, err
		}
	}
	return values, nil
}

// Values returns the values for every key.  For large volumes prefer Iter, which
// holds one value at a time.
func (a *Accessor[K, V]) Values(ctx context.Context) ([]V, error) {
	return a.GetRange(ctx, All[K]())
}

// Items returns every key paired with its value.
func (a *Accessor[K, V]) Items(ctx context.Context) ([]Item[K, V], error) {
	keys, err := a.RangeKeys(All[K]())
	if err != nil {
		return nil, err
	}
	items := make([]Item[K, V], len(keys))
	for i, k := range keys {
		items[i].Key = k
		if items[i].Value, err = a.Get(ctx, k); err != nil {
			return nil, err
		}
	}
	return items, nil
}

// Iter returns a lazy iterator over the values selected by a slice.  Each call
// returns a fresh iterator starting from the beginning.
func (a *Accessor[K, V]) Iter(s Slice[K]) *Iterator[K, V] {
	keys, err := a.RangeKeys(s)
	return &Iterator[K, V]{a: a, keys: keys, pos: -1, err: err}
}

// Iterator reads accessor values one key at a time.
//
//	it := sess.Inline.Iter(volume.All[int]())
//	for it.Next(ctx) {
//		use(it.Key(), it.Value())
//	}
//	if err := it.Err(); err != nil {
//		...
//	}
type Iterator[K Key, V any] struct {
	a     *Accessor[K, V]
	keys  []K
	pos   int
	value V
	err   error
}

// Next reads the next value and returns false when the keys are exhausted or a
// read failed.
func (it *Iterator[K, V]) Next(ctx context.Context) bool {
	if it.err != nil || it.pos+1 >= len(it.keys) {
		return false
	}
	it.pos++
	it.value, it.err = it.a.Get(ctx, it.keys[it.pos])
	return it.err == nil
}

// Key returns the key of the current value.
func (it *Iterator[K, V]) Key() K {
	return it.keys[it.pos]
}

// Value returns the current value.
func (it *Iterator[K, V]) Value() V {
	return it.value
}

// Len returns the total number of keys the iterator visits.
func (it *Iterator[K, V]) Len() int {
	return len(it.keys)
}

// Err returns the first error met by the iterator.
func (it *Iterator[K, V]) Err() error {
	return it.err
}

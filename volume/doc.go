/*
Package volume provides coordinate-indexed access to a seismic volume held in a
chunked store.

A Session owns one open store and exposes the survey through accessors keyed like
segyio's: Inline and Crossline by line number, DepthSlice by sample coordinate, and
Trace and Header by trace ordinal.  Each accessor supports single-key lookup,
ranged lookup through a Slice, and lazy iteration.

	sess, err := volume.Open(ctx, config, storage.DefaultOptions())
	if err != nil {
		...
	}
	defer sess.Close()

	section, err := sess.Inline.Get(ctx, 1234)              // (crosslines, samples)
	every2nd, err := sess.Inline.GetRange(ctx, volume.Step(2))

Traces are numbered with the crossline varying fastest: trace i lies at inline
ordinal i / crosslines and crossline ordinal i % crosslines.
*/
package volume

// Reads one section of a volume, printing timing and amplitude statistics and
// optionally writing it as a grayscale PNG.

package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"strings"

	"github.com/janelia-flyem/seisvds/server"
	"github.com/janelia-flyem/seisvds/storage"
	_ "github.com/janelia-flyem/seisvds/storage/badger"
	_ "github.com/janelia-flyem/seisvds/storage/blobstore"
	"github.com/janelia-flyem/seisvds/vds"
	"github.com/janelia-flyem/seisvds/volume"
)

var (
	showHelp   = flag.Bool("help", false, "")
	runVerbose = flag.Bool("verbose", false, "")

	configFile = flag.String("config", "", "")
	engine     = flag.String("engine", "blob", "")
	storeURL   = flag.String("url", "", "")
	storePath  = flag.String("path", "", "")
	prefix     = flag.String("prefix", "", "")

	axis    = flag.String("axis", "inline", "")
	pngFile = flag.String("png", "", "")
	clip    = flag.Float64("clip", 0.99, "")
	repeat  = flag.Int("repeat", 1, "")
)

const helpMessage = `
vdsslice reads one inline, crossline or depth slice of a volume by ordinal

Usage: vdsslice [options] <ordinal>

      -config     =string   TOML or YAML service configuration naming the store.
      -engine     =string   Store engine when no config is given (default "blob").
      -url        =string   Bucket URL for the blob engine, e.g., gs://bucket or file:///data.
      -path       =string   Directory for the badger engine.
      -prefix     =string   Object prefix of the volume within the bucket.
      -axis       =string   One of inline, crossline or depth (default inline).
      -png        =string   Write the section as a grayscale PNG to this file.
      -clip       =number   Fraction of the peak amplitude mapped to black/white (default 0.99).
      -repeat     =number   Read the section this many times to show cache effects.
      -verbose    (flag)    Run in verbose mode.
  -h, -help       (flag)    Show help message

Engines available:
`

var usage = func() {
	fmt.Print(helpMessage)
	fmt.Println(storage.EnginesAvailable())
}

func main() {
	flag.BoolVar(showHelp, "h", false, "Show help message")
	flag.Usage = usage
	flag.Parse()

	if *runVerbose {
		vds.Verbose = true
		vds.SetLogMode(vds.DebugMode)
	}
	if *showHelp || flag.NArg() != 1 {
		flag.Usage()
		os.Exit(0)
	}
	var ordinal int
	if _, err := fmt.Sscanf(flag.Arg(0), "%d", &ordinal); err != nil {
		fmt.Fprintf(os.Stderr, "bad ordinal %q: %v\n", flag.Arg(0), err)
		os.Exit(1)
	}
	if err := run(context.Background(), ordinal); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func storeConfig() (vds.StoreConfig, storage.Options, error) {
	if *configFile != "" {
		c, err := server.LoadConfig(*configFile)
		if err != nil {
			return vds.StoreConfig{}, storage.Options{}, err
		}
		sc, err := c.StoreConfig()
		return sc, c.Options(), err
	}
	sc := vds.StoreConfig{Config: vds.NewConfig(), Engine: *engine}
	if *storeURL != "" {
		sc.Set("url", *storeURL)
	}
	if *storePath != "" {
		sc.Set("path", *storePath)
	}
	if *prefix != "" {
		sc.Set("prefix", *prefix)
	}
	return sc, storage.DefaultOptions(), nil
}

func run(ctx context.Context, ordinal int) error {
	sc, opts, err := storeConfig()
	if err != nil {
		return err
	}
	timedLog := vds.NewTimeLog()
	sess, err := volume.Open(ctx, sc, opts)
	if err != nil {
		return err
	}
	defer sess.Close()
	shape := sess.Shape()
	fmt.Printf("Opened %s in %s: %d inlines, %d crosslines, %d samples\n",
		sc, timedLog.Elapsed(), shape[0], shape[1], shape[2])

	var read func(context.Context, int) (*vds.SampleBuffer, error)
	switch strings.ToLower(*axis) {
	case "inline", "il":
		read = sess.ReadInline
	case "crossline", "xl":
		read = sess.ReadCrossline
	case "depth", "z":
		read = sess.ReadDepthSlice
	default:
		return fmt.Errorf("unknown axis %q", *axis)
	}

	var section *vds.SampleBuffer
	for i := 0; i < *repeat; i++ {
		timedLog = vds.NewTimeLog()
		if section, err = read(ctx, ordinal); err != nil {
			return err
		}
		fmt.Printf("Read %s %d %v in %s\n", *axis, ordinal, section.Shape, timedLog.Elapsed())
	}
	stats := section.Stats()
	fmt.Printf("min %g  max %g  mean %g  stddev %g  rms %g\n", stats.Min, stats.Max, stats.Mean, stats.StdDev, stats.RMS)
	if gs, ok := sess.Store().(*storage.GridStore); ok {
		fmt.Printf("fetch stats: %+v\n", gs.Stats())
	}

	if *pngFile != "" {
		if err := writePNG(*pngFile, section, stats, *clip); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", *pngFile)
	}
	return nil
}

// writePNG maps amplitudes in [-peak, peak] to gray levels, where peak is clip times
// the largest absolute amplitude.  Rows are the first dimension of the section, so
// traces run down the image.
func writePNG(filename string, section *vds.SampleBuffer, stats vds.SampleStats, clip float64) error {
	rows, cols := section.Shape[0], section.Shape[1]
	peak := clip * math.Max(math.Abs(stats.Min), math.Abs(stats.Max))
	if peak == 0 {
		peak = 1
	}
	img := image.NewGray(image.Rect(0, 0, rows, cols))
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v := float64(section.At(r, c)) / peak
			v = math.Max(-1, math.Min(1, v))
			img.SetGray(r, c, color.Gray{Y: uint8(math.Round((v + 1) * 127.5))})
		}
	}
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

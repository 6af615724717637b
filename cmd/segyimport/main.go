// Converts a post-stack SEG-Y file into a chunked volume.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/janelia-flyem/seisvds/segy"
	"github.com/janelia-flyem/seisvds/server"
	"github.com/janelia-flyem/seisvds/storage"
	_ "github.com/janelia-flyem/seisvds/storage/badger"
	_ "github.com/janelia-flyem/seisvds/storage/blobstore"
	"github.com/janelia-flyem/seisvds/vds"
)

var (
	showHelp   = flag.Bool("help", false, "")
	runVerbose = flag.Bool("verbose", false, "")

	configFile = flag.String("config", "", "")
	engine     = flag.String("engine", "blob", "")
	storeURL   = flag.String("url", "", "")
	storePath  = flag.String("path", "", "")
	prefix     = flag.String("prefix", "", "")

	brick       = flag.String("brick", "64,64,64", "")
	lods        = flag.Int("lods", 1, "")
	compression = flag.String("compression", "zstd", "")
	ilByte      = flag.Int("ilbyte", int(segy.Inline3D), "")
	xlByte      = flag.Int("xlbyte", int(segy.Crossline3D), "")
	scanOnly    = flag.Bool("scan", false, "")
)

const helpMessage = `
segyimport converts a post-stack SEG-Y file into a chunked volume

Usage: segyimport [options] <file.sgy>

      -config      =string   TOML or YAML service configuration naming the store.
      -engine      =string   Store engine when no config is given (default "blob").
      -url         =string   Bucket URL for the blob engine, e.g., gs://bucket or file:///data.
      -path        =string   Directory for the badger engine.
      -prefix      =string   Object prefix of the volume within the bucket.
      -brick       =string   Brick size as samples,crosslines,inlines (default 64,64,64).
      -lods        =number   Number of levels of detail to build (default 1).
      -compression =string   none, snappy, lz4, zstd or gzip (default zstd).
      -ilbyte      =number   Trace header byte of the inline number (default 189).
      -xlbyte      =number   Trace header byte of the crossline number (default 193).
      -scan        (flag)    Only print the survey geometry.
      -verbose     (flag)    Run in verbose mode.
  -h, -help        (flag)    Show help message

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

	// Capture ctrl+c and other interrupts and stop the import between traces.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, flag.Arg(0)); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func storeConfig() (vds.StoreConfig, error) {
	if *configFile != "" {
		c, err := server.LoadConfig(*configFile)
		if err != nil {
			return vds.StoreConfig{}, err
		}
		c.Logging.SetLogger()
		return c.StoreConfig()
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
	return sc, nil
}

func importOptions() (segy.ImportOptions, error) {
	opts := segy.DefaultImportOptions()
	var b vds.Point3d
	if _, err := fmt.Sscanf(*brick, "%d,%d,%d", &b[0], &b[1], &b[2]); err != nil {
		return opts, fmt.Errorf("bad brick size %q: %v", *brick, err)
	}
	compress, err := vds.ParseCompression(*compression)
	if err != nil {
		return opts, err
	}
	opts.BrickSize = b
	opts.LODLevels = *lods
	opts.Compression = compress
	opts.InlineField = segy.TraceField(*ilByte)
	opts.CrosslineField = segy.TraceField(*xlByte)
	if opts.InlineField.Size() == 0 || opts.CrosslineField.Size() == 0 {
		return opts, fmt.Errorf("header bytes %d and %d must start trace header fields", *ilByte, *xlByte)
	}
	return opts, nil
}

func run(ctx context.Context, filename string) error {
	opts, err := importOptions()
	if err != nil {
		return err
	}
	f, err := segy.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	fmt.Printf("%s: %d traces of %d samples, %s, %d us\n", filename, f.TraceCount, f.Samples, f.Format, f.Interval)

	timedLog := vds.NewTimeLog()
	g, err := segy.ScanGeometry(f, opts)
	if err != nil {
		return err
	}
	for _, ad := range g.Axes {
		fmt.Printf("  %s\n", ad)
	}
	if n := g.Axes[vds.Inline].Len() * g.Axes[vds.Crossline].Len(); n != f.TraceCount {
		fmt.Printf("  %d of %d grid positions have no trace and will read as zeros\n", n-f.TraceCount, n)
	}
	timedLog.Infof("Scanned %d trace headers", f.TraceCount)
	if *scanOnly {
		return nil
	}

	sc, err := storeConfig()
	if err != nil {
		return err
	}
	layout := g.Layout(f, opts)
	w, err := storage.Create(ctx, sc, layout)
	if err != nil {
		return err
	}
	timedLog = vds.NewTimeLog()
	n, err := segy.Import(ctx, f, g, w, opts)
	if err != nil {
		w.Close(context.Background())
		return err
	}
	if err := w.Close(ctx); err != nil {
		return err
	}
	size := int64(f.TraceCount) * int64(f.Samples) * 4
	fmt.Printf("Imported %d traces (%s of samples) into %s in %s\n", n, humanize.Bytes(uint64(size)), sc, timedLog.Elapsed())
	return nil
}

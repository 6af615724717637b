// Serves one volume over HTTP.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/janelia-flyem/seisvds/server"
	"github.com/janelia-flyem/seisvds/storage"
	_ "github.com/janelia-flyem/seisvds/storage/badger"
	_ "github.com/janelia-flyem/seisvds/storage/blobstore"
	"github.com/janelia-flyem/seisvds/vds"
	"github.com/janelia-flyem/seisvds/volume"
)

var (
	showHelp    = flag.Bool("help", false, "")
	runVerbose  = flag.Bool("verbose", false, "")
	httpAddress = flag.String("http", "", "")
)

const helpMessage = `
vdsserve serves inlines, crosslines, depth slices, traces and headers of a volume

Usage: vdsserve [options] <config.toml>

      -http       =string   Address for HTTP communication, overriding the config.
      -verbose    (flag)    Run in verbose mode.
  -h, -help       (flag)    Show help message

Endpoints:

	GET /api/info
	GET /api/text
	GET /api/inline/<inline number>
	GET /api/crossline/<crossline number>
	GET /api/depth/<sample coordinate>
	GET /api/trace/<trace ordinal>
	GET /api/header/<trace ordinal>

Sample endpoints return little-endian float32 with the shape in the X-Sample-Shape
header, or JSON with ?format=json, or amplitude statistics with ?format=stats.

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
	if err := serve(flag.Arg(0)); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func serve(configFile string) error {
	c, err := server.LoadConfig(configFile)
	if err != nil {
		return err
	}
	if *httpAddress != "" {
		c.Server.HTTPAddress = *httpAddress
	}
	c.Logging.SetLogger()
	defer vds.Shutdown()

	sc, err := c.StoreConfig()
	if err != nil {
		return err
	}
	sess, err := volume.Open(context.Background(), sc, c.Options())
	if err != nil {
		return err
	}
	vds.Infof("Serving %s with %s\n", sess, c)

	// Capture ctrl+c and other interrupts.  Then close the volume and exit.
	stopSig := make(chan os.Signal, 1)
	go func() {
		sig := <-stopSig
		vds.Infof("Stop signal captured: %q.  Shutting down...\n", sig)
		if err := sess.Close(); err != nil {
			vds.Errorf("Error closing volume: %v\n", err)
		}
		vds.Shutdown()
		os.Exit(0)
	}()
	signal.Notify(stopSig, os.Interrupt, syscall.SIGTERM)

	err = server.New(sess, c).Serve()
	sess.Close()
	return err
}

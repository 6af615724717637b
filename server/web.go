package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/janelia-flyem/seisvds/storage"
	"github.com/janelia-flyem/seisvds/vds"
	"github.com/janelia-flyem/seisvds/volume"

	"github.com/rs/cors"
	"github.com/zenazn/goji/web"
)

// Server answers HTTP requests against one open volume.
type Server struct {
	sess    *volume.Session
	config  *Config
	mux     *web.Mux
	handler http.Handler
	started time.Time
}

// New returns a server for the session.  The session stays owned by the caller.
func New(sess *volume.Session, config *Config) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	s := &Server{
		sess:    sess,
		config:  config,
		mux:     web.New(),
		started: time.Now(),
	}
	s.initRoutes()
	if len(config.Server.CorsDomains) == 0 {
		s.handler = cors.Default().Handler(s.mux)
	} else {
		s.handler = cors.New(cors.Options{
			AllowedOrigins: config.Server.CorsDomains,
			AllowedMethods: []string{http.MethodGet, http.MethodHead},
		}).Handler(s.mux)
	}
	return s
}

// ServeHTTP handles one request, letting tests run the server without a listener.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Serve listens on the configured address until the listener fails.  Stay-alive
// connections are not allowed to hog goroutines for more than an hour.
func (s *Server) Serve() error {
	address := s.config.HTTPAddress()
	vds.Infof("Web server listening at %s ...\n", address)
	src := &http.Server{
		Addr:        address,
		Handler:     s,
		ReadTimeout: 1 * time.Hour,
	}
	return src.ListenAndServe()
}

func (s *Server) initRoutes() {
	s.mux.Use(logRequests)

	s.mux.Get(WebAPIPath+"info", s.infoHandler)
	s.mux.Get(WebAPIPath+"text", s.textHandler)
	s.mux.Get(WebAPIPath+"inline/:n", s.inlineHandler)
	s.mux.Get(WebAPIPath+"crossline/:n", s.crosslineHandler)
	s.mux.Get(WebAPIPath+"depth/:c", s.depthHandler)
	s.mux.Get(WebAPIPath+"trace/:i", s.traceHandler)
	s.mux.Get(WebAPIPath+"header/:i", s.headerHandler)
	s.mux.NotFound(func(w http.ResponseWriter, r *http.Request) {
		BadRequest(w, r, "unknown endpoint %q", r.URL.Path)
	})
}

// logRequests is middleware that logs each request with its duration.
func logRequests(c *web.C, h http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		timedLog := vds.NewTimeLog()
		h.ServeHTTP(w, r)
		timedLog.Debugf("HTTP %s: %s", r.Method, r.URL)
	}
	return http.HandlerFunc(fn)
}

// BadRequest writes an error message with status 400.
func BadRequest(w http.ResponseWriter, r *http.Request, format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	errorMsg := fmt.Sprintf("%s (%s).", message, r.URL.Path)
	vds.Errorf(errorMsg + "\n")
	http.Error(w, errorMsg, http.StatusBadRequest)
}

// readError writes a read failure with a status matching its kind.
func readError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, vds.ErrCoordinateNotFound), errors.Is(err, vds.ErrOutOfRange):
		status = http.StatusNotFound
	case errors.Is(err, vds.ErrInvalidSlice):
		status = http.StatusBadRequest
	case errors.Is(err, vds.ErrClosed), errors.Is(err, vds.ErrStoreUnavailable):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		vds.Errorf("Error on %s: %v\n", r.URL.Path, err)
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, r *http.Request, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		vds.Errorf("Unable to write JSON for %s: %v\n", r.URL.Path, err)
	}
}

type volumeInfo struct {
	Axes        [vds.NumAxes]vds.AxisDescriptor
	Shape       [vds.NumAxes]int
	TraceCount  int
	Version     string
	BrickSize   vds.Point3d
	LODLevels   int
	Compression string
	Note        string `json:",omitempty"`
	Uptime      string
	Fetch       *storage.FetchStats `json:",omitempty"`
}

func (s *Server) infoHandler(c web.C, w http.ResponseWriter, r *http.Request) {
	layout := s.sess.Layout()
	info := volumeInfo{
		Axes:        s.sess.Axes(),
		Shape:       s.sess.Shape(),
		TraceCount:  s.sess.TraceCount(),
		Version:     layout.Version,
		BrickSize:   layout.BrickSize,
		LODLevels:   layout.LODLevels,
		Compression: layout.Compression.String(),
		Note:        s.config.Server.Note,
		Uptime:      time.Since(s.started).Round(time.Second).String(),
	}
	if stats, ok := s.sess.Store().(interface{ Stats() storage.FetchStats }); ok {
		fetch := stats.Stats()
		info.Fetch = &fetch
	}
	writeJSON(w, r, info)
}

func (s *Server) textHandler(c web.C, w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, s.sess.TextLines())
}

// writeSamples sends a buffer in the format requested by the "format" query:
// raw little-endian float32 (default), "json" or "stats".
func writeSamples(w http.ResponseWriter, r *http.Request, buf *vds.SampleBuffer) {
	switch format := r.URL.Query().Get("format"); format {
	case "", "raw":
		shape := make([]string, len(buf.Shape))
		for i, n := range buf.Shape {
			shape[i] = strconv.Itoa(n)
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("X-Sample-Shape", strings.Join(shape, ","))
		if _, err := w.Write(buf.Bytes()); err != nil {
			vds.Errorf("Unable to write samples for %s: %v\n", r.URL.Path, err)
		}
	case "json":
		writeJSON(w, r, buf)
	case "stats":
		writeJSON(w, r, buf.Stats())
	default:
		BadRequest(w, r, "unknown format %q, expected raw, json or stats", format)
	}
}

func intParam(w http.ResponseWriter, r *http.Request, c web.C, name string) (int, bool) {
	n, err := strconv.Atoi(c.URLParams[name])
	if err != nil {
		BadRequest(w, r, "bad %s %q: must be an integer", name, c.URLParams[name])
		return 0, false
	}
	return n, true
}

func (s *Server) inlineHandler(c web.C, w http.ResponseWriter, r *http.Request) {
	n, ok := intParam(w, r, c, "n")
	if !ok {
		return
	}
	buf, err := s.sess.Inline.Get(r.Context(), n)
	if err != nil {
		readError(w, r, err)
		return
	}
	writeSamples(w, r, buf)
}

func (s *Server) crosslineHandler(c web.C, w http.ResponseWriter, r *http.Request) {
	n, ok := intParam(w, r, c, "n")
	if !ok {
		return
	}
	buf, err := s.sess.Crossline.Get(r.Context(), n)
	if err != nil {
		readError(w, r, err)
		return
	}
	writeSamples(w, r, buf)
}

func (s *Server) depthHandler(c web.C, w http.ResponseWriter, r *http.Request) {
	coord, err := strconv.ParseFloat(c.URLParams["c"], 64)
	if err != nil {
		BadRequest(w, r, "bad sample coordinate %q", c.URLParams["c"])
		return
	}
	buf, err := s.sess.DepthSlice.Get(r.Context(), coord)
	if err != nil {
		readError(w, r, err)
		return
	}
	writeSamples(w, r, buf)
}

func (s *Server) traceHandler(c web.C, w http.ResponseWriter, r *http.Request) {
	i, ok := intParam(w, r, c, "i")
	if !ok {
		return
	}
	buf, err := s.sess.Trace.Get(r.Context(), i)
	if err != nil {
		readError(w, r, err)
		return
	}
	writeSamples(w, r, buf)
}

func (s *Server) headerHandler(c web.C, w http.ResponseWriter, r *http.Request) {
	i, ok := intParam(w, r, c, "i")
	if !ok {
		return
	}
	h, err := s.sess.Header.Get(r.Context(), i)
	if err != nil {
		readError(w, r, err)
		return
	}
	writeJSON(w, r, h.Named())
}

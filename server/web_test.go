package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/janelia-flyem/seisvds/vds"
	"github.com/janelia-flyem/seisvds/volume"
	"github.com/janelia-flyem/seisvds/volume/voltest"
)

func openTestServer(t *testing.T) *Server {
	sess, err := volume.OpenStore(voltest.Small(t))
	if err != nil {
		t.Fatalf("can't open test volume: %v\n", err)
	}
	t.Cleanup(func() { sess.Close() })
	config := DefaultConfig()
	config.Server.Note = "test survey"
	return New(sess, config)
}

func TestInfo(t *testing.T) {
	s := openTestServer(t)
	r := TestHTTP(t, s, "GET", WebAPIPath+"info", nil)
	var info struct {
		Shape      [3]int
		TraceCount int
		Version    string
		Note       string
		Axes       [3]vds.AxisDescriptor
	}
	if err := json.Unmarshal(r, &info); err != nil {
		t.Fatalf("Unable to unmarshal info response: %s\n", string(r))
	}
	if info.Shape != [3]int{5, 5, 50} || info.TraceCount != 25 || info.Note != "test survey" {
		t.Errorf("Bad info: %s\n", string(r))
	}
	if info.Axes[2].Step != 4 || info.Version != vds.FormatVersion.String() {
		t.Errorf("Bad axes or version in info: %s\n", string(r))
	}
}

func TestRawInline(t *testing.T) {
	s := openTestServer(t)
	resp := TestHTTPResponse(t, s, "GET", WebAPIPath+"inline/3", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("Bad response %d: %s\n", resp.Code, resp.Body.String())
	}
	if shape := resp.Header().Get("X-Sample-Shape"); shape != "5,50" {
		t.Errorf("Expected shape 5,50, got %q\n", shape)
	}
	samples := vds.Float32sFromBytes(resp.Body.Bytes())
	if len(samples) != 250 {
		t.Fatalf("Expected 250 samples, got %d\n", len(samples))
	}
	if samples[2*50+7] != voltest.Value(2, 2, 7) {
		t.Errorf("Bad sample %g\n", samples[2*50+7])
	}
}

func TestJSONSamples(t *testing.T) {
	s := openTestServer(t)
	for _, tc := range []struct {
		url   string
		shape []int
		first float32
	}{
		{"crossline/21?format=json", []int{5, 50}, voltest.Value(0, 1, 0)},
		{"depth/8?format=json", []int{5, 5}, voltest.Value(0, 0, 2)},
		{"trace/7?format=json", []int{50}, voltest.Value(1, 2, 0)},
	} {
		r := TestHTTP(t, s, "GET", WebAPIPath+tc.url, nil)
		var buf vds.SampleBuffer
		if err := json.Unmarshal(r, &buf); err != nil {
			t.Fatalf("Unable to unmarshal %s: %v\n", tc.url, err)
		}
		if fmt.Sprint(buf.Shape) != fmt.Sprint(tc.shape) || buf.Data[0] != tc.first {
			t.Errorf("%s: bad shape %v or first sample %g\n", tc.url, buf.Shape, buf.Data[0])
		}
	}

	r := TestHTTP(t, s, "GET", WebAPIPath+"trace/0?format=stats", nil)
	var stats vds.SampleStats
	if err := json.Unmarshal(r, &stats); err != nil {
		t.Fatal(err)
	}
	if stats.Count != 50 || stats.Min != 0 || stats.Max != 49 {
		t.Errorf("Bad trace stats: %s\n", string(r))
	}
}

func TestHeaderAndText(t *testing.T) {
	s := openTestServer(t)
	r := TestHTTP(t, s, "GET", WebAPIPath+"header/7", nil)
	var named map[string]int32
	if err := json.Unmarshal(r, &named); err != nil {
		t.Fatal(err)
	}
	if named["INLINE_3D"] != 2 || named["CROSSLINE_3D"] != 22 || named["TRACE_SEQUENCE_FILE"] != 8 {
		t.Errorf("Bad header: %s\n", string(r))
	}

	r = TestHTTP(t, s, "GET", WebAPIPath+"text", nil)
	var lines []string
	if err := json.Unmarshal(r, &lines); err != nil {
		t.Fatal(err)
	}
	if len(lines) != 40 || lines[0] != "C 1 synthetic test volume" {
		t.Errorf("Bad text lines: %v\n", lines[:2])
	}
}

func TestBadRequests(t *testing.T) {
	s := openTestServer(t)
	TestBadHTTP(t, s, "GET", WebAPIPath+"inline/6", nil, http.StatusNotFound)
	TestBadHTTP(t, s, "GET", WebAPIPath+"inline/abc", nil, http.StatusBadRequest)
	TestBadHTTP(t, s, "GET", WebAPIPath+"depth/3", nil, http.StatusNotFound)
	TestBadHTTP(t, s, "GET", WebAPIPath+"trace/25", nil, http.StatusNotFound)
	TestBadHTTP(t, s, "GET", WebAPIPath+"header/-1", nil, http.StatusNotFound)
	TestBadHTTP(t, s, "GET", WebAPIPath+"trace/1?format=png", nil, http.StatusBadRequest)
	TestBadHTTP(t, s, "GET", WebAPIPath+"nothing", nil, http.StatusBadRequest)

	s.sess.Close()
	TestBadHTTP(t, s, "GET", WebAPIPath+"inline/1", nil, http.StatusServiceUnavailable)
}

func TestCORS(t *testing.T) {
	s := openTestServer(t)
	s = New(s.sess, &Config{Server: serverConfig{CorsDomains: []string{"http://viewer.example.com"}}})
	for origin, allowed := range map[string]string{
		"http://viewer.example.com": "http://viewer.example.com",
		"http://other.example.com":  "",
	} {
		req, err := http.NewRequest("GET", WebAPIPath+"info", nil)
		if err != nil {
			t.Fatal(err)
		}
		req.Header.Set("Origin", origin)
		resp := httptest.NewRecorder()
		s.ServeHTTP(resp, req)
		if got := resp.Header().Get("Access-Control-Allow-Origin"); got != allowed {
			t.Errorf("Origin %s: expected allowed origin %q, got %q\n", origin, allowed, got)
		}
	}
}

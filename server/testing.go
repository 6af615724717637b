/*
	This file contains functions useful for testing the HTTP API in other packages.
	They are exported and carry the "Test" keyword since functions in _test.go
	files are unavailable to external packages.
*/

package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

// TestHTTPResponse returns the recorded response of s to a request.  Use TestHTTP if
// you just want the response body bytes.
func TestHTTPResponse(t *testing.T, s *Server, method, urlStr string, payload io.Reader) *httptest.ResponseRecorder {
	req, err := http.NewRequest(method, urlStr, payload)
	if err != nil {
		t.Fatalf("Unsuccessful %s on %q: %v\n", method, urlStr, err)
	}
	resp := httptest.NewRecorder()
	s.ServeHTTP(resp, req)
	return resp
}

// TestHTTP returns the response body bytes for a test request, making sure the
// response has status OK.
func TestHTTP(t *testing.T, s *Server, method, urlStr string, payload io.Reader) []byte {
	resp := TestHTTPResponse(t, s, method, urlStr, payload)
	if resp.Code != http.StatusOK {
		t.Fatalf("Bad server response (%d) to %s on %q: %s\n", resp.Code, method, urlStr, resp.Body.String())
	}
	return resp.Body.Bytes()
}

// TestBadHTTP expects a response with the given error status code.
func TestBadHTTP(t *testing.T, s *Server, method, urlStr string, payload io.Reader, status int) {
	resp := TestHTTPResponse(t, s, method, urlStr, payload)
	if resp.Code != status {
		t.Fatalf("Expected status %d to %s on %q, got %d instead.\n", status, method, urlStr, resp.Code)
	}
}

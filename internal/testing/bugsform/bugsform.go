// Package bugsform serves a local replica of the Bugs Form page, including
// its broken label wiring and validation gaps, for tests.
package bugsform

import (
	"compress/gzip"
	_ "embed"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/andybalholm/brotli"
)

// Path is where the form is served.
const Path = "/bugs-form"

//go:embed testdata/bugs_form.html
var page []byte

// HTML returns the replica markup.
func HTML() []byte {
	return append([]byte(nil), page...)
}

// Server is a running replica.
type Server struct {
	*httptest.Server
	hits atomic.Int64
}

// FormURL returns the absolute URL of the form.
func (s *Server) FormURL() string {
	return s.Server.URL + Path
}

// Hits counts requests for the form.
func (s *Server) Hits() int64 {
	return s.hits.Load()
}

// NewServer starts a replica that honours Accept-Encoding (br, gzip). It is
// closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{}
	mux := http.NewServeMux()
	mux.HandleFunc(Path, func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		writeEncoded(w, r.Header.Get("Accept-Encoding"), page)
	})
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Server.Close)
	return s
}

func writeEncoded(w http.ResponseWriter, acceptEncoding string, body []byte) {
	var enc io.WriteCloser
	switch {
	case strings.Contains(acceptEncoding, "br"):
		w.Header().Set("Content-Encoding", "br")
		enc = brotli.NewWriter(w)
	case strings.Contains(acceptEncoding, "gzip"):
		w.Header().Set("Content-Encoding", "gzip")
		enc = gzip.NewWriter(w)
	default:
		_, _ = w.Write(body)
		return
	}
	_, _ = enc.Write(body)
	_ = enc.Close()
}

// internal/browser/static/compression.go
package static

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
)

var (
	gzipReaderPool = sync.Pool{
		New: func() interface{} { return new(gzip.Reader) },
	}
	brotliReaderPool = sync.Pool{
		New: func() interface{} { return brotli.NewReader(nil) },
	}
)

// decompressingTransport advertises br and gzip and decodes the response body
// before the page parser sees it. The default transport only handles gzip, and
// only when the caller leaves Accept-Encoding alone.
type decompressingTransport struct {
	base http.RoundTripper
}

func (t *decompressingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("Accept-Encoding") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("Accept-Encoding", "br, gzip")
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if err := decompressResponse(resp); err != nil {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("failed to initialize response decompression: %w", err)
	}
	return resp, nil
}

// closeWrapper returns the pooled reader and closes the original body.
type closeWrapper struct {
	io.Reader
	originalBody io.ReadCloser
	release      func()
}

func (w *closeWrapper) Close() error {
	if w.release != nil {
		w.release()
		w.release = nil
	}
	return w.originalBody.Close()
}

func decompressResponse(resp *http.Response) error {
	encoding := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding")))
	switch encoding {
	case "", "identity":
		return nil
	case "gzip", "x-gzip":
		zr := gzipReaderPool.Get().(*gzip.Reader)
		if err := zr.Reset(resp.Body); err != nil {
			gzipReaderPool.Put(zr)
			return err
		}
		resp.Body = &closeWrapper{Reader: zr, originalBody: resp.Body, release: func() {
			_ = zr.Reset(strings.NewReader(""))
			gzipReaderPool.Put(zr)
		}}
	case "br":
		br := brotliReaderPool.Get().(*brotli.Reader)
		if err := br.Reset(resp.Body); err != nil {
			brotliReaderPool.Put(br)
			return err
		}
		resp.Body = &closeWrapper{Reader: br, originalBody: resp.Body, release: func() {
			_ = br.Reset(strings.NewReader(""))
			brotliReaderPool.Put(br)
		}}
	default:
		return errors.New("unsupported content encoding: " + encoding)
	}

	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")
	resp.ContentLength = -1
	resp.Uncompressed = true
	return nil
}

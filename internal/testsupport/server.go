package testsupport

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

// ImageServer is an httptest server that answers every path with JPEGBytes.
type ImageServer struct {
	*httptest.Server
	requests atomic.Int64
}

// NewImageServer starts an ImageServer and registers its shutdown.
func NewImageServer(t testing.TB) *ImageServer {
	t.Helper()

	srv := &ImageServer{}
	srv.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		srv.requests.Add(1)
		w.Header().Set("Content-Type", "image/jpeg")
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusOK)
			return
		}
		_, _ = w.Write(JPEGBytes)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// Requests returns the number of requests served so far.
func (s *ImageServer) Requests() int64 { return s.requests.Load() }

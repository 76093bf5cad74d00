package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"go-moviematch/internal/config"
	"go-moviematch/internal/movie"
	"go-moviematch/internal/refine"
	"go-moviematch/internal/search"
)

var errUpstream = errors.New("upstream unavailable")

// stubRefiner records the queries it sees and answers from a fixed table.
type stubRefiner struct {
	mu      sync.Mutex
	seen    []string
	replies map[string]string
	err     error
}

func (s *stubRefiner) Refine(_ context.Context, q string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = append(s.seen, q)
	if s.err != nil {
		return "", s.err
	}
	if r, ok := s.replies[q]; ok {
		return r, nil
	}
	return q, nil
}

func (s *stubRefiner) calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.seen...)
}

func testCatalog(t *testing.T) *movie.Catalog {
	t.Helper()
	c, err := movie.NewCatalog([]movie.Record{
		{Title: "The Matrix", Plot: "A hacker discovers reality is simulated", Poster: "https://img/matrix.png"},
		{Title: "Matrix Reloaded", Plot: "Neo fights more robots", Poster: "ftp://img/reloaded.png"},
		{Title: "Wall-E", Plot: "A lonely robot cleans up earth"},
	})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return c
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Search.DelayMS = 0
	cfg.Server.Index = filepath.Join(dir, "index.html")
	cfg.Server.StaticDir = filepath.Join(dir, "static")
	if err := os.WriteFile(cfg.Server.Index, []byte("<html><body>movie finder</body></html>"), 0644); err != nil {
		t.Fatalf("write index: %v", err)
	}
	if err := os.MkdirAll(cfg.Server.StaticDir, 0755); err != nil {
		t.Fatalf("mkdir static: %v", err)
	}
	if err := os.WriteFile(filepath.Join(cfg.Server.StaticDir, "script.js"), []byte("console.log('hi');"), 0644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return cfg
}

func testRouter(t *testing.T, cfg *config.Config, r refine.Refiner) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return SetupRouter(cfg, Deps{
		Searcher: search.NewSearcher(testCatalog(t), cfg.Search.MaxResults),
		Refiner:  r,
	})
}

func postMovieResult(r http.Handler, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/movie-result", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yourorg/webstudio-go/internal/config"
	"github.com/yourorg/webstudio-go/internal/logging"
	"github.com/yourorg/webstudio-go/internal/sandbox"
	"github.com/yourorg/webstudio-go/internal/session"
	"github.com/yourorg/webstudio-go/internal/state"
	"github.com/yourorg/webstudio-go/internal/storage"
)

func newTestServer(t *testing.T, cfg *config.Config) (*HTTPServer, *state.State) {
	t.Helper()
	logger := logging.NewNop()
	store, err := storage.Open(t.TempDir(), logger)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	rt, err := sandbox.NewLocalRuntime(t.TempDir(), logger)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { rt.Close() })
	sess := session.New(cfg, store, rt, logger)
	st := state.New()
	return NewHTTPServer(cfg, st, sess, logger), st
}

func get(srv *HTTPServer, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	srv.srv.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthzReflectsReadiness(t *testing.T) {
	srv, st := newTestServer(t, &config.Config{HTTPAddr: "127.0.0.1:0"})

	if rec := get(srv, "/healthz", nil); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("before ready: code = %d, want 503", rec.Code)
	}
	st.SetReady()
	if rec := get(srv, "/healthz", nil); rec.Code != http.StatusOK {
		t.Fatalf("after ready: code = %d, want 200", rec.Code)
	}
}

func TestProjectsRequiresToken(t *testing.T) {
	srv, _ := newTestServer(t, &config.Config{HTTPAddr: "127.0.0.1:0", HTTPToken: "secret"})

	if rec := get(srv, "/projects", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("without token: code = %d, want 401", rec.Code)
	}
	rec := get(srv, "/projects", map[string]string{"X-Studio-Token": "secret"})
	if rec.Code != http.StatusOK {
		t.Fatalf("with token: code = %d, want 200", rec.Code)
	}
}

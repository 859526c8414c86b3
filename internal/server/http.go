// Package server provides the HTTP management surface: health, status,
// project listing, op logs, Prometheus metrics and a websocket that
// streams sandbox process output.
package server

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yourorg/webstudio-go/internal/config"
	"github.com/yourorg/webstudio-go/internal/logging"
	"github.com/yourorg/webstudio-go/internal/metrics"
	"github.com/yourorg/webstudio-go/internal/session"
	"github.com/yourorg/webstudio-go/internal/state"
	"github.com/yourorg/webstudio-go/internal/version"
)

//go:embed templates/index.html
var indexHTML []byte

// HTTPServer provides health/management endpoints.
type HTTPServer struct {
	addr   string
	logger *logging.Logger
	srv    *http.Server
}

func withOptionalAuth(token string, h http.HandlerFunc) http.HandlerFunc {
	if token == "" {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Studio-Token") != token {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte("unauthorized"))
			return
		}
		h(w, r)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The daemon binds to localhost; the editor frontend is the only
	// expected origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

func NewHTTPServer(cfg *config.Config, st *state.State, sess *session.Session, logger *logging.Logger) *HTTPServer {
	mux := http.NewServeMux()

	// Web UI
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(indexHTML)
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if !st.IsStarted() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("starting"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		resp := map[string]any{
			"status": string(st.Status()),
			"data": map[string]any{
				"http":     cfg.HTTPAddr,
				"listen":   cfg.Listen,
				"data":     cfg.DataDir,
				"sandbox":  cfg.SandboxDir,
				"desynced": sess.Runtime().Desynced(),
				"build":    version.Get(),
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	})

	mux.HandleFunc("/projects", withOptionalAuth(cfg.HTTPToken, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		projects, err := sess.ListProjects()
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}
		_ = json.NewEncoder(w).Encode(projects)
	}))

	mux.Handle("/metrics", metrics.Handler())

	mux.HandleFunc("/logs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		// Support ?after=ID for incremental fetching
		afterStr := r.URL.Query().Get("after")
		if afterStr != "" {
			var afterID int64
			fmt.Sscanf(afterStr, "%d", &afterID)
			_ = json.NewEncoder(w).Encode(sess.LogsSince(afterID))
			return
		}
		// Default: return recent 50 logs
		_ = json.NewEncoder(w).Encode(sess.RecentLogs(50))
	})

	mux.HandleFunc("/ws/process", withOptionalAuth(cfg.HTTPToken, func(w http.ResponseWriter, r *http.Request) {
		serveProcess(cfg, sess, logger, w, r)
	}))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		// No WriteTimeout: /ws/process streams for the lifetime of the
		// sandbox process.
	}

	return &HTTPServer{addr: cfg.HTTPAddr, logger: logger, srv: srv}
}

// serveProcess upgrades to a websocket and streams the output of a
// sandbox command selected by ?cmd=install|dev. The socket closes when
// the process exits or the client disconnects.
func serveProcess(cfg *config.Config, sess *session.Session, logger *logging.Logger, w http.ResponseWriter, r *http.Request) {
	var command []string
	switch r.URL.Query().Get("cmd") {
	case "install":
		command = cfg.InstallCommand
	case "dev":
		command = cfg.DevCommand
	default:
		http.Error(w, "cmd must be install or dev", http.StatusBadRequest)
		return
	}
	if len(command) == 0 {
		http.Error(w, "command not configured", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", logging.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	proc, err := sess.RunProcess(ctx, command[0], command[1:]...)
	if err != nil {
		_ = conn.WriteJSON(map[string]string{"type": "error", "message": err.Error()})
		return
	}

	// Drain client reads so close frames and pings are processed; any
	// client message cancels the process.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for line := range proc.Output {
		if err := conn.WriteJSON(map[string]string{"type": "output", "line": line}); err != nil {
			cancel()
			break
		}
	}
	code, err := proc.Wait()
	if err != nil {
		_ = conn.WriteJSON(map[string]string{"type": "error", "message": err.Error()})
		return
	}
	_ = conn.WriteJSON(map[string]any{"type": "exit", "code": code})
}

func (s *HTTPServer) Start() error {
	s.logger.Info("http server starting", logging.String("addr", s.addr))
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	return s.srv.Shutdown(ctx)
}

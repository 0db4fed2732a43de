package shell

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nao1215/peermark/internal/hostgate"
	"github.com/nao1215/peermark/internal/message"
)

// maxRequestBody limits request bodies accepted by the server.
const maxRequestBody = 64 * 1024

// DefaultShutdownTimeout bounds graceful shutdown.
const DefaultShutdownTimeout = 5 * time.Second

// Server exposes a host gate over HTTP.
type Server struct {
	gate            *hostgate.Gate
	local           *Local
	logger          *slog.Logger
	shutdownTimeout time.Duration
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithServerLogger sets a custom logger.
func WithServerLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithShutdownTimeout sets how long ListenAndServe waits for in-flight
// requests when its context ends.
func WithShutdownTimeout(d time.Duration) ServerOption {
	return func(s *Server) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

// NewServer creates a Server over gate.
func NewServer(gate *hostgate.Gate, opts ...ServerOption) *Server {
	s := &Server{
		gate:            gate,
		local:           NewLocal(gate),
		shutdownTimeout: DefaultShutdownTimeout,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get(routeHealth, s.healthzHandler)

	r.Post(routeMessages, s.messagesHandler)
	r.Get(routeHosts, s.listHostsHandler)
	r.Get(routeCheck, s.checkHostHandler)
	r.Post(routeDisable, s.disableHostHandler)
	r.Post(routeEnable, s.enableHostHandler)

	return r
}

// ListenAndServe serves on addr until ctx ends, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("shell server started", "addr", addr)
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("listen and serve: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		s.logger.Info("shell server stopped")
		return nil
	case err := <-errCh:
		if err != nil {
			return err
		}
		s.logger.Info("shell server stopped")
		return nil
	}
}

func (s *Server) healthzHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// messagesHandler answers PageReady with EnableAnnotations, or 204 when
// the host is opted out.
func (s *Server) messagesHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	m, err := message.Decode(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	ready, ok := m.(message.PageReady)
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%s is not accepted by the shell", m.Kind()))
		return
	}

	reply := s.local.Reply(ready.URL)
	if reply == nil {
		s.logger.Debug("page ready on disabled host", "url", ready.URL)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeMessage(w, reply)
}

func (s *Server) listHostsHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HostList{
		Persistent: s.gate.Persistent(),
		Session:    s.gate.Session(),
	})
}

func (s *Server) checkHostHandler(w http.ResponseWriter, r *http.Request) {
	url := strings.TrimSpace(r.URL.Query().Get("url"))
	if url == "" {
		writeError(w, http.StatusBadRequest, ErrMissingURL)
		return
	}
	writeJSON(w, http.StatusOK, s.local.Status(url))
}

func (s *Server) disableHostHandler(w http.ResponseWriter, r *http.Request) {
	req, err := decodeHostRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	mode, err := hostgate.ParseMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.gate.Disable(req.URL, mode)
	s.logger.Info("host disabled", "host", hostgate.Normalize(req.URL), "mode", mode)
	writeMessage(w, message.DisableAnnotations{})
}

func (s *Server) enableHostHandler(w http.ResponseWriter, r *http.Request) {
	req, err := decodeHostRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.gate.Enable(req.URL)
	s.logger.Info("host enabled", "host", hostgate.Normalize(req.URL))
	writeMessage(w, message.EnableAnnotations{})
}

func decodeHostRequest(r *http.Request) (HostRequest, error) {
	var req HostRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&req); err != nil {
		return req, fmt.Errorf("invalid request body: %w", err)
	}
	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		return req, ErrMissingURL
	}
	return req, nil
}

func writeMessage(w http.ResponseWriter, m message.Message) {
	data, err := message.Encode(m)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode JSON response", "error", err)
	}
}

// Package httpserver serves the submission handler over plain HTTP for
// local development and non-Lambda deployments.
package httpserver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/shineum/contact-form-relay/internal/handler"
)

// shutdownTimeout is the maximum time to wait for in-flight requests
// during graceful shutdown.
const shutdownTimeout = 30 * time.Second

// maxBodySize caps the request body read from a client.
const maxBodySize = 64 << 10

// ServerConfig holds the configuration for an HTTP server.
type ServerConfig struct {
	// ListenAddr is the address to listen on (e.g., ":8080").
	ListenAddr string

	// Handler processes each submission.
	Handler *handler.Handler
}

// Server exposes the submission handler on an HTTP listener.
type Server struct {
	config ServerConfig
	router chi.Router

	mu       sync.Mutex
	listener net.Listener
}

// New creates a new HTTP Server with the given configuration.
func New(cfg ServerConfig) *Server {
	s := &Server{config: cfg}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	for _, path := range []string{"/", "/submit"} {
		r.Post(path, s.handleSubmit)
		r.Options(path, s.handlePreflight)
	}
	return r
}

// Router returns the HTTP handler, used for testing.
func (s *Server) Router() http.Handler {
	return s.router
}

// ListenAndServe starts the HTTP server and blocks until the context is
// cancelled. On cancellation it stops accepting connections and waits up
// to 30 seconds for in-flight requests to complete.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("HTTP server listening", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("shutdown timeout reached, forcing close", "error", err)
		return srv.Close()
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr returns the listener address, or empty string if not listening.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		slog.Debug("failed to read request body", "error", err)
		body = nil
	}

	res := s.config.Handler.Handle(r.Context(), toRequest(r, string(body)))
	writeResult(w, res)
}

func (s *Server) handlePreflight(w http.ResponseWriter, r *http.Request) {
	writeResult(w, s.config.Handler.Preflight(toRequest(r, "")))
}

func toRequest(r *http.Request, body string) handler.Request {
	headers := make(map[string]string, len(r.Header))
	for k := range r.Header {
		headers[k] = r.Header.Get(k)
	}
	return handler.Request{
		Method:    r.Method,
		Headers:   headers,
		Body:      body,
		RequestID: middleware.GetReqID(r.Context()),
	}
}

func writeResult(w http.ResponseWriter, res handler.Result) {
	if res.Silent {
		drop(w)
		return
	}
	for k, v := range res.Response.Headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(res.Response.StatusCode)
	if res.Response.Body != "" {
		_, _ = io.WriteString(w, res.Response.Body)
	}
}

// drop closes the client connection without writing a response.
func drop(w http.ResponseWriter) {
	conn, _, err := http.NewResponseController(w).Hijack()
	if err != nil {
		// HTTP/2 and wrapped writers can't be hijacked; aborting resets
		// the stream without sending a status.
		panic(http.ErrAbortHandler)
	}
	_ = conn.Close()
}

package mockserver

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// Canned request bodies and responses
const (
	HelloResponse = "{ message: 'hello world' }"

	LoginBody         = "{username: 'foo', password: 'bar'}"
	LoginWelcome      = "{ message: 'Welcome', status: 'success' }"
	LoginAccessDenied = "{ message: 'Access denied', status: 'failed' }"
	AddBody           = "{title: 'car', value: '1500'}"
	AddResponse       = "{ modified: '1' }"
	DeleteID          = "123"
	DeleteResponse    = "{ deleted: '1' }"
)

// Server serves a fixed set of JSON endpoints for trying assertions against
// a live address: GET /hello, POST /login, PUT /add and DELETE /delete?id=123.
// Requests that match no expectation get a 404.
type Server struct {
	logger   *slog.Logger
	server   *http.Server
	mux      *http.ServeMux
	requests atomic.Uint64
}

// NewServer creates a server that will listen on addr
func NewServer(logger *slog.Logger, addr string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		logger: logger,
		mux:    http.NewServeMux(),
	}

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	s.mux.HandleFunc("GET /hello", s.hello)
	s.mux.HandleFunc("POST /login", s.login)
	s.mux.HandleFunc("PUT /add", s.add)
	s.mux.HandleFunc("DELETE /delete", s.delete)

	return s
}

// Handler returns the routes, counting every request
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		s.logger.Debug("mock request", slog.String("method", r.Method), slog.String("path", r.URL.Path))
		s.mux.ServeHTTP(w, r)
	})
}

// Requests returns how many requests the server has received
func (s *Server) Requests() uint64 {
	return s.requests.Load()
}

// Start listens until Shutdown is called
func (s *Server) Start() error {
	s.logger.Info("mock server started", slog.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("mock server: %w", err)
	}
	return nil
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down mock server")
	return s.server.Shutdown(ctx)
}

func (s *Server) hello(w http.ResponseWriter, _ *http.Request) {
	respond(w, HelloResponse)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if string(body) == LoginBody {
		respond(w, LoginWelcome)
		return
	}
	respond(w, LoginAccessDenied)
}

func (s *Server) add(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if string(body) != AddBody {
		http.NotFound(w, r)
		return
	}
	respond(w, AddResponse)
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("id") != DeleteID {
		http.NotFound(w, r)
		return
	}
	respond(w, DeleteResponse)
}

func respond(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, body)
}

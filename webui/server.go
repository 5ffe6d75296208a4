package webui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/lixenwraith/enso/core"
	"github.com/lixenwraith/enso/parameter"
)

// ErrUnknownKey is returned by a Backend for option names it does not recognise
var ErrUnknownKey = errors.New("unknown setting")

// CommandInfo is the listing entry of one registered command
type CommandInfo struct {
	Expression  string   `json:"expression"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	Kind        string   `json:"kind"`
	Args        []string `json:"args,omitempty"`
}

// Backend is the core state the server exposes; it is only called on the main loop
type Backend interface {
	Commands() []CommandInfo
	Settings() map[string]any
	Setting(key string) (any, error)
	SetSetting(key string, value any) error
}

// Dispatcher runs fn on the main loop
type Dispatcher interface {
	Call(fn func())
}

// Server is the optional settings endpoint
type Server struct {
	addr     string
	backend  Backend
	dispatch Dispatcher
	metrics  *Metrics
	log      *zap.SugaredLogger
	timeout  time.Duration
}

func New(addr string, backend Backend, dispatch Dispatcher, metrics *Metrics, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Server{
		addr:     addr,
		backend:  backend,
		dispatch: dispatch,
		metrics:  metrics,
		log:      log,
		timeout:  parameter.WebUIShutdown,
	}
}

// Handler returns the router
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout))

	r.Get("/healthz", s.handleHealthz)
	r.Handle("/metrics", s.metrics.Handler())
	r.Route("/api", func(r chi.Router) {
		r.Get("/commands", s.handleCommands)
		r.Route("/config", func(r chi.Router) {
			r.Get("/", s.handleSettings)
			r.Get("/{key}", s.handleSetting)
			r.Put("/{key}", s.handlePutSetting)
		})
	})
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("settings server: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve runs on an existing listener
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       time.Minute,
		MaxHeaderBytes:    1 << 16,
	}
	serverErr := make(chan error, 1)
	core.Go(func() {
		s.log.Infow("settings server listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	})

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), parameter.WebUIShutdown)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}

// onLoop runs fn on the main loop and waits for it or for ctx
func (s *Server) onLoop(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	s.dispatch.Call(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": parameter.Version})
}

func (s *Server) handleCommands(w http.ResponseWriter, r *http.Request) {
	var cmds []CommandInfo
	if err := s.onLoop(r.Context(), func() { cmds = s.backend.Commands() }); err != nil {
		respondError(w, http.StatusServiceUnavailable, err)
		return
	}
	if cmds == nil {
		cmds = []CommandInfo{}
	}
	respondJSON(w, http.StatusOK, cmds)
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	var all map[string]any
	if err := s.onLoop(r.Context(), func() { all = s.backend.Settings() }); err != nil {
		respondError(w, http.StatusServiceUnavailable, err)
		return
	}
	respondJSON(w, http.StatusOK, all)
}

type settingBody struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

func (s *Server) handleSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	var (
		value any
		err   error
	)
	if lerr := s.onLoop(r.Context(), func() { value, err = s.backend.Setting(key) }); lerr != nil {
		respondError(w, http.StatusServiceUnavailable, lerr)
		return
	}
	if err != nil {
		respondError(w, statusFor(err), err)
		return
	}
	respondJSON(w, http.StatusOK, settingBody{Key: key, Value: value})
}

func (s *Server) handlePutSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	var body settingBody
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Errorf("decode body: %w", err))
		return
	}

	var (
		value any
		err   error
	)
	lerr := s.onLoop(r.Context(), func() {
		if err = s.backend.SetSetting(key, body.Value); err == nil {
			value, err = s.backend.Setting(key)
		}
	})
	if lerr != nil {
		respondError(w, http.StatusServiceUnavailable, lerr)
		return
	}
	if err != nil {
		respondError(w, statusFor(err), err)
		return
	}
	s.log.Infow("setting changed", "key", key)
	respondJSON(w, http.StatusOK, settingBody{Key: key, Value: value})
}

func statusFor(err error) int {
	if errors.Is(err, ErrUnknownKey) {
		return http.StatusNotFound
	}
	return http.StatusBadRequest
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}

func respondError(w http.ResponseWriter, status int, err error) {
	respondJSON(w, status, struct {
		Error  string `json:"error"`
		Status int    `json:"status"`
	}{Error: err.Error(), Status: status})
}

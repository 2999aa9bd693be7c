// Package agent serves a keyring over HTTP so the CLI can sign with accounts
// it does not hold itself. It plays the part a browser wallet extension plays
// for a web page: an app enables it, lists its accounts and asks it to sign
// raw payloads, each of which the agent may put in front of a human first.
package agent

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/chinmay1088/dhub/signer"
	"github.com/flashbots/go-utils/httplogger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/atomic"
)

// RequestIDHeader carries the id the agent assigns to every request.
const RequestIDHeader = "X-Request-Id"

type Config struct {
	ListenAddr string
	Log        *slog.Logger

	GracefulShutdownDuration time.Duration
	ReadTimeout              time.Duration
	// WriteTimeout must leave room for a human to approve a signature.
	WriteTimeout time.Duration
}

// DefaultConfig listens on the address the CLI dials by default.
func DefaultConfig() *Config {
	return &Config{
		ListenAddr:               "127.0.0.1:8137",
		GracefulShutdownDuration: 5 * time.Second,
		ReadTimeout:              10 * time.Second,
		WriteTimeout:             3 * time.Minute,
	}
}

type Server struct {
	cfg     *Config
	isReady atomic.Bool
	log     *slog.Logger

	ring *signer.Keyring
	srv  *http.Server
}

func New(cfg *Config, ring *signer.Keyring) *Server {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		cfg:  cfg,
		log:  log,
		ring: ring,
	}
	s.isReady.Store(true)
	s.srv = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Handler returns the agent router.
func (s *Server) Handler() http.Handler {
	mux := chi.NewRouter()
	mux.Use(requestID, middleware.Recoverer)

	mux.With(s.httpLogger).Post("/enable", s.handleEnable)
	mux.With(s.httpLogger, s.requireEnabled).Get("/accounts", s.handleAccounts)
	mux.With(s.httpLogger, s.requireEnabled).Post("/sign_raw", s.handleSignRaw)

	mux.Get("/livez", s.handleLivenessCheck)
	mux.Get("/readyz", s.handleReadinessCheck)
	return mux
}

func (s *Server) httpLogger(next http.Handler) http.Handler {
	return httplogger.LoggingMiddlewareSlog(s.log, next)
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleLivenessCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

func (s *Server) handleReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if !s.isReady.Load() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// Addr returns the configured listen address.
func (s *Server) Addr() string { return s.cfg.ListenAddr }

func (s *Server) RunInBackground() {
	go func() {
		s.log.Info("Starting signing agent", "listenAddress", s.cfg.ListenAddr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("Signing agent failed", "err", err)
		}
	}()
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Starting signing agent", "listenAddress", s.cfg.ListenAddr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.Shutdown()
		return nil
	}
}

func (s *Server) Shutdown() {
	s.isReady.Store(false)
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.GracefulShutdownDuration)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		s.log.Error("Graceful agent shutdown failed", "err", err)
	} else {
		s.log.Info("Signing agent gracefully stopped")
	}
}

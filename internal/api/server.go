package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Roelanb/pixelveil/internal/config"
	"github.com/Roelanb/pixelveil/internal/ledger"
	"github.com/Roelanb/pixelveil/internal/qrcode"
	"github.com/Roelanb/pixelveil/internal/stego"
)

// Version is stamped at build time with -ldflags "-X ...api.Version=...".
var Version = "dev"

type Logger interface {
	Infow(msg string, keysAndValues ...any)
	Warnw(msg string, keysAndValues ...any)
	Errorw(msg string, keysAndValues ...any)
}

type Control interface {
	// Reload re-reads the configuration file and applies it.
	Reload(ctx context.Context) error
	// GetConfig returns the effective config as a JSON-able structure.
	GetConfig() any
	// ApplyConfig validates raw JSON, persists it and applies it.
	ApplyConfig(ctx context.Context, raw []byte) error
}

// settings is the reloadable part of the server, swapped as a whole.
type settings struct {
	engine         *stego.Engine
	qr             qrcode.Generator
	maxUploadBytes int64
	title          string
	origin         string
	assets         fs.FS
	hasClient      bool
}

type Server struct {
	log    Logger
	ctrl   Control
	ledger ledger.Store
	router chi.Router
	srv    *http.Server
	addr   string
	ln     net.Listener
	mu     sync.Mutex
	start  bool

	readHeaderTimeout time.Duration

	cfgMu sync.RWMutex
	cfg   settings
}

// New builds the server. ctrl and store may be nil; the endpoints that need
// them then report 503 or empty results.
func New(log Logger, ctrl Control, store ledger.Store, cfg config.Config) *Server {
	s := &Server{
		log:    log,
		ctrl:   ctrl,
		ledger: store,
		addr:   cfg.Server.Listen,
	}
	s.readHeaderTimeout = time.Duration(cfg.Server.ReadHeaderTimeoutSec) * time.Second
	if s.readHeaderTimeout <= 0 {
		s.readHeaderTimeout = 5 * time.Second
	}
	s.Apply(cfg)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(s.recoverJSON)

	r.Get("/health", s.handleHealth)
	r.Post("/reload", s.handleReload)
	r.Get("/config", s.handleGetConfig)
	r.Post("/config", s.handleApplyConfig)

	r.Route("/api", func(r chi.Router) {
		r.Post("/capacity", s.handleCapacity)
		r.Post("/encode", s.handleEncode)
		r.Post("/decode", s.handleDecode)
		r.Post("/generate-qr", s.handleGenerateQR)
		r.Get("/activity", s.handleActivity)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	s.router = r
	s.mountUI()
	return s
}

// Apply swaps in the reloadable settings of cfg. The listen address and
// header timeout only take effect on restart.
func (s *Server) Apply(cfg config.Config) {
	next := settings{
		engine: stego.NewEngine(cfg.Crypto.KDFIterations, cfg.Limits.MaxMessageBytes, cfg.Limits.MaxPixels),
		qr: qrcode.Generator{
			Size:            cfg.QR.Size,
			Level:           cfg.QR.Level,
			MaxContentBytes: cfg.QR.MaxContentBytes,
		},
		maxUploadBytes: cfg.Limits.MaxUploadBytes,
		title:          cfg.UI.Title,
		origin:         cfg.Server.PublicOrigin,
	}
	next.assets = clientAssets(cfg.UI.AssetsDir)
	next.hasClient = hasClient(next.assets)
	s.cfgMu.Lock()
	s.cfg = next
	s.cfgMu.Unlock()
}

func (s *Server) current() settings {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.start {
		return nil
	}
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.srv = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: s.readHeaderTimeout,
	}
	go func() {
		s.log.Infow("api server listening", "addr", ln.Addr().String())
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Errorw("api server error", "error", err)
		}
	}()
	s.start = true
	go func() {
		<-ctx.Done()
		_ = s.Shutdown(context.Background())
	}()
	return nil
}

// Addr returns the bound address once started, else the configured one.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.addr
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv == nil {
		return nil
	}
	err := s.srv.Shutdown(ctx)
	s.start = false
	return err
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Infow("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// recoverJSON turns a handler panic into a 500 JSON error.
func (s *Server) recoverJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				s.log.Errorw("handler panic", "path", r.URL.Path, "panic", v,
					"request_id", middleware.GetReqID(r.Context()))
				writeError(w, http.StatusInternalServerError, "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	if s.ctrl == nil {
		writeError(w, http.StatusServiceUnavailable, "control unavailable")
		return
	}
	writeJSON(w, http.StatusOK, s.ctrl.GetConfig())
}

func (s *Server) handleApplyConfig(w http.ResponseWriter, r *http.Request) {
	if s.ctrl == nil {
		writeError(w, http.StatusServiceUnavailable, "control unavailable")
		return
	}
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()
	if err := s.ctrl.ApplyConfig(ctx, raw); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if s.ctrl == nil {
		writeError(w, http.StatusServiceUnavailable, "control unavailable")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()
	if err := s.ctrl.Reload(ctx); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

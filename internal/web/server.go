// Package web serves the view models over HTTP and streams store updates over SSE.
package web

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/bazar/internal/clients"
	"github.com/vadiminshakov/bazar/internal/domain"
	"github.com/vadiminshakov/bazar/internal/metrics"
	"github.com/vadiminshakov/bazar/internal/services/assetview"
	"github.com/vadiminshakov/bazar/internal/services/profileview"
	"github.com/vadiminshakov/bazar/internal/storage/journal"
	"github.com/vadiminshakov/bazar/internal/store"
	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"
)

const (
	recordPollInterval = 2 * time.Second
	heartbeatInterval  = 30 * time.Second
	maxBodyBytes       = 1 << 20
)

type statusSource interface {
	Status() domain.AppStatus
	Viewer() domain.Viewer
	SetViewer(v domain.Viewer)
}

type stateSource interface {
	Snapshot() store.State
}

type sessionManager interface {
	Open(ctx context.Context, assetID string) (assetview.Snapshot, error)
	Get(sessionID string) (assetview.Snapshot, error)
	SelectTab(sessionID string, tab assetview.Tab) (assetview.Snapshot, error)
	SetOwnersModal(sessionID string, open bool) (assetview.Snapshot, error)
	SetListingsModal(sessionID string, open bool) (assetview.Snapshot, error)
	Reload(ctx context.Context, sessionID string) (assetview.Snapshot, error)
	CancelOrder(ctx context.Context, sessionID, orderID string) (assetview.Snapshot, error)
	CreateListing(ctx context.Context, sessionID string, req assetview.ListingRequest) (assetview.Snapshot, error)
	Close(sessionID string) error
}

type profilePages interface {
	Page(ctx context.Context, address, tab string, showFullBio bool) (profileview.Page, error)
	Update(ctx context.Context, address string, update clients.ProfileUpdate) error
}

type recordReader interface {
	RecordsAfter(index uint64) ([]journal.Record, error)
}

// Deps are the collaborators the server exposes.
type Deps struct {
	Status   statusSource
	State    stateSource
	Sessions sessionManager
	Profiles profilePages
	// Journal may be nil, which disables the update stream.
	Journal recordReader
}

// Server exposes the JSON API and the SSE stream of store updates.
type Server struct {
	Addr string

	deps         Deps
	logger       *zap.Logger
	pollInterval time.Duration
}

// NewServer creates a new web server instance.
func NewServer(addr string, deps Deps, logger *zap.Logger) *Server {
	return &Server{
		Addr:         addr,
		deps:         deps,
		logger:       logger.With(zap.String("component", "web")),
		pollInterval: recordPollInterval,
	}
}

// Handler returns the instrumented router.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleStatus)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("GET /api/viewer", s.handleGetViewer)
	mux.HandleFunc("PUT /api/viewer", s.handleSetViewer)

	mux.HandleFunc("POST /api/assets/{id}/sessions", s.handleOpenSession)
	mux.HandleFunc("GET /api/sessions/{sid}", s.handleGetSession)
	mux.HandleFunc("DELETE /api/sessions/{sid}", s.handleCloseSession)
	mux.HandleFunc("PUT /api/sessions/{sid}/tab", s.handleSelectTab)
	mux.HandleFunc("PUT /api/sessions/{sid}/modals/{name}", s.handleModal)
	mux.HandleFunc("POST /api/sessions/{sid}/reload", s.handleReload)
	mux.HandleFunc("POST /api/sessions/{sid}/orders/{orderID}/cancel", s.handleCancelOrder)
	mux.HandleFunc("POST /api/sessions/{sid}/listings", s.handleCreateListing)

	mux.HandleFunc("GET /profile", s.handleNotFoundRedirect)
	mux.HandleFunc("GET /profile/{$}", s.handleNotFoundRedirect)
	mux.HandleFunc("GET /profile/{address}", s.handleProfile)
	mux.HandleFunc("GET /profile/{address}/{tab}", s.handleProfile)
	mux.HandleFunc("PUT /profile/{address}", s.handleUpdateProfile)
	mux.HandleFunc("GET "+profileview.NotFoundPath, s.handleNotFound)

	mux.HandleFunc("GET /store/stream", s.handleStoreStream)
	mux.Handle("GET /metrics", metrics.Handler())

	return metrics.InstrumentHandler(mux)
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	server := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("http server listening", zap.String("addr", s.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// StartWithAutoTLS runs an HTTPS server with automatic TLS certificates via ACME.
// It also starts an HTTP server on port 80 to handle ACME HTTP-01 challenges.
func (s *Server) StartWithAutoTLS(ctx context.Context, domains []string, cacheDir string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(domains) == 0 {
		return errors.New("no domains provided for automatic TLS")
	}
	if cacheDir == "" {
		cacheDir = "cert-cache"
	}

	manager := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(domains...),
		Cache:      autocert.DirCache(cacheDir),
	}

	httpSrv := &http.Server{
		Addr:              ":80",
		Handler:           manager.HTTPHandler(nil),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	tlsConfig := manager.TLSConfig()
	tlsConfig.MinVersion = tls.VersionTLS12

	httpsSrv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
		TLSConfig:         tlsConfig,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Warn("http (acme) server shutdown error", zap.Error(err))
		}
		if err := httpsSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Warn("https server shutdown error", zap.Error(err))
		}
	}()

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http (acme) server error", zap.Error(err))
		}
	}()

	s.logger.Info("https server listening", zap.String("addr", s.Addr), zap.Strings("domains", domains))
	if err := httpsSrv.ListenAndServeTLS("", ""); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Status.Status())
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.State.Snapshot())
}

func (s *Server) handleGetViewer(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Status.Viewer())
}

func (s *Server) handleSetViewer(w http.ResponseWriter, r *http.Request) {
	var viewer domain.Viewer
	if !s.decode(w, r, &viewer) {
		return
	}
	s.deps.Status.SetViewer(viewer)
	writeJSON(w, http.StatusOK, s.deps.Status.Viewer())
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

// Package server is the reference HTTP layer described in §1/§9: a thin
// dispatcher that resolves a tenant, fetches its upstream feed, calls
// internal/reconcile, and applies §7's caching/fallback policy over the
// wire. None of this package's logic is part of the core reconciliation
// contract — a deployment may replace it with any routing layer that
// calls internal/reconcile the same way.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"calproxy/internal/config"
	"calproxy/internal/fetch"
	appLog "calproxy/internal/log"
	"calproxy/internal/reconcile"
	"calproxy/internal/store"
	"calproxy/internal/tenant"
)

// Server dispatches tenant calendar requests over a shared state store.
type Server struct {
	cfg     *config.Config
	store   store.Store
	fetcher *fetch.Fetcher
	mux     *http.ServeMux

	// In-memory cache of the last reconciled response per tenant, keyed
	// by tenant id, filled only by this server's own calendar requests.
	// It only saves a redundant upstream fetch for repeated requests
	// within responseCacheTTL; internal/reconcile's own
	// snapshot/upstream-hash short circuit is the durable cache.
	cacheMu sync.RWMutex
	cache   map[string]*cachedResponse
}

type cachedResponse struct {
	body      []byte
	etag      string
	updatedAt time.Time
}

const responseCacheTTL = 30 * time.Second

// NewServer constructs a Server over the given store and configuration.
func NewServer(cfg *config.Config, st store.Store) *Server {
	s := &Server{
		cfg:     cfg,
		store:   st,
		fetcher: fetch.New(time.Duration(cfg.FetchTimeoutSeconds) * time.Second),
		mux:     http.NewServeMux(),
		cache:   make(map[string]*cachedResponse),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler, wrapped with a request-id
// middleware.
func (s *Server) Handler() http.Handler {
	return s.requestIDMiddleware(s.mux)
}

// requestIDMiddleware stamps every request with a unique id (used in logs
// and echoed back via X-Request-Id), so individual tenant runs can be
// correlated across the fetch/reconcile/respond pipeline.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		w.Header().Set("X-Request-Id", reqID)
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type requestIDKey struct{}

func requestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// StartServer starts an HTTP server bound to cfg.Listen. It blocks until
// ctx is cancelled, then shuts down gracefully.
func StartServer(ctx context.Context, cfg *config.Config, st store.Store) error {
	s := NewServer(cfg, st)
	httpServer := &http.Server{
		Addr:    cfg.Listen,
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+cfg.Listen)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/tenants/register", s.handleRegister)
	s.mux.HandleFunc("/tenants/", s.handleTenantDispatch)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// registerRequest is the JSON body for POST /tenants/register.
type registerRequest struct {
	ID        string `json:"id"`
	SourceURL string `json:"source_url"`
	Timezone  string `json:"timezone,omitempty"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ID == "" || req.SourceURL == "" {
		writeError(w, http.StatusBadRequest, "id and source_url are required")
		return
	}

	t := tenant.Tenant{ID: req.ID, SourceURL: req.SourceURL, Timezone: req.Timezone}
	if err := tenant.Register(r.Context(), s.store, t); err != nil {
		appLog.Error("tenant registration failed", err, "tenant", req.ID)
		writeError(w, http.StatusInternalServerError, "failed to register tenant")
		return
	}

	writeJSON(w, http.StatusCreated, t)
}

// handleTenantDispatch routes "/tenants/<id>" (GET: reconciled calendar,
// DELETE: teardown) per §6's external interface.
func (s *Server) handleTenantDispatch(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Path[len("/tenants/"):]
	if id == "" {
		writeError(w, http.StatusNotFound, "tenant id required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleTenantCalendar(w, r, id)
	case http.MethodDelete:
		s.handleTenantTeardown(w, r, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "GET or DELETE only")
	}
}

// handleTenantCalendar fetches the tenant's upstream feed, reconciles it,
// and serves the output with conditional-request support: an
// If-None-Match matching the current ETag yields 304 Not Modified with no
// body. The ETag is compared after reconciliation (or after a hit in the
// in-memory response cache), so a matching request still runs the fetch
// and reconcile pass when the cache has no fresh entry.
func (s *Server) handleTenantCalendar(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()
	reqID := requestIDFromContext(ctx)

	if cached, ok := s.cachedResponseFor(id); ok {
		s.respondCalendar(w, r, cached.body, cached.etag)
		return
	}

	t, err := tenant.Get(ctx, s.store, id)
	if err != nil {
		if errors.Is(err, tenant.ErrNotFound) {
			writeError(w, http.StatusNotFound, "unknown tenant")
			return
		}
		appLog.Error("tenant lookup failed", err, "tenant", id, "request_id", reqID)
		writeError(w, http.StatusInternalServerError, "tenant lookup failed")
		return
	}

	defaultTZ := t.Timezone
	if defaultTZ == "" {
		defaultTZ = s.cfg.DefaultTimezone
	}

	fetched, err := s.fetcher.Fetch(ctx, t.SourceURL)
	var unreachable bool
	switch {
	case err != nil:
		appLog.Error("upstream fetch failed, falling back to last-known-good", err, "tenant", id, "request_id", reqID)
		unreachable = true
	case fetched.StatusCode < 200 || fetched.StatusCode >= 300:
		appLog.Info("upstream returned non-2xx, falling back to last-known-good",
			"tenant", id, "status", fetched.StatusCode, "request_id", reqID)
		unreachable = true
	}

	var result reconcile.Result
	if unreachable {
		result, err = reconcile.Fallback(ctx, s.store, id)
		if err != nil {
			appLog.Error("upstream unreachable and no last-known-good snapshot", err, "tenant", id, "request_id", reqID)
			writeError(w, http.StatusBadGateway, "upstream unreachable")
			return
		}
	} else {
		result, err = reconcile.Reconcile(ctx, s.store, id, defaultTZ, fetched.Body)
		if err != nil {
			appLog.Error("reconciliation failed", err, "tenant", id, "request_id", reqID)
			writeError(w, http.StatusBadGateway, "reconciliation failed")
			return
		}
	}

	s.storeCachedResponse(id, result.Output, result.ETag)
	s.respondCalendar(w, r, result.Output, result.ETag)
}

func (s *Server) respondCalendar(w http.ResponseWriter, r *http.Request, body []byte, etag string) {
	quoted := `"` + etag + `"`
	w.Header().Set("ETag", quoted)
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")

	if inm := r.Header.Get("If-None-Match"); inm == quoted {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (s *Server) handleTenantTeardown(w http.ResponseWriter, r *http.Request, id string) {
	if err := tenant.Teardown(r.Context(), s.store, id); err != nil {
		appLog.Error("tenant teardown failed", err, "tenant", id)
		writeError(w, http.StatusInternalServerError, "teardown failed")
		return
	}
	s.evictCachedResponse(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) cachedResponseFor(id string) (*cachedResponse, bool) {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	c, ok := s.cache[id]
	if !ok || time.Since(c.updatedAt) >= responseCacheTTL {
		return nil, false
	}
	return c, true
}

func (s *Server) storeCachedResponse(id string, body []byte, etag string) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.cache[id] = &cachedResponse{body: body, etag: etag, updatedAt: time.Now()}
}

func (s *Server) evictCachedResponse(id string) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	delete(s.cache, id)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}

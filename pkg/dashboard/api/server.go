/*-
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package api serves the dashboard pages and JSON views over HTTP.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/mux"
	"github.com/mfreeman451/iotdash/pkg/apiclient"
	"github.com/mfreeman451/iotdash/pkg/config"
	"github.com/mfreeman451/iotdash/pkg/dashboard"
	httpx "github.com/mfreeman451/iotdash/pkg/http"
	"github.com/mfreeman451/iotdash/pkg/logger"
	"github.com/mfreeman451/iotdash/pkg/metrics"
	"github.com/mfreeman451/iotdash/pkg/models"
	"github.com/mfreeman451/iotdash/pkg/monitoring"
)

const (
	readHeaderTimeout = 5 * time.Second
	pingTimeout       = 5 * time.Second
)

type APIServer struct {
	router     *mux.Router
	handler    http.Handler
	httpSrv    *http.Server
	client     apiclient.Client
	renderer   *dashboard.Renderer
	sessions   *sessionStore
	sweeper    *monitoring.Monitor
	metrics    *metrics.Manager
	log        logger.Logger
	cookieName string
	renderWait time.Duration

	// base is the lifetime every session App is mounted on.
	base   context.Context
	cancel context.CancelFunc
}

// Option configures an APIServer.
type Option func(*APIServer)

func WithLogger(l logger.Logger) Option {
	return func(s *APIServer) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetricsManager exposes m on /api/stats and /metrics.
func WithMetricsManager(m *metrics.Manager) Option {
	return func(s *APIServer) {
		s.metrics = m
	}
}

func NewAPIServer(cfg *config.Config, client apiclient.Client, opts ...Option) (*APIServer, error) {
	renderer, err := dashboard.NewRenderer(cfg.RefreshInterval)
	if err != nil {
		return nil, err
	}

	base, cancel := context.WithCancel(context.Background())

	s := &APIServer{
		router:     mux.NewRouter().UseEncodedPath(),
		client:     client,
		renderer:   renderer,
		log:        logger.Nop(),
		cookieName: cfg.Session.CookieName,
		renderWait: cfg.Session.RenderWait,
		base:       base,
		cancel:     cancel,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.metrics == nil {
		s.metrics = metrics.NewManager(models.MetricsConfig{}, nil)
	}

	s.log = s.log.Named("api")
	s.sessions = newSessionStore(s.newApp, cfg.Session.IdleTimeout, s.log)
	s.sessions.onChange = s.metrics.Collectors().SetSessions
	s.sweeper = monitoring.NewMonitor(monitoring.MonitorConfig{
		Name:     "session-sweep",
		Interval: cfg.Session.SweepInterval,
	}, s.log)

	s.setupRoutes()

	// Preflights match no route, so CORS wraps the whole router.
	s.handler = httpx.CommonMiddleware(s.router)

	s.httpSrv = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	return s, nil
}

func (s *APIServer) setupRoutes() {
	s.router.Use(httpx.Instrument(s.metrics.Collectors(), s.log))

	s.router.HandleFunc("/", s.index).Methods("GET").Name("index")
	s.router.HandleFunc("/select/{id}", s.selectDevice).Methods("GET", "POST").Name("select")
	s.router.HandleFunc("/refresh", s.refresh).Methods("POST").Name("refresh")

	s.router.HandleFunc("/api/view", s.getView).Methods("GET").Name("view")
	s.router.HandleFunc("/api/stats", s.getStats).Methods("GET").Name("stats")
	s.router.Handle("/metrics", s.metrics.Collectors().Handler()).Methods("GET").Name("metrics")
	s.router.HandleFunc("/healthz", s.healthz).Methods("GET").Name("healthz")
}

func (s *APIServer) Handler() http.Handler {
	return s.handler
}

// Start serves HTTP until Stop is called. The upstream check and the
// session sweeper run in the background.
func (s *APIServer) Start(ctx context.Context) error {
	go s.checkUpstream(ctx)
	go s.sweeper.StartMonitoring(ctx, s.sessions.sweep)

	s.log.Info(ctx, "dashboard listening", logger.String("addr", s.httpSrv.Addr))

	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve: %w", err)
	}

	return nil
}

func (s *APIServer) Stop(ctx context.Context) error {
	s.sweeper.Stop(ctx)

	err := s.httpSrv.Shutdown(ctx)

	s.sessions.closeAll()
	s.cancel()

	if err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}

	return nil
}

func (s *APIServer) checkUpstream(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := s.client.Ping(ctx); err != nil {
		s.log.Warn(ctx, "device API is not reachable", logger.Error(err))
		return
	}

	s.log.Info(ctx, "device API is reachable")
}

func (s *APIServer) newApp() *dashboard.App {
	app := dashboard.NewApp(s.client, s.log)
	app.Mount(s.base)

	return app
}

// currentSession returns the caller's session, starting one when the
// cookie is missing or has expired.
func (s *APIServer) currentSession(w http.ResponseWriter, r *http.Request) *session {
	if sess, err := s.sessionFromCookie(r); err == nil {
		return sess
	}

	sess := s.sessions.create()

	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    sess.id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	s.log.Debug(r.Context(), "session started", logger.String("session", sess.id))

	return sess
}

func (s *APIServer) sessionFromCookie(r *http.Request) (*session, error) {
	c, err := r.Cookie(s.cookieName)
	if err != nil {
		return nil, errSessionNotFound
	}

	return s.sessions.lookup(c.Value)
}

// settle gives in-flight fetches up to renderWait to finish so a render
// rarely shows a transient loading state.
func (s *APIServer) settle(ctx context.Context, app *dashboard.App) {
	if s.renderWait <= 0 {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.renderWait)
	defer cancel()

	_ = app.Wait(ctx)
}

func (s *APIServer) index(w http.ResponseWriter, r *http.Request) {
	sess := s.currentSession(w, r)
	s.settle(r.Context(), sess.app)

	var buf bytes.Buffer

	if err := s.renderer.Render(&buf, sess.app.Snapshot()); err != nil {
		s.log.Error(r.Context(), "failed to render dashboard", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to render dashboard")

		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")

	if _, err := w.Write(buf.Bytes()); err != nil {
		s.log.Warn(r.Context(), "failed to write response", logger.Error(err))
	}
}

func (s *APIServer) selectDevice(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessionFromCookie(r)
	if err != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	id, err := url.PathUnescape(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, errInvalidDeviceID.Error())
		return
	}

	list := sess.app.DeviceList()
	if list == nil {
		writeError(w, http.StatusConflict, errListNotLoaded.Error())
		return
	}

	if err := list.Activate(id); err != nil {
		switch {
		case errors.Is(err, dashboard.ErrUnknownDevice):
			writeError(w, http.StatusNotFound, err.Error())
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}

		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *APIServer) refresh(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessionFromCookie(r)
	if err != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if err := sess.app.Refresh(r.Context()); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *APIServer) getView(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessionFromCookie(r)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	s.writeJSON(w, r, sess.app.Snapshot())
}

func (s *APIServer) getStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, s.metrics.Snapshot())
}

func (s *APIServer) healthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, map[string]interface{}{
		"status":   "ok",
		"sessions": s.sessions.count(),
	})
}

func (s *APIServer) writeJSON(w http.ResponseWriter, r *http.Request, v interface{}) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error(r.Context(), "error encoding response", logger.Error(err))
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

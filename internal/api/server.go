// Package api exposes the sky chart engine and the coordinate conversions
// over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"golang.org/x/time/rate"

	"github.com/unklstewy/skyscope/internal/engine"
	"github.com/unklstewy/skyscope/internal/logging"
	"github.com/unklstewy/skyscope/pkg/coordinates"
	"github.com/unklstewy/skyscope/pkg/optics"
	"github.com/unklstewy/skyscope/pkg/viewer"
)

const (
	// DefaultGestureRate is the pan/zoom/tap budget per second when none is configured.
	DefaultGestureRate = 60

	maxBodySize = 1 << 20
)

// Config configures a Server.
type Config struct {
	Observer coordinates.Observer
	Sidereal coordinates.SiderealModel

	// Optics and Eyepiece are reported by the optics endpoint
	Optics   optics.Telescope
	Eyepiece float64

	// AllowedOrigins for CORS. Empty allows any origin.
	AllowedOrigins []string

	// GestureRate limits pan, zoom and tap requests per second
	GestureRate float64

	// Bridge serves the viewer websocket. Nil disables the viewer routes.
	Bridge *viewer.Bridge

	// Page serves the viewer page at the root. Nil disables it.
	Page http.Handler

	Logger log.Logger

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Server routes HTTP requests to the engine.
type Server struct {
	router   chi.Router
	engine   *engine.Engine
	cfg      Config
	gestures *rate.Limiter
	logger   log.Logger
}

// New creates a Server for eng.
func New(eng *engine.Engine, cfg Config) *Server {
	if cfg.GestureRate <= 0 {
		cfg.GestureRate = DefaultGestureRate
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	s := &Server{
		router:   chi.NewRouter(),
		engine:   eng,
		cfg:      cfg,
		gestures: rate.NewLimiter(rate.Limit(cfg.GestureRate), int(cfg.GestureRate/4)+1),
		logger:   log.With(logging.OrNop(cfg.Logger), "component", "api"),
	}
	s.setupRoutes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	r := s.router

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)

	if s.cfg.Bridge != nil {
		r.Handle(viewer.DefaultSocketPath, s.cfg.Bridge)
	}
	if s.cfg.Page != nil {
		r.Handle("/", s.cfg.Page)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Compress(5))

		// Coordinate endpoints
		r.Get("/sidereal", s.handleSidereal)
		r.Post("/convert/horizontal", s.handleToHorizontal)
		r.Post("/convert/equatorial", s.handleToEquatorial)
		r.Post("/convert/parse", s.handleParse)

		// Chart endpoints
		r.Get("/view", s.handleView)
		r.Post("/view/goto", s.handleGoto)
		r.Post("/view/fov", s.handleFieldOfView)
		r.Post("/view/size", s.handleViewSize)
		r.Post("/view/culling", s.handleCulling)
		r.Get("/view/frame", s.handleFrame)
		r.Post("/view/sync", s.handleSync)
		r.Get("/view/survey", s.handleGetSurvey)
		r.Post("/view/survey", s.handleSetSurvey)

		// Gestures arrive at touch rate
		r.Group(func(r chi.Router) {
			r.Use(s.limitGestures)
			r.Post("/view/pan", s.handlePan)
			r.Post("/view/zoom", s.handleZoom)
			r.Post("/view/tap", s.handleTap)
		})

		// Device endpoints
		r.Get("/attitude", s.handleAttitude)
		r.Get("/optics", s.handleOptics)

		// Telescope endpoints
		r.Post("/mount/slew", s.handleSlew)
		r.Post("/mount/abort", s.handleAbort)
		r.Post("/mount/follow", s.handleFollow)
	})
}

// limitGestures rejects gesture requests beyond the configured rate.
func (s *Server) limitGestures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.gestures.Allow() {
			respondError(w, http.StatusTooManyRequests, errors.New("too many gesture requests"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleHealth reports whether the engine and viewer are reachable
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), time.Second)
	defer cancel()

	status := http.StatusOK
	engineStatus := "ok"
	if _, err := s.engine.View(ctx); err != nil {
		status = http.StatusServiceUnavailable
		engineStatus = err.Error()
	}

	respondJSON(w, status, map[string]interface{}{
		"engine":           engineStatus,
		"viewer_connected": s.cfg.Bridge != nil && s.cfg.Bridge.Connected(),
		"time":             s.cfg.Now().UTC(),
	})
}

// fail maps an error to a status code and logs server-side failures.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		level.Warn(s.logger).Log("msg", "request failed", "path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()), "err", err)
	}
	respondError(w, status, err)
}

func statusOf(err error) int {
	var parseErr *coordinates.ParseError
	var remoteErr *viewer.RemoteError
	switch {
	case errors.As(err, &parseErr),
		errors.Is(err, engine.ErrInvalidCoordinates):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrTooCloseToSun),
		errors.Is(err, engine.ErrBelowLimit):
		return http.StatusUnprocessableEntity
	case errors.Is(err, engine.ErrNoViewer),
		errors.Is(err, engine.ErrNoMount),
		errors.Is(err, engine.ErrStopped),
		errors.Is(err, viewer.ErrDisconnected):
		return http.StatusServiceUnavailable
	case errors.Is(err, viewer.ErrTimeout),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &remoteErr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// decode reads a JSON request body into v.
func decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, err error) {
	respondJSON(w, status, map[string]string{"error": err.Error()})
}

// Package engine owns the sky chart projection and coordinates it with the
// catalog, the external viewer and the telescope mount.
//
// The projection is confined to the goroutine running Run. Every read or
// mutation is sent to it as a closure through Do; slow collaborators
// (viewer round trips, catalog queries) run on the caller's goroutine and
// only their results cross over.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"github.com/unklstewy/skyscope/internal/logging"
	"github.com/unklstewy/skyscope/pkg/attitude"
	"github.com/unklstewy/skyscope/pkg/catalog"
	"github.com/unklstewy/skyscope/pkg/config"
	"github.com/unklstewy/skyscope/pkg/coordinates"
	"github.com/unklstewy/skyscope/pkg/optics"
	"github.com/unklstewy/skyscope/pkg/projection"
	"github.com/unklstewy/skyscope/pkg/tracking"
	"github.com/unklstewy/skyscope/pkg/viewer"
)

var (
	// ErrStopped is returned once Run has exited.
	ErrStopped = errors.New("engine stopped")

	// ErrAlreadyRunning is returned by a second call to Run.
	ErrAlreadyRunning = errors.New("engine already running")

	// ErrNoViewer is returned by viewer operations when no viewer is attached.
	ErrNoViewer = errors.New("no external viewer configured")

	// ErrInvalidCoordinates is returned for targets outside RA/Dec range.
	ErrInvalidCoordinates = errors.New("invalid equatorial coordinates")
)

// Config configures an Engine.
type Config struct {
	Projection projection.Options

	// Observer and Sidereal drive every equatorial/horizontal conversion
	Observer coordinates.Observer
	Sidereal coordinates.SiderealModel

	// Optics and Eyepiece define the telescope field drawn on the chart.
	// A zero Eyepiece hides it.
	Optics   optics.Telescope
	Eyepiece float64

	// MaxMagnitude is the faintest star drawn. Zero draws all.
	MaxMagnitude float64

	ShowLines  bool
	ShowLabels bool
	ShowGrid   bool

	// SunAvoidance refuses mount slews closer than this many degrees to
	// the sun. Zero disables the check.
	SunAvoidance float64

	// Limits bounds mount slews by altitude and hour angle. Nil disables it.
	Limits *tracking.Limits

	// PointingMode selects the device axis used by Point.
	PointingMode attitude.PointingMode

	// ViewerTimeout bounds each exchange with the external viewer
	ViewerTimeout time.Duration

	// SyncInterval matches the chart to the viewer periodically while
	// Run is active. Zero disables it.
	SyncInterval time.Duration

	Logger log.Logger

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// FromConfig derives engine settings from the application configuration.
func FromConfig(cfg *config.Config) (Config, error) {
	mode, err := attitude.ParsePointingMode(cfg.Projection.PointingMode)
	if err != nil {
		return Config{}, err
	}
	opts := cfg.Projection.Options()
	var limits *tracking.Limits
	if cfg.Telescope.HasLimits() {
		limits = &tracking.Limits{
			MinAltitude:       cfg.Telescope.MinAltitude,
			MaxAltitude:       cfg.Telescope.MaxAltitude,
			MeridianFlipHours: cfg.Telescope.MeridianFlipHours,
		}
	}
	return Config{
		Projection:    opts,
		Observer:      cfg.Observer.ObserverPosition(),
		Sidereal:      coordinates.SiderealModel(cfg.Observer.SiderealModel),
		Optics:        cfg.Telescope.Optics,
		Eyepiece:      cfg.Telescope.Eyepiece,
		MaxMagnitude:  cfg.Catalog.MaxMagnitude,
		ShowLines:     cfg.Catalog.ShowLines,
		ShowLabels:    cfg.Catalog.ShowLabels,
		ShowGrid:      cfg.Catalog.ShowGrid,
		SunAvoidance:  cfg.Telescope.SunAvoidanceDegrees,
		Limits:        limits,
		PointingMode:  mode,
		ViewerTimeout: cfg.Viewer.Timeout(),
		SyncInterval:  cfg.Viewer.SyncInterval(),
	}, nil
}

// Mount is the subset of a telescope mount the engine drives.
type Mount interface {
	SlewToCoordinates(ctx context.Context, eq coordinates.EquatorialCoordinates) error
	AbortSlew(ctx context.Context) error
	Position(ctx context.Context) (coordinates.EquatorialCoordinates, error)
}

type command struct {
	fn   func(*projection.Projection)
	done chan struct{}
}

// Engine is the sky chart state machine and its collaborators.
type Engine struct {
	cfg      Config
	catalog  catalog.Catalog
	session  *viewer.Session
	mount    Mount
	resolver attitude.Resolver
	logger   log.Logger

	// proj belongs to the Run goroutine
	proj *projection.Projection

	commands chan command
	stopped  chan struct{}
	running  atomic.Bool
	syncing  atomic.Bool
}

// New creates an engine. The catalog is required; session and mount may be
// nil when no viewer or telescope is attached.
func New(cat catalog.Catalog, session *viewer.Session, mount Mount, cfg Config) (*Engine, error) {
	if cat == nil {
		return nil, errors.New("catalog is required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.ViewerTimeout <= 0 {
		cfg.ViewerTimeout = viewer.DefaultTimeout
	}
	logger := log.With(logging.OrNop(cfg.Logger), "component", "engine")

	return &Engine{
		cfg:      cfg,
		catalog:  cat,
		session:  session,
		mount:    mount,
		resolver: attitude.NewResolver(cfg.PointingMode),
		logger:   logger,
		proj:     projection.New(cfg.Projection),
		commands: make(chan command),
		stopped:  make(chan struct{}),
	}, nil
}

// Run owns the projection until ctx is canceled. It may be called once.
func (e *Engine) Run(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(e.stopped)

	var tick <-chan time.Time
	if e.cfg.SyncInterval > 0 && e.session != nil {
		ticker := time.NewTicker(e.cfg.SyncInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	level.Info(e.logger).Log("msg", "engine started", "sync_interval", e.cfg.SyncInterval)
	for {
		select {
		case <-ctx.Done():
			level.Info(e.logger).Log("msg", "engine stopped")
			return ctx.Err()
		case cmd := <-e.commands:
			cmd.fn(e.proj)
			close(cmd.done)
		case <-tick:
			// Syncs wait on the viewer, so they must not hold up the loop
			if e.syncing.CompareAndSwap(false, true) {
				go func() {
					defer e.syncing.Store(false)
					if _, err := e.Sync(ctx); err != nil && ctx.Err() == nil {
						level.Debug(e.logger).Log("msg", "periodic sync skipped", "err", err)
					}
				}()
			}
		}
	}
}

// Do runs fn on the goroutine that owns the projection and waits for it to
// finish. fn must not retain p or call back into the engine.
func (e *Engine) Do(ctx context.Context, fn func(p *projection.Projection)) error {
	cmd := command{fn: fn, done: make(chan struct{})}
	select {
	case e.commands <- cmd:
	case <-e.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	// Accepted commands always complete
	<-cmd.done
	return nil
}

// ViewState describes the chart orientation.
type ViewState struct {
	Orientation projection.ViewOrientation        `json:"orientation"`
	Center      coordinates.EquatorialCoordinates `json:"center"`
	FieldOfView float64                           `json:"field_of_view"`
	Width       float64                           `json:"width"`
	Height      float64                           `json:"height"`
	Culling     bool                              `json:"culling"`
	Calibration projection.Calibration            `json:"calibration"`
}

func stateOf(p *projection.Projection) ViewState {
	w, h := p.ViewSize()
	return ViewState{
		Orientation: p.Orientation(),
		Center:      p.Center(),
		FieldOfView: p.FieldOfView(),
		Width:       w,
		Height:      h,
		Culling:     p.Culling(),
		Calibration: p.Calibration(),
	}
}

// update applies fn and returns the resulting state.
func (e *Engine) update(ctx context.Context, fn func(p *projection.Projection)) (ViewState, error) {
	var state ViewState
	err := e.Do(ctx, func(p *projection.Projection) {
		if fn != nil {
			fn(p)
		}
		state = stateOf(p)
	})
	return state, err
}

// View returns the current chart state.
func (e *Engine) View(ctx context.Context) (ViewState, error) {
	return e.update(ctx, nil)
}

// Goto centers the chart on eq. When a viewer is attached it is moved too;
// a viewer failure is logged and does not undo the chart change.
func (e *Engine) Goto(ctx context.Context, eq coordinates.EquatorialCoordinates) (ViewState, error) {
	if !eq.Valid() {
		return ViewState{}, fmt.Errorf("%w: RA %v Dec %v", ErrInvalidCoordinates, eq.RightAscension, eq.Declination)
	}
	state, err := e.update(ctx, func(p *projection.Projection) { p.GotoEquatorial(eq) })
	if err != nil {
		return ViewState{}, err
	}
	e.tellViewer(ctx, "goto", func(ctx context.Context, v viewer.Viewer) error {
		return v.GotoEquatorial(ctx, state.Center)
	})
	return state, nil
}

// Pan drags the chart by a pixel delta.
func (e *Engine) Pan(ctx context.Context, dx, dy float64) (ViewState, error) {
	return e.update(ctx, func(p *projection.Projection) { p.Pan(dx, dy) })
}

// BeginZoom starts a pinch gesture at the current scale.
func (e *Engine) BeginZoom(ctx context.Context) (ViewState, error) {
	return e.update(ctx, func(p *projection.Projection) { p.BeginZoom() })
}

// Zoom scales the chart relative to the last BeginZoom.
func (e *Engine) Zoom(ctx context.Context, factor float64) (ViewState, error) {
	return e.update(ctx, func(p *projection.Projection) { p.Zoom(factor) })
}

// SetViewSize records the drawing surface size.
func (e *Engine) SetViewSize(ctx context.Context, width, height float64) (ViewState, error) {
	return e.update(ctx, func(p *projection.Projection) { p.SetViewSize(width, height) })
}

// SetCulling shows or hides the far hemisphere.
func (e *Engine) SetCulling(ctx context.Context, enabled bool) (ViewState, error) {
	return e.update(ctx, func(p *projection.Projection) { p.SetCulling(enabled) })
}

// Tap returns the sky position under a point in drawing surface
// coordinates. The second result is false outside the visible disk.
func (e *Engine) Tap(ctx context.Context, at projection.Point) (coordinates.EquatorialCoordinates, bool, error) {
	var (
		eq coordinates.EquatorialCoordinates
		ok bool
	)
	err := e.Do(ctx, func(p *projection.Projection) {
		eq, ok = p.ScreenToEquatorial(at, p.ViewCenter())
	})
	return eq, ok, err
}

// SetFieldOfView zooms the chart so its larger dimension spans fov degrees
// and asks the viewer to do the same.
func (e *Engine) SetFieldOfView(ctx context.Context, fov float64) (ViewState, error) {
	if fov <= 0 || fov > 180 || math.IsNaN(fov) {
		return ViewState{}, fmt.Errorf("field of view must be in (0, 180], got %v", fov)
	}
	state, err := e.update(ctx, func(p *projection.Projection) { p.SetFieldOfView(fov) })
	if err != nil {
		return ViewState{}, err
	}
	e.tellViewer(ctx, "fov", func(ctx context.Context, v viewer.Viewer) error {
		return v.SetFieldOfView(ctx, fov)
	})
	return state, nil
}

// tellViewer sends a best-effort command to the viewer.
func (e *Engine) tellViewer(ctx context.Context, what string, fn func(context.Context, viewer.Viewer) error) {
	if e.session == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, e.cfg.ViewerTimeout)
	defer cancel()
	err := fn(ctx, e.session.Viewer())
	switch {
	case err == nil:
	case errors.Is(err, viewer.ErrDisconnected):
		level.Debug(e.logger).Log("msg", "no viewer page attached", "op", what)
	default:
		level.Warn(e.logger).Log("msg", "viewer did not follow chart", "op", what, "err", err)
	}
}

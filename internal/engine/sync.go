package engine

import (
	"context"
	"fmt"

	"github.com/go-kit/kit/log/level"

	"github.com/unklstewy/skyscope/pkg/coordinates"
	"github.com/unklstewy/skyscope/pkg/projection"
	"github.com/unklstewy/skyscope/pkg/viewer"
)

// SyncResult reports a match against the external viewer.
type SyncResult struct {
	Snapshot viewer.Snapshot `json:"snapshot"`
	View     ViewState       `json:"view"`

	// Matched is false when the viewer's corner was not on the visible
	// hemisphere; the chart is then left as it was
	Matched bool `json:"matched"`
}

// Sync centers the chart on the viewer and matches its scale so both show
// the same patch of sky.
//
// The viewer is queried off the owner goroutine. If any query fails or
// times out the chart is not touched.
func (e *Engine) Sync(ctx context.Context) (SyncResult, error) {
	if e.session == nil {
		return SyncResult{}, ErrNoViewer
	}

	fetchCtx, cancel := context.WithTimeout(ctx, e.cfg.ViewerTimeout)
	snap, err := viewer.FetchSnapshot(fetchCtx, e.session.Viewer())
	cancel()
	if err != nil {
		return SyncResult{}, fmt.Errorf("failed to sync with viewer: %w", err)
	}

	res := SyncResult{Snapshot: snap}
	err = e.Do(ctx, func(p *projection.Projection) {
		previous := p.Center()
		p.GotoEquatorial(snap.Center)
		_, res.Matched = p.MatchExternalViewport(snap.Center, snap.Viewport)
		if !res.Matched {
			p.GotoEquatorial(previous)
		}
		res.View = stateOf(p)
	})
	if err != nil {
		return SyncResult{}, err
	}

	level.Debug(e.logger).Log("msg", "synced with viewer",
		"ra", snap.Center.RightAscension, "dec", snap.Center.Declination,
		"scale", res.View.Orientation.Scale, "matched", res.Matched)
	return res, nil
}

// Survey returns the image survey shown by the viewer.
func (e *Engine) Survey() (string, error) {
	if e.session == nil {
		return "", ErrNoViewer
	}
	return e.session.Survey(), nil
}

// SetSurvey switches the viewer's image survey. The recorded survey only
// changes once the viewer confirms.
func (e *Engine) SetSurvey(ctx context.Context, id string) error {
	if e.session == nil {
		return ErrNoViewer
	}
	ctx, cancel := context.WithTimeout(ctx, e.cfg.ViewerTimeout)
	defer cancel()
	if err := e.session.SetSurvey(ctx, id); err != nil {
		return err
	}
	level.Info(e.logger).Log("msg", "survey changed", "survey", id)
	return nil
}

// ViewerConnected is called when a viewer page attaches. It pushes the
// recorded survey and the chart center so the page matches the chart.
func (e *Engine) ViewerConnected(ctx context.Context) {
	if e.session == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, e.cfg.ViewerTimeout)
	defer cancel()
	if err := e.session.SyncSurvey(ctx); err != nil {
		level.Warn(e.logger).Log("msg", "failed to restore survey", "err", err)
	}

	var center coordinates.EquatorialCoordinates
	if err := e.Do(ctx, func(p *projection.Projection) { center = p.Center() }); err != nil {
		return
	}
	e.tellViewer(ctx, "goto", func(ctx context.Context, v viewer.Viewer) error {
		return v.GotoEquatorial(ctx, center)
	})
}

package engine

import (
	"context"
	"fmt"

	"github.com/unklstewy/skyscope/pkg/catalog"
	"github.com/unklstewy/skyscope/pkg/coordinates"
	"github.com/unklstewy/skyscope/pkg/projection"
)

const (
	// gridStep is the spacing of the RA/Dec grid in degrees
	gridStep = 30.0

	// starMargin keeps stars whose marker pokes into the view
	starMargin = 10.0
)

// StarMark is a star placed on the chart.
type StarMark struct {
	HR        int              `json:"hr"`
	Position  projection.Point `json:"position"`
	Size      float64          `json:"size"`
	Magnitude float64          `json:"magnitude"`
	Label     string           `json:"label,omitempty"`
}

// TextMark is a label placed on the chart.
type TextMark struct {
	Position projection.Point `json:"position"`
	Text     string           `json:"text"`
}

// SunMark places the sun and the safety zone of the view center.
type SunMark struct {
	Position   projection.Point                  `json:"position"`
	Equatorial coordinates.EquatorialCoordinates `json:"equatorial"`
	Separation float64                           `json:"separation"`
	Zone       string                            `json:"zone"`
}

// Frame is everything needed to draw the chart once. All positions are in
// drawing surface pixels with the origin at the top-left corner.
type Frame struct {
	View      ViewState            `json:"view"`
	Stars     []StarMark           `json:"stars"`
	Lines     [][]projection.Point `json:"lines"`
	Labels    []TextMark           `json:"labels"`
	Grid      [][]projection.Point `json:"grid"`
	Eyepiece  [][]projection.Point `json:"eyepiece,omitempty"`
	Sun       *SunMark             `json:"sun,omitempty"`
	Crosshair projection.Point     `json:"crosshair"`
}

// sceneData is the catalog content for one frame.
type sceneData struct {
	stars  []catalog.Star
	lines  []catalog.ConstellationLine
	labels []catalog.Label
	sun    coordinates.EquatorialCoordinates
}

// Frame projects the catalog through the current view.
//
// Catalog queries run on the caller's goroutine; only the projection step
// runs on the owner.
func (e *Engine) Frame(ctx context.Context) (Frame, error) {
	scene, err := e.scene(ctx)
	if err != nil {
		return Frame{}, err
	}

	var f Frame
	err = e.Do(ctx, func(p *projection.Projection) {
		f = e.render(p, scene)
	})
	return f, err
}

func (e *Engine) scene(ctx context.Context) (sceneData, error) {
	var (
		s   sceneData
		err error
	)
	s.stars, err = e.catalog.StarsWhere(ctx, catalog.Filter{MaxMagnitude: e.cfg.MaxMagnitude})
	if err != nil {
		return sceneData{}, fmt.Errorf("failed to load stars: %w", err)
	}
	if e.cfg.ShowLines {
		if s.lines, err = e.catalog.ConstellationLines(ctx); err != nil {
			return sceneData{}, fmt.Errorf("failed to load constellation lines: %w", err)
		}
	}
	if e.cfg.ShowLabels {
		if s.labels, err = e.catalog.ConstellationNames(ctx); err != nil {
			return sceneData{}, fmt.Errorf("failed to load constellation names: %w", err)
		}
	}
	s.sun = coordinates.SunEquatorial(e.cfg.Now())
	return s, nil
}

func (e *Engine) render(p *projection.Projection, s sceneData) Frame {
	origin := p.ViewCenter()
	width, height := p.ViewSize()
	scale := p.Scale()

	f := Frame{
		View:      stateOf(p),
		Crosshair: origin,
	}

	inView := func(pt projection.Point) bool {
		return pt.X >= -starMargin && pt.X <= width+starMargin &&
			pt.Y >= -starMargin && pt.Y <= height+starMargin
	}
	shift := func(segments [][]projection.Point) [][]projection.Point {
		for _, seg := range segments {
			for i := range seg {
				seg[i] = seg[i].Add(origin)
			}
		}
		return segments
	}

	for _, star := range s.stars {
		pt, ok := p.MapToView(star.UnitVector())
		if !ok || !inView(pt) {
			continue
		}
		mark := StarMark{
			HR:        star.HR,
			Position:  pt,
			Size:      projection.MagnitudeSize(star.Magnitude, scale),
			Magnitude: star.Magnitude,
		}
		if e.cfg.ShowLabels {
			mark.Label = star.Label()
		}
		f.Stars = append(f.Stars, mark)
	}

	for _, line := range s.lines {
		a, b, ok := p.ProjectSegment(line.First, line.Second)
		if !ok {
			continue
		}
		f.Lines = append(f.Lines, []projection.Point{a.Add(origin), b.Add(origin)})
	}

	for _, label := range s.labels {
		pt, ok := p.MapToView(label.Position)
		if !ok {
			continue
		}
		f.Labels = append(f.Labels, TextMark{Position: pt, Text: label.Name})
	}

	if e.cfg.ShowGrid {
		for dec := -90 + gridStep; dec < 90; dec += gridStep {
			f.Grid = append(f.Grid, shift(p.StrokeSegments(projection.CircleOfDeclination(dec, 0)))...)
		}
		for ra := 0.0; ra < 360; ra += gridStep {
			f.Grid = append(f.Grid, shift(p.StrokeSegments(projection.ArcOfRightAscension(ra, 0)))...)
		}
	}

	if e.cfg.Eyepiece > 0 && e.cfg.Optics.FocalLength > 0 {
		radius := e.cfg.Optics.TrueFOV(e.cfg.Eyepiece) / 2
		circle := projection.FieldOfViewCircle(p.Center(), radius, 0)
		f.Eyepiece = shift(p.StrokeSegments(circle))
	}

	if pt, ok := p.MapEquatorial(s.sun); ok {
		sep := coordinates.AngularSeparation(s.sun, p.Center())
		f.Sun = &SunMark{
			Position:   pt.Add(origin),
			Equatorial: s.sun,
			Separation: sep,
			Zone:       coordinates.GetSafetyZone(sep).String(),
		}
	}

	return f
}

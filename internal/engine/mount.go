package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/go-kit/kit/log/level"

	"github.com/unklstewy/skyscope/pkg/attitude"
	"github.com/unklstewy/skyscope/pkg/coordinates"
	"github.com/unklstewy/skyscope/pkg/projection"
	"github.com/unklstewy/skyscope/pkg/tracking"
)

var (
	// ErrNoMount is returned by mount operations when no telescope is attached.
	ErrNoMount = errors.New("no telescope mount configured")

	// ErrTooCloseToSun is returned when a slew target is inside the sun
	// avoidance radius.
	ErrTooCloseToSun = errors.New("target too close to the sun")

	// ErrBelowLimit is returned when a slew target is under the mount's
	// minimum altitude.
	ErrBelowLimit = errors.New("target below the altitude limit")
)

// SlewResult describes a slew that was started.
type SlewResult struct {
	Target        coordinates.EquatorialCoordinates `json:"target"`
	Horizontal    coordinates.HorizontalCoordinates `json:"horizontal"`
	SunSeparation float64                           `json:"sun_separation"`
	SafetyZone    string                            `json:"safety_zone"`

	// Event and Advice report mount limits the target runs into.
	// Empty when no limits are configured.
	Event     string  `json:"event,omitempty"`
	Advice    string  `json:"advice,omitempty"`
	HourAngle float64 `json:"hour_angle,omitempty"`
}

// SlewMount points the telescope at target, or at the chart center when
// target is nil. Targets inside the sun avoidance radius are refused.
func (e *Engine) SlewMount(ctx context.Context, target *coordinates.EquatorialCoordinates) (SlewResult, error) {
	if e.mount == nil {
		return SlewResult{}, ErrNoMount
	}

	var eq coordinates.EquatorialCoordinates
	if target != nil {
		eq = *target
	} else if err := e.Do(ctx, func(p *projection.Projection) { eq = p.Center() }); err != nil {
		return SlewResult{}, err
	}
	if !eq.Valid() {
		return SlewResult{}, fmt.Errorf("%w: RA %v Dec %v", ErrInvalidCoordinates, eq.RightAscension, eq.Declination)
	}
	eq.RightAscension = coordinates.NormalizeRA(eq.RightAscension)

	now := e.cfg.Now()
	lst := e.cfg.Sidereal.Local(now, e.cfg.Observer.Location.Longitude)
	sep := coordinates.AngularSeparation(coordinates.SunEquatorial(now), eq)
	res := SlewResult{
		Target:        eq,
		Horizontal:    coordinates.EquatorialToHorizontalAt(eq, e.cfg.Observer.Location.Latitude, lst),
		SunSeparation: sep,
		SafetyZone:    coordinates.GetSafetyZone(sep).String(),
	}
	if e.cfg.SunAvoidance > 0 && sep < e.cfg.SunAvoidance {
		level.Warn(e.logger).Log("msg", "slew refused", "reason", "sun", "separation", sep)
		return res, fmt.Errorf("%w: %.1f degrees away, limit %.1f", ErrTooCloseToSun, sep, e.cfg.SunAvoidance)
	}

	if e.cfg.Limits != nil {
		a := tracking.Check(eq, res.Horizontal, lst, *e.cfg.Limits)
		res.Event, res.Advice, res.HourAngle = a.Event.String(), a.Advice, a.HourAngle
		switch a.Event {
		case tracking.BelowLimit:
			level.Warn(e.logger).Log("msg", "slew refused", "reason", "altitude", "altitude", res.Horizontal.Altitude)
			return res, fmt.Errorf("%w: altitude %.1f, limit %.1f", ErrBelowLimit, res.Horizontal.Altitude, e.cfg.Limits.MinAltitude)
		case tracking.NoEvent:
		default:
			level.Warn(e.logger).Log("msg", "slew near mount limit", "event", a.Event, "advice", a.Advice)
		}
	}

	if err := e.mount.SlewToCoordinates(ctx, eq); err != nil {
		return res, err
	}
	return res, nil
}

// AbortSlew stops the telescope.
func (e *Engine) AbortSlew(ctx context.Context) error {
	if e.mount == nil {
		return ErrNoMount
	}
	return e.mount.AbortSlew(ctx)
}

// FollowMount centers the chart on wherever the telescope points.
func (e *Engine) FollowMount(ctx context.Context) (ViewState, error) {
	if e.mount == nil {
		return ViewState{}, ErrNoMount
	}
	eq, err := e.mount.Position(ctx)
	if err != nil {
		return ViewState{}, fmt.Errorf("failed to read mount position: %w", err)
	}
	return e.update(ctx, func(p *projection.Projection) { p.GotoEquatorial(eq) })
}

// Pointing is where a handheld device is aimed.
type Pointing struct {
	Horizontal   coordinates.HorizontalCoordinates `json:"horizontal"`
	Equatorial   coordinates.EquatorialCoordinates `json:"equatorial"`
	FacingGround bool                              `json:"facing_ground"`
}

// Point converts a device attitude and compass heading to sky coordinates
// for the configured observer. When center is true the chart follows.
func (e *Engine) Point(ctx context.Context, q mgl64.Quat, heading float64, center bool) (Pointing, error) {
	hz := e.resolver.Resolve(q, heading)
	now := e.cfg.Now()
	lst := e.cfg.Sidereal.Local(now, e.cfg.Observer.Location.Longitude)
	pt := Pointing{
		Horizontal:   hz,
		Equatorial:   coordinates.HorizontalToEquatorialAt(hz, e.cfg.Observer.Location.Latitude, lst),
		FacingGround: attitude.FacingGround(q),
	}
	if center {
		if _, err := e.update(ctx, func(p *projection.Projection) { p.GotoEquatorial(pt.Equatorial) }); err != nil {
			return Pointing{}, err
		}
	}
	return pt, nil
}

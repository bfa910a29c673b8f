// Package catalog provides read-only access to stars, constellation figures
// and constellation labels for the sky chart.
package catalog

import (
	"context"
	"math"
	"strings"

	"github.com/unklstewy/skyscope/pkg/coordinates"
)

// Star is one entry of a bright star catalog.
type Star struct {
	// HR is the Harvard Revised (Yale Bright Star) catalog number
	HR int `json:"hr"`

	// RA and Dec are J2000 positions in degrees
	RA  float64 `json:"ra"`
	Dec float64 `json:"dec"`

	// Magnitude is the visual magnitude. Smaller is brighter.
	Magnitude float64 `json:"magnitude"`

	// SpectralType is the MK classification, e.g. "B8Ia"
	SpectralType string `json:"spectral_type,omitempty"`

	// CommonName is the proper name, e.g. "Rigel". Often empty.
	CommonName string `json:"common_name,omitempty"`

	// Bayer is the abbreviated Greek letter, e.g. "Alp" or "Zet1"
	Bayer string `json:"bayer,omitempty"`

	// Flamsteed is the Flamsteed number as a string, e.g. "58"
	Flamsteed string `json:"flamsteed,omitempty"`

	// Constellation is the three-letter IAU abbreviation, e.g. "Ori"
	Constellation string `json:"constellation"`
}

// Equatorial returns the star position.
func (s Star) Equatorial() coordinates.EquatorialCoordinates {
	return coordinates.EquatorialCoordinates{RightAscension: s.RA, Declination: s.Dec}
}

// UnitVector returns the star position on the unit sphere.
func (s Star) UnitVector() coordinates.UnitVector {
	return coordinates.EquatorialToUnitVector(s.Equatorial())
}

// Label returns the text drawn next to the star: the common name when there
// is one, otherwise the Greek letter and constellation.
func (s Star) Label() string {
	if s.CommonName != "" {
		return s.CommonName
	}
	if letter, ok := ExpandBayer(s.Bayer); ok {
		return letter + " " + s.Constellation
	}
	if s.Flamsteed != "" {
		return s.Flamsteed + " " + s.Constellation
	}
	return ""
}

// ConstellationLine is one segment of a constellation figure.
type ConstellationLine struct {
	Constellation string                 `json:"constellation"`
	First         coordinates.UnitVector `json:"first"`
	Second        coordinates.UnitVector `json:"second"`
}

// Label is a named point, used for constellation names.
type Label struct {
	Name     string                 `json:"name"`
	Position coordinates.UnitVector `json:"position"`
}

// Cone limits a query to a circle on the sky.
type Cone struct {
	Center coordinates.EquatorialCoordinates `json:"center"`

	// Radius in degrees
	Radius float64 `json:"radius"`
}

// Contains reports whether eq lies inside the cone.
func (c Cone) Contains(eq coordinates.EquatorialCoordinates) bool {
	return coordinates.AngularSeparation(c.Center, eq) <= c.Radius
}

// Filter selects stars. The zero value matches every star.
type Filter struct {
	// MaxMagnitude keeps stars at least this bright. Zero disables the limit.
	MaxMagnitude float64 `json:"max_magnitude,omitempty"`

	// Constellation keeps stars of one constellation, compared case-insensitively
	Constellation string `json:"constellation,omitempty"`

	// Named keeps only stars with a common name
	Named bool `json:"named,omitempty"`

	// Near keeps stars inside a cone
	Near *Cone `json:"near,omitempty"`

	// Limit caps the number of results, brightest first. Zero means no cap.
	Limit int `json:"limit,omitempty"`
}

// Matches reports whether s passes every condition of f except Limit.
func (f Filter) Matches(s Star) bool {
	if f.MaxMagnitude != 0 && s.Magnitude > f.MaxMagnitude {
		return false
	}
	if f.Constellation != "" && !strings.EqualFold(f.Constellation, s.Constellation) {
		return false
	}
	if f.Named && s.CommonName == "" {
		return false
	}
	if f.Near != nil && !f.Near.Contains(s.Equatorial()) {
		return false
	}
	return true
}

// Catalog is the read-only star and constellation lookup used by the
// sky chart. Implementations must be safe for concurrent use.
type Catalog interface {
	// StarsWhere returns the stars matching filter, brightest first.
	StarsWhere(ctx context.Context, filter Filter) ([]Star, error)

	// ConstellationLines returns every constellation figure segment.
	ConstellationLines(ctx context.Context) ([]ConstellationLine, error)

	// ConstellationNames returns a label position for each constellation.
	ConstellationNames(ctx context.Context) ([]Label, error)
}

// Centroid returns the normalized mean of a set of unit vectors. Constellation
// labels are placed there.
func Centroid(points []coordinates.UnitVector) coordinates.UnitVector {
	var sum coordinates.UnitVector
	for _, p := range points {
		sum = sum.Add(p)
	}
	length := sum.Length()
	if length == 0 || math.IsNaN(length) {
		return coordinates.UnitVector{X: 1}
	}
	return coordinates.UnitVector{X: sum.X / length, Y: sum.Y / length, Z: sum.Z / length}
}

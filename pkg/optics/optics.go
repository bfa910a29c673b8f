// Package optics computes magnification and true field of view for a
// telescope and eyepiece set.
package optics

import (
	"errors"
	"fmt"
	"math"
)

const (
	// DefaultFocalLength is the focal length of an 8" Schmidt-Cassegrain in mm.
	DefaultFocalLength = 2032.0

	// DefaultApparentFOV is the apparent field of a Plossl eyepiece in degrees.
	DefaultApparentFOV = 52.0
)

// DefaultEyepieces is a standard Plossl eyepiece kit, focal lengths in mm.
var DefaultEyepieces = []float64{32, 17, 13, 8, 6}

// ErrUnknownEyepiece is returned when selecting an eyepiece that is not in the kit.
var ErrUnknownEyepiece = errors.New("eyepiece not in kit")

// Telescope describes an optical tube and its eyepiece kit.
type Telescope struct {
	// FocalLength of the objective in millimeters
	FocalLength float64 `json:"focal_length"`

	// ApparentFOV of the eyepieces in degrees
	ApparentFOV float64 `json:"apparent_fov"`

	// Eyepieces lists the available eyepiece focal lengths in millimeters
	Eyepieces []float64 `json:"eyepieces"`

	// Barlow multiplies the magnification. Zero or one means no Barlow lens.
	Barlow float64 `json:"barlow,omitempty"`
}

// DefaultTelescope returns an 8" SCT with the default eyepiece kit.
func DefaultTelescope() Telescope {
	eyepieces := make([]float64, len(DefaultEyepieces))
	copy(eyepieces, DefaultEyepieces)
	return Telescope{
		FocalLength: DefaultFocalLength,
		ApparentFOV: DefaultApparentFOV,
		Eyepieces:   eyepieces,
	}
}

// Validate checks that the optics describe a usable telescope.
func (t Telescope) Validate() error {
	if t.FocalLength <= 0 || math.IsNaN(t.FocalLength) {
		return fmt.Errorf("focal length must be positive, got %v", t.FocalLength)
	}
	if t.ApparentFOV <= 0 || t.ApparentFOV > 180 {
		return fmt.Errorf("apparent field of view must be in (0, 180], got %v", t.ApparentFOV)
	}
	if len(t.Eyepieces) == 0 {
		return errors.New("at least one eyepiece is required")
	}
	for _, e := range t.Eyepieces {
		if e <= 0 || math.IsNaN(e) {
			return fmt.Errorf("eyepiece focal length must be positive, got %v", e)
		}
	}
	if t.Barlow < 0 {
		return fmt.Errorf("barlow factor must not be negative, got %v", t.Barlow)
	}
	return nil
}

func (t Telescope) barlow() float64 {
	if t.Barlow <= 1 {
		return 1
	}
	return t.Barlow
}

// Magnification returns the magnification with an eyepiece of the given
// focal length. It returns 0 for a non-positive eyepiece.
func (t Telescope) Magnification(eyepiece float64) float64 {
	if eyepiece <= 0 {
		return 0
	}
	return t.FocalLength / eyepiece * t.barlow()
}

// TrueFOV returns the angular diameter of sky visible through an eyepiece,
// in degrees: the apparent field divided by the magnification.
func (t Telescope) TrueFOV(eyepiece float64) float64 {
	m := t.Magnification(eyepiece)
	if m <= 0 {
		return 0
	}
	return t.ApparentFOV / m
}

// View is the result of looking through one eyepiece.
type View struct {
	Eyepiece      float64 `json:"eyepiece"`
	Magnification float64 `json:"magnification"`
	TrueFOV       float64 `json:"true_fov"`
}

// Views returns the view for every eyepiece in the kit, in kit order.
func (t Telescope) Views() []View {
	views := make([]View, 0, len(t.Eyepieces))
	for _, e := range t.Eyepieces {
		views = append(views, t.View(e))
	}
	return views
}

// View returns the view through one eyepiece.
func (t Telescope) View(eyepiece float64) View {
	return View{
		Eyepiece:      eyepiece,
		Magnification: t.Magnification(eyepiece),
		TrueFOV:       t.TrueFOV(eyepiece),
	}
}

// Select returns the view for an eyepiece in the kit.
func (t Telescope) Select(eyepiece float64) (View, error) {
	for _, e := range t.Eyepieces {
		if e == eyepiece {
			return t.View(e), nil
		}
	}
	return View{}, fmt.Errorf("%w: %v mm", ErrUnknownEyepiece, eyepiece)
}

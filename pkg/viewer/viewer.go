// Package viewer talks to the external sky viewer, an Aladin Lite page
// running in a browser. Every call is a round trip that may fail or time
// out; callers treat a failure as "no update this cycle".
package viewer

import (
	"context"
	"errors"
	"fmt"

	"github.com/unklstewy/skyscope/pkg/coordinates"
)

var (
	// ErrDisconnected is returned when no viewer page is connected or the
	// connection drops while a command is in flight.
	ErrDisconnected = errors.New("viewer disconnected")

	// ErrTimeout is returned when the viewer does not answer in time.
	ErrTimeout = errors.New("viewer timeout")
)

// RemoteError is an error reported by the viewer page itself.
type RemoteError struct {
	Command string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("viewer command %s failed: %s", e.Command, e.Message)
}

// Viewer is the command/query surface of the external sky viewer.
type Viewer interface {
	// FieldOfViewCorners returns the sky positions of the four view corners.
	FieldOfViewCorners(ctx context.Context) ([4]coordinates.EquatorialCoordinates, error)

	// SizeInPixels returns the viewer size.
	SizeInPixels(ctx context.Context) (width, height float64, err error)

	// CenterEquatorial returns the sky position at the middle of the view.
	CenterEquatorial(ctx context.Context) (coordinates.EquatorialCoordinates, error)

	// GotoEquatorial centers the viewer on eq.
	GotoEquatorial(ctx context.Context, eq coordinates.EquatorialCoordinates) error

	// SetFieldOfView sets the viewer's field of view in degrees.
	SetFieldOfView(ctx context.Context, fov float64) error

	// SetSurvey switches the background image survey, e.g. "P/DSS2/color".
	SetSurvey(ctx context.Context, id string) error
}

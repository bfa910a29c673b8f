package viewer

import (
	"context"
	"fmt"

	"github.com/unklstewy/skyscope/pkg/coordinates"
	"github.com/unklstewy/skyscope/pkg/projection"
)

// Snapshot is everything needed to match the sky chart scale to the viewer.
type Snapshot struct {
	Center   coordinates.EquatorialCoordinates `json:"center"`
	Viewport projection.ViewportSnapshot       `json:"viewport"`
}

// FetchSnapshot queries the viewer's corners, size and center concurrently.
// Any failure fails the whole snapshot.
func FetchSnapshot(ctx context.Context, v Viewer) (Snapshot, error) {
	corners := Async(ctx, v.FieldOfViewCorners)
	size := Async(ctx, func(ctx context.Context) ([2]float64, error) {
		w, h, err := v.SizeInPixels(ctx)
		return [2]float64{w, h}, err
	})
	center := Async(ctx, v.CenterEquatorial)

	c, err := corners.Wait(ctx)
	if err != nil {
		size.Cancel()
		center.Cancel()
		return Snapshot{}, fmt.Errorf("failed to get field of view corners: %w", err)
	}
	wh, err := size.Wait(ctx)
	if err != nil {
		center.Cancel()
		return Snapshot{}, fmt.Errorf("failed to get viewer size: %w", err)
	}
	middle, err := center.Wait(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to get viewer center: %w", err)
	}

	return Snapshot{
		Center: middle,
		Viewport: projection.ViewportSnapshot{
			Width:   wh[0],
			Height:  wh[1],
			Corners: c,
		},
	}, nil
}

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/unklstewy/skyscope/pkg/coordinates"
	"github.com/unklstewy/skyscope/pkg/projection"
)

// handleView returns the chart orientation
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	state, err := s.engine.View(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, state)
}

// targetRequest names a position either numerically or as sexagesimal text.
type targetRequest struct {
	RightAscension *float64 `json:"ra,omitempty"`
	Declination    *float64 `json:"dec,omitempty"`
	ICRS           string   `json:"icrs,omitempty"`
}

// target resolves a request to coordinates. ok is false when the request
// names no position at all.
func (t targetRequest) target() (eq coordinates.EquatorialCoordinates, ok bool, err error) {
	switch {
	case t.ICRS != "":
		eq, err = coordinates.ParseICRS(t.ICRS)
		return eq, true, err
	case t.RightAscension != nil && t.Declination != nil:
		return coordinates.EquatorialCoordinates{
			RightAscension: *t.RightAscension,
			Declination:    *t.Declination,
		}, true, nil
	case t.RightAscension != nil || t.Declination != nil:
		return eq, false, errors.New("both ra and dec are required")
	}
	return eq, false, nil
}

// handleGoto centers the chart, and the viewer, on a position
func (s *Server) handleGoto(w http.ResponseWriter, r *http.Request) {
	var req targetRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	eq, ok, err := req.target()
	if err == nil && !ok {
		err = errors.New("a target is required")
	}
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	state, err := s.engine.Goto(r.Context(), eq)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, state)
}

// handlePan drags the chart by a pixel delta
func (s *Server) handlePan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DX float64 `json:"dx"`
		DY float64 `json:"dy"`
	}
	if err := decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	state, err := s.engine.Pan(r.Context(), req.DX, req.DY)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, state)
}

// handleZoom applies a pinch factor relative to the start of the gesture.
// A request with begin set starts a new gesture first.
func (s *Server) handleZoom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Factor float64 `json:"factor"`
		Begin  bool    `json:"begin"`
	}
	if err := decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if req.Factor <= 0 && !req.Begin {
		respondError(w, http.StatusBadRequest, fmt.Errorf("zoom factor must be positive, got %v", req.Factor))
		return
	}

	ctx := r.Context()
	if req.Begin {
		if _, err := s.engine.BeginZoom(ctx); err != nil {
			s.fail(w, r, err)
			return
		}
	}
	state, err := s.engine.Zoom(ctx, req.Factor)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, state)
}

// handleTap returns the sky position under a screen point
func (s *Server) handleTap(w http.ResponseWriter, r *http.Request) {
	var req projection.Point
	if err := decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	eq, ok, err := s.engine.Tap(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	resp := map[string]interface{}{"hit": ok}
	if ok {
		resp["equatorial"] = eq
		resp["icrs"] = coordinates.FormatICRS(eq, " ")
	}
	respondJSON(w, http.StatusOK, resp)
}

// handleFieldOfView zooms the chart and viewer to a field of view in degrees
func (s *Server) handleFieldOfView(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FOV float64 `json:"fov"`
	}
	if err := decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if req.FOV <= 0 || req.FOV > 180 {
		respondError(w, http.StatusBadRequest, fmt.Errorf("field of view must be in (0, 180], got %v", req.FOV))
		return
	}

	state, err := s.engine.SetFieldOfView(r.Context(), req.FOV)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, state)
}

// handleViewSize records the client's drawing surface size
func (s *Server) handleViewSize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	}
	if err := decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if req.Width <= 0 || req.Height <= 0 {
		respondError(w, http.StatusBadRequest, fmt.Errorf("view size must be positive, got %vx%v", req.Width, req.Height))
		return
	}

	state, err := s.engine.SetViewSize(r.Context(), req.Width, req.Height)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, state)
}

// handleCulling shows or hides the far hemisphere
func (s *Server) handleCulling(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	state, err := s.engine.SetCulling(r.Context(), req.Enabled)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, state)
}

// handleFrame returns everything needed to draw the chart
func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	frame, err := s.engine.Frame(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, frame)
}

// handleSync matches the chart to the external viewer
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.Sync(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// handleGetSurvey returns the viewer's image survey
func (s *Server) handleGetSurvey(w http.ResponseWriter, r *http.Request) {
	survey, err := s.engine.Survey()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"survey": survey})
}

// handleSetSurvey switches the viewer's image survey
func (s *Server) handleSetSurvey(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Survey string `json:"survey"`
	}
	if err := decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	survey := strings.TrimSpace(req.Survey)
	if survey == "" {
		respondError(w, http.StatusBadRequest, errors.New("survey is required"))
		return
	}

	if err := s.engine.SetSurvey(r.Context(), survey); err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"survey": survey})
}

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/unklstewy/skyscope/pkg/attitude"
	"github.com/unklstewy/skyscope/pkg/coordinates"
)

// handleAttitude resolves a device orientation to the sky.
//
// Query parameters: x, y, z, w (quaternion), heading (compass degrees) and
// center (when true the chart follows the device).
func (s *Server) handleAttitude(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var values [5]float64
	for i, name := range []string{"x", "y", "z", "w", "heading"} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, fmt.Errorf("invalid %s %q", name, v))
			return
		}
		values[i] = f
	}
	center, _ := strconv.ParseBool(q.Get("center"))

	quat := attitude.Quaternion(values[0], values[1], values[2], values[3])
	pt, err := s.engine.Point(r.Context(), quat, values[4], center)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, pt)
}

// handleOptics reports the telescope and what each eyepiece shows
func (s *Server) handleOptics(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"telescope": s.cfg.Optics,
		"views":     s.cfg.Optics.Views(),
	}
	if s.cfg.Eyepiece > 0 {
		resp["selected"] = s.cfg.Optics.View(s.cfg.Eyepiece)
	}
	respondJSON(w, http.StatusOK, resp)
}

// handleSlew slews the mount to a target, or to the chart center when the
// body is empty
func (s *Server) handleSlew(w http.ResponseWriter, r *http.Request) {
	var req targetRequest
	if err := decode(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	eq, ok, err := req.target()
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	var target *coordinates.EquatorialCoordinates
	if ok {
		target = &eq
	}

	res, err := s.engine.SlewMount(r.Context(), target)
	if err != nil {
		status := statusOf(err)
		if status == http.StatusUnprocessableEntity {
			// The caller needs to see how close the sun was
			respondJSON(w, status, map[string]interface{}{"error": err.Error(), "slew": res})
			return
		}
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// handleAbort stops the mount
func (s *Server) handleAbort(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.AbortSlew(r.Context()); err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// handleFollow centers the chart on the mount position
func (s *Server) handleFollow(w http.ResponseWriter, r *http.Request) {
	state, err := s.engine.FollowMount(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, state)
}

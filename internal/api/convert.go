package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/unklstewy/skyscope/pkg/coordinates"
)

// siderealResponse reports sidereal time at an instant.
type siderealResponse struct {
	Time       time.Time `json:"time"`
	JulianDate float64   `json:"julian_date"`
	Longitude  float64   `json:"longitude"`
	GMST       float64   `json:"gmst"`
	GAST       float64   `json:"gast"`
	LST        float64   `json:"lst"`
	LSTHours   string    `json:"lst_hms"`
	Model      string    `json:"model"`
}

// handleSidereal returns sidereal time for ?time (RFC 3339) and ?lon
// (east-positive degrees), defaulting to now and the configured observer.
func (s *Server) handleSidereal(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	t := s.cfg.Now()
	if v := q.Get("time"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respondError(w, http.StatusBadRequest, fmt.Errorf("invalid time: %w", err))
			return
		}
		t = parsed
	}

	lon := s.cfg.Observer.Location.Longitude
	if v := q.Get("lon"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed < -180 || parsed > 180 {
			respondError(w, http.StatusBadRequest, fmt.Errorf("invalid longitude %q", v))
			return
		}
		lon = parsed
	}

	lst := s.cfg.Sidereal.Local(t, lon)
	model := s.cfg.Sidereal
	if model == "" {
		model = coordinates.MeanSidereal
	}
	respondJSON(w, http.StatusOK, siderealResponse{
		Time:       t.UTC(),
		JulianDate: coordinates.JulianDate(t),
		Longitude:  lon,
		GMST:       coordinates.GreenwichMeanSiderealTime(t),
		GAST:       coordinates.GreenwichApparentSiderealTime(t),
		LST:        lst,
		LSTHours:   coordinates.DegreesToHMS(lst).String(),
		Model:      string(model),
	})
}

// conversionRequest carries an optional time and observer override.
type conversionRequest struct {
	Time      *time.Time `json:"time,omitempty"`
	Latitude  *float64   `json:"latitude,omitempty"`
	Longitude *float64   `json:"longitude,omitempty"`

	RightAscension float64 `json:"ra"`
	Declination    float64 `json:"dec"`
	Altitude       float64 `json:"altitude"`
	Azimuth        float64 `json:"azimuth"`
}

// frame resolves the observer latitude and local sidereal time for a request.
func (s *Server) frame(req conversionRequest) (lat, lst float64, t time.Time, err error) {
	t = s.cfg.Now()
	if req.Time != nil {
		t = *req.Time
	}
	lat = s.cfg.Observer.Location.Latitude
	if req.Latitude != nil {
		lat = *req.Latitude
	}
	lon := s.cfg.Observer.Location.Longitude
	if req.Longitude != nil {
		lon = *req.Longitude
	}
	if lat < -90 || lat > 90 {
		return 0, 0, t, fmt.Errorf("latitude must be in [-90, 90], got %v", lat)
	}
	if lon < -180 || lon > 180 {
		return 0, 0, t, fmt.Errorf("longitude must be in [-180, 180], got %v", lon)
	}
	return lat, s.cfg.Sidereal.Local(t, lon), t, nil
}

// handleToHorizontal converts RA/Dec to Alt/Az for the observer
func (s *Server) handleToHorizontal(w http.ResponseWriter, r *http.Request) {
	var req conversionRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	eq := coordinates.EquatorialCoordinates{RightAscension: req.RightAscension, Declination: req.Declination}
	if !eq.Valid() {
		respondError(w, http.StatusBadRequest, fmt.Errorf("declination must be in [-90, 90], got %v", req.Declination))
		return
	}
	lat, lst, t, err := s.frame(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"time":       t.UTC(),
		"lst":        lst,
		"equatorial": eq,
		"horizontal": coordinates.EquatorialToHorizontalAt(eq, lat, lst),
	})
}

// handleToEquatorial converts Alt/Az to RA/Dec for the observer
func (s *Server) handleToEquatorial(w http.ResponseWriter, r *http.Request) {
	var req conversionRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if req.Altitude < -90 || req.Altitude > 90 {
		respondError(w, http.StatusBadRequest, fmt.Errorf("altitude must be in [-90, 90], got %v", req.Altitude))
		return
	}
	lat, lst, t, err := s.frame(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	hz := coordinates.HorizontalCoordinates{Altitude: req.Altitude, Azimuth: req.Azimuth}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"time":       t.UTC(),
		"lst":        lst,
		"horizontal": hz,
		"equatorial": coordinates.HorizontalToEquatorialAt(hz, lat, lst),
	})
}

// parseRequest holds either an ICRS string or separate RA/Dec strings.
type parseRequest struct {
	ICRS string `json:"icrs,omitempty"`
	RA   string `json:"ra,omitempty"`
	Dec  string `json:"dec,omitempty"`
}

// parseTarget resolves a parse request to coordinates.
func parseTarget(req parseRequest) (coordinates.EquatorialCoordinates, error) {
	if req.ICRS != "" {
		return coordinates.ParseICRS(req.ICRS)
	}
	ra, err := coordinates.ParseHMS(req.RA)
	if err != nil {
		return coordinates.EquatorialCoordinates{}, err
	}
	dec, err := coordinates.ParseDMS(req.Dec)
	if err != nil {
		return coordinates.EquatorialCoordinates{}, err
	}
	eq := coordinates.EquatorialCoordinates{RightAscension: coordinates.NormalizeRA(ra), Declination: dec}
	if !eq.Valid() {
		return coordinates.EquatorialCoordinates{}, &coordinates.ParseError{Input: req.Dec, Reason: "declination out of range"}
	}
	return eq, nil
}

// handleParse converts sexagesimal text to decimal degrees
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	eq, err := parseTarget(req)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"equatorial": eq,
		"hours":      eq.Hours(),
		"ra_hms":     coordinates.DegreesToHMS(eq.RightAscension).String(),
		"dec_dms":    coordinates.DegreesToDMS(eq.Declination).String(),
		"icrs":       coordinates.FormatICRS(eq, " "),
	})
}

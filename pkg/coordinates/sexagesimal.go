package coordinates

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseError reports a malformed sexagesimal angle string.
type ParseError struct {
	// Input is the string as supplied by the caller
	Input string

	// Reason describes what was wrong with it
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse angle %q: %s", e.Input, e.Reason)
}

// HMS is an angle split into hours, minutes and seconds of time.
type HMS struct {
	Hours   int
	Minutes int
	Seconds float64
}

// Degrees converts the triple back to decimal degrees.
func (h HMS) Degrees() float64 {
	return HMSToDegrees(float64(h.Hours), float64(h.Minutes), h.Seconds)
}

// String formats the value as "hh mm ss.sss".
func (h HMS) String() string {
	return fmt.Sprintf("%02d %02d %06.3f", h.Hours, h.Minutes, h.Seconds)
}

// DMS is an angle split into degrees, arcminutes and arcseconds.
// The sign is held separately so that angles between -1 and 0 keep it.
type DMS struct {
	Negative bool
	Degrees  int
	Minutes  int
	Seconds  float64
}

// Decimal converts the triple back to decimal degrees.
func (d DMS) Decimal() float64 {
	v := float64(d.Degrees) + float64(d.Minutes)/60.0 + d.Seconds/3600.0
	if d.Negative {
		return -v
	}
	return v
}

// String formats the value as "+dd mm ss.sss".
func (d DMS) String() string {
	sign := '+'
	if d.Negative {
		sign = '-'
	}
	return fmt.Sprintf("%c%02d %02d %06.3f", sign, d.Degrees, d.Minutes, d.Seconds)
}

// HMSToDegrees converts hours, minutes and seconds of right ascension to degrees.
func HMSToDegrees(h, m, s float64) float64 {
	return (h + m/60.0 + s/3600.0) * 15.0
}

// DMSToDegrees converts degrees, arcminutes and arcseconds to decimal degrees.
// The sign lives on d only: a negative d (including -0) subtracts m and s.
func DMSToDegrees(d, m, s float64) float64 {
	if math.Signbit(d) {
		return d - m/60.0 - s/3600.0
	}
	return d + m/60.0 + s/3600.0
}

// DegreesToHMS splits an angle in degrees into hours, minutes and seconds.
// The angle is normalized to [0, 360) first.
func DegreesToHMS(degrees float64) HMS {
	whole, minutes, seconds := splitSexagesimal(NormalizeDegrees(degrees) / 15.0)
	if whole >= 24 {
		whole -= 24
	}
	return HMS{Hours: whole, Minutes: minutes, Seconds: seconds}
}

// DegreesToDMS splits an angle in degrees into degrees, arcminutes and arcseconds.
func DegreesToDMS(degrees float64) DMS {
	whole, minutes, seconds := splitSexagesimal(math.Abs(degrees))
	return DMS{
		Negative: degrees < 0 && (whole != 0 || minutes != 0 || seconds != 0),
		Degrees:  whole,
		Minutes:  minutes,
		Seconds:  seconds,
	}
}

// splitSexagesimal splits a non-negative value into whole units, sixtieths and
// three-thousand-six-hundredths. Working in rounded micro-seconds makes clean
// triples round-trip exactly and carries 59.9999... into the next minute.
func splitSexagesimal(v float64) (int, int, float64) {
	total := math.Round(v*3600.0*1e6) / 1e6
	whole := math.Floor(total / 3600.0)
	rest := total - whole*3600.0
	minutes := math.Floor(rest / 60.0)
	seconds := rest - minutes*60.0
	if seconds < 0 {
		seconds = 0
	}
	return int(whole), int(minutes), seconds
}

// ArcsecToDegrees converts arcseconds to degrees.
func ArcsecToDegrees(arcsec float64) float64 {
	return arcsec / 3600.0
}

// ParseHMS parses "h m s" (e.g. "13 42 11.62" or "13h42m11.62s") into degrees.
func ParseHMS(s string) (float64, error) {
	v, err := parseTriple(s)
	if err != nil {
		return 0, err
	}
	return HMSToDegrees(v[0], v[1], v[2]), nil
}

// ParseDMS parses "d m s" (e.g. "-12 30 00" or "−12° 30' 00\"") into degrees.
func ParseDMS(s string) (float64, error) {
	v, err := parseTriple(s)
	if err != nil {
		return 0, err
	}
	return DMSToDegrees(v[0], v[1], v[2]), nil
}

// ParseICRS parses an ICRS position such as "icrs 13 42 11.62 +28 22 38.2".
// The leading frame keyword is optional.
func ParseICRS(s string) (EquatorialCoordinates, error) {
	fields := sexagesimalFields(s)
	if len(fields) > 0 && strings.EqualFold(fields[0], "icrs") {
		fields = fields[1:]
	}
	if len(fields) != 6 {
		return EquatorialCoordinates{}, &ParseError{Input: s, Reason: fmt.Sprintf("expected 6 fields, got %d", len(fields))}
	}

	values, err := parseFloats(s, fields)
	if err != nil {
		return EquatorialCoordinates{}, err
	}

	eq := EquatorialCoordinates{
		RightAscension: NormalizeRA(HMSToDegrees(values[0], values[1], values[2])),
		Declination:    DMSToDegrees(values[3], values[4], values[5]),
	}
	if !eq.Valid() {
		return EquatorialCoordinates{}, &ParseError{Input: s, Reason: "declination out of range"}
	}
	return eq, nil
}

// FormatICRS formats a position as "hh mm ss.sss +dd mm ss.sss" using sep
// between every field. Aladin Lite accepts both " " and "_" separated targets.
func FormatICRS(eq EquatorialCoordinates, sep string) string {
	ra := DegreesToHMS(eq.RightAscension)
	dec := DegreesToDMS(eq.Declination)
	sign := "+"
	if dec.Negative {
		sign = "-"
	}
	return fmt.Sprintf("%02d%s%02d%s%06.3f%s%s%02d%s%02d%s%06.3f",
		ra.Hours, sep, ra.Minutes, sep, ra.Seconds, sep,
		sign, dec.Degrees, sep, dec.Minutes, sep, dec.Seconds)
}

var sexagesimalReplacer = strings.NewReplacer(
	"−", "-",
	":", " ",
	"h", " ",
	"m", " ",
	"s", " ",
	"d", " ",
	"°", " ",
	"'", " ",
	"\"", " ",
	"′", " ",
	"″", " ",
)

// sexagesimalFields normalizes separators and minus glyphs and splits on whitespace.
func sexagesimalFields(s string) []string {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) > 0 && strings.EqualFold(fields[0], "icrs") {
		rest := strings.Fields(sexagesimalReplacer.Replace(strings.Join(fields[1:], " ")))
		return append([]string{fields[0]}, rest...)
	}
	return strings.Fields(sexagesimalReplacer.Replace(s))
}

func parseTriple(s string) ([3]float64, error) {
	var out [3]float64
	fields := sexagesimalFields(s)
	if len(fields) != 3 {
		return out, &ParseError{Input: s, Reason: fmt.Sprintf("expected 3 fields, got %d", len(fields))}
	}
	values, err := parseFloats(s, fields)
	if err != nil {
		return out, err
	}
	copy(out[:], values)
	return out, nil
}

func parseFloats(input string, fields []string) ([]float64, error) {
	values := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &ParseError{Input: input, Reason: fmt.Sprintf("field %d (%q) is not a number", i+1, f)}
		}
		values[i] = v
	}
	return values, nil
}

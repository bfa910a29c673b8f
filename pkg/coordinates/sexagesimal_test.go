package coordinates

import (
	"errors"
	"math"
	"testing"
)

func TestHMSRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		hms     HMS
		degrees float64
	}{
		{"Zero", HMS{0, 0, 0}, 0},
		{"Six hours", HMS{6, 0, 0}, 90},
		{"M51", HMS{13, 29, 52.7}, 202.469583333},
		{"Quarter second", HMS{23, 59, 59.25}, 359.996875},
		{"Whole minutes", HMS{1, 30, 0}, 22.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deg := HMSToDegrees(float64(tt.hms.Hours), float64(tt.hms.Minutes), tt.hms.Seconds)
			if math.Abs(deg-tt.degrees) > 1e-8 {
				t.Errorf("HMSToDegrees() = %.9f, want %.9f", deg, tt.degrees)
			}
			back := DegreesToHMS(deg)
			if back.Hours != tt.hms.Hours || back.Minutes != tt.hms.Minutes || math.Abs(back.Seconds-tt.hms.Seconds) > 1e-9 {
				t.Errorf("DegreesToHMS(%v) = %+v, want %+v", deg, back, tt.hms)
			}
		})
	}
}

func TestDMSRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		dms     DMS
		degrees float64
	}{
		{"Positive", DMS{false, 23, 24, 48.0}, 23.413333333},
		{"Negative", DMS{true, 12, 30, 0}, -12.5},
		{"Negative below one degree", DMS{true, 0, 30, 36}, -0.51},
		{"Equator", DMS{false, 0, 0, 0}, 0},
		{"Pole", DMS{false, 90, 0, 0}, 90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dms.Decimal(); math.Abs(got-tt.degrees) > 1e-8 {
				t.Errorf("Decimal() = %.9f, want %.9f", got, tt.degrees)
			}
			back := DegreesToDMS(tt.dms.Decimal())
			if back.Negative != tt.dms.Negative || back.Degrees != tt.dms.Degrees ||
				back.Minutes != tt.dms.Minutes || math.Abs(back.Seconds-tt.dms.Seconds) > 1e-9 {
				t.Errorf("DegreesToDMS() = %+v, want %+v", back, tt.dms)
			}
		})
	}
}

func TestDMSToDegreesSign(t *testing.T) {
	tests := []struct {
		name    string
		d, m, s float64
		want    float64
	}{
		{"Positive adds", 10, 30, 0, 10.5},
		{"Negative subtracts", -10, 30, 0, -10.5},
		{"Negative zero keeps sign", math.Copysign(0, -1), 30, 0, -0.5},
		{"Arcseconds", 0, 0, 36, 0.01},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DMSToDegrees(tt.d, tt.m, tt.s); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("DMSToDegrees() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDegreesToHMSCarry(t *testing.T) {
	// 59.9999999 seconds must carry rather than print as 60
	got := DegreesToHMS(HMSToDegrees(4, 59, 59.99999999))
	if got.Hours != 5 || got.Minutes != 0 || got.Seconds > 1e-6 {
		t.Errorf("DegreesToHMS carry = %+v, want 05 00 00", got)
	}
	if got := DegreesToHMS(-15); got.Hours != 23 {
		t.Errorf("DegreesToHMS(-15) hours = %d, want 23", got.Hours)
	}
}

func TestParseHMSAndDMS(t *testing.T) {
	tests := []struct {
		name  string
		input string
		parse func(string) (float64, error)
		want  float64
	}{
		{"HMS spaces", "13 42 11.62", ParseHMS, HMSToDegrees(13, 42, 11.62)},
		{"HMS repeated whitespace", "  13   42\t11.62 ", ParseHMS, HMSToDegrees(13, 42, 11.62)},
		{"HMS letters", "13h42m11.62s", ParseHMS, HMSToDegrees(13, 42, 11.62)},
		{"HMS colons", "13:42:11.62", ParseHMS, HMSToDegrees(13, 42, 11.62)},
		{"DMS ascii minus", "-12 30 00", ParseDMS, -12.5},
		{"DMS unicode minus", "−12 30 00", ParseDMS, -12.5},
		{"DMS minus zero", "-00 30 00", ParseDMS, -0.5},
		{"DMS symbols", "+28° 22′ 38.2″", ParseDMS, DMSToDegrees(28, 22, 38.2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.parse(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"Empty", ""},
		{"Two fields", "12 30"},
		{"Four fields", "12 30 00 1"},
		{"Non numeric", "12 thirty 00"},
		{"Infinity", "inf 0 0"},
		{"Not a number", "nan 0 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, parse := range []func(string) (float64, error){ParseHMS, ParseDMS} {
				_, err := parse(tt.input)
				var perr *ParseError
				if !errors.As(err, &perr) {
					t.Fatalf("expected *ParseError, got %v", err)
				}
				if perr.Input != tt.input {
					t.Errorf("ParseError.Input = %q, want %q", perr.Input, tt.input)
				}
			}
		})
	}
}

func TestParseICRS(t *testing.T) {
	eq, err := ParseICRS("icrs 13 42 11.62 +28 22 38.2")
	if err != nil {
		t.Fatalf("ParseICRS() error: %v", err)
	}
	if want := HMSToDegrees(13, 42, 11.62); math.Abs(eq.RightAscension-want) > 1e-9 {
		t.Errorf("RA = %v, want %v", eq.RightAscension, want)
	}
	if want := DMSToDegrees(28, 22, 38.2); math.Abs(eq.Declination-want) > 1e-9 {
		t.Errorf("Dec = %v, want %v", eq.Declination, want)
	}

	if _, err := ParseICRS("ICRS 00 00 00 −05 00 00"); err != nil {
		t.Errorf("upper-case keyword and unicode minus: %v", err)
	}
	if _, err := ParseICRS("13 42 11.62 +28 22"); err == nil {
		t.Error("expected error for missing field")
	}
	if _, err := ParseICRS("13 42 11.62 +95 00 00"); err == nil {
		t.Error("expected error for declination beyond the pole")
	}
}

func TestFormatICRS(t *testing.T) {
	eq := EquatorialCoordinates{
		RightAscension: HMSToDegrees(13, 42, 11.62),
		Declination:    DMSToDegrees(-28, 22, 38.2),
	}
	if got, want := FormatICRS(eq, " "), "13 42 11.620 -28 22 38.200"; got != want {
		t.Errorf("FormatICRS() = %q, want %q", got, want)
	}
	if got, want := FormatICRS(eq, "_"), "13_42_11.620_-28_22_38.200"; got != want {
		t.Errorf("FormatICRS() = %q, want %q", got, want)
	}

	back, err := ParseICRS(FormatICRS(eq, " "))
	if err != nil {
		t.Fatalf("ParseICRS(FormatICRS()) error: %v", err)
	}
	if AngularSeparation(back, eq) > ArcsecToDegrees(0.01) {
		t.Errorf("round trip moved position by %v deg", AngularSeparation(back, eq))
	}
}

func TestArcsecToDegrees(t *testing.T) {
	if got := ArcsecToDegrees(3600); got != 1 {
		t.Errorf("ArcsecToDegrees(3600) = %v, want 1", got)
	}
}

package attitude

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func aroundX(deg float64) mgl64.Quat {
	return mgl64.QuatRotate(mgl64.DegToRad(deg), mgl64.Vec3{1, 0, 0})
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		mode    PointingMode
		q       mgl64.Quat
		heading float64
		wantAlt float64
		wantAz  float64
	}{
		{"flat top", TopOfDevice, mgl64.QuatIdent(), 30, 0, 30},
		{"flat back", BackCamera, mgl64.QuatIdent(), 30, -90, 30},
		{"tilted 45 top", TopOfDevice, aroundX(45), 120, 45, 120},
		{"upright top", TopOfDevice, aroundX(90), 10, 90, 10},
		{"upright back", BackCamera, aroundX(90), 10, 0, 10},
		{"tilted back camera", BackCamera, aroundX(120), 200, 30, 20},
		{"screen down", TopOfDevice, aroundX(180), 90, 0, 270},
		{"unnormalized", TopOfDevice, aroundX(45).Scale(3), 0, 45, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewResolver(tt.mode).Resolve(tt.q, tt.heading)
			if math.Abs(got.Altitude-tt.wantAlt) > 1e-9 {
				t.Errorf("altitude = %v, want %v", got.Altitude, tt.wantAlt)
			}
			if math.Abs(got.Azimuth-tt.wantAz) > 1e-9 {
				t.Errorf("azimuth = %v, want %v", got.Azimuth, tt.wantAz)
			}
		})
	}
}

func TestResolveInvalidHeading(t *testing.T) {
	got := Resolver{}.Resolve(mgl64.QuatIdent(), math.NaN())
	if got.Azimuth != 0 || math.IsNaN(got.Altitude) {
		t.Errorf("Resolve() with NaN heading = %+v", got)
	}
}

func TestFacingGround(t *testing.T) {
	if FacingGround(mgl64.QuatIdent()) {
		t.Error("flat device reported facing ground")
	}
	if !FacingGround(aroundX(180)) {
		t.Error("flipped device not reported facing ground")
	}
	if !FacingGround(aroundX(135)) {
		t.Error("device tipped past vertical not reported facing ground")
	}
}

func TestQuaternionComponentOrder(t *testing.T) {
	q := Quaternion(0.1, 0.2, 0.3, 0.9)
	if q.W != 0.9 || q.V != (mgl64.Vec3{0.1, 0.2, 0.3}) {
		t.Errorf("Quaternion() = %+v", q)
	}
}

func TestParsePointingMode(t *testing.T) {
	tests := []struct {
		in      string
		want    PointingMode
		wantErr bool
	}{
		{"top", TopOfDevice, false},
		{"BACK", BackCamera, false},
		{" camera ", BackCamera, false},
		{"", TopOfDevice, false},
		{"sideways", TopOfDevice, true},
	}
	for _, tt := range tests {
		got, err := ParsePointingMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePointingMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePointingMode(%q) = %v, want %v", tt.in, got, tt.want)
		}
		if !tt.wantErr && got.String() == "" {
			t.Errorf("empty String() for %v", got)
		}
	}
}

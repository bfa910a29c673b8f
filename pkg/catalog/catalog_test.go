package catalog

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/unklstewy/skyscope/pkg/coordinates"
)

func TestExpandBayer(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"Alp", "α", true},
		{"bet", "β", true},
		{"Zet1", "ζ1", true},
		{"Del2", "δ2", true},
		{"Omi", "ο", true},
		{"Ome", "ω", true},
		{"Mu", "μ", true},
		{"Xi", "ξ", true},
		{"alpha", "α", true},
		{"Omega", "ω", true},
		{" Eta ", "η", true},
		{"", "", false},
		{"12", "", false},
		{"Foo", "", false},
		{"alphabet", "", false},
	}
	for _, tt := range tests {
		got, ok := ExpandBayer(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ExpandBayer(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestStarLabel(t *testing.T) {
	tests := []struct {
		name string
		star Star
		want string
	}{
		{"common name", Star{CommonName: "Vega", Bayer: "Alp", Constellation: "Lyr"}, "Vega"},
		{"bayer", Star{Bayer: "Gam", Constellation: "Cas"}, "γ Cas"},
		{"flamsteed", Star{Flamsteed: "61", Constellation: "Cyg"}, "61 Cyg"},
		{"anonymous", Star{Constellation: "Ori"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.star.Label(); got != tt.want {
				t.Errorf("Label() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFilterMatches(t *testing.T) {
	vega := Star{RA: 279.2347, Dec: 38.7837, Magnitude: 0.03, CommonName: "Vega", Constellation: "Lyr"}
	anon := Star{RA: 281.1932, Dec: 37.6051, Magnitude: 4.36, Constellation: "Lyr"}

	tests := []struct {
		name   string
		filter Filter
		star   Star
		want   bool
	}{
		{"zero filter", Filter{}, anon, true},
		{"magnitude pass", Filter{MaxMagnitude: 1}, vega, true},
		{"magnitude fail", Filter{MaxMagnitude: 4}, anon, false},
		{"constellation case", Filter{Constellation: "LYR"}, vega, true},
		{"constellation fail", Filter{Constellation: "Cyg"}, vega, false},
		{"named fail", Filter{Named: true}, anon, false},
		{"cone pass", Filter{Near: &Cone{Center: vega.Equatorial(), Radius: 2}}, anon, true},
		{"cone fail", Filter{Near: &Cone{Center: vega.Equatorial(), Radius: 1}}, anon, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(tt.star); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBrightStars(t *testing.T) {
	cat, err := BrightStars()
	if err != nil {
		t.Fatalf("BrightStars() error = %v", err)
	}
	if cat.Len() < 50 {
		t.Errorf("Len() = %d, want at least 50", cat.Len())
	}

	ctx := context.Background()
	stars, err := cat.StarsWhere(ctx, Filter{})
	if err != nil {
		t.Fatalf("StarsWhere() error = %v", err)
	}
	if stars[0].CommonName != "Sirius" {
		t.Errorf("brightest star = %q, want Sirius", stars[0].CommonName)
	}
	for i := 1; i < len(stars); i++ {
		if stars[i].Magnitude < stars[i-1].Magnitude {
			t.Fatalf("stars not sorted by magnitude at %d", i)
		}
	}

	lines, err := cat.ConstellationLines(ctx)
	if err != nil {
		t.Fatalf("ConstellationLines() error = %v", err)
	}
	if len(lines) == 0 {
		t.Fatal("no constellation lines")
	}
	for _, l := range lines {
		for _, v := range []coordinates.UnitVector{l.First, l.Second} {
			if math.Abs(v.Length()-1) > 1e-12 {
				t.Errorf("%s line endpoint not on the unit sphere: %+v", l.Constellation, v)
			}
		}
	}

	names, err := cat.ConstellationNames(ctx)
	if err != nil {
		t.Fatalf("ConstellationNames() error = %v", err)
	}
	var orion *Label
	for i := range names {
		if names[i].Name == "Orion" {
			orion = &names[i]
		}
	}
	if orion == nil {
		t.Fatal("no Orion label")
	}
	betelgeuse, _ := cat.StarNamed("betelgeuse")
	center := coordinates.UnitVectorToEquatorial(orion.Position)
	if sep := coordinates.AngularSeparation(center, betelgeuse.Equatorial()); sep > 15 {
		t.Errorf("Orion label %v deg from Betelgeuse", sep)
	}
}

func TestStarsWhereLimit(t *testing.T) {
	cat, err := BrightStars()
	if err != nil {
		t.Fatal(err)
	}
	stars, err := cat.StarsWhere(context.Background(), Filter{Constellation: "UMa", Limit: 3})
	if err != nil {
		t.Fatal(err)
	}
	if len(stars) != 3 {
		t.Fatalf("got %d stars, want 3", len(stars))
	}
	// Alioth, Dubhe, Alkaid
	if stars[0].CommonName != "Alioth" || stars[2].CommonName != "Alkaid" {
		t.Errorf("unexpected order: %s, %s, %s", stars[0].CommonName, stars[1].CommonName, stars[2].CommonName)
	}
}

func TestStarsWhereCanceled(t *testing.T) {
	cat, err := BrightStars()
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := cat.StarsWhere(ctx, Filter{}); !errors.Is(err, context.Canceled) {
		t.Errorf("StarsWhere() error = %v, want context.Canceled", err)
	}
}

func TestStarByBayer(t *testing.T) {
	cat, err := BrightStars()
	if err != nil {
		t.Fatal(err)
	}
	s, ok := cat.StarByBayer("zet1", "lyr")
	if !ok || s.HR != 7056 {
		t.Errorf("StarByBayer(zet1, lyr) = %+v, %v", s, ok)
	}
	if _, ok := cat.StarByBayer("Omi", "Lyr"); ok {
		t.Error("found a star that is not in the catalog")
	}
}

func TestNewMemoryUnresolvedFigure(t *testing.T) {
	data := Data{
		Stars: []Star{{HR: 1, RA: 10, Dec: 10, Bayer: "Alp", Constellation: "Xyz"}},
		Figures: []Figure{{
			Constellation: "Xyz",
			Segments:      [][2]string{{"Alp", "Bet"}},
		}},
	}
	if _, err := NewMemory(data); err == nil || !strings.Contains(err.Error(), "Bet") {
		t.Errorf("NewMemory() error = %v, want missing Bet", err)
	}
}

func TestNewMemoryInvalidStar(t *testing.T) {
	data := Data{Stars: []Star{{HR: 2, RA: 10, Dec: 95}}}
	if _, err := NewMemory(data); err == nil {
		t.Error("expected error for declination out of range")
	}
}

func TestLoadMemory(t *testing.T) {
	const doc = `{
		"stars": [
			{"hr": 1, "ra": 0, "dec": 0, "magnitude": 2, "bayer": "Alp", "constellation": "Tst"},
			{"hr": 2, "ra": 10, "dec": 0, "magnitude": 1, "bayer": "Bet", "constellation": "Tst"}
		],
		"figures": [{"constellation": "Tst", "segments": [["Alp", "Bet"]]}],
		"constellations": [{"abbreviation": "Tst", "name": "Test"}]
	}`
	cat, err := LoadMemory(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("LoadMemory() error = %v", err)
	}
	lines, _ := cat.ConstellationLines(context.Background())
	if len(lines) != 1 || lines[0].First.X != 1 {
		t.Errorf("lines = %+v", lines)
	}
	names, _ := cat.ConstellationNames(context.Background())
	if len(names) != 1 {
		t.Fatalf("names = %+v", names)
	}
	mid := coordinates.UnitVectorToEquatorial(names[0].Position)
	if math.Abs(mid.RightAscension-5) > 1e-9 || math.Abs(mid.Declination) > 1e-9 {
		t.Errorf("label at %+v, want (5, 0)", mid)
	}

	if _, err := LoadMemory(strings.NewReader("{")); err == nil {
		t.Error("expected decode error")
	}
}

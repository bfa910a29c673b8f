package main

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/unklstewy/skyscope/pkg/catalog"
	"github.com/unklstewy/skyscope/pkg/coordinates"
)

func TestReadStarsCSV(t *testing.T) {
	input := `hr,ra,dec,magnitude,spectral_type,common_name,bayer,flamsteed,constellation
# Orion
2061, 05 55 10.3, +07 24 25, 0.50, M1Iab, Betelgeuse, Alp, 58, Ori
1713,78.6345,-8.2016,0.13,B8Ia,Rigel,Bet,19,Ori
`
	stars, err := ReadStarsCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadStarsCSV: %v", err)
	}
	if len(stars) != 2 {
		t.Fatalf("got %d stars, want 2", len(stars))
	}

	b := stars[0]
	if b.HR != 2061 || b.CommonName != "Betelgeuse" || b.Constellation != "Ori" {
		t.Errorf("first star = %+v", b)
	}
	if math.Abs(b.RA-88.792917) > 1e-5 || math.Abs(b.Dec-7.406944) > 1e-5 {
		t.Errorf("Betelgeuse at (%v, %v)", b.RA, b.Dec)
	}
	if stars[1].RA != 78.6345 || stars[1].Dec != -8.2016 {
		t.Errorf("Rigel at (%v, %v)", stars[1].RA, stars[1].Dec)
	}
}

func TestReadStarsCSVErrors(t *testing.T) {
	const header = "hr,ra,dec,magnitude,spectral_type,common_name,bayer,flamsteed,constellation\n"
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"wrong header", "id,ra,dec,magnitude,spectral_type,common_name,bayer,flamsteed,constellation\n", "column 1"},
		{"bad hr", header + "x,10,10,1,,,,,Ori\n", "invalid hr"},
		{"bad ra", header + "1,10 20,10,1,,,,,Ori\n", "line 2: invalid ra"},
		{"dec out of range", header + "1,10,95,1,,,,,Ori\n", "out of range"},
		{"bad magnitude", header + "1,10,10,bright,,,,,Ori\n", "invalid magnitude"},
		{"no constellation", header + "1,10,10,1,,,,,\n", "missing constellation"},
		{"short row", header + "1,10,10\n", "wrong number of fields"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadStarsCSV(strings.NewReader(tt.input))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestReadStarsCSVParseError(t *testing.T) {
	input := "hr,ra,dec,magnitude,spectral_type,common_name,bayer,flamsteed,constellation\n" +
		"1,ten hours,10,1,,,,,Ori\n"
	_, err := ReadStarsCSV(strings.NewReader(input))
	var perr *coordinates.ParseError
	if !errors.As(err, &perr) {
		t.Errorf("err = %v, want ParseError", err)
	}
}

func TestMergeStars(t *testing.T) {
	data, err := catalog.BrightStarData()
	if err != nil {
		t.Fatalf("BrightStarData: %v", err)
	}
	before := len(data.Stars)

	added, replaced := MergeStars(&data, []catalog.Star{
		{HR: 2061, RA: 88.7929, Dec: 7.4071, Magnitude: 0.42, CommonName: "Betelgeuse", Bayer: "Alp", Constellation: "Ori"},
		{HR: 9999, RA: 10, Dec: 10, Magnitude: 5, Constellation: "Psc"},
		{HR: 9999, RA: 11, Dec: 11, Magnitude: 5, Constellation: "Psc"},
	})
	if added != 1 || replaced != 2 {
		t.Errorf("added, replaced = %d, %d; want 1, 2", added, replaced)
	}
	if len(data.Stars) != before+1 {
		t.Errorf("len = %d, want %d", len(data.Stars), before+1)
	}

	// The merged catalog still resolves every figure
	mem, err := catalog.NewMemory(data)
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}
	s, ok := mem.StarNamed("Betelgeuse")
	if !ok || s.Magnitude != 0.42 {
		t.Errorf("Betelgeuse = %+v, %v", s, ok)
	}
}

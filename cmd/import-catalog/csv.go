package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/unklstewy/skyscope/pkg/catalog"
	"github.com/unklstewy/skyscope/pkg/coordinates"
)

// starColumns is the CSV header, in order
var starColumns = []string{
	"hr", "ra", "dec", "magnitude", "spectral_type",
	"common_name", "bayer", "flamsteed", "constellation",
}

// ReadStarsCSV parses star rows. The first row must be the header.
func ReadStarsCSV(r io.Reader) ([]catalog.Star, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = len(starColumns)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	for i, name := range starColumns {
		if !strings.EqualFold(strings.TrimSpace(header[i]), name) {
			return nil, fmt.Errorf("column %d is %q, want %q", i+1, header[i], name)
		}
	}

	var stars []catalog.Star
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := reader.FieldPos(0)
		star, err := parseStar(record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		stars = append(stars, star)
	}
	return stars, nil
}

func parseStar(record []string) (catalog.Star, error) {
	hr, err := strconv.Atoi(record[0])
	if err != nil || hr <= 0 {
		return catalog.Star{}, fmt.Errorf("invalid hr %q", record[0])
	}
	ra, err := parseAngle(record[1], coordinates.ParseHMS)
	if err != nil {
		return catalog.Star{}, fmt.Errorf("invalid ra: %w", err)
	}
	dec, err := parseAngle(record[2], coordinates.ParseDMS)
	if err != nil {
		return catalog.Star{}, fmt.Errorf("invalid dec: %w", err)
	}
	mag, err := strconv.ParseFloat(record[3], 64)
	if err != nil {
		return catalog.Star{}, fmt.Errorf("invalid magnitude %q", record[3])
	}

	star := catalog.Star{
		HR:            hr,
		RA:            coordinates.NormalizeRA(ra),
		Dec:           dec,
		Magnitude:     mag,
		SpectralType:  record[4],
		CommonName:    record[5],
		Bayer:         record[6],
		Flamsteed:     record[7],
		Constellation: record[8],
	}
	if !star.Equatorial().Valid() {
		return catalog.Star{}, fmt.Errorf("declination %v out of range", dec)
	}
	if star.Constellation == "" {
		return catalog.Star{}, errors.New("missing constellation")
	}
	return star, nil
}

// parseAngle reads decimal degrees, or sexagesimal text with sexagesimal
func parseAngle(s string, sexagesimal func(string) (float64, error)) (float64, error) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, nil
	}
	return sexagesimal(s)
}

// MergeStars adds extra to data, replacing stars with the same HR number.
func MergeStars(data *catalog.Data, extra []catalog.Star) (added, replaced int) {
	index := make(map[int]int, len(data.Stars))
	for i, s := range data.Stars {
		index[s.HR] = i
	}
	for _, s := range extra {
		if i, ok := index[s.HR]; ok {
			data.Stars[i] = s
			replaced++
			continue
		}
		index[s.HR] = len(data.Stars)
		data.Stars = append(data.Stars, s)
		added++
	}
	return added, replaced
}

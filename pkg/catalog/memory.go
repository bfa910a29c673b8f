package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/unklstewy/skyscope/pkg/coordinates"
)

//go:embed data/bright_stars.json
var brightStarsJSON []byte

// Figure is a constellation stick figure given as pairs of Bayer letters.
type Figure struct {
	Constellation string      `json:"constellation"`
	Segments      [][2]string `json:"segments"`
}

// Constellation names a constellation by its IAU abbreviation.
type Constellation struct {
	Abbreviation string `json:"abbreviation"`
	Name         string `json:"name"`
}

// Data is the serialized form of a catalog.
type Data struct {
	Stars          []Star          `json:"stars"`
	Figures        []Figure        `json:"figures"`
	Constellations []Constellation `json:"constellations"`
}

// Memory is a Catalog held entirely in memory. It is immutable after
// construction and safe for concurrent use.
type Memory struct {
	stars []Star
	lines []ConstellationLine
	names []Label
}

var _ Catalog = (*Memory)(nil)

// NewMemory builds a catalog from data. Figure segments are resolved against
// the stars by Bayer letter and constellation; a segment naming a star that
// is not in the catalog is an error. Constellation labels are placed at the
// centroid of the constellation's stars.
func NewMemory(data Data) (*Memory, error) {
	stars := make([]Star, len(data.Stars))
	copy(stars, data.Stars)
	sort.SliceStable(stars, func(i, j int) bool {
		return stars[i].Magnitude < stars[j].Magnitude
	})

	byBayer := make(map[string]Star, len(stars))
	members := make(map[string][]coordinates.UnitVector)
	for _, s := range stars {
		if !s.Equatorial().Valid() {
			return nil, fmt.Errorf("star HR %d has invalid position (%v, %v)", s.HR, s.RA, s.Dec)
		}
		if s.Bayer != "" {
			byBayer[bayerKey(s.Bayer, s.Constellation)] = s
		}
		key := strings.ToLower(s.Constellation)
		members[key] = append(members[key], s.UnitVector())
	}

	var lines []ConstellationLine
	for _, fig := range data.Figures {
		for _, seg := range fig.Segments {
			first, ok := byBayer[bayerKey(seg[0], fig.Constellation)]
			if !ok {
				return nil, fmt.Errorf("figure %s: no star %s %s", fig.Constellation, seg[0], fig.Constellation)
			}
			second, ok := byBayer[bayerKey(seg[1], fig.Constellation)]
			if !ok {
				return nil, fmt.Errorf("figure %s: no star %s %s", fig.Constellation, seg[1], fig.Constellation)
			}
			lines = append(lines, ConstellationLine{
				Constellation: fig.Constellation,
				First:         first.UnitVector(),
				Second:        second.UnitVector(),
			})
		}
	}

	var names []Label
	for _, c := range data.Constellations {
		points := members[strings.ToLower(c.Abbreviation)]
		if len(points) == 0 {
			continue
		}
		names = append(names, Label{Name: c.Name, Position: Centroid(points)})
	}

	return &Memory{stars: stars, lines: lines, names: names}, nil
}

// LoadMemory reads catalog JSON from r.
func LoadMemory(r io.Reader) (*Memory, error) {
	data, err := DecodeData(r)
	if err != nil {
		return nil, err
	}
	return NewMemory(data)
}

// DecodeData reads catalog JSON from r without resolving it.
func DecodeData(r io.Reader) (Data, error) {
	var data Data
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return Data{}, fmt.Errorf("failed to decode catalog: %w", err)
	}
	return data, nil
}

// BrightStars returns the built-in catalog of the brightest naked-eye stars
// and the figures of the constellations they belong to.
func BrightStars() (*Memory, error) {
	data, err := BrightStarData()
	if err != nil {
		return nil, err
	}
	return NewMemory(data)
}

// BrightStarData returns the raw built-in catalog.
func BrightStarData() (Data, error) {
	var data Data
	if err := json.Unmarshal(brightStarsJSON, &data); err != nil {
		return Data{}, fmt.Errorf("failed to decode built-in catalog: %w", err)
	}
	return data, nil
}

// StarsWhere returns the stars matching filter, brightest first.
func (m *Memory) StarsWhere(ctx context.Context, filter Filter) ([]Star, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []Star
	for _, s := range m.stars {
		if !filter.Matches(s) {
			continue
		}
		out = append(out, s)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

// ConstellationLines returns every figure segment.
func (m *Memory) ConstellationLines(ctx context.Context) ([]ConstellationLine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]ConstellationLine, len(m.lines))
	copy(out, m.lines)
	return out, nil
}

// ConstellationNames returns the constellation label positions.
func (m *Memory) ConstellationNames(ctx context.Context) ([]Label, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]Label, len(m.names))
	copy(out, m.names)
	return out, nil
}

// StarByBayer looks a star up by Bayer letter and constellation, both
// compared case-insensitively.
func (m *Memory) StarByBayer(bayer, constellation string) (Star, bool) {
	key := bayerKey(bayer, constellation)
	for _, s := range m.stars {
		if s.Bayer != "" && bayerKey(s.Bayer, s.Constellation) == key {
			return s, true
		}
	}
	return Star{}, false
}

// StarNamed looks a star up by common name, case-insensitively.
func (m *Memory) StarNamed(name string) (Star, bool) {
	for _, s := range m.stars {
		if s.CommonName != "" && strings.EqualFold(s.CommonName, name) {
			return s, true
		}
	}
	return Star{}, false
}

// Len returns the number of stars.
func (m *Memory) Len() int {
	return len(m.stars)
}

func bayerKey(bayer, constellation string) string {
	return strings.ToLower(bayer) + " " + strings.ToLower(constellation)
}

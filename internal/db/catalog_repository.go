package db

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"

	"github.com/lib/pq"

	"github.com/unklstewy/skyscope/pkg/catalog"
	"github.com/unklstewy/skyscope/pkg/coordinates"
)

// CatalogRepository serves the star catalog from PostgreSQL.
// It implements catalog.Catalog.
type CatalogRepository struct {
	db *DB
}

var _ catalog.Catalog = (*CatalogRepository)(nil)

// NewCatalogRepository creates a new catalog repository.
func NewCatalogRepository(db *DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

const starColumns = `hr, ra, dec, magnitude, spectral_type, common_name, bayer, flamsteed, constellation`

// starQuery builds the SELECT for a filter. Placeholders are numbered in
// the order the arguments are returned.
func starQuery(filter catalog.Filter) (string, []interface{}) {
	var (
		where []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.MaxMagnitude != 0 {
		where = append(where, "magnitude <= "+arg(filter.MaxMagnitude))
	}
	if filter.Constellation != "" {
		where = append(where, "lower(constellation) = lower("+arg(filter.Constellation)+")")
	}
	if filter.Named {
		where = append(where, "common_name <> ''")
	}
	if filter.Near != nil {
		// Inside the cone when the dot product with its center is at
		// least cos(radius)
		c := coordinates.EquatorialToUnitVector(filter.Near.Center)
		minDot := math.Cos(filter.Near.Radius * coordinates.DegreesToRadians)
		where = append(where, fmt.Sprintf("x * %s + y * %s + z * %s >= %s",
			arg(c.X), arg(c.Y), arg(c.Z), arg(minDot)))
	}

	query := "SELECT " + starColumns + " FROM stars"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY magnitude, hr"
	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
	}
	return query, args
}

// StarsWhere returns the stars matching filter, brightest first.
func (r *CatalogRepository) StarsWhere(ctx context.Context, filter catalog.Filter) ([]catalog.Star, error) {
	query, args := starQuery(filter)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query stars: %w", err)
	}
	defer rows.Close()

	var stars []catalog.Star
	for rows.Next() {
		var s catalog.Star
		if err := rows.Scan(&s.HR, &s.RA, &s.Dec, &s.Magnitude, &s.SpectralType,
			&s.CommonName, &s.Bayer, &s.Flamsteed, &s.Constellation); err != nil {
			return nil, fmt.Errorf("failed to scan star: %w", err)
		}
		stars = append(stars, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read stars: %w", err)
	}
	return stars, nil
}

// ConstellationLines returns every constellation figure segment.
func (r *CatalogRepository) ConstellationLines(ctx context.Context) ([]catalog.ConstellationLine, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT l.constellation, a.ra, a.dec, b.ra, b.dec
		 FROM constellation_lines l
		 JOIN stars a ON a.hr = l.first_hr
		 JOIN stars b ON b.hr = l.second_hr
		 ORDER BY l.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query constellation lines: %w", err)
	}
	defer rows.Close()

	var lines []catalog.ConstellationLine
	for rows.Next() {
		var (
			line          catalog.ConstellationLine
			first, second coordinates.EquatorialCoordinates
		)
		if err := rows.Scan(&line.Constellation,
			&first.RightAscension, &first.Declination,
			&second.RightAscension, &second.Declination); err != nil {
			return nil, fmt.Errorf("failed to scan constellation line: %w", err)
		}
		line.First = coordinates.EquatorialToUnitVector(first)
		line.Second = coordinates.EquatorialToUnitVector(second)
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read constellation lines: %w", err)
	}
	return lines, nil
}

// ConstellationNames returns a label at the centroid of each constellation's stars.
func (r *CatalogRepository) ConstellationNames(ctx context.Context) ([]catalog.Label, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.name, s.x, s.y, s.z
		 FROM constellations c
		 JOIN stars s ON lower(s.constellation) = lower(c.abbreviation)
		 ORDER BY c.name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query constellation names: %w", err)
	}
	defer rows.Close()

	var (
		labels []catalog.Label
		name   string
		points []coordinates.UnitVector
	)
	flush := func() {
		if len(points) > 0 {
			labels = append(labels, catalog.Label{Name: name, Position: catalog.Centroid(points)})
		}
		points = points[:0]
	}
	for rows.Next() {
		var (
			rowName string
			p       coordinates.UnitVector
		)
		if err := rows.Scan(&rowName, &p.X, &p.Y, &p.Z); err != nil {
			return nil, fmt.Errorf("failed to scan constellation: %w", err)
		}
		if rowName != name {
			flush()
			name = rowName
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read constellations: %w", err)
	}
	flush()
	return labels, nil
}

// StarByHR looks up a single star.
// Returns nil when the star is not in the catalog.
func (r *CatalogRepository) StarByHR(ctx context.Context, hr int) (*catalog.Star, error) {
	var s catalog.Star
	err := r.db.QueryRowContext(ctx,
		"SELECT "+starColumns+" FROM stars WHERE hr = $1", hr,
	).Scan(&s.HR, &s.RA, &s.Dec, &s.Magnitude, &s.SpectralType,
		&s.CommonName, &s.Bayer, &s.Flamsteed, &s.Constellation)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query star %d: %w", hr, err)
	}
	return &s, nil
}

// ImportResult counts the rows written by Import.
type ImportResult struct {
	Stars          int `json:"stars"`
	Lines          int `json:"lines"`
	Constellations int `json:"constellations"`
}

// Import replaces the stored catalog with data in one transaction.
// Figure segments are resolved to star numbers first, so a figure naming
// a missing star aborts the import before anything is written.
func (r *CatalogRepository) Import(ctx context.Context, data catalog.Data) (ImportResult, error) {
	mem, err := catalog.NewMemory(data)
	if err != nil {
		return ImportResult{}, fmt.Errorf("invalid catalog: %w", err)
	}

	type segment struct {
		constellation string
		first, second int
	}
	var segments []segment
	for _, fig := range data.Figures {
		for _, seg := range fig.Segments {
			a, _ := mem.StarByBayer(seg[0], fig.Constellation)
			b, _ := mem.StarByBayer(seg[1], fig.Constellation)
			segments = append(segments, segment{fig.Constellation, a.HR, b.HR})
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `TRUNCATE constellation_lines, constellations, stars`); err != nil {
		return ImportResult{}, fmt.Errorf("failed to clear catalog: %w", err)
	}

	err = copyRows(ctx, tx, "stars", []string{
		"hr", "ra", "dec", "magnitude", "spectral_type", "common_name",
		"bayer", "flamsteed", "constellation", "x", "y", "z",
	}, len(data.Stars), func(i int) []interface{} {
		s := data.Stars[i]
		v := s.UnitVector()
		return []interface{}{s.HR, coordinates.NormalizeRA(s.RA), s.Dec, s.Magnitude, s.SpectralType,
			s.CommonName, s.Bayer, s.Flamsteed, s.Constellation, v.X, v.Y, v.Z}
	})
	if err != nil {
		return ImportResult{}, err
	}

	err = copyRows(ctx, tx, "constellations", []string{"abbreviation", "name"},
		len(data.Constellations), func(i int) []interface{} {
			c := data.Constellations[i]
			return []interface{}{c.Abbreviation, c.Name}
		})
	if err != nil {
		return ImportResult{}, err
	}

	err = copyRows(ctx, tx, "constellation_lines", []string{"constellation", "first_hr", "second_hr"},
		len(segments), func(i int) []interface{} {
			s := segments[i]
			return []interface{}{s.constellation, s.first, s.second}
		})
	if err != nil {
		return ImportResult{}, err
	}

	if err := tx.Commit(); err != nil {
		return ImportResult{}, fmt.Errorf("failed to commit catalog: %w", err)
	}

	return ImportResult{
		Stars:          len(data.Stars),
		Lines:          len(segments),
		Constellations: len(data.Constellations),
	}, nil
}

// copyRows bulk loads n rows into table with COPY FROM STDIN.
func copyRows(ctx context.Context, tx *sql.Tx, table string, columns []string, n int, row func(i int) []interface{}) error {
	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(table, columns...))
	if err != nil {
		return fmt.Errorf("failed to prepare copy into %s: %w", table, err)
	}
	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, row(i)...); err != nil {
			stmt.Close()
			return fmt.Errorf("failed to copy row %d into %s: %w", i, table, err)
		}
	}
	// Flush buffered rows
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return fmt.Errorf("failed to flush copy into %s: %w", table, err)
	}
	if err := stmt.Close(); err != nil {
		return fmt.Errorf("failed to finish copy into %s: %w", table, err)
	}
	return nil
}

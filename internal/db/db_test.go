package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/lib/pq"

	"github.com/unklstewy/skyscope/internal/logging"
	"github.com/unklstewy/skyscope/pkg/catalog"
	"github.com/unklstewy/skyscope/pkg/config"
	"github.com/unklstewy/skyscope/pkg/coordinates"
)

func TestConnectionString(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host:     "db.local",
		Port:     5433,
		Username: "sky",
		Password: "secret",
		Database: "stars",
		SSLMode:  "require",
	}
	want := "host=db.local port=5433 user=sky password=secret dbname=stars sslmode=require"
	if got := ConnectionString(cfg); got != want {
		t.Errorf("ConnectionString() = %q, want %q", got, want)
	}
}

// TestConnect tests that an unreachable server produces a wrapped error.
func TestConnect(t *testing.T) {
	t.Run("Unreachable server", func(t *testing.T) {
		cfg := config.DatabaseConfig{
			Host:         "127.0.0.1",
			Port:         1, // nothing listens here
			Username:     "testuser",
			Password:     "testpass",
			Database:     "testdb",
			SSLMode:      "disable",
			MaxOpenConns: 2,
			MaxIdleConns: 1,
		}

		db, err := Connect(context.Background(), cfg)
		if err == nil {
			db.Close()
			t.Skip("a database answered on port 1")
		}
		if !strings.Contains(err.Error(), "failed to ping database") {
			t.Errorf("Expected ping error, got: %v", err)
		}
	})
}

func TestReconnectWithRetryGivesUp(t *testing.T) {
	cfg := config.DatabaseConfig{Host: "127.0.0.1", Port: 1, SSLMode: "disable"}
	policy := reconnectPolicy()
	policy.MaxRetries = 1
	policy.InitialDelay = time.Millisecond

	_, err := ReconnectWithRetry(context.Background(), cfg, policy, logging.Nop())
	if err == nil {
		t.Skip("a database answered on port 1")
	}
	if !strings.Contains(err.Error(), "max retries (1) exceeded") {
		t.Errorf("Expected max retries error, got: %v", err)
	}
}

func TestHealthCheckNil(t *testing.T) {
	if err := HealthCheck(context.Background(), nil); err == nil {
		t.Error("Expected error for nil database")
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"refused", errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"), true},
		{"reset", fmt.Errorf("query: %w", errors.New("read: Connection Reset by peer")), true},
		{"eof", errors.New("unexpected EOF"), true},
		{"syntax", errors.New(`pq: syntax error at or near "SELEC"`), false},
		{"pq connection failure", &pq.Error{Code: "08006"}, true},
		{"pq admin shutdown", &pq.Error{Code: "57P01"}, true},
		{"pq unique violation", &pq.Error{Code: "23505"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsConnectionError(tt.err); got != tt.want {
				t.Errorf("IsConnectionError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestWithRetry(t *testing.T) {
	t.Run("Retries connection errors", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), 3, logging.Nop(), func(ctx context.Context) error {
			calls++
			if calls < 2 {
				return errors.New("broken pipe")
			}
			return nil
		})
		if err != nil {
			t.Fatalf("Expected success, got: %v", err)
		}
		if calls != 2 {
			t.Errorf("Expected 2 calls, got %d", calls)
		}
	})

	t.Run("Returns query errors at once", func(t *testing.T) {
		calls := 0
		queryErr := errors.New("relation \"stars\" does not exist")
		err := WithRetry(context.Background(), 3, logging.Nop(), func(ctx context.Context) error {
			calls++
			return queryErr
		})
		if !errors.Is(err, queryErr) {
			t.Errorf("Expected query error, got: %v", err)
		}
		if calls != 1 {
			t.Errorf("Expected 1 call, got %d", calls)
		}
	})
}

func TestStarQuery(t *testing.T) {
	t.Run("Empty filter", func(t *testing.T) {
		query, args := starQuery(catalog.Filter{})
		want := "SELECT " + starColumns + " FROM stars ORDER BY magnitude, hr"
		if query != want {
			t.Errorf("query = %q, want %q", query, want)
		}
		if len(args) != 0 {
			t.Errorf("Expected no args, got %v", args)
		}
	})

	t.Run("All conditions", func(t *testing.T) {
		query, args := starQuery(catalog.Filter{
			MaxMagnitude:  4,
			Constellation: "Ori",
			Named:         true,
			Near: &catalog.Cone{
				Center: coordinates.EquatorialCoordinates{RightAscension: 90, Declination: 0},
				Radius: 60,
			},
			Limit: 10,
		})

		for _, fragment := range []string{
			"magnitude <= $1",
			"lower(constellation) = lower($2)",
			"common_name <> ''",
			"x * $3 + y * $4 + z * $5 >= $6",
			"ORDER BY magnitude, hr LIMIT $7",
		} {
			if !strings.Contains(query, fragment) {
				t.Errorf("query %q missing %q", query, fragment)
			}
		}
		if len(args) != 7 {
			t.Fatalf("Expected 7 args, got %d: %v", len(args), args)
		}
		if args[0] != 4.0 || args[1] != "Ori" || args[6] != 10 {
			t.Errorf("Unexpected args %v", args)
		}
		// RA 90 on the equator is the +y axis
		if y := args[3].(float64); y < 0.999999 {
			t.Errorf("cone center y = %v, want 1", y)
		}
		if minDot := args[5].(float64); minDot < 0.499999 || minDot > 0.500001 {
			t.Errorf("cos(60) = %v, want 0.5", minDot)
		}
	})
}

// testDatabase connects to the database named by SKYSCOPE_TEST_DB_HOST,
// or skips the test when it is unset.
func testDatabase(t *testing.T) *DB {
	t.Helper()
	host := os.Getenv("SKYSCOPE_TEST_DB_HOST")
	if host == "" {
		t.Skip("SKYSCOPE_TEST_DB_HOST not set")
	}
	cfg := config.DefaultConfig().Database
	cfg.Host = host
	cfg.Password = os.Getenv("SKYSCOPE_TEST_DB_PASSWORD")

	ctx := context.Background()
	db, err := Connect(ctx, cfg)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.InitSchema(ctx); err != nil {
		t.Fatalf("Failed to init schema: %v", err)
	}
	return db
}

func TestCatalogRepositoryRoundTrip(t *testing.T) {
	db := testDatabase(t)
	ctx := context.Background()
	repo := NewCatalogRepository(db)

	data, err := catalog.BrightStarData()
	if err != nil {
		t.Fatalf("Failed to load built-in data: %v", err)
	}
	result, err := repo.Import(ctx, data)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if result.Stars != len(data.Stars) {
		t.Errorf("Imported %d stars, want %d", result.Stars, len(data.Stars))
	}

	stats, err := db.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.Stars != len(data.Stars) || stats.ConstellationLines != result.Lines {
		t.Errorf("Unexpected stats %+v for import %+v", stats, result)
	}

	mem, err := catalog.NewMemory(data)
	if err != nil {
		t.Fatalf("NewMemory failed: %v", err)
	}
	filter := catalog.Filter{Constellation: "uma", Limit: 3}
	fromDB, err := repo.StarsWhere(ctx, filter)
	if err != nil {
		t.Fatalf("StarsWhere failed: %v", err)
	}
	fromMem, _ := mem.StarsWhere(ctx, filter)
	if len(fromDB) != len(fromMem) {
		t.Fatalf("Got %d stars, want %d", len(fromDB), len(fromMem))
	}
	for i := range fromDB {
		if fromDB[i].HR != fromMem[i].HR {
			t.Errorf("Star %d: HR %d, want %d", i, fromDB[i].HR, fromMem[i].HR)
		}
	}

	lines, err := repo.ConstellationLines(ctx)
	if err != nil {
		t.Fatalf("ConstellationLines failed: %v", err)
	}
	if len(lines) != result.Lines {
		t.Errorf("Got %d lines, want %d", len(lines), result.Lines)
	}

	names, err := repo.ConstellationNames(ctx)
	if err != nil {
		t.Fatalf("ConstellationNames failed: %v", err)
	}
	if len(names) != len(data.Constellations) {
		t.Errorf("Got %d labels, want %d", len(names), len(data.Constellations))
	}

	star, err := repo.StarByHR(ctx, fromDB[0].HR)
	if err != nil || star == nil {
		t.Fatalf("StarByHR failed: %v", err)
	}
	missing, err := repo.StarByHR(ctx, -1)
	if err != nil || missing != nil {
		t.Errorf("Expected nil for missing star, got %v, %v", missing, err)
	}
}

func TestImportRejectsUnresolvedFigure(t *testing.T) {
	repo := NewCatalogRepository(nil)
	data := catalog.Data{
		Stars: []catalog.Star{{HR: 1, RA: 10, Dec: 10, Magnitude: 1, Bayer: "Alp", Constellation: "Tst"}},
		Figures: []catalog.Figure{
			{Constellation: "Tst", Segments: [][2]string{{"Alp", "Bet"}}},
		},
	}
	// Validation fails before the nil database is touched
	if _, err := repo.Import(context.Background(), data); err == nil {
		t.Error("Expected error for unresolved figure")
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/unklstewy/skyscope/internal/db"
	"github.com/unklstewy/skyscope/internal/logging"
	"github.com/unklstewy/skyscope/pkg/alpaca"
	"github.com/unklstewy/skyscope/pkg/catalog"
	"github.com/unklstewy/skyscope/pkg/config"
	"github.com/unklstewy/skyscope/pkg/coordinates"
)

func main() {
	configPath := flag.String("config", "configs/config.json", "Path to configuration file")
	minAlt := flag.Float64("min-alt", 10, "Lowest altitude listed, in degrees")
	maxMag := flag.Float64("max-mag", 0, "Faintest magnitude listed (0 = all)")
	flag.Parse()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	ctx := context.Background()
	stars, err := loadStars(ctx, cfg, catalog.Filter{MaxMagnitude: *maxMag})
	if err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}

	m := model{
		stars:    stars,
		observer: cfg.Observer.ObserverPosition(),
		sidereal: coordinates.SiderealModel(cfg.Observer.SiderealModel),
		minAlt:   *minAlt,
		sunLimit: cfg.Telescope.SunAvoidanceDegrees,
		now:      time.Now,
		zoom:     1.0,
	}

	if cfg.Telescope.Enabled {
		// The TUI owns the terminal, so the client stays quiet
		client := alpaca.NewClient(cfg.Telescope, alpaca.WithLogger(logging.Nop()))
		if err := client.Connect(ctx); err != nil {
			log.Printf("Telescope not reachable, running without it: %v", err)
		} else {
			defer client.Disconnect(context.Background())
			m.mount = client
		}
	}

	// Initial data load
	m.refresh()

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadStars reads the catalog database when enabled and the built-in
// bright star list otherwise.
func loadStars(ctx context.Context, cfg *config.Config, filter catalog.Filter) ([]catalog.Star, error) {
	var cat catalog.Catalog
	if cfg.Database.Enabled {
		database, err := db.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		defer database.Close()
		cat = db.NewCatalogRepository(database)
	} else {
		mem, err := catalog.BrightStars()
		if err != nil {
			return nil, err
		}
		cat = mem
	}
	return cat.StarsWhere(ctx, filter)
}

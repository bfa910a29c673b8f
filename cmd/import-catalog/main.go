package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/unklstewy/skyscope/internal/db"
	"github.com/unklstewy/skyscope/internal/logging"
	"github.com/unklstewy/skyscope/internal/retry"
	"github.com/unklstewy/skyscope/pkg/catalog"
	"github.com/unklstewy/skyscope/pkg/config"
)

// Star Catalog Importer
// Loads a star catalog into PostgreSQL for the sky chart.
//
// The base catalog is the built-in bright star list or a JSON file in the
// same format. A CSV file of extra stars may be merged on top of it:
//
//	hr,ra,dec,magnitude,spectral_type,common_name,bayer,flamsteed,constellation
//	2061,05 55 10.3,+07 24 25,0.50,M1Iab,Betelgeuse,Alp,58,Ori
//
// RA and Dec may be sexagesimal or decimal degrees. Rows replace catalog
// stars with the same HR number.

func main() {
	configPath := flag.String("config", "configs/config.json", "Path to configuration file")
	catalogPath := flag.String("catalog", "", "Catalog JSON file (default: built-in bright stars)")
	starsPath := flag.String("stars", "", "CSV file of stars to merge into the catalog")
	dryRun := flag.Bool("dry-run", false, "Validate the catalog without writing it")
	flag.Parse()

	log.Println("===========================================")
	log.Println("  Star Catalog Importer")
	log.Println("===========================================")

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	data, err := loadData(*catalogPath)
	if err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}
	log.Printf("✓ Catalog loaded: %d stars, %d figures", len(data.Stars), len(data.Figures))

	if *starsPath != "" {
		f, err := os.Open(*starsPath)
		if err != nil {
			log.Fatalf("Failed to open %s: %v", *starsPath, err)
		}
		extra, err := ReadStarsCSV(f)
		f.Close()
		if err != nil {
			log.Fatalf("Failed to read %s: %v", *starsPath, err)
		}
		added, replaced := MergeStars(&data, extra)
		log.Printf("✓ Merged %s: %d added, %d replaced", *starsPath, added, replaced)
	}

	// Resolving the figures validates the catalog before touching the database
	mem, err := catalog.NewMemory(data)
	if err != nil {
		log.Fatalf("Invalid catalog: %v", err)
	}
	log.Printf("✓ Catalog valid: %d stars", mem.Len())
	if *dryRun {
		log.Println("Dry run, nothing written")
		return
	}

	logger, err := logging.New(os.Stderr, cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	// Connect to database
	log.Println("Connecting to database...")
	ctx := context.Background()
	database, err := db.ReconnectWithRetry(ctx, cfg.Database, retry.DefaultConfig(), logger)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()
	log.Println("✓ Database connected")

	if err := database.InitSchema(ctx); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}
	log.Println("✓ Schema initialized")

	repo := db.NewCatalogRepository(database)
	result, err := repo.Import(ctx, data)
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	stats, err := database.GetStats(ctx)
	if err != nil {
		log.Printf("Warning: Failed to read stats: %v", err)
	}

	// Summary
	log.Println("\n===========================================")
	log.Println("Import Complete")
	log.Println("===========================================")
	log.Printf("Stars: %d", result.Stars)
	log.Printf("Constellation lines: %d", result.Lines)
	log.Printf("Constellations: %d", result.Constellations)
	if err == nil {
		log.Printf("Database now holds %d stars, %d lines, %d constellations",
			stats.Stars, stats.ConstellationLines, stats.Constellations)
	}
}

// loadData reads a catalog JSON file, or the built-in catalog when path is empty.
func loadData(path string) (catalog.Data, error) {
	if path == "" {
		return catalog.BrightStarData()
	}
	f, err := os.Open(path)
	if err != nil {
		return catalog.Data{}, err
	}
	defer f.Close()
	return catalog.DecodeData(f)
}

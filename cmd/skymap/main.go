package main

import (
	"context"
	"flag"
	"fmt"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-kit/kit/log"

	"github.com/unklstewy/skyscope/internal/db"
	"github.com/unklstewy/skyscope/internal/engine"
	"github.com/unklstewy/skyscope/internal/logging"
	"github.com/unklstewy/skyscope/pkg/alpaca"
	"github.com/unklstewy/skyscope/pkg/catalog"
	"github.com/unklstewy/skyscope/pkg/config"
	"github.com/unklstewy/skyscope/pkg/coordinates"
)

// chartFOV is the field of view restored by the 0 key
const chartFOV = 90.0

var (
	// Version information (set by build flags)
	version = "dev"
	commit  = "unknown"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "configs/config.json", "Path to configuration file")
	target := flag.String("target", "", "Initial chart center, e.g. \"05 35 17 -05 23 28\"")
	showVersion := flag.Bool("version", false, "Show version information")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("skymap version %s (commit: %s)\n", version, commit)
		os.Exit(0)
	}
	if *showHelp {
		printHelp()
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		stdlog.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		stdlog.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logs := NewLogManager(100)
	if err := run(ctx, cfg, logs, *target); err != nil {
		stdlog.Fatalf("Application error: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config, logs *LogManager, target string) error {
	logger, err := logging.Filter(logs.Logger(), cfg.Logging.Level)
	if err != nil {
		return err
	}

	cat, closeCatalog, err := openCatalog(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeCatalog()

	var mount engine.Mount
	if cfg.Telescope.Enabled {
		client := alpaca.NewClient(cfg.Telescope, alpaca.WithLogger(logger))
		if err := client.Connect(ctx); err != nil {
			logs.Warn("Telescope not reachable: %v", err)
		} else {
			logs.Info("Telescope connected: %s", cfg.Telescope.BaseURL)
			mount = client
			defer client.Disconnect(context.Background())
		}
	}

	engCfg, err := engine.FromConfig(cfg)
	if err != nil {
		return err
	}
	engCfg.Logger = logger
	// The chart is sized from the terminal once it is drawn
	engCfg.Projection.Width, engCfg.Projection.Height = 0, 0
	eng, err := engine.New(cat, nil, mount, engCfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go eng.Run(ctx)

	if target != "" {
		if err := gotoTarget(ctx, eng, target); err != nil {
			return err
		}
	}

	app := NewApp(&AppConfig{
		Engine:     eng,
		Observer:   cfg.Observer.ObserverPosition(),
		Sidereal:   engCfg.Sidereal,
		DefaultFOV: chartFOV,
		HasMount:   mount != nil,
		Logs:       logs,
	})
	go func() {
		<-ctx.Done()
		app.tviewApp.Stop()
	}()
	return app.Run(ctx)
}

// openCatalog uses the catalog database when enabled and the embedded
// bright star list otherwise.
func openCatalog(ctx context.Context, cfg *config.Config, logger log.Logger) (catalog.Catalog, func(), error) {
	if !cfg.Database.Enabled {
		mem, err := catalog.BrightStars()
		if err != nil {
			return nil, nil, err
		}
		return mem, func() {}, nil
	}
	database, err := db.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db.NewCatalogRepository(database), func() { database.Close() }, nil
}

// gotoTarget centers the chart on a position given as sexagesimal text
func gotoTarget(ctx context.Context, eng *engine.Engine, target string) error {
	eq, err := coordinates.ParseICRS(target)
	if err != nil {
		return err
	}
	_, err = eng.Goto(ctx, eq)
	return err
}

// printHelp prints usage information
func printHelp() {
	fmt.Println("skymap - Terminal sky chart")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  skymap [options]")
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -config string")
	fmt.Println("        Path to configuration file (default: configs/config.json)")
	fmt.Println("  -target string")
	fmt.Println("        Initial chart center as \"hh mm ss ±dd mm ss\"")
	fmt.Println("  -version")
	fmt.Println("        Show version information")
	fmt.Println("  -help")
	fmt.Println("        Show this help message")
	fmt.Println()
	fmt.Println("KEYBOARD SHORTCUTS:")
	fmt.Println("    ←/→/↑/↓        Pan")
	fmt.Println("    +/-            Zoom in/out")
	fmt.Println("    0              Reset field of view")
	fmt.Println("    g              Goto coordinates")
	fmt.Println("    l              Toggle labels")
	fmt.Println("    c              Toggle far side")
	fmt.Println("    s / f / a      Slew, follow, abort telescope")
	fmt.Println("    q or Esc       Quit")
}

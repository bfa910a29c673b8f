// SkyScope server
// Serves the sky chart API, the Aladin Lite viewer page and its websocket bridge
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	stdlog "log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"github.com/unklstewy/skyscope/internal/api"
	"github.com/unklstewy/skyscope/internal/db"
	"github.com/unklstewy/skyscope/internal/engine"
	"github.com/unklstewy/skyscope/internal/logging"
	"github.com/unklstewy/skyscope/internal/retry"
	"github.com/unklstewy/skyscope/pkg/alpaca"
	"github.com/unklstewy/skyscope/pkg/catalog"
	"github.com/unklstewy/skyscope/pkg/config"
	"github.com/unklstewy/skyscope/pkg/viewer"
)

var (
	configPath = flag.String("config", "configs/config.json", "Path to configuration file")
	port       = flag.String("port", "", "HTTP server port (overrides config)")
)

func main() {
	flag.Parse()

	stdlog.Println("🚀 Starting SkyScope server...")

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		stdlog.Fatalf("Failed to load config: %v", err)
	}
	overridePort(cfg, *port)
	if err := cfg.Validate(); err != nil {
		stdlog.Fatalf("Invalid config: %v", err)
	}

	logger, err := logging.New(os.Stdout, cfg.Logging)
	if err != nil {
		stdlog.Fatalf("Failed to set up logging: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		level.Error(logger).Log("msg", "server failed", "err", err)
		os.Exit(1)
	}
	stdlog.Println("✅ Server stopped")
}

func run(ctx context.Context, cfg *config.Config, logger log.Logger) error {
	// Star catalog: PostgreSQL when enabled, the embedded bright star list otherwise
	cat, closeCatalog, err := openCatalog(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeCatalog()

	// External viewer bridge
	var eng *engine.Engine
	bridge := viewer.NewBridge(viewer.BridgeConfig{
		Timeout:           cfg.Viewer.Timeout(),
		CommandsPerSecond: cfg.Viewer.CommandsPerSecond,
		CheckOrigin:       originChecker(cfg.Server.AllowedOrigins),
		Logger:            logger,
		OnConnect: func() {
			if eng != nil {
				eng.ViewerConnected(ctx)
			}
		},
	})
	defer bridge.Close()
	session := viewer.NewSession(bridge, cfg.Viewer.Survey)

	// Telescope mount
	var mount engine.Mount
	if cfg.Telescope.Enabled {
		client := alpaca.NewClient(cfg.Telescope, alpaca.WithLogger(logger))
		if err := client.Connect(ctx); err != nil {
			level.Warn(logger).Log("msg", "telescope not reachable, mount control disabled", "url", cfg.Telescope.BaseURL, "err", err)
		} else {
			stdlog.Printf("🔭 Telescope connected: %s (device %d)", cfg.Telescope.BaseURL, cfg.Telescope.DeviceNumber)
			mount = client
			defer client.Disconnect(context.Background())
		}
	}

	engCfg, err := engine.FromConfig(cfg)
	if err != nil {
		return err
	}
	engCfg.Logger = logger
	eng, err = engine.New(cat, session, mount, engCfg)
	if err != nil {
		return err
	}
	engineDone := make(chan error, 1)
	go func() { engineDone <- eng.Run(ctx) }()

	page := viewer.PageHandler(viewer.PageConfig{
		Target:     cfg.Viewer.Target,
		FOV:        cfg.Viewer.FOV,
		SocketPath: viewer.DefaultSocketPath,
	}, session.Survey)

	srv := api.New(eng, api.Config{
		Observer:       cfg.Observer.ObserverPosition(),
		Sidereal:       engCfg.Sidereal,
		Optics:         cfg.Telescope.Optics,
		Eyepiece:       cfg.Telescope.Eyepiece,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		GestureRate:    cfg.Server.GestureRatePerSecond,
		Bridge:         bridge,
		Page:           page,
		Logger:         logger,
	})

	httpServer := &http.Server{
		Addr:         listenAddr(cfg.Server),
		Handler:      srv,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		stdlog.Printf("📡 Server listening on %s", httpServer.Addr)
		stdlog.Printf("💡 Open http://localhost:%s in your browser for the viewer", cfg.Server.Port)
		var err error
		if cfg.Server.TLSEnabled {
			err = httpServer.ListenAndServeTLS(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile)
		} else {
			err = httpServer.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("failed to serve: %w", err)
		}
	case <-ctx.Done():
	}

	stdlog.Println("👋 Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	if err := <-engineDone; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// overridePort replaces the configured port when the flag was given.
func overridePort(cfg *config.Config, port string) {
	if port != "" {
		cfg.Server.Port = port
	}
}

func listenAddr(server config.ServerConfig) string {
	return net.JoinHostPort(server.Host, server.Port)
}

// openCatalog connects to the catalog database, or falls back to the
// embedded bright star list when the database is disabled.
func openCatalog(ctx context.Context, cfg *config.Config, logger log.Logger) (catalog.Catalog, func(), error) {
	if !cfg.Database.Enabled {
		mem, err := catalog.BrightStars()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load bright star catalog: %w", err)
		}
		stdlog.Printf("✨ Using embedded bright star catalog (%d stars)", mem.Len())
		return mem, func() {}, nil
	}

	database, err := db.ReconnectWithRetry(ctx, cfg.Database, retry.DefaultConfig(), logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.InitSchema(ctx); err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	stats, err := database.GetStats(ctx)
	if err == nil {
		stdlog.Printf("✅ Connected to database: %d stars, %d constellation lines", stats.Stars, stats.ConstellationLines)
		if stats.Stars == 0 {
			level.Warn(logger).Log("msg", "catalog database is empty, run import-catalog first")
		}
	}
	return db.NewCatalogRepository(database), func() { database.Close() }, nil
}

// originChecker restricts websocket upgrades to the allowed origins.
// No configured origins allows any.
func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set["*"] || set[origin]
	}
}

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/unklstewy/skyscope/pkg/attitude"
	"github.com/unklstewy/skyscope/pkg/coordinates"
	"github.com/unklstewy/skyscope/pkg/optics"
	"github.com/unklstewy/skyscope/pkg/projection"
)

// Config represents the complete application configuration.
type Config struct {
	Server     ServerConfig     `json:"server"`
	Database   DatabaseConfig   `json:"database"`
	Observer   ObserverConfig   `json:"observer"`
	Viewer     ViewerConfig     `json:"viewer"`
	Projection ProjectionConfig `json:"projection"`
	Catalog    CatalogConfig    `json:"catalog"`
	Telescope  TelescopeConfig  `json:"telescope"`
	Logging    LoggingConfig    `json:"logging"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	// Port is the HTTP server port (default: 8080)
	Port string `json:"port"`

	// Host is the server bind address (default: "0.0.0.0")
	Host string `json:"host"`

	// TLSEnabled determines if HTTPS should be used
	TLSEnabled bool `json:"tls_enabled"`

	// TLSCertFile is the path to the TLS certificate
	TLSCertFile string `json:"tls_cert_file"`

	// TLSKeyFile is the path to the TLS private key
	TLSKeyFile string `json:"tls_key_file"`

	// AllowedOrigins lists CORS origins for the API (default: all)
	AllowedOrigins []string `json:"allowed_origins"`

	// GestureRatePerSecond limits pan/zoom/tap requests per client
	// 0 = no limit
	GestureRatePerSecond float64 `json:"gesture_rate_per_second"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	// Enabled selects the PostgreSQL catalog instead of the built-in one
	Enabled bool `json:"enabled"`

	// Driver is the database driver (postgres)
	Driver string `json:"driver"`

	// Host is the database server hostname
	Host string `json:"host"`

	// Port is the database server port
	Port int `json:"port"`

	// Database is the database name
	Database string `json:"database"`

	// Username for database authentication
	Username string `json:"username"`

	// Password for database authentication (should be loaded from environment)
	Password string `json:"password"`

	// SSLMode for PostgreSQL connections (disable, require, verify-ca, verify-full)
	SSLMode string `json:"ssl_mode"`

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int `json:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int `json:"max_idle_conns"`
}

// ObserverConfig contains the observer's geographic location.
// It drives the sidereal time used for every equatorial/horizontal conversion.
type ObserverConfig struct {
	// Name is a friendly identifier for this observer location
	Name string `json:"name"`

	// Latitude in decimal degrees (-90 to +90)
	Latitude float64 `json:"latitude"`

	// Longitude in decimal degrees (-180 to +180, east positive)
	Longitude float64 `json:"longitude"`

	// Elevation in meters above sea level
	Elevation float64 `json:"elevation"`

	// TimeZone is the IANA timezone name (e.g., "America/New_York")
	TimeZone string `json:"timezone"`

	// SiderealModel is "mean" (IAU 1982 polynomial) or "apparent"
	// (mean plus nutation in right ascension)
	SiderealModel string `json:"sidereal_model"`
}

// ViewerConfig configures the Aladin Lite viewer page and its bridge.
type ViewerConfig struct {
	// Survey is the initial image survey identifier
	Survey string `json:"survey"`

	// Target is the object the page opens on (e.g., "M31")
	Target string `json:"target"`

	// FOV is the initial field of view in degrees
	FOV float64 `json:"fov"`

	// TimeoutSeconds bounds each viewer round trip
	TimeoutSeconds float64 `json:"timeout_seconds"`

	// CommandsPerSecond limits commands sent to the page
	CommandsPerSecond float64 `json:"commands_per_second"`

	// SyncIntervalSeconds is how often the chart scale is matched to the
	// viewer. 0 = only on request
	SyncIntervalSeconds float64 `json:"sync_interval_seconds"`
}

// ProjectionConfig configures the sky chart projection.
type ProjectionConfig struct {
	// Scale is the initial zoom scale in pixels per sphere radius
	Scale float64 `json:"scale"`

	// Culling hides the far hemisphere
	Culling bool `json:"culling"`

	// Width and Height are the initial chart size in pixels
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	// Calibration holds the viewport matching factors
	Calibration projection.Calibration `json:"calibration"`

	// PointingMode is "top" or "back" for device attitude lookups
	PointingMode string `json:"pointing_mode"`
}

// CatalogConfig selects which stars are drawn.
type CatalogConfig struct {
	// MaxMagnitude is the faintest star drawn (default: 6.5)
	MaxMagnitude float64 `json:"max_magnitude"`

	// ShowLines draws constellation figures
	ShowLines bool `json:"show_lines"`

	// ShowLabels draws constellation and star names
	ShowLabels bool `json:"show_labels"`

	// ShowGrid draws the RA/Dec grid
	ShowGrid bool `json:"show_grid"`
}

// TelescopeConfig contains ASCOM Alpaca mount and optics settings.
type TelescopeConfig struct {
	// Enabled connects to the mount at startup
	Enabled bool `json:"enabled"`

	// BaseURL is the Alpaca server address (e.g., "http://192.168.1.100:11111")
	BaseURL string `json:"base_url"`

	// DeviceNumber is the Alpaca device number (typically 0)
	DeviceNumber int `json:"device_number"`

	// TimeoutSeconds bounds each Alpaca request
	TimeoutSeconds float64 `json:"timeout_seconds"`

	// SunAvoidanceDegrees refuses slews closer than this to the sun
	// 0 = no check
	SunAvoidanceDegrees float64 `json:"sun_avoidance_degrees"`

	// Optics describes the optical tube and eyepiece kit
	Optics optics.Telescope `json:"optics"`

	// Eyepiece is the eyepiece in use, in mm. Its true field is drawn on the chart
	Eyepiece float64 `json:"eyepiece"`

	// MinAltitude and MaxAltitude bound slew targets in degrees.
	// Both 0 = no altitude check
	MinAltitude float64 `json:"min_altitude"`
	MaxAltitude float64 `json:"max_altitude"`

	// MeridianFlipHours is the hour angle at which an equatorial mount
	// flips. 0 = alt-az mount
	MeridianFlipHours float64 `json:"meridian_flip_hours"`
}

// LoggingConfig controls structured log output.
type LoggingConfig struct {
	// Level is debug, info, warn or error (default: info)
	Level string `json:"level"`

	// Format is logfmt or json (default: logfmt)
	Format string `json:"format"`
}

// Load reads configuration from a JSON file.
// If the file doesn't exist, returns a default configuration.
// Fields missing from the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Override with environment variables
	if err := cfg.applyEnvironmentOverrides(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to a JSON file.
func (c *Config) Save(path string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:                 "8080",
			Host:                 "0.0.0.0",
			TLSEnabled:           false,
			GestureRatePerSecond: 60,
		},
		Database: DatabaseConfig{
			Enabled:      false,
			Driver:       "postgres",
			Host:         "localhost",
			Port:         5432,
			Database:     "skyscope",
			Username:     "skyscope",
			SSLMode:      "disable",
			MaxOpenConns: 10,
			MaxIdleConns: 2,
		},
		Observer: ObserverConfig{
			Name:          "Primary Observer",
			Latitude:      0.0,
			Longitude:     0.0,
			Elevation:     0.0,
			TimeZone:      "UTC",
			SiderealModel: string(coordinates.MeanSidereal),
		},
		Viewer: ViewerConfig{
			Survey:              "P/DSS2/color",
			Target:              "M31",
			FOV:                 5.0,
			TimeoutSeconds:      5,
			CommandsPerSecond:   20,
			SyncIntervalSeconds: 0,
		},
		Projection: ProjectionConfig{
			Scale:        projection.DefaultScale,
			Culling:      true,
			Width:        800,
			Height:       600,
			Calibration:  projection.DefaultCalibration(),
			PointingMode: attitude.TopOfDevice.String(),
		},
		Catalog: CatalogConfig{
			MaxMagnitude: 6.5,
			ShowLines:    true,
			ShowLabels:   true,
			ShowGrid:     true,
		},
		Telescope: TelescopeConfig{
			Enabled:             false,
			BaseURL:             "http://localhost:11111",
			DeviceNumber:        0,
			TimeoutSeconds:      10,
			SunAvoidanceDegrees: 10,
			Optics:              optics.DefaultTelescope(),
			Eyepiece:            32,
			MinAltitude:         10,
			MaxAltitude:         85,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "logfmt",
		},
	}
}

// Validate checks the configuration for values that would make the
// application misbehave.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port == "" {
		errs = append(errs, errors.New("server.port is required"))
	}
	if c.Observer.Latitude < -90 || c.Observer.Latitude > 90 {
		errs = append(errs, fmt.Errorf("observer.latitude must be in [-90, 90], got %v", c.Observer.Latitude))
	}
	if c.Observer.Longitude < -180 || c.Observer.Longitude > 180 {
		errs = append(errs, fmt.Errorf("observer.longitude must be in [-180, 180], got %v", c.Observer.Longitude))
	}
	switch coordinates.SiderealModel(c.Observer.SiderealModel) {
	case coordinates.MeanSidereal, coordinates.ApparentSidereal, "":
	default:
		errs = append(errs, fmt.Errorf("observer.sidereal_model must be mean or apparent, got %q", c.Observer.SiderealModel))
	}
	if c.Viewer.FOV <= 0 || c.Viewer.FOV > 180 {
		errs = append(errs, fmt.Errorf("viewer.fov must be in (0, 180], got %v", c.Viewer.FOV))
	}
	if c.Projection.Scale <= 0 {
		errs = append(errs, fmt.Errorf("projection.scale must be positive, got %v", c.Projection.Scale))
	}
	if c.Projection.Width < 0 || c.Projection.Height < 0 {
		errs = append(errs, errors.New("projection width and height must not be negative"))
	}
	if _, err := attitude.ParsePointingMode(c.Projection.PointingMode); err != nil {
		errs = append(errs, fmt.Errorf("projection.pointing_mode: %w", err))
	}
	if c.Telescope.Enabled && c.Telescope.BaseURL == "" {
		errs = append(errs, errors.New("telescope.base_url is required when the telescope is enabled"))
	}
	if t := c.Telescope; t.HasLimits() {
		if t.MinAltitude < -90 || t.MaxAltitude > 90 || t.MinAltitude >= t.MaxAltitude {
			errs = append(errs, fmt.Errorf("telescope altitude limits must satisfy -90 <= min < max <= 90, got %v and %v",
				t.MinAltitude, t.MaxAltitude))
		}
	}
	if c.Telescope.MeridianFlipHours < 0 || c.Telescope.MeridianFlipHours > 12 {
		errs = append(errs, fmt.Errorf("telescope.meridian_flip_hours must be in [0, 12], got %v", c.Telescope.MeridianFlipHours))
	}
	if err := c.Telescope.Optics.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("telescope.optics: %w", err))
	}
	if c.Database.Enabled && c.Database.Driver != "postgres" {
		errs = append(errs, fmt.Errorf("database.driver %q is not supported", c.Database.Driver))
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error", "":
	default:
		errs = append(errs, fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "logfmt", "json", "":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be logfmt or json, got %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}

// Location returns the observer's geographic position.
func (o ObserverConfig) Location() coordinates.Geographic {
	return coordinates.Geographic{
		Latitude:  o.Latitude,
		Longitude: o.Longitude,
		Altitude:  o.Elevation,
	}
}

// ObserverPosition returns the observer as used by coordinate conversions.
func (o ObserverConfig) ObserverPosition() coordinates.Observer {
	return coordinates.Observer{
		Location: o.Location(),
		Timezone: o.TimeZone,
	}
}

// Timeout returns TimeoutSeconds as a duration.
func (v ViewerConfig) Timeout() time.Duration {
	return seconds(v.TimeoutSeconds)
}

// SyncInterval returns SyncIntervalSeconds as a duration.
func (v ViewerConfig) SyncInterval() time.Duration {
	return seconds(v.SyncIntervalSeconds)
}

// HasLimits reports whether altitude limits are configured.
func (t TelescopeConfig) HasLimits() bool {
	return t.MinAltitude != 0 || t.MaxAltitude != 0
}

// Timeout returns TimeoutSeconds as a duration.
func (t TelescopeConfig) Timeout() time.Duration {
	return seconds(t.TimeoutSeconds)
}

// Options converts the projection settings to projection.Options.
func (p ProjectionConfig) Options() projection.Options {
	return projection.Options{
		Scale:       p.Scale,
		Culling:     p.Culling,
		Width:       p.Width,
		Height:      p.Height,
		Calibration: p.Calibration,
	}
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
// This allows sensitive data like passwords to be kept out of config files.
func (c *Config) applyEnvironmentOverrides() error {
	if port := os.Getenv("SKYSCOPE_PORT"); port != "" {
		c.Server.Port = port
	}
	if dbHost := os.Getenv("SKYSCOPE_DB_HOST"); dbHost != "" {
		c.Database.Host = dbHost
	}
	if dbPassword := os.Getenv("SKYSCOPE_DB_PASSWORD"); dbPassword != "" {
		c.Database.Password = dbPassword
	}
	if telescopeURL := os.Getenv("SKYSCOPE_TELESCOPE_URL"); telescopeURL != "" {
		c.Telescope.BaseURL = telescopeURL
	}
	if level := os.Getenv("SKYSCOPE_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if err := floatFromEnv("SKYSCOPE_LATITUDE", &c.Observer.Latitude); err != nil {
		return err
	}
	if err := floatFromEnv("SKYSCOPE_LONGITUDE", &c.Observer.Longitude); err != nil {
		return err
	}
	return nil
}

func floatFromEnv(name string, dst *float64) error {
	raw := os.Getenv(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	*dst = v
	return nil
}

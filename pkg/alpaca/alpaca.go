// Package alpaca drives an ASCOM Alpaca telescope mount over its REST API.
// Reference: https://ascom-standards.org/Developer/Alpaca.htm
package alpaca

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"github.com/unklstewy/skyscope/internal/logging"
	"github.com/unklstewy/skyscope/internal/retry"
	"github.com/unklstewy/skyscope/pkg/config"
	"github.com/unklstewy/skyscope/pkg/coordinates"
)

// ErrNotConnected is returned by mount operations before Connect succeeds.
var ErrNotConnected = errors.New("telescope not connected")

// Error is a failure reported by the Alpaca device itself.
type Error struct {
	Number  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("alpaca error %d: %s", e.Number, e.Message)
}

// Status is a snapshot of the mount state.
type Status struct {
	Connected  bool                              `json:"connected"`
	Tracking   bool                              `json:"tracking"`
	Slewing    bool                              `json:"slewing"`
	AtPark     bool                              `json:"at_park"`
	Equatorial coordinates.EquatorialCoordinates `json:"equatorial"`
	Horizontal coordinates.HorizontalCoordinates `json:"horizontal"`
}

// Client represents an ASCOM Alpaca telescope client.
// It is safe for concurrent use.
type Client struct {
	// config contains all telescope configuration from the config system
	config config.TelescopeConfig

	// clientID is a unique identifier for this client instance
	// Generated at client creation to comply with Alpaca specification
	clientID int

	// transactionID numbers every request
	transactionID atomic.Uint32

	// httpClient is the HTTP client used for API requests
	httpClient *http.Client

	// connected tracks if we're currently connected to the telescope
	connected atomic.Bool

	// retry applies to idempotent reads only
	retry  retry.Config
	logger log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetry replaces the retry policy for reads.
func WithRetry(cfg retry.Config) Option {
	return func(c *Client) { c.retry = cfg }
}

// WithLogger sets the logger.
func WithLogger(logger log.Logger) Option {
	return func(c *Client) { c.logger = logging.OrNop(logger) }
}

// NewClient creates a new Alpaca telescope client from configuration.
func NewClient(cfg config.TelescopeConfig, opts ...Option) *Client {
	timeout := cfg.Timeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		config:   cfg,
		clientID: generateClientID(),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		retry: retry.Config{
			MaxRetries:   2,
			InitialDelay: 200 * time.Millisecond,
			MaxDelay:     2 * time.Second,
			Multiplier:   2,
		},
		logger: log.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = log.With(c.logger, "component", "alpaca")
	if c.retry.Logger == nil {
		c.retry.Logger = c.logger
	}
	return c
}

// generateClientID creates a unique client ID for this Alpaca session.
// The Alpaca specification requires each client to have a unique ID
// in the range 1 to 2^32-1.
func generateClientID() int {
	return int(time.Now().Unix()%math.MaxInt32) + 1
}

// Connect establishes a connection to the telescope.
// Must be called before any other telescope operations.
// Implements: PUT /api/v1/telescope/{device_number}/connected
func (c *Client) Connect(ctx context.Context) error {
	if err := c.put(ctx, "connected", url.Values{"Connected": {"true"}}); err != nil {
		return fmt.Errorf("failed to connect to telescope: %w", err)
	}
	c.connected.Store(true)
	level.Info(c.logger).Log("msg", "telescope connected", "url", c.config.BaseURL, "device", c.config.DeviceNumber)
	return nil
}

// Disconnect closes the connection to the telescope.
// Implements: PUT /api/v1/telescope/{device_number}/connected
func (c *Client) Disconnect(ctx context.Context) error {
	if !c.connected.Load() {
		return nil
	}
	if err := c.put(ctx, "connected", url.Values{"Connected": {"false"}}); err != nil {
		return fmt.Errorf("failed to disconnect from telescope: %w", err)
	}
	c.connected.Store(false)
	return nil
}

// Connected reports whether Connect has succeeded.
func (c *Client) Connected() bool {
	return c.connected.Load()
}

// SlewToCoordinates starts a slew to the given position and returns
// without waiting for it to finish. Right ascension is given in degrees
// and sent to the mount in hours.
// Implements: PUT /api/v1/telescope/{device_number}/slewtocoordinatesasync
func (c *Client) SlewToCoordinates(ctx context.Context, eq coordinates.EquatorialCoordinates) error {
	if !c.connected.Load() {
		return ErrNotConnected
	}
	if !eq.Valid() {
		return fmt.Errorf("invalid target RA %v Dec %v", eq.RightAscension, eq.Declination)
	}

	params := url.Values{}
	params.Add("RightAscension", fmt.Sprintf("%.6f", eq.Hours()))
	params.Add("Declination", fmt.Sprintf("%.6f", eq.Declination))

	if err := c.put(ctx, "slewtocoordinatesasync", params); err != nil {
		return fmt.Errorf("failed to slew telescope: %w", err)
	}
	level.Info(c.logger).Log("msg", "slewing", "ra", eq.RightAscension, "dec", eq.Declination)
	return nil
}

// AbortSlew immediately stops any telescope motion.
// Implements: PUT /api/v1/telescope/{device_number}/abortslew
func (c *Client) AbortSlew(ctx context.Context) error {
	if !c.connected.Load() {
		return ErrNotConnected
	}
	if err := c.put(ctx, "abortslew", nil); err != nil {
		return fmt.Errorf("failed to abort slew: %w", err)
	}
	return nil
}

// SetTracking enables or disables sidereal tracking.
// Implements: PUT /api/v1/telescope/{device_number}/tracking
func (c *Client) SetTracking(ctx context.Context, enabled bool) error {
	if !c.connected.Load() {
		return ErrNotConnected
	}
	if err := c.put(ctx, "tracking", url.Values{"Tracking": {strconv.FormatBool(enabled)}}); err != nil {
		return fmt.Errorf("failed to set tracking: %w", err)
	}
	return nil
}

// Position returns where the mount is pointing.
// Implements: GET rightascension and declination
func (c *Client) Position(ctx context.Context) (coordinates.EquatorialCoordinates, error) {
	if !c.connected.Load() {
		return coordinates.EquatorialCoordinates{}, ErrNotConnected
	}
	raHours, err := c.getFloat64(ctx, "rightascension")
	if err != nil {
		return coordinates.EquatorialCoordinates{}, fmt.Errorf("failed to get right ascension: %w", err)
	}
	dec, err := c.getFloat64(ctx, "declination")
	if err != nil {
		return coordinates.EquatorialCoordinates{}, fmt.Errorf("failed to get declination: %w", err)
	}
	return coordinates.EquatorialCoordinates{
		RightAscension: coordinates.NormalizeRA(raHours * 15),
		Declination:    dec,
	}, nil
}

// Status retrieves the current mount status.
func (c *Client) Status(ctx context.Context) (Status, error) {
	if !c.connected.Load() {
		return Status{}, ErrNotConnected
	}

	tracking, err := c.getBool(ctx, "tracking")
	if err != nil {
		return Status{}, fmt.Errorf("failed to get tracking: %w", err)
	}
	slewing, err := c.getBool(ctx, "slewing")
	if err != nil {
		return Status{}, fmt.Errorf("failed to get slewing: %w", err)
	}
	// Some telescopes don't support parking
	atPark, _ := c.getBool(ctx, "atpark")

	eq, err := c.Position(ctx)
	if err != nil {
		return Status{}, err
	}
	alt, err := c.getFloat64(ctx, "altitude")
	if err != nil {
		return Status{}, fmt.Errorf("failed to get altitude: %w", err)
	}
	az, err := c.getFloat64(ctx, "azimuth")
	if err != nil {
		return Status{}, fmt.Errorf("failed to get azimuth: %w", err)
	}

	return Status{
		Connected:  true,
		Tracking:   tracking,
		Slewing:    slewing,
		AtPark:     atPark,
		Equatorial: eq,
		Horizontal: coordinates.HorizontalCoordinates{Altitude: alt, Azimuth: az},
	}, nil
}

// endpoint builds the device URL for a method.
func (c *Client) endpoint(method string) string {
	return fmt.Sprintf("%s/api/v1/telescope/%d/%s",
		strings.TrimRight(c.config.BaseURL, "/"), c.config.DeviceNumber, method)
}

func (c *Client) ids() url.Values {
	params := url.Values{}
	params.Add("ClientID", strconv.Itoa(c.clientID))
	params.Add("ClientTransactionID", strconv.FormatUint(uint64(c.transactionID.Add(1)), 10))
	return params
}

// get performs an HTTP GET request to an Alpaca endpoint, retrying
// transport failures. Device errors are not retried.
func (c *Client) get(ctx context.Context, method string) (interface{}, error) {
	return retry.DoResult(ctx, c.retry, func(ctx context.Context) (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(method)+"?"+c.ids().Encode(), nil)
		if err != nil {
			return nil, retry.Permanent(err)
		}
		resp, err := c.do(req)
		if err != nil {
			return nil, err
		}
		if err := resp.err(); err != nil {
			return nil, retry.Permanent(err)
		}
		return resp.Value, nil
	})
}

// put performs an HTTP PUT request with a form-encoded body.
// PUTs change mount state and are never retried.
func (c *Client) put(ctx context.Context, method string, params url.Values) error {
	form := c.ids()
	for k, vs := range params {
		for _, v := range vs {
			form.Add(k, v)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.endpoint(method), strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	// Set Content-Type header for form data
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	return resp.err()
}

func (c *Client) do(req *http.Request) (*alpacaResponse, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		// 4xx means the request itself is wrong
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, retry.Permanent(err)
		}
		return nil, err
	}

	var alpacaResp alpacaResponse
	if err := parseAlpacaResponse(resp.Body, &alpacaResp); err != nil {
		return nil, retry.Permanent(err)
	}
	return &alpacaResp, nil
}

func (c *Client) getBool(ctx context.Context, method string) (bool, error) {
	v, err := c.get(ctx, method)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("unexpected response type for %s: %T", method, v)
	}
	return b, nil
}

func (c *Client) getFloat64(ctx context.Context, method string) (float64, error) {
	v, err := c.get(ctx, method)
	if err != nil {
		return 0, err
	}
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("unexpected response type for %s: %T", method, v)
	}
	return f, nil
}

// alpacaResponse represents the standard Alpaca API response format.
type alpacaResponse struct {
	// Value contains the response data (type varies by endpoint)
	Value interface{} `json:"Value"`

	// ClientTransactionID echoes back the client's transaction ID
	ClientTransactionID uint32 `json:"ClientTransactionID"`

	// ServerTransactionID is the server's transaction ID
	ServerTransactionID uint32 `json:"ServerTransactionID"`

	// ErrorNumber is non-zero if an error occurred
	ErrorNumber int `json:"ErrorNumber"`

	// ErrorMessage describes the error if ErrorNumber is non-zero
	ErrorMessage string `json:"ErrorMessage"`
}

// err returns an error if the Alpaca response indicates failure.
func (r *alpacaResponse) err() error {
	if r.ErrorNumber != 0 {
		return &Error{Number: r.ErrorNumber, Message: r.ErrorMessage}
	}
	return nil
}

// parseAlpacaResponse parses an Alpaca JSON response from an io.Reader.
func parseAlpacaResponse(body io.Reader, resp *alpacaResponse) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if err := json.Unmarshal(data, resp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}

package viewer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/unklstewy/skyscope/pkg/coordinates"
)

const (
	// DefaultTimeout bounds a single viewer round trip.
	DefaultTimeout = 5 * time.Second

	// DefaultCommandsPerSecond limits how fast commands are sent to the page.
	DefaultCommandsPerSecond = 20

	writeWait      = 5 * time.Second
	maxMessageSize = 1 << 20
)

// BridgeConfig configures a Bridge.
type BridgeConfig struct {
	// Timeout bounds each command. Zero uses DefaultTimeout.
	Timeout time.Duration

	// CommandsPerSecond and Burst configure the outgoing command limiter.
	// Zero uses DefaultCommandsPerSecond with a burst of 5.
	CommandsPerSecond float64
	Burst             int

	// OnConnect runs on its own goroutine each time a page connects.
	OnConnect func()

	// CheckOrigin is passed to the websocket upgrader. Nil allows any origin.
	CheckOrigin func(r *http.Request) bool

	Logger log.Logger
}

// Bridge is a Viewer backed by a websocket connection from the viewer page.
// The page executes each command against Aladin Lite and replies with the
// same id. Only the most recently connected page is used.
type Bridge struct {
	timeout   time.Duration
	limiter   *rate.Limiter
	upgrader  websocket.Upgrader
	onConnect func()
	logger    log.Logger

	nextID atomic.Uint64

	mu   sync.Mutex
	conn *pageConn

	// ready is closed while a page is attached
	ready chan struct{}
}

var _ Viewer = (*Bridge)(nil)

// NewBridge creates a Bridge with no page connected.
func NewBridge(cfg BridgeConfig) *Bridge {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.CommandsPerSecond <= 0 {
		cfg.CommandsPerSecond = DefaultCommandsPerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewNopLogger()
	}
	checkOrigin := cfg.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}

	return &Bridge{
		timeout: cfg.Timeout,
		limiter: rate.NewLimiter(rate.Limit(cfg.CommandsPerSecond), cfg.Burst),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin,
		},
		onConnect: cfg.OnConnect,
		logger:    log.With(cfg.Logger, "component", "viewer"),
		ready:     make(chan struct{}),
	}
}

// request is a command sent to the page.
type request struct {
	ID      uint64 `json:"id"`
	Command string `json:"command"`
	Args    []any  `json:"args,omitempty"`
}

// message is anything the page sends: a reply to a request, or an event.
type message struct {
	ID     uint64          `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
	Event  string          `json:"event,omitempty"`
}

// pageConn is one websocket connection and its in-flight requests.
type pageConn struct {
	ws      *websocket.Conn
	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[uint64]chan message
	closed  bool
}

func (c *pageConn) register(id uint64) (chan message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrDisconnected
	}
	ch := make(chan message, 1)
	c.pending[id] = ch
	return ch, nil
}

func (c *pageConn) unregister(id uint64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

func (c *pageConn) deliver(m message) bool {
	c.mu.Lock()
	ch, ok := c.pending[m.ID]
	delete(c.pending, m.ID)
	c.mu.Unlock()
	if ok {
		ch <- m
	}
	return ok
}

func (c *pageConn) write(r request) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteJSON(r)
}

// close fails every pending request and closes the socket.
func (c *pageConn) close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		for id, ch := range c.pending {
			close(ch)
			delete(c.pending, id)
		}
	}
	c.mu.Unlock()
	c.ws.Close()
}

// ServeHTTP upgrades the request to a websocket and serves the page until it
// disconnects.
func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		level.Warn(b.logger).Log("msg", "websocket upgrade failed", "err", err)
		return
	}
	ws.SetReadLimit(maxMessageSize)

	pc := &pageConn{ws: ws, pending: make(map[uint64]chan message)}
	b.attach(pc)
	level.Info(b.logger).Log("msg", "viewer page connected", "remote", r.RemoteAddr)

	if b.onConnect != nil {
		go b.onConnect()
	}

	err = b.readLoop(pc)
	b.detach(pc)
	level.Info(b.logger).Log("msg", "viewer page disconnected", "remote", r.RemoteAddr, "err", err)
}

func (b *Bridge) readLoop(pc *pageConn) error {
	for {
		var m message
		if err := pc.ws.ReadJSON(&m); err != nil {
			return err
		}
		if m.Event != "" {
			level.Debug(b.logger).Log("msg", "viewer event", "event", m.Event)
			continue
		}
		if !pc.deliver(m) {
			level.Debug(b.logger).Log("msg", "dropping late reply", "id", m.ID)
		}
	}
}

func (b *Bridge) attach(pc *pageConn) {
	b.mu.Lock()
	previous := b.conn
	b.conn = pc
	select {
	case <-b.ready:
	default:
		close(b.ready)
	}
	b.mu.Unlock()

	if previous != nil {
		previous.close()
	}
}

func (b *Bridge) detach(pc *pageConn) {
	pc.close()
	b.mu.Lock()
	if b.conn == pc {
		b.conn = nil
		b.ready = make(chan struct{})
	}
	b.mu.Unlock()
}

func (b *Bridge) current() *pageConn {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn
}

// Connected reports whether a viewer page is attached.
func (b *Bridge) Connected() bool {
	return b.current() != nil
}

// WaitConnected blocks until a viewer page is attached or ctx is done.
func (b *Bridge) WaitConnected(ctx context.Context) error {
	b.mu.Lock()
	ready := b.ready
	b.mu.Unlock()
	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close disconnects the current page, failing any in-flight commands.
func (b *Bridge) Close() error {
	if pc := b.current(); pc != nil {
		b.detach(pc)
	}
	return nil
}

// call sends a command and decodes the reply into out when out is non-nil.
func (b *Bridge) call(ctx context.Context, command string, out any, args ...any) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	pc := b.current()
	if pc == nil {
		return ErrDisconnected
	}
	if err := b.limiter.Wait(ctx); err != nil {
		return b.contextError(ctx, command, err)
	}

	id := b.nextID.Add(1)
	ch, err := pc.register(id)
	if err != nil {
		return err
	}
	defer pc.unregister(id)

	if err := pc.write(request{ID: id, Command: command, Args: args}); err != nil {
		return fmt.Errorf("%w: failed to send %s: %v", ErrDisconnected, command, err)
	}

	select {
	case m, ok := <-ch:
		if !ok {
			return ErrDisconnected
		}
		if m.Error != "" {
			return &RemoteError{Command: command, Message: m.Error}
		}
		if out != nil {
			if err := json.Unmarshal(m.Result, out); err != nil {
				return fmt.Errorf("failed to decode %s result: %w", command, err)
			}
		}
		return nil
	case <-ctx.Done():
		return b.contextError(ctx, command, ctx.Err())
	}
}

// contextError maps a deadline to ErrTimeout and passes cancellation through.
func (b *Bridge) contextError(ctx context.Context, command string, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return ctx.Err()
	}
	level.Debug(b.logger).Log("msg", "viewer command timed out", "command", command, "err", err)
	return fmt.Errorf("%w: %s", ErrTimeout, command)
}

// FieldOfViewCorners implements Viewer.
func (b *Bridge) FieldOfViewCorners(ctx context.Context) ([4]coordinates.EquatorialCoordinates, error) {
	var corners [4]coordinates.EquatorialCoordinates
	var raw [][]float64
	if err := b.call(ctx, "getFovCorners", &raw); err != nil {
		return corners, err
	}
	if len(raw) < 4 {
		return corners, fmt.Errorf("getFovCorners returned %d corners, want 4", len(raw))
	}
	for i := range corners {
		eq, err := pairToEquatorial(raw[i])
		if err != nil {
			return corners, fmt.Errorf("getFovCorners corner %d: %w", i, err)
		}
		corners[i] = eq
	}
	return corners, nil
}

// SizeInPixels implements Viewer.
func (b *Bridge) SizeInPixels(ctx context.Context) (float64, float64, error) {
	var size []float64
	if err := b.call(ctx, "getSize", &size); err != nil {
		return 0, 0, err
	}
	if len(size) < 2 || !finite(size[0]) || !finite(size[1]) || size[0] < 0 || size[1] < 0 {
		return 0, 0, fmt.Errorf("getSize returned %v", size)
	}
	return size[0], size[1], nil
}

// CenterEquatorial implements Viewer.
func (b *Bridge) CenterEquatorial(ctx context.Context) (coordinates.EquatorialCoordinates, error) {
	var raw []float64
	if err := b.call(ctx, "getRaDec", &raw); err != nil {
		return coordinates.EquatorialCoordinates{}, err
	}
	eq, err := pairToEquatorial(raw)
	if err != nil {
		return coordinates.EquatorialCoordinates{}, fmt.Errorf("getRaDec: %w", err)
	}
	return eq, nil
}

// GotoEquatorial implements Viewer.
func (b *Bridge) GotoEquatorial(ctx context.Context, eq coordinates.EquatorialCoordinates) error {
	if !eq.Valid() {
		return fmt.Errorf("invalid position (%v, %v)", eq.RightAscension, eq.Declination)
	}
	return b.call(ctx, "gotoRaDec", nil, coordinates.NormalizeRA(eq.RightAscension), eq.Declination)
}

// SetFieldOfView implements Viewer.
func (b *Bridge) SetFieldOfView(ctx context.Context, fov float64) error {
	if fov <= 0 || fov > 180 || math.IsNaN(fov) {
		return fmt.Errorf("field of view must be in (0, 180], got %v", fov)
	}
	return b.call(ctx, "setFoV", nil, fov)
}

// SetSurvey implements Viewer.
func (b *Bridge) SetSurvey(ctx context.Context, id string) error {
	return b.call(ctx, "setImageSurvey", nil, id)
}

// FieldOfView returns the viewer's own report of its field of view in
// degrees, width then height.
func (b *Bridge) FieldOfView(ctx context.Context) (float64, float64, error) {
	var fov []float64
	if err := b.call(ctx, "getFov", &fov); err != nil {
		return 0, 0, err
	}
	if len(fov) < 2 {
		return 0, 0, fmt.Errorf("getFov returned %v", fov)
	}
	return fov[0], fov[1], nil
}

func pairToEquatorial(pair []float64) (coordinates.EquatorialCoordinates, error) {
	if len(pair) < 2 || !finite(pair[0]) || !finite(pair[1]) {
		return coordinates.EquatorialCoordinates{}, fmt.Errorf("malformed position %v", pair)
	}
	eq := coordinates.EquatorialCoordinates{
		RightAscension: coordinates.NormalizeRA(pair[0]),
		Declination:    pair[1],
	}
	if !eq.Valid() {
		return coordinates.EquatorialCoordinates{}, fmt.Errorf("declination out of range: %v", pair[1])
	}
	return eq, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

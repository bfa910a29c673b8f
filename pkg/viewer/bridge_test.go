package viewer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/unklstewy/skyscope/pkg/coordinates"
)

// fakePage connects to a Bridge and answers commands like the browser page.
type fakePage struct {
	conn *websocket.Conn

	mu       sync.Mutex
	received []request
}

// handler returns the reply for one request; a nil reply means no answer.
type handler func(req request) *message

func connectPage(t *testing.T, srv *httptest.Server, b *Bridge, h handler) *fakePage {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to dial bridge: %v", err)
	}
	p := &fakePage{conn: conn}
	go func() {
		for {
			var req request
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			p.mu.Lock()
			p.received = append(p.received, req)
			p.mu.Unlock()
			if reply := h(req); reply != nil {
				reply.ID = req.ID
				if err := conn.WriteJSON(reply); err != nil {
					return
				}
			}
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := b.WaitConnected(ctx); err != nil {
		t.Fatalf("page never attached: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return p
}

func (p *fakePage) requests() []request {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]request, len(p.received))
	copy(out, p.received)
	return out
}

func result(v any) *message {
	raw, _ := json.Marshal(v)
	return &message{Result: raw}
}

func aladinHandler(req request) *message {
	switch req.Command {
	case "getFovCorners":
		return result([][]float64{{10, 5}, {350, 5}, {350, -5}, {10, -5}})
	case "getSize":
		return result([]float64{640, 480})
	case "getRaDec":
		return result([]float64{-0.5, 1.25})
	case "getFov":
		return result([]float64{20, 15})
	case "setImageSurvey":
		if req.Args[0] == "bogus" {
			return &message{Error: "unknown survey"}
		}
		return result(true)
	case "hang":
		return nil
	}
	return result(true)
}

func newTestBridge(t *testing.T, cfg BridgeConfig) (*Bridge, *httptest.Server) {
	t.Helper()
	b := NewBridge(cfg)
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)
	return b, srv
}

func TestBridgeQueries(t *testing.T) {
	b, srv := newTestBridge(t, BridgeConfig{})
	connectPage(t, srv, b, aladinHandler)
	ctx := context.Background()

	corners, err := b.FieldOfViewCorners(ctx)
	if err != nil {
		t.Fatalf("FieldOfViewCorners() error = %v", err)
	}
	if corners[1].RightAscension != 350 || corners[2].Declination != -5 {
		t.Errorf("corners = %+v", corners)
	}

	w, h, err := b.SizeInPixels(ctx)
	if err != nil || w != 640 || h != 480 {
		t.Errorf("SizeInPixels() = %v, %v, %v", w, h, err)
	}

	center, err := b.CenterEquatorial(ctx)
	if err != nil {
		t.Fatalf("CenterEquatorial() error = %v", err)
	}
	if center.RightAscension != 359.5 || center.Declination != 1.25 {
		t.Errorf("center = %+v, want RA normalized to 359.5", center)
	}

	fw, fh, err := b.FieldOfView(ctx)
	if err != nil || fw != 20 || fh != 15 {
		t.Errorf("FieldOfView() = %v, %v, %v", fw, fh, err)
	}
}

func TestBridgeCommands(t *testing.T) {
	b, srv := newTestBridge(t, BridgeConfig{})
	page := connectPage(t, srv, b, aladinHandler)
	ctx := context.Background()

	if err := b.GotoEquatorial(ctx, coordinates.EquatorialCoordinates{RightAscension: 370, Declination: 20}); err != nil {
		t.Fatalf("GotoEquatorial() error = %v", err)
	}
	if err := b.SetFieldOfView(ctx, 12); err != nil {
		t.Fatalf("SetFieldOfView() error = %v", err)
	}
	if err := b.SetSurvey(ctx, "P/2MASS/color"); err != nil {
		t.Fatalf("SetSurvey() error = %v", err)
	}

	reqs := page.requests()
	if len(reqs) != 3 {
		t.Fatalf("page received %d requests, want 3", len(reqs))
	}
	if reqs[0].Command != "gotoRaDec" || reqs[0].Args[0] != 10.0 || reqs[0].Args[1] != 20.0 {
		t.Errorf("goto request = %+v", reqs[0])
	}
	if reqs[1].Command != "setFoV" || reqs[2].Command != "setImageSurvey" {
		t.Errorf("unexpected commands %q, %q", reqs[1].Command, reqs[2].Command)
	}
	if reqs[0].ID == reqs[1].ID {
		t.Error("request ids are not unique")
	}
}

func TestBridgeValidatesArguments(t *testing.T) {
	b, _ := newTestBridge(t, BridgeConfig{})
	ctx := context.Background()
	if err := b.SetFieldOfView(ctx, 0); err == nil {
		t.Error("expected error for zero field of view")
	}
	if err := b.GotoEquatorial(ctx, coordinates.EquatorialCoordinates{Declination: 100}); err == nil {
		t.Error("expected error for declination out of range")
	}
}

func TestBridgeRemoteError(t *testing.T) {
	b, srv := newTestBridge(t, BridgeConfig{})
	connectPage(t, srv, b, aladinHandler)

	err := b.SetSurvey(context.Background(), "bogus")
	var remote *RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("SetSurvey() error = %v, want *RemoteError", err)
	}
	if remote.Command != "setImageSurvey" || remote.Message != "unknown survey" {
		t.Errorf("remote error = %+v", remote)
	}
}

func TestBridgeNotConnected(t *testing.T) {
	b, _ := newTestBridge(t, BridgeConfig{})
	if b.Connected() {
		t.Error("Connected() = true with no page")
	}
	if _, _, err := b.SizeInPixels(context.Background()); !errors.Is(err, ErrDisconnected) {
		t.Errorf("SizeInPixels() error = %v, want ErrDisconnected", err)
	}
}

func TestBridgeTimeout(t *testing.T) {
	b, srv := newTestBridge(t, BridgeConfig{Timeout: 50 * time.Millisecond})
	connectPage(t, srv, b, aladinHandler)

	err := b.call(context.Background(), "hang", nil)
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("call() error = %v, want ErrTimeout", err)
	}
}

func TestBridgeCanceled(t *testing.T) {
	b, srv := newTestBridge(t, BridgeConfig{})
	connectPage(t, srv, b, aladinHandler)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	if err := b.call(ctx, "hang", nil); !errors.Is(err, context.Canceled) {
		t.Errorf("call() error = %v, want context.Canceled", err)
	}
}

func TestBridgeDisconnectFailsPending(t *testing.T) {
	b, srv := newTestBridge(t, BridgeConfig{})
	page := connectPage(t, srv, b, func(req request) *message {
		return nil
	})

	errc := make(chan error, 1)
	go func() {
		errc <- b.call(context.Background(), "hang", nil)
	}()

	// Wait for the request to reach the page, then drop the connection
	deadline := time.Now().Add(2 * time.Second)
	for len(page.requests()) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	page.conn.Close()

	select {
	case err := <-errc:
		if !errors.Is(err, ErrDisconnected) {
			t.Errorf("call() error = %v, want ErrDisconnected", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("pending call was not released on disconnect")
	}
}

func TestBridgeMalformedReply(t *testing.T) {
	b, srv := newTestBridge(t, BridgeConfig{})
	connectPage(t, srv, b, func(req request) *message {
		return result([][]float64{{1, 2}})
	})
	if _, err := b.FieldOfViewCorners(context.Background()); err == nil {
		t.Error("expected error for a short corner list")
	}
}

func TestBridgeOnConnect(t *testing.T) {
	called := make(chan struct{}, 1)
	b, srv := newTestBridge(t, BridgeConfig{OnConnect: func() { called <- struct{}{} }})
	connectPage(t, srv, b, aladinHandler)

	select {
	case <-called:
	case <-time.After(2 * time.Second):
		t.Fatal("OnConnect not called")
	}
}

func TestBridgeRejectsPlainHTTP(t *testing.T) {
	b, srv := newTestBridge(t, BridgeConfig{})
	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	if b.Connected() {
		t.Error("plain request attached a page")
	}
}

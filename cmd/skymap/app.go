package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/unklstewy/skyscope/internal/engine"
	"github.com/unklstewy/skyscope/pkg/coordinates"
)

const (
	// refreshInterval redraws the chart so the sun and sidereal time move
	refreshInterval = 2 * time.Second

	// zoomStep is the scale factor applied by one +/- key press
	zoomStep = 1.25

	// panFraction is the share of the view width moved by one arrow key press
	panFraction = 0.1
)

// AppConfig holds the application dependencies
type AppConfig struct {
	Engine     *engine.Engine
	Observer   coordinates.Observer
	Sidereal   coordinates.SiderealModel
	DefaultFOV float64
	HasMount   bool
	Logs       *LogManager
}

// App is the terminal sky chart
type App struct {
	engine     *engine.Engine
	observer   coordinates.Observer
	sidereal   coordinates.SiderealModel
	defaultFOV float64
	hasMount   bool

	// UI components
	tviewApp   *tview.Application
	pages      *tview.Pages
	chart      *SkyChart
	telemetry  *tview.TextView
	controls   *tview.TextView
	logs       *LogManager
	gotoInput  *tview.InputField
	rootLayout *tview.Flex

	// State shared with the refresh goroutine
	mu         sync.RWMutex
	frame      *engine.Frame
	showLabels bool
	culling    bool
	size       [2]int
	sized      [2]int

	refresh chan struct{}
}

// NewApp creates a new application instance
func NewApp(cfg *AppConfig) *App {
	a := &App{
		engine:     cfg.Engine,
		observer:   cfg.Observer,
		sidereal:   cfg.Sidereal,
		defaultFOV: cfg.DefaultFOV,
		hasMount:   cfg.HasMount,
		logs:       cfg.Logs,
		showLabels: true,
		culling:    true,
		refresh:    make(chan struct{}, 1),
	}
	a.setupUI()
	return a
}

// setupUI initializes the user interface
func (a *App) setupUI() {
	a.tviewApp = tview.NewApplication()
	a.chart = NewSkyChart(a)

	a.telemetry = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false)
	a.telemetry.SetBorder(true).SetTitle(" Telemetry ")

	a.controls = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false)
	a.controls.SetBorder(true).SetTitle(" Controls ")
	a.controls.SetText(`[yellow]NAVIGATION[-]
  [white]←/→/↑/↓[-]   Pan
  [white]+/-[-]       Zoom
  [white]0[-]         Reset FOV
  [white]g[-]         Goto RA/Dec

[yellow]DISPLAY[-]
  [white]l[-]         Labels
  [white]c[-]         Far side

[yellow]TELESCOPE[-]
  [white]s[-]         Slew to center
  [white]f[-]         Follow mount
  [white]a[-]         Abort slew

[yellow]CONTROL[-]
  [white]q[-]         Quit`)

	a.logs.onChange = func() {
		go a.tviewApp.QueueUpdateDraw(func() {})
	}

	sidebar := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.telemetry, 0, 3, false).
		AddItem(a.controls, 0, 4, false).
		AddItem(a.logs.GetView(), 0, 3, false)

	a.rootLayout = tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(a.chart, 0, 7, true).
		AddItem(sidebar, 0, 3, false)

	a.gotoInput = tview.NewInputField().
		SetLabel("Target (hh mm ss ±dd mm ss): ").
		SetFieldWidth(32)
	a.gotoInput.SetBorder(true).SetTitle(" Goto ")
	a.gotoInput.SetDoneFunc(a.finishGoto)

	modal := tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(a.gotoInput, 3, 0, true).
			AddItem(nil, 0, 1, false), 64, 0, true).
		AddItem(nil, 0, 1, false)

	a.pages = tview.NewPages().
		AddPage("chart", a.rootLayout, true, true).
		AddPage("goto", modal, true, false)

	a.tviewApp.SetRoot(a.pages, true)
	a.tviewApp.SetInputCapture(a.handleKeyboard)
}

// resize records the chart size in cells. Called from Draw.
func (a *App) resize(width, height int) {
	a.mu.Lock()
	changed := a.size != [2]int{width, height}
	a.size = [2]int{width, height}
	a.mu.Unlock()
	if changed {
		a.requestRefresh()
	}
}

func (a *App) requestRefresh() {
	select {
	case a.refresh <- struct{}{}:
	default:
	}
}

// handleKeyboard handles keyboard input
func (a *App) handleKeyboard(event *tcell.EventKey) *tcell.EventKey {
	if name, _ := a.pages.GetFrontPage(); name == "goto" {
		return event
	}

	key := event.Key()
	r := event.Rune()
	ctx := context.Background()

	switch {
	// Quit
	case key == tcell.KeyEscape || r == 'q':
		a.tviewApp.Stop()
		return nil

	// Navigation
	case key == tcell.KeyLeft:
		a.pan(ctx, -1, 0)
	case key == tcell.KeyRight:
		a.pan(ctx, 1, 0)
	case key == tcell.KeyUp:
		a.pan(ctx, 0, -1)
	case key == tcell.KeyDown:
		a.pan(ctx, 0, 1)
	case r == '+' || r == '=':
		a.zoom(ctx, zoomStep)
	case r == '-':
		a.zoom(ctx, 1/zoomStep)
	case r == '0':
		if _, err := a.engine.SetFieldOfView(ctx, a.defaultFOV); err != nil {
			a.logs.Error("Reset FOV: %v", err)
		}
	case r == 'g':
		a.gotoInput.SetText("")
		a.pages.ShowPage("goto")
		a.tviewApp.SetFocus(a.gotoInput)
		return nil

	// Display
	case r == 'l':
		a.mu.Lock()
		a.showLabels = !a.showLabels
		a.mu.Unlock()
	case r == 'c':
		a.mu.Lock()
		a.culling = !a.culling
		culling := a.culling
		a.mu.Unlock()
		if _, err := a.engine.SetCulling(ctx, culling); err != nil {
			a.logs.Error("Culling: %v", err)
		}
		if culling {
			a.logs.Info("Far side hidden")
		} else {
			a.logs.Info("Far side shown")
		}

	// Telescope
	case r == 's':
		go a.slew()
	case r == 'f':
		go a.follow()
	case r == 'a':
		go func() {
			if err := a.engine.AbortSlew(context.Background()); err != nil {
				a.logs.Error("Abort: %v", err)
				return
			}
			a.logs.Warn("Slew aborted")
		}()

	default:
		return event
	}

	a.requestRefresh()
	return nil
}

// pan moves the chart by a fraction of its width
func (a *App) pan(ctx context.Context, dx, dy float64) {
	a.mu.RLock()
	w, h := chartSize(a.size[0], a.size[1])
	a.mu.RUnlock()
	step := w * panFraction
	// Keep vertical steps the same angle as horizontal ones
	if _, err := a.engine.Pan(ctx, dx*step, dy*step*h/w); err != nil {
		a.logs.Error("Pan: %v", err)
	}
}

// zoom scales the chart by factor
func (a *App) zoom(ctx context.Context, factor float64) {
	if _, err := a.engine.BeginZoom(ctx); err != nil {
		a.logs.Error("Zoom: %v", err)
		return
	}
	if _, err := a.engine.Zoom(ctx, factor); err != nil {
		a.logs.Error("Zoom: %v", err)
	}
}

// finishGoto parses the goto field and centers the chart on it
func (a *App) finishGoto(key tcell.Key) {
	a.pages.HidePage("goto")
	a.tviewApp.SetFocus(a.chart)
	if key != tcell.KeyEnter {
		return
	}

	text := a.gotoInput.GetText()
	eq, err := coordinates.ParseICRS(text)
	if err != nil {
		a.logs.Error("Goto: %v", err)
		return
	}
	if _, err := a.engine.Goto(context.Background(), eq); err != nil {
		a.logs.Error("Goto: %v", err)
		return
	}
	a.logs.Info("Centered on %s", coordinates.FormatICRS(eq, " "))
	a.requestRefresh()
}

// slew points the telescope at the chart center
func (a *App) slew() {
	if !a.hasMount {
		a.logs.Warn("No telescope connected")
		return
	}
	res, err := a.engine.SlewMount(context.Background(), nil)
	if errors.Is(err, engine.ErrTooCloseToSun) {
		a.logs.Error("Slew refused: %.1f° from the sun (%s)", res.SunSeparation, res.SafetyZone)
		return
	}
	if errors.Is(err, engine.ErrBelowLimit) {
		a.logs.Error("Slew refused: %s", res.Advice)
		return
	}
	if err != nil {
		a.logs.Error("Slew: %v", err)
		return
	}
	a.logs.Info("Slewing to %s (alt %.1f°, az %.1f°)",
		coordinates.FormatICRS(res.Target, " "), res.Horizontal.Altitude, res.Horizontal.Azimuth)
	if res.Event != "" && res.Event != "none" {
		a.logs.Warn("%s", res.Advice)
	}
}

// follow centers the chart on the telescope
func (a *App) follow() {
	if !a.hasMount {
		a.logs.Warn("No telescope connected")
		return
	}
	state, err := a.engine.FollowMount(context.Background())
	if err != nil {
		a.logs.Error("Follow: %v", err)
		return
	}
	a.logs.Info("Following mount at %s", coordinates.FormatICRS(state.Center, " "))
	a.requestRefresh()
}

// Run starts the application and blocks until it quits
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go a.updateLoop(ctx)

	a.logs.Info("Sky chart started")
	return a.tviewApp.Run()
}

// updateLoop rebuilds the frame on request and on a timer
func (a *App) updateLoop(ctx context.Context) {
	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	for {
		a.update(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-a.refresh:
		}
	}
}

// update resizes the engine view if needed and fetches a new frame
func (a *App) update(ctx context.Context) {
	a.mu.RLock()
	size, sized := a.size, a.sized
	a.mu.RUnlock()
	if size[0] == 0 || size[1] == 0 {
		return
	}

	if size != sized {
		w, h := chartSize(size[0], size[1])
		if _, err := a.engine.SetViewSize(ctx, w, h); err != nil {
			a.logs.Error("Resize: %v", err)
			return
		}
		a.mu.Lock()
		a.sized = size
		a.mu.Unlock()
	}

	frame, err := a.engine.Frame(ctx)
	if err != nil {
		if ctx.Err() == nil {
			a.logs.Error("Frame: %v", err)
		}
		return
	}

	a.mu.Lock()
	a.frame = &frame
	a.mu.Unlock()

	a.tviewApp.QueueUpdateDraw(func() {
		a.updateTelemetry(frame)
	})
}

// updateTelemetry updates the telemetry panel content
func (a *App) updateTelemetry(frame engine.Frame) {
	now := time.Now()
	lst := a.sidereal.Local(now, a.observer.Location.Longitude)
	center := frame.View.Center
	hz := coordinates.EquatorialToHorizontalAt(center, a.observer.Location.Latitude, lst)

	text := "[yellow]CENTER[-]\n" + describeView(frame.View)
	text += fmt.Sprintf("[gray]Alt:[-] [white]%.1f°[-]  [gray]Az:[-] [white]%.1f°[-]\n", hz.Altitude, hz.Azimuth)
	text += fmt.Sprintf("[gray]Stars:[-] [white]%d[-]\n\n", len(frame.Stars))

	if sun := frame.Sun; sun != nil {
		color := "green"
		if sun.Separation < 20 {
			color = "red"
		}
		text += fmt.Sprintf("[yellow]SUN[-] [%s]%.1f° %s[-]\n\n", color, sun.Separation, sun.Zone)
	}

	mount := "[red]Not Connected[-]"
	if a.hasMount {
		mount = "[green]Connected[-]"
	}
	text += "[yellow]TELESCOPE:[-] " + mount + "\n\n"

	text += fmt.Sprintf("[yellow]OBSERVER:[-] [white]%.4f°, %.4f°[-]\n",
		a.observer.Location.Latitude, a.observer.Location.Longitude)
	text += fmt.Sprintf("[gray]Time:[-] [white]%s[-]  [gray]LST:[-] [white]%s[-]\n",
		now.Format("15:04:05"), formatRA(lst))

	a.telemetry.SetText(text)
}

func formatRA(deg float64) string {
	return coordinates.DegreesToHMS(deg).String()
}

func formatDec(deg float64) string {
	return coordinates.DegreesToDMS(deg).String()
}

package viewer

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"net/http"
	"time"
)

//go:embed page.html
var pageHTML string

var pageTemplate = template.Must(template.New("page").Parse(pageHTML))

// Defaults for the viewer page.
const (
	DefaultSurvey     = "P/DSS2/color"
	DefaultTarget     = "M31"
	DefaultFOV        = 5.0
	DefaultSocketPath = "/viewer/ws"
)

// PageConfig is rendered into the viewer page.
type PageConfig struct {
	// Target is the initial object name or position, e.g. "M31"
	Target string

	// FOV is the initial field of view in degrees
	FOV float64

	// SocketPath is where the page connects back to the Bridge
	SocketPath string

	// Reconnect is the delay before the page reconnects a dropped socket
	Reconnect time.Duration
}

type pageData struct {
	Survey          string
	Target          string
	FOV             float64
	SocketPath      string
	ReconnectMillis int64
}

// PageHandler serves the Aladin Lite page. survey is read on every request so
// a reloaded page starts on the survey the session currently owns.
func PageHandler(cfg PageConfig, survey func() string) http.Handler {
	if cfg.Target == "" {
		cfg.Target = DefaultTarget
	}
	if cfg.FOV <= 0 {
		cfg.FOV = DefaultFOV
	}
	if cfg.SocketPath == "" {
		cfg.SocketPath = DefaultSocketPath
	}
	if cfg.Reconnect <= 0 {
		cfg.Reconnect = 2 * time.Second
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data := pageData{
			Survey:          DefaultSurvey,
			Target:          cfg.Target,
			FOV:             cfg.FOV,
			SocketPath:      cfg.SocketPath,
			ReconnectMillis: cfg.Reconnect.Milliseconds(),
		}
		if survey != nil {
			if s := survey(); s != "" {
				data.Survey = s
			}
		}

		var buf bytes.Buffer
		if err := pageTemplate.Execute(&buf, data); err != nil {
			http.Error(w, fmt.Sprintf("failed to render viewer page: %v", err), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(buf.Bytes())
	})
}

// Package websocket configures the upgrader dashboards connect through.
package websocket

import (
	"log/slog"
	"net/http"
	"net/url"

	ws "github.com/gorilla/websocket"
)

const (
	readBufferSize  = 1024
	writeBufferSize = 4096
)

// NewUpgrader returns the upgrader for /ws with the origin policy of
// NewCheckOrigin.
func NewUpgrader(appURL string, isDevelopment bool) *ws.Upgrader {
	return &ws.Upgrader{
		ReadBufferSize:  readBufferSize,
		WriteBufferSize: writeBufferSize,
		CheckOrigin:     NewCheckOrigin(appURL, isDevelopment),
	}
}

// NewCheckOrigin accepts requests without an Origin header (same-origin and
// non-browser clients such as line controllers) and the dashboard's own
// origin derived from appURL. In development, localhost origins on any port
// are accepted too.
func NewCheckOrigin(appURL string, isDevelopment bool) func(r *http.Request) bool {
	dashboardOrigin := extractOrigin(appURL)

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		switch {
		case origin == "":
			return true
		case dashboardOrigin != "" && origin == dashboardOrigin:
			return true
		case isDevelopment && isLocalhostOrigin(origin):
			return true
		}

		slog.Warn("Dashboard origin rejected", "origin", origin, "remote_addr", r.RemoteAddr)
		return false
	}
}

func extractOrigin(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

func isLocalhostOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}

package server

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Address is the address to listen on (e.g., ":8080").
	Address string

	// MetricsPath is where Prometheus metrics are served when metrics are
	// enabled. Default: "/metrics".
	MetricsPath string

	// ReadBufferSize is the websocket read buffer size.
	// Default: 4096.
	ReadBufferSize int

	// WriteBufferSize is the websocket write buffer size.
	// Default: 4096.
	WriteBufferSize int

	// CheckOrigin validates the Origin of websocket requests.
	// Default: SameOriginCheck.
	CheckOrigin func(r *http.Request) bool

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	// Default: 30 seconds.
	ShutdownTimeout time.Duration

	// ReadHeaderTimeout limits how long reading request headers may take.
	ReadHeaderTimeout time.Duration

	// IdleTimeout is the keep-alive timeout.
	IdleTimeout time.Duration

	// WriteWait is the deadline for a single websocket write.
	// Default: 10 seconds.
	WriteWait time.Duration

	// PingInterval is how often idle websocket clients are pinged.
	// Default: 30 seconds.
	PingInterval time.Duration

	// FeedBuffer is the number of snapshots queued per websocket client.
	// A client that falls further behind is disconnected. Default: 16.
	FeedBuffer int

	// MaxBodyBytes limits request bodies. Default: 1 MiB.
	MaxBodyBytes int64

	// Logger is the server logger. Default: slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Address:           ":8080",
		MetricsPath:       "/metrics",
		ReadBufferSize:    4096,
		WriteBufferSize:   4096,
		CheckOrigin:       SameOriginCheck,
		ShutdownTimeout:   30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
		WriteWait:         10 * time.Second,
		PingInterval:      30 * time.Second,
		FeedBuffer:        16,
		MaxBodyBytes:      1 << 20,
	}
}

// withDefaults fills unset fields from DefaultConfig.
func (c *Config) withDefaults() *Config {
	defaults := DefaultConfig()
	if c == nil {
		return defaults
	}
	out := *c
	if out.Address == "" {
		out.Address = defaults.Address
	}
	if out.MetricsPath == "" {
		out.MetricsPath = defaults.MetricsPath
	}
	if out.ReadBufferSize == 0 {
		out.ReadBufferSize = defaults.ReadBufferSize
	}
	if out.WriteBufferSize == 0 {
		out.WriteBufferSize = defaults.WriteBufferSize
	}
	if out.CheckOrigin == nil {
		out.CheckOrigin = defaults.CheckOrigin
	}
	if out.ShutdownTimeout == 0 {
		out.ShutdownTimeout = defaults.ShutdownTimeout
	}
	if out.ReadHeaderTimeout == 0 {
		out.ReadHeaderTimeout = defaults.ReadHeaderTimeout
	}
	if out.IdleTimeout == 0 {
		out.IdleTimeout = defaults.IdleTimeout
	}
	if out.WriteWait == 0 {
		out.WriteWait = defaults.WriteWait
	}
	if out.PingInterval == 0 {
		out.PingInterval = defaults.PingInterval
	}
	if out.FeedBuffer == 0 {
		out.FeedBuffer = defaults.FeedBuffer
	}
	if out.MaxBodyBytes == 0 {
		out.MaxBodyBytes = defaults.MaxBodyBytes
	}
	return &out
}

// validate reports configuration values the server cannot run with.
func (c *Config) validate() error {
	if !strings.HasPrefix(c.MetricsPath, "/") {
		return errors.New("server: metrics path must start with /")
	}
	if c.FeedBuffer < 0 {
		return errors.New("server: feed buffer must not be negative")
	}
	return nil
}

// SameOriginCheck accepts websocket requests without an Origin header or
// whose Origin host matches the request host.
func SameOriginCheck(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := r.Host
	if host == "" {
		return false
	}
	return originURL.Host == host
}

// AllowOrigins returns a CheckOrigin function accepting same-origin
// requests plus the listed origins (scheme://host[:port]). "*" allows any.
func AllowOrigins(origins ...string) func(r *http.Request) bool {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[strings.TrimSuffix(o, "/")] = true
	}
	return func(r *http.Request) bool {
		if allowed["*"] || SameOriginCheck(r) {
			return true
		}
		return allowed[r.Header.Get("Origin")]
	}
}

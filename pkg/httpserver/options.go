package httpserver

import (
	"log/slog"
	"time"
)

// Option configures a Server.
type Option func(*Server)

// WithAddr sets the listen address. Empty values are ignored.
func WithAddr(addr string) Option {
	return func(s *Server) {
		if addr != "" {
			s.addr = addr
		}
	}
}

// WithTimeouts sets read, write and idle timeouts. Non-positive values keep
// the defaults.
func WithTimeouts(read, write, idle time.Duration) Option {
	return func(s *Server) {
		if read > 0 {
			s.readTimeout = read
		}
		if write > 0 {
			s.writeTimeout = write
		}
		if idle > 0 {
			s.idleTimeout = idle
		}
	}
}

// WithShutdownTimeout bounds graceful shutdown including stop hooks.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStartHook registers a hook run after the listener is bound and before
// requests are served. A failing start hook aborts Run.
func WithStartHook(h Hook) Option {
	return func(s *Server) {
		if h != nil {
			s.startHooks = append(s.startHooks, h)
		}
	}
}

// WithStopHook registers a hook run after in-flight requests drained.
func WithStopHook(h Hook) Option {
	return func(s *Server) {
		if h != nil {
			s.stopHooks = append(s.stopHooks, h)
		}
	}
}

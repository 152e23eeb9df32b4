package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 15 * time.Second
	writeTimeout      = 15 * time.Second
	idleTimeout       = 60 * time.Second
	shutdownGrace     = 5 * time.Second
)

// Server serves the preview router. Listen binds the socket, Serve runs
// until its context ends and then drains in-flight requests.
type Server struct {
	http     *http.Server
	listener net.Listener
	logger   *slog.Logger
}

// New checks addr ("host:port", host optional, port 0 for any free port).
func New(addr string, handler http.Handler, logger *slog.Logger) (*Server, error) {
	if err := validation.Validate(addr, validation.Required, validation.By(validateAddress)); err != nil {
		return nil, fmt.Errorf("serve address %q: %w", addr, err)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Server{
		http: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: readHeaderTimeout,
			ReadTimeout:       readTimeout,
			WriteTimeout:      writeTimeout,
			IdleTimeout:       idleTimeout,
		},
		logger: logger,
	}, nil
}

// Listen binds the configured address and returns the one actually bound.
func (s *Server) Listen() (net.Addr, error) {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", s.http.Addr, err)
	}
	s.listener = ln
	return ln.Addr(), nil
}

// Serve blocks until ctx is done or the listener fails. Cancellation is a
// clean stop, not an error.
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		if _, err := s.Listen(); err != nil {
			return err
		}
	}

	served := make(chan error, 1)
	go func() {
		served <- s.http.Serve(s.listener)
	}()

	select {
	case err := <-served:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Draining preview server", slog.Duration("grace", shutdownGrace))
	drainCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if err := s.http.Shutdown(drainCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func validateAddress(value any) error {
	addr, _ := value.(string)

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return validation.NewError("validation_invalid_hostport", "must be in host:port format")
	}

	n, err := strconv.Atoi(port)
	if err != nil || n < 0 || n > 65535 {
		return validation.NewError("validation_invalid_port", "port must be a number between 0 and 65535")
	}

	if host == "" {
		return nil
	}
	return is.Host.Validate(host)
}

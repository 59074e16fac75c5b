// Package server runs the chat platform over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/txn2/chat-platform/pkg/platform"
)

// Version is set at build time.
var Version = "dev"

// NewWithConfig loads configuration from configPath and creates the platform.
// An empty path uses the defaults, which still require auth.jwt_secret.
func NewWithConfig(ctx context.Context, configPath string, opts ...platform.Option) (*platform.Platform, error) {
	cfg := platform.DefaultConfig()
	if configPath != "" {
		loaded, err := platform.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	return New(ctx, cfg, opts...)
}

// New creates the platform from cfg, stamped with the build version.
func New(ctx context.Context, cfg *platform.Config, opts ...platform.Option) (*platform.Platform, error) {
	opts = append([]platform.Option{platform.WithVersion(Version)}, opts...)
	p, err := platform.New(ctx, cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating platform: %w", err)
	}
	return p, nil
}

// Run listens on the configured address and serves until ctx is cancelled.
func Run(ctx context.Context, p *platform.Platform) error {
	ln, err := net.Listen("tcp", p.Config().Server.Address)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", p.Config().Server.Address, err)
	}
	return Serve(ctx, p, ln)
}

// Serve starts the platform and serves HTTP on ln until ctx is cancelled.
// Shutdown marks the platform draining, waits for in-flight requests up to
// server.shutdown_timeout, then stops the platform.
func Serve(ctx context.Context, p *platform.Platform, ln net.Listener) error {
	cfg := p.Config().Server

	if err := p.Start(ctx); err != nil {
		_ = ln.Close()
		return fmt.Errorf("starting platform: %w", err)
	}

	srv := &http.Server{
		Handler:           p.Handler(),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	slog.Info("server listening", "address", ln.Addr().String(), "version", Version)

	select {
	case err := <-errCh:
		_ = p.Stop(context.Background())
		return fmt.Errorf("serving http: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	p.Health().SetDraining()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := srv.Shutdown(shutdownCtx); err != nil {
		// Open streams are cut; their exchanges finalize with what was sent.
		_ = srv.Close()
		errs = append(errs, fmt.Errorf("shutting down http server: %w", err))
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		errs = append(errs, fmt.Errorf("serving http: %w", err))
	}
	if err := p.Stop(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

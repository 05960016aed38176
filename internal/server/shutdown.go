package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

const hookTimeout = 10 * time.Second

// GracefulServer runs an http.Server until its context ends or the process
// receives SIGINT or SIGTERM, then drains connections and runs the shutdown
// hooks. SIGHUP runs the reload hooks without stopping.
type GracefulServer struct {
	server          *http.Server
	logger          *slog.Logger
	shutdownTimeout time.Duration

	mu            sync.Mutex
	shutdownHooks []func(ctx context.Context) error
	reloadHooks   []func(ctx context.Context) error
}

func NewGracefulServer(server *http.Server, logger *slog.Logger, shutdownTimeout time.Duration) *GracefulServer {
	return &GracefulServer{
		server:          server,
		logger:          logger,
		shutdownTimeout: shutdownTimeout,
	}
}

// RegisterShutdownHook adds fn to run after the listener stops. Hooks run in
// reverse registration order.
func (gs *GracefulServer) RegisterShutdownHook(fn func(ctx context.Context) error) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.shutdownHooks = append(gs.shutdownHooks, fn)
}

// RegisterReloadHook adds fn to run on SIGHUP.
func (gs *GracefulServer) RegisterReloadHook(fn func(ctx context.Context) error) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.reloadHooks = append(gs.reloadHooks, fn)
}

func (gs *GracefulServer) ListenAndServe() error {
	ln, err := net.Listen("tcp", gs.server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", gs.server.Addr, err)
	}
	return gs.Serve(context.Background(), ln)
}

// Serve accepts connections on ln until ctx is done or a stop signal arrives.
func (gs *GracefulServer) Serve(ctx context.Context, ln net.Listener) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		gs.logger.Info("starting server",
			"addr", ln.Addr().String(),
			"read_timeout", gs.server.ReadTimeout,
			"write_timeout", gs.server.WriteTimeout,
		)
		if err := gs.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		for {
			select {
			case <-hup:
				gs.logger.Info("reload signal received")
				gs.runHooks(ctx, "reload", gs.hooks(&gs.reloadHooks))
			case <-ctx.Done():
				gs.logger.Info("shutdown requested", "cause", context.Cause(ctx))
				shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), gs.shutdownTimeout)
				defer cancel()
				return gs.shutdown(shutdownCtx)
			}
		}
	})

	return g.Wait()
}

func (gs *GracefulServer) hooks(list *[]func(ctx context.Context) error) []func(ctx context.Context) error {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	return append([]func(ctx context.Context) error(nil), (*list)...)
}

func (gs *GracefulServer) shutdown(ctx context.Context) error {
	gs.logger.Info("starting graceful shutdown", "timeout", gs.shutdownTimeout)

	var errs []error
	if err := gs.server.Shutdown(ctx); err != nil {
		gs.logger.Error("HTTP server shutdown failed", "error", err)
		errs = append(errs, fmt.Errorf("HTTP server shutdown failed: %w", err))
	} else {
		gs.logger.Info("HTTP server stopped gracefully")
	}

	hooks := gs.hooks(&gs.shutdownHooks)
	for i, j := 0, len(hooks)-1; i < j; i, j = i+1, j-1 {
		hooks[i], hooks[j] = hooks[j], hooks[i]
	}
	errs = append(errs, gs.runHooks(ctx, "shutdown", hooks))

	gs.logger.Info("graceful shutdown completed")
	return errors.Join(errs...)
}

func (gs *GracefulServer) runHooks(ctx context.Context, kind string, hooks []func(ctx context.Context) error) error {
	var errs []error
	for i, fn := range hooks {
		hookCtx, cancel := context.WithTimeout(ctx, hookTimeout)
		err := fn(hookCtx)
		cancel()

		if err != nil {
			gs.logger.Error(kind+" hook failed", "hook_index", i, "error", err)
			errs = append(errs, fmt.Errorf("%s hook %d failed: %w", kind, i, err))
			continue
		}
		gs.logger.Debug(kind+" hook completed", "hook_index", i)
	}
	return errors.Join(errs...)
}

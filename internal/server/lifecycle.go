// Package server provides application lifecycle management including
// graceful startup and shutdown with signal handling.
package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Service is a long-running component. Run blocks until ctx is cancelled or
// the work is finished.
type Service interface {
	Run(ctx context.Context) error
}

// ServiceFunc adapts a function into the Service interface.
type ServiceFunc func(ctx context.Context) error

// Run calls f.
func (f ServiceFunc) Run(ctx context.Context) error { return f(ctx) }

// Lifecycle manages the startup and shutdown of multiple services.
// Services are started in order and stopped in reverse order.
type Lifecycle struct {
	logger   *zap.Logger
	grace    time.Duration
	services []namedService
	mu       sync.Mutex
}

type namedService struct {
	name    string
	service Service
}

type runningService struct {
	name   string
	cancel context.CancelFunc
	done   chan struct{}
}

type serviceExit struct {
	name string
	err  error
}

// NewLifecycle creates a new Lifecycle manager. grace bounds how long shutdown
// waits for each service to return after its context is cancelled.
//
// Precondition: logger must be non-nil; grace > 0.
func NewLifecycle(logger *zap.Logger, grace time.Duration) *Lifecycle {
	if logger == nil {
		panic("server.NewLifecycle: logger must not be nil")
	}
	if grace <= 0 {
		panic("server.NewLifecycle: grace must be > 0")
	}
	return &Lifecycle{logger: logger, grace: grace}
}

// Add registers a named service for lifecycle management.
// Services are started in the order they are added.
//
// Precondition: name must be non-empty; svc must be non-nil.
func (l *Lifecycle) Add(name string, svc Service) {
	if name == "" || svc == nil {
		panic("server.Lifecycle.Add: name and svc must be non-empty")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.services = append(l.services, namedService{name: name, service: svc})
}

// Run starts all services and blocks until a termination signal is received
// (SIGINT or SIGTERM), ctx is cancelled, a service fails, or every service has
// finished. Services are then stopped in reverse order.
//
// Postcondition: every service has returned or exceeded the grace period. The
// returned error is the first service failure, or nil.
func (l *Lifecycle) Run(ctx context.Context) error {
	start := time.Now()

	l.mu.Lock()
	services := append([]namedService(nil), l.services...)
	l.mu.Unlock()

	exits := make(chan serviceExit, len(services))
	running := make([]runningService, 0, len(services))
	for _, ns := range services {
		svcCtx, cancel := context.WithCancel(ctx)
		rs := runningService{name: ns.name, cancel: cancel, done: make(chan struct{})}
		running = append(running, rs)

		l.logger.Info("starting service", zap.String("service", ns.name))
		go func() {
			defer close(rs.done)
			err := ns.service.Run(svcCtx)
			exits <- serviceExit{name: ns.name, err: err}
		}()
	}

	l.logger.Info("all services started",
		zap.Int("count", len(services)),
		zap.Duration("startup", time.Since(start)),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var runErr error
	remaining := len(services)
wait:
	for remaining > 0 {
		select {
		case sig := <-sigCh:
			l.logger.Info("received signal, shutting down",
				zap.String("signal", sig.String()),
			)
			break wait
		case <-ctx.Done():
			l.logger.Info("context cancelled, shutting down")
			break wait
		case exit := <-exits:
			remaining--
			if exit.err != nil && !errors.Is(exit.err, context.Canceled) {
				l.logger.Error("service failed, shutting down",
					zap.String("service", exit.name),
					zap.Error(exit.err),
				)
				runErr = fmt.Errorf("service %s: %w", exit.name, exit.err)
				break wait
			}
			l.logger.Info("service finished", zap.String("service", exit.name))
		}
	}

	l.shutdown(running)

	l.logger.Info("shutdown complete",
		zap.Duration("total_uptime", time.Since(start)),
	)
	return runErr
}

func (l *Lifecycle) shutdown(running []runningService) {
	shutdownStart := time.Now()
	for i := len(running) - 1; i >= 0; i-- {
		rs := running[i]
		svcStart := time.Now()
		l.logger.Info("stopping service", zap.String("service", rs.name))
		rs.cancel()

		timer := time.NewTimer(l.grace)
		select {
		case <-rs.done:
			l.logger.Info("service stopped",
				zap.String("service", rs.name),
				zap.Duration("elapsed", time.Since(svcStart)),
			)
		case <-timer.C:
			l.logger.Warn("service did not stop within grace period",
				zap.String("service", rs.name),
				zap.Duration("grace", l.grace),
			)
		}
		timer.Stop()
	}
	l.logger.Info("all services stopped",
		zap.Duration("shutdown_elapsed", time.Since(shutdownStart)),
	)
}

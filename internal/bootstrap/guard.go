package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"threadboard/internal/middleware"
)

// Guard supervises the server's background goroutines (search index writes,
// the search health monitor). The first panic or reported failure marks the
// process failed; main then shuts down and exits non-zero.
type Guard struct {
	once   sync.Once
	failed chan struct{}
	err    error
}

// NewGuard returns a guard that has not failed.
func NewGuard() *Guard {
	return &Guard{failed: make(chan struct{})}
}

// Go runs fn on its own goroutine. A panic is logged with its stack and fails the guard.
func (g *Guard) Go(name string, fn func()) {
	go g.run(name, fn)
}

func (g *Guard) run(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			middleware.Logger.Error("background task panicked",
				slog.String("task", name),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
			g.Fail(fmt.Errorf("%s: panic: %v", name, r))
		}
	}()
	fn()
}

// Fail records err as the reason the process must stop. Later calls are ignored.
func (g *Guard) Fail(err error) {
	g.once.Do(func() {
		g.err = err
		close(g.failed)
	})
}

// Failed is closed once the guard has failed.
func (g *Guard) Failed() <-chan struct{} {
	return g.failed
}

// Err returns the first failure, or nil while the guard is healthy.
func (g *Guard) Err() error {
	select {
	case <-g.failed:
		return g.err
	default:
		return nil
	}
}

// ErrServerStopped is returned by AwaitStop when the listener returned on its own.
var ErrServerStopped = errors.New("http server stopped unexpectedly")

// AwaitStop blocks until ctx is cancelled (a signal), the listener returns, or
// the guard fails. Only a cancelled ctx counts as a clean stop.
func AwaitStop(ctx context.Context, g *Guard, serveErr <-chan error) error {
	select {
	case <-ctx.Done():
		return nil
	case err := <-serveErr:
		if err == nil {
			return ErrServerStopped
		}
		return fmt.Errorf("listen: %w", err)
	case <-g.Failed():
		return g.Err()
	}
}

// Package shutdown turns termination signals into context cancellation.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// NotifyContext is cancelled on the first SIGINT or SIGTERM so the server
// can drain. A second signal exits immediately.
func NotifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	return notify(parent, func() { os.Exit(1) }, syscall.SIGINT, syscall.SIGTERM)
}

func notify(parent context.Context, force func(), sigs ...os.Signal) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, sigs...)

	done := make(chan struct{})
	go func() {
		select {
		case <-ch:
			cancel()
		case <-done:
			return
		}
		select {
		case <-ch:
			force()
		case <-done:
		}
	}()

	return ctx, func() {
		signal.Stop(ch)
		select {
		case <-done:
		default:
			close(done)
		}
		cancel()
	}
}

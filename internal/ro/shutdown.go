package ro

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/ro"
)

// ShutdownSignals are the OS signals that trigger graceful shutdown.
var ShutdownSignals = []os.Signal{
	syscall.SIGINT,
	syscall.SIGTERM,
}

// gracefulShutdown creates an Observable that emits once when a shutdown
// signal is received, then completes.
func gracefulShutdown(parentCtx context.Context) ro.Observable[os.Signal] {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, ShutdownSignals...)

	return ro.NewObservableWithContext(func(ctx context.Context, observer ro.Observer[os.Signal]) ro.Teardown {
		// Use parent context for initial setup, then subscriber context for lifecycle
		_ = parentCtx // parentCtx used for Observable creation, ctx is subscriber context
		go func() {
			select {
			case sig := <-ch:
				observer.NextWithContext(ctx, sig)
				observer.CompleteWithContext(ctx)
			case <-ctx.Done():
				observer.ErrorWithContext(ctx, ctx.Err())
			}
		}()

		return func() {
			signal.Stop(ch)
			close(ch)
		}
	})
}

// WaitForShutdown blocks until a shutdown signal is received or context is canceled.
// Returns the received signal or an error if context was canceled.
//
// Example:
//
//	sig, err := WaitForShutdown(ctx)
//	if err != nil {
//	    return err
//	}
//	log.Info().Msgf("received %v, shutting down", sig)
func WaitForShutdown(ctx context.Context) (os.Signal, error) {
	results, _, err := ro.CollectWithContext(ctx, gracefulShutdown(ctx))
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ctx.Err()
	}
	return results[0], nil
}

// Package async runs fire-and-forget work off the caller's goroutine.
//
// Dispatcher is the background executor used by the SDK: every network call is
// handed to Go and the public API returns immediately. Tasks run on a context
// detached from the caller and are never cancelled. Errors and recovered panics go to the dispatcher's
// ErrorHandler; nothing is returned to the code that dispatched the work.
//
//	d := async.NewDispatcher(func(task string, err error) {
//	    log.Warn("background task failed", "task", task, "error", err)
//	})
//	d.Go("purchase", func(ctx context.Context) error {
//	    return client.TrackPurchase(ctx, p)
//	})
//
// Wait and WaitTimeout block until all dispatched tasks finished. They exist for
// tests and for short-lived processes such as the linkowl CLI that must flush
// pending requests before exiting.
package async

// Package safego provides a panic-recovering goroutine launcher for background work.
package safego

import (
	"log/slog"

	"github.com/admin-console/admin-console/internal/telemetry"
)

// Go launches fn in a new goroutine. If fn panics, the panic is recovered,
// logged, and counted rather than crashing the process. The audit pipeline
// runs its asynchronous log writes and shipper flushes through this launcher
// so a malformed entry can never take the server down with it.
func Go(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				telemetry.GoroutinePanicsTotal.Inc()
				slog.Error("recovered panic in background goroutine", "panic", r)
			}
		}()
		fn()
	}()
}

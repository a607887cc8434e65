// Package watch re-runs a callback whenever a file's modification time
// changes, polling on a fixed interval. Adapted from the teacher's
// internal/scheduler ticker loop (periodic job on a time.Ticker, stopped via
// context cancellation) — repurposed here from running arbitrary
// interval jobs to watching a single spec file for edits.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"
)

// Poll calls fn once immediately, then again every time path's modification
// time changes, checking at the given interval. It returns when ctx is
// canceled.
func Poll(ctx context.Context, path string, interval time.Duration, logger *slog.Logger, fn func()) error {
	lastMod, err := modTime(path)
	if err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}

	logger.Info("watch started", "path", path, "interval", interval)
	fn()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("watch stopped", "path", path)
			return nil
		case <-ticker.C:
			mt, err := modTime(path)
			if err != nil {
				logger.Error("watch: stat failed", "path", path, "error", err)
				continue
			}
			if mt.After(lastMod) {
				logger.Debug("watch: change detected", "path", path)
				lastMod = mt
				fn()
			}
		}
	}
}

func modTime(path string) (time.Time, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return fi.ModTime(), nil
}

package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/edgard/catbot/internal/audio"
)

// newScratchCleanupTask removes voice scratch files that outlived
// audio.scratch_max_age, such as those orphaned by a crash.
func newScratchCleanupTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "scratch_cleanup")

	return func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		dir := deps.Config.Audio.ScratchDir
		maxAge := deps.Config.Audio.ScratchMaxAge
		log.DebugContext(ctx, "Starting scratch cleanup", "dir", dir, "max_age", maxAge)
		startTime := time.Now()

		removed, err := audio.SweepStale(dir, maxAge, deps.now())
		duration := time.Since(startTime)
		if err != nil {
			log.ErrorContext(ctx, "Scratch cleanup failed", "error", err, "removed", removed, "duration", duration)
			return fmt.Errorf("scratch cleanup failed: %w", err)
		}

		log.InfoContext(ctx, "Scratch cleanup completed", "removed", removed, "duration", duration)
		return nil
	}
}

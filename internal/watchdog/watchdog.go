// Package watchdog provides idle detection for experiment boxes.
//
// A box is considered idle if it is still running and none of its activity
// files has been modified within the threshold.
package watchdog

import (
	"time"

	"github.com/NielsdaWheelz/expbox/internal/fs"
	"github.com/NielsdaWheelz/expbox/internal/store"
)

// DefaultIdleThreshold is the default duration after which a running box is considered idle.
const DefaultIdleThreshold = 24 * time.Hour

// ActivitySignals contains signals used to determine if a box is idle.
type ActivitySignals struct {
	// LastActivity is the newest modification time among the activity files.
	// Nil if none of them exists.
	LastActivity *time.Time

	// Running is true if the box status is running.
	Running bool
}

// IdleResult contains the result of an idle check.
type IdleResult struct {
	// IsIdle is true if the box is considered idle.
	IsIdle bool

	// IdleFor is the duration since the last activity signal.
	// Only meaningful when IsIdle is true.
	IdleFor time.Duration
}

// CheckIdle determines if a box is idle based on activity signals.
//
// A box is considered idle if:
// - its status is running (finished and archived boxes are never idle)
// - an activity file exists and none changed within the threshold
func CheckIdle(signals ActivitySignals, threshold time.Duration, now time.Time) IdleResult {
	if !signals.Running {
		return IdleResult{IsIdle: false}
	}

	// No activity file = can't determine = not idle
	if signals.LastActivity == nil {
		return IdleResult{IsIdle: false}
	}

	idleFor := now.Sub(*signals.LastActivity)
	if idleFor >= threshold {
		return IdleResult{
			IsIdle:  true,
			IdleFor: idleFor,
		}
	}

	return IdleResult{IsIdle: false}
}

// CollectSignals stats the activity files of one box.
// Missing or unreadable files are ignored.
func CollectSignals(fsys fs.FS, paths store.BoxPaths, status store.Status) ActivitySignals {
	signals := ActivitySignals{Running: status == store.StatusRunning}
	for _, p := range []string{paths.Meta, paths.Metrics(), paths.Events()} {
		info, err := fsys.Stat(p)
		if err != nil {
			continue
		}
		mt := info.ModTime()
		if signals.LastActivity == nil || mt.After(*signals.LastActivity) {
			signals.LastActivity = &mt
		}
	}
	return signals
}

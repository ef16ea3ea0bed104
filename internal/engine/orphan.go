package engine

import (
	"os"
	"time"

	"github.com/hashwrap/mdxagent/pkg/debug"
	"github.com/shirou/gopsutil/process"
)

// parentWatch holds the state for one orphan check: the parent PID
// captured at startup plus the probes used to observe it. The probes are
// fields so tests can substitute them.
type parentWatch struct {
	parent    int
	getppid   func() int
	pidExists func(int32) (bool, error)
}

// orphaned reports whether the original parent is no longer this
// process's live parent. A probe error leaves the verdict at not-orphaned
// rather than killing a healthy run on a transient procfs failure.
func (w *parentWatch) orphaned() bool {
	if w.getppid() != w.parent {
		debug.Warning("Parent process changed, agent is orphaned")
		return true
	}
	if alive, err := w.pidExists(int32(w.parent)); err == nil && !alive {
		debug.Warning("Parent process %d is gone, agent is orphaned", w.parent)
		return true
	}
	return false
}

// watch polls orphaned at the given interval. The returned channel closes
// once on the first positive verdict; closing stop ends the watch.
func (w *parentWatch) watch(interval time.Duration, stop <-chan struct{}) <-chan struct{} {
	orphaned := make(chan struct{})

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if w.orphaned() {
					close(orphaned)
					return
				}
			}
		}
	}()

	return orphaned
}

// WatchParent polls the agent's own parent process. The returned channel
// closes once if the parent dies or changes (the agent was reparented),
// which the runner treats exactly like a termination request: without a
// live coordinator there is nobody left to consume STATUS lines.
func WatchParent(interval time.Duration, stop <-chan struct{}) <-chan struct{} {
	w := &parentWatch{
		parent:    os.Getppid(),
		getppid:   os.Getppid,
		pidExists: process.PidExists,
	}
	return w.watch(interval, stop)
}

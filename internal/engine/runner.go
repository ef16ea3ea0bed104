package engine

import (
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/hashwrap/mdxagent/internal/config"
	"github.com/hashwrap/mdxagent/internal/hashlist"
	"github.com/hashwrap/mdxagent/internal/keyspace"
	"github.com/hashwrap/mdxagent/internal/metrics"
	"github.com/hashwrap/mdxagent/internal/status"
	"github.com/hashwrap/mdxagent/pkg/console"
	"github.com/hashwrap/mdxagent/pkg/debug"
)

// Run executes the crack action end to end: normalize the hash list,
// spawn the engine, drain both output streams concurrently, report
// progress, and drive the shutdown sequence. All cancellation sources
// (signal, timeout, orphaned agent, exhausted chunk window) converge on
// the same path: one final terminal STATUS, graceful termination,
// escalation after the grace period, exit 0.
//
// Returns the agent's exit code.
func Run(spec *config.AttackSpec, settings config.Settings, w *status.Writer) int {
	list, err := hashlist.ParseFile(spec.Hashlist)
	if err != nil {
		console.Error("%v", err)
		return 1
	}

	workDir := filepath.Join(settings.WorkDirRoot, "mdxagent-"+uuid.NewString())
	if err := os.MkdirAll(workDir, 0700); err != nil {
		console.Error("failed to create work directory: %v", err)
		return 1
	}
	defer os.RemoveAll(workDir)

	hashFile, saltFile, err := list.WriteDerived(workDir)
	if err != nil {
		console.Error("%v", err)
		return 1
	}

	// Total keyspace drives the progress estimator. A wordlist that
	// cannot be read is fatal before spawn; a mask we cannot size only
	// degrades progress to the elapsed-time estimate.
	var total int64
	keyspaceKnown := false
	if spec.IsMask() {
		total, err = keyspace.MaskKeyspace(spec.Mask)
		if err != nil {
			debug.Warning("Cannot size mask keyspace: %v", err)
		} else {
			keyspaceKnown = true
		}
	} else {
		total, err = keyspace.CountLines(spec.Wordlist)
		if err != nil {
			console.Error("%v", err)
			return 1
		}
		keyspaceKnown = true
	}

	var effective int64
	if keyspaceKnown {
		effective = keyspace.Effective(total, spec.Skip, spec.Limit)
		debug.Info("Keyspace: total %d, window [%d, %d), effective %d",
			total, spec.Skip, keyspace.WindowEnd(spec.Skip, spec.Limit), effective)
	}

	binary, err := FindBinary(settings.EnginePath)
	if err != nil {
		console.Error("%v", err)
		return 1
	}

	sup, err := Spawn(binary, BuildArgs(spec, hashFile, saltFile), workDir)
	if err != nil {
		console.Error("%v", err)
		return 1
	}

	state := NewState(keyspaceKnown, time.Duration(spec.Timeout)*time.Second)
	monitor := NewMonitor(state, spec.Skip, effective, keyspace.WindowEnd(spec.Skip, spec.Limit), spec.Debug)
	reformatter := NewReformatter(w, list.SaltMap(), spec.Debug)

	// Both streams must drain concurrently: a full pipe buffer on either
	// one stalls the engine and with it the whole run.
	var drains sync.WaitGroup
	drains.Add(2)
	go func() {
		defer drains.Done()
		monitor.Drain(sup.Stderr())
	}()
	go func() {
		defer drains.Done()
		reformatter.Drain(sup.Stdout())
	}()
	done := sup.Reap(&drains)

	reporter := status.NewReporter(w, settings.StatusInterval, state.Snapshot)
	reporter.Start()

	stopAux := make(chan struct{})
	defer close(stopAux)

	if spec.Debug {
		if collector, err := metrics.New(metrics.Config{CollectionInterval: settings.StatusInterval}); err == nil {
			collector.Start(stopAux)
		}
		go displayLoop(state, settings.StatusInterval, stopAux)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	orphaned := WatchParent(settings.OrphanPollInterval, stopAux)

	var timeoutCh <-chan time.Time
	if spec.Timeout > 0 {
		timer := time.NewTimer(time.Duration(spec.Timeout) * time.Second)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	var reason string
	select {
	case waitErr := <-done:
		reporter.Stop()
		if waitErr != nil {
			// Engine failure: report the last known position, not a
			// fabricated completion, and propagate the failure.
			progress, speed := state.Snapshot()
			w.Status(progress, speed)
			console.Error("Engine exited with code %d", ExitCode(waitErr))
			return 1
		}
		progress, speed := state.Finish()
		w.Status(progress, speed)
		if spec.Debug {
			console.Success("Engine finished, %d cracked", reformatter.Count())
		}
		return 0

	case <-sigCh:
		reason = "termination signal"
	case <-orphaned:
		reason = "parent death"
	case <-timeoutCh:
		reason = "timeout"
	case <-monitor.WindowExceeded():
		reason = "chunk window exhausted"
	}

	debug.Info("Stopping run: %s", reason)
	reporter.Stop()
	progress, speed := state.Finish()
	w.Status(progress, speed)

	sup.Terminate(settings.GracePeriod)
	<-done

	if spec.Debug {
		console.Status("Run stopped (%s), %d cracked", reason, reformatter.Count())
	}
	return 0
}

// displayLoop renders a human-readable progress line on stderr in debug
// mode. Purely cosmetic; the coordinator only sees the STATUS stream.
func displayLoop(state *State, interval time.Duration, stop <-chan struct{}) {
	started := time.Now()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			progress, speed := state.Snapshot()
			line, found := state.Details()
			console.Progress(console.FormatRunProgress(console.RunProgress{
				Permille:    progress,
				HashRate:    speed,
				LineIndex:   line,
				FoundCount:  found,
				ElapsedSecs: int(time.Since(started).Seconds()),
			}))
		}
	}
}

package engine

import (
	"bufio"
	"io"
	"math"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/hashwrap/mdxagent/pkg/debug"
)

// ProgressMax is the terminal progress value the coordinator expects.
const ProgressMax = 10000

// State is the shared progress estimate. The monitor is its single
// writer; the status reporter reads it through Snapshot. Progress never
// regresses, and ProgressMax is only ever produced by Finish.
type State struct {
	mu       sync.Mutex
	progress int
	speed    int64
	line     int64
	found    int64
	finished bool

	started       time.Time
	keyspaceKnown bool
	timeout       time.Duration // 0 means none; bounds the fallback estimate
}

// NewState creates the progress state. keyspaceKnown selects between the
// line-based estimator and the elapsed-time fallback.
func NewState(keyspaceKnown bool, timeout time.Duration) *State {
	return &State{
		started:       time.Now(),
		keyspaceKnown: keyspaceKnown,
		timeout:       timeout,
	}
}

// update applies a parsed diagnostic sample. Progress is clamped to
// [0, ProgressMax-1] so the terminal value stays reserved for Finish, and
// never moves backward.
func (st *State) update(progress int, speed, line, found int64) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if progress < 0 {
		progress = 0
	}
	if progress > ProgressMax-1 {
		progress = ProgressMax - 1
	}
	if progress > st.progress {
		st.progress = progress
	}
	if speed >= 0 {
		st.speed = speed
	}
	st.line = line
	st.found = found
}

// Snapshot returns the current (progress, speed) pair. Before any sample
// has arrived it returns (0, 0); when the total keyspace is unknown it
// substitutes the elapsed-time estimate.
func (st *State) Snapshot() (int, int64) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.finished {
		return ProgressMax, st.speed
	}
	if st.keyspaceKnown {
		return st.progress, st.speed
	}
	return st.elapsedEstimate(), st.speed
}

// elapsedEstimate guesses progress from wall time alone: against the
// configured timeout when one exists, otherwise one point per second.
// Capped below ProgressMax so completion is never reported early.
func (st *State) elapsedEstimate() int {
	elapsed := time.Since(st.started)
	var estimate int
	if st.timeout > 0 {
		estimate = int(elapsed * ProgressMax / st.timeout)
	} else {
		estimate = int(elapsed / time.Second)
	}
	if estimate > ProgressMax-1 {
		estimate = ProgressMax - 1
	}
	if estimate < st.progress {
		estimate = st.progress
	}
	return estimate
}

// Details returns the raw observed line index and found count.
func (st *State) Details() (line, found int64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.line, st.found
}

// Finish force-sets the terminal progress value and returns the final
// (progress, speed) pair. Later calls keep returning the same pair.
func (st *State) Finish() (int, int64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.finished = true
	st.progress = ProgressMax
	return ProgressMax, st.speed
}

// diagPattern matches the engine's periodic diagnostic line, e.g.
//
//	Working on hashmob.net w=248, line 360, Found=0, 12.86Mh/s, 2.76Kc/s
//
// The format is pinned against mdxfind 1.110; drift in the engine's log
// format surfaces as silently ignored lines, not as failures.
var diagPattern = regexp.MustCompile(`line (\d+), Found=(\d+), ([0-9.]+)([KMGT]?)h/s, ([0-9.]+)([KMGT]?)c/s`)

// Sample is one parsed diagnostic line.
type Sample struct {
	Line          int64
	Found         int64
	HashRate      int64
	CandidateRate int64
}

// parseDiagnostic extracts a Sample from a diagnostic line. Lines that do
// not match the expected pattern yield ok=false and are never an error.
func parseDiagnostic(line string) (Sample, bool) {
	m := diagPattern.FindStringSubmatch(line)
	if m == nil {
		return Sample{}, false
	}

	lineIdx, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return Sample{}, false
	}
	found, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return Sample{}, false
	}
	hashRate, ok := parseRate(m[3], m[4])
	if !ok {
		return Sample{}, false
	}
	// Candidate rate is informational only; never reported as speed.
	candRate, ok := parseRate(m[5], m[6])
	if !ok {
		return Sample{}, false
	}

	return Sample{Line: lineIdx, Found: found, HashRate: hashRate, CandidateRate: candRate}, true
}

// parseRate converts a decimal value with a K/M/G/T suffix into an
// integer per-second rate.
func parseRate(value, suffix string) (int64, bool) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}
	switch suffix {
	case "K":
		v *= 1e3
	case "M":
		v *= 1e6
	case "G":
		v *= 1e9
	case "T":
		v *= 1e12
	case "":
	default:
		return 0, false
	}
	return int64(math.Round(v)), true
}

// Monitor drains the engine's diagnostic stream and maintains the shared
// progress state.
type Monitor struct {
	state     *State
	skip      int64
	effective int64 // candidates inside the window; 0 when unknown
	windowEnd int64 // exclusive; 0 when unbounded
	debugEcho bool

	// windowDone fires once when the observed line index crosses the end
	// of the assigned window. Treated exactly like a timeout.
	windowDone chan struct{}
	windowOnce sync.Once
}

// NewMonitor creates a monitor for the given window. effective is the
// candidate count inside [skip, skip+limit), or 0 when unknown.
func NewMonitor(state *State, skip, effective, windowEnd int64, debugEcho bool) *Monitor {
	return &Monitor{
		state:      state,
		skip:       skip,
		effective:  effective,
		windowEnd:  windowEnd,
		debugEcho:  debugEcho,
		windowDone: make(chan struct{}),
	}
}

// WindowExceeded fires when the engine has run past the assigned chunk.
func (m *Monitor) WindowExceeded() <-chan struct{} { return m.windowDone }

// Drain consumes the diagnostic stream until EOF. Unparseable lines are
// discarded, or echoed to the log in debug mode.
func (m *Monitor) Drain(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		sample, ok := parseDiagnostic(line)
		if !ok {
			if m.debugEcho {
				debug.Debug("engine: %s", line)
			}
			continue
		}

		m.state.update(m.progressFor(sample.Line), sample.HashRate, sample.Line, sample.Found)

		if m.windowEnd > 0 && sample.Line >= m.windowEnd {
			m.windowOnce.Do(func() { close(m.windowDone) })
		}
	}
	if err := scanner.Err(); err != nil {
		debug.Warning("Diagnostic stream read error: %v", err)
	}
}

// progressFor maps an absolute wordlist line index onto the 0-10000 scale
// relative to the assigned window. Returns -1 when the keyspace is
// unknown so the update keeps the fallback estimator authoritative.
func (m *Monitor) progressFor(line int64) int {
	if m.effective <= 0 {
		return -1
	}
	processed := line - m.skip
	if processed < 0 {
		processed = 0
	}
	return int(math.Round(float64(processed) * ProgressMax / float64(m.effective)))
}

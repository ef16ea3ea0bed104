/*
 * Package status owns the coordinator protocol stream. Every line the
 * coordinator reads (STATUS reports, cracked results, the keyspace
 * count) goes through one locked Writer so concurrent producers can
 * never interleave partial lines.
 */
package status

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/hashwrap/mdxagent/pkg/debug"
)

// Writer serializes protocol lines onto the coordinator stream. Lines are
// written unbuffered: the coordinator consumes them as they arrive.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriter wraps the coordinator stream (normally stdout).
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Status emits one STATUS line: progress in 0-10000 units and speed in
// hashes per second.
func (w *Writer) Status(progress int, speed int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintf(w.w, "STATUS %d %d\n", progress, speed)
}

// Result emits one reformatted cracked-record line.
func (w *Writer) Result(line string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintln(w.w, line)
}

// Keyspace emits the single integer reply to the keyspace action.
func (w *Writer) Keyspace(count int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintln(w.w, count)
}

// Reporter emits STATUS lines at a fixed interval, independent of how
// often the engine produces diagnostic output. The snapshot function is
// read-only against the shared progress state and returns (0, 0) until
// the first sample arrives.
type Reporter struct {
	writer   *Writer
	interval time.Duration
	snapshot func() (int, int64)

	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// NewReporter creates a reporter; Start must be called to begin emission.
func NewReporter(w *Writer, interval time.Duration, snapshot func() (int, int64)) *Reporter {
	return &Reporter{
		writer:   w,
		interval: interval,
		snapshot: snapshot,
		stop:     make(chan struct{}),
	}
}

// Start launches the emission loop.
func (r *Reporter) Start() {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-r.stop:
				return
			case <-ticker.C:
				progress, speed := r.snapshot()
				r.writer.Status(progress, speed)
			}
		}
	}()
	debug.Info("Status reporter started, interval %s", r.interval)
}

// Stop halts the emission loop. The caller emits the final terminal
// STATUS itself, after Stop returns, so the 10000 line is always last.
func (r *Reporter) Stop() {
	r.once.Do(func() { close(r.stop) })
	r.wg.Wait()
}

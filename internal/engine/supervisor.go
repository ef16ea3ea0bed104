/*
 * Package engine owns the external cracking engine subprocess: locating
 * the binary, building its argument list, spawning it, draining its two
 * output streams, and driving the graceful-then-forced shutdown sequence.
 */
package engine

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/hashwrap/mdxagent/internal/config"
	"github.com/hashwrap/mdxagent/pkg/debug"
	"github.com/shirou/gopsutil/process"
)

// EngineBinary is the name of the external engine executable.
const EngineBinary = "mdxfind"

// SpawnError means the engine binary could not be located or started.
// It is fatal before any STATUS line is emitted.
type SpawnError struct {
	Path string
	Err  error
}

func (e *SpawnError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("engine binary not found: %v", e.Err)
	}
	return fmt.Sprintf("failed to spawn engine %s: %v", e.Path, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// FindBinary locates the engine executable. The configured override wins;
// otherwise the mdx_bin directories next to the agent are searched, then
// PATH. A found file that is not executable is still an error.
func FindBinary(override string) (string, error) {
	var candidates []string
	if override != "" {
		candidates = append(candidates, override)
	}
	if execPath, err := os.Executable(); err == nil {
		execDir := filepath.Dir(execPath)
		candidates = append(candidates,
			filepath.Join(execDir, "mdx_bin", EngineBinary),
			filepath.Join(execDir, "..", "mdx_bin", EngineBinary),
		)
	}
	candidates = append(candidates, filepath.Join("mdx_bin", EngineBinary))

	for _, path := range candidates {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		if info.Mode().Perm()&0111 == 0 {
			return "", &SpawnError{Path: path, Err: fmt.Errorf("not executable")}
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		debug.Info("Using engine binary: %s", abs)
		return abs, nil
	}

	if path, err := exec.LookPath(EngineBinary); err == nil {
		debug.Info("Using engine binary from PATH: %s", path)
		return path, nil
	}

	return "", &SpawnError{Err: fmt.Errorf("%s not found in %v or PATH", EngineBinary, candidates)}
}

// BuildArgs constructs the engine argument list from the attack spec:
//
//	-h <type> -i <n> -q <n> [-w <skip>] <hashfile> <saltfile> <source> [passthrough...]
//
// Unrecognized coordinator tokens go last, in their original order.
func BuildArgs(spec *config.AttackSpec, hashFile, saltFile string) []string {
	args := []string{
		"-h", spec.HashType,
		"-i", strconv.Itoa(spec.Iterations),
		"-q", strconv.Itoa(spec.Iterations),
	}
	if spec.Skip > 0 {
		args = append(args, "-w", strconv.FormatInt(spec.Skip, 10))
	}
	args = append(args, hashFile, saltFile, spec.AttackSource())
	args = append(args, spec.Passthrough...)
	return args
}

// Handle identifies the live engine process. At most one exists per agent
// invocation and it is never reused.
type Handle struct {
	PID       int
	StartTime time.Time
}

// Supervisor wraps the engine subprocess. Stream draining happens on
// separate goroutines owned by the caller; the supervisor only reaps the
// process after both drains signal completion, so that reaping can never
// close the pipes under an active reader.
type Supervisor struct {
	cmd    *exec.Cmd
	handle Handle
	stdout io.ReadCloser
	stderr io.ReadCloser

	done    chan error
	exited  chan struct{}
	reaping sync.Once
}

// Spawn starts the engine. Failures are classified as SpawnError.
func Spawn(binary string, args []string, workDir string) (*Supervisor, error) {
	cmd := exec.Command(binary, args...)
	cmd.Dir = workDir
	cmd.Env = os.Environ()
	// Own process group: the engine may fork helpers that inherit the
	// output pipes, and a kill that misses them would leave the drains
	// blocked short of EOF.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &SpawnError{Path: binary, Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, &SpawnError{Path: binary, Err: err}
	}

	if err := cmd.Start(); err != nil {
		return nil, &SpawnError{Path: binary, Err: err}
	}

	s := &Supervisor{
		cmd:    cmd,
		handle: Handle{PID: cmd.Process.Pid, StartTime: time.Now()},
		stdout: stdout,
		stderr: stderr,
		done:   make(chan error, 1),
		exited: make(chan struct{}),
	}
	debug.Info("Spawned engine pid %d: %s %v", s.handle.PID, binary, args)
	return s, nil
}

// Handle returns the process handle.
func (s *Supervisor) Handle() Handle { return s.handle }

// Stdout is the engine's result stream.
func (s *Supervisor) Stdout() io.Reader { return s.stdout }

// Stderr is the engine's diagnostic stream.
func (s *Supervisor) Stderr() io.Reader { return s.stderr }

// Reap waits for both stream drains to finish and then reaps the process.
// The returned channel receives the Wait error (nil on exit status 0)
// exactly once.
func (s *Supervisor) Reap(drains *sync.WaitGroup) <-chan error {
	s.reaping.Do(func() {
		go func() {
			drains.Wait()
			err := s.cmd.Wait()
			close(s.exited)
			s.done <- err
		}()
	})
	return s.done
}

// Terminate requests a graceful exit and escalates to SIGKILL if the
// engine is still alive after gracePeriod. It returns once the process
// has exited or the kill has been delivered.
func (s *Supervisor) Terminate(gracePeriod time.Duration) {
	if s.cmd.Process == nil {
		return
	}

	debug.Info("Requesting graceful engine termination (pid %d)", s.handle.PID)
	if err := s.signalGroup(syscall.SIGTERM); err != nil {
		debug.Warning("Failed to signal engine: %v", err)
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	deadline := time.After(gracePeriod)

	for {
		select {
		case <-s.exited:
			debug.Info("Engine exited within grace period")
			return
		case <-ticker.C:
			if alive, err := process.PidExists(int32(s.handle.PID)); err == nil && !alive {
				return
			}
		case <-deadline:
			debug.Warning("Grace period elapsed, killing engine pid %d", s.handle.PID)
			if err := s.signalGroup(syscall.SIGKILL); err != nil {
				debug.Error("Failed to kill engine: %v", err)
			}
			return
		}
	}
}

// signalGroup delivers sig to the engine's process group so forked
// children go down with it. Falls back to the single process if the
// group signal fails.
func (s *Supervisor) signalGroup(sig syscall.Signal) error {
	if err := syscall.Kill(-s.handle.PID, sig); err != nil {
		return s.cmd.Process.Signal(sig)
	}
	return nil
}

// ExitCode extracts the engine's exit code from the Wait error.
func ExitCode(waitErr error) int {
	if waitErr == nil {
		return 0
	}
	if exitErr, ok := waitErr.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}
	return -1
}

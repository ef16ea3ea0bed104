/*
 * Package cleanup removes scratch directories left behind by previous
 * invocations. Each run creates one mdxagent-* work directory and removes
 * it on exit, but a SIGKILL'd agent leaks its directory; the next
 * invocation sweeps anything stale before starting its own work.
 */
package cleanup

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashwrap/mdxagent/pkg/debug"
)

// WorkDirPrefix marks the per-invocation scratch directories.
const WorkDirPrefix = "mdxagent-"

// DefaultMaxAge is how old a leaked work directory must be before it is
// swept. Long enough that no plausibly live run is touched.
const DefaultMaxAge = 24 * time.Hour

// SweepStaleWorkDirs removes mdxagent work directories under root older
// than maxAge. Errors on individual entries are logged and skipped; the
// sweep is best-effort housekeeping, never fatal.
func SweepStaleWorkDirs(root string, maxAge time.Duration) int {
	entries, err := os.ReadDir(root)
	if err != nil {
		debug.Warning("Cannot read work directory root %s: %v", root, err)
		return 0
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), WorkDirPrefix) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			debug.Debug("Cannot stat %s: %v", entry.Name(), err)
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(root, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			debug.Warning("Failed to remove stale work directory %s: %v", path, err)
			continue
		}
		debug.Info("Removed stale work directory %s", path)
		removed++
	}

	return removed
}

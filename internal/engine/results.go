package engine

import (
	"bufio"
	"io"
	"strings"
	"sync/atomic"

	"github.com/hashwrap/mdxagent/internal/status"
	"github.com/hashwrap/mdxagent/pkg/debug"
)

// Reformatter drains the engine's result stream and rewrites each cracked
// record into the coordinator's wire format, streaming every match the
// moment it arrives.
//
// Engine records are plaintext:hash:algorithm; the coordinator expects
// hash:algorithm,salt,plaintext. Neither format escapes embedded
// delimiters, so a plaintext containing ':' is ambiguous on the engine
// side and a salt or plaintext containing ',' is ambiguous on the
// coordinator side. That ambiguity is inherited from the external
// protocol and passed through as-is.
type Reformatter struct {
	writer    *status.Writer
	salts     map[string]string
	debugEcho bool
	count     atomic.Int64
}

// NewReformatter creates a reformatter. salts maps each attacked hash to
// its salt ("" for unsalted) so emitted records carry the salt column.
func NewReformatter(writer *status.Writer, salts map[string]string, debugEcho bool) *Reformatter {
	return &Reformatter{writer: writer, salts: salts, debugEcho: debugEcho}
}

// Count returns how many cracked records have been emitted.
func (r *Reformatter) Count() int64 {
	return r.count.Load()
}

// Drain consumes the result stream until EOF. Non-matching lines are
// dropped (echoed to the log in debug mode) and never emitted as results.
func (r *Reformatter) Drain(in io.Reader) {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		out, ok := r.reformat(line)
		if !ok {
			if r.debugEcho && strings.TrimSpace(line) != "" {
				debug.Debug("engine result stream: %s", line)
			}
			continue
		}
		r.writer.Result(out)
		r.count.Add(1)
	}
	if err := scanner.Err(); err != nil {
		debug.Warning("Result stream read error: %v", err)
	}
}

// reformat turns plaintext:hash:algorithm into hash:algorithm,salt,plaintext.
// The algorithm field keeps any embedded colons (it is the remainder after
// the second separator).
func (r *Reformatter) reformat(line string) (string, bool) {
	parts := strings.SplitN(line, ":", 3)
	if len(parts) != 3 {
		return "", false
	}

	plaintext, hash, algorithm := parts[0], parts[1], parts[2]
	if hash == "" || algorithm == "" {
		return "", false
	}

	salt := r.salts[hash]
	return hash + ":" + algorithm + "," + salt + "," + plaintext, true
}

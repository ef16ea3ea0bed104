package engine

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hashwrap/mdxagent/internal/config"
	"github.com/hashwrap/mdxagent/internal/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runnerSettings(t *testing.T, enginePath string) config.Settings {
	t.Helper()
	return config.Settings{
		EnginePath:         enginePath,
		StatusInterval:     20 * time.Millisecond,
		GracePeriod:        2 * time.Second,
		OrphanPollInterval: 50 * time.Millisecond,
		WorkDirRoot:        t.TempDir(),
	}
}

func writeHashlist(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hashes.tsv")
	require.NoError(t, os.WriteFile(path, []byte(lines), 0644))
	return path
}

func writeWordlist(t *testing.T, words ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "words.txt")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(words, "\n")+"\n"), 0644))
	return path
}

func statusLines(out string) []string {
	var lines []string
	for _, l := range strings.Split(strings.TrimSpace(out), "\n") {
		if strings.HasPrefix(l, "STATUS ") {
			lines = append(lines, l)
		}
	}
	return lines
}

func TestRun_EngineCompletes(t *testing.T) {
	script := writeScript(t, `#!/bin/sh
echo 'Working line 2, Found=1, 1.00Kh/s, 2.00Kc/s' >&2
echo 'password:5f4dcc3b5aa765d61d8327deb882cf99:MD5x01'
exit 0
`)
	spec := &config.AttackSpec{
		Action:     config.ActionCrack,
		Hashlist:   writeHashlist(t, "5f4dcc3b5aa765d61d8327deb882cf99\n"),
		Wordlist:   writeWordlist(t, "password", "letmein", "123456", "qwerty"),
		HashType:   config.DefaultHashType,
		Iterations: config.DefaultIterations,
	}

	var out bytes.Buffer
	code := Run(spec, runnerSettings(t, script), status.NewWriter(&out))
	assert.Equal(t, 0, code)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.NotEmpty(t, lines)

	// Cracked record reformatted to hash:algorithm,salt,plaintext.
	assert.Contains(t, lines, "5f4dcc3b5aa765d61d8327deb882cf99:MD5x01,,password")

	// A clean engine exit always ends with the terminal status, carrying
	// the last observed hash rate.
	assert.Equal(t, "STATUS 10000 1000", lines[len(lines)-1])
	for _, l := range statusLines(out.String()) {
		var progress, speed int64
		n, err := fmt.Sscanf(l, "STATUS %d %d", &progress, &speed)
		require.NoError(t, err)
		require.Equal(t, 2, n)
		assert.LessOrEqual(t, progress, int64(10000))
	}
}

func TestRun_Timeout(t *testing.T) {
	script := writeScript(t, `#!/bin/sh
trap 'exit 0' TERM
sleep 30 >/dev/null 2>&1 &
wait $!
`)
	spec := &config.AttackSpec{
		Action:     config.ActionCrack,
		Hashlist:   writeHashlist(t, "5f4dcc3b5aa765d61d8327deb882cf99\n"),
		Wordlist:   writeWordlist(t, "password"),
		HashType:   config.DefaultHashType,
		Iterations: config.DefaultIterations,
		Timeout:    1,
	}

	var out bytes.Buffer
	start := time.Now()
	code := Run(spec, runnerSettings(t, script), status.NewWriter(&out))

	assert.Equal(t, 0, code)
	assert.Less(t, time.Since(start), 5*time.Second)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.NotEmpty(t, lines)
	assert.True(t, strings.HasPrefix(lines[len(lines)-1], "STATUS 10000 "))

	// Exactly one terminal status.
	terminal := 0
	for _, l := range lines {
		if strings.HasPrefix(l, "STATUS 10000 ") {
			terminal++
		}
	}
	assert.Equal(t, 1, terminal)
}

func TestRun_WindowExhausted(t *testing.T) {
	script := writeScript(t, `#!/bin/sh
echo 'line 10, Found=0, 1.00Kh/s, 1.00Kc/s' >&2
trap 'exit 0' TERM
sleep 30 >/dev/null 2>&1 &
wait $!
`)
	spec := &config.AttackSpec{
		Action:     config.ActionCrack,
		Hashlist:   writeHashlist(t, "5f4dcc3b5aa765d61d8327deb882cf99\n"),
		Wordlist:   writeWordlist(t, "a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"),
		HashType:   config.DefaultHashType,
		Iterations: config.DefaultIterations,
		Skip:       2,
		Limit:      5,
	}

	var out bytes.Buffer
	start := time.Now()
	code := Run(spec, runnerSettings(t, script), status.NewWriter(&out))

	// The engine reports line 10, past the end of the [2, 7) window, so
	// the run stops without waiting out the sleep.
	assert.Equal(t, 0, code)
	assert.Less(t, time.Since(start), 5*time.Second)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.NotEmpty(t, lines)
	assert.True(t, strings.HasPrefix(lines[len(lines)-1], "STATUS 10000 "))
}

func TestRun_EngineFails(t *testing.T) {
	script := writeScript(t, "#!/bin/sh\nexit 2\n")
	spec := &config.AttackSpec{
		Action:     config.ActionCrack,
		Hashlist:   writeHashlist(t, "5f4dcc3b5aa765d61d8327deb882cf99\n"),
		Wordlist:   writeWordlist(t, "password"),
		HashType:   config.DefaultHashType,
		Iterations: config.DefaultIterations,
	}

	var out bytes.Buffer
	code := Run(spec, runnerSettings(t, script), status.NewWriter(&out))
	assert.Equal(t, 1, code)

	// Failure reports the last known position, never the terminal value.
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.NotEmpty(t, lines)
	last := lines[len(lines)-1]
	assert.True(t, strings.HasPrefix(last, "STATUS "))
	assert.False(t, strings.HasPrefix(last, "STATUS 10000 "))
}

func TestRun_BadHashlist(t *testing.T) {
	spec := &config.AttackSpec{
		Action:     config.ActionCrack,
		Hashlist:   filepath.Join(t.TempDir(), "missing.tsv"),
		Wordlist:   writeWordlist(t, "password"),
		HashType:   config.DefaultHashType,
		Iterations: config.DefaultIterations,
	}

	var out bytes.Buffer
	code := Run(spec, runnerSettings(t, "/bin/true"), status.NewWriter(&out))

	// Fatal before spawn: no status output at all.
	assert.Equal(t, 1, code)
	assert.Empty(t, out.String())
}

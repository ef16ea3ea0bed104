package keyspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeWordlist(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "words.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestCountLines(t *testing.T) {
	path := writeWordlist(t, "one\ntwo\nthree\nfour\nfive\n")

	count, err := CountLines(path)
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)
}

func TestCountLines_NoTrailingNewline(t *testing.T) {
	path := writeWordlist(t, "one\ntwo\nthree")

	count, err := CountLines(path)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestCountLines_EmptyFile(t *testing.T) {
	path := writeWordlist(t, "")

	count, err := CountLines(path)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestCountLines_MissingFile(t *testing.T) {
	_, err := CountLines(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

func TestMaskKeyspace(t *testing.T) {
	tests := []struct {
		mask     string
		expected int64
	}{
		{"?d", 10},
		{"?d?d?d", 1000},
		{"?l?u", 26 * 26},
		{"?s", 33},
		{"?a?a", 95 * 95},
		{"?b", 256},
		{"abc?d", 10},       // fixed positions contribute a factor of 1
		{"??", 1},           // literal question mark
		{"???d", 10},        // literal '?' followed by a digit token
		{"password", 1},     // no tokens at all
	}

	for _, tt := range tests {
		t.Run(tt.mask, func(t *testing.T) {
			total, err := MaskKeyspace(tt.mask)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, total)
		})
	}
}

func TestMaskKeyspace_Errors(t *testing.T) {
	for _, mask := range []string{"", "?d?", "?x"} {
		t.Run(mask, func(t *testing.T) {
			_, err := MaskKeyspace(mask)
			assert.Error(t, err)
		})
	}
}

func TestEffective(t *testing.T) {
	tests := []struct {
		name                string
		total, skip, limit  int64
		expected            int64
	}{
		{"no window", 5, 0, 0, 5},
		{"skip and limit inside", 5, 2, 2, 2},
		{"limit zero means unbounded", 5, 2, 0, 3},
		{"limit beyond remainder", 5, 2, 10, 3},
		{"skip beyond total", 5, 7, 0, 0},
		{"skip beyond total with limit", 5, 7, 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Effective(tt.total, tt.skip, tt.limit))
		})
	}
}

func TestWindowEnd(t *testing.T) {
	// skip=2, limit=2 restricts the active window to lines [2, 4).
	assert.Equal(t, int64(4), WindowEnd(2, 2))
	assert.Equal(t, int64(0), WindowEnd(2, 0))
}

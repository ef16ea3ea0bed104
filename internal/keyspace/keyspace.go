/*
 * Package keyspace computes candidate counts and skip/limit windows for
 * distributed work division. The coordinator slices the keyspace into
 * chunks; each agent invocation gets one half-open [skip, skip+limit)
 * window, with limit 0 meaning unbounded.
 */
package keyspace

import (
	"bufio"
	"fmt"
	"os"
)

// Charset sizes for hashcat-style mask tokens.
var maskCharsets = map[byte]int64{
	'l': 26,  // lowercase
	'u': 26,  // uppercase
	'd': 10,  // digits
	's': 33,  // specials
	'a': 95,  // all printable
	'b': 256, // all bytes
}

// CountLines returns the number of candidate lines in a wordlist file.
// A trailing line without a newline still counts.
func CountLines(path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open wordlist: %w", err)
	}
	defer f.Close()

	var count int64
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		count++
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("failed to count wordlist lines: %w", err)
	}
	return count, nil
}

// MaskKeyspace returns the candidate count for a mask: the product of the
// charset sizes of its tokens. "??" is a literal question mark; any other
// byte is a fixed position contributing a factor of 1.
func MaskKeyspace(mask string) (int64, error) {
	if mask == "" {
		return 0, fmt.Errorf("empty mask")
	}

	var total int64 = 1
	for i := 0; i < len(mask); i++ {
		if mask[i] != '?' {
			continue
		}
		if i+1 >= len(mask) {
			return 0, fmt.Errorf("mask %q: trailing '?'", mask)
		}
		i++
		if mask[i] == '?' {
			continue // literal question mark
		}
		size, ok := maskCharsets[mask[i]]
		if !ok {
			return 0, fmt.Errorf("mask %q: unknown token ?%c", mask, mask[i])
		}
		total *= size
	}
	return total, nil
}

// Effective returns the number of candidates inside the [skip, skip+limit)
// window given the total keyspace. A limit of 0 means unbounded; the
// result is never negative.
func Effective(total, skip, limit int64) int64 {
	remaining := total - skip
	if remaining < 0 {
		remaining = 0
	}
	if limit > 0 && limit < remaining {
		return limit
	}
	return remaining
}

// WindowEnd returns the exclusive end of the window, or 0 when the window
// is unbounded.
func WindowEnd(skip, limit int64) int64 {
	if limit == 0 {
		return 0
	}
	return skip + limit
}

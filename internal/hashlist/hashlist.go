/*
 * Package hashlist normalizes the coordinator's tab-separated hash list
 * into the two index-aligned files the engine consumes: one with hashes,
 * one with salts (empty entries for unsalted records).
 */
package hashlist

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashwrap/mdxagent/pkg/debug"
)

// MalformedHashListError reports an unusable row in the hash list. It is
// fatal: the agent refuses to spawn the engine on bad input.
type MalformedHashListError struct {
	Path   string
	Line   int
	Reason string
}

func (e *MalformedHashListError) Error() string {
	return fmt.Sprintf("malformed hash list %s: line %d: %s", e.Path, e.Line, e.Reason)
}

// Record is one hash with its optional salt.
type Record struct {
	Hash string
	Salt string
}

// List is an ordered hash list. Order is preserved from the source file
// because the derived files must stay index-aligned.
type List struct {
	Records []Record
}

// ParseFile reads a TSV hash list: column 1 is the hash (required),
// column 2 the salt (optional). An empty line or a row without a hash
// column yields a MalformedHashListError.
func ParseFile(path string) (*List, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open hash list: %w", err)
	}
	defer f.Close()

	list := &List{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			return nil, &MalformedHashListError{Path: path, Line: lineNo, Reason: "empty line"}
		}

		cols := strings.SplitN(line, "\t", 3)
		if cols[0] == "" {
			return nil, &MalformedHashListError{Path: path, Line: lineNo, Reason: "missing hash column"}
		}

		rec := Record{Hash: cols[0]}
		if len(cols) > 1 {
			rec.Salt = cols[1]
		}
		list.Records = append(list.Records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read hash list: %w", err)
	}

	if len(list.Records) == 0 {
		return nil, &MalformedHashListError{Path: path, Line: 0, Reason: "no records"}
	}

	debug.Info("Parsed hash list %s: %d records, all unsalted: %v",
		path, len(list.Records), list.AllUnsalted())
	return list, nil
}

// AllUnsalted reports whether no record carries a salt.
func (l *List) AllUnsalted() bool {
	for _, rec := range l.Records {
		if rec.Salt != "" {
			return false
		}
	}
	return true
}

// SaltMap returns the hash to salt mapping used when reformatting cracked
// records. Unsalted records map to the empty string.
func (l *List) SaltMap() map[string]string {
	m := make(map[string]string, len(l.Records))
	for _, rec := range l.Records {
		m[rec.Hash] = rec.Salt
	}
	return m
}

// WriteDerived writes the hash-only and salt-only files into dir and
// returns their paths. The engine requires the salt file even when every
// record is unsalted; both files always have exactly len(Records) lines.
func (l *List) WriteDerived(dir string) (hashFile, saltFile string, err error) {
	hashFile = filepath.Join(dir, "attacked.hashes")
	saltFile = filepath.Join(dir, "attacked.salts")

	var hashes, salts strings.Builder
	for _, rec := range l.Records {
		hashes.WriteString(rec.Hash)
		hashes.WriteByte('\n')
		salts.WriteString(rec.Salt)
		salts.WriteByte('\n')
	}

	if err := os.WriteFile(hashFile, []byte(hashes.String()), 0644); err != nil {
		return "", "", fmt.Errorf("failed to write hash file: %w", err)
	}
	if err := os.WriteFile(saltFile, []byte(salts.String()), 0644); err != nil {
		return "", "", fmt.Errorf("failed to write salt file: %w", err)
	}

	debug.Debug("Wrote derived files %s and %s", hashFile, saltFile)
	return hashFile, saltFile, nil
}

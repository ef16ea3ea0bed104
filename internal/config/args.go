package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Action is the operation requested by the coordinator.
type Action string

const (
	ActionKeyspace Action = "keyspace"
	ActionCrack    Action = "crack"
)

// AttackSpec describes one agent invocation. It is built once from the
// command line and never mutated afterward.
type AttackSpec struct {
	Action     Action
	Hashlist   string // path to the TSV hash list (crack only)
	Wordlist   string // attack source: wordlist file
	Mask       string // attack source: mask, mutually exclusive with Wordlist
	HashType   string // engine hash-type selector
	Iterations int
	Skip       int64
	Limit      int64 // 0 means unbounded
	Timeout    int   // seconds, 0 means no timeout
	Debug      bool

	// Passthrough holds every token the agent did not recognize, in
	// original order. They are appended verbatim to the engine argv so
	// new engine capabilities work without agent changes.
	Passthrough []string
}

// IsMask reports whether the attack source is a mask rather than a
// wordlist file.
func (s *AttackSpec) IsMask() bool {
	return s.Mask != ""
}

// AttackSource returns the wordlist path or the mask, whichever is set.
func (s *AttackSpec) AttackSource() string {
	if s.Mask != "" {
		return s.Mask
	}
	return s.Wordlist
}

// recognized maps each flag the agent owns to whether it consumes a value.
// Anything not listed here is coordinator passthrough. Note the engine's
// own short flags (-i, -q, -e, ...) are deliberately absent.
var recognized = map[string]bool{
	"-a": true, "--attacked-hashlist": true,
	"-w": true, "--wordlist": true,
	"-m": true, "--mask": true,
	"-t": true, "--type": true,
	"-s": true, "--skip": true,
	"-l": true, "--length": true,
	"--timeout":    true,
	"--iterations": true,
	"--debug":      false,
}

// ParseArgs translates the command line (without the program name) into an
// AttackSpec. The first positional token is the action; every unrecognized
// token is preserved in order for the engine.
func ParseArgs(args []string) (*AttackSpec, error) {
	spec := &AttackSpec{
		HashType:   DefaultHashType,
		Iterations: DefaultIterations,
	}

	actionSet := false
	for i := 0; i < len(args); i++ {
		tok := args[i]

		name := tok
		inlineValue := ""
		hasInline := false
		if strings.HasPrefix(tok, "--") {
			if eq := strings.Index(tok, "="); eq >= 0 {
				name = tok[:eq]
				inlineValue = tok[eq+1:]
				hasInline = true
			}
		}

		takesValue, known := recognized[name]
		if !known {
			if !actionSet && !strings.HasPrefix(tok, "-") {
				action := Action(tok)
				if action != ActionKeyspace && action != ActionCrack {
					return nil, fmt.Errorf("invalid action %q (expected keyspace or crack)", tok)
				}
				spec.Action = action
				actionSet = true
				continue
			}
			spec.Passthrough = append(spec.Passthrough, tok)
			continue
		}

		value := inlineValue
		if takesValue && !hasInline {
			if i+1 >= len(args) {
				return nil, fmt.Errorf("flag %s requires a value", name)
			}
			i++
			value = args[i]
		}

		var err error
		switch name {
		case "-a", "--attacked-hashlist":
			spec.Hashlist = value
		case "-w", "--wordlist":
			spec.Wordlist = value
		case "-m", "--mask":
			spec.Mask = value
		case "-t", "--type":
			spec.HashType = value
		case "-s", "--skip":
			spec.Skip, err = parseNonNegative(name, value)
		case "-l", "--length":
			spec.Limit, err = parseNonNegative(name, value)
		case "--timeout":
			var t int64
			t, err = parseNonNegative(name, value)
			spec.Timeout = int(t)
		case "--iterations":
			var n int64
			n, err = parseNonNegative(name, value)
			spec.Iterations = int(n)
		case "--debug":
			spec.Debug = true
		}
		if err != nil {
			return nil, err
		}
	}

	if !actionSet {
		return nil, fmt.Errorf("missing action (expected keyspace or crack)")
	}
	if err := spec.validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

func parseNonNegative(flag, value string) (int64, error) {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("flag %s: invalid integer %q", flag, value)
	}
	if n < 0 {
		return 0, fmt.Errorf("flag %s: value must not be negative", flag)
	}
	return n, nil
}

func (s *AttackSpec) validate() error {
	if s.Wordlist != "" && s.Mask != "" {
		return fmt.Errorf("--wordlist and --mask are mutually exclusive")
	}
	if s.AttackSource() == "" {
		return fmt.Errorf("%s requires --wordlist or --mask", s.Action)
	}
	if s.Action == ActionCrack && s.Hashlist == "" {
		return fmt.Errorf("crack requires --attacked-hashlist")
	}
	return nil
}

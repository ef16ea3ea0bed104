package main

import (
	"os"

	"github.com/hashwrap/mdxagent/internal/cleanup"
	"github.com/hashwrap/mdxagent/internal/config"
	"github.com/hashwrap/mdxagent/internal/engine"
	"github.com/hashwrap/mdxagent/internal/keyspace"
	"github.com/hashwrap/mdxagent/internal/status"
	"github.com/hashwrap/mdxagent/internal/version"
	"github.com/hashwrap/mdxagent/pkg/console"
	"github.com/hashwrap/mdxagent/pkg/debug"
)

/*
 * mdxagent wraps the MDXfind hash-identification engine for a distributed
 * cracking coordinator. The coordinator invokes it with an action
 * (keyspace or crack) plus recognized flags; anything it does not
 * recognize passes through verbatim to the engine.
 *
 * Stdout carries the coordinator protocol (STATUS lines, cracked
 * records, the keyspace count). Everything human-facing goes to stderr.
 */
func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	spec, err := config.ParseArgs(args)
	if err != nil {
		console.Error("%v", err)
		return 1
	}

	// Process debug flag before anything else so early logging works.
	if spec.Debug {
		os.Setenv("DEBUG", "true")
		os.Setenv("LOG_LEVEL", "DEBUG")
	}
	debug.Reinitialize()
	debug.Info("mdxagent %s starting, action %s", version.GetVersion(), spec.Action)

	settings, err := config.LoadSettings()
	if err != nil {
		console.Error("%v", err)
		return 1
	}
	// The --debug flag wins over whatever the .env file says.
	if spec.Debug {
		os.Setenv("DEBUG", "true")
		os.Setenv("LOG_LEVEL", "DEBUG")
		debug.Reinitialize()
	}

	cleanup.SweepStaleWorkDirs(settings.WorkDirRoot, cleanup.DefaultMaxAge)

	w := status.NewWriter(os.Stdout)

	switch spec.Action {
	case config.ActionKeyspace:
		return runKeyspace(spec, w)
	case config.ActionCrack:
		return engine.Run(spec, settings, w)
	}
	return 1
}

// runKeyspace counts the attack source's candidates, prints the single
// integer the coordinator expects, and exits.
func runKeyspace(spec *config.AttackSpec, w *status.Writer) int {
	var total int64
	var err error
	if spec.IsMask() {
		total, err = keyspace.MaskKeyspace(spec.Mask)
	} else {
		total, err = keyspace.CountLines(spec.Wordlist)
	}
	if err != nil {
		console.Error("%v", err)
		return 1
	}

	w.Keyspace(total)
	return 0
}

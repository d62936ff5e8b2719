package preflight

import (
	"os"
	"strings"

	"bookbinder/internal/config"
)

// MinScratchBytes is the free space required where merge intermediates are
// written. A lossless intermediate for a long book runs to several GiB.
const MinScratchBytes = 2 << 30

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the directory checks for the given config.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}

	scratch := strings.TrimSpace(cfg.Paths.TempDir)
	if scratch == "" {
		scratch = os.TempDir()
	}
	access := CheckDirectoryAccess("Scratch directory", scratch)
	results = append(results, access)
	if access.Passed {
		results = append(results, CheckFreeSpace("Scratch space", scratch, MinScratchBytes))
	}
	return results
}

// Failed returns the checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

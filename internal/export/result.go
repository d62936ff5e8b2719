package export

import (
	"errors"
	"sort"
)

// ErrLocked reports an output directory already claimed by another job.
var ErrLocked = errors.New("output directory locked by another job")

// Result is the outcome for one chapter.
type Result struct {
	Index      int
	Label      string
	Start      float64
	End        float64
	OutputPath string
	OK         bool
	SizeBytes  int64
	// Superseded marks a chapter whose file was replaced by a later chapter
	// with the same label under the overwrite policy.
	Superseded bool
	Err        error
}

// Report aggregates the results of one export.
type Report struct {
	Source    string
	OutputDir string
	Results   []Result
	Warnings  []string
}

// Succeeded counts chapter files left on disk: written and not superseded.
func (r Report) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.OK && !res.Superseded {
			n++
		}
	}
	return n
}

// Failed counts chapters whose export failed.
func (r Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if !res.OK {
			n++
		}
	}
	return n
}

// OK reports whether every chapter was written.
func (r Report) OK() bool {
	return r.Failed() == 0
}

func (r *Report) sortResults() {
	sort.Slice(r.Results, func(i, j int) bool { return r.Results[i].Index < r.Results[j].Index })
}

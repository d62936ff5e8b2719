package assemble

import (
	"fmt"
	"math"

	"bookbinder/internal/textutil"
)

// Entry is one source file and the chapter it becomes.
type Entry struct {
	Source   string
	Duration float64
	Start    float64
	End      float64
	Label    string
}

// Plan is the chapter layout of the assembled container.
type Plan struct {
	Entries        []Entry
	CoverImagePath string
	Artist         string
	Title          string
}

// Duration is the total length of all entries.
func (p Plan) Duration() float64 {
	if len(p.Entries) == 0 {
		return 0
	}
	return p.Entries[len(p.Entries)-1].End
}

// BuildPlan lays sources end to end. Chapter titles come from file names.
func BuildPlan(sources []string, durations []float64) (Plan, error) {
	if len(sources) != len(durations) {
		return Plan{}, fmt.Errorf("%d sources but %d durations", len(sources), len(durations))
	}
	plan := Plan{Entries: make([]Entry, 0, len(sources))}
	var cursor float64
	for i, source := range sources {
		d := durations[i]
		if d <= 0 || math.IsNaN(d) || math.IsInf(d, 0) {
			return Plan{}, fmt.Errorf("duration of %s is unknown", source)
		}
		label := textutil.LabelFromFilename(source)
		if label == "" {
			label = fmt.Sprintf("Chapter %d", i+1)
		}
		plan.Entries = append(plan.Entries, Entry{
			Source:   source,
			Duration: d,
			Start:    cursor,
			End:      cursor + d,
			Label:    label,
		})
		cursor += d
	}
	return plan, nil
}

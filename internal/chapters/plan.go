package chapters

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"bookbinder/internal/engine"
	"bookbinder/internal/logging"
	"bookbinder/internal/probe"
	"bookbinder/internal/textutil"
)

// Policy names how a plan was derived.
type Policy string

const (
	PolicyEmbedded   Policy = "embedded"
	PolicyEqualSplit Policy = "equal-split"
	PolicyNone       Policy = "none"
)

// DefaultSegmentSeconds is the equal-split window when none is configured.
const DefaultSegmentSeconds = 2 * 60 * 60

// Chapter is one planned window [Start, End).
type Chapter struct {
	Index int
	Start float64
	End   float64
	Label string
}

// Length returns End - Start in seconds.
func (c Chapter) Length() float64 {
	return c.End - c.Start
}

// Plan is the ordered chapter list for one container.
type Plan struct {
	Chapters []Chapter
	Policy   Policy
	Duration float64
	Warnings []string
}

// Empty reports whether the plan has nothing to export.
func (p Plan) Empty() bool {
	return len(p.Chapters) == 0
}

// Planner derives chapter plans.
type Planner struct {
	segmentSeconds float64
	logger         *slog.Logger
}

// NewPlanner constructs a planner; a non-positive segment length falls back
// to DefaultSegmentSeconds.
func NewPlanner(segmentSeconds float64, logger *slog.Logger) *Planner {
	if segmentSeconds <= 0 || math.IsNaN(segmentSeconds) || math.IsInf(segmentSeconds, 0) {
		segmentSeconds = DefaultSegmentSeconds
	}
	return &Planner{
		segmentSeconds: segmentSeconds,
		logger:         logging.NewComponentLogger(logger, "planner"),
	}
}

// Plan picks the embedded policy when the probe carries chapters and the
// equal-split policy otherwise.
func (p *Planner) Plan(media probe.MediaProbe) Plan {
	duration := media.Duration
	if duration < 0 || math.IsNaN(duration) || math.IsInf(duration, 0) {
		duration = 0
	}
	var plan Plan
	if len(media.Chapters) > 0 {
		plan = p.embedded(media.Chapters, duration)
	} else {
		plan = p.equalSplit(duration)
	}
	for _, warning := range plan.Warnings {
		logging.WarnWithContext(p.logger, warning, "chapter_plan_adjusted",
			logging.String("path", media.Path),
			logging.String("policy", string(plan.Policy)),
			logging.String(logging.FieldErrorHint, "inspect the container's chapter markers"),
			logging.String(logging.FieldImpact, "chapter boundaries differ from the container"),
		)
	}
	p.logger.Debug("chapter plan ready",
		logging.String("path", media.Path),
		logging.String("policy", string(plan.Policy)),
		logging.Int("chapter_count", len(plan.Chapters)),
		logging.Float64("duration_seconds", duration),
	)
	return plan
}

type positioned struct {
	engine.RawChapter
	position int
}

func (p *Planner) embedded(raw []engine.RawChapter, duration float64) Plan {
	plan := Plan{Policy: PolicyEmbedded, Duration: duration}
	known := duration > 0

	items := make([]positioned, len(raw))
	for i, ch := range raw {
		items[i] = positioned{RawChapter: ch, position: i + 1}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Start < items[j].Start })

	for i := range items {
		items[i].Start = clamp(items[i].Start, duration, known)
		items[i].End = clamp(items[i].End, duration, known)
	}
	for i := range items {
		if i+1 < len(items) {
			items[i].End = items[i+1].Start
		} else if known {
			items[i].End = duration
		}
	}

	for _, item := range items {
		label := item.Title
		if label == "" {
			label = fmt.Sprintf("Chapter_%d", item.position)
		}
		label = textutil.SanitizeLabel(label)
		if label == "" {
			label = fmt.Sprintf("Chapter_%d", item.position)
		}
		if item.End <= item.Start {
			plan.Warnings = append(plan.Warnings,
				fmt.Sprintf("dropped zero-length chapter %d (%s) at %.3fs", item.position, label, item.Start))
			continue
		}
		plan.Chapters = append(plan.Chapters, Chapter{
			Index: len(plan.Chapters),
			Start: item.Start,
			End:   item.End,
			Label: label,
		})
	}
	return plan
}

func (p *Planner) equalSplit(duration float64) Plan {
	if duration <= 0 {
		return Plan{
			Policy:   PolicyNone,
			Warnings: []string{"no chapters and unknown duration; nothing to split"},
		}
	}
	length := p.segmentSeconds
	count := int(math.Ceil(duration / length))
	width := len(fmt.Sprint(count))
	if width < 2 {
		width = 2
	}
	plan := Plan{Policy: PolicyEqualSplit, Duration: duration, Chapters: make([]Chapter, 0, count)}
	for i := 0; i < count; i++ {
		start := float64(i) * length
		end := math.Min(float64(i+1)*length, duration)
		if end <= start {
			break
		}
		plan.Chapters = append(plan.Chapters, Chapter{
			Index: i,
			Start: start,
			End:   end,
			Label: fmt.Sprintf("Segment_%0*d", width, i+1),
		})
	}
	return plan
}

func clamp(v, duration float64, known bool) float64 {
	if v < 0 {
		return 0
	}
	if known && v > duration {
		return duration
	}
	return v
}

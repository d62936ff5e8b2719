package workflow

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"bookbinder/internal/chapters"
	"bookbinder/internal/config"
	"bookbinder/internal/engine"
	"bookbinder/internal/history"
	"bookbinder/internal/logging"
	"bookbinder/internal/probe"
)

// Runner executes split and merge jobs for one configuration.
type Runner struct {
	cfg     *config.Config
	engine  engine.Engine
	prober  *probe.Prober
	planner *chapters.Planner
	history *history.Store
	logger  *slog.Logger

	onSegment SegmentFunc
	onBook    BookFunc
	newID     func() string
}

// Option customizes a Runner.
type Option func(*Runner)

// WithHistory records every job in store. A nil store disables recording.
func WithHistory(store *history.Store) Option {
	return func(r *Runner) {
		r.history = store
	}
}

// WithSegmentProgress registers a callback for every exported chapter.
func WithSegmentProgress(fn SegmentFunc) Option {
	return func(r *Runner) {
		r.onSegment = fn
	}
}

// WithBookProgress registers a callback for every finished book.
func WithBookProgress(fn BookFunc) Option {
	return func(r *Runner) {
		r.onBook = fn
	}
}

// NewRunner constructs a Runner.
func NewRunner(cfg *config.Config, eng engine.Engine, logger *slog.Logger, opts ...Option) *Runner {
	logger = logging.NewComponentLogger(logger, "workflow")
	r := &Runner{
		cfg:    cfg,
		engine: eng,
		prober: probe.New(eng, logger,
			probe.WithTimeout(cfg.ProbeTimeout()),
			probe.WithTags(cfg.Merge.Tags),
		),
		planner: chapters.NewPlanner(cfg.SegmentLength(), logger),
		logger:  logger,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Prober exposes the configured prober for read-only commands.
func (r *Runner) Prober() *probe.Prober {
	return r.prober
}

// Planner exposes the configured chapter planner.
func (r *Runner) Planner() *chapters.Planner {
	return r.planner
}

func (r *Runner) startJob(ctx context.Context, id, kind, source, output string) {
	if r.history == nil {
		return
	}
	job := history.Job{ID: id, Kind: kind, Source: source, Output: output}
	if err := r.history.Start(ctx, job); err != nil {
		logging.WarnWithContext(r.logger, "failed to record job start", "history_write_failed",
			logging.String(logging.FieldJobID, id),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the state directory permissions"),
			logging.String(logging.FieldImpact, "job missing from history"),
		)
	}
}

func (r *Runner) finishJob(ctx context.Context, id string, outcome history.Outcome) {
	if r.history == nil {
		return
	}
	if err := r.history.Finish(context.WithoutCancel(ctx), id, outcome); err != nil {
		logging.WarnWithContext(r.logger, "failed to record job outcome", "history_write_failed",
			logging.String(logging.FieldJobID, id),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the state directory permissions"),
			logging.String(logging.FieldImpact, "history shows the job as running"),
		)
	}
}

package workflow

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/maruel/natural"
	"github.com/marusama/semaphore/v2"

	"bookbinder/internal/chapters"
	"bookbinder/internal/export"
	"bookbinder/internal/history"
	"bookbinder/internal/logging"
	"bookbinder/internal/textutil"
)

// ErrNoBooks reports a split input that contains no containers.
var ErrNoBooks = errors.New("no audiobook containers found")

// BookJob is one container to split.
type BookJob struct {
	ID        string
	Source    string
	OutputDir string
}

// BookOutcome is the result of one book job. Err is set when the book could
// not be processed at all.
type BookOutcome struct {
	Job    BookJob
	Plan   chapters.Plan
	Report export.Report
	Err    error
}

// OK reports whether the book produced a plan and every planned chapter
// was written.
func (o BookOutcome) OK() bool {
	return o.Err == nil && !o.Plan.Empty() && o.Report.OK()
}

// SegmentFunc observes exported chapters.
type SegmentFunc func(BookJob, export.Result)

// BookFunc observes finished books.
type BookFunc func(BookOutcome)

// SplitSummary aggregates every book of a split run.
type SplitSummary struct {
	Books []BookOutcome
}

// Segments returns the chapter counts across all books.
func (s SplitSummary) Segments() (succeeded, failed int) {
	for _, book := range s.Books {
		succeeded += book.Report.Succeeded()
		failed += book.Report.Failed()
	}
	return succeeded, failed
}

// AnyFailure reports a book error or a failed chapter.
func (s SplitSummary) AnyFailure() bool {
	for _, book := range s.Books {
		if !book.OK() {
			return true
		}
	}
	return false
}

// TotalFailure reports that nothing at all was written.
func (s SplitSummary) TotalFailure() bool {
	succeeded, _ := s.Segments()
	return succeeded == 0 && s.AnyFailure()
}

// ResolveSplitJobs expands input into book jobs. A file yields one job; a
// directory is searched recursively for configured source extensions. Each
// book is written to a folder named after it, next to the book or, with
// outputRoot, under outputRoot at the book's path relative to input.
func (r *Runner) ResolveSplitJobs(input, outputRoot string) ([]BookJob, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, fmt.Errorf("split input: %w", err)
	}
	if !info.IsDir() {
		out := filepath.Join(filepath.Dir(input), textutil.Stem(input))
		if outputRoot != "" {
			out = filepath.Join(outputRoot, textutil.Stem(input))
		}
		return []BookJob{{ID: r.newID(), Source: input, OutputDir: out}}, nil
	}

	var sources []string
	err = filepath.WalkDir(input, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if r.isSplitSource(path) {
			sources = append(sources, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", input, err)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w under %s", ErrNoBooks, input)
	}
	sort.Slice(sources, func(i, j int) bool { return natural.Less(sources[i], sources[j]) })

	jobs := make([]BookJob, 0, len(sources))
	for _, source := range sources {
		out := filepath.Join(filepath.Dir(source), textutil.Stem(source))
		if outputRoot != "" {
			rel, err := filepath.Rel(input, filepath.Dir(source))
			if err != nil {
				return nil, fmt.Errorf("relative path for %s: %w", source, err)
			}
			out = filepath.Join(outputRoot, rel, textutil.Stem(source))
		}
		jobs = append(jobs, BookJob{ID: r.newID(), Source: source, OutputDir: out})
	}
	return jobs, nil
}

func (r *Runner) isSplitSource(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, want := range r.cfg.Split.SourceExtensions {
		if ext == want {
			return true
		}
	}
	return false
}

// Split resolves input and splits every book found.
func (r *Runner) Split(ctx context.Context, input, outputRoot string) (SplitSummary, error) {
	jobs, err := r.ResolveSplitJobs(input, outputRoot)
	if err != nil {
		return SplitSummary{}, err
	}
	workers := r.cfg.Workers.Books
	if workers <= 0 {
		workers = 1
	}
	sem := semaphore.New(workers)
	outcomes := make([]BookOutcome, len(jobs))
	var wg sync.WaitGroup
	for i, job := range jobs {
		if err := sem.Acquire(ctx, 1); err != nil {
			outcomes[i] = BookOutcome{Job: job, Err: err}
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)
			outcomes[i] = r.SplitBook(ctx, job)
		}()
	}
	wg.Wait()
	return SplitSummary{Books: outcomes}, ctx.Err()
}

// SplitBook probes, plans and exports a single book.
func (r *Runner) SplitBook(ctx context.Context, job BookJob) BookOutcome {
	ctx = logging.WithJob(ctx, job.ID, history.KindSplit)
	ctx = logging.WithSource(ctx, job.Source)
	logger := logging.WithContext(ctx, r.logger)
	outcome := BookOutcome{Job: job}

	r.startJob(ctx, job.ID, history.KindSplit, job.Source, job.OutputDir)
	defer func() {
		if r.onBook != nil {
			r.onBook(outcome)
		}
	}()

	media, err := r.prober.Probe(ctx, job.Source)
	if err != nil {
		logging.ErrorWithContext(logger, "reading book metadata failed", "book_metadata_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check that the file is a readable audio container"),
		)
		outcome.Err = err
		r.finishJob(ctx, job.ID, history.Outcome{Status: history.StatusFailed, Message: err.Error()})
		return outcome
	}
	outcome.Plan = r.planner.Plan(media)
	logger.Info("book planned",
		logging.String("policy", string(outcome.Plan.Policy)),
		logging.Int("chapter_count", len(outcome.Plan.Chapters)),
		logging.String("output_dir", job.OutputDir),
	)

	opts := []export.Option{}
	if r.onSegment != nil {
		opts = append(opts, export.WithProgress(func(res export.Result) { r.onSegment(job, res) }))
	}
	exporter := export.New(r.engine, export.SettingsFromConfig(r.cfg), logger, opts...)
	outcome.Report, outcome.Err = exporter.Export(ctx, job.Source, outcome.Plan, job.OutputDir)

	finish := history.Outcome{
		Output:    job.OutputDir,
		Succeeded: outcome.Report.Succeeded(),
		Failed:    outcome.Report.Failed(),
		Status:    history.OutcomeFor(outcome.Report.Succeeded(), outcome.Report.Failed()),
	}
	switch {
	case outcome.Err != nil:
		finish.Status = history.StatusFailed
		finish.Message = outcome.Err.Error()
	case outcome.Plan.Empty():
		finish.Status = history.StatusFailed
		finish.Message = strings.Join(outcome.Report.Warnings, "; ")
	}
	r.finishJob(ctx, job.ID, finish)
	return outcome
}

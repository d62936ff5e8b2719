package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/marusama/semaphore/v2"

	"bookbinder/internal/chapters"
	"bookbinder/internal/config"
	"bookbinder/internal/engine"
	"bookbinder/internal/fileutil"
	"bookbinder/internal/logging"
)

// LockFileName is the advisory lock placed in every output directory.
const LockFileName = ".bookbinder.lock"

// Settings control how segments are encoded and scheduled.
type Settings struct {
	Extension    string
	AudioCodec   string
	AudioBitrate string
	Collisions   string
	Workers      int
	Timeout      time.Duration
}

// SettingsFromConfig maps the [split] and [workers] sections.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		Extension:    cfg.Split.Extension,
		AudioCodec:   cfg.Split.AudioCodec,
		AudioBitrate: cfg.Split.AudioBitrate,
		Collisions:   cfg.Split.Collisions,
		Workers:      cfg.Workers.Segments,
		Timeout:      cfg.TranscodeTimeout(),
	}
}

// ProgressFunc receives each chapter result once its output file is final.
// Chapters sharing a file under the overwrite policy are reported together
// after the last one runs. Calls are serialized.
type ProgressFunc func(Result)

// Exporter writes chapter files for a plan.
type Exporter struct {
	engine   engine.Engine
	settings Settings
	logger   *slog.Logger
	progress ProgressFunc
}

// Option customizes an Exporter.
type Option func(*Exporter)

// WithProgress registers a per-chapter callback.
func WithProgress(fn ProgressFunc) Option {
	return func(e *Exporter) {
		e.progress = fn
	}
}

// New constructs an Exporter.
func New(eng engine.Engine, settings Settings, logger *slog.Logger, opts ...Option) *Exporter {
	if settings.Workers <= 0 {
		settings.Workers = 1
	}
	settings.Extension = strings.TrimPrefix(strings.TrimSpace(settings.Extension), ".")
	if settings.Extension == "" {
		settings.Extension = "mp3"
	}
	if settings.Collisions == "" {
		settings.Collisions = config.CollisionOverwrite
	}
	e := &Exporter{
		engine:   eng,
		settings: settings,
		logger:   logging.NewComponentLogger(logger, "exporter"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// target is every chapter that writes to one output path, in plan order.
type target struct {
	path     string
	chapters []chapters.Chapter
}

// Export writes every chapter of plan from source into outputDir. The error
// is reserved for problems that prevent any work (directory creation, the
// directory lock, cancellation); chapter failures are reported in the Report.
func (e *Exporter) Export(ctx context.Context, source string, plan chapters.Plan, outputDir string) (Report, error) {
	report := Report{
		Source:    source,
		OutputDir: outputDir,
		Warnings:  append([]string(nil), plan.Warnings...),
	}
	if plan.Empty() {
		report.Warnings = append(report.Warnings, "chapter plan is empty; nothing exported")
		return report, nil
	}
	if strings.TrimSpace(outputDir) == "" {
		return report, fmt.Errorf("export %s: empty output directory", source)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return report, fmt.Errorf("create output directory: %w", err)
	}

	lock := flock.New(filepath.Join(outputDir, LockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return report, fmt.Errorf("lock output directory: %w", err)
	}
	if !locked {
		return report, fmt.Errorf("%w: %s", ErrLocked, outputDir)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			e.logger.Warn("failed to release output lock", logging.Error(err))
		}
		_ = fileutil.RemoveIfExists(lock.Path())
	}()

	targets, warnings := e.resolveTargets(plan, outputDir)
	report.Warnings = append(report.Warnings, warnings...)

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	record := func(res Result) {
		mu.Lock()
		defer mu.Unlock()
		report.Results = append(report.Results, res)
		if e.progress != nil {
			e.progress(res)
		}
	}

	sem := semaphore.New(e.settings.Workers)
	total := len(plan.Chapters)
	for _, tgt := range targets {
		if err := sem.Acquire(ctx, 1); err != nil {
			for _, ch := range tgt.chapters {
				record(Result{Index: ch.Index, Label: ch.Label, Start: ch.Start, End: ch.End, OutputPath: tgt.path, Err: err})
			}
			continue
		}
		wg.Add(1)
		go func(tgt target) {
			defer wg.Done()
			defer sem.Release(1)
			results := make([]Result, 0, len(tgt.chapters))
			for _, ch := range tgt.chapters {
				results = append(results, e.exportChapter(ctx, source, ch, tgt.path, total))
			}
			for i := range results[:len(results)-1] {
				results[i].Superseded = true
			}
			for _, res := range results {
				record(res)
			}
		}(tgt)
	}
	wg.Wait()

	report.sortResults()
	e.logger.Info("export finished",
		logging.String("source", source),
		logging.String("output_dir", outputDir),
		logging.Int("succeeded", report.Succeeded()),
		logging.Int("failed", report.Failed()),
	)
	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

func (e *Exporter) exportChapter(ctx context.Context, source string, ch chapters.Chapter, output string, total int) Result {
	res := Result{Index: ch.Index, Label: ch.Label, Start: ch.Start, End: ch.End, OutputPath: output}
	callCtx, cancel := e.callContext(ctx)
	defer cancel()

	req := engine.TranscodeRequest{
		Inputs:       []engine.Input{{Path: source}},
		Trim:         &engine.Trim{Start: ch.Start, End: ch.End},
		DropChapters: true,
		NoVideo:      true,
		AudioCodec:   e.settings.AudioCodec,
		AudioBitrate: e.settings.AudioBitrate,
		Metadata: map[string]string{
			"title": ch.Label,
			"track": strconv.Itoa(ch.Index+1) + "/" + strconv.Itoa(total),
		},
		Output: output,
	}
	e.logger.Info("exporting chapter",
		logging.Int("index", ch.Index),
		logging.String("label", ch.Label),
		logging.Float64("start", ch.Start),
		logging.Float64("end", ch.End),
	)
	if err := e.engine.Transcode(callCtx, req); err != nil {
		res.Err = err
		e.warnFailure(res)
		return res
	}
	size, err := fileutil.NonEmptySize(output)
	if err != nil {
		res.Err = fmt.Errorf("verify output: %w", err)
		e.warnFailure(res)
		return res
	}
	res.OK = true
	res.SizeBytes = size
	return res
}

func (e *Exporter) warnFailure(res Result) {
	logging.WarnWithContext(e.logger, "chapter export failed", "segment_export_failed",
		logging.Int("index", res.Index),
		logging.String("label", res.Label),
		logging.String("output", res.OutputPath),
		logging.Error(res.Err),
		logging.String(logging.FieldErrorHint, "rerun with logging.level=debug and inspect the ffmpeg error"),
		logging.String(logging.FieldImpact, "chapter missing from output folder"),
	)
}

// resolveTargets assigns output paths. Under the overwrite policy chapters
// sharing a label share a target and run in plan order so the last one wins.
// Under the suffix policy repeats get _2, _3, ...
func (e *Exporter) resolveTargets(plan chapters.Plan, outputDir string) ([]target, []string) {
	var warnings []string
	byPath := make(map[string]int)
	used := make(map[string]bool)
	targets := make([]target, 0, len(plan.Chapters))
	for _, ch := range plan.Chapters {
		name := ch.Label
		if used[name] {
			switch e.settings.Collisions {
			case config.CollisionSuffix:
				for n := 2; ; n++ {
					candidate := fmt.Sprintf("%s_%d", ch.Label, n)
					if !used[candidate] {
						name = candidate
						break
					}
				}
				warnings = append(warnings, fmt.Sprintf("chapter %d label %q repeated; writing %q", ch.Index+1, ch.Label, name))
			default:
				warnings = append(warnings, fmt.Sprintf("chapter %d label %q repeated; earlier file is overwritten", ch.Index+1, ch.Label))
			}
			logging.WarnWithContext(e.logger, "chapter label collision", "label_collision",
				logging.Int("index", ch.Index),
				logging.String("label", ch.Label),
				logging.String("written_as", name),
				logging.String("policy", e.settings.Collisions),
				logging.String(logging.FieldErrorHint, "set split.collisions = \"suffix\" to keep every chapter"),
				logging.String(logging.FieldImpact, "chapter file names differ from chapter titles"),
			)
		}
		used[name] = true
		path := filepath.Join(outputDir, name+"."+e.settings.Extension)
		if idx, ok := byPath[path]; ok {
			targets[idx].chapters = append(targets[idx].chapters, ch)
			continue
		}
		byPath[path] = len(targets)
		targets = append(targets, target{path: path, chapters: []chapters.Chapter{ch}})
	}
	return targets, warnings
}

func (e *Exporter) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.settings.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.settings.Timeout)
}

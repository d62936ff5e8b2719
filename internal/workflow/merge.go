package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/maruel/natural"

	"bookbinder/internal/assemble"
	"bookbinder/internal/config"
	"bookbinder/internal/history"
	"bookbinder/internal/logging"
)

// MergeOutcome is the result of one merge job.
type MergeOutcome struct {
	ID      string
	Dir     string
	Sources []string
	Result  assemble.Result
	Err     error
}

// ListMergeSources returns the chapter files directly inside dir, in
// natural filename order ("2" before "10").
func (r *Runner) ListMergeSources(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read merge folder: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if r.isMergeSource(entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w in %s", assemble.ErrNoSources, dir)
	}
	sort.Slice(names, func(i, j int) bool { return natural.Less(names[i], names[j]) })
	sources := make([]string, len(names))
	for i, name := range names {
		sources[i] = filepath.Join(dir, name)
	}
	return sources, nil
}

func (r *Runner) isMergeSource(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, want := range r.cfg.Merge.Extensions {
		if ext == want {
			return true
		}
	}
	return false
}

// DefaultMergeOutput is <dir>/<dir name>.<ext>.
func (r *Runner) DefaultMergeOutput(dir string) string {
	clean := filepath.Clean(dir)
	return filepath.Join(clean, filepath.Base(clean)+"."+r.cfg.Merge.OutputExtension)
}

// Merge joins the chapter files in dir into one container. An empty output
// selects DefaultMergeOutput; an empty title leaves the container title unset.
func (r *Runner) Merge(ctx context.Context, dir, output, title string) MergeOutcome {
	outcome := MergeOutcome{ID: r.newID(), Dir: dir}
	ctx = logging.WithJob(ctx, outcome.ID, history.KindMerge)
	ctx = logging.WithSource(ctx, dir)
	logger := logging.WithContext(ctx, r.logger)

	if output == "" {
		output = r.DefaultMergeOutput(dir)
	}
	r.startJob(ctx, outcome.ID, history.KindMerge, dir, output)

	sources, err := r.ListMergeSources(dir)
	if err != nil {
		outcome.Err = err
		r.finishJob(ctx, outcome.ID, history.Outcome{Status: history.StatusFailed, Message: err.Error()})
		return outcome
	}
	if r.cfg.Merge.Order == config.MergeOrderTrack {
		sources = r.orderByTrack(ctx, sources, logger)
	}
	outcome.Sources = sources
	logger.Info("merging folder",
		logging.Int("source_count", len(sources)),
		logging.String("output", output),
		logging.String("order", r.cfg.Merge.Order),
	)

	assembler := assemble.New(r.engine, r.prober, assemble.SettingsFromConfig(r.cfg), logger)
	outcome.Result, outcome.Err = assembler.Assemble(ctx, assemble.Request{Sources: sources, Output: output, Title: title})
	if outcome.Err != nil {
		logging.ErrorWithContext(logger, "merge failed", "merge_failed",
			logging.Int("source_count", len(sources)),
			logging.String("output", output),
			logging.Error(outcome.Err),
		)
		r.finishJob(ctx, outcome.ID, history.Outcome{
			Status:  history.StatusFailed,
			Failed:  len(sources),
			Message: outcome.Err.Error(),
		})
		return outcome
	}
	r.finishJob(ctx, outcome.ID, history.Outcome{
		Status:    history.StatusSucceeded,
		Output:    output,
		Succeeded: len(sources),
	})
	return outcome
}

// orderByTrack sorts sources by the leading number of their track tag, so
// "3/12" sorts as 3. Files without a usable tag follow in their current order.
func (r *Runner) orderByTrack(ctx context.Context, sources []string, logger *slog.Logger) []string {
	type trackedSource struct {
		path   string
		track  int
		tagged bool
	}
	tracked := make([]trackedSource, len(sources))
	untagged := 0
	for i, path := range sources {
		tracked[i].path = path
		if lookup := r.prober.Tag(ctx, path, "track"); lookup.Found {
			tracked[i].track, tracked[i].tagged = parseTrackNumber(lookup.Value)
		}
		if !tracked[i].tagged {
			untagged++
		}
	}
	if untagged > 0 {
		logging.WarnWithContext(logger, "merge inputs without track number", "track_tag_missing",
			logging.Int("untagged_count", untagged),
			logging.String(logging.FieldImpact, "untagged files are appended in filename order"),
			logging.String(logging.FieldErrorHint, "set merge.order = \"name\" or tag every file"),
		)
	}
	sort.SliceStable(tracked, func(i, j int) bool {
		a, b := tracked[i], tracked[j]
		if a.tagged != b.tagged {
			return a.tagged
		}
		return a.tagged && a.track < b.track
	})
	ordered := make([]string, len(tracked))
	for i, src := range tracked {
		ordered[i] = src.path
	}
	return ordered
}

func parseTrackNumber(value string) (int, bool) {
	number, _, _ := strings.Cut(strings.TrimSpace(value), "/")
	n, err := strconv.Atoi(strings.TrimSpace(number))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

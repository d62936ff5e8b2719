package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"
	"time"

	"bookbinder/internal/engine"
	"bookbinder/internal/fileutil"
	"bookbinder/internal/logging"
)

// ErrInvalidInput reports a path that cannot be probed at all.
var ErrInvalidInput = errors.New("invalid probe input")

// DefaultTags are the container tags collected by Probe when none are configured.
var DefaultTags = []string{"artist", "title", "album"}

// Lookup is the outcome of a best-effort query.
type Lookup struct {
	Value  string
	Found  bool
	Reason string
}

func found(value string) Lookup {
	return Lookup{Value: value, Found: true}
}

func missing(format string, args ...any) Lookup {
	return Lookup{Reason: fmt.Sprintf(format, args...)}
}

// MediaProbe is everything learned about one container.
type MediaProbe struct {
	Path string
	// Duration is in seconds; zero means unknown.
	Duration float64
	Chapters []engine.RawChapter
	// Tags holds only the tags that were found.
	Tags    map[string]string
	Lookups map[string]Lookup
}

// Tag returns a found tag value.
func (m MediaProbe) Tag(name string) (string, bool) {
	value, ok := m.Tags[strings.ToLower(name)]
	return value, ok
}

// Prober queries an engine with a per-call timeout.
type Prober struct {
	engine  engine.Engine
	logger  *slog.Logger
	timeout time.Duration
	tags    []string
}

// Option customizes a Prober.
type Option func(*Prober)

// WithTimeout bounds every engine call; zero disables the bound.
func WithTimeout(timeout time.Duration) Option {
	return func(p *Prober) {
		if timeout > 0 {
			p.timeout = timeout
		}
	}
}

// WithTags replaces the tag set collected by Probe.
func WithTags(tags []string) Option {
	return func(p *Prober) {
		cleaned := make([]string, 0, len(tags))
		for _, tag := range tags {
			if tag = strings.ToLower(strings.TrimSpace(tag)); tag != "" {
				cleaned = append(cleaned, tag)
			}
		}
		p.tags = cleaned
	}
}

// New constructs a Prober.
func New(eng engine.Engine, logger *slog.Logger, opts ...Option) *Prober {
	p := &Prober{
		engine: eng,
		logger: logging.NewComponentLogger(logger, "probe"),
		tags:   append([]string(nil), DefaultTags...),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Probe collects duration, chapters and tags for path. The error is non-nil
// only when path is empty, missing or a directory.
func (p *Prober) Probe(ctx context.Context, path string) (MediaProbe, error) {
	if err := ValidateSource(path); err != nil {
		return MediaProbe{}, err
	}
	result := MediaProbe{
		Path:     path,
		Duration: p.Duration(ctx, path),
		Chapters: p.Chapters(ctx, path),
		Tags:     make(map[string]string, len(p.tags)),
		Lookups:  make(map[string]Lookup, len(p.tags)),
	}
	for _, tag := range p.tags {
		lookup := p.Tag(ctx, path, tag)
		result.Lookups[tag] = lookup
		if lookup.Found {
			result.Tags[tag] = lookup.Value
		}
	}
	p.logger.Debug("probed media",
		logging.String("path", path),
		logging.Float64("duration_seconds", result.Duration),
		logging.Int("chapter_count", len(result.Chapters)),
		logging.Int("tag_count", len(result.Tags)),
	)
	return result, nil
}

// Duration returns the container duration or 0 when unknown.
func (p *Prober) Duration(ctx context.Context, path string) float64 {
	callCtx, cancel := p.callContext(ctx)
	defer cancel()
	seconds, err := p.engine.ProbeDuration(callCtx, path)
	if err != nil {
		p.logger.Info("duration unavailable",
			logging.String("path", path),
			logging.Error(err),
		)
		return 0
	}
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return 0
	}
	return seconds
}

// Chapters returns the embedded chapters in container order. Probe failures
// and markers with non-finite times yield an empty list.
func (p *Prober) Chapters(ctx context.Context, path string) []engine.RawChapter {
	callCtx, cancel := p.callContext(ctx)
	defer cancel()
	raw, err := p.engine.ProbeChapters(callCtx, path)
	if err != nil {
		p.logger.Info("chapters unavailable",
			logging.String("path", path),
			logging.Error(err),
		)
		return nil
	}
	chapters := make([]engine.RawChapter, 0, len(raw))
	for _, ch := range raw {
		if !finite(ch.Start) || !finite(ch.End) {
			p.logger.Info("chapter list malformed",
				logging.String("path", path),
				logging.Float64("start", ch.Start),
				logging.Float64("end", ch.End),
			)
			return nil
		}
		ch.Title = strings.TrimSpace(ch.Title)
		chapters = append(chapters, ch)
	}
	return chapters
}

// Tag looks up a single container tag.
func (p *Prober) Tag(ctx context.Context, path, name string) Lookup {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return missing("empty tag name")
	}
	callCtx, cancel := p.callContext(ctx)
	defer cancel()
	value, err := p.engine.ProbeTag(callCtx, path, name)
	if err != nil {
		return missing("probe failed: %v", err)
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return missing("tag %q not present", name)
	}
	return found(value)
}

// ExtractCover copies the first attached picture of path to dest without
// re-encoding. The Lookup value is dest when a non-empty image was written.
func (p *Prober) ExtractCover(ctx context.Context, path, dest string) Lookup {
	callCtx, cancel := p.callContext(ctx)
	defer cancel()
	req := engine.TranscodeRequest{
		Inputs:     []engine.Input{{Path: path}},
		NoAudio:    true,
		VideoCodec: "copy",
		Output:     dest,
	}
	if err := p.engine.Transcode(callCtx, req); err != nil {
		_ = fileutil.RemoveIfExists(dest)
		return missing("no cover stream: %v", err)
	}
	if _, err := fileutil.NonEmptySize(dest); err != nil {
		_ = fileutil.RemoveIfExists(dest)
		return missing("cover not written: %v", err)
	}
	return found(dest)
}

func (p *Prober) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.timeout)
}

// ValidateSource checks that path names an existing regular file.
func ValidateSource(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("%w: empty path", ErrInvalidInput)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrInvalidInput, path)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a regular file", ErrInvalidInput, path)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

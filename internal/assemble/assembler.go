package assemble

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"bookbinder/internal/config"
	"bookbinder/internal/cover"
	"bookbinder/internal/engine"
	"bookbinder/internal/fileutil"
	"bookbinder/internal/logging"
	"bookbinder/internal/probe"
)

// ErrNoSources reports an assembly request without input files.
var ErrNoSources = errors.New("no source files to assemble")

// Request names the inputs, in chapter order, and the container to write.
type Request struct {
	Sources []string
	Output  string
	// Title is written as the container title when set.
	Title string
}

// Result describes a finished assembly.
type Result struct {
	Output       string
	Plan         Plan
	Tags         map[string]probe.Lookup
	Cover        probe.Lookup
	CoverResized bool
}

// Artist returns the artist lookup from the first source.
func (r Result) Artist() probe.Lookup {
	if lookup, ok := r.Tags["artist"]; ok {
		return lookup
	}
	return probe.Lookup{Reason: "artist not requested"}
}

// Settings control encoding of the final container.
type Settings struct {
	AudioCodec            string
	AudioBitrate          string
	IntermediateExtension string
	CoverMaxDimension     int
	Tags                  []string
	TempDir               string
	Timeout               time.Duration
}

// SettingsFromConfig maps the [merge] and [paths] sections.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		AudioCodec:            cfg.Merge.AudioCodec,
		AudioBitrate:          cfg.Merge.AudioBitrate,
		IntermediateExtension: cfg.Merge.IntermediateExtension,
		CoverMaxDimension:     cfg.Merge.CoverMaxDimension,
		Tags:                  append([]string(nil), cfg.Merge.Tags...),
		TempDir:               cfg.Paths.TempDir,
		Timeout:               cfg.TranscodeTimeout(),
	}
}

// Assembler merges audio files into a chaptered container.
type Assembler struct {
	engine   engine.Engine
	prober   *probe.Prober
	settings Settings
	logger   *slog.Logger
}

// New constructs an Assembler.
func New(eng engine.Engine, prober *probe.Prober, settings Settings, logger *slog.Logger) *Assembler {
	if settings.AudioCodec == "" {
		settings.AudioCodec = "aac"
	}
	settings.IntermediateExtension = strings.TrimPrefix(settings.IntermediateExtension, ".")
	if settings.IntermediateExtension == "" {
		settings.IntermediateExtension = "wav"
	}
	if prober == nil {
		prober = probe.New(eng, logger)
	}
	return &Assembler{
		engine:   eng,
		prober:   prober,
		settings: settings,
		logger:   logging.NewComponentLogger(logger, "assembler"),
	}
}

// Assemble runs every stage for req. No output exists at req.Output unless
// the returned error is nil.
func (a *Assembler) Assemble(ctx context.Context, req Request) (Result, error) {
	if err := validate(req); err != nil {
		return Result{}, err
	}
	output := req.Output
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return Result{}, fmt.Errorf("create output directory: %w", err)
	}

	workDir, err := os.MkdirTemp(a.settings.TempDir, "bookbinder-merge-")
	if err != nil {
		return Result{}, fmt.Errorf("create scratch directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			a.logger.Warn("failed to remove scratch directory", logging.String("path", workDir), logging.Error(err))
		}
	}()

	first := req.Sources[0]
	result := Result{Output: output, Tags: make(map[string]probe.Lookup, len(a.settings.Tags))}
	for _, tag := range a.settings.Tags {
		result.Tags[tag] = a.prober.Tag(ctx, first, tag)
	}
	result.Cover = a.prober.ExtractCover(ctx, first, filepath.Join(workDir, "cover.jpg"))
	coverPath := ""
	if result.Cover.Found {
		coverPath = result.Cover.Value
		normalized, err := cover.Normalize(coverPath, a.settings.CoverMaxDimension)
		if err != nil {
			a.logger.Info("cover kept as extracted", logging.String("path", coverPath), logging.Error(err))
		} else if normalized.Resized {
			coverPath = normalized.Path
			result.CoverResized = true
			a.logger.Info("cover resized",
				logging.Int("width", normalized.Width),
				logging.Int("height", normalized.Height),
			)
		}
	}

	durations := make([]float64, len(req.Sources))
	for i, source := range req.Sources {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		durations[i] = a.prober.Duration(ctx, source)
	}
	plan, err := BuildPlan(req.Sources, durations)
	if err != nil {
		return Result{}, fmt.Errorf("plan chapters: %w", err)
	}
	plan.CoverImagePath = coverPath
	plan.Title = strings.TrimSpace(req.Title)
	if artist := result.Artist(); artist.Found {
		plan.Artist = artist.Value
	}
	result.Plan = plan

	listPath := filepath.Join(workDir, "concat.txt")
	if err := writeFile(listPath, func(f *os.File) error { return WriteConcatList(f, req.Sources) }); err != nil {
		return Result{}, fmt.Errorf("write concat list: %w", err)
	}
	intermediate := filepath.Join(workDir, "merged."+a.settings.IntermediateExtension)
	a.logger.Info("concatenating sources",
		logging.Int("source_count", len(req.Sources)),
		logging.Float64("duration_seconds", plan.Duration()),
	)
	if err := a.transcode(ctx, engine.TranscodeRequest{
		Inputs:  []engine.Input{{Path: listPath, Format: "concat", Options: []string{"-safe", "0"}}},
		NoVideo: true,
		Output:  intermediate,
	}); err != nil {
		return Result{}, fmt.Errorf("concatenate: %w", err)
	}

	metadataPath := filepath.Join(workDir, "chapters.txt")
	if err := writeFile(metadataPath, func(f *os.File) error { return WriteMetadata(f, plan) }); err != nil {
		return Result{}, fmt.Errorf("write chapter metadata: %w", err)
	}

	partial := PartialPath(output)
	final := a.finalRequest(intermediate, metadataPath, partial, result)
	if err := a.transcode(ctx, final); err != nil {
		_ = fileutil.RemoveIfExists(partial)
		return Result{}, fmt.Errorf("encode container: %w", err)
	}
	if _, err := fileutil.NonEmptySize(partial); err != nil {
		_ = fileutil.RemoveIfExists(partial)
		return Result{}, fmt.Errorf("encode container: %w", err)
	}
	if err := os.Rename(partial, output); err != nil {
		_ = fileutil.RemoveIfExists(partial)
		return Result{}, fmt.Errorf("finalize container: %w", err)
	}
	a.logger.Info("container assembled",
		logging.String("output", output),
		logging.Int("chapter_count", len(plan.Entries)),
		logging.Bool("cover", coverPath != ""),
	)
	return result, nil
}

func (a *Assembler) finalRequest(intermediate, metadataPath, output string, result Result) engine.TranscodeRequest {
	req := engine.TranscodeRequest{
		Inputs: []engine.Input{
			{Path: intermediate},
			{Path: metadataPath, Format: "ffmetadata"},
		},
		Maps:         []string{"0:a"},
		MetadataFrom: 1,
		AudioCodec:   a.settings.AudioCodec,
		AudioBitrate: a.settings.AudioBitrate,
		Output:       output,
	}
	if result.Plan.CoverImagePath != "" {
		req.Inputs = append(req.Inputs, engine.Input{Path: result.Plan.CoverImagePath})
		req.Maps = append(req.Maps, "2:v")
		req.VideoCodec = "copy"
		req.AttachedPicture = true
	}
	for _, tag := range a.settings.Tags {
		// An explicit title is already in the ffmetadata document.
		if tag == "title" && result.Plan.Title != "" {
			continue
		}
		if lookup := result.Tags[tag]; lookup.Found {
			if req.Metadata == nil {
				req.Metadata = make(map[string]string)
			}
			req.Metadata[tag] = lookup.Value
		}
	}
	return req
}

func (a *Assembler) transcode(ctx context.Context, req engine.TranscodeRequest) error {
	callCtx, cancel := ctx, context.CancelFunc(func() {})
	if a.settings.Timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, a.settings.Timeout)
	}
	defer cancel()
	return a.engine.Transcode(callCtx, req)
}

// PartialPath is the hidden name a container is written under before it is
// renamed to output.
func PartialPath(output string) string {
	dir, base := filepath.Split(output)
	ext := filepath.Ext(base)
	return filepath.Join(dir, "."+strings.TrimSuffix(base, ext)+".partial"+ext)
}

func validate(req Request) error {
	if len(req.Sources) == 0 {
		return ErrNoSources
	}
	for _, source := range req.Sources {
		if err := probe.ValidateSource(source); err != nil {
			return err
		}
	}
	if strings.TrimSpace(req.Output) == "" {
		return fmt.Errorf("%w: empty output path", probe.ErrInvalidInput)
	}
	return nil
}

func writeFile(path string, fill func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fill(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

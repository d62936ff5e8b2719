package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Engine is everything the split and merge pipelines need from ffmpeg.
// Implementations must be safe for concurrent use.
type Engine interface {
	ProbeDuration(ctx context.Context, path string) (float64, error)
	ProbeChapters(ctx context.Context, path string) ([]RawChapter, error)
	ProbeTag(ctx context.Context, path, tag string) (string, error)
	Transcode(ctx context.Context, req TranscodeRequest) error
}

// RawChapter is an embedded chapter marker as reported by the engine.
// Title is empty when the chapter carries no title tag.
type RawChapter struct {
	Start float64
	End   float64
	Title string
}

// Trim restricts the output to [Start, End) seconds of the input timeline.
type Trim struct {
	Start float64
	End   float64
}

// Input is one source handed to the engine.
type Input struct {
	Path string
	// Format forces a demuxer such as "concat" or "ffmetadata".
	Format string
	// Options are demuxer options placed before -i, e.g. "-safe", "0".
	Options []string
}

// TranscodeRequest describes one engine invocation.
type TranscodeRequest struct {
	Inputs []Input
	// Trim is applied as output options so seeking decodes up to Start.
	Trim *Trim
	Maps []string
	// MetadataFrom copies global metadata and chapters from the input with
	// this index. Zero leaves the engine default.
	MetadataFrom    int
	DropChapters    bool
	NoVideo         bool
	NoAudio         bool
	AudioCodec      string
	AudioBitrate    string
	VideoCodec      string
	AttachedPicture bool
	Metadata        map[string]string
	Output          string
}

// ErrInvalidRequest reports a transcode request the engine cannot run.
var ErrInvalidRequest = errors.New("invalid transcode request")

// Validate checks the request shape before any process is started.
func (r TranscodeRequest) Validate() error {
	if len(r.Inputs) == 0 {
		return fmt.Errorf("%w: at least one input is required", ErrInvalidRequest)
	}
	for _, in := range r.Inputs {
		if strings.TrimSpace(in.Path) == "" {
			return fmt.Errorf("%w: input path is empty", ErrInvalidRequest)
		}
	}
	if r.Trim != nil && (r.Trim.Start < 0 || r.Trim.End <= r.Trim.Start) {
		return fmt.Errorf("%w: trim [%.3f, %.3f) is empty", ErrInvalidRequest, r.Trim.Start, r.Trim.End)
	}
	if strings.TrimSpace(r.Output) == "" {
		return fmt.Errorf("%w: output path is empty", ErrInvalidRequest)
	}
	if r.NoAudio && r.NoVideo {
		return fmt.Errorf("%w: request drops every stream", ErrInvalidRequest)
	}
	if r.MetadataFrom < 0 || r.MetadataFrom >= len(r.Inputs) {
		return fmt.Errorf("%w: metadata input %d out of range", ErrInvalidRequest, r.MetadataFrom)
	}
	return nil
}

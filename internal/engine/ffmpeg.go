package engine

import (
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strconv"
	"strings"

	"bookbinder/internal/media/ffprobe"
)

type commandRunner func(ctx context.Context, name string, args ...string) error

// FFmpeg implements Engine with the ffmpeg and ffprobe command-line tools.
type FFmpeg struct {
	ffmpeg  string
	ffprobe string
	run     commandRunner
}

// NewFFmpeg constructs an engine; empty binaries fall back to PATH lookups
// of "ffmpeg" and "ffprobe".
func NewFFmpeg(ffmpegBinary, ffprobeBinary string) *FFmpeg {
	if strings.TrimSpace(ffmpegBinary) == "" {
		ffmpegBinary = "ffmpeg"
	}
	if strings.TrimSpace(ffprobeBinary) == "" {
		ffprobeBinary = "ffprobe"
	}
	return &FFmpeg{ffmpeg: ffmpegBinary, ffprobe: ffprobeBinary, run: defaultCommandRunner}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (f *FFmpeg) WithCommandRunner(r commandRunner) {
	if f != nil && r != nil {
		f.run = r
	}
}

// ProbeDuration returns the container duration. An unparsable value yields 0
// without error; only a failed ffprobe run is reported.
func (f *FFmpeg) ProbeDuration(ctx context.Context, path string) (float64, error) {
	value, err := ffprobe.FormatEntry(ctx, f.ffprobe, path, "format=duration")
	if err != nil {
		return 0, err
	}
	return ffprobe.ParseSeconds(value), nil
}

// ProbeChapters lists embedded chapters in container order.
func (f *FFmpeg) ProbeChapters(ctx context.Context, path string) ([]RawChapter, error) {
	chapters, err := ffprobe.Chapters(ctx, f.ffprobe, path)
	if err != nil {
		return nil, err
	}
	out := make([]RawChapter, 0, len(chapters))
	for _, ch := range chapters {
		title, _ := ch.Title()
		out = append(out, RawChapter{
			Start: ffprobe.ParseSeconds(ch.StartTime),
			End:   ffprobe.ParseSeconds(ch.EndTime),
			Title: title,
		})
	}
	return out, nil
}

// ProbeTag returns a container tag, or "" when absent.
func (f *FFmpeg) ProbeTag(ctx context.Context, path, tag string) (string, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return "", fmt.Errorf("probe tag: empty tag name")
	}
	return ffprobe.FormatEntry(ctx, f.ffprobe, path, "format_tags="+tag)
}

// Transcode runs ffmpeg once for req.
func (f *FFmpeg) Transcode(ctx context.Context, req TranscodeRequest) error {
	args, err := BuildArgs(req)
	if err != nil {
		return err
	}
	if err := f.run(ctx, f.ffmpeg, args...); err != nil {
		return fmt.Errorf("ffmpeg %s: %w", req.Output, err)
	}
	return nil
}

// BuildArgs renders req as an ffmpeg argument list.
func BuildArgs(req TranscodeRequest) ([]string, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	args := []string{"-y", "-hide_banner", "-loglevel", "error", "-nostdin"}
	for _, in := range req.Inputs {
		if in.Format != "" {
			args = append(args, "-f", in.Format)
		}
		args = append(args, in.Options...)
		args = append(args, "-i", in.Path)
	}
	if req.Trim != nil {
		args = append(args, "-ss", FormatSeconds(req.Trim.Start), "-to", FormatSeconds(req.Trim.End))
	}
	if req.MetadataFrom > 0 {
		idx := strconv.Itoa(req.MetadataFrom)
		args = append(args, "-map_metadata", idx, "-map_chapters", idx)
	}
	if req.DropChapters {
		args = append(args, "-map_chapters", "-1")
	}
	for _, m := range req.Maps {
		args = append(args, "-map", m)
	}
	if req.NoVideo {
		args = append(args, "-vn")
	}
	if req.NoAudio {
		args = append(args, "-an")
	}
	if req.AudioCodec != "" {
		args = append(args, "-c:a", req.AudioCodec)
	}
	if req.AudioBitrate != "" {
		args = append(args, "-b:a", req.AudioBitrate)
	}
	if req.VideoCodec != "" {
		args = append(args, "-c:v", req.VideoCodec)
	}
	if req.AttachedPicture {
		args = append(args, "-disposition:v", "attached_pic")
	}
	keys := make([]string, 0, len(req.Metadata))
	for key := range req.Metadata {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		args = append(args, "-metadata", key+"="+req.Metadata[key])
	}
	return append(args, req.Output), nil
}

// FormatSeconds renders seconds the way ffmpeg accepts them for -ss/-to.
func FormatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', -1, 64)
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w (%v)", ctx.Err(), err)
		}
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

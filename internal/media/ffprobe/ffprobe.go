package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

var commandContext = exec.CommandContext

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams  []Stream  `json:"streams"`
	Chapters []Chapter `json:"chapters"`
	Format   Format    `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index       int               `json:"index"`
	CodecName   string            `json:"codec_name"`
	CodecType   string            `json:"codec_type"`
	Duration    string            `json:"duration"`
	BitRate     string            `json:"bit_rate"`
	Width       int               `json:"width"`
	Height      int               `json:"height"`
	SampleRate  string            `json:"sample_rate"`
	Channels    int               `json:"channels"`
	Disposition map[string]int    `json:"disposition"`
	Tags        map[string]string `json:"tags"`
}

// Chapter is one embedded chapter marker. Times are decimal seconds.
type Chapter struct {
	ID        int64             `json:"id"`
	TimeBase  string            `json:"time_base"`
	StartTime string            `json:"start_time"`
	EndTime   string            `json:"end_time"`
	Tags      map[string]string `json:"tags"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string            `json:"filename"`
	NBStreams  int               `json:"nb_streams"`
	NBChapters int               `json:"nb_chapters"`
	Duration   string            `json:"duration"`
	Size       string            `json:"size"`
	BitRate    string            `json:"bit_rate"`
	FormatName string            `json:"format_name"`
	Tags       map[string]string `json:"tags"`
}

// Inspect executes ffprobe against the provided path and decodes the JSON response.
func Inspect(ctx context.Context, binary string, path string) (Result, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}
	output, err := run(ctx, binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-show_chapters", "-of", "json", "--", path)
	if err != nil {
		return Result{}, fmt.Errorf("ffprobe inspect: %w", err)
	}

	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// Chapters lists the embedded chapters of path in container order.
func Chapters(ctx context.Context, binary string, path string) ([]Chapter, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("ffprobe chapters: empty path")
	}
	output, err := run(ctx, binary, "-v", "error", "-hide_banner", "-show_chapters", "-of", "json", "--", path)
	if err != nil {
		return nil, fmt.Errorf("ffprobe chapters: %w", err)
	}
	var payload struct {
		Chapters []Chapter `json:"chapters"`
	}
	if err := json.Unmarshal(output, &payload); err != nil {
		return nil, fmt.Errorf("ffprobe parse chapters: %w", err)
	}
	return payload.Chapters, nil
}

// FormatEntry returns one entry such as "format=duration" or
// "format_tags=artist" printed without key or wrapper.
func FormatEntry(ctx context.Context, binary, path, entry string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", errors.New("ffprobe entry: empty path")
	}
	output, err := run(ctx, binary, "-v", "error", "-show_entries", entry, "-of", "default=noprint_wrappers=1:nokey=1", "--", path)
	if err != nil {
		return "", fmt.Errorf("ffprobe %s: %w", entry, err)
	}
	return strings.TrimSpace(string(output)), nil
}

func run(ctx context.Context, binary string, args ...string) ([]byte, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	cmd := commandContext(ctx, binary, args...) //nolint:gosec
	var stderr strings.Builder
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return output, nil
}

// AudioStreamCount returns the number of audio streams discovered.
func (r Result) AudioStreamCount() int {
	count := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "audio") {
			count++
		}
	}
	return count
}

// CoverStream returns the first video stream flagged as an attached picture.
func (r Result) CoverStream() (Stream, bool) {
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "video") && stream.Disposition["attached_pic"] == 1 {
			return stream, true
		}
	}
	return Stream{}, false
}

// SizeBytes returns the reported container size in bytes, or 0 when unavailable.
func (r Result) SizeBytes() int64 {
	return int64(ParseSeconds(r.Format.Size))
}

// Title returns the chapter's title tag, if any.
func (c Chapter) Title() (string, bool) {
	return lookupTag(c.Tags, "title")
}

func lookupTag(tags map[string]string, name string) (string, bool) {
	for key, value := range tags {
		if strings.EqualFold(key, name) {
			value = strings.TrimSpace(value)
			return value, value != ""
		}
	}
	return "", false
}

// ParseSeconds parses a decimal value, returning 0 for empty, non-numeric,
// non-finite, or negative input.
func ParseSeconds(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	// ffprobe may print one value per stream; the first line is the format value.
	if idx := strings.IndexAny(cleaned, "\r\n"); idx >= 0 {
		cleaned = strings.TrimSpace(cleaned[:idx])
	}
	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) || parsed < 0 {
		return 0
	}
	return parsed
}

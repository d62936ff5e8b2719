package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeEngine()
	c.normalizeSplit()
	c.normalizeMerge()
	c.normalizeWorkers()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.TempDir) != "" {
		if c.Paths.TempDir, err = expandPath(c.Paths.TempDir); err != nil {
			return fmt.Errorf("paths.temp_dir: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeEngine() {
	if value, ok := os.LookupEnv("BOOKBINDER_FFMPEG"); ok && strings.TrimSpace(value) != "" {
		c.Engine.FFmpegBinary = value
	}
	if value, ok := os.LookupEnv("BOOKBINDER_FFPROBE"); ok && strings.TrimSpace(value) != "" {
		c.Engine.FFprobeBinary = value
	}
	c.Engine.FFmpegBinary = strings.TrimSpace(c.Engine.FFmpegBinary)
	if c.Engine.FFmpegBinary == "" {
		c.Engine.FFmpegBinary = defaultFFmpegBinary
	}
	c.Engine.FFprobeBinary = strings.TrimSpace(c.Engine.FFprobeBinary)
	if c.Engine.FFprobeBinary == "" {
		c.Engine.FFprobeBinary = defaultFFprobeBinary
	}
	if c.Engine.ProbeTimeoutSeconds < 0 {
		c.Engine.ProbeTimeoutSeconds = 0
	}
	if c.Engine.TranscodeTimeoutSeconds < 0 {
		c.Engine.TranscodeTimeoutSeconds = 0
	}
}

func (c *Config) normalizeSplit() {
	c.Split.Extension = normalizeExtension(c.Split.Extension, false)
	if c.Split.Extension == "" {
		c.Split.Extension = defaultSplitExtension
	}
	c.Split.AudioCodec = strings.TrimSpace(c.Split.AudioCodec)
	if c.Split.AudioCodec == "" {
		c.Split.AudioCodec = defaultSplitCodec
	}
	c.Split.AudioBitrate = strings.TrimSpace(c.Split.AudioBitrate)
	if c.Split.AudioBitrate == "" {
		c.Split.AudioBitrate = defaultSplitBitrate
	}
	c.Split.Collisions = strings.ToLower(strings.TrimSpace(c.Split.Collisions))
	if c.Split.Collisions == "" {
		c.Split.Collisions = CollisionOverwrite
	}
	c.Split.SourceExtensions = normalizeExtensions(c.Split.SourceExtensions, []string{".m4b"})
}

func (c *Config) normalizeMerge() {
	c.Merge.Extensions = normalizeExtensions(c.Merge.Extensions, []string{".mp3"})
	c.Merge.AudioCodec = strings.TrimSpace(c.Merge.AudioCodec)
	if c.Merge.AudioCodec == "" {
		c.Merge.AudioCodec = defaultMergeCodec
	}
	c.Merge.AudioBitrate = strings.TrimSpace(c.Merge.AudioBitrate)
	if c.Merge.AudioBitrate == "" {
		c.Merge.AudioBitrate = defaultMergeBitrate
	}
	c.Merge.OutputExtension = normalizeExtension(c.Merge.OutputExtension, false)
	if c.Merge.OutputExtension == "" {
		c.Merge.OutputExtension = defaultMergeOutputExtension
	}
	c.Merge.IntermediateExtension = normalizeExtension(c.Merge.IntermediateExtension, false)
	if c.Merge.IntermediateExtension == "" {
		c.Merge.IntermediateExtension = defaultIntermediateExtension
	}
	if c.Merge.CoverMaxDimension < 0 {
		c.Merge.CoverMaxDimension = 0
	}
	tags := make([]string, 0, len(c.Merge.Tags))
	seen := make(map[string]struct{}, len(c.Merge.Tags))
	for _, tag := range c.Merge.Tags {
		normalized := strings.ToLower(strings.TrimSpace(tag))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		tags = append(tags, normalized)
	}
	c.Merge.Tags = tags
	c.Merge.Order = strings.ToLower(strings.TrimSpace(c.Merge.Order))
	if c.Merge.Order == "" {
		c.Merge.Order = MergeOrderName
	}
}

func (c *Config) normalizeWorkers() {
	if c.Workers.Books <= 0 {
		c.Workers.Books = defaultBookWorkers
	}
	if c.Workers.Segments <= 0 {
		c.Workers.Segments = defaultSegmentWorkers
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.ConsoleLevel = strings.ToLower(strings.TrimSpace(c.Logging.ConsoleLevel))
	if c.Logging.ConsoleLevel == "" {
		c.Logging.ConsoleLevel = defaultConsoleLogLevel
	}
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = defaultLogMaxSizeMB
	}
	if c.Logging.MaxBackups < 0 {
		c.Logging.MaxBackups = 0
	}
	if c.Logging.MaxAgeDays < 0 {
		c.Logging.MaxAgeDays = 0
	}
}

// normalizeExtension lowercases ext and strips or adds the leading dot.
func normalizeExtension(ext string, withDot bool) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	ext = strings.TrimLeft(ext, ".")
	if ext == "" {
		return ""
	}
	if withDot {
		return "." + ext
	}
	return ext
}

func normalizeExtensions(values []string, fallback []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		ext := normalizeExtension(value, true)
		if ext == "" {
			continue
		}
		if _, exists := seen[ext]; exists {
			continue
		}
		seen[ext] = struct{}{}
		out = append(out, ext)
	}
	if len(out) == 0 {
		return append([]string(nil), fallback...)
	}
	return out
}

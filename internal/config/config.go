package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
	TempDir  string `toml:"temp_dir"`
}

// Engine configures the external ffmpeg/ffprobe binaries.
type Engine struct {
	FFmpegBinary            string `toml:"ffmpeg_binary"`
	FFprobeBinary           string `toml:"ffprobe_binary"`
	ProbeTimeoutSeconds     int    `toml:"probe_timeout_seconds"`
	TranscodeTimeoutSeconds int    `toml:"transcode_timeout_seconds"`
}

// Split configures container to segment export.
type Split struct {
	// SegmentSeconds is the equal-split window used when a container has no
	// embedded chapters.
	SegmentSeconds   int      `toml:"segment_seconds"`
	Extension        string   `toml:"extension"`
	AudioCodec       string   `toml:"audio_codec"`
	AudioBitrate     string   `toml:"audio_bitrate"`
	Collisions       string   `toml:"collisions"`
	SourceExtensions []string `toml:"source_extensions"`
}

// Merge configures segment to container assembly.
type Merge struct {
	Extensions            []string `toml:"extensions"`
	AudioCodec            string   `toml:"audio_codec"`
	AudioBitrate          string   `toml:"audio_bitrate"`
	OutputExtension       string   `toml:"output_extension"`
	IntermediateExtension string   `toml:"intermediate_extension"`
	CoverMaxDimension     int      `toml:"cover_max_dimension"`
	Tags                  []string `toml:"tags"`
	// Order is "name" (natural filename order) or "track" (the track number
	// tag written by split, untagged files last).
	Order string `toml:"order"`
}

// Workers bounds concurrency at the book and segment level.
type Workers struct {
	Books    int `toml:"books"`
	Segments int `toml:"segments"`
}

// History toggles the SQLite job ledger.
type History struct {
	Enabled bool `toml:"enabled"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format       string `toml:"format"`
	Level        string `toml:"level"`
	ConsoleLevel string `toml:"console_level"`
	MaxSizeMB    int    `toml:"max_size_mb"`
	MaxBackups   int    `toml:"max_backups"`
	MaxAgeDays   int    `toml:"max_age_days"`
}

// Config encapsulates all configuration values for bookbinder.
//
// Configuration sections by subsystem:
//   - Paths: state, log and scratch directories
//   - Engine: ffmpeg/ffprobe binaries and per-invocation timeouts
//   - Split: chapter export codec, extension and equal-split window
//   - Merge: container assembly codec, inputs and cover handling
//   - Workers: book and segment concurrency limits
//   - History: job ledger toggle
//   - Logging: log format, levels, and rotation
type Config struct {
	Paths   Paths   `toml:"paths"`
	Engine  Engine  `toml:"engine"`
	Split   Split   `toml:"split"`
	Merge   Merge   `toml:"merge"`
	Workers Workers `toml:"workers"`
	History History `toml:"history"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/bookbinder/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("bookbinder.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories. The temp
// directory is only created when explicitly configured.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.TempDir) != "" {
		if err := os.MkdirAll(c.Paths.TempDir, 0o755); err != nil {
			return fmt.Errorf("create temp directory %q: %w", c.Paths.TempDir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable used for transcoding.
func (c *Config) FFmpegBinary() string {
	if c == nil || strings.TrimSpace(c.Engine.FFmpegBinary) == "" {
		return defaultFFmpegBinary
	}
	return c.Engine.FFmpegBinary
}

// FFprobeBinary returns the ffprobe executable used for inspection.
func (c *Config) FFprobeBinary() string {
	if c == nil || strings.TrimSpace(c.Engine.FFprobeBinary) == "" {
		return defaultFFprobeBinary
	}
	return c.Engine.FFprobeBinary
}

// ProbeTimeout is the per-invocation bound for ffprobe queries.
func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.Engine.ProbeTimeoutSeconds) * time.Second
}

// TranscodeTimeout is the per-invocation bound for ffmpeg runs.
func (c *Config) TranscodeTimeout() time.Duration {
	return time.Duration(c.Engine.TranscodeTimeoutSeconds) * time.Second
}

// SegmentLength is the equal-split window in seconds.
func (c *Config) SegmentLength() float64 {
	return float64(c.Split.SegmentSeconds)
}

// HistoryPath is the location of the job ledger database.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// LogPath is the rotating log file location.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.LogDir, "bookbinder.log")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"bookbinder/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(tempHome, ".local", "share", "bookbinder")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.Paths.LogDir != filepath.Join(wantState, "logs") {
		t.Fatalf("unexpected log dir: %q", cfg.Paths.LogDir)
	}
	if cfg.SegmentLength() != 7200 {
		t.Fatalf("expected two hour default window, got %v", cfg.SegmentLength())
	}
	if cfg.Split.Collisions != config.CollisionOverwrite {
		t.Fatalf("expected overwrite collisions by default, got %q", cfg.Split.Collisions)
	}
	if cfg.Split.AudioCodec != "libmp3lame" || cfg.Split.AudioBitrate != "128k" {
		t.Fatalf("unexpected split codec defaults: %+v", cfg.Split)
	}
	if cfg.Merge.AudioCodec != "aac" || cfg.Merge.AudioBitrate != "96k" {
		t.Fatalf("unexpected merge codec defaults: %+v", cfg.Merge)
	}
	if !cfg.History.Enabled {
		t.Fatal("expected history enabled by default")
	}
	if cfg.HistoryPath() != filepath.Join(wantState, "history.db") {
		t.Fatalf("unexpected history path: %q", cfg.HistoryPath())
	}
}

func TestLoadCustomConfigOverrides(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(t.TempDir(), "config.toml")
	payload := map[string]any{
		"paths": map[string]any{
			"state_dir": "~/state",
		},
		"split": map[string]any{
			"segment_seconds":   3600,
			"extension":         ".OPUS",
			"collisions":        "Suffix",
			"source_extensions": []string{"M4B", ".m4a", ".m4b"},
		},
		"merge": map[string]any{
			"extensions": []string{"mp3", "FLAC"},
			"tags":       []string{" Artist ", "album", "artist"},
			"order":      " Track",
		},
		"workers": map[string]any{
			"segments": 8,
		},
		"logging": map[string]any{
			"format": "JSON",
			"level":  "DEBUG",
		},
	}
	data, err := toml.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected config at %q to be used, got %q (exists=%v)", configPath, resolved, exists)
	}
	if cfg.Paths.StateDir != filepath.Join(tempHome, "state") {
		t.Fatalf("unexpected state dir: %q", cfg.Paths.StateDir)
	}
	if cfg.SegmentLength() != 3600 {
		t.Fatalf("unexpected segment length: %v", cfg.SegmentLength())
	}
	if cfg.Split.Extension != "opus" {
		t.Fatalf("expected extension normalized to opus, got %q", cfg.Split.Extension)
	}
	if cfg.Split.Collisions != config.CollisionSuffix {
		t.Fatalf("expected suffix collisions, got %q", cfg.Split.Collisions)
	}
	if strings.Join(cfg.Split.SourceExtensions, ",") != ".m4b,.m4a" {
		t.Fatalf("unexpected source extensions: %v", cfg.Split.SourceExtensions)
	}
	if strings.Join(cfg.Merge.Extensions, ",") != ".mp3,.flac" {
		t.Fatalf("unexpected merge extensions: %v", cfg.Merge.Extensions)
	}
	if strings.Join(cfg.Merge.Tags, ",") != "artist,album" {
		t.Fatalf("unexpected merge tags: %v", cfg.Merge.Tags)
	}
	if cfg.Merge.Order != config.MergeOrderTrack {
		t.Fatalf("expected track merge order, got %q", cfg.Merge.Order)
	}
	if cfg.Workers.Segments != 8 || cfg.Workers.Books != 1 {
		t.Fatalf("unexpected workers: %+v", cfg.Workers)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging config: %+v", cfg.Logging)
	}
}

func TestLoadEnvOverridesBinaries(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("BOOKBINDER_FFMPEG", "/opt/ffmpeg/bin/ffmpeg")
	t.Setenv("BOOKBINDER_FFPROBE", "/opt/ffmpeg/bin/ffprobe")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.FFmpegBinary() != "/opt/ffmpeg/bin/ffmpeg" {
		t.Fatalf("unexpected ffmpeg binary: %q", cfg.FFmpegBinary())
	}
	if cfg.FFprobeBinary() != "/opt/ffmpeg/bin/ffprobe" {
		t.Fatalf("unexpected ffprobe binary: %q", cfg.FFprobeBinary())
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"segment length", func(c *config.Config) { c.Split.SegmentSeconds = 0 }, "split.segment_seconds"},
		{"collisions", func(c *config.Config) { c.Split.Collisions = "rename" }, "split.collisions"},
		{"log level", func(c *config.Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"workers", func(c *config.Config) { c.Workers.Segments = 0 }, "workers.segments"},
		{"intermediate", func(c *config.Config) { c.Merge.IntermediateExtension = "mp3" }, "merge.intermediate_extension"},
		{"merge order", func(c *config.Config) { c.Merge.Order = "date" }, "merge.order"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte("[split]\nsegment_secs = 10\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(target)
	if err != nil {
		t.Fatalf("load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Split.SegmentSeconds != config.Default().Split.SegmentSeconds {
		t.Fatalf("sample diverges from defaults: %d", cfg.Split.SegmentSeconds)
	}
}

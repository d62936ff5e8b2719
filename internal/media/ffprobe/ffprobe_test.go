package ffprobe

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "audio"},
			{CodecType: "video", Disposition: map[string]int{"attached_pic": 1}, CodecName: "mjpeg"},
		},
		Format: Format{Size: "1000"},
	}
	if result.AudioStreamCount() != 1 {
		t.Fatalf("expected 1 audio stream, got %d", result.AudioStreamCount())
	}
	if result.SizeBytes() != 1000 {
		t.Fatalf("unexpected size: %d", result.SizeBytes())
	}
	cover, ok := result.CoverStream()
	if !ok || cover.CodecName != "mjpeg" {
		t.Fatalf("expected mjpeg cover stream, got %+v (%v)", cover, ok)
	}
	if _, ok := (Result{}).CoverStream(); ok {
		t.Fatal("expected no cover stream in an empty result")
	}
}

func TestParseSecondsRejectsGarbage(t *testing.T) {
	tests := map[string]float64{
		"":            0,
		"N/A":         0,
		"-4":          0,
		"NaN":         0,
		"+Inf":        0,
		"9000.5":      9000.5,
		" 12\n13\n":   12,
		"7200.000000": 7200,
	}
	for input, want := range tests {
		if got := ParseSeconds(input); got != want {
			t.Errorf("ParseSeconds(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestChaptersDecodesStubOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stub requires a POSIX shell")
	}
	payload, err := json.Marshal(map[string]any{
		"chapters": []map[string]any{
			{"id": 0, "start_time": "0.000000", "end_time": "10.000000", "tags": map[string]string{"title": "A"}},
			{"id": 1, "start_time": "10.000000", "end_time": "25.000000"},
		},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	dir := t.TempDir()
	fixture := filepath.Join(dir, "out.json")
	if err := os.WriteFile(fixture, payload, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	stub := filepath.Join(dir, "ffprobe")
	script := "#!/bin/sh\ncat " + fixture + "\n"
	if err := os.WriteFile(stub, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	chapters, err := Chapters(context.Background(), stub, "/books/any.m4b")
	if err != nil {
		t.Fatalf("Chapters: %v", err)
	}
	if len(chapters) != 2 {
		t.Fatalf("expected 2 chapters, got %d", len(chapters))
	}
	if title, ok := chapters[0].Title(); !ok || title != "A" {
		t.Fatalf("unexpected first title %q", title)
	}
	if _, ok := chapters[1].Title(); ok {
		t.Fatal("second chapter should have no title")
	}
	if ParseSeconds(chapters[1].EndTime) != 25 {
		t.Fatalf("unexpected end time %q", chapters[1].EndTime)
	}
}

func TestFormatEntryPassesArguments(t *testing.T) {
	var gotArgs []string
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		gotArgs = append([]string{name}, args...)
		return exec.CommandContext(ctx, "echo", "9000.000000")
	}
	t.Cleanup(func() { commandContext = exec.CommandContext })

	value, err := FormatEntry(context.Background(), "", "/books/b.m4b", "format=duration")
	if err != nil {
		t.Fatalf("FormatEntry: %v", err)
	}
	if value != "9000.000000" {
		t.Fatalf("unexpected value %q", value)
	}
	if gotArgs[0] != "ffprobe" {
		t.Fatalf("expected default binary, got %q", gotArgs[0])
	}
	if gotArgs[len(gotArgs)-1] != "/books/b.m4b" || gotArgs[len(gotArgs)-2] != "--" {
		t.Fatalf("expected path after --, got %v", gotArgs)
	}
}

func TestInspectRejectsEmptyPath(t *testing.T) {
	if _, err := Inspect(context.Background(), "ffprobe", " "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

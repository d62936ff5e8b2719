package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestBuildArgsSegmentExport(t *testing.T) {
	req := TranscodeRequest{
		Inputs:       []Input{{Path: "/books/book.m4b"}},
		Trim:         &Trim{Start: 0, End: 7200},
		DropChapters: true,
		NoVideo:      true,
		AudioCodec:   "libmp3lame",
		AudioBitrate: "128k",
		Metadata:     map[string]string{"track": "1/2", "title": "Chapter One"},
		Output:       "/out/Chapter One.mp3",
	}
	args, err := BuildArgs(req)
	if err != nil {
		t.Fatalf("BuildArgs: %v", err)
	}
	want := []string{
		"-y", "-hide_banner", "-loglevel", "error", "-nostdin",
		"-i", "/books/book.m4b",
		"-ss", "0", "-to", "7200",
		"-map_chapters", "-1",
		"-vn",
		"-c:a", "libmp3lame", "-b:a", "128k",
		"-metadata", "title=Chapter One",
		"-metadata", "track=1/2",
		"/out/Chapter One.mp3",
	}
	if !reflect.DeepEqual(args, want) {
		t.Fatalf("unexpected args\n got: %q\nwant: %q", args, want)
	}
}

func TestBuildArgsFinalAssembly(t *testing.T) {
	req := TranscodeRequest{
		Inputs: []Input{
			{Path: "/tmp/merged.wav"},
			{Path: "/tmp/chapters.txt", Format: "ffmetadata"},
			{Path: "/tmp/cover.jpg"},
		},
		Maps:            []string{"0:a", "2:v"},
		MetadataFrom:    1,
		AudioCodec:      "aac",
		AudioBitrate:    "96k",
		VideoCodec:      "copy",
		AttachedPicture: true,
		Metadata:        map[string]string{"artist": "Jane Doe"},
		Output:          "/books/.Book.partial.m4b",
	}
	args, err := BuildArgs(req)
	if err != nil {
		t.Fatalf("BuildArgs: %v", err)
	}
	joined := strings.Join(args, " ")
	for _, fragment := range []string{
		"-i /tmp/merged.wav -f ffmetadata -i /tmp/chapters.txt -i /tmp/cover.jpg",
		"-map_metadata 1 -map_chapters 1",
		"-map 0:a -map 2:v",
		"-c:a aac -b:a 96k -c:v copy -disposition:v attached_pic",
		"-metadata artist=Jane Doe",
	} {
		if !strings.Contains(joined, fragment) {
			t.Fatalf("expected %q in %q", fragment, joined)
		}
	}
	if args[len(args)-1] != "/books/.Book.partial.m4b" {
		t.Fatalf("output must be last, got %q", args[len(args)-1])
	}
}

func TestBuildArgsConcatOptions(t *testing.T) {
	req := TranscodeRequest{
		Inputs:  []Input{{Path: "/tmp/list.txt", Format: "concat", Options: []string{"-safe", "0"}}},
		NoVideo: true,
		Output:  "/tmp/merged.wav",
	}
	args, err := BuildArgs(req)
	if err != nil {
		t.Fatalf("BuildArgs: %v", err)
	}
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-f concat -safe 0 -i /tmp/list.txt -vn /tmp/merged.wav") {
		t.Fatalf("unexpected concat args: %s", joined)
	}
}

func TestBuildArgsValidation(t *testing.T) {
	tests := []struct {
		name string
		req  TranscodeRequest
	}{
		{"no inputs", TranscodeRequest{Output: "out.mp3"}},
		{"empty input path", TranscodeRequest{Inputs: []Input{{Path: " "}}, Output: "out.mp3"}},
		{"empty output", TranscodeRequest{Inputs: []Input{{Path: "in.m4b"}}}},
		{"inverted trim", TranscodeRequest{Inputs: []Input{{Path: "in.m4b"}}, Trim: &Trim{Start: 10, End: 5}, Output: "out.mp3"}},
		{"zero trim", TranscodeRequest{Inputs: []Input{{Path: "in.m4b"}}, Trim: &Trim{Start: 5, End: 5}, Output: "out.mp3"}},
		{"drops everything", TranscodeRequest{Inputs: []Input{{Path: "in.m4b"}}, NoAudio: true, NoVideo: true, Output: "out.mp3"}},
		{"metadata index", TranscodeRequest{Inputs: []Input{{Path: "in.m4b"}}, MetadataFrom: 1, Output: "out.mp3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := BuildArgs(tt.req); !errors.Is(err, ErrInvalidRequest) {
				t.Fatalf("expected ErrInvalidRequest, got %v", err)
			}
		})
	}
}

func TestTranscodeUsesRunner(t *testing.T) {
	eng := NewFFmpeg("/opt/ffmpeg", "")
	var gotName string
	var gotArgs []string
	eng.WithCommandRunner(func(_ context.Context, name string, args ...string) error {
		gotName = name
		gotArgs = args
		return nil
	})
	req := TranscodeRequest{Inputs: []Input{{Path: "in.m4b"}}, NoAudio: true, VideoCodec: "copy", Output: "cover.jpg"}
	if err := eng.Transcode(context.Background(), req); err != nil {
		t.Fatalf("Transcode: %v", err)
	}
	if gotName != "/opt/ffmpeg" {
		t.Fatalf("expected configured binary, got %q", gotName)
	}
	if gotArgs[len(gotArgs)-1] != "cover.jpg" {
		t.Fatalf("unexpected args: %q", gotArgs)
	}
}

func TestTranscodeWrapsRunnerError(t *testing.T) {
	eng := NewFFmpeg("", "")
	boom := errors.New("exit status 1")
	eng.WithCommandRunner(func(context.Context, string, ...string) error { return boom })
	err := eng.Transcode(context.Background(), TranscodeRequest{Inputs: []Input{{Path: "in.m4b"}}, Output: "out.mp3"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped runner error, got %v", err)
	}
	if !strings.Contains(err.Error(), "out.mp3") {
		t.Fatalf("expected output path in error, got %v", err)
	}
}

func TestProbeChaptersFromStub(t *testing.T) {
	dir := t.TempDir()
	stub := filepath.Join(dir, "ffprobe")
	script := `#!/bin/sh
cat <<'JSON'
{"chapters":[
 {"id":0,"time_base":"1/1000","start_time":"0.000000","end_time":"95.500000","tags":{"title":"Opening"}},
 {"id":1,"time_base":"1/1000","start_time":"95.500000","end_time":"180.000000"}
]}
JSON
`
	if err := os.WriteFile(stub, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	eng := NewFFmpeg("", stub)
	chapters, err := eng.ProbeChapters(context.Background(), "/books/book.m4b")
	if err != nil {
		t.Fatalf("ProbeChapters: %v", err)
	}
	want := []RawChapter{
		{Start: 0, End: 95.5, Title: "Opening"},
		{Start: 95.5, End: 180},
	}
	if !reflect.DeepEqual(chapters, want) {
		t.Fatalf("unexpected chapters: %#v", chapters)
	}
}

func TestProbeDurationFromStub(t *testing.T) {
	dir := t.TempDir()
	stub := filepath.Join(dir, "ffprobe")
	if err := os.WriteFile(stub, []byte("#!/bin/sh\necho 9000.250000\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	eng := NewFFmpeg("", stub)
	duration, err := eng.ProbeDuration(context.Background(), "/books/book.m4b")
	if err != nil {
		t.Fatalf("ProbeDuration: %v", err)
	}
	if duration != 9000.25 {
		t.Fatalf("expected 9000.25, got %v", duration)
	}
}

func TestProbeTagRejectsEmptyName(t *testing.T) {
	eng := NewFFmpeg("", "")
	if _, err := eng.ProbeTag(context.Background(), "in.m4b", "  "); err == nil {
		t.Fatal("expected error for empty tag name")
	}
}

func TestFormatSeconds(t *testing.T) {
	tests := map[float64]string{0: "0", 7200: "7200", 95.5: "95.5", 0.001: "0.001"}
	for in, want := range tests {
		if got := FormatSeconds(in); got != want {
			t.Errorf("FormatSeconds(%v) = %q, want %q", in, got, want)
		}
	}
}

package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"bookbinder/internal/chapters"
	"bookbinder/internal/deps"
	"bookbinder/internal/export"
	"bookbinder/internal/media/ffprobe"
	"bookbinder/internal/workflow"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("FFmpeg", statusError, "not available", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "FFmpeg:", "[ERROR] not available")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("FFmpeg", statusOK, "Ready", true)
	if !strings.HasPrefix(got, ansiGreen) || !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected green line, got %q", got)
	}
}

func TestUnitLine(t *testing.T) {
	tests := []struct {
		ok     bool
		detail string
		want   string
	}{
		{ok: true, detail: "(0:00:00 - 0:10:00)", want: "  [OK  ] Book/Intro.mp3 (0:00:00 - 0:10:00)"},
		{ok: false, detail: "exit status 1", want: "  [FAIL] Book/Intro.mp3 exit status 1"},
		{ok: true, want: "  [OK  ] Book/Intro.mp3"},
	}
	for _, tt := range tests {
		if got := unitLine(tt.ok, "Book/Intro.mp3", tt.detail, false); got != tt.want {
			t.Fatalf("unitLine(%v) = %q, want %q", tt.ok, got, tt.want)
		}
	}
	if got := unitLine(false, "x", "", true); !strings.HasPrefix(got, ansiRed) {
		t.Fatalf("expected red failure line, got %q", got)
	}
}

func TestFormatClock(t *testing.T) {
	tests := map[float64]string{
		0:       "0:00:00",
		59.6:    "0:01:00",
		754:     "0:12:34",
		9000:    "2:30:00",
		36000.4: "10:00:00",
		-5:      "0:00:00",
	}
	for in, want := range tests {
		if got := formatClock(in); got != want {
			t.Fatalf("formatClock(%v) = %q, want %q", in, got, want)
		}
	}
	if got := formatLength(0); got != "unknown" {
		t.Fatalf("formatLength(0) = %q", got)
	}
	if got := formatLength(61); got != "0:01:01" {
		t.Fatalf("formatLength(61) = %q", got)
	}
}

func TestDependencyLines(t *testing.T) {
	statuses := []deps.Status{
		{Name: "FFmpeg", Available: true, Command: "/usr/bin/ffmpeg"},
		{Name: "FFprobe", Available: false, Detail: `binary "ffprobe" not found`},
	}
	lines := dependencyLines(statuses, map[string]string{"FFmpeg": "ffmpeg version 7.1"}, false)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), lines)
	}
	if !strings.Contains(lines[0], "[OK] Ready (ffmpeg version 7.1)") {
		t.Fatalf("expected version detail, got %q", lines[0])
	}
	if !strings.Contains(lines[1], `[ERROR] binary "ffprobe" not found`) {
		t.Fatalf("expected error detail, got %q", lines[1])
	}
	if !strings.Contains(lines[2], "Missing dependencies") || !strings.Contains(lines[2], "FFprobe") {
		t.Fatalf("expected missing summary, got %q", lines[2])
	}
}

func TestRenderTable(t *testing.T) {
	out := renderTable("Chapter plan", []string{"#", "Label"}, [][]string{{"1", "Intro"}, {"2"}}, []columnAlignment{alignRight})
	for _, want := range []string{"Chapter plan", "#", "LABEL", "Intro"} {
		if !strings.Contains(strings.ToUpper(out), strings.ToUpper(want)) {
			t.Fatalf("expected table to contain %q:\n%s", want, out)
		}
	}
	if renderTable("x", nil, nil, nil) != "" {
		t.Fatal("expected empty output without headers")
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}

func TestSplitExitError(t *testing.T) {
	written := workflow.BookOutcome{
		Plan:   chapters.Plan{Chapters: []chapters.Chapter{{Index: 1, End: 10, Label: "a"}}},
		Report: export.Report{Results: []export.Result{{Index: 1, OK: true}}},
	}
	partial := workflow.BookOutcome{
		Plan:   chapters.Plan{Chapters: []chapters.Chapter{{Index: 1, End: 10, Label: "a"}, {Index: 2, Start: 10, End: 20, Label: "b"}}},
		Report: export.Report{Results: []export.Result{{Index: 1, OK: true}, {Index: 2}}},
	}
	empty := workflow.BookOutcome{}

	tests := []struct {
		name    string
		books   []workflow.BookOutcome
		strict  bool
		wantErr bool
	}{
		{name: "all written", books: []workflow.BookOutcome{written}},
		{name: "all written strict", books: []workflow.BookOutcome{written}, strict: true},
		{name: "partial lenient", books: []workflow.BookOutcome{partial}},
		{name: "partial strict", books: []workflow.BookOutcome{partial}, strict: true, wantErr: true},
		{name: "empty plan beside success", books: []workflow.BookOutcome{written, empty}},
		{name: "nothing written", books: []workflow.BookOutcome{empty}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := splitExitError(workflow.SplitSummary{Books: tt.books}, tt.strict)
			if tt.wantErr != (err != nil) {
				t.Fatalf("splitExitError = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errSplitFailed) {
				t.Fatalf("expected errSplitFailed, got %v", err)
			}
		})
	}
}

func TestContainerInfo(t *testing.T) {
	inspected := ffprobe.Result{
		Streams: []ffprobe.Stream{
			{Index: 0, CodecName: "aac", CodecType: "audio"},
			{Index: 1, CodecName: "mjpeg", CodecType: "video", Width: 600, Height: 600, Disposition: map[string]int{"attached_pic": 1}},
		},
		Format: ffprobe.Format{FormatName: "mov,mp4,m4a", Size: "3145728"},
	}
	info := containerInfo(inspected)
	if info.Format != "mov,mp4,m4a" || info.SizeBytes != 3145728 || info.AudioStreams != 1 {
		t.Fatalf("unexpected container info: %#v", info)
	}
	if info.Cover != "mjpeg 600x600" {
		t.Fatalf("unexpected cover %q", info.Cover)
	}

	var buf bytes.Buffer
	printProbeReport(&buf, probeReport{Path: "/books/Dune.m4b", Duration: 60, Container: info})
	out := buf.String()
	requireContains(t, out, "mov,mp4,m4a, 3.0 MiB, 1 audio stream(s)")
	requireContains(t, out, "[OK] mjpeg 600x600")

	bare := containerInfo(ffprobe.Result{Format: ffprobe.Format{FormatName: "mp3"}})
	if bare.Cover != "" || bare.AudioStreams != 0 {
		t.Fatalf("unexpected bare container info: %#v", bare)
	}
	buf.Reset()
	printProbeReport(&buf, probeReport{Path: "/books/a.mp3", Container: bare})
	requireContains(t, buf.String(), "[INFO] None")
}

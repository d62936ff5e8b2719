package probe

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"bookbinder/internal/engine"
	"bookbinder/internal/logging"
	"bookbinder/internal/testsupport"
)

func newSource(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "book.m4b")
	testsupport.WriteFile(t, path, 64)
	return path
}

func TestProbeCollectsEverything(t *testing.T) {
	src := newSource(t)
	eng := testsupport.NewFakeEngine()
	eng.Durations[src] = 9000
	eng.Chapters[src] = []engine.RawChapter{
		{Start: 0, End: 60, Title: " Intro "},
		{Start: 60, End: 9000},
	}
	eng.Tags[src] = map[string]string{"artist": "Jane Doe"}

	p := New(eng, logging.NewNop())
	got, err := p.Probe(context.Background(), src)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if got.Duration != 9000 {
		t.Fatalf("expected duration 9000, got %v", got.Duration)
	}
	if len(got.Chapters) != 2 || got.Chapters[0].Title != "Intro" {
		t.Fatalf("unexpected chapters: %#v", got.Chapters)
	}
	if artist, ok := got.Tag("Artist"); !ok || artist != "Jane Doe" {
		t.Fatalf("expected artist tag, got %q (%v)", artist, ok)
	}
	if _, ok := got.Tags["album"]; ok {
		t.Fatal("absent tags must not appear in Tags")
	}
	lookup := got.Lookups["album"]
	if lookup.Found || lookup.Reason == "" {
		t.Fatalf("expected album lookup with reason, got %#v", lookup)
	}
}

func TestProbeKeepsContainerOrder(t *testing.T) {
	src := newSource(t)
	eng := testsupport.NewFakeEngine()
	eng.Chapters[src] = []engine.RawChapter{{Start: 50, End: 100}, {Start: 0, End: 50}}
	got, err := New(eng, nil).Probe(context.Background(), src)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if got.Chapters[0].Start != 50 {
		t.Fatalf("chapters reordered: %#v", got.Chapters)
	}
}

func TestProbeFailuresBecomeAbsentData(t *testing.T) {
	src := newSource(t)
	eng := testsupport.NewFakeEngine()
	eng.ProbeErr[src] = errors.New("ffprobe exploded")

	got, err := New(eng, logging.NewNop()).Probe(context.Background(), src)
	if err != nil {
		t.Fatalf("engine failures must not surface as errors: %v", err)
	}
	if got.Duration != 0 || len(got.Chapters) != 0 || len(got.Tags) != 0 {
		t.Fatalf("expected empty probe, got %#v", got)
	}
	for _, tag := range DefaultTags {
		lookup := got.Lookups[tag]
		if lookup.Found || !strings.Contains(lookup.Reason, "ffprobe exploded") {
			t.Fatalf("expected failure reason for %s, got %#v", tag, lookup)
		}
	}
}

func TestProbeRejectsInvalidInput(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		path string
	}{
		{"empty", "  "},
		{"missing", filepath.Join(dir, "nope.m4b")},
		{"directory", dir},
	}
	eng := testsupport.NewFakeEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(eng, nil).Probe(context.Background(), tt.path)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
	if eng.ProbeCalls() != 0 {
		t.Fatalf("engine must not be called for invalid input, got %d calls", eng.ProbeCalls())
	}
}

func TestDurationSanitizesEngineValue(t *testing.T) {
	src := newSource(t)
	for _, value := range []float64{-5, math.NaN(), math.Inf(1)} {
		eng := testsupport.NewFakeEngine()
		eng.Durations[src] = value
		if got := New(eng, nil).Duration(context.Background(), src); got != 0 {
			t.Fatalf("Duration(%v) = %v, want 0", value, got)
		}
	}
}

func TestChaptersMalformedYieldsEmpty(t *testing.T) {
	src := newSource(t)
	eng := testsupport.NewFakeEngine()
	eng.Chapters[src] = []engine.RawChapter{{Start: 0, End: 10}, {Start: math.NaN(), End: 20}}
	if got := New(eng, nil).Chapters(context.Background(), src); len(got) != 0 {
		t.Fatalf("expected empty chapter list, got %#v", got)
	}
}

func TestWithTagsNormalizes(t *testing.T) {
	p := New(testsupport.NewFakeEngine(), nil, WithTags([]string{" Artist ", "", "GENRE"}))
	if len(p.tags) != 2 || p.tags[0] != "artist" || p.tags[1] != "genre" {
		t.Fatalf("unexpected tags: %q", p.tags)
	}
}

func TestTimeoutBoundsEngineCall(t *testing.T) {
	src := newSource(t)
	eng := &blockingEngine{FakeEngine: testsupport.NewFakeEngine()}
	p := New(eng, nil, WithTimeout(20*time.Millisecond))
	start := time.Now()
	if got := p.Duration(context.Background(), src); got != 0 {
		t.Fatalf("expected 0 after timeout, got %v", got)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatal("probe timeout not applied")
	}
}

type blockingEngine struct {
	*testsupport.FakeEngine
}

func (b *blockingEngine) ProbeDuration(ctx context.Context, _ string) (float64, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}

func TestExtractCover(t *testing.T) {
	src := newSource(t)
	dest := filepath.Join(t.TempDir(), "cover.jpg")
	eng := testsupport.NewFakeEngine()

	lookup := New(eng, nil).ExtractCover(context.Background(), src, dest)
	if !lookup.Found || lookup.Value != dest {
		t.Fatalf("expected cover at %s, got %#v", dest, lookup)
	}
	reqs := eng.Requests()
	if len(reqs) != 1 || !reqs[0].NoAudio || reqs[0].VideoCodec != "copy" {
		t.Fatalf("unexpected cover request: %#v", reqs)
	}
}

func TestExtractCoverWithoutPicture(t *testing.T) {
	src := newSource(t)
	dest := filepath.Join(t.TempDir(), "cover.jpg")
	eng := testsupport.NewFakeEngine()
	eng.Handler = func(req engine.TranscodeRequest) error {
		return errors.New("output file does not contain any stream")
	}
	lookup := New(eng, nil).ExtractCover(context.Background(), src, dest)
	if lookup.Found || lookup.Reason == "" {
		t.Fatalf("expected missing cover, got %#v", lookup)
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Fatalf("expected no cover file, stat err=%v", err)
	}
}

func TestExtractCoverEmptyFile(t *testing.T) {
	src := newSource(t)
	dest := filepath.Join(t.TempDir(), "cover.jpg")
	eng := testsupport.NewFakeEngine()
	eng.Handler = func(req engine.TranscodeRequest) error {
		return testsupport.WriteBytes(req.Output, 0)
	}
	if lookup := New(eng, nil).ExtractCover(context.Background(), src, dest); lookup.Found {
		t.Fatalf("empty cover must not count as found: %#v", lookup)
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Fatal("empty cover should be removed")
	}
}

package testsupport

import (
	"context"
	"sync"

	"bookbinder/internal/engine"
)

// FakeEngine is an engine.Engine double. Probe answers come from the maps
// keyed by path; Transcode records the request and, unless Handler says
// otherwise, writes OutputSize bytes to the requested output.
type FakeEngine struct {
	Durations map[string]float64
	Chapters  map[string][]engine.RawChapter
	Tags      map[string]map[string]string
	ProbeErr  map[string]error

	// Handler replaces the default output writer when set.
	Handler func(req engine.TranscodeRequest) error
	// OutputSize is the number of bytes written per transcode; zero means 1024.
	OutputSize int64

	mu         sync.Mutex
	requests   []engine.TranscodeRequest
	probeCalls int
}

var _ engine.Engine = (*FakeEngine)(nil)

// NewFakeEngine returns an empty fake.
func NewFakeEngine() *FakeEngine {
	return &FakeEngine{
		Durations: map[string]float64{},
		Chapters:  map[string][]engine.RawChapter{},
		Tags:      map[string]map[string]string{},
		ProbeErr:  map[string]error{},
	}
}

func (f *FakeEngine) ProbeDuration(_ context.Context, path string) (float64, error) {
	f.countProbe()
	if err := f.ProbeErr[path]; err != nil {
		return 0, err
	}
	return f.Durations[path], nil
}

func (f *FakeEngine) ProbeChapters(_ context.Context, path string) ([]engine.RawChapter, error) {
	f.countProbe()
	if err := f.ProbeErr[path]; err != nil {
		return nil, err
	}
	return append([]engine.RawChapter(nil), f.Chapters[path]...), nil
}

func (f *FakeEngine) ProbeTag(_ context.Context, path, tag string) (string, error) {
	f.countProbe()
	if err := f.ProbeErr[path]; err != nil {
		return "", err
	}
	return f.Tags[path][tag], nil
}

func (f *FakeEngine) Transcode(ctx context.Context, req engine.TranscodeRequest) error {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}
	if f.Handler != nil {
		return f.Handler(req)
	}
	size := f.OutputSize
	if size == 0 {
		size = 1024
	}
	return WriteBytes(req.Output, size)
}

// Requests returns a copy of every transcode request received so far.
func (f *FakeEngine) Requests() []engine.TranscodeRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]engine.TranscodeRequest(nil), f.requests...)
}

// ProbeCalls reports how many probe operations were issued.
func (f *FakeEngine) ProbeCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.probeCalls
}

func (f *FakeEngine) countProbe() {
	f.mu.Lock()
	f.probeCalls++
	f.mu.Unlock()
}

package monitor

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"sync"
	"testing"
	"time"

	"github.com/pvolek/facegate/internal/loader"
	"github.com/pvolek/facegate/internal/recognizer"
	"github.com/pvolek/facegate/internal/vision"
)

// makeTestJPEG encodes a solid-color image of the given size.
func makeTestJPEG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: 60, G: 90, B: 140, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

// testVector builds a 128-dim descriptor with the given leading values.
func testVector(lead ...float32) []float32 {
	vec := make([]float32, recognizer.DescriptorSize)
	copy(vec, lead)
	return vec
}

// newTestPipeline wires a stub engine behind a loader that is already
// warmed up, so Analyze never blocks on acquisition.
func newTestPipeline(t *testing.T, engine *vision.StubEngine, store *recognizer.Store, optional bool) *Pipeline {
	t.Helper()

	opts := loader.Options{
		Sources:  []string{"stub"},
		Timeout:  time.Second,
		Critical: []string{"face_detector", "face_recognizer"},
	}
	if optional {
		opts.Optional = []string{"age_gender"}
	}
	ld := loader.New(engine, opts)
	if err := ld.EnsureReady(context.Background()); err != nil {
		t.Fatalf("failed to warm up test loader: %v", err)
	}
	if optional {
		waitFor(t, ld.OptionalReady)
	}

	return NewPipeline(engine, ld, recognizer.NewMatcher(store), 0.55, 1920)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

// fakeSource serves one canned frame forever, optionally blocking each
// grab until released.
type fakeSource struct {
	frame []byte

	mu      sync.Mutex
	grabs   int
	release chan struct{}
}

func newFakeSource(frame []byte) *fakeSource {
	return &fakeSource{frame: frame}
}

func (s *fakeSource) blockGrabs() chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.release = make(chan struct{})
	return s.release
}

func (s *fakeSource) Grab(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	s.grabs++
	release := s.release
	s.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.frame, nil
}

func (s *fakeSource) Describe() string { return "fake" }

func (s *fakeSource) grabCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grabs
}

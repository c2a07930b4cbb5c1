package vision

import (
	"context"
	"sync"
)

// StubEngine is a deterministic Engine for tests. It reports the
// configured faces for every frame and records tier loads so tests can
// assert which sources were asked for what.
type StubEngine struct {
	mu       sync.Mutex
	faces    []Face
	width    int
	height   int
	tierErrs map[string]error
	loads    []string
	detects  int
}

// NewStubEngine returns an engine reporting the given faces on a
// 640x480 canvas.
func NewStubEngine(faces ...Face) *StubEngine {
	return &StubEngine{
		faces:    faces,
		width:    640,
		height:   480,
		tierErrs: make(map[string]error),
	}
}

// SetFaces replaces the canned detections.
func (s *StubEngine) SetFaces(faces ...Face) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faces = faces
}

// FailTier makes every LoadTier call for the given tier return err.
func (s *StubEngine) FailTier(tier string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tierErrs[tier] = err
}

func (s *StubEngine) LoadTier(_ context.Context, source, tier string, _ []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads = append(s.loads, source+"|"+tier)
	return s.tierErrs[tier]
}

func (s *StubEngine) DetectFaces(_ context.Context, _ []byte) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.detects++
	faces := make([]Face, len(s.faces))
	copy(faces, s.faces)
	return &Result{
		Faces:  faces,
		Width:  s.width,
		Height: s.height,
		Model:  "stub",
	}, nil
}

// Loads returns every LoadTier call as "source|tier" in call order.
func (s *StubEngine) Loads() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.loads))
	copy(out, s.loads)
	return out
}

// Detections returns how many frames were analyzed.
func (s *StubEngine) Detections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.detects
}

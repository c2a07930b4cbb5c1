// Package vision wraps the face model backend. A backend loads model
// tiers from a source and turns encoded frames into face descriptors;
// everything downstream only ever sees the Face values it returns.
package vision

import (
	"context"
	"errors"
)

// Model tier names. The critical tier carries detection and recognition
// and gates the whole pipeline; the optional tier only adds demographics.
const (
	TierCritical = "critical"
	TierOptional = "optional"
)

// ErrNoActiveSource is returned by DetectFaces before any source has
// successfully served the critical tier.
var ErrNoActiveSource = errors.New("no vision source loaded")

// Face is one detected face region. Age, Gender and Expression are only
// populated when the optional tier was loaded on the serving backend.
type Face struct {
	Descriptor []float32
	Box        []float64 // [x1, y1, x2, y2] in pixels of the analyzed frame
	Score      float64
	Age        int
	Gender     string
	Expression string
}

// Result is the detection output for one frame. Width and Height are the
// dimensions of the image the backend actually analyzed, needed to put
// boxes onto the normalized output scale.
type Result struct {
	Faces  []Face
	Width  int
	Height int
	Model  string
}

// Engine is the narrow capability the rest of the system needs from a
// vision backend. RemoteEngine implements it against the model server;
// StubEngine implements it deterministically for tests.
type Engine interface {
	LoadTier(ctx context.Context, source, tier string, models []string) error
	DetectFaces(ctx context.Context, frame []byte) (*Result, error)
}

// Package monitor drives the recognition loop against a frame source.
// Each tick grabs a frame and runs one classification cycle; a tick that
// finds a cycle still in flight drops its frame instead of queuing it.
// Admitted identifications land in the event history and fan out to
// stream listeners.
package monitor

import (
	"context"
	"errors"
	"fmt"

	"github.com/pvolek/facegate/internal/loader"
	"github.com/pvolek/facegate/internal/recognizer"
	"github.com/pvolek/facegate/internal/vision"
)

// ErrNoFace is returned by ExtractFace when the image contains no
// detectable face.
var ErrNoFace = errors.New("no face found in image")

// Pipeline is one classification cycle: make sure the models are loaded,
// size the frame down, detect faces and classify each descriptor against
// the current matcher snapshot. It is shared by the watch loop, the
// identify endpoint and enrollment.
type Pipeline struct {
	engine    vision.Engine
	loader    *loader.Loader
	matcher   *recognizer.Matcher
	threshold float64
	maxSize   int
}

func NewPipeline(engine vision.Engine, ld *loader.Loader, matcher *recognizer.Matcher, threshold float64, maxSize int) *Pipeline {
	return &Pipeline{
		engine:    engine,
		loader:    ld,
		matcher:   matcher,
		threshold: threshold,
		maxSize:   maxSize,
	}
}

// Ready reports whether the critical model tier is loaded.
func (p *Pipeline) Ready() bool {
	return p.loader.Ready()
}

// WarmUp acquires the critical tier, joining an in-flight acquisition
// when one is already running.
func (p *Pipeline) WarmUp(ctx context.Context) error {
	return p.loader.EnsureReady(ctx)
}

// Analyze classifies every face in the frame. The first call (or any
// call after the loader reset) blocks on model acquisition; once the
// critical tier is up the readiness check is immediate. Demographics are
// attached only while the optional tier is loaded.
func (p *Pipeline) Analyze(ctx context.Context, frame []byte) ([]recognizer.Detection, error) {
	result, err := p.detect(ctx, frame)
	if err != nil {
		return nil, err
	}

	snap := p.matcher.GetOrBuild()
	withDemographics := p.loader.OptionalReady()

	detections := make([]recognizer.Detection, 0, len(result.Faces))
	for _, face := range result.Faces {
		match := snap.Classify(face.Descriptor, p.threshold)
		det := recognizer.Detection{
			Identified: match.Identified,
			Name:       match.Name,
			Confidence: match.Confidence,
			Box:        vision.NormalizeBox(face.Box, result.Width, result.Height),
		}
		if withDemographics {
			det.Demographics = &recognizer.Demographics{
				Age:        face.Age,
				Gender:     face.Gender,
				Expression: face.Expression,
			}
		}
		detections = append(detections, det)
	}
	return detections, nil
}

// ExtractFace returns the most prominent face in an enrollment photo
// along with the total number of faces detected, so callers can warn
// when bystanders were in the shot. Returns ErrNoFace when the photo
// shows nobody.
func (p *Pipeline) ExtractFace(ctx context.Context, image []byte) (*vision.Face, int, error) {
	result, err := p.detect(ctx, image)
	if err != nil {
		return nil, 0, err
	}

	face, ok := vision.PrimaryFace(result.Faces)
	if !ok {
		return nil, 0, ErrNoFace
	}
	return &face, len(result.Faces), nil
}

func (p *Pipeline) detect(ctx context.Context, frame []byte) (*vision.Result, error) {
	if err := p.loader.EnsureReady(ctx); err != nil {
		return nil, fmt.Errorf("models not ready: %w", err)
	}

	resized, err := vision.ResizeFrame(frame, p.maxSize)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare frame: %w", err)
	}

	result, err := p.engine.DetectFaces(ctx, resized)
	if err != nil {
		return nil, fmt.Errorf("failed to detect faces: %w", err)
	}
	return result, nil
}

package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/pvolek/facegate/internal/monitor"
	"github.com/pvolek/facegate/internal/recognizer"
)

// IdentifyHandler runs one-shot identification on an uploaded image.
type IdentifyHandler struct {
	pipeline *monitor.Pipeline
}

func NewIdentifyHandler(pipeline *monitor.Pipeline) *IdentifyHandler {
	return &IdentifyHandler{pipeline: pipeline}
}

// IdentifyResponse is the POST /api/identify payload.
type IdentifyResponse struct {
	Detections []recognizer.Detection `json:"detections"`
	Faces      int                    `json:"faces"`
}

// Identify classifies every face in the uploaded image. While the
// critical model tier is down the endpoint answers 503 and kicks an
// acquisition attempt so a later retry can succeed.
func (h *IdentifyHandler) Identify(w http.ResponseWriter, r *http.Request) {
	if !h.pipeline.Ready() {
		go func() {
			if err := h.pipeline.WarmUp(context.Background()); err != nil {
				slog.Warn("web: model warm-up failed", "error", err)
			}
		}()
		respondError(w, http.StatusServiceUnavailable, "face models are not loaded yet")
		return
	}

	image, ok := readImageUpload(w, r, "image")
	if !ok {
		return
	}

	detections, err := h.pipeline.Analyze(r.Context(), image)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to analyze image")
		return
	}

	respondJSON(w, http.StatusOK, IdentifyResponse{
		Detections: detections,
		Faces:      len(detections),
	})
}

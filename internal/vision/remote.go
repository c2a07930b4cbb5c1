package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"sync"
)

// RemoteEngine talks to a face model server. Model tiers are loaded per
// source via LoadTier; the source that last served the critical tier
// becomes the active one and receives all detection traffic.
type RemoteEngine struct {
	client *http.Client

	mu     sync.RWMutex
	active string
}

func NewRemoteEngine() *RemoteEngine {
	return &RemoteEngine{
		client: &http.Client{},
	}
}

type loadRequest struct {
	Tier   string   `json:"tier"`
	Models []string `json:"models"`
}

// LoadTier asks one source to load the named models. A successful
// critical-tier load promotes that source to the active one.
func (e *RemoteEngine) LoadTier(ctx context.Context, source, tier string, models []string) error {
	source = strings.TrimSuffix(source, "/")

	reqBody, err := json.Marshal(loadRequest{Tier: tier, Models: models})
	if err != nil {
		return fmt.Errorf("failed to marshal load request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, source+"/models/load", bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	if tier == TierCritical {
		e.mu.Lock()
		e.active = source
		e.mu.Unlock()
	}

	return nil
}

// ActiveSource returns the base URL detection traffic currently goes to,
// or an empty string before any critical-tier load succeeded.
func (e *RemoteEngine) ActiveSource() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.active
}

// detectedFace mirrors the model server's per-face JSON.
type detectedFace struct {
	FaceIndex  int       `json:"face_index"`
	Descriptor []float32 `json:"descriptor"`
	BBox       []float64 `json:"bbox"` // [x1, y1, x2, y2]
	DetScore   float64   `json:"det_score"`
	Age        float64   `json:"age"`
	Gender     string    `json:"gender"`
	Expression string    `json:"expression"`
}

type detectResponse struct {
	FacesCount int            `json:"faces_count"`
	Faces      []detectedFace `json:"faces"`
	Width      int            `json:"width"`
	Height     int            `json:"height"`
	Model      string         `json:"model"`
}

// DetectFaces posts one encoded frame to the active source and returns
// the detected faces with their descriptors.
func (e *RemoteEngine) DetectFaces(ctx context.Context, frame []byte) (*Result, error) {
	base := e.ActiveSource()
	if base == "" {
		return nil, ErrNoActiveSource
	}

	body, err := e.postMultipartImage(ctx, base+"/detect", frame)
	if err != nil {
		return nil, err
	}

	var detResp detectResponse
	if err := json.Unmarshal(body, &detResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	result := &Result{
		Faces:  make([]Face, 0, len(detResp.Faces)),
		Width:  detResp.Width,
		Height: detResp.Height,
		Model:  detResp.Model,
	}
	for _, f := range detResp.Faces {
		result.Faces = append(result.Faces, Face{
			Descriptor: f.Descriptor,
			Box:        f.BBox,
			Score:      f.DetScore,
			Age:        int(math.Round(f.Age)),
			Gender:     f.Gender,
			Expression: f.Expression,
		})
	}

	return result, nil
}

// postMultipartImage constructs a multipart form with the frame data and
// posts it to the given endpoint. The part carries an explicit
// Content-Type header based on magic byte detection.
func (e *RemoteEngine) postMultipartImage(ctx context.Context, endpoint string, imageData []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="frame.jpg"`)
	h.Set("Content-Type", detectMIMEType(imageData))
	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}

	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// detectMIMEType detects the MIME type from image data
func detectMIMEType(data []byte) string {
	if len(data) < 8 {
		return "application/octet-stream"
	}
	// JPEG: FF D8 FF
	if data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF {
		return "image/jpeg"
	}
	// PNG: 89 50 4E 47 0D 0A 1A 0A
	if data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47 {
		return "image/png"
	}
	// GIF: 47 49 46 38
	if data[0] == 0x47 && data[1] == 0x49 && data[2] == 0x46 && data[3] == 0x38 {
		return "image/gif"
	}
	// WebP: 52 49 46 46 ... 57 45 42 50
	if len(data) >= 12 && data[0] == 0x52 && data[1] == 0x49 && data[2] == 0x46 && data[3] == 0x46 &&
		data[8] == 0x57 && data[9] == 0x45 && data[10] == 0x42 && data[11] == 0x50 {
		return "image/webp"
	}
	return "application/octet-stream"
}

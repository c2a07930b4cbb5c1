package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// ErrNoFrames is returned by a directory source with nothing to serve.
var ErrNoFrames = errors.New("no frames available")

// FrameSource produces encoded frames. Grab blocks until a frame is
// available or the context ends; implementations are safe for use from
// the monitor's cycle goroutines.
type FrameSource interface {
	Grab(ctx context.Context) ([]byte, error)
	Describe() string
}

// NewSource picks a source implementation from the camera URL: http(s)
// URLs become snapshot pulls, anything else is treated as a directory of
// image files.
func NewSource(url string) (FrameSource, error) {
	if url == "" {
		return nil, errors.New("camera URL is required")
	}
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return NewSnapshotSource(url), nil
	}
	return NewDirSource(url)
}

// SnapshotSource pulls a still image from an HTTP endpoint on every
// grab, the way IP cameras expose /snapshot.jpg style URLs.
type SnapshotSource struct {
	url    string
	client *http.Client
}

func NewSnapshotSource(url string) *SnapshotSource {
	return &SnapshotSource{
		url:    url,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *SnapshotSource) Grab(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("snapshot request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("snapshot returned status %d", resp.StatusCode)
	}

	frame, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return frame, nil
}

func (s *SnapshotSource) Describe() string {
	return s.url
}

// DirSource cycles through the image files of a directory, oldest name
// first, wrapping around forever. Useful for demos and offline testing
// where no camera exists.
type DirSource struct {
	dir   string
	files []string

	mu   sync.Mutex
	next int
}

func NewDirSource(dir string) (*DirSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg", ".png":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoFrames, dir)
	}

	return &DirSource{dir: dir, files: files}, nil
}

func (s *DirSource) Grab(_ context.Context) ([]byte, error) {
	s.mu.Lock()
	path := s.files[s.next]
	s.next = (s.next + 1) % len(s.files)
	s.mu.Unlock()

	frame, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame %s: %w", path, err)
	}
	return frame, nil
}

func (s *DirSource) Describe() string {
	return s.dir
}

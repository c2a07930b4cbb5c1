package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pvolek/facegate/internal/gallery"
	"github.com/pvolek/facegate/internal/loader"
	"github.com/pvolek/facegate/internal/monitor"
	"github.com/pvolek/facegate/internal/recognizer"
	"github.com/pvolek/facegate/internal/vision"
)

// testEnv is the full handler dependency graph on a stub engine and a
// file-backed gallery.
type testEnv struct {
	engine   *vision.StubEngine
	store    *recognizer.Store
	registry *gallery.Registry
	suggest  *gallery.SuggestIndex
	loader   *loader.Loader
	matcher  *recognizer.Matcher
	pipeline *monitor.Pipeline
	history  *recognizer.History
	events   *monitor.Broadcaster
}

// newTestEnv wires everything up with the critical tier already loaded,
// reporting the given faces for every analyzed image.
func newTestEnv(t *testing.T, faces ...vision.Face) *testEnv {
	t.Helper()

	env := buildEnv(t, faces...)
	if err := env.loader.EnsureReady(context.Background()); err != nil {
		t.Fatalf("failed to warm up test loader: %v", err)
	}
	return env
}

// newOfflineEnv wires everything up with model loading permanently
// failing, for not-ready paths.
func newOfflineEnv(t *testing.T) *testEnv {
	t.Helper()

	env := buildEnv(t)
	env.engine.FailTier(vision.TierCritical, errors.New("connection refused"))
	return env
}

func buildEnv(t *testing.T, faces ...vision.Face) *testEnv {
	t.Helper()

	engine := vision.NewStubEngine(faces...)
	store := recognizer.NewStore()
	registry := gallery.NewRegistry(store, gallery.NewFileStore(filepath.Join(t.TempDir(), "gallery.json")))
	ld := loader.New(engine, loader.Options{
		Sources:  []string{"stub"},
		Timeout:  time.Second,
		Critical: []string{"face_detector", "face_recognizer"},
	})
	matcher := recognizer.NewMatcher(store)

	return &testEnv{
		engine:   engine,
		store:    store,
		registry: registry,
		suggest:  gallery.NewSuggestIndex(),
		loader:   ld,
		matcher:  matcher,
		pipeline: monitor.NewPipeline(engine, ld, matcher, 0.55, 1920),
		history:  recognizer.NewHistory(0),
		events:   monitor.NewBroadcaster(),
	}
}

func (env *testEnv) peopleHandler() *PeopleHandler {
	return NewPeopleHandler(env.registry, env.suggest, env.store, env.pipeline)
}

// testVector builds a 128-dim descriptor with the given leading values.
func testVector(lead ...float32) []float32 {
	vec := make([]float32, recognizer.DescriptorSize)
	copy(vec, lead)
	return vec
}

// makeTestJPEG encodes a small solid-color image.
func makeTestJPEG(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for x := 0; x < 64; x++ {
		for y := 0; y < 48; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 160, B: 120, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

// multipartRequest builds a multipart request with optional form fields
// and one file part.
func multipartRequest(t *testing.T, method, path string, fields map[string]string, fileField string, file []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("failed to write form field: %v", err)
		}
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, "upload.jpg")
		if err != nil {
			t.Fatalf("failed to create file part: %v", err)
		}
		if _, err := fw.Write(file); err != nil {
			t.Fatalf("failed to write file part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertContentType checks if the response has the expected content type
func assertContentType(t *testing.T, recorder *httptest.ResponseRecorder, expected string) {
	t.Helper()
	ct := recorder.Header().Get("Content-Type")
	if ct != expected {
		t.Errorf("expected Content-Type '%s', got '%s'", expected, ct)
	}
}

// assertJSONError checks if the response is a JSON error with the expected message
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%s'", expectedMessage, result["error"])
	}
}

package monitor

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestNewSource_Dispatch(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "frame.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to write frame: %v", err)
	}

	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{name: "http snapshot", url: "http://camera.local/snapshot.jpg", want: "snapshot"},
		{name: "https snapshot", url: "https://camera.local/still", want: "snapshot"},
		{name: "directory", url: dir, want: "dir"},
		{name: "empty", url: "", wantErr: true},
		{name: "missing directory", url: filepath.Join(dir, "nope"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source, err := NewSource(tt.url)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewSource() error = %v", err)
			}

			switch tt.want {
			case "snapshot":
				if _, ok := source.(*SnapshotSource); !ok {
					t.Errorf("expected *SnapshotSource, got %T", source)
				}
			case "dir":
				if _, ok := source.(*DirSource); !ok {
					t.Errorf("expected *DirSource, got %T", source)
				}
			}
		})
	}
}

func TestSnapshotSource_Grab(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("jpeg-bytes"))
	}))
	defer server.Close()

	source := NewSnapshotSource(server.URL)
	frame, err := source.Grab(context.Background())
	if err != nil {
		t.Fatalf("Grab() error = %v", err)
	}
	if string(frame) != "jpeg-bytes" {
		t.Errorf("unexpected frame %q", frame)
	}
	if source.Describe() != server.URL {
		t.Errorf("unexpected description %q", source.Describe())
	}
}

func TestSnapshotSource_GrabErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "camera offline", http.StatusBadGateway)
	}))
	defer server.Close()

	source := NewSnapshotSource(server.URL)
	if _, err := source.Grab(context.Background()); err == nil {
		t.Fatal("expected an error for a non-200 snapshot")
	}
}

func TestDirSource_CyclesThroughFrames(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []struct{ name, body string }{
		{"b.jpg", "second"},
		{"a.jpg", "first"},
		{"notes.txt", "ignored"},
	} {
		if err := os.WriteFile(filepath.Join(dir, f.name), []byte(f.body), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", f.name, err)
		}
	}

	source, err := NewDirSource(dir)
	if err != nil {
		t.Fatalf("NewDirSource() error = %v", err)
	}

	var got []string
	for i := 0; i < 3; i++ {
		frame, err := source.Grab(context.Background())
		if err != nil {
			t.Fatalf("Grab() error = %v", err)
		}
		got = append(got, string(frame))
	}

	// Sorted by name, wrapping around; the txt file never appears.
	want := []string{"first", "second", "first"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("grab %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDirSource_EmptyDirectory(t *testing.T) {
	_, err := NewDirSource(t.TempDir())
	if !errors.Is(err, ErrNoFrames) {
		t.Fatalf("expected ErrNoFrames, got %v", err)
	}
}

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pvolek/facegate/internal/gallery"
	"github.com/pvolek/facegate/internal/monitor"
	"github.com/pvolek/facegate/internal/recognizer"
	"github.com/pvolek/facegate/internal/vision"
)

// defaultSimilarLimit caps duplicate-person suggestions per query.
const defaultSimilarLimit = 5

// PeopleHandler manages the enrolled people.
type PeopleHandler struct {
	registry *gallery.Registry
	suggest  *gallery.SuggestIndex
	store    *recognizer.Store
	pipeline *monitor.Pipeline
}

func NewPeopleHandler(registry *gallery.Registry, suggest *gallery.SuggestIndex, store *recognizer.Store, pipeline *monitor.Pipeline) *PeopleHandler {
	return &PeopleHandler{
		registry: registry,
		suggest:  suggest,
		store:    store,
		pipeline: pipeline,
	}
}

// PersonResponse is the list shape of one enrolled person.
type PersonResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	Samples   int       `json:"samples"`
}

// PersonDetailResponse adds the enrollment shots, base64-encoded by the
// JSON marshaller. A null image means the sample was imported without one.
type PersonDetailResponse struct {
	PersonResponse
	Images [][]byte `json:"images"`
}

// EnrollResponse is returned on enrollment and sample addition. Similar
// lists enrolled people who look like the new sample, so duplicate
// enrollments surface immediately.
type EnrollResponse struct {
	Person       PersonResponse       `json:"person"`
	FacesInPhoto int                  `json:"facesInPhoto"`
	Similar      []gallery.Suggestion `json:"similar,omitempty"`
}

func personToResponse(p gallery.Person) PersonResponse {
	return PersonResponse{
		ID:        p.ID,
		Name:      p.Name,
		CreatedAt: p.CreatedAt,
		Samples:   len(p.Descriptors),
	}
}

// List returns all enrolled people in registration order.
func (h *PeopleHandler) List(w http.ResponseWriter, r *http.Request) {
	people := h.registry.People()
	out := make([]PersonResponse, 0, len(people))
	for _, p := range people {
		out = append(out, personToResponse(p))
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"people": out,
		"count":  len(out),
	})
}

// Get returns one person including their enrollment shots.
func (h *PeopleHandler) Get(w http.ResponseWriter, r *http.Request) {
	person, err := h.registry.Person(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "person not found")
		return
	}

	respondJSON(w, http.StatusOK, PersonDetailResponse{
		PersonResponse: personToResponse(person),
		Images:         person.Images,
	})
}

// Create enrolls a new person from a multipart form carrying "name" and
// a "photo" file. The most prominent face in the photo becomes the first
// descriptor sample.
func (h *PeopleHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.ensureModels(w) {
		return
	}

	photo, ok := readImageUpload(w, r, "photo")
	if !ok {
		return
	}

	name := r.FormValue("name")
	if name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	if _, err := h.registry.FindByName(name); err == nil {
		respondError(w, http.StatusConflict, "a person with this name is already enrolled")
		return
	}

	face, count, ok := h.extractFace(w, r.Context(), photo)
	if !ok {
		return
	}

	profile, err := h.registry.Enroll(r.Context(), name, face.Descriptor, photo)
	if err != nil {
		slog.Error("web: enrollment failed", "name", name, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to enroll person")
		return
	}

	person, err := h.registry.Person(profile.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load enrolled person")
		return
	}

	h.suggest.Sync(h.store)
	respondJSON(w, http.StatusCreated, EnrollResponse{
		Person:       personToResponse(person),
		FacesInPhoto: count,
		Similar:      h.suggest.Similar(face.Descriptor, defaultSimilarLimit, profile.ID),
	})
}

// Delete removes a person and their samples.
func (h *PeopleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.registry.Remove(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, recognizer.ErrProfileNotFound) {
		respondError(w, http.StatusNotFound, "person not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to delete person")
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// AddSample appends another photo's descriptor to an enrolled person.
func (h *PeopleHandler) AddSample(w http.ResponseWriter, r *http.Request) {
	if !h.ensureModels(w) {
		return
	}

	photo, ok := readImageUpload(w, r, "photo")
	if !ok {
		return
	}

	face, count, ok := h.extractFace(w, r.Context(), photo)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	err := h.registry.AddSample(r.Context(), id, face.Descriptor, photo)
	if errors.Is(err, recognizer.ErrProfileNotFound) {
		respondError(w, http.StatusNotFound, "person not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to add sample")
		return
	}

	person, err := h.registry.Person(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load person")
		return
	}

	h.suggest.Sync(h.store)
	respondJSON(w, http.StatusOK, EnrollResponse{
		Person:       personToResponse(person),
		FacesInPhoto: count,
		Similar:      h.suggest.Similar(face.Descriptor, defaultSimilarLimit, id),
	})
}

// RemoveSample drops one descriptor sample and its paired image.
func (h *PeopleHandler) RemoveSample(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "sample index must be a number")
		return
	}

	id := chi.URLParam(r, "id")
	err = h.registry.RemoveSample(r.Context(), id, index)
	switch {
	case errors.Is(err, recognizer.ErrProfileNotFound):
		respondError(w, http.StatusNotFound, "person not found")
		return
	case errors.Is(err, recognizer.ErrSampleIndex):
		respondError(w, http.StatusBadRequest, "sample index out of range")
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, "failed to remove sample")
		return
	}

	person, err := h.registry.Person(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load person")
		return
	}
	respondJSON(w, http.StatusOK, personToResponse(person))
}

// Similar lists enrolled people who look like the given person, best
// sample distance per candidate.
func (h *PeopleHandler) Similar(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = defaultSimilarLimit
	}

	h.suggest.Sync(h.store)
	suggestions, err := h.suggest.SimilarToProfile(h.store, chi.URLParam(r, "id"), limit)
	if errors.Is(err, recognizer.ErrProfileNotFound) {
		respondError(w, http.StatusNotFound, "person not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to search similar people")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"suggestions": suggestions,
		"count":       len(suggestions),
	})
}

// ensureModels answers 503 (and kicks acquisition) while the critical
// tier is down. Enrollment needs the models as much as identification.
func (h *PeopleHandler) ensureModels(w http.ResponseWriter) bool {
	if h.pipeline.Ready() {
		return true
	}
	go func() {
		if err := h.pipeline.WarmUp(context.Background()); err != nil {
			slog.Warn("web: model warm-up failed", "error", err)
		}
	}()
	respondError(w, http.StatusServiceUnavailable, "face models are not loaded yet")
	return false
}

// extractFace pulls the most prominent face out of the photo, writing
// the error response itself when it fails.
func (h *PeopleHandler) extractFace(w http.ResponseWriter, ctx context.Context, photo []byte) (*vision.Face, int, bool) {
	face, count, err := h.pipeline.ExtractFace(ctx, photo)
	if errors.Is(err, monitor.ErrNoFace) {
		respondError(w, http.StatusBadRequest, "no face found in photo")
		return nil, 0, false
	}
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to analyze photo")
		return nil, 0, false
	}
	return face, count, true
}

package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pvolek/facegate/internal/vision"
)

func enrollTestPerson(t *testing.T, env *testEnv, name string, lead float32) string {
	t.Helper()
	profile, err := env.registry.Enroll(context.Background(), name, testVector(lead), []byte("shot"))
	if err != nil {
		t.Fatalf("failed to enroll %s: %v", name, err)
	}
	return profile.ID
}

func TestPeopleHandler_Create(t *testing.T) {
	env := newTestEnv(t, vision.Face{Descriptor: testVector(1), Box: []float64{0, 0, 100, 100}})
	handler := env.peopleHandler()

	req := multipartRequest(t, http.MethodPost, "/api/people",
		map[string]string{"name": "Ada"}, "photo", makeTestJPEG(t))
	rec := httptest.NewRecorder()
	handler.Create(rec, req)

	assertStatusCode(t, rec, http.StatusCreated)

	var resp EnrollResponse
	parseJSONResponse(t, rec, &resp)
	if resp.Person.Name != "Ada" || resp.Person.Samples != 1 {
		t.Errorf("unexpected person %+v", resp.Person)
	}
	if resp.FacesInPhoto != 1 {
		t.Errorf("expected 1 face in photo, got %d", resp.FacesInPhoto)
	}

	if env.store.Count() != 1 {
		t.Errorf("expected 1 profile in store, got %d", env.store.Count())
	}
	person, err := env.registry.Person(resp.Person.ID)
	if err != nil {
		t.Fatalf("enrolled person not in registry: %v", err)
	}
	if len(person.Images) != 1 || len(person.Images[0]) == 0 {
		t.Error("expected the enrollment photo to be stored")
	}
}

func TestPeopleHandler_CreateSurfacesLookalikes(t *testing.T) {
	env := newTestEnv(t, vision.Face{Descriptor: testVector(1), Box: []float64{0, 0, 100, 100}})
	enrollTestPerson(t, env, "Ada Prime", 1.01)
	handler := env.peopleHandler()

	req := multipartRequest(t, http.MethodPost, "/api/people",
		map[string]string{"name": "Ada"}, "photo", makeTestJPEG(t))
	rec := httptest.NewRecorder()
	handler.Create(rec, req)

	assertStatusCode(t, rec, http.StatusCreated)

	var resp EnrollResponse
	parseJSONResponse(t, rec, &resp)
	if len(resp.Similar) == 0 {
		t.Fatal("expected a lookalike suggestion")
	}
	if resp.Similar[0].Name != "Ada Prime" {
		t.Errorf("expected Ada Prime suggested, got %+v", resp.Similar[0])
	}
	for _, s := range resp.Similar {
		if s.ProfileID == resp.Person.ID {
			t.Error("a person must not be suggested as their own duplicate")
		}
	}
}

func TestPeopleHandler_CreateValidation(t *testing.T) {
	tests := []struct {
		name       string
		fields     map[string]string
		fileField  string
		file       []byte
		wantStatus int
		wantError  string
	}{
		{
			name:       "missing name",
			fields:     nil,
			fileField:  "photo",
			file:       nil, // filled with a JPEG below
			wantStatus: http.StatusBadRequest,
			wantError:  "name is required",
		},
		{
			name:       "missing photo",
			fields:     map[string]string{"name": "Ada"},
			wantStatus: http.StatusBadRequest,
			wantError:  "photo file is required",
		},
		{
			name:       "undecodable photo",
			fields:     map[string]string{"name": "Ada"},
			fileField:  "photo",
			file:       []byte("not a jpeg"),
			wantStatus: http.StatusBadRequest,
			wantError:  "failed to analyze photo",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, vision.Face{Descriptor: testVector(1), Box: []float64{0, 0, 100, 100}})
			handler := env.peopleHandler()

			file := tt.file
			if tt.fileField != "" && file == nil {
				file = makeTestJPEG(t)
			}
			req := multipartRequest(t, http.MethodPost, "/api/people", tt.fields, tt.fileField, file)
			rec := httptest.NewRecorder()
			handler.Create(rec, req)

			assertStatusCode(t, rec, tt.wantStatus)
			assertJSONError(t, rec, tt.wantError)
			if env.store.Count() != 0 {
				t.Errorf("rejected enrollment must not create a profile")
			}
		})
	}
}

func TestPeopleHandler_CreateDuplicateName(t *testing.T) {
	env := newTestEnv(t, vision.Face{Descriptor: testVector(1), Box: []float64{0, 0, 100, 100}})
	enrollTestPerson(t, env, "Jan Novák", 2)
	handler := env.peopleHandler()

	req := multipartRequest(t, http.MethodPost, "/api/people",
		map[string]string{"name": "jan-novak"}, "photo", makeTestJPEG(t))
	rec := httptest.NewRecorder()
	handler.Create(rec, req)

	assertStatusCode(t, rec, http.StatusConflict)
	assertJSONError(t, rec, "a person with this name is already enrolled")
}

func TestPeopleHandler_CreateNoFace(t *testing.T) {
	env := newTestEnv(t) // engine reports no faces
	handler := env.peopleHandler()

	req := multipartRequest(t, http.MethodPost, "/api/people",
		map[string]string{"name": "Ada"}, "photo", makeTestJPEG(t))
	rec := httptest.NewRecorder()
	handler.Create(rec, req)

	assertStatusCode(t, rec, http.StatusBadRequest)
	assertJSONError(t, rec, "no face found in photo")
}

func TestPeopleHandler_CreateModelsNotReady(t *testing.T) {
	env := newOfflineEnv(t)
	handler := env.peopleHandler()

	req := multipartRequest(t, http.MethodPost, "/api/people",
		map[string]string{"name": "Ada"}, "photo", makeTestJPEG(t))
	rec := httptest.NewRecorder()
	handler.Create(rec, req)

	assertStatusCode(t, rec, http.StatusServiceUnavailable)
}

func TestPeopleHandler_List(t *testing.T) {
	env := newTestEnv(t)
	enrollTestPerson(t, env, "Ada", 1)
	enrollTestPerson(t, env, "Grace", 2)
	handler := env.peopleHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/people", nil)
	rec := httptest.NewRecorder()
	handler.List(rec, req)

	assertStatusCode(t, rec, http.StatusOK)

	var resp struct {
		People []PersonResponse `json:"people"`
		Count  int              `json:"count"`
	}
	parseJSONResponse(t, rec, &resp)
	if resp.Count != 2 || len(resp.People) != 2 {
		t.Fatalf("expected 2 people, got %+v", resp)
	}
	if resp.People[0].Name != "Ada" || resp.People[1].Name != "Grace" {
		t.Errorf("expected registration order, got %+v", resp.People)
	}
}

func TestPeopleHandler_Get(t *testing.T) {
	env := newTestEnv(t)
	id := enrollTestPerson(t, env, "Ada", 1)
	handler := env.peopleHandler()

	req := requestWithChiParams(
		httptest.NewRequest(http.MethodGet, "/api/people/"+id, nil),
		map[string]string{"id": id})
	rec := httptest.NewRecorder()
	handler.Get(rec, req)

	assertStatusCode(t, rec, http.StatusOK)

	var resp PersonDetailResponse
	parseJSONResponse(t, rec, &resp)
	if resp.Name != "Ada" || resp.Samples != 1 {
		t.Errorf("unexpected person %+v", resp)
	}
	if len(resp.Images) != 1 || string(resp.Images[0]) != "shot" {
		t.Errorf("expected the stored enrollment shot, got %d images", len(resp.Images))
	}
}

func TestPeopleHandler_GetNotFound(t *testing.T) {
	env := newTestEnv(t)
	handler := env.peopleHandler()

	req := requestWithChiParams(
		httptest.NewRequest(http.MethodGet, "/api/people/nope", nil),
		map[string]string{"id": "nope"})
	rec := httptest.NewRecorder()
	handler.Get(rec, req)

	assertStatusCode(t, rec, http.StatusNotFound)
	assertJSONError(t, rec, "person not found")
}

func TestPeopleHandler_Delete(t *testing.T) {
	env := newTestEnv(t)
	id := enrollTestPerson(t, env, "Ada", 1)
	handler := env.peopleHandler()

	req := requestWithChiParams(
		httptest.NewRequest(http.MethodDelete, "/api/people/"+id, nil),
		map[string]string{"id": id})
	rec := httptest.NewRecorder()
	handler.Delete(rec, req)

	assertStatusCode(t, rec, http.StatusNoContent)
	if env.store.Count() != 0 {
		t.Error("expected the person gone from the store")
	}

	rec = httptest.NewRecorder()
	handler.Delete(rec, req)
	assertStatusCode(t, rec, http.StatusNotFound)
}

func TestPeopleHandler_AddSample(t *testing.T) {
	env := newTestEnv(t, vision.Face{Descriptor: testVector(1.05), Box: []float64{0, 0, 100, 100}})
	id := enrollTestPerson(t, env, "Ada", 1)
	handler := env.peopleHandler()

	req := requestWithChiParams(
		multipartRequest(t, http.MethodPost, "/api/people/"+id+"/samples", nil, "photo", makeTestJPEG(t)),
		map[string]string{"id": id})
	rec := httptest.NewRecorder()
	handler.AddSample(rec, req)

	assertStatusCode(t, rec, http.StatusOK)

	var resp EnrollResponse
	parseJSONResponse(t, rec, &resp)
	if resp.Person.Samples != 2 {
		t.Errorf("expected 2 samples, got %d", resp.Person.Samples)
	}
}

func TestPeopleHandler_AddSampleNotFound(t *testing.T) {
	env := newTestEnv(t, vision.Face{Descriptor: testVector(1), Box: []float64{0, 0, 100, 100}})
	handler := env.peopleHandler()

	req := requestWithChiParams(
		multipartRequest(t, http.MethodPost, "/api/people/nope/samples", nil, "photo", makeTestJPEG(t)),
		map[string]string{"id": "nope"})
	rec := httptest.NewRecorder()
	handler.AddSample(rec, req)

	assertStatusCode(t, rec, http.StatusNotFound)
}

func TestPeopleHandler_RemoveSample(t *testing.T) {
	env := newTestEnv(t)
	id := enrollTestPerson(t, env, "Ada", 1)
	if err := env.registry.AddSample(context.Background(), id, testVector(1.1), nil); err != nil {
		t.Fatalf("failed to add sample: %v", err)
	}
	handler := env.peopleHandler()

	req := requestWithChiParams(
		httptest.NewRequest(http.MethodDelete, "/api/people/"+id+"/samples/0", nil),
		map[string]string{"id": id, "index": "0"})
	rec := httptest.NewRecorder()
	handler.RemoveSample(rec, req)

	assertStatusCode(t, rec, http.StatusOK)

	var resp PersonResponse
	parseJSONResponse(t, rec, &resp)
	if resp.Samples != 1 {
		t.Errorf("expected 1 sample left, got %d", resp.Samples)
	}
}

func TestPeopleHandler_RemoveSampleErrors(t *testing.T) {
	env := newTestEnv(t)
	id := enrollTestPerson(t, env, "Ada", 1)
	handler := env.peopleHandler()

	tests := []struct {
		name       string
		id         string
		index      string
		wantStatus int
		wantError  string
	}{
		{name: "index not a number", id: id, index: "first", wantStatus: http.StatusBadRequest, wantError: "sample index must be a number"},
		{name: "index out of range", id: id, index: "5", wantStatus: http.StatusBadRequest, wantError: "sample index out of range"},
		{name: "unknown person", id: "nope", index: "0", wantStatus: http.StatusNotFound, wantError: "person not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := requestWithChiParams(
				httptest.NewRequest(http.MethodDelete, "/api/people/"+tt.id+"/samples/"+tt.index, nil),
				map[string]string{"id": tt.id, "index": tt.index})
			rec := httptest.NewRecorder()
			handler.RemoveSample(rec, req)

			assertStatusCode(t, rec, tt.wantStatus)
			assertJSONError(t, rec, tt.wantError)
		})
	}
}

func TestPeopleHandler_Similar(t *testing.T) {
	env := newTestEnv(t)
	adaID := enrollTestPerson(t, env, "Ada", 1)
	enrollTestPerson(t, env, "Ada Twin", 1.02)
	enrollTestPerson(t, env, "Stranger", 50)
	handler := env.peopleHandler()

	req := requestWithChiParams(
		httptest.NewRequest(http.MethodGet, "/api/people/"+adaID+"/similar?limit=1", nil),
		map[string]string{"id": adaID})
	rec := httptest.NewRecorder()
	handler.Similar(rec, req)

	assertStatusCode(t, rec, http.StatusOK)

	var resp struct {
		Suggestions []struct {
			ProfileID string  `json:"profileId"`
			Name      string  `json:"name"`
			Distance  float64 `json:"distance"`
		} `json:"suggestions"`
		Count int `json:"count"`
	}
	parseJSONResponse(t, rec, &resp)
	if resp.Count != 1 || len(resp.Suggestions) != 1 {
		t.Fatalf("expected exactly 1 suggestion, got %+v", resp)
	}
	if resp.Suggestions[0].Name != "Ada Twin" {
		t.Errorf("expected Ada Twin, got %+v", resp.Suggestions[0])
	}
}

func TestPeopleHandler_SimilarNotFound(t *testing.T) {
	env := newTestEnv(t)
	handler := env.peopleHandler()

	req := requestWithChiParams(
		httptest.NewRequest(http.MethodGet, "/api/people/nope/similar", nil),
		map[string]string{"id": "nope"})
	rec := httptest.NewRecorder()
	handler.Similar(rec, req)

	assertStatusCode(t, rec, http.StatusNotFound)
}

package gallery

import (
	"context"
	"fmt"
	"sync"

	"github.com/pvolek/facegate/internal/recognizer"
)

// Registry couples the in-memory recognizer store with a persistence
// backend and keeps the enrollment images paired with their descriptors.
// All profile mutations go through it so memory and storage move
// together; the matcher keeps reading the recognizer store directly.
type Registry struct {
	people  *recognizer.Store
	storage Store

	mu     sync.Mutex
	images map[string][][]byte // profile id -> enrollment shots, index-paired with descriptors
}

func NewRegistry(people *recognizer.Store, storage Store) *Registry {
	return &Registry{
		people:  people,
		storage: storage,
		images:  make(map[string][][]byte),
	}
}

// Restore loads every persisted person into the recognizer store,
// replacing whatever it held. Called once at startup.
func (r *Registry) Restore(ctx context.Context) error {
	persons, err := r.storage.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load gallery: %w", err)
	}

	profiles := make([]*recognizer.Profile, 0, len(persons))
	images := make(map[string][][]byte, len(persons))
	for _, p := range persons {
		profiles = append(profiles, p.Profile())
		images[p.ID] = p.Images
	}

	if err := r.people.Replace(profiles); err != nil {
		return fmt.Errorf("failed to restore profiles: %w", err)
	}

	r.mu.Lock()
	r.images = images
	r.mu.Unlock()
	return nil
}

// Enroll registers a new person with one descriptor and its enrollment
// shot, then persists the record. A persistence failure rolls the
// in-memory registration back so memory and storage stay aligned.
func (r *Registry) Enroll(ctx context.Context, name string, descriptor []float32, image []byte) (*recognizer.Profile, error) {
	profile, err := r.people.CreateIdentity(name, descriptor)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.images[profile.ID] = [][]byte{image}
	r.mu.Unlock()

	if err := r.persist(ctx, profile.ID); err != nil {
		r.mu.Lock()
		delete(r.images, profile.ID)
		r.mu.Unlock()
		_ = r.people.DeleteIdentity(profile.ID)
		return nil, err
	}
	return profile, nil
}

// AddSample appends one more descriptor and its image to an enrolled
// person ("active learning": more captures under varied conditions make
// future matches stick).
func (r *Registry) AddSample(ctx context.Context, id string, descriptor []float32, image []byte) error {
	if err := r.people.AppendSample(id, descriptor); err != nil {
		return err
	}

	r.mu.Lock()
	r.images[id] = append(r.images[id], image)
	r.mu.Unlock()

	return r.persist(ctx, id)
}

// RemoveSample drops the descriptor at index together with its paired
// image. Out-of-range indexes are rejected by the recognizer store.
func (r *Registry) RemoveSample(ctx context.Context, id string, index int) error {
	if err := r.people.RemoveSample(id, index); err != nil {
		return err
	}

	r.mu.Lock()
	if imgs := r.images[id]; index >= 0 && index < len(imgs) {
		r.images[id] = append(imgs[:index], imgs[index+1:]...)
	}
	r.mu.Unlock()

	return r.persist(ctx, id)
}

// Remove deletes a person from memory and storage.
func (r *Registry) Remove(ctx context.Context, id string) error {
	if err := r.people.DeleteIdentity(id); err != nil {
		return err
	}

	r.mu.Lock()
	delete(r.images, id)
	r.mu.Unlock()

	if err := r.storage.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete person from gallery: %w", err)
	}
	return nil
}

// FindByName looks an enrolled person up by name, comparing normalized
// forms so "Jan Novák" is found by "jan-novak". Returns
// recognizer.ErrProfileNotFound when nobody matches.
func (r *Registry) FindByName(name string) (Person, error) {
	want := NormalizeName(name)
	for _, profile := range r.people.Profiles() {
		if NormalizeName(profile.Name) == want {
			return r.record(profile), nil
		}
	}
	return Person{}, recognizer.ErrProfileNotFound
}

// Person returns the full persisted shape of one enrolled person,
// assembled from the recognizer store and the paired images.
func (r *Registry) Person(id string) (Person, error) {
	profile, err := r.people.Get(id)
	if err != nil {
		return Person{}, err
	}
	return r.record(profile), nil
}

// People returns all enrolled persons in registration order.
func (r *Registry) People() []Person {
	profiles := r.people.Profiles()
	out := make([]Person, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, r.record(p))
	}
	return out
}

func (r *Registry) record(profile *recognizer.Profile) Person {
	r.mu.Lock()
	images := make([][]byte, len(r.images[profile.ID]))
	copy(images, r.images[profile.ID])
	r.mu.Unlock()

	return Person{
		ID:          profile.ID,
		Name:        profile.Name,
		CreatedAt:   profile.CreatedAt,
		Images:      images,
		Descriptors: profile.Descriptors,
	}
}

func (r *Registry) persist(ctx context.Context, id string) error {
	person, err := r.Person(id)
	if err != nil {
		return err
	}
	if err := r.storage.Save(ctx, person); err != nil {
		return fmt.Errorf("failed to persist person %q: %w", person.Name, err)
	}
	return nil
}

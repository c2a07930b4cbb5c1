package recognizer

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DescriptorSize is the dimensionality every face descriptor must have.
// The recognition model emits 128-float embeddings; anything else is a
// caller bug and is rejected at the store boundary.
const DescriptorSize = 128

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrDescriptorSize  = fmt.Errorf("descriptor must have %d dimensions", DescriptorSize)
	ErrSampleIndex     = errors.New("sample index out of range")
)

// Profile is one enrolled identity with its ordered descriptor samples.
// Samples are never deduplicated or reordered; appending more captures of
// the same person under different conditions improves future matches.
type Profile struct {
	ID          string
	Name        string
	CreatedAt   time.Time
	Descriptors [][]float32
}

// Store owns the profile collection. All mutations go through it so the
// total descriptor count, which the matcher uses as its staleness signal,
// stays consistent. Safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	profiles []*Profile // registration order, meaningful for tie-breaks
	byID     map[string]*Profile
}

func NewStore() *Store {
	return &Store{
		byID: make(map[string]*Profile),
	}
}

// CreateIdentity registers a new profile, optionally seeded with initial
// descriptors. Every descriptor is validated before anything is stored,
// so a bad vector never creates a half-enrolled identity.
func (s *Store) CreateIdentity(name string, initial ...[]float32) (*Profile, error) {
	descriptors := make([][]float32, 0, len(initial))
	for _, vec := range initial {
		if len(vec) != DescriptorSize {
			return nil, ErrDescriptorSize
		}
		descriptors = append(descriptors, cloneVector(vec))
	}

	p := &Profile{
		ID:          uuid.New().String(),
		Name:        name,
		CreatedAt:   time.Now(),
		Descriptors: descriptors,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles = append(s.profiles, p)
	s.byID[p.ID] = p

	return s.copyProfile(p), nil
}

// AppendSample adds one descriptor to an existing profile.
func (s *Store) AppendSample(id string, vec []float32) error {
	if len(vec) != DescriptorSize {
		return ErrDescriptorSize
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byID[id]
	if !ok {
		return ErrProfileNotFound
	}
	p.Descriptors = append(p.Descriptors, cloneVector(vec))
	return nil
}

// RemoveSample deletes the descriptor at index. An out-of-range index is
// a contract violation and is rejected with ErrSampleIndex rather than
// silently ignored.
func (s *Store) RemoveSample(id string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byID[id]
	if !ok {
		return ErrProfileNotFound
	}
	if index < 0 || index >= len(p.Descriptors) {
		return ErrSampleIndex
	}
	p.Descriptors = append(p.Descriptors[:index], p.Descriptors[index+1:]...)
	return nil
}

// DeleteIdentity removes a profile entirely.
func (s *Store) DeleteIdentity(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; !ok {
		return ErrProfileNotFound
	}
	delete(s.byID, id)
	for i, p := range s.profiles {
		if p.ID == id {
			s.profiles = append(s.profiles[:i], s.profiles[i+1:]...)
			break
		}
	}
	return nil
}

// Replace swaps the whole collection, validating every descriptor first.
// Used when loading persisted profiles at startup.
func (s *Store) Replace(profiles []*Profile) error {
	for _, p := range profiles {
		for _, vec := range p.Descriptors {
			if len(vec) != DescriptorSize {
				return fmt.Errorf("profile %q: %w", p.Name, ErrDescriptorSize)
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.profiles = make([]*Profile, 0, len(profiles))
	s.byID = make(map[string]*Profile, len(profiles))
	for _, p := range profiles {
		cp := &Profile{
			ID:          p.ID,
			Name:        p.Name,
			CreatedAt:   p.CreatedAt,
			Descriptors: cloneDescriptors(p.Descriptors),
		}
		s.profiles = append(s.profiles, cp)
		s.byID[cp.ID] = cp
	}
	return nil
}

// Get returns a copy of one profile.
func (s *Store) Get(id string) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byID[id]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return s.copyProfile(p), nil
}

// Profiles returns copies of all profiles in registration order.
func (s *Store) Profiles() []*Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, s.copyProfile(p))
	}
	return out
}

// TotalDescriptors counts descriptors across all profiles. Every mutation
// moves this number; the matcher keys its cache staleness on it.
func (s *Store) TotalDescriptors() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, p := range s.profiles {
		total += len(p.Descriptors)
	}
	return total
}

// Count returns the number of enrolled profiles.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.profiles)
}

// copyProfile copies the profile header and the outer descriptor slice.
// The descriptor vectors themselves are immutable after ingestion, so
// sharing them is safe.
func (s *Store) copyProfile(p *Profile) *Profile {
	descriptors := make([][]float32, len(p.Descriptors))
	copy(descriptors, p.Descriptors)
	return &Profile{
		ID:          p.ID,
		Name:        p.Name,
		CreatedAt:   p.CreatedAt,
		Descriptors: descriptors,
	}
}

func cloneVector(vec []float32) []float32 {
	cp := make([]float32, len(vec))
	copy(cp, vec)
	return cp
}

func cloneDescriptors(descriptors [][]float32) [][]float32 {
	out := make([][]float32, len(descriptors))
	for i, vec := range descriptors {
		out[i] = cloneVector(vec)
	}
	return out
}

package recognizer

import "sync"

// Snapshot is a flattened, labeled view of the store built for
// nearest-neighbor search. Vectors keep store registration order, which
// makes distance ties deterministic: the earliest enrolled sample wins.
type Snapshot struct {
	labels  []string
	vectors [][]float32
}

// Size returns the number of flattened sample vectors.
func (s *Snapshot) Size() int {
	if s == nil {
		return 0
	}
	return len(s.vectors)
}

// Matcher memoizes a Snapshot of the store. Staleness is keyed on the
// total descriptor count alone, not on profile content: a removal and an
// addition that cancel out leave the previous snapshot in place until the
// count moves again.
type Matcher struct {
	store *Store

	mu    sync.Mutex
	built bool
	count int
	snap  *Snapshot
}

func NewMatcher(store *Store) *Matcher {
	return &Matcher{store: store}
}

// GetOrBuild returns the cached snapshot when the store's descriptor count
// matches the count recorded at the last build, rebuilding from scratch
// otherwise. A nil snapshot means no identity currently has a descriptor;
// Classify treats that as "everything unknown".
func (m *Matcher) GetOrBuild() *Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := m.store.TotalDescriptors()
	if m.built && m.count == total {
		return m.snap
	}

	m.snap = flatten(m.store.Profiles())
	m.count = total
	m.built = true
	return m.snap
}

// flatten turns profiles with at least one descriptor into a labeled
// vector set. Identities without descriptors are excluded entirely so
// they can never surface as a candidate.
func flatten(profiles []*Profile) *Snapshot {
	total := 0
	for _, p := range profiles {
		total += len(p.Descriptors)
	}
	if total == 0 {
		return nil
	}

	snap := &Snapshot{
		labels:  make([]string, 0, total),
		vectors: make([][]float32, 0, total),
	}
	for _, p := range profiles {
		for _, vec := range p.Descriptors {
			snap.labels = append(snap.labels, p.Name)
			snap.vectors = append(snap.vectors, vec)
		}
	}
	return snap
}

package gallery

import (
	"fmt"
	"sort"
	"sync"

	"github.com/coder/hnsw"
	"github.com/pvolek/facegate/internal/recognizer"
)

// HNSW graph parameters for 128-dim face descriptors.
const (
	// suggestMaxNeighbors (M) is the maximum number of neighbors per node.
	// Higher values improve recall but increase memory and build time.
	suggestMaxNeighbors = 16

	// suggestSearchMultiplier requests extra candidates from HNSW so
	// enough distinct people remain after collapsing per-sample hits.
	suggestSearchMultiplier = 3
)

// Suggestion is one "this might be the same person" candidate.
type Suggestion struct {
	ProfileID string  `json:"profileId"`
	Name      string  `json:"name"`
	Distance  float64 `json:"distance"`
}

// SuggestIndex answers "which enrolled people look like this sample"
// during registration. It is advisory only: the matching path stays on
// the brute-force classifier, this graph just keeps duplicate
// enrollments visible. Node keys are "profileID#sampleIndex".
type SuggestIndex struct {
	mu    sync.RWMutex
	graph *hnsw.Graph[string]
	owner map[string]suggestOwner
	count int // descriptor count at last build, same staleness signal the matcher uses
	built bool
}

type suggestOwner struct {
	profileID string
	name      string
}

func NewSuggestIndex() *SuggestIndex {
	return &SuggestIndex{
		owner: make(map[string]suggestOwner),
	}
}

// Sync rebuilds the graph when the store's descriptor count moved since
// the last build. Rebuilds are full: HNSW does not support true
// deletion, and galleries are small enough that rebuilding beats
// tombstone bookkeeping.
func (s *SuggestIndex) Sync(store *recognizer.Store) {
	total := store.TotalDescriptors()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.built && s.count == total {
		return
	}

	s.owner = make(map[string]suggestOwner, total)
	if total == 0 {
		s.graph = nil
		s.count = 0
		s.built = true
		return
	}

	g := hnsw.NewGraph[string]()
	g.M = suggestMaxNeighbors
	g.Ml = 1.0 / float64(suggestMaxNeighbors) // standard HNSW formula
	g.Distance = hnsw.EuclideanDistance

	for _, profile := range store.Profiles() {
		for i, vec := range profile.Descriptors {
			key := fmt.Sprintf("%s#%d", profile.ID, i)
			g.Add(hnsw.MakeNode(key, vec))
			s.owner[key] = suggestOwner{profileID: profile.ID, name: profile.Name}
		}
	}

	s.graph = g
	s.count = total
	s.built = true
}

// Similar returns up to limit people whose samples are nearest to the
// query vector, best sample per person, sorted by distance. The profile
// named by exclude never appears (a person is not a duplicate of
// themselves).
func (s *SuggestIndex) Similar(query []float32, limit int, exclude string) []Suggestion {
	if limit <= 0 {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.graph == nil {
		return nil
	}

	neighbors := s.graph.Search(query, limit*suggestSearchMultiplier)

	best := make(map[string]Suggestion)
	for _, n := range neighbors {
		owner, ok := s.owner[n.Key]
		if !ok || owner.profileID == exclude {
			continue
		}
		d := recognizer.EuclideanDistance(query, n.Value)
		if cur, seen := best[owner.profileID]; !seen || d < cur.Distance {
			best[owner.profileID] = Suggestion{
				ProfileID: owner.profileID,
				Name:      owner.name,
				Distance:  d,
			}
		}
	}

	out := make([]Suggestion, 0, len(best))
	for _, sug := range best {
		out = append(out, sug)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// SimilarToProfile merges Similar results across every sample of one
// enrolled person, keeping each candidate's best distance.
func (s *SuggestIndex) SimilarToProfile(store *recognizer.Store, profileID string, limit int) ([]Suggestion, error) {
	profile, err := store.Get(profileID)
	if err != nil {
		return nil, err
	}

	best := make(map[string]Suggestion)
	for _, vec := range profile.Descriptors {
		for _, sug := range s.Similar(vec, limit, profileID) {
			if cur, seen := best[sug.ProfileID]; !seen || sug.Distance < cur.Distance {
				best[sug.ProfileID] = sug
			}
		}
	}

	out := make([]Suggestion, 0, len(best))
	for _, sug := range best {
		out = append(out, sug)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Size returns the number of indexed samples.
func (s *SuggestIndex) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.owner)
}

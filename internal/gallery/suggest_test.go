package gallery

import (
	"testing"

	"github.com/pvolek/facegate/internal/recognizer"
)

func TestSuggestIndex_SimilarRanksByDistance(t *testing.T) {
	store := recognizer.NewStore()
	near, _ := store.CreateIdentity("near", testDescriptor(0.1))
	far, _ := store.CreateIdentity("far", testDescriptor(0.9))
	store.CreateIdentity("empty") // no descriptors, must never surface

	idx := NewSuggestIndex()
	idx.Sync(store)

	if idx.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", idx.Size())
	}

	sims := idx.Similar(testDescriptor(0.0), 5, "")
	if len(sims) != 2 {
		t.Fatalf("Similar() returned %d suggestions, want 2", len(sims))
	}
	if sims[0].ProfileID != near.ID || sims[1].ProfileID != far.ID {
		t.Errorf("suggestions out of order: %+v", sims)
	}
	if sims[0].Distance >= sims[1].Distance {
		t.Errorf("distances not ascending: %v then %v", sims[0].Distance, sims[1].Distance)
	}
}

func TestSuggestIndex_ExcludesSelf(t *testing.T) {
	store := recognizer.NewStore()
	alice, _ := store.CreateIdentity("alice", testDescriptor(0.1))
	store.CreateIdentity("bob", testDescriptor(0.2))

	idx := NewSuggestIndex()
	idx.Sync(store)

	sims := idx.Similar(testDescriptor(0.1), 5, alice.ID)
	for _, s := range sims {
		if s.ProfileID == alice.ID {
			t.Errorf("the excluded profile appeared in suggestions: %+v", s)
		}
	}
	if len(sims) != 1 || sims[0].Name != "bob" {
		t.Errorf("expected only bob, got %+v", sims)
	}
}

func TestSuggestIndex_CollapsesSamplesPerPerson(t *testing.T) {
	store := recognizer.NewStore()
	alice, _ := store.CreateIdentity("alice", testDescriptor(0.1), testDescriptor(0.15), testDescriptor(0.3))
	store.CreateIdentity("bob", testDescriptor(0.5))

	idx := NewSuggestIndex()
	idx.Sync(store)

	sims := idx.Similar(testDescriptor(0.1), 5, "")
	if len(sims) != 2 {
		t.Fatalf("expected one suggestion per person, got %+v", sims)
	}
	if sims[0].ProfileID != alice.ID {
		t.Fatalf("expected alice first, got %+v", sims[0])
	}
	if sims[0].Distance != 0 {
		t.Errorf("expected alice's best sample distance 0, got %v", sims[0].Distance)
	}
}

func TestSuggestIndex_SyncTracksDescriptorCount(t *testing.T) {
	store := recognizer.NewStore()
	p, _ := store.CreateIdentity("alice", testDescriptor(0.1))

	idx := NewSuggestIndex()
	idx.Sync(store)
	if idx.Size() != 1 {
		t.Fatalf("Size() = %d, want 1", idx.Size())
	}

	// No count change, no rebuild needed; Sync stays cheap.
	idx.Sync(store)
	if idx.Size() != 1 {
		t.Fatalf("Size() = %d after no-op sync, want 1", idx.Size())
	}

	store.AppendSample(p.ID, testDescriptor(0.2))
	idx.Sync(store)
	if idx.Size() != 2 {
		t.Errorf("Size() = %d after append+sync, want 2", idx.Size())
	}
}

func TestSuggestIndex_EmptyStore(t *testing.T) {
	idx := NewSuggestIndex()
	idx.Sync(recognizer.NewStore())

	if sims := idx.Similar(testDescriptor(0.1), 3, ""); len(sims) != 0 {
		t.Errorf("expected no suggestions from an empty index, got %+v", sims)
	}
}

func TestSuggestIndex_SimilarToProfile(t *testing.T) {
	store := recognizer.NewStore()
	alice, _ := store.CreateIdentity("alice", testDescriptor(0.1), testDescriptor(0.6))
	store.CreateIdentity("bob", testDescriptor(0.12))
	store.CreateIdentity("carol", testDescriptor(0.62))

	idx := NewSuggestIndex()
	idx.Sync(store)

	sims, err := idx.SimilarToProfile(store, alice.ID, 5)
	if err != nil {
		t.Fatalf("SimilarToProfile() error = %v", err)
	}
	// Both bob (near sample 0) and carol (near sample 1) should surface.
	names := map[string]bool{}
	for _, s := range sims {
		names[s.Name] = true
		if s.ProfileID == alice.ID {
			t.Errorf("profile suggested as similar to itself")
		}
	}
	if !names["bob"] || !names["carol"] {
		t.Errorf("expected bob and carol in suggestions, got %+v", sims)
	}
}

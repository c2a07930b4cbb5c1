// Package gallery persists enrolled people and feeds them back into the
// in-memory recognizer store at startup. Two backends exist: a JSON file
// (the default) and PostgreSQL with pgvector. The matching path never
// touches the gallery; it only sees the recognizer store.
package gallery

import (
	"context"
	"time"

	"github.com/pvolek/facegate/internal/recognizer"
)

// Person is the persisted record for one enrolled identity. Images and
// Descriptors are paired by index: Images[i] is the enrollment shot the
// descriptor Descriptors[i] was extracted from. An image may be nil when
// only the descriptor was imported.
type Person struct {
	ID          string
	Name        string
	CreatedAt   time.Time
	Images      [][]byte
	Descriptors [][]float32
}

// Profile converts the record into the recognizer's in-memory shape.
// Images stay behind; the matching engine only reads descriptors.
func (p Person) Profile() *recognizer.Profile {
	return &recognizer.Profile{
		ID:          p.ID,
		Name:        p.Name,
		CreatedAt:   p.CreatedAt,
		Descriptors: p.Descriptors,
	}
}

// Store is the persistence contract both backends implement. Save is an
// upsert of the full record; Load returns everything in enrollment order.
type Store interface {
	Load(ctx context.Context) ([]Person, error)
	Save(ctx context.Context, person Person) error
	Delete(ctx context.Context, id string) error
}
